package navidrome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"MagicLists/model"
)

// subsonicSong is the wire shape of a Subsonic song entry.
type subsonicSong struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Genre     string `json:"genre"`
	Year      int    `json:"year"`
	Duration  int    `json:"duration"`
	PlayCount int    `json:"playCount"`
	Played    string `json:"played"` // RFC3339 last-played timestamp
	Starred   string `json:"starred"`
	Rating    int    `json:"userRating"`
}

func (s subsonicSong) toTrack() model.Track {
	track := model.Track{
		ID:        s.ID,
		Title:     s.Title,
		Artist:    s.Artist,
		Album:     s.Album,
		Genre:     s.Genre,
		Year:      s.Year,
		Duration:  s.Duration,
		PlayCount: s.PlayCount,
		Loved:     s.Starred != "",
		Rating:    s.Rating,
	}
	if s.Played != "" {
		if t, err := time.Parse(time.RFC3339, s.Played); err == nil {
			track.LastPlayed = &t
		}
	}
	return track
}

// GetArtists fetches all artists in the library.
func (c *Client) GetArtists(ctx context.Context) ([]model.Artist, error) {
	raw, err := c.get(ctx, "getArtists.view", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Artists struct {
			Index []struct {
				Artist []struct {
					ID         string `json:"id"`
					Name       string `json:"name"`
					AlbumCount int    `json:"albumCount"`
				} `json:"artist"`
			} `json:"index"`
		} `json:"artists"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse getArtists response: %w", err)
	}

	artists := make([]model.Artist, 0)
	for _, index := range result.Artists.Index {
		for _, a := range index.Artist {
			artists = append(artists, model.Artist{
				ID:         a.ID,
				Name:       a.Name,
				AlbumCount: a.AlbumCount,
			})
		}
	}
	return artists, nil
}

// GetTracksByArtist fetches every track for an artist by walking the
// artist's albums.
func (c *Client) GetTracksByArtist(ctx context.Context, artistID string) ([]model.Track, error) {
	extra := url.Values{}
	extra.Set("id", artistID)
	raw, err := c.get(ctx, "getArtist.view", extra)
	if err != nil {
		return nil, err
	}

	var result struct {
		Artist struct {
			Album []struct {
				ID string `json:"id"`
			} `json:"album"`
		} `json:"artist"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse getArtist response: %w", err)
	}

	tracks := make([]model.Track, 0)
	for _, album := range result.Artist.Album {
		albumTracks, err := c.getAlbumTracks(ctx, album.ID)
		if err != nil {
			// Skip albums that fail rather than losing the whole artist.
			continue
		}
		tracks = append(tracks, albumTracks...)
	}
	return tracks, nil
}

func (c *Client) getAlbumTracks(ctx context.Context, albumID string) ([]model.Track, error) {
	extra := url.Values{}
	extra.Set("id", albumID)
	raw, err := c.get(ctx, "getAlbum.view", extra)
	if err != nil {
		return nil, err
	}

	var result struct {
		Album struct {
			Song []subsonicSong `json:"song"`
		} `json:"album"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse getAlbum response: %w", err)
	}

	tracks := make([]model.Track, 0, len(result.Album.Song))
	for _, s := range result.Album.Song {
		tracks = append(tracks, s.toTrack())
	}
	return tracks, nil
}

// GetGenres lists the library's genres.
func (c *Client) GetGenres(ctx context.Context) ([]string, error) {
	raw, err := c.get(ctx, "getGenres.view", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Genres struct {
			Genre []struct {
				Value string `json:"value"`
			} `json:"genre"`
		} `json:"genres"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse getGenres response: %w", err)
	}

	genres := make([]string, 0, len(result.Genres.Genre))
	for _, g := range result.Genres.Genre {
		genres = append(genres, g.Value)
	}
	return genres, nil
}

// GetTracksByGenre fetches up to count tracks for a genre.
func (c *Client) GetTracksByGenre(ctx context.Context, genre string, count int) ([]model.Track, error) {
	if count <= 0 {
		count = 500
	}
	extra := url.Values{}
	extra.Set("genre", genre)
	extra.Set("count", strconv.Itoa(count))
	raw, err := c.get(ctx, "getSongsByGenre.view", extra)
	if err != nil {
		return nil, err
	}

	var result struct {
		SongsByGenre struct {
			Song []subsonicSong `json:"song"`
		} `json:"songsByGenre"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse getSongsByGenre response: %w", err)
	}

	tracks := make([]model.Track, 0, len(result.SongsByGenre.Song))
	for _, s := range result.SongsByGenre.Song {
		tracks = append(tracks, s.toTrack())
	}
	return tracks, nil
}
