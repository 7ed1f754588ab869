package navidrome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MagicLists/logger"
	"MagicLists/model"
)

const (
	scrobbleFetchCount  = 1000
	fallbackArtistLimit = 50
)

// FetchPlayHistory returns listening history for the last windowDays.
// Prefers the getScrobbles endpoint (precise timestamped events); when that
// endpoint is unavailable or empty, degrades to synthetic entries derived
// from library play counts.
func (c *Client) FetchPlayHistory(ctx context.Context, windowDays int) ([]model.PlayEvent, error) {
	events, err := c.fetchScrobbles(ctx, windowDays)
	if err != nil {
		logger.Warn("Scrobbles endpoint unavailable, using play-count fallback",
			logger.ErrorField(err))
	} else if len(events) > 0 {
		return events, nil
	}

	return c.fetchSyntheticHistory(ctx)
}

func (c *Client) fetchScrobbles(ctx context.Context, windowDays int) ([]model.PlayEvent, error) {
	extra := url.Values{}
	extra.Set("count", strconv.Itoa(scrobbleFetchCount))
	raw, err := c.get(ctx, "getScrobbles.view", extra)
	if err != nil {
		return nil, err
	}

	var result struct {
		Scrobbles struct {
			Scrobble []struct {
				ID     string `json:"id"`
				Title  string `json:"title"`
				Artist string `json:"artist"`
				Album  string `json:"album"`
				Genre  string `json:"genre"`
				Time   string `json:"time"`
			} `json:"scrobble"`
		} `json:"scrobbles"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse getScrobbles response: %w", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -windowDays)

	events := make([]model.PlayEvent, 0, len(result.Scrobbles.Scrobble))
	for _, s := range result.Scrobbles.Scrobble {
		playedAt, err := parseScrobbleTime(s.Time)
		if err != nil {
			continue
		}
		if playedAt.Before(start) || playedAt.After(end) {
			continue
		}
		events = append(events, model.PlayEvent{
			TrackID:  s.ID,
			Title:    s.Title,
			Artist:   s.Artist,
			Album:    s.Album,
			Genre:    s.Genre,
			PlayedAt: playedAt,
		})
	}
	return events, nil
}

// parseScrobbleTime accepts either an RFC3339 timestamp or a Unix
// millisecond value; formats vary across server versions.
func parseScrobbleTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty scrobble time")
	}
	if strings.Contains(value, "T") {
		return time.Parse(time.RFC3339, value)
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad scrobble time %q: %w", value, err)
	}
	return time.UnixMilli(ms), nil
}

// fetchSyntheticHistory builds play-count-only history entries from the
// most prominent artists' libraries. Less accurate than scrobbles but keeps
// the feature working on servers without a history endpoint.
func (c *Client) fetchSyntheticHistory(ctx context.Context) ([]model.PlayEvent, error) {
	artists, err := c.GetArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get listening history: %w", err)
	}

	if len(artists) > fallbackArtistLimit {
		artists = artists[:fallbackArtistLimit]
	}

	history := make([]model.PlayEvent, 0)
	for _, artist := range artists {
		tracks, err := c.GetTracksByArtist(ctx, artist.ID)
		if err != nil {
			// Skip artists that fail.
			continue
		}
		for _, track := range tracks {
			if track.PlayCount <= 0 {
				continue
			}
			history = append(history, model.PlayEvent{
				TrackID:   track.ID,
				Title:     track.Title,
				Artist:    artist.Name,
				Album:     track.Album,
				Genre:     track.Genre,
				PlayCount: track.PlayCount,
				Synthetic: true,
			})
		}
	}

	logger.Info("Built synthetic listening history from play counts",
		logger.Int("artists", len(artists)),
		logger.Int("entries", len(history)))

	return history, nil
}
