package navidrome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"MagicLists/logger"
)

// CreatePlaylist creates a playlist and adds tracks in the given order.
// Returns the new playlist's Navidrome ID.
func (c *Client) CreatePlaylist(ctx context.Context, name string, trackIDs []string, comment string) (string, error) {
	extra := url.Values{}
	extra.Set("name", name)
	raw, err := c.get(ctx, "createPlaylist.view", extra)
	if err != nil {
		return "", err
	}

	var result struct {
		Playlist struct {
			ID string `json:"id"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to parse createPlaylist response: %w", err)
	}
	if result.Playlist.ID == "" {
		return "", fmt.Errorf("no playlist ID in createPlaylist response")
	}
	playlistID := result.Playlist.ID

	if len(trackIDs) > 0 {
		// Single updatePlaylist call with repeated songIdToAdd parameters
		// keeps the curated order intact.
		update := url.Values{}
		update.Set("playlistId", playlistID)
		for _, id := range trackIDs {
			update.Add("songIdToAdd", id)
		}
		if _, err := c.get(ctx, "updatePlaylist.view", update); err != nil {
			return "", fmt.Errorf("failed to add songs to playlist: %w", err)
		}
	}

	// createPlaylist does not accept a comment; set it afterwards.
	if comment != "" {
		update := url.Values{}
		update.Set("playlistId", playlistID)
		update.Set("comment", comment)
		if _, err := c.get(ctx, "updatePlaylist.view", update); err != nil {
			logger.Warn("Failed to set playlist comment",
				logger.String("playlistId", playlistID),
				logger.ErrorField(err))
		}
	}

	logger.Info("Created Navidrome playlist",
		logger.String("playlistId", playlistID),
		logger.String("name", name),
		logger.Int("tracks", len(trackIDs)))

	return playlistID, nil
}

// ReplacePlaylistTracks replaces a playlist's contents with the given
// tracks, preserving their order.
func (c *Client) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string, comment string) error {
	current, err := c.getPlaylistSize(ctx, playlistID)
	if err != nil {
		return err
	}

	if current > 0 {
		clearParams := url.Values{}
		clearParams.Set("playlistId", playlistID)
		for i := 0; i < current; i++ {
			clearParams.Add("songIndexToRemove", strconv.Itoa(i))
		}
		if _, err := c.get(ctx, "updatePlaylist.view", clearParams); err != nil {
			return fmt.Errorf("failed to clear playlist: %w", err)
		}
	}

	update := url.Values{}
	update.Set("playlistId", playlistID)
	for _, id := range trackIDs {
		update.Add("songIdToAdd", id)
	}
	if comment != "" {
		update.Set("comment", comment)
	}
	if _, err := c.get(ctx, "updatePlaylist.view", update); err != nil {
		return fmt.Errorf("failed to add songs to playlist: %w", err)
	}

	logger.Info("Replaced Navidrome playlist tracks",
		logger.String("playlistId", playlistID),
		logger.Int("removed", current),
		logger.Int("added", len(trackIDs)))

	return nil
}

func (c *Client) getPlaylistSize(ctx context.Context, playlistID string) (int, error) {
	extra := url.Values{}
	extra.Set("id", playlistID)
	raw, err := c.get(ctx, "getPlaylist.view", extra)
	if err != nil {
		return 0, err
	}

	var result struct {
		Playlist struct {
			Entry []struct {
				ID string `json:"id"`
			} `json:"entry"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("failed to parse getPlaylist response: %w", err)
	}
	return len(result.Playlist.Entry), nil
}
