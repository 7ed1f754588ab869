package scheduler

import (
	"context"
	"fmt"
	"time"

	"MagicLists/core/curator"
	"MagicLists/logger"
	"MagicLists/model"
	"MagicLists/repository"

	"github.com/google/uuid"
)

// PlaylistWriter is the media-server side of a refresh: replace the tracks
// of an existing remote playlist.
type PlaylistWriter interface {
	ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string, comment string) error
}

// Scheduler periodically regenerates playlists whose refresh time has
// passed. One run handles all due schedules sequentially.
type Scheduler struct {
	curator   *curator.Curator
	writer    PlaylistWriter
	schedules repository.ScheduleRepository
	interval  time.Duration
	maxTracks int
}

// New creates a scheduler. interval is how often due schedules are polled.
func New(c *curator.Curator, writer PlaylistWriter, schedules repository.ScheduleRepository, interval time.Duration, maxTracks int) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxTracks <= 0 {
		maxTracks = 20
	}
	return &Scheduler{
		curator:   c,
		writer:    writer,
		schedules: schedules,
		interval:  interval,
		maxTracks: maxTracks,
	}
}

// Run polls for due schedules until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("Scheduler started", logger.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RefreshDue(ctx); err != nil {
				logger.Error("Scheduled refresh pass failed", logger.ErrorField(err))
			}
		}
	}
}

// RefreshDue regenerates every schedule whose NextRefresh has passed. A
// failing schedule is logged and skipped; its refresh time is not advanced
// so the next pass retries it.
func (s *Scheduler) RefreshDue(ctx context.Context) error {
	now := time.Now()
	due, err := s.schedules.GetDueSchedules(now)
	if err != nil {
		return fmt.Errorf("failed to load due schedules: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	runID := uuid.NewString()[:8]
	logger.Info("Refreshing due schedules",
		logger.String("runId", runID),
		logger.Int("count", len(due)))

	for _, schedule := range due {
		if err := s.refreshOne(ctx, schedule); err != nil {
			logger.Error("Schedule refresh failed",
				logger.String("runId", runID),
				logger.Int64("scheduleId", schedule.ID),
				logger.String("playlistType", schedule.PlaylistType),
				logger.ErrorField(err))
			continue
		}

		next := now.Add(schedule.NextInterval())
		if err := s.schedules.UpdateNextRefresh(schedule.ID, next); err != nil {
			logger.Error("Failed to advance schedule",
				logger.String("runId", runID),
				logger.Int64("scheduleId", schedule.ID),
				logger.ErrorField(err))
		}
	}
	return nil
}

func (s *Scheduler) refreshOne(ctx context.Context, schedule *model.ScheduledPlaylist) error {
	switch schedule.PlaylistType {
	case "re_discover":
		return s.refreshRediscover(ctx, schedule)
	default:
		// Only re_discover playlists can be regenerated without request
		// context (This Is needs an artist). Leave others untouched.
		logger.Warn("Skipping unsupported scheduled playlist type",
			logger.String("playlistType", schedule.PlaylistType))
		return nil
	}
}

func (s *Scheduler) refreshRediscover(ctx context.Context, schedule *model.ScheduledPlaylist) error {
	tracks, err := s.curator.GenerateRediscoverWeekly(ctx, s.maxTracks, true, "")
	if err != nil {
		return fmt.Errorf("failed to regenerate rediscover playlist: %w", err)
	}

	trackIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
	}

	comment := fmt.Sprintf("Re-Discover Weekly, refreshed %s", time.Now().Format("2006-01-02"))
	if err := s.writer.ReplacePlaylistTracks(ctx, schedule.NavidromePlaylistID, trackIDs, comment); err != nil {
		return fmt.Errorf("failed to rewrite playlist tracks: %w", err)
	}

	logger.Info("Refreshed scheduled playlist",
		logger.Int64("scheduleId", schedule.ID),
		logger.String("navidromePlaylistId", schedule.NavidromePlaylistID),
		logger.Int("tracks", len(trackIDs)))
	return nil
}
