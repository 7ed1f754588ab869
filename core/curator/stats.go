package curator

import (
	"time"

	"MagicLists/model"
)

// recentWindow is the span that counts as "recently played".
const recentWindow = 7 * 24 * time.Hour

// BuildStats aggregates raw play events into per-track statistics.
//
// Real scrobbles increment TotalPlays per event, track the max timestamp as
// LastPlay and count plays inside the recent window. Synthetic entries (the
// degraded play-count-only history source) set TotalPlays directly and never
// count as recent: we cannot know when those plays happened, so assuming
// "not recent" keeps them eligible for re-discovery rather than silently
// excluded.
//
// Pure transform: no side effects beyond the provided input and `now`.
func BuildStats(history []model.PlayEvent, now time.Time) map[string]*model.TrackStat {
	weekAgo := now.Add(-recentWindow)

	stats := make(map[string]*model.TrackStat, len(history))
	for _, entry := range history {
		stat, ok := stats[entry.TrackID]
		if !ok {
			stat = &model.TrackStat{TrackID: entry.TrackID}
			stats[entry.TrackID] = stat
		}

		stat.Title = entry.Title
		stat.Artist = entry.Artist
		stat.Album = entry.Album
		if entry.Genre != "" {
			stat.Genre = entry.Genre
		}

		if entry.Synthetic {
			stat.TotalPlays = entry.PlayCount
			stat.RecentPlays = 0
			continue
		}

		stat.TotalPlays++

		if entry.PlayedAt.IsZero() {
			continue
		}
		playedAt := entry.PlayedAt
		if stat.LastPlay == nil || playedAt.After(*stat.LastPlay) {
			t := playedAt
			stat.LastPlay = &t
		}
		if !playedAt.Before(weekAgo) {
			stat.RecentPlays++
		}
	}

	return stats
}
