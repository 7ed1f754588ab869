package curator

import (
	"sort"
	"time"

	"MagicLists/logger"
	"MagicLists/model"
)

// LibraryStats carry the normalization ceilings for engagement scoring.
type LibraryStats struct {
	MaxPlayCount int
}

// EngagementScore rates a single track against the user's listening
// behavior: play count normalized to 0-100, a flat bonus for loved tracks,
// star ratings scaled to 0-50 and a bonus for plays within the last 30 days.
func EngagementScore(track model.Track, lib LibraryStats, now time.Time) float64 {
	score := 0.0

	if lib.MaxPlayCount > 0 {
		score += float64(track.PlayCount) / float64(lib.MaxPlayCount) * 100
	}

	if track.Loved {
		score += 50
	}

	if track.Rating > 0 {
		score += float64(track.Rating) * 10
	}

	if track.LastPlayed != nil {
		daysSince := int(now.Sub(*track.LastPlayed).Hours() / 24)
		if daysSince >= 0 && daysSince <= 30 {
			score += float64(30 - daysSince)
		}
	}

	return score
}

// FilterThresholdMultiplier sizes how many source tracks are worth sending
// to the model for a given target length. Larger targets tolerate smaller
// multipliers: the odds of capturing the good tracks rise with pool size
// while token cost keeps climbing.
func FilterThresholdMultiplier(targetSize int) int {
	switch {
	case targetSize <= 25:
		return 10
	case targetSize <= 50:
		return 8
	case targetSize <= 100:
		return 6
	default:
		m := 600 / targetSize * 6
		if m < 5 {
			m = 5
		}
		return m
	}
}

// FilterByEngagement trims an oversized source pool to the top engagement-
// scored tracks before prompt building. Pools already under the threshold
// pass through untouched.
func FilterByEngagement(tracks []model.Track, targetSize int, lib LibraryStats, now time.Time) []model.Track {
	threshold := targetSize * FilterThresholdMultiplier(targetSize)
	if len(tracks) <= threshold {
		return tracks
	}

	type scored struct {
		score float64
		track model.Track
	}
	ranked := make([]scored, 0, len(tracks))
	for _, t := range tracks {
		ranked = append(ranked, scored{score: EngagementScore(t, lib, now), track: t})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	filtered := make([]model.Track, 0, threshold)
	for _, s := range ranked[:threshold] {
		filtered = append(filtered, s.track)
	}

	logger.Info("Filtered source tracks by engagement",
		logger.Int("source", len(tracks)),
		logger.Int("sent", len(filtered)),
		logger.Int("target", targetSize))

	return filtered
}

// LibraryStatsFor derives normalization ceilings from a track set.
func LibraryStatsFor(tracks []model.Track) LibraryStats {
	var stats LibraryStats
	for _, t := range tracks {
		if t.PlayCount > stats.MaxPlayCount {
			stats.MaxPlayCount = t.PlayCount
		}
	}
	return stats
}
