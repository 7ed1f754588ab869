package curator

import (
	"sort"
	"time"

	"MagicLists/model"
)

const (
	// scoreDecayCapDays caps how much "time forgotten" can amplify a score.
	// Beyond 90 days the forgetting signal stops growing, so ancient tracks
	// cannot drown out genuinely popular ones.
	scoreDecayCapDays = 90

	// maxGapDays excludes tracks not played within this window; anything
	// older is better served by a different feature than weekly rediscovery.
	maxGapDays = 120

	// defaultGapDays is assumed for tracks with plays on record but no
	// last-play timestamp, keeping them eligible instead of dropping them.
	defaultGapDays = 90

	// poolOversample keeps this multiple of the target count after scoring
	// so the diversity filter and the AI selection have real choice.
	poolOversample = 2.5
)

// ScoreOptions tunes candidate selection.
type ScoreOptions struct {
	MinGapDays   int // minimum days since last play (default 7)
	MaxTracks    int // target playlist length
	MaxPerArtist int // 0 = derive from MaxTracks
}

// MaxPerArtistFor derives the per-artist cap: roughly 12.5% of the target
// length, never below 2.
func MaxPerArtistFor(maxTracks int) int {
	limit := maxTracks / 8
	if limit < 2 {
		limit = 2
	}
	return limit
}

// Score converts track statistics into a ranked, time-windowed,
// diversity-filtered candidate list.
//
// A track becomes a candidate when all of:
//   - it has at least one historical play
//   - it has no plays in the recent window
//   - its days-since-last-play falls in [MinGapDays, 120]; tracks with no
//     recorded last play default to 90 days
//
// Score = total plays x min(days since last play, 90), descending.
// Returns ErrNoCandidates when nothing survives filtering.
func Score(stats map[string]*model.TrackStat, opts ScoreOptions, now time.Time) ([]model.ScoredCandidate, error) {
	if len(stats) == 0 {
		return nil, ErrInsufficientHistory
	}

	minGap := opts.MinGapDays
	if minGap <= 0 {
		minGap = 7
	}
	maxPerArtist := opts.MaxPerArtist
	if maxPerArtist <= 0 {
		maxPerArtist = MaxPerArtistFor(opts.MaxTracks)
	}

	candidates := make([]model.ScoredCandidate, 0, len(stats))
	for id, stat := range stats {
		if stat.TotalPlays < 1 {
			continue
		}
		if stat.RecentPlays > 0 {
			continue
		}

		days := defaultGapDays
		if stat.LastPlay != nil {
			days = int(now.Sub(*stat.LastPlay).Hours() / 24)
		}
		if days < minGap || days > maxGapDays {
			continue
		}

		cappedDays := days
		if cappedDays > scoreDecayCapDays {
			cappedDays = scoreDecayCapDays
		}

		candidates = append(candidates, model.ScoredCandidate{
			TrackID:           id,
			Score:             float64(stat.TotalPlays) * float64(cappedDays),
			DaysSinceLastPlay: days,
			Stat:              stat,
		})
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	// Stable tie-break on track ID so identical stats always rank identically.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].TrackID < candidates[j].TrackID
	})

	poolSize := int(float64(opts.MaxTracks) * poolOversample)
	if poolSize > len(candidates) || poolSize <= 0 {
		poolSize = len(candidates)
	}
	candidates = candidates[:poolSize]

	filtered := FilterArtistDiversity(candidates, maxPerArtist)
	if len(filtered) == 0 {
		return nil, ErrNoCandidates
	}
	return filtered, nil
}

// FilterArtistDiversity greedily walks the score-descending list and drops
// any candidate once its artist has reached maxPerArtist entries. This is a
// cap, not a rebalancing pass: dropped slots are not backfilled.
func FilterArtistDiversity(candidates []model.ScoredCandidate, maxPerArtist int) []model.ScoredCandidate {
	if maxPerArtist <= 0 {
		return candidates
	}

	counts := make(map[string]int)
	filtered := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		artist := c.Stat.Artist
		if counts[artist] >= maxPerArtist {
			continue
		}
		counts[artist]++
		filtered = append(filtered, c)
	}
	return filtered
}
