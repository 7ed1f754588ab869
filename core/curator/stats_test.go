package curator

import (
	"testing"
	"time"

	"MagicLists/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStatsAggregatesRealEvents(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	history := []model.PlayEvent{
		{TrackID: "t1", Title: "Song One", Artist: "Artist A", Album: "Album A", PlayedAt: now.AddDate(0, 0, -30)},
		{TrackID: "t1", Title: "Song One", Artist: "Artist A", Album: "Album A", PlayedAt: now.AddDate(0, 0, -10)},
		{TrackID: "t1", Title: "Song One", Artist: "Artist A", Album: "Album A", PlayedAt: now.AddDate(0, 0, -20)},
		{TrackID: "t2", Title: "Song Two", Artist: "Artist B", Genre: "Rock", PlayedAt: now.AddDate(0, 0, -2)},
	}

	stats := BuildStats(history, now)
	require.Len(t, stats, 2)

	s1 := stats["t1"]
	require.NotNil(t, s1)
	assert.Equal(t, 3, s1.TotalPlays)
	assert.Equal(t, 0, s1.RecentPlays)
	require.NotNil(t, s1.LastPlay)
	assert.Equal(t, now.AddDate(0, 0, -10), *s1.LastPlay)
	assert.Equal(t, "Song One", s1.Title)
	assert.Equal(t, "Artist A", s1.Artist)

	s2 := stats["t2"]
	require.NotNil(t, s2)
	assert.Equal(t, 1, s2.TotalPlays)
	assert.Equal(t, 1, s2.RecentPlays, "a play 2 days ago is recent")
	assert.Equal(t, "Rock", s2.Genre)
}

func TestBuildStatsRecentWindowBoundary(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	history := []model.PlayEvent{
		{TrackID: "edge", PlayedAt: now.Add(-recentWindow)},
		{TrackID: "past", PlayedAt: now.Add(-recentWindow - time.Second)},
	}

	stats := BuildStats(history, now)
	assert.Equal(t, 1, stats["edge"].RecentPlays, "exactly 7 days ago still counts as recent")
	assert.Equal(t, 0, stats["past"].RecentPlays)
}

func TestBuildStatsSyntheticEntries(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	history := []model.PlayEvent{
		{TrackID: "syn", Title: "Counted Only", Artist: "Artist C", PlayCount: 42, Synthetic: true},
	}

	stats := BuildStats(history, now)
	s := stats["syn"]
	require.NotNil(t, s)
	assert.Equal(t, 42, s.TotalPlays, "synthetic entries set the play count directly")
	assert.Equal(t, 0, s.RecentPlays, "synthetic plays never count as recent")
	assert.Nil(t, s.LastPlay)
}

func TestBuildStatsZeroTimestampIgnored(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	history := []model.PlayEvent{
		{TrackID: "t1"},
	}

	stats := BuildStats(history, now)
	s := stats["t1"]
	require.NotNil(t, s)
	assert.Equal(t, 1, s.TotalPlays)
	assert.Nil(t, s.LastPlay)
	assert.Equal(t, 0, s.RecentPlays)
}
