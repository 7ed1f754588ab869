package curator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"MagicLists/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistory struct {
	events []model.PlayEvent
	err    error
}

func (s *stubHistory) FetchPlayHistory(ctx context.Context, windowDays int) ([]model.PlayEvent, error) {
	return s.events, s.err
}

type stubAI struct {
	configured bool
	generate   func(system, user string) (string, error)
	calls      int
}

func (s *stubAI) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	s.calls++
	return s.generate(systemPrompt, userPrompt)
}

func (s *stubAI) Configured() bool {
	return s.configured
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// rediscoverHistory yields 10 distinct-artist tracks all eligible for
// rediscovery, each played (i+1) times 30 days ago.
func rediscoverHistory() []model.PlayEvent {
	var events []model.PlayEvent
	for i := 0; i < 10; i++ {
		for p := 0; p <= i; p++ {
			events = append(events, model.PlayEvent{
				TrackID:  fmt.Sprintf("track-%d", i),
				Title:    fmt.Sprintf("Title %d", i),
				Artist:   fmt.Sprintf("Artist %d", i),
				PlayedAt: testNow.AddDate(0, 0, -30),
			})
		}
	}
	return events
}

func newTestCurator(history HistoryProvider, aiProv AIProvider) *Curator {
	c := NewCurator(history, aiProv, nil, Defaults{AnalysisDays: 30, MinGapDays: 7, MaxTracks: 20})
	c.now = func() time.Time { return testNow }
	c.rng = rand.New(rand.NewSource(1))
	return c
}

// echoSelection returns an AI stub that selects the first n indices it is
// offered, in order.
func echoSelection(n int) *stubAI {
	return &stubAI{
		configured: true,
		generate: func(system, user string) (string, error) {
			var payload PromptPayload
			if err := json.Unmarshal([]byte(user), &payload); err != nil {
				return "", err
			}
			indices := make([]int, 0, n)
			for i := 0; i < n && i < len(payload.AvailableTracks); i++ {
				indices = append(indices, payload.AvailableTracks[i].Index)
			}
			body, _ := json.Marshal(map[string]any{
				"track_ids": indices,
				"reasoning": "picked the first offered",
			})
			return string(body), nil
		},
	}
}

func TestGenerateRediscoverWeeklyWithAI(t *testing.T) {
	c := newTestCurator(&stubHistory{events: rediscoverHistory()}, echoSelection(5))

	tracks, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	require.NoError(t, err)
	require.Len(t, tracks, 5)

	for _, tr := range tracks {
		assert.True(t, tr.AICurated)
		assert.Equal(t, "picked the first offered", tr.AIReasoning)
		assert.NotEmpty(t, tr.Title)
		assert.Equal(t, 30, tr.DaysSinceLastPlay)
		assert.Greater(t, tr.Score, 0.0)
	}
}

func TestGenerateRediscoverWeeklyAIDisabled(t *testing.T) {
	ai := echoSelection(5)
	c := newTestCurator(&stubHistory{events: rediscoverHistory()}, ai)

	tracks, err := c.GenerateRediscoverWeekly(context.Background(), 5, false, "")
	require.NoError(t, err)
	require.Len(t, tracks, 5)

	assert.Equal(t, 0, ai.calls, "disabled AI is never called")
	for _, tr := range tracks {
		assert.False(t, tr.AICurated)
	}
	// Fallback is the score-descending top of the pool.
	assert.Equal(t, "track-9", tracks[0].ID)
	assert.Equal(t, "track-8", tracks[1].ID)
}

func TestGenerateRediscoverWeeklyUnconfiguredAI(t *testing.T) {
	ai := &stubAI{configured: false, generate: func(string, string) (string, error) {
		return "", errors.New("should not be called")
	}}
	c := newTestCurator(&stubHistory{events: rediscoverHistory()}, ai)

	tracks, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	require.NoError(t, err)
	require.Len(t, tracks, 5)
	assert.Equal(t, 0, ai.calls)
	assert.False(t, tracks[0].AICurated)
	assert.Equal(t, "No AI API key configured, algorithmic selection used", tracks[0].AIReasoning)
}

func TestGenerateRediscoverWeeklyTransportFailure(t *testing.T) {
	ai := &stubAI{configured: true, generate: func(string, string) (string, error) {
		return "", errors.New("connection refused")
	}}
	c := newTestCurator(&stubHistory{events: rediscoverHistory()}, ai)

	tracks, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	require.NoError(t, err, "transport failures degrade, they do not surface")
	require.Len(t, tracks, 5)
	assert.False(t, tracks[0].AICurated)
	assert.Contains(t, tracks[0].AIReasoning, "Network error: connection refused")
}

func TestGenerateRediscoverWeeklyMalformedResponse(t *testing.T) {
	ai := &stubAI{configured: true, generate: func(string, string) (string, error) {
		return "Sorry, I can't produce JSON today.", nil
	}}
	c := newTestCurator(&stubHistory{events: rediscoverHistory()}, ai)

	tracks, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	require.NoError(t, err)
	require.Len(t, tracks, 5)
	assert.False(t, tracks[0].AICurated)
	assert.Contains(t, tracks[0].AIReasoning, "AI returned invalid JSON")
}

func TestGenerateRediscoverWeeklyEmptyHistory(t *testing.T) {
	c := newTestCurator(&stubHistory{events: nil}, echoSelection(5))

	_, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestGenerateRediscoverWeeklyHistoryError(t *testing.T) {
	c := newTestCurator(&stubHistory{err: errors.New("navidrome down")}, echoSelection(5))

	_, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get listening history")
}

func TestGenerateRediscoverWeeklyNoEligibleCandidates(t *testing.T) {
	// Everything played yesterday: history exists but nothing qualifies.
	events := []model.PlayEvent{
		{TrackID: "t1", Artist: "A", PlayedAt: testNow.AddDate(0, 0, -1)},
	}
	c := newTestCurator(&stubHistory{events: events}, echoSelection(5))

	_, err := c.GenerateRediscoverWeekly(context.Background(), 5, true, "")
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func thisIsTracks(n int) []model.Track {
	tracks := make([]model.Track, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, model.Track{
			ID:        fmt.Sprintf("song-%d", i),
			Title:     fmt.Sprintf("Song %d", i),
			Artist:    "The Artist",
			PlayCount: i,
			Year:      2000 + i,
		})
	}
	return tracks
}

func TestCurateThisIsWithAI(t *testing.T) {
	c := newTestCurator(&stubHistory{}, echoSelection(3))

	result, err := c.CurateThisIs(context.Background(), "The Artist", thisIsTracks(10), 3, true, "")
	require.NoError(t, err)
	require.Len(t, result.TrackIDs, 3)
	assert.True(t, result.AICurated)
	assert.Equal(t, "picked the first offered", result.Reasoning)
}

func TestCurateThisIsEmptySource(t *testing.T) {
	c := newTestCurator(&stubHistory{}, echoSelection(3))

	_, err := c.CurateThisIs(context.Background(), "Nobody", nil, 3, true, "")
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestCurateThisIsFallbackSortsByPlayCount(t *testing.T) {
	ai := &stubAI{configured: false, generate: func(string, string) (string, error) {
		return "", nil
	}}
	c := newTestCurator(&stubHistory{}, ai)

	result, err := c.CurateThisIs(context.Background(), "The Artist", thisIsTracks(10), 3, true, "")
	require.NoError(t, err)
	assert.False(t, result.AICurated)
	assert.Equal(t, []string{"song-9", "song-8", "song-7"}, result.TrackIDs)
	assert.Equal(t, "No AI API key configured, algorithmic selection used", result.Reasoning)
}

func TestCurateThisIsReasoningSuppressed(t *testing.T) {
	c := newTestCurator(&stubHistory{}, echoSelection(3))

	result, err := c.CurateThisIs(context.Background(), "The Artist", thisIsTracks(10), 3, false, "")
	require.NoError(t, err)
	assert.Empty(t, result.Reasoning)
	assert.True(t, result.AICurated)
}

func TestFallbackSelection(t *testing.T) {
	tracks := []model.Track{
		{ID: "a", PlayCount: 5, Year: 1999},
		{ID: "b", PlayCount: 5, Year: 2020},
		{ID: "c", PlayCount: 9, Year: 1980},
	}

	assert.Equal(t, []string{"c", "b", "a"}, FallbackSelection(tracks, 3),
		"play count descending, year breaks ties")
	assert.Equal(t, []string{"c", "b"}, FallbackSelection(tracks, 2))
	assert.Len(t, FallbackSelection(tracks, 10), 3, "n larger than the pool is clamped")
}
