package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"MagicLists/core/curator"
	"MagicLists/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistory struct {
	events []model.PlayEvent
}

func (s *stubHistory) FetchPlayHistory(ctx context.Context, windowDays int) ([]model.PlayEvent, error) {
	return s.events, nil
}

type noAI struct{}

func (noAI) Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	return "", errors.New("unavailable")
}

func (noAI) Configured() bool { return false }

type fakeScheduleRepo struct {
	due      []*model.ScheduledPlaylist
	advanced map[int64]time.Time
}

func (f *fakeScheduleRepo) CreateSchedule(s *model.ScheduledPlaylist) error { return nil }

func (f *fakeScheduleRepo) GetAllSchedules() ([]*model.ScheduledPlaylist, error) {
	return f.due, nil
}

func (f *fakeScheduleRepo) GetDueSchedules(now time.Time) ([]*model.ScheduledPlaylist, error) {
	return f.due, nil
}

func (f *fakeScheduleRepo) UpdateNextRefresh(id int64, next time.Time) error {
	if f.advanced == nil {
		f.advanced = make(map[int64]time.Time)
	}
	f.advanced[id] = next
	return nil
}

func (f *fakeScheduleRepo) DeleteSchedule(id int64) error { return nil }

type fakeWriter struct {
	replaced map[string][]string
	err      error
}

func (f *fakeWriter) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string, comment string) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]string)
	}
	f.replaced[playlistID] = trackIDs
	return nil
}

func eligibleHistory() []model.PlayEvent {
	monthAgo := time.Now().AddDate(0, 0, -30)
	var events []model.PlayEvent
	for i := 0; i < 10; i++ {
		events = append(events, model.PlayEvent{
			TrackID:  fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Title %d", i),
			Artist:   fmt.Sprintf("Artist %d", i),
			PlayedAt: monthAgo,
		})
	}
	return events
}

func newTestScheduler(repo *fakeScheduleRepo, writer *fakeWriter) *Scheduler {
	cur := curator.NewCurator(&stubHistory{events: eligibleHistory()}, noAI{}, nil, curator.Defaults{})
	return New(cur, writer, repo, time.Minute, 5)
}

func TestRefreshDueRewritesPlaylistAndAdvances(t *testing.T) {
	repo := &fakeScheduleRepo{due: []*model.ScheduledPlaylist{
		{ID: 1, PlaylistType: "re_discover", NavidromePlaylistID: "pl-1", RefreshFrequency: "weekly"},
	}}
	writer := &fakeWriter{}

	require.NoError(t, newTestScheduler(repo, writer).RefreshDue(context.Background()))

	require.Contains(t, writer.replaced, "pl-1")
	assert.Len(t, writer.replaced["pl-1"], 5)

	next, ok := repo.advanced[1]
	require.True(t, ok, "schedule advances after a successful refresh")
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), next, time.Minute)
}

func TestRefreshDueWriterFailureDoesNotAdvance(t *testing.T) {
	repo := &fakeScheduleRepo{due: []*model.ScheduledPlaylist{
		{ID: 1, PlaylistType: "re_discover", NavidromePlaylistID: "pl-1", RefreshFrequency: "weekly"},
	}}
	writer := &fakeWriter{err: errors.New("navidrome down")}

	require.NoError(t, newTestScheduler(repo, writer).RefreshDue(context.Background()),
		"per-schedule failures do not fail the pass")
	assert.Empty(t, repo.advanced, "failed refreshes retry on the next pass")
}

func TestRefreshDueSkipsUnsupportedTypes(t *testing.T) {
	repo := &fakeScheduleRepo{due: []*model.ScheduledPlaylist{
		{ID: 2, PlaylistType: "this_is", NavidromePlaylistID: "pl-2", RefreshFrequency: "daily"},
	}}
	writer := &fakeWriter{}

	require.NoError(t, newTestScheduler(repo, writer).RefreshDue(context.Background()))
	assert.Empty(t, writer.replaced)

	next, ok := repo.advanced[2]
	require.True(t, ok, "skipped schedules still advance instead of spinning every pass")
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), next, time.Minute)
}

func TestRefreshDueNothingDue(t *testing.T) {
	repo := &fakeScheduleRepo{}
	writer := &fakeWriter{}
	require.NoError(t, newTestScheduler(repo, writer).RefreshDue(context.Background()))
	assert.Empty(t, writer.replaced)
	assert.Empty(t, repo.advanced)
}
