package curator

import (
	"encoding/json"
	"testing"

	"MagicLists/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCandidatesRoundTrip(t *testing.T) {
	candidates := []model.ScoredCandidate{
		{TrackID: "nv-901", Score: 300, Stat: &model.TrackStat{Title: "First", Artist: "A", TotalPlays: 10}},
		{TrackID: "nv-114", Score: 200, Stat: &model.TrackStat{Title: "Second", Artist: "B", TotalPlays: 5}},
		{TrackID: "nv-777", Score: 100, Stat: &model.TrackStat{Title: "Third", Artist: "C", TotalPlays: 2}},
	}

	indexed, indexMap := IndexCandidates(candidates)
	require.Len(t, indexed, 3)
	require.Len(t, indexMap, 3)

	for i, rec := range indexed {
		assert.Equal(t, i, rec.Index, "indices are dense and 0-based")
		assert.Equal(t, candidates[i].TrackID, indexMap[rec.Index], "indexMap inverts the indexing")
		assert.Equal(t, candidates[i].Stat.Title, rec.Title)
	}
}

func TestIndexTracksRoundTrip(t *testing.T) {
	tracks := []model.Track{
		{ID: "x1", Title: "One", Artist: "A", PlayCount: 7},
		{ID: "x2", Title: "Two", Artist: "B", PlayCount: 3},
	}

	indexed, indexMap := IndexTracks(tracks)
	require.Len(t, indexed, 2)
	assert.Equal(t, []string{"x1", "x2"}, indexMap)
	assert.Equal(t, 0, indexed[0].Index)
	assert.Equal(t, 7, indexed[0].Plays)
}

func TestBuildPrompt(t *testing.T) {
	recipe := &Recipe{
		Version:           "2.0",
		Description:       "test recipe",
		LLMConfig:         &LLMParams{},
		ModelInstructions: "Pick {{DESIRED_TRACK_COUNT}} tracks for {{TARGET_ARTIST}}.",
	}
	recipe.format = RecipeFormatIndexed

	indexed, _ := IndexTracks([]model.Track{
		{ID: "x1", Title: "One", Artist: "A"},
	})

	system, user, err := BuildPrompt(recipe, indexed, PromptRequest{
		NumTracks:    5,
		PlaylistType: "this_is",
		Context:      "more upbeat",
	}, map[string]string{
		"DESIRED_TRACK_COUNT": "5",
		"TARGET_ARTIST":       "Artist A",
	})
	require.NoError(t, err)

	assert.Contains(t, system, "Pick 5 tracks for Artist A.")
	assert.Contains(t, system, `{"track_ids": [0, 1, 2], "reasoning":`, "response contract is always appended")

	var payload PromptPayload
	require.NoError(t, json.Unmarshal([]byte(user), &payload))
	assert.Equal(t, "2.0", payload.Recipe.Version)
	assert.Equal(t, 5, payload.Request.NumTracks)
	assert.Equal(t, "more upbeat", payload.Request.Context)
	require.Len(t, payload.AvailableTracks, 1)
	assert.Equal(t, "One", payload.AvailableTracks[0].Title)
}

func TestBuildPromptOmitsRealIdentifiers(t *testing.T) {
	indexed, _ := IndexTracks([]model.Track{
		{ID: "secret-id-abc", Title: "One", Artist: "A"},
	})
	recipe := defaultThisIsRecipe

	_, user, err := BuildPrompt(recipe, indexed, PromptRequest{NumTracks: 1, PlaylistType: "this_is"}, map[string]string{
		"DESIRED_TRACK_COUNT": "1",
		"TARGET_ARTIST":       "A",
	})
	require.NoError(t, err)
	assert.NotContains(t, user, "secret-id-abc", "track identifiers never reach the model")
}
