package curator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecipeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestRecipeManagerGet(t *testing.T) {
	dir := writeRecipeDir(t, map[string]string{
		"registry.json": `{"re_discover": "re_discover.json"}`,
		"re_discover.json": `{
			"version": "2.0",
			"description": "weekly rediscovery",
			"llm_config": {"max_tokens": 800, "temperature": 0.5},
			"model_instructions": "Pick {{DESIRED_TRACK_COUNT}} tracks."
		}`,
	})

	m := NewRecipeManager(dir)
	recipe, err := m.Get("re_discover")
	require.NoError(t, err)
	assert.Equal(t, "2.0", recipe.Version)
	assert.Equal(t, RecipeFormatIndexed, recipe.Format())

	params := recipe.Params()
	assert.Equal(t, 800, params.MaxTokens)
	assert.Equal(t, 0.5, params.Temperature)

	_, err = m.Get("unknown_type")
	assert.Error(t, err)
}

func TestRecipeManagerLegacyFormat(t *testing.T) {
	dir := writeRecipeDir(t, map[string]string{
		"registry.json": `{"old": "old.json"}`,
		"old.json": `{
			"version": "1.0",
			"llm_params": {"max_tokens": 500},
			"prompt_template": "Choose songs."
		}`,
	})

	m := NewRecipeManager(dir)
	recipe, err := m.Get("old")
	require.NoError(t, err)
	assert.Equal(t, RecipeFormatLegacy, recipe.Format())
	assert.Equal(t, 500, recipe.Params().MaxTokens)
	assert.Equal(t, 0.7, recipe.Params().Temperature, "missing temperature falls back to the default")
	assert.Equal(t, "Choose songs.", recipe.Render(nil))
}

func TestRecipeManagerInvalidJSON(t *testing.T) {
	dir := writeRecipeDir(t, map[string]string{
		"registry.json": `{"bad": "bad.json"}`,
		"bad.json":      `{not json`,
	})

	m := NewRecipeManager(dir)
	_, err := m.Get("bad")
	assert.Error(t, err)
}

func TestRecipeManagerClearCache(t *testing.T) {
	dir := writeRecipeDir(t, map[string]string{
		"registry.json": `{"re_discover": "r.json"}`,
		"r.json":        `{"version": "1", "llm_config": {}, "model_instructions": "x"}`,
	})

	m := NewRecipeManager(dir)
	first, err := m.Get("re_discover")
	require.NoError(t, err)
	assert.Equal(t, "1", first.Version)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "r.json"),
		[]byte(`{"version": "2", "llm_config": {}, "model_instructions": "x"}`), 0644))

	cached, err := m.Get("re_discover")
	require.NoError(t, err)
	assert.Equal(t, "1", cached.Version, "served from cache until invalidated")

	m.ClearCache()
	reloaded, err := m.Get("re_discover")
	require.NoError(t, err)
	assert.Equal(t, "2", reloaded.Version)
}

func TestRecipeStrategyNotes(t *testing.T) {
	recipe := &Recipe{StrategyNotes: &StrategyNotes{}}
	recipe.StrategyNotes.TimeWindows.AnalysisPeriod = "45 days"
	recipe.StrategyNotes.TimeWindows.MinimumGap = "14+ days"
	recipe.StrategyNotes.DiversityControls.MaxPerArtist = 3

	assert.Equal(t, 45, recipe.AnalysisDays(30))
	assert.Equal(t, 14, recipe.MinGapDays(7))
	assert.Equal(t, 3, recipe.MaxPerArtist(20))

	empty := &Recipe{}
	assert.Equal(t, 30, empty.AnalysisDays(30))
	assert.Equal(t, 7, empty.MinGapDays(7))
	assert.Equal(t, 2, empty.MaxPerArtist(20), "no notes derives the cap from the target length")
}

func TestRecipeRender(t *testing.T) {
	recipe := &Recipe{
		LLMConfig:         &LLMParams{},
		ModelInstructions: "Select {{DESIRED_TRACK_COUNT}} tracks, open with {{MATH:ceil(DESIRED_TRACK_COUNT / 5)}} hits for {{TARGET_ARTIST}}.",
		format:            RecipeFormatIndexed,
	}

	got := recipe.Render(map[string]string{
		"DESIRED_TRACK_COUNT": "12",
		"TARGET_ARTIST":       "Artist A",
	})
	assert.Equal(t, "Select 12 tracks, open with 3 hits for Artist A.", got)
}

func TestRecipeRenderBadMathKeepsPlaceholder(t *testing.T) {
	recipe := &Recipe{
		LLMConfig:         &LLMParams{},
		ModelInstructions: "{{MATH:1 / 0}}",
		format:            RecipeFormatIndexed,
	}
	assert.Equal(t, "{{MATH:1 / 0}}", recipe.Render(nil))
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2", "3"},
		{"20 * 2", "40"},
		{"7 / 2", "3.5"},
		{"(2 + 3) * 4", "20"},
		{"-3 + 5", "2"},
		{"ceil(12 / 5)", "3"},
		{"floor(12 / 5)", "2"},
		{"min(10, 4)", "4"},
		{"max(10, 4, 25)", "25"},
		{"ceil(20 * 0.3)", "6"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalArithmetic(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, expr := range []string{"", "1 +", "2 ** 3", "foo(1, 2)", "ceil(1", "4 / 0"} {
		t.Run("invalid "+expr, func(t *testing.T) {
			_, err := evalArithmetic(expr)
			assert.Error(t, err)
		})
	}
}
