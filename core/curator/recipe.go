package curator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"MagicLists/logger"

	"github.com/fsnotify/fsnotify"
)

// RecipeFormat distinguishes the two recipe generations. Resolved once at
// load time; call sites branch on the tag instead of probing fields.
type RecipeFormat int

const (
	// RecipeFormatLegacy uses prompt_template with {name} placeholders and
	// expects the model to echo real track identifiers.
	RecipeFormatLegacy RecipeFormat = iota
	// RecipeFormatIndexed uses llm_config/model_instructions with
	// {{NAME}} placeholders and the index-based selection protocol.
	RecipeFormatIndexed
)

// LLMParams are the generation knobs a recipe requests.
type LLMParams struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// StrategyNotes hold the algorithmic parameters embedded in a recipe.
type StrategyNotes struct {
	TimeWindows struct {
		AnalysisPeriod string `json:"analysis_period"` // e.g. "30 days"
		MinimumGap     string `json:"minimum_gap"`     // e.g. "7+ days"
	} `json:"time_windows"`
	DiversityControls struct {
		MaxPerArtist int `json:"max_per_artist"`
	} `json:"diversity_controls"`
}

// Recipe is a playlist-generation template loaded from the recipes dir.
type Recipe struct {
	Version           string         `json:"version"`
	Description       string         `json:"description"`
	Inputs            []string       `json:"inputs,omitempty"`
	StrategyNotes     *StrategyNotes `json:"strategy_notes,omitempty"`
	LLMConfig         *LLMParams     `json:"llm_config,omitempty"`
	LLMParamsLegacy   *LLMParams     `json:"llm_params,omitempty"`
	ModelInstructions string         `json:"model_instructions,omitempty"`
	PromptTemplate    string         `json:"prompt_template,omitempty"`

	format RecipeFormat
}

// Format returns the tagged recipe generation.
func (r *Recipe) Format() RecipeFormat {
	return r.format
}

// Params returns the LLM knobs regardless of recipe generation, with
// defaults filled in.
func (r *Recipe) Params() LLMParams {
	var p LLMParams
	if r.LLMConfig != nil {
		p = *r.LLMConfig
	} else if r.LLMParamsLegacy != nil {
		p = *r.LLMParamsLegacy
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 1000
	}
	if p.Temperature == 0 {
		p.Temperature = 0.7
	}
	return p
}

// AnalysisDays parses the analysis window from strategy notes ("30 days").
func (r *Recipe) AnalysisDays(fallback int) int {
	if r.StrategyNotes == nil {
		return fallback
	}
	fields := strings.Fields(r.StrategyNotes.TimeWindows.AnalysisPeriod)
	if len(fields) == 0 {
		return fallback
	}
	if n, err := strconv.Atoi(fields[0]); err == nil && n > 0 {
		return n
	}
	return fallback
}

// MinGapDays parses the minimum gap from strategy notes ("7+ days").
func (r *Recipe) MinGapDays(fallback int) int {
	if r.StrategyNotes == nil {
		return fallback
	}
	gap := strings.TrimSpace(r.StrategyNotes.TimeWindows.MinimumGap)
	if i := strings.IndexAny(gap, "+ "); i > 0 {
		gap = gap[:i]
	}
	if n, err := strconv.Atoi(gap); err == nil && n > 0 {
		return n
	}
	return fallback
}

// MaxPerArtist returns the diversity cap from strategy notes, or the derived
// default for the given target length.
func (r *Recipe) MaxPerArtist(maxTracks int) int {
	if r.StrategyNotes != nil && r.StrategyNotes.DiversityControls.MaxPerArtist > 0 {
		return r.StrategyNotes.DiversityControls.MaxPerArtist
	}
	return MaxPerArtistFor(maxTracks)
}

var mathPattern = regexp.MustCompile(`\{\{MATH:([^}]+)\}\}`)

// Render substitutes {{NAME}} placeholders into the recipe's instruction
// text. A first pass evaluates {{MATH:...}} arithmetic (with
// DESIRED_TRACK_COUNT bound to its replacement value) so recipes can derive
// counts like "select {{MATH:DESIRED_TRACK_COUNT * 2}} candidates".
func (r *Recipe) Render(replacements map[string]string) string {
	text := r.ModelInstructions
	if r.format == RecipeFormatLegacy {
		text = r.PromptTemplate
	}

	text = mathPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := mathPattern.FindStringSubmatch(match)[1]
		if v, ok := replacements["DESIRED_TRACK_COUNT"]; ok {
			expr = strings.ReplaceAll(expr, "DESIRED_TRACK_COUNT", v)
		}
		result, err := evalArithmetic(expr)
		if err != nil {
			logger.Warn("Recipe math expression failed",
				logger.String("expr", expr),
				logger.ErrorField(err))
			return match
		}
		return result
	})

	for name, value := range replacements {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return text
}

// RecipeManager loads and caches recipes from a directory with a
// registry.json mapping playlist types to recipe files. An fsnotify watcher
// invalidates the cache when recipe files change on disk.
type RecipeManager struct {
	dir string

	mu       sync.RWMutex
	registry map[string]string
	recipes  map[string]*Recipe
}

// NewRecipeManager creates a manager rooted at dir.
func NewRecipeManager(dir string) *RecipeManager {
	return &RecipeManager{
		dir:     dir,
		recipes: make(map[string]*Recipe),
	}
}

func (m *RecipeManager) loadRegistry() (map[string]string, error) {
	m.mu.RLock()
	reg := m.registry
	m.mu.RUnlock()
	if reg != nil {
		return reg, nil
	}

	data, err := os.ReadFile(filepath.Join(m.dir, "registry.json"))
	if err != nil {
		return nil, fmt.Errorf("recipe registry not found: %w", err)
	}
	reg = make(map[string]string)
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("invalid JSON in recipe registry: %w", err)
	}

	m.mu.Lock()
	m.registry = reg
	m.mu.Unlock()
	return reg, nil
}

func (m *RecipeManager) loadRecipe(filename string) (*Recipe, error) {
	m.mu.RLock()
	cached, ok := m.recipes[filename]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := os.ReadFile(filepath.Join(m.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("recipe file not found: %w", err)
	}
	recipe := &Recipe{}
	if err := json.Unmarshal(data, recipe); err != nil {
		return nil, fmt.Errorf("invalid JSON in recipe file %s: %w", filename, err)
	}

	// Resolve the format tag once at load time.
	if recipe.LLMConfig != nil {
		recipe.format = RecipeFormatIndexed
	} else {
		recipe.format = RecipeFormatLegacy
	}

	m.mu.Lock()
	m.recipes[filename] = recipe
	m.mu.Unlock()
	return recipe, nil
}

// Get returns the recipe registered for a playlist type.
func (m *RecipeManager) Get(playlistType string) (*Recipe, error) {
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}
	filename, ok := registry[playlistType]
	if !ok {
		return nil, fmt.Errorf("no recipe registered for playlist type: %s", playlistType)
	}
	return m.loadRecipe(filename)
}

// RecipeInfo summarizes a recipe for listing endpoints.
type RecipeInfo struct {
	Filename    string   `json:"filename"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Inputs      []string `json:"inputs"`
	UsesLLM     bool     `json:"uses_llm"`
	Indexed     bool     `json:"indexed"`
}

// List returns all registered recipes with their metadata.
func (m *RecipeManager) List() (map[string]RecipeInfo, error) {
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}

	infos := make(map[string]RecipeInfo, len(registry))
	for playlistType, filename := range registry {
		recipe, err := m.loadRecipe(filename)
		if err != nil {
			infos[playlistType] = RecipeInfo{Filename: filename}
			continue
		}
		infos[playlistType] = RecipeInfo{
			Filename:    filename,
			Version:     recipe.Version,
			Description: recipe.Description,
			Inputs:      recipe.Inputs,
			UsesLLM:     recipe.ModelInstructions != "" || recipe.PromptTemplate != "",
			Indexed:     recipe.Format() == RecipeFormatIndexed,
		}
	}
	return infos, nil
}

// ClearCache drops cached registry and recipes.
func (m *RecipeManager) ClearCache() {
	m.mu.Lock()
	m.registry = nil
	m.recipes = make(map[string]*Recipe)
	m.mu.Unlock()
}

// Watch invalidates the cache whenever a file in the recipes directory
// changes. Blocks until the watcher fails or done is closed.
func (m *RecipeManager) Watch(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create recipes watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("failed to watch recipes dir %s: %w", m.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Info("Recipe file changed, clearing recipe cache",
					logger.String("file", event.Name))
				m.ClearCache()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Recipes watcher error", logger.ErrorField(err))
		}
	}
}
