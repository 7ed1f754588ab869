package curator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"MagicLists/logger"
	"MagicLists/model"
)

// HistoryProvider is the media-server capability the curator consumes.
type HistoryProvider interface {
	FetchPlayHistory(ctx context.Context, windowDays int) ([]model.PlayEvent, error)
}

// AIProvider is a single request/response chat-style completion call. The
// returned text is untrusted.
type AIProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
	// Configured reports whether a credential is available. A false value
	// short-circuits to the fallback path before any network attempt.
	Configured() bool
}

// Defaults hold curation parameters used when a recipe does not override
// them.
type Defaults struct {
	AnalysisDays int
	MinGapDays   int
	MaxTracks    int
}

// Curator sequences the curation pipeline: sample history, score
// candidates, build the indexed prompt, interpret the response, and fall
// back to deterministic selection when any AI-side stage fails. All state is
// request-scoped; a single Curator is safe for concurrent use.
type Curator struct {
	history HistoryProvider
	ai      AIProvider
	recipes *RecipeManager
	defs    Defaults

	now func() time.Time
	rng *rand.Rand
}

// NewCurator wires a curator from its collaborators.
func NewCurator(history HistoryProvider, ai AIProvider, recipes *RecipeManager, defs Defaults) *Curator {
	if defs.AnalysisDays <= 0 {
		defs.AnalysisDays = 30
	}
	if defs.MinGapDays <= 0 {
		defs.MinGapDays = 7
	}
	if defs.MaxTracks <= 0 {
		defs.MaxTracks = 20
	}
	return &Curator{
		history: history,
		ai:      ai,
		recipes: recipes,
		defs:    defs,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateRediscoverWeekly produces the Re-Discover Weekly track list.
// Only ErrInsufficientHistory and ErrNoCandidates surface as errors; AI-side
// failures degrade to the algorithmic top-of-pool selection with
// AICurated=false.
func (c *Curator) GenerateRediscoverWeekly(ctx context.Context, maxTracks int, useAI bool, varietyContext string) ([]model.ResultTrack, error) {
	if maxTracks <= 0 {
		maxTracks = c.defs.MaxTracks
	}

	recipe := c.recipeOr("re_discover", defaultRediscoverRecipe)
	analysisDays := recipe.AnalysisDays(c.defs.AnalysisDays)
	minGap := recipe.MinGapDays(c.defs.MinGapDays)
	maxPerArtist := recipe.MaxPerArtist(maxTracks)

	history, err := c.history.FetchPlayHistory(ctx, analysisDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get listening history: %w", err)
	}
	if len(history) == 0 {
		return nil, ErrInsufficientHistory
	}

	now := c.now()
	stats := BuildStats(history, now)

	candidates, err := Score(stats, ScoreOptions{
		MinGapDays:   minGap,
		MaxTracks:    maxTracks,
		MaxPerArtist: maxPerArtist,
	}, now)
	if err != nil {
		return nil, err
	}

	logger.Info("Scored rediscovery candidates",
		logger.Int("historyEvents", len(history)),
		logger.Int("uniqueTracks", len(stats)),
		logger.Int("candidates", len(candidates)),
		logger.Int("maxPerArtist", maxPerArtist))

	var result *model.CurationResult
	reason := FailureReason{Kind: FailureConfigMissing, Detail: "AI disabled for this request"}
	if useAI {
		result, reason = c.curateCandidates(ctx, recipe, candidates, maxTracks, varietyContext, analysisDays, minGap, maxPerArtist)
	}
	if result == nil {
		result = fallbackFromCandidates(candidates, maxTracks, reason)
	}

	return expandResult(result, candidates), nil
}

// CurateThisIs builds an ordered "This Is <artist>" selection from the
// given source tracks. Oversized pools are trimmed by engagement score
// before prompting. Failures on the AI side degrade to a play-count sort.
func (c *Curator) CurateThisIs(ctx context.Context, artistName string, tracks []model.Track, numTracks int, includeReasoning bool, varietyContext string) (*model.CurationResult, error) {
	if len(tracks) == 0 {
		return nil, ErrNoCandidates
	}
	if numTracks <= 0 {
		numTracks = c.defs.MaxTracks
	}

	now := c.now()
	pool := FilterByEngagement(tracks, numTracks, LibraryStatsFor(tracks), now)

	recipe := c.recipeOr("this_is", defaultThisIsRecipe)

	result, reason := c.curateTracks(ctx, recipe, artistName, pool, numTracks, varietyContext)
	if result == nil {
		result = &model.CurationResult{
			TrackIDs:  FallbackSelection(pool, numTracks),
			Reasoning: reason.Message(),
			AICurated: false,
		}
	}

	if !includeReasoning {
		result.Reasoning = ""
	}
	return result, nil
}

// curateCandidates runs the AI leg for scored rediscovery candidates.
func (c *Curator) curateCandidates(ctx context.Context, recipe *Recipe, candidates []model.ScoredCandidate, maxTracks int, varietyContext string, analysisDays, minGap, maxPerArtist int) (*model.CurationResult, FailureReason) {
	if !c.ai.Configured() {
		return nil, FailureReason{Kind: FailureConfigMissing}
	}

	// Shuffle before indexing so ordinal position cannot leak ranking or
	// album-listing bias into the model's selection.
	shuffled := make([]model.ScoredCandidate, len(candidates))
	copy(shuffled, candidates)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	indexed, indexMap := IndexCandidates(shuffled)

	summary := analysisSummary(candidates, analysisDays, minGap, maxPerArtist)
	system, user, err := BuildPrompt(recipe, indexed, PromptRequest{
		NumTracks:    maxTracks,
		PlaylistType: "re_discover",
		Context:      varietyContext,
	}, map[string]string{
		"DESIRED_TRACK_COUNT": strconv.Itoa(maxTracks),
		"ANALYSIS_SUMMARY":    summary,
	})
	if err != nil {
		return nil, FailureReason{Kind: FailureMalformedResponse, Detail: err.Error()}
	}

	params := recipe.Params()
	raw, err := c.ai.Generate(ctx, system, user, params.MaxTokens, params.Temperature)
	if err != nil {
		if ctx.Err() != nil {
			// Caller-driven cancellation: abandon the in-flight curation.
			return nil, FailureReason{Kind: FailureTransport, Detail: ctx.Err().Error()}
		}
		return nil, FailureReason{Kind: FailureTransport, Detail: err.Error()}
	}

	return Interpret(raw, indexMap, maxTracks)
}

// curateTracks runs the AI leg for a plain track pool (This Is).
func (c *Curator) curateTracks(ctx context.Context, recipe *Recipe, artistName string, pool []model.Track, numTracks int, varietyContext string) (*model.CurationResult, FailureReason) {
	if !c.ai.Configured() {
		return nil, FailureReason{Kind: FailureConfigMissing}
	}

	shuffled := make([]model.Track, len(pool))
	copy(shuffled, pool)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	indexed, indexMap := IndexTracks(shuffled)

	system, user, err := BuildPrompt(recipe, indexed, PromptRequest{
		NumTracks:    numTracks,
		PlaylistType: "this_is",
		Context:      varietyContext,
	}, map[string]string{
		"TARGET_ARTIST":       artistName,
		"DESIRED_TRACK_COUNT": strconv.Itoa(numTracks),
	})
	if err != nil {
		return nil, FailureReason{Kind: FailureMalformedResponse, Detail: err.Error()}
	}

	params := recipe.Params()
	raw, err := c.ai.Generate(ctx, system, user, params.MaxTokens, params.Temperature)
	if err != nil {
		return nil, FailureReason{Kind: FailureTransport, Detail: err.Error()}
	}

	return Interpret(raw, indexMap, numTracks)
}

// recipeOr loads the registered recipe or falls back to the built-in one.
func (c *Curator) recipeOr(playlistType string, builtin *Recipe) *Recipe {
	if c.recipes == nil {
		return builtin
	}
	recipe, err := c.recipes.Get(playlistType)
	if err != nil {
		logger.Warn("Falling back to built-in recipe",
			logger.String("playlistType", playlistType),
			logger.ErrorField(err))
		return builtin
	}
	return recipe
}

// fallbackFromCandidates takes the deterministic top of the pre-scored pool.
func fallbackFromCandidates(candidates []model.ScoredCandidate, maxTracks int, reason FailureReason) *model.CurationResult {
	n := maxTracks
	if n > len(candidates) {
		n = len(candidates)
	}
	trackIDs := make([]string, 0, n)
	for _, c := range candidates[:n] {
		trackIDs = append(trackIDs, c.TrackID)
	}
	reasoning := reason.Message()
	if reasoning == "" {
		reasoning = "Algorithmic selection used (AI not available or failed)"
	}
	return &model.CurationResult{
		TrackIDs:  trackIDs,
		Reasoning: reasoning,
		AICurated: false,
	}
}

// FallbackSelection sorts tracks by play count (then year) descending and
// takes the first n identifiers. The deterministic substitute for a failed
// or unavailable AI path.
func FallbackSelection(tracks []model.Track, n int) []string {
	sorted := make([]model.Track, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PlayCount != sorted[j].PlayCount {
			return sorted[i].PlayCount > sorted[j].PlayCount
		}
		return sorted[i].Year > sorted[j].Year
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	ids := make([]string, 0, n)
	for _, t := range sorted[:n] {
		ids = append(ids, t.ID)
	}
	return ids
}

// expandResult joins selected identifiers back to their candidate metadata,
// preserving the result's order.
func expandResult(result *model.CurationResult, candidates []model.ScoredCandidate) []model.ResultTrack {
	byID := make(map[string]model.ScoredCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.TrackID] = c
	}

	tracks := make([]model.ResultTrack, 0, len(result.TrackIDs))
	for _, id := range result.TrackIDs {
		c, ok := byID[id]
		if !ok {
			continue
		}
		tracks = append(tracks, model.ResultTrack{
			ID:                c.TrackID,
			Title:             c.Stat.Title,
			Artist:            c.Stat.Artist,
			Album:             c.Stat.Album,
			Score:             c.Score,
			HistoricalPlays:   c.Stat.TotalPlays,
			DaysSinceLastPlay: c.DaysSinceLastPlay,
			AICurated:         result.AICurated,
			AIReasoning:       result.Reasoning,
		})
	}
	return tracks
}

// analysisSummary describes the algorithmic pre-selection for the model.
func analysisSummary(candidates []model.ScoredCandidate, analysisDays, minGap, maxPerArtist int) string {
	var total float64
	for _, c := range candidates {
		total += c.Score
	}
	avg := 0.0
	if len(candidates) > 0 {
		avg = total / float64(len(candidates))
	}
	return fmt.Sprintf(`Algorithmic analysis results:
- Listening window: last %d days
- Scoring formula: play_count x days_since_last_play (capped at 90 days)
- Minimum %d days since last play, maximum %d per artist
- %d high-quality rediscovery candidates, average score %.1f`,
		analysisDays, minGap, maxPerArtist, len(candidates), avg)
}
