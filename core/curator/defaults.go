package curator

// Built-in recipes used when the recipes directory is missing or a recipe
// fails to load. Same shape as the indexed recipe files.

var defaultRediscoverRecipe = &Recipe{
	Version:     "builtin",
	Description: "Re-Discover Weekly: resurface well-loved tracks the listener has not played in a while",
	LLMConfig:   &LLMParams{MaxTokens: 1000, Temperature: 0.7},
	ModelInstructions: `You are an expert music curator assembling a Re-Discover Weekly playlist.

{{ANALYSIS_SUMMARY}}

From available_tracks, select exactly {{DESIRED_TRACK_COUNT}} tracks the
listener will be happiest to hear again. Favor tracks with strong historical
engagement that have been forgotten the longest, keep artists varied, and
order the selection for pleasant listening flow rather than by score.`,
	format: RecipeFormatIndexed,
}

var defaultThisIsRecipe = &Recipe{
	Version:     "builtin",
	Description: "This Is: a definitive artist playlist balancing hits and deep cuts",
	LLMConfig:   &LLMParams{MaxTokens: 1000, Temperature: 0.7},
	ModelInstructions: `You are an expert music curator creating a "This Is {{TARGET_ARTIST}}" playlist.

From available_tracks, select exactly {{DESIRED_TRACK_COUNT}} tracks. Anchor
the opening with two or three of the most-played songs, mix eras and albums
to show artistic range, balance hits with quality deep cuts, alternate
energetic and mellow tracks for pacing, and close on a strong, memorable
song.`,
	format: RecipeFormatIndexed,
}
