package model

// ScoredCandidate is a track ranked for re-discovery.
// Score = TotalPlays x min(DaysSinceLastPlay, 90).
type ScoredCandidate struct {
	TrackID           string
	Score             float64
	DaysSinceLastPlay int
	Stat              *TrackStat
}

// CurationResult is the unit returned by the curation pipeline. TrackIDs
// ordering is significant: the playlist's track order equals this order.
// AICurated=false signals a fallback path was used.
type CurationResult struct {
	TrackIDs  []string `json:"track_ids"`
	Reasoning string   `json:"reasoning"`
	AICurated bool     `json:"ai_curated"`
}

// ResultTrack is a fully expanded Re-Discover Weekly entry as exposed to
// the web layer.
type ResultTrack struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Artist            string  `json:"artist"`
	Album             string  `json:"album"`
	Score             float64 `json:"score"`
	HistoricalPlays   int     `json:"historical_plays"`
	DaysSinceLastPlay int     `json:"days_since_last_play"`
	AICurated         bool    `json:"ai_curated"`
	AIReasoning       string  `json:"ai_reasoning"`
}

// RediscoverWeeklyResponse is the API response for the rediscover endpoint.
type RediscoverWeeklyResponse struct {
	Tracks      []ResultTrack `json:"tracks"`
	TotalTracks int           `json:"total_tracks"`
	Message     string        `json:"message"`
}
