package curator

import (
	"encoding/json"
	"fmt"

	"MagicLists/model"
)

// IndexedTrack is the minimal-field record sent to the AI. The real track
// identifier is deliberately absent: models truncate or invent long opaque
// IDs, but they echo small integers back reliably. The dense 0-based Index
// is the only handle the model gets.
type IndexedTrack struct {
	Index  int     `json:"index"`
	Title  string  `json:"title"`
	Artist string  `json:"artist"`
	Album  string  `json:"album,omitempty"`
	Genre  string  `json:"genre,omitempty"`
	Plays  int     `json:"plays,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// PromptRequest names what the model is asked to produce.
type PromptRequest struct {
	NumTracks    int    `json:"num_tracks"`
	PlaylistType string `json:"playlist_type"`
	Context      string `json:"context,omitempty"`
}

// RecipeMeta is the recipe metadata echoed into the payload.
type RecipeMeta struct {
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// PromptPayload is the wire payload for an indexed curation request.
type PromptPayload struct {
	Recipe          RecipeMeta     `json:"recipe"`
	AvailableTracks []IndexedTrack `json:"available_tracks"`
	Request         PromptRequest  `json:"request"`
}

// responseContract is appended to every system prompt. The wire field is
// named track_ids for compatibility even though the values are indices into
// available_tracks, not identifiers.
const responseContract = `

Respond with ONLY a JSON object in exactly this shape, no other text:
{"track_ids": [0, 1, 2], "reasoning": "one short paragraph"}
The integers in "track_ids" are the "index" values of your chosen tracks from
available_tracks, in final playlist order.`

// IndexCandidates converts scored candidates into indexed records plus the
// inverse index-to-identifier table. Position in the returned map equals the
// record's index; the map is rebuilt fresh for every request and never
// reused across runs.
func IndexCandidates(candidates []model.ScoredCandidate) ([]IndexedTrack, []string) {
	indexed := make([]IndexedTrack, 0, len(candidates))
	indexMap := make([]string, 0, len(candidates))
	for i, c := range candidates {
		indexed = append(indexed, IndexedTrack{
			Index:  i,
			Title:  c.Stat.Title,
			Artist: c.Stat.Artist,
			Album:  c.Stat.Album,
			Genre:  c.Stat.Genre,
			Plays:  c.Stat.TotalPlays,
			Score:  c.Score,
		})
		indexMap = append(indexMap, c.TrackID)
	}
	return indexed, indexMap
}

// IndexTracks converts library tracks into indexed records plus the inverse
// index-to-identifier table.
func IndexTracks(tracks []model.Track) ([]IndexedTrack, []string) {
	indexed := make([]IndexedTrack, 0, len(tracks))
	indexMap := make([]string, 0, len(tracks))
	for i, t := range tracks {
		indexed = append(indexed, IndexedTrack{
			Index:  i,
			Title:  t.Title,
			Artist: t.Artist,
			Album:  t.Album,
			Genre:  t.Genre,
			Plays:  t.PlayCount,
		})
		indexMap = append(indexMap, t.ID)
	}
	return indexed, indexMap
}

// BuildPrompt assembles the system and user prompts for an indexed curation
// request. Deterministic for identical input ordering; any shuffling happens
// before indexing, at the orchestrator level.
func BuildPrompt(recipe *Recipe, indexed []IndexedTrack, req PromptRequest, replacements map[string]string) (systemPrompt, userPrompt string, err error) {
	payload := PromptPayload{
		Recipe: RecipeMeta{
			Version:     recipe.Version,
			Description: recipe.Description,
		},
		AvailableTracks: indexed,
		Request:         req,
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal prompt payload: %w", err)
	}

	systemPrompt = recipe.Render(replacements) + responseContract
	return systemPrompt, string(body), nil
}
