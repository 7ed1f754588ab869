package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"MagicLists/cache"
	"MagicLists/config"
	"MagicLists/core/ai"
	"MagicLists/core/curator"
	"MagicLists/core/navidrome"
	"MagicLists/logger"
	"MagicLists/model"
	"MagicLists/repository"

	"github.com/gorilla/mux"
)

// APIHandler carries the collaborators shared by all HTTP handlers.
type APIHandler struct {
	curator   *curator.Curator
	nav       *navidrome.Client
	ai        *ai.Provider
	recipes   *curator.RecipeManager
	playlists repository.PlaylistRepository
	schedules repository.ScheduleRepository
	cfg       *config.Config
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(
	cur *curator.Curator,
	nav *navidrome.Client,
	aiProvider *ai.Provider,
	recipes *curator.RecipeManager,
	playlists repository.PlaylistRepository,
	schedules repository.ScheduleRepository,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		curator:   cur,
		nav:       nav,
		ai:        aiProvider,
		recipes:   recipes,
		playlists: playlists,
		schedules: schedules,
		cfg:       cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// curationStatus maps curation pipeline errors to HTTP responses. The two
// sentinel errors are user-facing conditions, everything else is upstream.
func curationStatus(err error) (int, string) {
	switch {
	case errors.Is(err, curator.ErrInsufficientHistory):
		return http.StatusNotFound, "No listening history found. Listen to some music first!"
	case errors.Is(err, curator.ErrNoCandidates):
		return http.StatusNotFound, "No tracks found for re-discovery. Try again in a few days!"
	default:
		return http.StatusBadGateway, err.Error()
	}
}

// GetArtistsHandler lists all artists in the Navidrome library.
func (h *APIHandler) GetArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.nav.GetArtists(r.Context())
	if err != nil {
		logger.Error("Failed to list artists", logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artists": artists,
		"total":   len(artists),
	})
}

// GetArtistTracksHandler lists all tracks for one artist.
func (h *APIHandler) GetArtistTracksHandler(w http.ResponseWriter, r *http.Request) {
	artistID := mux.Vars(r)["id"]
	tracks, err := h.nav.GetTracksByArtist(r.Context(), artistID)
	if err != nil {
		logger.Error("Failed to list artist tracks",
			logger.String("artistId", artistID),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": tracks,
		"total":  len(tracks),
	})
}

// GetGenresHandler lists the library's genres.
func (h *APIHandler) GetGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.nav.GetGenres(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

// GetGenreTracksHandler lists tracks for one genre.
// Query params: count (int, default 500).
func (h *APIHandler) GetGenreTracksHandler(w http.ResponseWriter, r *http.Request) {
	genre := mux.Vars(r)["genre"]
	tracks, err := h.nav.GetTracksByGenre(r.Context(), genre, queryInt(r, "count", 0))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": tracks,
		"total":  len(tracks),
	})
}

// InvalidateHistoryHandler drops the cached listening history so the next
// curation run fetches fresh scrobbles.
func (h *APIHandler) InvalidateHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := cache.InvalidateHistory(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// RediscoverWeeklyHandler previews the Re-Discover Weekly selection without
// creating a playlist.
// Query params: max_tracks (int), use_ai (bool, default true), context (string).
func (h *APIHandler) RediscoverWeeklyHandler(w http.ResponseWriter, r *http.Request) {
	maxTracks := queryInt(r, "max_tracks", h.cfg.RediscoverTracks)
	useAI := queryBool(r, "use_ai", true)
	varietyContext := r.URL.Query().Get("context")

	tracks, err := h.curator.GenerateRediscoverWeekly(r.Context(), maxTracks, useAI, varietyContext)
	if err != nil {
		status, msg := curationStatus(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, model.RediscoverWeeklyResponse{
		Tracks:      tracks,
		TotalTracks: len(tracks),
		Message:     fmt.Sprintf("Found %d tracks to re-discover", len(tracks)),
	})
}

type createRediscoverRequest struct {
	Name             string `json:"name"`
	MaxTracks        int    `json:"max_tracks"`
	UseAI            *bool  `json:"use_ai"`
	Context          string `json:"context"`
	RefreshFrequency string `json:"refresh_frequency"` // empty = no schedule
}

// CreateRediscoverPlaylistHandler generates the selection and materializes
// it as a Navidrome playlist, optionally registering a refresh schedule.
func (h *APIHandler) CreateRediscoverPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req createRediscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	useAI := true
	if req.UseAI != nil {
		useAI = *req.UseAI
	}
	maxTracks := req.MaxTracks
	if maxTracks <= 0 {
		maxTracks = h.cfg.RediscoverTracks
	}

	tracks, err := h.curator.GenerateRediscoverWeekly(r.Context(), maxTracks, useAI, req.Context)
	if err != nil {
		status, msg := curationStatus(err)
		writeError(w, status, msg)
		return
	}

	name := req.Name
	if name == "" {
		name = "Re-Discover Weekly " + time.Now().Format("2006-01-02")
	}

	trackIDs := make([]string, 0, len(tracks))
	titles := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
		titles = append(titles, t.Title)
	}

	reasoning := ""
	aiCurated := false
	if len(tracks) > 0 {
		reasoning = tracks[0].AIReasoning
		aiCurated = tracks[0].AICurated
	}

	playlistID, err := h.nav.CreatePlaylist(r.Context(), name, trackIDs, reasoning)
	if err != nil {
		logger.Error("Failed to create Navidrome playlist", logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	record := &model.Playlist{
		PlaylistName: name,
		NavidromeID:  playlistID,
		AIReasoning:  reasoning,
	}
	if err := h.playlists.CreatePlaylist(record, titles); err != nil {
		logger.Error("Failed to persist playlist record", logger.ErrorField(err))
	}

	if req.RefreshFrequency != "" {
		schedule := &model.ScheduledPlaylist{
			PlaylistType:        "re_discover",
			NavidromePlaylistID: playlistID,
			RefreshFrequency:    req.RefreshFrequency,
		}
		if err := h.schedules.CreateSchedule(schedule); err != nil {
			logger.Error("Failed to register refresh schedule", logger.ErrorField(err))
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"playlist_id":   playlistID,
		"playlist_name": name,
		"total_tracks":  len(tracks),
		"ai_curated":    aiCurated,
		"reasoning":     reasoning,
	})
}

type createThisIsRequest struct {
	ArtistID         string `json:"artist_id"`
	ArtistName       string `json:"artist_name"`
	NumTracks        int    `json:"num_tracks"`
	IncludeReasoning bool   `json:"include_reasoning"`
	Context          string `json:"context"`
}

// CreateThisIsPlaylistHandler builds a "This Is <artist>" playlist from the
// artist's full catalog.
func (h *APIHandler) CreateThisIsPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req createThisIsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ArtistID == "" {
		writeError(w, http.StatusBadRequest, "artist_id is required")
		return
	}

	tracks, err := h.nav.GetTracksByArtist(r.Context(), req.ArtistID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	artistName := req.ArtistName
	if artistName == "" && len(tracks) > 0 {
		artistName = tracks[0].Artist
	}

	result, err := h.curator.CurateThisIs(r.Context(), artistName, tracks, req.NumTracks, req.IncludeReasoning, req.Context)
	if err != nil {
		status, msg := curationStatus(err)
		if errors.Is(err, curator.ErrNoCandidates) {
			msg = fmt.Sprintf("No tracks found for artist %s", artistName)
		}
		writeError(w, status, msg)
		return
	}

	name := fmt.Sprintf("This Is %s", artistName)
	playlistID, err := h.nav.CreatePlaylist(r.Context(), name, result.TrackIDs, result.Reasoning)
	if err != nil {
		logger.Error("Failed to create Navidrome playlist", logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	titleByID := make(map[string]string, len(tracks))
	for _, t := range tracks {
		titleByID[t.ID] = t.Title
	}
	titles := make([]string, 0, len(result.TrackIDs))
	for _, id := range result.TrackIDs {
		if title, ok := titleByID[id]; ok {
			titles = append(titles, title)
		}
	}

	record := &model.Playlist{
		ArtistID:     req.ArtistID,
		PlaylistName: name,
		NavidromeID:  playlistID,
		AIReasoning:  result.Reasoning,
	}
	if err := h.playlists.CreatePlaylist(record, titles); err != nil {
		logger.Error("Failed to persist playlist record", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"playlist_id":   playlistID,
		"playlist_name": name,
		"total_tracks":  len(result.TrackIDs),
		"ai_curated":    result.AICurated,
		"reasoning":     result.Reasoning,
	})
}

// GetPlaylistsHandler lists locally stored playlist records with their
// song titles expanded.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.GetAllPlaylists()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type playlistView struct {
		*model.Playlist
		Songs []string `json:"songs"`
	}
	views := make([]playlistView, 0, len(playlists))
	for _, p := range playlists {
		songs, err := h.playlists.SongTitles(p)
		if err != nil {
			logger.Warn("Failed to decode stored playlist songs",
				logger.Int64("playlistId", p.ID),
				logger.ErrorField(err))
			songs = []string{}
		}
		views = append(views, playlistView{Playlist: p, Songs: songs})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlists": views,
		"total":     len(views),
	})
}

// DeletePlaylistHandler removes a locally stored playlist record. The
// Navidrome playlist itself is left untouched.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	if err := h.playlists.DeletePlaylist(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListRecipesHandler exposes the registered recipes and their metadata.
func (h *APIHandler) ListRecipesHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := h.recipes.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recipes": infos})
}

type createScheduleRequest struct {
	PlaylistType        string `json:"playlist_type"`
	NavidromePlaylistID string `json:"navidrome_playlist_id"`
	RefreshFrequency    string `json:"refresh_frequency"`
}

// CreateScheduleHandler registers a playlist for periodic regeneration.
func (h *APIHandler) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NavidromePlaylistID == "" {
		writeError(w, http.StatusBadRequest, "navidrome_playlist_id is required")
		return
	}
	switch req.RefreshFrequency {
	case "daily", "weekly", "monthly":
	default:
		writeError(w, http.StatusBadRequest, "refresh_frequency must be daily, weekly or monthly")
		return
	}
	if req.PlaylistType == "" {
		req.PlaylistType = "re_discover"
	}

	schedule := &model.ScheduledPlaylist{
		PlaylistType:        req.PlaylistType,
		NavidromePlaylistID: req.NavidromePlaylistID,
		RefreshFrequency:    req.RefreshFrequency,
	}
	if err := h.schedules.CreateSchedule(schedule); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, schedule)
}

// GetSchedulesHandler lists registered refresh schedules.
func (h *APIHandler) GetSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedules.GetAllSchedules()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"total":     len(schedules),
	})
}

// DeleteScheduleHandler removes a refresh schedule.
func (h *APIHandler) DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}
	if err := h.schedules.DeleteSchedule(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func queryBool(r *http.Request, key string, fallback bool) bool {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return fallback
}
