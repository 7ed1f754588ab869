package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MagicLists/cache"
	"MagicLists/config"
	"MagicLists/core/ai"
	"MagicLists/core/curator"
	"MagicLists/core/navidrome"
	"MagicLists/db"
	"MagicLists/logger"
	"MagicLists/model"
	"MagicLists/repository"
	"MagicLists/scheduler"

	"github.com/gorilla/mux"
)

// Start initializes all collaborators and runs the HTTP server until an
// interrupt arrives.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Playlist{}, &model.ScheduledPlaylist{}); err != nil {
		logger.Fatal("Failed to migrate database schema", logger.ErrorField(err))
	}

	// Redis is optional: without it history fetches simply skip the cache.
	redisUp := true
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, history caching disabled", logger.ErrorField(err))
		redisUp = false
	} else {
		defer db.CloseRedis()
	}

	navClient := navidrome.NewClient(cfg)

	var history curator.HistoryProvider = navClient
	if redisUp {
		history = cache.NewCachedHistory(navClient, cfg.HistoryCacheTTL)
	}

	aiProvider, err := ai.NewProvider(cfg)
	if err != nil {
		logger.Fatal("Failed to configure AI provider", logger.ErrorField(err))
	}
	if !aiProvider.Configured() {
		logger.Warn("No AI API key configured, playlists will use algorithmic selection",
			logger.String("provider", cfg.AIProvider))
	}

	recipes := curator.NewRecipeManager(cfg.RecipesDir)
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		if err := recipes.Watch(watchDone); err != nil {
			logger.Warn("Recipe watcher exited", logger.ErrorField(err))
		}
	}()

	cur := curator.NewCurator(history, aiProvider, recipes, curator.Defaults{
		AnalysisDays: cfg.AnalysisDays,
		MinGapDays:   cfg.MinGapDays,
		MaxTracks:    cfg.RediscoverTracks,
	})

	playlistRepo := repository.NewGormPlaylistRepository()
	scheduleRepo := repository.NewGormScheduleRepository()

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	sched := scheduler.New(cur, navClient, scheduleRepo, cfg.ScheduleInterval, cfg.RediscoverTracks)
	go sched.Run(schedCtx)

	apiHandler := NewAPIHandler(cur, navClient, aiProvider, recipes, playlistRepo, scheduleRepo, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	// Library browsing
	router.HandleFunc("/api/artists", apiHandler.GetArtistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}/tracks", apiHandler.GetArtistTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genres", apiHandler.GetGenresHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genres/{genre}/tracks", apiHandler.GetGenreTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/history/invalidate", apiHandler.InvalidateHistoryHandler).Methods(http.MethodPost)

	// Re-Discover Weekly
	router.HandleFunc("/api/rediscover-weekly", apiHandler.RediscoverWeeklyHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/rediscover-weekly/playlist", apiHandler.CreateRediscoverPlaylistHandler).Methods(http.MethodPost)

	// This Is <artist> playlists
	router.HandleFunc("/api/playlists/this-is", apiHandler.CreateThisIsPlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists", apiHandler.GetPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.DeletePlaylistHandler).Methods(http.MethodDelete)

	// Recipes and scheduling
	router.HandleFunc("/api/recipes", apiHandler.ListRecipesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/schedules", apiHandler.CreateScheduleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/schedules", apiHandler.GetSchedulesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/schedules/{id}", apiHandler.DeleteScheduleHandler).Methods(http.MethodDelete)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting",
			logger.String("port", cfg.ServerPort),
			logger.String("navidrome", cfg.NavidromeURL),
			logger.String("aiProvider", cfg.AIProvider))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")
	schedCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
