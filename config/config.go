package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerPort string

	// Navidrome connection
	NavidromeURL       string
	NavidromeUsername  string
	NavidromePassword  string
	NavidromeAPIKey    string
	NavidromeLibraryID string // optional musicFolderId scoping

	// AI provider
	AIProvider    string // openrouter, groq or ollama
	AIAPIKey      string
	AIModel       string // empty = provider default
	AIBaseURL     string // empty = provider default
	OllamaTimeout time.Duration

	// Curation defaults
	RediscoverTracks int // target playlist length for Re-Discover Weekly
	AnalysisDays     int // listening-history window
	MinGapDays       int // minimum days since last play
	RecipesDir       string
	HistoryCacheTTL  time.Duration
	ScheduleInterval time.Duration // how often the scheduler polls for due playlists

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogOutput string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as seconds or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8000"),

		NavidromeURL:       getEnv("NAVIDROME_URL", "http://localhost:4533"),
		NavidromeUsername:  getEnv("NAVIDROME_USERNAME", ""),
		NavidromePassword:  os.Getenv("NAVIDROME_PASSWORD"),
		NavidromeAPIKey:    os.Getenv("NAVIDROME_API_KEY"),
		NavidromeLibraryID: getEnv("NAVIDROME_LIBRARY_ID", ""),

		AIProvider:    getEnv("AI_PROVIDER", "openrouter"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModel:       getEnv("AI_MODEL", ""),
		AIBaseURL:     getEnv("AI_BASE_URL", ""),
		OllamaTimeout: getEnvDuration("OLLAMA_TIMEOUT", 180*time.Second),

		RediscoverTracks: getEnvInt("REDISCOVER_TRACKS", 20),
		AnalysisDays:     getEnvInt("ANALYSIS_DAYS", 30),
		MinGapDays:       getEnvInt("MIN_GAP_DAYS", 7),
		RecipesDir:       getEnv("RECIPES_DIR", "recipes"),
		HistoryCacheTTL:  getEnvDuration("HISTORY_CACHE_TTL", 30*time.Minute),
		ScheduleInterval: getEnvDuration("SCHEDULE_INTERVAL", 5*time.Minute),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "magiclists"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", ""),
	}
}
