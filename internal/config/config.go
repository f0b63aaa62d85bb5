package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	PublicURL   string

	// AllowedOrigins is used by CORS and the websocket upgrader; "*" allows any.
	AllowedOrigins []string

	// Database. Empty means in-memory repositories.
	DatabaseURL string

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// Rooms
	MaxRooms       int
	RoomInactivity time.Duration
	SweepInterval  time.Duration
	StoreTimeout   time.Duration
	// SaveRetries bounds how often a use case is replayed after losing a
	// version race. A full room voting at once needs about one retry per voter.
	SaveRetries int

	// Words
	WordsFile string

	// WebSocket command rate limiting
	WSCommandsPerSecond float64
	WSCommandBurst      int
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		PublicURL:           strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:5173"), "/"),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpirationHours:  getEnvInt("JWT_EXPIRATION_HOURS", 24),
		MaxRooms:            getEnvInt("MAX_ROOMS", 1000),
		RoomInactivity:      time.Duration(getEnvInt("ROOM_INACTIVITY_MINUTES", 30)) * time.Minute,
		SweepInterval:       time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		StoreTimeout:        time.Duration(getEnvInt("STORE_TIMEOUT_MS", 3000)) * time.Millisecond,
		SaveRetries:         getEnvInt("SAVE_RETRIES", 20),
		WordsFile:           getEnv("WORDS_FILE", ""),
		WSCommandsPerSecond: getEnvFloat("WS_COMMANDS_PER_SECOND", 5),
		WSCommandBurst:      getEnvInt("WS_COMMAND_BURST", 10),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.MaxRooms <= 0 {
		return nil, fmt.Errorf("MAX_ROOMS must be positive, got %d", cfg.MaxRooms)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
