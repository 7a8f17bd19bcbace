package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	DatabaseURL string // empty keeps everything in memory

	RanksFile    string
	ArenaWidth   float64
	TickRate     int
	BurnDuration time.Duration
	AdminEnabled bool

	LeaderboardGameID  string
	LeaderboardTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RanksFile:    getEnv("RANKS_FILE", ""),
		ArenaWidth:   getEnvFloat("ARENA_WIDTH", 500),
		TickRate:     getEnvInt("TICK_RATE", 60),
		BurnDuration: getEnvDuration("BURN_DURATION", 3*time.Second),
		AdminEnabled: getEnvBool("ADMIN_ENABLED", false),

		LeaderboardGameID:  getEnv("LEADERBOARD_GAME_ID", "craft-big-boss"),
		LeaderboardTimeout: getEnvDuration("LEADERBOARD_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
