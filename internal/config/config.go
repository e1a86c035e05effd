package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	PublicBaseURL     string // used for join links / QR codes
	RoundDuration     int    // seconds
	MaxPlayersPerTeam int
	NotLockoutSecs    int
}

func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		RoundDuration:     getEnvInt("ROUND_DURATION", 60),
		MaxPlayersPerTeam: getEnvInt("MAX_PLAYERS_PER_TEAM", 3),
		NotLockoutSecs:    getEnvInt("NOT_LOCKOUT_SECONDS", 5),
	}
	return cfg
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
