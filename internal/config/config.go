package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration, loaded from environment
// variables with sensible defaults.
type Config struct {
	Port   string
	DBPath string

	// AmapBaseURL and AmapKey configure the AMap web service client used
	// for driving distance and reverse geocoding.
	AmapBaseURL string
	AmapKey     string
	AmapTimeout time.Duration

	// LLM settings for the text classification oracle.
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	// MergeThresholdSeconds is the start-time gap below which adjacent
	// same-destination trips are merged. The 1200s default comes from the
	// telemetry source and is kept tunable rather than second-guessed.
	MergeThresholdSeconds float64

	// RegularWindowMinutes is the time-similarity window for regular
	// round-trip detection.
	RegularWindowMinutes float64

	// OracleCacheSize is the in-memory tier capacity of the oracle cache.
	OracleCacheSize int
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port:                  getEnv("PORT", ":8080"),
		DBPath:                getEnv("DB_PATH", "./data/navi/navi.db"),
		AmapBaseURL:           getEnv("AMAP_BASE_URL", "https://restapi.amap.com"),
		AmapKey:               getEnv("AMAP_KEY", ""),
		AmapTimeout:           getDurationSeconds("AMAP_TIMEOUT_SECONDS", 10),
		LLMAPIKey:             getEnv("LLM_API_KEY", ""),
		LLMBaseURL:            getEnv("LLM_BASE_URL", ""),
		LLMModel:              getEnv("LLM_MODEL", ""),
		LLMTimeout:            getDurationSeconds("LLM_TIMEOUT_SECONDS", 30),
		MergeThresholdSeconds: getFloat("MERGE_THRESHOLD_SECONDS", 1200),
		RegularWindowMinutes:  getFloat("REGULAR_WINDOW_MINUTES", 30),
		OracleCacheSize:       getInt("ORACLE_CACHE_SIZE", 4096),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
