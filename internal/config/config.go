package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory", "sqlite" or "firestore"
	SQLitePath     string

	UseMockOracle bool // true = use the scripted oracle even on GCP
	OracleTimeout time.Duration
	QuestionCap   int

	WhisperURL    string // OpenAI-compatible transcription endpoint
	WhisperAPIKey string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	modeStr := getEnv("PREPWISE_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PREPWISE_PORT", "8080"),

		GCPProjectID: getEnv("PREPWISE_GCP_PROJECT", ""),
		GCPLocation:  getEnv("PREPWISE_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("PREPWISE_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("PREPWISE_STORAGE_BACKEND", "memory"),
		SQLitePath:     getEnv("PREPWISE_SQLITE_PATH", "interviews.db"),

		UseMockOracle: getBoolEnv("PREPWISE_USE_MOCK_ORACLE", mode == ModeLocal),
		OracleTimeout: getDurationEnv("PREPWISE_ORACLE_TIMEOUT", 30*time.Second),
		QuestionCap:   getIntEnv("PREPWISE_QUESTION_CAP", 10),

		WhisperURL:    getEnv("PREPWISE_WHISPER_URL", "http://localhost:9000"),
		WhisperAPIKey: getEnv("PREPWISE_WHISPER_API_KEY", ""),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("PREPWISE_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}
