package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr string

	// SheetPath points at the Excel workbook holding the rows to verify.
	SheetPath string
	// DownloadDir is where fetched card images land; it is also served at
	// /images/ so the results page can embed them.
	DownloadDir string
	// RowLimit caps how many sheet rows a run processes. Zero means all.
	RowLimit int
	// Workers bounds concurrent row processing.
	Workers int

	VisionEndpoint string
	VisionAPIKey   string

	DownloadTimeout time.Duration
	OCRTimeout      time.Duration

	// RedisURL enables the OCR text cache when non-empty.
	RedisURL string
	// OCRCacheTTL bounds how long cached OCR text is trusted.
	OCRCacheTTL time.Duration

	// DatabaseURL enables the Postgres run store when non-empty; otherwise
	// runs live in memory for the life of the process.
	DatabaseURL string

	// FlashSigningKey signs the flash-message cookie.
	FlashSigningKey string
}

// FromEnv builds a Config from environment variables, applying development
// defaults where a variable is unset.
func FromEnv() Config {
	return Config{
		Addr:            envOr("IDMATCH_ADDR", ":8080"),
		SheetPath:       envOr("IDMATCH_SHEET_PATH", "ids.xlsx"),
		DownloadDir:     envOr("IDMATCH_DOWNLOAD_DIR", "static/downloaded_images"),
		RowLimit:        envInt("IDMATCH_ROW_LIMIT", 10),
		Workers:         envInt("IDMATCH_WORKERS", 4),
		VisionEndpoint:  envOr("VISION_ENDPOINT", "https://vision.googleapis.com"),
		VisionAPIKey:    os.Getenv("VISION_API_KEY"),
		DownloadTimeout: envDuration("IDMATCH_DOWNLOAD_TIMEOUT", 15*time.Second),
		OCRTimeout:      envDuration("IDMATCH_OCR_TIMEOUT", 30*time.Second),
		RedisURL:        os.Getenv("IDMATCH_REDIS_URL"),
		OCRCacheTTL:     envDuration("IDMATCH_OCR_CACHE_TTL", 24*time.Hour),
		DatabaseURL:     os.Getenv("IDMATCH_DATABASE_URL"),
		// Default is for development only - override it in any shared
		// deployment.
		FlashSigningKey: envOr("IDMATCH_FLASH_KEY", "dev-flash-key-change-me"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
