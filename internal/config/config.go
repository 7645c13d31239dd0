// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
)

// Engine defaults. The match threshold and result cap are deployment
// constants, never hardcoded at call sites.
const (
	DefaultMatchThreshold  = 75
	DefaultResultCap       = 25
	DefaultConcurrentScans = 10
	DefaultWriteBuffer     = 50
	DefaultIndexDir        = "indices"
	DefaultCacheChannels   = 256
)

// Scan strategies.
const (
	StrategyLive    = "live"
	StrategyIndexed = "indexed"
)

// Config holds all configuration for the search engine.
type Config struct {
	MatchThreshold  int     // HAYSTACK_MATCH_THRESHOLD, default 75
	ResultCap       int     // HAYSTACK_RESULT_CAP, default 25
	ConcurrentScans int     // HAYSTACK_CONCURRENT_SCANS, default 10
	Strategy        string  // HAYSTACK_STRATEGY, "live" or "indexed", default "indexed"
	IndexDir        string  // HAYSTACK_INDEX_DIR, default "indices"
	WriteBuffer     int     // HAYSTACK_WRITE_BUFFER, default 50
	CacheChannels   int     // HAYSTACK_CACHE_CHANNELS, default 256
	HistoryRPS      float64 // HAYSTACK_HISTORY_RPS, default 5.0
	HistoryBurst    int     // HAYSTACK_HISTORY_BURST, default 10
	SelfUser        uint64  // HAYSTACK_SELF_USER, uploads by this user id are never searchable

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		MatchThreshold:  getEnvInt("HAYSTACK_MATCH_THRESHOLD", DefaultMatchThreshold),
		ResultCap:       getEnvInt("HAYSTACK_RESULT_CAP", DefaultResultCap),
		ConcurrentScans: getEnvInt("HAYSTACK_CONCURRENT_SCANS", DefaultConcurrentScans),
		Strategy:        getEnvString("HAYSTACK_STRATEGY", StrategyIndexed),
		IndexDir:        getEnvString("HAYSTACK_INDEX_DIR", DefaultIndexDir),
		WriteBuffer:     getEnvInt("HAYSTACK_WRITE_BUFFER", DefaultWriteBuffer),
		CacheChannels:   getEnvInt("HAYSTACK_CACHE_CHANNELS", DefaultCacheChannels),
		HistoryRPS:      getEnvFloat("HAYSTACK_HISTORY_RPS", 5.0),
		HistoryBurst:    getEnvInt("HAYSTACK_HISTORY_BURST", 10),
		SelfUser:        getEnvUint64("HAYSTACK_SELF_USER", 0),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvUint64(key string, defaultVal uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
