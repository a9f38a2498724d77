// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Data      DataConfig
	Provider  ProviderConfig
	Recommend RecommendConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DataConfig holds data directory configuration. The review queue database,
// the history ledger, and the library snapshot all live under BasePath.
type DataConfig struct {
	BasePath string
}

// ReviewDBPath is the Badger directory for the review queue.
func (d DataConfig) ReviewDBPath() string {
	return filepath.Join(d.BasePath, "review")
}

// HistoryDBPath is the SQLite file for the suggestion history ledger.
func (d DataConfig) HistoryDBPath() string {
	return filepath.Join(d.BasePath, "history.db")
}

// LibraryPath is the JSON library snapshot consulted for dedup.
func (d DataConfig) LibraryPath() string {
	return filepath.Join(d.BasePath, "library.json")
}

// ProviderConfig holds generative provider configuration.
type ProviderConfig struct {
	// Name identifies the configured provider backend.
	Name string
	// RateLimit is the sustained provider calls per second.
	RateLimit float64
	// RateBurst is the rate limiter burst size.
	RateBurst int
}

// RecommendConfig holds recommendation pipeline configuration.
type RecommendConfig struct {
	MaxItems     int           // Suggestions delivered per run (default: 20)
	Styles       []string      // Style tags to restrict results to
	Relaxed      bool          // Keep items matching no style filter
	AlbumMode    bool          // Require a specific album per suggestion
	Backfill     string        // off, standard, or aggressive
	CacheSize    int           // Max cached run results (default: 64)
	CacheTTL     time.Duration // Cached result lifetime (default: 1h)
	HistoryGuard time.Duration // Min elapsed time before recording outcomes
}

// Version summarizes the settings that shape provider output. It feeds the
// batch cache key, so a settings change invalidates cached runs.
func (r RecommendConfig) Version() string {
	return fmt.Sprintf("styles=%s;relaxed=%t;album=%t;backfill=%s",
		strings.Join(r.Styles, ","), r.Relaxed, r.AlbumMode, r.Backfill)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	providerName := flag.String("provider", "", "Generative provider backend (default: static)")
	providerRate := flag.String("provider-rate", "", "Provider calls per second (default: 1)")
	providerBurst := flag.String("provider-burst", "", "Provider rate limiter burst (default: 3)")

	maxItems := flag.String("max-items", "", "Suggestions per run (default: 20)")
	styles := flag.String("styles", "", "Comma-separated style filters")
	relaxed := flag.String("relaxed", "", "Keep items matching no style filter (default: false)")
	albumMode := flag.String("album-mode", "", "Require a specific album per suggestion (default: false)")
	backfill := flag.String("backfill", "", "Top-up mode: off, standard, aggressive (default: standard)")
	cacheSize := flag.String("cache-size", "", "Max cached run results (default: 64)")
	cacheTTL := flag.String("cache-ttl", "", "Cached result lifetime (default: 1h)")
	historyGuard := flag.String("history-guard", "", "Min delay before recording outcomes (default: 5s)")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Provider: ProviderConfig{
			Name:      getConfigValue(*providerName, "PROVIDER", "static"),
			RateLimit: getFloatConfigValue(*providerRate, "PROVIDER_RATE", 1),
			RateBurst: getIntConfigValue(*providerBurst, "PROVIDER_BURST", 3),
		},
		Recommend: RecommendConfig{
			MaxItems:  getIntConfigValue(*maxItems, "RECOMMEND_MAX_ITEMS", 20),
			Styles:    splitList(getConfigValue(*styles, "RECOMMEND_STYLES", "")),
			Relaxed:   getBoolConfigValue(*relaxed, "RECOMMEND_RELAXED", false),
			AlbumMode: getBoolConfigValue(*albumMode, "RECOMMEND_ALBUM_MODE", false),
			Backfill:  getConfigValue(*backfill, "RECOMMEND_BACKFILL", "standard"),
			CacheSize: getIntConfigValue(*cacheSize, "RECOMMEND_CACHE_SIZE", 64),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Recommend.CacheTTL, err = parseDurationValue(*cacheTTL, "RECOMMEND_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.Recommend.HistoryGuard, err = parseDurationValue(*historyGuard, "RECOMMEND_HISTORY_GUARD", "5s"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	validBackfill := map[string]bool{
		"off":        true,
		"standard":   true,
		"aggressive": true,
	}
	if !validBackfill[strings.ToLower(c.Recommend.Backfill)] {
		return fmt.Errorf("invalid backfill mode: %s (must be off, standard, or aggressive)", c.Recommend.Backfill)
	}

	if c.Recommend.MaxItems < 1 || c.Recommend.MaxItems > 100 {
		return fmt.Errorf("max items out of range: %d (must be 1-100)", c.Recommend.MaxItems)
	}
	if c.Recommend.CacheSize < 1 {
		return fmt.Errorf("cache size must be positive, got %d", c.Recommend.CacheSize)
	}
	if c.Provider.RateLimit <= 0 {
		return fmt.Errorf("provider rate must be positive, got %g", c.Provider.RateLimit)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute, defaulting to
// ~/TuneScout/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "TuneScout", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// splitList parses a comma-separated value into trimmed non-empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration setting with the usual precedence.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(envKey, "_", " ")), strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
