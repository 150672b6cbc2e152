// Package config loads run settings from the environment and the YAML
// configuration files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultTimezone = "Asia/Seoul"

type Config struct {
	// Search settings
	SerpAPIKey           string
	GoogleCSEKey         string
	GoogleCSECX          string
	CoverageThreshold    int // publications with at least this many feed items skip search
	MaxSearchResults     int // per publication
	SearchQueryTemplates []string
	SearchRatePerSec     float64
	MaxSearchRequests    int // per run (0 = unlimited)

	// Gemini settings
	GeminiAPIKey      string
	GeminiModel       string
	MaxGeminiRequests int // maximum Gemini requests per run (0 = unlimited)

	// SMTP settings
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	EmailTo   []string

	// Config files
	FeedsConfigPath    string
	SitesConfigPath    string
	KeywordsConfigPath string

	// Report settings
	Timezone       string
	Location       *time.Location
	ReportTitle    string
	MaxPerSection  int
	DateBufferDays int

	// Summary settings
	SummaryMaxItems      int
	SummaryFallbackChars int
	SummaryMaxChars      int

	// Warnings lists settings that were unusable and replaced by defaults.
	Warnings []string

	// App settings
	Debug          bool
	LogLevel       string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Load reads .env.local and .env (when present) and builds the config from
// defaults and environment. Unusable values fall back to their defaults and
// are reported in Warnings. Delivery credentials are checked by Validate.
func Load() *Config {
	// existing variables win over the files
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := &Config{}
	cfg.SerpAPIKey = os.Getenv("SERPAPI_KEY")
	cfg.GoogleCSEKey = os.Getenv("GOOGLE_CSE_KEY")
	cfg.GoogleCSECX = os.Getenv("GOOGLE_CSE_CX")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = cfg.getEnvIntOrDefault("SMTP_PORT", 0)
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	cfg.EmailTo = splitList(os.Getenv("EMAIL_TO"), ",")

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml")
	cfg.SitesConfigPath = getEnvOrDefault("SITES_CONFIG_PATH", "configs/sites.yaml")
	cfg.KeywordsConfigPath = getEnvOrDefault("KEYWORDS_CONFIG_PATH", "configs/keywords.yaml")

	cfg.Timezone = getEnvOrDefault("TIMEZONE", defaultTimezone)
	cfg.ReportTitle = getEnvOrDefault("REPORT_TITLE", "Eyewear Monthly")
	cfg.MaxPerSection = cfg.getEnvIntOrDefault("MAX_PER_SECTION", 6)
	cfg.DateBufferDays = cfg.getEnvIntOrDefault("DATE_BUFFER_DAYS", 2)

	cfg.CoverageThreshold = cfg.getEnvIntOrDefault("COVERAGE_THRESHOLD", 6)
	cfg.MaxSearchResults = cfg.getEnvIntOrDefault("MAX_SEARCH_RESULTS", 12)
	cfg.SearchQueryTemplates = splitList(os.Getenv("SEARCH_QUERY_TEMPLATES"), ";")
	cfg.SearchRatePerSec = cfg.getEnvFloatOrDefault("SEARCH_RATE_PER_SEC", 1)
	cfg.MaxSearchRequests = cfg.getEnvIntOrDefault("MAX_SEARCH_REQUESTS", 0)
	cfg.MaxGeminiRequests = cfg.getEnvIntOrDefault("MAX_GEMINI_REQUESTS", 18)

	cfg.SummaryMaxItems = cfg.getEnvIntOrDefault("SUMMARY_MAX_ITEMS", 18)
	cfg.SummaryFallbackChars = cfg.getEnvIntOrDefault("SUMMARY_FALLBACK_CHARS", 180)
	cfg.SummaryMaxChars = cfg.getEnvIntOrDefault("SUMMARY_MAX_CHARS", 260)

	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = cfg.getEnvDurationOrDefault("REQUEST_TIMEOUT", 20*time.Second)
	cfg.RetryAttempts = cfg.getEnvIntOrDefault("RETRY_ATTEMPTS", 3)
	cfg.RetryDelay = cfg.getEnvDurationOrDefault("RETRY_DELAY", 5*time.Second)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		cfg.warn("invalid TIMEZONE %q, using %s: %v", cfg.Timezone, defaultTimezone, err)
		cfg.Timezone = defaultTimezone
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.UTC
		}
	}
	cfg.Location = loc

	cfg.normalizeLimits()
	return cfg
}

// Buffer is the slack applied around the reporting window.
func (c *Config) Buffer() time.Duration {
	return time.Duration(c.DateBufferDays) * 24 * time.Hour
}

// normalizeLimits resets out-of-range knobs to their defaults.
func (c *Config) normalizeLimits() {
	limits := []struct {
		key   string
		value *int
		min   int
		def   int
	}{
		{"MAX_PER_SECTION", &c.MaxPerSection, 1, 6},
		{"DATE_BUFFER_DAYS", &c.DateBufferDays, 0, 2},
		{"COVERAGE_THRESHOLD", &c.CoverageThreshold, 0, 6},
		{"MAX_SEARCH_RESULTS", &c.MaxSearchResults, 1, 12},
		{"SUMMARY_MAX_ITEMS", &c.SummaryMaxItems, 0, 18},
		{"SUMMARY_FALLBACK_CHARS", &c.SummaryFallbackChars, 0, 180},
		{"SUMMARY_MAX_CHARS", &c.SummaryMaxChars, 2, 260},
		{"RETRY_ATTEMPTS", &c.RetryAttempts, 1, 3},
		{"MAX_SEARCH_REQUESTS", &c.MaxSearchRequests, 0, 0},
		{"MAX_GEMINI_REQUESTS", &c.MaxGeminiRequests, 0, 18},
	}
	for _, l := range limits {
		if *l.value < l.min {
			c.warn("%s=%d is below %d, using %d", l.key, *l.value, l.min, l.def)
			*l.value = l.def
		}
	}
}

func (c *Config) warn(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks delivery credentials. Dry runs skip it.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"SMTP_HOST", c.SMTPHost},
		{"SMTP_USER", c.SMTPUser},
		{"SMTP_PASS", c.SMTPPass},
		{"EMAIL_FROM", c.EmailFrom},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	if c.SMTPPort <= 0 {
		return fmt.Errorf("SMTP_PORT is required")
	}
	if len(c.EmailTo) == 0 {
		return fmt.Errorf("EMAIL_TO is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		c.warn("invalid %s %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func (c *Config) getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.warn("invalid %s %q, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}

// getEnvDurationOrDefault accepts Go durations ("30s") or plain seconds.
func (c *Config) getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	c.warn("invalid %s %q, using %s", key, value, defaultValue)
	return defaultValue
}

func splitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
