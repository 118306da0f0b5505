package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultAddr            = ":8080"
	defaultTemplatesDir    = "templates"
	defaultPublicDir       = "public"
	defaultContentDir      = "content"
	defaultBaseURL         = "http://localhost:8080"
	defaultConceptModel    = "gemini-2.5-flash"
	defaultConceptTimeout  = 20 * time.Second
	defaultWhatsAppNumber  = "94777436629"
	defaultConceptRate     = 10
	defaultConceptWindow   = time.Minute
	defaultEnvironment     = "dev"
	defaultLogLevel        = "info"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 45 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Concept   ConceptConfig
	Inquiry   InquiryConfig
	RateLimit RateLimitConfig
	Media     MediaConfig
	Session   SessionConfig
	Analytics AnalyticsConfig
	Env       string
	LogLevel  string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string
	Dev             bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// SiteConfig points at the on-disk templates, assets and content bundle.
type SiteConfig struct {
	TemplatesDir string
	PublicDir    string
	ContentDir   string
	BaseURL      string
}

// ConceptConfig configures the AI concept generator.
type ConceptConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Enabled reports whether a key is present. Without one the planner reports a
// configuration error per request instead of failing start-up.
func (c ConceptConfig) Enabled() bool { return strings.TrimSpace(c.APIKey) != "" }

// InquiryConfig configures the messaging deep link.
type InquiryConfig struct {
	WhatsAppNumber string
}

// RateLimitConfig throttles concept requests per client.
type RateLimitConfig struct {
	RedisURL        string
	ConceptRequests int
	ConceptWindow   time.Duration
}

// MediaConfig toggles server-side thumbnail probing.
type MediaConfig struct {
	ProbeThumbnails bool
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	SigningKey string
}

// AnalyticsConfig holds client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, environment
// variables and the optional explicit map, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:            addr(lookup),
			Dev:             boolWithDefault(lookup, "STUDIO_WEB_DEV", false),
			ReadTimeout:     durationWithDefault(lookup, "STUDIO_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "STUDIO_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "STUDIO_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "STUDIO_WEB_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Site: SiteConfig{
			TemplatesDir: stringWithDefault(lookup, "STUDIO_TEMPLATES_DIR", defaultTemplatesDir),
			PublicDir:    stringWithDefault(lookup, "STUDIO_PUBLIC_DIR", defaultPublicDir),
			ContentDir:   stringWithDefault(lookup, "STUDIO_CONTENT_DIR", defaultContentDir),
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "STUDIO_BASE_URL", defaultBaseURL), "/"),
		},
		Concept: ConceptConfig{
			APIKey:  stringWithDefault(lookup, "GEMINI_API_KEY", stringWithDefault(lookup, "API_KEY", "")),
			Model:   stringWithDefault(lookup, "STUDIO_CONCEPT_MODEL", defaultConceptModel),
			BaseURL: stringWithDefault(lookup, "STUDIO_CONCEPT_BASE_URL", ""),
			Timeout: durationWithDefault(lookup, "STUDIO_CONCEPT_TIMEOUT", defaultConceptTimeout),
		},
		Inquiry: InquiryConfig{
			WhatsAppNumber: stringWithDefault(lookup, "STUDIO_WHATSAPP_NUMBER", defaultWhatsAppNumber),
		},
		RateLimit: RateLimitConfig{
			RedisURL:        stringWithDefault(lookup, "STUDIO_REDIS_URL", ""),
			ConceptRequests: intWithDefault(lookup, "STUDIO_CONCEPT_RATE_LIMIT", defaultConceptRate),
			ConceptWindow:   durationWithDefault(lookup, "STUDIO_CONCEPT_RATE_WINDOW", defaultConceptWindow),
		},
		Media: MediaConfig{
			ProbeThumbnails: boolWithDefault(lookup, "STUDIO_THUMBNAIL_PROBE", true),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "STUDIO_SESSION_SIGNING_KEY", ""),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: stringWithDefault(lookup, "STUDIO_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "STUDIO_GTM_CONTAINER_ID", ""),
			Debug:            boolWithDefault(lookup, "STUDIO_ANALYTICS_DEBUG", false),
		},
		Env:      strings.ToLower(stringWithDefault(lookup, "STUDIO_ENV", defaultEnvironment)),
		LogLevel: strings.ToLower(stringWithDefault(lookup, "STUDIO_LOG_LEVEL", defaultLogLevel)),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Production reports whether the environment is prod.
func (c Config) Production() bool {
	return c.Env == "prod" || c.Env == "production"
}

// addr honours STUDIO_WEB_ADDR first and then the platform PORT variable.
func addr(lookup func(string) (string, bool)) string {
	if v := stringWithDefault(lookup, "STUDIO_WEB_ADDR", ""); v != "" {
		return v
	}
	if port := stringWithDefault(lookup, "PORT", ""); port != "" {
		return ":" + strings.TrimPrefix(port, ":")
	}
	return defaultAddr
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		missing = append(missing, "Server.Addr")
	}
	if strings.TrimSpace(cfg.Site.TemplatesDir) == "" {
		missing = append(missing, "Site.TemplatesDir")
	}
	if strings.TrimSpace(cfg.Site.PublicDir) == "" {
		missing = append(missing, "Site.PublicDir")
	}
	if strings.TrimSpace(cfg.Site.BaseURL) == "" {
		missing = append(missing, "Site.BaseURL")
	}
	if cfg.Concept.Timeout <= 0 {
		missing = append(missing, "Concept.Timeout")
	}
	if strings.TrimSpace(cfg.Inquiry.WhatsAppNumber) == "" {
		missing = append(missing, "Inquiry.WhatsAppNumber")
	}
	if cfg.RateLimit.ConceptRequests < 0 {
		missing = append(missing, "RateLimit.ConceptRequests")
	}
	if cfg.RateLimit.ConceptRequests > 0 && cfg.RateLimit.ConceptWindow <= 0 {
		missing = append(missing, "RateLimit.ConceptWindow")
	}
	if cfg.Production() && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		missing = append(missing, "Session.SigningKey")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
