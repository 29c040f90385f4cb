package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
	rcron "github.com/robfig/cron/v3"
)

var (
	ErrDatabaseDriverUnknown  = errors.New("blog config: database driver must be sqlite or postgres")
	ErrDatabaseDSNRequired    = errors.New("blog config: database dsn is required for postgres")
	ErrServerAddressRequired  = errors.New("blog config: server address is required")
	ErrAuthSecretRequired     = errors.New("blog config: auth jwt secret is required")
	ErrAuthAlgorithmInvalid   = errors.New("blog config: auth algorithm must be HS256, HS384 or HS512")
	ErrAuthTTLInvalid         = errors.New("blog config: auth token ttl must be positive")
	ErrResetSecretRequired    = errors.New("blog config: password reset secret is required")
	ErrPageSizeInvalid        = errors.New("blog config: page sizes must be positive and default must not exceed max")
	ErrCacheTTLInvalid        = errors.New("blog config: cache ttl must be positive when cache is enabled")
	ErrOEmbedMaxWidthInvalid  = errors.New("blog config: oembed max width must be positive")
	ErrPurgeScheduleRequired  = errors.New("blog config: reset token purge schedule is required")
	ErrPurgeScheduleInvalid   = errors.New("blog config: reset token purge schedule is not a valid cron expression")
	ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("blog config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("blog config: logging format is invalid")
)

// Config aggregates every runtime setting of the blog.
type Config struct {
	Server   ServerConfig   `json:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `json:"database" envPrefix:"DATABASE_"`
	Cache    CacheConfig    `json:"cache" envPrefix:"CACHE_"`
	Auth     AuthConfig     `json:"auth" envPrefix:"AUTH_"`
	Blog     BlogConfig     `json:"blog" envPrefix:"POSTS_"`
	Markdown MarkdownConfig `json:"markdown" envPrefix:"MARKDOWN_"`
	Routes   RoutesConfig   `json:"routes" envPrefix:"ROUTES_"`
	Commands CommandsConfig `json:"commands" envPrefix:"COMMANDS_"`
	Pages    PagesConfig    `json:"pages" envPrefix:"PAGES_"`
	Logging  LoggingConfig  `json:"logging" envPrefix:"LOG_"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address         string   `json:"address" env:"ADDRESS"`
	BasePath        string   `json:"base_path" env:"BASE_PATH"`
	SecureCookies   bool     `json:"secure_cookies" env:"SECURE_COOKIES"`
	ReadTimeout     Duration `json:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    Duration `json:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig selects the persistence backend. An empty Driver keeps
// everything in memory.
type DatabaseConfig struct {
	Driver  string `json:"driver" env:"DRIVER"`
	DSN     string `json:"dsn" env:"DSN"`
	Migrate bool   `json:"migrate" env:"MIGRATE"`
	Debug   bool   `json:"debug" env:"DEBUG"`
}

// CacheConfig toggles read-through repository caching.
type CacheConfig struct {
	Enabled bool     `json:"enabled" env:"ENABLED"`
	TTL     Duration `json:"ttl" env:"TTL"`
}

// AuthConfig controls token issuance and password reset links.
type AuthConfig struct {
	JWTSecret        string   `json:"jwt_secret" env:"JWT_SECRET"`
	Algorithm        string   `json:"algorithm" env:"ALGORITHM"`
	TokenTTL         Duration `json:"token_ttl" env:"TOKEN_TTL"`
	RefreshThreshold Duration `json:"refresh_threshold" env:"REFRESH_THRESHOLD"`
	ResetSecret      string   `json:"reset_secret" env:"RESET_SECRET"`
	ResetTokenTTL    Duration `json:"reset_token_ttl" env:"RESET_TOKEN_TTL"`
}

// BlogConfig controls post listings.
type BlogConfig struct {
	ResultsPerPage int `json:"results_per_page" env:"RESULTS_PER_PAGE"`
	MaxPerPage     int `json:"max_per_page" env:"MAX_PER_PAGE"`
}

// MarkdownConfig controls rendering and oEmbed expansion.
type MarkdownConfig struct {
	TOCDepth       int          `json:"toc_depth" env:"TOC_DEPTH"`
	HighlightStyle string       `json:"highlight_style" env:"HIGHLIGHT_STYLE"`
	Extensions     []string     `json:"extensions" env:"EXTENSIONS" envSeparator:","`
	OEmbed         OEmbedConfig `json:"oembed" envPrefix:"OEMBED_"`
}

// OEmbedConfig controls rich media expansion.
type OEmbedConfig struct {
	Enabled   bool     `json:"enabled" env:"ENABLED"`
	MaxWidth  int      `json:"max_width" env:"MAX_WIDTH"`
	Timeout   Duration `json:"timeout" env:"TIMEOUT"`
	CacheTTL  Duration `json:"cache_ttl" env:"CACHE_TTL"`
	CacheSize int      `json:"cache_size" env:"CACHE_SIZE"`
}

// RoutesConfig controls canonical URL generation. RouteConfig replaces the
// generated route table when set programmatically.
type RoutesConfig struct {
	BaseURL     string         `json:"base_url" env:"BASE_URL"`
	Group       string         `json:"group" env:"GROUP"`
	RouteConfig *urlkit.Config `json:"-" env:"-"`
}

// CommandsConfig controls the command layer.
type CommandsConfig struct {
	Timeout       Duration `json:"timeout" env:"TIMEOUT"`
	MaxRetries    int      `json:"max_retries" env:"MAX_RETRIES"`
	Dispatch      bool     `json:"dispatch" env:"DISPATCH"`
	Cron          bool     `json:"cron" env:"CRON"`
	PurgeSchedule string   `json:"purge_schedule" env:"PURGE_SCHEDULE"`
	Telemetry     bool     `json:"telemetry" env:"TELEMETRY"`
}

// PagesConfig optionally loads static pages from disk instead of the
// embedded set.
type PagesConfig struct {
	Dir string `json:"dir" env:"DIR"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `json:"provider" env:"PROVIDER"`
	Level     string   `json:"level" env:"LEVEL"`
	Format    string   `json:"format" env:"FORMAT"`
	AddSource bool     `json:"add_source" env:"ADD_SOURCE"`
	Focus     []string `json:"focus" env:"FOCUS" envSeparator:","`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     Duration(5 * time.Minute),
		},
		Auth: AuthConfig{
			Algorithm:        "HS256",
			TokenTTL:         Duration(30 * time.Minute),
			RefreshThreshold: Duration(10 * time.Minute),
			ResetTokenTTL:    Duration(15 * time.Minute),
		},
		Blog: BlogConfig{
			ResultsPerPage: 20,
			MaxPerPage:     100,
		},
		Markdown: MarkdownConfig{
			TOCDepth:       3,
			HighlightStyle: "monokai",
			OEmbed: OEmbedConfig{
				Enabled:   true,
				MaxWidth:  800,
				Timeout:   Duration(5 * time.Second),
				CacheTTL:  Duration(24 * time.Hour),
				CacheSize: 512,
			},
		},
		Routes: RoutesConfig{
			BaseURL: "http://localhost:8080",
		},
		Commands: CommandsConfig{
			Timeout:       Duration(30 * time.Second),
			Cron:          true,
			PurgeSchedule: "@every 15m",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Server.Address) == "" {
		return ErrServerAddressRequired
	}
	switch normalize(cfg.Database.Driver) {
	case "", "sqlite", "sqlite3":
	case "postgres", "postgresql":
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return ErrDatabaseDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrDatabaseDriverUnknown, cfg.Database.Driver)
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return ErrAuthSecretRequired
	}
	switch strings.ToUpper(strings.TrimSpace(cfg.Auth.Algorithm)) {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: %s", ErrAuthAlgorithmInvalid, cfg.Auth.Algorithm)
	}
	if cfg.Auth.TokenTTL <= 0 || cfg.Auth.ResetTokenTTL <= 0 {
		return ErrAuthTTLInvalid
	}
	if strings.TrimSpace(cfg.Auth.ResetSecret) == "" {
		return ErrResetSecretRequired
	}
	if cfg.Blog.ResultsPerPage <= 0 || cfg.Blog.MaxPerPage <= 0 || cfg.Blog.ResultsPerPage > cfg.Blog.MaxPerPage {
		return ErrPageSizeInvalid
	}
	if cfg.Markdown.OEmbed.Enabled && cfg.Markdown.OEmbed.MaxWidth <= 0 {
		return ErrOEmbedMaxWidthInvalid
	}
	if cfg.Commands.Cron {
		schedule := strings.TrimSpace(cfg.Commands.PurgeSchedule)
		if schedule == "" {
			return ErrPurgeScheduleRequired
		}
		if _, err := rcron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("%w: %v", ErrPurgeScheduleInvalid, err)
		}
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// DatabaseDriver returns the normalised driver name, "" for in-memory.
func (cfg Config) DatabaseDriver() string {
	switch normalize(cfg.Database.Driver) {
	case "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql":
		return "postgres"
	}
	return ""
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
