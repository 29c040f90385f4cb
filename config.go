package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrDatabaseDriverUnknown  = runtimeconfig.ErrDatabaseDriverUnknown
	ErrDatabaseDSNRequired    = runtimeconfig.ErrDatabaseDSNRequired
	ErrServerAddressRequired  = runtimeconfig.ErrServerAddressRequired
	ErrAuthSecretRequired     = runtimeconfig.ErrAuthSecretRequired
	ErrAuthAlgorithmInvalid   = runtimeconfig.ErrAuthAlgorithmInvalid
	ErrAuthTTLInvalid         = runtimeconfig.ErrAuthTTLInvalid
	ErrResetSecretRequired    = runtimeconfig.ErrResetSecretRequired
	ErrPageSizeInvalid        = runtimeconfig.ErrPageSizeInvalid
	ErrCacheTTLInvalid        = runtimeconfig.ErrCacheTTLInvalid
	ErrOEmbedMaxWidthInvalid  = runtimeconfig.ErrOEmbedMaxWidthInvalid
	ErrPurgeScheduleRequired  = runtimeconfig.ErrPurgeScheduleRequired
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	ServerConfig   = runtimeconfig.ServerConfig
	DatabaseConfig = runtimeconfig.DatabaseConfig
	CacheConfig    = runtimeconfig.CacheConfig
	AuthConfig     = runtimeconfig.AuthConfig
	PostsConfig    = runtimeconfig.BlogConfig
	MarkdownConfig = runtimeconfig.MarkdownConfig
	OEmbedConfig   = runtimeconfig.OEmbedConfig
	RoutesConfig   = runtimeconfig.RoutesConfig
	CommandsConfig = runtimeconfig.CommandsConfig
	PagesConfig    = runtimeconfig.PagesConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	Duration       = runtimeconfig.Duration
	LoadOption     = runtimeconfig.LoadOption
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = runtimeconfig.EnvPrefix

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads the optional JSON file at path, applies environment
// overrides and validates the result.
func LoadConfig(path string, opts ...LoadOption) (Config, error) {
	return runtimeconfig.Load(path, opts...)
}

// WithEnvironment replaces the process environment consulted by LoadConfig.
func WithEnvironment(vars map[string]string) LoadOption {
	return runtimeconfig.WithEnvironment(vars)
}
