package runtimeconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-blog/internal/validation"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "BLOG_"

//go:embed schema.json
var schemaDocument []byte

var (
	schemaOnce     sync.Once
	compiledSchema *validation.Schema
	schemaErr      error
)

func configSchema() (*validation.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = validation.CompileSchema("blog-config.json", schemaDocument)
	})
	return compiledSchema, schemaErr
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	environment map[string]string
}

// WithEnvironment replaces the process environment used for overrides.
func WithEnvironment(vars map[string]string) LoadOption {
	return func(o *loadOptions) {
		o.environment = vars
	}
}

// Load starts from DefaultConfig, applies the JSON file at path when path is
// not empty, then applies BLOG_ prefixed environment overrides and validates
// the result.
func Load(path string, opts ...LoadOption) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("blog config: read %s: %w", path, err)
		}
		if err := Decode(raw, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg, opts...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode validates raw against the embedded schema and merges it into cfg.
func Decode(raw []byte, cfg *Config) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}
	if err := schema.ValidateJSON(raw); err != nil {
		return fmt.Errorf("blog config: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("blog config: decode: %w", err)
	}
	return nil
}

// ApplyEnv overlays BLOG_ prefixed environment variables onto cfg.
func ApplyEnv(cfg *Config, opts ...LoadOption) error {
	options := loadOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	envOpts := env.Options{Prefix: EnvPrefix}
	if options.environment != nil {
		envOpts.Environment = options.environment
	}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return fmt.Errorf("blog config: parse env: %w", err)
	}
	return nil
}
