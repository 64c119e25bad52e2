package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the environment prefix used by kco.
const DefaultEnvPrefix = "KCO"

// ErrUnknownFormat is returned for config files with an unrecognised
// extension.
var ErrUnknownFormat = errors.New("unknown config file format")

// Loader merges defaults, files and the environment, in that order of
// increasing precedence.
type Loader struct {
	envPrefix string
	files     []string
}

// NewLoader returns a Loader reading variables named envPrefix_KEY and
// the given files. An empty envPrefix skips the environment.
func NewLoader(envPrefix string, files ...string) *Loader {
	return &Loader{
		envPrefix: envPrefix,
		files:     files,
	}
}

// Load assembles and validates the effective configuration.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(structToMap(DefaultConfig()), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	// Environment keys arrive lower cased; map them back onto the known keys.
	canonical := make(map[string]string)
	for _, key := range k.Keys() {
		canonical[strings.ToLower(key)] = key
	}

	for _, path := range l.files {
		if path == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Config{}, err
		}

		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if l.envPrefix != "" {
		prefix := l.envPrefix + "_"
		transform := func(s string) string {
			// KCO_THROTTLE__RPS -> throttle.rps, KCO_SHARED_SECRET -> sharedSecret.
			key := strings.TrimPrefix(s, prefix)
			key = strings.ReplaceAll(key, "__", ".")
			key = strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if mapped, ok := canonical[key]; ok {
				return mapped
			}
			return key
		}
		if err := k.Load(env.Provider(prefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("config: file %s: %w %q", path, ErrUnknownFormat, ext)
	}
}

// structToMap converts cfg into a map for the koanf confmap provider.
func structToMap(cfg Config) map[string]any {
	return map[string]any{
		"baseURI":      cfg.BaseURI,
		"sharedSecret": cfg.SharedSecret,
		"contentType":  cfg.ContentType,
		"digest":       cfg.Digest,
		"timeout":      cfg.Timeout.String(),
		"userAgent":    cfg.UserAgent,
		"maxRedirects": cfg.MaxRedirects,
		"throttle": map[string]any{
			"rps":   cfg.Throttle.RPS,
			"burst": cfg.Throttle.Burst,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
	}
}
