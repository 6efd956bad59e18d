package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "APP_"

// layer is one configuration source. Later layers override earlier ones.
type layer struct {
	name string
	load func(k *koanf.Koanf) error
}

// Load reads configs/base.yaml and configs/{profile}.yaml over the built-in
// defaults, then applies APP_ environment variables.
func Load(profile string) (*Config, error) {
	return LoadFrom("configs", profile)
}

// LoadFrom is Load with an explicit config directory. Missing files are
// skipped; unreadable or malformed ones are errors.
func LoadFrom(dir, profile string) (*Config, error) {
	layers := []layer{
		{name: "defaults", load: func(k *koanf.Koanf) error {
			return k.Load(confmap.Provider(defaults(), "."), nil)
		}},
		{name: "base config", load: yamlFile(filepath.Join(dir, "base.yaml"))},
	}

	if profile != "" {
		layers = append(layers, layer{
			name: fmt.Sprintf("profile config %q", profile),
			load: yamlFile(filepath.Join(dir, profile+".yaml")),
		})
	}

	// The env layer maps names against the keys loaded so far.
	layers = append(layers, layer{name: "env vars", load: func(k *koanf.Koanf) error {
		return k.Load(env.Provider(envPrefix, ".", envKeyMapper(k.Keys())), nil)
	}})

	k := koanf.New(".")
	for _, l := range layers {
		if err := l.load(k); err != nil {
			return nil, fmt.Errorf("loading %s: %w", l.name, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func yamlFile(path string) func(k *koanf.Koanf) error {
	return func(k *koanf.Koanf) error {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return k.Load(file.Provider(path), yaml.Parser())
	}
}

// envKeyMapper maps APP_SERVER_READ_TIMEOUT to server.read_timeout. Known keys
// are matched first so underscores inside a key survive; anything else falls
// back to replacing every underscore with a dot.
func envKeyMapper(known []string) func(string) string {
	lookup := make(map[string]string, len(known))
	for _, key := range known {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if key, ok := lookup[name]; ok {
			return key
		}

		return strings.ReplaceAll(name, "_", ".")
	}
}

// defaults is the lowest layer. Every key a profile or env var may set
// appears here so envKeyMapper can find it.
func defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":        DefaultServiceName,
			"version":     "dev",
			"environment": "local",
		},
		"server": map[string]any{
			"port":             DefaultServerPort,
			"host":             "0.0.0.0",
			"read_timeout":     "30s",
			"write_timeout":    "30s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "10s",
			"request_timeout":  "30s",
			"max_request_size": DefaultMaxRequestSize,
		},
		"log": map[string]any{
			"level":  "info",
			"format": "json",
			"file": map[string]any{
				"enabled":     false,
				"path":        "./logs/quote-service.log",
				"max_size":    DefaultLogFileMaxSizeMB,
				"max_backups": DefaultLogFileMaxBackups,
				"max_age":     DefaultLogFileMaxAgeDays,
				"compress":    true,
			},
		},
		"telemetry": map[string]any{
			"enabled":       false,
			"endpoint":      "",
			"service_name":  DefaultServiceName,
			"sampling_rate": 1.0,
			"insecure":      false,
		},
		"client": map[string]any{
			"timeout": "10s",
			"retry": map[string]any{
				"max_attempts":     DefaultClientRetryMaxAttempts,
				"initial_interval": "100ms",
				"max_interval":     "5s",
				"multiplier":       DefaultClientRetryMultiplier,
				"jitter_factor":    DefaultClientRetryJitterFactor,
			},
			"circuit_breaker": map[string]any{
				"max_failures":    DefaultClientCircuitMaxFailures,
				"timeout":         "30s",
				"half_open_limit": DefaultClientCircuitHalfOpenLimit,
			},
			"transport": map[string]any{
				"max_idle_conns":          DefaultTransportMaxIdleConns,
				"max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
				"idle_conn_timeout":       DefaultTransportIdleConnTimeout.String(),
			},
		},
		"services": map[string]any{
			"quotable": map[string]any{
				"base_url": "https://api.quotable.io",
				"name":     "quotable",
			},
		},
		"quotes": map[string]any{
			"import": map[string]any{
				"enabled":     false,
				"max_count":   DefaultImportMaxCount,
				"concurrency": DefaultImportConcurrency,
			},
		},
		"health": map[string]any{
			"check_timeout": "2s",
		},
	}
}
