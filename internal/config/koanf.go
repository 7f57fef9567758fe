package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar overrides the configuration file location.
	PathEnvVar = "PDFGEN_CONFIG"

	envPrefix = "PDFGEN_"
)

// DefaultPaths are searched, in order, when no path is given.
var DefaultPaths = []string{"config.yaml", "config.yml", "/etc/pdfgen/config.yaml"}

// legacyEnv maps the flat variables of earlier deployments.
var legacyEnv = map[string]string{
	"PORT":           "server.port",
	"DATABASE_URI":   "nocobase.default.url",
	"NOCOBASE_TOKEN": "nocobase.default.token",
	"NOCOBASE_APP":   "nocobase.default.app",
	"USERNOCOURL":    "nocobase.directory.url",
	"USERNOCOTOKEN":  "nocobase.directory.token",
	"USERNOCOAPP":    "nocobase.directory.app",
	"USERNOCOHOST":   "nocobase.directory.host",
	"LOG_LEVEL":      "logging.level",
}

// listKeys take comma-separated values from the environment.
var listKeys = map[string]bool{
	"cors.allowed_origins": true,
	"cors.allowed_methods": true,
	"cors.allowed_headers": true,
	"assets.allowed_hosts": true,
}

// Load reads the configuration. An empty path falls back to PDFGEN_CONFIG
// and then to DefaultPaths; a missing default file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		return nil, fmt.Errorf("loading legacy environment: %w", err)
	}
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func legacyKey(name string) string {
	return legacyEnv[name]
}

// envKey turns PDFGEN_NOCOBASE__DIRECTORY__URL into nocobase.directory.url.
func envKey(name string) string {
	name = strings.TrimPrefix(name, envPrefix)
	if name == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(name), "__", ".")
}

// envValue maps a prefixed variable with envKey and splits list values.
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if key == "" || !listKeys[key] {
		return key, value
	}
	return key, splitList(value)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
