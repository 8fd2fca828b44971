package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: POS_STORE__PATH sets store.path.
const EnvPrefix = "POS_"

// Load layers the defaults, the config file at path (skipped when it does
// not exist) and the environment. PORT and DB_PATH are honoured last.
func Load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	legacy := map[string]interface{}{}
	if port := os.Getenv("PORT"); port != "" {
		legacy["http.addr"] = ":" + port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		legacy["store.path"] = dbPath
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("load legacy env: %w", err)
	}
	return k, nil
}

// Parse loads, unmarshals and validates the configuration.
func Parse(path string) (*koanf.Koanf, Config, error) {
	k, err := Load(path)
	if err != nil {
		return nil, Config{}, err
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return k, cfg, nil
}
