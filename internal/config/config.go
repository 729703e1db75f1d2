// Package config loads the lineup CLI configuration.
//
// A config file (YAML, or JSON by extension) is decoded into a generic map and
// then into Config with mapstructure, so durations may be written as "250ms"
// and unknown keys are rejected. Command-line flags override file values.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/lineup/pkg/history"
	"github.com/aretw0/lineup/pkg/parser"
	"github.com/aretw0/lineup/pkg/source"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "lineup.yaml"

// Config holds the settings of an interactive session.
type Config struct {
	Prompt          string        `mapstructure:"prompt"`
	Parser          string        `mapstructure:"parser"`
	HistorySize     int           `mapstructure:"history_size"`
	MaxInputSize    int           `mapstructure:"max_input_size"`
	Delay           time.Duration `mapstructure:"delay"`
	Render          bool          `mapstructure:"render"`
	StartSuppressed bool          `mapstructure:"start_suppressed"`
	Seed            string        `mapstructure:"seed"`
	Debug           bool          `mapstructure:"debug"`
	Status          StatusConfig  `mapstructure:"status"`
	Redis           RedisConfig   `mapstructure:"redis"`
}

// StatusConfig enables the HTTP status surface.
type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig switches the line source to a Redis list.
type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	Key           string        `mapstructure:"key"`
	PromptChannel string        `mapstructure:"prompt_channel"`
	PopTimeout    time.Duration `mapstructure:"pop_timeout"`
}

// Enabled reports whether a Redis source is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prompt:       source.DefaultPrompt,
		Parser:       "raw",
		HistorySize:  history.DefaultSize,
		MaxInputSize: parser.DefaultMaxInputSize,
		Redis: RedisConfig{
			Key:           "lineup:input",
			PromptChannel: "lineup:prompt",
			PopTimeout:    time.Second,
		},
	}
}

// Load reads path on top of Default. An empty path tries DefaultFile and
// silently falls back to the defaults when it does not exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Decode applies raw onto cfg.
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks the values that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := parser.ByName(c.Parser); err != nil {
		return err
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative, got %d", c.HistorySize)
	}
	if c.MaxInputSize < 0 {
		return fmt.Errorf("max_input_size must not be negative, got %d", c.MaxInputSize)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", c.Delay)
	}
	if c.Redis.Enabled() && c.Redis.Key == "" {
		return errors.New("redis.key is required when redis.url is set")
	}
	return nil
}
