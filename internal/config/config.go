// Package config provides configuration loading and path management for
// svgpro.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/jsonc"
)

// Config holds the runtime configuration.
type Config struct {
	// Provider selects the completion provider. Only "ollama" ships today.
	Provider string `json:"provider"`
	// BaseURL is the completion service endpoint.
	BaseURL string `json:"baseURL"`
	// Model is the model identifier sent with every request.
	Model string `json:"model"`

	// Sampling parameters forwarded in the request options map.
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	MaxTokens        int     `json:"maxTokens"`
	FrequencyPenalty float64 `json:"frequencyPenalty"`
	PresencePenalty  float64 `json:"presencePenalty"`

	// ContextWindow is the number of trailing transcript messages sent per
	// request, not counting the system directive.
	ContextWindow int `json:"contextWindow"`
	// MaxAttempts is the number of automatic retries after a failed
	// generation attempt (2 means up to 3 tries in total).
	MaxAttempts int `json:"maxAttempts"`

	// SystemPrompt overrides the built-in generation directive when set.
	SystemPrompt string `json:"systemPrompt"`
	// Document is the workspace markup file, resolved against the working
	// directory when relative.
	Document string `json:"document"`
}

// fileConfig mirrors Config with optional fields so overlays only touch the
// keys a file actually sets.
type fileConfig struct {
	Provider         *string  `json:"provider"`
	BaseURL          *string  `json:"baseURL"`
	Model            *string  `json:"model"`
	Temperature      *float64 `json:"temperature"`
	TopP             *float64 `json:"topP"`
	MaxTokens        *int     `json:"maxTokens"`
	FrequencyPenalty *float64 `json:"frequencyPenalty"`
	PresencePenalty  *float64 `json:"presencePenalty"`
	ContextWindow    *int     `json:"contextWindow"`
	MaxAttempts      *int     `json:"maxAttempts"`
	SystemPrompt     *string  `json:"systemPrompt"`
	Document         *string  `json:"document"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:      "ollama",
		BaseURL:       "http://localhost:11434",
		Model:         "qwen3:8b",
		Temperature:   0.7,
		TopP:          0.95,
		MaxTokens:     20000,
		ContextWindow: 10,
		MaxAttempts:   2,
		Document:      "canvas.svg",
	}
}

// Load builds the configuration for a working directory. Sources, lowest
// priority first: defaults, global config (~/.config/svgpro/), project config
// (<dir>/svgpro.json[c]), the SVGPRO_CONFIG file, environment variables.
func Load(directory string) (*Config, error) {
	cfg := Default()

	loaded := make(map[string]bool)
	loadOnce := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		if loaded[abs] {
			return nil
		}
		if err := applyFile(cfg, path); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		loaded[abs] = true
		return nil
	}

	global := GetPaths().Config
	for _, name := range []string{"svgpro.json", "svgpro.jsonc"} {
		if err := loadOnce(filepath.Join(global, name)); err != nil {
			return nil, err
		}
	}

	if directory != "" {
		for _, name := range []string{"svgpro.json", "svgpro.jsonc"} {
			if err := loadOnce(filepath.Join(directory, name)); err != nil {
				return nil, err
			}
		}
	}

	if path := os.Getenv("SVGPRO_CONFIG"); path != "" {
		if err := loadOnce(path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if directory != "" && cfg.Document != "" && !filepath.IsAbs(cfg.Document) {
		cfg.Document = filepath.Join(directory, cfg.Document)
	}

	return cfg, nil
}

// applyFile overlays one JSONC config file onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.Provider != nil {
		cfg.Provider = *fc.Provider
	}
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.Model != nil {
		cfg.Model = *fc.Model
	}
	if fc.Temperature != nil {
		cfg.Temperature = *fc.Temperature
	}
	if fc.TopP != nil {
		cfg.TopP = *fc.TopP
	}
	if fc.MaxTokens != nil {
		cfg.MaxTokens = *fc.MaxTokens
	}
	if fc.FrequencyPenalty != nil {
		cfg.FrequencyPenalty = *fc.FrequencyPenalty
	}
	if fc.PresencePenalty != nil {
		cfg.PresencePenalty = *fc.PresencePenalty
	}
	if fc.ContextWindow != nil {
		cfg.ContextWindow = *fc.ContextWindow
	}
	if fc.MaxAttempts != nil {
		cfg.MaxAttempts = *fc.MaxAttempts
	}
	if fc.SystemPrompt != nil {
		cfg.SystemPrompt = *fc.SystemPrompt
	}
	if fc.Document != nil {
		cfg.Document = *fc.Document
	}
	return nil
}

// applyEnv overlays environment variables, the highest-priority source.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SVGPRO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SVGPRO_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("SVGPRO_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("SVGPRO_DOCUMENT"); v != "" {
		cfg.Document = v
	}
	if v := os.Getenv("SVGPRO_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("SVGPRO_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ContextWindow = n
		}
	}
}

// Save writes cfg to path as indented JSON.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
