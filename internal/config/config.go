// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	Targets string `json:"targets,omitempty" validate:"omitempty,filepath"` // Path to targets JSON file

	// Services
	APIKey      string `json:"api_key,omitempty"`                            // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"`                       // PostgreSQL connection URL
	RendererURL string `json:"renderer_url,omitempty" validate:"omitempty,url"` // Diagram rendering service base URL

	// Limits
	MaxConcurrent int `json:"max_concurrent,omitempty" validate:"gte=0,lte=64"` // Concurrently-running generation loops
	MaxAttempts   int `json:"max_attempts,omitempty" validate:"gte=0,lte=10"`   // Generation attempts per work item
	MaxIterations int `json:"max_iterations,omitempty" validate:"gte=0,lte=10"` // Refinement iterations per diagram

	// Output
	ManifestDir string `json:"manifest_dir,omitempty"` // Directory for execution manifest files

	// Behavior
	Force        bool   `json:"force,omitempty"`                                                      // Regenerate even when content exists
	DryRun       bool   `json:"dry_run,omitempty"`                                                    // Plan only, no execution
	Verbose      bool   `json:"verbose,omitempty"`                                                    // Print detailed debug information
	OverrideTool string `json:"override_tool,omitempty" validate:"omitempty,oneof=mermaid graphviz plantuml"` // Force one renderer tool for every diagram
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required fields
// are checked after flag merging, not here.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				return fmt.Errorf("config error: field %q failed %q validation", fe.Field(), fe.Tag())
			}
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Targets != "" {
		if _, err := os.Stat(c.Targets); os.IsNotExist(err) {
			return fmt.Errorf("config error: targets file not found: %s", c.Targets)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Targets == "" {
		result.Targets = defaults.Targets
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RendererURL == "" {
		result.RendererURL = defaults.RendererURL
	}
	if result.ManifestDir == "" {
		result.ManifestDir = defaults.ManifestDir
	}
	if result.OverrideTool == "" {
		result.OverrideTool = defaults.OverrideTool
	}

	// Int fields: use default if zero
	if result.MaxConcurrent == 0 {
		result.MaxConcurrent = defaults.MaxConcurrent
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.MaxIterations == 0 {
		result.MaxIterations = defaults.MaxIterations
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
