package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/daniela/lesson-forge/internal/types"
)

// LoadTargets reads the curriculum targets file: a JSON array of targets,
// each with unit, topic, and optional grade_level, objectives, and diagrams.
func LoadTargets(path string) ([]types.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", path, err)
	}

	var targets []types.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets JSON: %w", err)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("targets file %s contains no targets", path)
	}

	seen := make(map[string]bool, len(targets))
	for i, target := range targets {
		if target.Unit == "" || target.Topic == "" {
			return nil, fmt.Errorf("target %d is missing unit or topic", i)
		}
		id := target.ItemID()
		if seen[id] {
			return nil, fmt.Errorf("duplicate target %s", id)
		}
		seen[id] = true
	}

	return targets, nil
}
