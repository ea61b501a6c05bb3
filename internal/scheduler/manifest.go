package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daniela/lesson-forge/internal/types"
)

// WriteManifest persists the manifest as a JSON file in dir, named by batch
// ID. The file is written once per run and treated as read-only afterwards.
func WriteManifest(manifest *types.Manifest, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("manifest-%s.json", manifest.BatchID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return path, nil
}
