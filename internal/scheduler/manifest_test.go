package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniela/lesson-forge/internal/types"
)

func TestWriteManifest(t *testing.T) {
	manifest := types.NewManifest("execute")
	manifest.Items = []types.ItemOutcome{
		{ItemID: "algebra/quadratics", Action: types.ActionFullGenerate, Status: types.StatusPassed},
	}
	manifest.Finish()

	dir := filepath.Join(t.TempDir(), "manifests")
	path, err := WriteManifest(manifest, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "manifest-"+manifest.BatchID+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded types.Manifest
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, manifest.BatchID, loaded.BatchID)
	assert.Equal(t, "execute", loaded.Mode)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "algebra/quadratics", loaded.Items[0].ItemID)
	assert.Equal(t, 1, loaded.Totals.Succeeded)
}

func TestWriteManifest_CreatesDirectory(t *testing.T) {
	manifest := types.NewManifest("dry_run")
	manifest.Finish()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	path, err := WriteManifest(manifest, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
