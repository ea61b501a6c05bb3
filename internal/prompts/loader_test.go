package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("generation.json", "lesson-plan")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "curriculum designer")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("generation.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_ValidPrompt(t *testing.T) {
	ClearCache()

	assert.NotPanics(t, func() {
		prompt := MustGet("critic.json", "critique-content")
		assert.NotEmpty(t, prompt)
	})
}

func TestFormat(t *testing.T) {
	template := "Unit: {{.Unit}}, Topic: {{.Topic}}"
	data := map[string]string{
		"Unit":  "algebra",
		"Topic": "linear equations",
	}

	result := Format(template, data)
	assert.Equal(t, "Unit: algebra, Topic: linear equations", result)
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	result := Format(template, data)
	assert.Equal(t, template, result)
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Topic: {{.Topic}}"
	data := map[string]string{}

	result := Format(template, data)
	assert.Equal(t, template, result) // Placeholder remains
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("diagram.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "diagram-source")
	assert.Contains(t, keys, "critique-diagram")
	assert.Contains(t, keys, "revision-preamble")
}

func TestPromptFiles_AllKeysPresent(t *testing.T) {
	ClearCache()

	wanted := map[string][]string{
		"generation.json": {"lesson-plan", "exam-questions", "revision-preamble"},
		"critic.json":     {"critique-content"},
		"diagram.json":    {"diagram-source", "critique-diagram", "revision-preamble"},
	}

	for file, keys := range wanted {
		for _, key := range keys {
			prompt, err := Get(file, key)
			require.NoError(t, err, "%s/%s", file, key)
			assert.NotEmpty(t, prompt, "%s/%s", file, key)
		}
	}
}

func TestCaching(t *testing.T) {
	ClearCache()

	// First call loads from file
	prompt1, err := Get("generation.json", "lesson-plan")
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get("generation.json", "lesson-plan")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
