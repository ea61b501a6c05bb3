// Package prompts loads the LLM prompt templates used by the generation,
// critique, and diagram loops. Templates live in JSON files next to this
// package and are embedded at compile time, so prompt wording can change
// without touching Go code.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	mu     sync.Mutex
	parsed = make(map[string]map[string]string)
)

// Get returns the template stored under key in the named prompt file.
// Filenames are bare (e.g. "generation.json"), never paths.
func Get(filename, key string) (string, error) {
	templates, err := load(filename)
	if err != nil {
		return "", err
	}
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return template, nil
}

// MustGet is Get for prompts the program cannot run without. A missing
// prompt file or key is a packaging bug, so it panics.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return template
}

// Format substitutes {{.Key}} placeholders with values from data. Unmatched
// placeholders are left in place so a missing value is visible in the prompt
// rather than silently blank.
func Format(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{{."+key+"}}", value)
	}
	return out
}

// List returns the keys available in a prompt file, sorted.
func List(filename string) ([]string, error) {
	templates, err := load(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearCache drops all parsed prompt files. Only tests need this.
func ClearCache() {
	mu.Lock()
	parsed = make(map[string]map[string]string)
	mu.Unlock()
}

func load(filename string) (map[string]string, error) {
	mu.Lock()
	defer mu.Unlock()

	if templates, ok := parsed[filename]; ok {
		return templates, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var templates map[string]string
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	parsed[filename] = templates
	return templates, nil
}
