package llm

import (
	"testing"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"title\": \"Linear Equations\"}\n```",
			expected: `{"title": "Linear Equations"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"title\": \"Linear Equations\"}\n```",
			expected: `{"title": "Linear Equations"}`,
		},
		{
			name:     "code block with language",
			input:    "```mermaid\n{\"tool\": \"mermaid\"}\n```",
			expected: `{"tool": "mermaid"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"title": "Linear Equations"}`,
			expected: `{"title": "Linear Equations"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCleanJSONBlock_PreambleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "As requested, here is the lesson plan:\n{\"title\": \"Fractions\"}",
			expected: `{"title": "Fractions"}`,
		},
		{
			name:     "conversational preamble",
			input:    "Based on the learning objectives provided, I've drafted the assessment. Here's the structured output:\n\n{\"questions\": [], \"topic\": \"geometry\"}",
			expected: `{"questions": [], "topic": "geometry"}`,
		},
		{
			name:     "preamble with multiple sentences",
			input:    "I reviewed the objectives. The unit covers ratios. Here is the result: {\"topics\": [\"ratios\"]}",
			expected: `{"topics": ["ratios"]}`,
		},
		{
			name:     "preamble before JSON array",
			input:    "Here are the questions:\n[\"q1\", \"q2\"]",
			expected: `["q1", "q2"]`,
		},
		{
			name:     "JSON with trailing text",
			input:    "{\"title\": \"Fractions\"}\n\nLet me know if you need anything else!",
			expected: `{"title": "Fractions"}`,
		},
		{
			name:     "nested objects",
			input:    "Output:\n{\"plan\": {\"title\": \"Fractions\"}}",
			expected: `{"plan": {"title": "Fractions"}}`,
		},
		{
			name:     "JSON with escaped quotes",
			input:    "Result: {\"prompt\": \"Solve for \\\"x\\\"\"}",
			expected: `{"prompt": "Solve for \"x\""}`,
		},
		{
			name:     "braces inside string values",
			input:    "Here: {\"source\": \"graph TD { A --> B }\"}",
			expected: `{"source": "graph TD { A --> B }"}`,
		},
		{
			name:     "double-encoded string left alone",
			input:    `"{\"title\": \"Fractions\"}"`,
			expected: `"{\"title\": \"Fractions\"}"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple object",
			input:    `{"kind": "lesson_plan"}`,
			expected: `{"kind": "lesson_plan"}`,
		},
		{
			name:     "nested objects",
			input:    `{"plan": {"title": "Fractions"}}`,
			expected: `{"plan": {"title": "Fractions"}}`,
		},
		{
			name:     "object with array",
			input:    `{"scores": [1, 2, 3]}`,
			expected: `{"scores": [1, 2, 3]}`,
		},
		{
			name:     "object with trailing text",
			input:    `{"kind": "diagram"} and some more text`,
			expected: `{"kind": "diagram"}`,
		},
		{
			name:     "unterminated object",
			input:    `{"kind": "diagram"`,
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "not starting with brace",
			input:    "not json",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONObject(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONObject() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple array",
			input:    `["a", "b", "c"]`,
			expected: `["a", "b", "c"]`,
		},
		{
			name:     "nested arrays",
			input:    `[[1, 2], [3, 4]]`,
			expected: `[[1, 2], [3, 4]]`,
		},
		{
			name:     "array of objects",
			input:    `[{"id": 1}, {"id": 2}]`,
			expected: `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "array with trailing text",
			input:    `[1, 2, 3] extra stuff`,
			expected: `[1, 2, 3]`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "not starting with bracket",
			input:    "not array",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONArray(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONArray() = %q, want %q", result, tt.expected)
			}
		})
	}
}
