// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock isolates the JSON document in a model response. It removes
// markdown code fences and strips conversational preamble or trailing text
// around the first complete JSON object or array. LLMs wrap JSON in
// ```json ... ``` blocks and chatty framing even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			// If first line looks like a language identifier (no spaces, short), skip it
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return extractJSON(text)
}

// extractJSON trims text surrounding the first complete JSON object or array.
// Text starting with a quote is left alone so double-encoded documents
// (a JSON string containing JSON) survive untouched. When no complete
// document is found, the input is returned unchanged and the caller's JSON
// parse reports the failure.
func extractJSON(text string) string {
	if text == "" || strings.HasPrefix(text, `"`) {
		return text
	}

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")

	var extracted string
	switch {
	case objIdx >= 0 && (arrIdx < 0 || objIdx < arrIdx):
		extracted = extractJSONObject(text[objIdx:])
	case arrIdx >= 0:
		extracted = extractJSONArray(text[arrIdx:])
	default:
		return text
	}

	if extracted == "" {
		return text
	}
	return extracted
}

// extractJSONObject returns the balanced object at the start of text, or ""
// if text does not begin with one.
func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// extractJSONArray returns the balanced array at the start of text, or ""
// if text does not begin with one.
func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// extractBalanced scans for the matching close delimiter, ignoring
// delimiters inside string literals and honoring backslash escapes.
func extractBalanced(text string, open, close byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Delimiters inside strings are literal text.
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
