package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wrapperKeys are the envelope keys some model responses nest the actual
// document under. Only a single-key object with one of these keys is
// unwrapped; anything else is taken as the document itself.
var wrapperKeys = []string{"data", "result", "content", "output"}

// Normalize converts a raw model response into the JSON document that schema
// validation expects. The accepted shapes, tried in order, are:
//
//  1. a JSON object or array, possibly inside a markdown code fence
//  2. a JSON string whose value is itself a JSON document (double encoding)
//  3. a single-key wrapper object {"data"|"result"|"content"|"output": <doc>},
//     where <doc> may again be a JSON-as-string
//
// Any other shape is an error; the caller treats it as a schema failure so
// the revision loop can correct it.
func Normalize(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(CleanJSONBlock(raw))
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	doc, err := decodeDocument([]byte(text))
	if err != nil {
		return nil, err
	}

	// Unwrap one level of envelope. A single unwrap is deliberate: nested
	// envelopes beyond one level have not been observed and silently peeling
	// arbitrary depth would mask malformed output.
	if unwrapped, ok := unwrapEnvelope(doc); ok {
		doc, err = decodeDocument(unwrapped)
		if err != nil {
			return nil, fmt.Errorf("invalid wrapped document: %w", err)
		}
	}

	return doc, nil
}

// decodeDocument parses bytes into a JSON document, resolving one level of
// JSON-as-string double encoding.
func decodeDocument(data []byte) (json.RawMessage, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if s, ok := probe.(string); ok {
		inner := strings.TrimSpace(s)
		var innerProbe any
		if err := json.Unmarshal([]byte(inner), &innerProbe); err != nil {
			return nil, fmt.Errorf("string response does not contain JSON: %w", err)
		}
		if _, isStr := innerProbe.(string); isStr {
			return nil, fmt.Errorf("response is double-wrapped beyond one string level")
		}
		return json.RawMessage(inner), nil
	}

	return json.RawMessage(data), nil
}

// unwrapEnvelope returns the inner value when doc is a single-key object
// keyed by a known wrapper key.
func unwrapEnvelope(doc json.RawMessage) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, false
	}
	if len(obj) != 1 {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if inner, ok := obj[key]; ok {
			return inner, true
		}
	}
	return nil, false
}
