// Package schemas provides JSON Schema validation for generated content.
// Schemas are embedded at compile time and resolved once into a registry;
// validation reports every structural violation in one pass so a single
// revision round can address several problems at once.
package schemas

import (
	"embed"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/daniela/lesson-forge/internal/types"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// MaxReportedIssues caps how many violations a single outcome carries. The
// outcome is marked truncated when the cap is hit.
const MaxReportedIssues = 10

// Schema IDs registered at construction. SchemaID strings are referenced by
// work items and resolved through the registry, never by file path.
const (
	SchemaLessonPlan    = "lesson_plan"
	SchemaExamQuestions = "exam_questions"
	SchemaDiagramSource = "diagram_source"
)

var schemaFileByID = map[string]string{
	SchemaLessonPlan:    "lesson_plan.schema.json",
	SchemaExamQuestions: "exam_questions.schema.json",
	SchemaDiagramSource: "diagram_source.schema.json",
}

// SchemaLoadError represents errors loading or parsing a schema itself.
type SchemaLoadError struct {
	SchemaID string
	Message  string
	Cause    error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.SchemaID, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.SchemaID, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Registry holds compiled schemas keyed by schema ID. Compilation happens
// once in NewRegistry; Validate is pure and safe for concurrent use.
type Registry struct {
	schemas map[string]*gojsonschema.Schema
}

// NewRegistry compiles all embedded schemas.
func NewRegistry() (*Registry, error) {
	compiled := make(map[string]*gojsonschema.Schema, len(schemaFileByID))
	for id, filename := range schemaFileByID {
		data, err := schemaFiles.ReadFile(filename)
		if err != nil {
			return nil, &SchemaLoadError{SchemaID: id, Message: "embedded schema missing", Cause: err}
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, &SchemaLoadError{SchemaID: id, Message: "schema failed to compile", Cause: err}
		}
		compiled[id] = schema
	}
	return &Registry{schemas: compiled}, nil
}

// SchemaIDs returns the registered schema IDs in sorted order.
func (r *Registry) SchemaIDs() []string {
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks a raw JSON document against the schema registered under
// schemaID. Structural violations are collected exhaustively, capped at
// MaxReportedIssues with a truncation marker. A malformed document (not
// valid JSON at all) is reported as a single root-level issue rather than an
// error: the revision loop treats both the same way.
func (r *Registry) Validate(raw []byte, schemaID string) (*types.ValidationOutcome, error) {
	schema, ok := r.schemas[schemaID]
	if !ok {
		return nil, &SchemaLoadError{SchemaID: schemaID, Message: "schema not registered"}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &types.ValidationOutcome{
			Valid:  false,
			Issues: []types.ValidationIssue{{Location: "(root)", Message: fmt.Sprintf("document is not valid JSON: %v", err)}},
		}, nil
	}

	if result.Valid() {
		return &types.ValidationOutcome{Valid: true}, nil
	}

	outcome := &types.ValidationOutcome{Valid: false}
	for _, desc := range result.Errors() {
		if len(outcome.Issues) >= MaxReportedIssues {
			outcome.Truncated = true
			break
		}
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		outcome.Issues = append(outcome.Issues, types.ValidationIssue{
			Location: field,
			Message:  desc.Description(),
		})
	}

	return outcome, nil
}

// FormatIssues renders an outcome's issues as numbered revision guidance
// lines, one per violation, with a trailing note when truncated.
func FormatIssues(outcome *types.ValidationOutcome) []string {
	if outcome == nil || outcome.Valid {
		return nil
	}
	lines := make([]string, 0, len(outcome.Issues)+1)
	for i, issue := range outcome.Issues {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, issue.Location, issue.Message))
	}
	if outcome.Truncated {
		lines = append(lines, fmt.Sprintf("(additional violations beyond the first %d were omitted)", MaxReportedIssues))
	}
	return lines
}
