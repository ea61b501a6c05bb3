// Package types defines the shared domain types for lesson-forge:
// work items, attempt records, critique results, existence classification,
// and the batch execution manifest.
package types

import (
	"encoding/json"
	"time"
)

// ItemKind identifies the kind of content a work item produces.
type ItemKind string

// Supported item kinds
const (
	KindLessonPlan    ItemKind = "lesson_plan"
	KindExamQuestions ItemKind = "exam_questions"
	KindDiagram       ItemKind = "diagram"
)

// ItemStatus is the lifecycle state of a work item.
type ItemStatus string

// Work item lifecycle states. PASSED and FAILED are terminal.
const (
	StatusPending    ItemStatus = "PENDING"
	StatusGenerating ItemStatus = "GENERATING"
	StatusValidating ItemStatus = "VALIDATING"
	StatusCritiquing ItemStatus = "CRITIQUING"
	StatusRevising   ItemStatus = "REVISING"
	StatusPassed     ItemStatus = "PASSED"
	StatusFailed     ItemStatus = "FAILED"
)

// Terminal reports whether the status is a terminal state.
func (s ItemStatus) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// WorkItem is one unit of content to generate and validate. It is created by
// the scheduler (or a direct caller) and mutated only by the loop that owns it;
// no other goroutine touches it while the loop runs.
type WorkItem struct {
	ID          string          `json:"id"`
	Kind        ItemKind        `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	SchemaID    string          `json:"schema_id"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	Status      ItemStatus      `json:"status"`
}

// ValidationIssue is a single structural violation found by schema validation.
type ValidationIssue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ValidationOutcome is the result of validating one generation output against
// its schema. Issues are reported exhaustively in one pass (up to a cap) so a
// single revision round can fix several problems at once.
type ValidationOutcome struct {
	Valid     bool              `json:"valid"`
	Issues    []ValidationIssue `json:"issues,omitempty"`
	Truncated bool              `json:"truncated,omitempty"`
}

// AttemptRecord is the immutable audit entry for one generation attempt.
// Critique is nil when the attempt never reached the critic (schema failure
// or invoker failure).
type AttemptRecord struct {
	Attempt    int                `json:"attempt"`
	Validation *ValidationOutcome `json:"validation,omitempty"`
	Critique   *CritiqueResult    `json:"critique,omitempty"`
	Error      string             `json:"error,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}
