package generation

import (
	"fmt"
	"strings"

	"github.com/daniela/lesson-forge/internal/types"
)

// SchemaError is an attempt failure caused by structural validation. It is
// retried through revision, never surfaced as a loop error on its own.
type SchemaError struct {
	Outcome *types.ValidationOutcome
}

func (e *SchemaError) Error() string {
	n := len(e.Outcome.Issues)
	if e.Outcome.Truncated {
		return fmt.Sprintf("schema validation failed with %d+ violations", n)
	}
	return fmt.Sprintf("schema validation failed with %d violation(s)", n)
}

// QualityError is an attempt failure caused by a REVISE verdict. Retried
// through revision like SchemaError.
type QualityError struct {
	Critique *types.CritiqueResult
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("quality critique scored %.2f below threshold: %s",
		e.Critique.OverallScore, strings.Join(e.Critique.Guidance, "; "))
}

// InvokerError is a model call that failed outright (transport error,
// timeout, or output budget exceeded). It consumes one attempt of the item
// that issued it and nothing else.
type InvokerError struct {
	Cause error
}

func (e *InvokerError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Cause)
}

func (e *InvokerError) Unwrap() error {
	return e.Cause
}

// BudgetExhaustedError is the terminal failure of one item: its attempt
// budget ran out before the content passed. It carries the last failure so
// the manifest entry explains why the item died, and it never escalates
// beyond the item.
type BudgetExhaustedError struct {
	ItemID      string
	Attempts    int
	LastFailure string
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("item %s failed after %d attempt(s): %s", e.ItemID, e.Attempts, e.LastFailure)
}
