// Package generation drives one work item through the
// generate-validate-critique-revise state machine.
package generation

import (
	"fmt"

	"github.com/daniela/lesson-forge/internal/critic"
	"github.com/daniela/lesson-forge/internal/schemas"
	"github.com/daniela/lesson-forge/internal/types"
)

// KindSpec binds an item kind to its schema, prompt template, and critic
// dimension set. The table is fixed at compile time; dispatch is a map
// lookup, never runtime type inspection of content.
type KindSpec struct {
	SchemaID   string
	PromptFile string
	PromptKey  string
	Dimensions []string
}

var kindSpecs = map[types.ItemKind]KindSpec{
	types.KindLessonPlan: {
		SchemaID:   schemas.SchemaLessonPlan,
		PromptFile: "generation.json",
		PromptKey:  "lesson-plan",
		Dimensions: critic.DimensionsFor(types.KindLessonPlan),
	},
	types.KindExamQuestions: {
		SchemaID:   schemas.SchemaExamQuestions,
		PromptFile: "generation.json",
		PromptKey:  "exam-questions",
		Dimensions: critic.DimensionsFor(types.KindExamQuestions),
	},
}

// SpecFor resolves the kind table entry for a kind handled by this loop.
// Diagrams have their own refinement loop and are not listed here.
func SpecFor(kind types.ItemKind) (KindSpec, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return KindSpec{}, fmt.Errorf("no generation spec registered for kind %q", kind)
	}
	return spec, nil
}

// NewWorkItem builds a pending work item for a target and kind.
func NewWorkItem(target types.Target, kind types.ItemKind, maxAttempts int) (*types.WorkItem, error) {
	spec, err := SpecFor(kind)
	if err != nil {
		return nil, err
	}
	payload, err := marshalTarget(target)
	if err != nil {
		return nil, err
	}
	return &types.WorkItem{
		ID:          fmt.Sprintf("%s/%s", target.ItemID(), kind),
		Kind:        kind,
		Payload:     payload,
		SchemaID:    spec.SchemaID,
		MaxAttempts: maxAttempts,
		Status:      types.StatusPending,
	}, nil
}
