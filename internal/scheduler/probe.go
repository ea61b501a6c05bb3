// Package scheduler classifies curriculum targets against persisted state,
// plans the batch, and fans targets out to generation loops under admission
// control, aggregating per-item outcomes into an execution manifest.
package scheduler

import (
	"context"
	"fmt"

	"github.com/daniela/lesson-forge/internal/store"
	"github.com/daniela/lesson-forge/internal/types"
)

// Sub-item IDs for a target's persisted documents.
const (
	SubLessonPlan    = "lesson_plan"
	SubExamQuestions = "exam_questions"
)

// SubDiagramDoc is the sub-item ID of a diagram's source document.
func SubDiagramDoc(name string) string {
	return "diagram/" + name
}

// SubDiagramSVG is the sub-item ID of a diagram's rendered image.
func SubDiagramSVG(name string) string {
	return "diagram/" + name + "/svg"
}

// ItemStore is the persistence surface the scheduler consumes.
// *store.Store is the production implementation.
type ItemStore interface {
	SubItems(ctx context.Context, itemID string) (map[string]types.ItemKind, error)
	DeleteItem(ctx context.Context, itemID string) (int64, error)
	Upsert(ctx context.Context, itemID, subItemID string, kind types.ItemKind, content []byte) (store.UpsertResult, error)
}

// Probe classifies one target against persisted state. It is a pure read:
// the same persisted state and force flag always classify the same way, and
// nothing is cached between calls.
type Probe struct {
	store ItemStore
	force bool
}

// NewProbe creates an existence probe. force short-circuits every target to
// ABSENT regardless of persisted state.
func NewProbe(itemStore ItemStore, force bool) *Probe {
	return &Probe{store: itemStore, force: force}
}

// Classify computes the tri-state decision for a target. Precedence: the
// force flag wins outright; otherwise missing primary content means ABSENT,
// primary present with missing diagram artifacts means PARTIAL, and a fully
// persisted target is COMPLETE.
func (p *Probe) Classify(ctx context.Context, target types.Target) (types.ExistenceClassification, error) {
	if p.force {
		return types.ExistenceClassification{State: types.StateAbsent, Forced: true}, nil
	}

	subItems, err := p.store.SubItems(ctx, target.ItemID())
	if err != nil {
		return types.ExistenceClassification{}, fmt.Errorf("existence probe failed for %s: %w", target.ItemID(), err)
	}

	_, hasPlan := subItems[SubLessonPlan]
	_, hasExam := subItems[SubExamQuestions]
	hasPrimary := hasPlan && hasExam

	hasDiagrams := true
	for _, spec := range target.Diagrams {
		if _, ok := subItems[SubDiagramSVG(spec.Name)]; !ok {
			hasDiagrams = false
			break
		}
	}

	cls := types.ExistenceClassification{
		HasPrimary:  hasPrimary,
		HasDiagrams: hasDiagrams,
	}
	switch {
	case !hasPrimary:
		cls.State = types.StateAbsent
	case !hasDiagrams:
		cls.State = types.StatePartial
	default:
		cls.State = types.StateComplete
	}
	return cls, nil
}
