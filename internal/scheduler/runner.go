package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/daniela/lesson-forge/internal/diagram"
	"github.com/daniela/lesson-forge/internal/generation"
	"github.com/daniela/lesson-forge/internal/types"
)

// TargetRunner executes the admitted work for one target. The scheduler owns
// admission and aggregation; the runner owns the loops.
type TargetRunner interface {
	// CheckVisualBatch runs the one-time rendering-service availability
	// check. The scheduler calls it once per batch, before any loop starts,
	// and only when some admitted target carries diagram work.
	CheckVisualBatch(ctx context.Context) error
	// Run drives one target to a terminal outcome. It never panics or
	// returns an error: every failure is folded into the outcome.
	Run(ctx context.Context, target types.Target, action types.PlanAction) types.ItemOutcome
}

// PipelineRunner is the production TargetRunner: the generation attempt loop
// for primary content, the diagram refinement loop for visuals, and
// content-addressed upserts for whatever passed.
type PipelineRunner struct {
	loop        *generation.Loop
	refiner     *diagram.Refiner
	store       ItemStore
	maxAttempts int
}

// NewPipelineRunner wires the production runner.
func NewPipelineRunner(loop *generation.Loop, refiner *diagram.Refiner, itemStore ItemStore, maxAttempts int) *PipelineRunner {
	if maxAttempts <= 0 {
		maxAttempts = generation.DefaultMaxAttempts
	}
	return &PipelineRunner{
		loop:        loop,
		refiner:     refiner,
		store:       itemStore,
		maxAttempts: maxAttempts,
	}
}

// CheckVisualBatch delegates to the refiner's availability probe.
func (r *PipelineRunner) CheckVisualBatch(ctx context.Context) error {
	return r.refiner.CheckAvailability(ctx)
}

// Run generates the target's admitted content. A failed work item marks the
// target FAILED but never stops the target's remaining items, and passed
// items are persisted even when a sibling fails.
func (r *PipelineRunner) Run(ctx context.Context, target types.Target, action types.PlanAction) types.ItemOutcome {
	start := time.Now()
	outcome := types.ItemOutcome{
		ItemID: target.ItemID(),
		Action: action,
	}
	defer func() { outcome.Duration = time.Since(start) }()

	if action == types.ActionSkip {
		return outcome
	}

	var failures []string

	if action == types.ActionFullGenerate {
		for _, kind := range []types.ItemKind{types.KindLessonPlan, types.KindExamQuestions} {
			if msg := r.runPrimary(ctx, target, kind, &outcome); msg != "" {
				failures = append(failures, msg)
			}
		}
	}

	if len(target.Diagrams) > 0 {
		failures = append(failures, r.runDiagrams(ctx, target, &outcome)...)
	}

	if len(failures) > 0 {
		outcome.Status = types.StatusFailed
		outcome.Error = failures[len(failures)-1]
	} else {
		outcome.Status = types.StatusPassed
	}
	return outcome
}

// runPrimary drives one primary work item and persists a pass. Returns a
// failure summary or empty string.
func (r *PipelineRunner) runPrimary(ctx context.Context, target types.Target, kind types.ItemKind, outcome *types.ItemOutcome) string {
	item, err := generation.NewWorkItem(target, kind, r.maxAttempts)
	if err != nil {
		return fmt.Sprintf("%s: %v", kind, err)
	}

	result := r.loop.Run(ctx, item)
	outcome.Usage.Add(result.Usage)
	outcome.Attempts = append(outcome.Attempts, result.Records...)

	if result.Err != nil {
		return result.Err.Error()
	}

	subID := SubLessonPlan
	if kind == types.KindExamQuestions {
		subID = SubExamQuestions
	}
	if _, err := r.store.Upsert(ctx, target.ItemID(), subID, kind, result.Content); err != nil {
		return fmt.Sprintf("%s: persist failed: %v", kind, err)
	}
	return ""
}

// runDiagrams refines the target's diagram specs and persists passes.
func (r *PipelineRunner) runDiagrams(ctx context.Context, target types.Target, outcome *types.ItemOutcome) []string {
	var failures []string
	for _, result := range r.refiner.RefineBatch(ctx, target.Topic, target.Diagrams) {
		outcome.Usage.Add(result.Usage)
		outcome.Attempts = append(outcome.Attempts, result.Records...)

		if result.Err != nil {
			failures = append(failures, result.Err.Error())
			continue
		}

		itemID := target.ItemID()
		if _, err := r.store.Upsert(ctx, itemID, SubDiagramDoc(result.Spec.Name), types.KindDiagram, result.Doc); err != nil {
			failures = append(failures, fmt.Sprintf("diagram %s: persist failed: %v", result.Spec.Name, err))
			continue
		}
		if _, err := r.store.Upsert(ctx, itemID, SubDiagramSVG(result.Spec.Name), types.KindDiagram, result.SVG); err != nil {
			failures = append(failures, fmt.Sprintf("diagram %s: persist failed: %v", result.Spec.Name, err))
		}
	}
	return failures
}
