package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/daniela/lesson-forge/internal/types"
)

// DefaultConcurrency bounds concurrently-running loop instances. Sized to
// respect the model API's rate limits, not CPU.
const DefaultConcurrency = 3

// Mode selects between planning only and full execution.
type Mode string

// Scheduler modes
const (
	ModeDryRun  Mode = "dry_run"
	ModeExecute Mode = "execute"
)

// PlanEntry is the probe's decision for one target.
type PlanEntry struct {
	Target         types.Target
	Classification types.ExistenceClassification
	Action         types.PlanAction
}

// Plan is the full classification pass over a batch, computed sequentially
// before any concurrent execution starts so "decide what to do" can never
// race "do it".
type Plan struct {
	Entries []PlanEntry
}

// Scheduler fans targets out to loop instances under admission control.
type Scheduler struct {
	store       ItemStore
	probe       *Probe
	runner      TargetRunner
	concurrency int
	force       bool
}

// New wires a batch scheduler. concurrency of zero selects
// DefaultConcurrency.
func New(itemStore ItemStore, runner TargetRunner, concurrency int, force bool) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{
		store:       itemStore,
		probe:       NewProbe(itemStore, force),
		runner:      runner,
		concurrency: concurrency,
		force:       force,
	}
}

// BuildPlan classifies every target sequentially and assigns plan actions.
func (s *Scheduler) BuildPlan(ctx context.Context, targets []types.Target) (*Plan, error) {
	plan := &Plan{Entries: make([]PlanEntry, 0, len(targets))}
	for _, target := range targets {
		cls, err := s.probe.Classify(ctx, target)
		if err != nil {
			return nil, err
		}
		plan.Entries = append(plan.Entries, PlanEntry{
			Target:         target,
			Classification: cls,
			Action:         types.ActionFor(cls),
		})
	}
	return plan, nil
}

// Run executes a batch. The classification pass always runs first and in
// full; dry_run stops after the plan. In execute mode, targets are admitted
// into loop instances bounded by the concurrency limit, each target's
// outcome is independent, and the manifest collects every outcome: the batch
// itself never fails because an item did.
func (s *Scheduler) Run(ctx context.Context, targets []types.Target, mode Mode) (*types.Manifest, error) {
	plan, err := s.BuildPlan(ctx, targets)
	if err != nil {
		return nil, err
	}
	return s.RunPlan(ctx, plan, mode), nil
}

// RunPlan executes an already-built plan. Callers that printed or persisted
// the plan reuse it here instead of classifying twice.
func (s *Scheduler) RunPlan(ctx context.Context, plan *Plan, mode Mode) *types.Manifest {
	manifest := types.NewManifest(string(mode))

	if mode == ModeDryRun {
		for _, entry := range plan.Entries {
			manifest.Items = append(manifest.Items, types.ItemOutcome{
				ItemID: entry.Target.ItemID(),
				Action: entry.Action,
			})
		}
		manifest.Finish()
		return manifest
	}

	// One availability check for the whole visual batch. When it fails,
	// every target with diagram work fails fast instead of discovering the
	// outage once per item.
	var visualErr error
	if planNeedsDiagrams(plan) {
		visualErr = s.runner.CheckVisualBatch(ctx)
	}

	outcomes := make([]types.ItemOutcome, len(plan.Entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range plan.Entries {
		i, entry := i, entry
		g.Go(func() error {
			outcomes[i] = s.runTarget(gctx, entry, visualErr)
			// Item failures are recorded, never returned: one failed item
			// must not cancel the group.
			return nil
		})
	}
	_ = g.Wait()

	manifest.Items = outcomes
	manifest.Finish()
	return manifest
}

// runTarget executes one plan entry, handling skip, forced deletion, and a
// failed visual-batch check.
func (s *Scheduler) runTarget(ctx context.Context, entry PlanEntry, visualErr error) types.ItemOutcome {
	itemID := entry.Target.ItemID()

	if entry.Action == types.ActionSkip {
		return types.ItemOutcome{ItemID: itemID, Action: types.ActionSkip}
	}

	if visualErr != nil && len(entry.Target.Diagrams) > 0 {
		return types.ItemOutcome{
			ItemID: itemID,
			Action: entry.Action,
			Status: types.StatusFailed,
			Error:  visualErr.Error(),
		}
	}

	if entry.Classification.Forced {
		if _, err := s.store.DeleteItem(ctx, itemID); err != nil {
			return types.ItemOutcome{
				ItemID: itemID,
				Action: entry.Action,
				Status: types.StatusFailed,
				Error:  fmt.Sprintf("forced regeneration: failed to delete existing artifacts: %v", err),
			}
		}
	}

	return s.runner.Run(ctx, entry.Target, entry.Action)
}

// planNeedsDiagrams reports whether any admitted entry carries diagram work.
func planNeedsDiagrams(plan *Plan) bool {
	for _, entry := range plan.Entries {
		if entry.Action != types.ActionSkip && len(entry.Target.Diagrams) > 0 {
			return true
		}
	}
	return false
}
