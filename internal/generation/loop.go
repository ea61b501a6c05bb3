package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daniela/lesson-forge/internal/critic"
	"github.com/daniela/lesson-forge/internal/llm"
	"github.com/daniela/lesson-forge/internal/schemas"
	"github.com/daniela/lesson-forge/internal/types"
)

// DefaultMaxAttempts bounds the generate-validate-critique-revise cycle per
// work item.
const DefaultMaxAttempts = 3

// Critiquer is the quality gate consumed by the loop. *critic.Critic is the
// production implementation.
type Critiquer interface {
	Critique(ctx context.Context, content []byte, kind types.ItemKind, meta critic.Meta) (*types.CritiqueResult, types.Usage, error)
}

// Result is the terminal outcome of one loop run. Content is non-nil exactly
// when the item passed. Records hold the full audit trail, one entry per
// attempt. Usage is the loop's own accumulator; the scheduler merges it.
type Result struct {
	Item    *types.WorkItem
	Content json.RawMessage
	Records []types.AttemptRecord
	Usage   types.Usage
	Err     error
}

// Loop owns the per-item state machine. One Loop value is safe for
// concurrent use; all mutable state lives in the WorkItem and Result, which
// each run owns exclusively.
type Loop struct {
	client      llm.Client
	registry    *schemas.Registry
	critic      Critiquer
	maxAttempts int
}

// NewLoop wires a generation loop. maxAttempts must be positive; zero
// selects DefaultMaxAttempts.
func NewLoop(client llm.Client, registry *schemas.Registry, critiquer Critiquer, maxAttempts int) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loop{
		client:      client,
		registry:    registry,
		critic:      critiquer,
		maxAttempts: maxAttempts,
	}
}

// Run drives one work item to a terminal state. It never returns a Go error:
// every failure is converted into a FAILED item with its audit trail, so one
// item can never abort a batch.
func (l *Loop) Run(ctx context.Context, item *types.WorkItem) *Result {
	result := &Result{Item: item}

	if item.MaxAttempts <= 0 {
		item.MaxAttempts = l.maxAttempts
	}

	spec, err := SpecFor(item.Kind)
	if err != nil {
		return l.fail(result, err.Error())
	}

	target, err := unmarshalTarget(item.Payload)
	if err != nil {
		return l.fail(result, fmt.Sprintf("invalid payload: %v", err))
	}
	meta := critic.Meta{Topic: target.Topic, GradeLevel: target.GradeLevel}

	var guidance []string
	var lastFailure string

	for item.Attempt < item.MaxAttempts {
		item.Status = types.StatusGenerating
		item.Attempt++

		record := types.AttemptRecord{Attempt: item.Attempt, Timestamp: time.Now().UTC()}

		prompt := buildGenerationPrompt(spec, target, guidance)
		genResult, err := l.client.GenerateJSON(ctx, prompt, tierForAttempt(item.Attempt))
		if genResult != nil {
			result.Usage.Add(genResult.Usage)
		}
		if err != nil {
			// A hard invoker failure is a synthetic validation failure: it
			// consumes the attempt and the loop moves on exactly as if the
			// output had failed schema checks.
			invokerErr := &InvokerError{Cause: err}
			record.Validation = syntheticOutcome(invokerErr)
			record.Error = invokerErr.Error()
			lastFailure = invokerErr.Error()
			result.Records = append(result.Records, record)
			if errors.Is(err, context.Canceled) {
				return l.fail(result, lastFailure)
			}
			l.reviseOrFail(item)
			continue
		}

		item.Status = types.StatusValidating

		doc, err := llm.Normalize(genResult.Content)
		if err != nil {
			outcome := syntheticOutcome(err)
			record.Validation = outcome
			lastFailure = (&SchemaError{Outcome: outcome}).Error()
			guidance = append(guidance, schemas.FormatIssues(outcome)...)
			result.Records = append(result.Records, record)
			l.reviseOrFail(item)
			continue
		}

		outcome, err := l.registry.Validate(doc, item.SchemaID)
		if err != nil {
			return l.fail(result, fmt.Sprintf("schema registry error: %v", err))
		}
		record.Validation = outcome

		if !outcome.Valid {
			lastFailure = (&SchemaError{Outcome: outcome}).Error()
			guidance = append(guidance, schemas.FormatIssues(outcome)...)
			result.Records = append(result.Records, record)
			l.reviseOrFail(item)
			continue
		}

		item.Status = types.StatusCritiquing
		critique, critUsage, err := l.critic.Critique(ctx, doc, item.Kind, meta)
		result.Usage.Add(critUsage)
		if err != nil {
			record.Error = err.Error()
			lastFailure = err.Error()
			result.Records = append(result.Records, record)
			l.reviseOrFail(item)
			continue
		}
		record.Critique = critique
		result.Records = append(result.Records, record)

		if critique.Verdict == types.VerdictPass {
			item.Status = types.StatusPassed
			result.Content = doc
			return result
		}

		lastFailure = (&QualityError{Critique: critique}).Error()
		guidance = append(guidance, critique.Guidance...)
		l.reviseOrFail(item)
	}

	item.Status = types.StatusFailed
	result.Err = &BudgetExhaustedError{
		ItemID:      item.ID,
		Attempts:    item.Attempt,
		LastFailure: lastFailure,
	}
	return result
}

// reviseOrFail moves a failed attempt into REVISING while budget remains.
// The terminal FAILED transition happens after the loop exits so the budget
// check lives in exactly one place.
func (l *Loop) reviseOrFail(item *types.WorkItem) {
	if item.Attempt < item.MaxAttempts {
		item.Status = types.StatusRevising
	}
}

// fail marks the item FAILED for a non-attempt error (bad payload, missing
// schema, cancellation).
func (l *Loop) fail(result *Result, summary string) *Result {
	result.Item.Status = types.StatusFailed
	result.Err = &BudgetExhaustedError{
		ItemID:      result.Item.ID,
		Attempts:    result.Item.Attempt,
		LastFailure: summary,
	}
	return result
}

// tierForAttempt selects the model tier: standard for the first pass,
// advanced once revision guidance is in play.
func tierForAttempt(attempt int) llm.ModelTier {
	if attempt > 1 {
		return llm.TierAdvanced
	}
	return llm.TierStandard
}

// syntheticOutcome wraps a non-schema failure as a validation outcome so the
// audit trail has a uniform shape.
func syntheticOutcome(err error) *types.ValidationOutcome {
	return &types.ValidationOutcome{
		Valid:  false,
		Issues: []types.ValidationIssue{{Location: "(output)", Message: err.Error()}},
	}
}

func unmarshalTarget(payload json.RawMessage) (types.Target, error) {
	var target types.Target
	if err := json.Unmarshal(payload, &target); err != nil {
		return types.Target{}, err
	}
	if target.Unit == "" || target.Topic == "" {
		return types.Target{}, fmt.Errorf("payload missing unit or topic")
	}
	return target, nil
}

func marshalTarget(target types.Target) (json.RawMessage, error) {
	data, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal target: %w", err)
	}
	return data, nil
}
