// Package critic implements the LLM quality gate for generated content.
// Content that passed schema validation is scored across a fixed dimension
// set per item kind; the overall score is the unweighted mean and the verdict
// follows directly from the shared pass threshold.
package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daniela/lesson-forge/internal/llm"
	"github.com/daniela/lesson-forge/internal/prompts"
	"github.com/daniela/lesson-forge/internal/types"
)

// PassThreshold is the single shared quality bar. It is deliberately not
// overridable per item: every kind passes or revises against the same line.
const PassThreshold = 0.7

// dimensionsByKind fixes the rubric per item kind. Resolved here once, never
// inspected at runtime from content.
var dimensionsByKind = map[types.ItemKind][]string{
	types.KindLessonPlan:    {"accuracy", "age_appropriateness", "completeness", "engagement", "clarity"},
	types.KindExamQuestions: {"accuracy", "coverage", "difficulty_balance", "clarity"},
	types.KindDiagram:       {"accuracy", "readability", "layout", "labeling"},
}

var kindLabels = map[types.ItemKind]string{
	types.KindLessonPlan:    "lesson plan",
	types.KindExamQuestions: "exam question set",
	types.KindDiagram:       "diagram",
}

// DimensionsFor returns the fixed dimension set for a kind.
func DimensionsFor(kind types.ItemKind) []string {
	return dimensionsByKind[kind]
}

// Meta carries the target context the critique prompt needs.
type Meta struct {
	Topic      string
	GradeLevel string
}

// criticResponse is the expected JSON shape of the critique call.
type criticResponse struct {
	DimensionScores map[string]float64 `json:"dimension_scores"`
	Guidance        []string           `json:"guidance"`
}

// Critic scores validated content via an LLM call.
type Critic struct {
	client llm.Client
}

// New creates a Critic on top of an LLM client.
func New(client llm.Client) *Critic {
	return &Critic{client: client}
}

// Critique scores content for a kind and returns the verdict. A response
// that demands revision without guidance, or that skips a dimension,
// violates the critic contract; the call is retried once at this boundary
// and only then surfaced as an error, so a malformed critique never reaches
// the generation loop.
func (c *Critic) Critique(ctx context.Context, content []byte, kind types.ItemKind, meta Meta) (*types.CritiqueResult, types.Usage, error) {
	dims, ok := dimensionsByKind[kind]
	if !ok {
		return nil, types.Usage{}, fmt.Errorf("no critic dimensions registered for kind %q", kind)
	}
	return c.CritiqueWithPrompt(ctx, buildCritiquePrompt(content, kind, dims, meta), kind, dims)
}

// CritiqueWithPrompt runs the contract-checked critique call for a caller
// that assembled its own rubric prompt (the diagram refinement loop does).
// The same retry-once boundary applies.
func (c *Critic) CritiqueWithPrompt(ctx context.Context, prompt string, kind types.ItemKind, dims []string) (*types.CritiqueResult, types.Usage, error) {
	var usage types.Usage
	var lastErr error
	for call := 0; call < 2; call++ {
		result, err := c.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
		if err != nil {
			return nil, usage, fmt.Errorf("critique generation failed: %w", err)
		}
		usage.Add(result.Usage)

		critique, err := parseCritique(result.Content, dims)
		if err != nil {
			lastErr = err
			continue
		}
		return critique, usage, nil
	}

	return nil, usage, &ContractError{Kind: kind, Cause: lastErr}
}

// parseCritique decodes and checks the critic response against its contract.
func parseCritique(raw string, dims []string) (*types.CritiqueResult, error) {
	var resp criticResponse
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse critique response: %w (content: %s)", err, raw)
	}

	scores := make(map[string]float64, len(dims))
	var sum float64
	for _, dim := range dims {
		score, ok := resp.DimensionScores[dim]
		if !ok {
			return nil, fmt.Errorf("critique response missing dimension %q", dim)
		}
		scores[dim] = clampScore(score)
		sum += scores[dim]
	}

	overall := sum / float64(len(dims))

	verdict := types.VerdictRevise
	if overall >= PassThreshold {
		verdict = types.VerdictPass
	}

	guidance := trimGuidance(resp.Guidance)
	if verdict == types.VerdictRevise && len(guidance) == 0 {
		return nil, fmt.Errorf("critique demands revision but carries no guidance")
	}
	if verdict == types.VerdictPass {
		guidance = nil
	}

	return &types.CritiqueResult{
		Verdict:         verdict,
		OverallScore:    overall,
		DimensionScores: scores,
		Guidance:        guidance,
	}, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func trimGuidance(guidance []string) []string {
	out := make([]string, 0, len(guidance))
	for _, g := range guidance {
		if s := strings.TrimSpace(g); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func buildCritiquePrompt(content []byte, kind types.ItemKind, dims []string, meta Meta) string {
	template := prompts.MustGet("critic.json", "critique-content")
	return prompts.Format(template, map[string]string{
		"KindLabel":  kindLabels[kind],
		"Dimensions": strings.Join(dims, ", "),
		"Topic":      meta.Topic,
		"GradeLevel": meta.GradeLevel,
		"Content":    string(content),
	})
}
