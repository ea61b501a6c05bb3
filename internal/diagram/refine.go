package diagram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/daniela/lesson-forge/internal/critic"
	"github.com/daniela/lesson-forge/internal/generation"
	"github.com/daniela/lesson-forge/internal/llm"
	"github.com/daniela/lesson-forge/internal/prompts"
	"github.com/daniela/lesson-forge/internal/schemas"
	"github.com/daniela/lesson-forge/internal/types"
)

// DefaultMaxIterations bounds the refinement loop per diagram.
const DefaultMaxIterations = 3

// sourceDoc is the validated shape of one generated diagram document.
type sourceDoc struct {
	Name    string `json:"name"`
	Tool    string `json:"tool"`
	Source  string `json:"source"`
	Caption string `json:"caption,omitempty"`
}

// Result is the terminal outcome of refining one diagram. SVG is non-nil
// exactly when the diagram passed.
type Result struct {
	Spec    types.DiagramSpec
	Tool    types.RendererTool
	Doc     json.RawMessage
	SVG     []byte
	Records []types.AttemptRecord
	Usage   types.Usage
	Err     error
}

// Refiner drives the bounded refinement loop for visual artifacts. Tool
// selection happens once per batch in ClassifyBatch before any loop starts;
// OverrideTool is the explicit escape hatch that forces every diagram onto
// one tool instead.
type Refiner struct {
	client        llm.Client
	registry      *schemas.Registry
	critic        *critic.Critic
	renderer      Renderer
	maxIterations int

	// OverrideTool, when set, bypasses classification entirely.
	OverrideTool types.RendererTool
}

// NewRefiner wires a diagram refinement loop. maxIterations of zero selects
// DefaultMaxIterations.
func NewRefiner(client llm.Client, registry *schemas.Registry, c *critic.Critic, renderer Renderer, maxIterations int) *Refiner {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Refiner{
		client:        client,
		registry:      registry,
		critic:        c,
		renderer:      renderer,
		maxIterations: maxIterations,
	}
}

// CheckAvailability is the fail-fast probe run once before a visual batch is
// committed. Item-level retries cannot fix an unreachable renderer, so an
// error here aborts the batch before any model call is spent.
func (r *Refiner) CheckAvailability(ctx context.Context) error {
	return r.renderer.Ping(ctx)
}

// RefineBatch refines every diagram spec for one target. The caller must
// have run CheckAvailability first; per-diagram outcomes are independent and
// a failed diagram never blocks the others.
func (r *Refiner) RefineBatch(ctx context.Context, topic string, specs []types.DiagramSpec) []*Result {
	classifications := ClassifyBatch(specs)
	results := make([]*Result, 0, len(classifications))
	for _, cls := range classifications {
		if r.OverrideTool != "" {
			cls.Tool = r.OverrideTool
		}
		results = append(results, r.refineOne(ctx, topic, cls))
	}
	return results
}

func (r *Refiner) refineOne(ctx context.Context, topic string, cls Classification) *Result {
	result := &Result{Spec: cls.Spec, Tool: cls.Tool}
	dims := critic.DimensionsFor(types.KindDiagram)

	var guidance []string
	var lastFailure string

	for attempt := 1; attempt <= r.maxIterations; attempt++ {
		record := types.AttemptRecord{Attempt: attempt, Timestamp: time.Now().UTC()}

		prompt := buildSourcePrompt(cls, topic, guidance)
		genResult, err := r.client.GenerateJSON(ctx, prompt, llm.TierStandard)
		if genResult != nil {
			result.Usage.Add(genResult.Usage)
		}
		if err != nil {
			record.Error = err.Error()
			lastFailure = fmt.Sprintf("model invocation failed: %v", err)
			result.Records = append(result.Records, record)
			continue
		}

		doc, outcome, perr := r.validateSource(genResult.Content)
		record.Validation = outcome
		if perr != nil || !outcome.Valid {
			lastFailure = "diagram source failed validation"
			guidance = append(guidance, schemas.FormatIssues(outcome)...)
			result.Records = append(result.Records, record)
			continue
		}

		var parsed sourceDoc
		if err := json.Unmarshal(doc, &parsed); err != nil {
			record.Error = err.Error()
			lastFailure = fmt.Sprintf("diagram document unreadable: %v", err)
			result.Records = append(result.Records, record)
			continue
		}

		svg, err := r.renderer.Render(ctx, cls.Tool, parsed.Source)
		if err != nil {
			record.Error = err.Error()
			lastFailure = err.Error()
			if renderErr, ok := err.(*RenderError); ok {
				guidance = append(guidance, fmt.Sprintf("fix the %s source so it renders: %s", renderErr.Tool, renderErr.Detail))
			}
			result.Records = append(result.Records, record)
			continue
		}

		critique, critUsage, err := r.critic.CritiqueWithPrompt(ctx,
			buildCritiquePrompt(cls, parsed.Source, dims), types.KindDiagram, dims)
		result.Usage.Add(critUsage)
		if err != nil {
			record.Error = err.Error()
			lastFailure = err.Error()
			result.Records = append(result.Records, record)
			continue
		}
		record.Critique = critique
		result.Records = append(result.Records, record)

		if critique.Verdict == types.VerdictPass {
			result.Doc = doc
			result.SVG = svg
			return result
		}

		lastFailure = fmt.Sprintf("visual critique scored %.2f below threshold", critique.OverallScore)
		guidance = append(guidance, critique.Guidance...)
	}

	result.Err = &generation.BudgetExhaustedError{
		ItemID:      cls.Spec.Name,
		Attempts:    r.maxIterations,
		LastFailure: lastFailure,
	}
	return result
}

// validateSource normalizes and schema-checks one generated diagram document.
func (r *Refiner) validateSource(raw string) (json.RawMessage, *types.ValidationOutcome, error) {
	doc, err := llm.Normalize(raw)
	if err != nil {
		return nil, &types.ValidationOutcome{
			Valid:  false,
			Issues: []types.ValidationIssue{{Location: "(output)", Message: err.Error()}},
		}, err
	}
	outcome, err := r.registry.Validate(doc, schemas.SchemaDiagramSource)
	if err != nil {
		return nil, &types.ValidationOutcome{
			Valid:  false,
			Issues: []types.ValidationIssue{{Location: "(root)", Message: err.Error()}},
		}, err
	}
	return doc, outcome, nil
}

func buildSourcePrompt(cls Classification, topic string, guidance []string) string {
	template := prompts.MustGet("diagram.json", "diagram-source")
	return prompts.Format(template, map[string]string{
		"Tool":        string(cls.Tool),
		"Name":        cls.Spec.Name,
		"Description": cls.Spec.Description,
		"Topic":       topic,
		"Guidance":    formatGuidance(guidance),
	})
}

func buildCritiquePrompt(cls Classification, source string, dims []string) string {
	template := prompts.MustGet("diagram.json", "critique-diagram")
	return prompts.Format(template, map[string]string{
		"Tool":         string(cls.Tool),
		"Description":  cls.Spec.Description,
		"Source":       source,
		"RenderStatus": "rendered successfully",
		"Dimensions":   strings.Join(dims, ", "),
	})
}

func formatGuidance(guidance []string) string {
	if len(guidance) == 0 {
		return ""
	}
	var lines []string
	for i, g := range guidance {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, g))
	}
	preamble := prompts.MustGet("diagram.json", "revision-preamble")
	return prompts.Format(preamble, map[string]string{
		"Corrections": strings.Join(lines, "\n"),
	})
}
