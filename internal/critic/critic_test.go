package critic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniela/lesson-forge/internal/llm"
	"github.com/daniela/lesson-forge/internal/types"
)

// scriptedClient returns canned responses in order, recording every call.
type scriptedClient struct {
	responses []string
	err       error
	calls     int
	tiers     []llm.ModelTier
	prompts   []string
}

func (c *scriptedClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (*llm.Result, error) {
	c.tiers = append(c.tiers, tier)
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return nil, c.err
	}
	idx := c.calls
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	c.calls++
	return &llm.Result{
		Content: c.responses[idx],
		Usage:   types.Usage{Calls: 1, PromptTokens: 100, OutputTokens: 50},
	}, nil
}

func (c *scriptedClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (*llm.Result, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error                  { return nil }

func TestCritique_Pass(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.9, "age_appropriateness": 0.8, "completeness": 0.8, "engagement": 0.7, "clarity": 0.9}, "guidance": []}`,
	}}
	c := New(client)

	result, usage, err := c.Critique(context.Background(), []byte(`{"title":"Fractions"}`), types.KindLessonPlan, Meta{Topic: "fractions", GradeLevel: "4"})
	require.NoError(t, err)

	assert.Equal(t, types.VerdictPass, result.Verdict)
	assert.InDelta(t, 0.82, result.OverallScore, 1e-9)
	assert.Empty(t, result.Guidance)
	assert.Equal(t, 1, usage.Calls)
	assert.Equal(t, []llm.ModelTier{llm.TierAdvanced}, client.tiers)
}

func TestCritique_Revise(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.9, "coverage": 0.3, "difficulty_balance": 0.5, "clarity": 0.6}, "guidance": ["add questions covering the second objective"]}`,
	}}
	c := New(client)

	result, _, err := c.Critique(context.Background(), []byte(`{}`), types.KindExamQuestions, Meta{})
	require.NoError(t, err)

	assert.Equal(t, types.VerdictRevise, result.Verdict)
	assert.InDelta(t, 0.575, result.OverallScore, 1e-9)
	assert.Equal(t, []string{"add questions covering the second objective"}, result.Guidance)
}

func TestCritique_OverallScoreIsUnweightedMean(t *testing.T) {
	// Verdict flips exactly at the threshold: mean 0.7 passes.
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.7, "readability": 0.7, "layout": 0.7, "labeling": 0.7}, "guidance": []}`,
	}}
	c := New(client)

	result, _, err := c.Critique(context.Background(), []byte(`{}`), types.KindDiagram, Meta{})
	require.NoError(t, err)

	assert.Equal(t, types.VerdictPass, result.Verdict)
	assert.InDelta(t, 0.7, result.OverallScore, 1e-9)
}

func TestCritique_ClampsOutOfRangeScores(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 1.8, "readability": -0.5, "layout": 1.0, "labeling": 1.0}, "guidance": ["redraw the legend"]}`,
	}}
	c := New(client)

	result, _, err := c.Critique(context.Background(), []byte(`{}`), types.KindDiagram, Meta{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.DimensionScores["accuracy"])
	assert.Equal(t, 0.0, result.DimensionScores["readability"])
	assert.InDelta(t, 0.75, result.OverallScore, 1e-9)
}

func TestCritique_ReviseWithoutGuidance_RetriesOnce(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.2, "readability": 0.2, "layout": 0.2, "labeling": 0.2}, "guidance": []}`,
		`{"dimension_scores": {"accuracy": 0.2, "readability": 0.2, "layout": 0.2, "labeling": 0.2}, "guidance": ["label both axes"]}`,
	}}
	c := New(client)

	result, usage, err := c.Critique(context.Background(), []byte(`{}`), types.KindDiagram, Meta{})
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 2, usage.Calls)
	assert.Equal(t, types.VerdictRevise, result.Verdict)
	assert.Equal(t, []string{"label both axes"}, result.Guidance)
}

func TestCritique_ContractViolatedTwice(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.2, "readability": 0.2, "layout": 0.2, "labeling": 0.2}, "guidance": ["  "]}`,
	}}
	c := New(client)

	_, usage, err := c.Critique(context.Background(), []byte(`{}`), types.KindDiagram, Meta{})
	require.Error(t, err)

	var contractErr *ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, types.KindDiagram, contractErr.Kind)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 2, usage.Calls)
}

func TestCritique_MissingDimension(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.9}, "guidance": []}`,
	}}
	c := New(client)

	_, _, err := c.Critique(context.Background(), []byte(`{}`), types.KindLessonPlan, Meta{})
	require.Error(t, err)

	var contractErr *ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Contains(t, contractErr.Cause.Error(), "missing dimension")
}

func TestCritique_UnparseableResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{`I think it looks fine.`}}
	c := New(client)

	_, _, err := c.Critique(context.Background(), []byte(`{}`), types.KindLessonPlan, Meta{})
	require.Error(t, err)

	var contractErr *ContractError
	assert.ErrorAs(t, err, &contractErr)
}

func TestCritique_ClientError(t *testing.T) {
	wantErr := errors.New("deadline exceeded")
	client := &scriptedClient{err: wantErr}
	c := New(client)

	_, _, err := c.Critique(context.Background(), []byte(`{}`), types.KindLessonPlan, Meta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Len(t, client.tiers, 1)
}

func TestCritique_UnknownKind(t *testing.T) {
	c := New(&scriptedClient{})

	_, _, err := c.Critique(context.Background(), []byte(`{}`), types.ItemKind("worksheet"), Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no critic dimensions")
}

func TestCritique_PromptCarriesRubricAndContext(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"dimension_scores": {"accuracy": 0.9, "age_appropriateness": 0.9, "completeness": 0.9, "engagement": 0.9, "clarity": 0.9}, "guidance": []}`,
	}}
	c := New(client)

	_, _, err := c.Critique(context.Background(), []byte(`{"title":"Fractions"}`), types.KindLessonPlan, Meta{Topic: "fractions", GradeLevel: "4"})
	require.NoError(t, err)

	prompt := client.prompts[0]
	assert.Contains(t, prompt, "lesson plan")
	assert.Contains(t, prompt, "age_appropriateness")
	assert.Contains(t, prompt, "fractions")
	assert.Contains(t, prompt, `{"title":"Fractions"}`)
}

func TestDimensionsFor(t *testing.T) {
	assert.Equal(t,
		[]string{"accuracy", "age_appropriateness", "completeness", "engagement", "clarity"},
		DimensionsFor(types.KindLessonPlan))
	assert.Equal(t,
		[]string{"accuracy", "coverage", "difficulty_balance", "clarity"},
		DimensionsFor(types.KindExamQuestions))
	assert.Nil(t, DimensionsFor(types.ItemKind("worksheet")))
}
