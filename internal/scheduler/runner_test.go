package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniela/lesson-forge/internal/critic"
	"github.com/daniela/lesson-forge/internal/diagram"
	"github.com/daniela/lesson-forge/internal/generation"
	"github.com/daniela/lesson-forge/internal/llm"
	"github.com/daniela/lesson-forge/internal/schemas"
	"github.com/daniela/lesson-forge/internal/types"
)

const runnerLessonPlanJSON = `{
	"title": "The Water Cycle",
	"grade_level": "5",
	"duration_minutes": 45,
	"objectives": ["name the stages of the water cycle"],
	"sections": [
		{"heading": "Warm-up", "minutes": 10, "activities": ["cloud observation"]},
		{"heading": "Main lesson", "minutes": 25, "activities": ["label a cycle poster"]}
	],
	"materials": ["cycle poster"]
}`

const runnerExamJSON = `{
	"topic": "the water cycle",
	"questions": [
		{"id": "q1", "type": "multiple_choice", "prompt": "Which stage turns liquid water into vapor?", "choices": ["Evaporation", "Condensation"], "answer": "Evaporation", "difficulty": "easy"},
		{"id": "q2", "type": "short_answer", "prompt": "Describe what happens during condensation.", "answer": "Water vapor cools into droplets", "difficulty": "medium"},
		{"id": "q3", "type": "true_false", "prompt": "Precipitation only ever falls as rain.", "answer": "false", "difficulty": "easy"}
	]
}`

const runnerDiagramJSON = `{"name": "cycle-stages", "tool": "mermaid", "source": "graph TD\n  A[Evaporation] --> B[Condensation]"}`

const lessonPlanPassJSON = `{"dimension_scores": {"accuracy": 0.9, "age_appropriateness": 0.9, "completeness": 0.9, "engagement": 0.9, "clarity": 0.9}, "guidance": []}`

const examPassJSON = `{"dimension_scores": {"accuracy": 0.9, "coverage": 0.9, "difficulty_balance": 0.9, "clarity": 0.9}, "guidance": []}`

const diagramPassJSON = `{"dimension_scores": {"accuracy": 0.9, "readability": 0.9, "layout": 0.9, "labeling": 0.9}, "guidance": []}`

type runnerClientStep struct {
	content string
	err     error
}

// runnerClient replays one canned response per call across the whole
// pipeline, generation and critique alike.
type runnerClient struct {
	steps []runnerClientStep
	calls int
}

func (c *runnerClient) GenerateJSON(_ context.Context, _ string, _ llm.ModelTier) (*llm.Result, error) {
	idx := c.calls
	if idx >= len(c.steps) {
		idx = len(c.steps) - 1
	}
	c.calls++

	step := c.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	return &llm.Result{
		Content: step.content,
		Usage:   types.Usage{Calls: 1, PromptTokens: 100, OutputTokens: 200},
	}, nil
}

func (c *runnerClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (*llm.Result, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *runnerClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *runnerClient) Close() error                  { return nil }

type stubRenderer struct {
	pingErr error
}

func (r *stubRenderer) Ping(context.Context) error { return r.pingErr }

func (r *stubRenderer) Render(context.Context, types.RendererTool, string) ([]byte, error) {
	return []byte("<svg/>"), nil
}

func newTestRunner(t *testing.T, client llm.Client, fs *fakeStore, maxAttempts int) *PipelineRunner {
	t.Helper()
	registry, err := schemas.NewRegistry()
	require.NoError(t, err)

	judge := critic.New(client)
	loop := generation.NewLoop(client, registry, judge, maxAttempts)
	refiner := diagram.NewRefiner(client, registry, judge, &stubRenderer{}, 2)
	return NewPipelineRunner(loop, refiner, fs, maxAttempts)
}

func TestPipelineRunner_FullGenerateWithDiagram(t *testing.T) {
	client := &runnerClient{steps: []runnerClientStep{
		{content: runnerLessonPlanJSON},
		{content: lessonPlanPassJSON},
		{content: runnerExamJSON},
		{content: examPassJSON},
		{content: runnerDiagramJSON},
		{content: diagramPassJSON},
	}}
	fs := newFakeStore()
	runner := newTestRunner(t, client, fs, 3)

	outcome := runner.Run(context.Background(), targetWithDiagram(), types.ActionFullGenerate)

	assert.Equal(t, types.StatusPassed, outcome.Status)
	assert.Empty(t, outcome.Error)
	assert.Equal(t, 6, outcome.Usage.Calls)
	assert.Len(t, outcome.Attempts, 3)

	// Both primary documents plus the diagram source and its rendered SVG.
	assert.Equal(t, []string{
		"biology/photosynthesis#lesson_plan",
		"biology/photosynthesis#exam_questions",
		"biology/photosynthesis#" + SubDiagramDoc("light-reactions"),
		"biology/photosynthesis#" + SubDiagramSVG("light-reactions"),
	}, fs.upserts)
}

func TestPipelineRunner_DiagramsOnlySkipsPrimary(t *testing.T) {
	client := &runnerClient{steps: []runnerClientStep{
		{content: runnerDiagramJSON},
		{content: diagramPassJSON},
	}}
	fs := newFakeStore()
	runner := newTestRunner(t, client, fs, 3)

	outcome := runner.Run(context.Background(), targetWithDiagram(), types.ActionDiagramsOnly)

	assert.Equal(t, types.StatusPassed, outcome.Status)
	assert.Equal(t, []string{
		"biology/photosynthesis#" + SubDiagramDoc("light-reactions"),
		"biology/photosynthesis#" + SubDiagramSVG("light-reactions"),
	}, fs.upserts)
}

func TestPipelineRunner_SkipDoesNothing(t *testing.T) {
	client := &runnerClient{}
	fs := newFakeStore()
	runner := newTestRunner(t, client, fs, 3)

	outcome := runner.Run(context.Background(), targetWithDiagram(), types.ActionSkip)

	assert.Empty(t, outcome.Status)
	assert.Zero(t, client.calls)
	assert.Empty(t, fs.upserts)
}

func TestPipelineRunner_SiblingFailureStillPersistsPasses(t *testing.T) {
	// The lesson plan passes, then the exam item burns its single attempt on
	// schema-invalid output.
	client := &runnerClient{steps: []runnerClientStep{
		{content: runnerLessonPlanJSON},
		{content: lessonPlanPassJSON},
		{content: `{"topic": "the water cycle"}`},
	}}
	fs := newFakeStore()
	runner := newTestRunner(t, client, fs, 1)

	target := types.Target{Unit: "biology", Topic: "photosynthesis"}
	outcome := runner.Run(context.Background(), target, types.ActionFullGenerate)

	assert.Equal(t, types.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Error, "failed after 1 attempt(s)")
	assert.Equal(t, []string{"biology/photosynthesis#lesson_plan"}, fs.upserts)
}

func TestPipelineRunner_CheckVisualBatch(t *testing.T) {
	fs := newFakeStore()
	runner := newTestRunner(t, &runnerClient{}, fs, 3)

	assert.NoError(t, runner.CheckVisualBatch(context.Background()))
}
