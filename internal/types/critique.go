package types

// Verdict is the critic's decision for one piece of generated content.
type Verdict string

// Critic verdicts
const (
	VerdictPass   Verdict = "PASS"
	VerdictRevise Verdict = "REVISE"
)

// CritiqueResult holds the critic's scoring of generated content across a
// fixed dimension set. OverallScore is the unweighted mean of the dimension
// scores; Verdict is PASS exactly when OverallScore meets the shared pass
// threshold. A REVISE verdict always carries non-empty Guidance.
type CritiqueResult struct {
	Verdict         Verdict            `json:"verdict"`
	OverallScore    float64            `json:"overall_score"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	Guidance        []string           `json:"guidance,omitempty"`
}
