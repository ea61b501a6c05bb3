package types

import (
	"time"

	"github.com/google/uuid"
)

// Usage accumulates model token and cost accounting for one loop run. Each
// loop owns its accumulator; the scheduler merges them after the loops finish,
// so no usage state is shared across goroutines.
type Usage struct {
	PromptTokens int32   `json:"prompt_tokens"`
	OutputTokens int32   `json:"output_tokens"`
	Calls        int     `json:"calls"`
	CostUSD      float64 `json:"cost_usd"`
}

// Add merges another usage total into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.OutputTokens += other.OutputTokens
	u.Calls += other.Calls
	u.CostUSD += other.CostUSD
}

// ItemOutcome is the manifest entry for one target.
type ItemOutcome struct {
	ItemID   string          `json:"item_id"`
	Action   PlanAction      `json:"action"`
	Status   ItemStatus      `json:"status,omitempty"`
	Attempts []AttemptRecord `json:"attempts,omitempty"`
	Error    string          `json:"error,omitempty"`
	Usage    Usage           `json:"usage"`
	Duration time.Duration   `json:"duration_ns"`
}

// ManifestTotals aggregates per-item outcomes. Planned counts entries that
// never executed: a dry-run manifest records the plan, not failures.
type ManifestTotals struct {
	Targets   int `json:"targets"`
	Skipped   int `json:"skipped"`
	Planned   int `json:"planned,omitempty"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Manifest is the record of one batch run. It is owned exclusively by that
// run, append-only while the run executes, and read-only once written out.
type Manifest struct {
	BatchID    string         `json:"batch_id"`
	Mode       string         `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Items      []ItemOutcome  `json:"items"`
	Totals     ManifestTotals `json:"totals"`
	Usage      Usage          `json:"usage"`
}

// NewManifest starts a manifest for one batch run with a fresh batch ID.
func NewManifest(mode string) *Manifest {
	return &Manifest{
		BatchID:   uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end time and recomputes totals.
func (m *Manifest) Finish() {
	m.FinishedAt = time.Now().UTC()
	m.Recount()
}

// Recount recomputes totals and the merged usage from the item entries.
func (m *Manifest) Recount() {
	m.Totals = ManifestTotals{Targets: len(m.Items)}
	m.Usage = Usage{}
	for _, item := range m.Items {
		m.Usage.Add(item.Usage)
		switch {
		case item.Action == ActionSkip:
			m.Totals.Skipped++
		case item.Status == StatusPassed:
			m.Totals.Succeeded++
		case item.Status == StatusFailed:
			m.Totals.Failed++
		default:
			m.Totals.Planned++
		}
	}
}
