package types

// ExistenceState classifies a curriculum target against persisted state.
type ExistenceState string

// Tri-state existence classification. ABSENT re-runs the full pipeline,
// PARTIAL re-runs only the diagram stage, COMPLETE skips the target.
const (
	StateAbsent   ExistenceState = "ABSENT"
	StatePartial  ExistenceState = "PARTIAL"
	StateComplete ExistenceState = "COMPLETE"
)

// ExistenceClassification is computed fresh at the start of every run; it is
// never cached across runs.
type ExistenceClassification struct {
	State       ExistenceState `json:"state"`
	HasPrimary  bool           `json:"has_primary"`
	HasDiagrams bool           `json:"has_diagrams"`
	Forced      bool           `json:"forced"`
}

// PlanAction is the scheduler's decision for one target.
type PlanAction string

// Plan actions assigned from the existence classification.
const (
	ActionSkip         PlanAction = "skip"
	ActionFullGenerate PlanAction = "full_generate"
	ActionDiagramsOnly PlanAction = "diagrams_only"
)

// ActionFor maps an existence classification to the plan action.
func ActionFor(c ExistenceClassification) PlanAction {
	switch c.State {
	case StateComplete:
		return ActionSkip
	case StatePartial:
		return ActionDiagramsOnly
	default:
		return ActionFullGenerate
	}
}
