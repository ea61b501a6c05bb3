package types

import "fmt"

// Target is one curriculum topic to generate content for. Unit and Topic
// together form the stable item identity used for deterministic document IDs.
type Target struct {
	Unit       string        `json:"unit"`
	Topic      string        `json:"topic"`
	GradeLevel string        `json:"grade_level,omitempty"`
	Objectives []string      `json:"objectives,omitempty"`
	Diagrams   []DiagramSpec `json:"diagrams,omitempty"`
}

// ItemID returns the stable identity of the target's primary content.
func (t Target) ItemID() string {
	return fmt.Sprintf("%s/%s", t.Unit, t.Topic)
}

// DiagramSpec describes one visual sub-artifact requested for a target.
// Hints carry free-form descriptors ("flowchart", "sequence", "er") used by
// the one-shot renderer-tool classification.
type DiagramSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Hints       []string `json:"hints,omitempty"`
}

// RendererTool is the diagram language a spec is classified into.
type RendererTool string

// Renderer tool categories supported by the rendering service.
const (
	ToolMermaid  RendererTool = "mermaid"
	ToolGraphviz RendererTool = "graphviz"
	ToolPlantUML RendererTool = "plantuml"
)
