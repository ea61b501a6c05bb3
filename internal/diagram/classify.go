package diagram

import (
	"strings"

	"github.com/daniela/lesson-forge/internal/types"
)

// Classification pairs a diagram spec with its renderer tool.
type Classification struct {
	Spec types.DiagramSpec
	Tool types.RendererTool
}

// toolKeywords maps hint keywords to renderer tools, checked in declaration
// order. Explicit tool names win over category words.
var toolKeywords = []struct {
	keyword string
	tool    types.RendererTool
}{
	{"mermaid", types.ToolMermaid},
	{"graphviz", types.ToolGraphviz},
	{"dot", types.ToolGraphviz},
	{"plantuml", types.ToolPlantUML},
	{"uml", types.ToolPlantUML},
	{"component", types.ToolPlantUML},
	{"deployment", types.ToolPlantUML},
	{"use case", types.ToolPlantUML},
	{"network", types.ToolGraphviz},
	{"dependency", types.ToolGraphviz},
	{"tree", types.ToolGraphviz},
	{"graph", types.ToolGraphviz},
	{"flowchart", types.ToolMermaid},
	{"sequence", types.ToolMermaid},
	{"state", types.ToolMermaid},
	{"timeline", types.ToolMermaid},
}

// ClassifyBatch assigns a renderer tool to every diagram spec in one
// deterministic pass over the hints already present on each spec. No model
// call, no iteration: the same specs always classify the same way. Tool
// switching mid-refinement happens only through Refiner's explicit override.
func ClassifyBatch(specs []types.DiagramSpec) []Classification {
	out := make([]Classification, 0, len(specs))
	for _, spec := range specs {
		out = append(out, Classification{Spec: spec, Tool: classifyOne(spec)})
	}
	return out
}

func classifyOne(spec types.DiagramSpec) types.RendererTool {
	haystack := strings.ToLower(strings.Join(spec.Hints, " ") + " " + spec.Description)
	for _, entry := range toolKeywords {
		if strings.Contains(haystack, entry.keyword) {
			return entry.tool
		}
	}
	// Mermaid renders the widest range of classroom diagrams.
	return types.ToolMermaid
}
