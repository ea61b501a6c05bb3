// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/daniela/lesson-forge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxGuidanceToShow is the default number of guidance lines to display
	maxGuidanceToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PlanLine is one target's row in the plan output.
type PlanLine struct {
	ItemID string
	State  types.ExistenceState
	Action types.PlanAction
}

// PrintPlan outputs the batch plan: one line per target with its existence
// classification and assigned action.
func (p *Printer) PrintPlan(lines []PlanLine) {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("%-40s %-9s -> %s\n", line.ItemID, line.State, line.Action))
	}
	p.printBox(fmt.Sprintf("Batch plan (%d targets)", len(lines)), strings.TrimRight(sb.String(), "\n"))
}

// PrintManifest outputs a human-readable summary of a finished batch run.
func (p *Printer) PrintManifest(manifest *types.Manifest) {
	if manifest == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Batch:     %s (%s)\n", manifest.BatchID, manifest.Mode))
	sb.WriteString(fmt.Sprintf("Targets:   %d\n", manifest.Totals.Targets))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", manifest.Totals.Skipped))
	if manifest.Totals.Planned > 0 {
		sb.WriteString(fmt.Sprintf("Planned:   %d\n", manifest.Totals.Planned))
	}
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", manifest.Totals.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", manifest.Totals.Failed))
	sb.WriteString(fmt.Sprintf("Model:     %d calls, %d prompt + %d output tokens, $%.4f\n",
		manifest.Usage.Calls, manifest.Usage.PromptTokens, manifest.Usage.OutputTokens, manifest.Usage.CostUSD))
	sb.WriteString(fmt.Sprintf("Duration:  %s", manifest.FinishedAt.Sub(manifest.StartedAt).Round(1e6)))

	p.printBox("Execution summary", sb.String())

	for _, item := range manifest.Items {
		if item.Status == types.StatusFailed {
			fmt.Fprintf(p.out, "  FAILED %s: %s\n", item.ItemID, item.Error)
		}
	}
}

// PrintAttemptTrail outputs the audit trail of one item's attempts.
func (p *Printer) PrintAttemptTrail(itemID string, records []types.AttemptRecord) {
	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(fmt.Sprintf("Attempt %d:\n", record.Attempt))
		if record.Validation != nil && !record.Validation.Valid {
			for _, issue := range record.Validation.Issues {
				sb.WriteString(fmt.Sprintf("  schema: %s: %s\n", issue.Location, issue.Message))
			}
		}
		if record.Critique != nil {
			sb.WriteString(fmt.Sprintf("  critique: %s (%.2f)\n", record.Critique.Verdict, record.Critique.OverallScore))
			sb.WriteString(formatScores(record.Critique.DimensionScores))
			for i, g := range record.Critique.Guidance {
				if i >= maxGuidanceToShow {
					sb.WriteString(fmt.Sprintf("  ... %d more\n", len(record.Critique.Guidance)-maxGuidanceToShow))
					break
				}
				sb.WriteString(fmt.Sprintf("  revise: %s\n", g))
			}
		}
		if record.Error != "" {
			sb.WriteString(fmt.Sprintf("  error: %s\n", record.Error))
		}
	}
	p.printBox(fmt.Sprintf("Attempts for %s", itemID), strings.TrimRight(sb.String(), "\n"))
}

// formatScores renders dimension scores in a stable order.
func formatScores(scores map[string]float64) string {
	dims := make([]string, 0, len(scores))
	for dim := range scores {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	var sb strings.Builder
	for _, dim := range dims {
		sb.WriteString(fmt.Sprintf("    %-20s %.2f\n", dim, scores[dim]))
	}
	return sb.String()
}
