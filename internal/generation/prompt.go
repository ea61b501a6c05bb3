package generation

import (
	"fmt"
	"strings"

	"github.com/daniela/lesson-forge/internal/prompts"
	"github.com/daniela/lesson-forge/internal/types"
)

// buildGenerationPrompt assembles the kind's template with target fields and,
// on revision attempts, the accumulated correction list. Corrections keep
// their arrival order: earlier guidance gates later attempts.
func buildGenerationPrompt(spec KindSpec, target types.Target, guidance []string) string {
	objectives := "- (not specified)"
	if len(target.Objectives) > 0 {
		var lines []string
		for _, obj := range target.Objectives {
			lines = append(lines, "- "+obj)
		}
		objectives = strings.Join(lines, "\n")
	}

	gradeLevel := target.GradeLevel
	if gradeLevel == "" {
		gradeLevel = "not specified"
	}

	template := prompts.MustGet(spec.PromptFile, spec.PromptKey)
	return prompts.Format(template, map[string]string{
		"Unit":       target.Unit,
		"Topic":      target.Topic,
		"GradeLevel": gradeLevel,
		"Objectives": objectives,
		"Guidance":   formatGuidance(spec.PromptFile, guidance),
	})
}

// formatGuidance renders accumulated corrections through the revision
// preamble, or an empty string on the first attempt.
func formatGuidance(promptFile string, guidance []string) string {
	if len(guidance) == 0 {
		return ""
	}
	var lines []string
	for i, g := range guidance {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, g))
	}
	preamble := prompts.MustGet(promptFile, "revision-preamble")
	return prompts.Format(preamble, map[string]string{
		"Corrections": strings.Join(lines, "\n"),
	})
}
