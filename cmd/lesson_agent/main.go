// Package main provides the entry point for the lesson-forge CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lesson_agent",
	Short: "Batch curriculum content generator",
	Long:  "lesson_agent generates schema-validated lesson plans, exam question sets, and concept diagrams for curriculum targets, revising each artifact against an LLM quality critic until it passes or its attempt budget runs out.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
