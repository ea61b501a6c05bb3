package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniela/lesson-forge/internal/config"
	"github.com/daniela/lesson-forge/internal/critic"
	"github.com/daniela/lesson-forge/internal/diagram"
	"github.com/daniela/lesson-forge/internal/generation"
	"github.com/daniela/lesson-forge/internal/llm"
	"github.com/daniela/lesson-forge/internal/observability"
	"github.com/daniela/lesson-forge/internal/scheduler"
	"github.com/daniela/lesson-forge/internal/schemas"
	"github.com/daniela/lesson-forge/internal/store"
	"github.com/daniela/lesson-forge/internal/types"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate content for a batch of curriculum targets",
	Long: `Classifies every target against persisted state, plans the batch, and runs
bounded generate-validate-critique loops under a concurrency cap. Already
complete targets are skipped; targets missing only diagrams re-run just the
diagram stage.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values. Exits non-zero when any item failed.`,
	RunE: runGenerateCmd,
}

var (
	genConfigPath    string
	genTargets       string
	genAPIKey        string
	genDatabaseURL   string
	genRendererURL   string
	genManifestDir   string
	genMaxConcurrent int
	genMaxAttempts   int
	genMaxIterations int
	genForce         bool
	genDryRun        bool
	genVerbose       bool
	genOverrideTool  string
)

func init() {
	// Config file flag (processed first)
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCommand.Flags().StringVarP(&genTargets, "targets", "t", "", "Path to targets JSON file")
	generateCommand.Flags().StringVar(&genRendererURL, "renderer-url", "", "Diagram rendering service base URL (optional, defaults to RENDERER_URL env var)")
	generateCommand.Flags().StringVar(&genManifestDir, "manifest-dir", "", "Directory for execution manifest files")
	generateCommand.Flags().IntVar(&genMaxConcurrent, "max-concurrent", 0, "Maximum concurrently-running generation loops")
	generateCommand.Flags().IntVar(&genMaxAttempts, "max-attempts", 0, "Generation attempts per work item")
	generateCommand.Flags().IntVar(&genMaxIterations, "max-iterations", 0, "Refinement iterations per diagram")
	generateCommand.Flags().BoolVar(&genForce, "force", false, "Regenerate even when content already exists (deletes existing artifacts)")
	generateCommand.Flags().BoolVar(&genDryRun, "dry-run", false, "Classify and print the plan without executing")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")
	generateCommand.Flags().StringVar(&genOverrideTool, "override-tool", "", "Force one renderer tool for every diagram (mermaid, graphviz, plantuml)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCommand.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for document persistence
	generateCommand.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(generateCommand)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := mergedGenerateConfig(cmd)
	if err != nil {
		return err
	}

	targets, err := config.LoadTargets(cfg.Targets)
	if err != nil {
		return err
	}

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	registry, err := schemas.NewRegistry()
	if err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	qualityCritic := critic.New(client)
	loop := generation.NewLoop(client, registry, qualityCritic, cfg.MaxAttempts)
	refiner := diagram.NewRefiner(client, registry, qualityCritic, diagram.NewHTTPRenderer(cfg.RendererURL), cfg.MaxIterations)
	refiner.OverrideTool = types.RendererTool(cfg.OverrideTool)

	runner := scheduler.NewPipelineRunner(loop, refiner, db, cfg.MaxAttempts)
	batch := scheduler.New(db, runner, cfg.MaxConcurrent, cfg.Force)

	mode := scheduler.ModeExecute
	if cfg.DryRun {
		mode = scheduler.ModeDryRun
	}

	printer := observability.NewPrinter(os.Stdout)

	plan, err := batch.BuildPlan(ctx, targets)
	if err != nil {
		return err
	}
	printPlan(printer, plan)

	manifest := batch.RunPlan(ctx, plan, mode)

	path, err := scheduler.WriteManifest(manifest, cfg.ManifestDir)
	if err != nil {
		return err
	}
	fmt.Printf("Manifest written to %s\n", path)

	printer.PrintManifest(manifest)
	if cfg.Verbose {
		for _, item := range manifest.Items {
			if len(item.Attempts) > 0 {
				printer.PrintAttemptTrail(item.ItemID, item.Attempts)
			}
		}
	}

	if mode == scheduler.ModeExecute && manifest.Totals.Failed > 0 {
		return fmt.Errorf("%d of %d items failed", manifest.Totals.Failed, manifest.Totals.Targets)
	}
	return nil
}

// mergedGenerateConfig loads the optional config file, applies CLI overrides
// and defaults, and validates required fields.
func mergedGenerateConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loadedCfg
		if genVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", genConfigPath)
		}
	}

	// Apply CLI overrides (command-line args take priority).
	// Only override if the flag was explicitly set.
	if cmd.Flags().Changed("targets") {
		cfg.Targets = genTargets
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDatabaseURL
	}
	if cmd.Flags().Changed("renderer-url") {
		cfg.RendererURL = genRendererURL
	}
	if cmd.Flags().Changed("manifest-dir") {
		cfg.ManifestDir = genManifestDir
	}
	if cmd.Flags().Changed("max-concurrent") {
		cfg.MaxConcurrent = genMaxConcurrent
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = genMaxAttempts
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations = genMaxIterations
	}
	if cmd.Flags().Changed("force") {
		cfg.Force = genForce
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = genDryRun
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}
	if cmd.Flags().Changed("override-tool") {
		cfg.OverrideTool = genOverrideTool
	}

	// Renderer URL precedence: flag, then config, then env, then default.
	if cfg.RendererURL == "" {
		cfg.RendererURL = os.Getenv("RENDERER_URL")
	}

	// Apply defaults for unset values
	defaults := config.Config{
		RendererURL:   "https://kroki.io",
		ManifestDir:   "manifests",
		MaxConcurrent: scheduler.DefaultConcurrency,
		MaxAttempts:   generation.DefaultMaxAttempts,
		MaxIterations: diagram.DefaultMaxIterations,
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Validate required fields
	if cfg.Targets == "" {
		return cfg, fmt.Errorf("--targets is required (via flag or config)")
	}

	// API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Database URL handling
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// printPlan renders the classification pass.
func printPlan(printer *observability.Printer, plan *scheduler.Plan) {
	lines := make([]observability.PlanLine, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		lines = append(lines, observability.PlanLine{
			ItemID: entry.Target.ItemID(),
			State:  entry.Classification.State,
			Action: entry.Action,
		})
	}
	printer.PrintPlan(lines)
}
