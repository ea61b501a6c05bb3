package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniela/lesson-forge/internal/store"
)

var deleteCommand = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Delete a target's persisted documents",
	Long:  "Deletes all documents and blobs for one item ID (unit/topic).",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteCmd,
}

var deleteDatabaseURL string

func init() {
	deleteCommand.Flags().StringVar(&deleteDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(deleteCommand)
}

func runDeleteCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	databaseURL := deleteDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	db, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	deleted, err := db.DeleteItem(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d document(s) for %s\n", deleted, args[0])
	return nil
}
