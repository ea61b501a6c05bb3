package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daniela/lesson-forge/internal/store"
)

var listCommand = &cobra.Command{
	Use:   "list [item-id-prefix]",
	Short: "List persisted documents",
	Long:  "Lists generated documents, optionally filtered by item ID prefix (e.g. a unit name).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListCmd,
}

var listDatabaseURL string

func init() {
	listCommand.Flags().StringVar(&listDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(listCommand)
}

func runListCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	databaseURL := listDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	db, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	docs, err := db.List(ctx, prefix)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSUB-ITEM\tKIND\tFINGERPRINT\tUPDATED")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			doc.ItemID, doc.SubItemID, doc.Kind, doc.Fingerprint[:12],
			doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
