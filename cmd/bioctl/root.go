package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SARVESHVARADKAR123/biolink/internal/repository"
)

var rootFlags struct {
	databaseURL string
}

var rootCmd = &cobra.Command{
	Use:   "bioctl",
	Short: "Operator tools for biolink pages and plans",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(planCmd)
}

func openDB(ctx context.Context) (*sql.DB, error) {
	if rootFlags.databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	db, err := repository.NewDB(ctx, rootFlags.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
