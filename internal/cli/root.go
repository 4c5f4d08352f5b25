// Package cli implements partyctl, the command line tool for managing the
// guest list.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/AlexTLDR/wedding/internal/database"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DatabaseURL string
	Format      string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "partyctl",
		Short: "Manage the wedding guest list",
		Long:  "Import households, review their RSVPs and maintain the wedding database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	defaultDB := os.Getenv("DATABASE_URL")
	if defaultDB == "" {
		defaultDB = "sqlite://wedding.db"
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "db", defaultDB, "database URL (postgres://... or sqlite://path)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewNormalizePhonesCommand(opts))

	return cmd
}

// openDB connects and brings the schema up to date.
func openDB(ctx context.Context, opts *RootOptions) (*database.DB, error) {
	db, err := database.New(opts.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
