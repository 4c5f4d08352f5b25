package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AlexTLDR/wedding/internal/database"
)

type ImportOptions struct {
	Input  string
	DryRun bool
}

type ImportResult struct {
	Households int  `json:"households"`
	Guests     int  `json:"guests"`
	DryRun     bool `json:"dry_run"`
}

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <guest-list>",
		Short: "Import households from a CSV or YAML guest list",
		Long: `Import households from a guest list.

CSV files have a header row followed by one household per row: the first
column is the household label and its first guest, up to five more columns
name the other guests. YAML files hold a "parties" list with a household
and its members. A guest named "Guest" becomes an unnamed plus-one.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "guest list format (csv|yaml), defaults to the file extension")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "parse and report without writing")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, opts *ImportOptions, path string) error {
	format := opts.Input
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open guest list: %w", err)
	}
	defer f.Close()

	list, err := ParseGuestList(f, format)
	if err != nil {
		return err
	}

	result := ImportResult{Households: len(list.Parties), Guests: list.Guests(), DryRun: opts.DryRun}

	if !opts.DryRun {
		db, err := openDB(cmd.Context(), rootOpts)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, p := range list.Parties {
			members := make([]database.NewMember, len(p.Members))
			for i, m := range p.Members {
				members[i] = m.newMember()
			}
			if _, err := db.CreateParty(cmd.Context(), p.Household, members); err != nil {
				return fmt.Errorf("failed to import %q: %w", p.Household, err)
			}
		}
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return json.NewEncoder(out).Encode(result)
	}

	verb := "Imported"
	if result.DryRun {
		verb = "Would import"
	}
	fmt.Fprintf(out, "%s %d households with %d guests\n", verb, result.Households, result.Guests)
	return nil
}
