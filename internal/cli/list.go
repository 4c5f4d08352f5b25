package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AlexTLDR/wedding/internal/database"
)

type ListOptions struct {
	Pending bool
}

type listedMember struct {
	Name   string              `json:"name"`
	Status database.RSVPStatus `json:"status"`
	Meal   string              `json:"meal,omitempty"`
}

type listedParty struct {
	ID        string         `json:"id"`
	Household string         `json:"household"`
	Email     string         `json:"email,omitempty"`
	Members   []listedMember `json:"members"`
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List households and their RSVPs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "only households with unanswered guests")

	return cmd
}

func runList(cmd *cobra.Command, rootOpts *RootOptions, opts *ListOptions) error {
	db, err := openDB(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer db.Close()

	parties, err := db.ListParties(cmd.Context())
	if err != nil {
		return err
	}

	listed := make([]listedParty, 0, len(parties))
	for _, p := range parties {
		lp := listedParty{ID: p.ID, Household: p.HouseholdLabel, Email: p.ContactEmail.String}
		pending := false
		for _, m := range p.Members {
			lm := listedMember{Name: m.FullName, Status: m.Status}
			if m.Status == database.StatusYes {
				lm.Meal = m.MealChoice.String
			}
			if m.Status == database.StatusUnknown {
				pending = true
			}
			lp.Members = append(lp.Members, lm)
		}
		if opts.Pending && !pending {
			continue
		}
		listed = append(listed, lp)
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return json.NewEncoder(out).Encode(listed)
	}

	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "HOUSEHOLD\tGUEST\tSTATUS\tMEAL")
	for _, p := range listed {
		for _, m := range p.Members {
			meal := m.Meal
			if meal == "" {
				meal = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Household, m.Name, m.Status, meal)
		}
	}
	return tw.Flush()
}
