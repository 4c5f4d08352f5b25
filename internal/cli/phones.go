package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlexTLDR/wedding/internal/utils"
)

type PhoneSummary struct {
	Total     int `json:"total"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`
}

func NewNormalizePhonesCommand(rootOpts *RootOptions) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:          "normalize-phones",
		Short:        "Rewrite stored contact phones in E.164 format",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalizePhones(cmd, rootOpts, strings.ToUpper(region))
		},
	}

	cmd.Flags().StringVar(&region, "region", "US", "region for numbers without a country code")

	return cmd
}

func runNormalizePhones(cmd *cobra.Command, rootOpts *RootOptions, region string) error {
	db, err := openDB(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer db.Close()

	phones, err := db.ContactPhones(cmd.Context())
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(phones))
	for id := range phones {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	verbose := rootOpts.Format == "text"
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	summary := PhoneSummary{Total: len(ids)}
	for _, id := range ids {
		phone := phones[id]
		normalized, err := utils.NormalizePhoneNumber(phone, region)
		if err != nil {
			fmt.Fprintf(errOut, "Failed to normalize phone %q (party %s): %v\n", phone, id, err)
			summary.Failed++
			continue
		}

		// Only update if the phone number changed
		if normalized == phone {
			continue
		}
		if err := db.SetContactPhone(cmd.Context(), id, normalized); err != nil {
			fmt.Fprintf(errOut, "Failed to update phone for party %s: %v\n", id, err)
			summary.Failed++
			continue
		}
		if verbose {
			fmt.Fprintf(out, "Updated %s: %q -> %q\n", id, phone, normalized)
		}
		summary.Updated++
	}
	summary.Unchanged = summary.Total - summary.Updated - summary.Failed

	if !verbose {
		return json.NewEncoder(out).Encode(summary)
	}

	fmt.Fprintf(out, "\nSummary:\n")
	fmt.Fprintf(out, "  Total: %d\n", summary.Total)
	fmt.Fprintf(out, "  Updated: %d\n", summary.Updated)
	fmt.Fprintf(out, "  Failed: %d\n", summary.Failed)
	fmt.Fprintf(out, "  Unchanged: %d\n", summary.Unchanged)
	return nil
}
