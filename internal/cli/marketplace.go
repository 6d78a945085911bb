package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/ctxutil"
)

var marketplaceCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Browse the marketplace as a contractor",
	Long:  "List the jobs visible to a contractor, with an acceptance hint per job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		contractorID, _ := cmd.Flags().GetString("contractor")
		if contractorID == "" {
			return fmt.Errorf("contractor is required\nHint: Use --contractor to browse as that contractor")
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		listings, err := app.Marketplace.ListVisible(actorContext(ctx, contractorID, ctxutil.RoleContractor), contractorID)
		if err != nil {
			return fmt.Errorf("failed to list marketplace: %w", err)
		}

		if len(listings) == 0 {
			fmt.Println("No jobs visible")
			return nil
		}

		yes := color.New(color.FgHiGreen).Sprint("✓")
		no := color.New(color.FgRed).Sprint("✗")

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tSTATUS\tACCEPT\tREASON")
		fmt.Fprintln(w, "--\t-----\t--------\t------\t------\t------")
		for _, l := range listings {
			mark := yes
			reason := "-"
			if !l.CanAccept {
				mark = no
				reason = l.Reason
			}
			title := l.Job.Title
			if l.Job.IsUrgent {
				title += " [urgent]"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				l.Job.ID, title, l.Job.Priority, jobStatusColored(l.Job.Status), mark, reason)
		}
		w.Flush()
		return nil
	},
}

func init() {
	marketplaceCmd.Flags().StringP("contractor", "c", "", "Contractor browsing the marketplace")
}

// MarketplaceCmd returns the marketplace command
func MarketplaceCmd() *cobra.Command {
	return marketplaceCmd
}
