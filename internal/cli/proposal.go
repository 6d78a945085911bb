package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/ctxutil"
	"github.com/example/upkeep/internal/ports/primary"
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Negotiate appointment proposals",
	Long:  "Offer, inspect, select, decline and counter appointment windows",
}

var proposalCreateCmd = &cobra.Command{
	Use:   "create [job-id]",
	Short: "Offer appointment windows for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		jobID := args[0]
		contractorID, _ := cmd.Flags().GetString("contractor")
		slotFlags, _ := cmd.Flags().GetStringArray("slot")
		cost, _ := cmd.Flags().GetInt64("cost")
		notes, _ := cmd.Flags().GetString("notes")

		if contractorID == "" {
			return fmt.Errorf("contractor is required\nHint: Use --contractor to say who is offering")
		}
		slots, err := parseSlotFlags(slotFlags)
		if err != nil {
			return err
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		prop, err := app.Proposals.CreateProposal(actorContext(ctx, contractorID, ctxutil.RoleContractor), primary.CreateProposalRequest{
			JobID:              jobID,
			ContractorID:       contractorID,
			Slots:              slots,
			EstimatedCostCents: cost,
			Notes:              notes,
		})
		if err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}

		fmt.Printf("✓ Created proposal %s for job %s\n", prop.ID, prop.JobID)
		fmt.Printf("  Expires: %s\n", prop.ExpiresAt.Local().Format(timeFormat))
		if prop.EstimatedCostCents > 0 {
			fmt.Printf("  Estimated cost: %s\n", formatMoney(prop.EstimatedCostCents))
		}
		for _, s := range prop.Slots {
			conflict := ""
			if !s.IsAvailableForTenant {
				conflict = fmt.Sprintf(" (conflict: %s)", s.ConflictReason)
			}
			fmt.Printf("  Slot %s: %s - %s%s\n",
				s.ID, s.StartsAt.Local().Format(timeFormat), s.EndsAt.Local().Format(timeFormat), conflict)
		}
		return nil
	},
}

var proposalShowCmd = &cobra.Command{
	Use:   "show [proposal-id]",
	Short: "Show a proposal and its windows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		prop, err := app.Proposals.GetProposal(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get proposal: %w", err)
		}

		fmt.Printf("%s (job %s)\n", prop.ID, prop.JobID)
		fmt.Printf("  Status: %s\n", proposalStatusColored(prop.Status))
		fmt.Printf("  Contractor: %s\n", prop.ContractorID)
		if prop.EstimatedCostCents > 0 {
			fmt.Printf("  Estimated cost: %s\n", formatMoney(prop.EstimatedCostCents))
		}
		fmt.Printf("  Expires: %s\n", prop.ExpiresAt.Local().Format(timeFormat))
		if prop.SelectedSlotID != "" {
			fmt.Printf("  Selected slot: %s\n", prop.SelectedSlotID)
			if prop.AutoApproved {
				fmt.Printf("  Auto-approved: %s\n", prop.AutoApprovalReason)
			}
		}
		if prop.DeclineReason != "" {
			fmt.Printf("  Decline reason: %s\n", prop.DeclineReason)
		}
		if prop.Notes != "" {
			fmt.Printf("  Notes: %s\n", prop.Notes)
		}

		clash := color.New(color.FgYellow).Sprint("⚠")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SLOT\tSTART\tEND\tSTATUS\tCONFLICT")
		fmt.Fprintln(w, "----\t-----\t---\t------\t--------")
		for _, s := range prop.Slots {
			conflict := "-"
			if !s.IsAvailableForTenant {
				conflict = fmt.Sprintf("%s %s", clash, s.ConflictReason)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.StartsAt.Local().Format(timeFormat), s.EndsAt.Local().Format(timeFormat), s.Status, conflict)
		}
		w.Flush()
		return nil
	},
}

var proposalListCmd = &cobra.Command{
	Use:   "list [job-id]",
	Short: "List the proposals for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		proposals, err := app.Proposals.ListByJob(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list proposals: %w", err)
		}

		if len(proposals) == 0 {
			fmt.Println("No proposals found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCONTRACTOR\tSTATUS\tSLOTS\tCOST\tEXPIRES")
		fmt.Fprintln(w, "--\t----------\t------\t-----\t----\t-------")
		for _, p := range proposals {
			cost := "-"
			if p.EstimatedCostCents > 0 {
				cost = formatMoney(p.EstimatedCostCents)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				p.ID, p.ContractorID, proposalStatusColored(p.Status), len(p.Slots), cost, p.ExpiresAt.Local().Format(timeFormat))
		}
		w.Flush()
		return nil
	},
}

var proposalSelectCmd = &cobra.Command{
	Use:   "select [proposal-id]",
	Short: "Select a window as the tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		proposalID := args[0]
		slotID, _ := cmd.Flags().GetString("slot")
		by, _ := cmd.Flags().GetString("by")
		if slotID == "" {
			return fmt.Errorf("slot is required\nHint: Use --slot with an ID from 'upkeep proposal show'")
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		result, err := app.Proposals.SelectSlot(actorContext(ctx, by, ctxutil.RoleTenant), primary.SelectSlotRequest{
			ProposalID: proposalID,
			SlotID:     slotID,
		})
		if err != nil {
			return fmt.Errorf("failed to select slot: %w", err)
		}

		if !result.Selected {
			fmt.Printf("✗ Not selected: %s\n", result.Reason)
			return nil
		}

		fmt.Printf("✓ Selected slot %s on proposal %s\n", slotID, proposalID)
		if result.Appointment != nil {
			appt := result.Appointment
			fmt.Printf("  Appointment %s: %s - %s\n",
				appt.ID, appt.StartsAt.Local().Format(timeFormat), appt.EndsAt.Local().Format(timeFormat))
		}
		if result.AutoApproved {
			fmt.Printf("  Auto-approved: %s\n", result.ApprovalReason)
		} else {
			fmt.Println("  Pending manager review")
		}
		return nil
	},
}

var proposalDeclineCmd = &cobra.Command{
	Use:   "decline [proposal-id]",
	Short: "Decline a proposal as the tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reason, _ := cmd.Flags().GetString("reason")
		by, _ := cmd.Flags().GetString("by")

		app, err := application(ctx)
		if err != nil {
			return err
		}

		result, err := app.Proposals.DeclineAll(actorContext(ctx, by, ctxutil.RoleTenant), args[0], reason)
		if err != nil {
			return fmt.Errorf("failed to decline proposal: %w", err)
		}

		if !result.Declined {
			fmt.Printf("✗ Not declined: %s\n", result.Reason)
			return nil
		}
		fmt.Printf("✓ Declined proposal %s\n", args[0])
		return nil
	},
}

var proposalCounterCmd = &cobra.Command{
	Use:   "counter [proposal-id]",
	Short: "Counter a proposal with new windows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		slotFlags, _ := cmd.Flags().GetStringArray("slot")
		notes, _ := cmd.Flags().GetString("notes")
		by, _ := cmd.Flags().GetString("by")

		slots, err := parseSlotFlags(slotFlags)
		if err != nil {
			return err
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		result, err := app.Proposals.Counter(actorContext(ctx, by, ctxutil.RoleTenant), primary.CounterRequest{
			ProposalID: args[0],
			Slots:      slots,
			Notes:      notes,
		})
		if err != nil {
			return fmt.Errorf("failed to counter proposal: %w", err)
		}

		if !result.Countered {
			fmt.Printf("✗ Not countered: %s\n", result.Reason)
			return nil
		}

		fmt.Printf("✓ Countered with proposal %s\n", result.Proposal.ID)
		fmt.Printf("  Expires: %s\n", result.Proposal.ExpiresAt.Local().Format(timeFormat))
		return nil
	},
}

var proposalExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Flush lazily-expired proposals to storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		n, err := app.Proposals.ExpireDue(ctx)
		if err != nil {
			return fmt.Errorf("failed to expire proposals: %w", err)
		}

		if n == 0 {
			fmt.Println("No proposals due")
			return nil
		}
		fmt.Printf("✓ Expired %d proposal(s)\n", n)
		return nil
	},
}

// parseSlotFlags turns repeated --slot "start,end" values into slot
// requests. Times are RFC3339.
func parseSlotFlags(values []string) ([]primary.SlotRequest, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one slot is required\nHint: Use --slot \"2026-10-05T09:00:00Z,2026-10-05T12:00:00Z\"")
	}
	slots := make([]primary.SlotRequest, 0, len(values))
	for _, v := range values {
		parts := strings.SplitN(v, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid slot %q (want start,end)", v)
		}
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid slot start %q: %w", parts[0], err)
		}
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid slot end %q: %w", parts[1], err)
		}
		slots = append(slots, primary.SlotRequest{StartsAt: start, EndsAt: end})
	}
	return slots, nil
}

func init() {
	proposalCreateCmd.Flags().StringP("contractor", "c", "", "Contractor offering the windows")
	proposalCreateCmd.Flags().StringArray("slot", nil, "Candidate window as \"start,end\" in RFC3339 (repeatable, max 3)")
	proposalCreateCmd.Flags().Int64("cost", 0, "Estimated cost in cents")
	proposalCreateCmd.Flags().String("notes", "", "Notes for the tenant")

	proposalSelectCmd.Flags().String("slot", "", "Slot to select")
	proposalSelectCmd.Flags().String("by", "", "Acting tenant recorded in the audit log")

	proposalDeclineCmd.Flags().String("reason", "", "Why the windows do not work")
	proposalDeclineCmd.Flags().String("by", "", "Acting tenant recorded in the audit log")

	proposalCounterCmd.Flags().StringArray("slot", nil, "Replacement window as \"start,end\" in RFC3339 (repeatable, max 3)")
	proposalCounterCmd.Flags().String("notes", "", "Notes for the contractor")
	proposalCounterCmd.Flags().String("by", "", "Acting tenant recorded in the audit log")

	proposalCmd.AddCommand(proposalCreateCmd)
	proposalCmd.AddCommand(proposalShowCmd)
	proposalCmd.AddCommand(proposalListCmd)
	proposalCmd.AddCommand(proposalSelectCmd)
	proposalCmd.AddCommand(proposalDeclineCmd)
	proposalCmd.AddCommand(proposalCounterCmd)
	proposalCmd.AddCommand(proposalExpireCmd)
}

// ProposalCmd returns the proposal command
func ProposalCmd() *cobra.Command {
	return proposalCmd
}
