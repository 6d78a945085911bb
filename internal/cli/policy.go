package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/ports/primary"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage auto-approval policies",
	Long:  "Initialize, inspect, activate and dry-run organization approval policies",
}

var policyInitCmd = &cobra.Command{
	Use:   "init [org-id]",
	Short: "Create a policy from an involvement mode",
	Long:  "Seed a policy from hands-off, balanced or hands-on defaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mode, _ := cmd.Flags().GetString("mode")
		activate, _ := cmd.Flags().GetBool("activate")
		if mode == "" {
			return fmt.Errorf("mode is required\nHint: Use --mode with hands-off, balanced or hands-on")
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		policy, err := app.Policies.InitPolicy(ctx, args[0], mode, activate)
		if err != nil {
			return fmt.Errorf("failed to init policy: %w", err)
		}

		fmt.Printf("✓ Created policy %s for org %s\n", policy.ID, policy.OrgID)
		fmt.Printf("  Mode: %s\n", policy.InvolvementMode)
		if policy.IsActive {
			fmt.Println("  Activated")
		}
		return nil
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show [org-id]",
	Short: "Show the organization's active policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		policy, err := app.Policies.GetActivePolicy(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get active policy: %w", err)
		}

		printPolicy(policy)
		return nil
	},
}

var policyListCmd = &cobra.Command{
	Use:   "list [org-id]",
	Short: "List the organization's policies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		policies, err := app.Policies.ListPolicies(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list policies: %w", err)
		}

		if len(policies) == 0 {
			fmt.Println("No policies found")
			return nil
		}

		active := color.New(color.FgHiGreen).Sprint("✓")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tACTIVE\tCOST LIMIT\tREVIEW OVER")
		fmt.Fprintln(w, "--\t----\t------\t----------\t-----------")
		for _, p := range policies {
			mark := "-"
			if p.IsActive {
				mark = active
			}
			limit := "-"
			if p.AutoApproveCostLimitCents != nil {
				limit = formatMoney(*p.AutoApproveCostLimitCents)
			}
			over := "-"
			if p.RequireApprovalOverCents != nil {
				over = formatMoney(*p.RequireApprovalOverCents)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.InvolvementMode, mark, limit, over)
		}
		w.Flush()
		return nil
	},
}

var policyActivateCmd = &cobra.Command{
	Use:   "activate [policy-id]",
	Short: "Activate a policy",
	Long:  "Mark a policy active; sibling policies of the organization are deactivated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		if err := app.Policies.ActivatePolicy(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to activate policy: %w", err)
		}

		fmt.Printf("✓ Activated policy %s\n", args[0])
		return nil
	},
}

var policyEvalCmd = &cobra.Command{
	Use:   "eval [org-id]",
	Short: "Dry-run the active policy against an appointment",
	Long:  "Evaluate a candidate appointment without persisting anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		contractorID, _ := cmd.Flags().GetString("contractor")
		startFlag, _ := cmd.Flags().GetString("start")
		cost, _ := cmd.Flags().GetInt64("cost")
		urgent, _ := cmd.Flags().GetBool("urgent")

		if startFlag == "" {
			return fmt.Errorf("start is required\nHint: Use --start with an RFC3339 time")
		}
		start, err := time.Parse(time.RFC3339, startFlag)
		if err != nil {
			return fmt.Errorf("invalid start %q: %w", startFlag, err)
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		verdict, err := app.Policies.Evaluate(ctx, args[0], primary.AppointmentCheck{
			ContractorID:       contractorID,
			StartsAt:           start,
			EstimatedCostCents: cost,
			IsUrgent:           urgent,
		})
		if err != nil {
			return fmt.Errorf("failed to evaluate policy: %w", err)
		}

		if verdict.AutoApprove {
			fmt.Printf("✓ Auto-approve: %s\n", verdict.Reason)
		} else {
			fmt.Printf("✗ Requires review: %s\n", verdict.Reason)
		}
		return nil
	},
}

func printPolicy(p *primary.Policy) {
	fmt.Printf("%s (org %s)\n", p.ID, p.OrgID)
	fmt.Printf("  Mode: %s\n", p.InvolvementMode)
	fmt.Printf("  Active: %t\n", p.IsActive)
	fmt.Printf("  Auto-approve weekdays: %t\n", p.AutoApproveWeekdays)
	fmt.Printf("  Auto-approve weekends: %t\n", p.AutoApproveWeekends)
	fmt.Printf("  Auto-approve evenings: %t\n", p.AutoApproveEvenings)
	fmt.Printf("  Auto-approve emergencies: %t\n", p.AutoApproveEmergencies)
	if p.AutoApproveCostLimitCents != nil {
		fmt.Printf("  Cost limit: %s\n", formatMoney(*p.AutoApproveCostLimitCents))
	}
	if p.RequireApprovalOverCents != nil {
		fmt.Printf("  Review over: %s\n", formatMoney(*p.RequireApprovalOverCents))
	}
	if len(p.TrustedContractorIDs) > 0 {
		fmt.Printf("  Trusted contractors: %d\n", len(p.TrustedContractorIDs))
	}
	if p.BlockVacationDates && p.VacationStart != nil && p.VacationEnd != nil {
		fmt.Printf("  Vacation block: %s - %s\n",
			p.VacationStart.Local().Format(dayFormat), p.VacationEnd.Local().Format(dayFormat))
	}
}

func init() {
	policyInitCmd.Flags().StringP("mode", "m", "", "Involvement mode (hands-off, balanced, hands-on)")
	policyInitCmd.Flags().Bool("activate", false, "Activate the policy immediately")

	policyEvalCmd.Flags().StringP("contractor", "c", "", "Contractor performing the work")
	policyEvalCmd.Flags().String("start", "", "Appointment start in RFC3339")
	policyEvalCmd.Flags().Int64("cost", 0, "Estimated cost in cents")
	policyEvalCmd.Flags().Bool("urgent", false, "Treat the job as an emergency")

	policyCmd.AddCommand(policyInitCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyActivateCmd)
	policyCmd.AddCommand(policyEvalCmd)
}

// PolicyCmd returns the policy command
func PolicyCmd() *cobra.Command {
	return policyCmd
}
