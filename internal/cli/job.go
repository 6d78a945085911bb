package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/ctxutil"
	"github.com/example/upkeep/internal/ports/primary"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage maintenance jobs",
	Long:  "Create, list, inspect and accept maintenance jobs",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Post a new maintenance job",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		title := args[0]
		orgID, _ := cmd.Flags().GetString("org")
		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		priority, _ := cmd.Flags().GetString("priority")
		urgent, _ := cmd.Flags().GetBool("urgent")
		favoritesOnly, _ := cmd.Flags().GetBool("favorites-only")
		by, _ := cmd.Flags().GetString("by")

		app, err := application(ctx)
		if err != nil {
			return err
		}

		job, err := app.Marketplace.CreateJob(actorContext(ctx, by, ctxutil.RoleManager), primary.CreateJobRequest{
			OrgID:               orgID,
			Title:               title,
			Description:         description,
			Category:            category,
			Priority:            priority,
			IsUrgent:            urgent,
			RestrictToFavorites: favoritesOnly,
		})
		if err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}

		fmt.Printf("✓ Created job %s: %s\n", job.ID, job.Title)
		fmt.Printf("  Priority: %s\n", job.Priority)
		if job.OrgID != "" {
			fmt.Printf("  Org: %s\n", job.OrgID)
		}
		if job.IsUrgent {
			fmt.Println("  Marked urgent")
		}
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		orgID, _ := cmd.Flags().GetString("org")
		status, _ := cmd.Flags().GetString("status")
		contractorID, _ := cmd.Flags().GetString("contractor")
		unassigned, _ := cmd.Flags().GetBool("unassigned")
		limit, _ := cmd.Flags().GetInt("limit")

		app, err := application(ctx)
		if err != nil {
			return err
		}

		jobs, err := app.Marketplace.ListJobs(ctx, primary.JobFilters{
			OrgID:        orgID,
			Status:       status,
			ContractorID: contractorID,
			Unassigned:   unassigned,
			Limit:        limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		if len(jobs) == 0 {
			fmt.Println("No jobs found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tSTATUS\tORG\tASSIGNED")
		fmt.Fprintln(w, "--\t-----\t--------\t------\t---\t--------")
		for _, j := range jobs {
			org := j.OrgID
			if org == "" {
				org = "-"
			}
			assigned := j.AssignedContractorID
			if assigned == "" {
				assigned = "-"
			}
			urgentMark := ""
			if j.IsUrgent {
				urgentMark = " [urgent]"
			}
			fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\t%s\t%s\n",
				j.ID, j.Title, urgentMark, j.Priority, jobStatusColored(j.Status), org, assigned)
		}
		w.Flush()
		return nil
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show job details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		job, err := app.Marketplace.GetJob(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}

		fmt.Printf("%s: %s\n", job.ID, job.Title)
		fmt.Printf("  Status: %s\n", jobStatusColored(job.Status))
		fmt.Printf("  Priority: %s\n", job.Priority)
		if job.IsUrgent {
			fmt.Println("  Urgent: yes")
		}
		if job.OrgID != "" {
			fmt.Printf("  Org: %s\n", job.OrgID)
		}
		if job.AssignedContractorID != "" {
			fmt.Printf("  Assigned: %s\n", job.AssignedContractorID)
		}
		if job.Category != "" {
			fmt.Printf("  Category: %s\n", job.Category)
		}
		if job.RestrictToFavorites {
			fmt.Println("  Restricted to favorites")
		}
		if job.Description != "" {
			fmt.Printf("  Description: %s\n", job.Description)
		}
		fmt.Printf("  Posted: %s\n", job.PostedAt.Local().Format(timeFormat))

		// The calendar entry, when one exists.
		entry, err := app.Schedule.GetByJob(ctx, job.ID)
		if err == nil {
			placement := "unplaced"
			if entry.StartsAt != nil {
				placement = entry.StartsAt.Local().Format(timeFormat)
			}
			fmt.Printf("  Schedule: %s (%s, entry %s)\n", scheduleStatusColored(entry.Status), placement, entry.ID)
		}
		return nil
	},
}

var jobAcceptCmd = &cobra.Command{
	Use:   "accept [job-id]",
	Short: "Accept a job as a contractor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		jobID := args[0]
		contractorID, _ := cmd.Flags().GetString("contractor")
		if contractorID == "" {
			return fmt.Errorf("contractor is required\nHint: Use --contractor to say who is accepting")
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		result, err := app.Marketplace.Accept(actorContext(ctx, contractorID, ctxutil.RoleContractor), contractorID, jobID)
		if err != nil {
			return fmt.Errorf("failed to accept job: %w", err)
		}

		if !result.Accepted {
			fmt.Printf("✗ Not accepted: %s\n", result.Reason)
			return nil
		}

		fmt.Printf("✓ Job %s accepted by %s\n", jobID, contractorID)
		fmt.Printf("  Status: %s\n", jobStatusColored(result.Job.Status))
		return nil
	},
}

func init() {
	jobCreateCmd.Flags().StringP("org", "o", "", "Organization posting the job")
	jobCreateCmd.Flags().StringP("description", "d", "", "Job description")
	jobCreateCmd.Flags().StringP("category", "c", "", "Trade category (plumbing, electrical, ...)")
	jobCreateCmd.Flags().StringP("priority", "p", "", "Priority (low, normal, high)")
	jobCreateCmd.Flags().Bool("urgent", false, "Mark the job urgent")
	jobCreateCmd.Flags().Bool("favorites-only", false, "Restrict the marketplace listing to favorite contractors")
	jobCreateCmd.Flags().String("by", "", "Acting user recorded in the audit log")

	jobListCmd.Flags().StringP("org", "o", "", "Filter by organization")
	jobListCmd.Flags().StringP("status", "s", "", "Filter by status")
	jobListCmd.Flags().StringP("contractor", "c", "", "Filter by assigned contractor")
	jobListCmd.Flags().Bool("unassigned", false, "Only unassigned jobs")
	jobListCmd.Flags().IntP("limit", "n", 0, "Limit the number of rows")

	jobAcceptCmd.Flags().StringP("contractor", "c", "", "Contractor accepting the job")

	jobCmd.AddCommand(jobCreateCmd)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobShowCmd)
	jobCmd.AddCommand(jobAcceptCmd)
}

// JobCmd returns the job command
func JobCmd() *cobra.Command {
	return jobCmd
}
