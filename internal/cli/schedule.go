package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/ports/primary"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Work the day-based calendar",
	Long:  "Create calendar entries, view team days, move entries and confirm placements",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add [job-id]",
	Short: "Create a calendar entry for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		teamID, _ := cmd.Flags().GetString("team")
		allDay, _ := cmd.Flags().GetBool("all-day")
		days, _ := cmd.Flags().GetInt("days")
		notes, _ := cmd.Flags().GetString("notes")

		app, err := application(ctx)
		if err != nil {
			return err
		}

		entry, err := app.Schedule.CreateEntry(ctx, primary.CreateScheduleRequest{
			JobID:        args[0],
			TeamID:       teamID,
			IsAllDay:     allDay,
			DurationDays: days,
			Notes:        notes,
		})
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		fmt.Printf("✓ Created entry %s for job %s\n", entry.ID, entry.JobID)
		fmt.Printf("  Status: %s\n", scheduleStatusColored(entry.Status))
		if entry.IsAllDay {
			fmt.Printf("  All-day, %d day(s)\n", entry.DurationDays)
		}
		return nil
	},
}

var scheduleDayCmd = &cobra.Command{
	Use:   "day [team-id]",
	Short: "Show a team's calendar day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dayFlag, _ := cmd.Flags().GetString("day")

		day := time.Now()
		if dayFlag != "" {
			var err error
			day, err = parseDay(dayFlag)
			if err != nil {
				return err
			}
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		entries, err := app.Schedule.DayView(ctx, args[0], day)
		if err != nil {
			return fmt.Errorf("failed to load day view: %w", err)
		}

		if len(entries) == 0 {
			fmt.Printf("Nothing scheduled on %s\n", day.Format(dayFormat))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENTRY\tJOB\tSTART\tEND\tSTATUS\tCONFIRMED")
		fmt.Fprintln(w, "-----\t---\t-----\t---\t------\t---------")
		for _, e := range entries {
			start, end := "-", "-"
			if e.StartsAt != nil {
				start = e.StartsAt.Local().Format(timeFormat)
			}
			if e.EndsAt != nil {
				end = e.EndsAt.Local().Format(timeFormat)
			}
			confirmed := "-"
			if e.TenantConfirmed {
				confirmed = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.JobID, start, end, scheduleStatusColored(e.Status), confirmed)
		}
		w.Flush()
		return nil
	},
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show [entry-id]",
	Short: "Show a calendar entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		entry, err := app.Schedule.GetEntry(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		fmt.Printf("%s (job %s)\n", entry.ID, entry.JobID)
		fmt.Printf("  Status: %s\n", scheduleStatusColored(entry.Status))
		if entry.TeamID != "" {
			fmt.Printf("  Team: %s\n", entry.TeamID)
		}
		if entry.StartsAt != nil && entry.EndsAt != nil {
			fmt.Printf("  Window: %s - %s\n",
				entry.StartsAt.Local().Format(timeFormat), entry.EndsAt.Local().Format(timeFormat))
		} else {
			fmt.Println("  Window: unplaced")
		}
		if entry.IsAllDay {
			fmt.Printf("  All-day, %d day(s)\n", entry.DurationDays)
		}
		fmt.Printf("  Tenant confirmed: %t\n", entry.TenantConfirmed)
		if entry.PrefStartMinute != nil {
			fmt.Printf("  Preferred start: %02d:%02d", *entry.PrefStartMinute/60, *entry.PrefStartMinute%60)
			if entry.PrefDurationMinutes != nil {
				fmt.Printf(" (%d min)", *entry.PrefDurationMinutes)
			}
			fmt.Println()
		}
		if entry.Notes != "" {
			fmt.Printf("  Notes: %s\n", entry.Notes)
		}
		return nil
	},
}

var scheduleMoveCmd = &cobra.Command{
	Use:   "move [entry-id] [day]",
	Short: "Move an entry onto a day",
	Long:  "Place an unscheduled entry or drag a scheduled one; each move resets tenant confirmation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		day, err := parseDay(args[1])
		if err != nil {
			return err
		}

		app, err := application(ctx)
		if err != nil {
			return err
		}

		result, err := app.Schedule.Move(ctx, args[0], day)
		if err != nil {
			return fmt.Errorf("failed to move entry: %w", err)
		}

		if !result.Moved {
			fmt.Printf("✗ Not moved: %s\n", result.Reason)
			return nil
		}

		fmt.Printf("✓ Moved entry %s\n", args[0])
		fmt.Printf("  Window: %s - %s\n",
			result.Start.Local().Format(timeFormat), result.End.Local().Format(timeFormat))
		fmt.Printf("  Status: %s\n", scheduleStatusColored(result.Status))
		if !result.TenantConfirmed {
			fmt.Println("  Tenant confirmation reset")
		}
		return nil
	},
}

var scheduleConfirmCmd = &cobra.Command{
	Use:   "confirm [entry-id]",
	Short: "Record the tenant's confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		result, err := app.Schedule.Confirm(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to confirm entry: %w", err)
		}

		if !result.Confirmed {
			fmt.Printf("✗ Not confirmed: %s\n", result.Reason)
			return nil
		}
		fmt.Printf("✓ Confirmed entry %s\n", args[0])
		return nil
	},
}

var scheduleUnscheduleCmd = &cobra.Command{
	Use:   "unschedule [entry-id]",
	Short: "Remove an entry's placement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		if err := app.Schedule.Unschedule(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to unschedule entry: %w", err)
		}

		fmt.Printf("✓ Unscheduled entry %s\n", args[0])
		return nil
	},
}

var schedulePreferCmd = &cobra.Command{
	Use:   "prefer [entry-id]",
	Short: "Store a start-time preference",
	Long:  "Record the start time and duration used when the entry is first placed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startFlag, _ := cmd.Flags().GetString("start")
		minutes, _ := cmd.Flags().GetInt("minutes")

		if startFlag == "" {
			return fmt.Errorf("start is required\nHint: Use --start with a HH:MM time")
		}
		start, err := time.Parse("15:04", startFlag)
		if err != nil {
			return fmt.Errorf("invalid start %q (want HH:MM)", startFlag)
		}
		startMinute := start.Hour()*60 + start.Minute()

		app, err := application(ctx)
		if err != nil {
			return err
		}

		if err := app.Schedule.SetTimePreference(ctx, args[0], startMinute, minutes); err != nil {
			return fmt.Errorf("failed to save preference: %w", err)
		}

		fmt.Printf("✓ Saved preference for entry %s: %s, %d min\n", args[0], startFlag, minutes)
		return nil
	},
}

var scheduleImportCmd = &cobra.Command{
	Use:   "import [entry-id]",
	Short: "Import a legacy notes preference",
	Long:  "Decode a time preference embedded in the entry's legacy notes JSON and store it structurally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		found, err := app.Schedule.ImportLegacyPreference(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to import preference: %w", err)
		}

		if !found {
			fmt.Println("No legacy preference found in notes")
			return nil
		}
		fmt.Printf("✓ Imported legacy preference for entry %s\n", args[0])
		return nil
	},
}

func init() {
	scheduleAddCmd.Flags().StringP("team", "t", "", "Team owning the calendar entry")
	scheduleAddCmd.Flags().Bool("all-day", false, "All-day entry")
	scheduleAddCmd.Flags().Int("days", 0, "Duration in days for all-day entries")
	scheduleAddCmd.Flags().String("notes", "", "Free-text notes")

	scheduleDayCmd.Flags().StringP("day", "d", "", "Calendar day (YYYY-MM-DD, default today)")

	schedulePreferCmd.Flags().String("start", "", "Preferred start time (HH:MM)")
	schedulePreferCmd.Flags().Int("minutes", 0, "Preferred duration in minutes")

	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleDayCmd)
	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleMoveCmd)
	scheduleCmd.AddCommand(scheduleConfirmCmd)
	scheduleCmd.AddCommand(scheduleUnscheduleCmd)
	scheduleCmd.AddCommand(schedulePreferCmd)
	scheduleCmd.AddCommand(scheduleImportCmd)
}

// ScheduleCmd returns the schedule command
func ScheduleCmd() *cobra.Command {
	return scheduleCmd
}
