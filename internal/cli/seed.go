package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo fixtures into the database",
	Long:  "Insert a demo organization, contractors, jobs and a policy for trying the other commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := application(ctx)
		if err != nil {
			return err
		}

		if err := db.SeedFixtures(app.DB); err != nil {
			return fmt.Errorf("failed to seed fixtures: %w", err)
		}

		fmt.Println("✓ Seeded demo fixtures")
		fmt.Println("  Try: upkeep job list")
		fmt.Println("  Try: upkeep marketplace --contractor con-dana")
		return nil
	},
}

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return seedCmd
}
