package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/cli"
	"github.com/example/upkeep/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "upkeep",
		Short:   "upkeep - maintenance job coordination",
		Version: version.String(),
		Long: `upkeep coordinates maintenance work for property organizations:
a contractor marketplace, appointment negotiation with auto-approval
policies, and a day-based team calendar. The serve command exposes the
same operations over HTTP.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.SeedCmd())

	// Domain commands
	rootCmd.AddCommand(cli.JobCmd())
	rootCmd.AddCommand(cli.MarketplaceCmd())
	rootCmd.AddCommand(cli.ProposalCmd())
	rootCmd.AddCommand(cli.PolicyCmd())
	rootCmd.AddCommand(cli.ScheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
