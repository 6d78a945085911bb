package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/upkeep/internal/adapters/notify"
	"github.com/example/upkeep/internal/config"
	"github.com/example/upkeep/internal/db"
	"github.com/example/upkeep/internal/version"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the upkeep environment",
		Long: `Environment health check for upkeep.

Validates:
- Configuration file and UPKEEP_* environment overrides
- Data directory existence and writability
- Database file and pending schema migrations
- SQLite driver and schema (in-memory round trip)
- Notification transport (Redis ping when configured)

Examples:
  upkeep doctor            # Run full health check
  upkeep doctor --quiet    # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{}
			hasErrors := false

			cfg, cfgResult := checkConfig()
			results = append(results, cfgResult)
			if cfg != nil {
				results = append(results, checkDataDir(cfg))
				results = append(results, checkDatabase(cfg))
			}
			results = append(results, checkSchema())
			if cfg != nil {
				results = append(results, checkNotifications(cmd, cfg))
			}

			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				// Print compact table
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				// Print details for non-passing checks
				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found.")
				} else {
					fmt.Printf("All checks passed. %s\n", version.String())
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkConfig loads and validates the layered configuration. The
// loaded config feeds the later checks.
func checkConfig() (*config.Config, CheckResult) {
	cfg, err := config.Load()
	if err != nil {
		return nil, CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: "  " + err.Error(),
		}
	}
	if cfg.Exist() {
		return cfg, CheckResult{Name: "Config", Status: "✓"}
	}
	return cfg, CheckResult{
		Name:    "Config",
		Status:  "⚠",
		Details: fmt.Sprintf("  No config file at %s (defaults in effect)\n  Environment overrides still apply", cfg.ConfigPath()),
	}
}

// checkDataDir verifies the data directory exists and is writable.
func checkDataDir(cfg *config.Config) CheckResult {
	if err := os.MkdirAll(cfg.DataPath, os.ModePerm); err != nil {
		return CheckResult{
			Name:    "Data Dir",
			Status:  "✗",
			Details: fmt.Sprintf("  Cannot create %s: %v", cfg.DataPath, err),
		}
	}

	probe := filepath.Join(cfg.DataPath, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{
			Name:    "Data Dir",
			Status:  "✗",
			Details: fmt.Sprintf("  %s is not writable: %v", cfg.DataPath, err),
		}
	}
	os.Remove(probe)

	return CheckResult{Name: "Data Dir", Status: "✓"}
}

// checkDatabase reports on the database file and its schema version
// without opening it through db.Open, so nothing migrates as a side
// effect of a health check.
func checkDatabase(cfg *config.Config) CheckResult {
	if _, err := os.Stat(cfg.DB.Path); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Database",
			Status:  "⚠",
			Details: fmt.Sprintf("  %s not found (created on first use)", cfg.DB.Path),
		}
	}

	conn, err := sql.Open("sqlite3", cfg.DB.Path)
	if err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  " + err.Error(),
		}
	}
	defer conn.Close()

	current, err := db.CurrentVersion(conn)
	if err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: fmt.Sprintf("  Cannot read schema version: %v", err),
		}
	}

	latest := db.LatestVersion()
	if current < latest {
		return CheckResult{
			Name:    "Database",
			Status:  "⚠",
			Details: fmt.Sprintf("  Schema at v%d, latest is v%d\n  Migrations run on the next command that opens the database", current, latest),
		}
	}

	return CheckResult{Name: "Database", Status: "✓"}
}

// checkSchema proves the SQLite driver and the schema SQL are sound by
// initializing a throwaway in-memory database.
func checkSchema() CheckResult {
	conn, err := db.OpenMemory()
	if err != nil {
		return CheckResult{
			Name:    "Schema",
			Status:  "✗",
			Details: "  " + err.Error(),
		}
	}
	conn.Close()
	return CheckResult{Name: "Schema", Status: "✓"}
}

// checkNotifications pings Redis when a URL is configured. Without one,
// notifications go to the log, which needs no check.
func checkNotifications(cmd *cobra.Command, cfg *config.Config) CheckResult {
	if cfg.Redis.URL == "" {
		return CheckResult{Name: "Notifications", Status: "✓"}
	}

	rdb, err := notify.NewRedisClient(cmd.Context(), cfg.Redis.URL)
	if err != nil {
		return CheckResult{
			Name:    "Notifications",
			Status:  "✗",
			Details: fmt.Sprintf("  Redis unreachable: %v\n  Unset UPKEEP_REDIS_URL to fall back to log notifications", err),
		}
	}
	rdb.Close()

	return CheckResult{Name: "Notifications", Status: "✓"}
}
