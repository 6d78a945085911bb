package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/example/upkeep/internal/ctxutil"
	"github.com/example/upkeep/internal/wire"
)

// dayFormat is how days are written on the command line.
const dayFormat = "2006-01-02"

// timeFormat is how timestamps are shown to people.
const timeFormat = "2006-01-02 15:04"

var (
	appOnce sync.Once
	appInst *wire.App
	appErr  error
)

// application assembles the app once per process. Every command shares
// the same database handle and services.
func application(ctx context.Context) (*wire.App, error) {
	appOnce.Do(func() {
		appInst, appErr = wire.New(ctx)
	})
	return appInst, appErr
}

// actorContext embeds the acting user so audit entries and
// notifications carry who did it.
func actorContext(ctx context.Context, userID, role string) context.Context {
	if userID == "" {
		return ctx
	}
	return ctxutil.WithActor(ctx, ctxutil.Actor{UserID: userID, Role: role})
}

// parseDay parses a calendar day argument.
func parseDay(s string) (time.Time, error) {
	day, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (want %s)", s, dayFormat)
	}
	return day, nil
}

// formatMoney renders cents as dollars.
func formatMoney(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// jobStatusColored renders a job status with its usual color.
func jobStatusColored(status string) string {
	switch status {
	case "New":
		return color.New(color.FgHiCyan).Sprint(status)
	case "In Review":
		return color.New(color.FgYellow).Sprint(status)
	case "Scheduled", "In Progress":
		return color.New(color.FgHiBlue).Sprint(status)
	case "On Hold":
		return color.New(color.FgMagenta).Sprint(status)
	case "Resolved":
		return color.New(color.FgHiGreen).Sprint(status)
	case "Closed":
		return color.New(color.FgHiBlack).Sprint(status)
	}
	return status
}

// scheduleStatusColored renders a calendar entry status with its usual
// color.
func scheduleStatusColored(status string) string {
	switch status {
	case "Unscheduled":
		return color.New(color.FgHiBlack).Sprint(status)
	case "Scheduled":
		return color.New(color.FgHiBlue).Sprint(status)
	case "Needs Review":
		return color.New(color.FgYellow).Sprint(status)
	case "Confirmed":
		return color.New(color.FgHiGreen).Sprint(status)
	case "In Progress":
		return color.New(color.FgCyan).Sprint(status)
	case "Completed":
		return color.New(color.FgGreen).Sprint(status)
	case "Cancelled":
		return color.New(color.FgRed).Sprint(status)
	}
	return status
}

// proposalStatusColored renders a proposal status with its usual color.
func proposalStatusColored(status string) string {
	switch status {
	case "pending":
		return color.New(color.FgYellow).Sprint(status)
	case "accepted":
		return color.New(color.FgHiGreen).Sprint(status)
	case "declined":
		return color.New(color.FgRed).Sprint(status)
	case "countered":
		return color.New(color.FgMagenta).Sprint(status)
	case "expired":
		return color.New(color.FgHiBlack).Sprint(status)
	}
	return status
}
