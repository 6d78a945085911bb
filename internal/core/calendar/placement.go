// Package calendar contains the pure placement arithmetic for the
// day-based schedule view: half-open day overlap tests and the
// duration-preserving reschedule computation. This is part of the
// functional core - no I/O, only pure functions.
//
// Day boundaries are computed in the timestamp's own location; callers
// pass organization-local times when local day attribution matters.
package calendar

import "time"

// Defaults for a never-scheduled timed job with no stored preference.
const (
	DefaultStartMinute     = 8 * 60 // 08:00
	DefaultDurationMinutes = 120
)

// Interval is a scheduled time range. A zero End means the job was
// stored without an end timestamp; overlap tests fall back to Start.
type Interval struct {
	Start time.Time
	End   time.Time
}

// effectiveEnd returns End, or Start when no end was stored.
func (iv Interval) effectiveEnd() time.Time {
	if iv.End.IsZero() {
		return iv.Start
	}
	return iv.End
}

// Duration returns the exact length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.effectiveEnd().Sub(iv.Start)
}

// StartOfDay returns midnight of t's calendar day, the inclusive start
// boundary.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the next midnight after t, the exclusive end
// boundary of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// OnDay reports whether the interval occupies any part of day's
// calendar day: start <= dayEnd AND end > dayStart, with the day
// boundaries half-open. A job ending exactly at midnight belongs to the
// day it occupies, not the following one.
func OnDay(iv Interval, day time.Time) bool {
	dayStart := StartOfDay(day)
	dayEnd := EndOfDay(day)

	return !iv.Start.After(dayEnd) && iv.effectiveEnd().After(dayStart)
}

// TimePreference is the structured start preference carried by a job
// that has never been scheduled: minutes from midnight plus a duration.
type TimePreference struct {
	StartMinute     int
	DurationMinutes int
}

// RescheduleInput carries the facts needed to compute a job's new
// interval when it moves to another day.
type RescheduleInput struct {
	Scheduled    bool     // job currently has a start timestamp
	Current      Interval // only meaningful when Scheduled
	IsAllDay     bool
	DurationDays int             // all-day span in days, minimum 1
	Preference   *TimePreference // optional, consulted for never-scheduled timed jobs
}

// Reschedule computes the interval a job lands on when placed onto
// targetDay.
//
// Never-scheduled all-day jobs span DurationDays full days from the
// target day's midnight. Never-scheduled timed jobs start at their
// stored preference, or at 08:00 for 120 minutes without one. An
// already-scheduled job keeps its exact time-of-day offset from its own
// day's midnight and its exact duration, computed with time.Time
// arithmetic rather than rebuilt from hour/minute fields, so repeated
// moves never drift.
func Reschedule(in RescheduleInput, targetDay time.Time) Interval {
	dayStart := StartOfDay(targetDay)

	if !in.Scheduled {
		if in.IsAllDay {
			days := in.DurationDays
			if days < 1 {
				days = 1
			}
			return Interval{Start: dayStart, End: dayStart.AddDate(0, 0, days)}
		}

		startMinute := DefaultStartMinute
		durationMinutes := DefaultDurationMinutes
		if in.Preference != nil {
			startMinute = in.Preference.StartMinute
			durationMinutes = in.Preference.DurationMinutes
		}

		start := dayStart.Add(time.Duration(startMinute) * time.Minute)
		return Interval{
			Start: start,
			End:   start.Add(time.Duration(durationMinutes) * time.Minute),
		}
	}

	offset := in.Current.Start.Sub(StartOfDay(in.Current.Start))
	duration := in.Current.Duration()

	start := dayStart.Add(offset)
	return Interval{Start: start, End: start.Add(duration)}
}
