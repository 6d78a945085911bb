package calendar

import (
	"testing"
	"time"
)

func at(day, hour, min int) time.Time {
	return time.Date(2026, time.August, day, hour, min, 0, 0, time.UTC)
}

func TestOnDay(t *testing.T) {
	tests := []struct {
		name string
		iv   Interval
		day  time.Time
		want bool
	}{
		{
			name: "job inside the day",
			iv:   Interval{Start: at(10, 9, 0), End: at(10, 11, 0)},
			day:  at(10, 0, 0),
			want: true,
		},
		{
			name: "job on another day",
			iv:   Interval{Start: at(10, 9, 0), End: at(10, 11, 0)},
			day:  at(12, 0, 0),
			want: false,
		},
		{
			name: "ends exactly at midnight belongs to the day it occupies",
			iv:   Interval{Start: at(10, 9, 0), End: at(11, 0, 0)},
			day:  at(10, 0, 0),
			want: true,
		},
		{
			name: "ends exactly at midnight does not reach the next day",
			iv:   Interval{Start: at(10, 9, 0), End: at(11, 0, 0)},
			day:  at(11, 0, 0),
			want: false,
		},
		{
			name: "multi-day job appears on the middle day",
			iv:   Interval{Start: at(10, 9, 0), End: at(13, 17, 0)},
			day:  at(11, 0, 0),
			want: true,
		},
		{
			name: "no end stored falls back to the start",
			iv:   Interval{Start: at(10, 9, 0)},
			day:  at(10, 0, 0),
			want: true,
		},
		{
			name: "no end stored is absent from the next day",
			iv:   Interval{Start: at(10, 9, 0)},
			day:  at(11, 0, 0),
			want: false,
		},
		{
			name: "day reference can be any time within the day",
			iv:   Interval{Start: at(10, 9, 0), End: at(10, 11, 0)},
			day:  at(10, 16, 45),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OnDay(tt.iv, tt.day); got != tt.want {
				t.Errorf("OnDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReschedule_AlreadyScheduled(t *testing.T) {
	// Mon 14:00-15:30 moved to Thursday keeps 14:00-15:30.
	mon := Interval{Start: at(24, 14, 0), End: at(24, 15, 30)}

	got := Reschedule(RescheduleInput{Scheduled: true, Current: mon}, at(27, 0, 0))

	if !got.Start.Equal(at(27, 14, 0)) {
		t.Errorf("Reschedule() Start = %v, want %v", got.Start, at(27, 14, 0))
	}
	if !got.End.Equal(at(27, 15, 30)) {
		t.Errorf("Reschedule() End = %v, want %v", got.End, at(27, 15, 30))
	}
	if got.Duration() != 90*time.Minute {
		t.Errorf("Reschedule() duration = %v, want 90m", got.Duration())
	}
}

func TestReschedule_RoundTripDoesNotDrift(t *testing.T) {
	orig := Interval{Start: at(24, 14, 0), End: at(24, 15, 30)}

	moved := Reschedule(RescheduleInput{Scheduled: true, Current: orig}, at(27, 0, 0))
	back := Reschedule(RescheduleInput{Scheduled: true, Current: moved}, at(24, 0, 0))

	if !back.Start.Equal(orig.Start) || !back.End.Equal(orig.End) {
		t.Errorf("round trip = [%v, %v], want [%v, %v]", back.Start, back.End, orig.Start, orig.End)
	}
}

func TestReschedule_PreservesSubMinutePrecision(t *testing.T) {
	start := time.Date(2026, time.August, 24, 14, 0, 12, 345_000_000, time.UTC)
	orig := Interval{Start: start, End: start.Add(90*time.Minute + 7*time.Second)}

	got := Reschedule(RescheduleInput{Scheduled: true, Current: orig}, at(27, 0, 0))

	wantStart := time.Date(2026, time.August, 27, 14, 0, 12, 345_000_000, time.UTC)
	if !got.Start.Equal(wantStart) {
		t.Errorf("Reschedule() Start = %v, want %v", got.Start, wantStart)
	}
	if got.Duration() != orig.Duration() {
		t.Errorf("Reschedule() duration = %v, want %v", got.Duration(), orig.Duration())
	}
}

func TestReschedule_NeverScheduled(t *testing.T) {
	tests := []struct {
		name      string
		in        RescheduleInput
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "all-day spans the full target day",
			in:        RescheduleInput{IsAllDay: true},
			wantStart: at(27, 0, 0),
			wantEnd:   at(28, 0, 0),
		},
		{
			name:      "multi-day all-day spans its full duration",
			in:        RescheduleInput{IsAllDay: true, DurationDays: 3},
			wantStart: at(27, 0, 0),
			wantEnd:   at(30, 0, 0),
		},
		{
			name:      "timed without preference defaults to 08:00 for two hours",
			in:        RescheduleInput{},
			wantStart: at(27, 8, 0),
			wantEnd:   at(27, 10, 0),
		},
		{
			name: "stored preference is honored",
			in: RescheduleInput{
				Preference: &TimePreference{StartMinute: 13*60 + 30, DurationMinutes: 45},
			},
			wantStart: at(27, 13, 30),
			wantEnd:   at(27, 14, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reschedule(tt.in, at(27, 0, 0))

			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("Reschedule() Start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd) {
				t.Errorf("Reschedule() End = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

func TestReschedule_KeepsLocation(t *testing.T) {
	zone := time.FixedZone("ORG", 2*60*60)
	orig := Interval{
		Start: time.Date(2026, time.August, 24, 14, 0, 0, 0, zone),
		End:   time.Date(2026, time.August, 24, 15, 30, 0, 0, zone),
	}
	target := time.Date(2026, time.August, 27, 0, 0, 0, 0, zone)

	got := Reschedule(RescheduleInput{Scheduled: true, Current: orig}, target)

	if got.Start.Location() != zone {
		t.Errorf("Reschedule() location = %v, want %v", got.Start.Location(), zone)
	}
	if got.Start.Hour() != 14 || got.Start.Minute() != 0 {
		t.Errorf("Reschedule() local start = %02d:%02d, want 14:00", got.Start.Hour(), got.Start.Minute())
	}
}

func TestStartOfDayEndOfDay(t *testing.T) {
	ts := at(24, 16, 45)

	if got := StartOfDay(ts); !got.Equal(at(24, 0, 0)) {
		t.Errorf("StartOfDay() = %v, want %v", got, at(24, 0, 0))
	}
	if got := EndOfDay(ts); !got.Equal(at(25, 0, 0)) {
		t.Errorf("EndOfDay() = %v, want %v", got, at(25, 0, 0))
	}
}
