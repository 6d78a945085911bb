package proposal

import (
	"fmt"
	"time"
)

// Conflict reasons recorded on slots that clash with the contractor's
// own calendar. Conflicting slots stay visible to the tenant as
// deprioritized options; they are flagged, never hidden, and never
// abort proposal creation.
const (
	ConflictBlackout     = "falls in contractor blackout"
	ConflictOutsideHours = "outside contractor availability"
)

// AvailabilityWindow is a contractor's recurring weekly working window,
// expressed in minutes from midnight on one weekday.
type AvailabilityWindow struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// Blackout is a one-off unavailable date range, inclusive of both end
// dates.
type Blackout struct {
	StartsOn time.Time
	EndsOn   time.Time
	Reason   string
}

// SlotConflict describes whether and why a candidate window clashes
// with the contractor's calendar.
type SlotConflict struct {
	Conflicts bool
	Reason    string
}

// ClassifySlot checks one candidate window against the contractor's
// blackout ranges and recurring availability. Blackouts are checked
// first. A contractor with no availability rows has an unconstrained
// calendar, so only blackouts can conflict.
func ClassifySlot(slot SlotWindow, windows []AvailabilityWindow, blackouts []Blackout) SlotConflict {
	for _, b := range blackouts {
		if slotTouchesBlackout(slot, b) {
			reason := ConflictBlackout
			if b.Reason != "" {
				reason = fmt.Sprintf("%s (%s)", ConflictBlackout, b.Reason)
			}
			return SlotConflict{Conflicts: true, Reason: reason}
		}
	}

	if len(windows) == 0 {
		return SlotConflict{}
	}

	startMinute := slot.StartsAt.Hour()*60 + slot.StartsAt.Minute()
	endMinute := startMinute + int(slot.EndsAt.Sub(slot.StartsAt).Minutes())

	for _, w := range windows {
		if w.Weekday != slot.StartsAt.Weekday() {
			continue
		}
		if startMinute >= w.StartMinute && endMinute <= w.EndMinute {
			return SlotConflict{}
		}
	}

	return SlotConflict{Conflicts: true, Reason: ConflictOutsideHours}
}

// ClassifySlots classifies every slot in creation order.
func ClassifySlots(slots []SlotWindow, windows []AvailabilityWindow, blackouts []Blackout) []SlotConflict {
	conflicts := make([]SlotConflict, len(slots))
	for i, s := range slots {
		conflicts[i] = ClassifySlot(s, windows, blackouts)
	}
	return conflicts
}

// slotTouchesBlackout reports whether any calendar day the slot
// occupies falls inside the blackout range. A slot ending exactly at
// midnight occupies only the preceding day.
func slotTouchesBlackout(slot SlotWindow, b Blackout) bool {
	firstDay := dayOf(slot.StartsAt)
	lastDay := dayOf(slot.EndsAt)
	if slot.EndsAt.Equal(lastDay) {
		lastDay = lastDay.AddDate(0, 0, -1)
	}

	from := dayOf(b.StartsOn)
	until := dayOf(b.EndsOn)

	return !lastDay.Before(from) && !firstDay.After(until)
}

// dayOf truncates a timestamp to midnight in its own location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
