package calendar

import "encoding/json"

// legacyNotes matches the historical free-text notes payload that
// embedded time preferences as ad-hoc JSON.
type legacyNotes struct {
	TimePreferences *struct {
		Hour     int `json:"hour"`
		Minute   int `json:"minute"`
		Duration int `json:"durationMinutes"`
	} `json:"timePreferences"`
}

// ParseLegacyPreference extracts a time preference from a legacy notes
// payload. Preferences now live in structured columns decoded once at
// write time; this helper exists only for importing old rows, never on
// a read path. It returns false unless the notes are well-formed JSON
// carrying a timePreferences object with a plausible time of day. A
// missing or non-positive duration falls back to the default.
func ParseLegacyPreference(notes string) (TimePreference, bool) {
	if notes == "" {
		return TimePreference{}, false
	}

	var payload legacyNotes
	if err := json.Unmarshal([]byte(notes), &payload); err != nil {
		return TimePreference{}, false
	}
	if payload.TimePreferences == nil {
		return TimePreference{}, false
	}

	tp := payload.TimePreferences
	if tp.Hour < 0 || tp.Hour > 23 || tp.Minute < 0 || tp.Minute > 59 {
		return TimePreference{}, false
	}

	duration := tp.Duration
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}

	return TimePreference{
		StartMinute:     tp.Hour*60 + tp.Minute,
		DurationMinutes: duration,
	}, true
}
