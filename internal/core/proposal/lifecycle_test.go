package proposal

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"accepted", StatusAccepted, false},
		{"declined", StatusDeclined, false},
		{"countered", StatusCountered, false},
		{"expired", StatusExpired, false},
		{"PENDING", "", true},
		{"open", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStatus(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to accepted", StatusPending, StatusAccepted, true},
		{"pending to declined", StatusPending, StatusDeclined, true},
		{"pending to countered", StatusPending, StatusCountered, true},
		{"pending to expired", StatusPending, StatusExpired, true},
		{"accepted is terminal", StatusAccepted, StatusPending, false},
		{"declined is terminal", StatusDeclined, StatusPending, false},
		{"countered never re-opens", StatusCountered, StatusPending, false},
		{"expired is terminal", StatusExpired, StatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransitionAllowed(tt.from, tt.to); got != tt.want {
				t.Errorf("IsTransitionAllowed(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestExpiresAt(t *testing.T) {
	got := ExpiresAt(testNow)
	want := testNow.Add(48 * time.Hour)

	if !got.Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", got, want)
	}
}

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		expiresAt time.Time
		want      Status
	}{
		{
			name:      "pending before deadline stays pending",
			status:    StatusPending,
			expiresAt: testNow.Add(time.Hour),
			want:      StatusPending,
		},
		{
			name:      "pending past deadline reads expired",
			status:    StatusPending,
			expiresAt: testNow.Add(-time.Second),
			want:      StatusExpired,
		},
		{
			name:      "deadline itself counts as expired",
			status:    StatusPending,
			expiresAt: testNow,
			want:      StatusExpired,
		},
		{
			name:      "accepted is untouched by the deadline",
			status:    StatusAccepted,
			expiresAt: testNow.Add(-time.Hour),
			want:      StatusAccepted,
		},
		{
			name:      "declined is untouched by the deadline",
			status:    StatusDeclined,
			expiresAt: testNow.Add(-time.Hour),
			want:      StatusDeclined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveStatus(tt.status, tt.expiresAt, testNow); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanModify(t *testing.T) {
	tests := []struct {
		name       string
		ctx        WriteContext
		wantOK     bool
		wantReason string
	}{
		{
			name: "pending and fresh",
			ctx: WriteContext{
				Status:    StatusPending,
				ExpiresAt: testNow.Add(47 * time.Hour),
				Now:       testNow,
			},
			wantOK: true,
		},
		{
			name: "pending past its deadline",
			ctx: WriteContext{
				Status:    StatusPending,
				ExpiresAt: testNow.Add(-time.Second),
				Now:       testNow,
			},
			wantOK:     false,
			wantReason: "proposal expired",
		},
		{
			name: "already flushed expired",
			ctx: WriteContext{
				Status:    StatusExpired,
				ExpiresAt: testNow.Add(-time.Hour),
				Now:       testNow,
			},
			wantOK:     false,
			wantReason: "proposal expired",
		},
		{
			name: "already accepted",
			ctx: WriteContext{
				Status:    StatusAccepted,
				ExpiresAt: testNow.Add(time.Hour),
				Now:       testNow,
			},
			wantOK:     false,
			wantReason: "proposal already accepted",
		},
		{
			name: "already declined",
			ctx: WriteContext{
				Status:    StatusDeclined,
				ExpiresAt: testNow.Add(time.Hour),
				Now:       testNow,
			},
			wantOK:     false,
			wantReason: "proposal already declined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanModify(tt.ctx)

			if got.OK != tt.wantOK {
				t.Errorf("CanModify() OK = %v, want %v", got.OK, tt.wantOK)
			}
			if !tt.wantOK && got.Reason != tt.wantReason {
				t.Errorf("CanModify() Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantOK && got.Error() != nil {
				t.Errorf("CanModify() Error() = %v, want nil", got.Error())
			}
		})
	}
}

func TestValidateSlots(t *testing.T) {
	window := func(startHour, hours int) SlotWindow {
		start := testNow.Add(time.Duration(startHour) * time.Hour)
		return SlotWindow{StartsAt: start, EndsAt: start.Add(time.Duration(hours) * time.Hour)}
	}

	tests := []struct {
		name       string
		slots      []SlotWindow
		wantOK     bool
		wantReason string
	}{
		{
			name:   "single slot",
			slots:  []SlotWindow{window(24, 2)},
			wantOK: true,
		},
		{
			name:   "three slots",
			slots:  []SlotWindow{window(24, 2), window(48, 2), window(72, 2)},
			wantOK: true,
		},
		{
			name:       "no slots",
			slots:      nil,
			wantOK:     false,
			wantReason: "a proposal needs between 1 and 3 slots (got 0)",
		},
		{
			name:       "four slots",
			slots:      []SlotWindow{window(24, 2), window(48, 2), window(72, 2), window(96, 2)},
			wantOK:     false,
			wantReason: "a proposal needs between 1 and 3 slots (got 4)",
		},
		{
			name: "zero-length window",
			slots: []SlotWindow{
				window(24, 2),
				{StartsAt: testNow, EndsAt: testNow},
			},
			wantOK:     false,
			wantReason: "slot 2 must end after it starts",
		},
		{
			name: "inverted window",
			slots: []SlotWindow{
				{StartsAt: testNow, EndsAt: testNow.Add(-time.Hour)},
			},
			wantOK:     false,
			wantReason: "slot 1 must end after it starts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateSlots(tt.slots)

			if got.OK != tt.wantOK {
				t.Errorf("ValidateSlots() OK = %v, want %v", got.OK, tt.wantOK)
			}
			if !tt.wantOK && got.Reason != tt.wantReason {
				t.Errorf("ValidateSlots() Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestApplySelection(t *testing.T) {
	slotIDs := []string{"slot-1", "slot-2", "slot-3"}

	got := ApplySelection(slotIDs, "slot-2")

	want := map[string]SlotStatus{
		"slot-1": SlotDeclined,
		"slot-2": SlotSelected,
		"slot-3": SlotDeclined,
	}

	for id, status := range want {
		if got[id] != status {
			t.Errorf("ApplySelection()[%s] = %q, want %q", id, got[id], status)
		}
	}
	if len(got) != len(want) {
		t.Errorf("ApplySelection() returned %d slots, want %d", len(got), len(want))
	}
}
