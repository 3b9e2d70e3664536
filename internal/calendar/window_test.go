package calendar

import (
	"testing"
	"time"
)

func TestWindow_Contains(t *testing.T) {
	start := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 24, 0, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: end}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"inside", start.Add(24 * time.Hour), true},
		{"exactly at start", start, true},
		{"just before start", start.Add(-time.Nanosecond), false},
		{"exactly at end", end, true},
		{"just after end", end.Add(time.Nanosecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestWindow_String(t *testing.T) {
	w := Window{
		Start: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 11, 24, 0, 0, 0, 0, time.UTC),
	}
	want := "[2026-08-19T00:00:00Z .. 2026-11-24T00:00:00Z]"
	if got := w.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
