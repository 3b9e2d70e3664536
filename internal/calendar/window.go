package calendar

import (
	"fmt"
	"time"
)

// Window is the time range of events considered during one run. It is
// computed once per run and shared by every source calendar in that run.
//
// Membership is judged on the event's start time: the window includes events
// starting at any instant from Start through End inclusive. An event starting
// even one nanosecond after End is outside the window.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether an event starting at t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s .. %s]",
		w.Start.UTC().Format(time.RFC3339),
		w.End.UTC().Format(time.RFC3339))
}
