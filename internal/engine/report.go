package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/calsync/internal/calendar"
)

// Action is the reconciliation decision for one source event.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSkip   Action = "skip"
)

// Counts aggregates per-action totals.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

func (c *Counts) add(o Counts) {
	c.Created += o.Created
	c.Updated += o.Updated
	c.Deleted += o.Deleted
	c.Skipped += o.Skipped
}

// EventFailure records one event whose remote call failed.
type EventFailure struct {
	SourceCalendarID string `json:"source_calendar_id"`
	SourceEventID    string `json:"source_event_id"`
	Title            string `json:"title,omitempty"`
	Action           Action `json:"action"`
	Error            string `json:"error"`
}

// CalendarReport aggregates the outcome for one source calendar.
type CalendarReport struct {
	CalendarID string `json:"calendar_id"`
	Name       string `json:"name,omitempty"`
	Counts
	Failures []EventFailure `json:"failures,omitempty"`

	// FetchError is set when listing the calendar's events failed; no
	// per-event processing happened for this calendar.
	FetchError string `json:"fetch_error,omitempty"`
}

func (cr *CalendarReport) fail(ev calendar.Event, action Action, err error) {
	cr.Failures = append(cr.Failures, EventFailure{
		SourceCalendarID: ev.CalendarID,
		SourceEventID:    ev.ID,
		Title:            ev.Title,
		Action:           action,
		Error:            err.Error(),
	})
}

// Report is the aggregated outcome of one run. It is always produced, even
// when the run partially failed, and drives exit status and failure
// notification.
type Report struct {
	RunID      string            `json:"run_id"`
	DryRun     bool              `json:"dry_run"`
	Window     calendar.Window   `json:"window"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Calendars  []*CalendarReport `json:"calendars"`
}

// NewReport creates an empty report stamped with a fresh UUIDv7 run ID.
func NewReport(w calendar.Window, dryRun bool, startedAt time.Time) *Report {
	return &Report{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		DryRun:    dryRun,
		Window:    w,
		StartedAt: startedAt,
	}
}

func (r *Report) addCalendar(id, name string) *CalendarReport {
	cr := &CalendarReport{CalendarID: id, Name: name}
	r.Calendars = append(r.Calendars, cr)
	return cr
}

// Totals sums the per-calendar counts.
func (r *Report) Totals() Counts {
	var total Counts
	for _, cr := range r.Calendars {
		total.add(cr.Counts)
	}
	return total
}

// HasFailures reports whether any calendar fetch or per-event action failed.
func (r *Report) HasFailures() bool {
	for _, cr := range r.Calendars {
		if cr.FetchError != "" || len(cr.Failures) > 0 {
			return true
		}
	}
	return false
}

// Summary renders the human-readable run outcome: one stats line per
// calendar, failure details, and a total line.
func (r *Report) Summary() string {
	var b strings.Builder

	if r.DryRun {
		b.WriteString("*** dry run - no changes were made ***\n")
	}

	for _, cr := range r.Calendars {
		name := cr.Name
		if name == "" {
			name = cr.CalendarID
		}

		if cr.FetchError != "" {
			fmt.Fprintf(&b, "fetch failed Calendar=%q ID=%s: %s\n", name, cr.CalendarID, cr.FetchError)
			continue
		}

		fmt.Fprintf(&b, "%s Calendar=%q ID=%s\n", formatCounts(cr.Counts), name, cr.CalendarID)
		for _, f := range cr.Failures {
			fmt.Fprintf(&b, "  failed to %s %q (%s): %s\n", f.Action, f.Title, f.SourceEventID, f.Error)
		}
	}

	total := r.Totals()
	fmt.Fprintf(&b, "Total: Created=%d Updated=%d Deleted=%d Skipped=%d Failed=%d\n",
		total.Created, total.Updated, total.Deleted, total.Skipped, r.failureCount())
	return b.String()
}

// FailureSummary renders only the failures, for notification dispatch.
// Empty when the run succeeded.
func (r *Report) FailureSummary() string {
	var b strings.Builder
	for _, cr := range r.Calendars {
		name := cr.Name
		if name == "" {
			name = cr.CalendarID
		}
		if cr.FetchError != "" {
			fmt.Fprintf(&b, "calendar %q: fetch failed: %s\n", name, cr.FetchError)
		}
		for _, f := range cr.Failures {
			fmt.Fprintf(&b, "calendar %q: %s %q: %s\n", name, f.Action, f.Title, f.Error)
		}
	}
	return b.String()
}

func (r *Report) failureCount() int {
	n := 0
	for _, cr := range r.Calendars {
		n += len(cr.Failures)
		if cr.FetchError != "" {
			n++
		}
	}
	return n
}

// formatCounts renders non-zero counters in a fixed order, or a placeholder
// when nothing happened.
func formatCounts(c Counts) string {
	var parts []string
	if c.Created > 0 {
		parts = append(parts, fmt.Sprintf("Created=%d", c.Created))
	}
	if c.Updated > 0 {
		parts = append(parts, fmt.Sprintf("Updated=%d", c.Updated))
	}
	if c.Deleted > 0 {
		parts = append(parts, fmt.Sprintf("Deleted=%d", c.Deleted))
	}
	if c.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("Skipped=%d", c.Skipped))
	}
	if len(parts) == 0 {
		return "<no entries>"
	}
	return strings.Join(parts, " ")
}
