package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/calsync/internal/calendar"
	"github.com/roach88/calsync/internal/config"
)

// AdoptCalendarReport aggregates the adopt outcome for one source calendar.
type AdoptCalendarReport struct {
	CalendarID string `json:"calendar_id"`
	Name       string `json:"name,omitempty"`

	// Adopted counts newly recorded mappings.
	Adopted int `json:"adopted"`
	// AlreadyTracked counts source events that already had a sync record.
	AlreadyTracked int `json:"already_tracked"`
	// NotFound counts source events with no matching target event.
	NotFound int `json:"not_found"`
	// TargetAlreadyMapped counts matches whose target event is already
	// recorded for a different source event.
	TargetAlreadyMapped int `json:"target_already_mapped"`

	FetchError string `json:"fetch_error,omitempty"`
}

// AdoptReport is the outcome of one adopt run.
type AdoptReport struct {
	DryRun    bool                   `json:"dry_run"`
	Window    calendar.Window        `json:"window"`
	Calendars []*AdoptCalendarReport `json:"calendars"`
}

// HasFailures reports whether any source calendar could not be fetched.
func (r *AdoptReport) HasFailures() bool {
	for _, cr := range r.Calendars {
		if cr.FetchError != "" {
			return true
		}
	}
	return false
}

// Summary renders the human-readable adopt outcome.
func (r *AdoptReport) Summary() string {
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
		fmt.Fprintf(&b, "Adopted=%d AlreadyTracked=%d NotFoundInTarget=%d TargetAlreadyMapped=%d Calendar=%q ID=%s\n",
			cr.Adopted, cr.AlreadyTracked, cr.NotFound, cr.TargetAlreadyMapped, name, cr.CalendarID)
	}
	return b.String()
}

// eventKey matches a source event to its expected mirror: prefixed title plus
// start and end instants normalized to UTC.
type eventKey struct {
	title      string
	start, end int64
}

func makeKey(title string, start, end time.Time) eventKey {
	return eventKey{title: title, start: start.UTC().Unix(), end: end.UTC().Unix()}
}

// Adopt records sync records for target events that already mirror source
// events but are not yet tracked, so a later sync does not create duplicates.
// Useful when the state database is fresh but the target calendar is not.
//
// Matching is by (prefixed title, start, end). Source events already tracked
// are skipped, as are target events already mapped to another source event.
func (e *Engine) Adopt(ctx context.Context, sources []config.SourceCalendar, w calendar.Window) (*AdoptReport, error) {
	rep := &AdoptReport{DryRun: e.opts.DryRun, Window: w}

	// One target fetch serves every source calendar: same window, same run.
	targetEvents, err := e.client.ListEvents(ctx, e.target, w)
	if err != nil {
		return rep, fmt.Errorf("fetch target calendar %s: %w", e.target, err)
	}
	targets := make(map[eventKey]calendar.Event, len(targetEvents))
	for _, tev := range targetEvents {
		if tev.Deleted || tev.Title == "" {
			continue
		}
		targets[makeKey(tev.Title, tev.Start, tev.End)] = tev
	}

	for _, src := range sources {
		cr := &AdoptCalendarReport{CalendarID: src.ID, Name: src.Name}
		rep.Calendars = append(rep.Calendars, cr)

		events, err := e.client.ListEvents(ctx, src.ID, w)
		if err != nil {
			cr.FetchError = err.Error()
			e.log.Error("fetch failed", "calendar", src.ID, "error", err)
			continue
		}

		for _, ev := range events {
			if ev.Deleted {
				continue
			}

			rec, err := e.store.Get(ctx, ev.CalendarID, ev.ID)
			if err != nil {
				return rep, fmt.Errorf("state store: %w", err)
			}
			if rec != nil {
				cr.AlreadyTracked++
				continue
			}

			draft := e.buildDraft(ev)
			tev, ok := targets[makeKey(draft.Title, draft.Start, draft.End)]
			if !ok {
				cr.NotFound++
				continue
			}

			existing, err := e.store.FindByTarget(ctx, tev.ID)
			if err != nil {
				return rep, fmt.Errorf("state store: %w", err)
			}
			if existing != nil {
				cr.TargetAlreadyMapped++
				continue
			}

			if e.opts.DryRun {
				cr.Adopted++
				e.log.Info("would adopt event", "title", ev.Title, "target_event", tev.ID)
				continue
			}
			if err := e.commit(ctx, ev, tev.ID); err != nil {
				return rep, err
			}
			cr.Adopted++
			e.log.Info("adopted event", "title", ev.Title, "target_event", tev.ID)
		}
	}

	return rep, nil
}
