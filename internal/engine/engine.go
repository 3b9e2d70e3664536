package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/calsync/internal/calendar"
	"github.com/roach88/calsync/internal/config"
	"github.com/roach88/calsync/internal/state"
)

// Options controls one engine's reconciliation behavior.
type Options struct {
	// EventPrefix is prepended to every mirrored event title.
	EventPrefix string

	// SyncDescription copies the source description onto the mirror.
	SyncDescription bool

	// DeleteOnSourceDelete removes the mirror when the source event is
	// cancelled. When disabled, the sync record is left in place; the store
	// accumulates stale rows by design.
	DeleteOnSourceDelete bool

	// DryRun computes and reports actions without remote mutations or store
	// writes.
	DryRun bool

	// Now overrides the wall clock (for testing). Defaults to time.Now.
	Now func() time.Time

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Engine reconciles source calendars against one writable target calendar.
// It holds only transient snapshots during a run; the store owns all
// persistent records.
type Engine struct {
	client calendar.Client
	store  *state.Store
	target string
	opts   Options
	now    func() time.Time
	log    *slog.Logger
}

// New creates an engine writing to targetCalendarID.
func New(client calendar.Client, store *state.Store, targetCalendarID string, opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		client: client,
		store:  store,
		target: targetCalendarID,
		opts:   opts,
		now:    now,
		log:    log,
	}
}

// Reconcile processes each source calendar in order and returns the run
// report. Per-event and per-calendar failures are recorded in the report and
// never abort the run; a store error does abort it, and the report built so
// far is still returned alongside the error.
func (e *Engine) Reconcile(ctx context.Context, sources []config.SourceCalendar, w calendar.Window) (*Report, error) {
	rep := NewReport(w, e.opts.DryRun, e.now())
	defer func() { rep.FinishedAt = e.now() }()

	for _, src := range sources {
		cr := rep.addCalendar(src.ID, src.Name)

		events, err := e.client.ListEvents(ctx, src.ID, w)
		if err != nil {
			// Fatal for this calendar only; the others still run.
			cr.FetchError = err.Error()
			e.log.Error("fetch failed", "calendar", src.ID, "error", err)
			continue
		}
		e.log.Debug("fetched source events", "calendar", src.ID, "count", len(events), "window", w.String())

		for _, ev := range events {
			if err := e.processEvent(ctx, cr, ev); err != nil {
				return rep, err
			}
		}
	}

	return rep, nil
}

// processEvent decides and applies the action for one source event, then
// commits the matching store mutation. The returned error is non-nil only
// for store failures, which are fatal for the run.
func (e *Engine) processEvent(ctx context.Context, cr *CalendarReport, ev calendar.Event) error {
	rec, err := e.store.Get(ctx, ev.CalendarID, ev.ID)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}

	switch action := decide(rec, ev, e.opts.DeleteOnSourceDelete); action {
	case ActionSkip:
		cr.Skipped++
		e.log.Debug("skip", "calendar", ev.CalendarID, "event", ev.ID, "title", ev.Title)
		return nil

	case ActionCreate:
		if e.opts.DryRun {
			cr.Created++
			e.log.Info("would create event", "title", ev.Title, "start", ev.Start)
			return nil
		}
		targetID, err := e.client.CreateEvent(ctx, e.target, e.buildDraft(ev))
		if err != nil {
			cr.fail(ev, ActionCreate, err)
			e.log.Error("create failed", "event", ev.ID, "title", ev.Title, "error", err)
			return nil
		}
		if err := e.commit(ctx, ev, targetID); err != nil {
			return err
		}
		cr.Created++
		e.log.Info("created event", "title", ev.Title, "start", ev.Start)
		return nil

	case ActionUpdate:
		if e.opts.DryRun {
			cr.Updated++
			e.log.Info("would update event", "title", ev.Title, "start", ev.Start)
			return nil
		}
		if err := e.client.UpdateEvent(ctx, e.target, rec.TargetEventID, e.buildDraft(ev)); err != nil {
			cr.fail(ev, ActionUpdate, err)
			e.log.Error("update failed", "event", ev.ID, "title", ev.Title, "error", err)
			return nil
		}
		if err := e.commit(ctx, ev, rec.TargetEventID); err != nil {
			return err
		}
		cr.Updated++
		e.log.Info("updated event", "title", ev.Title, "start", ev.Start)
		return nil

	case ActionDelete:
		if e.opts.DryRun {
			cr.Deleted++
			e.log.Info("would delete event", "title", ev.Title, "target_event", rec.TargetEventID)
			return nil
		}
		if err := e.client.DeleteEvent(ctx, e.target, rec.TargetEventID); err != nil {
			cr.fail(ev, ActionDelete, err)
			e.log.Error("delete failed", "event", ev.ID, "title", ev.Title, "error", err)
			return nil
		}
		if err := e.store.Delete(ctx, ev.CalendarID, ev.ID); err != nil {
			return fmt.Errorf("state store: %w", err)
		}
		cr.Deleted++
		e.log.Info("deleted event", "title", ev.Title, "target_event", rec.TargetEventID)
		return nil

	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// decide is the reconciliation decision table. It is pure: the caller applies
// the action and commits the store mutation.
func decide(rec *state.SyncRecord, ev calendar.Event, deleteOnSourceDelete bool) Action {
	switch {
	case rec == nil && ev.Deleted:
		// Never mirrored and already cancelled: nothing to clean up.
		return ActionSkip
	case rec == nil:
		return ActionCreate
	case ev.Deleted && deleteOnSourceDelete:
		return ActionDelete
	case ev.Deleted:
		// Deletion handling disabled: leave the record stale.
		return ActionSkip
	case ev.UpdatedAt.After(rec.LastSourceUpdatedAt):
		return ActionUpdate
	default:
		// Equal timestamps are the common no-op; a regressed source
		// timestamp is treated the same rather than as an error.
		return ActionSkip
	}
}

// commit records a successful create or update. A failed commit is fatal:
// continuing without it would risk duplicate creation on the next run.
func (e *Engine) commit(ctx context.Context, ev calendar.Event, targetEventID string) error {
	rec := state.SyncRecord{
		SourceCalendarID:    ev.CalendarID,
		SourceEventID:       ev.ID,
		TargetCalendarID:    e.target,
		TargetEventID:       targetEventID,
		LastSyncedAt:        e.now(),
		LastSourceUpdatedAt: ev.UpdatedAt,
	}
	if err := e.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	return nil
}

// buildDraft maps a source event onto the writable target fields.
func (e *Engine) buildDraft(ev calendar.Event) calendar.Draft {
	d := calendar.Draft{
		Title: e.opts.EventPrefix + ev.Title,
		Start: ev.Start,
		End:   ev.End,
	}
	if e.opts.SyncDescription {
		d.Description = ev.Description
	}
	return d
}
