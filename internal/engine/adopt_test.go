package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calsync/internal/calendar"
	"github.com/roach88/calsync/internal/config"
	"github.com/roach88/calsync/internal/state"
)

func targetEvent(id, title string) calendar.Event {
	return calendar.Event{
		CalendarID: targetCal,
		ID:         id,
		Title:      title,
		Start:      baseTime.Add(24 * time.Hour),
		End:        baseTime.Add(25 * time.Hour),
	}
}

func TestAdopt_RecordsExistingMirror(t *testing.T) {
	eng, fake, store, _ := newTestEngine(t, Options{EventPrefix: "[sync] "})
	ctx := context.Background()

	fake.SetEvents(srcCalID, srcEvent("ev-1", "Standup", baseTime.Add(-time.Hour)))
	fake.SetEvents(targetCal, targetEvent("tgt-1", "[sync] Standup"))

	rep, err := eng.Adopt(ctx, sources, testWindow())
	require.NoError(t, err)
	require.Len(t, rep.Calendars, 1)
	assert.Equal(t, 1, rep.Calendars[0].Adopted)

	rec, err := store.Get(ctx, srcCalID, "ev-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "tgt-1", rec.TargetEventID)
	assert.Equal(t, 0, fake.MutationCount(), "adopt never mutates the remote")
}

func TestAdopt_SkipsAlreadyTracked(t *testing.T) {
	eng, fake, store, _ := newTestEngine(t, Options{EventPrefix: "[sync] "})
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, state.SyncRecord{
		SourceCalendarID: srcCalID,
		SourceEventID:    "ev-1",
		TargetCalendarID: targetCal,
		TargetEventID:    "tgt-1",
		LastSyncedAt:     baseTime,
	}))
	fake.SetEvents(srcCalID, srcEvent("ev-1", "Standup", baseTime.Add(-time.Hour)))
	fake.SetEvents(targetCal, targetEvent("tgt-1", "[sync] Standup"))

	rep, err := eng.Adopt(ctx, sources, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Calendars[0].AlreadyTracked)
	assert.Equal(t, 0, rep.Calendars[0].Adopted)
}

func TestAdopt_NoMatchingTargetEvent(t *testing.T) {
	eng, fake, store, _ := newTestEngine(t, Options{EventPrefix: "[sync] "})
	ctx := context.Background()

	fake.SetEvents(srcCalID, srcEvent("ev-1", "Standup", baseTime.Add(-time.Hour)))
	// Same title but no prefix: not a mirror of ours.
	fake.SetEvents(targetCal, targetEvent("tgt-1", "Standup"))

	rep, err := eng.Adopt(ctx, sources, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Calendars[0].NotFound)

	rec, err := store.Get(ctx, srcCalID, "ev-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAdopt_TargetAlreadyMappedToAnotherSource(t *testing.T) {
	eng, fake, store, _ := newTestEngine(t, Options{EventPrefix: "[sync] "})
	ctx := context.Background()

	// tgt-1 already belongs to a different source event.
	require.NoError(t, store.Upsert(ctx, state.SyncRecord{
		SourceCalendarID: srcCalID,
		SourceEventID:    "ev-other",
		TargetCalendarID: targetCal,
		TargetEventID:    "tgt-1",
		LastSyncedAt:     baseTime,
	}))
	fake.SetEvents(srcCalID, srcEvent("ev-1", "Standup", baseTime.Add(-time.Hour)))
	fake.SetEvents(targetCal, targetEvent("tgt-1", "[sync] Standup"))

	rep, err := eng.Adopt(ctx, sources, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Calendars[0].TargetAlreadyMapped)

	rec, err := store.Get(ctx, srcCalID, "ev-1")
	require.NoError(t, err)
	assert.Nil(t, rec, "a target event is never mapped twice")
}

func TestAdopt_DryRun(t *testing.T) {
	eng, fake, store, _ := newTestEngine(t, Options{EventPrefix: "[sync] ", DryRun: true})
	ctx := context.Background()

	fake.SetEvents(srcCalID, srcEvent("ev-1", "Standup", baseTime.Add(-time.Hour)))
	fake.SetEvents(targetCal, targetEvent("tgt-1", "[sync] Standup"))

	rep, err := eng.Adopt(ctx, sources, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Calendars[0].Adopted)

	rec, err := store.Get(ctx, srcCalID, "ev-1")
	require.NoError(t, err)
	assert.Nil(t, rec, "dry run must not write the store")
}

func TestAdopt_TargetFetchFailureIsFatal(t *testing.T) {
	eng, fake, _, _ := newTestEngine(t, Options{})
	fake.ListErr[targetCal] = &calendar.TransientError{Op: "list events", Err: context.DeadlineExceeded}

	_, err := eng.Adopt(context.Background(), sources, testWindow())
	require.Error(t, err, "without the target listing nothing can be matched")
}

func TestAdopt_SourceFetchFailureIsolated(t *testing.T) {
	eng, fake, store, _ := newTestEngine(t, Options{EventPrefix: "[sync] "})
	multi := []config.SourceCalendar{
		{ID: "broken@example.com", Name: "Broken"},
		{ID: srcCalID, Name: "Team"},
	}
	fake.ListErr["broken@example.com"] = &calendar.TransientError{Op: "list events", Err: context.DeadlineExceeded}
	fake.SetEvents(srcCalID, srcEvent("ev-1", "Standup", baseTime.Add(-time.Hour)))
	fake.SetEvents(targetCal, targetEvent("tgt-1", "[sync] Standup"))

	rep, err := eng.Adopt(context.Background(), multi, testWindow())
	require.NoError(t, err)
	require.Len(t, rep.Calendars, 2)
	assert.NotEmpty(t, rep.Calendars[0].FetchError)
	assert.Equal(t, 1, rep.Calendars[1].Adopted)
	assert.True(t, rep.HasFailures())

	rec, err := store.Get(context.Background(), srcCalID, "ev-1")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
