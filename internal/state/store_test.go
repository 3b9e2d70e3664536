package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(srcCal, srcEvent, target string) SyncRecord {
	return SyncRecord{
		SourceCalendarID:    srcCal,
		SourceEventID:       srcEvent,
		TargetCalendarID:    "target@example.com",
		TargetEventID:       target,
		LastSyncedAt:        time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		LastSourceUpdatedAt: time.Date(2026, 8, 19, 9, 30, 0, 0, time.UTC),
	}
}

func TestOpen_CreatesDatabaseAndParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestGet_AbsentReturnsNil(t *testing.T) {
	s := createTestStore(t)

	rec, err := s.Get(context.Background(), "cal-1", "ev-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Get() on empty store = %+v, want nil", rec)
	}
}

func TestUpsert_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := testRecord("cal-1", "ev-1", "tgt-1")

	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, "cal-1", "ev-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil after Upsert")
	}
	if *got != want {
		t.Errorf("Get() = %+v, want %+v", *got, want)
	}
}

func TestUpsert_OverwritesByPrimaryKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := testRecord("cal-1", "ev-1", "tgt-1")
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert() failed: %v", err)
	}

	second := first
	second.TargetEventID = "tgt-2"
	second.LastSourceUpdatedAt = second.LastSourceUpdatedAt.Add(time.Hour)
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, "cal-1", "ev-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TargetEventID != "tgt-2" {
		t.Errorf("TargetEventID = %q, want tgt-2", got.TargetEventID)
	}

	// Overwrite must not leave a second row behind.
	n, err := s.CountBySource(ctx, "cal-1")
	if err != nil {
		t.Fatalf("CountBySource() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountBySource() = %d, want 1", n)
	}
}

func TestUpsert_ZeroSourceUpdatedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := testRecord("cal-1", "ev-1", "tgt-1")
	rec.LastSourceUpdatedAt = time.Time{}
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, "cal-1", "ev-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !got.LastSourceUpdatedAt.IsZero() {
		t.Errorf("LastSourceUpdatedAt = %v, want zero", got.LastSourceUpdatedAt)
	}
}

func TestDelete_RemovesRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("cal-1", "ev-1", "tgt-1")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Delete(ctx, "cal-1", "ev-1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	rec, err := s.Get(ctx, "cal-1", "ev-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Get() after Delete = %+v, want nil", rec)
	}
}

func TestDelete_AbsentIsNotAnError(t *testing.T) {
	s := createTestStore(t)

	if err := s.Delete(context.Background(), "cal-1", "no-such-event"); err != nil {
		t.Errorf("Delete() of absent record failed: %v", err)
	}
}

func TestFindByTarget(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("cal-1", "ev-1", "tgt-1")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	got, err := s.FindByTarget(ctx, "tgt-1")
	if err != nil {
		t.Fatalf("FindByTarget() failed: %v", err)
	}
	if got == nil || got.SourceEventID != "ev-1" {
		t.Errorf("FindByTarget() = %+v, want record for ev-1", got)
	}

	missing, err := s.FindByTarget(ctx, "tgt-unknown")
	if err != nil {
		t.Fatalf("FindByTarget() failed: %v", err)
	}
	if missing != nil {
		t.Errorf("FindByTarget() of unknown target = %+v, want nil", missing)
	}
}

func TestWrites_SurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	want := testRecord("cal-1", "ev-1", "tgt-1")
	if err := s1.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "cal-1", "ev-1")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("Get() after reopen = %+v, want %+v", got, want)
	}
}
