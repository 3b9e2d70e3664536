package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/calsync/internal/calendar"
)

// FakeClient is an in-memory calendar.Client. Source calendars are seeded
// with SetEvents; target-side mutations land in created/updated/deleted maps
// the test can inspect. Errors can be injected per operation.
type FakeClient struct {
	mu sync.Mutex

	events map[string][]calendar.Event // calendarID -> fetch result
	infos  []calendar.Info

	nextID  int
	created map[string]calendar.Draft // targetEventID -> draft
	updated map[string]calendar.Draft
	deleted map[string]bool

	// ListErr fails ListEvents for the given calendarID.
	ListErr map[string]error
	// CreateErr / UpdateErr / DeleteErr fail the next matching call. Keyed
	// by source title for creates and by target event ID otherwise.
	CreateErr map[string]error
	UpdateErr map[string]error
	DeleteErr map[string]error

	// Calls records operations in order, for ordering assertions.
	Calls []string
}

// NewFakeClient returns an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		events:    make(map[string][]calendar.Event),
		created:   make(map[string]calendar.Draft),
		updated:   make(map[string]calendar.Draft),
		deleted:   make(map[string]bool),
		ListErr:   make(map[string]error),
		CreateErr: make(map[string]error),
		UpdateErr: make(map[string]error),
		DeleteErr: make(map[string]error),
	}
}

// SetEvents seeds the fetch result for calendarID.
func (f *FakeClient) SetEvents(calendarID string, events ...calendar.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[calendarID] = events
}

// SetCalendars seeds the ListCalendars result.
func (f *FakeClient) SetCalendars(infos ...calendar.Info) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = infos
}

func (f *FakeClient) ListEvents(_ context.Context, calendarID string, w calendar.Window) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "list "+calendarID)

	if err := f.ListErr[calendarID]; err != nil {
		return nil, err
	}

	var out []calendar.Event
	for _, ev := range f.events[calendarID] {
		// Cancelled events may carry no start time; report them regardless,
		// matching remote behavior.
		if ev.Deleted || w.Contains(ev.Start) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *FakeClient) CreateEvent(_ context.Context, calendarID string, d calendar.Draft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "create "+d.Title)

	if err := f.CreateErr[d.Title]; err != nil {
		return "", err
	}

	f.nextID++
	id := fmt.Sprintf("target-%d", f.nextID)
	f.created[id] = d
	return id, nil
}

func (f *FakeClient) UpdateEvent(_ context.Context, calendarID, eventID string, d calendar.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "update "+eventID)

	if err := f.UpdateErr[eventID]; err != nil {
		return err
	}
	f.updated[eventID] = d
	return nil
}

func (f *FakeClient) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "delete "+eventID)

	if err := f.DeleteErr[eventID]; err != nil {
		return err
	}
	f.deleted[eventID] = true
	return nil
}

func (f *FakeClient) ListCalendars(context.Context) ([]calendar.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infos, nil
}

// Created returns the draft stored under targetEventID, if any.
func (f *FakeClient) Created(targetEventID string) (calendar.Draft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.created[targetEventID]
	return d, ok
}

// CreatedIDs returns all created target event IDs, sorted.
func (f *FakeClient) CreatedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.created))
	for id := range f.created {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Updated returns the last update applied to targetEventID, if any.
func (f *FakeClient) Updated(targetEventID string) (calendar.Draft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.updated[targetEventID]
	return d, ok
}

// Deleted reports whether targetEventID was deleted.
func (f *FakeClient) Deleted(targetEventID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted[targetEventID]
}

// MutationCount returns the total number of create/update/delete calls made.
func (f *FakeClient) MutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if !strings.HasPrefix(c, "list ") {
			n++
		}
	}
	return n
}
