// Package calendar defines the client contract between the sync engine and a
// remote calendar service, plus the Google Calendar implementation of it.
//
// The engine only ever sees the Client interface and the plain Event/Draft
// types; everything Google-specific (wire format, OAuth, error codes) stays in
// this package.
package calendar

import (
	"context"
	"time"
)

// Event is an immutable snapshot of a remote event as of one fetch.
type Event struct {
	// CalendarID is the calendar the event was fetched from.
	CalendarID string
	// ID is the remote-assigned event identifier, stable across edits.
	ID string

	Title       string
	Description string
	Start       time.Time
	End         time.Time

	// UpdatedAt is the remote-assigned last-modified timestamp. Remote
	// calendars bump it on every edit, but regressions have been observed
	// in practice, so consumers must not assume strict monotonicity.
	UpdatedAt time.Time

	// Deleted is true when the remote reports the event as cancelled.
	// Cancelled events are reported explicitly rather than omitted.
	Deleted bool
}

// Draft holds the writable fields for creating or updating a target event.
type Draft struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// Info describes a calendar visible to the authenticated user.
type Info struct {
	ID         string
	Name       string
	AccessRole string
	Primary    bool
}

// Client is the capability surface the sync engine uses. All methods block
// until the remote responds or the context is done.
//
// Errors from the four event operations are classified as transient
// (network, rate limit) or permanent (not found, permission denied);
// see IsTransient and IsPermanent.
type Client interface {
	// ListEvents returns all events of calendarID that overlap the window,
	// including cancelled ones, in the order the remote reports them.
	ListEvents(ctx context.Context, calendarID string, w Window) ([]Event, error)

	// CreateEvent creates an event and returns its remote-assigned ID.
	CreateEvent(ctx context.Context, calendarID string, d Draft) (string, error)

	// UpdateEvent replaces the writable fields of an existing event.
	UpdateEvent(ctx context.Context, calendarID, eventID string, d Draft) error

	// DeleteEvent removes an event from the calendar.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error

	// ListCalendars returns the calendars accessible to the user.
	ListCalendars(ctx context.Context) ([]Info, error)
}
