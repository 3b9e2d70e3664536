package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

// GoogleClient implements Client on top of the Google Calendar v3 API.
type GoogleClient struct {
	svc *gcal.Service
}

// NewGoogleClient wraps an authenticated Calendar service.
func NewGoogleClient(svc *gcal.Service) *GoogleClient {
	return &GoogleClient{svc: svc}
}

// ListEvents fetches every event of calendarID overlapping the window,
// cancelled events included, expanded to single instances in start order.
func (c *GoogleClient) ListEvents(ctx context.Context, calendarID string, w Window) ([]Event, error) {
	var events []Event
	pageToken := ""

	for {
		call := c.svc.Events.List(calendarID).
			ShowDeleted(true).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(w.Start.UTC().Format(time.RFC3339)).
			// The remote treats timeMax as an exclusive bound on event
			// start; widen by one second so an event starting exactly at
			// the window end is still returned.
			TimeMax(w.End.UTC().Add(time.Second).Format(time.RFC3339)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, classifyError(fmt.Sprintf("list events %s", calendarID), err)
		}

		for _, item := range resp.Items {
			ev, err := eventFromAPI(calendarID, item)
			if err != nil {
				return nil, &PermanentError{
					Op:  fmt.Sprintf("list events %s", calendarID),
					Err: err,
				}
			}
			events = append(events, ev)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return events, nil
		}
	}
}

func (c *GoogleClient) CreateEvent(ctx context.Context, calendarID string, d Draft) (string, error) {
	created, err := c.svc.Events.Insert(calendarID, draftToAPI(d)).Context(ctx).Do()
	if err != nil {
		return "", classifyError("create event", err)
	}
	return created.Id, nil
}

func (c *GoogleClient) UpdateEvent(ctx context.Context, calendarID, eventID string, d Draft) error {
	_, err := c.svc.Events.Update(calendarID, eventID, draftToAPI(d)).Context(ctx).Do()
	if err != nil {
		return classifyError(fmt.Sprintf("update event %s", eventID), err)
	}
	return nil
}

func (c *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return classifyError(fmt.Sprintf("delete event %s", eventID), err)
	}
	return nil
}

func (c *GoogleClient) ListCalendars(ctx context.Context) ([]Info, error) {
	var infos []Info
	pageToken := ""

	for {
		call := c.svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, classifyError("list calendars", err)
		}

		for _, item := range resp.Items {
			infos = append(infos, Info{
				ID:         item.Id,
				Name:       item.Summary,
				AccessRole: item.AccessRole,
				Primary:    item.Primary,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return infos, nil
		}
	}
}

// eventFromAPI converts a wire event into the engine-facing snapshot.
//
// Cancelled events often arrive with most fields stripped; only identity and
// status are guaranteed, so missing times are left zero rather than rejected.
func eventFromAPI(calendarID string, e *gcal.Event) (Event, error) {
	ev := Event{
		CalendarID:  calendarID,
		ID:          e.Id,
		Title:       e.Summary,
		Description: e.Description,
		Deleted:     e.Status == "cancelled",
	}

	var err error
	if ev.Start, err = parseEventTime(e.Start); err != nil {
		return Event{}, fmt.Errorf("event %s: start: %w", e.Id, err)
	}
	if ev.End, err = parseEventTime(e.End); err != nil {
		return Event{}, fmt.Errorf("event %s: end: %w", e.Id, err)
	}

	if e.Updated != "" {
		ev.UpdatedAt, err = time.Parse(time.RFC3339Nano, e.Updated)
		if err != nil {
			return Event{}, fmt.Errorf("event %s: updated: %w", e.Id, err)
		}
	}

	return ev, nil
}

// parseEventTime handles both timed events (dateTime) and all-day events
// (date only, interpreted as midnight UTC).
func parseEventTime(edt *gcal.EventDateTime) (time.Time, error) {
	switch {
	case edt == nil:
		return time.Time{}, nil
	case edt.DateTime != "":
		return time.Parse(time.RFC3339, edt.DateTime)
	case edt.Date != "":
		return time.Parse("2006-01-02", edt.Date)
	default:
		return time.Time{}, nil
	}
}

func draftToAPI(d Draft) *gcal.Event {
	return &gcal.Event{
		Summary:     d.Title,
		Description: d.Description,
		Start:       &gcal.EventDateTime{DateTime: d.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: d.End.Format(time.RFC3339)},
	}
}
