package engine

import (
	"time"

	"github.com/roach88/calsync/internal/calendar"
	"github.com/roach88/calsync/internal/config"
)

// ComputeWindow returns the time range a run considers: daysBack days before
// now through daysAhead days after. Both must be non-negative; a violation is
// a configuration error and aborts before any remote call.
//
// The window is computed once per run and reused for every source calendar.
func ComputeWindow(now time.Time, daysAhead, daysBack int) (calendar.Window, error) {
	if daysAhead < 0 {
		return calendar.Window{}, &config.ValidationError{
			Field: "sync.days_ahead", Message: "must be >= 0",
		}
	}
	if daysBack < 0 {
		return calendar.Window{}, &config.ValidationError{
			Field: "sync.days_back", Message: "must be >= 0",
		}
	}

	return calendar.Window{
		Start: now.Add(-time.Duration(daysBack) * 24 * time.Hour),
		End:   now.Add(time.Duration(daysAhead) * 24 * time.Hour),
	}, nil
}
