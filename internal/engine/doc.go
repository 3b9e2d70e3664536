// Package engine implements the reconciliation core: deciding, for every
// observed source event, whether to create, update, delete, or skip its
// mirror in the target calendar, and recording each decision durably so
// repeated runs converge.
//
// # Guarantees
//
//   - Idempotence: a second run over unchanged sources performs zero
//     create/update/delete actions.
//   - No duplicate creation: at most one sync record (and one target event)
//     exists per source event.
//   - Per-event commit: the store is updated after each successful remote
//     mutation, before the next event is touched. A crash mid-run leaves
//     state consistent for every completed event.
//   - Failure isolation: one event's remote failure is recorded in the run
//     report and the run continues. Only store errors abort the run, because
//     without a reliable store idempotence cannot be guaranteed.
//
// Source calendars are processed sequentially. Updates are detected by
// comparing the source event's updated timestamp against the recorded
// last_source_updated_at; equal or regressed timestamps are skips, never
// errors, since remote timestamp regressions are observed in practice.
package engine
