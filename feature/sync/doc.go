// Package sync exposes reconciliation passes to operators and to the clock.
//
// A process holds a single Service. Every trigger goes through Service.RunOnce,
// which takes a weight-one semaphore without waiting: a trigger that arrives while
// a pass is running is dropped with ErrRunInProgress, never queued.
//
// # Triggers
//
//   - POST /sync/run : manual pass. Optional date_from_utc / date_to_utc select an
//     explicit UTC window (JSON body, form or query). Answers 409 when busy.
//   - Scheduler : automatic pass every server.interval_seconds when server.auto_sync is set.
//
// # History
//
// Each pass is stored as a SyncRun with one SyncFlightLog per flight event when a
// database is configured (GormRecorder). Without one, NopRecorder keeps nothing and
// GET /sync/status still reports the last pass from memory.
//
//   - GET /sync/runs : latest runs, newest first (?limit=).
//   - GET /sync/runs/:id/flights : the flight logs of one run.
//   - GET /sync/status : running flag and last run.
package sync
