// Package reconcile keeps the planning system in step with the roster.
//
// A pass reads every roster flight in a time window, works out whether the
// planning system already holds a correct plan for it, and creates, updates
// or deletes plans accordingly. Passes are idempotent: running one twice in a
// row makes no changes the second time.
//
// # Identity
//
// A flight is identified across both systems by (flight number, ADEP, ADES,
// EOBT minute); see package identity. Plans whose EOBT drifted are still
// matched on the first three parts.
//
// # State
//
// Listings from both systems are re-read every pass. The only durable state
// is the idempotency Cache, keyed by roster flight id, which remembers the
// fingerprint of the last pushed Core and the plan id it was filed under.
// A flight is skipped only when its plan is visible in the planning system
// now and its fingerprint is unchanged; a cache hit alone is never enough.
//
// The cache is stored as JSON either in a local file (FileStore, replaced
// atomically) or as a single bucket object (ObjectStore).
//
// # Passes
//
//	engine, err := reconcile.NewEngine(reconcile.Options{...})
//	result, err := engine.Run(ctx, nil, nil) // rolling window
//
// The steps are:
//
//  1. Compute the window.
//  2. Authenticate to the roster and list flights. Failure aborts the pass.
//  3. Log in to the planning system, load the aircraft and crew registries
//     and build the Presence index.
//  4. For each selected flight build the plan, compare fingerprints and push
//     through the Executor.
//  5. Delete plans of cached flights the roster no longer returns.
//  6. Save the cache.
//
// # Deletion
//
// Orphan deletion only considers cache entries whose EOBT lies in the
// current window. When the planning system refuses a delete the entry is
// marked undeletable: the plan is left alone, ignored by presence and a new
// plan may be created in its place.
package reconcile
