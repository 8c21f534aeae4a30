// Package scheduler drives queued upload items to a terminal state.
//
// A single dispatch goroutine scans the queue in insertion order and
// launches per-item transfers up to a concurrency ceiling. The loop blocks
// on a wake channel when idle; adding files, retrying, resuming, and
// transfer completion all signal it. An in-flight id set guards against
// dispatching an item twice between its status write and the next scan.
//
// Pausing only gates new dispatch: transfers already running continue to
// their natural terminal state. Transient failures requeue the item with a
// linearly growing backoff (plus jitter) until the retry budget is spent.
// A failure inside one item's transfer never reaches the dispatch loop.
package scheduler
