package queue

import "errors"

// ErrNotFound indicates the requested item does not exist in the queue.
// Scheduler callbacks treat it as a no-op: an item removed mid-transfer
// still finishes its attempt and the resulting update lands nowhere.
var ErrNotFound = errors.New("queue item not found")
