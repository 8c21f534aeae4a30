// Package daemon wires the queue store, scheduler, and notifications into a
// single background process guarded by a file lock.
package daemon
