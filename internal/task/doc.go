// Package task manages an in-memory collection of timeline tasks.
//
// A Store owns its tasks exclusively. Every task it holds satisfies three
// invariants:
//
//   - the end date is strictly after the start date
//   - progress lies in [0, 100]
//   - the name is non-empty after trimming whitespace
//
// Create and Update reject input that would break an invariant with a
// *ValidationError and leave the store unchanged. Update and Delete report a
// missing target through a boolean rather than an error, so callers can tell
// bad input from a stale id.
//
// # Dependencies
//
// Each task lists the ids of tasks it depends on. The store does not check
// that those ids exist when they are written, and duplicates are kept. When a
// task is deleted, its id is removed from every remaining dependency list.
// Dependencies are metadata only: no scheduling is derived from them.
//
// # Views
//
// All returns tasks in creation order. Sorted orders them by start date,
// keeping creation order for equal starts. Both return copies, so callers
// may modify results freely.
//
// # Observers
//
// Subscribe registers an Observer that is called after every committed
// create, update and delete.
package task
