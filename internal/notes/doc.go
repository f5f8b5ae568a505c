// Package notes holds the local note store: the single authoritative
// container for notes, folders, projects, lanes, settings and the session
// flags.
//
// All writes go through named mutation methods on *Store so that UpdatedAt
// stays monotonic and every change reaches subscribers. Mutations on an
// unknown id are no-ops. Returned entities are copies; changing them does
// not change the store.
//
// The store does no I/O. Persistence subscribes to the change feed
// (Subscribe) and saves Snapshot() on its own schedule.
package notes
