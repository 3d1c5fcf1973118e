// Package snapshot writes and loads point-in-time images of the engine
// state. A snapshot is a backup: the store remains the source of truth,
// and a snapshot is only read to seed an empty store.
package snapshot
