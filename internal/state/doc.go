// Package state holds the client-side data shared between the console
// controllers and the UI.
//
// # Store
//
// Store keeps the latest bundle list. Every refresh takes a sequence number
// from Begin before the request goes out and hands it back with the response:
//
//	seq := store.Begin()
//	bundles, err := client.ListBundles(ctx)
//	store.Update(seq, bundles, err)
//
// A response that is not newer than the last applied one is dropped, so an
// older request finishing late never overwrites a newer list. A failed refresh
// keeps the previous list and records the error. Snapshot returns a deep copy
// and is safe to call from any goroutine.
//
// # LogBuffer
//
// LogBuffer is the live generation log. It is cleared at the start of every
// generation cycle and only grows until the next one. Version changes on each
// mutation so the log view can tell when it has to re-render.
package state
