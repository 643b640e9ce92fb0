// Package registry is the handle arena that owns every object of a session.
//
// Objects are appended to a dense slice and identified by their index, the
// Handle. A handle is never reused while the registry lives: rolling back a
// failed document parse leaves a tombstone in the slot instead of shrinking
// the slice.
//
// Adding an object and making its name visible are separate steps. Add
// reserves a handle; Publish makes the name resolvable through Lookup. Callers
// publish only once construction has fully succeeded, so a half-built object
// is never discoverable by name.
//
// Names live in one scope per model.Location: local objects, library objects
// and each import source have their own namespace. Alias adds a second name
// for an existing handle, which is how imports expose a remote object under a
// local name.
package registry
