// Package resolver turns a document tree into objects in a session.
//
// Objects are built in reference order rather than document order: when a
// node names an object that has not been built yet, the named node is
// resolved first. Every node moves through the states
//
//	unvisited -> inProgress -> resolved
//
// (or failed). Reaching a node that is still in progress means the
// definition depends on itself, which is reported as
// fmlerr.ErrRecursiveDefinition together with the chain of names.
//
// Imports are processed before any object, in document order. An imported
// document is loaded through a config.Loader and resolved into its own
// location; documents that import each other are rejected the same way as
// recursive definitions.
//
// The first failure aborts the whole parse and rolls the session back, so a
// failed Resolve leaves no objects behind.
package resolver
