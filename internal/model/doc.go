// Package model defines the objects that make up a field description
// document: ensemble, continuous and mesh types, the evaluator family,
// parameter data descriptions, data resources and data sources.
//
// Every object embeds a Header carrying its handle, name, location, virtual
// flag and Kind. The Kind is the tag of a closed union: code that needs the
// concrete case switches on Kind (or on the Go type) rather than calling
// methods on an interface. Cross references between objects are always
// Handles, never pointers, so the registry arena is the only owner.
package model
