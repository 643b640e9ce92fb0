// Package session is the construction layer of the object graph.
//
// A Session owns a registry of objects, the dependency graph between
// evaluators, the import table and the shape table. Every create operation
// returns (model.Invalid, err) on failure and every setter validates all of
// its inputs before mutating anything, so a failed call leaves the session
// exactly as it was.
//
// Objects are created in the session's current location. Top level calls
// create local objects; the document resolver switches the location with
// Within while it parses an imported document, which also scopes name
// look-ups to that document.
//
// The rules enforced here:
//
//   - names are unique per location; only virtual objects may be anonymous
//   - value types must be type objects, evaluator references must be
//     evaluators, data references must be data sources
//   - a bind target must be an argument evaluator that the bound evaluator's
//     dependencies leave free, and the bound source must have the argument's
//     value type
//   - evaluator dependencies never form a cycle, checked on every new edge
//   - a parameter evaluator's data description kind is fixed once
package session
