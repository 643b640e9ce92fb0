// Package dag tracks which objects of a session depend on which others and
// keeps that relation acyclic.
//
// Nodes are object handles. An edge from a to b means b depends on a: b is
// an evaluator whose definition refers to a through its source, a bind, a
// selector entry or a data description index. AddEdge refuses any edge that
// would close a cycle, so the graph is a DAG at every point in time, not only
// after a document has been parsed.
//
// Edges are counted. One evaluator may refer to the same object from several
// places, and removing one of those references must not drop the dependency.
package dag
