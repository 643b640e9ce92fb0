package dag

import "github.com/vk/fieldgo/internal/model"

// Graph is a collection of nodes and their dependencies, representing a DAG.
// It is not safe for concurrent use; a session owns exactly one.
type Graph struct {
	// nodes stores all nodes in the graph, keyed by handle.
	nodes map[model.Handle]*node
}

// node is a single vertex. deps and dependents hold the multiplicity of each
// edge.
type node struct {
	id model.Handle
	// deps holds the nodes this node depends on (predecessors).
	deps map[model.Handle]int
	// dependents holds the nodes that depend on this node (successors).
	dependents map[model.Handle]int
}
