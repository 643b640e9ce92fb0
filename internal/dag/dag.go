package dag

import (
	"fmt"
	"sort"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[model.Handle]*node),
	}
}

// AddNode adds a node for id. Adding an existing node does nothing.
func (g *Graph) AddNode(id model.Handle) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[model.Handle]int),
		dependents: make(map[model.Handle]int),
	}
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id model.Handle) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge records that toID depends on fromID. Missing nodes are added. The
// edge is refused with ErrRecursiveDefinition when fromID already depends on
// toID, directly or transitively, and the graph is left unchanged.
func (g *Graph) AddEdge(fromID, toID model.Handle) error {
	if fromID == toID {
		return fmlerr.New(fmlerr.ErrRecursiveDefinition, "object %d cannot depend on itself", fromID)
	}
	if g.Reaches(toID, fromID) {
		return fmlerr.New(fmlerr.ErrRecursiveDefinition, "dependency %d -> %d would close a cycle", fromID, toID)
	}

	g.AddNode(fromID)
	g.AddNode(toID)
	g.nodes[toID].deps[fromID]++
	g.nodes[fromID].dependents[toID]++
	return nil
}

// RemoveEdge drops one occurrence of the edge fromID -> toID.
func (g *Graph) RemoveEdge(fromID, toID model.Handle) {
	from, ok := g.nodes[fromID]
	if !ok {
		return
	}
	to, ok := g.nodes[toID]
	if !ok {
		return
	}
	if to.deps[fromID] == 0 {
		return
	}
	to.deps[fromID]--
	if to.deps[fromID] == 0 {
		delete(to.deps, fromID)
	}
	from.dependents[toID]--
	if from.dependents[toID] == 0 {
		delete(from.dependents, toID)
	}
}

// RemoveNode deletes id together with every edge touching it.
func (g *Graph) RemoveNode(id model.Handle) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for dep := range n.deps {
		delete(g.nodes[dep].dependents, id)
	}
	for dependent := range n.dependents {
		delete(g.nodes[dependent].deps, id)
	}
	delete(g.nodes, id)
}

// Reaches reports whether a path leads from fromID to toID, following edges
// from a dependency to its dependents.
func (g *Graph) Reaches(fromID, toID model.Handle) bool {
	start, ok := g.nodes[fromID]
	if !ok {
		return false
	}
	seen := make(map[model.Handle]bool)
	stack := []*node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.id == toID {
			return true
		}
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		for next := range n.dependents {
			stack = append(stack, g.nodes[next])
		}
	}
	return false
}

// Dependencies returns the handles id depends on, in ascending order.
func (g *Graph) Dependencies(id model.Handle) ([]model.Handle, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the handles that depend on id, in ascending order.
func (g *Graph) Dependents(id model.Handle) ([]model.Handle, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	return sortedKeys(n.dependents), nil
}

// Order returns every node so that each one comes after all of its
// dependencies. Ties are broken by handle.
func (g *Graph) Order() []model.Handle {
	ids := make([]model.Handle, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	done := make(map[model.Handle]bool, len(ids))
	out := make([]model.Handle, 0, len(ids))
	var visit func(id model.Handle)
	visit = func(id model.Handle) {
		if done[id] {
			return
		}
		done[id] = true
		for _, dep := range sortedKeys(g.nodes[id].deps) {
			visit(dep)
		}
		out = append(out, id)
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}

// DetectCycles checks the whole graph for cycles. AddEdge already refuses
// cyclic edges, so this only fails if the graph was corrupted.
func (g *Graph) DetectCycles() error {
	// permanent: fully visited, not on a cycle.
	// temporary: on the current DFS path.
	permanent := make(map[model.Handle]bool)
	temporary := make(map[model.Handle]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmlerr.New(fmlerr.ErrRecursiveDefinition, "cycle detected involving object %d", n.id)
		}
		temporary[n.id] = true
		for dependent := range n.dependents {
			if err := visit(g.nodes[dependent]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, n := range g.nodes {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[model.Handle]int) []model.Handle {
	out := make([]model.Handle, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
