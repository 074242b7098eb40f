// Package dag provides directed graph operations over equation dependencies.
// Keys are any ordered type so results are deterministic; callers key nodes
// by arena index. Cycle detection guards the operations that need an acyclic
// graph, while upstream and downstream searches tolerate cycles.
package dag

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Node represents a node in the graph.
type Node[K cmp.Ordered, V any] struct {
	ID   K
	Data V
}

// Graph is a directed graph. An edge runs from a dependency (parent) to its
// dependent (child).
type Graph[K cmp.Ordered, V any] struct {
	nodes   map[K]*Node[K, V]
	edges   map[K][]K // parent -> children (dependents)
	parents map[K][]K // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph[K cmp.Ordered, V any]() *Graph[K, V] {
	return &Graph[K, V]{
		nodes:   make(map[K]*Node[K, V]),
		edges:   make(map[K][]K),
		parents: make(map[K][]K),
	}
}

// AddNode adds a node to the graph, replacing the data of an existing one.
func (g *Graph[K, V]) AddNode(id K, data V) {
	if n, exists := g.nodes[id]; exists {
		n.Data = data
		return
	}
	g.nodes[id] = &Node[K, V]{ID: id, Data: data}
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph[K, V]) AddEdge(parentID, childID K) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %v does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %v does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %v", parentID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph[K, V]) GetNode(id K) (*Node[K, V], bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node in insertion order.
func (g *Graph[K, V]) GetParents(id K) []K {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node in insertion order.
func (g *Graph[K, V]) GetChildren(id K) []K {
	return g.edges[id]
}

// IDs returns the IDs of all nodes, sorted.
func (g *Graph[K, V]) IDs() []K {
	return slices.Sorted(maps.Keys(g.nodes))
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph[K, V]) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph[K, V]) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph[K, V]) HasCycle() (bool, []K) {
	visited := make(map[K]bool)
	onStack := make(map[K]bool)
	from := make(map[K]K)

	var cyclePath []K

	var dfs func(id K) bool
	dfs = func(id K) bool {
		visited[id] = true
		onStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				from[childID] = id
				if dfs(childID) {
					return true
				}
			} else if onStack[childID] {
				cyclePath = []K{childID}
				for curr := id; curr != childID; curr = from[curr] {
					cyclePath = append([]K{curr}, cyclePath...)
				}
				cyclePath = append([]K{childID}, cyclePath...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.IDs() {
		if !visited[id] && dfs(id) {
			return true, cyclePath
		}
	}
	return false, nil
}

// TopologicalSort returns node IDs in topological order (dependencies before
// dependents). Ties are broken by key. Returns an error if the graph contains
// a cycle.
func (g *Graph[K, V]) TopologicalSort() ([]K, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[K]bool)
	result := make([]K, 0, len(g.nodes))

	var visit func(id K)
	visit = func(id K) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, id)
	}

	for _, id := range g.IDs() {
		visit(id)
	}
	return result, nil
}

// GetExecutionLevels returns node IDs grouped by level. Level 0 holds nodes
// without dependencies; a node at level N depends only on lower levels.
func (g *Graph[K, V]) GetExecutionLevels() ([][]K, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[K]int)

	var getLevel func(id K) int
	getLevel = func(id K) int {
		if level, ok := assigned[id]; ok {
			return level
		}
		level := 0
		for _, parentID := range g.parents[id] {
			level = max(level, getLevel(parentID)+1)
		}
		assigned[id] = level
		return level
	}

	var levels [][]K
	for _, id := range g.IDs() {
		level := getLevel(id)
		for len(levels) <= level {
			levels = append(levels, nil)
		}
	}
	for _, id := range g.IDs() {
		levels[assigned[id]] = append(levels[assigned[id]], id)
	}
	return levels, nil
}

// GetAffectedNodes returns the given nodes and all their downstream
// dependents, sorted.
func (g *Graph[K, V]) GetAffectedNodes(changedIDs []K) []K {
	affected := make(map[K]bool)

	var markAffected func(id K)
	markAffected = func(id K) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, childID := range g.edges[id] {
			markAffected(childID)
		}
	}

	for _, id := range changedIDs {
		if _, exists := g.nodes[id]; exists {
			markAffected(id)
		}
	}
	return slices.Sorted(maps.Keys(affected))
}

// GetUpstreamNodes returns all nodes upstream of the given node (its
// dependencies and theirs), sorted. The node itself is included only when it
// lies on a cycle.
func (g *Graph[K, V]) GetUpstreamNodes(id K) []K {
	upstream := make(map[K]bool)

	var markUpstream func(nodeID K)
	markUpstream = func(nodeID K) {
		for _, parentID := range g.parents[nodeID] {
			if !upstream[parentID] {
				upstream[parentID] = true
				markUpstream(parentID)
			}
		}
	}

	markUpstream(id)
	return slices.Sorted(maps.Keys(upstream))
}

// GetRoots returns nodes with no parents (no dependencies), sorted.
func (g *Graph[K, V]) GetRoots() []K {
	var roots []K
	for _, id := range g.IDs() {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// GetLeaves returns nodes with no children (no dependents), sorted.
func (g *Graph[K, V]) GetLeaves() []K {
	var leaves []K
	for _, id := range g.IDs() {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Subgraph returns a new graph containing only the specified nodes and the
// edges between them.
func (g *Graph[K, V]) Subgraph(nodeIDs []K) *Graph[K, V] {
	subgraph := NewGraph[K, V]()
	for _, id := range nodeIDs {
		if node, exists := g.nodes[id]; exists {
			subgraph.AddNode(id, node.Data)
		}
	}
	for _, id := range nodeIDs {
		for _, childID := range g.edges[id] {
			if _, ok := subgraph.nodes[childID]; ok {
				_ = subgraph.AddEdge(id, childID)
			}
		}
	}
	return subgraph
}
