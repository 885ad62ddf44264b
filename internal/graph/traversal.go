package graph

import (
	"sort"

	"github.com/tast-lang/tast/pkg/errors"
)

// Topological returns a topological ordering of node indices using Kahn's
// algorithm, breaking ties by declaration order so the result is
// deterministic. Fails with a TraversalError carrying a cycle witness if the
// graph is not acyclic.
func (g *Graph) Topological() ([]int, error) {
	indegree := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		indegree[e.Target]++
	}

	var queue []int
	for i := range g.Nodes {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(g.Nodes))
	for len(queue) > 0 {
		sort.Ints(queue)
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, e := range g.Outgoing(i) {
			indegree[e.Target]--
			if indegree[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		witness := g.FindCycle()
		if witness == nil {
			witness = []string{}
		}
		return nil, errors.NewTraversalError("cycle detected", witness)
	}
	return order, nil
}

// DFS performs a pre-order depth-first traversal, iterating roots in
// declaration order and skipping nodes already visited from an earlier
// root (so every node appears exactly once even if reachable from several
// roots, or isolated).
func (g *Graph) DFS() []int {
	visited := make([]bool, len(g.Nodes))
	var order []int

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		order = append(order, i)
		for _, e := range g.Outgoing(i) {
			visit(e.Target)
		}
	}

	for _, r := range g.startingPoints() {
		visit(r)
	}
	return order
}

// BFS performs a level-order traversal from the same starting points as DFS.
func (g *Graph) BFS() []int {
	visited := make([]bool, len(g.Nodes))
	var order []int

	for _, r := range g.startingPoints() {
		if visited[r] {
			continue
		}
		queue := []int{r}
		visited[r] = true
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			order = append(order, i)
			for _, e := range g.Outgoing(i) {
				if !visited[e.Target] {
					visited[e.Target] = true
					queue = append(queue, e.Target)
				}
			}
		}
	}
	return order
}

// startingPoints returns the graph's roots, falling back to every node in
// declaration order if the graph has no roots (e.g. every node sits on a
// cycle), so DFS/BFS still visit the whole graph.
func (g *Graph) startingPoints() []int {
	roots := g.Roots()
	if len(roots) > 0 {
		return roots
	}
	all := make([]int, len(g.Nodes))
	for i := range all {
		all[i] = i
	}
	return all
}

// ShortestPath returns the node-index path from the node named from to the
// node named to, using BFS over outgoing edges (fewest hops). Fails with a
// PlanError if either name is unknown or no path exists.
func (g *Graph) ShortestPath(from, to string) ([]int, error) {
	fromIdx := g.IndexOf(from)
	if fromIdx < 0 {
		return nil, errors.NewPlanError("unknown node " + from)
	}
	toIdx := g.IndexOf(to)
	if toIdx < 0 {
		return nil, errors.NewPlanError("unknown node " + to)
	}

	prev := make([]int, len(g.Nodes))
	for i := range prev {
		prev[i] = -1
	}
	visited := make([]bool, len(g.Nodes))
	visited[fromIdx] = true
	queue := []int{fromIdx}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if i == toIdx {
			break
		}
		for _, e := range g.Outgoing(i) {
			if !visited[e.Target] {
				visited[e.Target] = true
				prev[e.Target] = i
				queue = append(queue, e.Target)
			}
		}
	}

	if !visited[toIdx] {
		return nil, errors.NewPlanError("no path from " + from + " to " + to)
	}

	var path []int
	for i := toIdx; i != -1; i = prev[i] {
		path = append([]int{i}, path...)
		if i == fromIdx {
			break
		}
	}
	return path, nil
}

// InducedSubgraph builds a new Graph containing only the given node indices
// and every edge from the original graph whose endpoints both lie in the
// selection. Node order in the result follows the order of indices given.
func (g *Graph) InducedSubgraph(indices []int) *Graph {
	selected := make(map[int]int, len(indices)) // original index -> new index
	out := &Graph{Name: g.Name}
	for newIdx, origIdx := range indices {
		selected[origIdx] = newIdx
		out.Nodes = append(out.Nodes, g.Nodes[origIdx])
	}
	out.outAdj = make([][]int, len(out.Nodes))
	out.inAdj = make([][]int, len(out.Nodes))

	for _, e := range g.Edges {
		newSrc, okSrc := selected[e.Source]
		newDst, okDst := selected[e.Target]
		if !okSrc || !okDst {
			continue
		}
		idx := len(out.Edges)
		out.Edges = append(out.Edges, Edge{Source: newSrc, Target: newDst, Payload: e.Payload})
		out.outAdj[newSrc] = append(out.outAdj[newSrc], idx)
		out.inAdj[newDst] = append(out.inAdj[newDst], idx)
	}
	return out
}
