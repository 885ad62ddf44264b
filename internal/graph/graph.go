// Package graph builds an adjacency structure from a lowered, validated IR
// graph and provides cycle analysis, topological/DFS/BFS traversals,
// shortest-path search, and induced subgraph extraction. Edges are
// represented as index pairs rather than pointers, which avoids aliasing
// concerns and makes cloning for induced subgraphs trivial.
package graph

import (
	"github.com/tast-lang/tast/internal/ir"
)

// Edge is a (source-index, target-index, payload) record.
type Edge struct {
	Source  int
	Target  int
	Payload ir.Edge
}

// Graph is an adjacency structure over a fixed vector of node payloads.
type Graph struct {
	Name  string
	Nodes []ir.Node
	Edges []Edge

	outAdj [][]int // node index -> edge indices leaving it, insertion order
	inAdj  [][]int // node index -> edge indices entering it, insertion order
}

// Build constructs a Graph from a resolved IR graph. Every edge must carry
// in-bounds FromIndex/ToIndex (call ir.Validate beforehand).
func Build(g *ir.Graph) *Graph {
	out := &Graph{
		Name:   g.Name,
		Nodes:  append([]ir.Node(nil), g.Nodes...),
		outAdj: make([][]int, len(g.Nodes)),
		inAdj:  make([][]int, len(g.Nodes)),
	}
	for _, e := range g.Edges {
		idx := len(out.Edges)
		out.Edges = append(out.Edges, Edge{Source: e.FromIndex, Target: e.ToIndex, Payload: e})
		out.outAdj[e.FromIndex] = append(out.outAdj[e.FromIndex], idx)
		out.inAdj[e.ToIndex] = append(out.inAdj[e.ToIndex], idx)
	}
	return out
}

// Outgoing returns the edges leaving node i, in declaration order.
func (g *Graph) Outgoing(i int) []Edge {
	return g.edgesFor(g.outAdj, i)
}

// Incoming returns the edges entering node i, in declaration order.
func (g *Graph) Incoming(i int) []Edge {
	return g.edgesFor(g.inAdj, i)
}

func (g *Graph) edgesFor(adj [][]int, i int) []Edge {
	if i < 0 || i >= len(adj) {
		return nil
	}
	idxs := adj[i]
	out := make([]Edge, len(idxs))
	for j, idx := range idxs {
		out[j] = g.Edges[idx]
	}
	return out
}

// Roots returns the indices of nodes with no incoming edges, in node order.
func (g *Graph) Roots() []int {
	var out []int
	for i := range g.Nodes {
		if len(g.inAdj[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Leaves returns the indices of nodes with no outgoing edges, in node
// order.
func (g *Graph) Leaves() []int {
	var out []int
	for i := range g.Nodes {
		if len(g.outAdj[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// IndexOf returns the index of the node with the given name, or -1.
func (g *Graph) IndexOf(name string) int {
	for i, n := range g.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// FindCycle performs a DFS with a recursion stack. When an edge reaches a
// node already on the stack, it returns the stack slice from that node to
// the top, in cycle order (node names, first entry repeated at the end).
// Returns nil if the graph is acyclic.
func (g *Graph) FindCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.Nodes))
	var stack []int

	var visit func(i int) []string
	visit = func(i int) []string {
		color[i] = gray
		stack = append(stack, i)
		for _, e := range g.Outgoing(i) {
			switch color[e.Target] {
			case gray:
				start := indexOfInt(stack, e.Target)
				witness := make([]string, 0, len(stack)-start+1)
				for _, idx := range stack[start:] {
					witness = append(witness, g.Nodes[idx].Name)
				}
				witness = append(witness, g.Nodes[e.Target].Name)
				return witness
			case white:
				if w := visit(e.Target); w != nil {
					return w
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return nil
	}

	for i := range g.Nodes {
		if color[i] == white {
			if w := visit(i); w != nil {
				return w
			}
		}
	}
	return nil
}

func indexOfInt(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
