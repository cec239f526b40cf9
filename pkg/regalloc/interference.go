package regalloc

import (
	"github.com/raymyers/minicc/pkg/rtl"
)

// InterferenceGraph represents the register interference graph.
// Two temporaries interfere if one is defined while the other is live.
type InterferenceGraph struct {
	// Nodes are virtual temporaries
	Nodes RegSet
	// Edges maps each temporary to its interfering neighbors
	Edges map[rtl.Reg]RegSet
	// Preferences maps each temporary to its move partners
	Preferences map[rtl.Reg]RegSet
}

// NewInterferenceGraph creates an empty interference graph
func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		Nodes:       NewRegSet(),
		Edges:       make(map[rtl.Reg]RegSet),
		Preferences: make(map[rtl.Reg]RegSet),
	}
}

// AddNode adds a temporary to the graph
func (g *InterferenceGraph) AddNode(r rtl.Reg) {
	g.Nodes.Add(r)
	if g.Edges[r] == nil {
		g.Edges[r] = NewRegSet()
	}
	if g.Preferences[r] == nil {
		g.Preferences[r] = NewRegSet()
	}
}

// AddEdge adds an interference edge between two temporaries
func (g *InterferenceGraph) AddEdge(r1, r2 rtl.Reg) {
	if r1 == r2 {
		return
	}
	g.AddNode(r1)
	g.AddNode(r2)
	g.Edges[r1].Add(r2)
	g.Edges[r2].Add(r1)
}

// AddPreference records that r1 and r2 are joined by a move
func (g *InterferenceGraph) AddPreference(r1, r2 rtl.Reg) {
	if r1 == r2 {
		return
	}
	g.AddNode(r1)
	g.AddNode(r2)
	g.Preferences[r1].Add(r2)
	g.Preferences[r2].Add(r1)
}

// HasEdge returns true if there is an interference edge
func (g *InterferenceGraph) HasEdge(r1, r2 rtl.Reg) bool {
	if edges, ok := g.Edges[r1]; ok {
		return edges.Contains(r2)
	}
	return false
}

// Degree returns the number of neighbors of a temporary
func (g *InterferenceGraph) Degree(r rtl.Reg) int {
	return len(g.Edges[r])
}

// Neighbors returns the interfering neighbors of a temporary
func (g *InterferenceGraph) Neighbors(r rtl.Reg) RegSet {
	if edges, ok := g.Edges[r]; ok {
		return edges.Copy()
	}
	return NewRegSet()
}

// MoveRelated returns true if the temporary is involved in a move
func (g *InterferenceGraph) MoveRelated(r rtl.Reg) bool {
	return len(g.Preferences[r]) > 0
}

// Copy returns a deep copy of the graph. The allocator simplifies a copy so
// that the original stays available for verification and DOT output.
func (g *InterferenceGraph) Copy() *InterferenceGraph {
	c := NewInterferenceGraph()
	for r := range g.Nodes {
		c.Nodes.Add(r)
		c.Edges[r] = g.Edges[r].Copy()
		c.Preferences[r] = g.Preferences[r].Copy()
	}
	return c
}

// RemoveNode removes a temporary and its edges from the graph
func (g *InterferenceGraph) RemoveNode(r rtl.Reg) {
	for neighbor := range g.Edges[r] {
		delete(g.Edges[neighbor], r)
	}
	for neighbor := range g.Preferences[r] {
		delete(g.Preferences[neighbor], r)
	}
	delete(g.Nodes, r)
	delete(g.Edges, r)
	delete(g.Preferences, r)
}

// BuildInterferenceGraph constructs the interference graph from liveness
// info. A temporary defined by an instruction interferes with everything
// live after it, except the source when the instruction is a move.
func BuildInterferenceGraph(fn *rtl.Function, liveness *LivenessInfo) *InterferenceGraph {
	g := NewInterferenceGraph()

	for idx, def := range liveness.Def {
		for r := range def {
			g.AddNode(r)
		}
		for r := range liveness.Use[idx] {
			g.AddNode(r)
		}
	}

	for idx, instr := range fn.Code {
		dst, src, isMove := rtl.IsMove(instr)
		for d := range liveness.Def[idx] {
			for live := range liveness.LiveOut[idx] {
				if isMove && live == src {
					continue
				}
				g.AddEdge(d, live)
			}
		}
		if isMove && dst.IsTemp() && src.IsTemp() {
			g.AddPreference(dst, src)
		}
	}

	return g
}
