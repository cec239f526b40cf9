package regalloc

import (
	"fmt"
	"io"

	"github.com/raymyers/minicc/pkg/rtl"
)

// WriteDot writes the interference graph of fn in Graphviz format. Nodes are
// labelled with their register or frame slot when result is non-nil;
// interference edges are solid and move preferences dashed.
func WriteDot(w io.Writer, fn *rtl.Function, graph *InterferenceGraph, result *Result) error {
	if _, err := fmt.Fprintf(w, "graph %q {\n", fn.Name); err != nil {
		return err
	}
	if graph != nil {
		nodes := graph.Nodes.Slice()
		for _, r := range nodes {
			label := r.String()
			if result != nil {
				if c, ok := result.Assign[r]; ok {
					label += `\n` + c.String()
				}
			}
			fmt.Fprintf(w, "    %s [label=\"%s\"];\n", r, label)
		}
		for _, r := range nodes {
			for _, n := range graph.Edges[r].Slice() {
				if n > r {
					fmt.Fprintf(w, "    %s -- %s;\n", r, n)
				}
			}
		}
		for _, r := range nodes {
			for _, n := range graph.Preferences[r].Slice() {
				if n > r && !graph.HasEdge(r, n) {
					fmt.Fprintf(w, "    %s -- %s [style=dashed];\n", r, n)
				}
			}
		}
	}
	if result != nil {
		for _, r := range slotSet(result.Slots).Slice() {
			fmt.Fprintf(w, "    %s [label=\"%s\\n%d($fp)\", shape=box];\n", r, r, result.Slots[r])
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// slotSet returns the set of temporaries that own a frame slot
func slotSet(slots map[rtl.Reg]int32) RegSet {
	s := make(RegSet, len(slots))
	for r := range slots {
		s.Add(r)
	}
	return s
}
