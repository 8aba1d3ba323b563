package iotaint

import (
	"bufio"
	"fmt"
	"io"
)

// WriteDOT writes the trace to w in the DOT format, which can be used
// to render the propagation tree with Graphviz.
//
// Each distinct instruction is a node. Edges run from an event to the
// closest shallower event before it; edges stopped by the loop guard are
// dashed, return edges are labelled "return" and store edges "store".
func WriteDOT(w io.Writer, t Trace) error {
	b := bufio.NewWriter(w)

	b.WriteString("digraph trace {\n")
	b.WriteString("\tgraph [fontname=\"Helvetica\"];\n")
	b.WriteString("\tnode [fontname=\"Helvetica\" shape=box];\n")
	b.WriteString("\tedge [fontname=\"Helvetica\"];\n")

	type open struct {
		depth int
		id    int
	}

	var (
		ids   = make(map[Instruction]int)
		stack []open
	)

	node := func(e Event) int {
		if id, ok := ids[e.Instruction]; ok {
			return id
		}
		id := len(ids)
		ids[e.Instruction] = id
		label := fmt.Sprintf("%s: %s", functionName(e.Function), instructionText(e.Instruction))
		if e.Kind == EventSeed {
			fmt.Fprintf(b, "\t\"%d\" [label=%q style=bold];\n", id, label)
		} else {
			fmt.Fprintf(b, "\t\"%d\" [label=%q];\n", id, label)
		}
		return id
	}

	for i, e := range t {
		if !e.reached() {
			continue
		}

		if e.Kind == EventSeed {
			stack = stack[:0]
		}
		for len(stack) > 0 && stack[len(stack)-1].depth >= e.Depth {
			stack = stack[:len(stack)-1]
		}

		id := node(e)
		looped := i+1 < len(t) && t[i+1].Kind == EventLoop

		if len(stack) > 0 {
			parent := stack[len(stack)-1].id
			var attrs string
			switch {
			case looped:
				attrs = " [style=dashed label=\"loop\"]"
			case e.Kind == EventCallSite:
				attrs = " [label=\"return\"]"
			case e.Kind == EventAlias:
				attrs = " [label=\"store\"]"
			}
			fmt.Fprintf(b, "\t\"%d\" -> \"%d\"%s;\n", parent, id, attrs)
		}

		if !looped {
			stack = append(stack, open{depth: e.Depth, id: id})
		}
	}

	b.WriteString("}\n")

	if err := b.Flush(); err != nil {
		return fmt.Errorf("failed to write DOT trace: %w", err)
	}
	return nil
}
