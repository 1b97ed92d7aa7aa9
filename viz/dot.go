package viz

import (
	"fmt"
	"io"

	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/loop"
)

// WriteDOT writes c as a Graphviz DOT digraph to w. Each node's label
// is its entry text joined with literal "\l" line breaks (DOT's
// left-justified newline), escaped per spec §6.
func WriteDOT(w io.Writer, c *cfgbuild.CFG) error {
	if _, err := io.WriteString(w, "digraph CFG {\n  node [shape=box];\n"); err != nil {
		return err
	}

	for _, bb := range c.Blocks {
		label := bb.Name
		for _, line := range entryText(bb) {
			label += "\\l" + escape(line)
		}
		if _, err := fmt.Fprintf(w, "  %q [label=\"%s\"];\n", bb.Name, label); err != nil {
			return err
		}
	}
	for _, bb := range c.Blocks {
		for _, s := range bb.Succs {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", bb.Name, s.Name); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(w, "}\n")
	return err
}

// WriteLoopDOT writes a Havlak loop-nesting forest as a DOT digraph: one
// node per SimpleLoop labeled with its header block and nesting level, one
// edge per parent/child containment relationship.
func WriteLoopDOT(w io.Writer, g *loop.Graph) error {
	if _, err := io.WriteString(w, "digraph Loops {\n  node [shape=ellipse];\n"); err != nil {
		return err
	}
	if g.Root != nil {
		label := fmt.Sprintf("root level=%d", g.Root.NestingLevel)
		if _, err := fmt.Fprintf(w, "  \"root\" [label=%q,shape=diamond];\n", escape(label)); err != nil {
			return err
		}
		for _, child := range g.Root.Children {
			if _, err := fmt.Fprintf(w, "  \"root\" -> %q;\n", child.Header.Name); err != nil {
				return err
			}
		}
	}
	for _, l := range g.Loops {
		label := fmt.Sprintf("header=%s level=%d reducible=%v", l.Header.Name, l.NestingLevel, l.Reducible)
		if _, err := fmt.Fprintf(w, "  %q [label=%q];\n", l.Header.Name, escape(label)); err != nil {
			return err
		}
		for _, child := range l.Children {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", l.Header.Name, child.Header.Name); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}
