// Package viz emits VCG and DOT text dumps of a function's CFG (spec §6),
// with the escaping rules spec.md requires (`<`, `>`, `"`, tab → spaces)
// and, for VCG, the exact node/edge text format of the original
// MaoCFG.cc::DumpVCG (carried forward per SPEC_FULL.md §C.4).
package viz

import (
	"fmt"
	"io"
	"strings"

	"github.com/maocore/mao/cfgbuild"
)

// escape applies spec §6's dump-format escaping: tabs become a single
// space, and '<', '>', '"' are backslash-escaped.
func escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\t':
			sb.WriteByte(' ')
		case '<', '>', '"':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// WriteVCG writes c as a VCG graph to w, in the node/edge text shape of
// the original DumpVCG: one node per basic block with an info1 field
// listing its entries' source text, one edge per CFG edge.
func WriteVCG(w io.Writer, c *cfgbuild.CFG) error {
	if _, err := fmt.Fprintf(w, "graph: { title: \"CFG\" \n"+
		"splines: yes\n"+
		"layoutalgorithm: dfs\n"+
		"\n"+
		"node.color: lightyellow\n"+
		"node.textcolor: blue\n"+
		"edge.arrowsize: 15\n"); err != nil {
		return err
	}

	for _, bb := range c.Blocks {
		color := ""
		if bb == c.Source || bb == c.Sink {
			color = " color: red"
		}
		if _, err := fmt.Fprintf(w, "node: { title: \"%s\" label: \"%s\"%s", bb.Name, bb.Name, color); err != nil {
			return err
		}
		if _, err := io.WriteString(w, " info1: \""); err != nil {
			return err
		}
		for _, line := range entryText(bb) {
			if _, err := io.WriteString(w, escape(line)+"\\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\"}\n"); err != nil {
			return err
		}
		for _, s := range bb.Succs {
			if _, err := fmt.Fprintf(w, "edge: { sourcename: \"%s\" targetname: \"%s\" }\n", bb.Name, s.Name); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(w, "}\n")
	return err
}

// entryText returns one diagnostic line per entry in bb, in program order.
func entryText(bb *cfgbuild.BasicBlock) []string {
	if bb.First == nil {
		return nil
	}
	var lines []string
	for e := bb.First; ; e = e.Next {
		lines = append(lines, e.Text)
		if e == bb.Last {
			break
		}
	}
	return lines
}
