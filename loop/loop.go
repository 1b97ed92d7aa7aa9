// Package loop implements Havlak's loop-structure finder: single-pass
// discovery of both reducible and irreducible loops over a CFG using DFS
// numbering and union-find with path compression (spec §4.4).
package loop

import (
	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
)

// maxNonBackPreds bounds the non-back-predecessor set considered for any
// single node; exceeding it signals a degenerate input and the whole
// function's loop finding is abandoned rather than risk runaway work.
const maxNonBackPreds = 32768

// SimpleLoop is one discovered loop: a header, the back-edge source
// ("bottom"), its body (including the header), reducibility, and nesting.
type SimpleLoop struct {
	Header       *cfgbuild.BasicBlock
	Bottom       *cfgbuild.BasicBlock
	Body         map[*cfgbuild.BasicBlock]bool
	Reducible    bool
	NestingLevel int
	Children     []*SimpleLoop
	Parent       *SimpleLoop
}

// Graph is the loop forest for one function's CFG: every discovered loop
// plus a synthetic root representing the whole function.
type Graph struct {
	CFG   *cfgbuild.CFG
	Loops []*SimpleLoop
	Root  *SimpleLoop
}

// unionFindNode is Havlak's union-find element, one per CFG node,
// supporting path-compression-only Find (no union-by-rank).
type unionFindNode struct {
	bb     *cfgbuild.BasicBlock
	parent *unionFindNode
	loop   *SimpleLoop
}

func (n *unionFindNode) find() *unionFindNode {
	if n.parent == n {
		return n
	}
	n.parent = n.parent.find()
	return n.parent
}

func (n *unionFindNode) union(target *unionFindNode) {
	n.find().parent = target
}

// GetLSG returns the cached loop-structure graph for f, building it (from
// f's CFG) if not already cached.
func GetLSG(f *ir.Function) *Graph {
	if v, ok := f.GetCache("lsg"); ok {
		return v.(*Graph)
	}
	g := Find(cfgbuild.GetCFG(f))
	f.SetCache("lsg", g)
	return g
}

// Find runs Havlak's algorithm over c and returns the resulting loop
// forest. Returns a Graph with no loops and a nil Root if the CFG exceeds
// maxNonBackPreds for any node.
func Find(c *cfgbuild.CFG) *Graph {
	g := &Graph{CFG: c}

	nodes := make(map[*cfgbuild.BasicBlock]*unionFindNode, len(c.Blocks))
	for _, bb := range c.Blocks {
		nodes[bb] = &unionFindNode{bb: bb}
	}
	for _, n := range nodes {
		n.parent = n
	}

	order, dfsNumber, last := dfsNumber(c)
	if order == nil {
		return g
	}

	// Partition incoming edges of every node into back-preds and
	// non-back-preds up front.
	backPreds := make(map[*cfgbuild.BasicBlock][]*cfgbuild.BasicBlock)
	nonBackPreds := make(map[*cfgbuild.BasicBlock][]*cfgbuild.BasicBlock)
	for _, w := range c.Blocks {
		wNum, ok := dfsNumber[w]
		if !ok {
			continue
		}
		for _, v := range w.Preds {
			vNum, ok := dfsNumber[v]
			if !ok {
				continue
			}
			if isAncestor(wNum, vNum, last[w]) {
				backPreds[w] = append(backPreds[w], v)
			} else {
				nonBackPreds[w] = append(nonBackPreds[w], v)
			}
		}
		if len(nonBackPreds[w]) > maxNonBackPreds {
			return &Graph{CFG: c}
		}
	}

	header := make(map[*cfgbuild.BasicBlock]*SimpleLoop)

	// Iterate from highest DFS number to lowest.
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		wNode := nodes[w]

		// Seed the worklist from w's back-predecessors — the sources of
		// edges that jump back to w — then chase their own predecessors
		// upward. nonBackPreds[w] plays no seeding role here; it is used
		// only while growing the loop body below, to tell an in-loop
		// predecessor from one that proves the loop irreducible.
		nodeSet := make(map[*unionFindNode]bool)
		irreducible := false

		worklist := make([]*unionFindNode, 0, len(backPreds[w]))
		for _, v := range backPreds[w] {
			vFind := nodes[v].find()
			if vFind != wNode && !nodeSet[vFind] {
				nodeSet[vFind] = true
				worklist = append(worklist, vFind)
			}
		}
		body := make(map[*cfgbuild.BasicBlock]bool)
		for len(worklist) > 0 {
			y := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			if body[y.bb] {
				continue
			}
			if y == wNode {
				continue
			}
			body[y.bb] = true
			for _, v := range y.bb.Preds {
				vn, ok := nodes[v]
				if !ok {
					continue
				}
				vf := vn.find()
				vNum, ok := dfsNumber[vf.bb]
				if !ok {
					continue
				}
				if !isAncestor(dfsNumber[w], vNum, last[w]) {
					irreducible = true
				} else if vf != wNode && !body[vf.bb] {
					worklist = append(worklist, vf)
				}
			}
		}

		hasSelfEdge := false
		for _, p := range w.Preds {
			if p == w {
				hasSelfEdge = true
			}
		}

		if len(body) > 0 || hasSelfEdge {
			bottom := w
			if len(backPreds[w]) > 0 {
				bottom = backPreds[w][0]
			}
			sl := &SimpleLoop{
				Header:    w,
				Bottom:    bottom,
				Body:      body,
				Reducible: !irreducible,
			}
			sl.Body[w] = true
			header[w] = sl
			g.Loops = append(g.Loops, sl)

			for bb := range body {
				nodes[bb].union(wNode)
			}
		}
	}

	computeNesting(g)
	return g
}

// dfsNumber runs a DFS from c.Source, numbering every reached block and
// computing last[w] = the maximum DFS number among w's descendants.
// Returns nil order if Source has no reachable blocks.
func dfsNumber(c *cfgbuild.CFG) ([]*cfgbuild.BasicBlock, map[*cfgbuild.BasicBlock]int, map[*cfgbuild.BasicBlock]int) {
	dfsNumber := make(map[*cfgbuild.BasicBlock]int)
	last := make(map[*cfgbuild.BasicBlock]int)
	var order []*cfgbuild.BasicBlock

	counter := 0
	var visit func(bb *cfgbuild.BasicBlock)
	visit = func(bb *cfgbuild.BasicBlock) {
		if _, seen := dfsNumber[bb]; seen {
			return
		}
		dfsNumber[bb] = counter
		counter++
		order = append(order, bb)
		maxDesc := dfsNumber[bb]
		for _, s := range bb.Succs {
			if _, seen := dfsNumber[s]; !seen {
				visit(s)
			}
			if d, ok := last[s]; ok && d > maxDesc {
				maxDesc = d
			} else if d, ok := dfsNumber[s]; ok && d > maxDesc {
				maxDesc = d
			}
		}
		last[bb] = maxDesc
	}
	visit(c.Source)

	if len(order) == 0 {
		return nil, nil, nil
	}
	return order, dfsNumber, last
}

// isAncestor reports whether the node numbered candidateNum is a DFS
// descendant of the node numbered wNum, given w's own last[] bound.
func isAncestor(wNum, candidateNum, wLast int) bool {
	return wNum <= candidateNum && candidateNum <= wLast
}

// computeNesting assigns each loop's NestingLevel as one more than its
// deepest child's, after building the parent/child relation from body
// containment (innermost loops — no nested loop inside them — get 0), then
// builds the synthetic root loop ("start node is root of all other loops",
// MaoLoops.cc) linking every top-level loop as its child and giving it a
// level one past the deepest top-level loop (spec §4.4 step 6).
func computeNesting(g *Graph) {
	for _, outer := range g.Loops {
		for _, inner := range g.Loops {
			if outer == inner {
				continue
			}
			if outer.Body[inner.Header] && len(outer.Body) > len(inner.Body) {
				if inner.Parent == nil || len(inner.Parent.Body) > len(outer.Body) {
					inner.Parent = outer
				}
			}
		}
	}
	for _, l := range g.Loops {
		if l.Parent != nil {
			l.Parent.Children = append(l.Parent.Children, l)
		}
	}

	root := &SimpleLoop{Header: g.CFG.Source, Reducible: true}
	for _, l := range g.Loops {
		if l.Parent == nil {
			l.Parent = root
			root.Children = append(root.Children, l)
		}
	}
	g.Root = root

	var level func(l *SimpleLoop) int
	level = func(l *SimpleLoop) int {
		if len(l.Children) == 0 {
			l.NestingLevel = 0
			return 0
		}
		max := 0
		for _, c := range l.Children {
			if lv := level(c); lv > max {
				max = lv
			}
		}
		l.NestingLevel = max + 1
		return l.NestingLevel
	}
	level(root)
}
