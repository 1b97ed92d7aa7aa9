package cfgbuild

import (
	"strconv"

	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/oracle"
)

// dataDirectives is the set of directives that emit bytes into the
// section and therefore belong to whatever basic block is open when they
// are encountered; every other directive is transparent to CFG
// construction (spec §4.3 step 1).
var dataDirectives = map[ir.DirectiveOp]bool{
	ir.DirByte: true, ir.DirWord: true, ir.DirRVA: true, ir.DirLong: true, ir.DirQuad: true,
	ir.DirAscii: true, ir.DirString8: true, ir.DirString16: true, ir.DirString32: true, ir.DirString64: true,
	ir.DirSpace: true, ir.DirDsB: true, ir.DirDsW: true, ir.DirDsL: true, ir.DirDsD: true, ir.DirDsX: true,
	ir.DirFill: true, ir.DirDCD: true, ir.DirDCS: true, ir.DirDCX: true,
	ir.DirSLEB128: true, ir.DirULEB128: true,
}

// Build walks f's entry stream once and produces its CFG. When
// conservative is true, every assembly-source label forces a basic-block
// boundary even if nothing branches to it (spec §4.3 step 2).
func Build(f *ir.Function, conservative bool) *CFG {
	c := &CFG{
		Function:       f,
		labelToBB:      make(map[string]*BasicBlock),
		jumpTableCache: make(map[string][]string),
	}
	c.Source = c.newBlock("<SOURCE>")
	c.Sink = c.newBlock("<SINK>")

	var current *BasicBlock
	pendingFrom := c.Source

	attach := func(bb *BasicBlock) {
		if pendingFrom != nil {
			addEdge(pendingFrom, bb)
			pendingFrom = nil
		}
	}

	it := f.Entries()
	for it.HasNext() {
		e := it.Next()

		switch {
		case e.IsDirective():
			d := e.AsDirective()
			if !dataDirectives[d.Op] {
				continue
			}
			if current != nil {
				current.HasDataDirectives = true
				current.AddEntry(e)
			}

		case e.IsLabel():
			lbl := e.AsLabel().Name
			_, alreadyMapped := c.labelToBB[lbl]

			if current != nil {
				shouldClose := conservative || alreadyMapped
				if shouldClose {
					pendingFrom = current
					current = nil
				}
			}

			if current == nil {
				bb, exists := c.labelToBB[lbl]
				if !exists {
					bb = c.newBlock(lbl)
					c.labelToBB[lbl] = bb
				}
				attach(bb)
				current = bb
			} else {
				// Merging into the still-open current BB: the label
				// names a point inside it rather than a boundary.
				c.labelToBB[lbl] = current
			}
			current.AddEntry(e)

			if nextIsSizeDirective(e) {
				addEdge(current, c.Sink)
				current = nil
				pendingFrom = nil
			}

		case e.IsInstruction():
			if current == nil {
				current = c.newBlock(c.freshName())
				attach(current)
			}
			current.AddEntry(e)

			insn := e.AsInstruction()
			isCT := oracle.IsControlTransfer(insn)
			isCall := oracle.IsCall(insn)

			var targets []string
			if isCT && !isCall {
				targets = extractTargets(c, f, e)
			}

			endsBB := isCT || !oracle.HasFallThrough(insn)
			if endsBB {
				for _, t := range targets {
					tb := c.getOrCreateLabelBB(t)
					addEdge(current, tb)
				}
				if len(targets) == 0 && !oracle.HasFallThrough(insn) {
					addEdge(current, c.Sink)
				}
				if oracle.HasFallThrough(insn) {
					pendingFrom = current
				}
				current = nil
			}
		}
	}

	if current != nil {
		addEdge(current, c.Sink)
	}

	return c
}

func (c *CFG) freshName() string {
	c.nextID++
	return "<BB" + strconv.Itoa(c.nextID) + ">"
}

func nextIsSizeDirective(e *ir.Entry) bool {
	n := e.Next
	return n != nil && n.IsDirective() && n.AsDirective().Op == ir.DirSize
}

