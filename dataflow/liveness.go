package dataflow

import (
	"github.com/maocore/mao/bitstring"
	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/oracle"
)

// registerUniverseWidth is Liveness's fixed bit-vector width: bit i is
// register i (spec §4.6).
const registerUniverseWidth = 256

// Liveness is a backward may-analysis over a fixed 256-bit register
// universe.
type Liveness struct {
	cfg *cfgbuild.CFG
	sol *Solution
}

// ComputeLiveness solves liveness over c.
func ComputeLiveness(c *cfgbuild.CFG) *Liveness {
	p := &Problem{
		CFG:       c,
		Direction: Backward,
		MeetOp:    Union,
		Universe:  registerUniverseWidth,
		Initial:   bitstring.New(registerUniverseWidth),
	}
	p.Gen = func(bb *cfgbuild.BasicBlock) bitstring.BitString { gen, _ := genKill(bb); return gen }
	p.Kill = func(bb *cfgbuild.BasicBlock) bitstring.BitString { _, kill := genKill(bb); return kill }

	return &Liveness{cfg: c, sol: Solve(p)}
}

// genKill walks bb's entries in reverse, producing the per-BB gen/kill
// pair: gen is whatever is used before any redefinition, kill is whatever
// is defined before any use.
func genKill(bb *cfgbuild.BasicBlock) (gen, kill bitstring.BitString) {
	gen = bitstring.New(registerUniverseWidth)
	kill = bitstring.New(registerUniverseWidth)

	forEachEntryReverse(bb, func(e *ir.Entry) {
		if !e.IsInstruction() {
			return
		}
		insn := e.AsInstruction()
		use := oracle.RegisterUseMask(insn)
		def := oracle.RegisterDefMask(insn)
		gen = gen.Difference(def).Or(use)
		kill = kill.Or(def).Difference(use)
	})
	return gen, kill
}

// LiveOut returns the solved live-out set for bb.
func (l *Liveness) LiveOut(bb *cfgbuild.BasicBlock) bitstring.BitString { return l.sol.Out(bb) }

// LiveIn returns the solved live-in set for bb.
func (l *Liveness) LiveIn(bb *cfgbuild.BasicBlock) bitstring.BitString { return l.sol.In(bb) }

// GetLive recomputes, from bb's solved live-out set, the registers live
// immediately after insn by walking backward from bb's last entry to
// insn, re-applying the transfer function at each instruction along the
// way.
func (l *Liveness) GetLive(bb *cfgbuild.BasicBlock, insn *ir.Entry) bitstring.BitString {
	live := l.sol.Out(bb)

	for cur := bb.Last; cur != nil && cur != insn; cur = prevOrNil(bb, cur) {
		if cur.IsInstruction() {
			ci := cur.AsInstruction()
			use := oracle.RegisterUseMask(ci)
			def := oracle.RegisterDefMask(ci)
			live = live.Difference(def).Or(use)
		}
	}
	return live
}

// forEachEntryReverse visits every entry of bb from Last to First.
func forEachEntryReverse(bb *cfgbuild.BasicBlock, f func(e *ir.Entry)) {
	if bb.First == nil {
		return
	}
	for cur := bb.Last; ; cur = cur.Prev {
		f(cur)
		if cur == bb.First {
			break
		}
	}
}

// prevOrNil returns cur.Prev unless cur is bb's first entry, in which
// case it returns nil so callers' loops terminate cleanly.
func prevOrNil(bb *cfgbuild.BasicBlock, cur *ir.Entry) *ir.Entry {
	if cur == bb.First {
		return nil
	}
	return cur.Prev
}
