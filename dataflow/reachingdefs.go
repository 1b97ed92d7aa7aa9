package dataflow

import (
	"slices"

	"golang.org/x/arch/x86/x86asm"

	"github.com/maocore/mao/bitstring"
	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/oracle"
)

// defSite identifies one (block, register) pair that has at least one
// definition somewhere in block — the index space ReachingDefs' bit
// vectors range over (spec §4.6).
type defSite struct {
	bb  *cfgbuild.BasicBlock
	reg x86asm.Reg
}

// ReachingDefs is a forward may-analysis whose bit universe indexes
// (BB, register) pairs rather than bare registers: a set bit means "some
// definition of reg in bb may reach this point", not "reg holds some
// value".
type ReachingDefs struct {
	cfg   *cfgbuild.CFG
	sol   *Solution
	index map[defSite]int
	sites []defSite

	// regSites maps a register to every defSite index defining it,
	// across all blocks — used to build kill(BB).
	regSites map[x86asm.Reg][]int
}

// ComputeReachingDefs solves reaching definitions over c.
func ComputeReachingDefs(c *cfgbuild.CFG) *ReachingDefs {
	r := &ReachingDefs{
		cfg:      c,
		index:    make(map[defSite]int),
		regSites: make(map[x86asm.Reg][]int),
	}

	// Pass 1: discover every (BB, reg) pair with a definition anywhere in
	// the block, assigning each a stable bit index.
	bbDefs := make(map[*cfgbuild.BasicBlock]map[x86asm.Reg]bool)
	for _, bb := range c.Blocks {
		regs := make(map[x86asm.Reg]bool)
		forEachEntryReverse(bb, func(e *ir.Entry) {
			if !e.IsInstruction() {
				return
			}
			for _, reg := range definedRegisters(e.AsInstruction()) {
				regs[reg] = true
			}
		})
		bbDefs[bb] = regs
		for reg := range regs {
			site := defSite{bb: bb, reg: reg}
			idx := len(r.sites)
			r.index[site] = idx
			r.sites = append(r.sites, site)
			r.regSites[reg] = append(r.regSites[reg], idx)
		}
	}

	universe := len(r.sites)
	if universe == 0 {
		universe = 1
	}

	p := &Problem{
		CFG:       c,
		Direction: Forward,
		MeetOp:    Union,
		Universe:  universe,
		Initial:   bitstring.New(universe),
	}
	p.Gen = func(bb *cfgbuild.BasicBlock) bitstring.BitString {
		gen := bitstring.New(universe)
		for reg := range bbDefs[bb] {
			gen = gen.Set(r.index[defSite{bb: bb, reg: reg}])
		}
		return gen
	}
	p.Kill = func(bb *cfgbuild.BasicBlock) bitstring.BitString {
		kill := bitstring.New(universe)
		for reg := range bbDefs[bb] {
			for _, idx := range r.regSites[reg] {
				if r.sites[idx].bb != bb {
					kill = kill.Set(idx)
				}
			}
		}
		return kill
	}

	r.sol = Solve(p)
	return r
}

// definedRegisters returns the parent-normalized registers insn defines,
// including the conservative calling-convention clobber set for calls.
func definedRegisters(insn *ir.Instruction) []x86asm.Reg {
	var out []x86asm.Reg
	mask := oracle.RegisterDefMask(insn)
	if oracle.IsCall(insn) {
		mask = mask.Or(oracle.CallingConventionDefMask())
	}
	for i := 0; i < oracle.RegisterUniverseWidth(); i++ {
		if mask.Get(i) {
			out = append(out, x86asm.Reg(i))
		}
	}
	return out
}

// ReachingIn returns the solved reaching-definitions set at bb's entry, as
// raw (block, register) site indices.
func (r *ReachingDefs) ReachingIn(bb *cfgbuild.BasicBlock) bitstring.BitString { return r.sol.In(bb) }

// ReachingOut returns the solved reaching-definitions set at bb's exit.
func (r *ReachingDefs) ReachingOut(bb *cfgbuild.BasicBlock) bitstring.BitString { return r.sol.Out(bb) }

// Definition names one concrete reaching instruction: the block and
// register it defines.
type Definition struct {
	Insn *ir.Entry
	BB   *cfgbuild.BasicBlock
	Reg  x86asm.Reg
}

// ReachingDefsAt walks bb forward from its first entry to insn,
// re-applying the transfer function at each instruction, and returns the
// exact set of (block, register) sites reaching insn.
func (r *ReachingDefs) ReachingDefsAt(bb *cfgbuild.BasicBlock, insn *ir.Entry) bitstring.BitString {
	cur := r.sol.In(bb)
	if bb.First == nil {
		return cur
	}
	for e := bb.First; e != insn; e = e.Next {
		if e.IsInstruction() {
			for _, reg := range definedRegisters(e.AsInstruction()) {
				site, ok := r.index[defSite{bb: bb, reg: reg}]
				if !ok {
					continue
				}
				for _, idx := range r.regSites[reg] {
					if r.sites[idx].bb != bb {
						cur = cur.Clear(idx)
					}
				}
				cur = cur.Set(site)
			}
		}
		if e == bb.Last {
			break
		}
	}
	return cur
}

// ReachingDefs narrows ReachingDefsAt to a single register, resolving each
// surviving (BB, reg) site down to the concrete defining instruction: the
// last instruction in that BB, in program order, that defines reg. When
// the site's BB is bb itself, the search walks backward from insn.Prev
// first, and falls back to the whole block only if no definition precedes
// insn.
func (r *ReachingDefs) ReachingDefs(bb *cfgbuild.BasicBlock, insn *ir.Entry, reg x86asm.Reg) []Definition {
	set := r.ReachingDefsAt(bb, insn)

	var defs []Definition
	for _, idx := range r.regSites[reg] {
		if !set.Get(idx) {
			continue
		}
		site := r.sites[idx]
		var found *ir.Entry
		if site.bb == bb {
			for e := insn; e != bb.First && found == nil; {
				e = e.Prev
				if e.IsInstruction() && slices.Contains(definedRegisters(e.AsInstruction()), reg) {
					found = e
				}
			}
		}
		if found == nil {
			found, _ = lastDefInBlock(site.bb, reg)
		}
		if found != nil {
			defs = append(defs, Definition{Insn: found, BB: site.bb, Reg: reg})
		}
	}
	return defs
}

// lastDefInBlock returns the last instruction in bb (in program order)
// that defines reg.
func lastDefInBlock(bb *cfgbuild.BasicBlock, reg x86asm.Reg) (*ir.Entry, bool) {
	var found *ir.Entry
	forEachEntryReverse(bb, func(e *ir.Entry) {
		if found != nil || !e.IsInstruction() {
			return
		}
		for _, r := range definedRegisters(e.AsInstruction()) {
			if r == reg {
				found = e
				return
			}
		}
	})
	return found, found != nil
}
