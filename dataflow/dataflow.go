// Package dataflow implements a generic iterative dataflow solver plus the
// two concrete analyses the core ships: Liveness and ReachingDefs
// (spec §4.6).
package dataflow

import (
	"github.com/maocore/mao/bitstring"
	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
)

// Direction is the traversal direction a Problem solves in.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Meet is the confluence operator applied where multiple edges meet:
// union for may-analyses, intersection for must-analyses.
type Meet int

const (
	Union Meet = iota
	Intersect
)

// maxIterations bounds the solver's fixed-point loop; exceeding it
// signals a bug (a gen/kill pair that isn't monotone) rather than a slow
// but correct analysis, so it is fatal (spec §4.6 step 3).
const maxIterations = 10000

// Problem parameterizes the generic solver: per-BB gen/kill sets, a
// direction, a confluence operator, and the universe width every
// BitString must share.
type Problem struct {
	CFG       *cfgbuild.CFG
	Direction Direction
	MeetOp    Meet
	Universe  int

	Gen  func(bb *cfgbuild.BasicBlock) bitstring.BitString
	Kill func(bb *cfgbuild.BasicBlock) bitstring.BitString

	// Initial is the entry/exit set every BB starts from before the
	// first Transfer.
	Initial bitstring.BitString
}

// Solution is a solved Problem: the entry and exit set computed for every
// basic block.
type Solution struct {
	problem *Problem
	gen, kill map[*cfgbuild.BasicBlock]bitstring.BitString
	in, out   map[*cfgbuild.BasicBlock]bitstring.BitString
}

// In returns the solved entry set for bb.
func (s *Solution) In(bb *cfgbuild.BasicBlock) bitstring.BitString { return s.in[bb] }

// Out returns the solved exit set for bb.
func (s *Solution) Out(bb *cfgbuild.BasicBlock) bitstring.BitString { return s.out[bb] }

// meet folds sets according to p's confluence operator; an empty input
// returns p.Initial.
func (p *Problem) meet(sets []bitstring.BitString) bitstring.BitString {
	if len(sets) == 0 {
		return p.Initial
	}
	acc := sets[0]
	for _, s := range sets[1:] {
		if p.MeetOp == Union {
			acc = acc.Or(s)
		} else {
			acc = acc.And(s)
		}
	}
	return acc
}

// transfer computes out = gen ∪ (in ∖ kill).
func transfer(in, gen, kill bitstring.BitString) bitstring.BitString {
	return gen.Or(in.Difference(kill))
}

// Solve runs the generic iterative fixed-point algorithm described in
// spec §4.6: initialise every BB's boundary set, compute gen/kill once,
// then iterate Transfer to a fixed point.
func Solve(p *Problem) *Solution {
	s := &Solution{
		problem: p,
		gen:     make(map[*cfgbuild.BasicBlock]bitstring.BitString),
		kill:    make(map[*cfgbuild.BasicBlock]bitstring.BitString),
		in:      make(map[*cfgbuild.BasicBlock]bitstring.BitString),
		out:     make(map[*cfgbuild.BasicBlock]bitstring.BitString),
	}

	for _, bb := range p.CFG.Blocks {
		s.gen[bb] = p.Gen(bb)
		s.kill[bb] = p.Kill(bb)
		s.in[bb] = p.Initial
		s.out[bb] = p.Initial
	}

	changed := true
	for iter := 0; changed; iter++ {
		ir.Assert(iter < maxIterations, "dataflow: solver did not converge within %d iterations", maxIterations)
		changed = false

		for _, bb := range p.CFG.Blocks {
			var confluence bitstring.BitString
			if p.Direction == Forward {
				confluence = p.meet(collect(bb.Preds, s.out))
			} else {
				confluence = p.meet(collect(bb.Succs, s.in))
			}

			var newBoundary, newInterior bitstring.BitString
			if p.Direction == Forward {
				newBoundary = confluence
				newInterior = transfer(newBoundary, s.gen[bb], s.kill[bb])
				if !newBoundary.Equal(s.in[bb]) || !newInterior.Equal(s.out[bb]) {
					changed = true
				}
				s.in[bb] = newBoundary
				s.out[bb] = newInterior
			} else {
				newBoundary = confluence
				newInterior = transfer(newBoundary, s.gen[bb], s.kill[bb])
				if !newBoundary.Equal(s.out[bb]) || !newInterior.Equal(s.in[bb]) {
					changed = true
				}
				s.out[bb] = newBoundary
				s.in[bb] = newInterior
			}
		}
	}

	return s
}

func collect(bbs []*cfgbuild.BasicBlock, sets map[*cfgbuild.BasicBlock]bitstring.BitString) []bitstring.BitString {
	out := make([]bitstring.BitString, 0, len(bbs))
	for _, bb := range bbs {
		out = append(out, sets[bb])
	}
	return out
}
