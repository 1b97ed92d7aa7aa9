package relax

import (
	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/oracle"
)

// maxIterations bounds relax_segment's fixed-point loop. Each iteration
// can only flip a machine-dependent fragment from short to long, never
// back, and there are finitely many such fragments in any section, so
// this cap is generous headroom rather than a tuning knob.
const maxIterations = 10000

// BuildFragments walks every entry in every subsection of section in
// order and produces one Fragment per entry (spec §4.5's fragment model,
// specialized so that every entry owns exactly one fragment — the
// simplification that lets size_map and offset_map cover every entry
// directly rather than only the entry that happens to close a
// multi-entry fragment run).
func BuildFragments(section *ir.Section) ([]*Fragment, error) {
	var frags []*Fragment

	for _, ss := range section.Subsections {
		it := iterSubsection(ss)
		for it.hasNext() {
			e := it.next()
			f := &Fragment{Entry: e}

			switch {
			case e.IsLabel():
				// A label contributes no bytes of its own; its address
				// is whatever the running total is when reached.

			case e.IsDirective():
				fixed, variable, state, err := directiveSize(e.AsDirective())
				if err != nil {
					return nil, err
				}
				f.FrFix = fixed
				f.State = state
				if state == StateAlignCode && len(e.AsDirective().Operands) > 0 {
					f.AlignPower = int(e.AsDirective().Operands[0].Integer)
				}

			case e.IsInstruction():
				insn := e.AsInstruction()
				if isRelaxableJump(insn) {
					target, _ := oracle.GetTarget(insn)
					short, long := jumpSizes(insn)
					f.State = StateMachineDependent
					f.TargetLabel = target
					f.IsShort = true
					f.ShortSize = short
					f.LongSize = long
				} else {
					f.FrFix = insn.Decoded.Len
				}
			}

			frags = append(frags, f)
		}
	}

	return frags, nil
}

// isRelaxableJump reports whether insn is a direct jump whose encoded
// size depends on the distance to its target, the only instruction shape
// the relaxer treats as machine-dependent.
func isRelaxableJump(insn *ir.Instruction) bool {
	if !oracle.IsJump(insn) || oracle.IsIndirectJump(insn) {
		return false
	}
	_, ok := oracle.GetTarget(insn)
	return ok
}

// Relax computes the fixed point of a section's fragment list and
// returns per-entry size and offset maps covering every entry in the
// section. Results are cached on the section via Sizes/Offsets until the
// next InvalidateSizes call.
func Relax(section *ir.Section) (map[*ir.Entry]int, map[*ir.Entry]int, error) {
	if section.Sizes != nil && section.Offsets != nil {
		return section.Sizes, section.Offsets, nil
	}

	frags, err := BuildFragments(section)
	if err != nil {
		return nil, nil, err
	}

	labelAddr := make(map[string]int)

	changed := true
	for iter := 0; changed; iter++ {
		ir.Assert(iter < maxIterations, "relax: relax_segment did not converge within %d iterations", maxIterations)
		changed = false

		addr := 0
		for _, f := range frags {
			f.Address = addr
			if f.Entry.IsLabel() {
				labelAddr[f.Entry.AsLabel().Name] = addr
			}
			addr += f.size(addr)
		}

		for _, f := range frags {
			if f.State != StateMachineDependent {
				continue
			}
			targetAddr, ok := labelAddr[f.TargetLabel]
			if !ok {
				continue
			}
			if f.IsShort && !fitsInt8(targetAddr-(f.Address+f.ShortSize)) {
				f.IsShort = false
				changed = true
			}
		}
	}

	sizeMap := make(map[*ir.Entry]int)
	offsetMap := make(map[*ir.Entry]int)
	for _, f := range frags {
		sizeMap[f.Entry] = f.size(f.Address)
		offsetMap[f.Entry] = f.Address
	}

	section.Sizes = sizeMap
	section.Offsets = offsetMap
	return sizeMap, offsetMap, nil
}

// size returns f's contribution at the given address, resolving
// StateAlignCode padding (which depends on the running address) and
// StateMachineDependent's short/long choice.
func (f *Fragment) size(address int) int {
	switch f.State {
	case StateMachineDependent:
		if f.IsShort {
			return f.ShortSize
		}
		return f.LongSize
	case StateAlignCode:
		return alignPadding(address, f.AlignPower)
	default:
		return f.FrFix
	}
}

func alignPadding(address, power int) int {
	if power <= 0 {
		return 0
	}
	boundary := 1 << uint(power)
	rem := address % boundary
	if rem == 0 {
		return 0
	}
	return boundary - rem
}

func fitsInt8(v int) bool {
	return v >= -128 && v <= 127
}

type entryIter struct {
	cur, end *ir.Entry
	done     bool
}

func iterSubsection(ss *ir.Subsection) *entryIter {
	return &entryIter{cur: ss.First, end: ss.Last, done: ss.First == nil}
}

func (it *entryIter) hasNext() bool { return !it.done }

func (it *entryIter) next() *ir.Entry {
	e := it.cur
	if it.cur == it.end {
		it.done = true
	} else {
		it.cur = it.cur.Next
	}
	return e
}
