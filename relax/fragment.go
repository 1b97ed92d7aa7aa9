// Package relax computes per-entry byte sizes and offsets for a section by
// mirroring the assembler's fragment model: a linear list of fragments
// with fixed and variable parts, relaxed to a fixed point (spec §4.5).
package relax

import (
	"github.com/pkg/errors"

	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/oracle"
)

// State identifies how a fragment's size is determined: a StateFixed
// fragment contributes FrFix bytes; every other state marks an entry whose
// size has a variable part that relaxation resolves.
type State int

const (
	StateFixed State = iota
	StateMachineDependent // short-vs-near branch encoding
	StateAlignCode
	StateLEB128
	StateSpace
)

// shortJumpSize and the two long sizes are the encodings a relaxable direct
// jump may take: short uses an 8-bit displacement, long a 32-bit one.
// Conditional jumps need an extra opcode-escape byte in their long form.
const (
	shortJumpSize        = 2
	unconditionalLongSize = 5
	conditionalLongSize   = 6
)

// Fragment is one run of the fragment list: a fixed-size prefix (fr_fix)
// plus, for non-StateFixed fragments, a variable encoding chosen during
// relaxation.
type Fragment struct {
	Entry  *ir.Entry
	FrFix  int
	State  State
	Address int // fr_address, set by relax_segment

	// Populated only for StateMachineDependent fragments.
	TargetLabel string
	IsShort     bool
	ShortSize   int
	LongSize    int

	// Populated only for StateAlignCode fragments.
	AlignPower int

	savedFrFix int
}

// UnsupportedDirectiveError is returned when a section contains a
// directive the relaxer refuses to model (spec §7 kind 2): .org, .struct
// and .incbin all move or size the location counter in ways the
// fragment/fixed-point model cannot express.
type UnsupportedDirectiveError struct {
	Op ir.DirectiveOp
}

func (e *UnsupportedDirectiveError) Error() string {
	return "relax: unsupported directive in relaxable section"
}

// littleNumSize is GAS's internal floating-literal storage unit.
const littleNumSize = 2

// directiveSize returns the directive's fixed-size contribution to the
// current fragment, or (0, true, state) when it instead ends the fragment
// with a variable part of the given relax state.
func directiveSize(d *ir.Directive) (fixed int, variable bool, state State, err error) {
	switch d.Op {
	case ir.DirByte:
		return 1, false, StateFixed, nil
	case ir.DirWord:
		return 2, false, StateFixed, nil
	case ir.DirRVA, ir.DirLong:
		return 4, false, StateFixed, nil
	case ir.DirQuad:
		return 8, false, StateFixed, nil

	case ir.DirAscii:
		return stringOperandSize(d, 1), false, StateFixed, nil
	case ir.DirString8:
		return stringOperandSize(d, 1), false, StateFixed, nil
	case ir.DirString16:
		return stringOperandSize(d, 2), false, StateFixed, nil
	case ir.DirString32:
		return stringOperandSize(d, 4), false, StateFixed, nil
	case ir.DirString64:
		return stringOperandSize(d, 8), false, StateFixed, nil

	case ir.DirDCD:
		return dcSize(d, 8, 4*2*littleNumSize), false, StateFixed, nil
	case ir.DirDCS:
		return dcSize(d, 4, 2*2*littleNumSize), false, StateFixed, nil
	case ir.DirDCX:
		return dcSize(d, 12, 5*2*littleNumSize), false, StateFixed, nil

	case ir.DirSpace:
		return elementRepeatSize(d, 1, StateSpace)
	case ir.DirDsB:
		return elementRepeatSize(d, 1, StateSpace)
	case ir.DirDsW:
		return elementRepeatSize(d, 2, StateSpace)
	case ir.DirDsL:
		return elementRepeatSize(d, 4, StateSpace)
	case ir.DirDsD:
		return elementRepeatSize(d, 8, StateSpace)
	case ir.DirDsX:
		return elementRepeatSize(d, 10, StateSpace)
	case ir.DirFill:
		return elementRepeatSize(d, 1, StateSpace)

	case ir.DirSLEB128:
		return leb128Size(d, true)
	case ir.DirULEB128:
		return leb128Size(d, false)

	case ir.DirP2Align, ir.DirP2AlignW, ir.DirP2AlignL:
		return 0, true, StateAlignCode, nil

	case ir.DirOrg, ir.DirStruct, ir.DirIncbin:
		return 0, false, StateFixed, errors.Wrapf(&UnsupportedDirectiveError{Op: d.Op}, "directive %v", d.Op)

	default:
		// CFI family and section/symbol/mode bookkeeping directives
		// (.section, .type, .size, .file, .loc, .code16/32/64, .ident,
		// .global, .local, .weak, .comm, .set, .equiv, .weakref,
		// .hidden, .symver, .arch, .linefile, .loc_mark_labels,
		// .allow/disallow_index_reg) contribute no bytes.
		return 0, false, StateFixed, nil
	}
}

func stringOperandSize(d *ir.Directive, multiplier int) int {
	total := 0
	for _, op := range d.Operands {
		if op.Kind == ir.OperandString {
			total += multiplier * len(op.String)
		}
	}
	return total
}

func dcSize(d *ir.Directive, hexSize, littleNumFormSize int) int {
	for _, op := range d.Operands {
		if op.Kind == ir.OperandInteger {
			return hexSize
		}
	}
	return littleNumFormSize
}

func elementRepeatSize(d *ir.Directive, elemSize int, variableState State) (int, bool, State, error) {
	if len(d.Operands) == 0 {
		return 0, false, StateFixed, nil
	}
	if d.Operands[0].Kind == ir.OperandInteger {
		return int(d.Operands[0].Integer) * elemSize, false, StateFixed, nil
	}
	return 0, true, variableState, nil
}

func leb128Size(d *ir.Directive, signed bool) (int, bool, State, error) {
	if len(d.Operands) == 0 || d.Operands[0].Kind != ir.OperandInteger {
		return 0, true, StateLEB128, nil
	}
	v := d.Operands[0].Integer
	n := 0
	if signed {
		n = sleb128Len(v)
	} else {
		n = uleb128Len(uint64(v))
	}
	return n, false, StateFixed, nil
}

func uleb128Len(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

func sleb128Len(v int64) int {
	n := 1
	for {
		more := !((v == 0 && v&0x40 == 0) || (v == -1 && v&0x40 != 0))
		if !more {
			break
		}
		v >>= 7
		n++
	}
	return n
}

// jumpSizes returns the short/long encoding sizes for a relaxable direct
// jump instruction.
func jumpSizes(insn *ir.Instruction) (short, long int) {
	if oracle.IsConditionalJump(insn) {
		return shortJumpSize, conditionalLongSize
	}
	return shortJumpSize, unconditionalLongSize
}
