package relax

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maocore/mao/ir"
)

func chain(ss *ir.Subsection, entries ...*ir.Entry) {
	for i, e := range entries {
		e.Subsection = ss
		if i > 0 {
			e.Prev = entries[i-1]
			entries[i-1].Next = e
		}
	}
	ss.First, ss.Last = entries[0], entries[len(entries)-1]
}

func insn(op x86asm.Op, args ...x86asm.Arg) ir.Instruction {
	var a x86asm.Args
	for i, arg := range args {
		a[i] = arg
	}
	return ir.Instruction{Decoded: x86asm.Inst{Op: op, Args: a, Len: 2}, Op: op, Mode: ir.Mode64}
}

func TestRelaxFixedSizeDirectives(t *testing.T) {
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".data")
	ss := sec.GetOrCreateSubsection(0)

	b := u.NewDirective(ir.Directive{Op: ir.DirByte})
	w := u.NewDirective(ir.Directive{Op: ir.DirWord})
	l := u.NewDirective(ir.Directive{Op: ir.DirLong})
	q := u.NewDirective(ir.Directive{Op: ir.DirQuad})
	chain(ss, b, w, l, q)

	sizes, offsets, err := Relax(sec)
	require.NoError(t, err)

	assert.Equal(t, 1, sizes[b])
	assert.Equal(t, 2, sizes[w])
	assert.Equal(t, 4, sizes[l])
	assert.Equal(t, 8, sizes[q])

	assert.Equal(t, 0, offsets[b])
	assert.Equal(t, 1, offsets[w])
	assert.Equal(t, 3, offsets[l])
	assert.Equal(t, 7, offsets[q])
}

func TestRelaxFatalDirective(t *testing.T) {
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)

	org := u.NewDirective(ir.Directive{Op: ir.DirOrg})
	chain(ss, org)

	_, _, err := Relax(sec)
	assert.Error(t, err)
}

func TestRelaxShortJumpStaysShort(t *testing.T) {
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)

	jmp := u.NewInstruction(insn(x86asm.JMP, x86asm.Rel(0)))
	jmp.Insn.Target = &ir.Operand{Kind: ir.OperandSymbol, Symbol: "L"}
	lbl := u.NewLabel("L", true)
	ret := u.NewInstruction(insn(x86asm.RET))
	chain(ss, jmp, lbl, ret)

	sizes, _, err := Relax(sec)
	require.NoError(t, err)
	assert.Equal(t, shortJumpSize, sizes[jmp])
}

func TestRelaxInvalidation(t *testing.T) {
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".data")
	ss := sec.GetOrCreateSubsection(0)
	b := u.NewDirective(ir.Directive{Op: ir.DirByte})
	chain(ss, b)

	_, _, err := Relax(sec)
	require.NoError(t, err)
	assert.NotNil(t, sec.Sizes)

	sec.InvalidateSizes()
	assert.Nil(t, sec.Sizes)

	_, _, err = Relax(sec)
	require.NoError(t, err)
	assert.NotNil(t, sec.Sizes)
}
