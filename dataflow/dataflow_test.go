package dataflow

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
)

// chain links entries into a function's entry stream in order, mirroring
// what the (out of scope) parser would do.
func chain(f *ir.Function, ss *ir.Subsection, entries ...*ir.Entry) {
	for i, e := range entries {
		e.Function = f
		e.Subsection = ss
		if i > 0 {
			e.Prev = entries[i-1]
			entries[i-1].Next = e
		}
	}
	f.First, f.Last = entries[0], entries[len(entries)-1]
	ss.First, ss.Last = entries[0], entries[len(entries)-1]
}

func newTestFunction(u *ir.Unit, name string) (*ir.Function, *ir.Subsection) {
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)
	f := ir.NewFunction(name, ss)
	u.AddFunction(f)
	return f, ss
}

func insn(op x86asm.Op, args ...x86asm.Arg) ir.Instruction {
	var a x86asm.Args
	for i, arg := range args {
		a[i] = arg
	}
	return ir.Instruction{Decoded: x86asm.Inst{Op: op, Args: a}, Op: op, Mode: ir.Mode64}
}

// buildStraightLineFunction builds `f: mov %ebx, %eax; ret` as a single
// basic block, returning the CFG and the MOV/RET entries for assertions.
func buildStraightLineFunction(t *testing.T) (*cfgbuild.CFG, *ir.Entry, *ir.Entry) {
	t.Helper()
	u := ir.NewUnit()
	f, ss := newTestFunction(u, "f")

	lbl := u.NewLabel("f", true)
	mov := u.NewInstruction(insn(x86asm.MOV, x86asm.EAX, x86asm.EBX))
	ret := u.NewInstruction(insn(x86asm.RET))
	chain(f, ss, lbl, mov, ret)

	c := cfgbuild.Build(f, true)
	return c, mov, ret
}

func TestSolveBackwardLivenessAcrossBB(t *testing.T) {
	c, _, _ := buildStraightLineFunction(t)
	bb := c.Source.Succs[0]

	l := ComputeLiveness(c)
	in := l.LiveIn(bb)
	out := l.LiveOut(bb)

	assert.True(t, in.Get(int(x86asm.RBX)))
	assert.False(t, in.Get(int(x86asm.RAX)))
	assert.True(t, out.IsEmpty())
}

func TestSolveForwardReachingDefsAcrossBB(t *testing.T) {
	c, mov, _ := buildStraightLineFunction(t)
	bb := c.Source.Succs[0]

	r := ComputeReachingDefs(c)
	require.False(t, r.ReachingOut(bb).IsEmpty())
	assert.True(t, r.ReachingIn(bb).IsEmpty())
	_ = mov
}
