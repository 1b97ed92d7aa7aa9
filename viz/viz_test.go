package viz

import (
	"bytes"
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/loop"
)

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

func buildSimpleCFG(t *testing.T) *cfgbuild.CFG {
	t.Helper()
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)
	f := ir.NewFunction("f", ss)
	u.AddFunction(f)

	lbl := u.NewLabel("f", true)
	lbl.Text = "f:"
	ret := u.NewInstruction(ir.Instruction{Decoded: x86asm.Inst{Op: x86asm.RET}, Op: x86asm.RET, Mode: ir.Mode64})
	ret.Text = "ret \"weird\"\tquoted"
	chain(f, ss, lbl, ret)

	return cfgbuild.Build(f, true)
}

func TestWriteVCGEscaping(t *testing.T) {
	c := buildSimpleCFG(t)
	var buf bytes.Buffer
	require.NoError(t, WriteVCG(&buf, c))

	out := buf.String()
	assert.NotContains(t, out, "\t")
	assert.Contains(t, out, `\"weird\"`)
	assert.Contains(t, out, "graph: { title: \"CFG\"")
}

func TestWriteDOTProducesValidDigraph(t *testing.T) {
	c := buildSimpleCFG(t)
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, c))

	out := buf.String()
	assert.Contains(t, out, "digraph CFG {")
	assert.Contains(t, out, "->")
}

func TestWriteLoopDOTIncludesRoot(t *testing.T) {
	c := buildSimpleCFG(t)
	g := loop.Find(c)

	var buf bytes.Buffer
	require.NoError(t, WriteLoopDOT(&buf, g))

	out := buf.String()
	assert.Contains(t, out, "digraph Loops {")
	assert.Contains(t, out, `"root"`)
}
