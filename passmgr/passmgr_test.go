package passmgr

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/arch/x86/x86asm"

	"github.com/maocore/mao/ir"
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

func buildUnreachableBlockUnit(t *testing.T) *ir.Unit {
	t.Helper()
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)
	f := ir.NewFunction("f", ss)
	u.AddFunction(f)

	lblF := u.NewLabel("f", true)
	ret := u.NewInstruction(ir.Instruction{Decoded: x86asm.Inst{Op: x86asm.RET}, Op: x86asm.RET, Mode: ir.Mode64})
	lblDead := u.NewLabel(".dead", true)
	retDead := u.NewInstruction(ir.Instruction{Decoded: x86asm.Inst{Op: x86asm.RET}, Op: x86asm.RET, Mode: ir.Mode64})

	chain(f, ss, lblF, ret, lblDead, retDead)
	return u
}

func TestDCEReportsUnreachableBlock(t *testing.T) {
	u := buildUnreachableBlockUnit(t)
	var buf bytes.Buffer
	m := New()
	RegisterDCE(m, &buf)
	m.Run(u)
	assert.Contains(t, buf.String(), ".dead")
}

func TestParseMaoFlag(t *testing.T) {
	name, overrides, err := parseMaoFlag("DCE=report[false],verbose")
	require.NoError(t, err)
	assert.Equal(t, "DCE", name)
	require.Len(t, overrides, 2)
	assert.Equal(t, "report", overrides[0].name)
	assert.Equal(t, "false", overrides[0].val)
	assert.True(t, overrides[0].hasVal)
	assert.Equal(t, "verbose", overrides[1].name)
	assert.False(t, overrides[1].hasVal)
}

func TestApplyMaoFlagOverridesOption(t *testing.T) {
	u := buildUnreachableBlockUnit(t)
	var buf bytes.Buffer
	m := New()
	RegisterDCE(m, &buf)

	require.NoError(t, m.ApplyMaoFlag("DCE=report[false]"))
	m.Run(u)
	assert.Empty(t, buf.String())
}

func TestApplyToFuncsFilter(t *testing.T) {
	u := buildUnreachableBlockUnit(t)
	var buf bytes.Buffer
	m := New()
	RegisterDCE(m, &buf)
	m.ApplyToFuncs = regexp.MustCompile("^nomatch$")

	m.Run(u)
	assert.Empty(t, buf.String())
}

func TestConfigureUnknownPass(t *testing.T) {
	m := New()
	err := m.Configure(PipelineConfig{Passes: []PipelinePass{{Name: "NOPE"}}})
	assert.Error(t, err)
}
