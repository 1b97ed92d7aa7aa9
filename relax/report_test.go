package relax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maocore/mao/ir"
)

func TestWriteSizeReport(t *testing.T) {
	u := ir.NewUnit()
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)
	f := ir.NewFunction("f", ss)
	u.AddFunction(f)

	b1 := u.NewDirective(ir.Directive{Op: ir.DirByte})
	b2 := u.NewDirective(ir.Directive{Op: ir.DirLong})
	b1.Function, b2.Function = f, f
	chain(ss, b1, b2)

	sizes, _, err := Relax(sec)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteSizeReport(path, sec, sizes))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"f"`)
	assert.Contains(t, string(data), `"size":5`)
}
