package viz

import (
	"os"
	"path/filepath"

	"github.com/maocore/mao/cfgbuild"
)

// DumpFunction writes <function>.vcg and <function>.dot into dir, per
// spec §6's file-naming rule. dir must already exist.
func DumpFunction(dir string, c *cfgbuild.CFG) error {
	vcgPath := filepath.Join(dir, c.Function.Name+".vcg")
	vf, err := os.Create(vcgPath)
	if err != nil {
		return err
	}
	defer vf.Close()
	if err := WriteVCG(vf, c); err != nil {
		return err
	}

	dotPath := filepath.Join(dir, c.Function.Name+".dot")
	df, err := os.Create(dotPath)
	if err != nil {
		return err
	}
	defer df.Close()
	return WriteDOT(df, c)
}
