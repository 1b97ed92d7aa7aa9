package passmgr

import (
	"fmt"
	"io"

	"github.com/maocore/mao/cfgbuild"
	"github.com/maocore/mao/ir"
)

// RegisterDCE installs the built-in "DCE" function pass: a mark-and-sweep
// reachability walk over a function's CFG, starting from its Source block,
// that reports (never removes) basic blocks no control-flow edge reaches.
// This is the one peephole-style pass kept in-core, adapted from the
// original's MaoDCE.cc plugin and from the teacher's dead-function
// reachability sweep; it demonstrates the registration surface rather than
// performing real code motion — spec.md's Non-goal of "generating machine
// code" rules out an actual block-deletion transform.
func RegisterDCE(m *Manager, out io.Writer) {
	m.RegisterFuncPass("DCE", "report unreachable basic blocks", []OptionDef{
		{Name: "report", Kind: OptBool, Default: true},
	}, func(f *ir.Function, opts *OptionValues) {
		c := cfgbuild.GetCFG(f)
		if !c.IsWellFormed() {
			return
		}

		reachable := make(map[*cfgbuild.BasicBlock]bool)
		worklist := []*cfgbuild.BasicBlock{c.Source}
		reachable[c.Source] = true

		for len(worklist) > 0 {
			bb := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, s := range bb.Succs {
				if !reachable[s] {
					reachable[s] = true
					worklist = append(worklist, s)
				}
			}
		}

		if !opts.GetOptionBool("report") {
			return
		}
		for _, bb := range c.Blocks {
			if bb == c.Source || bb == c.Sink || reachable[bb] {
				continue
			}
			fmt.Fprintf(out, "DCE: %s: unreachable block %s\n", f.Name, bb.Name)
		}
	})
}
