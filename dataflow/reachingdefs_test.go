package dataflow

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachingDefsAtAndQuery(t *testing.T) {
	c, mov, ret := buildStraightLineFunction(t)
	bb := c.Source.Succs[0]

	r := ComputeReachingDefs(c)

	atRet := r.ReachingDefsAt(bb, ret)
	assert.False(t, atRet.IsEmpty())

	defs := r.ReachingDefs(bb, ret, x86asm.RAX)
	require.Len(t, defs, 1)
	assert.Same(t, mov, defs[0].Insn)
	assert.Same(t, bb, defs[0].BB)
}

func TestReachingDefsAtBlockEntryIsEmpty(t *testing.T) {
	c, _, _ := buildStraightLineFunction(t)
	bb := c.Source.Succs[0]

	r := ComputeReachingDefs(c)
	atEntry := r.ReachingDefsAt(bb, bb.First)
	assert.True(t, atEntry.IsEmpty())
}
