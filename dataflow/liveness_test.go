package dataflow

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/stretchr/testify/assert"
)

func TestLivenessGetLiveAfterDeadDef(t *testing.T) {
	c, mov, _ := buildStraightLineFunction(t)
	bb := c.Source.Succs[0]

	l := ComputeLiveness(c)

	// EAX is defined by MOV and never used again before the function
	// returns, so it is dead immediately after the instruction that
	// defines it.
	afterMov := l.GetLive(bb, mov)
	assert.False(t, afterMov.Get(int(x86asm.RAX)))

	// Before the label (i.e. at block entry), RBX is still live: it is
	// used by the MOV that follows.
	afterLabel := l.GetLive(bb, bb.First)
	assert.True(t, afterLabel.Get(int(x86asm.RBX)))
}
