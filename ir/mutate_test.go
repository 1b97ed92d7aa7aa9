package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSimpleFunction(u *Unit) (*Function, *Entry, *Entry, *Entry) {
	sec := u.GetOrCreateSection(".text")
	ss := sec.GetOrCreateSubsection(0)
	f := NewFunction("f", ss)

	e1 := u.NewLabel("f", true)
	e2 := u.NewDirective(Directive{Op: DirByte, Operands: []Operand{{Kind: OperandInteger, Integer: 1}}})
	e3 := u.NewDirective(Directive{Op: DirByte, Operands: []Operand{{Kind: OperandInteger, Integer: 2}}})

	e1.Function, e2.Function, e3.Function = f, f, f
	e1.Subsection, e2.Subsection, e3.Subsection = ss, ss, ss
	e1.Next, e2.Prev, e2.Next, e3.Prev = e2, e1, e3, e2
	f.First, f.Last = e1, e3
	ss.First, ss.Last = e1, e3

	return f, e1, e2, e3
}

func TestLinkAfter(t *testing.T) {
	u := NewUnit()
	f, e1, _, e3 := buildSimpleFunction(u)

	mid := u.NewDirective(Directive{Op: DirByte})
	u.LinkAfter(e1, mid)

	assert.Equal(t, e1, mid.Prev)
	assert.Equal(t, mid, e1.Next)
	assert.Equal(t, f, mid.Function)
	require.NotNil(t, mid.Next)
	assert.Equal(t, f.Last, e3)
}

func TestLinkAfterUpdatesLast(t *testing.T) {
	u := NewUnit()
	f, _, _, e3 := buildSimpleFunction(u)

	tail := u.NewDirective(Directive{Op: DirByte})
	u.LinkAfter(e3, tail)

	assert.Equal(t, tail, f.Last)
	assert.Equal(t, f, tail.Function)
}

func TestUnlinkMiddle(t *testing.T) {
	u := NewUnit()
	f, e1, e2, e3 := buildSimpleFunction(u)

	u.Unlink(e2)

	assert.Equal(t, e3, e1.Next)
	assert.Equal(t, e1, e3.Prev)
	assert.Nil(t, e2.Prev)
	assert.Nil(t, e2.Next)
	assert.Equal(t, e1, f.First)
	assert.Equal(t, e3, f.Last)
}

func TestUnlinkRange(t *testing.T) {
	u := NewUnit()
	f, e1, e2, e3 := buildSimpleFunction(u)

	u.UnlinkRange(e2, e3)

	assert.Equal(t, e1, f.First)
	assert.Equal(t, e1, f.Last)
	assert.Nil(t, e1.Next)
	assert.Nil(t, e2.Next)
	assert.Nil(t, e3.Prev)
}

func TestMarkForDeleteAndSweep(t *testing.T) {
	u := NewUnit()
	f, e1, e2, e3 := buildSimpleFunction(u)

	u.MarkForDelete(e2)
	u.SweepDeleted()

	assert.Equal(t, e3, e1.Next)
	assert.Equal(t, e1, f.First)
	assert.Equal(t, e3, f.Last)
}

func TestEntryIterForward(t *testing.T) {
	u := NewUnit()
	f, e1, e2, e3 := buildSimpleFunction(u)

	var got []*Entry
	it := f.Entries()
	for it.HasNext() {
		got = append(got, it.Next())
	}
	assert.Equal(t, []*Entry{e1, e2, e3}, got)
}

func TestEntryIterReverse(t *testing.T) {
	u := NewUnit()
	f, e1, e2, e3 := buildSimpleFunction(u)

	var got []*Entry
	it := f.ReverseEntries()
	for it.HasNext() {
		got = append(got, it.Next())
	}
	assert.Equal(t, []*Entry{e3, e2, e1}, got)
}

func TestAsInstructionPanicsOnWrongKind(t *testing.T) {
	u := NewUnit()
	lbl := u.NewLabel("foo", true)
	assert.Panics(t, func() { lbl.AsInstruction() })
}

func TestCreateLabelUnique(t *testing.T) {
	u := NewUnit()
	_, e1, _, _ := buildSimpleFunction(u)

	l1 := u.CreateLabel(e1, "tmp")
	l2 := u.CreateLabel(e1, "tmp")

	assert.NotEqual(t, l1.AsLabel().Name, l2.AsLabel().Name)
}
