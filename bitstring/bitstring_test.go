package bitstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitString_SetGetClear(t *testing.T) {
	b := New(8)
	assert.True(t, b.IsEmpty())

	b = b.Set(3)
	assert.True(t, b.Get(3))
	assert.False(t, b.Get(4))
	assert.False(t, b.IsEmpty())

	b = b.Clear(3)
	assert.False(t, b.Get(3))
	assert.True(t, b.IsEmpty())
}

func TestBitString_NextSetBit(t *testing.T) {
	b := New(16).Set(2).Set(5).Set(15)

	idx, ok := b.NextSetBit(0)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = b.NextSetBit(3)
	require.True(t, ok)
	assert.Equal(t, 5, idx)

	idx, ok = b.NextSetBit(6)
	require.True(t, ok)
	assert.Equal(t, 15, idx)

	_, ok = b.NextSetBit(16)
	assert.False(t, ok)
}

func TestBitString_BitwiseOps(t *testing.T) {
	a := New(8).Set(0).Set(1).Set(2)
	b := New(8).Set(1).Set(2).Set(3)

	or := a.Or(b)
	for i := 0; i < 4; i++ {
		assert.True(t, or.Get(i), "bit %d", i)
	}

	and := a.And(b)
	assert.False(t, and.Get(0))
	assert.True(t, and.Get(1))
	assert.True(t, and.Get(2))
	assert.False(t, and.Get(3))

	diff := a.Difference(b)
	assert.True(t, diff.Get(0))
	assert.False(t, diff.Get(1))
	assert.False(t, diff.Get(2))
	assert.False(t, diff.Get(3))
}

func TestBitString_Equal(t *testing.T) {
	a := New(8).Set(1)
	b := New(8).Set(1)
	c := New(8).Set(2)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBitString_Undef(t *testing.T) {
	u := Undef()
	assert.True(t, u.IsUndef())
	assert.False(t, u.IsEmpty())

	zero := New(8)
	assert.False(t, zero.IsUndef())
	assert.True(t, zero.IsEmpty())
	assert.False(t, u.Equal(zero))

	assert.True(t, u.Or(zero).IsUndef())
	assert.True(t, u.And(zero).IsUndef())
}
