// Package bitstring implements the fixed-width bit vector used throughout
// the core to represent register sets and dataflow indices.
//
// A BitString wraps github.com/bits-and-blooms/bitset and adds an explicit
// "undef" state, distinct from the all-zeros vector, for sets whose
// contents are unknown. The oracle package's register masks never return
// it.
package bitstring

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// BitString is a fixed-width bit vector. The zero value is not the undef
// sentinel (IsUndef reports false for it) and not a usable vector: Get,
// Set, Clear and NextSetBit panic on it. Use New to obtain a usable vector
// of a given width, or Undef for the sentinel.
type BitString struct {
	bits  *bitset.BitSet
	width uint
	undef bool
}

// New returns a BitString of the given width with every bit clear.
func New(width int) BitString {
	return BitString{bits: bitset.New(uint(width)), width: uint(width)}
}

// Undef returns the undef sentinel value: a BitString carrying no
// width-specific information, distinguishable from New(n)'s all-zero
// vector of any width.
func Undef() BitString {
	return BitString{undef: true}
}

// IsUndef reports whether b is the undef sentinel.
func (b BitString) IsUndef() bool {
	return b.undef
}

// Width returns the number of bits b was constructed with. Zero for undef.
func (b BitString) Width() int {
	return int(b.width)
}

func (b BitString) ensure() {
	if b.bits == nil && !b.undef {
		panic("bitstring: use of zero BitString; call New or Undef")
	}
}

// Get reports whether bit i is set.
func (b BitString) Get(i int) bool {
	b.ensure()
	if b.undef {
		return false
	}
	return b.bits.Test(uint(i))
}

// Set returns a copy of b with bit i set.
func (b BitString) Set(i int) BitString {
	b.ensure()
	if b.undef {
		return b
	}
	out := b.clone()
	out.bits.Set(uint(i))
	return out
}

// Clear returns a copy of b with bit i cleared.
func (b BitString) Clear(i int) BitString {
	b.ensure()
	if b.undef {
		return b
	}
	out := b.clone()
	out.bits.Clear(uint(i))
	return out
}

func (b BitString) clone() BitString {
	return BitString{bits: b.bits.Clone(), width: b.width}
}

// NextSetBit returns the index of the first set bit at or after i, and
// whether one was found.
func (b BitString) NextSetBit(i int) (int, bool) {
	b.ensure()
	if b.undef {
		return 0, false
	}
	next, ok := b.bits.NextSet(uint(i))
	return int(next), ok
}

// Or returns the bitwise union of b and o. Undef propagates: if either
// operand is undef, the result is undef.
func (b BitString) Or(o BitString) BitString {
	if b.undef || o.undef {
		return Undef()
	}
	return BitString{bits: b.bits.Union(o.bits), width: b.width}
}

// And returns the bitwise intersection of b and o.
func (b BitString) And(o BitString) BitString {
	if b.undef || o.undef {
		return Undef()
	}
	return BitString{bits: b.bits.Intersection(o.bits), width: b.width}
}

// Difference returns the bits set in b but not in o (b &^ o).
func (b BitString) Difference(o BitString) BitString {
	if b.undef || o.undef {
		return Undef()
	}
	return BitString{bits: b.bits.Difference(o.bits), width: b.width}
}

// Equal reports whether b and o carry the same bits. Two undef values
// compare equal; an undef and a non-undef value never do.
func (b BitString) Equal(o BitString) bool {
	if b.undef || o.undef {
		return b.undef == o.undef
	}
	return b.bits.Equal(o.bits)
}

// IsEmpty reports whether no bit is set. The undef sentinel is never empty.
func (b BitString) IsEmpty() bool {
	if b.undef {
		return false
	}
	if b.bits == nil {
		return true
	}
	return b.bits.None()
}

// String renders the set bit indices, e.g. "{1 4 7}", or "<undef>".
func (b BitString) String() string {
	if b.undef {
		return "<undef>"
	}
	if b.bits == nil {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i, ok := b.NextSetBit(0); ok; i, ok = b.NextSetBit(i + 1) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&sb, "%d", i)
	}
	sb.WriteByte('}')
	return sb.String()
}
