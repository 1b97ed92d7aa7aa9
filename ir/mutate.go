package ir

// LinkAfter splices entry e immediately after anchor, which must already
// be linked into a unit. e inherits anchor's Function and Subsection.
// Invalidates the owning function's cached CFG and the section's cached
// sizes, since the entry stream under them changed.
func (u *Unit) LinkAfter(anchor, e *Entry) {
	Assert(anchor != nil, "LinkAfter: nil anchor")
	Assert(e != nil, "LinkAfter: nil entry")
	Assert(e.Prev == nil && e.Next == nil, "LinkAfter: entry %d already linked", e.ID)

	e.Function = anchor.Function
	e.Subsection = anchor.Subsection

	next := anchor.Next
	e.Prev = anchor
	e.Next = next
	anchor.Next = e
	if next != nil {
		next.Prev = e
	}

	if anchor.Function != nil && anchor.Function.Last == anchor {
		anchor.Function.Last = e
	}
	if anchor.Subsection != nil && anchor.Subsection.Last == anchor {
		anchor.Subsection.Last = e
	}

	u.invalidateAround(e)
}

// LinkBefore splices entry e immediately before anchor. See LinkAfter.
func (u *Unit) LinkBefore(anchor, e *Entry) {
	Assert(anchor != nil, "LinkBefore: nil anchor")
	Assert(e != nil, "LinkBefore: nil entry")
	Assert(e.Prev == nil && e.Next == nil, "LinkBefore: entry %d already linked", e.ID)

	e.Function = anchor.Function
	e.Subsection = anchor.Subsection

	prev := anchor.Prev
	e.Next = anchor
	e.Prev = prev
	anchor.Prev = e
	if prev != nil {
		prev.Next = e
	}

	if anchor.Function != nil && anchor.Function.First == anchor {
		anchor.Function.First = e
	}
	if anchor.Subsection != nil && anchor.Subsection.First == anchor {
		anchor.Subsection.First = e
	}

	u.invalidateAround(e)
}

// Unlink removes e from its containing list. e's own Prev/Next are reset
// to nil so it can be relinked elsewhere, or dropped.
func (u *Unit) Unlink(e *Entry) {
	Assert(e != nil, "Unlink: nil entry")

	prev, next := e.Prev, e.Next

	if prev != nil {
		prev.Next = next
	}
	if next != nil {
		next.Prev = prev
	}

	if f := e.Function; f != nil {
		if f.First == e {
			f.First = next
		}
		if f.Last == e {
			f.Last = prev
		}
	}
	if ss := e.Subsection; ss != nil {
		if ss.First == e {
			ss.First = next
		}
		if ss.Last == e {
			ss.Last = prev
		}
	}

	u.invalidate(e)
	e.Prev, e.Next = nil, nil
}

// UnlinkRange removes the inclusive run [first, last] from its list in one
// step. first and last must belong to the same function.
func (u *Unit) UnlinkRange(first, last *Entry) {
	Assert(first != nil && last != nil, "UnlinkRange: nil endpoint")
	Assert(first.Function == last.Function, "UnlinkRange: endpoints in different functions")

	prev := first.Prev
	next := last.Next

	if prev != nil {
		prev.Next = next
	}
	if next != nil {
		next.Prev = prev
	}

	f := first.Function
	if f != nil {
		if f.First == first {
			f.First = next
		}
		if f.Last == last {
			f.Last = prev
		}
	}
	ss := first.Subsection
	if ss != nil {
		if ss.First == first {
			ss.First = next
		}
		if ss.Last == last {
			ss.Last = prev
		}
	}

	for e := first; ; {
		n := e.Next
		u.invalidate(e)
		e.Prev, e.Next = nil, nil
		if e == last {
			break
		}
		e = n
	}
}

// MarkForDelete defers removal of e until the next SweepDeleted call,
// useful when a pass wants to invalidate entries while still iterating
// over the list they belong to.
func (u *Unit) MarkForDelete(e *Entry) {
	u.toDelete[e] = true
}

// SweepDeleted unlinks and discards every entry marked via MarkForDelete
// since the last sweep.
func (u *Unit) SweepDeleted() {
	for e := range u.toDelete {
		u.Unlink(e)
	}
	u.toDelete = make(map[*Entry]bool)
}

func (u *Unit) invalidate(e *Entry) {
	if e.Function != nil {
		e.Function.InvalidateCFG()
	}
	if e.Subsection != nil {
		e.Subsection.Section.InvalidateSizes()
	}
}

func (u *Unit) invalidateAround(e *Entry) {
	u.invalidate(e)
}

// AlignTo inserts a P2Align directive entry immediately after anchor,
// requesting alignment to 2^power bytes. Returns the new entry.
func (u *Unit) AlignTo(anchor *Entry, power int) *Entry {
	e := u.NewDirective(Directive{
		Op:       DirP2Align,
		Operands: []Operand{{Kind: OperandInteger, Integer: int64(power)}},
	})
	u.LinkAfter(anchor, e)
	return e
}
