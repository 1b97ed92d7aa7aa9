package ir

// EntryIter walks an inclusive entry range forward via Next().
type EntryIter struct {
	cur, end *Entry
	done     bool
}

func newEntryIter(first, last *Entry) *EntryIter {
	return &EntryIter{cur: first, end: last, done: first == nil}
}

// HasNext reports whether Next would return another entry.
func (it *EntryIter) HasNext() bool {
	return !it.done
}

// Next returns the next entry in the range and advances the iterator.
func (it *EntryIter) Next() *Entry {
	Assert(!it.done, "EntryIter: Next called past end of range")
	e := it.cur
	if it.cur == it.end {
		it.done = true
	} else {
		it.cur = it.cur.Next
		Assert(it.cur != nil, "EntryIter: range end not reachable via Next")
	}
	return e
}

// ReverseEntryIter walks an inclusive entry range backward via Prev().
type ReverseEntryIter struct {
	cur, start *Entry
	done       bool
}

func newReverseEntryIter(first, last *Entry) *ReverseEntryIter {
	return &ReverseEntryIter{cur: last, start: first, done: last == nil}
}

// HasNext reports whether Next would return another entry.
func (it *ReverseEntryIter) HasNext() bool {
	return !it.done
}

// Next returns the next entry walking backward and advances the iterator.
func (it *ReverseEntryIter) Next() *Entry {
	Assert(!it.done, "ReverseEntryIter: Next called past start of range")
	e := it.cur
	if it.cur == it.start {
		it.done = true
	} else {
		it.cur = it.cur.Prev
		Assert(it.cur != nil, "ReverseEntryIter: range start not reachable via Prev")
	}
	return e
}
