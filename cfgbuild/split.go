package cfgbuild

// getOrCreateLabelBB resolves name to the BasicBlock a branch should target.
// If name was never seen, a fresh empty BB is minted for it (the main walk
// will fill it in once it reaches the label's definition). If name already
// maps to a BB but sits partway through it — because the label was merged
// into an earlier BB before this branch revealed it needed to be a
// boundary — the BB is split at that point (spec §4.3 "break-up-on-label").
func (c *CFG) getOrCreateLabelBB(name string) *BasicBlock {
	bb, exists := c.labelToBB[name]
	if !exists {
		bb = c.newBlock(name)
		c.labelToBB[name] = bb
		return bb
	}
	return c.breakUpBBAtLabel(bb, name)
}

// breakUpBBAtLabel splits bb at the entry labeled name, when that entry is
// not already bb's first entry. The new BB takes ownership of the tail
// entries and every outgoing edge of the old BB; a fresh fallthrough edge
// links the two halves; every label within the moved tail is relocated to
// point at the new BB.
func (c *CFG) breakUpBBAtLabel(bb *BasicBlock, name string) *BasicBlock {
	if bb.First == nil {
		return bb
	}
	unit := c.Function.Subsection.Unit()
	labelEntry := unit.LookupLabel(name)
	if labelEntry == nil || labelEntry == bb.First {
		return bb
	}

	inRange := false
	for cur := bb.First; cur != nil; cur = cur.Next {
		if cur == labelEntry {
			inRange = true
			break
		}
		if cur == bb.Last {
			break
		}
	}
	if !inRange {
		return bb
	}

	newBB := c.newBlock(name)
	newBB.First = labelEntry
	newBB.Last = bb.Last
	newBB.Succs = bb.Succs
	for _, s := range newBB.Succs {
		for i, p := range s.Preds {
			if p == bb {
				s.Preds[i] = newBB
			}
		}
	}

	bb.Last = labelEntry.Prev
	bb.Succs = nil
	addEdge(bb, newBB)

	for cur := labelEntry; cur != nil; cur = cur.Next {
		if cur.IsLabel() {
			c.labelToBB[cur.AsLabel().Name] = newBB
		}
		if cur == newBB.Last {
			break
		}
	}

	return newBB
}
