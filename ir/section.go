package ir

// Section groups the subsections sharing one output-section name (e.g.
// ".text", ".rodata"). Sizes and Offsets are populated by the relax
// package after a relaxation pass; Section itself stays ignorant of the
// relaxer's fragment model so that ir never imports relax.
type Section struct {
	Name        string
	Subsections []*Subsection

	Sizes   map[*Entry]int // entry -> byte size, valid only after relax
	Offsets map[*Entry]int // entry -> byte offset from section start

	unit *Unit
}

// GetOrCreateSubsection returns the named subsection within s, creating it
// if absent. Subsection numbers follow assembler .subsection semantics:
// distinct numbers within the same section are laid out in numeric order.
func (s *Section) GetOrCreateSubsection(number int) *Subsection {
	for _, ss := range s.Subsections {
		if ss.Number == number {
			return ss
		}
	}
	ss := &Subsection{Number: number, Section: s}
	i := 0
	for i < len(s.Subsections) && s.Subsections[i].Number < number {
		i++
	}
	s.Subsections = append(s.Subsections, nil)
	copy(s.Subsections[i+1:], s.Subsections[i:])
	s.Subsections[i] = ss
	return ss
}

// InvalidateSizes drops any previously computed size/offset maps, forcing
// the relaxer to recompute them on next query. Called whenever a mutation
// primitive changes the entry stream under this section.
func (s *Section) InvalidateSizes() {
	s.Sizes = nil
	s.Offsets = nil
}

// SizeOf returns the previously relaxed size of e, or false if no
// relaxation has been run since the last invalidation.
func (s *Section) SizeOf(e *Entry) (int, bool) {
	if s.Sizes == nil {
		return 0, false
	}
	v, ok := s.Sizes[e]
	return v, ok
}

// OffsetOf returns the previously relaxed offset of e, or false if no
// relaxation has been run since the last invalidation.
func (s *Section) OffsetOf(e *Entry) (int, bool) {
	if s.Offsets == nil {
		return 0, false
	}
	v, ok := s.Offsets[e]
	return v, ok
}

// Subsection is a contiguous run of entries within a Section, numbered for
// assembler .subsection ordering. First/Last delimit the run; both nil
// means the subsection is empty.
type Subsection struct {
	Number  int
	Section *Section

	First, Last *Entry
}

// Unit returns the owning unit of this subsection's section.
func (ss *Subsection) Unit() *Unit {
	return ss.Section.unit
}
