package ir

import "golang.org/x/arch/x86/x86asm"

// Kind identifies which of the three closed Entry variants is populated.
type Kind int

const (
	KindInstruction Kind = iota
	KindLabel
	KindDirective
)

func (k Kind) String() string {
	switch k {
	case KindInstruction:
		return "instruction"
	case KindLabel:
		return "label"
	case KindDirective:
		return "directive"
	default:
		return "undefined"
	}
}

// Mode is the addressing/operand-size mode an instruction was decoded in.
type Mode int

const (
	Mode16 Mode = 16
	Mode32 Mode = 32
	Mode64 Mode = 64
)

// Instruction is the instruction-entry variant: an opaque machine
// instruction record from the (external) parser, plus the pre-decoded
// opcode tag and mode flag the oracle and CFG builder key off of.
//
// Decoded is a golang.org/x/arch/x86/x86asm.Inst — the "opaque encyclopedia"
// spec.md §1 treats the opcode/register tables as; this module never
// reimplements that table, it only consumes it.
type Instruction struct {
	Decoded   x86asm.Inst
	Op        x86asm.Op // cached copy of Decoded.Op, the pre-decoded opcode tag
	Mode      Mode
	ExecCount *int64 // optional profiling annotation; nil when absent

	// Target carries the symbolic branch/call target for a direct control
	// transfer, as resolved by the parser from the original expression
	// (e.g. "jmp .L5"). x86asm.Inst only records the encoded PC-relative
	// byte offset, which by itself cannot recover the label once the
	// surrounding entries are reordered or sizes change; Target is the
	// source of truth the CFG builder reads instead. Nil for indirect
	// transfers and for instructions that are not control transfers.
	Target *Operand
}

// Label is the label-entry variant.
type Label struct {
	Name         string
	FromAssembly bool // true if it came from the parsed source, false if synthesized
}

// Entry is one element of the doubly linked instruction stream. It is a
// closed sum of three variants (Instruction, Label, Directive); exactly one
// of Insn/Lbl/Dir is non-nil, selected by Kind. Downcast accessors
// (AsInstruction, AsLabel, AsDirective) are total on the matching Kind and
// panic otherwise — an Entry is never queried as the wrong variant by
// correct code, so a mismatch is an invariant violation.
type Entry struct {
	ID   int
	Kind Kind
	Line int
	Text string // verbatim source text, diagnostic only

	Prev, Next *Entry
	Function   *Function
	Subsection *Subsection

	Insn *Instruction
	Lbl  *Label
	Dir  *Directive
}

func (e *Entry) IsInstruction() bool { return e.Kind == KindInstruction }
func (e *Entry) IsLabel() bool       { return e.Kind == KindLabel }
func (e *Entry) IsDirective() bool   { return e.Kind == KindDirective }

// AsInstruction returns the instruction payload. Panics if e is not an
// instruction entry.
func (e *Entry) AsInstruction() *Instruction {
	Assert(e.Kind == KindInstruction, "entry %d: AsInstruction on %s entry", e.ID, e.Kind)
	return e.Insn
}

// AsLabel returns the label payload. Panics if e is not a label entry.
func (e *Entry) AsLabel() *Label {
	Assert(e.Kind == KindLabel, "entry %d: AsLabel on %s entry", e.ID, e.Kind)
	return e.Lbl
}

// AsDirective returns the directive payload. Panics if e is not a
// directive entry.
func (e *Entry) AsDirective() *Directive {
	Assert(e.Kind == KindDirective, "entry %d: AsDirective on %s entry", e.ID, e.Kind)
	return e.Dir
}

// CheckLinked asserts the local doubly-linked invariant around e:
// e.Next.Prev == e whenever e.Next != nil (spec §8 universal invariant).
func (e *Entry) CheckLinked() {
	if e.Next != nil {
		Assert(e.Next.Prev == e, "entry %d: next.prev != self", e.ID)
	}
	if e.Prev != nil {
		Assert(e.Prev.Next == e, "entry %d: prev.next != self", e.ID)
	}
}
