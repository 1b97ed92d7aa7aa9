package ir

// DirectiveOp enumerates the assembler directives the relaxer and CFG
// builder need to reason about individually. The set and grouping mirror
// the case list the original relaxer switches on when computing a
// directive's contribution to fragment size (spec §5, relax-state table).
type DirectiveOp int

const (
	DirUnknown DirectiveOp = iota

	// Alignment.
	DirP2Align
	DirP2AlignW
	DirP2AlignL

	// Variable-length integer encodings.
	DirSLEB128
	DirULEB128

	// Fixed-width data emission.
	DirByte
	DirWord
	DirRVA
	DirLong
	DirQuad

	// String/ASCII data emission.
	DirAscii
	DirString8
	DirString16
	DirString32
	DirString64

	// Reserved space.
	DirSpace
	DirDsB
	DirDsW
	DirDsL
	DirDsD
	DirDsX

	// Symbol and section bookkeeping.
	DirComm
	DirIdent
	DirSet
	DirFile
	DirSection
	DirGlobal
	DirLocal
	DirWeak
	DirType
	DirSize
	DirEquiv
	DirWeakref
	DirHidden
	DirSymver

	// Target/encoding mode switches.
	DirArch
	DirLineFile
	DirLoc
	DirLocMarkLabels
	DirAllowIndexReg
	DirDisallowIndexReg
	DirCode16
	DirCode16GCC
	DirCode32
	DirCode64

	// Double/extended floating point data.
	DirDCD
	DirDCS
	DirDCX

	// Padding.
	DirFill

	// Unsupported by the relaxer: encountering one is a recoverable error,
	// not a crash (spec §7 kind 2), because the input is well-formed
	// assembly the relaxer simply doesn't model.
	DirOrg
	DirStruct
	DirIncbin

	// CFI (call-frame information) family; the relaxer treats the whole
	// family as zero-size no-ops for layout purposes, but the CFG builder
	// and dumper need to preserve and re-emit them verbatim.
	DirCfiStartProc
	DirCfiEndProc
	DirCfiDefCfa
	DirCfiDefCfaOffset
	DirCfiDefCfaRegister
	DirCfiOffset
	DirCfiRestore
	DirCfiRememberState
	DirCfiRestoreState
	DirCfiSameValue
	DirCfiRelOffset
	DirCfiAdjustCfaOffset
	DirCfiEscape
	DirCfiSignalFrame
	DirCfiPersonality
	DirCfiLsda
	DirCfiUndefined
)

// FatalDirectives are directives whose appearance the relaxer refuses to
// model at all: ORG moves the location counter in a way fragment-based
// relaxation cannot express, STRUCT opens an unsupported record layout,
// and INCBIN's size is unknowable without reading the included file.
var FatalDirectives = map[DirectiveOp]bool{
	DirOrg:    true,
	DirStruct: true,
	DirIncbin: true,
}

// OperandKind tags the payload carried by a directive Operand.
type OperandKind int

const (
	OperandAbsent OperandKind = iota
	OperandInteger
	OperandString
	OperandSymbol
	OperandExpression
	OperandExpressionWithReloc
)

// Operand is one argument of a Directive. Exactly the field matching Kind
// is meaningful.
type Operand struct {
	Kind     OperandKind
	Integer  int64
	String   string
	Symbol   string
	RelocSym string // set only when Kind == OperandExpressionWithReloc
}

// Directive is the directive-entry variant: a named assembler pseudo-op
// plus its operand list. CfiFamily callers should not special-case each
// CFI_* constant; IsCFI reports membership in the family for them.
type Directive struct {
	Op       DirectiveOp
	Operands []Operand
}

// IsFatal reports whether relaxing a fragment containing this directive
// must fail with a recoverable error rather than proceed.
func (d *Directive) IsFatal() bool {
	return FatalDirectives[d.Op]
}

// IsCFI reports whether Op belongs to the CFI directive family.
func (d *Directive) IsCFI() bool {
	return d.Op >= DirCfiStartProc && d.Op <= DirCfiUndefined
}
