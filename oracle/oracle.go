// Package oracle answers the instruction-level questions the CFG builder,
// relaxer and dataflow analyses need — control-transfer classification,
// operand register/memory decomposition, and register def/use masks — by
// querying golang.org/x/arch/x86/x86asm's decoded instruction, never by
// re-deriving facts already present in that table (spec §1, §4.2).
package oracle

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/maocore/mao/bitstring"
	"github.com/maocore/mao/ir"
)

// condJumps is the set of conditional jump opcodes: every Jcc other than
// the unconditional JMP, plus the loop family and the ECX/RCX-zero
// branches, which all share the Jcc "maybe fall through" shape.
var condJumps = map[x86asm.Op]bool{
	x86asm.JA: true, x86asm.JAE: true, x86asm.JB: true, x86asm.JBE: true,
	x86asm.JCXZ: true, x86asm.JE: true, x86asm.JECXZ: true, x86asm.JG: true,
	x86asm.JGE: true, x86asm.JL: true, x86asm.JLE: true, x86asm.JNE: true,
	x86asm.JNO: true, x86asm.JNP: true, x86asm.JNS: true, x86asm.JO: true,
	x86asm.JP: true, x86asm.JRCXZ: true, x86asm.JS: true,
	x86asm.LOOP: true, x86asm.LOOPE: true, x86asm.LOOPNE: true,
}

// IsCall reports whether insn is a call instruction.
func IsCall(insn *ir.Instruction) bool {
	return insn.Op == x86asm.CALL
}

// IsReturn reports whether insn is a return instruction.
func IsReturn(insn *ir.Instruction) bool {
	return insn.Op == x86asm.RET
}

// IsUnconditionalJump reports whether insn always transfers control away
// from the following instruction.
func IsUnconditionalJump(insn *ir.Instruction) bool {
	return insn.Op == x86asm.JMP
}

// IsConditionalJump reports whether insn may or may not transfer control,
// depending on a runtime condition — it always falls through to the next
// entry as one possible successor.
func IsConditionalJump(insn *ir.Instruction) bool {
	return condJumps[insn.Op]
}

// IsJump reports whether insn is any kind of jump, conditional or not.
func IsJump(insn *ir.Instruction) bool {
	return IsUnconditionalJump(insn) || IsConditionalJump(insn)
}

// IsIndirectJump reports whether insn jumps through a register or memory
// operand rather than to a fixed Rel target — the case the CFG builder
// must resolve via jump-table pattern matching (spec §4.4) rather than
// reading the target directly off the instruction.
func IsIndirectJump(insn *ir.Instruction) bool {
	if !IsUnconditionalJump(insn) {
		return false
	}
	switch insn.Decoded.Args[0].(type) {
	case x86asm.Rel:
		return false
	default:
		return true
	}
}

// HasFallThrough reports whether control may reach the entry following
// insn without insn itself redirecting it there — true for everything
// except unconditional jumps and returns. Every call counts as falling
// through, including a call to a noreturn target, which this oracle has no
// way to know about.
func HasFallThrough(insn *ir.Instruction) bool {
	if IsReturn(insn) {
		return false
	}
	if IsUnconditionalJump(insn) {
		return false
	}
	return true
}

// IsControlTransfer reports whether insn is a call, return, or any jump —
// i.e. whether it is relevant to CFG construction at all.
func IsControlTransfer(insn *ir.Instruction) bool {
	return IsCall(insn) || IsReturn(insn) || IsJump(insn)
}

// GetTarget returns the symbolic label name of a direct jump or call's
// fixed target, and true. Returns false for indirect or
// non-control-transfer instructions, or for a direct transfer whose
// target expression could not be resolved to a plain symbol.
func GetTarget(insn *ir.Instruction) (string, bool) {
	if !IsJump(insn) && !IsCall(insn) {
		return "", false
	}
	if IsJump(insn) && IsIndirectJump(insn) {
		return "", false
	}
	if insn.Target == nil || insn.Target.Kind != ir.OperandSymbol {
		return "", false
	}
	return insn.Target.Symbol, true
}

// GetSymbolFromExpression extracts the referenced symbol name from a
// directive operand expression, e.g. a `.quad` entry whose operand is a
// bare label reference. Returns false for non-symbolic operands (plain
// integers, strings).
func GetSymbolFromExpression(op ir.Operand) (string, bool) {
	switch op.Kind {
	case ir.OperandSymbol:
		return op.Symbol, true
	case ir.OperandExpressionWithReloc:
		return op.RelocSym, true
	default:
		return "", false
	}
}

// NumOperands returns the number of non-nil argument slots in insn.
func NumOperands(insn *ir.Instruction) int {
	n := 0
	for _, a := range insn.Decoded.Args {
		if a == nil {
			break
		}
		n++
	}
	return n
}

// IsRegisterOperand reports whether operand i of insn is a bare register.
func IsRegisterOperand(insn *ir.Instruction, i int) bool {
	_, ok := insn.Decoded.Args[i].(x86asm.Reg)
	return ok
}

// IsMemoryOperand reports whether operand i of insn is a memory reference.
func IsMemoryOperand(insn *ir.Instruction, i int) bool {
	_, ok := insn.Decoded.Args[i].(x86asm.Mem)
	return ok
}

// IsImmediateOperand reports whether operand i of insn is an immediate
// constant.
func IsImmediateOperand(insn *ir.Instruction, i int) bool {
	_, ok := insn.Decoded.Args[i].(x86asm.Imm)
	return ok
}

// GetRegisterOperand returns operand i as a register. Panics if it is not
// one — callers must check IsRegisterOperand first.
func GetRegisterOperand(insn *ir.Instruction, i int) x86asm.Reg {
	ir.Assert(IsRegisterOperand(insn, i), "operand %d is not a register", i)
	return insn.Decoded.Args[i].(x86asm.Reg)
}

// GetBaseRegister returns the base register of a memory operand, or the
// zero Reg if it has none.
func GetBaseRegister(insn *ir.Instruction, i int) x86asm.Reg {
	m, ok := insn.Decoded.Args[i].(x86asm.Mem)
	ir.Assert(ok, "operand %d is not a memory reference", i)
	return m.Base
}

// GetIndexRegister returns the index register of a memory operand, or the
// zero Reg if it has none.
func GetIndexRegister(insn *ir.Instruction, i int) x86asm.Reg {
	m, ok := insn.Decoded.Args[i].(x86asm.Mem)
	ir.Assert(ok, "operand %d is not a memory reference", i)
	return m.Index
}

// GetScale returns the scale factor of a memory operand's index register.
func GetScale(insn *ir.Instruction, i int) uint8 {
	m, ok := insn.Decoded.Args[i].(x86asm.Mem)
	ir.Assert(ok, "operand %d is not a memory reference", i)
	return m.Scale
}

// GetDisplacement returns the constant displacement of a memory operand.
func GetDisplacement(insn *ir.Instruction, i int) int64 {
	m, ok := insn.Decoded.Args[i].(x86asm.Mem)
	ir.Assert(ok, "operand %d is not a memory reference", i)
	return m.Disp
}

// GetImmediate returns the value of an immediate operand.
func GetImmediate(insn *ir.Instruction, i int) int64 {
	imm, ok := insn.Decoded.Args[i].(x86asm.Imm)
	ir.Assert(ok, "operand %d is not an immediate", i)
	return int64(imm)
}

const numRegisters = 256

// regIndex maps an x86asm.Reg to a stable slot in the fixed-width register
// universe Liveness and ReachingDefs index bit vectors by. The mapping is
// the register's own small integer value, which x86asm already keeps
// under numRegisters.
func regIndex(r x86asm.Reg) int {
	return int(r)
}

// RegisterUniverseWidth is the width every BitString representing a set of
// registers must be constructed with.
func RegisterUniverseWidth() int {
	return numRegisters
}

// ParentRegister returns the architectural register that fully contains r
// (e.g. AL and AX and EAX all roll up to RAX), or r itself if it is
// already maximal or has no sub-register relationship modeled.
func ParentRegister(r x86asm.Reg) x86asm.Reg {
	if p, ok := subToParent[r]; ok {
		return p
	}
	return r
}

var subToParent = map[x86asm.Reg]x86asm.Reg{
	x86asm.AL: x86asm.RAX, x86asm.AH: x86asm.RAX, x86asm.AX: x86asm.RAX, x86asm.EAX: x86asm.RAX,
	x86asm.BL: x86asm.RBX, x86asm.BH: x86asm.RBX, x86asm.BX: x86asm.RBX, x86asm.EBX: x86asm.RBX,
	x86asm.CL: x86asm.RCX, x86asm.CH: x86asm.RCX, x86asm.CX: x86asm.RCX, x86asm.ECX: x86asm.RCX,
	x86asm.DL: x86asm.RDX, x86asm.DH: x86asm.RDX, x86asm.DX: x86asm.RDX, x86asm.EDX: x86asm.RDX,
	x86asm.SIB: x86asm.RSI, x86asm.SI: x86asm.RSI, x86asm.ESI: x86asm.RSI,
	x86asm.DIB: x86asm.RDI, x86asm.DI: x86asm.RDI, x86asm.EDI: x86asm.RDI,
	x86asm.BPB: x86asm.RBP, x86asm.BP: x86asm.RBP, x86asm.EBP: x86asm.RBP,
	x86asm.SPB: x86asm.RSP, x86asm.SP: x86asm.RSP, x86asm.ESP: x86asm.RSP,
}

// registersOf collects the distinct registers referenced anywhere in
// insn's operands, parent-normalized, including a memory operand's base
// and index registers.
func registersOf(insn *ir.Instruction) []x86asm.Reg {
	var out []x86asm.Reg
	add := func(r x86asm.Reg) {
		if r == 0 {
			return
		}
		out = append(out, ParentRegister(r))
	}
	for _, a := range insn.Decoded.Args {
		switch v := a.(type) {
		case x86asm.Reg:
			add(v)
		case x86asm.Mem:
			add(v.Base)
			add(v.Index)
		}
	}
	return out
}

// RegisterUseMask returns the set of registers insn reads. Destination-only
// operands of two-operand x86 instructions (MOV, LEA, MOVZX, MOVSX) are
// excluded when the operand is a plain register write target;
// memory-operand base/index registers are always a use, never a def. The
// mask is derived from explicit operands only and is never the undef
// BitString: an instruction with no decoded operands yields an empty mask,
// and implicit register reads are not included.
func RegisterUseMask(insn *ir.Instruction) bitstring.BitString {
	mask := bitstring.New(numRegisters)
	n := NumOperands(insn)
	destOnly := insn.Op == x86asm.MOV || insn.Op == x86asm.LEA || insn.Op == x86asm.MOVZX || insn.Op == x86asm.MOVSX
	for i, r := range registersOfIndexed(insn) {
		if i == 0 && n >= 2 && destOnly && IsRegisterOperand(insn, 0) {
			continue
		}
		mask = mask.Set(regIndex(r))
	}
	return mask
}

// RegisterDefMask returns the set of registers insn writes.
func RegisterDefMask(insn *ir.Instruction) bitstring.BitString {
	mask := bitstring.New(numRegisters)
	if NumOperands(insn) == 0 {
		return mask
	}
	if writesFirstOperand(insn.Op) && IsRegisterOperand(insn, 0) {
		mask = mask.Set(regIndex(ParentRegister(GetRegisterOperand(insn, 0))))
	}
	return mask
}

// registersOfIndexed mirrors registersOf but keeps operand-0 identifiable
// to the caller by re-deriving it positionally; used only by
// RegisterUseMask's destination-exclusion check.
func registersOfIndexed(insn *ir.Instruction) []x86asm.Reg {
	return registersOf(insn)
}

// writesFirstOperand reports whether op follows the Intel-order convention
// of writing its first (leftmost) operand, as MOV/ADD/SUB/AND/OR/XOR/LEA
// and similar two-operand arithmetic and data-movement instructions do.
func writesFirstOperand(op x86asm.Op) bool {
	switch op {
	case x86asm.MOV, x86asm.LEA, x86asm.ADD, x86asm.SUB, x86asm.AND, x86asm.OR,
		x86asm.XOR, x86asm.MOVZX, x86asm.MOVSX, x86asm.SHL, x86asm.SHR, x86asm.SAR,
		x86asm.IMUL, x86asm.POP, x86asm.CMOVE, x86asm.CMOVNE:
		return true
	default:
		return false
	}
}

// CallingConventionDefMask returns the set of registers a CALL instruction
// is conservatively assumed to clobber under the System V AMD64 ABI: the
// caller-saved integer registers.
func CallingConventionDefMask() bitstring.BitString {
	mask := bitstring.New(numRegisters)
	for _, r := range []x86asm.Reg{x86asm.RAX, x86asm.RCX, x86asm.RDX, x86asm.RSI, x86asm.RDI, x86asm.R8, x86asm.R9, x86asm.R10, x86asm.R11} {
		mask = mask.Set(regIndex(r))
	}
	return mask
}
