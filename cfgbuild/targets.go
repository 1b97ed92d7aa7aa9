package cfgbuild

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/maocore/mao/ir"
	"github.com/maocore/mao/oracle"
)

// extractTargets resolves the out-edges of a non-call control-transfer
// entry e, trying each recognizer in the order spec §4.3 lists them:
// direct branch, tail call, the four jump-table forms, then variadic
// dispatch. An unresolved indirect jump yields no targets and is counted.
func extractTargets(c *CFG, f *ir.Function, e *ir.Entry) []string {
	insn := e.AsInstruction()

	if oracle.IsReturn(insn) {
		return nil
	}

	if target, ok := oracle.GetTarget(insn); ok {
		return []string{target}
	}

	if !oracle.IsIndirectJump(insn) {
		// A direct transfer whose target didn't resolve to a plain
		// symbol (e.g. a computed expression): treat like an
		// unresolved indirect jump rather than guessing.
		c.Stats.NumUnresolvedJumps++
		return nil
	}

	if isTailCall(e) {
		c.Stats.NumTailCalls++
		return nil
	}

	if label, ok := matchJumpTablePattern1(e); ok {
		return c.parseJumpTable(label)
	}
	if label, ok := matchJumpTablePattern2(e); ok {
		return c.parseJumpTable(label)
	}
	if label, ok := matchJumpTablePattern3(e); ok {
		return c.parseJumpTable(label)
	}
	if label, ok := matchJumpTablePattern4(f, e); ok {
		return c.parseJumpTable(label)
	}

	if targets, ok := matchVariadicDispatch(c, e); ok {
		return targets
	}

	c.Stats.NumExternalJumps++
	c.Stats.NumUnresolvedJumps++
	return nil
}

// prevInstruction returns the nearest preceding instruction entry within
// the same function, skipping labels and directives, or nil.
func prevInstruction(e *ir.Entry) *ir.Entry {
	for p := e.Prev; p != nil && p.Function == e.Function; p = p.Prev {
		if p.IsInstruction() {
			return p
		}
	}
	return nil
}

// isTailCall recognizes an indirect jump immediately preceded by a
// function-epilogue `leave`: the jump is really a tail call through a
// restored frame, not a branch the CFG should model edges for.
func isTailCall(e *ir.Entry) bool {
	p := prevInstruction(e)
	if p == nil {
		return false
	}
	return p.AsInstruction().Op == x86asm.LEAVE
}

// matchJumpTablePattern1 matches `jmp LBL(,reg,8)`: a single memory
// operand whose displacement is the jump-table label.
func matchJumpTablePattern1(e *ir.Entry) (string, bool) {
	insn := e.AsInstruction()
	if insn.Op != x86asm.JMP {
		return "", false
	}
	mem, ok := insn.Decoded.Args[0].(x86asm.Mem)
	if !ok || insn.Target == nil {
		return "", false
	}
	_ = mem
	return oracle.GetSymbolFromExpression(*insn.Target)
}

// matchJumpTablePattern2 matches `mov LBL(,reg,8), R ; jmp *R`: the
// instruction immediately before the jump loads the target register from
// a displacement expression naming the table.
func matchJumpTablePattern2(e *ir.Entry) (string, bool) {
	insn := e.AsInstruction()
	if insn.Op != x86asm.JMP {
		return "", false
	}
	jumpReg, ok := insn.Decoded.Args[0].(x86asm.Reg)
	if !ok {
		return "", false
	}
	p := prevInstruction(e)
	if p == nil || p.AsInstruction().Op != x86asm.MOV {
		return "", false
	}
	pi := p.AsInstruction()
	dst, ok := pi.Decoded.Args[0].(x86asm.Reg)
	if !ok || dst != jumpReg {
		return "", false
	}
	if _, ok := pi.Decoded.Args[1].(x86asm.Mem); !ok {
		return "", false
	}
	if pi.Target == nil {
		return "", false
	}
	return oracle.GetSymbolFromExpression(*pi.Target)
}

// matchJumpTablePattern3 matches the PIC-64 form:
//
//	leaq LBL(%rip), R_B
//	[movl/movzbl ...]
//	movslq (R_B,R_I,4), R_I
//	addq R_B, R_I
//	jmp *R_I
//
// walking backward from the jump. The leaq must directly precede the
// movslq or be separated from it by a single instruction.
func matchJumpTablePattern3(e *ir.Entry) (string, bool) {
	insn := e.AsInstruction()
	if insn.Op != x86asm.JMP {
		return "", false
	}
	jumpReg, ok := insn.Decoded.Args[0].(x86asm.Reg)
	if !ok {
		return "", false
	}

	add := prevInstruction(e)
	if add == nil || add.AsInstruction().Op != x86asm.ADD {
		return "", false
	}
	addInsn := add.AsInstruction()
	ri, ok := addInsn.Decoded.Args[0].(x86asm.Reg)
	if !ok || ri != jumpReg {
		return "", false
	}
	rb, ok := addInsn.Decoded.Args[1].(x86asm.Reg)
	if !ok {
		return "", false
	}

	movslq := prevInstruction(add)
	if movslq == nil || movslq.AsInstruction().Op != x86asm.MOVSXD {
		return "", false
	}

	lea := prevInstruction(movslq)
	if lea != nil && lea.AsInstruction().Op != x86asm.LEA {
		lea = prevInstruction(lea)
	}
	if lea == nil || lea.AsInstruction().Op != x86asm.LEA {
		return "", false
	}
	leaInsn := lea.AsInstruction()
	dst, ok := leaInsn.Decoded.Args[0].(x86asm.Reg)
	if !ok || dst != rb || leaInsn.Target == nil {
		return "", false
	}
	return oracle.GetSymbolFromExpression(*leaInsn.Target)
}

// matchJumpTablePattern4 is pattern 3 where the `leaq` may sit anywhere
// earlier in the function, provided no other instruction redefines R_B and
// R_B is not one of the ABI integer argument registers (so it can't be a
// live-in parameter the lea merely reuses).
func matchJumpTablePattern4(f *ir.Function, e *ir.Entry) (string, bool) {
	insn := e.AsInstruction()
	if insn.Op != x86asm.JMP {
		return "", false
	}
	jumpReg, ok := insn.Decoded.Args[0].(x86asm.Reg)
	if !ok {
		return "", false
	}
	add := prevInstruction(e)
	if add == nil || add.AsInstruction().Op != x86asm.ADD {
		return "", false
	}
	addInsn := add.AsInstruction()
	ri, ok := addInsn.Decoded.Args[0].(x86asm.Reg)
	if !ok || ri != jumpReg {
		return "", false
	}
	rb, ok := addInsn.Decoded.Args[1].(x86asm.Reg)
	if !ok || isABIArgRegister(rb) {
		return "", false
	}

	var lea *ir.Entry
	redefined := false
	it := f.Entries()
	for it.HasNext() {
		cand := it.Next()
		if !cand.IsInstruction() {
			continue
		}
		ci := cand.AsInstruction()
		if ci.Op == x86asm.LEA {
			if dst, ok := ci.Decoded.Args[0].(x86asm.Reg); ok && dst == rb {
				if lea != nil {
					redefined = true
				}
				lea = cand
			}
		} else if oracle.RegisterDefMask(ci).Get(int(oracle.ParentRegister(rb))) && cand != lea {
			redefined = true
		}
	}
	if lea == nil || redefined || lea.AsInstruction().Target == nil {
		return "", false
	}
	return oracle.GetSymbolFromExpression(*lea.AsInstruction().Target)
}

func isABIArgRegister(r x86asm.Reg) bool {
	switch oracle.ParentRegister(r) {
	case x86asm.RDI, x86asm.RSI, x86asm.RDX, x86asm.RCX, x86asm.R8, x86asm.R9:
		return true
	default:
		return false
	}
}

// matchVariadicDispatch recognizes an indirect jump followed by an
// optional label and a run of aligned `movaps` instructions then one
// further instruction — the pattern compilers emit for va_arg-style
// register-save-area dispatch. Each target in the run becomes its own BB
// target, synthesizing a label where the run entry has none, and is
// flagged ChainedIndirectJumpTarget.
func matchVariadicDispatch(c *CFG, e *ir.Entry) ([]string, bool) {
	next := e.Next
	if next != nil && next.IsLabel() {
		next = next.Next
	}
	var targets []string
	count := 0
	for next != nil && next.IsInstruction() && next.AsInstruction().Op == x86asm.MOVAPS {
		lbl := labelFor(c, next)
		targets = append(targets, lbl)
		count++
		next = next.Next
	}
	if count == 0 {
		return nil, false
	}
	if next != nil && next.IsInstruction() {
		targets = append(targets, labelFor(c, next))
	}
	for _, t := range targets {
		c.getOrCreateLabelBB(t).ChainedIndirectJumpTarget = true
	}
	c.Stats.NumVariadicDispatches++
	return targets, true
}

// labelFor returns the name of the label at or synthesized for entry e,
// creating and inserting a synthetic one if e has no label of its own.
func labelFor(c *CFG, e *ir.Entry) string {
	if e.Prev != nil && e.Prev.IsLabel() {
		return e.Prev.AsLabel().Name
	}
	if e.IsLabel() {
		return e.AsLabel().Name
	}
	return c.Function.Subsection.Unit().CreateLabel(e.Prev, "va").AsLabel().Name
}

// parseJumpTable walks forward from label, accumulating the symbols named
// by consecutive `.long`/`.quad` directives, and caches the result.
func (c *CFG) parseJumpTable(label string) []string {
	if cached, ok := c.jumpTableCache[label]; ok {
		return cached
	}
	entry := c.labelEntry(label)
	if entry == nil {
		return nil
	}
	var targets []string
	for cur := entry.Next; cur != nil && cur.IsDirective(); cur = cur.Next {
		d := cur.AsDirective()
		if d.Op != ir.DirLong && d.Op != ir.DirQuad {
			break
		}
		if len(d.Operands) == 0 {
			break
		}
		sym, ok := oracle.GetSymbolFromExpression(d.Operands[0])
		if !ok {
			break
		}
		targets = append(targets, sym)
	}
	c.Stats.NumJumpTables++
	c.jumpTableCache[label] = targets
	return targets
}

// labelEntry finds the entry carrying label name in the CFG's function.
func (c *CFG) labelEntry(name string) *ir.Entry {
	it := c.Function.Entries()
	for it.HasNext() {
		e := it.Next()
		if e.IsLabel() && e.AsLabel().Name == name {
			return e
		}
	}
	return nil
}
