package oracle

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/stretchr/testify/assert"

	"github.com/maocore/mao/ir"
)

func mkInsn(op x86asm.Op, args ...x86asm.Arg) *ir.Instruction {
	var a x86asm.Args
	for i, arg := range args {
		a[i] = arg
	}
	return &ir.Instruction{Decoded: x86asm.Inst{Op: op, Args: a}, Op: op, Mode: ir.Mode64}
}

func TestIsJumpClassification(t *testing.T) {
	jmp := mkInsn(x86asm.JMP, x86asm.Rel(16))
	jne := mkInsn(x86asm.JNE, x86asm.Rel(8))
	call := mkInsn(x86asm.CALL, x86asm.Rel(32))
	ret := mkInsn(x86asm.RET)

	assert.True(t, IsUnconditionalJump(jmp))
	assert.False(t, IsConditionalJump(jmp))
	assert.True(t, IsConditionalJump(jne))
	assert.True(t, IsCall(call))
	assert.True(t, IsReturn(ret))
	assert.True(t, IsControlTransfer(jmp))
	assert.True(t, IsControlTransfer(call))
	assert.True(t, IsControlTransfer(ret))
}

func TestHasFallThrough(t *testing.T) {
	jmp := mkInsn(x86asm.JMP, x86asm.Rel(16))
	jne := mkInsn(x86asm.JNE, x86asm.Rel(8))
	ret := mkInsn(x86asm.RET)
	mov := mkInsn(x86asm.MOV, x86asm.EAX, x86asm.EBX)

	assert.False(t, HasFallThrough(jmp))
	assert.True(t, HasFallThrough(jne))
	assert.False(t, HasFallThrough(ret))
	assert.True(t, HasFallThrough(mov))
}

func TestIsIndirectJump(t *testing.T) {
	direct := mkInsn(x86asm.JMP, x86asm.Rel(16))
	indirect := mkInsn(x86asm.JMP, x86asm.EAX)

	assert.False(t, IsIndirectJump(direct))
	assert.True(t, IsIndirectJump(indirect))
}

func TestGetTarget(t *testing.T) {
	jmp := mkInsn(x86asm.JMP, x86asm.Rel(16))
	jmp.Target = &ir.Operand{Kind: ir.OperandSymbol, Symbol: ".L16"}
	target, ok := GetTarget(jmp)
	assert.True(t, ok)
	assert.Equal(t, ".L16", target)

	indirect := mkInsn(x86asm.JMP, x86asm.EAX)
	_, ok = GetTarget(indirect)
	assert.False(t, ok)
}

func TestRegisterDefUseMask(t *testing.T) {
	mov := mkInsn(x86asm.MOV, x86asm.EAX, x86asm.EBX)

	def := RegisterDefMask(mov)
	use := RegisterUseMask(mov)

	assert.True(t, def.Get(int(x86asm.RAX)))
	assert.False(t, def.Get(int(x86asm.RBX)))
	assert.True(t, use.Get(int(x86asm.RBX)))
	assert.False(t, use.Get(int(x86asm.RAX)))
}

func TestParentRegisterNormalizes(t *testing.T) {
	assert.Equal(t, x86asm.RAX, ParentRegister(x86asm.AL))
	assert.Equal(t, x86asm.RAX, ParentRegister(x86asm.EAX))
	assert.Equal(t, x86asm.RAX, ParentRegister(x86asm.RAX))
}

func TestMemoryOperandAccessors(t *testing.T) {
	mem := x86asm.Mem{Base: x86asm.RAX, Index: x86asm.RCX, Scale: 4, Disp: 8}
	lea := mkInsn(x86asm.LEA, x86asm.RDX, mem)

	assert.True(t, IsMemoryOperand(lea, 1))
	assert.Equal(t, x86asm.RAX, GetBaseRegister(lea, 1))
	assert.Equal(t, x86asm.RCX, GetIndexRegister(lea, 1))
	assert.Equal(t, int64(8), GetDisplacement(lea, 1))
}

func TestCallingConventionDefMask(t *testing.T) {
	mask := CallingConventionDefMask()
	assert.True(t, mask.Get(int(x86asm.RAX)))
	assert.False(t, mask.Get(int(x86asm.RBX)))
}
