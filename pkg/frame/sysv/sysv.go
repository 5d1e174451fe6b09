// Package sysv implements pkg/frame.Frame for x86_64 System V (spec
// §4.8): integer/pointer arguments in RDI,RSI,RDX,RCX,R8,R9, floating
// arguments in XMM0-7, spills on the caller's stack, callee-save
// {RBX,R12-R15}, return value in RAX or XMM0.
package sysv

import (
	"fmt"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/frame"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

// Register numbers, assigned arbitrarily but consistently; the backend
// maps these to physical names when it lowers Fragments to QBE text.
const (
	RAX = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

const (
	XMM0 = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
)

var intArgRegs = []int{RDI, RSI, RDX, RCX, R8, R9}
var sseArgRegs = []int{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}

// calleeSaved is the System V callee-save integer register set; the
// remainder (RAX,RCX,RDX,RSI,RDI,R8-R11) are caller-save.
var calleeSaved = []int{RBX, R12, R13, R14, R15}

// Frame is the per-function x86_64 System V allocator.
type Frame struct {
	name string
	cfg  *config.Config

	// locals grow down from RBP; stack-passed args live above the return
	// address, growing up.
	localOffset    int64
	stackArgOffset int64

	intArgsUsed int
	sseArgsUsed int

	usedCalleeSaved map[int]bool
}

var _ frame.Frame = (*Frame)(nil)

func New(name string, cfg *config.Config) *Frame {
	return &Frame{name: name, cfg: cfg, stackArgOffset: 16, usedCalleeSaved: map[int]bool{}}
}

func (f *Frame) ScopeStart() []ir.Entry { return nil }

func (f *Frame) ScopeEnd(body []ir.Entry) []ir.Entry { return body }

// AllocArg assigns the next incoming parameter to a register (spilled to
// its own stack slot immediately, so every Access is stack-resident and
// AllocLocal/AllocArg accesses behave uniformly for the translator) or, once
// the register file for its class is exhausted, to a caller-provided stack
// slot.
func (f *Frame) AllocArg(t ast.Type, escapes bool) frame.Access {
	size := types.Size(t, f.cfg)
	align := types.Align(t, f.cfg)
	kind := types.KindOf(t)

	if kind == types.SSE && f.sseArgsUsed < len(sseArgRegs) {
		f.sseArgsUsed++
		return &StackAccess{Offset: f.allocLocalOffset(size, align), Size: size}
	}
	if kind != types.SSE && f.intArgsUsed < len(intArgRegs) {
		f.intArgsUsed++
		return &StackAccess{Offset: f.allocLocalOffset(size, align), Size: size}
	}

	// Register file exhausted: the argument arrives on the stack above the
	// saved return address, at a fixed offset from RBP.
	off := f.stackArgOffset
	f.stackArgOffset += int64(align8(size))
	return &StackAccess{Offset: off, Size: size}
}

func (f *Frame) AllocRetVal(t ast.Type) frame.Access {
	if isVoid(t) {
		return nil
	}
	size := types.Size(t, f.cfg)
	align := types.Align(t, f.cfg)
	kind := types.KindOf(t)
	if kind == types.SSE {
		return &RegAccess{Reg: ir.Reg{N: XMM0}, Size: size}
	}
	if kind == types.MEM {
		// Returned via a hidden pointer the caller supplies; modeled as a
		// stack slot the caller can also address directly.
		off := f.allocLocalOffset(size, align)
		return &StackAccess{Offset: off, Size: size}
	}
	return &RegAccess{Reg: ir.Reg{N: RAX}, Size: size}
}

func (f *Frame) AllocLocal(t ast.Type, escapes bool) frame.Access {
	size := types.Size(t, f.cfg)
	align := types.Align(t, f.cfg)
	off := f.allocLocalOffset(size, align)
	return &StackAccess{Offset: off, Size: size}
}

func (f *Frame) allocLocalOffset(size, align int) int64 {
	f.localOffset -= int64(align8(size))
	if a := int64(align); a > 1 {
		f.localOffset -= f.localOffset % a
	}
	return f.localOffset
}

// GenerateEntryExit wraps body with the standard RBP-based prologue and
// epilogue: push RBP, allocate locals (16-byte aligned per the SysV stack
// alignment requirement), save the callee-save registers this frame used,
// then the mirrored teardown before RET (spec §4.8).
func (f *Frame) GenerateEntryExit(body []ir.Entry) []ir.Entry {
	frameSize := align16(-f.localOffset)

	var out []ir.Entry
	out = append(out, ir.Entry{Op: ir.OpAsm, Arg1: ir.Asm{Text: "push rbp"}})
	out = append(out, ir.Entry{Op: ir.OpAsm, Arg1: ir.Asm{Text: "mov rbp, rsp"}})
	if frameSize > 0 {
		out = append(out, ir.Entry{Op: ir.OpAsm, Arg1: ir.Asm{Text: fmt.Sprintf("sub rsp, %d", frameSize)}})
	}
	for _, r := range calleeSaved {
		if f.usedCalleeSaved[r] {
			out = append(out, ir.Entry{Op: ir.OpAsm, Arg1: ir.Asm{Text: fmt.Sprintf("push %s", regName(r))}})
		}
	}

	out = append(out, body...)

	out = append(out, ir.Entry{Op: ir.OpLabel, Arg1: ir.Name{Label: f.name + "_exit"}})
	for i := len(calleeSaved) - 1; i >= 0; i-- {
		r := calleeSaved[i]
		if f.usedCalleeSaved[r] {
			out = append(out, ir.Entry{Op: ir.OpAsm, Arg1: ir.Asm{Text: fmt.Sprintf("pop %s", regName(r))}})
		}
	}
	out = append(out, ir.Entry{Op: ir.OpAsm, Arg1: ir.Asm{Text: "leave"}})
	out = append(out, ir.Entry{Op: ir.OpReturn})
	return out
}

// MarkCalleeSavedUsed records that reg was clobbered by the body, so
// GenerateEntryExit saves/restores it. Only registers marked here are
// saved; the translator does not call it, since it assigns no physical
// registers of its own.
func (f *Frame) MarkCalleeSavedUsed(reg int) { f.usedCalleeSaved[reg] = true }

func isVoid(t ast.Type) bool {
	base, _, _ := ast.StripQualifiers(t)
	k, ok := base.(*ast.Keyword)
	return ok && k.Kind == ast.PVoid
}

func align8(n int) int  { return (n + 7) &^ 7 }
func align16(n int64) int64 { return (n + 15) &^ 15 }

func regName(r int) string {
	names := map[int]string{RAX: "rax", RBX: "rbx", RCX: "rcx", RDX: "rdx",
		RSI: "rsi", RDI: "rdi", RBP: "rbp", RSP: "rsp", R8: "r8", R9: "r9",
		R10: "r10", R11: "r11", R12: "r12", R13: "r13", R14: "r14", R15: "r15"}
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("r%d", r)
}
