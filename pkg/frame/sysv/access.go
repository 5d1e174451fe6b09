package sysv

import (
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

// StackAccess is a value living at a constant offset from RBP: negative
// for locals, positive (past the return address) for stack-spilled
// incoming arguments.
type StackAccess struct {
	Offset int64
	Size   int
}

func (a *StackAccess) Load(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand {
	t := ta.Allocate(a.Size, a.Size, types.GP)
	*out = append(*out, ir.Entry{Op: ir.OpStkLoad, Size: a.Size, Dest: t,
		Arg1: ir.StackOffset{Offset: a.Offset}})
	return t
}

func (a *StackAccess) Store(out *[]ir.Entry, source ir.Operand, ta *ir.TempAllocator) {
	*out = append(*out, ir.Entry{Op: ir.OpStkStore, Size: a.Size,
		Dest: ir.StackOffset{Offset: a.Offset}, Arg1: source})
}

func (a *StackAccess) Addr(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand {
	t := ta.Allocate(8, 8, types.GP)
	*out = append(*out, ir.Entry{Op: ir.OpStkAddr, Size: 8, Dest: t,
		Arg1: ir.StackOffset{Offset: a.Offset}})
	return t
}

func (a *StackAccess) Label() (string, bool) { return "", false }

// StackOffset exposes a's frame offset to anything that duck-types against
// it (pkg/translate's function.go, to record Param slots for a backend that
// needs to materialize argument arrival explicitly); Frame/Access stay
// target-independent, since nothing outside this package asserts the
// concrete *StackAccess type itself.
func (a *StackAccess) StackOffset() int64 { return a.Offset }

// RegAccess is a value that lives in a fixed physical register for its
// entire lifetime (the return-value slot, mainly); reading/writing it is
// a plain move to/from a fresh temp.
type RegAccess struct {
	Reg  ir.Reg
	Size int
}

func (a *RegAccess) Load(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand {
	t := ta.Allocate(a.Size, a.Size, types.GP)
	*out = append(*out, ir.Entry{Op: ir.OpMove, Size: a.Size, Dest: t, Arg1: a.Reg})
	return t
}

func (a *RegAccess) Store(out *[]ir.Entry, source ir.Operand, ta *ir.TempAllocator) {
	*out = append(*out, ir.Entry{Op: ir.OpMove, Size: a.Size, Dest: a.Reg, Arg1: source})
}

// Addr has no real meaning for a register-resident value; a RegAccess only
// ever backs a function's own return slot, which user code never takes the
// address of, so this is unreachable in a correct translation.
func (a *RegAccess) Addr(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand {
	return a.Load(out, ta)
}

func (a *RegAccess) Label() (string, bool) { return "", false }

// GlobalAccess is a module-level variable backed by a BSS/DATA/RODATA
// fragment, addressed by its mangled label.
type GlobalAccess struct {
	Name string
	Size int
}

func (a *GlobalAccess) Load(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand {
	t := ta.Allocate(a.Size, a.Size, types.GP)
	*out = append(*out, ir.Entry{Op: ir.OpMemLoad, Size: a.Size, Dest: t,
		Arg1: ir.Name{Label: a.Name}})
	return t
}

func (a *GlobalAccess) Store(out *[]ir.Entry, source ir.Operand, ta *ir.TempAllocator) {
	*out = append(*out, ir.Entry{Op: ir.OpMemStore, Size: a.Size,
		Dest: ir.Name{Label: a.Name}, Arg1: source})
}

// NewGlobalAccess builds the Access for a module-level variable addressed by
// its already-mangled label; the translator calls this on demand rather than
// threading a per-target constructor through the symbol table.
func NewGlobalAccess(label string, size int) *GlobalAccess {
	return &GlobalAccess{Name: label, Size: size}
}

func (a *GlobalAccess) Addr(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand {
	return ir.Name{Label: a.Name}
}

func (a *GlobalAccess) Label() (string, bool) { return a.Name, true }
