// Package frame defines the target-independent Frame/Access abstraction
// the translator lowers through (spec §4.8). Concrete targets — the
// initial one being x86_64 System V in pkg/frame/sysv — implement these
// interfaces; the translator never depends on a concrete frame type.
package frame

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/ir"
)

// Frame is an opaque per-function allocator of storage locations,
// abstracting the target ABI (spec §4.8). Grounded on original_source's
// `Frame`/`FrameVTable` (a C vtable of dtor + generateEntryExit); Go's
// interface dispatch replaces the vtable, and no explicit dtor is needed
// since a Frame owns no unmanaged resources.
type Frame interface {
	// ScopeStart returns any stack setup a nested scope needs (e.g. an
	// alloca sequence for a variable-sized escaping local); ScopeEnd wraps
	// body with the corresponding teardown.
	ScopeStart() []ir.Entry
	ScopeEnd(body []ir.Entry) []ir.Entry

	// AllocArg allocates storage for the next incoming parameter, in
	// declaration order.
	AllocArg(t ast.Type, escapes bool) Access

	// AllocRetVal allocates the return-value slot; nil for a void return.
	AllocRetVal(t ast.Type) Access

	// AllocLocal allocates storage for a local binding.
	AllocLocal(t ast.Type, escapes bool) Access

	// GenerateEntryExit prepends the prologue and appends the epilogue
	// (callee-save spill/reload, stack (de)allocation, return) around body.
	GenerateEntryExit(body []ir.Entry) []ir.Entry
}

// Access is a storage location a Frame handed out: a stack slot, a
// register, or (for globals) a linker-visible label.
type Access interface {
	// Load appends whatever Entries are needed to materialize this
	// access's current value and returns the Operand holding it.
	Load(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand

	// Store appends the Entries needed to write source into this access.
	Store(out *[]ir.Entry, source ir.Operand, ta *ir.TempAllocator)

	// Addr appends whatever Entries are needed to materialize this access's
	// own address (for `&x` and for addressing an aggregate's fields) and
	// returns the Operand holding it.
	Addr(out *[]ir.Entry, ta *ir.TempAllocator) ir.Operand

	// Label returns the fragment label backing this access and true, or
	// ("", false) if the access is not a global (spec §4.8: "getLabel()
	// (for globals)").
	Label() (string, bool)
}

// FrameCtor builds a fresh Frame for one function, per spec §4.9's
// translator input ("a fully typed AST plus a FrameCtor").
type FrameCtor func(name string) Frame

// LabelGenerator mints fresh code and data labels during translation.
type LabelGenerator interface {
	NewLabel() string
	NewDataLabel() string
}
