// Package ir implements the target-independent three-address code of
// spec §4.7: a fixed, small operator set over tagged Operands, grouped
// into linkable Fragments (BSS/RODATA/DATA/TEXT) per compilation unit.
package ir

import "github.com/tlc-lang/tlc/pkg/types"

// Operator is the fixed instruction set of spec §4.7.
type Operator int

const (
	// Data placement / pseudo.
	OpConst Operator = iota
	OpAsm
	OpLabel

	// Moves.
	OpMove
	OpMemLoad
	OpMemStore
	OpStkLoad
	OpStkStore
	OpStkAddr
	OpOffsetLoad
	OpOffsetStore

	// Integer arithmetic.
	OpAdd
	OpSub
	OpSMul
	OpUMul
	OpSDiv
	OpUDiv
	OpSMod
	OpUMod

	// Floating arithmetic.
	OpFPAdd
	OpFPSub
	OpFPMul
	OpFPDiv

	// Bitwise / shift / logical.
	OpAnd
	OpOr
	OpXor
	OpNot
	OpSLL
	OpSLR
	OpSAR
	OpLNot

	// Conversions.
	OpSXShort
	OpSXInt
	OpSXLong
	OpZXShort
	OpZXInt
	OpZXLong
	OpTruncByte
	OpTruncShort
	OpTruncInt
	OpSToFloat
	OpSToDouble
	OpUToFloat
	OpUToDouble
	OpFToByte
	OpFToShort
	OpFToInt
	OpFToLong
	OpFToFloat
	OpFToDouble

	// Compares producing 0/1.
	OpE
	OpNE
	OpL
	OpLE
	OpG
	OpGE
	OpA
	OpAE
	OpB
	OpBE
	OpFPE
	OpFPNE
	OpFPL
	OpFPLE
	OpFPG
	OpFPGE

	// Control flow.
	OpJump
	OpJE
	OpJNE
	OpJL
	OpJLE
	OpJG
	OpJGE
	OpJA
	OpJAE
	OpJB
	OpJBE
	OpFPJE
	OpFPJNE
	OpFPJL
	OpFPJLE
	OpFPJG
	OpFPJGE

	// Calls.
	OpArg
	OpCall
	OpReturn
)

// Operand is a tagged variant over the value/location kinds an Entry's
// dest/arg1/arg2 can hold, grounded on original_source's IROperand union
// (OK_TEMP/OK_REG/OK_CONSTANT/OK_NAME/OK_ASM/OK_STRING/OK_WSTRING/
// OK_STACKOFFSET).
type Operand interface {
	operand()
}

// Temp is a virtual register produced by TempAllocator; Kind picks which
// physical register class the frame should eventually assign it to.
type Temp struct {
	N     int
	Size  int
	Align int
	Kind  types.Kind
}

func (Temp) operand() {}

// Reg is a fixed physical register, assigned by the frame during
// translation (e.g. the SysV return-value register RAX or XMM0).
type Reg struct{ N int }

func (Reg) operand() {}

// Const is a bit-pattern constant; its meaning (integer vs. float bits) is
// determined by the Entry's opSize and operator.
type Const struct{ Bits uint64 }

func (Const) operand() {}

// Name references a label: a function, a global fragment, or a jump
// target.
type Name struct{ Label string }

func (Name) operand() {}

// Asm carries verbatim inline-assembly text (the ASM pseudo-operator's
// sole argument).
type Asm struct{ Text string }

func (Asm) operand() {}

// StringData / WStringData hold narrow/wide string literal bytes destined
// for a RODATA fragment.
type StringData struct{ Data []byte }

func (StringData) operand() {}

type WStringData struct{ Data []rune }

func (WStringData) operand() {}

// StackOffset addresses a location at a constant offset from the frame
// base, used by STK_LOAD/STK_STORE.
type StackOffset struct{ Offset int64 }

func (StackOffset) operand() {}

// OpStkAddr has no analog in original_source's operator list (which never
// needs to materialize the address of a stack slot as a value, since its
// only aggregate accesses go through OFFSET_LOAD/OFFSET_STORE against an
// already-address-valued MEM temp); it is added here because this
// language's `&local` and struct-base addressing for StructAccess both need
// a stack slot's address as an ordinary GP operand. dest = result temp,
// arg1 = the StackOffset being addressed.

// Entry is one three-address instruction: {op, opSize, dest?, arg1, arg2?}
// (spec §4.7). opSize is 0 for label/asm/unconditional-jump/call/return
// operators; a conditional jump carries the width of the values it compares.
type Entry struct {
	Op    Operator
	Size  int
	Dest  Operand // nil where the operator has none
	Arg1  Operand
	Arg2  Operand // nil where the operator takes only one argument
}

// Arg declares the next outgoing call argument, in left-to-right order,
// immediately preceding the matching CALL; a backend collects the run of
// ARG entries before a CALL into that call's actual argument list rather
// than this package assigning registers or stack slots itself, since that
// split is target-specific.
func Arg(value Operand) Entry { return Entry{Op: OpArg, Arg1: value} }

func Label(name string) Entry { return Entry{Op: OpLabel, Arg1: Name{Label: name}} }
func Jump(target string) Entry {
	return Entry{Op: OpJump, Arg1: Name{Label: target}}
}
func Asmline(text string) Entry { return Entry{Op: OpAsm, Arg1: Asm{Text: text}} }
func Call(target Operand) Entry { return Entry{Op: OpCall, Arg1: target} }
func Return() Entry             { return Entry{Op: OpReturn} }

// TempAllocator yields a monotonically increasing id per function (spec
// §4.7); one instance is created per function being translated.
type TempAllocator struct{ next int }

func NewTempAllocator() *TempAllocator { return &TempAllocator{} }

// Allocate mints a fresh temp of the given size/alignment/register class.
func (a *TempAllocator) Allocate(size, align int, kind types.Kind) Temp {
	t := Temp{N: a.next, Size: size, Align: align, Kind: kind}
	a.next++
	return t
}

// Fragment is a tagged variant over the linkable sections a translated
// file is organized into (spec §4.7/§4.9): BSS for zero-initialized
// globals, RODATA for constant data and string literals, DATA for
// initialized mutable globals, TEXT for function bodies.
type Fragment interface {
	fragment()
	Label() string
}

type BSSFragment struct {
	Name  string
	Size  int
	Align int
}

func (f *BSSFragment) fragment()      {}
func (f *BSSFragment) Label() string  { return f.Name }

type RODATAFragment struct {
	Name  string
	Align int
	Data  []Entry // CONST entries, one per primitive leaf
}

func (f *RODATAFragment) fragment()     {}
func (f *RODATAFragment) Label() string { return f.Name }

type DataFragment struct {
	Name  string
	Align int
	Data  []Entry
}

func (f *DataFragment) fragment()     {}
func (f *DataFragment) Label() string { return f.Name }

// Param describes one incoming argument's home, in declaration order, so a
// backend lowering a TextFragment can materialize its arrival without
// re-deriving the frame layout Frame.AllocArg already settled on.
type Param struct {
	Slot StackOffset
	Size int
	Kind types.Kind
}

type TextFragment struct {
	Name   string
	Body   []Entry
	Params []Param
}

func (f *TextFragment) fragment()     {}
func (f *TextFragment) Label() string { return f.Name }

// FragmentVector is the per-file output of the translator (spec §4.9).
type FragmentVector struct {
	Fragments []Fragment
}

func (v *FragmentVector) Add(f Fragment) { v.Fragments = append(v.Fragments, f) }
