package ast

// Type is a tagged variant over the source language's type grammar (spec
// §3). Concrete implementations are the structs below; Type itself carries
// no behavior beyond identification, matching the AST's "pure data, no
// vtables" design (spec §9).
type Type interface {
	Located
	typeNode()
}

// PrimKind enumerates the primitive keyword types.
type PrimKind int

const (
	PByte PrimKind = iota
	PUbyte
	PShort
	PUshort
	PInt
	PUint
	PLong
	PUlong
	PChar
	PWchar
	PFloat
	PDouble
	PBool
	PVoid
)

func (k PrimKind) String() string {
	names := [...]string{"byte", "ubyte", "short", "ushort", "int", "uint",
		"long", "ulong", "char", "wchar", "float", "double", "bool", "void"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// IsUnsigned reports whether k is one of the unsigned integer kinds.
func (k PrimKind) IsUnsigned() bool {
	switch k {
	case PUbyte, PUshort, PUint, PUlong, PWchar, PBool:
		return true
	default:
		return false
	}
}

// IsInteger reports whether k is any integer or char/bool kind (GP class).
func (k PrimKind) IsInteger() bool {
	switch k {
	case PByte, PUbyte, PShort, PUshort, PInt, PUint, PLong, PUlong, PChar, PWchar, PBool:
		return true
	default:
		return false
	}
}

func (k PrimKind) IsFloat() bool { return k == PFloat || k == PDouble }

// Keyword is a primitive type reference: byte, int, float, void, etc.
type Keyword struct {
	Pos
	Kind PrimKind
}

func (*Keyword) typeNode() {}

// Qualified wraps Base with const and/or volatile.
type Qualified struct {
	Pos
	Const    bool
	Volatile bool
	Base     Type
}

func (*Qualified) typeNode() {}

// Pointer is T*.
type Pointer struct {
	Pos
	Base Type
}

func (*Pointer) typeNode() {}

// Array is T[n]. Length is -1 until a constant-folded value is known.
type Array struct {
	Pos
	Length int64
	Elem   Type
}

func (*Array) typeNode() {}

// FunPtr is a function-pointer type: returnType(argTypes...).
type FunPtr struct {
	Pos
	Return Type
	Args   []Type
}

func (*FunPtr) typeNode() {}

// Field is one member of an Aggregate or Union.
type Field struct {
	Pos
	Name string
	Type Type
}

// Aggregate is a struct type: fields laid out sequentially with padding to
// each field's alignment (spec §4.5, supplemented by SPEC_FULL §5).
type Aggregate struct {
	Pos
	Tag    string
	Fields []Field
}

func (*Aggregate) typeNode() {}

// UnionType is a union type: fields overlap at offset 0, size is the max
// field size rounded up to the max field alignment (SPEC_FULL §9).
type UnionType struct {
	Pos
	Tag    string
	Fields []Field
}

func (*UnionType) typeNode() {}

// EnumType is an enum type; its representation is its underlying integer
// kind (always PInt) plus the ordered constant names (DESIGN.md Open
// Question decision 4: enum constants carry the enum's own Reference type at use
// sites, freely interconvertible with the underlying integer).
type EnumType struct {
	Pos
	Tag       string
	Constants []string
	Values    []int64
}

func (*EnumType) typeNode() {}

// EntryKind distinguishes what a Reference resolves to.
type EntryKind int

const (
	EntryTypedef EntryKind = iota
	EntryStruct
	EntryUnion
	EntryEnum
)

// Reference is a named type reference (typedef, struct/union/enum tag,
// possibly module-scoped). Entry is a non-owning pointer to the symbol
// table's *symtab.TypeInfo entry; no arena or index scheme is used, since
// the garbage collector handles the cycles that mutually recursive structs
// create.
type Reference struct {
	Pos
	Module string // "" if unscoped
	Name   string
	Kind   EntryKind
	Entry  interface{} // resolved *symtab.TypeInfo, filled by the checker
}

func (*Reference) typeNode() {}

// NullType is the type of the `null` literal before it converts to a
// concrete pointer type at its use site.
type NullType struct {
	Pos
}

func (*NullType) typeNode() {}

// StripQualifiers walks through Qualified wrappers and returns the
// underlying type together with the accumulated const/volatile flags.
func StripQualifiers(t Type) (base Type, isConst, isVolatile bool) {
	for {
		q, ok := t.(*Qualified)
		if !ok {
			return t, isConst, isVolatile
		}
		isConst = isConst || q.Const
		isVolatile = isVolatile || q.Volatile
		t = q.Base
	}
}
