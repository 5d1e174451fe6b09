// Package types implements the canonical operations over ast.Type: size,
// alignment, structural/nominal equality, implicit convertibility, and
// register-class classification (spec §4.5, extended with union rules from
// SPEC_FULL §9).
package types

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/symtab"
)

// Kind is the register class a value of a given type is passed/returned in
// (spec §4.5).
type Kind int

const (
	GP Kind = iota
	SSE
	MEM
)

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

// resolveEntry follows a Reference to its resolved definition. Unresolved
// references (Entry is nil, before the checker runs) return the Reference
// itself unchanged.
func resolveEntry(ref *ast.Reference) ast.Type {
	ti, ok := ref.Entry.(*symtab.TypeInfo)
	if !ok || ti == nil {
		return ref
	}
	switch ti.Kind {
	case symtab.KindTypedef:
		return ti.Underlying
	case symtab.KindStruct:
		return &ast.Aggregate{Tag: ti.Tag, Fields: ti.Fields}
	case symtab.KindUnion:
		return &ast.UnionType{Tag: ti.Tag, Fields: ti.Fields}
	case symtab.KindEnum:
		return ti.Enum
	default:
		return ref
	}
}

func primWidth(k ast.PrimKind, cfg *config.Config) int {
	switch k {
	case ast.PByte, ast.PUbyte, ast.PBool:
		return 1
	case ast.PShort, ast.PUshort:
		return cfg.ShortWidth
	case ast.PInt, ast.PUint:
		return cfg.IntWidth
	case ast.PLong, ast.PUlong:
		return cfg.LongWidth
	case ast.PChar:
		return cfg.CharWidth
	case ast.PWchar:
		return cfg.WCharWidth
	case ast.PFloat:
		return 4
	case ast.PDouble:
		return 8
	case ast.PVoid:
		return 0
	default:
		return cfg.IntWidth
	}
}

// aggregateLayout computes (size, align) for a struct: fields laid out in
// order, each padded up to its own alignment, the whole padded to the
// widest field's alignment (SPEC_FULL §5, grounded on original_source's
// field-by-field align-then-add-then-pad-to-max-align algorithm).
func aggregateLayout(fields []ast.Field, cfg *config.Config) (size, align int) {
	offset, maxAlign := 0, 1
	for _, f := range fields {
		a := Align(f.Type, cfg)
		if a > maxAlign {
			maxAlign = a
		}
		offset = alignUp(offset, a) + Size(f.Type, cfg)
	}
	return alignUp(offset, maxAlign), maxAlign
}

// unionLayout computes (size, align) for a union: size is the widest field,
// rounded up to the widest field's alignment; fields do not accumulate
// offsets (SPEC_FULL §9).
func unionLayout(fields []ast.Field, cfg *config.Config) (size, align int) {
	maxSize, maxAlign := 0, 1
	for _, f := range fields {
		if s := Size(f.Type, cfg); s > maxSize {
			maxSize = s
		}
		if a := Align(f.Type, cfg); a > maxAlign {
			maxAlign = a
		}
	}
	return alignUp(maxSize, maxAlign), maxAlign
}

// Resolve strips qualifiers and follows Reference/typedef chains down to the
// first structural type (Keyword, Pointer, Array, FunPtr, Aggregate,
// UnionType, EnumType, or an unresolved Reference if the checker never ran).
// Callers that need to inspect a type's shape (translate's constant lowering,
// struct field layout) use this instead of switching on Reference directly.
func Resolve(t ast.Type) ast.Type {
	base, _, _ := ast.StripQualifiers(t)
	for {
		ref, ok := base.(*ast.Reference)
		if !ok {
			return base
		}
		resolved := resolveEntry(ref)
		if resolved == ast.Type(ref) {
			return base
		}
		base, _, _ = ast.StripQualifiers(resolved)
	}
}

// FieldOffset locates name within fields, applying the same align-then-add
// layout aggregateLayout uses, and reports its byte offset, size, and
// declared type. ok is false if no field named name exists (union members
// all sit at offset 0).
func FieldOffset(fields []ast.Field, name string, cfg *config.Config) (offset, size int, ftype ast.Type, ok bool) {
	pos := 0
	for _, f := range fields {
		a := Align(f.Type, cfg)
		pos = alignUp(pos, a)
		if f.Name == name {
			return pos, Size(f.Type, cfg), f.Type, true
		}
		pos += Size(f.Type, cfg)
	}
	return 0, 0, nil, false
}

// UnionFieldType locates name within a union's fields (all at offset 0) and
// reports its declared type.
func UnionFieldType(fields []ast.Field, name string) (ftype ast.Type, ok bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Size returns the storage size of t in bytes (spec §4.5).
func Size(t ast.Type, cfg *config.Config) int {
	switch v := t.(type) {
	case *ast.Keyword:
		return primWidth(v.Kind, cfg)
	case *ast.Qualified:
		return Size(v.Base, cfg)
	case *ast.Pointer:
		return cfg.PointerWidth
	case *ast.Array:
		if v.Length < 0 {
			return 0
		}
		return int(v.Length) * Size(v.Elem, cfg)
	case *ast.FunPtr:
		return cfg.PointerWidth
	case *ast.Aggregate:
		size, _ := aggregateLayout(v.Fields, cfg)
		return size
	case *ast.UnionType:
		size, _ := unionLayout(v.Fields, cfg)
		return size
	case *ast.EnumType:
		return cfg.IntWidth
	case *ast.Reference:
		return Size(resolveEntry(v), cfg)
	default:
		return 0
	}
}

// Align returns the alignment requirement of t in bytes (spec §4.5).
func Align(t ast.Type, cfg *config.Config) int {
	switch v := t.(type) {
	case *ast.Keyword:
		w := primWidth(v.Kind, cfg)
		if w == 0 {
			return 1
		}
		return w
	case *ast.Qualified:
		return Align(v.Base, cfg)
	case *ast.Pointer:
		return cfg.PointerWidth
	case *ast.Array:
		return Align(v.Elem, cfg)
	case *ast.FunPtr:
		return cfg.PointerWidth
	case *ast.Aggregate:
		_, align := aggregateLayout(v.Fields, cfg)
		return align
	case *ast.UnionType:
		_, align := unionLayout(v.Fields, cfg)
		return align
	case *ast.EnumType:
		return cfg.IntWidth
	case *ast.Reference:
		return Align(resolveEntry(v), cfg)
	default:
		return 1
	}
}

// KindOf classifies t into a register class, stripping qualifiers and
// typedefs first (spec §4.5).
func KindOf(t ast.Type) Kind {
	base, _, _ := ast.StripQualifiers(t)
	if ref, ok := base.(*ast.Reference); ok {
		base = resolveEntry(ref)
	}
	switch v := base.(type) {
	case *ast.Keyword:
		if v.Kind.IsFloat() {
			return SSE
		}
		return GP
	case *ast.Pointer, *ast.FunPtr, *ast.EnumType:
		return GP
	case *ast.Aggregate, *ast.UnionType, *ast.Array:
		return MEM
	default:
		return GP
	}
}

// Equal implements spec §4.5: structural equality for everything but
// Reference, which is nominal (equal iff the resolved entries are the same
// *symtab.TypeInfo). Qualifiers participate: `const int` != `int`.
func Equal(a, b ast.Type) bool {
	aq, aConst, aVol := ast.StripQualifiers(a)
	bq, bConst, bVol := ast.StripQualifiers(b)
	if aConst != bConst || aVol != bVol {
		return false
	}
	return equalUnqualified(aq, bq)
}

func equalUnqualified(a, b ast.Type) bool {
	switch av := a.(type) {
	case *ast.Keyword:
		bv, ok := b.(*ast.Keyword)
		return ok && av.Kind == bv.Kind
	case *ast.Pointer:
		bv, ok := b.(*ast.Pointer)
		return ok && Equal(av.Base, bv.Base)
	case *ast.Array:
		bv, ok := b.(*ast.Array)
		return ok && av.Length == bv.Length && Equal(av.Elem, bv.Elem)
	case *ast.FunPtr:
		bv, ok := b.(*ast.FunPtr)
		if !ok || len(av.Args) != len(bv.Args) || !Equal(av.Return, bv.Return) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *ast.Aggregate:
		bv, ok := b.(*ast.Aggregate)
		return ok && av.Tag == bv.Tag
	case *ast.UnionType:
		bv, ok := b.(*ast.UnionType)
		return ok && av.Tag == bv.Tag
	case *ast.EnumType:
		bv, ok := b.(*ast.EnumType)
		return ok && av.Tag == bv.Tag
	case *ast.Reference:
		bv, ok := b.(*ast.Reference)
		if !ok {
			return false
		}
		if av.Entry != nil && bv.Entry != nil {
			return av.Entry == bv.Entry
		}
		return av.Module == bv.Module && av.Name == bv.Name && av.Kind == bv.Kind
	default:
		return false
	}
}

// IsInteger, IsFloat, IsNumeric, IsPointer classify a type after stripping
// qualifiers, references, and typedefs.
func underlyingPrim(t ast.Type) (ast.PrimKind, bool) {
	base, _, _ := ast.StripQualifiers(t)
	if ref, ok := base.(*ast.Reference); ok {
		base = resolveEntry(ref)
	}
	if e, ok := base.(*ast.EnumType); ok {
		_ = e
		return ast.PInt, true
	}
	if k, ok := base.(*ast.Keyword); ok {
		return k.Kind, true
	}
	return 0, false
}

func IsInteger(t ast.Type) bool {
	k, ok := underlyingPrim(t)
	return ok && k.IsInteger()
}

func IsFloat(t ast.Type) bool {
	k, ok := underlyingPrim(t)
	return ok && k.IsFloat()
}

func IsNumeric(t ast.Type) bool { return IsInteger(t) || IsFloat(t) }

func IsPointer(t ast.Type) bool {
	base, _, _ := ast.StripQualifiers(t)
	_, ok := base.(*ast.Pointer)
	return ok
}

func IsVoidPointer(t ast.Type) bool {
	base, _, _ := ast.StripQualifiers(t)
	p, ok := base.(*ast.Pointer)
	if !ok {
		return false
	}
	inner, _, _ := ast.StripQualifiers(p.Base)
	k, ok := inner.(*ast.Keyword)
	return ok && k.Kind == ast.PVoid
}

func IsNull(t ast.Type) bool {
	_, ok := t.(*ast.NullType)
	return ok
}

// ImplicitlyConvertible implements the source language's conversion lattice
// (spec §4.5).
func ImplicitlyConvertible(from, to ast.Type, cfg *config.Config) bool {
	if Equal(from, to) {
		return true
	}
	// Adding const is always fine.
	if Equal(stripConstOnly(to), from) {
		return true
	}

	fromBase, _, _ := ast.StripQualifiers(from)
	toBase, _, _ := ast.StripQualifiers(to)
	if ref, ok := fromBase.(*ast.Reference); ok {
		fromBase = resolveEntry(ref)
	}
	if ref, ok := toBase.(*ast.Reference); ok {
		toBase = resolveEntry(ref)
	}

	// null -> any pointer.
	if IsNull(from) {
		if _, ok := toBase.(*ast.Pointer); ok {
			return true
		}
	}

	// array-to-pointer decay, const propagates.
	if arr, ok := fromBase.(*ast.Array); ok {
		if p, ok := toBase.(*ast.Pointer); ok {
			return Equal(arr.Elem, p.Base) || ImplicitlyConvertible(arr.Elem, p.Base, cfg)
		}
	}

	// any pointer <-> void*.
	if fp, ok := fromBase.(*ast.Pointer); ok {
		if tp, ok := toBase.(*ast.Pointer); ok {
			if isVoidType(fp.Base) || isVoidType(tp.Base) {
				return true
			}
		}
	}

	// enum <-> underlying int, equal size.
	if fe, ok := fromBase.(*ast.EnumType); ok {
		_ = fe
		if tk, ok := toBase.(*ast.Keyword); ok && tk.Kind.IsInteger() {
			return Size(from, cfg) == Size(to, cfg)
		}
	}
	if te, ok := toBase.(*ast.EnumType); ok {
		_ = te
		if fk, ok := fromBase.(*ast.Keyword); ok && fk.Kind.IsInteger() {
			return Size(from, cfg) == Size(to, cfg)
		}
	}

	fk, fromIsKw := fromBase.(*ast.Keyword)
	tk, toIsKw := toBase.(*ast.Keyword)
	if fromIsKw && toIsKw {
		if fk.Kind.IsInteger() && tk.Kind.IsInteger() {
			return widensTo(fk.Kind, tk.Kind, cfg)
		}
		if fk.Kind.IsInteger() && tk.Kind.IsFloat() {
			return true
		}
		if fk.Kind == ast.PFloat && tk.Kind == ast.PDouble {
			return true
		}
	}
	return false
}

func isVoidType(t ast.Type) bool {
	base, _, _ := ast.StripQualifiers(t)
	k, ok := base.(*ast.Keyword)
	return ok && k.Kind == ast.PVoid
}

func stripConstOnly(t ast.Type) ast.Type {
	if q, ok := t.(*ast.Qualified); ok {
		return q.Base
	}
	return t
}

// widensTo implements the integer widening rule: unsigned->unsigned and
// signed->signed require size(from) <= size(to); unsigned->signed requires
// strictly wider (spec §4.5).
func widensTo(from, to ast.PrimKind, cfg *config.Config) bool {
	fw := primWidth(from, cfg)
	tw := primWidth(to, cfg)
	fu, tu := from.IsUnsigned(), to.IsUnsigned()
	switch {
	case fu == tu:
		return fw <= tw
	case fu && !tu:
		return fw < tw
	default: // signed -> unsigned is never implicit
		return false
	}
}
