// Package translate lowers a fully typed AST into the target-independent
// three-address IR of pkg/ir, organized into per-file Fragments (spec §4.9).
// It reads resolved types directly off Expr.Type()/ast.Reference.Entry and
// never re-derives anything the type checker already decided; any AST shape
// this package cannot make sense of is an internal-compiler-error, since a
// correctly checked program never produces one.
package translate

import (
	"fmt"
	"math"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/frame"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

// LabelGen mints fresh code and data labels, unique within one translation
// unit (spec §4.9's `newLabel()`/`newDataLabel()`).
type LabelGen struct {
	codeCount int
	dataCount int
}

func NewLabelGen() *LabelGen { return &LabelGen{} }

func (g *LabelGen) NewLabel() string {
	g.codeCount++
	return fmt.Sprintf(".L%d", g.codeCount)
}

func (g *LabelGen) NewDataLabel() string {
	g.dataCount++
	return fmt.Sprintf(".LC%d", g.dataCount)
}

var _ frame.LabelGenerator = (*LabelGen)(nil)

// GlobalAccessCtor builds the Access for a module-level variable from its
// already-mangled label and size; supplied by the target package (e.g.
// sysv.NewGlobalAccess) so this package stays target-independent.
type GlobalAccessCtor func(label string, size int) frame.Access

// Translator lowers one File at a time; it is stateless across files besides
// the label generator, which spec §4.9 scopes to a translation unit.
type Translator struct {
	cfg       *config.Config
	frameCtor frame.FrameCtor
	newGlobal GlobalAccessCtor
	labels    *LabelGen
	file      string
	module    string
}

func New(cfg *config.Config, frameCtor frame.FrameCtor, newGlobal GlobalAccessCtor) *Translator {
	return &Translator{cfg: cfg, frameCtor: frameCtor, newGlobal: newGlobal, labels: NewLabelGen()}
}

// TranslateFile lowers every declaration/function definition of f into a
// FragmentVector; declarative-only forms (struct/union/enum/typedef,
// forward declarations) contribute nothing (spec §4.9).
func (tr *Translator) TranslateFile(f *ast.File) *ir.FragmentVector {
	tr.file = f.Path
	tr.module = f.Module.Name
	fv := &ir.FragmentVector{}
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.VarDefnStmt:
			tr.translateGlobal(fv, n)
		case *ast.Function:
			tr.translateFunction(fv, n)
		case *ast.FunDecl, *ast.StructDecl, *ast.UnionDecl, *ast.EnumDecl,
			*ast.TypedefDecl, *ast.OpaqueDecl:
			// Declaration-only forms produce no IR (spec §4.9).
		default:
			tr.internal(0, "unhandled top-level declaration %T", d)
		}
	}
	return fv
}

func (tr *Translator) internal(line int, format string, args ...interface{}) {
	diag.Internal(tr.file, line, format, args...)
}

// translateGlobal lowers one module-level variable definition to a BSS,
// RODATA, or DATA fragment (spec §4.9 "Globals").
func (tr *Translator) translateGlobal(fv *ir.FragmentVector, n *ast.VarDefnStmt) {
	label := mangleVar(tr.module, n.Name)
	size := types.Size(n.Type, tr.cfg)
	align := types.Align(n.Type, tr.cfg)

	if n.Init == nil || isZeroInit(n.Init) {
		fv.Add(&ir.BSSFragment{Name: label, Size: size, Align: align})
		return
	}

	data := tr.constantToData(fv, n.Type, n.Init)
	_, isConst, _ := ast.StripQualifiers(n.Type)
	if isConst {
		fv.Add(&ir.RODATAFragment{Name: label, Align: align, Data: data})
	} else {
		fv.Add(&ir.DataFragment{Name: label, Align: align, Data: data})
	}
}

// isZeroInit recognizes the common all-zero initializer shapes without a
// general constant evaluator: a bare 0/0.0 literal, or an AggregateInit
// whose every element is itself zero.
func isZeroInit(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Const:
		switch v.Kind {
		case ast.ConstInt, ast.ConstChar, ast.ConstWChar, ast.ConstBool:
			return v.I == 0
		case ast.ConstFloat:
			return v.F == 0
		case ast.ConstNull:
			return true
		}
		return false
	case *ast.AggregateInit:
		for _, elem := range v.Elems {
			if !isZeroInit(elem) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// constantToData lowers a compile-time-constant initializer into one
// CONST entry per primitive leaf (spec §4.9). String/wstring leaves used as
// pointer-typed initializers intern a private RODATA fragment and
// contribute a CONST(pointerWidth, Name(...)) instead of inline bytes; a
// string/wstring leaf used directly against a char/ubyte/wchar array shape
// (spec §8 Scenario 2) instead contributes its raw bytes straight into this
// fragment's own Data, with no separate fragment or Name indirection.
func (tr *Translator) constantToData(fv *ir.FragmentVector, t ast.Type, e ast.Expr) []ir.Entry {
	shape := types.Resolve(t)

	if agg, ok := shape.(*ast.Aggregate); ok {
		init, ok := e.(*ast.AggregateInit)
		if !ok {
			tr.internal(0, "non-aggregate initializer for struct type in constantToData")
		}
		var out []ir.Entry
		for i, field := range agg.Fields {
			if i >= len(init.Elems) {
				out = append(out, tr.zeroData(field.Type)...)
				continue
			}
			out = append(out, tr.constantToData(fv, field.Type, init.Elems[i])...)
		}
		return out
	}
	if union, ok := shape.(*ast.UnionType); ok {
		init, ok := e.(*ast.AggregateInit)
		if !ok || len(init.Elems) == 0 {
			return tr.zeroData(t)
		}
		return tr.constantToData(fv, union.Fields[0].Type, init.Elems[0])
	}
	if arr, ok := shape.(*ast.Array); ok {
		if sc, ok := stringConstLeaf(e); ok {
			if sc.Kind == ast.ConstString && isCharArrayElem(arr.Elem) {
				return tr.stringArrayData(sc.S, arr.Length)
			}
			if sc.Kind == ast.ConstWString && isWcharArrayElem(arr.Elem) {
				return tr.wstringArrayData(sc.S, arr.Length, tr.cfg.WCharWidth)
			}
		}
		init, ok := e.(*ast.AggregateInit)
		if !ok {
			tr.internal(0, "non-aggregate initializer for array type in constantToData")
		}
		var out []ir.Entry
		for i := int64(0); i < arr.Length; i++ {
			if int(i) < len(init.Elems) {
				out = append(out, tr.constantToData(fv, arr.Elem, init.Elems[int(i)])...)
			} else {
				out = append(out, tr.zeroData(arr.Elem)...)
			}
		}
		return out
	}

	return tr.constantLeaf(fv, t, e)
}

// constantLeaf lowers one primitive/pointer-sized initializer expression to
// a single CONST entry.
func (tr *Translator) constantLeaf(fv *ir.FragmentVector, t ast.Type, e ast.Expr) []ir.Entry {
	size := types.Size(t, tr.cfg)
	c, neg := unwrapConst(e)

	switch c.Kind {
	case ast.ConstInt, ast.ConstChar, ast.ConstWChar, ast.ConstBool:
		v := c.I
		if neg {
			v = -v
		}
		return []ir.Entry{{Op: ir.OpConst, Size: size, Arg1: ir.Const{Bits: uint64(v)}}}
	case ast.ConstFloat:
		f := c.F
		if neg {
			f = -f
		}
		return []ir.Entry{{Op: ir.OpConst, Size: size, Arg1: ir.Const{Bits: floatBits(f, size)}}}
	case ast.ConstNull:
		return []ir.Entry{{Op: ir.OpConst, Size: size, Arg1: ir.Const{Bits: 0}}}
	case ast.ConstString:
		label := tr.internString(fv, []byte(c.S))
		return []ir.Entry{{Op: ir.OpConst, Size: tr.cfg.PointerWidth, Arg1: ir.Name{Label: label}}}
	case ast.ConstWString:
		label := tr.internWString(fv, []rune(c.S))
		return []ir.Entry{{Op: ir.OpConst, Size: tr.cfg.PointerWidth, Arg1: ir.Name{Label: label}}}
	default:
		tr.internal(0, "non-constant expression %T in global initializer", e)
		return nil
	}
}

// unwrapConst peels a leading unary +/- off a Const leaf, since the parser
// never folds signed numeric literals itself.
func unwrapConst(e ast.Expr) (*ast.Const, bool) {
	switch v := e.(type) {
	case *ast.Const:
		return v, false
	case *ast.UnOp:
		if v.Op == ast.OpPos {
			c, neg := unwrapConst(v.Operand)
			return c, neg
		}
		if v.Op == ast.OpNeg {
			c, neg := unwrapConst(v.Operand)
			return c, !neg
		}
	}
	diag.Internal("<translate>", 0, "expected a constant leaf, found %T", e)
	return nil, false
}

func floatBits(f float64, size int) uint64 {
	if size == 4 {
		return uint64(math.Float32bits(float32(f)))
	}
	return math.Float64bits(f)
}

func (tr *Translator) zeroData(t ast.Type) []ir.Entry {
	shape := types.Resolve(t)
	switch v := shape.(type) {
	case *ast.Aggregate:
		var out []ir.Entry
		for _, f := range v.Fields {
			out = append(out, tr.zeroData(f.Type)...)
		}
		return out
	case *ast.Array:
		var out []ir.Entry
		for i := int64(0); i < v.Length; i++ {
			out = append(out, tr.zeroData(v.Elem)...)
		}
		return out
	case *ast.UnionType:
		if len(v.Fields) == 0 {
			return nil
		}
		return tr.zeroData(v.Fields[0].Type)
	default:
		return []ir.Entry{{Op: ir.OpConst, Size: types.Size(t, tr.cfg), Arg1: ir.Const{Bits: 0}}}
	}
}

// stringConstLeaf unwraps e to a string/wstring Const leaf, if it is one.
// Array initializers never carry the unary +/- unwrapConst peels, since
// string literals aren't arithmetic, so a plain type assertion suffices.
func stringConstLeaf(e ast.Expr) (*ast.Const, bool) {
	c, ok := e.(*ast.Const)
	if !ok || (c.Kind != ast.ConstString && c.Kind != ast.ConstWString) {
		return nil, false
	}
	return c, true
}

func isCharArrayElem(elem ast.Type) bool {
	kw, ok := types.Resolve(elem).(*ast.Keyword)
	return ok && (kw.Kind == ast.PChar || kw.Kind == ast.PUbyte || kw.Kind == ast.PByte)
}

func isWcharArrayElem(elem ast.Type) bool {
	kw, ok := types.Resolve(elem).(*ast.Keyword)
	return ok && kw.Kind == ast.PWchar
}

// stringArrayData emits the bytes of s, NUL-terminated, directly into the
// enclosing fragment's own Data (spec §8 Scenario 2). If the array is wider
// than the string plus its terminator, the remainder is zero-filled.
func (tr *Translator) stringArrayData(s string, length int64) []ir.Entry {
	data := []byte(s)
	out := []ir.Entry{{Op: ir.OpConst, Arg1: ir.StringData{Data: data}}}
	for extra := int64(len(data)) + 1; extra < length; extra++ {
		out = append(out, ir.Entry{Op: ir.OpConst, Size: 1, Arg1: ir.Const{Bits: 0}})
	}
	return out
}

func (tr *Translator) wstringArrayData(s string, length int64, wcharWidth int) []ir.Entry {
	runes := []rune(s)
	out := []ir.Entry{{Op: ir.OpConst, Arg1: ir.WStringData{Data: runes}}}
	for extra := int64(len(runes)) + 1; extra < length; extra++ {
		out = append(out, ir.Entry{Op: ir.OpConst, Size: wcharWidth, Arg1: ir.Const{Bits: 0}})
	}
	return out
}

// internString/internWString add a private RODATA fragment holding the raw
// bytes/runes of a string literal and return its label.
func (tr *Translator) internString(fv *ir.FragmentVector, data []byte) string {
	label := tr.labels.NewDataLabel()
	fv.Add(&ir.RODATAFragment{Name: label, Align: 1,
		Data: []ir.Entry{{Op: ir.OpConst, Arg1: ir.StringData{Data: data}}}})
	return label
}

func (tr *Translator) internWString(fv *ir.FragmentVector, data []rune) string {
	label := tr.labels.NewDataLabel()
	fv.Add(&ir.RODATAFragment{Name: label, Align: tr.cfg.WCharWidth,
		Data: []ir.Entry{{Op: ir.OpConst, Arg1: ir.WStringData{Data: data}}}})
	return label
}
