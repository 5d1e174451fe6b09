package parser

import (
	"testing"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/lexer"
	"github.com/tlc-lang/tlc/pkg/symtab"
)

func parseSrc(t *testing.T, src string, isCode bool) (*ast.File, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	tbl := symtab.NewTable("m")
	env := symtab.NewEnvironment(tbl)
	l := lexer.New([]rune(src), "test.src", 0, env, bag)
	p := New(l, env, bag, "test.src", isCode)
	return p.Parse(), bag
}

func TestMinimalModule(t *testing.T) {
	f, bag := parseSrc(t, "module m;", false)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	if f.Module.Name != "m" {
		t.Errorf("got module name %q, want m", f.Module.Name)
	}
	if len(f.Decls) != 0 {
		t.Errorf("expected no decls, got %d", len(f.Decls))
	}
}

func TestImportAndVarDecl(t *testing.T) {
	f, bag := parseSrc(t, "module m; using other; int x; int y, z;", false)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	if len(f.Imports) != 1 || f.Imports[0].Module != "other" {
		t.Fatalf("expected one import 'other', got %v", f.Imports)
	}
	if len(f.Decls) != 3 {
		t.Fatalf("expected 3 var decls, got %d: %#v", len(f.Decls), f.Decls)
	}
	for i, want := range []string{"x", "y", "z"} {
		vd, ok := f.Decls[i].(*ast.VarDecl)
		if !ok {
			t.Fatalf("decl %d: got %T, want *ast.VarDecl", i, f.Decls[i])
		}
		if vd.Name != want {
			t.Errorf("decl %d: got name %q, want %q", i, vd.Name, want)
		}
	}
}

func TestStructIncompleteThenDefined(t *testing.T) {
	src := `module m;
struct Point;
Point* makePoint();
struct Point { int x; int y; }
`
	f, bag := parseSrc(t, src, false)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	if len(f.Decls) != 3 {
		t.Fatalf("expected 3 decls, got %d: %#v", len(f.Decls), f.Decls)
	}
	if _, ok := f.Decls[0].(*ast.OpaqueDecl); !ok {
		t.Fatalf("decl 0: got %T, want *ast.OpaqueDecl", f.Decls[0])
	}
	fd, ok := f.Decls[1].(*ast.FunDecl)
	if !ok {
		t.Fatalf("decl 1: got %T, want *ast.FunDecl", f.Decls[1])
	}
	ptr, ok := fd.Return.(*ast.Pointer)
	if !ok {
		t.Fatalf("expected pointer return type, got %T", fd.Return)
	}
	ref, ok := ptr.Base.(*ast.Reference)
	if !ok || ref.Name != "Point" {
		t.Fatalf("expected Reference to Point, got %#v", ptr.Base)
	}
	sd, ok := f.Decls[2].(*ast.StructDecl)
	if !ok {
		t.Fatalf("decl 2: got %T, want *ast.StructDecl", f.Decls[2])
	}
	if len(sd.Type.Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(sd.Type.Fields))
	}
}

func TestFunctionDefinitionInCodeModule(t *testing.T) {
	src := `module m;
int add(int a, int b) {
	return a + b;
}
`
	f, bag := parseSrc(t, src, true)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	if len(f.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(f.Decls))
	}
	fn, ok := f.Decls[0].(*ast.Function)
	if !ok {
		t.Fatalf("got %T, want *ast.Function", f.Decls[0])
	}
	if len(fn.Decl.Params) != 2 || fn.Decl.Params[0].Name != "a" {
		t.Fatalf("unexpected params: %#v", fn.Decl.Params)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ReturnStmt", fn.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.BinOp)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected a+b BinOp, got %#v", ret.Value)
	}
}

func TestTernaryBindsLooserThanAssignment(t *testing.T) {
	// `a = b ? c : d` should parse as `(a = b) ? c : d` per spec §4.3's
	// precedence ordering, which places ternary below assignment.
	f, bag := parseSrc(t, "module m; int f() { return a = b ? c : d; }", true)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[0].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	tern, ok := ret.Value.(*ast.Ternary)
	if !ok {
		t.Fatalf("got %T, want *ast.Ternary", ret.Value)
	}
	assign, ok := tern.Cond.(*ast.BinOp)
	if !ok || assign.Op != ast.OpAssign {
		t.Fatalf("expected an assignment as ternary condition, got %#v", tern.Cond)
	}
}

func TestCastAndSizeof(t *testing.T) {
	src := `module m; int f() { return sizeof(int) + sizeof(cast[long](1)); }`
	f, bag := parseSrc(t, src, true)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[0].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	bin := ret.Value.(*ast.BinOp)
	if _, ok := bin.Left.(*ast.SizeofType); !ok {
		t.Errorf("left operand: got %T, want *ast.SizeofType", bin.Left)
	}
	rightSizeof, ok := bin.Right.(*ast.SizeofExp)
	if !ok {
		t.Fatalf("right operand: got %T, want *ast.SizeofExp", bin.Right)
	}
	cast, ok := rightSizeof.Operand.(*ast.Cast)
	if !ok {
		t.Fatalf("expected Cast inside sizeof, got %#v", rightSizeof.Operand)
	}
	if kw, ok := cast.Target.(*ast.Keyword); !ok || kw.Kind != ast.PLong {
		t.Errorf("expected cast target 'long', got %#v", cast.Target)
	}
}

func TestForLoopAndSubscript(t *testing.T) {
	src := `module m;
int f() {
	int total = 0;
	for (int i = 0; i < 10; i++) {
		total = total + arr[i];
	}
	return total;
}
`
	f, bag := parseSrc(t, src, true)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[0].(*ast.Function)
	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %#v", len(fn.Body.Stmts), fn.Body.Stmts)
	}
	forStmt, ok := fn.Body.Stmts[1].(*ast.ForStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ForStmt", fn.Body.Stmts[1])
	}
	if _, ok := forStmt.Init.(*ast.VarDefnStmt); !ok {
		t.Errorf("for-init: got %T, want *ast.VarDefnStmt", forStmt.Init)
	}
	inner := forStmt.Body.(*ast.CompoundStmt)
	exprStmt := inner.Stmts[0].(*ast.ExpressionStmt)
	assign := exprStmt.Expr.(*ast.BinOp)
	addExpr := assign.Right.(*ast.BinOp)
	if _, ok := addExpr.Right.(*ast.Subscript); !ok {
		t.Errorf("expected Subscript on rhs of add, got %#v", addExpr.Right)
	}
}

func TestSwitchCaseDefault(t *testing.T) {
	src := `module m;
int f() {
	switch (x) {
	case 1:
		return 1;
	case 2:
		return 2;
	default:
		return 0;
	}
}
`
	f, bag := parseSrc(t, src, true)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[0].(*ast.Function)
	sw, ok := fn.Body.Stmts[0].(*ast.SwitchStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.SwitchStmt", fn.Body.Stmts[0])
	}
	if len(sw.Body.Stmts) != 6 {
		t.Fatalf("expected 6 flattened body items, got %d", len(sw.Body.Stmts))
	}
	if _, ok := sw.Body.Stmts[0].(*ast.CaseStmt); !ok {
		t.Errorf("stmt 0: got %T, want *ast.CaseStmt", sw.Body.Stmts[0])
	}
	if _, ok := sw.Body.Stmts[4].(*ast.DefaultStmt); !ok {
		t.Errorf("stmt 4: got %T, want *ast.DefaultStmt", sw.Body.Stmts[4])
	}
}

func TestAggregateInitAndScopedId(t *testing.T) {
	src := `module m; int f() { return other::helper(<1, 2, 3>); }`
	f, bag := parseSrc(t, src, true)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[0].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.FnCall)
	if !ok {
		t.Fatalf("got %T, want *ast.FnCall", ret.Value)
	}
	id, ok := call.Callee.(*ast.Id)
	if !ok || id.Module != "other" || id.Name != "helper" {
		t.Fatalf("expected other::helper callee, got %#v", call.Callee)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Args))
	}
	agg, ok := call.Args[0].(*ast.AggregateInit)
	if !ok || len(agg.Elems) != 3 {
		t.Fatalf("expected 3-element aggregate init, got %#v", call.Args[0])
	}
}

func TestSyntaxErrorRecoversToNextDecl(t *testing.T) {
	// A malformed first declaration should not prevent the second, valid
	// one from being parsed (spec §4.3 partial-parse guarantee).
	src := `module m;
int ;
int y;
`
	f, bag := parseSrc(t, src, false)
	if !bag.Errored() {
		t.Fatalf("expected a diagnostic for the malformed declaration")
	}
	found := false
	for _, d := range f.Decls {
		if vd, ok := d.(*ast.VarDecl); ok && vd.Name == "y" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected recovery to still parse 'int y;', got decls: %#v", f.Decls)
	}
}
