package typecheck

import (
	"testing"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/lexer"
	"github.com/tlc-lang/tlc/pkg/parser"
	"github.com/tlc-lang/tlc/pkg/symtab"
)

func checkSrc(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	tbl := symtab.NewTable("m")
	env := symtab.NewEnvironment(tbl)
	l := lexer.New([]rune(src), "test.src", 0, env, bag)
	f := parser.New(l, env, bag, "test.src", true).Parse()
	if bag.Errored() {
		t.Fatalf("parse errors: %v", bag.Diagnostics())
	}
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "amd64", "amd64_sysv")
	c := New(env, bag, cfg, "test.src")
	c.CollectGlobals(f)
	c.Check(f)
	return f, bag
}

func TestOverloadResolutionPicksExactMatch(t *testing.T) {
	src := `module m;
int pick(int x) { return 1; }
int pick(double x) { return 2; }
int f() {
	return pick(1);
}
`
	f, bag := checkSrc(t, src)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[2].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	call := ret.Value.(*ast.FnCall)
	if call.Overload != 0 {
		t.Errorf("expected overload 0 (int) chosen for pick(1), got %d", call.Overload)
	}
}

func TestOverloadResolutionAmbiguous(t *testing.T) {
	src := `module m;
int pick(long x) { return 1; }
int pick(double x) { return 2; }
int f() {
	return pick(1);
}
`
	_, bag := checkSrc(t, src)
	if !bag.Errored() {
		t.Fatalf("expected an ambiguity error, got none")
	}
}

func TestOverloadResolutionPicksHighestExactCount(t *testing.T) {
	src := `module m;
int f(int a, int b, long c) { return 1; }
int f(long a, int b, long c) { return 2; }
int g() {
	return f(1, 1, 1);
}
`
	f, bag := checkSrc(t, src)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[2].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	call := ret.Value.(*ast.FnCall)
	if call.Overload != 0 {
		t.Errorf("expected overload 0 (2 exact matches) chosen over overload 1 (1 exact match), got %d", call.Overload)
	}
}

func TestSizeofIncompleteStructErrors(t *testing.T) {
	src := `module m;
struct Opaque;
ulong f() {
	return sizeof(Opaque);
}
`
	_, bag := checkSrc(t, src)
	if !bag.Errored() {
		t.Fatalf("expected an incomplete-type error for sizeof(Opaque)")
	}
}

func TestSizeofCompleteStructSucceeds(t *testing.T) {
	src := `module m;
struct Point { int x; int y; }
ulong f() {
	return sizeof(Point);
}
`
	_, bag := checkSrc(t, src)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
}

func TestStringLiteralInitializesCharArray(t *testing.T) {
	src := `module m;
ubyte[6] const greeting = "hello";
`
	f, bag := checkSrc(t, src)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	defn := f.Decls[0].(*ast.VarDefnStmt)
	arr, ok := defn.Init.Type().(*ast.Array)
	if !ok {
		t.Fatalf("expected the initializer to be typed as an array, got %#v", defn.Init.Type())
	}
	if arr.Length != 6 {
		t.Errorf("expected array length 6, got %d", arr.Length)
	}
}

func TestAssignToNonLvalue(t *testing.T) {
	src := `module m;
int f() {
	1 + 1 = 2;
	return 0;
}
`
	_, bag := checkSrc(t, src)
	if !bag.Errored() {
		t.Fatalf("expected an lvalue error, got none")
	}
}

func TestTernaryReconcilesBranchTypes(t *testing.T) {
	src := `module m;
double f() {
	int cond = 1;
	return cond ? 1 : 2.5;
}
`
	f, bag := checkSrc(t, src)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
	fn := f.Decls[0].(*ast.Function)
	ret := fn.Body.Stmts[1].(*ast.ReturnStmt)
	tern := ret.Value.(*ast.Ternary)
	kw, ok := tern.Type().(*ast.Keyword)
	if !ok || kw.Kind != ast.PDouble {
		t.Errorf("expected ternary to reconcile to double, got %#v", tern.Type())
	}
}

func TestForLoopVariableScoped(t *testing.T) {
	src := `module m;
int f() {
	for (int i = 0; i < 10; i++) {
	}
	return i;
}
`
	_, bag := checkSrc(t, src)
	if !bag.Errored() {
		t.Fatalf("expected an undefined-identifier error for 'i' outside its for-loop scope")
	}
}

func TestReturnTypeMismatch(t *testing.T) {
	src := `module m;
struct Point { int x; int y; }
int f() {
	Point p;
	return p;
}
`
	_, bag := checkSrc(t, src)
	if !bag.Errored() {
		t.Fatalf("expected a return-type mismatch error")
	}
}

func TestStructAccessAndAggregateInit(t *testing.T) {
	src := `module m;
struct Point { int x; int y; }
int f() {
	Point p = <1, 2>;
	return p.x + p.y;
}
`
	_, bag := checkSrc(t, src)
	if bag.Errored() {
		t.Fatalf("unexpected errors: %v", bag.Diagnostics())
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	src := `module m;
int f() {
	break;
	return 0;
}
`
	_, bag := checkSrc(t, src)
	if !bag.Errored() {
		t.Fatalf("expected a break-outside-loop error")
	}
}
