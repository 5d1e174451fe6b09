package sysv

import (
	"testing"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/ir"
)

func testConfig() *config.Config {
	c := config.NewConfig()
	c.SetTarget("linux", "amd64", "amd64_sysv")
	return c
}

func intType() ast.Type   { return &ast.Keyword{Kind: ast.PInt} }
func longType() ast.Type  { return &ast.Keyword{Kind: ast.PLong} }
func floatType() ast.Type { return &ast.Keyword{Kind: ast.PFloat} }
func voidType() ast.Type  { return &ast.Keyword{Kind: ast.PVoid} }

func TestAllocArgUsesIntegerRegistersFirst(t *testing.T) {
	f := New("f", testConfig())
	for i := 0; i < 6; i++ {
		if _, ok := f.AllocArg(intType(), false).(*StackAccess); !ok {
			t.Fatalf("arg %d: expected a spilled StackAccess, got a different Access type", i)
		}
	}
	if f.intArgsUsed != 6 {
		t.Fatalf("intArgsUsed = %d, want 6", f.intArgsUsed)
	}

	// The 7th integer argument overflows the register file onto the stack.
	seventh := f.AllocArg(intType(), false)
	sa, ok := seventh.(*StackAccess)
	if !ok {
		t.Fatalf("7th int arg: expected *StackAccess, got %T", seventh)
	}
	if sa.Offset != 16 {
		t.Fatalf("7th int arg stack offset = %d, want 16 (first slot above the return address)", sa.Offset)
	}
}

func TestAllocArgClassifiesFloatsIntoSSE(t *testing.T) {
	f := New("f", testConfig())
	// A float argument must not consume an integer register.
	f.AllocArg(floatType(), false)
	if f.sseArgsUsed != 1 || f.intArgsUsed != 0 {
		t.Fatalf("sseArgsUsed=%d intArgsUsed=%d, want 1,0", f.sseArgsUsed, f.intArgsUsed)
	}
}

func TestAllocRetValClassification(t *testing.T) {
	f := New("f", testConfig())
	if got := f.AllocRetVal(voidType()); got != nil {
		t.Fatalf("void return: expected nil Access, got %v", got)
	}

	f = New("f", testConfig())
	ra, ok := f.AllocRetVal(intType()).(*RegAccess)
	if !ok {
		t.Fatalf("int return: expected *RegAccess, got %T", f.AllocRetVal(intType()))
	}
	if ra.Reg.N != RAX {
		t.Fatalf("int return register = %d, want RAX", ra.Reg.N)
	}

	f = New("f", testConfig())
	ra, ok = f.AllocRetVal(floatType()).(*RegAccess)
	if !ok {
		t.Fatalf("float return: expected *RegAccess, got %T", f.AllocRetVal(floatType()))
	}
	if ra.Reg.N != XMM0 {
		t.Fatalf("float return register = %d, want XMM0", ra.Reg.N)
	}
}

func TestAllocLocalGrowsDownwardAndDistinctly(t *testing.T) {
	f := New("f", testConfig())
	a := f.AllocLocal(longType(), false).(*StackAccess)
	b := f.AllocLocal(intType(), false).(*StackAccess)
	if a.Offset >= 0 || b.Offset >= 0 {
		t.Fatalf("local offsets must be negative, got %d and %d", a.Offset, b.Offset)
	}
	if a.Offset == b.Offset {
		t.Fatalf("two locals were assigned the same offset: %d", a.Offset)
	}
}

func TestGenerateEntryExitOmitsUnusedCalleeSaves(t *testing.T) {
	f := New("f", testConfig())
	f.AllocLocal(intType(), false)
	body := f.GenerateEntryExit(nil)

	for _, e := range body {
		if e.Op != ir.OpAsm {
			continue
		}
		if a, ok := e.Arg1.(ir.Asm); ok && (a.Text == "push rbx" || a.Text == "push r12") {
			t.Fatalf("unused callee-save register was spilled: %q", a.Text)
		}
	}

	last := body[len(body)-1]
	if last.Op != ir.OpReturn {
		t.Fatalf("last entry op = %v, want OpReturn", last.Op)
	}
}

func TestGenerateEntryExitSavesMarkedCalleeSaves(t *testing.T) {
	f := New("f", testConfig())
	f.MarkCalleeSavedUsed(RBX)
	body := f.GenerateEntryExit(nil)

	sawPush, sawPop := false, false
	for _, e := range body {
		a, ok := e.Arg1.(ir.Asm)
		if !ok {
			continue
		}
		if a.Text == "push rbx" {
			sawPush = true
		}
		if a.Text == "pop rbx" {
			sawPop = true
		}
	}
	if !sawPush || !sawPop {
		t.Fatalf("expected rbx to be pushed and popped, sawPush=%v sawPop=%v", sawPush, sawPop)
	}
}

func TestGlobalAccessRoundTrip(t *testing.T) {
	ga := &GlobalAccess{Name: "counter", Size: 4}
	if label, ok := ga.Label(); !ok || label != "counter" {
		t.Fatalf("Label() = (%q, %v), want (\"counter\", true)", label, ok)
	}

	ta := ir.NewTempAllocator()
	var out []ir.Entry
	op := ga.Load(&out, ta)
	if len(out) != 1 || out[0].Op != ir.OpMemLoad {
		t.Fatalf("Load did not append a single OpMemLoad entry: %v", out)
	}
	if _, ok := op.(ir.Temp); !ok {
		t.Fatalf("Load returned %T, want ir.Temp", op)
	}

	out = nil
	ga.Store(&out, ir.Const{Bits: 1}, ta)
	if len(out) != 1 || out[0].Op != ir.OpMemStore {
		t.Fatalf("Store did not append a single OpMemStore entry: %v", out)
	}
}

func TestStackAccessNotALabel(t *testing.T) {
	sa := &StackAccess{Offset: -8, Size: 8}
	if label, ok := sa.Label(); ok || label != "" {
		t.Fatalf("StackAccess.Label() = (%q, %v), want (\"\", false)", label, ok)
	}
}
