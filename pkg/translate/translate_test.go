package translate

import (
	"testing"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/frame"
	"github.com/tlc-lang/tlc/pkg/frame/sysv"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/lexer"
	"github.com/tlc-lang/tlc/pkg/parser"
	"github.com/tlc-lang/tlc/pkg/symtab"
	"github.com/tlc-lang/tlc/pkg/typecheck"
)

func translateSrc(t *testing.T, src string) *ir.FragmentVector {
	t.Helper()
	bag := diag.NewBag()
	tbl := symtab.NewTable("m")
	env := symtab.NewEnvironment(tbl)
	l := lexer.New([]rune(src), "test.t", 0, env, bag)
	f := parser.New(l, env, bag, "test.t", true).Parse()
	if bag.Errored() {
		t.Fatalf("parse errors: %v", bag.Diagnostics())
	}
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "amd64", "amd64_sysv")
	c := typecheck.New(env, bag, cfg, "test.t")
	c.CollectGlobals(f)
	c.Check(f)
	if bag.Errored() {
		t.Fatalf("type-check errors: %v", bag.Diagnostics())
	}
	tr := New(cfg, func(name string) frame.Frame { return sysv.New(name, cfg) }, func(label string, size int) frame.Access { return sysv.NewGlobalAccess(label, size) })
	return tr.TranslateFile(f)
}

func findText(fv *ir.FragmentVector, name string) *ir.TextFragment {
	for _, fr := range fv.Fragments {
		if tf, ok := fr.(*ir.TextFragment); ok && tf.Name == name {
			return tf
		}
	}
	return nil
}

func TestTranslateFunctionProducesTextFragment(t *testing.T) {
	fv := translateSrc(t, `module m;
int add(int a, int b) { return a + b; }
`)
	tf := findText(fv, mangleFunc("m", "add", []ast.Type{&ast.Keyword{Kind: ast.PInt}, &ast.Keyword{Kind: ast.PInt}}))
	if tf == nil {
		t.Fatalf("expected a TEXT fragment for add, fragments: %#v", fv.Fragments)
	}
	if len(tf.Params) != 2 {
		t.Errorf("expected 2 recorded params, got %d", len(tf.Params))
	}
	if len(tf.Body) == 0 {
		t.Errorf("expected a non-empty function body")
	}
}

func TestTranslateZeroInitGlobalEmitsBSS(t *testing.T) {
	fv := translateSrc(t, `module m;
int counter = 0;
`)
	found := false
	for _, fr := range fv.Fragments {
		if bss, ok := fr.(*ir.BSSFragment); ok {
			found = true
			if bss.Size != 4 {
				t.Errorf("expected a 4-byte BSS slot for an int, got %d", bss.Size)
			}
		}
	}
	if !found {
		t.Fatalf("expected a BSS fragment for a zero-initialized global, fragments: %#v", fv.Fragments)
	}
}

func TestTranslateConstGlobalEmitsRODATA(t *testing.T) {
	fv := translateSrc(t, `module m;
int const limit = 42;
`)
	for _, fr := range fv.Fragments {
		if ro, ok := fr.(*ir.RODATAFragment); ok {
			if len(ro.Data) != 1 || ro.Data[0].Op != ir.OpConst {
				t.Errorf("expected a single CONST entry, got %#v", ro.Data)
			}
			return
		}
	}
	t.Fatalf("expected a RODATA fragment for a const global, fragments: %#v", fv.Fragments)
}

func TestTranslateStringLiteralArrayInitEmitsInlineBytes(t *testing.T) {
	fv := translateSrc(t, `module m;
ubyte[6] const greeting = "hello";
`)
	for _, fr := range fv.Fragments {
		ro, ok := fr.(*ir.RODATAFragment)
		if !ok {
			continue
		}
		if len(ro.Data) != 1 {
			t.Fatalf("expected a single CONST entry, got %#v", ro.Data)
		}
		sd, ok := ro.Data[0].Arg1.(ir.StringData)
		if !ok {
			t.Fatalf("expected a StringData operand, got %#v", ro.Data[0].Arg1)
		}
		if string(sd.Data) != "hello" {
			t.Errorf("expected the raw bytes of \"hello\", got %q", sd.Data)
		}
		return
	}
	t.Fatalf("expected a RODATA fragment holding the inlined string, fragments: %#v", fv.Fragments)
}

func TestTranslateDeclarationOnlyFormsProduceNoFragments(t *testing.T) {
	fv := translateSrc(t, `module m;
struct Point { int x; int y; }
int f();
`)
	if len(fv.Fragments) != 0 {
		t.Errorf("expected no fragments for declaration-only forms, got %#v", fv.Fragments)
	}
}
