package lexer

import (
	"testing"

	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/token"
)

type stubClassifier map[string]bool

func (s stubClassifier) IsType(name string) bool { return s[name] }

func lexAll(t *testing.T, src string, cls TypeClassifier) []token.Token {
	t.Helper()
	bag := diag.NewBag()
	l := New([]rune(src), "test.src", 0, cls, bag)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if bag.Errored() {
		t.Fatalf("unexpected lex errors: %v", bag.Diagnostics())
	}
	return toks
}

func TestKeywordsAndPunctuation(t *testing.T) {
	toks := lexAll(t, "module a; using b; struct S { int x; }", nil)
	want := []token.Kind{token.Module, token.Ident, token.Semi, token.Using, token.Ident,
		token.Semi, token.Struct, token.Ident, token.LBrace, token.KwInt, token.Ident,
		token.Semi, token.RBrace, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, token.KindString(toks[i].Kind), token.KindString(k))
		}
	}
}

func TestOperators(t *testing.T) {
	toks := lexAll(t, "<=> >>> <<= &&= ::", nil)
	want := []token.Kind{token.Spaceship, token.AShr, token.ShlAssign, token.LAndAssign, token.ColonColon, token.EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, token.KindString(toks[i].Kind), token.KindString(k))
		}
	}
}

func TestTypeReclassification(t *testing.T) {
	cls := stubClassifier{"Point": true}
	toks := lexAll(t, "Point p; other q;", cls)
	if toks[0].Kind != token.TypeID {
		t.Errorf("expected Point to lex as TypeID, got %s", token.KindString(toks[0].Kind))
	}
	if toks[3].Kind != token.Ident {
		t.Errorf("expected other to lex as Ident, got %s", token.KindString(toks[3].Kind))
	}
}

func TestUnlexIsIdentity(t *testing.T) {
	bag := diag.NewBag()
	l := New([]rune("a b"), "test.src", 0, nil, bag)
	first := l.Next()
	l.Unlex(first)
	again := l.Next()
	if again != first {
		t.Errorf("unlex(lex()) != identity: got %+v, want %+v", again, first)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := lexAll(t, `"hello\n\x41"`, nil)
	if toks[0].Kind != token.StringLit {
		t.Fatalf("expected string literal, got %s", token.KindString(toks[0].Kind))
	}
	if toks[0].Payload != "hello\nA" {
		t.Errorf("got payload %q, want %q", toks[0].Payload, "hello\nA")
	}
}

func TestNumberLiterals(t *testing.T) {
	toks := lexAll(t, "0x1F 0b101 017 3.14 42", nil)
	for i, want := range []string{"0x1F", "0b101", "017", "3.14", "42"} {
		if toks[i].Payload != want {
			t.Errorf("literal %d: got %q, want %q", i, toks[i].Payload, want)
		}
	}
	if toks[3].Kind != token.FloatLit {
		t.Errorf("expected float literal for 3.14, got %s", token.KindString(toks[3].Kind))
	}
}
