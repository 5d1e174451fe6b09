package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
)

func newPipeline(t *testing.T) (*Pipeline, *diag.Bag) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "amd64", "amd64_sysv")
	bag := diag.NewBag()
	return New(cfg, bag), bag
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

func TestCompileSingleFileWritesAssembly(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "main.t", `module m;
int add(int a, int b) { return a + b; }
`)
	p, bag := newPipeline(t)
	if err := p.Compile([]string{src}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bag.Errored() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
	asmPath := asmFileName(src)
	if _, err := os.Stat(asmPath); err != nil {
		t.Fatalf("expected assembly output at %s: %v", asmPath, err)
	}
}

func TestCompileUnknownImportErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "main.t", `module m;
using other;
int f() { return 0; }
`)
	p, bag := newPipeline(t)
	if err := p.Compile([]string{src}); err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if !bag.Errored() {
		t.Fatalf("expected an unknown-module diagnostic")
	}
}

func TestCompileDeclarationModuleProducesNoAssembly(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "decls.th", `module decls;
int f();
`)
	p, bag := newPipeline(t)
	if err := p.Compile([]string{src}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bag.Errored() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
	if _, err := os.Stat(asmFileName(src)); err == nil {
		t.Fatalf("declaration module should not produce an assembly file")
	}
}

func TestCompileCrossFileImportResolves(t *testing.T) {
	dir := t.TempDir()
	decl := writeFile(t, dir, "geo.th", `module geo;
int area(int w, int h);
`)
	code := writeFile(t, dir, "main.t", `module m;
using geo;
int f() { return geo::area(2, 3); }
`)
	p, bag := newPipeline(t)
	if err := p.Compile([]string{decl, code}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bag.Errored() {
		t.Fatalf("unexpected diagnostics: %v", bag.Diagnostics())
	}
}

func TestIsCodeFileRejectsUnknownExtension(t *testing.T) {
	if _, err := isCodeFile("main.b"); err == nil {
		t.Fatalf("expected an error for an unrecognized extension")
	}
}

func TestAsmFileNameDropsLastTwoChars(t *testing.T) {
	if got := asmFileName("foo.t"); got != "foos" {
		t.Errorf("asmFileName(%q) = %q, want %q", "foo.t", got, "foos")
	}
	if got := asmFileName("foo.th"); got != "foo.s" {
		t.Errorf("asmFileName(%q) = %q, want %q", "foo.th", got, "foo.s")
	}
}
