package qbe

import (
	"strings"
	"testing"

	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/ir"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "amd64", "amd64_sysv")
	return New(cfg)
}

func TestGenBSSRendersAlignAndSize(t *testing.T) {
	b := newBackend(t)
	var out strings.Builder
	b.genBSS(&out, &ir.BSSFragment{Name: "counter", Size: 4, Align: 4})
	got := out.String()
	if !strings.Contains(got, "$counter") || !strings.Contains(got, "align 4") || !strings.Contains(got, "z 4") {
		t.Errorf("unexpected BSS rendering: %q", got)
	}
}

func TestGenBSSDefaultsAlignToOne(t *testing.T) {
	b := newBackend(t)
	var out strings.Builder
	b.genBSS(&out, &ir.BSSFragment{Name: "x", Size: 1, Align: 0})
	if !strings.Contains(out.String(), "align 1") {
		t.Errorf("expected an alignment of at least 1, got %q", out.String())
	}
}

func TestGenDataRendersIntConst(t *testing.T) {
	b := newBackend(t)
	var out strings.Builder
	b.genData(&out, "limit", 4, []ir.Entry{{Op: ir.OpConst, Size: 4, Arg1: ir.Const{Bits: 42}}}, "")
	got := out.String()
	if !strings.Contains(got, "$limit") || !strings.Contains(got, "w 42") {
		t.Errorf("unexpected data rendering: %q", got)
	}
}

func TestGenDataRendersStringLiteral(t *testing.T) {
	b := newBackend(t)
	var out strings.Builder
	b.genData(&out, ".LC1", 1, []ir.Entry{{Op: ir.OpConst, Arg1: ir.StringData{Data: []byte("hi")}}}, "")
	got := out.String()
	if !strings.Contains(got, `b "hi"`) || !strings.Contains(got, "b 0") {
		t.Errorf("unexpected string data rendering: %q", got)
	}
}

func TestGenDataRendersNameReference(t *testing.T) {
	b := newBackend(t)
	var out strings.Builder
	b.genData(&out, "ptr", 8, []ir.Entry{{Op: ir.OpConst, Size: 8, Arg1: ir.Name{Label: "target"}}}, "")
	if !strings.Contains(out.String(), "l $target") {
		t.Errorf("expected a pointer-sized reference to $target, got %q", out.String())
	}
}

func TestDataTagPicksWidthBySize(t *testing.T) {
	cases := map[int]string{1: "b", 2: "h", 4: "w", 8: "l"}
	for size, want := range cases {
		if got := dataTag(size); got != want {
			t.Errorf("dataTag(%d) = %q, want %q", size, got, want)
		}
	}
}
