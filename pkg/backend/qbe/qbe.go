// Package qbe lowers a translated file's Fragments (pkg/ir) into QBE's
// textual intermediate language and hands that text to modernc.org/libqbe
// to produce real target assembly, the same two-step arrangement the
// teacher's pkg/codegen uses for its own SSA-form IR. This package's IR is
// not itself in SSA form (pkg/translate's Temps and StackOffsets can be
// written from more than one predecessor, e.g. a ternary's two arms), so
// every Temp/Reg/StackOffset is lowered to its own stack slot rather than
// a QBE SSA name directly: every def becomes a store, every use a fresh
// load. This is the textbook "every virtual register is a stack cell"
// baseline a real compiler only abandons once it adds mem2reg-style
// optimization, which is out of scope here (spec §4.9 Non-goals).
package qbe

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/ir"
	"modernc.org/libqbe"
)

// Backend lowers one file's FragmentVector at a time; it carries no state
// across files, mirroring pkg/translate.Translator.
type Backend struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Backend { return &Backend{cfg: cfg} }

// Generate renders fv to QBE IR text and runs it through libqbe to produce
// assembly for cfg.QbeTarget. The QBE IR text is included in any libqbe
// error, since a malformed program here is this package's bug, not the
// caller's, and wants to be visible for debugging (mirrors the teacher's
// own wrapped error message).
func (b *Backend) Generate(fv *ir.FragmentVector) ([]byte, error) {
	var out strings.Builder
	for _, f := range fv.Fragments {
		switch frag := f.(type) {
		case *ir.BSSFragment:
			b.genBSS(&out, frag)
		case *ir.RODATAFragment:
			b.genData(&out, frag.Name, frag.Align, frag.Data, "section \".rodata\"")
		case *ir.DataFragment:
			b.genData(&out, frag.Name, frag.Align, frag.Data, "")
		case *ir.TextFragment:
			b.genFunction(&out, frag)
		}
	}

	qbeIR := out.String()
	var asm bytes.Buffer
	if err := libqbe.Main(b.cfg.QbeTarget, "input.ssa", strings.NewReader(qbeIR), &asm, nil); err != nil {
		return nil, fmt.Errorf("qbe backend: %w\n--- generated QBE IR ---\n%s", err, qbeIR)
	}
	return asm.Bytes(), nil
}

func (b *Backend) genBSS(out *strings.Builder, f *ir.BSSFragment) {
	align := f.Align
	if align < 1 {
		align = 1
	}
	fmt.Fprintf(out, "export data $%s = align %d { z %d }\n", f.Name, align, f.Size)
}

// genData renders a RODATA/DATA fragment's leaf CONST entries as one QBE
// data item apiece. comment is unused by QBE itself (data sections have no
// segment annotation in QBE's model; RODATA/DATA both become `data`, the
// distinction mattering only to a real assembler downstream) and is kept as
// a parameter purely so callers read clearly at the call site.
func (b *Backend) genData(out *strings.Builder, name string, align int, entries []ir.Entry, _ string) {
	if align < 1 {
		align = 1
	}
	fmt.Fprintf(out, "export data $%s = align %d { ", name, align)
	for i, e := range entries {
		if i > 0 {
			out.WriteString(", ")
		}
		switch v := e.Arg1.(type) {
		case ir.Const:
			size := e.Size
			if size == 0 {
				size = 8
			}
			out.WriteString(dataTag(size))
			out.WriteByte(' ')
			fmt.Fprintf(out, "%d", v.Bits)
		case ir.Name:
			out.WriteString("l $")
			out.WriteString(v.Label)
		case ir.StringData:
			out.WriteString("b ")
			out.WriteString(strconv.Quote(string(v.Data)))
			out.WriteString(", b 0")
		case ir.WStringData:
			for j, r := range v.Data {
				if j > 0 {
					out.WriteString(", ")
				}
				fmt.Fprintf(out, "w %d", uint32(r))
			}
			out.WriteString(", w 0")
		}
	}
	out.WriteString(" }\n")
}

func dataTag(size int) string {
	switch {
	case size == 1:
		return "b"
	case size == 2:
		return "h"
	case size <= 4:
		return "w"
	default:
		return "l"
	}
}
