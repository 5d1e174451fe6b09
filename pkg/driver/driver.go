// Package driver implements the per-file compilation pipeline that spec.md
// names as an external collaborator of the core (classify by extension,
// tokenize, parse, resolve imports across the given file list, type-check,
// translate, and assemble): it is the glue that makes the lexer/parser/
// typecheck/translate/backend packages into a runnable compiler, grounded
// on the teacher's own `cmd/gbc/main.go` pipeline shape (`readAndTokenizeFiles`
// -> `parser.Parse` -> type-check -> `codegen.GenerateIR` -> backend).
package driver

import (
	"fmt"
	"os"
	"strings"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/backend/qbe"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/frame"
	"github.com/tlc-lang/tlc/pkg/frame/sysv"
	"github.com/tlc-lang/tlc/pkg/lexer"
	"github.com/tlc-lang/tlc/pkg/parser"
	"github.com/tlc-lang/tlc/pkg/symtab"
	"github.com/tlc-lang/tlc/pkg/translate"
	"github.com/tlc-lang/tlc/pkg/typecheck"
)

// unit is one source file as it moves through the pipeline.
type unit struct {
	path      string
	lines     []string
	isCode    bool
	fileIndex int
	table     *symtab.Table
	env       *symtab.Environment
	file      *ast.File
}

// Pipeline runs the full per-file pipeline over a file list and reports
// through bag; it holds no state across Compile calls.
type Pipeline struct {
	cfg *config.Config
	bag *diag.Bag
}

func New(cfg *config.Config, bag *diag.Bag) *Pipeline {
	return &Pipeline{cfg: cfg, bag: bag}
}

// sourceLines answers diag.SourceLoader queries from the units this run
// already has in memory, so the caret-pointing printer needs no second
// disk read.
type sourceLines struct{ units map[string]*unit }

func (s *sourceLines) Line(file string, line int) (string, bool) {
	u, ok := s.units[file]
	if !ok || line < 1 || line > len(u.lines) {
		return "", false
	}
	return u.lines[line-1], true
}

// isCodeFile classifies by extension (spec §6): ".th" is a declaration
// module, ".t" is a code module. Anything else is rejected up front rather
// than silently guessed at.
func isCodeFile(path string) (bool, error) {
	switch {
	case strings.HasSuffix(path, ".th"):
		return false, nil
	case strings.HasSuffix(path, ".t"):
		return true, nil
	default:
		return false, fmt.Errorf("%s: unrecognized extension (expected .t or .th)", path)
	}
}

// asmFileName derives a code file's assembly output name by replacing its
// two-character code extension with "s" (original_source/translate.c:
// `assemblyFilename[len-2] = 's'; assemblyFilename[len-1] = '\0'`).
func asmFileName(path string) string {
	if len(path) < 2 {
		return path + "s"
	}
	return path[:len(path)-2] + "s"
}

// Compile runs every phase of the pipeline over paths and, for each code
// module, writes its generated assembly next to the source file. It
// returns early (without translating) once any file has recorded an
// error, mirroring spec §6's "non-zero [exit] when any file's errored flag
// was set" by simply never reaching code generation for a broken run.
func (p *Pipeline) Compile(paths []string) error {
	units := make([]*unit, 0, len(paths))
	byPath := make(map[string]*unit, len(paths))
	for i, path := range paths {
		u, err := p.load(path, i)
		if err != nil {
			return err
		}
		units = append(units, u)
		byPath[path] = u
	}
	p.bag.Source = &sourceLines{units: byPath}

	for _, u := range units {
		p.parseUnit(u)
	}

	modules := make(map[string]*symtab.Table, len(units))
	for _, u := range units {
		if u.file.Module == nil {
			continue
		}
		name := u.file.Module.Name
		u.table.Module = name
		u.env.Module = name
		modules[name] = u.table
	}

	for _, u := range units {
		for _, imp := range u.file.Imports {
			tbl, ok := modules[imp.Module]
			if !ok {
				p.bag.Errorf(u.path, imp.Line, imp.Column, 1, "unknown module '%s'", imp.Module)
				continue
			}
			u.env.AddImport(tbl)
		}
	}

	for _, u := range units {
		typecheck.New(u.env, p.bag, p.cfg, u.path).CollectGlobals(u.file)
	}
	for _, u := range units {
		typecheck.New(u.env, p.bag, p.cfg, u.path).Check(u.file)
	}

	if p.bag.Errored() {
		return nil
	}

	backend := qbe.New(p.cfg)
	for _, u := range units {
		if !u.isCode {
			continue
		}
		tr := translate.New(p.cfg, frameCtor(p.cfg), globalAccessCtor)
		fv := tr.TranslateFile(u.file)
		asm, err := backend.Generate(fv)
		if err != nil {
			return fmt.Errorf("%s: %w", u.path, err)
		}
		if err := os.WriteFile(asmFileName(u.path), asm, 0o644); err != nil {
			return fmt.Errorf("%s: %w", u.path, err)
		}
	}
	return nil
}

func frameCtor(cfg *config.Config) frame.FrameCtor {
	return func(name string) frame.Frame { return sysv.New(name, cfg) }
}

func globalAccessCtor(label string, size int) frame.Access {
	return sysv.NewGlobalAccess(label, size)
}

func (p *Pipeline) load(path string, index int) (*unit, error) {
	isCode, err := isCodeFile(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", path, err)
	}
	text := string(content)
	lines := strings.Split(text, "\n")
	table := symtab.NewTable("")
	env := symtab.NewEnvironment(table)
	return &unit{path: path, lines: lines, isCode: isCode, fileIndex: index, table: table, env: env}, nil
}

// parseUnit lexes and parses one unit. The lexer's type classifier is the
// unit's own Environment: struct/union/enum/typedef declarations register
// themselves into it as the parser walks past them (spec §4.4's
// parser<->classifier feedback loop), so no separate pre-scan is needed.
func (p *Pipeline) parseUnit(u *unit) {
	src := []rune(strings.Join(u.lines, "\n"))
	lex := lexer.New(src, u.path, u.fileIndex, u.env, p.bag)
	pr := parser.New(lex, u.env, p.bag, u.path, u.isCode)
	u.file = pr.Parse()
}
