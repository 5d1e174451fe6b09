// Package symtab implements the per-module symbol table and the lookup
// Environment used by the parser (for type-name classification) and the
// type checker (for name/overload resolution), per spec §4.4.
package symtab

import (
	"fmt"

	"github.com/tlc-lang/tlc/pkg/ast"
)

// SymbolInfo is the tagged variant stored per name (spec §3). Go's garbage
// collector already resolves the mutually-recursive-struct ownership
// problem the spec's "arena + stable indices" note is designed to avoid in
// a manually-memory-managed language, so entries here are plain pointers
// rather than arena indices; `ast.Reference.Entry` still holds one
// non-owning, uncast (`interface{}`) to avoid an import cycle between
// pkg/ast and pkg/symtab.
type SymbolInfo interface {
	symbolInfo()
}

// VarInfo describes a variable or parameter binding. Access stays nil for a
// module-level variable: the translator never allocates one, mangling
// Module+name into a label on demand instead, so nil Access at translation
// time means "this is a global"; a parameter or local gets its Access when
// the translator reaches its declaration, before any use of it.
type VarInfo struct {
	Type    ast.Type
	Module  string
	Access  interface{}
	Escapes bool
}

func (*VarInfo) symbolInfo() {}

// OverloadSetElement is one signature of an overloaded function name. Unlike
// a variable, a function needs no allocated Access: its link name is a pure
// function of Module+Name+ArgTypes, so the translator mangles it on demand
// instead of storing anything here.
type OverloadSetElement struct {
	ArgTypes   []ast.Type
	Variadic   bool
	ReturnType ast.Type
	Decl       *ast.FunDecl
}

// FunctionInfo holds every overload sharing a name in one scope.
type FunctionInfo struct {
	Name      string
	Module    string
	Overloads []*OverloadSetElement
}

func (*FunctionInfo) symbolInfo() {}

// EnumConstInfo is what Id.Symbol resolves to for a scoped enum-constant
// reference (M::T::name). The constant has no storage of its own, so unlike
// VarInfo the translator needs the value itself, not something to load from.
type EnumConstInfo struct {
	Enum  *ast.EnumType
	Value int64
}

func (*EnumConstInfo) symbolInfo() {}

// TypeDefKind distinguishes what kind of type declaration a TypeInfo names.
type TypeDefKind int

const (
	KindTypedef TypeDefKind = iota
	KindStruct
	KindUnion
	KindEnum
)

// TypeInfo describes a typedef, struct, union, or enum. Structs and unions
// begin Incomplete (opaque/forward-declared) until their field list is
// filled in by a later definition (SPEC_FULL §5, grounded on
// original_source's `structSymbolInfoCreate`).
type TypeInfo struct {
	Kind       TypeDefKind
	Tag        string
	Incomplete bool
	Underlying ast.Type   // typedef target
	Fields     []ast.Field // struct/union
	Enum       *ast.EnumType
}

func (*TypeInfo) symbolInfo() {}

// Table is a flat module-level symbol table: name -> SymbolInfo.
type Table struct {
	Module  string
	Symbols map[string]SymbolInfo
}

func NewTable(module string) *Table {
	return &Table{Module: module, Symbols: make(map[string]SymbolInfo)}
}

// Declare inserts info under name, rejecting redefinitions of a
// non-function symbol and non-overload-compatible function redeclarations.
func (t *Table) Declare(name string, info SymbolInfo) error {
	existing, ok := t.Symbols[name]
	if !ok {
		t.Symbols[name] = info
		return nil
	}
	newFn, isNewFn := info.(*FunctionInfo)
	oldFn, isOldFn := existing.(*FunctionInfo)
	if isNewFn && isOldFn {
		oldFn.Overloads = append(oldFn.Overloads, newFn.Overloads...)
		return nil
	}
	return fmt.Errorf("redefinition of '%s'", name)
}

// Scope is one nested lexical scope (block, for-header, function params).
type Scope struct {
	Symbols map[string]SymbolInfo
	Parent  *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{Symbols: make(map[string]SymbolInfo), Parent: parent}
}

// Environment bundles the current module's table, the imported-module
// tables, and the active scope stack (spec §4.4).
type Environment struct {
	Module      string
	ModuleTable *Table
	Imports     map[string]*Table
	scope       *Scope
	seenTypes   map[string]bool
}

func NewEnvironment(moduleTable *Table) *Environment {
	return &Environment{
		Module:      moduleTable.Module,
		ModuleTable: moduleTable,
		Imports:     make(map[string]*Table),
		seenTypes:   make(map[string]bool),
	}
}

// AddImport registers tbl as reachable via `using`.
func (e *Environment) AddImport(tbl *Table) {
	e.Imports[tbl.Module] = tbl
}

// ResetFile clears per-file monotone type-name tracking, for an Environment
// reused across source files (spec §4.4: "monotone across a single file's
// lexing ... until a new file begins"). Nothing in the pipeline calls it.
func (e *Environment) ResetFile() {
	e.seenTypes = make(map[string]bool)
}

// PushScope enters a new nested scope.
func (e *Environment) PushScope() {
	e.scope = newScope(e.scope)
}

// PopScope leaves the innermost scope.
func (e *Environment) PopScope() {
	if e.scope != nil {
		e.scope = e.scope.Parent
	}
}

// DeclareLocal binds name in the innermost scope, or in the module table if
// no scope is active (top-level declarations).
func (e *Environment) DeclareLocal(name string, info SymbolInfo) error {
	if e.scope == nil {
		return e.ModuleTable.Declare(name, info)
	}
	if _, exists := e.scope.Symbols[name]; exists {
		return fmt.Errorf("redefinition of '%s'", name)
	}
	e.scope.Symbols[name] = info
	return nil
}

// LookupInCurrentScope only checks the innermost scope (used for
// same-scope redefinition diagnostics).
func (e *Environment) LookupInCurrentScope(name string) (SymbolInfo, bool) {
	if e.scope == nil {
		info, ok := e.ModuleTable.Symbols[name]
		return info, ok
	}
	info, ok := e.scope.Symbols[name]
	return info, ok
}

// AmbiguousImportError reports an unqualified name defined by more than one
// imported module.
type AmbiguousImportError struct {
	Name       string
	Candidates []string
}

func (a *AmbiguousImportError) Error() string {
	return fmt.Sprintf("ambiguous reference to '%s'", a.Name)
}

// Lookup resolves an unscoped name: inner-to-outer scope stack, then the
// current module, then imports with ambiguity detection (spec §4.4).
func (e *Environment) Lookup(name string) (SymbolInfo, error) {
	for s := e.scope; s != nil; s = s.Parent {
		if info, ok := s.Symbols[name]; ok {
			e.markType(name, info)
			return info, nil
		}
	}
	if info, ok := e.ModuleTable.Symbols[name]; ok {
		e.markType(name, info)
		return info, nil
	}
	var found SymbolInfo
	var candidates []string
	for modName, tbl := range e.Imports {
		if info, ok := tbl.Symbols[name]; ok {
			found = info
			candidates = append(candidates, modName)
		}
	}
	if len(candidates) > 1 {
		return nil, &AmbiguousImportError{Name: name, Candidates: candidates}
	}
	if found != nil {
		e.markType(name, found)
		return found, nil
	}
	return nil, fmt.Errorf("undefined identifier '%s'", name)
}

func (e *Environment) markType(name string, info SymbolInfo) {
	if _, ok := info.(*TypeInfo); ok {
		e.seenTypes[name] = true
	}
}

// LookupScoped resolves `module::name` (spec §4.4).
func (e *Environment) LookupScoped(module, name string) (SymbolInfo, error) {
	tbl := e.tableFor(module)
	if tbl == nil {
		return nil, fmt.Errorf("unknown module '%s'", module)
	}
	info, ok := tbl.Symbols[name]
	if !ok {
		return nil, fmt.Errorf("undefined identifier '%s::%s'", module, name)
	}
	return info, nil
}

// LookupEnumConstant resolves `module::Tag::name` (or `Tag::name` when
// module is ""), first resolving `module::Tag` as an enum, then `name` as
// one of its constants (spec §4.4).
func (e *Environment) LookupEnumConstant(module, tag, name string) (*ast.EnumType, int64, error) {
	var tagInfo SymbolInfo
	var err error
	if module == "" {
		tagInfo, err = e.Lookup(tag)
	} else {
		tagInfo, err = e.LookupScoped(module, tag)
	}
	if err != nil {
		return nil, 0, err
	}
	ti, ok := tagInfo.(*TypeInfo)
	if !ok || ti.Kind != KindEnum {
		return nil, 0, fmt.Errorf("'%s' is not an enum", tag)
	}
	for i, c := range ti.Enum.Constants {
		if c == name {
			return ti.Enum, ti.Enum.Values[i], nil
		}
	}
	return nil, 0, fmt.Errorf("enum '%s' has no constant '%s'", tag, name)
}

func (e *Environment) tableFor(module string) *Table {
	if module == e.Module {
		return e.ModuleTable
	}
	return e.Imports[module]
}

// IsType implements the lexer's TypeClassifier: reports whether name
// currently denotes a type, per the scope-then-module-then-import search of
// Lookup, but once true for a file it stays true for the rest of that file
// even if resolution would otherwise now disagree (spec §4.4 monotonicity).
func (e *Environment) IsType(name string) bool {
	if e.seenTypes[name] {
		return true
	}
	info, err := e.Lookup(name)
	if err != nil {
		return false
	}
	_, ok := info.(*TypeInfo)
	if ok {
		e.seenTypes[name] = true
	}
	return ok
}
