// Package typecheck implements spec §4.6: name/overload resolution, lvalue
// checking, usual-arithmetic-conversion result types, and ResultType
// annotation of every Expr node. It runs in two passes per compilation
// unit: CollectGlobals registers top-level var/function symbols (types are
// already registered by pkg/parser as it parses, per spec §4.4's
// classifier feedback loop), then Check walks function bodies and
// initializers.
package typecheck

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/symtab"
	"github.com/tlc-lang/tlc/pkg/types"
)

// Checker holds the state shared across one file's Check pass: the
// environment used for lvalue/name resolution, diagnostic sink, target
// widths, and the enclosing function/loop/switch context needed to
// validate return/break/continue/case placement.
type Checker struct {
	env  *symtab.Environment
	bag  *diag.Bag
	cfg  *config.Config
	file string

	currentReturn ast.Type
	loopDepth     int
	switchDepth   int
}

func New(env *symtab.Environment, bag *diag.Bag, cfg *config.Config, file string) *Checker {
	return &Checker{env: env, bag: bag, cfg: cfg, file: file}
}

func (c *Checker) errorf(p ast.Pos, format string, args ...interface{}) {
	c.bag.Errorf(c.file, p.Line, p.Column, 1, format, args...)
}

// invalidType is the sentinel result type substituted after an error so
// downstream checks can keep going without a nil-pointer risk. It is never
// exposed to the translator: every use site that would consume it has
// already reported a diagnostic for the same node.
var invalidType ast.Type = &ast.Keyword{Kind: ast.PVoid}

// ---- Type reference resolution ----

// ResolveTypeRefs fills Reference.Entry (and Reference.Kind) for every
// Reference reachable from t, recursively. Called once per declared type
// during CollectGlobals and once per local declaration during Check.
func (c *Checker) ResolveTypeRefs(t ast.Type) {
	switch v := t.(type) {
	case *ast.Reference:
		if v.Entry != nil {
			return
		}
		var info symtab.SymbolInfo
		var err error
		if v.Module == "" {
			info, err = c.env.Lookup(v.Name)
		} else {
			info, err = c.env.LookupScoped(v.Module, v.Name)
		}
		if err != nil {
			c.errorf(v.Pos, "undefined type '%s'", v.Name)
			return
		}
		ti, ok := info.(*symtab.TypeInfo)
		if !ok {
			c.errorf(v.Pos, "'%s' is not a type", v.Name)
			return
		}
		v.Entry = ti
		v.Kind = entryKindFor(ti.Kind)
	case *ast.Qualified:
		c.ResolveTypeRefs(v.Base)
	case *ast.Pointer:
		c.ResolveTypeRefs(v.Base)
	case *ast.Array:
		c.ResolveTypeRefs(v.Elem)
	case *ast.FunPtr:
		c.ResolveTypeRefs(v.Return)
		for _, a := range v.Args {
			c.ResolveTypeRefs(a)
		}
	}
}

func entryKindFor(k symtab.TypeDefKind) ast.EntryKind {
	switch k {
	case symtab.KindStruct:
		return ast.EntryStruct
	case symtab.KindUnion:
		return ast.EntryUnion
	case symtab.KindEnum:
		return ast.EntryEnum
	default:
		return ast.EntryTypedef
	}
}

// ---- Pass 1: collect globals ----

// CollectGlobals registers every top-level variable and function name (and
// resolves the type references named in declarations) into the module
// table, so forward references anywhere in the file — and imports of this
// module by others — see a complete signature set (spec §4.4/§4.6).
func (c *Checker) CollectGlobals(f *ast.File) {
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.FunDecl:
			c.declareFunction(n)
		case *ast.Function:
			c.declareFunction(n.Decl)
		case *ast.VarDecl:
			c.ResolveTypeRefs(n.Type)
			n.Symbol = c.declareVar(n.Pos, n.Name, n.Type)
		case *ast.VarDefnStmt:
			c.ResolveTypeRefs(n.Type)
			n.Symbol = c.declareVar(n.Pos, n.Name, n.Type)
		case *ast.StructDecl:
			c.resolveFields(n.Type.Fields)
		case *ast.UnionDecl:
			c.resolveFields(n.Type.Fields)
		case *ast.TypedefDecl:
			c.ResolveTypeRefs(n.Target)
		}
	}
}

func (c *Checker) resolveFields(fields []ast.Field) {
	for i := range fields {
		c.ResolveTypeRefs(fields[i].Type)
	}
}

func (c *Checker) declareVar(pos ast.Pos, name string, t ast.Type) *symtab.VarInfo {
	vi := &symtab.VarInfo{Type: t, Module: c.env.Module}
	if err := c.env.DeclareLocal(name, vi); err != nil {
		c.errorf(pos, "%s", err.Error())
		return nil
	}
	return vi
}

func (c *Checker) declareFunction(d *ast.FunDecl) {
	c.ResolveTypeRefs(d.Return)
	argTypes := make([]ast.Type, len(d.Params))
	for i, p := range d.Params {
		c.ResolveTypeRefs(p.Type)
		argTypes[i] = p.Type
	}
	elem := &symtab.OverloadSetElement{ArgTypes: argTypes, Variadic: d.Variadic, ReturnType: d.Return, Decl: d}

	// Table.Declare merges into an existing *FunctionInfo by appending, so
	// the index this declaration lands at is the pre-merge overload count,
	// not anything on the fresh FunctionInfo we pass in below.
	index := 0
	if existing, ok := c.env.LookupInCurrentScope(d.Name); ok {
		if fi, ok := existing.(*symtab.FunctionInfo); ok {
			index = len(fi.Overloads)
		}
	}
	fi := &symtab.FunctionInfo{Name: d.Name, Module: c.env.Module, Overloads: []*symtab.OverloadSetElement{elem}}
	if err := c.env.DeclareLocal(d.Name, fi); err != nil {
		c.errorf(d.Pos, "%s", err.Error())
		return
	}
	d.Overload = index
}

// ---- Pass 2: check bodies ----

// Check walks every function body and global initializer in f.
func (c *Checker) Check(f *ast.File) {
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.Function:
			c.checkFunction(n)
		case *ast.VarDefnStmt:
			c.checkVarDefn(n, false)
		}
	}
}

func (c *Checker) checkFunction(fn *ast.Function) {
	prevReturn := c.currentReturn
	c.currentReturn = fn.Decl.Return
	c.env.PushScope()
	for i := range fn.Decl.Params {
		p := &fn.Decl.Params[i]
		if p.Name != "" {
			p.Symbol = c.declareVar(p.Pos, p.Name, p.Type)
		}
	}
	for _, s := range fn.Body.Stmts {
		c.checkStmt(s)
	}
	c.env.PopScope()
	c.currentReturn = prevReturn
}

func (c *Checker) checkVarDefn(n *ast.VarDefnStmt, local bool) {
	c.ResolveTypeRefs(n.Type)
	if local {
		n.Symbol = c.declareVar(n.Pos, n.Name, n.Type)
	}
	if n.Init == nil {
		return
	}
	initType := c.checkExprHinted(n.Init, n.Type)
	if !types.Equal(initType, invalidType) && !types.ImplicitlyConvertible(initType, n.Type, c.cfg) {
		c.errorf(n.Pos, "cannot initialize '%s' with a value of incompatible type", n.Name)
	}
}

func (c *Checker) checkStmt(n ast.Node) {
	switch s := n.(type) {
	case *ast.CompoundStmt:
		c.env.PushScope()
		for _, st := range s.Stmts {
			c.checkStmt(st)
		}
		c.env.PopScope()
	case *ast.IfStmt:
		c.checkCondition(s.Cond)
		c.checkStmt(s.Then)
		if s.Else != nil {
			c.checkStmt(s.Else)
		}
	case *ast.WhileStmt:
		c.checkCondition(s.Cond)
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--
	case *ast.DoWhileStmt:
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--
		c.checkCondition(s.Cond)
	case *ast.ForStmt:
		c.env.PushScope()
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		if s.Cond != nil {
			c.checkCondition(s.Cond)
		}
		if s.Upd != nil {
			c.checkExpr(s.Upd)
		}
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--
		c.env.PopScope()
	case *ast.SwitchStmt:
		tagType := c.checkExpr(s.Tag)
		if !types.IsInteger(tagType) {
			c.errorf(s.Pos, "switch condition must have integer or enum type")
		}
		c.switchDepth++
		seen := map[int64]bool{}
		for _, item := range s.Body.Stmts {
			if cs, ok := item.(*ast.CaseStmt); ok {
				if v, ok := foldConstInt(cs.Value); ok {
					if seen[v] {
						c.errorf(cs.Pos, "duplicate case value %d", v)
					}
					seen[v] = true
				} else {
					c.errorf(cs.Pos, "case value must be a compile-time integer constant")
				}
				continue
			}
			c.checkStmt(item)
		}
		c.switchDepth--
	case *ast.CaseStmt, *ast.DefaultStmt:
		// A CaseStmt inside a switch body is handled inline by the enclosing
		// SwitchStmt; a DefaultStmt there also reaches this point and passes.
		// Outside a switch (which the parser permits syntactically) both
		// are diagnosed.
		if c.switchDepth == 0 {
			c.errorf(n.Position(), "case/default label outside a switch statement")
		}
	case *ast.BreakStmt:
		if c.loopDepth == 0 && c.switchDepth == 0 {
			c.errorf(s.Pos, "break outside a loop or switch")
		}
	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.errorf(s.Pos, "continue outside a loop")
		}
	case *ast.ReturnStmt:
		c.checkReturn(s)
	case *ast.AsmStmt, *ast.NullStmt:
		// opaque / no-op
	case *ast.ExpressionStmt:
		c.checkExpr(s.Expr)
	case *ast.VarDefnStmt:
		c.checkVarDefn(s, true)
	}
}

func (c *Checker) checkReturn(s *ast.ReturnStmt) {
	voidReturn := isVoidKeyword(c.currentReturn)
	if s.Value == nil {
		if !voidReturn {
			c.errorf(s.Pos, "non-void function must return a value")
		}
		return
	}
	if voidReturn {
		c.errorf(s.Pos, "void function must not return a value")
		return
	}
	vt := c.checkExprHinted(s.Value, c.currentReturn)
	if !types.ImplicitlyConvertible(vt, c.currentReturn, c.cfg) {
		c.errorf(s.Pos, "return value type does not match the function's return type")
	}
}

func isVoidKeyword(t ast.Type) bool {
	base, _, _ := ast.StripQualifiers(t)
	k, ok := base.(*ast.Keyword)
	return ok && k.Kind == ast.PVoid
}

func (c *Checker) checkCondition(e ast.Expr) {
	t := c.checkExpr(e)
	if !types.IsNumeric(t) && !types.IsPointer(t) && !isEnumType(t) {
		c.errorf(e.Position(), "condition must have a scalar type")
	}
}

func isEnumType(t ast.Type) bool {
	base, _, _ := ast.StripQualifiers(t)
	if ref, ok := base.(*ast.Reference); ok {
		return ref.Kind == ast.EntryEnum
	}
	_, ok := base.(*ast.EnumType)
	return ok
}

// foldConstInt folds the small subset of compile-time-constant integer
// expressions the case-label grammar allows: int/char/bool literals and
// unary +/-/~ applied to another such constant. Enum constants are not
// folded, so a case label naming one is rejected.
func foldConstInt(e ast.Expr) (int64, bool) {
	switch v := e.(type) {
	case *ast.Const:
		if v.Kind == ast.ConstInt || v.Kind == ast.ConstChar || v.Kind == ast.ConstBool {
			return v.I, true
		}
	case *ast.UnOp:
		inner, ok := foldConstInt(v.Operand)
		if !ok {
			return 0, false
		}
		switch v.Op {
		case ast.OpNeg:
			return -inner, true
		case ast.OpPos:
			return inner, true
		case ast.OpCompl:
			return ^inner, true
		}
	}
	return 0, false
}

// ---- Expressions ----

func (c *Checker) checkExpr(e ast.Expr) ast.Type {
	return c.checkExprHinted(e, nil)
}

// checkExprHinted checks e, using hint to resolve context-dependent nodes
// (aggregate-init literals have no type of their own; spec leaves the
// aggregate-init's element/count checking to whatever it initializes).
func (c *Checker) checkExprHinted(e ast.Expr, hint ast.Type) ast.Type {
	if e == nil {
		return invalidType
	}
	t := c.checkExprKind(e, hint)
	e.SetType(t)
	return t
}

func (c *Checker) checkExprKind(e ast.Expr, hint ast.Type) ast.Type {
	switch n := e.(type) {
	case *ast.Const:
		return c.checkConst(n, hint)
	case *ast.Id:
		return c.checkId(n)
	case *ast.BinOp:
		return c.checkBinOp(n)
	case *ast.CompOp:
		c.checkExpr(n.Left)
		c.checkExpr(n.Right)
		return &ast.Keyword{Kind: ast.PBool}
	case *ast.UnOp:
		return c.checkUnOp(n)
	case *ast.LAnd:
		c.checkCondition(n.Left)
		c.checkCondition(n.Right)
		return &ast.Keyword{Kind: ast.PBool}
	case *ast.LOr:
		c.checkCondition(n.Left)
		c.checkCondition(n.Right)
		return &ast.Keyword{Kind: ast.PBool}
	case *ast.LAndAssign:
		return c.checkShortCircuitAssign(n.Target, n.Value)
	case *ast.LOrAssign:
		return c.checkShortCircuitAssign(n.Target, n.Value)
	case *ast.Ternary:
		return c.checkTernary(n)
	case *ast.StructAccess:
		return c.checkStructAccess(n, false)
	case *ast.StructPtrAccess:
		return c.checkStructAccess(n, true)
	case *ast.Subscript:
		return c.checkSubscript(n)
	case *ast.FnCall:
		return c.checkFnCall(n)
	case *ast.Cast:
		c.ResolveTypeRefs(n.Target)
		c.checkExpr(n.Operand)
		return n.Target
	case *ast.SizeofType:
		c.ResolveTypeRefs(n.Target)
		c.checkSizeofIncomplete(n.Pos, n.Target)
		return &ast.Keyword{Kind: ast.PUlong}
	case *ast.SizeofExp:
		operandType := c.checkExpr(n.Operand)
		c.checkSizeofIncomplete(n.Pos, operandType)
		return &ast.Keyword{Kind: ast.PUlong}
	case *ast.Seq:
		var last ast.Type = invalidType
		for _, el := range n.Elems {
			last = c.checkExpr(el)
		}
		return last
	case *ast.AggregateInit:
		return c.checkAggregateInit(n, hint)
	default:
		return invalidType
	}
}

// checkSizeofIncomplete diagnoses sizeof applied to a forward-declared
// struct/union/enum that was never given a body (symtab.TypeInfo.Incomplete,
// set by the parser for an opaque declaration and cleared once a full
// definition is parsed).
func (c *Checker) checkSizeofIncomplete(pos ast.Pos, t ast.Type) {
	base, _, _ := ast.StripQualifiers(t)
	ref, ok := base.(*ast.Reference)
	if !ok {
		return
	}
	ti, ok := ref.Entry.(*symtab.TypeInfo)
	if !ok || !ti.Incomplete {
		return
	}
	c.errorf(pos, "sizeof applied to incomplete type '%s'", ref.Name)
}

// checkConst types a literal, consulting hint for the string/wstring cases:
// a string literal assigned against a char/ubyte/wchar array target types as
// that array (mirroring the original's string-initializer handling), not as
// the usual decayed `const char*`/`const wchar*`.
func (c *Checker) checkConst(n *ast.Const, hint ast.Type) ast.Type {
	switch n.Kind {
	case ast.ConstInt:
		return &ast.Keyword{Kind: ast.PInt}
	case ast.ConstFloat:
		return &ast.Keyword{Kind: ast.PDouble}
	case ast.ConstString:
		if arr, ok := stringHintArray(hint, false); ok {
			return arr
		}
		return &ast.Pointer{Base: &ast.Qualified{Const: true, Base: &ast.Keyword{Kind: ast.PChar}}}
	case ast.ConstWString:
		if arr, ok := stringHintArray(hint, true); ok {
			return arr
		}
		return &ast.Pointer{Base: &ast.Qualified{Const: true, Base: &ast.Keyword{Kind: ast.PWchar}}}
	case ast.ConstChar:
		return &ast.Keyword{Kind: ast.PChar}
	case ast.ConstWChar:
		return &ast.Keyword{Kind: ast.PWchar}
	case ast.ConstBool:
		return &ast.Keyword{Kind: ast.PBool}
	case ast.ConstNull:
		return &ast.NullType{}
	default:
		return invalidType
	}
}

// stringHintArray reports whether hint resolves to an array whose element
// type a string (wchar=false) or wstring (wchar=true) literal may initialize
// directly.
func stringHintArray(hint ast.Type, wchar bool) (*ast.Array, bool) {
	if hint == nil {
		return nil, false
	}
	arr, ok := types.Resolve(hint).(*ast.Array)
	if !ok {
		return nil, false
	}
	kw, ok := types.Resolve(arr.Elem).(*ast.Keyword)
	if !ok {
		return nil, false
	}
	if wchar {
		return arr, kw.Kind == ast.PWchar
	}
	return arr, kw.Kind == ast.PChar || kw.Kind == ast.PUbyte || kw.Kind == ast.PByte
}

func (c *Checker) checkId(n *ast.Id) ast.Type {
	if n.Scope != "" {
		enumType, value, err := c.env.LookupEnumConstant(n.Module, n.Scope, n.Name)
		if err != nil {
			c.errorf(n.Pos, "%s", err.Error())
			return invalidType
		}
		n.Symbol = &symtab.EnumConstInfo{Enum: enumType, Value: value}
		return &ast.Reference{Name: n.Scope, Kind: ast.EntryEnum, Entry: enumTypeInfo(c.env, n.Module, n.Scope)}
	}

	var info symtab.SymbolInfo
	var err error
	if n.Module == "" {
		info, err = c.env.Lookup(n.Name)
	} else {
		info, err = c.env.LookupScoped(n.Module, n.Name)
	}
	if err != nil {
		c.errorf(n.Pos, "%s", err.Error())
		return invalidType
	}
	n.Symbol = info
	switch v := info.(type) {
	case *symtab.VarInfo:
		return v.Type
	case *symtab.FunctionInfo:
		// Bare use of a function name outside a call: it is typed as a
		// function pointer built from its first overload (&name wraps that
		// type in a Pointer, like any other operand of OpAddrOf).
		if len(v.Overloads) > 0 {
			ov := v.Overloads[0]
			return &ast.FunPtr{Return: ov.ReturnType, Args: ov.ArgTypes}
		}
		return invalidType
	case *symtab.TypeInfo:
		c.errorf(n.Pos, "'%s' names a type, not a value", n.Name)
		return invalidType
	default:
		return invalidType
	}
}

func enumTypeInfo(env *symtab.Environment, module, tag string) *symtab.TypeInfo {
	var info symtab.SymbolInfo
	var err error
	if module == "" {
		info, err = env.Lookup(tag)
	} else {
		info, err = env.LookupScoped(module, tag)
	}
	if err != nil {
		return nil
	}
	ti, _ := info.(*symtab.TypeInfo)
	return ti
}

func (c *Checker) checkBinOp(n *ast.BinOp) ast.Type {
	if n.Op.IsAssign() {
		return c.checkAssign(n)
	}
	lt := c.checkExpr(n.Left)
	rt := c.checkExpr(n.Right)
	switch n.Op {
	case ast.OpAnd, ast.OpOr, ast.OpXor, ast.OpShl, ast.OpShr, ast.OpAShr:
		if !types.IsInteger(lt) || (n.Op != ast.OpShl && n.Op != ast.OpShr && n.Op != ast.OpAShr && !types.IsInteger(rt)) {
			c.errorf(n.Pos, "bitwise operator requires integer operands")
			return invalidType
		}
		return lt
	case ast.OpSpaceship:
		if !c.comparable(lt, rt) {
			c.errorf(n.Pos, "operands to <=> are not comparable")
		}
		return &ast.Keyword{Kind: ast.PInt}
	case ast.OpAdd, ast.OpSub:
		if types.IsPointer(lt) && types.IsInteger(rt) {
			return lt
		}
		if n.Op == ast.OpAdd && types.IsInteger(lt) && types.IsPointer(rt) {
			return rt
		}
		if n.Op == ast.OpSub && types.IsPointer(lt) && types.IsPointer(rt) {
			return &ast.Keyword{Kind: ast.PLong}
		}
		return c.commonArithmeticType(n.Pos, lt, rt)
	default:
		return c.commonArithmeticType(n.Pos, lt, rt)
	}
}

func (c *Checker) comparable(a, b ast.Type) bool {
	if types.IsNumeric(a) && types.IsNumeric(b) {
		return true
	}
	if types.IsPointer(a) && types.IsPointer(b) {
		return true
	}
	return types.ImplicitlyConvertible(a, b, c.cfg) || types.ImplicitlyConvertible(b, a, c.cfg)
}

func (c *Checker) commonArithmeticType(pos ast.Pos, a, b ast.Type) ast.Type {
	if !types.IsNumeric(a) || !types.IsNumeric(b) {
		c.errorf(pos, "arithmetic operator requires numeric operands")
		return invalidType
	}
	if types.IsFloat(a) || types.IsFloat(b) {
		if isKeywordKind(a, ast.PDouble) || isKeywordKind(b, ast.PDouble) {
			return &ast.Keyword{Kind: ast.PDouble}
		}
		return &ast.Keyword{Kind: ast.PFloat}
	}
	if types.Size(a, c.cfg) >= types.Size(b, c.cfg) {
		return a
	}
	return b
}

func isKeywordKind(t ast.Type, k ast.PrimKind) bool {
	base, _, _ := ast.StripQualifiers(t)
	kw, ok := base.(*ast.Keyword)
	return ok && kw.Kind == k
}

func (c *Checker) checkAssign(n *ast.BinOp) ast.Type {
	lt := c.checkExpr(n.Left)
	if !c.isLvalue(n.Left) {
		c.errorf(n.Pos, "left-hand side of assignment is not assignable")
	}
	rt := c.checkExprHinted(n.Right, lt)
	if n.Op == ast.OpAssign {
		if !types.ImplicitlyConvertible(rt, lt, c.cfg) {
			c.errorf(n.Pos, "cannot assign a value of incompatible type")
		}
		return lt
	}
	// Compound assignment: the arithmetic result must convert back into lt.
	result := c.commonArithmeticType(n.Pos, lt, rt)
	if types.IsPointer(lt) && types.IsInteger(rt) {
		result = lt
	}
	if !types.Equal(result, invalidType) && !types.ImplicitlyConvertible(result, lt, c.cfg) {
		c.errorf(n.Pos, "compound assignment result does not convert back to the target's type")
	}
	return lt
}

func (c *Checker) checkShortCircuitAssign(target, value ast.Expr) ast.Type {
	lt := c.checkExpr(target)
	if !c.isLvalue(target) {
		c.errorf(target.Position(), "left-hand side of assignment is not assignable")
	}
	c.checkCondition(value)
	return lt
}

// isLvalue implements the lvalue grammar of spec §4.6: Id, Deref,
// Subscript, StructAccess, StructPtrAccess.
func (c *Checker) isLvalue(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Id:
		return true
	case *ast.UnOp:
		return v.Op == ast.OpDeref
	case *ast.Subscript, *ast.StructAccess, *ast.StructPtrAccess:
		return true
	default:
		return false
	}
}

func (c *Checker) checkUnOp(n *ast.UnOp) ast.Type {
	switch n.Op {
	case ast.OpDeref:
		t := c.checkExpr(n.Operand)
		base, _, _ := ast.StripQualifiers(t)
		p, ok := base.(*ast.Pointer)
		if !ok {
			c.errorf(n.Pos, "cannot dereference a non-pointer value")
			return invalidType
		}
		return p.Base
	case ast.OpAddrOf:
		t := c.checkExpr(n.Operand)
		if !c.isLvalue(n.Operand) {
			c.errorf(n.Pos, "cannot take the address of a non-lvalue")
		}
		return &ast.Pointer{Base: t}
	case ast.OpInc, ast.OpDec:
		t := c.checkExpr(n.Operand)
		if !c.isLvalue(n.Operand) {
			c.errorf(n.Pos, "operand of ++/-- must be assignable")
		}
		if !types.IsNumeric(t) && !types.IsPointer(t) {
			c.errorf(n.Pos, "operand of ++/-- must be numeric or a pointer")
		}
		return t
	case ast.OpNeg, ast.OpPos:
		t := c.checkExpr(n.Operand)
		if !types.IsNumeric(t) {
			c.errorf(n.Pos, "operand must be numeric")
			return invalidType
		}
		return t
	case ast.OpNot:
		c.checkCondition(n.Operand)
		return &ast.Keyword{Kind: ast.PBool}
	case ast.OpCompl:
		t := c.checkExpr(n.Operand)
		if !types.IsInteger(t) {
			c.errorf(n.Pos, "operand of ~ must be an integer")
			return invalidType
		}
		return t
	default:
		return invalidType
	}
}

func (c *Checker) checkTernary(n *ast.Ternary) ast.Type {
	c.checkCondition(n.Cond)
	tt := c.checkExpr(n.Then)
	et := c.checkExpr(n.Else)
	if types.Equal(tt, et) {
		return tt
	}
	if types.ImplicitlyConvertible(et, tt, c.cfg) {
		return tt
	}
	if types.ImplicitlyConvertible(tt, et, c.cfg) {
		return et
	}
	c.errorf(n.Pos, "ternary branches have incompatible types")
	return tt
}

func (c *Checker) resolveAggregate(t ast.Type) (*ast.Aggregate, *ast.UnionType) {
	base, _, _ := ast.StripQualifiers(t)
	if ref, ok := base.(*ast.Reference); ok {
		if ti, ok := ref.Entry.(*symtab.TypeInfo); ok {
			switch ti.Kind {
			case symtab.KindStruct:
				return &ast.Aggregate{Tag: ti.Tag, Fields: ti.Fields}, nil
			case symtab.KindUnion:
				return nil, &ast.UnionType{Tag: ti.Tag, Fields: ti.Fields}
			}
		}
	}
	if agg, ok := base.(*ast.Aggregate); ok {
		return agg, nil
	}
	if un, ok := base.(*ast.UnionType); ok {
		return nil, un
	}
	return nil, nil
}

func (c *Checker) checkStructAccess(n ast.Expr, viaPointer bool) ast.Type {
	var base ast.Expr
	var member string
	var pos ast.Pos
	if viaPointer {
		sp := n.(*ast.StructPtrAccess)
		base, member, pos = sp.Base, sp.Member, sp.Pos
	} else {
		sa := n.(*ast.StructAccess)
		base, member, pos = sa.Base, sa.Member, sa.Pos
	}

	bt := c.checkExpr(base)
	target := bt
	if viaPointer {
		bb, _, _ := ast.StripQualifiers(bt)
		p, ok := bb.(*ast.Pointer)
		if !ok {
			c.errorf(pos, "'->' requires a pointer operand")
			return invalidType
		}
		target = p.Base
	}
	agg, un := c.resolveAggregate(target)
	var fields []ast.Field
	if agg != nil {
		fields = agg.Fields
	} else if un != nil {
		fields = un.Fields
	} else {
		c.errorf(pos, "member access requires a struct or union type")
		return invalidType
	}
	for _, f := range fields {
		if f.Name == member {
			return f.Type
		}
	}
	c.errorf(pos, "no member named '%s'", member)
	return invalidType
}

func (c *Checker) checkSubscript(n *ast.Subscript) ast.Type {
	bt := c.checkExpr(n.Base)
	it := c.checkExpr(n.Index)
	if !types.IsInteger(it) {
		c.errorf(n.Pos, "array subscript must be an integer")
	}
	base, _, _ := ast.StripQualifiers(bt)
	switch v := base.(type) {
	case *ast.Pointer:
		return v.Base
	case *ast.Array:
		return v.Elem
	default:
		c.errorf(n.Pos, "subscripted value is neither an array nor a pointer")
		return invalidType
	}
}

func (c *Checker) checkFnCall(n *ast.FnCall) ast.Type {
	if id, ok := n.Callee.(*ast.Id); ok && id.Scope == "" {
		var info symtab.SymbolInfo
		var err error
		if id.Module == "" {
			info, err = c.env.Lookup(id.Name)
		} else {
			info, err = c.env.LookupScoped(id.Module, id.Name)
		}
		if err == nil {
			if fi, ok := info.(*symtab.FunctionInfo); ok {
				id.Symbol = fi
				return c.checkOverloadedCall(n, fi)
			}
		}
	}

	ct := c.checkExpr(n.Callee)
	base, _, _ := ast.StripQualifiers(ct)
	fp, ok := base.(*ast.FunPtr)
	if !ok {
		if !types.Equal(ct, invalidType) {
			c.errorf(n.Pos, "called value is not a function")
		}
		for _, a := range n.Args {
			c.checkExpr(a)
		}
		return invalidType
	}
	for i, a := range n.Args {
		var hint ast.Type
		if i < len(fp.Args) {
			hint = fp.Args[i]
		}
		at := c.checkExprHinted(a, hint)
		if i < len(fp.Args) && !types.ImplicitlyConvertible(at, fp.Args[i], c.cfg) {
			c.errorf(a.Position(), "argument %d has an incompatible type", i+1)
		}
	}
	return fp.Return
}

// checkOverloadedCall picks among fi's overloads by arity and convertibility,
// then disambiguates survivors by their count of per-position exact type
// matches: the candidate with the most exact matches wins; a genuine tie at
// the max is reported as ambiguous (spec §4.6).
func (c *Checker) checkOverloadedCall(n *ast.FnCall, fi *symtab.FunctionInfo) ast.Type {
	argTypes := make([]ast.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.checkExpr(a)
	}

	type candidate struct {
		idx        int
		exactCount int
	}
	var candidates []candidate
	for idx, ov := range fi.Overloads {
		if !argCountMatches(ov, len(n.Args)) {
			continue
		}
		if !allConvertible(ov.ArgTypes, argTypes, c.cfg) {
			continue
		}
		candidates = append(candidates, candidate{idx: idx, exactCount: exactMatchCount(ov.ArgTypes, argTypes)})
	}

	if len(candidates) == 0 {
		c.errorf(n.Pos, "no overload of '%s' matches the given arguments", fi.Name)
		return invalidType
	}

	best := candidates[0].exactCount
	for _, cnd := range candidates[1:] {
		if cnd.exactCount > best {
			best = cnd.exactCount
		}
	}
	var chosen []int
	for _, cnd := range candidates {
		if cnd.exactCount == best {
			chosen = append(chosen, cnd.idx)
		}
	}

	if len(chosen) > 1 {
		c.errorf(n.Pos, "call to '%s' is ambiguous among %d overloads", fi.Name, len(chosen))
	}
	ov := fi.Overloads[chosen[0]]
	n.Overload = chosen[0]

	// Re-check args with per-parameter hints so aggregate-init arguments
	// see their target type.
	for i, a := range n.Args {
		var hint ast.Type
		if i < len(ov.ArgTypes) {
			hint = ov.ArgTypes[i]
		}
		if _, ok := a.(*ast.AggregateInit); ok {
			c.checkExprHinted(a, hint)
		}
	}
	return ov.ReturnType
}

func argCountMatches(ov *symtab.OverloadSetElement, n int) bool {
	if ov.Variadic {
		return n >= len(ov.ArgTypes)
	}
	return n == len(ov.ArgTypes)
}

// exactMatchCount counts positions where an argument's checked type is
// exactly (not just convertibly) the declared parameter type. Variadic
// trailing arguments have no declared parameter to compare against and
// never count as exact.
func exactMatchCount(params, args []ast.Type) int {
	n := 0
	for i, p := range params {
		if types.Equal(p, args[i]) {
			n++
		}
	}
	return n
}

func allConvertible(params, args []ast.Type, cfg *config.Config) bool {
	for i, p := range params {
		if !types.ImplicitlyConvertible(args[i], p, cfg) {
			return false
		}
	}
	return true
}

func (c *Checker) checkAggregateInit(n *ast.AggregateInit, hint ast.Type) ast.Type {
	if hint == nil {
		c.errorf(n.Pos, "cannot infer the type of an aggregate initializer without a target type")
		for _, el := range n.Elems {
			c.checkExpr(el)
		}
		return invalidType
	}
	base, _, _ := ast.StripQualifiers(hint)
	if arr, ok := base.(*ast.Array); ok {
		for _, el := range n.Elems {
			et := c.checkExprHinted(el, arr.Elem)
			if !types.ImplicitlyConvertible(et, arr.Elem, c.cfg) {
				c.errorf(el.Position(), "aggregate element has an incompatible type")
			}
		}
		return hint
	}
	if agg, _ := c.resolveAggregate(base); agg != nil {
		for i, el := range n.Elems {
			if i >= len(agg.Fields) {
				c.errorf(el.Position(), "too many initializers for '%s'", agg.Tag)
				c.checkExpr(el)
				continue
			}
			ft := agg.Fields[i].Type
			et := c.checkExprHinted(el, ft)
			if !types.ImplicitlyConvertible(et, ft, c.cfg) {
				c.errorf(el.Position(), "aggregate element has an incompatible type")
			}
		}
		return hint
	}
	c.errorf(n.Pos, "aggregate initializer used against a non-aggregate type")
	for _, el := range n.Elems {
		c.checkExpr(el)
	}
	return invalidType
}
