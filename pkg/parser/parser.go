// Package parser implements the hand-written recursive-descent, Pratt-style
// parser of spec §4.3. It builds the AST while classifying identifiers with
// help from pkg/symtab's Environment (fed back into the lexer as
// TYPE_ID/ID), and recovers from syntax errors by panicking to a top-level
// or block boundary rather than aborting the file.
package parser

import (
	"strconv"
	"strings"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/lexer"
	"github.com/tlc-lang/tlc/pkg/symtab"
	"github.com/tlc-lang/tlc/pkg/token"
)

// Parser holds the current lookahead token and the shared environment used
// both to feed the lexer's type classification and to register type
// declarations as they are parsed (spec §2: "B built by C using D during
// parsing to classify type identifiers").
type Parser struct {
	lex     *lexer.Lexer
	env     *symtab.Environment
	bag     *diag.Bag
	file    string
	isCode  bool
	current token.Token
}

func New(lex *lexer.Lexer, env *symtab.Environment, bag *diag.Bag, file string, isCode bool) *Parser {
	p := &Parser{lex: lex, env: env, bag: bag, file: file, isCode: isCode}
	p.advance()
	return p
}

// syncSignal is panicked by errorf and caught at a recovery boundary.
type syncSignal struct{}

func (p *Parser) advance() token.Token {
	prev := p.current
	p.current = p.lex.Next()
	return prev
}

func (p *Parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

// errorf reports a diagnostic in the "expected <E>, but found <A>" shape
// (spec §4.3), leaves the offending token unconsumed as the current
// lookahead, and panics to the nearest recovery boundary.
func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.bag.Errorf(p.file, tok.Line, tok.Column, tok.Len, format, args...)
	panic(syncSignal{})
}

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.check(k) {
		p.errorf(p.current, "expected %s, but found %s", token.KindString(k), p.current.String())
	}
	return p.advance()
}

func (p *Parser) expectIdentLike() string {
	if p.current.Kind != token.Ident && p.current.Kind != token.TypeID {
		p.errorf(p.current, "expected identifier, but found %s", p.current.String())
	}
	tok := p.advance()
	return tok.Payload
}

func (p *Parser) startsType(k token.Kind) bool {
	return k == token.TypeID || token.IsPrimitiveTypeKeyword(k)
}

func (p *Parser) isTopLevelStart(k token.Kind) bool {
	if token.IsPrimitiveTypeKeyword(k) {
		return true
	}
	switch k {
	case token.Struct, token.Union, token.Enum, token.Typedef, token.TypeID, token.Module, token.Using:
		return true
	default:
		return false
	}
}

func (p *Parser) synchronizeTopLevel() {
	for {
		if p.check(token.Semi) {
			p.advance()
			return
		}
		if p.isTopLevelStart(p.current.Kind) || p.check(token.EOF) {
			return
		}
		p.advance()
	}
}

func (p *Parser) synchronizeBlock() {
	depth := 0
	for {
		switch p.current.Kind {
		case token.Semi:
			if depth == 0 {
				p.advance()
				return
			}
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.EOF:
			return
		}
		p.advance()
	}
}

func pos(tok token.Token) ast.Pos {
	return ast.Pos{File: tok.FileIndex, Line: tok.Line, Column: tok.Column}
}

// ---- Top level ----

// Parse consumes the entire token stream and returns the file's AST. Parse
// errors are collected in bag and reflected in File.Errored rather than
// aborting; a best-effort AST is still returned (spec §4.3 "Partial
// parses").
func (p *Parser) Parse() *ast.File {
	f := &ast.File{Path: p.file, IsCode: p.isCode}
	f.Module = p.parseModuleDecl()

	for p.check(token.Using) {
		f.Imports = append(f.Imports, p.parseImport())
	}

	for !p.check(token.EOF) {
		nodes := p.parseTopLevelSafe()
		f.Decls = append(f.Decls, nodes...)
	}
	f.Errored = p.bag.ErroredFile(p.file)
	return f
}

func (p *Parser) parseModulePath() string {
	first := p.expectIdentLike()
	var b strings.Builder
	b.WriteString(first)
	for p.match(token.ColonColon) {
		b.WriteString("::")
		b.WriteString(p.expectIdentLike())
	}
	return b.String()
}

func (p *Parser) parseModuleDecl() *ast.ModuleDecl {
	tok := p.expect(token.Module)
	name := p.parseModulePath()
	p.expect(token.Semi)
	return &ast.ModuleDecl{Pos: pos(tok), Name: name}
}

func (p *Parser) parseImport() *ast.ImportDecl {
	tok := p.expect(token.Using)
	name := p.parseModulePath()
	p.expect(token.Semi)
	return &ast.ImportDecl{Pos: pos(tok), Module: name}
}

func (p *Parser) parseTopLevelSafe() (nodes []ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(syncSignal); !ok {
				panic(r)
			}
			p.synchronizeTopLevel()
			nodes = nil
		}
	}()
	return p.parseTopLevel()
}

func (p *Parser) parseTopLevel() []ast.Node {
	switch p.current.Kind {
	case token.Struct:
		return []ast.Node{p.parseAggregateDecl(symtab.KindStruct)}
	case token.Union:
		return []ast.Node{p.parseAggregateDecl(symtab.KindUnion)}
	case token.Enum:
		return []ast.Node{p.parseEnumDecl()}
	case token.Typedef:
		return []ast.Node{p.parseTypedefDecl()}
	default:
		t := p.parseType()
		startTok := p.current
		name := p.expectIdentLike()
		if p.check(token.LParen) {
			return []ast.Node{p.parseFunDeclOrDefn(pos(startTok), t, name)}
		}
		return p.parseVarDeclList(pos(startTok), t, name, true)
	}
}

// parseAggregateDecl handles both struct and union, which share grammar and
// incompleteness lifecycle (SPEC_FULL §5/§9).
func (p *Parser) parseAggregateDecl(kind symtab.TypeDefKind) ast.Node {
	kwTok := p.advance() // 'struct' or 'union'
	tagTok := p.current
	tag := p.expectIdentLike()

	existing, hasExisting := p.env.ModuleTable.Symbols[tag]
	var ti *symtab.TypeInfo
	if hasExisting {
		var ok bool
		ti, ok = existing.(*symtab.TypeInfo)
		if !ok || ti.Kind != kind {
			p.errorf(tagTok, "redefinition of '%s' with a different kind", tag)
		}
	} else {
		ti = &symtab.TypeInfo{Kind: kind, Tag: tag, Incomplete: true}
		if err := p.env.DeclareLocal(tag, ti); err != nil {
			p.bag.Errorf(p.file, tagTok.Line, tagTok.Column, tagTok.Len, "%s", err.Error())
		}
	}

	if p.match(token.Semi) {
		return &ast.OpaqueDecl{Pos: pos(kwTok), Tag: tag, Kind: entryKindFor(kind)}
	}

	p.expect(token.LBrace)
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		fieldPos := pos(p.current)
		ft := p.parseType()
		fname := p.expectIdentLike()
		p.expect(token.Semi)
		fields = append(fields, ast.Field{Pos: fieldPos, Name: fname, Type: ft})
	}
	p.expect(token.RBrace)
	p.match(token.Semi) // a ';' after the closing brace is optional

	ti.Incomplete = false
	ti.Fields = fields

	if kind == symtab.KindStruct {
		return &ast.StructDecl{Pos: pos(kwTok), Type: &ast.Aggregate{Pos: pos(tagTok), Tag: tag, Fields: fields}}
	}
	return &ast.UnionDecl{Pos: pos(kwTok), Type: &ast.UnionType{Pos: pos(tagTok), Tag: tag, Fields: fields}}
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

func (p *Parser) parseEnumDecl() ast.Node {
	kwTok := p.advance()
	tagTok := p.current
	tag := p.expectIdentLike()

	if p.match(token.Semi) {
		ti := &symtab.TypeInfo{Kind: symtab.KindEnum, Tag: tag, Incomplete: true}
		if err := p.env.DeclareLocal(tag, ti); err != nil {
			p.bag.Errorf(p.file, tagTok.Line, tagTok.Column, tagTok.Len, "%s", err.Error())
		}
		return &ast.OpaqueDecl{Pos: pos(kwTok), Tag: tag, Kind: ast.EntryEnum}
	}

	p.expect(token.LBrace)
	var names []string
	var values []int64
	next := int64(0)
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		name := p.expectIdentLike()
		val := next
		if p.match(token.Assign) {
			litTok := p.expect(token.IntLit)
			val = parseIntLiteral(litTok.Payload)
		}
		names = append(names, name)
		values = append(values, val)
		next = val + 1
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	p.expect(token.Semi)

	enumType := &ast.EnumType{Pos: pos(tagTok), Tag: tag, Constants: names, Values: values}
	ti := &symtab.TypeInfo{Kind: symtab.KindEnum, Tag: tag, Enum: enumType}
	if err := p.env.DeclareLocal(tag, ti); err != nil {
		p.bag.Errorf(p.file, tagTok.Line, tagTok.Column, tagTok.Len, "%s", err.Error())
	}
	return &ast.EnumDecl{Pos: pos(kwTok), Type: enumType}
}

func (p *Parser) parseTypedefDecl() ast.Node {
	kwTok := p.advance()
	target := p.parseType()
	nameTok := p.current
	name := p.expectIdentLike()
	p.expect(token.Semi)

	ti := &symtab.TypeInfo{Kind: symtab.KindTypedef, Tag: name, Underlying: target}
	if err := p.env.DeclareLocal(name, ti); err != nil {
		p.bag.Errorf(p.file, nameTok.Line, nameTok.Column, nameTok.Len, "%s", err.Error())
	}
	return &ast.TypedefDecl{Pos: pos(kwTok), Name: name, Target: target}
}

func (p *Parser) parseVarDeclList(startPos ast.Pos, t ast.Type, firstName string, topLevel bool) []ast.Node {
	makeOne := func(namePos ast.Pos, name string) ast.Node {
		var init ast.Expr
		if p.match(token.Assign) {
			init = p.parseAssignExpr()
		}
		if topLevel && !p.isCode {
			return &ast.VarDecl{Pos: namePos, Name: name, Type: t}
		}
		return &ast.VarDefnStmt{Pos: namePos, Name: name, Type: t, Init: init}
	}
	nodes := []ast.Node{makeOne(startPos, firstName)}
	for p.match(token.Comma) {
		namePos := pos(p.current)
		name := p.expectIdentLike()
		nodes = append(nodes, makeOne(namePos, name))
	}
	p.expect(token.Semi)
	return nodes
}

func (p *Parser) parseParamList() ([]ast.Param, bool) {
	p.expect(token.LParen)
	var params []ast.Param
	variadic := false
	if !p.check(token.RParen) {
		for {
			if p.check(token.Ellipsis) {
				p.advance()
				variadic = true
				break
			}
			pPos := pos(p.current)
			t := p.parseType()
			name := ""
			if p.check(token.Ident) || p.check(token.TypeID) {
				name = p.advance().Payload
			}
			params = append(params, ast.Param{Pos: pPos, Name: name, Type: t})
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RParen)
	return params, variadic
}

func (p *Parser) parseFunDeclOrDefn(declPos ast.Pos, ret ast.Type, name string) ast.Node {
	params, variadic := p.parseParamList()
	decl := &ast.FunDecl{Pos: declPos, Name: name, Return: ret, Params: params, Variadic: variadic, Overload: -1}

	if p.match(token.Semi) {
		return decl
	}
	if p.check(token.LBrace) {
		if !p.isCode {
			p.bag.Errorf(p.file, p.current.Line, p.current.Column, p.current.Len,
				"function definitions are not permitted in declaration modules")
		}
		body := p.parseCompoundStmt()
		return &ast.Function{Pos: declPos, Decl: decl, Body: body}
	}
	p.errorf(p.current, "expected ';' or function body, but found %s", p.current.String())
	return decl
}

// ---- Statements ----

func (p *Parser) parseCompoundStmt() *ast.CompoundStmt {
	openTok := p.expect(token.LBrace)
	cs := &ast.CompoundStmt{Pos: pos(openTok)}
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		cs.Stmts = append(cs.Stmts, p.parseBlockItemSafe()...)
	}
	p.expect(token.RBrace)
	return cs
}

func (p *Parser) parseBlockItemSafe() (nodes []ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(syncSignal); !ok {
				panic(r)
			}
			p.synchronizeBlock()
			nodes = nil
		}
	}()
	return p.parseBlockItem()
}

func (p *Parser) parseBlockItem() []ast.Node {
	if p.startsType(p.current.Kind) {
		startTok := p.current
		t := p.parseType()
		name := p.expectIdentLike()
		return p.parseVarDeclList(pos(startTok), t, name, false)
	}
	return []ast.Node{p.parseStmt()}
}

func (p *Parser) parseStmt() ast.Node {
	switch p.current.Kind {
	case token.LBrace:
		return p.parseCompoundStmt()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.Do:
		return p.parseDoWhile()
	case token.For:
		return p.parseFor()
	case token.Switch:
		return p.parseSwitch()
	case token.Case:
		tok := p.advance()
		v := p.parseExpr()
		p.expect(token.Colon)
		return &ast.CaseStmt{Pos: pos(tok), Value: v}
	case token.Default:
		tok := p.advance()
		p.expect(token.Colon)
		return &ast.DefaultStmt{Pos: pos(tok)}
	case token.Break:
		tok := p.advance()
		p.expect(token.Semi)
		return &ast.BreakStmt{Pos: pos(tok)}
	case token.Continue:
		tok := p.advance()
		p.expect(token.Semi)
		return &ast.ContinueStmt{Pos: pos(tok)}
	case token.Return:
		tok := p.advance()
		if p.match(token.Semi) {
			return &ast.ReturnStmt{Pos: pos(tok)}
		}
		v := p.parseExpr()
		p.expect(token.Semi)
		return &ast.ReturnStmt{Pos: pos(tok), Value: v}
	case token.Asm:
		tok := p.advance()
		strTok := p.expect(token.StringLit)
		p.expect(token.Semi)
		return &ast.AsmStmt{Pos: pos(tok), Text: strTok.Payload}
	case token.Semi:
		tok := p.advance()
		return &ast.NullStmt{Pos: pos(tok)}
	default:
		tok := p.current
		e := p.parseExpr()
		p.expect(token.Semi)
		return &ast.ExpressionStmt{Pos: pos(tok), Expr: e}
	}
}

func (p *Parser) parseIf() ast.Node {
	tok := p.expect(token.If)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseStmt()
	var elseNode ast.Node
	if p.match(token.Else) {
		elseNode = p.parseStmt()
	}
	return &ast.IfStmt{Pos: pos(tok), Cond: cond, Then: then, Else: elseNode}
}

func (p *Parser) parseWhile() ast.Node {
	tok := p.expect(token.While)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStmt()
	return &ast.WhileStmt{Pos: pos(tok), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() ast.Node {
	tok := p.expect(token.Do)
	body := p.parseStmt()
	p.expect(token.While)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	p.expect(token.Semi)
	return &ast.DoWhileStmt{Pos: pos(tok), Body: body, Cond: cond}
}

func (p *Parser) parseFor() ast.Node {
	tok := p.expect(token.For)
	p.expect(token.LParen)

	var init ast.Node
	if !p.check(token.Semi) {
		if p.startsType(p.current.Kind) {
			startTok := p.current
			t := p.parseType()
			name := p.expectIdentLike()
			var initExpr ast.Expr
			if p.match(token.Assign) {
				initExpr = p.parseAssignExpr()
			}
			init = &ast.VarDefnStmt{Pos: pos(startTok), Name: name, Type: t, Init: initExpr}
		} else {
			eTok := p.current
			init = &ast.ExpressionStmt{Pos: pos(eTok), Expr: p.parseExpr()}
		}
	}
	p.expect(token.Semi)

	var cond ast.Expr
	if !p.check(token.Semi) {
		cond = p.parseExpr()
	}
	p.expect(token.Semi)

	var upd ast.Expr
	if !p.check(token.RParen) {
		upd = p.parseExpr()
	}
	p.expect(token.RParen)

	body := p.parseStmt()
	return &ast.ForStmt{Pos: pos(tok), Init: init, Cond: cond, Upd: upd, Body: body}
}

func (p *Parser) parseSwitch() ast.Node {
	tok := p.expect(token.Switch)
	p.expect(token.LParen)
	tag := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseCompoundStmt()
	return &ast.SwitchStmt{Pos: pos(tok), Tag: tag, Body: body}
}

// ---- Types ----

func primKindFromToken(k token.Kind) ast.PrimKind {
	switch k {
	case token.KwByte:
		return ast.PByte
	case token.KwUbyte:
		return ast.PUbyte
	case token.KwShort:
		return ast.PShort
	case token.KwUshort:
		return ast.PUshort
	case token.KwInt:
		return ast.PInt
	case token.KwUint:
		return ast.PUint
	case token.KwLong:
		return ast.PLong
	case token.KwUlong:
		return ast.PUlong
	case token.KwChar:
		return ast.PChar
	case token.KwWchar:
		return ast.PWchar
	case token.KwFloat:
		return ast.PFloat
	case token.KwDouble:
		return ast.PDouble
	case token.KwBool:
		return ast.PBool
	default:
		return ast.PVoid
	}
}

func (p *Parser) parseBaseType() ast.Type {
	tok := p.current
	if token.IsPrimitiveTypeKeyword(tok.Kind) {
		p.advance()
		return &ast.Keyword{Pos: pos(tok), Kind: primKindFromToken(tok.Kind)}
	}
	if tok.Kind == token.TypeID {
		p.advance()
		name := tok.Payload
		module := ""
		if p.match(token.ColonColon) {
			module = name
			name = p.expectIdentLike()
		}
		return &ast.Reference{Pos: pos(tok), Module: module, Name: name}
	}
	p.errorf(tok, "expected a type, but found %s", tok.String())
	return &ast.Keyword{Pos: pos(tok), Kind: ast.PVoid}
}

func (p *Parser) parseType() ast.Type {
	t := p.parseBaseType()
	for {
		switch p.current.Kind {
		case token.Const:
			p.advance()
			t = &ast.Qualified{Pos: t.Position(), Const: true, Base: t}
		case token.Volatile:
			p.advance()
			t = &ast.Qualified{Pos: t.Position(), Volatile: true, Base: t}
		case token.LBracket:
			openTok := p.advance()
			length := int64(-1)
			if p.check(token.IntLit) {
				length = parseIntLiteral(p.current.Payload)
				p.advance()
			}
			p.expect(token.RBracket)
			t = &ast.Array{Pos: pos(openTok), Length: length, Elem: t}
		case token.Star:
			starTok := p.advance()
			t = &ast.Pointer{Pos: pos(starTok), Base: t}
		case token.LParen:
			openTok := p.advance()
			var args []ast.Type
			if !p.check(token.RParen) {
				args = append(args, p.parseType())
				for p.match(token.Comma) {
					args = append(args, p.parseType())
				}
			}
			p.expect(token.RParen)
			t = &ast.FunPtr{Pos: pos(openTok), Return: t, Args: args}
		default:
			return t
		}
	}
}

// ---- Expressions ----

func (p *Parser) parseExpr() ast.Expr { return p.parseSeq() }

func (p *Parser) parseSeq() ast.Expr {
	first := p.parseTernary()
	if !p.check(token.Comma) {
		return first
	}
	elems := []ast.Expr{first}
	for p.match(token.Comma) {
		elems = append(elems, p.parseTernary())
	}
	return ast.NewSeq(first.Position(), elems)
}

func (p *Parser) parseTernary() ast.Expr {
	cond := p.parseAssignExpr()
	if p.match(token.Question) {
		then := p.parseAssignExpr()
		p.expect(token.Colon)
		elseExpr := p.parseTernary()
		return ast.NewTernary(cond.Position(), cond, then, elseExpr)
	}
	return cond
}

func binOpKindFromAssign(k token.Kind) ast.BinOpKind {
	switch k {
	case token.PlusAssign:
		return ast.OpAddAssign
	case token.MinusAssign:
		return ast.OpSubAssign
	case token.StarAssign:
		return ast.OpMulAssign
	case token.SlashAssign:
		return ast.OpDivAssign
	case token.RemAssign:
		return ast.OpRemAssign
	case token.AndAssign:
		return ast.OpAndAssign
	case token.OrAssign:
		return ast.OpOrAssign
	case token.XorAssign:
		return ast.OpXorAssign
	case token.ShlAssign:
		return ast.OpShlAssign
	case token.ShrAssign:
		return ast.OpShrAssign
	case token.AShrAssign:
		return ast.OpAShrAssign
	default:
		return ast.OpAssign
	}
}

// parseAssignExpr parses the assignment-variants level; used both as the
// generic "expression" building block and for ternary arms and call/index
// arguments (spec §4.3 excludes comma from these positions).
func (p *Parser) parseAssignExpr() ast.Expr {
	left := p.parseLogicalOr()
	if !token.IsAssignOp(p.current.Kind) {
		return left
	}
	opTok := p.advance()
	right := p.parseAssignExpr()
	switch opTok.Kind {
	case token.LAndAssign:
		return ast.NewLAndAssign(left.Position(), left, right)
	case token.LOrAssign:
		return ast.NewLOrAssign(left.Position(), left, right)
	default:
		return ast.NewBinOp(left.Position(), binOpKindFromAssign(opTok.Kind), left, right)
	}
}

func (p *Parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.check(token.OrOr) {
		p.advance()
		right := p.parseLogicalAnd()
		left = ast.NewLOr(left.Position(), left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	left := p.parseBitOr()
	for p.check(token.AndAnd) {
		p.advance()
		right := p.parseBitOr()
		left = ast.NewLAnd(left.Position(), left, right)
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expr {
	left := p.parseBitXor()
	for p.check(token.Pipe) {
		p.advance()
		right := p.parseBitXor()
		left = ast.NewBinOp(left.Position(), ast.OpOr, left, right)
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expr {
	left := p.parseBitAnd()
	for p.check(token.Caret) {
		p.advance()
		right := p.parseBitAnd()
		left = ast.NewBinOp(left.Position(), ast.OpXor, left, right)
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expr {
	left := p.parseEquality()
	for p.check(token.Amp) {
		p.advance()
		right := p.parseEquality()
		left = ast.NewBinOp(left.Position(), ast.OpAnd, left, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.check(token.EqEq) || p.check(token.Neq) {
		op := p.advance()
		right := p.parseRelational()
		kind := ast.CmpEq
		if op.Kind == token.Neq {
			kind = ast.CmpNe
		}
		left = ast.NewCompOp(left.Position(), kind, left, right)
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseSpaceship()
	for p.check(token.Lt) || p.check(token.Gt) || p.check(token.Le) || p.check(token.Ge) {
		op := p.advance()
		right := p.parseSpaceship()
		var kind ast.CompOpKind
		switch op.Kind {
		case token.Lt:
			kind = ast.CmpLt
		case token.Gt:
			kind = ast.CmpGt
		case token.Le:
			kind = ast.CmpLe
		default:
			kind = ast.CmpGe
		}
		left = ast.NewCompOp(left.Position(), kind, left, right)
	}
	return left
}

func (p *Parser) parseSpaceship() ast.Expr {
	left := p.parseShift()
	for p.check(token.Spaceship) {
		p.advance()
		right := p.parseShift()
		left = ast.NewBinOp(left.Position(), ast.OpSpaceship, left, right)
	}
	return left
}

func (p *Parser) parseShift() ast.Expr {
	left := p.parseAdditive()
	for p.check(token.Shl) || p.check(token.Shr) || p.check(token.AShr) {
		op := p.advance()
		right := p.parseAdditive()
		var kind ast.BinOpKind
		switch op.Kind {
		case token.Shl:
			kind = ast.OpShl
		case token.Shr:
			kind = ast.OpShr
		default:
			kind = ast.OpAShr
		}
		left = ast.NewBinOp(left.Position(), kind, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.advance()
		right := p.parseMultiplicative()
		kind := ast.OpAdd
		if op.Kind == token.Minus {
			kind = ast.OpSub
		}
		left = ast.NewBinOp(left.Position(), kind, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Rem) {
		op := p.advance()
		right := p.parseUnary()
		var kind ast.BinOpKind
		switch op.Kind {
		case token.Star:
			kind = ast.OpMul
		case token.Slash:
			kind = ast.OpDiv
		default:
			kind = ast.OpRem
		}
		left = ast.NewBinOp(left.Position(), kind, left, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.current.Kind {
	case token.Star:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpDeref, p.parseUnary(), false)
	case token.Amp:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpAddrOf, p.parseUnary(), false)
	case token.Inc:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpInc, p.parseUnary(), false)
	case token.Dec:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpDec, p.parseUnary(), false)
	case token.Plus:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpPos, p.parseUnary(), false)
	case token.Minus:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpNeg, p.parseUnary(), false)
	case token.Bang:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpNot, p.parseUnary(), false)
	case token.Tilde:
		tok := p.advance()
		return ast.NewUnOp(pos(tok), ast.OpCompl, p.parseUnary(), false)
	case token.Cast:
		tok := p.advance()
		p.expect(token.LBracket)
		target := p.parseType()
		p.expect(token.RBracket)
		p.expect(token.LParen)
		operand := p.parseAssignExpr()
		p.expect(token.RParen)
		return ast.NewCast(pos(tok), target, operand)
	case token.Sizeof:
		tok := p.advance()
		p.expect(token.LParen)
		if p.startsType(p.current.Kind) {
			t := p.parseType()
			p.expect(token.RParen)
			return ast.NewSizeofType(pos(tok), t)
		}
		e := p.parseExpr()
		p.expect(token.RParen)
		return ast.NewSizeofExp(pos(tok), e)
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.current.Kind {
		case token.Dot:
			p.advance()
			member := p.expectIdentLike()
			e = ast.NewStructAccess(e.Position(), e, member)
		case token.Arrow:
			p.advance()
			member := p.expectIdentLike()
			e = ast.NewStructPtrAccess(e.Position(), e, member)
		case token.LParen:
			p.advance()
			args := p.parseArgList()
			p.expect(token.RParen)
			e = ast.NewFnCall(e.Position(), e, args)
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			e = ast.NewSubscript(e.Position(), e, idx)
		case token.Inc:
			p.advance()
			e = ast.NewUnOp(e.Position(), ast.OpInc, e, true)
		case token.Dec:
			p.advance()
			e = ast.NewUnOp(e.Position(), ast.OpDec, e, true)
		default:
			return e
		}
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	if p.check(token.RParen) {
		return nil
	}
	args := []ast.Expr{p.parseAssignExpr()}
	for p.match(token.Comma) {
		args = append(args, p.parseAssignExpr())
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.current
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstInt)
		c.I = parseIntLiteral(tok.Payload)
		return c
	case token.FloatLit:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstFloat)
		f, _ := strconv.ParseFloat(tok.Payload, 64)
		c.F = f
		return c
	case token.StringLit:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstString)
		c.S = tok.Payload
		return c
	case token.WStringLit:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstWString)
		c.S = tok.Payload
		return c
	case token.CharLit:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstChar)
		c.I = firstRuneCode(tok.Payload)
		return c
	case token.WCharLit:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstWChar)
		c.I = firstRuneCode(tok.Payload)
		return c
	case token.True:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstBool)
		c.I = 1
		return c
	case token.False:
		p.advance()
		c := ast.NewConst(pos(tok), ast.ConstBool)
		c.I = 0
		return c
	case token.Null:
		p.advance()
		return ast.NewConst(pos(tok), ast.ConstNull)
	case token.Ident, token.TypeID:
		return p.parseIdOrScoped()
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.Lt:
		p.advance()
		var elems []ast.Expr
		// Elements are parsed above the relational level so the closing '>'
		// is not read as greater-than; a comparison, assignment or ternary
		// element needs parentheses.
		if !p.check(token.Gt) {
			elems = append(elems, p.parseSpaceship())
			for p.match(token.Comma) {
				elems = append(elems, p.parseSpaceship())
			}
		}
		p.expect(token.Gt)
		return ast.NewAggregateInit(pos(tok), elems)
	default:
		p.errorf(tok, "expected an expression, but found %s", tok.String())
		return ast.NewConst(pos(tok), ast.ConstInt)
	}
}

func (p *Parser) parseIdOrScoped() ast.Expr {
	tok := p.advance()
	name := tok.Payload
	module, scope := "", ""
	if p.match(token.ColonColon) {
		second := p.expectIdentLike()
		if p.match(token.ColonColon) {
			third := p.expectIdentLike()
			module, scope, name = name, second, third
		} else {
			module, name = name, second
		}
	}
	return ast.NewId(pos(tok), module, scope, name)
}

func parseIntLiteral(s string) int64 {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, _ := strconv.ParseInt(s[2:], 16, 64)
		return v
	}
	if strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B") {
		v, _ := strconv.ParseInt(s[2:], 2, 64)
		return v
	}
	if len(s) > 1 && s[0] == '0' {
		v, _ := strconv.ParseInt(s, 8, 64)
		return v
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func firstRuneCode(s string) int64 {
	for _, r := range s {
		return int64(r)
	}
	return 0
}
