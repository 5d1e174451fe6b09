package translate

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/frame"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/symtab"
	"github.com/tlc-lang/tlc/pkg/types"
)

// funcState carries everything one function's translation needs: the
// TempAllocator (spec §5: "a fresh TempAllocator is created per function"),
// the Frame handing out Accesses, the growing instruction list, and the
// break/continue label stack for the loop/switch currently being lowered.
type funcState struct {
	tr  *Translator
	fr  frame.Frame
	fv  *ir.FragmentVector
	ta  *ir.TempAllocator
	out []ir.Entry

	retAccess frame.Access
	retType   ast.Type
	exitLabel string

	breakLabels    []string
	continueLabels []string
}

func (fs *funcState) emit(e ir.Entry) { fs.out = append(fs.out, e) }

func (fs *funcState) newLabel() string { return fs.tr.labels.NewLabel() }

func (fs *funcState) pushLoop(brk, cont string) {
	fs.breakLabels = append(fs.breakLabels, brk)
	fs.continueLabels = append(fs.continueLabels, cont)
}

func (fs *funcState) popLoop() {
	fs.breakLabels = fs.breakLabels[:len(fs.breakLabels)-1]
	fs.continueLabels = fs.continueLabels[:len(fs.continueLabels)-1]
}

func paramTypes(d *ast.FunDecl) []ast.Type {
	ts := make([]ast.Type, len(d.Params))
	for i, p := range d.Params {
		ts[i] = p.Type
	}
	return ts
}

// translateFunction lowers one definition into a TEXT fragment (spec §4.9
// "Functions"): Frame allocates the formal and return-value Accesses, the
// body is translated, an exit label and the frame's entry/exit wrapping are
// applied last.
func (tr *Translator) translateFunction(fv *ir.FragmentVector, fn *ast.Function) {
	decl := fn.Decl
	label := mangleFunc(tr.module, decl.Name, paramTypes(decl))
	fr := tr.frameCtor(label)

	fs := &funcState{tr: tr, fr: fr, fv: fv, ta: ir.NewTempAllocator(), retType: decl.Return, exitLabel: label + "_exit"}
	fs.retAccess = fr.AllocRetVal(decl.Return)

	params := make([]ir.Param, len(decl.Params))
	for i := range decl.Params {
		p := &decl.Params[i]
		acc := fr.AllocArg(p.Type, false)
		if vi, ok := p.Symbol.(*symtab.VarInfo); ok {
			vi.Access = acc
		}
		var off int64
		if so, ok := acc.(interface{ StackOffset() int64 }); ok {
			off = so.StackOffset()
		}
		params[i] = ir.Param{Slot: ir.StackOffset{Offset: off},
			Size: types.Size(p.Type, tr.cfg), Kind: types.KindOf(p.Type)}
	}

	for _, s := range fn.Body.Stmts {
		fs.translateStmt(s)
	}

	body := fr.GenerateEntryExit(fs.out)
	fv.Add(&ir.TextFragment{Name: label, Body: body, Params: params})
}

func (fs *funcState) translateStmt(n ast.Node) {
	switch s := n.(type) {
	case *ast.CompoundStmt:
		for _, st := range s.Stmts {
			fs.translateStmt(st)
		}
	case *ast.IfStmt:
		fs.translateIf(s)
	case *ast.WhileStmt:
		fs.translateWhile(s)
	case *ast.DoWhileStmt:
		fs.translateDoWhile(s)
	case *ast.ForStmt:
		fs.translateFor(s)
	case *ast.SwitchStmt:
		fs.translateSwitch(s)
	case *ast.BreakStmt:
		if len(fs.breakLabels) == 0 {
			fs.tr.internal(0, "break with no enclosing loop/switch reached translation")
			return
		}
		fs.emit(ir.Jump(fs.breakLabels[len(fs.breakLabels)-1]))
	case *ast.ContinueStmt:
		if len(fs.continueLabels) == 0 {
			fs.tr.internal(0, "continue with no enclosing loop reached translation")
			return
		}
		fs.emit(ir.Jump(fs.continueLabels[len(fs.continueLabels)-1]))
	case *ast.ReturnStmt:
		fs.translateReturn(s)
	case *ast.AsmStmt:
		fs.emit(ir.Asmline(s.Text))
	case *ast.ExpressionStmt:
		fs.translateExpr(s.Expr)
	case *ast.VarDefnStmt:
		fs.translateLocalVar(s)
	case *ast.NullStmt, *ast.StructDecl, *ast.UnionDecl, *ast.EnumDecl,
		*ast.TypedefDecl, *ast.OpaqueDecl, *ast.FunDecl:
		// Declarative forms produce no IR (spec §4.9).
	default:
		fs.tr.internal(0, "unhandled statement %T in translation", n)
	}
}

func (fs *funcState) translateLocalVar(s *ast.VarDefnStmt) {
	acc := fs.fr.AllocLocal(s.Type, false)
	if vi, ok := s.Symbol.(*symtab.VarInfo); ok {
		vi.Access = acc
	}
	if s.Init == nil {
		return
	}
	if types.KindOf(s.Type) == types.MEM {
		fs.storeInto(acc.Addr(&fs.out, fs.ta), 0, s.Type, s.Init)
		return
	}
	v := fs.translateExpr(s.Init)
	v = fs.castTo(v, s.Init.Type(), s.Type)
	acc.Store(&fs.out, v, fs.ta)
}

func (fs *funcState) translateIf(s *ast.IfStmt) {
	if s.Else == nil {
		end := fs.newLabel()
		fs.emitJumpIfNot(end, s.Cond)
		fs.translateStmt(s.Then)
		fs.emit(ir.Label(end))
		return
	}
	elseL := fs.newLabel()
	end := fs.newLabel()
	fs.emitJumpIfNot(elseL, s.Cond)
	fs.translateStmt(s.Then)
	fs.emit(ir.Jump(end))
	fs.emit(ir.Label(elseL))
	fs.translateStmt(s.Else)
	fs.emit(ir.Label(end))
}

func (fs *funcState) translateWhile(s *ast.WhileStmt) {
	start := fs.newLabel()
	end := fs.newLabel()
	fs.emit(ir.Label(start))
	fs.emitJumpIfNot(end, s.Cond)
	fs.pushLoop(end, start)
	fs.translateStmt(s.Body)
	fs.popLoop()
	fs.emit(ir.Jump(start))
	fs.emit(ir.Label(end))
}

func (fs *funcState) translateDoWhile(s *ast.DoWhileStmt) {
	start := fs.newLabel()
	loopContinue := fs.newLabel()
	end := fs.newLabel()
	fs.emit(ir.Label(start))
	fs.pushLoop(end, loopContinue)
	fs.translateStmt(s.Body)
	fs.popLoop()
	fs.emit(ir.Label(loopContinue))
	fs.emitJumpIf(start, s.Cond)
	fs.emit(ir.Label(end))
}

func (fs *funcState) translateFor(s *ast.ForStmt) {
	if s.Init != nil {
		fs.translateStmt(s.Init)
	}
	start := fs.newLabel()
	upd := fs.newLabel()
	end := fs.newLabel()
	fs.emit(ir.Label(start))
	if s.Cond != nil {
		fs.emitJumpIfNot(end, s.Cond)
	}
	fs.pushLoop(end, upd)
	fs.translateStmt(s.Body)
	fs.popLoop()
	fs.emit(ir.Label(upd))
	if s.Upd != nil {
		fs.translateExpr(s.Upd)
	}
	fs.emit(ir.Jump(start))
	fs.emit(ir.Label(end))
}

// translateSwitch lowers to a chained comparison sequence (spec §4.9): the
// tag is evaluated once, each case value is compared against it in source
// order, and the body is emitted afterward with per-case labels. Case
// bodies do not implicitly fall through: a jump to the end is emitted before
// every case/default label that follows a statement, while labels with no
// statement between them share the body that follows them.
func (fs *funcState) translateSwitch(s *ast.SwitchStmt) {
	tag := fs.translateExpr(s.Tag)
	tagSize := types.Size(s.Tag.Type(), fs.tr.cfg)

	end := fs.newLabel()
	caseLabels := map[ast.Node]string{}
	defaultLabel := ""
	for _, item := range s.Body.Stmts {
		switch cs := item.(type) {
		case *ast.CaseStmt:
			l := fs.newLabel()
			caseLabels[cs] = l
			v, _ := foldConstInt(cs.Value)
			fs.emit(ir.Entry{Op: ir.OpJE, Size: tagSize, Dest: ir.Name{Label: l}, Arg1: tag, Arg2: ir.Const{Bits: uint64(v)}})
		case *ast.DefaultStmt:
			defaultLabel = fs.newLabel()
		}
	}
	if defaultLabel != "" {
		fs.emit(ir.Jump(defaultLabel))
	} else {
		fs.emit(ir.Jump(end))
	}

	fs.pushLoop(end, fs.currentContinueOrEnd(end))
	inBody := false
	for _, item := range s.Body.Stmts {
		switch cs := item.(type) {
		case *ast.CaseStmt:
			if inBody {
				fs.emit(ir.Jump(end))
			}
			inBody = false
			fs.emit(ir.Label(caseLabels[cs]))
		case *ast.DefaultStmt:
			if inBody {
				fs.emit(ir.Jump(end))
			}
			inBody = false
			fs.emit(ir.Label(defaultLabel))
		default:
			fs.translateStmt(item)
			inBody = true
		}
	}
	fs.popLoop()
	fs.emit(ir.Label(end))
}

// currentContinueOrEnd lets `continue` inside a switch fall through to
// whatever loop encloses it, since switch itself has no continue target of
// its own; a switch not nested in a loop never sees continue reach here
// (the checker rejects it), so reusing end is a harmless placeholder.
func (fs *funcState) currentContinueOrEnd(end string) string {
	if len(fs.continueLabels) > 0 {
		return fs.continueLabels[len(fs.continueLabels)-1]
	}
	return end
}

// foldConstInt duplicates typecheck's compile-time integer folding for case
// labels; translation runs after checking already proved every case value
// foldable, so failure here is an internal error.
func foldConstInt(e ast.Expr) (int64, bool) {
	switch v := e.(type) {
	case *ast.Const:
		if v.Kind == ast.ConstInt || v.Kind == ast.ConstChar || v.Kind == ast.ConstWChar || v.Kind == ast.ConstBool {
			return v.I, true
		}
	case *ast.UnOp:
		if inner, ok := foldConstInt(v.Operand); ok {
			switch v.Op {
			case ast.OpNeg:
				return -inner, true
			case ast.OpPos:
				return inner, true
			case ast.OpCompl:
				return ^inner, true
			}
		}
	}
	return 0, false
}

func (fs *funcState) translateReturn(s *ast.ReturnStmt) {
	if s.Value != nil && fs.retAccess != nil {
		if types.KindOf(fs.retType) == types.MEM {
			fs.storeInto(fs.retAccess.Addr(&fs.out, fs.ta), 0, fs.retType, s.Value)
		} else {
			v := fs.castTo(fs.translateExpr(s.Value), s.Value.Type(), fs.retType)
			fs.retAccess.Store(&fs.out, v, fs.ta)
		}
	}
	fs.emit(ir.Jump(fs.exitLabel))
}
