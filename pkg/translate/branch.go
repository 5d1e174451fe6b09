package translate

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

// pickCondJump chooses the conditional-jump operator for a comparison,
// picking the floating, unsigned, or signed variant by operand type (spec
// §4.9 "Jump-if / Jump-if-not").
func pickCondJump(op ast.CompOpKind, isFloat, unsigned bool) ir.Operator {
	if isFloat {
		switch op {
		case ast.CmpEq:
			return ir.OpFPJE
		case ast.CmpNe:
			return ir.OpFPJNE
		case ast.CmpLt:
			return ir.OpFPJL
		case ast.CmpLe:
			return ir.OpFPJLE
		case ast.CmpGt:
			return ir.OpFPJG
		default:
			return ir.OpFPJGE
		}
	}
	if unsigned {
		switch op {
		case ast.CmpEq:
			return ir.OpJE
		case ast.CmpNe:
			return ir.OpJNE
		case ast.CmpLt:
			return ir.OpJB
		case ast.CmpLe:
			return ir.OpJBE
		case ast.CmpGt:
			return ir.OpJA
		default:
			return ir.OpJAE
		}
	}
	switch op {
	case ast.CmpEq:
		return ir.OpJE
	case ast.CmpNe:
		return ir.OpJNE
	case ast.CmpLt:
		return ir.OpJL
	case ast.CmpLe:
		return ir.OpJLE
	case ast.CmpGt:
		return ir.OpJG
	default:
		return ir.OpJGE
	}
}

func pickCompareOp(op ast.CompOpKind, isFloat, unsigned bool) ir.Operator {
	if isFloat {
		switch op {
		case ast.CmpEq:
			return ir.OpFPE
		case ast.CmpNe:
			return ir.OpFPNE
		case ast.CmpLt:
			return ir.OpFPL
		case ast.CmpLe:
			return ir.OpFPLE
		case ast.CmpGt:
			return ir.OpFPG
		default:
			return ir.OpFPGE
		}
	}
	if unsigned {
		switch op {
		case ast.CmpEq:
			return ir.OpE
		case ast.CmpNe:
			return ir.OpNE
		case ast.CmpLt:
			return ir.OpB
		case ast.CmpLe:
			return ir.OpBE
		case ast.CmpGt:
			return ir.OpA
		default:
			return ir.OpAE
		}
	}
	switch op {
	case ast.CmpEq:
		return ir.OpE
	case ast.CmpNe:
		return ir.OpNE
	case ast.CmpLt:
		return ir.OpL
	case ast.CmpLe:
		return ir.OpLE
	case ast.CmpGt:
		return ir.OpG
	default:
		return ir.OpGE
	}
}

func negateCompOp(op ast.CompOpKind) ast.CompOpKind {
	switch op {
	case ast.CmpEq:
		return ast.CmpNe
	case ast.CmpNe:
		return ast.CmpEq
	case ast.CmpLt:
		return ast.CmpGe
	case ast.CmpLe:
		return ast.CmpGt
	case ast.CmpGt:
		return ast.CmpLe
	default:
		return ast.CmpLt
	}
}

func (fs *funcState) compareValue(op ast.CompOpKind, l, r ir.Operand, operandType ast.Type, resultSize int) ir.Operand {
	isFloat := types.KindOf(operandType) == types.SSE
	unsigned := isUnsignedType(operandType)
	dst := fs.ta.Allocate(resultSize, resultSize, types.GP)
	fs.emit(ir.Entry{Op: pickCompareOp(op, isFloat, unsigned), Size: resultSize, Dest: dst, Arg1: l, Arg2: r})
	return dst
}

// emitJumpIf/emitJumpIfNot implement spec §4.9's dedicated branch
// translator: `!x` swaps target polarity, `a && b` chains jumpIfNot a to a
// fallout label then jumpIf b straight to the target, `a || b` chains two
// plain jumpIf calls, and a bare comparison picks a direct conditional jump
// instead of materializing a 0/1 value first. Anything else falls back to
// evaluating the expression and comparing it against zero.
func (fs *funcState) emitJumpIf(target string, cond ast.Expr) {
	switch v := cond.(type) {
	case *ast.UnOp:
		if v.Op == ast.OpNot {
			fs.emitJumpIfNot(target, v.Operand)
			return
		}
	case *ast.LAnd:
		fallout := fs.newLabel()
		fs.emitJumpIfNot(fallout, v.Left)
		fs.emitJumpIf(target, v.Right)
		fs.emit(ir.Label(fallout))
		return
	case *ast.LOr:
		fs.emitJumpIf(target, v.Left)
		fs.emitJumpIf(target, v.Right)
		return
	case *ast.CompOp:
		ot := commonNumericType(v.Left.Type(), v.Right.Type(), fs.tr.cfg)
		l := fs.castTo(fs.translateExpr(v.Left), v.Left.Type(), ot)
		r := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), ot)
		isFloat := types.KindOf(ot) == types.SSE
		unsigned := isUnsignedType(ot)
		fs.emit(ir.Entry{Op: pickCondJump(v.Op, isFloat, unsigned), Size: types.Size(ot, fs.tr.cfg),
			Dest: ir.Name{Label: target}, Arg1: l, Arg2: r})
		return
	}
	fs.jumpOnZero(target, cond, true)
}

func (fs *funcState) emitJumpIfNot(target string, cond ast.Expr) {
	switch v := cond.(type) {
	case *ast.UnOp:
		if v.Op == ast.OpNot {
			fs.emitJumpIf(target, v.Operand)
			return
		}
	case *ast.LAnd:
		fs.emitJumpIfNot(target, v.Left)
		fs.emitJumpIfNot(target, v.Right)
		return
	case *ast.LOr:
		fallout := fs.newLabel()
		fs.emitJumpIf(fallout, v.Left)
		fs.emitJumpIfNot(target, v.Right)
		fs.emit(ir.Label(fallout))
		return
	case *ast.CompOp:
		ot := commonNumericType(v.Left.Type(), v.Right.Type(), fs.tr.cfg)
		l := fs.castTo(fs.translateExpr(v.Left), v.Left.Type(), ot)
		r := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), ot)
		isFloat := types.KindOf(ot) == types.SSE
		unsigned := isUnsignedType(ot)
		fs.emit(ir.Entry{Op: pickCondJump(negateCompOp(v.Op), isFloat, unsigned), Size: types.Size(ot, fs.tr.cfg),
			Dest: ir.Name{Label: target}, Arg1: l, Arg2: r})
		return
	}
	fs.jumpOnZero(target, cond, false)
}

// jumpOnZero is the fallback for a condition that is neither a negation, a
// short-circuit form, nor a direct comparison: evaluate it and compare the
// result against zero (IEEE754 +0.0 is the all-zero bit pattern at any
// width, so a single zero Const serves both integer and float operands).
func (fs *funcState) jumpOnZero(target string, cond ast.Expr, nonZero bool) {
	v := fs.translateExpr(cond)
	t := cond.Type()
	isFloat := types.KindOf(t) == types.SSE
	op := ir.OpJNE
	switch {
	case isFloat && nonZero:
		op = ir.OpFPJNE
	case isFloat:
		op = ir.OpFPJE
	case nonZero:
		op = ir.OpJNE
	default:
		op = ir.OpJE
	}
	fs.emit(ir.Entry{Op: op, Size: types.Size(t, fs.tr.cfg), Dest: ir.Name{Label: target}, Arg1: v, Arg2: ir.Const{Bits: 0}})
}
