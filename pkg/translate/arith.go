package translate

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

func (fs *funcState) arithOp(k ast.BinOpKind, t ast.Type) ir.Operator {
	if types.KindOf(t) == types.SSE {
		switch k {
		case ast.OpAdd:
			return ir.OpFPAdd
		case ast.OpSub:
			return ir.OpFPSub
		case ast.OpMul:
			return ir.OpFPMul
		case ast.OpDiv:
			return ir.OpFPDiv
		}
		fs.tr.internal(0, "invalid floating-point operator")
		return 0
	}
	unsigned := isUnsignedType(t)
	switch k {
	case ast.OpAdd:
		return ir.OpAdd
	case ast.OpSub:
		return ir.OpSub
	case ast.OpMul:
		if unsigned {
			return ir.OpUMul
		}
		return ir.OpSMul
	case ast.OpDiv:
		if unsigned {
			return ir.OpUDiv
		}
		return ir.OpSDiv
	case ast.OpRem:
		if unsigned {
			return ir.OpUMod
		}
		return ir.OpSMod
	case ast.OpAnd:
		return ir.OpAnd
	case ast.OpOr:
		return ir.OpOr
	case ast.OpXor:
		return ir.OpXor
	case ast.OpShl:
		return ir.OpSLL
	case ast.OpShr:
		return ir.OpSLR
	case ast.OpAShr:
		return ir.OpSAR
	default:
		fs.tr.internal(0, "unhandled binary operator %v", k)
		return 0
	}
}

func binOpForCompound(k ast.BinOpKind) ast.BinOpKind {
	switch k {
	case ast.OpAddAssign:
		return ast.OpAdd
	case ast.OpSubAssign:
		return ast.OpSub
	case ast.OpMulAssign:
		return ast.OpMul
	case ast.OpDivAssign:
		return ast.OpDiv
	case ast.OpRemAssign:
		return ast.OpRem
	case ast.OpAndAssign:
		return ast.OpAnd
	case ast.OpOrAssign:
		return ast.OpOr
	case ast.OpXorAssign:
		return ast.OpXor
	case ast.OpShlAssign:
		return ast.OpShl
	case ast.OpShrAssign:
		return ast.OpShr
	case ast.OpAShrAssign:
		return ast.OpAShr
	default:
		return k
	}
}

func (fs *funcState) translateBinOp(v *ast.BinOp) ir.Operand {
	if v.Op.IsAssign() {
		return fs.translateAssign(v)
	}
	if v.Op == ast.OpSpaceship {
		return fs.translateSpaceship(v)
	}

	lt := types.Resolve(v.Left.Type())
	if p, ok := lt.(*ast.Pointer); ok && (v.Op == ast.OpAdd || v.Op == ast.OpSub) {
		if _, rp := types.Resolve(v.Right.Type()).(*ast.Pointer); rp && v.Op == ast.OpSub {
			return fs.translatePointerDiff(v, p)
		}
		return fs.translatePointerArith(v, p)
	}

	resType := v.Type()
	l := fs.castTo(fs.translateExpr(v.Left), v.Left.Type(), resType)
	r := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), resType)
	size := types.Size(resType, fs.tr.cfg)
	dst := fs.ta.Allocate(size, size, types.KindOf(resType))
	fs.emit(ir.Entry{Op: fs.arithOp(v.Op, resType), Size: size, Dest: dst, Arg1: l, Arg2: r})
	return dst
}

func (fs *funcState) translatePointerDiff(v *ast.BinOp, p *ast.Pointer) ir.Operand {
	size := fs.tr.cfg.PointerWidth
	l := fs.translateExpr(v.Left)
	r := fs.translateExpr(v.Right)
	diff := fs.ta.Allocate(size, size, types.GP)
	fs.emit(ir.Entry{Op: ir.OpSub, Size: size, Dest: diff, Arg1: l, Arg2: r})
	elemSize := types.Size(p.Base, fs.tr.cfg)
	if elemSize <= 1 {
		return diff
	}
	q := fs.ta.Allocate(size, size, types.GP)
	fs.emit(ir.Entry{Op: ir.OpSDiv, Size: size, Dest: q, Arg1: diff, Arg2: ir.Const{Bits: uint64(elemSize)}})
	return q
}

func (fs *funcState) translatePointerArith(v *ast.BinOp, p *ast.Pointer) ir.Operand {
	base := fs.translateExpr(v.Left)
	idx := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), &ast.Keyword{Kind: ast.PLong})
	elemSize := types.Size(p.Base, fs.tr.cfg)
	scaled := fs.scale(idx, elemSize)
	if v.Op == ast.OpSub {
		size := fs.tr.cfg.PointerWidth
		neg := fs.ta.Allocate(size, size, types.GP)
		fs.emit(ir.Entry{Op: ir.OpSub, Size: size, Dest: neg, Arg1: ir.Const{Bits: 0}, Arg2: scaled})
		scaled = neg
	}
	return fs.addPointer(base, scaled)
}

// translateSpaceship lowers a <=> b to (a>b) - (a<b), yielding -1/0/1.
func (fs *funcState) translateSpaceship(v *ast.BinOp) ir.Operand {
	ot := commonNumericType(v.Left.Type(), v.Right.Type(), fs.tr.cfg)
	l := fs.castTo(fs.translateExpr(v.Left), v.Left.Type(), ot)
	r := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), ot)
	resSize := types.Size(v.Type(), fs.tr.cfg)
	gt := fs.compareValue(ast.CmpGt, l, r, ot, resSize)
	lt := fs.compareValue(ast.CmpLt, l, r, ot, resSize)
	dst := fs.ta.Allocate(resSize, resSize, types.GP)
	fs.emit(ir.Entry{Op: ir.OpSub, Size: resSize, Dest: dst, Arg1: gt, Arg2: lt})
	return dst
}

func (fs *funcState) translateCompOp(v *ast.CompOp) ir.Operand {
	ot := commonNumericType(v.Left.Type(), v.Right.Type(), fs.tr.cfg)
	l := fs.castTo(fs.translateExpr(v.Left), v.Left.Type(), ot)
	r := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), ot)
	size := types.Size(v.Type(), fs.tr.cfg)
	return fs.compareValue(v.Op, l, r, ot, size)
}

func (fs *funcState) translateUnOp(v *ast.UnOp) ir.Operand {
	switch v.Op {
	case ast.OpNeg:
		x := fs.translateExpr(v.Operand)
		t := v.Type()
		size := types.Size(t, fs.tr.cfg)
		dst := fs.ta.Allocate(size, size, types.KindOf(t))
		op := ir.OpSub
		if types.KindOf(t) == types.SSE {
			op = ir.OpFPSub
		}
		fs.emit(ir.Entry{Op: op, Size: size, Dest: dst, Arg1: ir.Const{Bits: 0}, Arg2: x})
		return dst
	case ast.OpPos:
		return fs.translateExpr(v.Operand)
	case ast.OpNot:
		x := fs.translateExpr(v.Operand)
		size := types.Size(v.Type(), fs.tr.cfg)
		dst := fs.ta.Allocate(size, size, types.GP)
		fs.emit(ir.Entry{Op: ir.OpLNot, Size: size, Dest: dst, Arg1: x})
		return dst
	case ast.OpCompl:
		x := fs.translateExpr(v.Operand)
		t := v.Type()
		size := types.Size(t, fs.tr.cfg)
		dst := fs.ta.Allocate(size, size, types.KindOf(t))
		fs.emit(ir.Entry{Op: ir.OpNot, Size: size, Dest: dst, Arg1: x})
		return dst
	case ast.OpDeref:
		addr := fs.translateExpr(v.Operand)
		return fs.materializeAt(addr, v.Type())
	case ast.OpAddrOf:
		return fs.translateAddr(v.Operand)
	case ast.OpInc, ast.OpDec:
		return fs.translateIncDec(v)
	default:
		fs.tr.internal(0, "unhandled unary operator %v", v.Op)
		return nil
	}
}

func (fs *funcState) translateIncDec(v *ast.UnOp) ir.Operand {
	addr := fs.translateAddr(v.Operand)
	t := v.Type()
	size := types.Size(t, fs.tr.cfg)
	old := fs.loadFromAddr(addr, t)

	var step ir.Operand = ir.Const{Bits: 1}
	op := ir.OpAdd
	if v.Op == ast.OpDec {
		op = ir.OpSub
	}
	if p, ok := types.Resolve(t).(*ast.Pointer); ok {
		step = ir.Const{Bits: uint64(types.Size(p.Base, fs.tr.cfg))}
	} else if types.KindOf(t) == types.SSE {
		if v.Op == ast.OpDec {
			op = ir.OpFPSub
		} else {
			op = ir.OpFPAdd
		}
		step = ir.Const{Bits: floatBits(1, size)}
	}

	updated := fs.ta.Allocate(size, size, types.KindOf(t))
	fs.emit(ir.Entry{Op: op, Size: size, Dest: updated, Arg1: old, Arg2: step})
	fs.storeToAddr(addr, t, updated)
	if v.Postfix {
		return old
	}
	return updated
}

func (fs *funcState) translateAssign(v *ast.BinOp) ir.Operand {
	if v.Op != ast.OpAssign {
		return fs.translateCompoundAssign(v)
	}
	if types.KindOf(v.Left.Type()) == types.MEM {
		addr := fs.translateAddr(v.Left)
		fs.storeInto(addr, 0, v.Left.Type(), v.Right)
		return addr
	}
	val := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), v.Left.Type())
	addr := fs.translateAddr(v.Left)
	fs.storeToAddr(addr, v.Left.Type(), val)
	return val
}

func (fs *funcState) translateCompoundAssign(v *ast.BinOp) ir.Operand {
	addr := fs.translateAddr(v.Left)
	leftT := v.Left.Type()
	cur := fs.loadFromAddr(addr, leftT)
	baseOp := binOpForCompound(v.Op)

	if p, ok := types.Resolve(leftT).(*ast.Pointer); ok && (baseOp == ast.OpAdd || baseOp == ast.OpSub) {
		idx := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), &ast.Keyword{Kind: ast.PLong})
		delta := fs.scale(idx, types.Size(p.Base, fs.tr.cfg))
		var result ir.Operand
		if baseOp == ast.OpAdd {
			result = fs.addPointer(cur, delta)
		} else {
			size := fs.tr.cfg.PointerWidth
			negDelta := fs.ta.Allocate(size, size, types.GP)
			fs.emit(ir.Entry{Op: ir.OpSub, Size: size, Dest: negDelta, Arg1: ir.Const{Bits: 0}, Arg2: delta})
			result = fs.addPointer(cur, negDelta)
		}
		fs.storeToAddr(addr, leftT, result)
		return result
	}

	wide := commonNumericType(leftT, v.Right.Type(), fs.tr.cfg)
	curW := fs.castTo(cur, leftT, wide)
	rhsW := fs.castTo(fs.translateExpr(v.Right), v.Right.Type(), wide)
	size := types.Size(wide, fs.tr.cfg)
	sum := fs.ta.Allocate(size, size, types.KindOf(wide))
	fs.emit(ir.Entry{Op: fs.arithOp(baseOp, wide), Size: size, Dest: sum, Arg1: curW, Arg2: rhsW})
	result := fs.castTo(sum, wide, leftT)
	fs.storeToAddr(addr, leftT, result)
	return result
}

// materializeBool lowers &&/|| (used as a value, not as a branch condition)
// by running them through the jump-if translator into a temporary.
func (fs *funcState) materializeBool(cond ast.Expr) ir.Operand {
	size := types.Size(cond.Type(), fs.tr.cfg)
	dst := fs.ta.Allocate(size, size, types.GP)
	trueL := fs.newLabel()
	end := fs.newLabel()
	fs.emitJumpIf(trueL, cond)
	fs.emit(ir.Entry{Op: ir.OpMove, Size: size, Dest: dst, Arg1: ir.Const{Bits: 0}})
	fs.emit(ir.Jump(end))
	fs.emit(ir.Label(trueL))
	fs.emit(ir.Entry{Op: ir.OpMove, Size: size, Dest: dst, Arg1: ir.Const{Bits: 1}})
	fs.emit(ir.Label(end))
	return dst
}

func (fs *funcState) translateLAndAssign(v *ast.LAndAssign) ir.Operand {
	addr := fs.translateAddr(v.Target)
	t := v.Target.Type()
	falseL := fs.newLabel()
	end := fs.newLabel()
	fs.emitJumpIfNot(falseL, v.Target)
	valBool := fs.castTo(fs.materializeBool(v.Value), v.Value.Type(), t)
	fs.storeToAddr(addr, t, valBool)
	fs.emit(ir.Jump(end))
	fs.emit(ir.Label(falseL))
	fs.storeToAddr(addr, t, ir.Const{Bits: 0})
	fs.emit(ir.Label(end))
	return fs.loadFromAddr(addr, t)
}

func (fs *funcState) translateLOrAssign(v *ast.LOrAssign) ir.Operand {
	addr := fs.translateAddr(v.Target)
	t := v.Target.Type()
	trueL := fs.newLabel()
	end := fs.newLabel()
	fs.emitJumpIf(trueL, v.Target)
	valBool := fs.castTo(fs.materializeBool(v.Value), v.Value.Type(), t)
	fs.storeToAddr(addr, t, valBool)
	fs.emit(ir.Jump(end))
	fs.emit(ir.Label(trueL))
	fs.storeToAddr(addr, t, ir.Const{Bits: 1})
	fs.emit(ir.Label(end))
	return fs.loadFromAddr(addr, t)
}

func (fs *funcState) translateTernary(v *ast.Ternary) ir.Operand {
	t := v.Type()
	size := types.Size(t, fs.tr.cfg)
	dst := fs.ta.Allocate(size, size, types.KindOf(t))
	elseL := fs.newLabel()
	end := fs.newLabel()
	fs.emitJumpIfNot(elseL, v.Cond)
	thenV := fs.castTo(fs.translateExpr(v.Then), v.Then.Type(), t)
	fs.emit(ir.Entry{Op: ir.OpMove, Size: size, Dest: dst, Arg1: thenV})
	fs.emit(ir.Jump(end))
	fs.emit(ir.Label(elseL))
	elseV := fs.castTo(fs.translateExpr(v.Else), v.Else.Type(), t)
	fs.emit(ir.Entry{Op: ir.OpMove, Size: size, Dest: dst, Arg1: elseV})
	fs.emit(ir.Label(end))
	return dst
}
