package translate

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/frame"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/symtab"
	"github.com/tlc-lang/tlc/pkg/types"
)

// translateExpr lowers e to the Operand holding its value (spec §4.9
// "Expressions"). An aggregate-typed result is returned as its address,
// matching how a StackAccess/GlobalAccess for a MEM-kind binding is used
// everywhere else in this package.
func (fs *funcState) translateExpr(e ast.Expr) ir.Operand {
	switch v := e.(type) {
	case *ast.Const:
		return fs.translateConst(v)
	case *ast.Id:
		return fs.translateId(v)
	case *ast.BinOp:
		return fs.translateBinOp(v)
	case *ast.CompOp:
		return fs.translateCompOp(v)
	case *ast.UnOp:
		return fs.translateUnOp(v)
	case *ast.LAnd, *ast.LOr:
		return fs.materializeBool(e)
	case *ast.LAndAssign:
		return fs.translateLAndAssign(v)
	case *ast.LOrAssign:
		return fs.translateLOrAssign(v)
	case *ast.Ternary:
		return fs.translateTernary(v)
	case *ast.StructAccess, *ast.StructPtrAccess, *ast.Subscript:
		addr := fs.translateAddr(e)
		return fs.materializeAt(addr, e.Type())
	case *ast.FnCall:
		return fs.translateCall(v)
	case *ast.Cast:
		return fs.castTo(fs.translateExpr(v.Operand), v.Operand.Type(), v.Target)
	case *ast.SizeofType:
		return ir.Const{Bits: uint64(types.Size(v.Target, fs.tr.cfg))}
	case *ast.SizeofExp:
		return ir.Const{Bits: uint64(types.Size(v.Operand.Type(), fs.tr.cfg))}
	case *ast.Seq:
		var last ir.Operand
		for _, el := range v.Elems {
			last = fs.translateExpr(el)
		}
		return last
	default:
		fs.tr.internal(0, "unhandled expression %T in translation", e)
		return nil
	}
}

func (fs *funcState) translateConst(c *ast.Const) ir.Operand {
	size := types.Size(c.Type(), fs.tr.cfg)
	switch c.Kind {
	case ast.ConstInt, ast.ConstChar, ast.ConstWChar, ast.ConstBool:
		return ir.Const{Bits: uint64(c.I)}
	case ast.ConstFloat:
		return ir.Const{Bits: floatBits(c.F, size)}
	case ast.ConstNull:
		return ir.Const{Bits: 0}
	case ast.ConstString:
		return ir.Name{Label: fs.tr.internString(fs.fv, []byte(c.S))}
	case ast.ConstWString:
		return ir.Name{Label: fs.tr.internWString(fs.fv, []rune(c.S))}
	default:
		fs.tr.internal(0, "unhandled const kind in expression")
		return nil
	}
}

func (fs *funcState) translateId(id *ast.Id) ir.Operand {
	switch info := id.Symbol.(type) {
	case *symtab.VarInfo:
		acc := fs.varAccess(info, id.Name)
		if types.KindOf(info.Type) == types.MEM {
			return acc.Addr(&fs.out, fs.ta)
		}
		return acc.Load(&fs.out, fs.ta)
	case *symtab.FunctionInfo:
		fp, ok := id.Type().(*ast.FunPtr)
		if !ok {
			fs.tr.internal(0, "bare function reference %q missing a FunPtr type", id.Name)
			return nil
		}
		return ir.Name{Label: mangleFunc(info.Module, info.Name, fp.Args)}
	case *symtab.EnumConstInfo:
		return ir.Const{Bits: uint64(info.Value)}
	default:
		fs.tr.internal(0, "identifier %q does not resolve to a value", id.Name)
		return nil
	}
}

// varAccess recovers the frame.Access backing a variable reference: the
// translator-populated Access field for a param/local (allocated earlier in
// this same function's translation via fr.AllocArg/AllocLocal), or a freshly
// mangled GlobalAccess for anything still nil, which can only mean a
// module-level variable (spec §4.9's deterministic-mangling scheme;
// symtab.VarInfo's doc comment). name is the identifier text at the
// reference site, needed to mangle a global label since VarInfo itself only
// records the declaring module.
func (fs *funcState) varAccess(info *symtab.VarInfo, name string) frame.Access {
	if info.Access != nil {
		return info.Access.(frame.Access)
	}
	size := types.Size(info.Type, fs.tr.cfg)
	return fs.tr.newGlobal(mangleVar(info.Module, name), size)
}

// materializeAt loads t's value out of address addr, or simply returns addr
// unchanged when t is MEM-kind (an aggregate is represented by its address
// everywhere in this package).
func (fs *funcState) materializeAt(addr ir.Operand, t ast.Type) ir.Operand {
	if types.KindOf(t) == types.MEM {
		return addr
	}
	return fs.loadFromAddr(addr, t)
}

func (fs *funcState) loadFromAddr(addr ir.Operand, t ast.Type) ir.Operand {
	size := types.Size(t, fs.tr.cfg)
	dst := fs.ta.Allocate(size, size, types.KindOf(t))
	fs.emit(ir.Entry{Op: ir.OpOffsetLoad, Size: size, Dest: dst, Arg1: addr, Arg2: ir.Const{Bits: 0}})
	return dst
}

func (fs *funcState) storeToAddr(addr ir.Operand, t ast.Type, v ir.Operand) {
	size := types.Size(t, fs.tr.cfg)
	fs.emit(ir.Entry{Op: ir.OpOffsetStore, Size: size, Dest: addr, Arg1: v, Arg2: ir.Const{Bits: 0}})
}

func (fs *funcState) addPointer(base, delta ir.Operand) ir.Operand {
	size := fs.tr.cfg.PointerWidth
	t := fs.ta.Allocate(size, size, types.GP)
	fs.emit(ir.Entry{Op: ir.OpAdd, Size: size, Dest: t, Arg1: base, Arg2: delta})
	return t
}

func (fs *funcState) addOffset(base ir.Operand, offset int) ir.Operand {
	if offset == 0 {
		return base
	}
	return fs.addPointer(base, ir.Const{Bits: uint64(offset)})
}

func (fs *funcState) scale(idx ir.Operand, elemSize int) ir.Operand {
	if elemSize == 1 {
		return idx
	}
	size := fs.tr.cfg.PointerWidth
	t := fs.ta.Allocate(size, size, types.GP)
	fs.emit(ir.Entry{Op: ir.OpSMul, Size: size, Dest: t, Arg1: idx, Arg2: ir.Const{Bits: uint64(elemSize)}})
	return t
}

// memberOffset resolves a struct/union member name to its byte offset
// (always 0 for a union) and declared type.
func (fs *funcState) memberOffset(t ast.Type, member string) (int, ast.Type) {
	switch agg := types.Resolve(t).(type) {
	case *ast.Aggregate:
		off, _, ftype, ok := types.FieldOffset(agg.Fields, member, fs.tr.cfg)
		if !ok {
			fs.tr.internal(0, "unknown struct member %q", member)
		}
		return off, ftype
	case *ast.UnionType:
		ftype, ok := types.UnionFieldType(agg.Fields, member)
		if !ok {
			fs.tr.internal(0, "unknown union member %q", member)
		}
		return 0, ftype
	default:
		fs.tr.internal(0, "member access %q on non-aggregate type", member)
		return 0, nil
	}
}

// translateAddr computes the address of an lvalue expression (spec §4.9's
// implicit requirement that assignment, `&x`, and member access all share
// one address computation): Id resolves through its Access, *p is just p's
// value, struct access adds the member's offset to its base's address, and
// subscript scales the index by the element size.
func (fs *funcState) translateAddr(e ast.Expr) ir.Operand {
	switch v := e.(type) {
	case *ast.Id:
		vi, ok := v.Symbol.(*symtab.VarInfo)
		if !ok {
			fs.tr.internal(0, "cannot take the address of %q", v.Name)
			return nil
		}
		return fs.varAccess(vi, v.Name).Addr(&fs.out, fs.ta)
	case *ast.UnOp:
		if v.Op == ast.OpDeref {
			return fs.translateExpr(v.Operand)
		}
		fs.tr.internal(0, "expression is not an lvalue")
		return nil
	case *ast.StructAccess:
		base := fs.translateAddr(v.Base)
		off, _ := fs.memberOffset(v.Base.Type(), v.Member)
		return fs.addOffset(base, off)
	case *ast.StructPtrAccess:
		base := fs.translateExpr(v.Base)
		elemT := pointerBase(v.Base.Type())
		off, _ := fs.memberOffset(elemT, v.Member)
		return fs.addOffset(base, off)
	case *ast.Subscript:
		return fs.translateSubscriptAddr(v)
	default:
		fs.tr.internal(0, "expression is not an lvalue")
		return nil
	}
}

func pointerBase(t ast.Type) ast.Type {
	if p, ok := types.Resolve(t).(*ast.Pointer); ok {
		return p.Base
	}
	return nil
}

func (fs *funcState) translateSubscriptAddr(v *ast.Subscript) ir.Operand {
	shape := types.Resolve(v.Base.Type())
	var base ir.Operand
	var elemType ast.Type
	switch bt := shape.(type) {
	case *ast.Array:
		base = fs.translateAddr(v.Base)
		elemType = bt.Elem
	case *ast.Pointer:
		base = fs.translateExpr(v.Base)
		elemType = bt.Base
	default:
		fs.tr.internal(0, "subscript on non-array, non-pointer type")
		return nil
	}
	idx := fs.castTo(fs.translateExpr(v.Index), v.Index.Type(), &ast.Keyword{Kind: ast.PLong})
	elemSize := types.Size(elemType, fs.tr.cfg)
	return fs.addPointer(base, fs.scale(idx, elemSize))
}

// storeInto writes e into the memory at dstAddr+baseOffset, recursing
// through aggregate/array/union shapes for an AggregateInit literal and
// falling back to a whole-value copy when e is instead another aggregate
// expression (e.g. struct assignment from another struct).
func (fs *funcState) storeInto(dstAddr ir.Operand, baseOffset int, t ast.Type, e ast.Expr) {
	switch agg := types.Resolve(t).(type) {
	case *ast.Aggregate:
		if init, ok := e.(*ast.AggregateInit); ok {
			for i, f := range agg.Fields {
				off, _, _, _ := types.FieldOffset(agg.Fields, f.Name, fs.tr.cfg)
				if i < len(init.Elems) {
					fs.storeInto(dstAddr, baseOffset+off, f.Type, init.Elems[i])
				} else {
					fs.storeZeroInto(dstAddr, baseOffset+off, f.Type)
				}
			}
			return
		}
		fs.copyAggregate(dstAddr, baseOffset, fs.translateAddr(e), 0, t)
	case *ast.UnionType:
		if init, ok := e.(*ast.AggregateInit); ok {
			if len(init.Elems) == 0 || len(agg.Fields) == 0 {
				fs.storeZeroInto(dstAddr, baseOffset, t)
				return
			}
			fs.storeInto(dstAddr, baseOffset, agg.Fields[0].Type, init.Elems[0])
			return
		}
		fs.copyAggregate(dstAddr, baseOffset, fs.translateAddr(e), 0, t)
	case *ast.Array:
		if init, ok := e.(*ast.AggregateInit); ok {
			elemSize := types.Size(agg.Elem, fs.tr.cfg)
			for i := int64(0); i < agg.Length; i++ {
				off := baseOffset + int(i)*elemSize
				if int(i) < len(init.Elems) {
					fs.storeInto(dstAddr, off, agg.Elem, init.Elems[int(i)])
				} else {
					fs.storeZeroInto(dstAddr, off, agg.Elem)
				}
			}
			return
		}
		fs.copyAggregate(dstAddr, baseOffset, fs.translateAddr(e), 0, t)
	default:
		v := fs.castTo(fs.translateExpr(e), e.Type(), t)
		size := types.Size(t, fs.tr.cfg)
		fs.emit(ir.Entry{Op: ir.OpOffsetStore, Size: size, Dest: dstAddr, Arg1: v, Arg2: ir.Const{Bits: uint64(baseOffset)}})
	}
}

func (fs *funcState) storeZeroInto(dstAddr ir.Operand, baseOffset int, t ast.Type) {
	switch agg := types.Resolve(t).(type) {
	case *ast.Aggregate:
		for _, f := range agg.Fields {
			off, _, _, _ := types.FieldOffset(agg.Fields, f.Name, fs.tr.cfg)
			fs.storeZeroInto(dstAddr, baseOffset+off, f.Type)
		}
	case *ast.Array:
		elemSize := types.Size(agg.Elem, fs.tr.cfg)
		for i := int64(0); i < agg.Length; i++ {
			fs.storeZeroInto(dstAddr, baseOffset+int(i)*elemSize, agg.Elem)
		}
	case *ast.UnionType:
		if len(agg.Fields) > 0 {
			fs.storeZeroInto(dstAddr, baseOffset, agg.Fields[0].Type)
		}
	default:
		size := types.Size(t, fs.tr.cfg)
		fs.emit(ir.Entry{Op: ir.OpOffsetStore, Size: size, Dest: dstAddr, Arg1: ir.Const{Bits: 0}, Arg2: ir.Const{Bits: uint64(baseOffset)}})
	}
}

func (fs *funcState) copyAggregate(dstAddr ir.Operand, dstOff int, srcAddr ir.Operand, srcOff int, t ast.Type) {
	switch agg := types.Resolve(t).(type) {
	case *ast.Aggregate:
		for _, f := range agg.Fields {
			off, _, _, _ := types.FieldOffset(agg.Fields, f.Name, fs.tr.cfg)
			fs.copyAggregate(dstAddr, dstOff+off, srcAddr, srcOff+off, f.Type)
		}
	case *ast.Array:
		elemSize := types.Size(agg.Elem, fs.tr.cfg)
		for i := int64(0); i < agg.Length; i++ {
			fs.copyAggregate(dstAddr, dstOff+int(i)*elemSize, srcAddr, srcOff+int(i)*elemSize, agg.Elem)
		}
	case *ast.UnionType:
		if len(agg.Fields) > 0 {
			fs.copyAggregate(dstAddr, dstOff, srcAddr, srcOff, agg.Fields[0].Type)
		}
	default:
		size := types.Size(t, fs.tr.cfg)
		v := fs.ta.Allocate(size, size, types.KindOf(t))
		fs.emit(ir.Entry{Op: ir.OpOffsetLoad, Size: size, Dest: v, Arg1: srcAddr, Arg2: ir.Const{Bits: uint64(srcOff)}})
		fs.emit(ir.Entry{Op: ir.OpOffsetStore, Size: size, Dest: dstAddr, Arg1: v, Arg2: ir.Const{Bits: uint64(dstOff)}})
	}
}

// calleeSignature resolves a call target to its argument/return types and,
// for a direct call, its mangled label; an indirect call goes through the
// function-pointer value's own type instead.
func (fs *funcState) calleeSignature(v *ast.FnCall) (argTypes []ast.Type, retType ast.Type, label string, direct bool) {
	if id, ok := v.Callee.(*ast.Id); ok {
		if fi, ok := id.Symbol.(*symtab.FunctionInfo); ok {
			elem := fi.Overloads[v.Overload]
			return elem.ArgTypes, elem.ReturnType, mangleFunc(fi.Module, fi.Name, elem.ArgTypes), true
		}
	}
	fp, ok := types.Resolve(v.Callee.Type()).(*ast.FunPtr)
	if !ok {
		fs.tr.internal(0, "call target is not callable")
		return nil, nil, "", false
	}
	return fp.Args, fp.Return, "", false
}

// translateCall lowers a call by emitting one ARG entry per outgoing
// argument (in left-to-right order, immediately before CALL) rather than
// pre-assigning registers here: the ABI-specific split between register and
// stack arguments is a backend concern, mirrored by how a QBE-style
// backend's own call syntax takes an explicit argument list. A MEM-kind
// return value gets a caller-owned buffer (via this frame's own
// AllocRetVal, exactly the allocation a callee would use for its own
// locals) whose address is passed as a hidden first argument, matching the
// SysV convention Frame.AllocRetVal already encodes for the callee side.
func (fs *funcState) translateCall(v *ast.FnCall) ir.Operand {
	argTypes, retType, label, direct := fs.calleeSignature(v)
	retAcc := fs.fr.AllocRetVal(retType)
	memRet := retAcc != nil && types.KindOf(retType) == types.MEM

	if memRet {
		fs.emit(ir.Arg(retAcc.Addr(&fs.out, fs.ta)))
	}
	for i, a := range v.Args {
		if types.KindOf(a.Type()) == types.MEM {
			fs.emit(ir.Arg(fs.translateAddr(a)))
			continue
		}
		av := fs.translateExpr(a)
		if i < len(argTypes) {
			av = fs.castTo(av, a.Type(), argTypes[i])
		}
		fs.emit(ir.Arg(av))
	}

	var target ir.Operand
	if direct {
		target = ir.Name{Label: label}
	} else {
		target = fs.translateExpr(v.Callee)
	}
	fs.emit(ir.Call(target))

	if retAcc == nil {
		return ir.Const{Bits: 0}
	}
	if memRet {
		return retAcc.Addr(&fs.out, fs.ta)
	}
	return retAcc.Load(&fs.out, fs.ta)
}
