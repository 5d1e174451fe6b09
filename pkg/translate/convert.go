package translate

import (
	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/config"
	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

func isUnsignedType(t ast.Type) bool {
	base := types.Resolve(t)
	if k, ok := base.(*ast.Keyword); ok {
		return k.Kind.IsUnsigned()
	}
	if _, ok := base.(*ast.Pointer); ok {
		return true
	}
	return false
}

// commonNumericType picks the operand type a mixed-width comparison or
// compound assignment computes in, mirroring the widening BinOp's own
// checker-assigned result type already encodes for plain arithmetic: float
// beats integer, and between two integers the wider one wins.
func commonNumericType(a, b ast.Type, cfg *config.Config) ast.Type {
	af, bf := types.IsFloat(a), types.IsFloat(b)
	if af && !bf {
		return a
	}
	if bf && !af {
		return b
	}
	if types.Size(a, cfg) >= types.Size(b, cfg) {
		return a
	}
	return b
}

// castTo converts v (of static type from) to to, emitting whatever
// sign/zero-extend, truncate, or int<->float conversion the two types'
// sizes and register classes require (spec §4.6). Equal types are a no-op;
// same-size reinterpretation (e.g. pointer<->long) is also a no-op, since
// both live in the same register class at the same width.
func (fs *funcState) castTo(v ir.Operand, from, to ast.Type) ir.Operand {
	if from == nil || to == nil || types.Equal(from, to) {
		return v
	}
	cfg := fs.tr.cfg
	fromKind, toKind := types.KindOf(from), types.KindOf(to)
	fromSize, toSize := types.Size(from, cfg), types.Size(to, cfg)

	if fromKind == types.SSE && toKind != types.SSE {
		op := ir.OpFToLong
		switch {
		case toSize == 1:
			op = ir.OpFToByte
		case toSize == 2:
			op = ir.OpFToShort
		case toSize == 4:
			op = ir.OpFToInt
		}
		t := fs.ta.Allocate(toSize, toSize, types.GP)
		fs.emit(ir.Entry{Op: op, Size: fromSize, Dest: t, Arg1: v})
		return t
	}
	if fromKind != types.SSE && toKind == types.SSE {
		var op ir.Operator
		unsigned := isUnsignedType(from)
		switch {
		case toSize == 4 && unsigned:
			op = ir.OpUToFloat
		case toSize == 4:
			op = ir.OpSToFloat
		case unsigned:
			op = ir.OpUToDouble
		default:
			op = ir.OpSToDouble
		}
		t := fs.ta.Allocate(toSize, toSize, types.SSE)
		fs.emit(ir.Entry{Op: op, Size: toSize, Dest: t, Arg1: v})
		return t
	}
	if fromKind == types.SSE && toKind == types.SSE {
		if fromSize == toSize {
			return v
		}
		op := ir.OpFToDouble
		if fromSize > toSize {
			op = ir.OpFToFloat
		}
		t := fs.ta.Allocate(toSize, toSize, types.SSE)
		fs.emit(ir.Entry{Op: op, Size: toSize, Dest: t, Arg1: v})
		return t
	}

	if toSize > fromSize {
		var op ir.Operator
		if isUnsignedType(from) {
			switch {
			case toSize <= 2:
				op = ir.OpZXShort
			case toSize <= 4:
				op = ir.OpZXInt
			default:
				op = ir.OpZXLong
			}
		} else {
			switch {
			case toSize <= 2:
				op = ir.OpSXShort
			case toSize <= 4:
				op = ir.OpSXInt
			default:
				op = ir.OpSXLong
			}
		}
		t := fs.ta.Allocate(toSize, toSize, types.GP)
		fs.emit(ir.Entry{Op: op, Size: fromSize, Dest: t, Arg1: v})
		return t
	}
	if toSize < fromSize {
		var op ir.Operator
		switch {
		case toSize == 1:
			op = ir.OpTruncByte
		case toSize == 2:
			op = ir.OpTruncShort
		default:
			op = ir.OpTruncInt
		}
		t := fs.ta.Allocate(toSize, toSize, types.GP)
		fs.emit(ir.Entry{Op: op, Size: fromSize, Dest: t, Arg1: v})
		return t
	}
	return v
}
