package qbe

import (
	"fmt"
	"math"

	"github.com/tlc-lang/tlc/pkg/types"
)

// baseType picks the QBE base type letter for a value of the given byte
// size and register class: sub-word integers promote to w, since QBE has
// no b/h-typed SSA value, only sized loads/stores into one.
func baseType(size int, kind types.Kind) string {
	if kind == types.SSE {
		if size <= 4 {
			return "s"
		}
		return "d"
	}
	if size <= 4 {
		return "w"
	}
	return "l"
}

// storeSuffix/loadSuffix name the sized memory op for a GP value of the
// given byte width; SSE values always store/load at their natural width
// (stores/loads/stored/loadd), never sub-word.
func storeSuffix(size int, kind types.Kind) string {
	if kind == types.SSE {
		if size <= 4 {
			return "s"
		}
		return "d"
	}
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

// loadSuffix is storeSuffix's counterpart, except sub-word GP loads always
// zero-extend: nothing in this IR records a load site's signedness (only
// the conversion operators do, explicitly, when a value widens across
// types), so the safe default is the unsigned variant, matching how the
// rest of the translator only sign-extends through an explicit SX op.
func loadSuffix(size int, kind types.Kind) string {
	if kind == types.SSE {
		if size <= 4 {
			return "s"
		}
		return "d"
	}
	switch {
	case size == 1:
		return "ub"
	case size == 2:
		return "uh"
	case size <= 4:
		return "w"
	default:
		return "l"
	}
}

// floatLiteral renders a raw float32/float64 bit pattern as a QBE inline
// float immediate (`s_1.5` / `d_1.5`); only reached for a bare Const used
// directly as an SSE-typed operand with no prior conversion op to read the
// width from, e.g. a literal `0.0` compared against in a float condition.
func floatLiteral(bits uint64, size int) string {
	if size <= 4 {
		return fmt.Sprintf("s_%v", math.Float32frombits(uint32(bits)))
	}
	return fmt.Sprintf("d_%v", math.Float64frombits(bits))
}

// allocOp picks alloc4/alloc8/alloc16 for a slot of the given byte size,
// rounding up to the next alignment QBE supports for alloc.
func allocOp(size int) (string, int) {
	switch {
	case size <= 4:
		return "alloc4", 4
	case size <= 8:
		return "alloc8", 8
	default:
		n := (size + 15) &^ 15
		return "alloc16", n
	}
}
