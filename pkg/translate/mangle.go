package translate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tlc-lang/tlc/pkg/ast"
	"github.com/tlc-lang/tlc/pkg/diag"
)

// mangleModule encodes a (possibly nested) module path per spec §4.9:
// `A::B` -> `__Z<len><A><len><B>`.
func mangleModule(module string) string {
	var sb strings.Builder
	sb.WriteString("__Z")
	for _, part := range strings.Split(module, "::") {
		fmt.Fprintf(&sb, "%d%s", len(part), part)
	}
	return sb.String()
}

// mangleVar mangles a global variable's link name: `<module><len><name>`.
func mangleVar(module, name string) string {
	return fmt.Sprintf("%s%d%s", mangleModule(module), len(name), name)
}

// mangleFunc mangles a function's link name: the variable form followed by
// the mangled parameter types concatenated in order, so overloads that
// differ only by parameter type never collide (spec §4.9).
func mangleFunc(module, name string, params []ast.Type) string {
	sb := strings.Builder{}
	sb.WriteString(mangleVar(module, name))
	for _, p := range params {
		sb.WriteString(mangleType(p))
	}
	return sb.String()
}

var primTag = map[ast.PrimKind]string{
	ast.PVoid:   "v",
	ast.PUbyte:  "ub",
	ast.PByte:   "sb",
	ast.PChar:   "c",
	ast.PUshort: "us",
	ast.PShort:  "ss",
	ast.PUint:   "ui",
	ast.PInt:    "si",
	ast.PWchar:  "w",
	ast.PUlong:  "ul",
	ast.PLong:   "sl",
	ast.PFloat:  "f",
	ast.PDouble: "d",
	ast.PBool:   "B",
}

// mangleType encodes a type per spec §4.9's tag grammar.
func mangleType(t ast.Type) string {
	switch v := t.(type) {
	case *ast.Qualified:
		if v.Const {
			return "C" + mangleType(v.Base)
		}
		return mangleType(v.Base)
	case *ast.Keyword:
		tag, ok := primTag[v.Kind]
		if !ok {
			diag.Internal("<mangle>", 0, "unhandled primitive kind %d", v.Kind)
		}
		return tag
	case *ast.Pointer:
		return "P" + mangleType(v.Base)
	case *ast.Array:
		return "A" + strconv.FormatInt(v.Length, 10) + mangleType(v.Elem)
	case *ast.FunPtr:
		sb := strings.Builder{}
		sb.WriteString("F")
		sb.WriteString(mangleType(v.Return))
		for _, a := range v.Args {
			sb.WriteString(mangleType(a))
		}
		return sb.String()
	case *ast.Reference:
		return mangleNamed(v.Name)
	case *ast.Aggregate:
		return mangleNamed(v.Tag)
	case *ast.UnionType:
		return mangleNamed(v.Tag)
	case *ast.EnumType:
		return mangleNamed(v.Tag)
	default:
		diag.Internal("<mangle>", 0, "unhandled type %T in name mangling", t)
		return ""
	}
}

func mangleNamed(name string) string {
	return fmt.Sprintf("T%d%s", len(name), name)
}
