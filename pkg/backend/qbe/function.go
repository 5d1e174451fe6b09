package qbe

import (
	"fmt"
	"strings"

	"github.com/tlc-lang/tlc/pkg/ir"
	"github.com/tlc-lang/tlc/pkg/types"
)

// fnCtx lowers one TextFragment's Body, slot by slot and entry by entry.
// Every Temp, Reg, and stack offset the body touches gets its own
// alloc-backed memory cell (see package doc): reads become a fresh load,
// writes a store. This is deliberately not SSA-optimal; it exists so the
// non-SSA Entry stream (a ternary's dest Temp, or the fixed return-value
// Reg, both legitimately written from more than one site) lowers to QBE's
// strictly-SSA text without this package having to prove dominance itself.
type fnCtx struct {
	out *strings.Builder
	ssa int

	tempSize map[int]int

	stackSize  map[int64]int
	tempOrigin map[int]int64

	pendingArgs []argVal
	lastTerm    bool

	nextEntry *ir.Entry
	retSlot   string
	retTy     string
}

type argVal struct{ ty, val string }

func (fc *fnCtx) fresh() string {
	fc.ssa++
	return fmt.Sprintf("%%v%d", fc.ssa)
}

func (fc *fnCtx) emitf(format string, args ...interface{}) {
	fmt.Fprintf(fc.out, "    "+format+"\n", args...)
}

func tempSlot(n int) string  { return fmt.Sprintf("%%t%d", n) }
func regSlot(n int) string   { return fmt.Sprintf("%%r%d", n) }
func stackSlot(off int64) string {
	if off < 0 {
		return fmt.Sprintf("%%s_neg%d", -off)
	}
	return fmt.Sprintf("%%s%d", off)
}

// genFunction lowers one function body to a QBE `function` block.
func (b *Backend) genFunction(out *strings.Builder, f *ir.TextFragment) {
	fc := &fnCtx{out: out, tempSize: map[int]int{},
		stackSize: map[int64]int{}, tempOrigin: map[int]int64{}}
	fc.scan(f)

	retTy, retReg, hasRet := fc.returnType(f.Body)
	fc.retTy = retTy
	if hasRet {
		fc.retSlot = regSlot(retReg)
	}

	out.WriteString("export function ")
	if hasRet {
		out.WriteString(retTy + " ")
	}
	fmt.Fprintf(out, "$%s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			out.WriteString(", ")
		}
		fmt.Fprintf(out, "%s %%arg%d", baseType(p.Size, p.Kind), i)
	}
	out.WriteString(") {\n@start\n")

	fc.declareSlots(f)
	for i, p := range f.Params {
		fc.storeSlot(stackSlot(p.Slot.Offset), p.Size, p.Kind, fmt.Sprintf("%%arg%d", i))
	}
	fc.lastTerm = false

	for i := 0; i < len(f.Body); i++ {
		if i+1 < len(f.Body) {
			fc.nextEntry = &f.Body[i+1]
		} else {
			fc.nextEntry = nil
		}
		fc.lower(f.Body[i])
	}
	if !fc.lastTerm {
		fc.emitf("ret")
	}
	out.WriteString("}\n")
}

// scan pre-walks the body once to size every slot this function will need:
// every distinct Temp (by its own carried Size/Kind), and every distinct
// stack offset (from direct StkLoad/StkStore/StkAddr sizes, plus the
// furthest OffsetLoad/OffsetStore reach through a StkAddr-derived address,
// since a local aggregate's own footprint is never stated anywhere else in
// this IR).
func (fc *fnCtx) scan(f *ir.TextFragment) {
	touch := func(op ir.Operand) {
		if t, ok := op.(ir.Temp); ok {
			if t.Size > fc.tempSize[t.N] {
				fc.tempSize[t.N] = t.Size
			}
		}
	}
	grow := func(off int64, size int) {
		if size > fc.stackSize[off] {
			fc.stackSize[off] = size
		}
	}
	for _, e := range f.Body {
		touch(e.Dest)
		touch(e.Arg1)
		touch(e.Arg2)
		switch e.Op {
		case ir.OpStkLoad:
			grow(e.Arg1.(ir.StackOffset).Offset, e.Size)
		case ir.OpStkStore:
			grow(e.Dest.(ir.StackOffset).Offset, e.Size)
		case ir.OpStkAddr:
			off := e.Arg1.(ir.StackOffset).Offset
			grow(off, 8)
			if t, ok := e.Dest.(ir.Temp); ok {
				fc.tempOrigin[t.N] = off
			}
		case ir.OpOffsetLoad:
			if t, ok := e.Arg1.(ir.Temp); ok {
				if off, ok2 := fc.tempOrigin[t.N]; ok2 {
					if c, ok3 := e.Arg2.(ir.Const); ok3 {
						grow(off, int(c.Bits)+e.Size)
					}
				}
			}
		case ir.OpOffsetStore:
			if t, ok := e.Dest.(ir.Temp); ok {
				if off, ok2 := fc.tempOrigin[t.N]; ok2 {
					if c, ok3 := e.Arg2.(ir.Const); ok3 {
						grow(off, int(c.Bits)+e.Size)
					}
				}
			}
		}
	}
	for _, p := range f.Params {
		grow(p.Slot.Offset, p.Size)
	}
}

// returnType reports the function's declared QBE return type, recovered
// from whichever Reg the body's return-value Moves target: sysv.Frame
// hands every function exactly one such Reg identity (the return slot),
// so the first sighting settles it. A function with no such Move is void.
func (fc *fnCtx) returnType(body []ir.Entry) (ty string, reg int, ok bool) {
	for _, e := range body {
		if e.Op != ir.OpMove {
			continue
		}
		r, isReg := e.Dest.(ir.Reg)
		if !isReg {
			continue
		}
		if t, ok2 := e.Arg1.(ir.Temp); ok2 {
			return baseType(t.Size, t.Kind), r.N, true
		}
		return baseType(e.Size, types.GP), r.N, true
	}
	return "", 0, false
}

func (fc *fnCtx) declareSlots(f *ir.TextFragment) {
	for n, size := range fc.tempSize {
		op, n2 := allocOp(size)
		fc.emitf("%s =l %s %d", tempSlot(n), op, n2)
	}
	seenReg := map[int]bool{}
	markReg := func(op ir.Operand) {
		if r, ok := op.(ir.Reg); ok && !seenReg[r.N] {
			seenReg[r.N] = true
			fc.emitf("%s =l alloc8 8", regSlot(r.N))
		}
	}
	for _, e := range f.Body {
		markReg(e.Dest)
		markReg(e.Arg1)
	}
	for off, size := range fc.stackSize {
		op, n2 := allocOp(size)
		fc.emitf("%s =l %s %d", stackSlot(off), op, n2)
	}
}

func (fc *fnCtx) loadSlot(slot string, size int, kind types.Kind) string {
	v := fc.fresh()
	fc.emitf("%s =%s load%s %s", v, baseType(size, kind), loadSuffix(size, kind), slot)
	return v
}

func (fc *fnCtx) storeSlot(slot string, size int, kind types.Kind, val string) {
	fc.emitf("store%s %s, %s", storeSuffix(size, kind), val, slot)
}

// operand resolves v to a QBE value and its base type; hintSize/hintKind
// supply the type for operands (Const, Reg) that carry none of their own,
// inferred from the instruction that is about to consume them. A Temp's
// own Size/Kind always wins, since it is ground truth wherever it appears.
func (fc *fnCtx) operand(v ir.Operand, hintSize int, hintKind types.Kind) (val, ty string) {
	switch x := v.(type) {
	case ir.Temp:
		ty = baseType(x.Size, x.Kind)
		val = fc.loadSlot(tempSlot(x.N), x.Size, x.Kind)
		return val, ty
	case ir.Reg:
		ty = baseType(hintSize, hintKind)
		val = fc.loadSlot(regSlot(x.N), hintSize, hintKind)
		return val, ty
	case ir.Const:
		ty = baseType(hintSize, hintKind)
		if hintKind == types.SSE {
			return floatLiteral(x.Bits, hintSize), ty
		}
		return fmt.Sprintf("%d", int64(x.Bits)), ty
	case ir.Name:
		return "$" + x.Label, "l"
	default:
		return "0", "w"
	}
}

func (fc *fnCtx) storeDest(dest ir.Operand, val, ty string) {
	switch d := dest.(type) {
	case ir.Temp:
		fc.storeSlot(tempSlot(d.N), d.Size, d.Kind, val)
	case ir.Reg:
		fc.storeSlot(regSlot(d.N), sizeOfTy(ty), kindOfTy(ty), val)
	}
}

func sizeOfTy(ty string) int {
	if ty == "l" || ty == "d" {
		return 8
	}
	return 4
}

func kindOfTy(ty string) types.Kind {
	if ty == "s" || ty == "d" {
		return types.SSE
	}
	return types.GP
}

var binMnemonic = map[ir.Operator]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpSMul: "mul", ir.OpUMul: "mul",
	ir.OpSDiv: "div", ir.OpUDiv: "udiv", ir.OpSMod: "rem", ir.OpUMod: "urem",
	ir.OpFPAdd: "add", ir.OpFPSub: "sub", ir.OpFPMul: "mul", ir.OpFPDiv: "div",
	ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
	ir.OpSLL: "shl", ir.OpSLR: "shr", ir.OpSAR: "sar",
}

var cmpMnemonic = map[ir.Operator]string{
	ir.OpE: "ceq", ir.OpNE: "cne", ir.OpL: "cslt", ir.OpLE: "csle", ir.OpG: "csgt", ir.OpGE: "csge",
	ir.OpA: "cugt", ir.OpAE: "cuge", ir.OpB: "cult", ir.OpBE: "cule",
	ir.OpFPE: "ceq", ir.OpFPNE: "cne", ir.OpFPL: "clt", ir.OpFPLE: "cle", ir.OpFPG: "cgt", ir.OpFPGE: "cge",
	ir.OpJE: "ceq", ir.OpJNE: "cne", ir.OpJL: "cslt", ir.OpJLE: "csle", ir.OpJG: "csgt", ir.OpJGE: "csge",
	ir.OpJA: "cugt", ir.OpJAE: "cuge", ir.OpJB: "cult", ir.OpJBE: "cule",
	ir.OpFPJE: "ceq", ir.OpFPJNE: "cne", ir.OpFPJL: "clt", ir.OpFPJLE: "cle", ir.OpFPJG: "cgt", ir.OpFPJGE: "cge",
}

func isFPOp(op ir.Operator) bool {
	switch op {
	case ir.OpFPAdd, ir.OpFPSub, ir.OpFPMul, ir.OpFPDiv,
		ir.OpFPE, ir.OpFPNE, ir.OpFPL, ir.OpFPLE, ir.OpFPG, ir.OpFPGE,
		ir.OpFPJE, ir.OpFPJNE, ir.OpFPJL, ir.OpFPJLE, ir.OpFPJG, ir.OpFPJGE:
		return true
	}
	return false
}

func isJump(op ir.Operator) bool {
	switch op {
	case ir.OpJE, ir.OpJNE, ir.OpJL, ir.OpJLE, ir.OpJG, ir.OpJGE, ir.OpJA, ir.OpJAE, ir.OpJB, ir.OpJBE,
		ir.OpFPJE, ir.OpFPJNE, ir.OpFPJL, ir.OpFPJLE, ir.OpFPJG, ir.OpFPJGE:
		return true
	}
	return false
}

// lower translates one Entry. OpAsm is dropped: it carries either this
// frame's own x86 prologue/epilogue text or a user inline-asm statement,
// indistinguishable at this level, and QBE has no inline-asm escape and
// manages its own frame — a documented, honest gap rather than a faked
// translation (DESIGN.md).
func (fc *fnCtx) lower(e ir.Entry) {
	switch {
	case e.Op == ir.OpAsm:
		return
	case e.Op == ir.OpLabel:
		name := e.Arg1.(ir.Name).Label
		if !fc.lastTerm {
			fc.emitf("jmp @%s", sanitizeLabel(name))
		}
		fc.out.WriteString("@" + sanitizeLabel(name) + "\n")
		fc.lastTerm = false
		return
	case e.Op == ir.OpJump:
		fc.emitf("jmp @%s", sanitizeLabel(e.Arg1.(ir.Name).Label))
		fc.lastTerm = true
		return
	case isJump(e.Op):
		fc.lowerCondJump(e)
		return
	case e.Op == ir.OpMove:
		fc.lowerMove(e)
		return
	case e.Op == ir.OpMemLoad:
		v := fc.fresh()
		ty := baseType(e.Size, e.Dest.(ir.Temp).Kind)
		fc.emitf("%s =%s load%s $%s", v, ty, loadSuffix(e.Size, e.Dest.(ir.Temp).Kind), e.Arg1.(ir.Name).Label)
		fc.storeDest(e.Dest, v, ty)
	case e.Op == ir.OpMemStore:
		kindHint := types.GP
		if t, ok := e.Arg1.(ir.Temp); ok {
			kindHint = t.Kind
		}
		val, _ := fc.operand(e.Arg1, e.Size, kindHint)
		fc.emitf("store%s %s, $%s", storeSuffix(e.Size, kindHint), val, e.Dest.(ir.Name).Label)
	case e.Op == ir.OpStkLoad:
		off := e.Arg1.(ir.StackOffset).Offset
		kind := types.GP
		if t, ok := e.Dest.(ir.Temp); ok {
			kind = t.Kind
		}
		v := fc.loadSlot(stackSlot(off), e.Size, kind)
		fc.storeDest(e.Dest, v, baseType(e.Size, kind))
	case e.Op == ir.OpStkStore:
		off := e.Dest.(ir.StackOffset).Offset
		kind := types.GP
		if t, ok := e.Arg1.(ir.Temp); ok {
			kind = t.Kind
		}
		val, _ := fc.operand(e.Arg1, e.Size, kind)
		fc.storeSlot(stackSlot(off), e.Size, kind, val)
	case e.Op == ir.OpStkAddr:
		off := e.Arg1.(ir.StackOffset).Offset
		fc.storeDest(e.Dest, stackSlot(off), "l")
	case e.Op == ir.OpOffsetLoad:
		fc.lowerOffsetLoad(e)
	case e.Op == ir.OpOffsetStore:
		fc.lowerOffsetStore(e)
	case e.Op == ir.OpArg:
		kindHint := types.GP
		if t, ok := e.Arg1.(ir.Temp); ok {
			kindHint = t.Kind
		}
		val, ty := fc.operand(e.Arg1, 8, kindHint)
		fc.pendingArgs = append(fc.pendingArgs, argVal{ty: ty, val: val})
	case e.Op == ir.OpCall:
		fc.lowerCall(e)
	case e.Op == ir.OpReturn:
		fc.lowerReturn(e)
	case e.Op == ir.OpLNot:
		v, ty := fc.operand(e.Arg1, e.Size, types.GP)
		r := fc.fresh()
		fc.emitf("%s =%s ceq%s %s, 0", r, ty, ty, v)
		fc.storeDest(e.Dest, r, ty)
	case e.Op == ir.OpNot:
		v, ty := fc.operand(e.Arg1, e.Size, types.GP)
		r := fc.fresh()
		fc.emitf("%s =%s xor %s, -1", r, ty, v)
		fc.storeDest(e.Dest, r, ty)
	case isFPOp(e.Op) || isGPArith(e.Op):
		fc.lowerBin(e)
	case isCompareValue(e.Op):
		fc.lowerCompareValue(e)
	case isConvert(e.Op):
		fc.lowerConvert(e)
	default:
		fc.emitf("# unhandled operator %d", e.Op)
	}
}

func isGPArith(op ir.Operator) bool {
	switch op {
	case ir.OpAdd, ir.OpSub, ir.OpSMul, ir.OpUMul, ir.OpSDiv, ir.OpUDiv, ir.OpSMod, ir.OpUMod,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpSLL, ir.OpSLR, ir.OpSAR:
		return true
	}
	return false
}

func isCompareValue(op ir.Operator) bool {
	switch op {
	case ir.OpE, ir.OpNE, ir.OpL, ir.OpLE, ir.OpG, ir.OpGE, ir.OpA, ir.OpAE, ir.OpB, ir.OpBE,
		ir.OpFPE, ir.OpFPNE, ir.OpFPL, ir.OpFPLE, ir.OpFPG, ir.OpFPGE:
		return true
	}
	return false
}

func isConvert(op ir.Operator) bool {
	switch op {
	case ir.OpSXShort, ir.OpSXInt, ir.OpSXLong, ir.OpZXShort, ir.OpZXInt, ir.OpZXLong,
		ir.OpTruncByte, ir.OpTruncShort, ir.OpTruncInt,
		ir.OpSToFloat, ir.OpSToDouble, ir.OpUToFloat, ir.OpUToDouble,
		ir.OpFToByte, ir.OpFToShort, ir.OpFToInt, ir.OpFToLong, ir.OpFToFloat, ir.OpFToDouble:
		return true
	}
	return false
}

func (fc *fnCtx) lowerBin(e ir.Entry) {
	kind := types.GP
	if isFPOp(e.Op) {
		kind = types.SSE
	}
	a1, ty := fc.operand(e.Arg1, e.Size, kind)
	a2, _ := fc.operand(e.Arg2, e.Size, kind)
	r := fc.fresh()
	fc.emitf("%s =%s %s %s, %s", r, ty, binMnemonic[e.Op], a1, a2)
	fc.storeDest(e.Dest, r, ty)
}

func (fc *fnCtx) lowerCompareValue(e ir.Entry) {
	kind := types.GP
	if isFPOp(e.Op) {
		kind = types.SSE
	}
	a1, ty := fc.operand(e.Arg1, e.Size, kind)
	a2, _ := fc.operand(e.Arg2, e.Size, kind)
	r := fc.fresh()
	fc.emitf("%s =w %s%s %s, %s", r, cmpMnemonic[e.Op], ty, a1, a2)
	fc.storeDest(e.Dest, r, "w")
}

func (fc *fnCtx) lowerCondJump(e ir.Entry) {
	kind := types.GP
	if isFPOp(e.Op) {
		kind = types.SSE
	}
	a1, ty := fc.operand(e.Arg1, e.Size, kind)
	a2, _ := fc.operand(e.Arg2, e.Size, kind)
	cond := fc.fresh()
	fc.emitf("%s =w %s%s %s, %s", cond, cmpMnemonic[e.Op], ty, a1, a2)
	target := sanitizeLabel(e.Dest.(ir.Name).Label)
	fc.ssa++
	fall := fmt.Sprintf("qbefall%d", fc.ssa)
	fc.emitf("jnz %s, @%s, @%s", cond, target, fall)
	fc.out.WriteString("@" + fall + "\n")
	fc.lastTerm = false
}

func (fc *fnCtx) lowerMove(e ir.Entry) {
	kindHint := types.GP
	if t, ok := e.Arg1.(ir.Temp); ok {
		kindHint = t.Kind
	} else if t, ok := e.Dest.(ir.Temp); ok {
		kindHint = t.Kind
	}
	val, ty := fc.operand(e.Arg1, e.Size, kindHint)
	fc.storeDest(e.Dest, val, ty)
}

// lowerOffsetLoad/Store fold a StkAddr-derived base Temp's known origin
// offset directly into a stack slot access, keeping everything slot-based;
// an address that did not come from this function's own StkAddr (a global
// or a pointer value) instead loads/stores through the address itself,
// since QBE's loadX/storeX both happily take a computed pointer value.
func (fc *fnCtx) lowerOffsetLoad(e ir.Entry) {
	kind := types.GP
	if t, ok := e.Dest.(ir.Temp); ok {
		kind = t.Kind
	}
	sub := int64(0)
	if c, ok := e.Arg2.(ir.Const); ok {
		sub = int64(c.Bits)
	}
	if t, ok := e.Arg1.(ir.Temp); ok {
		if off, ok2 := fc.tempOrigin[t.N]; ok2 {
			v := fc.loadSlot(stackSlot(off+sub), e.Size, kind)
			fc.storeDest(e.Dest, v, baseType(e.Size, kind))
			return
		}
	}
	base, _ := fc.operand(e.Arg1, 8, types.GP)
	addr := fc.addOffset(base, sub)
	v := fc.fresh()
	fc.emitf("%s =%s load%s %s", v, baseType(e.Size, kind), loadSuffix(e.Size, kind), addr)
	fc.storeDest(e.Dest, v, baseType(e.Size, kind))
}

func (fc *fnCtx) lowerOffsetStore(e ir.Entry) {
	kind := types.GP
	if t, ok := e.Arg1.(ir.Temp); ok {
		kind = t.Kind
	}
	sub := int64(0)
	if c, ok := e.Arg2.(ir.Const); ok {
		sub = int64(c.Bits)
	}
	val, _ := fc.operand(e.Arg1, e.Size, kind)
	if t, ok := e.Dest.(ir.Temp); ok {
		if off, ok2 := fc.tempOrigin[t.N]; ok2 {
			fc.storeSlot(stackSlot(off+sub), e.Size, kind, val)
			return
		}
	}
	base, _ := fc.operand(e.Dest, 8, types.GP)
	addr := fc.addOffset(base, sub)
	fc.emitf("store%s %s, %s", storeSuffix(e.Size, kind), val, addr)
}

func (fc *fnCtx) addOffset(base string, off int64) string {
	if off == 0 {
		return base
	}
	v := fc.fresh()
	fc.emitf("%s =l add %s, %d", v, base, off)
	return v
}

func (fc *fnCtx) lowerCall(e ir.Entry) {
	target, _ := fc.operand(e.Arg1, 8, types.GP)
	var parts []string
	for _, a := range fc.pendingArgs {
		parts = append(parts, a.ty+" "+a.val)
	}
	fc.pendingArgs = nil
	argList := strings.Join(parts, ", ")

	// genFunction primes fc.nextEntry with the Entry immediately following
	// this one; retAccess.Load/Addr always emits right after Call with
	// nothing in between, so a Move reading a Reg there is how the call's
	// result, if any, gets captured (OpCall itself carries no Dest).
	if fc.nextEntry != nil {
		if fc.nextEntry.Op == ir.OpMove {
			if reg, ok := fc.nextEntry.Arg1.(ir.Reg); ok {
				ty := baseType(fc.nextEntry.Size, types.GP)
				if t, ok := fc.nextEntry.Dest.(ir.Temp); ok {
					ty = baseType(t.Size, t.Kind)
				}
				v := fc.fresh()
				fc.emitf("%s =%s call %s(%s)", v, ty, target, argList)
				fc.storeSlot(regSlot(reg.N), sizeOfTy(ty), kindOfTy(ty), v)
				fc.lastTerm = false
				return
			}
		}
	}
	fc.emitf("call %s(%s)", target, argList)
	fc.lastTerm = false
}

func (fc *fnCtx) lowerReturn(e ir.Entry) {
	if fc.retSlot == "" {
		fc.emitf("ret")
		fc.lastTerm = true
		return
	}
	v := fc.loadSlot(fc.retSlot, sizeOfTy(fc.retTy), kindOfTy(fc.retTy))
	fc.emitf("ret %s", v)
	fc.lastTerm = true
}

func (fc *fnCtx) lowerConvert(e ir.Entry) {
	switch e.Op {
	case ir.OpSXShort, ir.OpSXInt, ir.OpSXLong, ir.OpZXShort, ir.OpZXInt, ir.OpZXLong:
		mnemonic := extMnemonic(e.Op, e.Size)
		v, _ := fc.operand(e.Arg1, e.Size, types.GP)
		dty := baseType(e.Size, types.GP)
		if t, ok := e.Dest.(ir.Temp); ok {
			dty = baseType(t.Size, t.Kind)
		}
		r := fc.fresh()
		fc.emitf("%s =%s %s %s", r, dty, mnemonic, v)
		fc.storeDest(e.Dest, r, dty)
	case ir.OpTruncByte, ir.OpTruncShort, ir.OpTruncInt:
		v, _ := fc.operand(e.Arg1, e.Size, types.GP)
		dty := "w"
		if t, ok := e.Dest.(ir.Temp); ok {
			dty = baseType(t.Size, t.Kind)
		}
		r := fc.fresh()
		fc.emitf("%s =%s copy %s", r, dty, v)
		fc.storeDest(e.Dest, r, dty)
	case ir.OpSToFloat, ir.OpSToDouble, ir.OpUToFloat, ir.OpUToDouble:
		srcSize := 8
		if t, ok := e.Arg1.(ir.Temp); ok {
			srcSize = t.Size
		}
		v, _ := fc.operand(e.Arg1, srcSize, types.GP)
		mnemonic := intToFloatMnemonic(e.Op, srcSize)
		dty := baseType(e.Size, types.SSE)
		if t, ok := e.Dest.(ir.Temp); ok {
			dty = baseType(t.Size, t.Kind)
		}
		r := fc.fresh()
		fc.emitf("%s =%s %s %s", r, dty, mnemonic, v)
		fc.storeDest(e.Dest, r, dty)
	case ir.OpFToByte, ir.OpFToShort, ir.OpFToInt, ir.OpFToLong:
		v, sty := fc.operand(e.Arg1, e.Size, types.SSE)
		mnemonic := "stosi"
		if sty == "d" {
			mnemonic = "dtosi"
		}
		dty := "w"
		if t, ok := e.Dest.(ir.Temp); ok {
			dty = baseType(t.Size, t.Kind)
		}
		r := fc.fresh()
		fc.emitf("%s =%s %s %s", r, dty, mnemonic, v)
		fc.storeDest(e.Dest, r, dty)
	case ir.OpFToFloat:
		v, _ := fc.operand(e.Arg1, e.Size, types.SSE)
		r := fc.fresh()
		fc.emitf("%s =s truncd %s", r, v)
		fc.storeDest(e.Dest, r, "s")
	case ir.OpFToDouble:
		v, _ := fc.operand(e.Arg1, e.Size, types.SSE)
		r := fc.fresh()
		fc.emitf("%s =d exts %s", r, v)
		fc.storeDest(e.Dest, r, "d")
	}
}

func extMnemonic(op ir.Operator, size int) string {
	signed := op == ir.OpSXShort || op == ir.OpSXInt || op == ir.OpSXLong
	switch {
	case size == 1:
		if signed {
			return "extsb"
		}
		return "extub"
	case size == 2:
		if signed {
			return "extsh"
		}
		return "extuh"
	default:
		if signed {
			return "extsw"
		}
		return "extuw"
	}
}

func intToFloatMnemonic(op ir.Operator, srcSize int) string {
	unsigned := op == ir.OpUToFloat || op == ir.OpUToDouble
	if srcSize <= 4 {
		if unsigned {
			return "uwtof"
		}
		return "swtof"
	}
	if unsigned {
		return "ultof"
	}
	return "sltof"
}

func sanitizeLabel(name string) string {
	return strings.NewReplacer(".", "_").Replace(name)
}
