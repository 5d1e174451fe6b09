package ast

// Node is a tagged variant over declarations, statements, and expressions
// (spec §3). Like Type, it carries no behavior beyond identification and
// location — resolution results are stored on Expr nodes directly as
// nullable fields, following the "side table or nullable field, either is
// acceptable" guidance (spec §9); this repo uses nullable fields.
type Node interface {
	Located
	node()
}

// Expr is any expression-producing node. ResultType is filled by the type
// checker; every non-Const expression must have a non-nil ResultType after
// a successful check (spec §3 invariant).
type Expr interface {
	Node
	exprNode()
	Type() Type
	SetType(Type)
}

// exprBase factors out the ResultType field shared by every expression kind.
type exprBase struct {
	Pos
	ResultType Type
}

func (e *exprBase) node()           {}
func (e *exprBase) exprNode()       {}
func (e *exprBase) Type() Type      { return e.ResultType }
func (e *exprBase) SetType(t Type)  { e.ResultType = t }

// ---- Top level ----

// File is the root node: one module declaration, its imports, and its body.
type File struct {
	Pos
	Path    string
	IsCode  bool // .t vs .th, spec §6
	Module  *ModuleDecl
	Imports []*ImportDecl
	Decls   []Node
	Errored bool
}

func (*File) node() {}

type ModuleDecl struct {
	Pos
	Name string
}

func (*ModuleDecl) node() {}

type ImportDecl struct {
	Pos
	Module string
}

func (*ImportDecl) node() {}

// ---- Declarations ----

type FunDecl struct {
	Pos
	Name       string
	Return     Type
	Params     []Param
	Variadic   bool
	Overload   int // index into the resolved OverloadSet, filled by the checker
}

func (*FunDecl) node() {}

type Param struct {
	Pos
	Name   string
	Type   Type
	Symbol interface{} // resolved *symtab.VarInfo, filled by the checker
}

// Function is a full definition (declaration plus body); it appears only in
// code modules (spec §4.3 "isCode flag selects whether definitions are
// permitted").
type Function struct {
	Pos
	Decl *FunDecl
	Body *CompoundStmt
}

func (*Function) node() {}

type VarDecl struct {
	Pos
	Name   string
	Type   Type
	Symbol interface{} // resolved *symtab.VarInfo, filled by the checker
}

func (*VarDecl) node() {}

// VarDefnStmt is a local or global variable definition with an optional
// initializer.
type VarDefnStmt struct {
	Pos
	Name   string
	Type   Type
	Init   Expr        // nil if uninitialized
	Symbol interface{} // resolved *symtab.VarInfo, filled by the checker
}

func (*VarDefnStmt) node() {}

type StructDecl struct {
	Pos
	Type *Aggregate
}

func (*StructDecl) node() {}

type UnionDecl struct {
	Pos
	Type *UnionType
}

func (*UnionDecl) node() {}

type EnumDecl struct {
	Pos
	Type *EnumType
}

func (*EnumDecl) node() {}

type TypedefDecl struct {
	Pos
	Name   string
	Target Type
}

func (*TypedefDecl) node() {}

// OpaqueDecl forward-declares a struct/union tag without fields (SPEC_FULL
// §5 incompleteness lifecycle).
type OpaqueDecl struct {
	Pos
	Tag  string
	Kind EntryKind // EntryStruct or EntryUnion
}

func (*OpaqueDecl) node() {}

type FieldDecl struct {
	Pos
	Name string
	Type Type
}

func (*FieldDecl) node() {}

// ---- Statements ----

type CompoundStmt struct {
	Pos
	Stmts []Node
}

func (*CompoundStmt) node() {}

type IfStmt struct {
	Pos
	Cond Expr
	Then Node
	Else Node // nil if no else
}

func (*IfStmt) node() {}

type WhileStmt struct {
	Pos
	Cond Expr
	Body Node
}

func (*WhileStmt) node() {}

type DoWhileStmt struct {
	Pos
	Body Node
	Cond Expr
}

func (*DoWhileStmt) node() {}

type ForStmt struct {
	Pos
	Init Node // VarDefnStmt, ExpressionStmt, or nil
	Cond Expr // nil means always-true
	Upd  Expr // nil if absent
	Body Node
}

func (*ForStmt) node() {}

type SwitchStmt struct {
	Pos
	Tag  Expr
	Body *CompoundStmt
}

func (*SwitchStmt) node() {}

type CaseStmt struct {
	Pos
	Value Expr // must fold to a compile-time integer constant
}

func (*CaseStmt) node() {}

type DefaultStmt struct {
	Pos
}

func (*DefaultStmt) node() {}

type BreakStmt struct{ Pos }

func (*BreakStmt) node() {}

type ContinueStmt struct{ Pos }

func (*ContinueStmt) node() {}

type ReturnStmt struct {
	Pos
	Value Expr // nil for void return
}

func (*ReturnStmt) node() {}

type AsmStmt struct {
	Pos
	Text string
}

func (*AsmStmt) node() {}

type ExpressionStmt struct {
	Pos
	Expr Expr
}

func (*ExpressionStmt) node() {}

type NullStmt struct{ Pos }

func (*NullStmt) node() {}

// ---- Expressions ----

// BinOp covers arithmetic, bitwise, spaceship, and assignment operators
// (plain and compound); see pkg/token for the operator set. Compound and
// plain assignment share this node because neither needs the branch-lowering
// treatment reserved for LAndAssign/LOrAssign (spec §4.9).
type BinOp struct {
	exprBase
	Op    BinOpKind
	Left  Expr
	Right Expr
}

type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpAShr
	OpSpaceship
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpRemAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign
	OpAShrAssign
)

// IsAssign reports whether op is a plain or compound assignment.
func (op BinOpKind) IsAssign() bool { return op >= OpAssign }

// IsCompoundAssign reports whether op is an arithmetic-then-store assignment
// (everything but plain '=').
func (op BinOpKind) IsCompoundAssign() bool { return op > OpAssign }

func NewBinOp(pos Pos, op BinOpKind, l, r Expr) *BinOp {
	return &BinOp{exprBase: exprBase{Pos: pos}, Op: op, Left: l, Right: r}
}

// CompOp covers the relational/equality comparisons, which always yield
// bool (spec §4.6), kept separate from BinOp so the type checker's result
// type for this family is not conditional on the operator.
type CompOp struct {
	exprBase
	Op    CompOpKind
	Left  Expr
	Right Expr
}

type CompOpKind int

const (
	CmpEq CompOpKind = iota
	CmpNe
	CmpLt
	CmpGt
	CmpLe
	CmpGe
)

func NewCompOp(pos Pos, op CompOpKind, l, r Expr) *CompOp {
	return &CompOp{exprBase: exprBase{Pos: pos}, Op: op, Left: l, Right: r}
}

// UnOp covers prefix unary and pre/post inc-dec; Postfix distinguishes
// x++ / x-- from ++x / --x (DESIGN.md Open Question decision 1: operand evaluated
// once, old value captured before the store for postfix forms).
type UnOp struct {
	exprBase
	Op      UnOpKind
	Operand Expr
	Postfix bool
}

type UnOpKind int

const (
	OpNeg UnOpKind = iota
	OpPos
	OpNot   // logical !
	OpCompl // bitwise ~
	OpDeref
	OpAddrOf
	OpInc
	OpDec
)

func NewUnOp(pos Pos, op UnOpKind, e Expr, postfix bool) *UnOp {
	return &UnOp{exprBase: exprBase{Pos: pos}, Op: op, Operand: e, Postfix: postfix}
}

// LAndAssign / LOrAssign are &&= and ||=: they require branch lowering
// (short-circuit) at the assignment target, unlike ordinary compound
// assignment (spec §4.9).
type LAndAssign struct {
	exprBase
	Target Expr
	Value  Expr
}

func NewLAndAssign(pos Pos, target, value Expr) *LAndAssign {
	return &LAndAssign{exprBase: exprBase{Pos: pos}, Target: target, Value: value}
}

type LOrAssign struct {
	exprBase
	Target Expr
	Value  Expr
}

func NewLOrAssign(pos Pos, target, value Expr) *LOrAssign {
	return &LOrAssign{exprBase: exprBase{Pos: pos}, Target: target, Value: value}
}

type LAnd struct {
	exprBase
	Left, Right Expr
}

func NewLAnd(pos Pos, l, r Expr) *LAnd { return &LAnd{exprBase: exprBase{Pos: pos}, Left: l, Right: r} }

type LOr struct {
	exprBase
	Left, Right Expr
}

func NewLOr(pos Pos, l, r Expr) *LOr { return &LOr{exprBase: exprBase{Pos: pos}, Left: l, Right: r} }

type Ternary struct {
	exprBase
	Cond, Then, Else Expr
}

func NewTernary(pos Pos, c, t, e Expr) *Ternary {
	return &Ternary{exprBase: exprBase{Pos: pos}, Cond: c, Then: t, Else: e}
}

type StructAccess struct {
	exprBase
	Base   Expr
	Member string
}

func NewStructAccess(pos Pos, base Expr, member string) *StructAccess {
	return &StructAccess{exprBase: exprBase{Pos: pos}, Base: base, Member: member}
}

type StructPtrAccess struct {
	exprBase
	Base   Expr
	Member string
}

func NewStructPtrAccess(pos Pos, base Expr, member string) *StructPtrAccess {
	return &StructPtrAccess{exprBase: exprBase{Pos: pos}, Base: base, Member: member}
}

// Subscript is e[i]; not named explicitly in the AST variant list but
// required by the lvalue rules of the type checker ("Id, Deref,
// ArrayAccess, StructAccess, StructPtrAccess" — spec §4.6), so it is added
// here as a first-class node rather than desugared to pointer arithmetic.
type Subscript struct {
	exprBase
	Base  Expr
	Index Expr
}

func NewSubscript(pos Pos, base, index Expr) *Subscript {
	return &Subscript{exprBase: exprBase{Pos: pos}, Base: base, Index: index}
}

type FnCall struct {
	exprBase
	Callee   Expr // typically an Id; carries Overload after resolution
	Args     []Expr
	Overload int
}

func NewFnCall(pos Pos, callee Expr, args []Expr) *FnCall {
	return &FnCall{exprBase: exprBase{Pos: pos}, Callee: callee, Args: args, Overload: -1}
}

// ConstKind distinguishes the literal payload carried by a Const node.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstWString
	ConstChar
	ConstWChar
	ConstBool
	ConstNull
)

type Const struct {
	exprBase
	Kind ConstKind
	I    int64
	F    float64
	S    string
}

func NewConst(pos Pos, kind ConstKind) *Const {
	return &Const{exprBase: exprBase{Pos: pos}, Kind: kind}
}

// AggregateInit is a `<a, b, c>` literal used to initialize an array or
// struct.
type AggregateInit struct {
	exprBase
	Elems []Expr
}

func NewAggregateInit(pos Pos, elems []Expr) *AggregateInit {
	return &AggregateInit{exprBase: exprBase{Pos: pos}, Elems: elems}
}

type Cast struct {
	exprBase
	Target   Type
	Operand  Expr
}

func NewCast(pos Pos, target Type, operand Expr) *Cast {
	return &Cast{exprBase: exprBase{Pos: pos}, Target: target, Operand: operand}
}

type SizeofType struct {
	exprBase
	Target Type
}

func NewSizeofType(pos Pos, t Type) *SizeofType {
	return &SizeofType{exprBase: exprBase{Pos: pos}, Target: t}
}

type SizeofExp struct {
	exprBase
	Operand Expr
}

func NewSizeofExp(pos Pos, e Expr) *SizeofExp {
	return &SizeofExp{exprBase: exprBase{Pos: pos}, Operand: e}
}

// Seq is the comma operator: evaluates Elems left to right, yields the last
// (DESIGN.md Open Question decision 2: strict left-to-right side-effect ordering).
type Seq struct {
	exprBase
	Elems []Expr
}

func NewSeq(pos Pos, elems []Expr) *Seq {
	return &Seq{exprBase: exprBase{Pos: pos}, Elems: elems}
}

// Id is an identifier reference, possibly module-scoped (A::B) or
// double-scoped (M::T::name for an enum constant).
type Id struct {
	exprBase
	Module string // "" if unscoped
	Scope  string // enum tag for M::T::name forms, else ""
	Name   string
	Symbol interface{} // resolved *symtab.SymbolInfo, filled by the checker
}

func NewId(pos Pos, module, scope, name string) *Id {
	return &Id{exprBase: exprBase{Pos: pos}, Module: module, Scope: scope, Name: name}
}
