// Package token defines the lexical token kinds produced by pkg/lexer and
// consumed by pkg/parser.
package token

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Comment

	// Literals and identifiers. Ident is reclassified to TypeID by the
	// lexer's context-sensitive callback into the symbol table (spec §4.1).
	Ident
	TypeID
	IntLit
	FloatLit
	StringLit
	WStringLit
	CharLit
	WCharLit

	// Keywords
	Module
	Using
	Struct
	Union
	Enum
	Typedef
	Opaque
	If
	Else
	While
	Do
	For
	Switch
	Case
	Default
	Break
	Continue
	Return
	Asm
	Cast
	Sizeof
	True
	False
	Null
	Const
	Volatile

	// Primitive type keywords
	KwByte
	KwUbyte
	KwShort
	KwUshort
	KwInt
	KwUint
	KwLong
	KwUlong
	KwChar
	KwWchar
	KwFloat
	KwDouble
	KwBool
	KwVoid

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Colon
	ColonColon
	Question
	Dot
	Arrow
	Ellipsis

	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	RemAssign
	AndAssign
	OrAssign
	XorAssign
	ShlAssign
	ShrAssign
	AShrAssign
	LAndAssign
	LOrAssign

	Plus
	Minus
	Star
	Slash
	Rem
	Amp
	Pipe
	Caret
	Tilde
	Bang
	Inc
	Dec

	Shl
	Shr    // logical right, >>
	AShr   // arithmetic right, >>>
	Lt
	Gt
	Le
	Ge
	Spaceship // <=>
	EqEq
	Neq
	AndAnd
	OrOr

	AggregateOpen  // <
	AggregateClose // >
)

var keywords = map[string]Kind{
	"module":   Module,
	"using":    Using,
	"struct":   Struct,
	"union":    Union,
	"enum":     Enum,
	"typedef":  Typedef,
	"opaque":   Opaque,
	"if":       If,
	"else":     Else,
	"while":    While,
	"do":       Do,
	"for":      For,
	"switch":   Switch,
	"case":     Case,
	"default":  Default,
	"break":    Break,
	"continue": Continue,
	"return":   Return,
	"asm":      Asm,
	"cast":     Cast,
	"sizeof":   Sizeof,
	"true":     True,
	"false":    False,
	"null":     Null,
	"const":    Const,
	"volatile": Volatile,
	"byte":     KwByte,
	"ubyte":    KwUbyte,
	"short":    KwShort,
	"ushort":   KwUshort,
	"int":      KwInt,
	"uint":     KwUint,
	"long":     KwLong,
	"ulong":    KwUlong,
	"char":     KwChar,
	"wchar":    KwWchar,
	"float":    KwFloat,
	"double":   KwDouble,
	"bool":     KwBool,
	"void":     KwVoid,
}

// LookupKeyword returns the keyword Kind for name, if any.
func LookupKeyword(name string) (Kind, bool) {
	k, ok := keywords[name]
	return k, ok
}

// IsPrimitiveTypeKeyword reports whether k names a primitive scalar type.
func IsPrimitiveTypeKeyword(k Kind) bool {
	return k >= KwByte && k <= KwVoid
}

// Token is a single lexical token. Payload carries literal text for
// identifiers, numbers, and strings; it is empty for punctuation and
// keywords (spec §3).
type Token struct {
	Kind      Kind
	Payload   string
	FileIndex int
	Line      int
	Column    int
	Len       int
}

func (t Token) String() string {
	if t.Payload != "" {
		return t.Payload
	}
	return KindString(t.Kind)
}

var kindNames = map[Kind]string{
	EOF: "<eof>", Comment: "<comment>", Ident: "identifier", TypeID: "type-name",
	IntLit: "integer literal", FloatLit: "float literal", StringLit: "string literal",
	WStringLit: "wide string literal", CharLit: "char literal", WCharLit: "wide char literal",
	Module: "module", Using: "using", Struct: "struct", Union: "union", Enum: "enum",
	Typedef: "typedef", Opaque: "opaque", If: "if", Else: "else", While: "while", Do: "do",
	For: "for", Switch: "switch", Case: "case", Default: "default", Break: "break",
	Continue: "continue", Return: "return", Asm: "asm", Cast: "cast", Sizeof: "sizeof",
	True: "true", False: "false", Null: "null", Const: "const", Volatile: "volatile",
	KwByte: "byte", KwUbyte: "ubyte", KwShort: "short", KwUshort: "ushort", KwInt: "int",
	KwUint: "uint", KwLong: "long", KwUlong: "ulong", KwChar: "char", KwWchar: "wchar",
	KwFloat: "float", KwDouble: "double", KwBool: "bool", KwVoid: "void",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semi: ";", Comma: ",", Colon: ":", ColonColon: "::", Question: "?", Dot: ".",
	Arrow: "->", Ellipsis: "...",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=",
	RemAssign: "%=", AndAssign: "&=", OrAssign: "|=", XorAssign: "^=", ShlAssign: "<<=",
	ShrAssign: ">>=", AShrAssign: ">>>=", LAndAssign: "&&=", LOrAssign: "||=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Rem: "%", Amp: "&", Pipe: "|", Caret: "^",
	Tilde: "~", Bang: "!", Inc: "++", Dec: "--",
	Shl: "<<", Shr: ">>", AShr: ">>>", Lt: "<", Gt: ">", Le: "<=", Ge: ">=",
	Spaceship: "<=>", EqEq: "==", Neq: "!=", AndAnd: "&&", OrOr: "||",
	AggregateOpen: "<", AggregateClose: ">",
}

// KindString returns the human-readable spelling used in diagnostics.
func KindString(k Kind) string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

// IsAssignOp reports whether k is one of the assignment-family operators
// (spec §4.3 expression precedence: "assignment variants (right-assoc)").
func IsAssignOp(k Kind) bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, RemAssign,
		AndAssign, OrAssign, XorAssign, ShlAssign, ShrAssign, AShrAssign,
		LAndAssign, LOrAssign:
		return true
	default:
		return false
	}
}
