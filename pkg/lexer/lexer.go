// Package lexer implements the pull-based tokenizer of spec §4.1: a
// context-sensitive scanner whose only context dependency is identifier
// classification (ID vs TYPE_ID), delegated to a TypeClassifier so the
// lexer itself never touches the symbol table directly.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tlc-lang/tlc/pkg/diag"
	"github.com/tlc-lang/tlc/pkg/token"
)

// TypeClassifier answers whether name currently denotes a type; pkg/symtab's
// *Environment implements this directly (SPEC_FULL §6), generalizing the
// teacher's feature-flag-gated Lexer.cfg into a symbol-table lookup.
type TypeClassifier interface {
	IsType(name string) bool
}

// Lexer produces one token at a time via Next, with single-token pushback
// via Unlex — the parser never needs more (spec §4.1).
type Lexer struct {
	source     []rune
	file       string
	fileIndex  int
	pos        int
	line       int
	column     int
	classifier TypeClassifier
	bag        *diag.Bag

	pushedBack *token.Token
}

func New(source []rune, file string, fileIndex int, classifier TypeClassifier, bag *diag.Bag) *Lexer {
	return &Lexer{
		source: source, file: file, fileIndex: fileIndex,
		line: 1, column: 1, classifier: classifier, bag: bag,
	}
}

// Unlex pushes tok back; the next Next() call returns it instead of
// scanning. Only one token of pushback is supported (spec §4.1).
func (l *Lexer) Unlex(tok token.Token) {
	l.pushedBack = &tok
}

func (l *Lexer) Next() token.Token {
	if l.pushedBack != nil {
		tok := *l.pushedBack
		l.pushedBack = nil
		return tok
	}
	return l.scan()
}

func (l *Lexer) scan() token.Token {
	for {
		l.skipWhitespaceAndComments()
		startLine, startCol := l.line, l.column

		if l.isAtEnd() {
			return l.tok(token.EOF, "", startLine, startCol, 0)
		}

		ch := l.peek()

		if ch == 'L' && (l.peekAt(1) == '"' || l.peekAt(1) == '\'') {
			l.advance()
			return l.stringOrCharLiteral(true, startLine, startCol)
		}
		if unicode.IsLetter(ch) || ch == '_' {
			return l.identifierOrKeyword(startLine, startCol)
		}
		if unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peekAt(1))) {
			return l.numberLiteral(startLine, startCol)
		}
		if ch == '"' || ch == '\'' {
			return l.stringOrCharLiteral(false, startLine, startCol)
		}

		l.advance()
		switch ch {
		case '(':
			return l.tok(token.LParen, "", startLine, startCol, 1)
		case ')':
			return l.tok(token.RParen, "", startLine, startCol, 1)
		case '{':
			return l.tok(token.LBrace, "", startLine, startCol, 1)
		case '}':
			return l.tok(token.RBrace, "", startLine, startCol, 1)
		case '[':
			return l.tok(token.LBracket, "", startLine, startCol, 1)
		case ']':
			return l.tok(token.RBracket, "", startLine, startCol, 1)
		case ';':
			return l.tok(token.Semi, "", startLine, startCol, 1)
		case ',':
			return l.tok(token.Comma, "", startLine, startCol, 1)
		case '?':
			return l.tok(token.Question, "", startLine, startCol, 1)
		case '~':
			return l.tok(token.Tilde, "", startLine, startCol, 1)
		case '.':
			if l.peek() == '.' && l.peekAt(1) == '.' {
				l.advance()
				l.advance()
				return l.tok(token.Ellipsis, "", startLine, startCol, 3)
			}
			return l.tok(token.Dot, "", startLine, startCol, 1)
		case ':':
			if l.match(':') {
				return l.tok(token.ColonColon, "", startLine, startCol, 2)
			}
			return l.tok(token.Colon, "", startLine, startCol, 1)
		case '!':
			return l.matchThen('=', token.Neq, token.Bang, startLine, startCol)
		case '^':
			return l.matchThen('=', token.XorAssign, token.Caret, startLine, startCol)
		case '%':
			return l.matchThen('=', token.RemAssign, token.Rem, startLine, startCol)
		case '+':
			return l.plus(startLine, startCol)
		case '-':
			return l.minus(startLine, startCol)
		case '*':
			return l.matchThen('=', token.StarAssign, token.Star, startLine, startCol)
		case '/':
			return l.matchThen('=', token.SlashAssign, token.Slash, startLine, startCol)
		case '&':
			return l.ampersand(startLine, startCol)
		case '|':
			return l.pipe(startLine, startCol)
		case '<':
			return l.less(startLine, startCol)
		case '>':
			return l.greater(startLine, startCol)
		case '=':
			return l.matchThen('=', token.EqEq, token.Assign, startLine, startCol)
		}

		l.bag.Errorf(l.file, startLine, startCol, 1, "unexpected character '%c'", ch)
		// continue scanning past the bad byte rather than aborting the file.
	}
}

func (l *Lexer) plus(line, col int) token.Token {
	if l.match('+') {
		return l.tok(token.Inc, "", line, col, 2)
	}
	if l.match('=') {
		return l.tok(token.PlusAssign, "", line, col, 2)
	}
	return l.tok(token.Plus, "", line, col, 1)
}

func (l *Lexer) minus(line, col int) token.Token {
	if l.match('-') {
		return l.tok(token.Dec, "", line, col, 2)
	}
	if l.match('=') {
		return l.tok(token.MinusAssign, "", line, col, 2)
	}
	if l.match('>') {
		return l.tok(token.Arrow, "", line, col, 2)
	}
	return l.tok(token.Minus, "", line, col, 1)
}

func (l *Lexer) ampersand(line, col int) token.Token {
	if l.match('&') {
		if l.match('=') {
			return l.tok(token.LAndAssign, "", line, col, 3)
		}
		return l.tok(token.AndAnd, "", line, col, 2)
	}
	if l.match('=') {
		return l.tok(token.AndAssign, "", line, col, 2)
	}
	return l.tok(token.Amp, "", line, col, 1)
}

func (l *Lexer) pipe(line, col int) token.Token {
	if l.match('|') {
		if l.match('=') {
			return l.tok(token.LOrAssign, "", line, col, 3)
		}
		return l.tok(token.OrOr, "", line, col, 2)
	}
	if l.match('=') {
		return l.tok(token.OrAssign, "", line, col, 2)
	}
	return l.tok(token.Pipe, "", line, col, 1)
}

// less handles <, <=, <<, <<=, <=>, and the aggregate-init opener '<' is
// disambiguated by the parser (it is the same token.Lt).
func (l *Lexer) less(line, col int) token.Token {
	if l.match('<') {
		if l.match('=') {
			return l.tok(token.ShlAssign, "", line, col, 3)
		}
		return l.tok(token.Shl, "", line, col, 2)
	}
	if l.match('=') {
		if l.match('>') {
			return l.tok(token.Spaceship, "", line, col, 3)
		}
		return l.tok(token.Le, "", line, col, 2)
	}
	return l.tok(token.Lt, "", line, col, 1)
}

// greater handles >, >=, >>, >>=, >>>, >>>=.
func (l *Lexer) greater(line, col int) token.Token {
	if l.match('>') {
		if l.match('>') {
			if l.match('=') {
				return l.tok(token.AShrAssign, "", line, col, 4)
			}
			return l.tok(token.AShr, "", line, col, 3)
		}
		if l.match('=') {
			return l.tok(token.ShrAssign, "", line, col, 3)
		}
		return l.tok(token.Shr, "", line, col, 2)
	}
	if l.match('=') {
		return l.tok(token.Ge, "", line, col, 2)
	}
	return l.tok(token.Gt, "", line, col, 1)
}

func (l *Lexer) identifierOrKeyword(line, col int) token.Token {
	start := l.pos
	for !l.isAtEnd() && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	name := string(l.source[start:l.pos])
	length := l.pos - start
	if kw, ok := token.LookupKeyword(name); ok {
		return l.tok(kw, "", line, col, length)
	}
	if l.classifier != nil && l.classifier.IsType(name) {
		return l.tok(token.TypeID, name, line, col, length)
	}
	return l.tok(token.Ident, name, line, col, length)
}

func (l *Lexer) numberLiteral(line, col int) token.Token {
	start := l.pos
	isFloat := false

	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for !l.isAtEnd() && isHexDigit(l.peek()) {
			l.advance()
		}
		return l.tok(token.IntLit, string(l.source[start:l.pos]), line, col, l.pos-start)
	}
	if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance()
		l.advance()
		for !l.isAtEnd() && (l.peek() == '0' || l.peek() == '1') {
			l.advance()
		}
		return l.tok(token.IntLit, string(l.source[start:l.pos]), line, col, l.pos-start)
	}
	if l.peek() == '0' && l.peekAt(1) >= '0' && l.peekAt(1) <= '7' {
		l.advance()
		for !l.isAtEnd() && l.peek() >= '0' && l.peek() <= '7' {
			l.advance()
		}
		return l.tok(token.IntLit, string(l.source[start:l.pos]), line, col, l.pos-start)
	}

	for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	kind := token.IntLit
	if isFloat {
		kind = token.FloatLit
	}
	return l.tok(kind, string(l.source[start:l.pos]), line, col, l.pos-start)
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (l *Lexer) stringOrCharLiteral(wide bool, line, col int) token.Token {
	startPos := l.pos
	if wide {
		startPos--
	}
	quote := l.peek()
	l.advance()
	var sb strings.Builder
	for !l.isAtEnd() && l.peek() != quote {
		if l.peek() == '\n' {
			break
		}
		if l.peek() == '\\' {
			l.advance()
			sb.WriteRune(l.decodeEscape())
			continue
		}
		sb.WriteRune(l.peek())
		l.advance()
	}
	if l.isAtEnd() || l.peek() != quote {
		kind := "string"
		if quote == '\'' {
			kind = "char"
		}
		l.bag.Errorf(l.file, line, col, l.pos-startPos, "unterminated %s literal", kind)
	} else {
		l.advance()
	}
	length := l.pos - startPos
	if quote == '\'' {
		kind := token.CharLit
		if wide {
			kind = token.WCharLit
		}
		return l.tok(kind, sb.String(), line, col, length)
	}
	kind := token.StringLit
	if wide {
		kind = token.WStringLit
	}
	return l.tok(kind, sb.String(), line, col, length)
}

func (l *Lexer) decodeEscape() rune {
	if l.isAtEnd() {
		return '\\'
	}
	c := l.peek()
	l.advance()
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case '0':
		return 0
	case '"':
		return '"'
	case '\'':
		return '\''
	case '\\':
		return '\\'
	case 'x':
		return l.parseHexEscape(2)
	case 'u':
		return l.parseHexEscape(8)
	default:
		l.bag.Warnf(l.file, l.line, l.column, 1, "u-esc", "unrecognized escape sequence '\\%c'", c)
		return c
	}
}

func (l *Lexer) parseHexEscape(digits int) rune {
	start := l.pos
	n := 0
	for n < digits && !l.isAtEnd() && isHexDigit(l.peek()) {
		l.advance()
		n++
	}
	if n == 0 {
		return 0
	}
	v, err := strconv.ParseInt(string(l.source[start:l.pos]), 16, 64)
	if err != nil {
		return 0
	}
	return rune(v)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekAt(1) == '/' {
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			} else if l.peekAt(1) == '*' {
				l.advance()
				l.advance()
				for !l.isAtEnd() && !(l.peek() == '*' && l.peekAt(1) == '/') {
					l.advance()
				}
				if l.isAtEnd() {
					l.bag.Errorf(l.file, l.line, l.column, 1, "unterminated block comment")
					return
				}
				l.advance()
				l.advance()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) advance() rune {
	r := l.source[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) matchThen(expected rune, ifMatch, ifNot token.Kind, line, col int) token.Token {
	if l.match(expected) {
		return l.tok(ifMatch, "", line, col, 2)
	}
	return l.tok(ifNot, "", line, col, 1)
}

func (l *Lexer) tok(kind token.Kind, payload string, line, col, length int) token.Token {
	return token.Token{Kind: kind, Payload: payload, FileIndex: l.fileIndex, Line: line, Column: col, Len: length}
}
