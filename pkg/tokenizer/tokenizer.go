// Package tokenizer converts raw SQL text into a flat token stream.
//
// The tokenizer is deliberately lenient: it knows about string literals, quoted
// identifiers, comments and parentheses, which is what clause splitting needs, and
// nothing about SQL grammar. Besides tokens it reports lexical defects such as an
// unterminated literal or unbalanced parentheses.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// multiCharOperators is ordered longest first.
var multiCharOperators = []string{
	"<=>", "->>", "<>", "<=", ">=", "!=", "==", "||", "&&", "::", "->", ":=",
}

type lexer struct {
	src     string
	dialect types.Dialect
	pos     int
	line    int
	col     int

	depth  int
	opens  []types.Position
	tokens []Token
	errs   []*types.SyntaxError
}

// Tokenize splits text into tokens. A non-empty error list means the text is
// lexically malformed; the returned tokens are then incomplete and must not be used
// for analysis.
func Tokenize(text string, dialect types.Dialect) ([]Token, []*types.SyntaxError) {
	l := &lexer{
		src:     text,
		dialect: dialect,
		line:    1,
		col:     1,
	}
	l.run()
	return l.tokens, l.errs
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		switch {
		case b == '\n':
			l.pos++
			l.line++
			l.col = 1
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			l.advance(1)
		case b == '-' && l.peek(1) == '-':
			l.skipLineComment()
		case b == '#' && l.dialect == types.Dialect_MYSQL:
			l.skipLineComment()
		case b == '/' && l.peek(1) == '*':
			if !l.skipBlockComment() {
				return
			}
		case b == '\'':
			if !l.lexQuoted('\'', String) {
				return
			}
		case b == '"':
			kind := QuotedIdent
			if l.dialect == types.Dialect_MYSQL {
				kind = String
			}
			if !l.lexQuoted('"', kind) {
				return
			}
		case b == '`':
			if !l.lexQuoted('`', QuotedIdent) {
				return
			}
		case b == '[' && (l.dialect == types.Dialect_MSSQL || l.dialect == types.Dialect_SQLITE):
			if !l.lexBracketIdent() {
				return
			}
		case b == '$':
			if !l.lexDollar() {
				return
			}
		case b == '?':
			l.emit(Placeholder, l.pos, l.pos+1)
		case b == '@':
			l.lexVariable()
		case b == ':' && isIdentStart(l.peek(1)):
			l.lexVariable()
		case isDigit(b) || (b == '.' && isDigit(l.peek(1))):
			l.lexNumber()
		case b == '(':
			l.opens = append(l.opens, types.Position{Line: int32(l.line), Column: int32(l.col)})
			l.emit(LParen, l.pos, l.pos+1)
			l.depth++
		case b == ')':
			if l.depth == 0 {
				l.errorf(l.line, l.col, "unexpected ')' without a matching '('")
				l.emit(RParen, l.pos, l.pos+1)
				continue
			}
			l.depth--
			l.opens = l.opens[:len(l.opens)-1]
			l.emit(RParen, l.pos, l.pos+1)
		case b == ',':
			l.emit(Comma, l.pos, l.pos+1)
		case b == ';':
			l.emit(Semicolon, l.pos, l.pos+1)
		case b == '.':
			l.emit(Dot, l.pos, l.pos+1)
		case isIdentStart(b):
			l.lexWord()
		case b >= utf8.RuneSelf:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if unicode.IsLetter(r) {
				l.lexWord()
			} else if unicode.IsSpace(r) {
				l.pos += size
				l.col++
			} else {
				l.emit(Operator, l.pos, l.pos+size)
			}
		default:
			l.lexOperator()
		}
	}

	for i := len(l.opens) - 1; i >= 0; i-- {
		open := l.opens[i]
		l.errorf(int(open.Line), int(open.Column), "unbalanced parentheses: '(' is never closed")
	}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

// advance moves over n bytes that contain no newline.
func (l *lexer) advance(n int) {
	l.pos += n
	l.col += n
}

// emit appends the token spanning src[start:end] and moves the cursor to end.
func (l *lexer) emit(kind Kind, start, end int) {
	text := l.src[start:end]
	tok := Token{
		Kind:  kind,
		Text:  text,
		Pos:   start,
		End:   end,
		Line:  l.line,
		Col:   l.col,
		Depth: l.depth,
	}
	if kind == Word {
		tok.Upper = strings.ToUpper(text)
	}
	l.tokens = append(l.tokens, tok)
	l.moveTo(end)
}

// moveTo moves the cursor to end, keeping line and column in step.
func (l *lexer) moveTo(end int) {
	for l.pos < end {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func (l *lexer) errorf(line, col int, format string, args ...any) {
	l.errs = append(l.errs, &types.SyntaxError{
		Message:  fmt.Sprintf(format, args...),
		Position: &types.Position{Line: int32(line), Column: int32(col)},
	})
}

func (l *lexer) skipLineComment() {
	end := strings.IndexByte(l.src[l.pos:], '\n')
	if end < 0 {
		l.moveTo(len(l.src))
		return
	}
	l.moveTo(l.pos + end)
}

func (l *lexer) skipBlockComment() bool {
	end := strings.Index(l.src[l.pos+2:], "*/")
	if end < 0 {
		l.errorf(l.line, l.col, "unterminated block comment")
		return false
	}
	l.moveTo(l.pos + 2 + end + 2)
	return true
}

// lexQuoted scans a literal delimited by quote. A doubled quote is an escaped quote;
// MySQL also accepts backslash escapes inside string literals.
func (l *lexer) lexQuoted(quote byte, kind Kind) bool {
	start := l.pos
	i := l.pos + 1
	for i < len(l.src) {
		c := l.src[i]
		if c == '\\' && kind == String && l.dialect == types.Dialect_MYSQL {
			i += 2
			continue
		}
		if c == quote {
			if i+1 < len(l.src) && l.src[i+1] == quote {
				i += 2
				continue
			}
			l.emit(kind, start, i+1)
			return true
		}
		i++
	}
	if kind == String {
		l.errorf(l.line, l.col, "unterminated string literal")
	} else {
		l.errorf(l.line, l.col, "unterminated quoted identifier")
	}
	return false
}

func (l *lexer) lexBracketIdent() bool {
	end := strings.IndexByte(l.src[l.pos:], ']')
	if end < 0 {
		l.errorf(l.line, l.col, "unterminated quoted identifier")
		return false
	}
	l.emit(QuotedIdent, l.pos, l.pos+end+1)
	return true
}

// lexDollar handles positional parameters ($1) and dollar-quoted strings ($tag$...$tag$).
func (l *lexer) lexDollar() bool {
	i := l.pos + 1
	if isDigit(l.peek(1)) {
		for i < len(l.src) && isDigit(l.src[i]) {
			i++
		}
		l.emit(Placeholder, l.pos, i)
		return true
	}
	for i < len(l.src) && isIdentCont(l.src[i]) && l.src[i] != '$' {
		i++
	}
	if i < len(l.src) && l.src[i] == '$' {
		tag := l.src[l.pos : i+1]
		end := strings.Index(l.src[i+1:], tag)
		if end < 0 {
			l.errorf(l.line, l.col, "unterminated dollar-quoted string")
			return false
		}
		l.emit(String, l.pos, i+1+end+len(tag))
		return true
	}
	l.emit(Operator, l.pos, l.pos+1)
	return true
}

func (l *lexer) lexVariable() {
	i := l.pos + 1
	for i < len(l.src) && (l.src[i] == '@' || isIdentCont(l.src[i])) {
		i++
	}
	l.emit(Placeholder, l.pos, i)
}

func (l *lexer) lexNumber() {
	i := l.pos
	if l.src[i] == '0' && i+1 < len(l.src) && (l.src[i+1] == 'x' || l.src[i+1] == 'X') {
		i += 2
		for i < len(l.src) && isHexDigit(l.src[i]) {
			i++
		}
		l.emit(Number, l.pos, i)
		return
	}
	for i < len(l.src) && isDigit(l.src[i]) {
		i++
	}
	if i < len(l.src) && l.src[i] == '.' {
		i++
		for i < len(l.src) && isDigit(l.src[i]) {
			i++
		}
	}
	if i < len(l.src) && (l.src[i] == 'e' || l.src[i] == 'E') {
		j := i + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			i = j
			for i < len(l.src) && isDigit(l.src[i]) {
				i++
			}
		}
	}
	l.emit(Number, l.pos, i)
}

func (l *lexer) lexWord() {
	i := l.pos
	for i < len(l.src) {
		c := l.src[i]
		if isIdentCont(c) {
			i++
			continue
		}
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(l.src[i:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				i += size
				continue
			}
		}
		break
	}
	l.emit(Word, l.pos, i)
}

func (l *lexer) lexOperator() {
	rest := l.src[l.pos:]
	for _, op := range multiCharOperators {
		if strings.HasPrefix(rest, op) {
			l.emit(Operator, l.pos, l.pos+len(op))
			return
		}
	}
	l.emit(Operator, l.pos, l.pos+1)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b) || b == '$'
}
