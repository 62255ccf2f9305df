// Package lexer implements the single-pass byte-stream scanner of
// spec.md 4.E, grounded on the peek/peekN/advance scanning shape of
// lang/ylex/lexer.go (scanIdentifier, scanNumber, scanCharLiteral,
// scanString) generalized from that file's C-like token set to Ada 83's
// identifiers, based literals, doubled-quote string escapes and the
// "and then" / "or else" compound keyword fusion.
package lexer

import (
	"strings"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/token"
)

// Lexer scans one source buffer into a stream of Tokens, reported
// through Next. It never raises: unexpected input becomes a
// token.Error token plus a diagnostic, and scanning resumes at the
// next byte, matching spec.md 4.E's "never raise" failure rule.
type Lexer struct {
	file   string
	src    []byte
	pos    int
	line   int
	col    int
	arena  *arena.Arena
	report *diag.Reporter

	// pending holds a token already produced by peeking ahead, used by
	// the and-then/or-else fusion in Next.
	pending *token.Token
}

// New creates a Lexer over src, attributing diagnostics to file.
func New(file string, src []byte, a *arena.Arena, r *diag.Reporter) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1, arena: a, report: r}
}

func (l *Lexer) loc() diag.Location {
	return diag.Location{File: l.file, Line: l.line, Column: l.col}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	c := l.peek()
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func foldByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '-' && l.peekN(1) == '-':
			for l.peek() != '\n' && l.peek() != 0 {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next scans and returns the next token.
func (l *Lexer) Next() token.Token {
	if l.pending != nil {
		t := *l.pending
		l.pending = nil
		return t
	}
	l.skipWhitespaceAndComments()
	start := l.loc()
	c := l.peek()

	switch {
	case c == 0:
		return token.Token{Kind: token.EOF, Loc: start}
	case isLetter(c):
		return l.scanIdentifierOrKeyword(start)
	case isDigit(c):
		return l.scanNumber(start)
	case c == '"':
		return l.scanString(start)
	case c == '\'':
		// Could be a character literal ('x') or the apostrophe delimiter
		// (Attribute'First). Ada disambiguates by what follows: a
		// character literal is exactly 'c' with c any byte and a
		// closing quote three bytes later.
		if l.peekN(2) == '\'' {
			return l.scanCharLiteral(start)
		}
		l.advance()
		return token.Token{Kind: token.Apostrophe, Text: "'", Loc: start}
	default:
		return l.scanDelimiter(start)
	}
}

func (l *Lexer) scanIdentifierOrKeyword(start diag.Location) token.Token {
	begin := l.pos
	for isIdentChar(l.peek()) {
		l.advance()
	}
	text := string(l.src[begin:l.pos])
	folded := foldLower(text)
	if kw, ok := token.LookupKeyword(folded); ok {
		t := token.Token{Kind: kw, Text: text, Loc: start}
		return l.fuseCompoundKeyword(t)
	}
	return token.Token{Kind: token.Identifier, Text: l.arena.String(text), Loc: start}
}

func foldLower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[i] = foldByte(s[i])
	}
	return string(b)
}

// fuseCompoundKeyword implements "and then" / "or else": after
// emitting and/or, if the next token (skipping whitespace/comments) is
// then/else, the pair is fused into a single compound token and
// nothing is left pending. Otherwise the lookahead token is buffered
// in l.pending so the caller still receives it next.
func (l *Lexer) fuseCompoundKeyword(t token.Token) token.Token {
	if t.Kind != token.KwAnd && t.Kind != token.KwOr {
		return t
	}
	next := l.Next()
	if t.Kind == token.KwAnd && next.Kind == token.KwThen {
		t.Kind = token.KwAndThen
		t.Text = t.Text + " " + next.Text
		return t
	}
	if t.Kind == token.KwOr && next.Kind == token.KwElse {
		t.Kind = token.KwOrElse
		t.Text = t.Text + " " + next.Text
		return t
	}
	l.pending = &next
	return t
}

func (l *Lexer) scanNumber(start diag.Location) token.Token {
	begin := l.pos
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	// Based literal: <base>#<digits>[.<digits>]#[e[+|-]digits]
	if l.peek() == '#' || l.peek() == ':' {
		return l.scanBasedLiteral(start, begin)
	}

	isReal := false
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		isReal = true
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			isReal = true
			for isDigit(l.peek()) {
				l.advance()
			}
		} else {
			l.pos = save
		}
	}
	text := string(l.src[begin:l.pos])
	digits := stripUnderscores(text)
	if isReal {
		f, err := parseFloat(digits)
		if err != nil {
			l.report.Report(start, "malformed real literal %q", text)
			return token.Token{Kind: token.Error, Text: text, Loc: start}
		}
		return token.Token{Kind: token.RealLit, Text: text, RealValue: f, Loc: start}
	}
	return l.makeIntegerToken(start, text, digits)
}

// scanBasedLiteral handles <base>#digits[.digits]#[exponent], where
// digits may include A-F/a-f up to the declared base.
func (l *Lexer) scanBasedLiteral(start diag.Location, begin int) token.Token {
	baseText := stripUnderscores(string(l.src[begin:l.pos]))
	sep := l.peek() // '#' or ':'
	l.advance()
	digitsStart := l.pos
	for isBasedDigit(l.peek()) || l.peek() == '_' || l.peek() == '.' {
		l.advance()
	}
	digitsText := string(l.src[digitsStart:l.pos])
	if l.peek() != sep {
		l.report.Report(l.loc(), "unterminated based literal, expected closing %q", string(sep))
		full := string(l.src[begin:l.pos])
		return token.Token{Kind: token.Error, Text: full, Loc: start}
	}
	l.advance() // closing separator
	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	full := string(l.src[begin:l.pos])
	base, err := parseSmallBase(baseText)
	if err != nil || base < 2 || base > 16 {
		l.report.Report(start, "invalid literal base in %q", full)
		return token.Token{Kind: token.Error, Text: full, Loc: start}
	}
	cleanDigits := stripUnderscores(digitsText)
	if strings.Contains(cleanDigits, ".") {
		f, err := parseBasedReal(cleanDigits, base)
		if err != nil {
			l.report.Report(start, "malformed based real literal %q", full)
			return token.Token{Kind: token.Error, Text: full, Loc: start}
		}
		return token.Token{Kind: token.RealLit, Text: full, RealValue: f, Loc: start}
	}
	v, big, ok := parseBasedInteger(cleanDigits, base)
	if !ok {
		l.report.Report(start, "malformed based integer literal %q", full)
		return token.Token{Kind: token.Error, Text: full, Loc: start}
	}
	if big != "" {
		return token.Token{Kind: token.IntegerLit, Text: full, HasBig: true, BigDigits: big, Loc: start}
	}
	return token.Token{Kind: token.IntegerLit, Text: full, IntValue: v, Loc: start}
}

func (l *Lexer) makeIntegerToken(start diag.Location, text, digits string) token.Token {
	v, overflowed := parseDecimalInt64(digits)
	if overflowed {
		return token.Token{Kind: token.IntegerLit, Text: text, HasBig: true, BigDigits: digits, Loc: start}
	}
	return token.Token{Kind: token.IntegerLit, Text: text, IntValue: v, Loc: start}
}

func (l *Lexer) scanCharLiteral(start diag.Location) token.Token {
	l.advance() // opening '
	c := l.advance()
	if l.peek() != '\'' {
		l.report.Report(start, "unterminated character literal")
		return token.Token{Kind: token.Error, Text: string(c), Loc: start}
	}
	l.advance() // closing '
	return token.Token{Kind: token.CharacterLit, CharValue: c, Text: "'" + string(c) + "'", Loc: start}
}

func (l *Lexer) scanString(start diag.Location) token.Token {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		c := l.peek()
		if c == 0 || c == '\n' {
			l.report.Report(start, "unterminated string literal")
			return token.Token{Kind: token.Error, Text: sb.String(), Loc: start}
		}
		if c == '"' {
			if l.peekN(1) == '"' {
				sb.WriteByte('"')
				l.advance()
				l.advance()
				continue
			}
			l.advance()
			break
		}
		sb.WriteByte(c)
		l.advance()
	}
	decoded := l.arena.String(sb.String())
	return token.Token{Kind: token.StringLit, StrValue: decoded, Text: "\"" + sb.String() + "\"", Loc: start}
}

func isBasedDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

type delim struct {
	text string
	kind token.Kind
}

// compound delimiters, longest-match first.
var compounds = []delim{
	{":=", token.Assign}, {"=>", token.Arrow}, {"..", token.DotDot},
	{"<<", token.LeftLabel}, {">>", token.RightLabel}, {"<>", token.Box},
	{"**", token.DoubleStar}, {"/=", token.NotEqual},
	{"<=", token.LessEqual}, {">=", token.GreaterEqual},
}

var singles = map[byte]token.Kind{
	'&': token.Ampersand, '(': token.LeftParen, ')': token.RightParen,
	'*': token.Star, '+': token.Plus, ',': token.Comma, '-': token.Minus,
	'.': token.Dot, '/': token.Slash, ':': token.Colon, ';': token.Semicolon,
	'<': token.Less, '=': token.Equal, '>': token.Greater, '|': token.Bar,
}

func (l *Lexer) scanDelimiter(start diag.Location) token.Token {
	for _, d := range compounds {
		if l.matches(d.text) {
			for range d.text {
				l.advance()
			}
			return token.Token{Kind: d.kind, Text: d.text, Loc: start}
		}
	}
	c := l.peek()
	if kind, ok := singles[c]; ok {
		l.advance()
		return token.Token{Kind: kind, Text: string(c), Loc: start}
	}
	l.advance()
	l.report.Report(start, "unexpected character %q", string(c))
	return token.Token{Kind: token.Error, Text: string(c), Loc: start}
}

func (l *Lexer) matches(s string) bool {
	if l.pos+len(s) > len(l.src) {
		return false
	}
	return string(l.src[l.pos:l.pos+len(s)]) == s
}

func stripUnderscores(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
