package lexer

import (
	"os"
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	a := arena.New(4096)
	r := diag.NewReporter(os.Stderr)
	l := New("t.ads", []byte(src), a, r)
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestIdentifiersAndKeywordsCaseInsensitive(t *testing.T) {
	toks := scanAll(t, "Begin END procedure Foo_Bar")
	want := []token.Kind{token.KwBegin, token.KwEnd, token.KwProcedure, token.Identifier, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAndThenOrElseFusion(t *testing.T) {
	toks := scanAll(t, "a and then b or else c and d")
	got := kinds(toks)
	want := []token.Kind{
		token.Identifier, token.KwAndThen, token.Identifier, token.KwOrElse,
		token.Identifier, token.KwAnd, token.Identifier, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCompoundDelimiters(t *testing.T) {
	toks := scanAll(t, ":= => .. << >> <> ** /= <= >=")
	got := kinds(toks)
	want := []token.Kind{
		token.Assign, token.Arrow, token.DotDot, token.LeftLabel, token.RightLabel,
		token.Box, token.DoubleStar, token.NotEqual, token.LessEqual, token.GreaterEqual,
		token.EOF,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStringLiteralDoubledQuoteEscape(t *testing.T) {
	toks := scanAll(t, `"He said ""hi""."`)
	if toks[0].Kind != token.StringLit {
		t.Fatalf("kind = %v, want StringLit", toks[0].Kind)
	}
	if toks[0].StrValue != `He said "hi".` {
		t.Fatalf("StrValue = %q", toks[0].StrValue)
	}
}

func TestCharacterLiteral(t *testing.T) {
	toks := scanAll(t, "'x'")
	if toks[0].Kind != token.CharacterLit || toks[0].CharValue != 'x' {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestApostropheAttributeVsCharLiteral(t *testing.T) {
	toks := scanAll(t, "X'First")
	got := kinds(toks)
	want := []token.Kind{token.Identifier, token.Apostrophe, token.Identifier, token.EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v (full=%v)", i, got[i], want[i], got)
		}
	}
}

func TestIntegerAndRealLiterals(t *testing.T) {
	toks := scanAll(t, "42 3.14 1_000 2#1010# 16#FF#")
	if toks[0].IntValue != 42 {
		t.Errorf("42 -> %d", toks[0].IntValue)
	}
	if toks[1].Kind != token.RealLit || toks[1].RealValue != 3.14 {
		t.Errorf("3.14 -> %+v", toks[1])
	}
	if toks[2].IntValue != 1000 {
		t.Errorf("1_000 -> %d", toks[2].IntValue)
	}
	if toks[3].IntValue != 10 {
		t.Errorf("2#1010# -> %d, want 10", toks[3].IntValue)
	}
	if toks[4].IntValue != 255 {
		t.Errorf("16#FF# -> %d, want 255", toks[4].IntValue)
	}
}

func TestCommentSkipped(t *testing.T) {
	toks := scanAll(t, "A -- a comment\n := B;")
	got := kinds(toks)
	want := []token.Kind{token.Identifier, token.Assign, token.Identifier, token.Semicolon, token.EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUnexpectedCharacterProducesErrorTokenAndContinues(t *testing.T) {
	toks := scanAll(t, "A @ B")
	got := kinds(toks)
	want := []token.Kind{token.Identifier, token.Error, token.Identifier, token.EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}
