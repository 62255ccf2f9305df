// Package token defines the lexical token kinds produced by
// internal/lexer (spec.md 3, "Token"), generalizing the small
// delimiter/keyword enumeration in lang/yparse/token.go to Ada 83's
// roughly one hundred keyword, delimiter and literal kinds.
package token

import "github.com/AdaDoom3/Ada83-sub004/internal/diag"

// Kind discriminates a Token.
type Kind int

const (
	EOF Kind = iota
	Error

	Identifier
	IntegerLit
	RealLit
	CharacterLit
	StringLit

	// Delimiters
	Ampersand    // &
	Apostrophe   // '
	LeftParen    // (
	RightParen   // )
	Star         // *
	Plus         // +
	Comma        // ,
	Minus        // -
	Dot          // .
	Slash        // /
	Colon        // :
	Semicolon    // ;
	Less         // <
	Equal        // =
	Greater      // >
	Bar          // |
	Assign       // :=
	Arrow        // =>
	DotDot       // ..
	LeftLabel    // <<
	RightLabel   // >>
	Box          // <>
	DoubleStar   // **
	NotEqual     // /=
	LessEqual    // <=
	GreaterEqual // >=

	// Keywords (Ada 83, case-insensitive, reserved per spec.md 6)
	KwAbort
	KwAbs
	KwAccept
	KwAccess
	KwAll
	KwAnd
	KwAndThen // and then, fused
	KwArray
	KwAt
	KwBegin
	KwBody
	KwCase
	KwConstant
	KwDeclare
	KwDelay
	KwDelta
	KwDigits
	KwDo
	KwElse
	KwElsif
	KwEnd
	KwEntry
	KwException
	KwExit
	KwFor
	KwFunction
	KwGeneric
	KwGoto
	KwIf
	KwIn
	KwIs
	KwLimited
	KwLoop
	KwMod
	KwNew
	KwNot
	KwNull
	KwOf
	KwOr
	KwOrElse // or else, fused
	KwOthers
	KwOut
	KwPackage
	KwPragma
	KwPrivate
	KwProcedure
	KwRaise
	KwRange
	KwRecord
	KwRem
	KwRenames
	KwReturn
	KwReverse
	KwSelect
	KwSeparate
	KwSubtype
	KwTask
	KwTerminate
	KwThen
	KwType
	KwUse
	KwWhen
	KwWhile
	KwWith
	KwXor
)

var keywords = map[string]Kind{
	"abort": KwAbort, "abs": KwAbs, "accept": KwAccept, "access": KwAccess,
	"all": KwAll, "and": KwAnd, "array": KwArray, "at": KwAt,
	"begin": KwBegin, "body": KwBody, "case": KwCase, "constant": KwConstant,
	"declare": KwDeclare, "delay": KwDelay, "delta": KwDelta, "digits": KwDigits,
	"do": KwDo, "else": KwElse, "elsif": KwElsif, "end": KwEnd,
	"entry": KwEntry, "exception": KwException, "exit": KwExit, "for": KwFor,
	"function": KwFunction, "generic": KwGeneric, "goto": KwGoto, "if": KwIf,
	"in": KwIn, "is": KwIs, "limited": KwLimited, "loop": KwLoop,
	"mod": KwMod, "new": KwNew, "not": KwNot, "null": KwNull,
	"of": KwOf, "or": KwOr, "others": KwOthers, "out": KwOut,
	"package": KwPackage, "pragma": KwPragma, "private": KwPrivate, "procedure": KwProcedure,
	"raise": KwRaise, "range": KwRange, "record": KwRecord, "rem": KwRem,
	"renames": KwRenames, "return": KwReturn, "reverse": KwReverse, "select": KwSelect,
	"separate": KwSeparate, "subtype": KwSubtype, "task": KwTask, "terminate": KwTerminate,
	"then": KwThen, "type": KwType, "use": KwUse, "when": KwWhen,
	"while": KwWhile, "with": KwWith, "xor": KwXor,
}

// LookupKeyword returns the keyword Kind for a case-folded identifier
// spelling, or (0, false) if it is not reserved.
func LookupKeyword(foldedLower string) (Kind, bool) {
	k, ok := keywords[foldedLower]
	return k, ok
}

// Token is one lexical unit: kind, source text, location, plus the
// decoded literal payload for literal kinds.
type Token struct {
	Kind Kind
	Text string // exact source spelling
	Loc  diag.Location

	// Literal payloads, populated depending on Kind.
	IntValue  int64  // IntegerLit: value if it fits int64
	BigDigits string // IntegerLit: raw decimal digits if it does not fit int64 (see internal/bignum)
	HasBig    bool
	RealValue float64   // RealLit
	CharValue byte      // CharacterLit
	StrValue  string    // StringLit: decoded bytes (doubled quotes collapsed)
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

var kindNames = map[Kind]string{
	EOF: "EOF", Error: "ERROR", Identifier: "IDENTIFIER",
	IntegerLit: "INTEGER", RealLit: "REAL", CharacterLit: "CHARACTER", StringLit: "STRING",
	Ampersand: "&", Apostrophe: "'", LeftParen: "(", RightParen: ")",
	Star: "*", Plus: "+", Comma: ",", Minus: "-", Dot: ".", Slash: "/",
	Colon: ":", Semicolon: ";", Less: "<", Equal: "=", Greater: ">", Bar: "|",
	Assign: ":=", Arrow: "=>", DotDot: "..", LeftLabel: "<<", RightLabel: ">>",
	Box: "<>", DoubleStar: "**", NotEqual: "/=", LessEqual: "<=", GreaterEqual: ">=",
	KwAndThen: "AND THEN", KwOrElse: "OR ELSE",
}
