package parser

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/token"
)

func (p *Parser) mkBinary(loc diag.Location, op ast.BinaryOp, left, right ast.Expr) ast.Expr {
	n := arena.Make(p.arena, ast.BinaryExpr{Op: op, Left: left, Right: right})
	n.Loc = loc
	return n
}

func (p *Parser) mkUnary(loc diag.Location, op ast.UnaryOp, operand ast.Expr) ast.Expr {
	n := arena.Make(p.arena, ast.UnaryExpr{Op: op, Operand: operand})
	n.Loc = loc
	return n
}

// Expression grammar, lowest to highest precedence (spec.md 4.F):
//   1. logical (and, or, xor, and then, or else)
//   2. relational (=, /=, <, <=, >, >=, in, not in)
//   3. additive (+, -, &)
//   4. multiplicative (*, /, mod, rem)
//   5. exponential (**, right-associative)
//   6. unary prefix (not, abs, +, -)
//   7. primary, plus the unified postfix chain

func (p *Parser) parseExpr() ast.Expr { return p.parseLogical() }

func (p *Parser) parseLogical() ast.Expr {
	left := p.parseRelational()
	for {
		var op ast.BinaryOp
		switch {
		case p.check(token.KwAnd):
			op = ast.OpAnd
		case p.check(token.KwOr):
			op = ast.OpOr
		case p.check(token.KwXor):
			op = ast.OpXor
		case p.check(token.KwAndThen):
			op = ast.OpAndThen
		case p.check(token.KwOrElse):
			op = ast.OpOrElse
		default:
			return left
		}
		loc := p.cur.Loc
		p.advance()
		right := p.parseRelational()
		left = p.mkBinary(loc, op, left, right)
	}
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for {
		loc := p.cur.Loc
		switch {
		case p.check(token.Equal):
			p.advance()
			left = p.mkBinary(loc, ast.OpEq, left, p.parseAdditive())
		case p.check(token.NotEqual):
			p.advance()
			left = p.mkBinary(loc, ast.OpNe, left, p.parseAdditive())
		case p.check(token.Less):
			p.advance()
			left = p.mkBinary(loc, ast.OpLt, left, p.parseAdditive())
		case p.check(token.LessEqual):
			p.advance()
			left = p.mkBinary(loc, ast.OpLe, left, p.parseAdditive())
		case p.check(token.Greater):
			p.advance()
			left = p.mkBinary(loc, ast.OpGt, left, p.parseAdditive())
		case p.check(token.GreaterEqual):
			p.advance()
			left = p.mkBinary(loc, ast.OpGe, left, p.parseAdditive())
		case p.check(token.KwIn):
			p.advance()
			left = p.mkBinary(loc, ast.OpIn, left, p.parseRangeOrAdditive())
		case p.check(token.KwNot):
			// Grammatically, "not" can only begin the relational operator
			// "not in" at this position (prefix "not" only ever appears
			// at the start of a unary operand, never directly after a
			// fully-parsed relational left operand).
			p.advance() // not
			p.expect(token.KwIn, "'in' (as part of 'not in')")
			left = p.mkBinary(loc, ast.OpNotIn, left, p.parseRangeOrAdditive())
		default:
			return left
		}
	}
}

func (p *Parser) parseRangeOrAdditive() ast.Expr {
	v := p.parseAdditive()
	if p.match(token.DotDot) {
		loc := v.Location()
		high := p.parseAdditive()
		n := arena.Make(p.arena, ast.RangeExpr{Low: v, High: high})
		n.Loc = loc
		return n
	}
	return v
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for {
		loc := p.cur.Loc
		switch {
		case p.check(token.Plus):
			p.advance()
			left = p.mkBinary(loc, ast.OpAdd, left, p.parseMultiplicative())
		case p.check(token.Minus):
			p.advance()
			left = p.mkBinary(loc, ast.OpSub, left, p.parseMultiplicative())
		case p.check(token.Ampersand):
			p.advance()
			left = p.mkBinary(loc, ast.OpConcat, left, p.parseMultiplicative())
		default:
			return left
		}
	}
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseExponential()
	for {
		loc := p.cur.Loc
		switch {
		case p.check(token.Star):
			p.advance()
			left = p.mkBinary(loc, ast.OpMul, left, p.parseExponential())
		case p.check(token.Slash):
			p.advance()
			left = p.mkBinary(loc, ast.OpDiv, left, p.parseExponential())
		case p.check(token.KwMod):
			p.advance()
			left = p.mkBinary(loc, ast.OpMod, left, p.parseExponential())
		case p.check(token.KwRem):
			p.advance()
			left = p.mkBinary(loc, ast.OpRem, left, p.parseExponential())
		default:
			return left
		}
	}
}

// parseExponential is right-associative: a ** b ** c == a ** (b ** c).
func (p *Parser) parseExponential() ast.Expr {
	left := p.parseUnary()
	if p.check(token.DoubleStar) {
		loc := p.cur.Loc
		p.advance()
		right := p.parseExponential()
		return p.mkBinary(loc, ast.OpPow, left, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	loc := p.cur.Loc
	switch {
	case p.match(token.KwNot):
		return p.mkUnary(loc, ast.OpNot, p.parseUnary())
	case p.match(token.KwAbs):
		return p.mkUnary(loc, ast.OpAbs, p.parseUnary())
	case p.match(token.Plus):
		return p.mkUnary(loc, ast.OpIdentity, p.parseUnary())
	case p.match(token.Minus):
		return p.mkUnary(loc, ast.OpNeg, p.parseUnary())
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary then loops over the unified postfix
// chain: .selector, .all, 'attribute[(args)], and (args), per spec.md
// 4.F's "unified postfix chain".
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch {
		case p.check(token.Dot):
			loc := p.cur.Loc
			p.advance()
			if p.match(token.KwAll) {
				n := arena.Make(p.arena, ast.AllExpr{Prefix: e})
				n.Loc = loc
				e = n
				continue
			}
			name := p.cur.Text
			p.expect(token.Identifier, "a selector")
			n := arena.Make(p.arena, ast.SelectedExpr{Prefix: e, Field: name})
			n.Loc = loc
			e = n
		case p.check(token.Apostrophe):
			loc := p.cur.Loc
			p.advance()
			name := p.cur.Text
			p.expect(token.Identifier, "an attribute name")
			var args []ast.Expr
			if p.match(token.LeftParen) {
				args = append(args, p.parseExpr())
				for p.match(token.Comma) {
					args = append(args, p.parseExpr())
				}
				p.expect(token.RightParen, "')'")
			}
			n := arena.Make(p.arena, ast.AttributeExpr{Prefix: e, Name: name, Args: args})
			n.Loc = loc
			e = n
		case p.check(token.LeftParen):
			loc := p.cur.Loc
			args := p.parseAssociationList()
			n := arena.Make(p.arena, ast.ApplyExpr{Prefix: e, Args: args})
			n.Loc = loc
			e = n
		default:
			return e
		}
	}
}

// parseAssociationList implements spec.md 4.F's unified association
// list: "(" then a comma-separated list of positional expressions,
// named associations (choices => expr), or |-separated choice lists,
// used identically by aggregates, calls and generic actuals.
func (p *Parser) parseAssociationList() []*ast.Association {
	p.expect(token.LeftParen, "'('")
	var assocs []*ast.Association
	if !p.check(token.RightParen) {
		assocs = append(assocs, p.parseAssociation())
		for p.match(token.Comma) {
			assocs = append(assocs, p.parseAssociation())
		}
	}
	p.expect(token.RightParen, "')'")
	return assocs
}

func (p *Parser) parseAssociation() *ast.Association {
	loc := p.cur.Loc
	// Look ahead for "choice [| choice]* =>" by speculatively parsing an
	// expression and checking what follows; Ada's grammar is LL(1) here
	// once the unified apply/association shape is adopted, since both
	// a positional value and a choice begin with the same expression
	// grammar.
	first := p.parseDiscreteRange()
	var choices []ast.Expr
	for p.check(token.Bar) {
		choices = append(choices, first)
		p.advance()
		first = p.parseDiscreteRange()
	}
	if len(choices) > 0 {
		choices = append(choices, first)
	}
	if p.match(token.Arrow) {
		if len(choices) == 0 {
			choices = []ast.Expr{first}
		}
		value := p.parseExpr()
		n := arena.Make(p.arena, ast.Association{Choices: choices, Value: value})
		n.Loc = loc
		return n
	}
	n := arena.Make(p.arena, ast.Association{Value: first})
	n.Loc = loc
	return n
}

func (p *Parser) parseName() ast.Expr { return p.parsePostfix() }

// parsePrimary handles identifiers, literals, parenthesized
// expressions/aggregates, qualified expressions and allocators.
func (p *Parser) parsePrimary() ast.Expr {
	loc := p.cur.Loc
	switch {
	case p.check(token.Identifier):
		name := p.cur.Text
		p.advance()
		if p.match(token.Apostrophe) {
			// Qualified expression: T'(expr) — the apostrophe here is not
			// an attribute because it is immediately followed by '('.
			if p.check(token.LeftParen) {
				mark := arena.Make(p.arena, ast.IdentExpr{Name: name})
				mark.Loc = loc
				val := p.parseParenExprOrAggregate()
				n := arena.Make(p.arena, ast.QualifiedExpr{TypeMark: mark, Value: val})
				n.Loc = loc
				return n
			}
			attrName := p.cur.Text
			p.expect(token.Identifier, "an attribute name")
			var args []ast.Expr
			if p.match(token.LeftParen) {
				args = append(args, p.parseExpr())
				for p.match(token.Comma) {
					args = append(args, p.parseExpr())
				}
				p.expect(token.RightParen, "')'")
			}
			id := arena.Make(p.arena, ast.IdentExpr{Name: name})
			id.Loc = loc
			n := arena.Make(p.arena, ast.AttributeExpr{Prefix: id, Name: attrName, Args: args})
			n.Loc = loc
			return n
		}
		n := arena.Make(p.arena, ast.IdentExpr{Name: name})
		n.Loc = loc
		return n
	case p.check(token.IntegerLit):
		t := p.cur
		p.advance()
		n := arena.Make(p.arena, ast.IntegerLitExpr{Value: t.IntValue, Big: t.BigDigits, HasBig: t.HasBig})
		n.Loc = loc
		return n
	case p.check(token.RealLit):
		t := p.cur
		p.advance()
		n := arena.Make(p.arena, ast.RealLitExpr{Value: t.RealValue})
		n.Loc = loc
		return n
	case p.check(token.CharacterLit):
		t := p.cur
		p.advance()
		n := arena.Make(p.arena, ast.CharLitExpr{Value: t.CharValue})
		n.Loc = loc
		return n
	case p.check(token.StringLit):
		t := p.cur
		p.advance()
		n := arena.Make(p.arena, ast.StringLitExpr{Value: t.StrValue})
		n.Loc = loc
		return n
	case p.check(token.KwNull):
		p.advance()
		n := arena.Make(p.arena, ast.IdentExpr{Name: "NULL"})
		n.Loc = loc
		return n
	case p.check(token.KwNew):
		p.advance()
		// parseName already handles a trailing "'(expr)" as a qualified
		// expression, so "new T'(Init)" comes back with TypeMark bound
		// to that QualifiedExpr directly.
		typeMark := p.parseName()
		n := arena.Make(p.arena, ast.AllocatorExpr{TypeMark: typeMark})
		n.Loc = loc
		return n
	case p.check(token.LeftParen):
		return p.parseParenExprOrAggregate()
	default:
		p.errorHere("expected an expression, got %q", p.cur.Text)
		e := arena.Make(p.arena, ast.ErrorExpr{})
		e.Loc = loc
		if !p.check(token.EOF) {
			p.advance()
		}
		return e
	}
}

// parseParenExprOrAggregate resolves the "(X)" ambiguity per spec.md
// 4.F: it is an aggregate only if the first element carries choices
// (=> or |) or is followed by a comma; otherwise it is a parenthesized
// expression. A "with" after the first element is not recognized and
// is reported as a missing ')'.
func (p *Parser) parseParenExprOrAggregate() ast.Expr {
	loc := p.cur.Loc
	p.expect(token.LeftParen, "'('")
	if p.check(token.RightParen) {
		// empty aggregate "()" is not legal Ada but recovers gracefully
		p.advance()
		n := arena.Make(p.arena, ast.AggregateExpr{})
		n.Loc = loc
		return n
	}
	first := p.parseAssociation()
	isAggregate := len(first.Choices) > 0 || p.check(token.Comma)
	if !isAggregate {
		p.expect(token.RightParen, "')'")
		return first.Value
	}
	assocs := []*ast.Association{first}
	for p.match(token.Comma) {
		assocs = append(assocs, p.parseAssociation())
	}
	p.expect(token.RightParen, "')'")
	n := arena.Make(p.arena, ast.AggregateExpr{Associations: assocs})
	n.Loc = loc
	return n
}
