package parser

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/token"
)

// parseHandledStmts parses a statement sequence followed by an
// optional "exception" clause with one or more handlers.
func (p *Parser) parseHandledStmts() ([]ast.Stmt, []*ast.ExceptionHandler) {
	stmts := p.parseStmtSeq()
	var handlers []*ast.ExceptionHandler
	if p.match(token.KwException) {
		for p.check(token.KwWhen) {
			handlers = append(handlers, p.parseExceptionHandler())
		}
	}
	return stmts, handlers
}

func (p *Parser) parseExceptionHandler() *ast.ExceptionHandler {
	loc := p.cur.Loc
	p.advance() // when
	h := arena.Make(p.arena, ast.ExceptionHandler{})
	h.Loc = loc
	if p.match(token.KwOthers) {
		h.Others = true
	} else {
		h.Choices = append(h.Choices, p.parseName())
		for p.match(token.Bar) {
			h.Choices = append(h.Choices, p.parseName())
		}
	}
	p.expect(token.Arrow, "'=>'")
	h.Body = p.parseStmtSeq()
	return h
}

func (p *Parser) stmtSeqEnd() bool {
	switch p.cur.Kind {
	case token.KwEnd, token.KwException, token.KwElse, token.KwElsif, token.KwWhen, token.EOF:
		return true
	}
	return false
}

func (p *Parser) parseStmtSeq() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.stmtSeqEnd() {
		if p.watchdog() {
			p.advance()
			continue
		}
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.panicMode {
			p.synchronize()
		}
	}
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	loc := p.cur.Loc
	switch {
	case p.check(token.KwNull):
		p.advance()
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.NullStmt{})
		n.Loc = loc
		return n
	case p.check(token.KwIf):
		return p.parseIfStmt()
	case p.check(token.KwCase):
		return p.parseCaseStmt()
	case p.check(token.KwWhile), p.check(token.KwFor), p.check(token.KwLoop):
		return p.parseLoopStmt("")
	case p.check(token.KwDeclare):
		return p.parseBlockStmt("")
	case p.check(token.KwBegin):
		return p.parseBareBlockStmt("")
	case p.check(token.KwReturn):
		p.advance()
		var val ast.Expr
		if !p.check(token.Semicolon) {
			val = p.parseExpr()
		}
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.ReturnStmt{Value: val})
		n.Loc = loc
		return n
	case p.check(token.KwExit):
		p.advance()
		var label string
		if p.check(token.Identifier) {
			label = p.cur.Text
			p.advance()
		}
		var when ast.Expr
		if p.match(token.KwWhen) {
			when = p.parseExpr()
		}
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.ExitStmt{Label: label, When: when})
		n.Loc = loc
		return n
	case p.check(token.KwGoto):
		p.advance()
		label := p.cur.Text
		p.expect(token.Identifier, "a label name")
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.GotoStmt{Label: label})
		n.Loc = loc
		return n
	case p.check(token.KwRaise):
		p.advance()
		var exc ast.Expr
		if !p.check(token.Semicolon) {
			exc = p.parseName()
		}
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.RaiseStmt{Exception: exc})
		n.Loc = loc
		return n
	case p.check(token.KwDelay):
		p.advance()
		dur := p.parseExpr()
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.DelayStmt{Duration: dur})
		n.Loc = loc
		return n
	case p.check(token.KwPragma):
		p.parsePragma()
		return nil
	case p.check(token.LeftLabel):
		return p.parseLabelOrLoopOrBlock()
	case p.check(token.Identifier):
		return p.parseAssignOrCallStmt()
	default:
		p.errorHere("expected a statement, got %q", p.cur.Text)
		p.panicMode = true
		return nil
	}
}

// parseLabelOrLoopOrBlock handles "<<Label>>" followed by either a
// standalone label target (just more statements) or a named loop/block.
func (p *Parser) parseLabelOrLoopOrBlock() ast.Stmt {
	loc := p.cur.Loc
	p.advance() // <<
	name := p.cur.Text
	p.expect(token.Identifier, "a label name")
	p.expect(token.RightLabel, "'>>'")
	switch {
	case p.check(token.KwWhile), p.check(token.KwFor), p.check(token.KwLoop):
		return p.parseLoopStmt(name)
	case p.check(token.KwDeclare):
		return p.parseBlockStmt(name)
	case p.check(token.KwBegin):
		return p.parseBareBlockStmt(name)
	default:
		n := arena.Make(p.arena, ast.LabelStmt{Name: name})
		n.Loc = loc
		return n
	}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	loc := p.cur.Loc
	p.advance() // if
	cond := p.parseExpr()
	p.expect(token.KwThen, "'then'")
	then := p.parseStmtSeq()
	n := arena.Make(p.arena, ast.IfStmt{Cond: cond, Then: then})
	n.Loc = loc
	for p.check(token.KwElsif) {
		p.advance()
		c := p.parseExpr()
		p.expect(token.KwThen, "'then'")
		body := p.parseStmtSeq()
		n.Elsifs = append(n.Elsifs, arena.Make(p.arena, ast.ElsifArm{Cond: c, Body: body}))
	}
	if p.match(token.KwElse) {
		n.Else = p.parseStmtSeq()
	}
	p.expect(token.KwEnd, "'end'")
	p.expect(token.KwIf, "'if'")
	p.expect(token.Semicolon, "';'")
	return n
}

func (p *Parser) parseCaseStmt() ast.Stmt {
	loc := p.cur.Loc
	p.advance() // case
	sel := p.parseExpr()
	p.expect(token.KwIs, "'is'")
	n := arena.Make(p.arena, ast.CaseStmt{Selector: sel})
	n.Loc = loc
	for p.check(token.KwWhen) {
		p.advance()
		alt := arena.Make(p.arena, ast.CaseAlt{})
		if p.match(token.KwOthers) {
			alt.Choices = nil
		} else {
			alt.Choices = append(alt.Choices, p.parseDiscreteRange())
			for p.match(token.Bar) {
				alt.Choices = append(alt.Choices, p.parseDiscreteRange())
			}
		}
		p.expect(token.Arrow, "'=>'")
		alt.Body = p.parseStmtSeq()
		n.Alts = append(n.Alts, alt)
	}
	p.expect(token.KwEnd, "'end'")
	p.expect(token.KwCase, "'case'")
	p.expect(token.Semicolon, "';'")
	return n
}

func (p *Parser) parseLoopStmt(label string) ast.Stmt {
	loc := p.cur.Loc
	var scheme ast.LoopScheme
	switch {
	case p.match(token.KwWhile):
		cond := p.parseExpr()
		scheme = arena.Make(p.arena, ast.WhileScheme{Cond: cond})
	case p.match(token.KwFor):
		varName := p.cur.Text
		p.expect(token.Identifier, "a loop variable")
		p.expect(token.KwIn, "'in'")
		reverse := p.match(token.KwReverse)
		rng := p.parseDiscreteRange()
		scheme = arena.Make(p.arena, ast.ForScheme{Var: varName, Range: rng, Reverse: reverse})
	}
	p.expect(token.KwLoop, "'loop'")
	body := p.parseStmtSeq()
	p.expect(token.KwEnd, "'end'")
	p.expect(token.KwLoop, "'loop'")
	p.checkEndName(label)
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.LoopStmt{Label: label, Scheme: scheme, Body: body})
	n.Loc = loc
	return n
}

func (p *Parser) parseBlockStmt(label string) ast.Stmt {
	loc := p.cur.Loc
	p.advance() // declare
	decls := p.parseDeclarativePart()
	p.expect(token.KwBegin, "'begin'")
	stmts, handlers := p.parseHandledStmts()
	p.expect(token.KwEnd, "'end'")
	p.checkEndName(label)
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.BlockStmt{Label: label, Decls: decls, Stmts: stmts, Handlers: handlers})
	n.Loc = loc
	return n
}

func (p *Parser) parseBareBlockStmt(label string) ast.Stmt {
	loc := p.cur.Loc
	p.advance() // begin
	stmts, handlers := p.parseHandledStmts()
	p.expect(token.KwEnd, "'end'")
	p.checkEndName(label)
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.BlockStmt{Label: label, Stmts: stmts, Handlers: handlers})
	n.Loc = loc
	return n
}

// parseAssignOrCallStmt parses a name (possibly a full postfix chain)
// and disambiguates ":=" (assignment) from a bare procedure call. A
// "Label:" form is not recognized here; labels are parsed only in the
// "<<Label>>" form, by parseLabelOrLoopOrBlock.
func (p *Parser) parseAssignOrCallStmt() ast.Stmt {
	loc := p.cur.Loc
	lhs := p.parseName()
	if p.match(token.Assign) {
		rhs := p.parseExpr()
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.AssignStmt{LHS: lhs, RHS: rhs})
		n.Loc = loc
		return n
	}
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.CallStmt{Call: lhs})
	n.Loc = loc
	return n
}
