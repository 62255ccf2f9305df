// Package parser implements the recursive-descent parser of spec.md
// 4.F: a tagged-variant AST built with one token of lookahead, a
// progress watchdog against infinite loops, panic-mode error recovery,
// and the unified apply/association node shared by calls, indexing,
// slicing, conversions and aggregates. Grounded on
// lang/parse/parser.go's Parser{tokens, errors, panicMode},
// p.error/p.synchronize idiom, generalized from wut4's statement/
// declaration grammar to Ada 83's.
package parser

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/lexer"
	"github.com/AdaDoom3/Ada83-sub004/internal/token"
)

// Parser holds one token of lookahead over a Lexer and accumulates
// errors through a diag.Reporter.
type Parser struct {
	lex       *lexer.Lexer
	report    *diag.Reporter
	arena     *arena.Arena
	cur       token.Token
	panicMode bool

	// progress watchdog: remembers the last (line, column, kind) seen at
	// the top of the statement/declaration loops; if unchanged across a
	// full loop iteration, forcibly advances (spec.md 4.F).
	lastLine, lastCol int
	lastKind          token.Kind
	stuckCount        int
}

// New creates a Parser over src.
func New(file string, src []byte, a *arena.Arena, r *diag.Reporter) *Parser {
	p := &Parser{lex: lexer.New(file, src, a, r), report: r, arena: a}
	p.advance()
	return p
}

func (p *Parser) advance() token.Token {
	prev := p.cur
	p.cur = p.lex.Next()
	return prev
}

func (p *Parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorHere("expected %s, got %q", what, p.cur.Text)
	return p.cur
}

func (p *Parser) errorHere(format string, args ...any) {
	p.report.Report(p.cur.Loc, format, args...)
	p.panicMode = true
}

// watchdog guards a loop body that is supposed to make progress by
// consuming at least one token per iteration; call at the top of the
// loop. Returns true if the caller should forcibly advance because the
// same (line, col, kind) triple was observed twice running.
func (p *Parser) watchdog() (stuck bool) {
	if p.cur.Loc.Line == p.lastLine && p.cur.Loc.Column == p.lastCol && p.cur.Kind == p.lastKind {
		p.stuckCount++
	} else {
		p.stuckCount = 0
	}
	p.lastLine, p.lastCol, p.lastKind = p.cur.Loc.Line, p.cur.Loc.Column, p.cur.Kind
	return p.stuckCount > 0
}

// synchronize implements spec.md 4.F's error recovery: skip tokens
// until the previous token was ';' or the current token begins a new
// declaration/statement.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.check(token.EOF) {
		if p.isSyncPoint(p.cur.Kind) {
			return
		}
		if p.cur.Kind == token.Semicolon {
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *Parser) isSyncPoint(k token.Kind) bool {
	switch k {
	case token.KwBegin, token.KwEnd, token.KwIf, token.KwCase, token.KwLoop,
		token.KwFor, token.KwWhile, token.KwReturn, token.KwDeclare,
		token.KwException, token.KwProcedure, token.KwFunction, token.KwPackage,
		token.KwTask, token.KwType, token.KwSubtype, token.KwPragma,
		token.KwAccept, token.KwSelect:
		return true
	}
	return false
}

// checkEndName implements spec.md 4.F's end-name check: if an
// identifier follows "end", it must match opening case-insensitively;
// mismatch is a non-fatal error.
func (p *Parser) checkEndName(opening string) string {
	if !p.check(token.Identifier) {
		return ""
	}
	name := p.cur.Text
	p.advance()
	if opening != "" && !foldEqual(name, opening) {
		p.errorHere("end name %q does not match %q", name, opening)
	}
	return name
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// ---- Top level ----------------------------------------------------

// ParseCompilationUnit parses one compilation unit: a context clause
// (with/use clauses) followed by exactly one package spec/body or
// subprogram body, per spec.md 3's AST invariant.
func (p *Parser) ParseCompilationUnit() *ast.CompilationUnit {
	loc := p.cur.Loc
	ctx := p.parseContext()
	unit := p.parseLibraryUnit()
	n := arena.Make(p.arena, ast.CompilationUnit{Context: ctx, Unit: unit})
	n.Loc = loc
	return n
}

func (p *Parser) parseContext() *ast.Context {
	ctx := arena.Make(p.arena, ast.Context{})
	for p.check(token.KwWith) || p.check(token.KwUse) || p.check(token.KwPragma) {
		switch {
		case p.check(token.KwWith):
			ctx.WithClauses = append(ctx.WithClauses, p.parseWithClause())
		case p.check(token.KwUse):
			ctx.UseClauses = append(ctx.UseClauses, p.parseUseClause())
		case p.check(token.KwPragma):
			p.parsePragma() // context-clause pragmas are parsed and discarded here
		}
	}
	return ctx
}

func (p *Parser) parseWithClause() *ast.WithClause {
	loc := p.cur.Loc
	p.advance() // with
	wc := arena.Make(p.arena, ast.WithClause{})
	wc.Loc = loc
	wc.Names = p.parseNameList()
	p.expect(token.Semicolon, "';'")
	return wc
}

func (p *Parser) parseUseClause() *ast.UseClause {
	loc := p.cur.Loc
	p.advance() // use
	uc := arena.Make(p.arena, ast.UseClause{})
	uc.Loc = loc
	uc.Names = p.parseNameList()
	p.expect(token.Semicolon, "';'")
	return uc
}

func (p *Parser) parseNameList() []string {
	var names []string
	names = append(names, p.parseDottedName())
	for p.match(token.Comma) {
		names = append(names, p.parseDottedName())
	}
	return names
}

func (p *Parser) parseDottedName() string {
	name := p.cur.Text
	p.expect(token.Identifier, "an identifier")
	for p.check(token.Dot) {
		p.advance()
		name += "." + p.cur.Text
		p.expect(token.Identifier, "an identifier")
	}
	return name
}

func (p *Parser) parseLibraryUnit() ast.Decl {
	switch {
	case p.check(token.KwPackage):
		return p.parsePackage()
	case p.check(token.KwProcedure), p.check(token.KwFunction):
		return p.parseSubprogram(true)
	case p.check(token.KwGeneric):
		p.advance()
		return arena.Make(p.arena, ast.GenericDecl{Decl: p.parseLibraryUnit()})
	default:
		p.errorHere("expected a package, procedure or function")
		return nil
	}
}

func (p *Parser) parsePragma() *ast.PragmaDecl {
	loc := p.cur.Loc
	p.advance() // pragma
	name := p.cur.Text
	p.expect(token.Identifier, "a pragma name")
	var args []ast.Expr
	if p.match(token.LeftParen) {
		if !p.check(token.RightParen) {
			args = append(args, p.parseExpr())
			for p.match(token.Comma) {
				args = append(args, p.parseExpr())
			}
		}
		p.expect(token.RightParen, "')'")
	}
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.PragmaDecl{Name: name, Args: args})
	n.Loc = loc
	return n
}

// ---- Packages and subprograms --------------------------------------

func (p *Parser) parsePackage() ast.Decl {
	loc := p.cur.Loc
	p.advance() // package
	isBody := p.match(token.KwBody)
	name := p.parseDottedName()
	p.expect(token.KwIs, "'is'")

	var visible, private []ast.Decl
	if isBody {
		decls := p.parseDeclarativePart()
		var stmts []ast.Stmt
		var handlers []*ast.ExceptionHandler
		if p.match(token.KwBegin) {
			stmts, handlers = p.parseHandledStmts()
		}
		p.expect(token.KwEnd, "'end'")
		endName := p.checkEndName(name)
		p.expect(token.Semicolon, "';'")
		n := arena.Make(p.arena, ast.PackageBody{Name: name, Decls: decls, Stmts: stmts, Handlers: handlers, EndName: endName})
		n.Loc = loc
		return n
	}

	visible = p.parseDeclarativePart()
	if p.match(token.KwPrivate) {
		private = p.parseDeclarativePart()
	}
	p.expect(token.KwEnd, "'end'")
	endName := p.checkEndName(name)
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.PackageSpec{Name: name, VisibleDecls: visible, PrivateDecls: private, EndName: endName})
	n.Loc = loc
	return n
}

func (p *Parser) parseSubprogram(allowBody bool) ast.Decl {
	loc := p.cur.Loc
	spec := p.parseSubprogramSpec()
	if p.match(token.Semicolon) {
		return spec
	}
	if !allowBody {
		p.errorHere("subprogram body not allowed here")
		return spec
	}
	p.expect(token.KwIs, "'is'")
	decls := p.parseDeclarativePart()
	p.expect(token.KwBegin, "'begin'")
	stmts, handlers := p.parseHandledStmts()
	p.expect(token.KwEnd, "'end'")
	endName := p.checkEndName(spec.Name)
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.SubprogramBody{Spec: spec, Decls: decls, Stmts: stmts, Handlers: handlers, EndName: endName})
	n.Loc = loc
	return n
}

func (p *Parser) parseSubprogramSpec() *ast.SubprogramSpec {
	loc := p.cur.Loc
	isFunc := p.check(token.KwFunction)
	p.advance() // procedure | function
	name := p.cur.Text
	p.expect(token.Identifier, "a subprogram name")

	var params []*ast.ParamSpec
	if p.match(token.LeftParen) {
		params = append(params, p.parseParamSpec())
		for p.match(token.Semicolon) {
			params = append(params, p.parseParamSpec())
		}
		p.expect(token.RightParen, "')'")
	}
	var ret ast.Expr
	if isFunc {
		p.expect(token.KwReturn, "'return'")
		ret = p.parseName()
	}
	n := arena.Make(p.arena, ast.SubprogramSpec{IsFunction: isFunc, Name: name, Params: params, ReturnType: ret})
	n.Loc = loc
	return n
}

func (p *Parser) parseParamSpec() *ast.ParamSpec {
	loc := p.cur.Loc
	names := []string{p.cur.Text}
	p.expect(token.Identifier, "a parameter name")
	for p.match(token.Comma) {
		names = append(names, p.cur.Text)
		p.expect(token.Identifier, "a parameter name")
	}
	p.expect(token.Colon, "':'")
	mode := ast.ModeIn
	switch {
	case p.match(token.KwOut):
		mode = ast.ModeOut
	case p.match(token.KwIn):
		if p.match(token.KwOut) {
			mode = ast.ModeInOut
		}
	}
	typeIndic := p.parseName()
	var def ast.Expr
	if p.match(token.Assign) {
		def = p.parseExpr()
	}
	n := arena.Make(p.arena, ast.ParamSpec{Names: names, TypeIndic: typeIndic, Mode: mode, Default: def})
	n.Loc = loc
	return n
}

// ---- Declarative parts ---------------------------------------------

func (p *Parser) parseDeclarativePart() []ast.Decl {
	var decls []ast.Decl
	for {
		if p.watchdog() {
			p.advance()
		}
		switch {
		case p.check(token.KwEnd), p.check(token.KwBegin), p.check(token.KwPrivate), p.check(token.EOF):
			return decls
		case p.check(token.KwType):
			decls = append(decls, p.parseTypeDecl())
		case p.check(token.KwSubtype):
			decls = append(decls, p.parseSubtypeDecl())
		case p.check(token.KwException):
			decls = append(decls, p.parseExceptionDecl())
		case p.check(token.KwPragma):
			decls = append(decls, p.parsePragma())
		case p.check(token.KwProcedure), p.check(token.KwFunction):
			decls = append(decls, p.parseSubprogram(true))
		case p.check(token.KwPackage):
			decls = append(decls, p.parsePackage())
		case p.check(token.KwGeneric):
			p.advance()
			decls = append(decls, arena.Make(p.arena, ast.GenericDecl{Decl: p.parseLibraryUnit()}))
		case p.check(token.KwUse):
			decls = append(decls, p.parseUseClause())
		case p.check(token.Identifier):
			decls = append(decls, p.parseObjectDecl())
		default:
			p.errorHere("expected a declaration")
			p.synchronize()
		}
	}
}

func (p *Parser) parseObjectDecl() *ast.ObjectDecl {
	loc := p.cur.Loc
	names := []string{p.cur.Text}
	p.expect(token.Identifier, "an identifier")
	for p.match(token.Comma) {
		names = append(names, p.cur.Text)
		p.expect(token.Identifier, "an identifier")
	}
	p.expect(token.Colon, "':'")
	constant := p.match(token.KwConstant)
	typeIndic := p.parseSubtypeIndication()
	var init ast.Expr
	if p.match(token.Assign) {
		init = p.parseExpr()
	}
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.ObjectDecl{Names: names, TypeIndic: typeIndic, Constant: constant, Init: init})
	n.Loc = loc
	return n
}

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	loc := p.cur.Loc
	p.advance() // type
	name := p.cur.Text
	p.expect(token.Identifier, "a type name")
	p.expect(token.KwIs, "'is'")
	def := p.parseTypeDefinition()
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.TypeDecl{Name: name, Definition: def})
	n.Loc = loc
	return n
}

func (p *Parser) parseTypeDefinition() ast.TypeDef {
	loc := p.cur.Loc
	switch {
	case p.match(token.LeftParen):
		var lits []string
		lits = append(lits, p.cur.Text)
		p.expect(token.Identifier, "an enumeration literal")
		for p.match(token.Comma) {
			lits = append(lits, p.cur.Text)
			p.expect(token.Identifier, "an enumeration literal")
		}
		p.expect(token.RightParen, "')'")
		n := arena.Make(p.arena, ast.EnumTypeDef{Literals: lits})
		n.Loc = loc
		return n
	case p.match(token.KwRange):
		low := p.parseExpr()
		p.expect(token.DotDot, "'..'")
		high := p.parseExpr()
		n := arena.Make(p.arena, ast.IntegerTypeDef{Low: low, High: high})
		n.Loc = loc
		return n
	case p.check(token.KwMod):
		p.advance()
		mod := p.parseExpr()
		n := arena.Make(p.arena, ast.ModularTypeDef{Modulus: mod})
		n.Loc = loc
		return n
	case p.check(token.KwDigits):
		p.advance()
		digits := p.parseExpr()
		n := arena.Make(p.arena, ast.RealTypeDef{Digits: digits})
		n.Loc = loc
		if p.match(token.KwRange) {
			n.Low = p.parseExpr()
			p.expect(token.DotDot, "'..'")
			n.High = p.parseExpr()
		}
		return n
	case p.check(token.KwDelta):
		p.advance()
		delta := p.parseExpr()
		n := arena.Make(p.arena, ast.RealTypeDef{Delta: delta})
		n.Loc = loc
		if p.match(token.KwRange) {
			n.Low = p.parseExpr()
			p.expect(token.DotDot, "'..'")
			n.High = p.parseExpr()
		}
		return n
	case p.check(token.KwArray):
		p.advance()
		p.expect(token.LeftParen, "'('")
		var indices []ast.Expr
		indices = append(indices, p.parseDiscreteRange())
		for p.match(token.Comma) {
			indices = append(indices, p.parseDiscreteRange())
		}
		p.expect(token.RightParen, "')'")
		p.expect(token.KwOf, "'of'")
		elem := p.parseSubtypeIndication()
		n := arena.Make(p.arena, ast.ArrayTypeDef{IndexConstraints: indices, ComponentType: elem})
		n.Loc = loc
		return n
	case p.check(token.KwRecord):
		return p.parseRecordTypeDef(loc)
	case p.check(token.KwAccess):
		p.advance()
		designated := p.parseName()
		n := arena.Make(p.arena, ast.AccessTypeDef{Designated: designated})
		n.Loc = loc
		return n
	case p.check(token.KwNew):
		p.advance()
		parent := p.parseName()
		n := arena.Make(p.arena, ast.DerivedTypeDef{ParentType: parent})
		n.Loc = loc
		return n
	default:
		p.errorHere("expected a type definition")
		n := arena.Make(p.arena, ast.EnumTypeDef{})
		n.Loc = loc
		return n
	}
}

func (p *Parser) parseRecordTypeDef(loc diag.Location) *ast.RecordTypeDef {
	p.advance() // record
	var comps []*ast.ComponentDecl
	for !p.check(token.KwEnd) && !p.check(token.EOF) {
		if p.watchdog() {
			p.advance()
			continue
		}
		comps = append(comps, p.parseComponentDecl())
	}
	p.expect(token.KwEnd, "'end'")
	p.expect(token.KwRecord, "'record'")
	n := arena.Make(p.arena, ast.RecordTypeDef{Components: comps})
	n.Loc = loc
	return n
}

func (p *Parser) parseComponentDecl() *ast.ComponentDecl {
	loc := p.cur.Loc
	names := []string{p.cur.Text}
	p.expect(token.Identifier, "a component name")
	for p.match(token.Comma) {
		names = append(names, p.cur.Text)
		p.expect(token.Identifier, "a component name")
	}
	p.expect(token.Colon, "':'")
	typeIndic := p.parseSubtypeIndication()
	var def ast.Expr
	if p.match(token.Assign) {
		def = p.parseExpr()
	}
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.ComponentDecl{Names: names, TypeIndic: typeIndic, Default: def})
	n.Loc = loc
	return n
}

func (p *Parser) parseSubtypeDecl() *ast.SubtypeDecl {
	loc := p.cur.Loc
	p.advance() // subtype
	name := p.cur.Text
	p.expect(token.Identifier, "a subtype name")
	p.expect(token.KwIs, "'is'")
	typeIndic := p.parseSubtypeIndication()
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.SubtypeDecl{Name: name, TypeIndic: typeIndic})
	n.Loc = loc
	return n
}

func (p *Parser) parseExceptionDecl() *ast.ExceptionDecl {
	loc := p.cur.Loc
	names := []string{p.cur.Text}
	p.expect(token.Identifier, "an identifier")
	for p.match(token.Comma) {
		names = append(names, p.cur.Text)
		p.expect(token.Identifier, "an identifier")
	}
	p.expect(token.Colon, "':'")
	p.expect(token.KwException, "'exception'")
	p.expect(token.Semicolon, "';'")
	n := arena.Make(p.arena, ast.ExceptionDecl{Names: names})
	n.Loc = loc
	return n
}

// parseSubtypeIndication parses a type mark optionally followed by an
// index/range constraint; since the parser never distinguishes
// "indexed application" from "constraint application" at this stage
// (spec.md 4.F), a constrained subtype_indication reuses the unified
// apply node: `T(range)` and `T(1 .. 10)` both parse as apply(T, args),
// with disambiguation left entirely to the semantic pass.
func (p *Parser) parseSubtypeIndication() ast.Expr {
	return p.parseExpr()
}

func (p *Parser) parseDiscreteRange() ast.Expr {
	v := p.parseExpr()
	if p.match(token.DotDot) {
		n := arena.Make(p.arena, ast.RangeExpr{Low: v, High: p.parseExpr()})
		n.Loc = v.Location()
		return n
	}
	return v
}
