package sema

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

// resolveStmts resolves every statement in stmts against scope, per
// spec.md 4.I's statement-resolution rules. Errors are reported but do
// not stop the walk (spec.md's error-but-continue policy).
func (r *Resolver) resolveStmts(stmts []ast.Stmt, scope *symtab.Scope) {
	for _, s := range stmts {
		r.resolveStmt(s, scope)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt, scope *symtab.Scope) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		lt := r.resolveExpr(n.LHS, scope, nil)
		rt := r.resolveExpr(n.RHS, scope, lt)
		if !types.Compatible(lt, rt) {
			r.report.Report(n.Loc, "assigned value is not compatible with the variable's type")
		}
	case *ast.CallStmt:
		r.resolveExpr(n.Call, scope, nil)
	case *ast.ReturnStmt:
		if n.Value != nil {
			r.resolveExpr(n.Value, scope, nil)
		}
	case *ast.IfStmt:
		r.resolveExpr(n.Cond, scope, types.Boolean)
		r.resolveStmts(n.Then, scope)
		for _, e := range n.Elsifs {
			r.resolveExpr(e.Cond, scope, types.Boolean)
			r.resolveStmts(e.Body, scope)
		}
		r.resolveStmts(n.Else, scope)
	case *ast.CaseStmt:
		selT := r.resolveExpr(n.Selector, scope, nil)
		for _, alt := range n.Alts {
			for _, choice := range alt.Choices {
				r.resolveExpr(choice, scope, selT)
			}
			r.resolveStmts(alt.Body, scope)
		}
	case *ast.LoopStmt:
		r.resolveLoop(n, scope)
	case *ast.ExitStmt:
		if n.When != nil {
			r.resolveExpr(n.When, scope, types.Boolean)
		}
	case *ast.BlockStmt:
		inner := symtab.NewScope(scope)
		r.resolveDeclList(n.Decls, inner)
		r.freezeDeclaredTypes(n.Decls, inner)
		r.resolveStmts(n.Stmts, inner)
		r.resolveHandlers(n.Handlers, inner)
	case *ast.NullStmt:
		// Nothing to resolve.
	case *ast.GotoStmt:
		// Label targets are matched by codegen's label table, not here.
	case *ast.LabelStmt:
		// Nothing to resolve.
	case *ast.RaiseStmt:
		if n.Exception != nil {
			r.resolveExpr(n.Exception, scope, nil)
		}
	case *ast.DelayStmt:
		r.resolveExpr(n.Duration, scope, types.Float)
	default:
		if s != nil {
			r.report.Report(s.Location(), "unsupported statement")
		}
	}
}

// resolveLoop handles the three loop schemes (bare, while, for),
// introducing the for-loop's control variable as a new symbol scoped
// to the loop body only, per spec.md 4.I.
func (r *Resolver) resolveLoop(n *ast.LoopStmt, scope *symtab.Scope) {
	switch sch := n.Scheme.(type) {
	case nil:
		r.resolveStmts(n.Body, scope)
	case *ast.WhileScheme:
		r.resolveExpr(sch.Cond, scope, types.Boolean)
		r.resolveStmts(n.Body, scope)
	case *ast.ForScheme:
		loopScope := symtab.NewScope(scope)
		rangeType := r.resolveDiscreteRangeType(sch.Range, loopScope)
		ctrl := arena.Make(r.arena, symtab.Symbol{Name: sch.Var, Kind: symtab.SymVariable, Loc: n.Loc, Type: rangeType, Visibility: symtab.ImmediatelyVisible})
		loopScope.AddVariable(ctrl, r.report)
		sch.Symbol = ctrl
		r.resolveStmts(n.Body, loopScope)
	default:
		r.resolveStmts(n.Body, scope)
	}
}
