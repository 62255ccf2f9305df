package sema

import (
	"strings"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

// resolveExpr attaches a *types.Type to e and every subexpression it
// contains, per spec.md 4.I's "expression resolution attaches a
// Type_Info to every node". expected carries context-dependent typing
// (spec.md's "type comes from context" for aggregates and the target
// type of an assignment/parameter) and may be nil.
func (r *Resolver) resolveExpr(e ast.Expr, scope *symtab.Scope, expected *types.Type) *types.Type {
	if e == nil {
		return nil
	}
	var t *types.Type
	switch n := e.(type) {
	case *ast.IdentExpr:
		t = r.resolveIdent(n, scope)
	case *ast.SelectedExpr:
		t = r.resolveSelected(n, scope)
	case *ast.AttributeExpr:
		t = r.resolveAttribute(n, scope)
	case *ast.QualifiedExpr:
		t = r.resolveQualified(n, scope)
	case *ast.ApplyExpr:
		t = r.resolveApply(n, scope)
	case *ast.RangeExpr:
		low := r.resolveExpr(n.Low, scope, expected)
		r.resolveExpr(n.High, scope, expected)
		t = low
	case *ast.BinaryExpr:
		t = r.resolveBinary(n, scope)
	case *ast.UnaryExpr:
		t = r.resolveUnary(n, scope)
	case *ast.AllExpr:
		t = r.resolveAll(n, scope)
	case *ast.AggregateExpr:
		t = r.resolveAggregate(n, scope, expected)
	case *ast.AllocatorExpr:
		t = r.resolveAllocator(n, scope)
	case *ast.IntegerLitExpr:
		t = types.UniversalInteger
		if expected != nil && types.IsDiscrete(expected) {
			t = expected
		}
	case *ast.RealLitExpr:
		t = types.UniversalReal
		if expected != nil && types.IsReal(expected) {
			t = expected
		}
	case *ast.CharLitExpr:
		t = types.Character
	case *ast.StringLitExpr:
		t = types.String
	case *ast.ErrorExpr:
		t = types.Integer // recovered-error placeholder, spec.md 4.C
	default:
		r.report.Report(e.Location(), "unsupported expression")
		t = types.Integer
	}
	e.SetExprType(t)
	return t
}

func (r *Resolver) resolveIdent(n *ast.IdentExpr, scope *symtab.Scope) *types.Type {
	sym := scope.Lookup(n.Name)
	if sym == nil {
		r.report.Report(n.Loc, "%q is undefined", n.Name)
		return types.Integer // placeholder per spec.md 4.C
	}
	n.Symbol = sym
	return sym.Type
}

// resolveSelected implements spec.md 4.I's selected-component rule:
// record field access by case-insensitive name, or a package's
// exported list if the prefix names a package.
func (r *Resolver) resolveSelected(n *ast.SelectedExpr, scope *symtab.Scope) *types.Type {
	prefixT := r.resolveExpr(n.Prefix, scope, nil)
	if prefixSym := unboxSymbol(n.Prefix); prefixSym != nil && prefixSym.Kind == symtab.SymPackage {
		if prefixSym.PackageScope == nil {
			return types.Integer
		}
		found := prefixSym.PackageScope.LookupLocal(n.Field)
		if found == nil {
			r.report.Report(n.Loc, "unresolved selector %q in package %q", n.Field, prefixSym.Name)
			return types.Integer
		}
		n.Symbol = found
		return found.Type
	}
	if prefixT != nil && prefixT.Kind == types.RecordKind {
		for _, comp := range prefixT.Components {
			if strings.EqualFold(comp.Name, n.Field) {
				return comp.Type
			}
		}
		r.report.Report(n.Loc, "no component named %q", n.Field)
		return types.Integer
	}
	r.report.Report(n.Loc, "unresolved selector %q", n.Field)
	return types.Integer
}

func unboxSymbol(e ast.Expr) *symtab.Symbol {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.IdentExpr:
		if s, ok := n.Symbol.(*symtab.Symbol); ok {
			return s
		}
	case *ast.SelectedExpr:
		if s, ok := n.Symbol.(*symtab.Symbol); ok {
			return s
		}
	}
	return nil
}

// scalarAttrs lists attributes whose result type is the prefix's own
// (element) type. Of the rest, RANGE yields the prefix type, IMAGE and
// VALUE yield STRING, ACCESS/UNCHECKED_ACCESS/ADDRESS yield an access
// type, and every other attribute yields INTEGER (spec.md 4.I.k's
// attribute table).
var scalarAttrs = map[string]bool{
	"FIRST": true, "LAST": true, "SUCC": true, "PRED": true,
	"MIN": true, "MAX": true, "ABS": true, "MOD": true, "VAL": true,
}

func (r *Resolver) resolveAttribute(n *ast.AttributeExpr, scope *symtab.Scope) *types.Type {
	prefixT := r.resolveExpr(n.Prefix, scope, nil)
	for _, a := range n.Args {
		r.resolveExpr(a, scope, nil)
	}
	name := strings.ToUpper(n.Name)
	switch name {
	case "LENGTH", "POS", "SIZE", "ALIGNMENT", "COMPONENT_SIZE", "WIDTH":
		return types.Integer
	case "RANGE":
		return prefixT
	case "IMAGE", "VALUE":
		return types.String
	case "ACCESS", "UNCHECKED_ACCESS", "ADDRESS":
		return arena.Make(r.arena, types.Type{Kind: types.AccessKind, Size: 8, Alignment: 8, Designated: prefixT})
	default:
		if scalarAttrs[name] {
			if prefixT != nil && prefixT.Kind == types.ArrayKind {
				return prefixT.ElemType
			}
			return prefixT
		}
		return types.Integer
	}
}

func (r *Resolver) resolveQualified(n *ast.QualifiedExpr, scope *symtab.Scope) *types.Type {
	t := r.resolveTypeMark(n.TypeMark, scope)
	r.resolveExpr(n.Value, scope, t)
	return t
}

// resolveApply implements spec.md 4.I's apply-node dispatch: call,
// constrained-subtype synthesis, conversion, or indexed access,
// decided entirely from the resolved prefix's symbol/type.
func (r *Resolver) resolveApply(n *ast.ApplyExpr, scope *symtab.Scope) *types.Type {
	prefixT := r.resolveExpr(n.Prefix, scope, nil)
	prefixSym := unboxSymbol(n.Prefix)

	if prefixSym != nil && (prefixSym.Kind == symtab.SymProcedure || prefixSym.Kind == symtab.SymFunction) {
		return r.resolveCall(n, prefixSym, scope)
	}
	if prefixSym != nil && (prefixSym.Kind == symtab.SymType || prefixSym.Kind == symtab.SymSubtype) {
		if prefixT != nil && (prefixT.Kind == types.ArrayKind || prefixT.Kind == types.StringKind) && looksLikeConstraint(n.Args) {
			return r.resolveConstrainedSubtype(n, scope)
		}
		// Type conversion: resolve the single argument against the
		// target type and return the target type.
		for _, a := range n.Args {
			r.resolveExpr(a.Value, scope, prefixT)
		}
		return prefixT
	}
	if prefixT != nil && (prefixT.Kind == types.ArrayKind || prefixT.Kind == types.StringKind) {
		for _, a := range n.Args {
			r.resolveExpr(a.Value, scope, types.Integer)
		}
		return prefixT.ElemType
	}
	r.report.Report(n.Loc, "cannot apply arguments to this expression")
	for _, a := range n.Args {
		r.resolveExpr(a.Value, scope, nil)
	}
	return types.Integer
}

func looksLikeConstraint(args []*ast.Association) bool {
	for _, a := range args {
		switch a.Value.(type) {
		case *ast.RangeExpr:
			return true
		}
	}
	return len(args) > 1
}

// resolveCall matches call arguments against the best candidate on
// sym's overload chain (the first whose parameter count matches the
// argument count; overload resolution by type is a known
// simplification for this core's scope) and returns its result type.
func (r *Resolver) resolveCall(n *ast.ApplyExpr, sym *symtab.Symbol, scope *symtab.Scope) *types.Type {
	candidate := sym
	for c := sym; c != nil; c = c.NextOverload {
		if len(c.Params) == len(n.Args) {
			candidate = c
			break
		}
	}
	for i, a := range n.Args {
		var expected *types.Type
		if i < len(candidate.Params) {
			expected = candidate.Params[i].Type
		}
		r.resolveExpr(a.Value, scope, expected)
	}
	return candidate.ReturnType
}

func (r *Resolver) resolveBinary(n *ast.BinaryExpr, scope *symtab.Scope) *types.Type {
	lt := r.resolveExpr(n.Left, scope, nil)
	rt := r.resolveExpr(n.Right, scope, lt)
	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpRem, ast.OpPow:
		if !types.IsNumeric(lt) || !types.IsNumeric(rt) {
			r.report.Report(n.Loc, "arithmetic operator requires numeric operands")
			return types.Integer
		}
		if lt != nil && lt.Kind != types.UniversalIntegerKind && lt.Kind != types.UniversalRealKind {
			return lt
		}
		return rt
	case ast.OpConcat:
		if !isArrayLike(lt) {
			r.report.Report(n.Loc, "'&' requires an array or string left operand")
		}
		return lt
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !types.Compatible(lt, rt) {
			r.report.Report(n.Loc, "comparison operands are not of compatible types")
		}
		return types.Boolean
	case ast.OpAnd, ast.OpOr, ast.OpXor, ast.OpAndThen, ast.OpOrElse:
		if lt != types.Boolean || rt != types.Boolean {
			r.report.Report(n.Loc, "logical operator requires BOOLEAN operands")
		}
		return types.Boolean
	case ast.OpIn, ast.OpNotIn:
		return types.Boolean
	default:
		return types.Integer
	}
}

func isArrayLike(t *types.Type) bool {
	return t != nil && (t.Kind == types.ArrayKind || t.Kind == types.StringKind)
}

func (r *Resolver) resolveUnary(n *ast.UnaryExpr, scope *symtab.Scope) *types.Type {
	t := r.resolveExpr(n.Operand, scope, nil)
	switch n.Op {
	case ast.OpNot:
		if t != types.Boolean {
			r.report.Report(n.Loc, "'not' requires a BOOLEAN operand")
		}
		return types.Boolean
	case ast.OpNeg, ast.OpIdentity, ast.OpAbs:
		if !types.IsNumeric(t) {
			r.report.Report(n.Loc, "unary operator requires a numeric operand")
		}
		return t
	default:
		return t
	}
}

func (r *Resolver) resolveAll(n *ast.AllExpr, scope *symtab.Scope) *types.Type {
	t := r.resolveExpr(n.Prefix, scope, nil)
	if t == nil || t.Kind != types.AccessKind {
		r.report.Report(n.Loc, "'.all' requires an access value")
		return types.Integer
	}
	return t.Designated
}

// resolveAggregate implements spec.md 4.I's aggregate rule: the type
// comes entirely from context (expected). Record aggregates resolve
// choices as field names, never as expressions; array aggregates
// resolve every association's value against the element type.
func (r *Resolver) resolveAggregate(n *ast.AggregateExpr, scope *symtab.Scope, expected *types.Type) *types.Type {
	if expected == nil {
		for _, a := range n.Associations {
			r.resolveExpr(a.Value, scope, nil)
		}
		return arena.Make(r.arena, types.Type{Kind: types.Unknown})
	}
	switch expected.Kind {
	case types.RecordKind:
		r.resolveRecordAggregate(n, expected, scope)
	case types.ArrayKind, types.StringKind:
		r.resolveArrayAggregate(n, expected, scope)
	default:
		for _, a := range n.Associations {
			r.resolveExpr(a.Value, scope, expected)
		}
	}
	return expected
}

func (r *Resolver) resolveRecordAggregate(n *ast.AggregateExpr, rec *types.Type, scope *symtab.Scope) {
	positional := 0
	for _, a := range n.Associations {
		if len(a.Choices) == 0 {
			if positional < len(rec.Components) {
				r.resolveExpr(a.Value, scope, rec.Components[positional].Type)
			}
			positional++
			continue
		}
		for _, choice := range a.Choices {
			id, ok := choice.(*ast.IdentExpr)
			if !ok {
				r.report.Report(choice.Location(), "record aggregate choice must be a component name")
				continue
			}
			comp := findComponent(rec, id.Name)
			if comp == nil {
				r.report.Report(id.Loc, "no component named %q", id.Name)
				continue
			}
			r.resolveExpr(a.Value, scope, comp.Type)
		}
	}
}

func findComponent(rec *types.Type, name string) *types.Component {
	for i := range rec.Components {
		if strings.EqualFold(rec.Components[i].Name, name) {
			return &rec.Components[i]
		}
	}
	return nil
}

func (r *Resolver) resolveArrayAggregate(n *ast.AggregateExpr, arr *types.Type, scope *symtab.Scope) {
	elem := arr.ElemType
	for _, a := range n.Associations {
		for _, choice := range a.Choices {
			r.resolveExpr(choice, scope, types.Integer)
		}
		r.resolveExpr(a.Value, scope, elem)
	}
}

func (r *Resolver) resolveAllocator(n *ast.AllocatorExpr, scope *symtab.Scope) *types.Type {
	designated := r.resolveTypeMark(n.TypeMark, scope)
	if n.Init != nil {
		r.resolveExpr(n.Init, scope, designated)
	}
	return arena.Make(r.arena, types.Type{Kind: types.AccessKind, Size: 8, Alignment: 8, Designated: designated})
}
