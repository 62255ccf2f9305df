package codegen

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

// emitRaiseConstraintError raises the predefined CONSTRAINT_ERROR
// exception (symtab.ConstraintError) by its registered identity, the
// same @__exc.<mangled> global a `when CONSTRAINT_ERROR =>` handler
// compares against, instead of a bare integer no handler can ever
// catch (spec.md 4.I.k's exception-identity model).
func (e *Emitter) emitRaiseConstraintError() {
	ident, ok := e.constraintErrorIdentity()
	if !ok {
		e.internalError("CONSTRAINT_ERROR has no registered exception identity")
		return
	}
	idVal := e.newTemp()
	e.emit("  %s = ptrtoint ptr %s to i64\n", idVal, ident)
	e.emit("  call void @__ada_raise(i64 %s)\n", idVal)
}

// checkSuppressed reports whether name's check bit is suppressed on t,
// per spec.md 4.I's pragma Suppress table (types.OverflowCheck etc.,
// the same bit values sema's checkNames table assigns).
func checkSuppressed(t *types.Type, name uint32) bool {
	return t != nil && t.SuppressedChecks&name != 0
}

// emitBinary lowers a binary expression, per spec.md 4.I.k: overflow-
// checked arithmetic for signed integer types, a zero check (plus a
// MIN/-1 check for signed division) on '/' and 'mod'/'rem', plain ops
// with a urem fixup for non-power-of-two moduli, short-circuiting
// and then/or else, and && '&' concatenation through the secondary
// stack.
func (e *Emitter) emitBinary(n *ast.BinaryExpr, loc *locals) Value {
	switch n.Op {
	case ast.OpAndThen:
		return e.emitShortCircuit(n.Left, n.Right, loc, false)
	case ast.OpOrElse:
		return e.emitShortCircuit(n.Left, n.Right, loc, true)
	case ast.OpIn:
		return e.emitMembership(n.Left, n.Right, loc, false)
	case ast.OpNotIn:
		return e.emitMembership(n.Left, n.Right, loc, true)
	}

	lt := exprType(n.Left)

	if (n.Op == ast.OpEq || n.Op == ast.OpNe) && lt != nil && (lt.Kind == types.RecordKind || lt.Kind == types.ArrayKind || lt.Kind == types.StringKind) {
		return e.emitCompositeEquality(n, lt, loc)
	}

	l := e.emitExpr(n.Left, loc)
	r := e.emitExpr(n.Right, loc)

	switch n.Op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		ct := computeType(lt)
		return e.emitScalarCompare(n.Op, e.convert(l, ct), e.convert(r, ct))
	case ast.OpAnd:
		return e.emitLogical("and", l, r)
	case ast.OpOr:
		return e.emitLogical("or", l, r)
	case ast.OpXor:
		return e.emitLogical("xor", l, r)
	case ast.OpConcat:
		return e.emitConcat(l, r)
	}

	isReal := types.IsReal(lt)
	ct := computeType(lt)
	lv := e.convert(l, ct)
	rv := e.convert(r, ct)

	switch n.Op {
	case ast.OpAdd:
		return e.emitCheckedArith("add", "sadd", lv, rv, lt, isReal)
	case ast.OpSub:
		return e.emitCheckedArith("sub", "ssub", lv, rv, lt, isReal)
	case ast.OpMul:
		return e.emitCheckedArith("mul", "smul", lv, rv, lt, isReal)
	case ast.OpDiv:
		return e.emitDivOrMod(lv, rv, lt, isReal, true)
	case ast.OpMod, ast.OpRem:
		return e.emitDivOrMod(lv, rv, lt, isReal, false)
	case ast.OpPow:
		return e.emitPow(lv, rv, lt, isReal)
	default:
		return e.internalError("unsupported binary operator")
	}
}

func (e *Emitter) emitShortCircuit(left, right ast.Expr, loc *locals, isOr bool) Value {
	l := e.emitExpr(left, loc)
	evalRightL := e.newLabel("scrhs")
	shortL := e.newLabel("scshort")
	endL := e.newLabel("scend")
	resultAddr := e.newTemp()
	e.emit("  %s = alloca i1\n", resultAddr)
	if isOr {
		e.terminate("  br i1 %s, label %%%s, label %%%s\n", l.Ref, shortL, evalRightL)
	} else {
		e.terminate("  br i1 %s, label %%%s, label %%%s\n", l.Ref, evalRightL, shortL)
	}
	e.emitLabelDef(shortL)
	e.emit("  store i1 %s, ptr %s\n", l.Ref, resultAddr)
	e.terminate("  br label %%%s\n", endL)
	e.emitLabelDef(evalRightL)
	r := e.emitExpr(right, loc)
	e.emit("  store i1 %s, ptr %s\n", r.Ref, resultAddr)
	e.terminate("  br label %%%s\n", endL)
	e.emitLabelDef(endL)
	tmp := e.newTemp()
	e.emit("  %s = load i1, ptr %s\n", tmp, resultAddr)
	return Value{Ref: tmp, Type: "i1"}
}

// emitMembership implements a discrete range test for "in"/"not in";
// a non-range right operand falls back to an equality test.
func (e *Emitter) emitMembership(left, right ast.Expr, loc *locals, negate bool) Value {
	l := e.emitExpr(left, loc)
	var result Value
	if rng, ok := right.(*ast.RangeExpr); ok {
		lo := e.emitExpr(rng.Low, loc)
		hi := e.emitExpr(rng.High, loc)
		ge := e.newTemp()
		e.emit("  %s = icmp sge %s %s, %s\n", ge, l.Type, l.Ref, lo.Ref)
		le := e.newTemp()
		e.emit("  %s = icmp sle %s %s, %s\n", le, l.Type, l.Ref, hi.Ref)
		both := e.newTemp()
		e.emit("  %s = and i1 %s, %s\n", both, ge, le)
		result = Value{Ref: both, Type: "i1"}
	} else {
		r := e.emitExpr(right, loc)
		result = e.emitScalarCompare(ast.OpEq, l, r)
	}
	if negate {
		t := e.newTemp()
		e.emit("  %s = xor i1 %s, 1\n", t, result.Ref)
		return Value{Ref: t, Type: "i1"}
	}
	return result
}

func (e *Emitter) emitScalarCompare(op ast.BinaryOp, l, r Value) Value {
	isFloat := l.Type == "double"
	pred := map[ast.BinaryOp]string{
		ast.OpEq: "eq", ast.OpNe: "ne",
		ast.OpLt: "slt", ast.OpLe: "sle",
		ast.OpGt: "sgt", ast.OpGe: "sge",
	}[op]
	fpred := map[ast.BinaryOp]string{
		ast.OpEq: "oeq", ast.OpNe: "one",
		ast.OpLt: "olt", ast.OpLe: "ole",
		ast.OpGt: "ogt", ast.OpGe: "oge",
	}[op]
	tmp := e.newTemp()
	if isFloat {
		e.emit("  %s = fcmp %s double %s, %s\n", tmp, fpred, l.Ref, r.Ref)
	} else {
		e.emit("  %s = icmp %s %s %s, %s\n", tmp, pred, l.Type, l.Ref, r.Ref)
	}
	return Value{Ref: tmp, Type: "i1"}
}

// emitCompositeEquality dispatches to the implicit equality function
// registered on t at freeze time, passing addresses rather than
// loaded aggregate values (spec.md 4.I.k).
func (e *Emitter) emitCompositeEquality(n *ast.BinaryExpr, t *types.Type, loc *locals) Value {
	la, _ := e.emitLValue(n.Left, loc)
	ra, _ := e.emitLValue(n.Right, loc)
	if t.EqualityFuncName == "" {
		return e.internalError("composite type %q has no registered equality function", t.Name)
	}
	tmp := e.newTemp()
	e.emit("  %s = call i1 @%s(ptr %s, ptr %s)\n", tmp, t.EqualityFuncName, la, ra)
	if n.Op == ast.OpNe {
		t2 := e.newTemp()
		e.emit("  %s = xor i1 %s, 1\n", t2, tmp)
		return Value{Ref: t2, Type: "i1"}
	}
	return Value{Ref: tmp, Type: "i1"}
}

func (e *Emitter) emitLogical(op string, l, r Value) Value {
	tmp := e.newTemp()
	e.emit("  %s = %s %s %s, %s\n", tmp, op, l.Type, l.Ref, r.Ref)
	return Value{Ref: tmp, Type: l.Type}
}

// emitConcat implements "&" via secondary-stack allocation and a pair
// of memcpy calls, returning a fresh fat pointer over the combined
// data (spec.md 4.I.k).
func (e *Emitter) emitConcat(l, r Value) Value {
	ptr0 := e.newTemp()
	e.emit("  %s = extractvalue { ptr, { i64, i64 } } %s, 0\n", ptr0, l.Ref)
	len0 := e.newTemp()
	e.emit("  %s = extractvalue { ptr, { i64, i64 } } %s, 1, 1\n", len0, l.Ref)
	ptr1 := e.newTemp()
	e.emit("  %s = extractvalue { ptr, { i64, i64 } } %s, 0\n", ptr1, r.Ref)
	len1 := e.newTemp()
	e.emit("  %s = extractvalue { ptr, { i64, i64 } } %s, 1, 1\n", len1, r.Ref)

	total := e.newTemp()
	e.emit("  %s = add i64 %s, %s\n", total, len0, len1)
	buf := e.newTemp()
	e.emit("  %s = call ptr @__ada_sec_stack_alloc(i64 %s)\n", buf, total)
	e.emit("  call void @llvm.memcpy.p0.p0.i64(ptr %s, ptr %s, i64 %s, i1 0)\n", buf, ptr0, len0)
	tail := e.newTemp()
	e.emit("  %s = getelementptr i8, ptr %s, i64 %s\n", tail, buf, len0)
	e.emit("  call void @llvm.memcpy.p0.p0.i64(ptr %s, ptr %s, i64 %s, i1 0)\n", tail, ptr1, len1)

	agg1 := e.newTemp()
	e.emit("  %s = insertvalue { ptr, { i64, i64 } } undef, ptr %s, 0\n", agg1, buf)
	agg2 := e.newTemp()
	e.emit("  %s = insertvalue { ptr, { i64, i64 } } %s, i64 1, 1, 0\n", agg2, agg1)
	agg3 := e.newTemp()
	e.emit("  %s = insertvalue { ptr, { i64, i64 } } %s, i64 %s, 1, 1\n", agg3, agg2, total)
	return Value{Ref: agg3, Type: "{ ptr, { i64, i64 } }"}
}

// emitCheckedArith emits an overflow-checked op for signed integer
// types via the matching llvm.s{add,sub,mul}.with.overflow.i64
// intrinsic, branching to __ada_raise on overflow; modular types use
// the plain instruction plus a urem fixup when the modulus is not a
// power of two; real types use the plain floating op (spec.md 4.I.k).
func (e *Emitter) emitCheckedArith(plainOp, intrinsic string, l, r Value, t *types.Type, isReal bool) Value {
	if isReal {
		tmp := e.newTemp()
		e.emit("  %s = f%s double %s, %s\n", tmp, plainOp, l.Ref, r.Ref)
		return Value{Ref: tmp, Type: "double"}
	}
	if t != nil && t.Kind == types.ModularKind {
		tmp := e.newTemp()
		e.emit("  %s = %s i64 %s, %s\n", tmp, plainOp, l.Ref, r.Ref)
		if t.Modulus != 0 && t.Modulus&(t.Modulus-1) != 0 {
			mod := e.newTemp()
			e.emit("  %s = urem i64 %s, %d\n", mod, tmp, t.Modulus)
			return Value{Ref: mod, Type: "i64"}
		}
		return Value{Ref: tmp, Type: "i64"}
	}
	if checkSuppressed(t, types.OverflowCheck) {
		tmp := e.newTemp()
		e.emit("  %s = %s i64 %s, %s\n", tmp, plainOp, l.Ref, r.Ref)
		return Value{Ref: tmp, Type: "i64"}
	}
	agg := e.newTemp()
	e.emit("  %s = call { i64, i1 } @llvm.%s.with.overflow.i64(i64 %s, i64 %s)\n", agg, intrinsic, l.Ref, r.Ref)
	result := e.newTemp()
	e.emit("  %s = extractvalue { i64, i1 } %s, 0\n", result, agg)
	overflowed := e.newTemp()
	e.emit("  %s = extractvalue { i64, i1 } %s, 1\n", overflowed, agg)
	okL := e.newLabel("arithok")
	raiseL := e.newLabel("arithoverflow")
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", overflowed, raiseL, okL)
	e.emitLabelDef(raiseL)
	e.emitRaiseConstraintError()
	e.terminate("  unreachable\n")
	e.emitLabelDef(okL)
	return Value{Ref: result, Type: "i64"}
}

// emitDivOrMod implements checked sdiv/srem with a zero check (and,
// for signed division, a MIN/-1 check), real division with no check,
// and mod/rem distinguished by LLVM's srem truncating-toward-zero
// semantics vs Ada's mod flooring (the rem case maps directly; mod is
// approximated as srem here, a documented simplification for negative
// operands — see DESIGN.md).
func (e *Emitter) emitDivOrMod(l, r Value, t *types.Type, isReal, isDiv bool) Value {
	if isReal {
		tmp := e.newTemp()
		if isDiv {
			e.emit("  %s = fdiv double %s, %s\n", tmp, l.Ref, r.Ref)
		} else {
			e.emit("  %s = frem double %s, %s\n", tmp, l.Ref, r.Ref)
		}
		return Value{Ref: tmp, Type: "double"}
	}

	isZero := e.newTemp()
	e.emit("  %s = icmp eq i64 %s, 0\n", isZero, r.Ref)
	okL := e.newLabel("divok")
	zeroL := e.newLabel("divzero")
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", isZero, zeroL, okL)
	e.emitLabelDef(zeroL)
	e.emitRaiseConstraintError()
	e.terminate("  unreachable\n")
	e.emitLabelDef(okL)

	op := "srem"
	if isDiv {
		op = "sdiv"
		isMin := e.newTemp()
		e.emit("  %s = icmp eq i64 %s, -9223372036854775808\n", isMin, l.Ref)
		isNegOne := e.newTemp()
		e.emit("  %s = icmp eq i64 %s, -1\n", isNegOne, r.Ref)
		both := e.newTemp()
		e.emit("  %s = and i1 %s, %s\n", both, isMin, isNegOne)
		okL2 := e.newLabel("divok2")
		overflowL := e.newLabel("divoverflow")
		e.terminate("  br i1 %s, label %%%s, label %%%s\n", both, overflowL, okL2)
		e.emitLabelDef(overflowL)
		e.emitRaiseConstraintError()
		e.terminate("  unreachable\n")
		e.emitLabelDef(okL2)
	}
	tmp := e.newTemp()
	e.emit("  %s = %s i64 %s, %s\n", tmp, op, l.Ref, r.Ref)
	return Value{Ref: tmp, Type: "i64"}
}

// emitPow is limited to non-negative small integer exponents realized
// as a runtime loop of checked multiplications; real exponentiation is
// out of this core's scope (spec.md's Non-goals exclude elementary
// functions).
func (e *Emitter) emitPow(base, exp Value, t *types.Type, isReal bool) Value {
	ct := "i64"
	if isReal {
		ct = "double"
	}
	accAddr := e.newTemp()
	e.emit("  %s = alloca %s\n", accAddr, ct)
	one := "1"
	if isReal {
		one = "1.0"
	}
	e.emit("  store %s %s, ptr %s\n", ct, one, accAddr)
	counterAddr := e.newTemp()
	e.emit("  %s = alloca i64\n", counterAddr)
	e.emit("  store i64 0, ptr %s\n", counterAddr)

	top := e.newLabel("powtest")
	body := e.newLabel("powbody")
	end := e.newLabel("powend")
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(top)
	cur := e.newTemp()
	e.emit("  %s = load i64, ptr %s\n", cur, counterAddr)
	cmp := e.newTemp()
	e.emit("  %s = icmp slt i64 %s, %s\n", cmp, cur, exp.Ref)
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", cmp, body, end)
	e.emitLabelDef(body)
	accVal := e.newTemp()
	e.emit("  %s = load %s, ptr %s\n", accVal, ct, accAddr)
	next := e.emitCheckedArith("mul", "smul", Value{Ref: accVal, Type: ct}, base, t, isReal)
	e.emit("  store %s %s, ptr %s\n", ct, next.Ref, accAddr)
	cur2 := e.newTemp()
	e.emit("  %s = load i64, ptr %s\n", cur2, counterAddr)
	inc := e.newTemp()
	e.emit("  %s = add i64 %s, 1\n", inc, cur2)
	e.emit("  store i64 %s, ptr %s\n", inc, counterAddr)
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(end)
	result := e.newTemp()
	e.emit("  %s = load %s, ptr %s\n", result, ct, accAddr)
	return Value{Ref: result, Type: ct}
}

// emitUnary implements negation (overflow-checked the same way binary
// subtraction is), logical not, absolute value, and the no-op
// identity operator.
func (e *Emitter) emitUnary(n *ast.UnaryExpr, loc *locals) Value {
	t := exprType(n)
	v := e.emitExpr(n.Operand, loc)
	switch n.Op {
	case ast.OpIdentity:
		return v
	case ast.OpNot:
		tmp := e.newTemp()
		e.emit("  %s = xor i1 %s, 1\n", tmp, v.Ref)
		return Value{Ref: tmp, Type: "i1"}
	case ast.OpNeg:
		if v.Type == "double" {
			tmp := e.newTemp()
			e.emit("  %s = fneg double %s\n", tmp, v.Ref)
			return Value{Ref: tmp, Type: "double"}
		}
		zero := Value{Ref: "0", Type: "i64"}
		widened := e.convert(v, "i64")
		return e.emitCheckedArith("sub", "ssub", zero, widened, t, false)
	case ast.OpAbs:
		if v.Type == "double" {
			tmp := e.newTemp()
			e.emit("  %s = call double @llvm.fabs.f64(double %s)\n", tmp, v.Ref)
			return Value{Ref: tmp, Type: "double"}
		}
		wv := e.convert(v, "i64")
		isNeg := e.newTemp()
		e.emit("  %s = icmp slt i64 %s, 0\n", isNeg, wv.Ref)
		negated := e.newTemp()
		e.emit("  %s = sub i64 0, %s\n", negated, wv.Ref)
		tmp := e.newTemp()
		e.emit("  %s = select i1 %s, i64 %s, i64 %s\n", tmp, isNeg, negated, wv.Ref)
		return Value{Ref: tmp, Type: "i64"}
	default:
		return e.internalError("unsupported unary operator")
	}
}
