package codegen

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
)

// emitStmtsCtx lowers a statement list in sequence, per spec.md 4.I.k's
// control-flow lowering rules.
func (e *Emitter) emitStmtsCtx(stmts []ast.Stmt, loc *locals) {
	for _, s := range stmts {
		if e.blockTerminated {
			// A goto, return, raise or exit already closed the current
			// block; anything after it is unreachable, so give it a
			// fresh block rather than append instructions past a
			// terminator.
			e.emitLabelDef(e.newLabel("deadcode"))
		}
		e.emitStmtCtx(s, loc)
	}
}

func (e *Emitter) emitStmtCtx(s ast.Stmt, loc *locals) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		e.emitAssign(n, loc)
	case *ast.CallStmt:
		e.emitExpr(n.Call, loc)
	case *ast.ReturnStmt:
		e.emitReturn(n, loc)
	case *ast.IfStmt:
		e.emitIf(n, loc)
	case *ast.CaseStmt:
		e.emitCase(n, loc)
	case *ast.LoopStmt:
		e.emitLoop(n, loc)
	case *ast.ExitStmt:
		e.emitExit(n, loc)
	case *ast.BlockStmt:
		e.emitBlock(n, loc)
	case *ast.NullStmt:
		// Nothing to emit.
	case *ast.GotoStmt:
		e.terminate("  br label %%L_goto_%s\n", n.Label)
	case *ast.LabelStmt:
		cont := e.newLabel("fallthrough")
		e.terminate("  br label %%%s\n", cont)
		e.emitLabelDef(cont)
		e.terminate("  br label %%L_goto_%s\n", n.Name)
		e.emitLabelDef("L_goto_" + n.Name)
	case *ast.RaiseStmt:
		e.emitRaise(n, loc)
	case *ast.DelayStmt:
		e.emitExpr(n.Duration, loc)
	default:
		e.internalError("unsupported statement kind %T", s)
	}
}

func (e *Emitter) emitAssign(n *ast.AssignStmt, loc *locals) {
	addr, t := e.emitLValue(n.LHS, loc)
	v := e.emitExpr(n.RHS, loc)
	lt := llvmType(t)
	v = e.convert(v, lt)
	e.emit("  store %s %s, ptr %s\n", lt, v.Ref, addr)
}

func (e *Emitter) emitReturn(n *ast.ReturnStmt, loc *locals) {
	if n.Value == nil {
		e.terminate("  ret void\n")
		return
	}
	v := e.emitExpr(n.Value, loc)
	e.terminate("  ret %s %s\n", v.Type, v.Ref)
}

func (e *Emitter) emitIf(n *ast.IfStmt, loc *locals) {
	end := e.newLabel("endif")
	e.emitIfArm(n.Cond, n.Then, n.Elsifs, n.Else, end, loc)
	e.emitLabelDef(end)
}

// emitIfArm recursively lowers the if/elsif chain so each condition
// only ever needs a two-way branch.
func (e *Emitter) emitIfArm(cond ast.Expr, then []ast.Stmt, elsifs []*ast.ElsifArm, els []ast.Stmt, end string, loc *locals) {
	c := e.emitExpr(cond, loc)
	thenL := e.newLabel("then")
	elseL := e.newLabel("else")
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", c.Ref, thenL, elseL)
	e.emitLabelDef(thenL)
	e.emitStmtsCtx(then, loc)
	e.terminate("  br label %%%s\n", end)
	e.emitLabelDef(elseL)
	if len(elsifs) > 0 {
		e.emitIfArm(elsifs[0].Cond, elsifs[0].Body, elsifs[1:], els, end, loc)
		return
	}
	e.emitStmtsCtx(els, loc)
	e.terminate("  br label %%%s\n", end)
}

// emitCase linearizes each choice into an equality comparison against
// the selector, per spec.md 4.I.k's case-lowering rule.
func (e *Emitter) emitCase(n *ast.CaseStmt, loc *locals) {
	sel := e.emitExpr(n.Selector, loc)
	end := e.newLabel("endcase")
	e.emitCaseAlts(sel, n.Alts, end, loc)
	e.emitLabelDef(end)
}

func (e *Emitter) emitCaseAlts(sel Value, alts []*ast.CaseAlt, end string, loc *locals) {
	if len(alts) == 0 {
		e.terminate("  br label %%%s\n", end)
		return
	}
	alt := alts[0]
	bodyL := e.newLabel("casebody")
	nextL := e.newLabel("casenext")
	matched := ""
	for _, choice := range alt.Choices {
		var cmp Value
		if rng, ok := choice.(*ast.RangeExpr); ok {
			lo := e.emitExpr(rng.Low, loc)
			hi := e.emitExpr(rng.High, loc)
			geLo := e.newTemp()
			e.emit("  %s = icmp sge %s %s, %s\n", geLo, sel.Type, sel.Ref, lo.Ref)
			leHi := e.newTemp()
			e.emit("  %s = icmp sle %s %s, %s\n", leHi, sel.Type, sel.Ref, hi.Ref)
			both := e.newTemp()
			e.emit("  %s = and i1 %s, %s\n", both, geLo, leHi)
			cmp = Value{Ref: both, Type: "i1"}
		} else if id, ok := choice.(*ast.IdentExpr); ok && upper(id.Name) == "OTHERS" {
			cmp = Value{Ref: "1", Type: "i1"}
		} else {
			v := e.emitExpr(choice, loc)
			t := e.newTemp()
			e.emit("  %s = icmp eq %s %s, %s\n", t, sel.Type, sel.Ref, v.Ref)
			cmp = Value{Ref: t, Type: "i1"}
		}
		if matched == "" {
			matched = cmp.Ref
		} else {
			t := e.newTemp()
			e.emit("  %s = or i1 %s, %s\n", t, matched, cmp.Ref)
			matched = t
		}
	}
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", matched, bodyL, nextL)
	e.emitLabelDef(bodyL)
	e.emitStmtsCtx(alt.Body, loc)
	e.terminate("  br label %%%s\n", end)
	e.emitLabelDef(nextL)
	e.emitCaseAlts(sel, alts[1:], end, loc)
}

func (e *Emitter) emitLoop(n *ast.LoopStmt, loc *locals) {
	switch sch := n.Scheme.(type) {
	case nil:
		e.emitBareLoop(n.Body, loc)
	case *ast.WhileScheme:
		e.emitWhileLoop(sch.Cond, n.Body, loc)
	case *ast.ForScheme:
		e.emitForLoop(sch, n.Body, loc)
	default:
		e.emitBareLoop(n.Body, loc)
	}
}

func (e *Emitter) pushLoopExit(label string) { e.loopExitLabels = append(e.loopExitLabels, label) }
func (e *Emitter) popLoopExit() {
	if len(e.loopExitLabels) > 0 {
		e.loopExitLabels = e.loopExitLabels[:len(e.loopExitLabels)-1]
	}
}

func (e *Emitter) emitBareLoop(body []ast.Stmt, loc *locals) {
	top := e.newLabel("loop")
	end := e.newLabel("loopend")
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(top)
	e.pushLoopExit(end)
	e.emitStmtsCtx(body, loc)
	e.popLoopExit()
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(end)
}

func (e *Emitter) emitWhileLoop(cond ast.Expr, body []ast.Stmt, loc *locals) {
	top := e.newLabel("whiletest")
	bodyL := e.newLabel("whilebody")
	end := e.newLabel("whileend")
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(top)
	c := e.emitExpr(cond, loc)
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", c.Ref, bodyL, end)
	e.emitLabelDef(bodyL)
	e.pushLoopExit(end)
	e.emitStmtsCtx(body, loc)
	e.popLoopExit()
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(end)
}

// emitForLoop materializes the control variable's storage (using the
// symbol resolveLoop attached to the scheme), counting up or down
// between the range's bounds.
func (e *Emitter) emitForLoop(sch *ast.ForScheme, body []ast.Stmt, loc *locals) {
	ctrl, _ := sch.Symbol.(*symtab.Symbol)
	var lo, hi Value
	if rng, ok := sch.Range.(*ast.RangeExpr); ok {
		lo = e.emitExpr(rng.Low, loc)
		hi = e.emitExpr(rng.High, loc)
	} else {
		lo = e.emitExpr(sch.Range, loc)
		hi = lo
	}
	addr := e.newTemp()
	e.emit("  %s = alloca i64\n", addr)
	if ctrl != nil {
		loc.addr[ctrl] = addr
		loc.typ[ctrl] = ctrl.Type
	}
	start, stop := lo, hi
	if sch.Reverse {
		start, stop = hi, lo
	}
	e.emit("  store i64 %s, ptr %s\n", start.Ref, addr)

	top := e.newLabel("fortest")
	bodyL := e.newLabel("forbody")
	end := e.newLabel("forend")
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(top)
	cur := e.newTemp()
	e.emit("  %s = load i64, ptr %s\n", cur, addr)
	cmp := e.newTemp()
	if sch.Reverse {
		e.emit("  %s = icmp sge i64 %s, %s\n", cmp, cur, stop.Ref)
	} else {
		e.emit("  %s = icmp sle i64 %s, %s\n", cmp, cur, stop.Ref)
	}
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", cmp, bodyL, end)
	e.emitLabelDef(bodyL)
	e.pushLoopExit(end)
	e.emitStmtsCtx(body, loc)
	e.popLoopExit()
	cur2 := e.newTemp()
	e.emit("  %s = load i64, ptr %s\n", cur2, addr)
	next := e.newTemp()
	if sch.Reverse {
		e.emit("  %s = sub i64 %s, 1\n", next, cur2)
	} else {
		e.emit("  %s = add i64 %s, 1\n", next, cur2)
	}
	e.emit("  store i64 %s, ptr %s\n", next, addr)
	e.terminate("  br label %%%s\n", top)
	e.emitLabelDef(end)
}

func (e *Emitter) emitExit(n *ast.ExitStmt, loc *locals) {
	if len(e.loopExitLabels) == 0 {
		e.internalError("exit statement outside a loop")
		return
	}
	target := e.loopExitLabels[len(e.loopExitLabels)-1]
	if n.When != nil {
		c := e.emitExpr(n.When, loc)
		cont := e.newLabel("exitcont")
		e.terminate("  br i1 %s, label %%%s, label %%%s\n", c.Ref, target, cont)
		e.emitLabelDef(cont)
		return
	}
	e.terminate("  br label %%%s\n", target)
	unreachableLabel := e.newLabel("afterexit")
	e.emitLabelDef(unreachableLabel)
}

func (e *Emitter) emitBlock(n *ast.BlockStmt, loc *locals) {
	offset := 0
	e.emitDeclarativePart(n.Decls, loc, false, &offset)
	if len(n.Handlers) > 0 {
		e.emitProtectedRegionStmts(n.Stmts, n.Handlers, loc)
		return
	}
	e.emitStmtsCtx(n.Stmts, loc)
}

func (e *Emitter) emitRaise(n *ast.RaiseStmt, loc *locals) {
	if n.Exception == nil {
		e.emit("  call void @__ada_reraise()\n")
		e.terminate("  unreachable\n")
		return
	}
	sym := exprSymbol(n.Exception)
	if sym == nil {
		e.internalError("raise target has no resolved symbol")
		return
	}
	ident, ok := e.exceptionIdentity(sym)
	if !ok {
		e.internalError("raise target %q is not a registered exception", sym.Name)
		return
	}
	idVal := e.newTemp()
	e.emit("  %s = ptrtoint ptr %s to i64\n", idVal, ident)
	e.emit("  call void @__ada_raise(i64 %s)\n", idVal)
	e.terminate("  unreachable\n")
}

// emitProtectedRegion wraps a subprogram body with setjmp/longjmp
// exception scaffolding: push a handler, run the body, and on a
// nonzero setjmp return dispatch to the matching handler by comparing
// __ada_current_exception() against each handler's identity constant,
// per spec.md 4.I.k.
func (e *Emitter) emitProtectedRegion(body []ast.Stmt, handlers []*ast.ExceptionHandler, loc *locals, sym *symtab.Symbol, retType string) {
	e.emitProtectedCore(body, handlers, loc, func() {
		e.emitImplicitReturn(retType != "void", retType)
	})
}

func (e *Emitter) emitProtectedRegionStmts(body []ast.Stmt, handlers []*ast.ExceptionHandler, loc *locals) {
	e.emitProtectedCore(body, handlers, loc, func() {})
}

func (e *Emitter) emitProtectedCore(body []ast.Stmt, handlers []*ast.ExceptionHandler, loc *locals, afterBody func()) {
	buf := e.newTemp()
	e.emit("  %s = alloca [48 x i8]\n", buf)
	e.emit("  call void @__ada_push_handler(ptr %s)\n", buf)
	setjmpRes := e.newTemp()
	e.emit("  %s = call i32 @setjmp(ptr %s)\n", setjmpRes, buf)
	isHandled := e.newTemp()
	e.emit("  %s = icmp ne i32 %s, 0\n", isHandled, setjmpRes)
	normalL := e.newLabel("normal")
	handleL := e.newLabel("handle")
	endL := e.newLabel("protend")
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", isHandled, handleL, normalL)

	e.emitLabelDef(normalL)
	e.emitStmtsCtx(body, loc)
	if !e.blockTerminated {
		// A return/raise/exit inside body already closed this block
		// (and, for return, already left without popping the handler —
		// a known gap noted in DESIGN.md); only the normal-fallthrough
		// path pops it here.
		e.emit("  call void @__ada_pop_handler()\n")
		afterBody()
	}
	e.terminate("  br label %%%s\n", endL)

	e.emitLabelDef(handleL)
	e.emit("  call void @__ada_pop_handler()\n")
	e.emitHandlerDispatch(handlers, loc, endL, afterBody)

	e.emitLabelDef(endL)
}

func (e *Emitter) emitHandlerDispatch(handlers []*ast.ExceptionHandler, loc *locals, endL string, afterBody func()) {
	current := e.newTemp()
	e.emit("  %s = call i64 @__ada_current_exception()\n", current)
	e.emitHandlerChain(current, handlers, loc, endL, afterBody)
}

func (e *Emitter) emitHandlerChain(current string, handlers []*ast.ExceptionHandler, loc *locals, endL string, afterBody func()) {
	if len(handlers) == 0 {
		e.emit("  call void @__ada_reraise()\n")
		e.terminate("  unreachable\n")
		return
	}
	h := handlers[0]
	if h.Others {
		e.emitStmtsCtx(h.Body, loc)
		afterBody()
		e.terminate("  br label %%%s\n", endL)
		return
	}
	bodyL := e.newLabel("handlerbody")
	nextL := e.newLabel("handlernext")
	matched := ""
	for _, choice := range h.Choices {
		sym := exprSymbol(choice)
		if sym == nil {
			continue
		}
		ident, ok := e.exceptionIdentity(sym)
		if !ok {
			continue
		}
		idVal := e.newTemp()
		e.emit("  %s = ptrtoint ptr %s to i64\n", idVal, ident)
		cmp := e.newTemp()
		e.emit("  %s = icmp eq i64 %s, %s\n", cmp, current, idVal)
		if matched == "" {
			matched = cmp
		} else {
			t := e.newTemp()
			e.emit("  %s = or i1 %s, %s\n", t, matched, cmp)
			matched = t
		}
	}
	if matched == "" {
		matched = "0"
	}
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", matched, bodyL, nextL)
	e.emitLabelDef(bodyL)
	e.emitStmtsCtx(h.Body, loc)
	afterBody()
	e.terminate("  br label %%%s\n", endL)
	e.emitLabelDef(nextL)
	e.emitHandlerChain(current, handlers[1:], loc, endL, afterBody)
}
