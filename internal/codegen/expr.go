package codegen

import (
	"fmt"

	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

func exprType(e ast.Expr) *types.Type {
	if e == nil {
		return nil
	}
	t, _ := e.ExprType().(*types.Type)
	return t
}

func exprSymbol(e ast.Expr) *symtab.Symbol {
	switch n := e.(type) {
	case *ast.IdentExpr:
		s, _ := n.Symbol.(*symtab.Symbol)
		return s
	case *ast.SelectedExpr:
		s, _ := n.Symbol.(*symtab.Symbol)
		return s
	}
	return nil
}

// emitExpr lowers e to an rvalue, per spec.md 4.I.k's expression
// emission rules.
func (e *Emitter) emitExpr(n ast.Expr, loc *locals) Value {
	switch x := n.(type) {
	case *ast.IntegerLitExpr:
		return Value{Ref: fmt.Sprintf("%d", x.Value), Type: "i64"}
	case *ast.RealLitExpr:
		return Value{Ref: fmt.Sprintf("%g", x.Value), Type: "double"}
	case *ast.CharLitExpr:
		return Value{Ref: fmt.Sprintf("%d", x.Value), Type: "i8"}
	case *ast.StringLitExpr:
		return e.emitStringLiteral(x.Value)
	case *ast.IdentExpr:
		return e.emitIdent(x, loc)
	case *ast.SelectedExpr:
		return e.emitSelected(x, loc)
	case *ast.AttributeExpr:
		return e.emitAttribute(x, loc)
	case *ast.QualifiedExpr:
		v := e.emitExpr(x.Value, loc)
		return e.convert(v, llvmType(exprType(x)))
	case *ast.ApplyExpr:
		return e.emitApply(x, loc)
	case *ast.BinaryExpr:
		return e.emitBinary(x, loc)
	case *ast.UnaryExpr:
		return e.emitUnary(x, loc)
	case *ast.AllExpr:
		return e.emitAll(x, loc)
	case *ast.AggregateExpr:
		return e.emitAggregate(x, loc)
	case *ast.AllocatorExpr:
		return e.emitAllocator(x, loc)
	case *ast.ErrorExpr:
		return e.internalError("error expression reached codegen")
	default:
		return e.internalError("unsupported expression kind %T", n)
	}
}

func (e *Emitter) emitStringLiteral(s string) Value {
	idx := len(e.stringConsts)
	e.stringConsts = append(e.stringConsts, stringConst{value: s})
	dataPtr := e.newTemp()
	e.emit("  %s = getelementptr [%d x i8], ptr @.str.%d, i64 0, i64 0\n", dataPtr, len(s), idx)
	agg1 := e.newTemp()
	e.emit("  %s = insertvalue { ptr, { i64, i64 } } undef, ptr %s, 0\n", agg1, dataPtr)
	agg2 := e.newTemp()
	e.emit("  %s = insertvalue { ptr, { i64, i64 } } %s, i64 1, 1, 0\n", agg2, agg1)
	agg3 := e.newTemp()
	e.emit("  %s = insertvalue { ptr, { i64, i64 } } %s, i64 %d, 1, 1\n", agg3, agg2, len(s))
	return Value{Ref: agg3, Type: "{ ptr, { i64, i64 } }"}
}

// symbolKey is the mangled name keying a symbol's frame slot.
func symbolKey(sym *symtab.Symbol) string {
	return mangle(symbolName(sym), symbolOrdinal(sym))
}

// addrOf resolves the storage address of a name reference: a local
// (alloca'd or frame-offset) variable, or a package-level global.
func (e *Emitter) addrOf(sym *symtab.Symbol, loc *locals) (string, *types.Type, bool) {
	if addr, ok := loc.addr[sym]; ok {
		return addr, loc.typ[sym], true
	}
	if e.curFrame.parentRef != "" {
		if off, ok := e.curFrame.parentVars[symbolKey(sym)]; ok {
			addr := e.newTemp()
			e.emit("  %s = getelementptr i8, ptr %s, i64 %d\n", addr, e.curFrame.parentRef, off)
			return addr, sym.Type, true
		}
	}
	if sym.Kind == symtab.SymVariable || sym.Kind == symtab.SymConstant {
		return "@G_" + mangle(symbolName(sym), symbolOrdinal(sym)), sym.Type, true
	}
	return "", nil, false
}

func (e *Emitter) emitIdent(n *ast.IdentExpr, loc *locals) Value {
	sym, _ := n.Symbol.(*symtab.Symbol)
	if sym == nil {
		return e.internalError("identifier %q has no resolved symbol", n.Name)
	}
	if sym.Kind == symtab.SymEnumLiteral {
		return Value{Ref: fmt.Sprintf("%d", enumOrdinal(sym)), Type: llvmType(sym.Type)}
	}
	addr, t, ok := e.addrOf(sym, loc)
	if !ok {
		return e.internalError("no storage for %q", n.Name)
	}
	lt := llvmType(t)
	tmp := e.newTemp()
	e.emit("  %s = load %s, ptr %s\n", tmp, lt, addr)
	return Value{Ref: tmp, Type: lt}
}

func enumOrdinal(sym *symtab.Symbol) int {
	switch sym.Name {
	case "TRUE":
		return 1
	case "FALSE":
		return 0
	default:
		return sym.FrameOffset
	}
}

// emitLValue resolves n to an address, for the left side of an
// assignment or the prefix of a selected/indexed access.
func (e *Emitter) emitLValue(n ast.Expr, loc *locals) (string, *types.Type) {
	switch x := n.(type) {
	case *ast.IdentExpr:
		sym, _ := x.Symbol.(*symtab.Symbol)
		if sym == nil {
			e.internalError("identifier %q has no resolved symbol", x.Name)
			return "null", nil
		}
		addr, t, ok := e.addrOf(sym, loc)
		if !ok {
			e.internalError("no storage for %q", x.Name)
			return "null", nil
		}
		return addr, t
	case *ast.SelectedExpr:
		return e.emitSelectedAddr(x, loc)
	case *ast.ApplyExpr:
		return e.emitIndexAddr(x, loc)
	case *ast.AllExpr:
		v := e.emitExpr(x.Prefix, loc)
		return v.Ref, exprType(x)
	default:
		e.internalError("expression is not assignable")
		return "null", nil
	}
}

func (e *Emitter) emitSelected(n *ast.SelectedExpr, loc *locals) Value {
	if sym, _ := n.Symbol.(*symtab.Symbol); sym != nil {
		addr, t, ok := e.addrOf(sym, loc)
		if !ok {
			return e.internalError("no storage for %q", n.Field)
		}
		lt := llvmType(t)
		tmp := e.newTemp()
		e.emit("  %s = load %s, ptr %s\n", tmp, lt, addr)
		return Value{Ref: tmp, Type: lt}
	}
	addr, ft := e.emitSelectedAddr(n, loc)
	lt := llvmType(ft)
	tmp := e.newTemp()
	e.emit("  %s = load %s, ptr %s\n", tmp, lt, addr)
	return Value{Ref: tmp, Type: lt}
}

// emitSelectedAddr implements spec.md 4.I.k's record field access:
// scan the prefix's record type for a case-insensitive name match, GEP
// by byte offset.
func (e *Emitter) emitSelectedAddr(n *ast.SelectedExpr, loc *locals) (string, *types.Type) {
	baseAddr, baseT := e.emitLValue(n.Prefix, loc)
	if baseT == nil || baseT.Kind != types.RecordKind {
		e.internalError("selected component on a non-record value")
		return baseAddr, nil
	}
	for _, c := range baseT.Components {
		if equalFold(c.Name, n.Field) {
			addr := e.newTemp()
			e.emit("  %s = getelementptr i8, ptr %s, i64 %d\n", addr, baseAddr, c.Offset)
			return addr, c.Type
		}
	}
	e.internalError("no component named %q", n.Field)
	return baseAddr, nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 32
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 32
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// emitIndexAddr implements spec.md 4.I.k's array indexing rule: base
// address, subtract the array's low bound from the index, GEP by
// element type.
func (e *Emitter) emitIndexAddr(n *ast.ApplyExpr, loc *locals) (string, *types.Type) {
	baseAddr, baseT := e.emitLValue(n.Prefix, loc)
	if baseT == nil || (baseT.Kind != types.ArrayKind && baseT.Kind != types.StringKind) {
		e.internalError("indexing a non-array value")
		return baseAddr, nil
	}
	elem := baseT.ElemType
	elemSize := sizeOf(elem)
	if len(n.Args) == 0 {
		return baseAddr, elem
	}
	idxVal := e.emitExpr(n.Args[0].Value, loc)
	idxVal = e.convert(idxVal, "i64")
	low := int64(1)
	if len(baseT.Indices) > 0 && baseT.Indices[0].LowBound.HasInt {
		low = baseT.Indices[0].LowBound.Int
	}
	rel := e.newTemp()
	e.emit("  %s = sub i64 %s, %d\n", rel, idxVal.Ref, low)
	byteOff := e.newTemp()
	e.emit("  %s = mul i64 %s, %d\n", byteOff, rel, elemSize)
	addr := e.newTemp()
	e.emit("  %s = getelementptr i8, ptr %s, i64 %s\n", addr, baseAddr, byteOff)
	return addr, elem
}

func (e *Emitter) emitApply(n *ast.ApplyExpr, loc *locals) Value {
	sym := exprSymbol(n.Prefix)
	if sym != nil && (sym.Kind == symtab.SymProcedure || sym.Kind == symtab.SymFunction) {
		return e.emitCall(n, sym, loc)
	}
	pt := exprType(n.Prefix)
	if pt != nil && (pt.Kind == types.ArrayKind || pt.Kind == types.StringKind) {
		addr, elemT := e.emitIndexAddr(n, loc)
		lt := llvmType(elemT)
		tmp := e.newTemp()
		e.emit("  %s = load %s, ptr %s\n", tmp, lt, addr)
		return Value{Ref: tmp, Type: lt}
	}
	// Type conversion or scalar range constraint: evaluate the single
	// argument and convert to the target (result) type.
	if len(n.Args) >= 1 {
		v := e.emitExpr(n.Args[0].Value, loc)
		return e.convert(v, llvmType(exprType(n)))
	}
	return e.internalError("unsupported apply expression")
}

func (e *Emitter) emitCall(n *ast.ApplyExpr, sym *symtab.Symbol, loc *locals) Value {
	var argVals []string
	for i, a := range n.Args {
		v := e.emitExpr(a.Value, loc)
		if i < len(sym.Params) {
			v = e.convert(v, llvmType(sym.Params[i].Type))
		}
		argVals = append(argVals, fmt.Sprintf("%s %s", v.Type, v.Ref))
	}
	callArgs := joinParams(argVals)
	fn := mangledFuncName(sym)
	if sym.Kind == symtab.SymFunction {
		lt := llvmType(sym.ReturnType)
		tmp := e.newTemp()
		e.emit("  %s = call %s %s(%s)\n", tmp, lt, fn, callArgs)
		return Value{Ref: tmp, Type: lt}
	}
	e.emit("  call void %s(%s)\n", fn, callArgs)
	return Value{Ref: "0", Type: "i64"}
}

// emitAttribute implements First/Last/Length/Size/Alignment/
// Component_Size/Address/Pos/Val/Succ/Pred/Min/Max/Abs/Image/Value/
// Width/Access/Unchecked_Access. 'Range and 'Mod have no case here and
// are reported as unsupported attributes.
func (e *Emitter) emitAttribute(n *ast.AttributeExpr, loc *locals) Value {
	prefixT := exprType(n.Prefix)
	name := upper(n.Name)
	switch name {
	case "FIRST":
		return intConst(lowBoundOf(prefixT))
	case "LAST":
		return intConst(highBoundOf(prefixT))
	case "LENGTH":
		return intConst(highBoundOf(prefixT) - lowBoundOf(prefixT) + 1)
	case "SIZE":
		return intConst(int64(sizeOf(prefixT) * 8))
	case "ALIGNMENT":
		return intConst(int64(alignOf(prefixT)))
	case "COMPONENT_SIZE":
		if prefixT != nil {
			return intConst(int64(sizeOf(prefixT.ElemType) * 8))
		}
		return intConst(0)
	case "ACCESS", "UNCHECKED_ACCESS", "ADDRESS":
		addr, _ := e.emitLValue(n.Prefix, loc)
		return Value{Ref: addr, Type: "ptr"}
	case "POS", "VAL":
		if len(n.Args) > 0 {
			return e.emitExpr(n.Args[0], loc)
		}
		return e.emitExpr(n.Prefix, loc)
	case "SUCC":
		v := e.attrOperand(n, loc)
		tmp := e.newTemp()
		e.emit("  %s = add %s %s, 1\n", tmp, v.Type, v.Ref)
		return Value{Ref: tmp, Type: v.Type}
	case "PRED":
		v := e.attrOperand(n, loc)
		tmp := e.newTemp()
		e.emit("  %s = sub %s %s, 1\n", tmp, v.Type, v.Ref)
		return Value{Ref: tmp, Type: v.Type}
	case "ABS":
		operand := n.Prefix
		if len(n.Args) > 0 {
			operand = n.Args[0]
		}
		return e.emitUnary(&ast.UnaryExpr{Op: ast.OpAbs, Operand: operand}, loc)
	case "MIN", "MAX":
		if len(n.Args) < 2 {
			return e.internalError("'%s requires two arguments", name)
		}
		a := e.emitExpr(n.Args[0], loc)
		b := e.emitExpr(n.Args[1], loc)
		cmp := e.newTemp()
		pred := "slt"
		if name == "MAX" {
			pred = "sgt"
		}
		e.emit("  %s = icmp %s %s %s, %s\n", cmp, pred, a.Type, a.Ref, b.Ref)
		tmp := e.newTemp()
		e.emit("  %s = select i1 %s, %s %s, %s %s\n", tmp, cmp, a.Type, a.Ref, b.Type, b.Ref)
		return Value{Ref: tmp, Type: a.Type}
	case "IMAGE", "VALUE":
		// Placeholder conversions (text-conversion routines are out of
		// this core's scope, a known deficiency alongside spec.md 4.I.k's
		// unconstrained-array equality note).
		return e.emitStringLiteral("")
	case "WIDTH":
		return intConst(0)
	default:
		return e.internalError("unsupported attribute %q", n.Name)
	}
}

func (e *Emitter) attrOperand(n *ast.AttributeExpr, loc *locals) Value {
	if len(n.Args) > 0 {
		return e.emitExpr(n.Args[0], loc)
	}
	return e.emitExpr(n.Prefix, loc)
}

func upper(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 32
		}
		out[i] = c
	}
	return string(out)
}

func intConst(v int64) Value { return Value{Ref: fmt.Sprintf("%d", v), Type: "i64"} }

func lowBoundOf(t *types.Type) int64 {
	if t != nil && t.LowBound.HasInt {
		return t.LowBound.Int
	}
	return 0
}

func highBoundOf(t *types.Type) int64 {
	if t != nil && t.HighBound.HasInt {
		return t.HighBound.Int
	}
	return 0
}

func alignOf(t *types.Type) int {
	if t == nil || t.Alignment <= 0 {
		return 1
	}
	return t.Alignment
}

func (e *Emitter) emitAll(n *ast.AllExpr, loc *locals) Value {
	v := e.emitExpr(n.Prefix, loc)
	designated := exprType(n)
	lt := llvmType(designated)
	tmp := e.newTemp()
	e.emit("  %s = load %s, ptr %s\n", tmp, lt, v.Ref)
	return Value{Ref: tmp, Type: lt}
}

func (e *Emitter) emitAllocator(n *ast.AllocatorExpr, loc *locals) Value {
	designated := exprType(n)
	var dt *types.Type
	if designated != nil {
		dt = designated.Designated
	}
	sz := sizeOf(dt)
	ptr := e.newTemp()
	e.emit("  %s = call ptr @malloc(i64 %d)\n", ptr, sz)
	if n.Init != nil {
		v := e.emitExpr(n.Init, loc)
		v = e.convert(v, llvmType(dt))
		e.emit("  store %s %s, ptr %s\n", v.Type, v.Ref, ptr)
	}
	return Value{Ref: ptr, Type: "ptr"}
}

// emitAggregate allocates a temporary sized to the target type, then
// scans associations once for an "others" value and again to store
// each field/element (spec.md 4.I.k's aggregate emission rule). Only
// record and fixed-size array aggregates are materialized; anything
// else yields the alloca'd temporary with nothing stored into it, so its
// contents are undefined (documented simplification — this
// core's aggregate emission targets the common declaration-initializer
// shape, not arbitrary nested discriminated variants).
func (e *Emitter) emitAggregate(n *ast.AggregateExpr, loc *locals) Value {
	t := exprType(n)
	lt := llvmType(t)
	addr := e.newTemp()
	e.emit("  %s = alloca %s\n", addr, lt)

	var othersVal ast.Expr
	for _, a := range n.Associations {
		for _, c := range a.Choices {
			if id, ok := c.(*ast.IdentExpr); ok && upper(id.Name) == "OTHERS" {
				othersVal = a.Value
			}
		}
	}

	if t != nil && t.Kind == types.RecordKind {
		e.emitRecordAggregate(n, t, addr, loc, othersVal)
	} else if t != nil && (t.Kind == types.ArrayKind) {
		e.emitArrayAggregate(n, t, addr, loc, othersVal)
	}

	tmp := e.newTemp()
	e.emit("  %s = load %s, ptr %s\n", tmp, lt, addr)
	return Value{Ref: tmp, Type: lt}
}

func (e *Emitter) emitRecordAggregate(n *ast.AggregateExpr, t *types.Type, addr string, loc *locals, others ast.Expr) {
	filled := map[string]bool{}
	positional := 0
	for _, a := range n.Associations {
		if len(a.Choices) == 0 {
			if positional < len(t.Components) {
				c := t.Components[positional]
				e.storeFieldAt(addr, c, a.Value, loc)
				filled[c.Name] = true
			}
			positional++
			continue
		}
		for _, choice := range a.Choices {
			id, ok := choice.(*ast.IdentExpr)
			if !ok || upper(id.Name) == "OTHERS" {
				continue
			}
			for _, c := range t.Components {
				if equalFold(c.Name, id.Name) {
					e.storeFieldAt(addr, c, a.Value, loc)
					filled[c.Name] = true
				}
			}
		}
	}
	if others != nil {
		for _, c := range t.Components {
			if !filled[c.Name] {
				e.storeFieldAt(addr, c, others, loc)
			}
		}
	}
}

func (e *Emitter) storeFieldAt(baseAddr string, c types.Component, value ast.Expr, loc *locals) {
	fieldAddr := e.newTemp()
	e.emit("  %s = getelementptr i8, ptr %s, i64 %d\n", fieldAddr, baseAddr, c.Offset)
	v := e.emitExpr(value, loc)
	lt := llvmType(c.Type)
	v = e.convert(v, lt)
	e.emit("  store %s %s, ptr %s\n", lt, v.Ref, fieldAddr)
}

func (e *Emitter) emitArrayAggregate(n *ast.AggregateExpr, t *types.Type, addr string, loc *locals, others ast.Expr) {
	elem := t.ElemType
	elemSize := sizeOf(elem)
	lt := llvmType(elem)
	low := lowBoundOf(firstIndex(t))
	count := int64(0)
	if t.Size > 0 && elemSize > 0 {
		count = int64(t.Size / elemSize)
	}
	filled := make([]bool, count)
	pos := int64(0)
	storeAt := func(i int64, value ast.Expr) {
		if i < 0 || i >= count {
			return
		}
		off := e.newTemp()
		e.emit("  %s = getelementptr i8, ptr %s, i64 %d\n", off, addr, i*int64(elemSize))
		v := e.emitExpr(value, loc)
		v = e.convert(v, lt)
		e.emit("  store %s %s, ptr %s\n", lt, v.Ref, off)
		filled[i] = true
	}
	for _, a := range n.Associations {
		if len(a.Choices) == 0 {
			storeAt(pos, a.Value)
			pos++
			continue
		}
		for _, choice := range a.Choices {
			switch c := choice.(type) {
			case *ast.RangeExpr:
				lo := constIntOf(c.Low) - low
				hi := constIntOf(c.High) - low
				for i := lo; i <= hi; i++ {
					storeAt(i, a.Value)
				}
			case *ast.IdentExpr:
				if upper(c.Name) == "OTHERS" {
					continue
				}
			default:
				idx := constIntOf(choice) - low
				storeAt(idx, a.Value)
			}
		}
	}
	if others != nil {
		for i := int64(0); i < count; i++ {
			if !filled[i] {
				storeAt(i, others)
			}
		}
	}
}

func firstIndex(t *types.Type) *types.Type {
	if t == nil || len(t.Indices) == 0 {
		return nil
	}
	return t.Indices[0]
}

func constIntOf(e ast.Expr) int64 {
	switch n := e.(type) {
	case *ast.IntegerLitExpr:
		return n.Value
	case *ast.UnaryExpr:
		if n.Op == ast.OpNeg {
			return -constIntOf(n.Operand)
		}
	}
	return 0
}
