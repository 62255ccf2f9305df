package codegen

import "github.com/AdaDoom3/Ada83-sub004/internal/types"

// emitPrologue writes the module header spec.md 4.I.k requires: target
// datalayout/triple, runtime declarations, then one private constant
// global per registered exception identity.
func (e *Emitter) emitPrologue() {
	e.emit("target datalayout = \"%s\"\n", DataLayout)
	e.emit("target triple = \"%s\"\n\n", Triple)

	e.emit("declare i32 @memcmp(ptr, ptr, i64)\n")
	e.emit("declare i32 @setjmp(ptr)\n")
	e.emit("declare void @longjmp(ptr, i32)\n")
	e.emit("declare void @__ada_raise(i64)\n")
	e.emit("declare void @__ada_reraise()\n")
	e.emit("declare void @__ada_push_handler(ptr)\n")
	e.emit("declare void @__ada_pop_handler()\n")
	e.emit("declare i64 @__ada_current_exception()\n")
	e.emit("declare ptr @__ada_sec_stack_alloc(i64)\n")
	e.emit("declare ptr @__ada_sec_stack_mark()\n")
	e.emit("declare void @__ada_sec_stack_release(ptr)\n")
	e.emit("declare void @llvm.memcpy.p0.p0.i64(ptr, ptr, i64, i1)\n")
	e.emit("declare { i64, i1 } @llvm.sadd.with.overflow.i64(i64, i64)\n")
	e.emit("declare { i64, i1 } @llvm.ssub.with.overflow.i64(i64, i64)\n")
	e.emit("declare { i64, i1 } @llvm.smul.with.overflow.i64(i64, i64)\n")
	e.emit("declare double @llvm.fabs.f64(double)\n")
	e.emit("declare ptr @malloc(i64)\n")
	e.emit("\n")

	for i, exc := range e.exceptions {
		e.emit("@__exc.%s = private constant i8 0\n", mangle(symbolName(exc), i))
	}
	e.emit("\n")
}

// emitEqualityFunctions emits, once per frozen composite type in
// freeze order, the implicit equality function spec.md 4.I.k assigns
// at freeze time (Type.EqualityFuncName).
func (e *Emitter) emitEqualityFunctions() {
	for _, t := range e.freezer.Composites() {
		e.emitOneEqualityFunction(t)
	}
}

func (e *Emitter) emitOneEqualityFunction(t *types.Type) {
	e.emit("define i1 @%s(ptr %%0, ptr %%1) {\n", t.EqualityFuncName)
	e.blockTerminated = false
	switch t.Kind {
	case types.RecordKind:
		e.emitRecordEquality(t)
	case types.ArrayKind:
		e.emitArrayEquality(t)
	case types.StringKind:
		e.emitStringEquality(t)
	default:
		e.terminate("  ret i1 0\n")
	}
	e.emit("}\n\n")
}

func (e *Emitter) emitRecordEquality(t *types.Type) {
	if len(t.Components) == 0 {
		e.terminate("  ret i1 1\n")
		return
	}
	acc := ""
	for i, c := range t.Components {
		compType := llvmType(c.Type)
		p0 := e.newTemp()
		p1 := e.newTemp()
		e.emit("  %s = getelementptr i8, ptr %%0, i64 %d\n", p0, c.Offset)
		e.emit("  %s = getelementptr i8, ptr %%1, i64 %d\n", p1, c.Offset)
		v0 := e.newTemp()
		v1 := e.newTemp()
		e.emit("  %s = load %s, ptr %s\n", v0, compType, p0)
		e.emit("  %s = load %s, ptr %s\n", v1, compType, p1)
		cmp := e.newTemp()
		if compType == "double" {
			e.emit("  %s = fcmp oeq %s %s, %s\n", cmp, compType, v0, v1)
		} else {
			e.emit("  %s = icmp eq %s %s, %s\n", cmp, compType, v0, v1)
		}
		if i == 0 {
			acc = cmp
		} else {
			next := e.newTemp()
			e.emit("  %s = and i1 %s, %s\n", next, acc, cmp)
			acc = next
		}
	}
	e.terminate("  ret i1 %s\n", acc)
}

// emitStringEquality compares two STRING fat pointers ({ ptr, { i64
// low, i64 high } }): equal length first, then a memcmp over the
// shorter-implied byte count, matching the fixed-size emitArrayEquality
// above but accounting for STRING's unconstrained, runtime-carried
// bounds (spec.md 4.G's STRING representation). emitArrayEquality
// routes unconstrained arrays here too; for those the element count is
// scaled by the element size before the memcmp.
func (e *Emitter) emitStringEquality(t *types.Type) {
	e.emitLabelDef("entry")
	fatType := "{ ptr, { i64, i64 } }"
	agg0 := e.newTemp()
	agg1 := e.newTemp()
	e.emit("  %s = load %s, ptr %%0\n", agg0, fatType)
	e.emit("  %s = load %s, ptr %%1\n", agg1, fatType)

	data0 := e.newTemp()
	lo0 := e.newTemp()
	hi0 := e.newTemp()
	e.emit("  %s = extractvalue %s %s, 0\n", data0, fatType, agg0)
	e.emit("  %s = extractvalue %s %s, 1, 0\n", lo0, fatType, agg0)
	e.emit("  %s = extractvalue %s %s, 1, 1\n", hi0, fatType, agg0)

	data1 := e.newTemp()
	lo1 := e.newTemp()
	hi1 := e.newTemp()
	e.emit("  %s = extractvalue %s %s, 0\n", data1, fatType, agg1)
	e.emit("  %s = extractvalue %s %s, 1, 0\n", lo1, fatType, agg1)
	e.emit("  %s = extractvalue %s %s, 1, 1\n", hi1, fatType, agg1)

	len0 := e.newTemp()
	len1 := e.newTemp()
	e.emit("  %s = sub i64 %s, %s\n", len0, hi0, lo0)
	e.emit("  %s = sub i64 %s, %s\n", len1, hi1, lo1)
	lenEq := e.newTemp()
	e.emit("  %s = icmp eq i64 %s, %s\n", lenEq, len0, len1)

	cmpLabel := e.newLabel("streq_cmp")
	mergeLabel := e.newLabel("streq_merge")
	e.terminate("  br i1 %s, label %%%s, label %%%s\n", lenEq, cmpLabel, mergeLabel)

	e.emitLabelDef(cmpLabel)
	count := e.newTemp()
	e.emit("  %s = add i64 %s, 1\n", count, len0)
	if t.Kind == types.ArrayKind {
		bytes := e.newTemp()
		e.emit("  %s = mul i64 %s, %d\n", bytes, count, sizeOf(t.ElemType))
		count = bytes
	}
	cmp := e.newTemp()
	e.emit("  %s = call i32 @memcmp(ptr %s, ptr %s, i64 %s)\n", cmp, data0, data1, count)
	eq := e.newTemp()
	e.emit("  %s = icmp eq i32 %s, 0\n", eq, cmp)
	e.terminate("  br label %%%s\n", mergeLabel)

	e.emitLabelDef(mergeLabel)
	result := e.newTemp()
	e.emit("  %s = phi i1 [ %s, %%%s ], [ 0, %%entry ]\n", result, eq, cmpLabel)
	e.terminate("  ret i1 %s\n", result)
}

func (e *Emitter) emitArrayEquality(t *types.Type) {
	if t.Size <= 0 {
		// Unconstrained array: a fat pointer like STRING, compared the
		// same way (bounds first, then data).
		e.emitStringEquality(t)
		return
	}
	cmp := e.newTemp()
	e.emit("  %s = call i32 @memcmp(ptr %%0, ptr %%1, i64 %d)\n", cmp, t.Size)
	eq := e.newTemp()
	e.emit("  %s = icmp eq i32 %s, 0\n", eq, cmp)
	e.terminate("  ret i1 %s\n", eq)
}
