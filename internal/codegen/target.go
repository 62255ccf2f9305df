package codegen

// Target facts for the module's target datalayout/triple line. Grounded
// on the small target-table idiom in golang.org/x/arch's instruction
// tables (cmd_local/go.mod in the retrieval pack uses x/arch for the Go
// assembler's per-architecture constant tables); this compiler never
// emits machine code itself (that is LLVM's job downstream), so rather
// than import the full x/arch instruction-decoder package for a single
// constant string, the one datalayout/triple pair this core needs is
// hand-written here and the dependency is declined in DESIGN.md.
const (
	DataLayout = "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128"
	Triple     = "x86_64-unknown-linux-gnu"
)
