package compiler

import (
	"fmt"
	"os"
	"strings"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/codegen"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/parser"
	"github.com/AdaDoom3/Ada83-sub004/internal/sema"
)

// Options carries the Driver-supplied configuration for one CompileFile
// call: the input source path, the include paths searched for with'd
// specs (spec.md §9, default "."), and the destination for generated
// IR text.
type Options struct {
	InputPath    string
	IncludePaths []string
	Output       *os.File
}

// CompileFile runs the fixed pass sequence spec.md §2 and §9 describe —
// parse, resolve+freeze, emit — aborting between passes the moment the
// shared diag.Reporter's error count goes nonzero (spec.md §9's
// "Propagation policy": "the codegen never runs if semantic analysis
// failed"). Grounded on lang/ya/main.go's runPipeline, collapsed from
// that function's exec.Command chain into direct in-process calls.
func CompileFile(opts Options, report *diag.Reporter) error {
	src, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.InputPath, err)
	}

	a := arena.New(64 * 1024)

	p := parser.New(opts.InputPath, src, a, report)
	cu := p.ParseCompilationUnit()
	if report.ErrorCount() > 0 {
		return nil
	}

	includePaths := opts.IncludePaths
	if len(includePaths) == 0 {
		includePaths = []string{"."}
	}
	loader := newUnitLoader(includePaths, a, report, collectPins(cu))

	resolver := sema.NewResolver(a, report, loader)
	resolver.ResolveCompilationUnit(cu)
	if report.ErrorCount() > 0 {
		return nil
	}

	emitter := codegen.NewEmitter(opts.Output, resolver.Freezer(), resolver.Exceptions())
	if err := emitter.EmitCompilationUnit(cu.Unit); err != nil {
		return fmt.Errorf("emitting %s: %w", opts.InputPath, err)
	}
	return emitter.Flush()
}

// collectPins builds the folded with'd-name -> pin-text map unit.go's
// loader consults, from each with clause's ast.WithClause.Pin. The
// parser never sets Pin (the lexer discards comments, so a
// "-- pin: <module>@<semver>" comment is not seen), so the map is
// always empty.
func collectPins(cu *ast.CompilationUnit) map[string]string {
	pins := map[string]string{}
	if cu.Context == nil {
		return pins
	}
	for _, wc := range cu.Context.WithClauses {
		if wc.Pin == "" {
			continue
		}
		for _, name := range wc.Names {
			pins[strings.ToLower(name)] = wc.Pin
		}
	}
	return pins
}
