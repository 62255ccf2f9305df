package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
)

func compileToString(t *testing.T, path, src string, includePaths []string) (string, *diag.Reporter) {
	t.Helper()
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	outFile, err := os.CreateTemp(t.TempDir(), "out-*.ll")
	if err != nil {
		t.Fatalf("creating temp output: %v", err)
	}
	defer outFile.Close()

	rep := diag.NewReporter(os.Stderr)
	if err := CompileFile(Options{InputPath: path, IncludePaths: includePaths, Output: outFile}, rep); err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	data, err := os.ReadFile(outFile.Name())
	if err != nil {
		t.Fatalf("reading generated IR: %v", err)
	}
	return string(data), rep
}

func TestCompileFileEmitsModuleForSimpleProcedure(t *testing.T) {
	dir := t.TempDir()
	src := `
procedure P is
   X : INTEGER := 1;
begin
   X := X + 1;
end P;
`
	ir, rep := compileToString(t, filepath.Join(dir, "p.adb"), src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	if !strings.Contains(ir, "target triple") {
		t.Errorf("missing target triple line:\n%s", ir)
	}
	if !strings.Contains(ir, "define") {
		t.Errorf("missing a defined function:\n%s", ir)
	}
}

func TestCompileFileAbortsBeforeEmitOnParseError(t *testing.T) {
	dir := t.TempDir()
	src := `procedure P is begin X := ; end P;`
	ir, rep := compileToString(t, filepath.Join(dir, "bad.adb"), src, nil)
	if !rep.HasErrors() {
		t.Fatalf("expected parse errors for malformed source")
	}
	if ir != "" {
		t.Errorf("codegen ran despite parse errors, got IR:\n%s", ir)
	}
}

func TestCompileFileResolvesWithClauseAcrossIncludePath(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "greeter.ads")
	if err := os.WriteFile(specPath, []byte(`
package GREETER is
   procedure HELLO;
end GREETER;
`), 0o644); err != nil {
		t.Fatalf("writing spec: %v", err)
	}

	src := `
with GREETER;
procedure P is
begin
   GREETER.HELLO;
end P;
`
	_, rep := compileToString(t, filepath.Join(dir, "p.adb"), src, []string{dir})
	if rep.HasErrors() {
		t.Fatalf("unexpected errors resolving with-clause: %v", rep.Diagnostics())
	}
}

func TestCompileFileReportsUnresolvableWithClause(t *testing.T) {
	dir := t.TempDir()
	src := `
with NO_SUCH_PACKAGE;
procedure P is
begin
   null;
end P;
`
	_, rep := compileToString(t, filepath.Join(dir, "p.adb"), src, []string{dir})
	if !rep.HasErrors() {
		t.Fatalf("expected an error for an unresolvable with-clause")
	}
}
