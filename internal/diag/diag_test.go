package diag

import (
	"os"
	"strings"
	"testing"
)

func newTestReporter(t *testing.T) (*Reporter, *os.File, func() string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	rep := NewReporter(w)
	return rep, w, func() string {
		w.Close()
		var sb strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}
		return sb.String()
	}
}

func TestReportFormatsExactly(t *testing.T) {
	rep, _, read := newTestReporter(t)
	rep.Report(Location{File: "a.ads", Line: 3, Column: 7}, "unexpected %s", "token")
	got := read()
	want := "a.ads:3:7: error: unexpected token\n"
	if got != want {
		t.Fatalf("Report output = %q, want %q", got, want)
	}
}

func TestErrorCountIgnoresWarnings(t *testing.T) {
	rep, _, read := newTestReporter(t)
	rep.Warn(Location{File: "a.ads", Line: 1, Column: 1}, "unused variable")
	rep.Report(Location{File: "a.ads", Line: 2, Column: 1}, "undeclared identifier")
	_ = read()
	if rep.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1", rep.ErrorCount())
	}
	if !rep.HasErrors() {
		t.Fatalf("HasErrors() = false, want true")
	}
}

func TestDiagnosticsAccumulateInOrder(t *testing.T) {
	rep, _, read := newTestReporter(t)
	rep.Report(Location{File: "f", Line: 1, Column: 1}, "first")
	rep.Report(Location{File: "f", Line: 2, Column: 1}, "second")
	_ = read()
	ds := rep.Diagnostics()
	if len(ds) != 2 || ds[0].Message != "first" || ds[1].Message != "second" {
		t.Fatalf("Diagnostics() = %+v", ds)
	}
}
