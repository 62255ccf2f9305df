package compiler

import "testing"

func TestSplitIncludePath(t *testing.T) {
	dir, version := splitIncludePath("vendor/text_io@v1.2.0")
	if dir != "vendor/text_io" || version != "v1.2.0" {
		t.Fatalf("got (%q, %q)", dir, version)
	}

	dir, version = splitIncludePath("vendor/text_io")
	if dir != "vendor/text_io" || version != "" {
		t.Fatalf("unversioned path got (%q, %q)", dir, version)
	}

	// An "@" that isn't followed by a valid semver (e.g. a literal email-
	// style path) must not be mistaken for a version suffix.
	dir, version = splitIncludePath("vendor/not-a-version@latest")
	if dir != "vendor/not-a-version@latest" || version != "" {
		t.Fatalf("non-semver suffix got (%q, %q)", dir, version)
	}
}

func TestResolvePinsPrefersHigherVersionSatisfyingPin(t *testing.T) {
	paths := []string{"a@v1.0.0", "b@v2.0.0", "c"}
	got := resolvePins(paths, "text_io@v1.5.0")
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestResolvePinsWithNoPinKeepsUnversionedOrderAfterVersioned(t *testing.T) {
	paths := []string{"first", "second@v1.0.0", "third"}
	got := resolvePins(paths, "")
	want := []string{"second", "first", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
