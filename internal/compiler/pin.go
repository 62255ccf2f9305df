package compiler

import (
	"strings"

	"golang.org/x/mod/semver"
)

// An include path may carry an explicit version as "<dir>@<semver>"
// (e.g. "-I vendor/text_io@v1.2.0"); a bare directory is unversioned.
// splitIncludePath separates the two.
func splitIncludePath(entry string) (dir, version string) {
	if i := strings.LastIndex(entry, "@"); i >= 0 && semver.IsValid(entry[i+1:]) {
		return entry[:i], entry[i+1:]
	}
	return entry, ""
}

// resolvePins orders includePaths for one with'd package lookup. pin
// is the optional "module@semver" text carried on the with clause's
// "-- pin: ..." comment (ast.WithClause.Pin); only the version half is
// used here, matching spec.md 9's open-ended include-path pinning
// extension. Versioned entries that satisfy pin (version >= pin,
// compared with semver.Compare) sort before versioned entries that
// don't, highest version first; unversioned entries keep their
// original relative order and sort after every versioned entry,
// preserving spec.md 9's unpinned "first include path wins" rule as
// the fallback when no entry is pinned at all.
func resolvePins(includePaths []string, pin string) []string {
	wantVersion := ""
	if i := strings.LastIndex(pin, "@"); i >= 0 {
		wantVersion = pin[i+1:]
	}

	type entry struct {
		dir       string
		version   string
		origIndex int
	}
	entries := make([]entry, len(includePaths))
	for i, p := range includePaths {
		dir, ver := splitIncludePath(p)
		entries[i] = entry{dir: dir, version: ver, origIndex: i}
	}

	versioned := make([]entry, 0, len(entries))
	unversioned := make([]entry, 0, len(entries))
	for _, e := range entries {
		if e.version != "" {
			versioned = append(versioned, e)
		} else {
			unversioned = append(unversioned, e)
		}
	}

	less := func(a, b entry) bool {
		if wantVersion != "" && semver.IsValid(wantVersion) {
			aSatisfies := semver.Compare(a.version, wantVersion) >= 0
			bSatisfies := semver.Compare(b.version, wantVersion) >= 0
			if aSatisfies != bSatisfies {
				return aSatisfies
			}
		}
		if cmp := semver.Compare(a.version, b.version); cmp != 0 {
			return cmp > 0
		}
		return a.origIndex < b.origIndex
	}
	for i := 1; i < len(versioned); i++ {
		for j := i; j > 0 && less(versioned[j], versioned[j-1]); j-- {
			versioned[j], versioned[j-1] = versioned[j-1], versioned[j]
		}
	}

	out := make([]string, 0, len(entries))
	for _, e := range versioned {
		out = append(out, e.dir)
	}
	for _, e := range unversioned {
		out = append(out, e.dir)
	}
	return out
}
