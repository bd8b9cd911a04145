package domain

import (
	"sort"
	"strconv"
)

// Well-known paths in a generated application.
const (
	EntryPageFile  = "index.html"
	ScriptFile     = "script.js"
	StylesheetFile = "style.css"
	ReadmeFile     = "README.md"
	LicenseFile    = "LICENSE"
)

// RoundKey is the reserved pseudo-key that carries the round number
// through a FileSet for commit messaging. It must be excluded from the
// committed tree.
const RoundKey = "round"

// FileSet maps relative repository paths to full text content. After
// post-processing it always contains at least an entry page, a readme
// and a license file.
type FileSet map[string]string

// SetRound records the round number under the reserved pseudo-key.
func (fs FileSet) SetRound(round int) {
	fs[RoundKey] = strconv.Itoa(round)
}

// Round returns the recorded round number, defaulting to 1 when the
// pseudo-key is absent or malformed.
func (fs FileSet) Round() int {
	if v, ok := fs[RoundKey]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	return 1
}

// Paths returns the file paths in the set in sorted order, excluding
// the reserved round pseudo-key.
func (fs FileSet) Paths() []string {
	paths := make([]string, 0, len(fs))
	for path := range fs {
		if path == RoundKey {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a copy of the set sharing no structure with the
// original.
func (fs FileSet) Clone() FileSet {
	out := make(FileSet, len(fs))
	for path, content := range fs {
		out[path] = content
	}
	return out
}
