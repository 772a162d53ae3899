// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fileset

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Role is a logical input slot an extractor needs filled, such as the
// primary log of a run. A file fills the role when its base name matches
// Pattern and, if Signature is set, its head contains Signature
// (case-insensitive).
type Role struct {
	Name      string
	Pattern   string
	Signature string
}

// Validate checks that the role is usable.
func (r Role) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("role has no name")
	}
	if r.Pattern == "" {
		return fmt.Errorf("role %s has no pattern", r.Name)
	}
	if !doublestar.ValidatePattern(r.Pattern) {
		return fmt.Errorf("role %s: invalid pattern %q", r.Name, r.Pattern)
	}
	return nil
}

// Matches reports whether path, which must be in s, fills the role.
func (r Role) Matches(s *Set, path string) bool {
	ok, err := doublestar.Match(r.Pattern, filepath.Base(path))
	if err != nil || !ok {
		return false
	}
	if r.Signature == "" {
		return true
	}
	return s.headContains(path, r.Signature)
}

// Candidates returns every file in s that fills the role, ordered by base
// name and then by full path. The order is independent of directory
// enumeration order, so OUTCAR always sorts ahead of OUTCAR.2.
func Candidates(s *Set, r Role) []string {
	var out []string
	for _, p := range s.paths {
		if r.Matches(s, p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := filepath.Base(out[i]), filepath.Base(out[j])
		if bi != bj {
			return bi < bj
		}
		return out[i] < out[j]
	})
	return out
}

// Resolve picks the single file that fills the role. It reports false when
// no file matches; when several match, the first candidate wins and the rest
// are ignored.
func Resolve(s *Set, r Role) (string, bool) {
	c := Candidates(s, r)
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}
