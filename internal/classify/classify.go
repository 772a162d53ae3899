// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides which simulation code produced a file set.
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/pkg/types"
)

var (
	// ErrUnrecognizedFormat means no family's markers are present.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrAmbiguousFormat means markers of more than one family are present.
	ErrAmbiguousFormat = errors.New("ambiguous format")
)

// Marker is a role whose presence identifies a code family.
type Marker struct {
	Family types.CodeFamily
	Role   fileset.Role
}

// Classify returns the single family whose markers match a file in s.
// It reads at most the head of each file and never writes.
func Classify(s *fileset.Set, markers []Marker) (types.CodeFamily, error) {
	found := make(map[types.CodeFamily]bool)
	for _, m := range markers {
		if found[m.Family] {
			continue
		}
		if _, ok := fileset.Resolve(s, m.Role); ok {
			found[m.Family] = true
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no known markers among %d file(s)", ErrUnrecognizedFormat, s.Len())
	case 1:
		for f := range found {
			return f, nil
		}
	}

	names := make([]string, 0, len(found))
	for f := range found {
		names = append(names, f.String())
	}
	sort.Strings(names)
	return "", fmt.Errorf("%w: markers for %s", ErrAmbiguousFormat, strings.Join(names, ", "))
}
