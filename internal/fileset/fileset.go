// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fileset holds the allowlist of files visible to one conversion and
// resolves logical file roles against it. Every read an extractor makes goes
// through a Set, so a file that was not supplied cannot be read even when it
// sits next to one that was.
package fileset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// HeadSize is the number of leading bytes inspected for content signatures.
const HeadSize = 64 * 1024

var (
	// ErrNotAllowed is returned when a read targets a path outside the set.
	ErrNotAllowed = errors.New("path not in file set")

	// ErrInvalidInput is returned when a supplied path is missing or is not
	// a regular file.
	ErrInvalidInput = errors.New("invalid input file")
)

// Set is an immutable, sorted, de-duplicated collection of regular files.
// It is safe for concurrent use.
type Set struct {
	paths []string
	index map[string]struct{}
}

// New builds a Set from explicit paths. Paths are cleaned and de-duplicated;
// each must name an existing regular file.
func New(paths []string) (*Set, error) {
	s := &Set{index: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		clean := filepath.Clean(p)
		if _, dup := s.index[clean]; dup {
			continue
		}
		info, err := os.Stat(clean)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s is not a regular file", ErrInvalidInput, clean)
		}
		s.index[clean] = struct{}{}
		s.paths = append(s.paths, clean)
	}
	sort.Strings(s.paths)
	return s, nil
}

// FromDirectory builds a Set from the regular files directly inside dir.
// Subdirectories are not traversed. Symlinks to regular files are included.
func FromDirectory(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.Type().IsRegular() {
			paths = append(paths, path)
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				paths = append(paths, path)
			}
		}
	}
	return New(paths)
}

// Paths returns the files in lexicographic order.
func (s *Set) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of files.
func (s *Set) Len() int {
	return len(s.paths)
}

// Contains reports whether path is in the set.
func (s *Set) Contains(path string) bool {
	_, ok := s.index[filepath.Clean(path)]
	return ok
}

// Open opens an allowlisted file for reading.
func (s *Set) Open(path string) (*os.File, error) {
	if !s.Contains(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, path)
	}
	return os.Open(filepath.Clean(path))
}

// ReadFile returns the full contents of an allowlisted file.
func (s *Set) ReadFile(path string) ([]byte, error) {
	if !s.Contains(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, path)
	}
	return os.ReadFile(filepath.Clean(path))
}

// Head returns up to HeadSize leading bytes of an allowlisted file.
func (s *Set) Head(path string) ([]byte, error) {
	f, err := s.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, HeadSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return buf[:n], nil
}

// headContains reports whether the head of path contains sig, ignoring case.
// Unreadable files never match.
func (s *Set) headContains(path, sig string) bool {
	head, err := s.Head(path)
	if err != nil {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), bytes.ToLower([]byte(sig)))
}
