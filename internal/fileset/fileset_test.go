// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fileset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "b.txt", "b")
	b := writeFile(t, dir, "a.txt", "a")

	t.Run("sorts and de-duplicates", func(t *testing.T) {
		s, err := New([]string{a, b, a, filepath.Join(dir, ".", "b.txt")})
		require.NoError(t, err)
		assert.Equal(t, []string{b, a}, s.Paths())
		assert.Equal(t, 2, s.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New([]string{filepath.Join(dir, "nope")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("directory rejected", func(t *testing.T) {
		_, err := New([]string{dir})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "not a regular file")
	})

	t.Run("empty", func(t *testing.T) {
		s, err := New(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})
}

func TestFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "OUTCAR", "x")
	writeFile(t, dir, "DOSCAR", "y")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "OUTCAR", "z")

	s, err := FromDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "DOSCAR"), filepath.Join(dir, "OUTCAR")}, s.Paths())
	assert.False(t, s.Contains(filepath.Join(sub, "OUTCAR")))

	_, err = FromDirectory(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFromDirectory_Symlinks(t *testing.T) {
	target := t.TempDir()
	outcar := writeFile(t, target, "OUTCAR", "x")

	dir := t.TempDir()
	writeFile(t, dir, "DOSCAR", "y")
	if err := os.Symlink(outcar, filepath.Join(dir, "OUTCAR")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "linked-dir")))
	require.NoError(t, os.Symlink(filepath.Join(target, "gone"), filepath.Join(dir, "dangling")))

	s, err := FromDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "DOSCAR"), filepath.Join(dir, "OUTCAR")}, s.Paths())

	data, err := s.ReadFile(filepath.Join(dir, "OUTCAR"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestAllowlist(t *testing.T) {
	dir := t.TempDir()
	outcar := writeFile(t, dir, "OUTCAR", "allowed")
	doscar := writeFile(t, dir, "DOSCAR", "hidden")

	s, err := New([]string{outcar})
	require.NoError(t, err)

	data, err := s.ReadFile(outcar)
	require.NoError(t, err)
	assert.Equal(t, "allowed", string(data))

	_, err = s.ReadFile(doscar)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = s.Open(doscar)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = s.Head(doscar)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestHead(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "big", strings.Repeat("a", HeadSize+100))
	small := writeFile(t, dir, "small", "abc")
	s, err := New([]string{big, small})
	require.NoError(t, err)

	h, err := s.Head(big)
	require.NoError(t, err)
	assert.Len(t, h, HeadSize)

	h, err = s.Head(small)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(h))
}

func TestResolve(t *testing.T) {
	outcarRole := Role{Name: "outcar", Pattern: "OUTCAR*"}

	t.Run("no match", func(t *testing.T) {
		dir := t.TempDir()
		s, err := New([]string{writeFile(t, dir, "INCAR", "")})
		require.NoError(t, err)
		_, ok := Resolve(s, outcarRole)
		assert.False(t, ok)
	})

	t.Run("single match", func(t *testing.T) {
		dir := t.TempDir()
		p := writeFile(t, dir, "OUTCAR", "")
		s, err := New([]string{p, writeFile(t, dir, "INCAR", "")})
		require.NoError(t, err)
		got, ok := Resolve(s, outcarRole)
		require.True(t, ok)
		assert.Equal(t, p, got)
	})

	t.Run("duplicates pick the first base name", func(t *testing.T) {
		dir := t.TempDir()
		dup := writeFile(t, dir, "OUTCAR.2", "same")
		orig := writeFile(t, dir, "OUTCAR", "same")
		s, err := New([]string{dup, orig})
		require.NoError(t, err)

		got, ok := Resolve(s, outcarRole)
		require.True(t, ok)
		assert.Equal(t, orig, got)
		assert.Equal(t, []string{orig, dup}, Candidates(s, outcarRole))
	})

	t.Run("base name outranks directory order", func(t *testing.T) {
		root := t.TempDir()
		first := filepath.Join(root, "a")
		second := filepath.Join(root, "b")
		require.NoError(t, os.Mkdir(first, 0o755))
		require.NoError(t, os.Mkdir(second, 0o755))
		copyLog := writeFile(t, first, "OUTCAR.bak", "")
		mainLog := writeFile(t, second, "OUTCAR", "")

		s, err := New([]string{copyLog, mainLog})
		require.NoError(t, err)
		got, ok := Resolve(s, outcarRole)
		require.True(t, ok)
		assert.Equal(t, mainLog, got)
	})

	t.Run("signature filters by content", func(t *testing.T) {
		dir := t.TempDir()
		in := writeFile(t, dir, "si.in", " &CONTROL\n calculation='scf'\n/\n")
		out := writeFile(t, dir, "si.out", "     Program PWSCF v.6.1 starts on\n")
		s, err := New([]string{in, out})
		require.NoError(t, err)

		got, ok := Resolve(s, Role{Name: "pw-output", Pattern: "*", Signature: "program pwscf"})
		require.True(t, ok)
		assert.Equal(t, out, got)

		got, ok = Resolve(s, Role{Name: "pw-input", Pattern: "*", Signature: "&control"})
		require.True(t, ok)
		assert.Equal(t, in, got)
	})
}

func TestRoleValidate(t *testing.T) {
	assert.NoError(t, Role{Name: "outcar", Pattern: "OUTCAR*"}.Validate())
	assert.Error(t, Role{Pattern: "OUTCAR*"}.Validate())
	assert.Error(t, Role{Name: "x"}.Validate())
	assert.Error(t, Role{Name: "x", Pattern: "[abc"}.Validate())
}
