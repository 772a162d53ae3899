// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/pkg/types"
)

var testMarkers = []Marker{
	{Family: types.FamilyVASP, Role: fileset.Role{Name: "outcar", Pattern: "OUTCAR*"}},
	{Family: types.FamilyPWSCF, Role: fileset.Role{Name: "pw-output", Pattern: "*", Signature: "Program PWSCF"}},
}

func setOf(t *testing.T, files map[string]string) *fileset.Set {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	s, err := fileset.New(paths)
	require.NoError(t, err)
	return s
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    types.CodeFamily
		wantErr error
	}{
		{
			name:  "vasp by file name",
			files: map[string]string{"OUTCAR": " vasp.5.4.4\n", "INCAR": "ENCUT = 400\n"},
			want:  types.FamilyVASP,
		},
		{
			name:  "vasp duplicate log",
			files: map[string]string{"OUTCAR": "", "OUTCAR.2": ""},
			want:  types.FamilyVASP,
		},
		{
			name:  "pwscf by signature",
			files: map[string]string{"si.out": "     Program PWSCF v.6.1 starts\n", "si.in": "&control\n/\n"},
			want:  types.FamilyPWSCF,
		},
		{
			name:    "nothing recognizable",
			files:   map[string]string{"notes.txt": "hello", "run.sh": "#!/bin/sh\n"},
			wantErr: ErrUnrecognizedFormat,
		},
		{
			name:    "empty set",
			files:   map[string]string{},
			wantErr: ErrUnrecognizedFormat,
		},
		{
			name:    "markers from two families",
			files:   map[string]string{"OUTCAR": "", "pw.out": "Program PWSCF v.6.1"},
			wantErr: ErrAmbiguousFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(setOf(t, tt.files), testMarkers)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_AmbiguousNamesFamilies(t *testing.T) {
	_, err := Classify(setOf(t, map[string]string{"OUTCAR": "", "pw.out": "Program PWSCF"}), testMarkers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pwscf, vasp")
}
