// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WardLT/pif-dft/internal/fileset"
)

func TestPWSCF_RolesByContent(t *testing.T) {
	set := dirSet(t, pwscfDir)

	out, ok := fileset.Resolve(set, PWOutputRole)
	require.True(t, ok)
	assert.Equal(t, "espresso.out", filepath.Base(out))

	in, ok := fileset.Resolve(set, PWInputRole)
	require.True(t, ok)
	assert.Equal(t, "pw.in", filepath.Base(in))
}

func TestPWSCF_OutputValues(t *testing.T) {
	set := dirSet(t, pwscfDir)
	table := pwscfTable()
	const role = "pw-output"

	assert.Equal(t, "Si2", run(t, set, descriptor(t, table, "Chemical Formula", role)).TextValue())
	assert.Equal(t, "6.1", run(t, set, descriptor(t, table, "Software Version", role)).TextValue())
	assert.True(t, boolean(t, run(t, set, descriptor(t, table, "Converged", role))))

	p := run(t, set, descriptor(t, table, "Total Energy", role))
	assert.InDelta(t, -15.79441128, float(t, p), 1e-9)
	assert.Equal(t, "Ry", p.Units)

	p = run(t, set, descriptor(t, table, "Final Volume", role))
	assert.InDelta(t, 265.3020, float(t, p), 1e-9)
	assert.Equal(t, "Bohr^3", p.Units)

	p = run(t, set, descriptor(t, table, "Pressure", role))
	assert.InDelta(t, -12.50, float(t, p), 1e-9)

	p = run(t, set, descriptor(t, table, "Band Gap Energy", role))
	assert.InDelta(t, 0.628, float(t, p), 1e-9)
	assert.Equal(t, "eV", p.Units)

	p = run(t, set, descriptor(t, table, "Maximum Force", role))
	assert.InDelta(t, 0.003, float(t, p), 1e-9)
	assert.Equal(t, "Ry/Bohr", p.Units)

	assert.InDelta(t, 2, float(t, run(t, set, descriptor(t, table, "Number of Atoms", role))), 0)
}

func TestPWSCF_Settings(t *testing.T) {
	set := dirSet(t, pwscfDir)
	table := pwscfTable()

	assert.Equal(t, "LDA", run(t, set, descriptor(t, table, "XC Functional", "pw-output")).TextValue())

	p := run(t, set, descriptor(t, table, "Cutoff Energy", "pw-output"))
	assert.InDelta(t, 30.0, float(t, p), 1e-9)
	assert.Equal(t, "Ry", p.Units)

	p = run(t, set, descriptor(t, table, "Cutoff Energy", "pw-input"))
	assert.InDelta(t, 30.0, float(t, p), 1e-9)

	assert.False(t, boolean(t, run(t, set, descriptor(t, table, "Relaxed", "pw-input"))))
	assert.False(t, boolean(t, run(t, set, descriptor(t, table, "Spin-Orbit Coupling", "pw-output"))))
	assert.InDelta(t, 2, float(t, run(t, set, descriptor(t, table, "Number of k-Points", "pw-output"))), 0)

	p = run(t, set, descriptor(t, table, "Pseudopotentials", "pw-input"))
	require.Len(t, p.Scalars, 1)
	assert.Equal(t, "Si.pz-vbc.UPF", p.Scalars[0].Value)
}

func TestPWSCF_XCFunctional(t *testing.T) {
	d := descriptor(t, pwscfTable(), "XC Functional", "pw-output")
	tests := map[string]string{
		"SLA PW PBX PBC ( 1  4  3  4 0 0)": "PBE",
		"SLA PW PSX PSC ( 1  4 10  8 0 0)": "PBEsol",
		"SLA PW NOGX NOGC ( 1  4  0  0)":   "LDA",
		"PBE":                              "PBE",
		"hse":                              "HSE",
		"SLA LYP XYZ":                      "SLA LYP XYZ",
	}
	for xc, want := range tests {
		t.Run(xc, func(t *testing.T) {
			set := writeSet(t, map[string]string{"out": "Program PWSCF v.7.2\n     Exchange-correlation= " + xc + "\n"})
			assert.Equal(t, want, run(t, set, d).TextValue())
		})
	}
}

func TestPWSCF_Relaxed(t *testing.T) {
	d := descriptor(t, pwscfTable(), "Relaxed", "pw-input")
	for calc, want := range map[string]bool{"relax": true, "VC-RELAX": true, "nscf": false, "bands": false} {
		set := writeSet(t, map[string]string{"in": "&CONTROL\n  calculation = \"" + calc + "\"\n/\n"})
		assert.Equal(t, want, boolean(t, run(t, set, d)), calc)
	}
	bare := writeSet(t, map[string]string{"in": "&control\n/\n"})
	assert.False(t, boolean(t, run(t, bare, d)))
}

func TestPWSCF_NotConverged(t *testing.T) {
	set := writeSet(t, map[string]string{"out": "Program PWSCF v.6.1\n     convergence has been achieved in 5 iterations\n     convergence NOT achieved after 100 iterations: stopping\n"})
	d := descriptor(t, pwscfTable(), "Converged", "pw-output")
	assert.False(t, boolean(t, run(t, set, d)))

	none := writeSet(t, map[string]string{"out": "Program PWSCF v.6.1\n"})
	assert.True(t, run(t, none, d).Empty())
}

func TestPWSCF_MetalHasNoGap(t *testing.T) {
	set := writeSet(t, map[string]string{"out": "Program PWSCF v.6.1\n     the Fermi energy is     7.1234 ev\n"})
	assert.True(t, run(t, set, descriptor(t, pwscfTable(), "Band Gap Energy", "pw-output")).Empty())
}

func TestPWSCF_SpinOrbit(t *testing.T) {
	set := writeSet(t, map[string]string{"out": "Program PWSCF v.6.1\n     Noncollinear calculation with spin-orbit\n"})
	assert.True(t, boolean(t, run(t, set, descriptor(t, pwscfTable(), "Spin-Orbit Coupling", "pw-output"))))
}

func TestPWSCF_MalformedSpeciesCard(t *testing.T) {
	set := writeSet(t, map[string]string{"in": "&control\n/\nATOMIC_SPECIES\n Si 28.086\n"})
	d := descriptor(t, pwscfTable(), "Pseudopotentials", "pw-input")
	_, err := d.Extract(NewInputs(set, map[string]string{"pw-input": set.Paths()[0]}))
	assert.Error(t, err)
}
