// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// dosTolerance is the density of states below which an energy level is
// treated as empty.
const dosTolerance = 1e-4

// doscarHeaderLines precede the total density of states.
const doscarHeaderLines = 6

// vaspBandGap reads the total density of states from a DOSCAR and measures
// the gap between the highest occupied and lowest unoccupied levels around
// the Fermi energy. Spin-polarized files have their channels summed.
func vaspBandGap(in Inputs) (*Partial, error) {
	lines, err := in.Lines(DoscarRole.Name)
	if err != nil {
		return nil, err
	}
	if len(lines) < doscarHeaderLines {
		return nil, fmt.Errorf("DOSCAR has %d lines, want at least %d", len(lines), doscarHeaderLines)
	}

	header := strings.Fields(lines[doscarHeaderLines-1])
	if len(header) < 4 {
		return nil, fmt.Errorf("malformed DOSCAR header %q", lines[doscarHeaderLines-1])
	}
	nedos, err := strconv.Atoi(header[2])
	if err != nil {
		return nil, fmt.Errorf("parsing NEDOS %q: %w", header[2], err)
	}
	efermi, err := parseFloat(header[3])
	if err != nil {
		return nil, err
	}
	body := lines[doscarHeaderLines:]
	if len(body) < nedos {
		return nil, fmt.Errorf("DOSCAR holds %d of %d energy points", len(body), nedos)
	}

	energies := make([]float64, nedos)
	dos := make([]float64, nedos)
	for i, line := range body[:nedos] {
		f, err := parseFloats(strings.Fields(line))
		if err != nil {
			return nil, err
		}
		switch len(f) {
		case 3:
			dos[i] = f[1]
		case 5:
			dos[i] = f[1] + f[2]
		default:
			return nil, fmt.Errorf("DOSCAR point %d has %d columns", i+1, len(f))
		}
		energies[i] = f[0]
	}

	gap, ok := bandGap(energies, dos, efermi)
	if !ok {
		return nil, nil
	}
	return Value(gap, "eV"), nil
}

// bandGap locates the band edges bracketing efermi. Edges on adjacent grid
// points mean no gap. It reports false when either edge is missing.
func bandGap(energies, dos []float64, efermi float64) (float64, bool) {
	vbm, cbm := -1, -1
	for i, e := range energies {
		if dos[i] <= dosTolerance {
			continue
		}
		if e <= efermi {
			vbm = i
		} else if cbm < 0 {
			cbm = i
		}
	}
	if vbm < 0 || cbm < 0 {
		return 0, false
	}
	if cbm-vbm <= 1 {
		return 0, true
	}
	return energies[cbm] - energies[vbm], true
}
