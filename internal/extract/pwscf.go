// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/pkg/types"
)

// PWSCF file roles. File names are free-form, so both roles accept any
// name and are told apart by their content.
var (
	PWOutputRole = fileset.Role{Name: "pw-output", Pattern: "*", Signature: "Program PWSCF"}
	PWInputRole  = fileset.Role{Name: "pw-input", Pattern: "*", Signature: "&control"}
)

// Output log patterns.
var (
	pwVersionRe   = regexp.MustCompile(`Program PWSCF\s+v\.?\s*(\S+)`)
	pwEnergyRe    = regexp.MustCompile(`^!\s*total energy\s*=\s*(\S+)\s*Ry`)
	pwVolumeRe    = regexp.MustCompile(`unit-cell volume\s*=\s*(\S+)`)
	pwPressureRe  = regexp.MustCompile(`P=\s*(\S+)`)
	pwGapRe       = regexp.MustCompile(`highest occupied, lowest unoccupied level \(ev\):\s*(\S+)\s+(\S+)`)
	pwNatRe       = regexp.MustCompile(`number of atoms/cell\s*=\s*(\d+)`)
	pwKPointsRe   = regexp.MustCompile(`number of k points\s*=\s*(\d+)`)
	pwCutoffRe    = regexp.MustCompile(`kinetic-energy cutoff\s*=\s*(\S+)\s*Ry`)
	pwXCRe        = regexp.MustCompile(`Exchange-correlation\s*=\s*([^(]*)`)
	pwSiteRowRe   = regexp.MustCompile(`^\s*\d+\s+(\S+)\s+tau\(`)
	pwForceRowRe  = regexp.MustCompile(`atom\s+\d+\s+type\s+\d+\s+force\s*=\s*(\S+)\s+(\S+)\s+(\S+)`)
	pwCalcRe      = regexp.MustCompile(`(?i)^\s*calculation\s*=\s*['"]?([\w-]+)`)
	pwEcutwfcRe   = regexp.MustCompile(`(?i)^\s*ecutwfc\s*=\s*([\w.+-]+)`)
	pwSpeciesRe   = regexp.MustCompile(`(?i)^\s*ATOMIC_SPECIES`)
	pwCardRe      = regexp.MustCompile(`^\s*[A-Z_]{4,}\b`)
	pwConvergedRe = regexp.MustCompile(`convergence (has been achieved|NOT achieved)`)
)

const (
	pwSiteHeader  = "site n."
	pwForceHeader = "Forces acting on atoms"
	pwSpinOrbit   = "with spin-orbit"
)

// Short names in the exchange-correlation summary. Gradient corrections
// name the functional; a local correlation alone means LDA.
var (
	pwGradientFunctionals = map[string]string{
		"PBX": "PBE",
		"PSX": "PBEsol",
		"B88": "BLYP",
		"RPB": "RPBE",
	}
	pwLocalFunctionals = map[string]string{
		"PZ": "LDA",
		"PW": "LDA",
	}
)

func pwscfTable() Table {
	output := []fileset.Role{PWOutputRole}
	input := []fileset.Role{PWInputRole}
	return Table{
		Family:  types.FamilyPWSCF,
		Markers: output,
		Extractors: []Descriptor{
			{Name: "Chemical Formula", Kind: KindFormula, Roles: output, Extract: pwFormula},
			{Name: "Software Version", Kind: KindVersion, Roles: output, Extract: pwVersion},

			{Name: "XC Functional", Kind: KindCondition, Roles: output, Extract: pwXCFunctional},
			{Name: "Cutoff Energy", Kind: KindCondition, Roles: output, Extract: pwOutputCutoff},
			{Name: "Cutoff Energy", Kind: KindCondition, Roles: input, Extract: pwInputCutoff},
			{Name: "Relaxed", Kind: KindCondition, Roles: input, Extract: pwRelaxed},
			{Name: "Spin-Orbit Coupling", Kind: KindCondition, Roles: output, Extract: pwSpinOrbitCoupling},
			{Name: "Pseudopotentials", Kind: KindCondition, Roles: input, Extract: pwPseudopotentials},
			{Name: "Number of k-Points", Kind: KindCondition, Roles: output, Extract: pwKPoints},

			{Name: "Converged", Kind: KindProperty, Roles: output, Extract: pwConverged},
			{Name: "Total Energy", Kind: KindProperty, Roles: output, Extract: pwTotalEnergy},
			{Name: "Band Gap Energy", Kind: KindProperty, Roles: output, Extract: pwBandGap},
			{Name: "Pressure", Kind: KindProperty, Roles: output, Extract: pwPressure},
			{Name: "Final Volume", Kind: KindProperty, Roles: output, Extract: pwFinalVolume},
			{Name: "Maximum Force", Kind: KindProperty, Roles: output, Extract: pwMaxForce},
			{Name: "Number of Atoms", Kind: KindProperty, Roles: output, Extract: pwNumAtoms},
		},
	}
}

// pwFormula reads the species of the first atomic positions table.
func pwFormula(in Inputs) (*Partial, error) {
	const (
		before = iota
		inTable
		after
	)
	var (
		state    = before
		comp     = newComposition()
		parseErr error
	)
	err := eachLine(in, PWOutputRole.Name, func(line string) {
		switch state {
		case before:
			if strings.Contains(line, pwSiteHeader) {
				state = inTable
			}
		case inTable:
			m := pwSiteRowRe.FindStringSubmatch(line)
			if m == nil {
				state = after
				return
			}
			el, err := elementSymbol(m[1])
			if err != nil {
				parseErr, state = err, after
				return
			}
			comp.add(el, 1)
		}
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if len(comp.order) == 0 {
		return nil, nil
	}
	return Text(comp.formula()), nil
}

func pwVersion(in Inputs) (*Partial, error) {
	v, ok, err := firstSubmatch(in, PWOutputRole.Name, pwVersionRe)
	if err != nil || !ok {
		return nil, err
	}
	return Text(v), nil
}

// pwXCFunctional names the functional from the exchange-correlation
// summary, which is either a name ("PBE") or a list of component
// shortnames ("SLA PW PBX PBC").
func pwXCFunctional(in Inputs) (*Partial, error) {
	s, ok, err := firstSubmatch(in, PWOutputRole.Name, pwXCRe)
	if err != nil || !ok {
		return nil, err
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return nil, nil
	case 1:
		return Value(strings.ToUpper(fields[0]), ""), nil
	}
	for _, table := range []map[string]string{pwGradientFunctionals, pwLocalFunctionals} {
		for _, f := range fields {
			if name, ok := table[strings.ToUpper(f)]; ok {
				return Value(name, ""), nil
			}
		}
	}
	return Value(strings.Join(fields, " "), ""), nil
}

func pwOutputCutoff(in Inputs) (*Partial, error) {
	return lastFloat(in, PWOutputRole.Name, pwCutoffRe, "Ry")
}

func pwInputCutoff(in Inputs) (*Partial, error) {
	return lastFloat(in, PWInputRole.Name, pwEcutwfcRe, "Ry")
}

// pwRelaxed reports whether the input asked for an ionic relaxation. The
// calculation defaults to a self-consistent field run.
func pwRelaxed(in Inputs) (*Partial, error) {
	calc, ok, err := firstSubmatch(in, PWInputRole.Name, pwCalcRe)
	if err != nil {
		return nil, err
	}
	if !ok {
		calc = "scf"
	}
	switch strings.ToLower(calc) {
	case "relax", "vc-relax":
		return Value(true, ""), nil
	}
	return Value(false, ""), nil
}

func pwSpinOrbitCoupling(in Inputs) (*Partial, error) {
	var found bool
	err := eachLine(in, PWOutputRole.Name, func(line string) {
		if !found && strings.Contains(line, pwSpinOrbit) {
			found = true
		}
	})
	if err != nil {
		return nil, err
	}
	return Value(found, ""), nil
}

// pwPseudopotentials lists the pseudopotential files of the ATOMIC_SPECIES
// card.
func pwPseudopotentials(in Inputs) (*Partial, error) {
	lines, err := in.Lines(PWInputRole.Name)
	if err != nil {
		return nil, err
	}
	var (
		files  []any
		inCard bool
	)
	for _, line := range lines {
		if pwSpeciesRe.MatchString(line) {
			inCard = true
			continue
		}
		if !inCard {
			continue
		}
		if strings.TrimSpace(line) == "" || pwCardRe.MatchString(line) {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed ATOMIC_SPECIES entry %q", strings.TrimSpace(line))
		}
		files = append(files, fields[2])
	}
	if len(files) == 0 {
		return nil, nil
	}
	return Values("", files...), nil
}

func pwKPoints(in Inputs) (*Partial, error) {
	return firstInt(in, PWOutputRole.Name, pwKPointsRe)
}

// pwConverged reports the last self-consistency verdict of the run.
func pwConverged(in Inputs) (*Partial, error) {
	s, ok, err := lastSubmatch(in, PWOutputRole.Name, pwConvergedRe)
	if err != nil || !ok {
		return nil, err
	}
	return Value(s == "has been achieved", ""), nil
}

func pwTotalEnergy(in Inputs) (*Partial, error) {
	return lastFloat(in, PWOutputRole.Name, pwEnergyRe, "Ry")
}

func pwFinalVolume(in Inputs) (*Partial, error) {
	return lastFloat(in, PWOutputRole.Name, pwVolumeRe, "Bohr^3")
}

func pwPressure(in Inputs) (*Partial, error) {
	return lastFloat(in, PWOutputRole.Name, pwPressureRe, "kbar")
}

func pwNumAtoms(in Inputs) (*Partial, error) {
	return firstInt(in, PWOutputRole.Name, pwNatRe)
}

// pwBandGap takes the last reported HOMO/LUMO pair. Metallic runs report a
// Fermi energy instead and yield no value.
func pwBandGap(in Inputs) (*Partial, error) {
	var (
		homo, lumo string
		found      bool
	)
	err := eachLine(in, PWOutputRole.Name, func(line string) {
		if m := pwGapRe.FindStringSubmatch(line); m != nil {
			homo, lumo, found = m[1], m[2], true
		}
	})
	if err != nil || !found {
		return nil, err
	}
	h, err := parseFloat(homo)
	if err != nil {
		return nil, err
	}
	l, err := parseFloat(lumo)
	if err != nil {
		return nil, err
	}
	return Value(l-h, "eV"), nil
}

// pwMaxForce returns the largest force on any atom in the last force
// table.
func pwMaxForce(in Inputs) (*Partial, error) {
	var (
		inBlock  bool
		rows     int
		current  float64
		last     float64
		found    bool
		parseErr error
	)
	err := eachLine(in, PWOutputRole.Name, func(line string) {
		if parseErr != nil {
			return
		}
		if strings.Contains(line, pwForceHeader) {
			inBlock, rows, current = true, 0, 0
			return
		}
		if !inBlock {
			return
		}
		m := pwForceRowRe.FindStringSubmatch(line)
		if m == nil {
			if rows > 0 {
				inBlock, last, found = false, current, true
			}
			return
		}
		f, err := parseFloats(m[1:])
		if err != nil {
			parseErr = err
			return
		}
		rows++
		if n := norm3(f[0], f[1], f[2]); n > current {
			current = n
		}
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if inBlock && rows > 0 {
		last, found = current, true
	}
	if !found {
		return nil, nil
	}
	return Value(last, "Ry/Bohr"), nil
}
