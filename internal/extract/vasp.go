// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/pkg/types"
)

// VASP file roles. The OUTCAR is the primary log and identifies the family.
var (
	OutcarRole  = fileset.Role{Name: "outcar", Pattern: "OUTCAR*"}
	DoscarRole  = fileset.Role{Name: "doscar", Pattern: "DOSCAR*"}
	IncarRole   = fileset.Role{Name: "incar", Pattern: "INCAR*"}
	PoscarRole  = fileset.Role{Name: "poscar", Pattern: "POSCAR*"}
	ContcarRole = fileset.Role{Name: "contcar", Pattern: "CONTCAR*"}
)

// OUTCAR patterns.
var (
	vaspVersionRe  = regexp.MustCompile(`^\s*vasp\.(\S+)`)
	vaspTitelRe    = regexp.MustCompile(`TITEL\s*=\s*(.+?)\s*$`)
	vaspIonsTypeRe = regexp.MustCompile(`ions per type\s*=\s*([\d\s]+)$`)
	vaspTotenRe    = regexp.MustCompile(`free\s+energy\s+TOTEN\s*=\s*(\S+)\s*eV`)
	vaspVolumeRe   = regexp.MustCompile(`volume of cell\s*:\s*(\S+)`)
	vaspPressureRe = regexp.MustCompile(`external pressure\s*=\s*(\S+)\s*kB`)
	vaspEncutRe    = regexp.MustCompile(`^\s*ENCUT\s*=\s*(\S+)\s*eV`)
	vaspNSWRe      = regexp.MustCompile(`^\s*NSW\s*=\s*(-?\d+)`)
	vaspIBRIONRe   = regexp.MustCompile(`^\s*IBRION\s*=\s*(-?\d+)`)
	vaspLSORBITRe  = regexp.MustCompile(`^\s*LSORBIT\s*=\s*(\S+)`)
	vaspGGARe      = regexp.MustCompile(`^\s*GGA\s*=\s*(\S+)`)
	vaspNIONSRe    = regexp.MustCompile(`NIONS\s*=\s*(\d+)`)
	vaspNKPTSRe    = regexp.MustCompile(`NKPTS\s*=\s*(\d+)`)
)

const (
	vaspEDIFFReached   = "aborting loop because EDIFF is reached"
	vaspRelaxConverged = "reached required accuracy"
	vaspForceHeader    = "TOTAL-FORCE (eV/Angst)"
)

// vaspGGATags maps INCAR GGA tags to functional names.
var vaspGGATags = map[string]string{
	"PE": "PBE",
	"91": "PW91",
	"PS": "PBEsol",
	"RP": "RPBE",
	"AM": "AM05",
	"CA": "LDA",
}

// vaspPotcarFlavors maps the leading token of a POTCAR TITEL to the
// functional it was generated with.
var vaspPotcarFlavors = map[string]string{
	"PAW_PBE": "PBE",
	"PAW_GGA": "PW91",
	"PAW_LDA": "LDA",
	"PAW":     "LDA",
	"US":      "LDA",
}

func vaspTable() Table {
	outcar := []fileset.Role{OutcarRole}
	return Table{
		Family:  types.FamilyVASP,
		Markers: outcar,
		Extractors: []Descriptor{
			{Name: "Chemical Formula", Kind: KindFormula, Roles: outcar, Extract: vaspOutcarFormula},
			{Name: "Chemical Formula", Kind: KindFormula, Roles: []fileset.Role{PoscarRole}, Extract: structureFormula(PoscarRole.Name)},
			{Name: "Chemical Formula", Kind: KindFormula, Roles: []fileset.Role{ContcarRole}, Extract: structureFormula(ContcarRole.Name)},
			{Name: "Software Version", Kind: KindVersion, Roles: outcar, Extract: vaspVersion},

			{Name: "XC Functional", Kind: KindCondition, Roles: outcar, Extract: vaspXCFunctional},
			{Name: "Cutoff Energy", Kind: KindCondition, Roles: outcar, Extract: vaspOutcarCutoff},
			{Name: "Cutoff Energy", Kind: KindCondition, Roles: []fileset.Role{IncarRole}, Extract: vaspIncarCutoff},
			{Name: "Relaxed", Kind: KindCondition, Roles: outcar, Extract: vaspOutcarRelaxed},
			{Name: "Relaxed", Kind: KindCondition, Roles: []fileset.Role{IncarRole}, Extract: vaspIncarRelaxed},
			{Name: "Spin-Orbit Coupling", Kind: KindCondition, Roles: outcar, Extract: vaspSpinOrbit},
			{Name: "Pseudopotentials", Kind: KindCondition, Roles: outcar, Extract: vaspPseudopotentials},
			{Name: "Number of k-Points", Kind: KindCondition, Roles: outcar, Extract: vaspKPoints},

			{Name: "Converged", Kind: KindProperty, Roles: outcar, Extract: vaspConverged},
			{Name: "Total Energy", Kind: KindProperty, Roles: outcar, Extract: vaspTotalEnergy},
			{Name: "Band Gap Energy", Kind: KindProperty, Roles: []fileset.Role{DoscarRole}, Extract: vaspBandGap},
			{Name: "Pressure", Kind: KindProperty, Roles: outcar, Extract: vaspPressure},
			{Name: "Final Volume", Kind: KindProperty, Roles: outcar, Extract: vaspFinalVolume},
			{Name: "Maximum Force", Kind: KindProperty, Roles: outcar, Extract: vaspMaxForce},
			{Name: "Number of Atoms", Kind: KindProperty, Roles: outcar, Extract: vaspNumAtoms},
		},
	}
}

// vaspOutcarFormula builds the formula from the POTCAR titles and the
// per-type ion counts.
func vaspOutcarFormula(in Inputs) (*Partial, error) {
	var (
		titles []string
		counts []int
		err    error
	)
	scanErr := eachLine(in, OutcarRole.Name, func(line string) {
		if m := vaspTitelRe.FindStringSubmatch(line); m != nil {
			titles = append(titles, m[1])
			return
		}
		if counts == nil && err == nil {
			if m := vaspIonsTypeRe.FindStringSubmatch(line); m != nil {
				counts, err = atoiFields(strings.Fields(m[1]))
			}
		}
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err != nil {
		return nil, fmt.Errorf("parsing ions per type: %w", err)
	}
	if len(titles) == 0 || counts == nil {
		return nil, nil
	}
	if len(titles) != len(counts) {
		return nil, fmt.Errorf("%d POTCAR titles but %d ion counts", len(titles), len(counts))
	}

	comp := newComposition()
	for i, t := range titles {
		fields := strings.Fields(t)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed POTCAR title %q", t)
		}
		el, err := elementSymbol(fields[1])
		if err != nil {
			return nil, err
		}
		comp.add(el, counts[i])
	}
	return Text(comp.formula()), nil
}

// structureFormula reads a VASP 5 POSCAR/CONTCAR, whose sixth line lists
// the element symbols and seventh line their counts.
func structureFormula(role string) Func {
	return func(in Inputs) (*Partial, error) {
		lines, err := in.Lines(role)
		if err != nil {
			return nil, err
		}
		if len(lines) < 7 {
			return nil, fmt.Errorf("structure file has %d lines, want at least 7", len(lines))
		}
		symbols := strings.Fields(lines[5])
		if len(symbols) == 0 {
			return nil, fmt.Errorf("structure file has no species line")
		}
		if _, err := strconv.Atoi(symbols[0]); err == nil {
			return nil, fmt.Errorf("structure file lacks element symbols (VASP 4 format)")
		}
		counts, err := atoiFields(strings.Fields(lines[6]))
		if err != nil {
			return nil, fmt.Errorf("parsing species counts: %w", err)
		}
		if len(counts) != len(symbols) {
			return nil, fmt.Errorf("%d species but %d counts", len(symbols), len(counts))
		}

		comp := newComposition()
		for i, s := range symbols {
			// VASP 5.4 may append a POTCAR hash: "Al/5a2ba3b5".
			el, err := elementSymbol(strings.SplitN(s, "/", 2)[0])
			if err != nil {
				return nil, err
			}
			comp.add(el, counts[i])
		}
		return Text(comp.formula()), nil
	}
}

func vaspVersion(in Inputs) (*Partial, error) {
	v, ok, err := firstSubmatch(in, OutcarRole.Name, vaspVersionRe)
	if err != nil || !ok {
		return nil, err
	}
	return Text(v), nil
}

// vaspXCFunctional prefers an explicit GGA tag and otherwise infers the
// functional from the POTCAR flavor.
func vaspXCFunctional(in Inputs) (*Partial, error) {
	var gga, potcar string
	err := eachLine(in, OutcarRole.Name, func(line string) {
		if gga == "" {
			if m := vaspGGARe.FindStringSubmatch(line); m != nil {
				gga = m[1]
			}
		}
		if potcar == "" {
			if m := vaspTitelRe.FindStringSubmatch(line); m != nil {
				potcar = strings.Fields(m[1])[0]
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if gga != "" && gga != "--" {
		if name, ok := vaspGGATags[strings.ToUpper(gga)]; ok {
			return Value(name, ""), nil
		}
		return Value(gga, ""), nil
	}
	if name, ok := vaspPotcarFlavors[potcar]; ok {
		return Value(name, ""), nil
	}
	return nil, nil
}

func vaspOutcarCutoff(in Inputs) (*Partial, error) {
	s, ok, err := firstSubmatch(in, OutcarRole.Name, vaspEncutRe)
	if err != nil || !ok {
		return nil, err
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return Value(v, "eV"), nil
}

func vaspIncarCutoff(in Inputs) (*Partial, error) {
	tags, err := parseIncar(in)
	if err != nil {
		return nil, err
	}
	s, ok := tags["ENCUT"]
	if !ok {
		return nil, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return Value(v, "eV"), nil
}

// vaspRunSettings holds the ionic-loop settings of a run.
type vaspRunSettings struct {
	nsw, ibrion       int
	hasNSW, hasIBRION bool
}

// relaxation reports whether ions were moved toward a minimum.
func (s vaspRunSettings) relaxation() bool {
	if s.hasNSW && s.nsw <= 0 {
		return false
	}
	if s.hasIBRION && (s.ibrion == -1 || s.ibrion == 0) {
		return false
	}
	return s.hasNSW || s.hasIBRION
}

func outcarRunSettings(in Inputs) (vaspRunSettings, error) {
	var s vaspRunSettings
	err := eachLine(in, OutcarRole.Name, func(line string) {
		if !s.hasNSW {
			if m := vaspNSWRe.FindStringSubmatch(line); m != nil {
				s.nsw, _ = strconv.Atoi(m[1])
				s.hasNSW = true
			}
		}
		if !s.hasIBRION {
			if m := vaspIBRIONRe.FindStringSubmatch(line); m != nil {
				s.ibrion, _ = strconv.Atoi(m[1])
				s.hasIBRION = true
			}
		}
	})
	return s, err
}

func vaspOutcarRelaxed(in Inputs) (*Partial, error) {
	s, err := outcarRunSettings(in)
	if err != nil || (!s.hasNSW && !s.hasIBRION) {
		return nil, err
	}
	return Value(s.relaxation(), ""), nil
}

func vaspIncarRelaxed(in Inputs) (*Partial, error) {
	tags, err := parseIncar(in)
	if err != nil {
		return nil, err
	}
	var s vaspRunSettings
	if v, ok := tags["NSW"]; ok {
		if s.nsw, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parsing NSW %q: %w", v, err)
		}
		s.hasNSW = true
	}
	if v, ok := tags["IBRION"]; ok {
		if s.ibrion, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parsing IBRION %q: %w", v, err)
		}
		s.hasIBRION = true
	}
	// NSW defaults to 0: a bare INCAR describes a static run.
	return Value(s.relaxation(), ""), nil
}

func vaspSpinOrbit(in Inputs) (*Partial, error) {
	s, ok, err := firstSubmatch(in, OutcarRole.Name, vaspLSORBITRe)
	if err != nil || !ok {
		return nil, err
	}
	b, err := parseFortranBool(s)
	if err != nil {
		return nil, err
	}
	return Value(b, ""), nil
}

func vaspPseudopotentials(in Inputs) (*Partial, error) {
	var titles []any
	err := eachLine(in, OutcarRole.Name, func(line string) {
		if m := vaspTitelRe.FindStringSubmatch(line); m != nil {
			titles = append(titles, m[1])
		}
	})
	if err != nil || len(titles) == 0 {
		return nil, err
	}
	return Values("", titles...), nil
}

func vaspKPoints(in Inputs) (*Partial, error) {
	return firstInt(in, OutcarRole.Name, vaspNKPTSRe)
}

// vaspConverged checks the final electronic or ionic convergence message.
// Static runs converge when the electronic loop reaches EDIFF; relaxations
// when the ionic loop reports the required accuracy.
func vaspConverged(in Inputs) (*Partial, error) {
	var (
		settings vaspRunSettings
		ediff    bool
		relaxed  bool
	)
	err := eachLine(in, OutcarRole.Name, func(line string) {
		switch {
		case strings.Contains(line, vaspEDIFFReached):
			ediff = true
		case strings.Contains(line, vaspRelaxConverged):
			relaxed = true
		case !settings.hasNSW && vaspNSWRe.MatchString(line):
			settings.nsw, _ = strconv.Atoi(vaspNSWRe.FindStringSubmatch(line)[1])
			settings.hasNSW = true
		case !settings.hasIBRION && vaspIBRIONRe.MatchString(line):
			settings.ibrion, _ = strconv.Atoi(vaspIBRIONRe.FindStringSubmatch(line)[1])
			settings.hasIBRION = true
		}
	})
	if err != nil {
		return nil, err
	}
	if settings.relaxation() {
		return Value(relaxed, ""), nil
	}
	return Value(ediff, ""), nil
}

func vaspTotalEnergy(in Inputs) (*Partial, error) {
	return lastFloat(in, OutcarRole.Name, vaspTotenRe, "eV")
}

func vaspPressure(in Inputs) (*Partial, error) {
	return lastFloat(in, OutcarRole.Name, vaspPressureRe, "kbar")
}

func vaspFinalVolume(in Inputs) (*Partial, error) {
	return lastFloat(in, OutcarRole.Name, vaspVolumeRe, "Angstrom^3")
}

func vaspNumAtoms(in Inputs) (*Partial, error) {
	return firstInt(in, OutcarRole.Name, vaspNIONSRe)
}

// vaspMaxForce returns the largest force on any ion in the last
// TOTAL-FORCE block.
func vaspMaxForce(in Inputs) (*Partial, error) {
	const (
		outside = iota
		header
		rows
	)
	var (
		state    = outside
		current  float64
		last     float64
		found    bool
		parseErr error
	)
	err := eachLine(in, OutcarRole.Name, func(line string) {
		if parseErr != nil {
			return
		}
		trimmed := strings.TrimSpace(line)
		switch state {
		case outside:
			if strings.Contains(line, vaspForceHeader) {
				state, current = header, 0
			}
		case header:
			if strings.HasPrefix(trimmed, "---") {
				state = rows
			}
		case rows:
			if strings.HasPrefix(trimmed, "---") || trimmed == "" {
				state, last, found = outside, current, true
				return
			}
			fields := strings.Fields(trimmed)
			if len(fields) != 6 {
				parseErr = fmt.Errorf("malformed force row %q", trimmed)
				return
			}
			f, err := parseFloats(fields[3:])
			if err != nil {
				parseErr = err
				return
			}
			if n := norm3(f[0], f[1], f[2]); n > current {
				current = n
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if !found {
		return nil, nil
	}
	return Value(last, "eV/Angstrom"), nil
}

// parseIncar reads KEY = value pairs, allowing several per line separated
// by ';' and comments introduced by '#' or '!'.
func parseIncar(in Inputs) (map[string]string, error) {
	lines, err := in.Lines(IncarRole.Name)
	if err != nil {
		return nil, err
	}
	tags := make(map[string]string)
	for _, line := range lines {
		if i := strings.IndexAny(line, "#!"); i >= 0 {
			line = line[:i]
		}
		for _, stmt := range strings.Split(line, ";") {
			key, val, ok := strings.Cut(stmt, "=")
			if !ok {
				continue
			}
			key = strings.ToUpper(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			tags[key] = strings.TrimSpace(val)
		}
	}
	return tags, nil
}

// parseFortranBool accepts T/F and .TRUE./.FALSE. spellings.
func parseFortranBool(s string) (bool, error) {
	switch strings.ToUpper(strings.Trim(strings.TrimSpace(s), ".")) {
	case "T", "TRUE":
		return true, nil
	case "F", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("parsing logical %q", s)
}

func atoiFields(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
