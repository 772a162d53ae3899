// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared identifiers and configuration structs used
// across the converter stages.
package types

// CodeFamily identifies the simulation program that produced a file set.
type CodeFamily string

const (
	FamilyVASP  CodeFamily = "vasp"
	FamilyPWSCF CodeFamily = "pwscf"
)

// String returns the family tag.
func (f CodeFamily) String() string {
	return string(f)
}

// SoftwareName returns the display name recorded in a property's method.
func (f CodeFamily) SoftwareName() string {
	switch f {
	case FamilyVASP:
		return "VASP"
	case FamilyPWSCF:
		return "PWSCF"
	}
	return string(f)
}
