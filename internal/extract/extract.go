// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract holds the per-code property extractors and the registry
// that orders them. An extractor declares the file roles it needs up front;
// the engine resolves those roles and hands the extractor only the resolved
// files, so deciding applicability never requires running extraction code.
package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/pkg/pif"
)

// Kind is the slot of the record an extractor fills.
type Kind int

const (
	// KindFormula yields the chemical formula (one text scalar).
	KindFormula Kind = iota
	// KindProperty yields a named property.
	KindProperty
	// KindCondition yields a calculation setting attached to every property.
	KindCondition
	// KindVersion yields the software version (one text scalar).
	KindVersion
)

func (k Kind) String() string {
	switch k {
	case KindFormula:
		return "formula"
	case KindProperty:
		return "property"
	case KindCondition:
		return "condition"
	case KindVersion:
		return "version"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Partial is the value produced by one extractor run. A nil Partial, or one
// with no scalars, means the inputs hold no value for this extractor.
type Partial struct {
	Scalars []pif.Scalar
	Units   string
}

// Value returns a Partial holding one scalar.
func Value(v any, units string) *Partial {
	return &Partial{Scalars: pif.Scalars(v), Units: units}
}

// Values returns a Partial holding several scalars with a shared unit.
func Values(units string, vs ...any) *Partial {
	return &Partial{Scalars: pif.Scalars(vs...), Units: units}
}

// Text returns a Partial holding a single string, for formula and version
// extractors.
func Text(s string) *Partial {
	return &Partial{Scalars: pif.Scalars(s)}
}

// Empty reports whether the partial carries no value.
func (p *Partial) Empty() bool {
	return p == nil || len(p.Scalars) == 0
}

// TextValue returns the first scalar as trimmed text.
func (p *Partial) TextValue() string {
	if p.Empty() {
		return ""
	}
	s, _ := p.Scalars[0].String()
	return strings.TrimSpace(s)
}

// Inputs gives an extractor read access to exactly the files resolved for
// its roles.
type Inputs struct {
	set   *fileset.Set
	files map[string]string
}

// NewInputs binds resolved role files (role name to path) to their set.
func NewInputs(set *fileset.Set, files map[string]string) Inputs {
	return Inputs{set: set, files: files}
}

// Path returns the file resolved for role, or "" if none was.
func (in Inputs) Path(role string) string {
	return in.files[role]
}

// Open opens the file resolved for role.
func (in Inputs) Open(role string) (io.ReadCloser, error) {
	path, ok := in.files[role]
	if !ok {
		return nil, fmt.Errorf("role %s was not resolved", role)
	}
	return in.set.Open(path)
}

// ReadFile reads the whole file resolved for role.
func (in Inputs) ReadFile(role string) ([]byte, error) {
	path, ok := in.files[role]
	if !ok {
		return nil, fmt.Errorf("role %s was not resolved", role)
	}
	return in.set.ReadFile(path)
}

// Lines reads the file resolved for role split into lines.
func (in Inputs) Lines(role string) ([]string, error) {
	data, err := in.ReadFile(role)
	if err != nil {
		return nil, err
	}
	return splitLines(string(data)), nil
}

// Func extracts one value from its inputs.
type Func func(in Inputs) (*Partial, error)

// Descriptor declares an extractor: the record slot it fills, the name of
// the value, and the roles whose files it reads.
type Descriptor struct {
	Name    string
	Kind    Kind
	Roles   []fileset.Role
	Extract Func
}

// Key identifies the record slot the descriptor fills. Two descriptors with
// the same key compete; the first to produce a value wins.
func (d Descriptor) Key() string {
	switch d.Kind {
	case KindFormula, KindVersion:
		return d.Kind.String()
	}
	return d.Kind.String() + ":" + d.Name
}

// Validate checks that the descriptor is complete.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if d.Extract == nil {
		return fmt.Errorf("descriptor %s has no extract function", d.Name)
	}
	if len(d.Roles) == 0 {
		return fmt.Errorf("descriptor %s requires no roles", d.Name)
	}
	for _, r := range d.Roles {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("descriptor %s: %w", d.Name, err)
		}
	}
	return nil
}
