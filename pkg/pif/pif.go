// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pif defines the Physical Information File record produced by the
// converter: a chemical system with a formula and a list of computed
// properties. The field names follow the PIF wire format (camelCase) for both
// JSON and YAML.
package pif

const (
	// CategoryChemical is the category string for a chemical system record.
	CategoryChemical = "system.chemical"

	// DataTypeComputational marks a property produced by a simulation.
	DataTypeComputational = "COMPUTATIONAL"
)

// Record is a chemical system: the standardized output of one conversion.
type Record struct {
	Category string `json:"category" yaml:"category"`

	// UID is a deterministic identifier derived from the record content.
	UID string `json:"uid,omitempty" yaml:"uid,omitempty"`

	ChemicalFormula string `json:"chemicalFormula" yaml:"chemicalFormula"`

	// Properties are kept in extraction order. Names are unique.
	Properties []Property `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Property is a named, possibly multi-valued quantity.
type Property struct {
	Name       string   `json:"name" yaml:"name"`
	Scalars    []Scalar `json:"scalars" yaml:"scalars"`
	Units      string   `json:"units,omitempty" yaml:"units,omitempty"`
	Conditions []Value  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Method     *Method  `json:"method,omitempty" yaml:"method,omitempty"`
	DataType   string   `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Value is a named quantity without provenance, used for conditions.
type Value struct {
	Name    string   `json:"name" yaml:"name"`
	Scalars []Scalar `json:"scalars" yaml:"scalars"`
	Units   string   `json:"units,omitempty" yaml:"units,omitempty"`
}

// Scalar holds a single bool, number, or string.
type Scalar struct {
	Value any `json:"value" yaml:"value"`
}

// Method describes how a property was obtained.
type Method struct {
	Name     string     `json:"name" yaml:"name"`
	Software []Software `json:"software,omitempty" yaml:"software,omitempty"`
}

// Software identifies the simulation program and its version.
type Software struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Bool returns the scalar as a bool and whether it holds one.
func (s Scalar) Bool() (bool, bool) {
	b, ok := s.Value.(bool)
	return b, ok
}

// Float returns the scalar as a float64. Integer values are widened.
func (s Scalar) Float() (float64, bool) {
	switch v := s.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// String returns the scalar as a string and whether it holds one.
func (s Scalar) String() (string, bool) {
	str, ok := s.Value.(string)
	return str, ok
}

// Scalars wraps raw values as scalars.
func Scalars(values ...any) []Scalar {
	out := make([]Scalar, len(values))
	for i, v := range values {
		out[i] = Scalar{Value: v}
	}
	return out
}

// Clone returns a deep copy of the record. Scalar values are immutable
// primitives and are shared.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Properties != nil {
		out.Properties = make([]Property, len(r.Properties))
		for i, p := range r.Properties {
			out.Properties[i] = p.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the property.
func (p Property) Clone() Property {
	out := p
	out.Scalars = append([]Scalar(nil), p.Scalars...)
	out.Tags = append([]string(nil), p.Tags...)
	if p.Conditions != nil {
		out.Conditions = make([]Value, len(p.Conditions))
		for i, c := range p.Conditions {
			out.Conditions[i] = c.Clone()
		}
	}
	if p.Method != nil {
		m := *p.Method
		m.Software = append([]Software(nil), p.Method.Software...)
		out.Method = &m
	}
	return out
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	out := v
	out.Scalars = append([]Scalar(nil), v.Scalars...)
	return out
}
