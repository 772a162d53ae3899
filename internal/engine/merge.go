// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"github.com/WardLT/pif-dft/internal/extract"
	"github.com/WardLT/pif-dft/pkg/pif"
	"github.com/WardLT/pif-dft/pkg/types"
)

// accumulator collects extracted values for one conversion. Each key is
// written at most once; the first value wins.
type accumulator struct {
	keys       map[string]bool
	formula    string
	version    string
	properties []pif.Property
	conditions []pif.Value
}

func newAccumulator() *accumulator {
	return &accumulator{keys: make(map[string]bool)}
}

func (a *accumulator) filled(key string) bool {
	return a.keys[key]
}

// add stores p under the key of d unless the key is already set. Blank
// formula and version text counts as no value.
func (a *accumulator) add(d extract.Descriptor, p *extract.Partial) {
	key := d.Key()
	if a.keys[key] {
		return
	}

	switch d.Kind {
	case extract.KindFormula:
		if a.formula = p.TextValue(); a.formula == "" {
			return
		}
	case extract.KindVersion:
		if a.version = p.TextValue(); a.version == "" {
			return
		}
	case extract.KindCondition:
		a.conditions = append(a.conditions, pif.Value{
			Name:    d.Name,
			Scalars: append([]pif.Scalar(nil), p.Scalars...),
			Units:   p.Units,
		})
	case extract.KindProperty:
		a.properties = append(a.properties, pif.Property{
			Name:    d.Name,
			Scalars: append([]pif.Scalar(nil), p.Scalars...),
			Units:   p.Units,
		})
	default:
		return
	}
	a.keys[key] = true
}

// record assembles the record. Every property gets its own copy of the
// conditions and of the method.
func (a *accumulator) record(family types.CodeFamily) *pif.Record {
	rec := &pif.Record{
		Category:        pif.CategoryChemical,
		ChemicalFormula: a.formula,
	}
	for _, p := range a.properties {
		p.DataType = pif.DataTypeComputational
		p.Method = &pif.Method{
			Name:     MethodName,
			Software: []pif.Software{{Name: family.SoftwareName(), Version: a.version}},
		}
		if len(a.conditions) > 0 {
			p.Conditions = make([]pif.Value, len(a.conditions))
			for i, c := range a.conditions {
				p.Conditions[i] = c.Clone()
			}
		}
		rec.Properties = append(rec.Properties, p)
	}
	return rec
}
