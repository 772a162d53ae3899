// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"sort"

	"github.com/WardLT/pif-dft/internal/classify"
	"github.com/WardLT/pif-dft/internal/fileset"
	"github.com/WardLT/pif-dft/pkg/types"
)

// Table is the registration for one code family: the roles that identify
// it and its extractors in run order.
type Table struct {
	Family     types.CodeFamily
	Markers    []fileset.Role
	Extractors []Descriptor
}

// Registry maps code families to their ordered extractors. It is built once
// and never modified, so one Registry can serve concurrent conversions.
type Registry struct {
	tables map[types.CodeFamily]Table
}

// NewRegistry validates and copies the given tables.
func NewRegistry(tables ...Table) (*Registry, error) {
	r := &Registry{tables: make(map[types.CodeFamily]Table, len(tables))}
	for _, t := range tables {
		if t.Family == "" {
			return nil, fmt.Errorf("table has no family")
		}
		if _, dup := r.tables[t.Family]; dup {
			return nil, fmt.Errorf("family %s registered twice", t.Family)
		}
		if len(t.Markers) == 0 {
			return nil, fmt.Errorf("family %s has no markers", t.Family)
		}
		for _, m := range t.Markers {
			if err := m.Validate(); err != nil {
				return nil, fmt.Errorf("family %s marker: %w", t.Family, err)
			}
		}
		for _, d := range t.Extractors {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("family %s: %w", t.Family, err)
			}
		}
		r.tables[t.Family] = Table{
			Family:     t.Family,
			Markers:    append([]fileset.Role(nil), t.Markers...),
			Extractors: append([]Descriptor(nil), t.Extractors...),
		}
	}
	return r, nil
}

// Default returns the registry of every supported code.
func Default() *Registry {
	r, err := NewRegistry(vaspTable(), pwscfTable())
	if err != nil {
		panic(fmt.Sprintf("extract: invalid built-in registry: %v", err))
	}
	return r
}

// For returns the extractors of family in run order. Unknown families
// yield nil.
func (r *Registry) For(family types.CodeFamily) []Descriptor {
	t, ok := r.tables[family]
	if !ok {
		return nil
	}
	return append([]Descriptor(nil), t.Extractors...)
}

// Families returns the registered families, sorted.
func (r *Registry) Families() []types.CodeFamily {
	out := make([]types.CodeFamily, 0, len(r.tables))
	for f := range r.tables {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Markers returns the classification markers of every family.
func (r *Registry) Markers() []classify.Marker {
	var out []classify.Marker
	for _, f := range r.Families() {
		for _, role := range r.tables[f].Markers {
			out = append(out, classify.Marker{Family: f, Role: role})
		}
	}
	return out
}

// Roles returns the distinct roles the extractors of family read, in first
// use order.
func (r *Registry) Roles(family types.CodeFamily) []fileset.Role {
	seen := make(map[string]bool)
	var out []fileset.Role
	for _, d := range r.tables[family].Extractors {
		for _, role := range d.Roles {
			if !seen[role.Name] {
				seen[role.Name] = true
				out = append(out, role)
			}
		}
	}
	return out
}
