// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pif

// GetPropertyByName returns the property whose name matches exactly.
// A nil record or a missing property reports false; absence is an expected
// outcome when the inputs did not cover that property.
func GetPropertyByName(rec *Record, name string) (*Property, bool) {
	if rec == nil {
		return nil, false
	}
	for i := range rec.Properties {
		if rec.Properties[i].Name == name {
			return &rec.Properties[i], true
		}
	}
	return nil, false
}

// Index is a name lookup over a record's properties for repeated queries.
// It reflects the record at construction time.
type Index struct {
	byName map[string]*Property
}

// NewIndex builds an Index over rec. The first property with a given name
// is indexed if the record somehow carries duplicates.
func NewIndex(rec *Record) *Index {
	idx := &Index{byName: make(map[string]*Property)}
	if rec == nil {
		return idx
	}
	for i := range rec.Properties {
		p := &rec.Properties[i]
		if _, exists := idx.byName[p.Name]; !exists {
			idx.byName[p.Name] = p
		}
	}
	return idx
}

// Get returns the named property and whether it is present.
func (x *Index) Get(name string) (*Property, bool) {
	p, ok := x.byName[name]
	return p, ok
}

// Len returns the number of indexed property names.
func (x *Index) Len() int {
	return len(x.byName)
}
