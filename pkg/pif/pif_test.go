// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pif

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		Category:        CategoryChemical,
		ChemicalFormula: "AlNi",
		Properties: []Property{
			{Name: "Converged", Scalars: Scalars(true), DataType: DataTypeComputational},
			{
				Name:    "Total Energy",
				Scalars: Scalars(-10.87),
				Units:   "eV",
				Conditions: []Value{
					{Name: "XC Functional", Scalars: Scalars("LDA")},
				},
				Method: &Method{Name: "Density Functional Theory", Software: []Software{{Name: "VASP", Version: "5.4.4"}}},
			},
		},
	}
}

func TestGetPropertyByName(t *testing.T) {
	rec := sampleRecord()

	t.Run("present", func(t *testing.T) {
		p, ok := GetPropertyByName(rec, "Converged")
		require.True(t, ok)
		b, isBool := p.Scalars[0].Bool()
		assert.True(t, isBool)
		assert.True(t, b)
	})

	t.Run("absent", func(t *testing.T) {
		p, ok := GetPropertyByName(rec, "Band Gap Energy")
		assert.False(t, ok)
		assert.Nil(t, p)
	})

	t.Run("nil record", func(t *testing.T) {
		_, ok := GetPropertyByName(nil, "Converged")
		assert.False(t, ok)
	})

	t.Run("exact match only", func(t *testing.T) {
		_, ok := GetPropertyByName(rec, "converged")
		assert.False(t, ok)
	})
}

func TestIndex(t *testing.T) {
	rec := sampleRecord()
	idx := NewIndex(rec)

	assert.Equal(t, 2, idx.Len())
	p, ok := idx.Get("Total Energy")
	require.True(t, ok)
	assert.Equal(t, "eV", p.Units)

	_, ok = idx.Get("Pressure")
	assert.False(t, ok)

	assert.Equal(t, 0, NewIndex(nil).Len())
}

func TestScalarAccessors(t *testing.T) {
	f, ok := Scalar{Value: 3}.Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = Scalar{Value: "x"}.Float()
	assert.False(t, ok)

	s, ok := Scalar{Value: "PBE"}.String()
	assert.True(t, ok)
	assert.Equal(t, "PBE", s)
}

func TestClone_Independent(t *testing.T) {
	rec := sampleRecord()
	cp := rec.Clone()

	cp.Properties[1].Conditions[0].Name = "changed"
	cp.Properties[1].Method.Software[0].Version = "6.0"
	cp.Properties = append(cp.Properties, Property{Name: "extra"})

	assert.Equal(t, "XC Functional", rec.Properties[1].Conditions[0].Name)
	assert.Equal(t, "5.4.4", rec.Properties[1].Method.Software[0].Version)
	assert.Len(t, rec.Properties, 2)
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, sampleRecord(), format))

			got, err := Decode(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, "AlNi", got.ChemicalFormula)

			p, ok := GetPropertyByName(got, "Total Energy")
			require.True(t, ok)
			v, ok := p.Scalars[0].Float()
			require.True(t, ok)
			assert.InDelta(t, -10.87, v, 1e-9)
			assert.Equal(t, "VASP", p.Method.Software[0].Name)
		})
	}
}

func TestEncode_JSONFieldNames(t *testing.T) {
	data, err := Marshal(sampleRecord(), FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"chemicalFormula": "AlNi"`)
	assert.Contains(t, string(data), `"category": "system.chemical"`)
	assert.NotContains(t, string(data), `"uid"`)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode([]byte("  \n"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, ".yaml", FormatYAML.Ext())
	assert.Equal(t, ".json", FormatJSON.Ext())
}

func TestComputeUID(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()

	uidA, err := ComputeUID(a)
	require.NoError(t, err)
	uidB, err := ComputeUID(b)
	require.NoError(t, err)
	assert.Equal(t, uidA, uidB)

	parsed, err := uuid.Parse(uidA)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())

	b.UID = "something-else"
	uidB, err = ComputeUID(b)
	require.NoError(t, err)
	assert.Equal(t, uidA, uidB, "an existing uid does not feed the hash")

	b.ChemicalFormula = "Si2"
	uidB, err = ComputeUID(b)
	require.NoError(t, err)
	assert.NotEqual(t, uidA, uidB)

	_, err = ComputeUID(nil)
	assert.Error(t, err)
}

func TestAssignUID_SurvivesRoundTrip(t *testing.T) {
	rec := sampleRecord()
	require.NoError(t, rec.AssignUID())

	data, err := Marshal(rec, FormatYAML)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)

	uid, err := ComputeUID(back)
	require.NoError(t, err)
	assert.Equal(t, rec.UID, uid)
}
