package preprocess

import (
	"testing"

	"grocery-sales/internal/common"
	"grocery-sales/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EmptyRecordGetsEveryDefault(t *testing.T) {
	out := Normalize(record.Record{})

	for field, def := range NumericDefaults {
		assert.Equal(t, def, out[field], field)
	}
	for field, def := range CategoricalDefaults {
		assert.Equal(t, def, out[field], field)
	}
	assert.Len(t, out, len(NumericDefaults)+len(CategoricalDefaults))
	assert.False(t, out.Has(common.FieldSales), "normalizer must never add the label column")
}

func TestNormalize_MissingSubsetsLeaveOtherFieldsAlone(t *testing.T) {
	full := SampleRecord()
	full["Outlet Identifier"] = "OUT010"
	full["Store Note"] = "endcap"

	fields := make([]string, 0, len(NumericDefaults)+len(CategoricalDefaults))
	for f := range NumericDefaults {
		fields = append(fields, f)
	}
	for f := range CategoricalDefaults {
		fields = append(fields, f)
	}

	for _, dropped := range fields {
		t.Run(dropped, func(t *testing.T) {
			raw := full.Clone()
			delete(raw, dropped)

			out := Normalize(raw)

			if def, ok := NumericDefaults[dropped]; ok {
				assert.Equal(t, def, out[dropped])
			} else {
				assert.Equal(t, CategoricalDefaults[dropped], out[dropped])
			}
			for k, v := range full {
				if k == dropped {
					continue
				}
				assert.Equal(t, v, out[k], "field %q altered", k)
			}
		})
	}
}

func TestNormalize_NumericCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"numeric string", "9.3", 9.3},
		{"int", 15, 15},
		{"unparseable string", "heavy", NumericDefaults[common.FieldItemWeight]},
		{"empty string", "", NumericDefaults[common.FieldItemWeight]},
		{"null", nil, NumericDefaults[common.FieldItemWeight]},
		{"bool", true, NumericDefaults[common.FieldItemWeight]},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Normalize(record.Record{common.FieldItemWeight: tc.value})
			assert.Equal(t, tc.want, out[common.FieldItemWeight])
		})
	}
}

func TestNormalize_AbsenceAndCoercionFailureAgree(t *testing.T) {
	absent := Normalize(record.Record{})
	garbage := Normalize(record.Record{
		common.FieldItemWeight:              "?",
		common.FieldItemVisibility:          "n/a",
		common.FieldOutletEstablishmentYear: "unknown",
		common.FieldRating:                  nil,
	})
	assert.Equal(t, absent, garbage)
}

func TestNormalize_FatContentCanonicalization(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"LF", "Low Fat"},
		{"low fat", "Low Fat"},
		{"Low Fat", "Low Fat"},
		{"reg", "Regular"},
		{"Regular", "Regular"},
		// Unlisted spellings pass through unchanged.
		{"LOWFAT", "LOWFAT"},
		{"REG", "REG"},
		{"low  fat", "low  fat"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			out := Normalize(record.Record{common.FieldItemFatContent: tc.in})
			assert.Equal(t, tc.want, out[common.FieldItemFatContent])
		})
	}
}

func TestNormalize_IdentifierPrefix(t *testing.T) {
	t.Run("derived from identifier", func(t *testing.T) {
		out := Normalize(record.Record{common.FieldItemIdentifier: "DRA12"})
		assert.Equal(t, "DR", out[common.FieldItemIdentifierPrefix])
		assert.Equal(t, "DRA12", out[common.FieldItemIdentifier], "identifier is kept for the predictor to drop")
	})

	t.Run("existing prefix wins", func(t *testing.T) {
		out := Normalize(record.Record{
			common.FieldItemIdentifier:       "NCD19",
			common.FieldItemIdentifierPrefix: "FD",
		})
		assert.Equal(t, "FD", out[common.FieldItemIdentifierPrefix])
	})

	t.Run("short identifier is used whole", func(t *testing.T) {
		out := Normalize(record.Record{common.FieldItemIdentifier: "N"})
		assert.Equal(t, "N", out[common.FieldItemIdentifierPrefix])
	})

	t.Run("non-string identifier falls back to default", func(t *testing.T) {
		out := Normalize(record.Record{common.FieldItemIdentifier: 1234.0})
		assert.Equal(t, "FD", out[common.FieldItemIdentifierPrefix])
	})

	t.Run("null prefix is defaulted, not derived", func(t *testing.T) {
		out := Normalize(record.Record{
			common.FieldItemIdentifier:       "DRA12",
			common.FieldItemIdentifierPrefix: nil,
		})
		assert.Equal(t, "FD", out[common.FieldItemIdentifierPrefix])
	})
}

func TestIdentifierPrefix(t *testing.T) {
	assert.Equal(t, "FD", IdentifierPrefix("FDA15"))
	assert.Equal(t, "", IdentifierPrefix(""))
	assert.Equal(t, "ÄÖ", IdentifierPrefix("ÄÖÜ"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []record.Record{
		{},
		SampleRecord(),
		{common.FieldItemIdentifier: "NCD19", common.FieldItemFatContent: "LF", common.FieldRating: "3.5"},
		{common.FieldItemFatContent: "LOWFAT", common.FieldItemWeight: "abc", "Extra": 1},
		{common.FieldItemIdentifierPrefix: nil, common.FieldOutletSize: nil},
	}

	for i, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "input %d", i)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := record.Record{common.FieldItemFatContent: "LF", common.FieldItemWeight: "7"}
	_ = Normalize(raw)
	assert.Equal(t, record.Record{common.FieldItemFatContent: "LF", common.FieldItemWeight: "7"}, raw)
}

func TestNormalizeAll(t *testing.T) {
	out := NormalizeAll([]record.Record{{}, {common.FieldItemType: "Dairy"}})
	require.Len(t, out, 2)
	assert.Equal(t, "Fruits and Vegetables", out[0][common.FieldItemType])
	assert.Equal(t, "Dairy", out[1][common.FieldItemType])
}

func TestDefaultsBelongToCatalogs(t *testing.T) {
	assert.Contains(t, common.ItemTypes, CategoricalDefaults[common.FieldItemType])
	assert.Contains(t, common.OutletTypes, CategoricalDefaults[common.FieldOutletType])
	assert.Contains(t, common.OutletSizes, CategoricalDefaults[common.FieldOutletSize])
	assert.Contains(t, common.OutletLocationTypes, CategoricalDefaults[common.FieldOutletLocationType])
	assert.Contains(t, common.FatContents, CategoricalDefaults[common.FieldItemFatContent])
}
