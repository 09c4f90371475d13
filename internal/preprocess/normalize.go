// Package preprocess turns loosely structured client input into records that
// follow the conventions the sales model was trained with.
package preprocess

import (
	"grocery-sales/internal/common"
	"grocery-sales/internal/record"
)

// NumericDefaults holds the training-set statistics substituted for missing
// or non-numeric values: mean weight, mean visibility, modal establishment
// year and median rating.
var NumericDefaults = map[string]float64{
	common.FieldItemWeight:              12.85,
	common.FieldItemVisibility:          0.066,
	common.FieldOutletEstablishmentYear: 2016,
	common.FieldRating:                  4.0,
}

// CategoricalDefaults holds the values substituted for missing categorical fields.
var CategoricalDefaults = map[string]string{
	common.FieldItemFatContent:       "Regular",
	common.FieldItemType:             "Fruits and Vegetables",
	common.FieldOutletSize:           "Medium",
	common.FieldOutletLocationType:   "Tier 2",
	common.FieldOutletType:           "Supermarket Type1",
	common.FieldItemIdentifierPrefix: "FD",
}

// fatContentAliases maps the spellings seen in training data to their
// canonical value. Unlisted spellings are left as they are.
var fatContentAliases = map[string]string{
	"LF":      "Low Fat",
	"low fat": "Low Fat",
	"Low Fat": "Low Fat",
	"reg":     "Regular",
	"Regular": "Regular",
}

const identifierPrefixLen = 2

// Normalize returns a repaired copy of raw. It never fails: missing or
// malformed values are replaced with their documented defaults and every
// other field is passed through untouched.
func Normalize(raw record.Record) record.Record {
	out := raw.Clone()

	for field, def := range NumericDefaults {
		if v, ok := out.Number(field); ok {
			out[field] = v
		} else {
			out[field] = def
		}
	}

	if s, ok := out.Text(common.FieldItemFatContent); ok {
		if canonical, known := fatContentAliases[s]; known {
			out[common.FieldItemFatContent] = canonical
		}
	}

	// Derive the prefix before defaulting so the default cannot mask it.
	if !out.Has(common.FieldItemIdentifierPrefix) {
		if id, ok := out.Text(common.FieldItemIdentifier); ok {
			out[common.FieldItemIdentifierPrefix] = IdentifierPrefix(id)
		}
	}

	for field, def := range CategoricalDefaults {
		if !out.Present(field) {
			out[field] = def
		}
	}

	return out
}

// NormalizeAll normalizes each record of a batch.
func NormalizeAll(raws []record.Record) []record.Record {
	out := make([]record.Record, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r)
	}
	return out
}

// IdentifierPrefix returns the first two characters of an item identifier,
// or the whole identifier when it is shorter.
func IdentifierPrefix(id string) string {
	runes := []rune(id)
	if len(runes) <= identifierPrefixLen {
		return id
	}
	return string(runes[:identifierPrefixLen])
}
