package preprocess

import (
	"grocery-sales/internal/common"
	"grocery-sales/internal/record"
)

// SampleRecord returns a complete, already-normalized record that the
// bundled model accepts. Used by the CLI and by tests.
func SampleRecord() record.Record {
	return record.Record{
		common.FieldItemFatContent:          "Low Fat",
		common.FieldItemType:                "Fruits and Vegetables",
		common.FieldOutletIdentifier:        "OUT049",
		common.FieldOutletSize:              "Medium",
		common.FieldOutletLocationType:      "Tier 1",
		common.FieldOutletType:              "Supermarket Type1",
		common.FieldItemIdentifierPrefix:    "FD",
		common.FieldOutletEstablishmentYear: 2016.0,
		common.FieldItemVisibility:          0.066,
		common.FieldItemWeight:              12.85,
		common.FieldRating:                  4.0,
	}
}
