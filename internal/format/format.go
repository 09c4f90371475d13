// Package format turns a prediction into the display fields shown to users.
package format

import (
	"fmt"
	"math"
)

// Confidence labels, highest first.
const (
	LevelVeryHigh = "Very High"
	LevelHigh     = "High"
	LevelModerate = "Moderate"
	LevelLow      = "Low"
	LevelVeryLow  = "Very Low"
)

var levels = []struct {
	min   float64
	label string
}{
	{0.9, LevelVeryHigh},
	{0.8, LevelHigh},
	{0.7, LevelModerate},
	{0.6, LevelLow},
}

// Display is a prediction rendered for presentation.
type Display struct {
	PredictedSales  float64 `json:"predicted_sales"`
	Confidence      float64 `json:"confidence"`
	FormattedSales  string  `json:"formatted_sales"`
	ConfidenceLevel string  `json:"confidence_level"`
}

// Prediction formats a predicted sales value and its confidence in [0,1].
func Prediction(value, confidence float64) Display {
	return Display{
		PredictedSales:  Round2(value),
		Confidence:      Round2(confidence * 100),
		FormattedSales:  Currency(value),
		ConfidenceLevel: ConfidenceLevel(confidence),
	}
}

// ConfidenceLevel maps a confidence in [0,1] to its label.
func ConfidenceLevel(confidence float64) string {
	for _, l := range levels {
		if confidence >= l.min {
			return l.label
		}
	}
	return LevelVeryLow
}

// Currency renders value as dollars with two decimals and no grouping. A
// negative value keeps its sign after the dollar sign: "$-12.30".
func Currency(value float64) string {
	return fmt.Sprintf("$%.2f", value)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
