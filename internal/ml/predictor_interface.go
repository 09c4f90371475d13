package ml

import (
	"context"

	"grocery-sales/internal/record"
)

// PredictorInterface is the inference surface consumed by the serving layer.
type PredictorInterface interface {
	// Predict scores one normalized record and returns the value and its
	// confidence.
	Predict(ctx context.Context, rec record.Record) (float64, float64, error)

	// PredictBatch scores records in order. Either every record is scored or
	// an error is returned; there are no partial results.
	PredictBatch(ctx context.Context, recs []record.Record) ([]float64, []float64, error)

	// Info reports the metadata of the loaded model, if any.
	Info() (ModelMetadata, bool)

	// Schema reports the loaded feature schema, if any.
	Schema() (FeatureSchema, bool)
}

var _ PredictorInterface = (*Predictor)(nil)
