package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema marks a feature-schema descriptor that parsed but cannot
// be used: no features, blank names, or a name listed twice.
var ErrInvalidSchema = errors.New("invalid feature schema")

// ModelLoadError reports that a training artifact could not be acquired.
// Loading is retried on the next prediction.
type ModelLoadError struct {
	Artifact string // "model", "features" or "artifacts"
	Location string
	Err      error
}

func (e *ModelLoadError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("error loading %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("error loading %s from %s: %v", e.Artifact, e.Location, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// MissingFieldError lists every schema-required field absent from the
// records of one prediction call.
type MissingFieldError struct {
	Fields []string // schema order
	Rows   []int    // indexes of the records that lacked at least one field
}

func (e *MissingFieldError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// PredictionError is the single error category returned by the predictor.
// Unwrap exposes the specific cause (*ModelLoadError, *MissingFieldError or
// a scoring failure).
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("error in making prediction: %v", e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }
