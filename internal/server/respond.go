package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"grocery-sales/internal/format"
	"grocery-sales/internal/ml"
	"grocery-sales/internal/record"

	"github.com/rs/zerolog/log"
)

// PredictionResponse is returned for a single scored record.
type PredictionResponse struct {
	Success    bool           `json:"success"`
	Prediction float64        `json:"prediction"`
	Confidence float64        `json:"confidence"`
	Formatted  format.Display `json:"formatted"`
	RequestID  string         `json:"request_id,omitempty"`
}

// PredictionResult is one element of a batch response.
type PredictionResult struct {
	Prediction float64        `json:"prediction"`
	Confidence float64        `json:"confidence"`
	Formatted  format.Display `json:"formatted"`
}

// BatchResponse is returned when the request body is an array of records.
type BatchResponse struct {
	Success     bool               `json:"success"`
	Predictions []PredictionResult `json:"predictions"`
	RequestID   string             `json:"request_id,omitempty"`
}

// ErrorResponse carries a failure. MissingFields is set when the failure
// was caused by absent schema fields.
type ErrorResponse struct {
	Success       bool     `json:"success"`
	Error         string   `json:"error"`
	MissingFields []string `json:"missing_fields,omitempty"`
	RequestID     string   `json:"request_id,omitempty"`
}

func newPredictionResponse(value, confidence float64, requestID string) PredictionResponse {
	return PredictionResponse{
		Success:    true,
		Prediction: value,
		Confidence: confidence,
		Formatted:  format.Prediction(value, confidence),
		RequestID:  requestID,
	}
}

func newBatchResponse(values, confidences []float64, requestID string) BatchResponse {
	results := make([]PredictionResult, len(values))
	for i := range values {
		results[i] = PredictionResult{
			Prediction: values[i],
			Confidence: confidences[i],
			Formatted:  format.Prediction(values[i], confidences[i]),
		}
	}
	return BatchResponse{Success: true, Predictions: results, RequestID: requestID}
}

// errorStatus maps a failure to its HTTP status: caller mistakes are 400,
// an unavailable model is 503, a request that ran out of time is 504.
func errorStatus(err error) int {
	var (
		me *ml.MissingFieldError
		le *ml.ModelLoadError
	)
	switch {
	case errors.Is(err, record.ErrNoData), errors.Is(err, ml.ErrEmptyBatch), errors.As(err, &me):
		return http.StatusBadRequest
	case errors.As(err, &le):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newErrorResponse(err error, requestID string) ErrorResponse {
	resp := ErrorResponse{Success: false, Error: err.Error(), RequestID: requestID}
	var me *ml.MissingFieldError
	if errors.As(err, &me) {
		resp.MissingFields = me.Fields
	}
	return resp
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, err error, requestID string) {
	respondJSON(w, status, newErrorResponse(err, requestID))
}
