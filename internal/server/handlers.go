package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"grocery-sales/internal/common"
	"grocery-sales/internal/preprocess"
	"grocery-sales/internal/record"

	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, loaded := s.predictor.Info()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": loaded,
	})
}

// handlePredict scores a JSON object, or each element of a JSON array.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, status, fmt.Errorf("read request body: %w", err), reqID)
		return
	}

	recs, batch, err := record.Decode(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err, reqID)
		return
	}

	if !batch {
		s.predictOne(w, r, recs[0], reqID)
		return
	}

	normalized := preprocess.NormalizeAll(recs)
	s.countNormalized(len(normalized))

	values, confidences, err := s.predictor.PredictBatch(r.Context(), normalized)
	if err != nil {
		respondError(w, errorStatus(err), err, reqID)
		return
	}
	respondJSON(w, http.StatusOK, newBatchResponse(values, confidences, reqID))
}

// handlePredictForm scores url-encoded or multipart form fields. Empty
// values are treated as absent so that defaults apply.
func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && err != http.ErrNotMultipart {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err), reqID)
		return
	}

	rec := make(record.Record, len(r.PostForm))
	for key := range r.PostForm {
		if v := strings.TrimSpace(r.PostForm.Get(key)); v != "" {
			rec[key] = v
		}
	}
	s.predictOne(w, r, rec, reqID)
}

func (s *Server) predictOne(w http.ResponseWriter, r *http.Request, raw record.Record, reqID string) {
	rec := preprocess.Normalize(raw)
	s.countNormalized(1)

	value, confidence, err := s.predictor.Predict(r.Context(), rec)
	if err != nil {
		respondError(w, errorStatus(err), err, reqID)
		return
	}
	respondJSON(w, http.StatusOK, newPredictionResponse(value, confidence, reqID))
}

func (s *Server) handleItemTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"item_types": common.ItemTypes,
	})
}

func (s *Server) handleOutletTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"outlet_types":     common.OutletTypes,
		"outlet_sizes":     common.OutletSizes,
		"outlet_locations": common.OutletLocationTypes,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, loaded := s.predictor.Info()
	if !loaded {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"loaded":  false,
		})
		return
	}

	schema, _ := s.predictor.Schema()
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"loaded":   true,
		"model":    info,
		"features": schema,
	})
}

func (s *Server) countNormalized(n int) {
	if s.metrics != nil {
		s.metrics.RecordsNormalized.Add(float64(n))
	}
}
