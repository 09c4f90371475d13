// Package ml loads trained sales models and serves validated predictions.
//
// A Predictor owns one model and its feature schema. Both are acquired
// lazily, exactly once, from an ArtifactLoader; a failed load is retried on
// the next call. Model artifacts are JSON documents whose "kind" selects the
// scoring implementation: "linear" models are evaluated in-process and
// "remote" models delegate to an HTTP scoring service.
package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grocery-sales/internal/record"
)

// Model is an opaque trained scoring function. Implementations must be safe
// for concurrent use and must return one value per row, in order.
type Model interface {
	Predict(ctx context.Context, rows []record.Record) ([]float64, error)
}

// Model artifact kinds
const (
	KindLinear = "linear"
	KindRemote = "remote"
)

// ModelMetadata describes a loaded model artifact
type ModelMetadata struct {
	Kind      string             `json:"kind"`
	Version   string             `json:"version"`
	Algorithm string             `json:"algorithm,omitempty"`
	TrainedAt time.Time          `json:"trained_at,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Source    string             `json:"source,omitempty"`
	LoadedAt  time.Time          `json:"loaded_at"`
}

// Artifacts is the immutable pair a Predictor serves from once loaded.
type Artifacts struct {
	Model    Model
	Schema   FeatureSchema
	Metadata ModelMetadata
}

// ArtifactLoader acquires the model and feature schema produced by training.
type ArtifactLoader interface {
	Load(ctx context.Context) (Artifacts, error)
}

// ArtifactLoaderFunc adapts a function to ArtifactLoader.
type ArtifactLoaderFunc func(ctx context.Context) (Artifacts, error)

func (f ArtifactLoaderFunc) Load(ctx context.Context) (Artifacts, error) { return f(ctx) }

type artifactHeader struct {
	Kind      string             `json:"kind"`
	Version   string             `json:"version"`
	Algorithm string             `json:"algorithm"`
	TrainedAt time.Time          `json:"trained_at"`
	Metrics   map[string]float64 `json:"metrics"`
}

// DecodeModel builds a Model from a serialized model artifact.
func DecodeModel(data []byte) (Model, ModelMetadata, error) {
	var hdr artifactHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, ModelMetadata{}, fmt.Errorf("parse model artifact: %w", err)
	}

	md := ModelMetadata{
		Kind:      hdr.Kind,
		Version:   hdr.Version,
		Algorithm: hdr.Algorithm,
		TrainedAt: hdr.TrainedAt,
		Metrics:   hdr.Metrics,
	}
	if md.Version == "" {
		md.Version = "unknown"
	}

	var (
		m   Model
		err error
	)
	switch hdr.Kind {
	case KindLinear:
		m, err = decodeLinearModel(data)
	case KindRemote:
		m, err = decodeRemoteModel(data)
	case "":
		err = fmt.Errorf("model artifact has no kind")
	default:
		err = fmt.Errorf("unsupported model kind %q", hdr.Kind)
	}
	if err != nil {
		return nil, ModelMetadata{}, err
	}
	return m, md, nil
}

// DecodeArtifacts decodes a model artifact and a feature-schema descriptor
// read from source. Failures are reported as *ModelLoadError.
func DecodeArtifacts(modelData, schemaData []byte, modelSource, schemaSource string) (Artifacts, error) {
	m, md, err := DecodeModel(modelData)
	if err != nil {
		return Artifacts{}, &ModelLoadError{Artifact: "model", Location: modelSource, Err: err}
	}
	schema, err := ParseFeatureSchema(schemaData)
	if err != nil {
		return Artifacts{}, &ModelLoadError{Artifact: "features", Location: schemaSource, Err: err}
	}
	md.Source = modelSource
	return Artifacts{Model: m, Schema: schema, Metadata: md}, nil
}
