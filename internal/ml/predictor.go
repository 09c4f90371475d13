package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"grocery-sales/internal/common"
	"grocery-sales/internal/record"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultConfidence accompanies every prediction. It is a fixed value, not
// an uncertainty estimate derived from the model.
const DefaultConfidence = 0.85

// Failure kinds reported to MetricsInterface.MLFailuresInc
const (
	FailureLoad          = "load"
	FailureMissingFields = "missing_fields"
	FailureScoring       = "scoring"
	FailureEmpty         = "empty"
)

// ErrEmptyBatch is returned when PredictBatch is called with no records.
var ErrEmptyBatch = errors.New("no records to score")

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	MLPredictionsInc(n int)
	MLFailuresInc(kind string)
	MLLatencyObserve(float64)
	MLBatchSizeObserve(int)
	MLModelLoadsInc()
	MLModelLoadFailuresInc()
	MLModelLoadDurationObserve(float64)
	MLModelLoadedSet(bool)
	MLModelAgeSet(float64)
}

// Predictor owns a lazily loaded model and feature schema. The artifacts
// are acquired on first use; concurrent first calls share a single load and
// a failed load is retried by the next call. Once loaded the pair is never
// replaced.
type Predictor struct {
	loader      ArtifactLoader
	metrics     MetricsInterface
	loadTimeout time.Duration

	loaded atomic.Pointer[Artifacts]
	group  singleflight.Group
}

func New(loader ArtifactLoader) *Predictor {
	return NewWithMetrics(loader, nil, 0)
}

// NewWithMetrics creates a predictor reporting to metrics. A positive
// loadTimeout bounds each load attempt.
func NewWithMetrics(loader ArtifactLoader, metrics MetricsInterface, loadTimeout time.Duration) *Predictor {
	return &Predictor{
		loader:      loader,
		metrics:     metrics,
		loadTimeout: loadTimeout,
	}
}

// Load forces the artifacts to be loaded. It is a no-op once loaded.
func (p *Predictor) Load(ctx context.Context) error {
	_, err := p.ensureLoaded(ctx)
	return err
}

// Loaded reports whether the artifacts have been acquired.
func (p *Predictor) Loaded() bool {
	return p != nil && p.loaded.Load() != nil
}

// Info returns the metadata of the loaded model.
func (p *Predictor) Info() (ModelMetadata, bool) {
	if p == nil {
		return ModelMetadata{}, false
	}
	a := p.loaded.Load()
	if a == nil {
		return ModelMetadata{}, false
	}
	return a.Metadata, true
}

// Schema returns the loaded feature schema.
func (p *Predictor) Schema() (FeatureSchema, bool) {
	if p == nil {
		return FeatureSchema{}, false
	}
	a := p.loaded.Load()
	if a == nil {
		return FeatureSchema{}, false
	}
	return a.Schema, true
}

// Predict scores a single normalized record.
func (p *Predictor) Predict(ctx context.Context, rec record.Record) (float64, float64, error) {
	values, confidences, err := p.PredictBatch(ctx, []record.Record{rec})
	if err != nil {
		return 0, 0, err
	}
	return values[0], confidences[0], nil
}

// PredictBatch scores normalized records in order and returns one value and
// one confidence per record. All failures are reported as *PredictionError.
func (p *Predictor) PredictBatch(ctx context.Context, recs []record.Record) ([]float64, []float64, error) {
	if p == nil {
		return nil, nil, &PredictionError{Err: errors.New("predictor is nil")}
	}

	start := time.Now()
	values, err := p.score(ctx, recs)
	if err != nil {
		kind := failureKind(err)
		if p.metrics != nil {
			p.metrics.MLFailuresInc(kind)
		}
		log.Warn().Err(err).Str("kind", kind).Int("records", len(recs)).Msg("Prediction failed")
		return nil, nil, &PredictionError{Err: err}
	}

	confidences := make([]float64, len(values))
	for i := range confidences {
		confidences[i] = DefaultConfidence
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc(len(values))
		p.metrics.MLBatchSizeObserve(len(values))
		p.metrics.MLLatencyObserve(time.Since(start).Seconds())
	}
	return values, confidences, nil
}

func (p *Predictor) score(ctx context.Context, recs []record.Record) ([]float64, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyBatch
	}

	a, err := p.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	if missing := a.Schema.missingFields(recs); missing != nil {
		return nil, missing
	}

	rows := make([]record.Record, len(recs))
	for i, rec := range recs {
		row := a.Schema.Project(rec)
		delete(row, common.FieldSales)
		delete(row, common.FieldItemIdentifier)
		rows[i] = row
	}

	values, err := a.Model.Predict(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(values) != len(rows) {
		return nil, fmt.Errorf("model returned %d predictions for %d records", len(values), len(rows))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("model returned non-finite prediction %v for record %d", v, i)
		}
	}
	return values, nil
}

// ensureLoaded returns the loaded artifacts, loading them if necessary. The
// load itself is detached from the caller's cancellation so one impatient
// caller cannot fail a load other callers are waiting on.
func (p *Predictor) ensureLoaded(ctx context.Context) (*Artifacts, error) {
	if a := p.loaded.Load(); a != nil {
		return a, nil
	}

	ch := p.group.DoChan("load", func() (interface{}, error) {
		if a := p.loaded.Load(); a != nil {
			return a, nil
		}
		a, err := p.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.loaded.Store(a)
		return a, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Artifacts), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type loadResult struct {
	artifacts Artifacts
	err       error
}

func (p *Predictor) load(ctx context.Context) (*Artifacts, error) {
	if p.loader == nil {
		return nil, p.loadFailed(&ModelLoadError{Artifact: "artifacts", Err: errors.New("no artifact loader configured")}, 0)
	}

	if p.metrics != nil {
		p.metrics.MLModelLoadsInc()
	}
	start := time.Now()

	if p.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.loadTimeout)
		defer cancel()
	}

	// Run the loader in a goroutine so a loader that ignores ctx still
	// cannot hold the load past the timeout.
	done := make(chan loadResult, 1)
	go func() {
		a, err := p.loader.Load(ctx)
		done <- loadResult{artifacts: a, err: err}
	}()

	var res loadResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = fmt.Errorf("load timed out after %v: %w", p.loadTimeout, ctx.Err())
	}
	elapsed := time.Since(start)

	if res.err != nil {
		var le *ModelLoadError
		if !errors.As(res.err, &le) {
			res.err = &ModelLoadError{Artifact: "artifacts", Err: res.err}
		}
		return nil, p.loadFailed(res.err, elapsed)
	}

	a := res.artifacts
	if a.Model == nil {
		return nil, p.loadFailed(&ModelLoadError{Artifact: "model", Location: a.Metadata.Source, Err: errors.New("loader returned no model")}, elapsed)
	}
	if len(a.Schema.Required()) == 0 {
		return nil, p.loadFailed(&ModelLoadError{Artifact: "features", Err: fmt.Errorf("%w: no features declared", ErrInvalidSchema)}, elapsed)
	}
	if a.Metadata.LoadedAt.IsZero() {
		a.Metadata.LoadedAt = time.Now()
	}

	if p.metrics != nil {
		p.metrics.MLModelLoadDurationObserve(elapsed.Seconds())
		p.metrics.MLModelLoadedSet(true)
		if !a.Metadata.TrainedAt.IsZero() {
			p.metrics.MLModelAgeSet(time.Since(a.Metadata.TrainedAt).Seconds())
		}
	}

	log.Info().
		Str("kind", a.Metadata.Kind).
		Str("version", a.Metadata.Version).
		Str("source", a.Metadata.Source).
		Strs("categorical", a.Schema.CategoricalFeatures()).
		Strs("numerical", a.Schema.NumericalFeatures()).
		Dur("took", elapsed).
		Msg("Model loaded")

	return &a, nil
}

func (p *Predictor) loadFailed(err error, elapsed time.Duration) error {
	if p.metrics != nil {
		p.metrics.MLModelLoadFailuresInc()
		p.metrics.MLModelLoadedSet(false)
	}
	log.Error().Err(err).Dur("took", elapsed).Msg("Model load failed, will retry on next prediction")
	return err
}

func failureKind(err error) string {
	var (
		le *ModelLoadError
		me *MissingFieldError
	)
	switch {
	case errors.As(err, &le):
		return FailureLoad
	case errors.As(err, &me):
		return FailureMissingFields
	case errors.Is(err, ErrEmptyBatch):
		return FailureEmpty
	default:
		return FailureScoring
	}
}
