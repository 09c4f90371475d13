package metrics

// PredictorWrapper adapts Metrics to the predictor's metrics interface so
// the ml package does not depend on Prometheus.
type PredictorWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *PredictorWrapper {
	return &PredictorWrapper{m: m}
}

func (w *PredictorWrapper) MLPredictionsInc(n int) {
	w.m.MLPredictions.Add(float64(n))
}

func (w *PredictorWrapper) MLFailuresInc(kind string) {
	w.m.MLFailures.WithLabelValues(kind).Inc()
}

func (w *PredictorWrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *PredictorWrapper) MLBatchSizeObserve(n int) {
	w.m.MLBatchSize.Observe(float64(n))
}

func (w *PredictorWrapper) MLModelLoadsInc() {
	w.m.MLModelLoads.Inc()
}

func (w *PredictorWrapper) MLModelLoadFailuresInc() {
	w.m.MLModelLoadFailures.Inc()
}

func (w *PredictorWrapper) MLModelLoadDurationObserve(v float64) {
	w.m.MLModelLoadDuration.Observe(v)
}

func (w *PredictorWrapper) MLModelLoadedSet(loaded bool) {
	if loaded {
		w.m.MLModelLoaded.Set(1)
		return
	}
	w.m.MLModelLoaded.Set(0)
}

func (w *PredictorWrapper) MLModelAgeSet(v float64) {
	w.m.MLModelAge.Set(v)
}
