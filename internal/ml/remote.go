package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grocery-sales/internal/record"

	"github.com/go-resty/resty/v2"
)

const defaultRemoteTimeout = 5 * time.Second

// RemoteModel scores rows through an HTTP scoring service, e.g. a sidecar
// that hosts the training pipeline's native model object.
type RemoteModel struct {
	endpoint string
	rest     *resty.Client
}

type remoteConfig struct {
	Endpoint string `json:"endpoint"`
	Timeout  string `json:"timeout"`
}

type scoreRequest struct {
	Instances []record.Record `json:"instances"`
}

type scoreResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// NewRemoteModel creates a client for the scoring service at endpoint.
func NewRemoteModel(endpoint string, timeout time.Duration) *RemoteModel {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(defaultRemoteTimeout)
	}
	return &RemoteModel{endpoint: endpoint, rest: r}
}

func decodeRemoteModel(data []byte) (*RemoteModel, error) {
	var conf remoteConfig
	if err := json.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("decode remote model: %w", err)
	}
	if conf.Endpoint == "" {
		return nil, fmt.Errorf("remote model has no endpoint")
	}

	var timeout time.Duration
	if conf.Timeout != "" {
		d, err := time.ParseDuration(conf.Timeout)
		if err != nil {
			return nil, fmt.Errorf("remote model timeout: %w", err)
		}
		timeout = d
	}
	return NewRemoteModel(conf.Endpoint, timeout), nil
}

func (m *RemoteModel) Predict(ctx context.Context, rows []record.Record) ([]float64, error) {
	result := &scoreResponse{}
	resp, err := m.rest.R().
		SetContext(ctx).
		SetBody(scoreRequest{Instances: rows}).
		SetResult(result).
		SetError(result).
		Post(m.endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		if result.Error != "" {
			return nil, fmt.Errorf("scoring service error: status %d: %s", resp.StatusCode(), result.Error)
		}
		return nil, fmt.Errorf("scoring service error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return result.Predictions, nil
}
