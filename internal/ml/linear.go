package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"grocery-sales/internal/record"

	"github.com/xeipuuv/gojsonschema"
)

// linearArtifactSchema constrains the "linear" model artifact before it is
// decoded, so a truncated or hand-edited file fails with a precise message.
const linearArtifactSchema = `{
  "type": "object",
  "required": ["kind", "intercept"],
  "properties": {
    "kind": {"type": "string", "enum": ["linear"]},
    "version": {"type": "string"},
    "intercept": {"type": "number"},
    "numerical": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["coef"],
        "properties": {
          "mean": {"type": "number"},
          "scale": {"type": "number", "minimum": 0},
          "coef": {"type": "number"}
        }
      }
    },
    "categorical": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": {"type": "number"}
      }
    }
  }
}`

var linearSchemaLoader = gojsonschema.NewStringLoader(linearArtifactSchema)

// numericTerm is a standard-scaled linear term with mean imputation.
type numericTerm struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
	Coef  float64 `json:"coef"`
}

// linearModel evaluates intercept + Σ coef·(x−mean)/scale + Σ onehot weights.
// Null numerics are imputed with the mean; unseen categories contribute 0.
type linearModel struct {
	Intercept   float64                       `json:"intercept"`
	Numerical   map[string]numericTerm        `json:"numerical"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

func decodeLinearModel(data []byte) (*linearModel, error) {
	result, err := gojsonschema.Validate(linearSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate linear model: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid linear model: %s", strings.Join(msgs, "; "))
	}

	var m linearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode linear model: %w", err)
	}
	for name, term := range m.Numerical {
		if term.Scale == 0 {
			term.Scale = 1 // constant column at training time
			m.Numerical[name] = term
		}
	}
	return &m, nil
}

func (m *linearModel) Predict(ctx context.Context, rows []record.Record) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := m.score(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (m *linearModel) score(row record.Record) (float64, error) {
	y := m.Intercept

	for name, term := range m.Numerical {
		raw, ok := row[name]
		if !ok || raw == nil {
			continue // imputed with the mean, so the term is zero
		}
		x, ok := record.ToFloat(raw)
		if !ok {
			return 0, fmt.Errorf("feature %q: value %v is not numeric", name, raw)
		}
		y += term.Coef * (x - term.Mean) / term.Scale
	}

	for name, weights := range m.Categorical {
		raw, ok := row[name]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return 0, fmt.Errorf("feature %q: value %v is not a category", name, raw)
		}
		y += weights[s]
	}

	return y, nil
}
