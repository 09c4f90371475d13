package ml

import (
	"encoding/json"
	"fmt"
	"strings"

	"grocery-sales/internal/record"

	"gopkg.in/yaml.v3"
)

// FeatureSchema names the fields a trained model consumes. It is immutable:
// accessors return copies.
type FeatureSchema struct {
	categorical []string
	numerical   []string
}

// schemaDocument is the on-disk descriptor. YAML is a superset of JSON so
// both encodings are accepted.
type schemaDocument struct {
	CategoricalFeatures []string `yaml:"categorical_features" json:"categorical_features"`
	NumericalFeatures   []string `yaml:"numerical_features" json:"numerical_features"`
}

// NewFeatureSchema validates and builds a schema. The two lists must be
// disjoint, free of blank names, and together non-empty.
func NewFeatureSchema(categorical, numerical []string) (FeatureSchema, error) {
	if len(categorical)+len(numerical) == 0 {
		return FeatureSchema{}, fmt.Errorf("%w: no features declared", ErrInvalidSchema)
	}

	seen := make(map[string]struct{}, len(categorical)+len(numerical))
	for _, list := range [][]string{categorical, numerical} {
		for _, name := range list {
			if strings.TrimSpace(name) == "" {
				return FeatureSchema{}, fmt.Errorf("%w: blank feature name", ErrInvalidSchema)
			}
			if _, dup := seen[name]; dup {
				return FeatureSchema{}, fmt.Errorf("%w: feature %q listed more than once", ErrInvalidSchema, name)
			}
			seen[name] = struct{}{}
		}
	}

	return FeatureSchema{
		categorical: append([]string(nil), categorical...),
		numerical:   append([]string(nil), numerical...),
	}, nil
}

// ParseFeatureSchema decodes a JSON or YAML descriptor with
// categorical_features and numerical_features lists.
func ParseFeatureSchema(data []byte) (FeatureSchema, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return FeatureSchema{}, fmt.Errorf("parse feature schema: %w", err)
	}
	return NewFeatureSchema(doc.CategoricalFeatures, doc.NumericalFeatures)
}

// CategoricalFeatures returns the categorical feature names in order.
func (s FeatureSchema) CategoricalFeatures() []string {
	return append([]string(nil), s.categorical...)
}

// NumericalFeatures returns the numerical feature names in order.
func (s FeatureSchema) NumericalFeatures() []string {
	return append([]string(nil), s.numerical...)
}

// Required returns the union of both feature lists, categorical first.
func (s FeatureSchema) Required() []string {
	out := make([]string, 0, len(s.categorical)+len(s.numerical))
	out = append(out, s.categorical...)
	return append(out, s.numerical...)
}

// Missing returns the required fields absent from r, in schema order.
func (s FeatureSchema) Missing(r record.Record) []string {
	var missing []string
	for _, name := range s.Required() {
		if !r.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Project returns a new record holding only the required fields present in r.
func (s FeatureSchema) Project(r record.Record) record.Record {
	out := make(record.Record, len(s.categorical)+len(s.numerical))
	for _, name := range s.Required() {
		if v, ok := r[name]; ok {
			out[name] = v
		}
	}
	return out
}

// MarshalJSON writes the schema in descriptor form.
func (s FeatureSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(schemaDocument{CategoricalFeatures: s.categorical, NumericalFeatures: s.numerical})
}

// missingFields checks a batch and reports the union of absent fields.
func (s FeatureSchema) missingFields(recs []record.Record) *MissingFieldError {
	var rows []int
	absent := make(map[string]struct{})
	for i, r := range recs {
		m := s.Missing(r)
		if len(m) == 0 {
			continue
		}
		rows = append(rows, i)
		for _, name := range m {
			absent[name] = struct{}{}
		}
	}
	if len(rows) == 0 {
		return nil
	}

	fields := make([]string, 0, len(absent))
	for _, name := range s.Required() {
		if _, ok := absent[name]; ok {
			fields = append(fields, name)
		}
	}
	return &MissingFieldError{Fields: fields, Rows: rows}
}
