package model

import (
	"fmt"
	"strings"
)

// LabelPrefix is reserved for label columns and can never be a feature.
const LabelPrefix = "target_"

// Schema is the ordered list of feature names building a feature vector.
// Extensions tracks the version of every custom indicator contributing a feature.
type Schema struct {
	Features   []string          `json:"features"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

// NewSchema creates a schema for the given feature names.
func NewSchema(features ...string) Schema {
	ff := make([]string, len(features))
	copy(ff, features)
	return Schema{
		Features: ff,
	}
}

// Len returns the number of features.
func (s Schema) Len() int {
	return len(s.Features)
}

// Validate checks that the schema can be used to build a feature vector.
func (s Schema) Validate() error {
	if len(s.Features) == 0 {
		return fmt.Errorf("empty feature schema: %w", ConfigErr)
	}
	seen := make(map[string]struct{}, len(s.Features))
	for _, f := range s.Features {
		if f == "" || f == TimeField || strings.HasPrefix(f, LabelPrefix) {
			return fmt.Errorf("feature '%s' is not allowed in schema: %w", f, ConfigErr)
		}
		if _, ok := seen[f]; ok {
			return fmt.Errorf("duplicate feature '%s' in schema: %w", f, ConfigErr)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// Equal checks if both schemas produce identical feature vectors.
func (s Schema) Equal(other Schema) bool {
	if len(s.Features) != len(other.Features) {
		return false
	}
	for i, f := range s.Features {
		if other.Features[i] != f {
			return false
		}
	}
	if len(s.Extensions) != len(other.Extensions) {
		return false
	}
	for k, v := range s.Extensions {
		if other.Extensions[k] != v {
			return false
		}
	}
	return true
}

// Vector extracts the feature vector of the bar in schema order.
func (s Schema) Vector(bar IndicatorizedBar) ([]float64, error) {
	x := make([]float64, len(s.Features))
	for i, f := range s.Features {
		v, ok := bar.Field(f)
		if !ok {
			return nil, fmt.Errorf("feature '%s' missing for bar at %v: %w", f, bar.Time, ConfigErr)
		}
		x[i] = v
	}
	return x, nil
}
