// Package core provides the shared primitives of the BiFold folding engine.
//
// A sampled function is a plain []float64 co-indexed with a uniform mesh.
// Numeric arrays never carry metadata; descriptive information (name,
// multipolarity, normalisation, volume integrals) travels next to the
// values in a Func as a list of Records, and is combined explicitly by
// the caller rather than merged by arithmetic.
//
// Key components:
//   - Mesh construction and validation (odd length, uniform spacing)
//   - Func and Record: values plus provenance
//   - Binary sample encoding with integrity checking
package core

import (
	"errors"
	"fmt"
	"math"
)

// Record describes how a sampled function was produced.
type Record struct {
	Name    string             `json:"name" yaml:"name"`
	L       int                `json:"l" yaml:"l"`
	Norm    float64            `json:"norm,omitempty" yaml:"norm,omitempty"`
	HasNorm bool               `json:"has_norm,omitempty" yaml:"has_norm,omitempty"`
	Renorm  float64            `json:"renorm" yaml:"renorm"`
	Vol2    float64            `json:"vol2" yaml:"vol2"`
	Vol4    float64            `json:"vol4" yaml:"vol4"`
	MSR     float64            `json:"msr" yaml:"msr"`
	Params  map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// Func is a sampled function with its provenance records.
type Func struct {
	Values []float64
	Info   []Record
}

// Errors returned by Func helpers
var (
	ErrEmptyFunc      = errors.New("function has no samples")
	ErrNonFinite      = errors.New("function has non-finite samples")
	ErrLengthMismatch = errors.New("length mismatch")
)

// Len returns the number of samples.
func (f Func) Len() int {
	return len(f.Values)
}

// Name returns the name of the first record, or "" when there is none.
func (f Func) Name() string {
	if len(f.Info) == 0 {
		return ""
	}
	return f.Info[0].Name
}

// Validate checks that f has finite samples and, when mesh is non-nil,
// the same length as mesh.
func (f Func) Validate(mesh []float64) error {
	if len(f.Values) == 0 {
		return ErrEmptyFunc
	}
	if mesh != nil && len(mesh) != len(f.Values) {
		return fmt.Errorf("%w: %d samples on %d mesh points", ErrLengthMismatch, len(f.Values), len(mesh))
	}
	for i, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}
	return nil
}

// Clone returns a deep copy of f.
func (f Func) Clone() Func {
	out := Func{
		Values: append([]float64(nil), f.Values...),
		Info:   make([]Record, len(f.Info)),
	}
	for i, r := range f.Info {
		out.Info[i] = r.clone()
	}
	return out
}

// Scale returns c·f. The records are copied unchanged; the volume
// integrals of the scaled function are the caller's business.
func (f Func) Scale(c float64) Func {
	out := f.Clone()
	for i := range out.Values {
		out.Values[i] *= c
	}
	return out
}

// Combine builds a Func from already-computed values and the records of
// the functions that produced them, in order.
func Combine(values []float64, parts ...Func) Func {
	var info []Record
	for _, p := range parts {
		for _, r := range p.Info {
			info = append(info, r.clone())
		}
	}
	return Func{Values: values, Info: info}
}

func (r Record) clone() Record {
	if r.Params == nil {
		return r
	}
	params := make(map[string]float64, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	r.Params = params
	return r
}
