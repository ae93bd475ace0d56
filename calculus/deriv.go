// Package calculus provides finite-difference derivatives and cubic-spline
// smoothing of sampled radial functions.
//
// Derivatives are central differences with a step equal to the mesh
// spacing, evaluated through linear interpolation of the samples so that
// the first and last points are defined: outside the mesh the
// interpolant holds its end values. Noisy data is smoothed through a
// not-a-knot cubic spline fitted to a decimated copy of the samples
// mirrored about the origin.
package calculus

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/mkarakoc/BiFold/core"
)

// Errors
var (
	ErrLengthMismatch = errors.New("samples and mesh differ in length")
	ErrOutLength      = errors.New("output slice has the wrong length")
)

type derivParams struct{ out []float64 }

// DerivOption configures Derivative1 and Derivative2.
type DerivOption func(*derivParams)

// Out supplies a slice to write derivatives to.
func Out(out []float64) DerivOption {
	return func(p *derivParams) { p.out = out }
}

func (p *derivParams) loadOptions(opts []DerivOption) {
	for _, opt := range opts {
		opt(p)
	}
}

// Derivative1 returns (f(x+dx) - f(x-dx)) / 2dx at every mesh point.
func Derivative1(x, f []float64, opts ...DerivOption) ([]float64, error) {
	pl, out, err := prepareDeriv(x, f, opts)
	if err != nil {
		return nil, err
	}
	dx := x[1] - x[0]
	for i, xi := range x {
		out[i] = (pl.Predict(xi+dx) - pl.Predict(xi-dx)) / dx / 2
	}
	return out, nil
}

// Derivative2 returns (f(x+dx) + f(x-dx) - 2f(x)) / dx² at every mesh point.
func Derivative2(x, f []float64, opts ...DerivOption) ([]float64, error) {
	pl, out, err := prepareDeriv(x, f, opts)
	if err != nil {
		return nil, err
	}
	dx := x[1] - x[0]
	for i, xi := range x {
		out[i] = (pl.Predict(xi+dx) + pl.Predict(xi-dx) - 2*pl.Predict(xi)) / dx / dx
	}
	return out, nil
}

func prepareDeriv(x, f []float64, opts []DerivOption) (*interp.PiecewiseLinear, []float64, error) {
	if len(f) != len(x) {
		return nil, nil, fmt.Errorf("%w: %d samples, %d points", ErrLengthMismatch, len(f), len(x))
	}
	if len(x) < 2 {
		return nil, nil, fmt.Errorf("%w: got %d", core.ErrShortMesh, len(x))
	}
	if err := core.ValidateAxis(x); err != nil {
		return nil, nil, err
	}

	p := new(derivParams)
	p.loadOptions(opts)
	out := p.out
	if out == nil {
		out = make([]float64, len(x))
	} else if len(out) != len(x) {
		return nil, nil, fmt.Errorf("%w: %d, want %d", ErrOutLength, len(out), len(x))
	}

	pl := new(interp.PiecewiseLinear)
	if err := pl.Fit(x, f); err != nil {
		return nil, nil, err
	}
	return pl, out, nil
}
