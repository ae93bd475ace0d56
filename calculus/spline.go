package calculus

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/mkarakoc/BiFold/core"
)

// Parity selects how samples are reflected to negative x.
type Parity int

const (
	// Even functions keep their sign under x → -x.
	Even Parity = 1
	// Odd functions flip sign under x → -x.
	Odd Parity = -1
)

// ErrNegativeOrigin is returned when a mesh to be mirrored starts below 0.
var ErrNegativeOrigin = errors.New("mirrored mesh must start at or above the origin")

// DefaultSkip is the decimation step used when none is given: 2.5% of the
// mesh length, at least 1.
func DefaultSkip(n int) int {
	skip := int(float64(n) * 2.5 / 100)
	if skip < 1 {
		skip = 1
	}
	return skip
}

// SplineResample smooths f by fitting a not-a-knot cubic spline through
// every skip-th sample, reflected to negative x with the given parity, and
// evaluating it back on x. The last sample is always a node. skip <= 0
// selects DefaultSkip.
func SplineResample(x, f []float64, skip int, parity Parity) ([]float64, error) {
	if len(f) != len(x) {
		return nil, fmt.Errorf("%w: %d samples, %d points", ErrLengthMismatch, len(f), len(x))
	}
	if len(x) < 3 {
		return nil, fmt.Errorf("%w: got %d", core.ErrShortMesh, len(x))
	}
	if err := core.ValidateAxis(x); err != nil {
		return nil, err
	}
	if x[0] < 0 {
		return nil, fmt.Errorf("%w: x[0]=%g", ErrNegativeOrigin, x[0])
	}
	if skip <= 0 {
		skip = DefaultSkip(len(x))
	}

	idx := nodeIndices(len(x), skip)
	m := len(idx)
	xs := make([]float64, 0, 2*m-1)
	ys := make([]float64, 0, 2*m-1)
	for k := m - 1; k >= 1; k-- {
		i := idx[k]
		xs = append(xs, -x[i])
		ys = append(ys, float64(parity)*f[i])
	}
	for _, i := range idx {
		xs = append(xs, x[i])
		ys = append(ys, f[i])
	}
	var spline interp.NotAKnotCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("spline fit: %w", err)
	}
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = spline.Predict(xi)
	}
	return out, nil
}

func nodeIndices(n, skip int) []int {
	idx := make([]int, 0, n/skip+2)
	for i := 0; i < n; i += skip {
		idx = append(idx, i)
	}
	if idx[len(idx)-1] != n-1 {
		idx = append(idx, n-1)
	}
	return idx
}

// SmoothDerivative1 smooths f, differentiates once and smooths the odd
// result.
func SmoothDerivative1(x, f []float64, skip int) ([]float64, error) {
	return smoothDerivative(x, f, skip, Derivative1, Odd)
}

// SmoothDerivative2 smooths f, differentiates twice and smooths the even
// result.
func SmoothDerivative2(x, f []float64, skip int) ([]float64, error) {
	return smoothDerivative(x, f, skip, Derivative2, Even)
}

func smoothDerivative(x, f []float64, skip int,
	deriv func(x, f []float64, opts ...DerivOption) ([]float64, error), parity Parity) ([]float64, error) {
	smoothed, err := SplineResample(x, f, skip, Even)
	if err != nil {
		return nil, err
	}
	d, err := deriv(x, smoothed)
	if err != nil {
		return nil, err
	}
	return SplineResample(x, d, skip, parity)
}

// PolyExtrapolate evaluates the polynomial coeffs (highest power first)
// on the points of x inside [xMin, xMax], extends it over all of x by
// holding the end values, and smooths the result.
func PolyExtrapolate(x []float64, xMin, xMax float64, coeffs []float64) ([]float64, error) {
	var xw, yw []float64
	for _, xi := range x {
		if xi >= xMin && xi <= xMax {
			xw = append(xw, xi)
			yw = append(yw, Polyval(coeffs, xi))
		}
	}
	if len(xw) < 2 {
		return nil, fmt.Errorf("%w: %d points in [%g, %g]", core.ErrShortMesh, len(xw), xMin, xMax)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xw, yw); err != nil {
		return nil, err
	}
	f := make([]float64, len(x))
	for i, xi := range x {
		f[i] = pl.Predict(xi)
	}
	return SplineResample(x, f, 0, Even)
}

// Polyval evaluates coeffs (highest power first) at x by Horner's rule.
func Polyval(coeffs []float64, x float64) float64 {
	var y float64
	for _, c := range coeffs {
		y = y*x + c
	}
	return y
}
