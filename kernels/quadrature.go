// Package kernels provides the quadrature kernels of the folding engine.
//
// Two integrators over a uniform, odd-length mesh are available: the
// composite Simpson 1/3 rule and Filon's method for integrands carrying a
// sin(t·x) factor. Both are exposed as plain functions and through the
// Integrator interface, which evaluates the Fourier-Bessel weight
// ∫ f(x)·x²·j_n(t·x) dx needed by the transform drivers.
//
// The strategy is selected by Method when an Integrator is constructed.
package kernels

import (
	"errors"
	"fmt"
	"math"

	"github.com/mkarakoc/BiFold/core"
)

// Quadrature errors
var (
	ErrLengthMismatch   = errors.New("samples and mesh differ in length")
	ErrZeroFrequency    = errors.New("filon frequency must be finite and non-zero")
	ErrUnsupportedOrder = errors.New("unsupported Bessel order")
)

const twoPi = 2 * math.Pi

// Filon coefficients switch to their power series below this θ.
const filonSeriesTheta = 1.0 / 6.0

// -------- Simpson ----------

// Simpson integrates f over the uniform mesh x with the composite 1/3
// rule. x must have an odd number of points, at least 3; uniformity is
// assumed, not checked.
func Simpson(f, x []float64) (float64, error) {
	if err := checkSamples(f, x); err != nil {
		return 0, err
	}
	return simpson(f, x[1]-x[0]), nil
}

// simpson is the unchecked rule: (f0 + 4Σodd + 2Σeven + fN)·dx/3.
func simpson(f []float64, dx float64) float64 {
	n := len(f)
	var odd, even float64
	for i := 1; i < n-1; i += 2 {
		odd += f[i]
	}
	for i := 2; i < n-1; i += 2 {
		even += f[i]
	}
	return (f[0] + 4*odd + 2*even + f[n-1]) * dx / 3
}

// -------- Filon ----------

// Filon approximates ∫ g(x)·sin(t·x)/t dx over the uniform mesh x.
//
// The weight g/t is undefined-like at a mesh starting at the origin, so
// its first sample is replaced by the linear extrapolation of OriginValue
// before the rule is applied. t must be finite and non-zero; callers
// iterate t over meshes floored at core.Zero.
func Filon(g, x []float64, t float64) (float64, error) {
	if err := checkSamples(g, x); err != nil {
		return 0, err
	}
	if t == 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: t=%g", ErrZeroFrequency, t)
	}
	w := make([]float64, len(g))
	return filon(g, x, t, w), nil
}

// filon is the unchecked rule. w is scratch space of len(g).
func filon(g, x []float64, t float64, w []float64) float64 {
	n := len(g)
	for i := range g {
		w[i] = g[i] / t
	}
	w[0] = OriginValue(x, w)

	dx := x[1] - x[0]
	alpha, beta, gamma := filonCoefficients(t * dx)

	var even, odd float64
	for i := 0; i < n; i += 2 {
		even += w[i] * sinm(t*x[i])
	}
	even -= (w[0]*sinm(t*x[0]) + w[n-1]*sinm(t*x[n-1])) / 2
	for i := 1; i < n; i += 2 {
		odd += w[i] * sinm(t*x[i])
	}

	ends := w[0]*cosm(t*x[0]) - w[n-1]*cosm(t*x[n-1])
	return (alpha*ends + beta*even + gamma*odd) * dx
}

// filonCoefficients returns α(θ), β(θ), γ(θ). The closed forms divide by
// θ³ and cancel catastrophically for small θ, where the Abramowitz-Stegun
// series (25.4.47) is used instead.
func filonCoefficients(theta float64) (alpha, beta, gamma float64) {
	if math.Abs(theta) <= filonSeriesTheta {
		t2 := theta * theta
		t3 := t2 * theta
		t4 := t2 * t2
		t6 := t4 * t2
		t8 := t4 * t4
		alpha = 2*t3/45 - 2*t3*t2/315 + 2*t3*t4/4725
		beta = 2.0/3 + 2*t2/15 - 4*t4/105 + 2*t6/567 - 4*t8/22275
		gamma = 4.0/3 - 2*t2/15 + t4/210 - t6/11340
		return alpha, beta, gamma
	}

	t2 := theta * theta
	t3 := t2 * theta
	s, c := sinm(theta), cosm(theta)
	alpha = 1/theta + s*c/t2 - 2*s*s/t3
	beta = 2 * ((1+c*c)/t2 - 2*s*c/t3)
	gamma = 4 * (s/t3 - c/t2)
	return alpha, beta, gamma
}

// sinm and cosm reduce the phase modulo 2π before evaluation.
func sinm(x float64) float64 { return math.Sin(math.Mod(x, twoPi)) }
func cosm(x float64) float64 { return math.Cos(math.Mod(x, twoPi)) }

func checkSamples(f, x []float64) error {
	if len(f) != len(x) {
		return fmt.Errorf("%w: %d samples, %d points", ErrLengthMismatch, len(f), len(x))
	}
	if len(x) < 3 {
		return fmt.Errorf("%w: got %d", core.ErrShortMesh, len(x))
	}
	if len(x)%2 == 0 {
		return fmt.Errorf("%w: got %d", core.ErrEvenMesh, len(x))
	}
	return nil
}
