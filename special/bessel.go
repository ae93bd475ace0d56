// Package special evaluates the spherical Bessel functions used by the
// Fourier-Bessel transforms.
//
// j_n(x) is built as u(n,x)·sin x + v(n,x)·cos x where u and v are
// polynomials in 1/x obtained from forward three-term recurrences seeded
// at n = 0. Near the origin, where u·sin and v·cos cancel, the ascending
// power series is summed instead.
package special

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeOrder is returned for a Bessel order below zero.
var ErrNegativeOrder = errors.New("spherical Bessel order must be non-negative")

const (
	seriesTerms = 60
	seriesEps   = 1e-17
)

// SphericalJ evaluates j_n at every point of x into a new slice.
func SphericalJ(n int, x []float64) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeOrder, n)
	}
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = Jn(n, xi)
	}
	return out, nil
}

// Jn returns the spherical Bessel function j_n(x). n must be >= 0; a
// negative order yields NaN.
func Jn(n int, x float64) float64 {
	switch {
	case n < 0:
		return math.NaN()
	case x == 0:
		if n == 0 {
			return 1
		}
		return 0
	case math.Abs(x) < seriesCutoff(n):
		return jnSeries(n, x)
	}
	s, c := math.Sincos(x)
	return jnSin(n, x)*s + jnCos(n, x)*c
}

func seriesCutoff(n int) float64 {
	return math.Max(1, float64(n))
}

// jnSin is u(n, x), the coefficient of sin x.
func jnSin(n int, x float64) float64 {
	a, b := 0.0, 1/x
	for i := 1; i <= n; i++ {
		a, b = b, float64(2*i-1)*b/x-a
	}
	return b
}

// jnCos is v(n, x), the coefficient of cos x. v(0, x) = 0.
func jnCos(n int, x float64) float64 {
	if n == 0 {
		return 0
	}
	b := 1 / x
	a := b / x
	for i := 1; i <= n+1; i++ {
		a, b = b, float64(3-2*i)*b/x-a
	}
	if (n+1)%2 == 1 {
		return -b
	}
	return b
}

// jnSeries sums x^n/(2n+1)!! · Σ_k (-x²/2)^k / (k! (2n+3)(2n+5)···(2n+2k+1)).
func jnSeries(n int, x float64) float64 {
	lead := 1.0
	for i := 1; i <= n; i++ {
		lead *= x / float64(2*i+1)
	}
	h := -x * x / 2
	term, sum := 1.0, 1.0
	for k := 1; k <= seriesTerms; k++ {
		term *= h / float64(k*(2*n+2*k+1))
		sum += term
		if math.Abs(term) < seriesEps*math.Abs(sum) {
			break
		}
	}
	return lead * sum
}

// JHat1 returns 3·j_1(x)/x for every point of x. The first sample is
// pinned to the x→0 limit of 1.
func JHat1(x []float64) []float64 {
	out := make([]float64, len(x))
	JHat1Into(out, x)
	return out
}

// JHat1Into is JHat1 writing into dst, which must be as long as x.
func JHat1Into(dst, x []float64) {
	for i, xi := range x {
		dst[i] = jHat1(xi)
	}
	if len(dst) > 0 {
		dst[0] = 1.0
	}
}

func jHat1(x float64) float64 {
	if math.Abs(x) < 1 {
		h := -x * x / 2
		term, sum := 1.0, 1.0
		for k := 1; k <= seriesTerms; k++ {
			term *= h / float64(k*(2*k+3))
			sum += term
			if math.Abs(term) < seriesEps {
				break
			}
		}
		return sum
	}
	s, c := math.Sincos(x)
	return 3 * (s - x*c) / (x * x * x)
}
