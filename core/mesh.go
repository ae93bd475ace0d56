package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Zero is the mesh floor used in place of an exact 0 so that 1/x and
// sin(tx)/t stay finite at the first point.
const Zero = 1e-10

// UniformTolerance is the relative spread of spacings accepted as uniform.
const UniformTolerance = 1e-6

// Mesh validation errors
var (
	ErrShortMesh      = errors.New("mesh needs at least 3 points")
	ErrEvenMesh       = errors.New("mesh length must be odd")
	ErrNotIncreasing  = errors.New("mesh must be strictly increasing")
	ErrNonUniformMesh = errors.New("mesh spacing is not uniform")
	ErrBadMeshRange   = errors.New("invalid mesh range")
)

// NewMesh returns an odd-length uniform mesh starting at min with spacing
// step. The last point is max or, when that would give an even count,
// max+step.
func NewMesh(min, max, step float64) ([]float64, error) {
	if step <= 0 || max <= min || math.IsNaN(min) || math.IsInf(max, 0) {
		return nil, fmt.Errorf("%w: [%g, %g] step %g", ErrBadMeshRange, min, max, step)
	}
	n := int(math.Round((max-min)/step)) + 1
	if n%2 == 0 {
		n++
	}
	if n < 3 {
		n = 3
	}
	x := make([]float64, n)
	floats.Span(x, min, min+float64(n-1)*step)
	return x, nil
}

// MustMesh is NewMesh for fixed, known-good ranges; it panics on error.
func MustMesh(min, max, step float64) []float64 {
	x, err := NewMesh(min, max, step)
	if err != nil {
		panic(err)
	}
	return x
}

// Step returns the spacing of a uniform mesh.
func Step(x []float64) float64 {
	return x[1] - x[0]
}

// ValidateMesh checks that x can be integrated with the composite rules:
// odd length of at least 3, strictly increasing, uniform spacing.
func ValidateMesh(x []float64) error {
	if len(x) < 3 {
		return fmt.Errorf("%w: got %d", ErrShortMesh, len(x))
	}
	if len(x)%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrEvenMesh, len(x))
	}
	dx := x[1] - x[0]
	if !(dx > 0) {
		return fmt.Errorf("%w: x[0]=%g x[1]=%g", ErrNotIncreasing, x[0], x[1])
	}
	for i := 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		if !(d > 0) {
			return fmt.Errorf("%w: at index %d", ErrNotIncreasing, i)
		}
		if math.Abs(d-dx) > UniformTolerance*dx {
			return fmt.Errorf("%w: step %g at index %d, want %g", ErrNonUniformMesh, d, i, dx)
		}
	}
	return nil
}

// ValidateAxis is the weaker check used for evaluation points (the t or R
// grid of a transform): non-empty and strictly increasing.
func ValidateAxis(x []float64) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: empty axis", ErrShortMesh)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return fmt.Errorf("%w: at index %d", ErrNotIncreasing, i)
		}
	}
	return nil
}
