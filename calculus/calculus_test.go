package calculus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarakoc/BiFold/core"
)

func sample(x []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = fn(xi)
	}
	return out
}

func gauss(r float64) float64 { return math.Exp(-r * r) }

func TestDerivative1Interior(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 6, 0.01)
	f := sample(x, gauss)

	d, err := Derivative1(x, f)
	require.NoError(t, err)
	for i := 1; i < len(x)-1; i++ {
		want := -2 * x[i] * gauss(x[i])
		assert.InDelta(t, want, d[i], 1e-4, "r=%g", x[i])
	}

	// below the mesh the interpolant holds f[0]
	dx := x[1] - x[0]
	assert.InDelta(t, (f[1]-f[0])/(2*dx), d[0], 1e-12)
}

func TestDerivative2OfQuadratic(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 2, 0.05)
	f := sample(x, func(r float64) float64 { return r*r - r })

	d, err := Derivative2(x, f)
	require.NoError(t, err)
	for i := 1; i < len(x)-1; i++ {
		assert.InDelta(t, 2.0, d[i], 1e-6, "r=%g", x[i])
	}
}

func TestDerivativeOut(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 1, 0.1)
	f := sample(x, func(r float64) float64 { return 3 * r })

	out := make([]float64, len(x))
	d, err := Derivative1(x, f, Out(out))
	require.NoError(t, err)
	assert.Same(t, &out[0], &d[0])
	assert.InDelta(t, 3.0, out[5], 1e-12)

	_, err = Derivative1(x, f, Out(make([]float64, 2)))
	assert.ErrorIs(t, err, ErrOutLength)
	_, err = Derivative2(x, f[:3])
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = Derivative1([]float64{1, 0}, []float64{1, 2})
	assert.ErrorIs(t, err, core.ErrNotIncreasing)
}

func TestDefaultSkip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5, DefaultSkip(201))
	assert.Equal(t, 1, DefaultSkip(10))
}

func TestNodeIndicesKeepLastPoint(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{0, 5, 10}, nodeIndices(11, 5))
	assert.Equal(t, []int{0, 5, 10, 11}, nodeIndices(12, 5))
	assert.Equal(t, []int{0, 1, 2}, nodeIndices(3, 1))
}

func TestSplineResampleEven(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 10, 0.05)
	f := sample(x, gauss)

	s, err := SplineResample(x, f, 0, Even)
	require.NoError(t, err)
	require.Len(t, s, len(x))
	for i := range x {
		assert.InDelta(t, f[i], s[i], 1e-3, "r=%g", x[i])
	}
	// nodes are reproduced exactly
	assert.InDelta(t, f[10], s[10], 1e-12)
	assert.InDelta(t, f[len(f)-1], s[len(s)-1], 1e-12)
}

func TestSplineResampleOdd(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 10, 0.05)
	f := sample(x, func(r float64) float64 { return r * gauss(r) })

	s, err := SplineResample(x, f, 4, Odd)
	require.NoError(t, err)
	for i := range x {
		assert.InDelta(t, f[i], s[i], 1e-3, "r=%g", x[i])
	}
}

func TestSplineResampleErrors(t *testing.T) {
	t.Parallel()
	_, err := SplineResample([]float64{-1, 0, 1}, []float64{1, 1, 1}, 1, Even)
	assert.ErrorIs(t, err, ErrNegativeOrigin)
	_, err = SplineResample([]float64{0, 1}, []float64{1, 1}, 1, Even)
	assert.ErrorIs(t, err, core.ErrShortMesh)
	_, err = SplineResample([]float64{0, 1, 2}, []float64{1, 1}, 1, Even)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestSmoothDerivatives(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 10, 0.05)
	f := sample(x, gauss)

	d1, err := SmoothDerivative1(x, f, 0)
	require.NoError(t, err)
	d2, err := SmoothDerivative2(x, f, 0)
	require.NoError(t, err)

	for i, r := range x {
		if r < 1.5 || r > 8 {
			continue
		}
		assert.InDelta(t, -2*r*gauss(r), d1[i], 5e-3, "d1 r=%g", r)
		assert.InDelta(t, (4*r*r-2)*gauss(r), d2[i], 5e-2, "d2 r=%g", r)
	}
}

func TestPolyval(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3.0, Polyval([]float64{2, -3, 1}, 2))
	assert.Equal(t, 0.0, Polyval(nil, 2))
}

func TestPolyExtrapolate(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 5, 0.05)

	f, err := PolyExtrapolate(x, 1, 3, []float64{1, 0, 0})
	require.NoError(t, err)

	at := func(r float64) float64 {
		return f[int(math.Round((r-x[0])/(x[1]-x[0])))]
	}
	// mesh points inside the window, which need not land on 1 and 3 exactly
	first, last := math.Inf(1), math.Inf(-1)
	for _, xi := range x {
		if xi >= 1 && xi <= 3 {
			first, last = math.Min(first, xi), math.Max(last, xi)
		}
	}
	held := make([]float64, len(x))
	for i, xi := range x {
		c := math.Min(math.Max(xi, first), last)
		held[i] = c * c
	}
	want, err := SplineResample(x, held, 0, Even)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, f, 1e-12)

	assert.InDelta(t, 4.0, at(2), 1e-2)
	assert.InDelta(t, last*last, at(4.5), 1e-9)
	assert.InDelta(t, first*first, at(0.5), 1e-9)

	_, err = PolyExtrapolate(x, 7, 8, []float64{1})
	assert.ErrorIs(t, err, core.ErrShortMesh)
}

func BenchmarkSplineResample(b *testing.B) {
	x := core.MustMesh(core.Zero, 20, 0.05)
	f := sample(x, gauss)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = SplineResample(x, f, 0, Even)
	}
}
