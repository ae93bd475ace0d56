package special

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedJ(n int, x float64) float64 {
	s, c := math.Sincos(x)
	switch n {
	case 0:
		return s / x
	case 1:
		return s/(x*x) - c/x
	case 2:
		return (3/(x*x*x)-1/x)*s - 3/(x*x)*c
	case 3:
		return (15/math.Pow(x, 4)-6/(x*x))*s - (15/(x*x*x)-1/x)*c
	}
	panic("order not tabulated")
}

func TestJ0MatchesSinc(t *testing.T) {
	t.Parallel()
	for _, x := range []float64{1e-10, 1e-3, 0.2, 0.99, 1, 1.5, 3.7, 10, 55.5, 300} {
		want := math.Sin(x) / x
		assert.InDelta(t, want, Jn(0, x), 1e-14, "x=%g", x)
	}
}

func TestJnClosedForms(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 3; n++ {
		for _, x := range []float64{0.5, 1.2, 2.5, 4, 7.3, 20} {
			want := closedJ(n, x)
			assert.InDelta(t, want, Jn(n, x), 1e-10, "n=%d x=%g", n, x)
		}
	}
}

func TestJnSmallArgument(t *testing.T) {
	t.Parallel()
	// leading behaviour x^n/(2n+1)!!
	assert.InDelta(t, 1.0, Jn(0, 1e-8), 1e-15)
	assert.InDelta(t, 1e-8/3, Jn(1, 1e-8), 1e-22)
	assert.InDelta(t, 1e-16/15, Jn(2, 1e-8), 1e-30)
	assert.Equal(t, 1.0, Jn(0, 0))
	assert.Equal(t, 0.0, Jn(4, 0))
}

func TestJnSeriesMatchesRecurrenceAtCutoff(t *testing.T) {
	t.Parallel()
	for n := 0; n <= 4; n++ {
		x := seriesCutoff(n)
		s, c := math.Sincos(x)
		rec := jnSin(n, x)*s + jnCos(n, x)*c
		assert.InDelta(t, rec, jnSeries(n, x), 1e-12, "n=%d", n)
	}
}

func TestJnOddParity(t *testing.T) {
	t.Parallel()
	for _, x := range []float64{0.3, 2.1} {
		assert.InDelta(t, -Jn(1, x), Jn(1, -x), 1e-14)
		assert.InDelta(t, Jn(2, x), Jn(2, -x), 1e-14)
	}
}

func TestSphericalJ(t *testing.T) {
	t.Parallel()
	x := []float64{0.1, 1, 10}
	out, err := SphericalJ(1, x)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range x {
		assert.InDelta(t, closedJ(1, x[i]), out[i], 1e-12)
	}

	_, err = SphericalJ(-1, x)
	assert.ErrorIs(t, err, ErrNegativeOrder)
	assert.True(t, math.IsNaN(Jn(-2, 1)))
}

func TestJHat1(t *testing.T) {
	t.Parallel()
	x := []float64{1e-10, 1e-4, 0.5, 0.999, 1, 2, 9.5}
	out := JHat1(x)
	assert.Equal(t, 1.0, out[0])
	for i := 1; i < len(x); i++ {
		want := 3 * closedJ(1, x[i]) / x[i]
		tol := 1e-12
		if x[i] < 0.01 {
			// closed form loses digits to cancellation here
			want = 1 - x[i]*x[i]/10
			tol = 1e-15
		}
		assert.InDelta(t, want, out[i], tol, "x=%g", x[i])
	}
}

func TestJHat1PinsFirstSample(t *testing.T) {
	t.Parallel()
	out := JHat1([]float64{3, 4})
	assert.Equal(t, 1.0, out[0])
	assert.Empty(t, JHat1(nil))
}

func BenchmarkJn0(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Jn(0, 3.3)
	}
}

func BenchmarkJn2(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Jn(2, 3.3)
	}
}
