package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate"

	"github.com/mkarakoc/BiFold/core"
)

func evalOn(x []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = fn(xi)
	}
	return out
}

func TestSimpsonExactForCubics(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 2, 0.1)
	tests := []struct {
		name string
		fn   func(float64) float64
		want float64
	}{
		{name: "constant", fn: func(float64) float64 { return 3 }, want: 6},
		{name: "linear", fn: func(x float64) float64 { return x }, want: 2},
		{name: "quadratic", fn: func(x float64) float64 { return x * x }, want: 8.0 / 3},
		{name: "cubic", fn: func(x float64) float64 { return x*x*x - 2*x }, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simpson(evalOn(x, tt.fn), x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestSimpsonAgreesWithGonum(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 8, 0.04)
	f := evalOn(x, func(r float64) float64 { return r * r * math.Exp(-0.7*r*r) })

	got, err := Simpson(f, x)
	require.NoError(t, err)
	assert.InDelta(t, integrate.Simpsons(x, f), got, 1e-12)
}

func TestSimpsonPreconditions(t *testing.T) {
	t.Parallel()
	_, err := Simpson([]float64{1, 2, 3, 4}, []float64{0, 1, 2, 3})
	assert.ErrorIs(t, err, core.ErrEvenMesh)

	_, err = Simpson([]float64{1}, []float64{0})
	assert.ErrorIs(t, err, core.ErrShortMesh)

	_, err = Simpson([]float64{1, 2}, []float64{0, 1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFilonConstantIntegrand(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 10, 0.05)
	g := evalOn(x, func(float64) float64 { return 1 })
	a, b := x[0], x[len(x)-1]

	// θ = t·dx covers the series branch and the closed forms.
	for _, tf := range []float64{0.5, 3, 17} {
		want := (math.Cos(tf*a) - math.Cos(tf*b)) / (tf * tf)
		got, err := Filon(g, x, tf)
		require.NoError(t, err)
		assert.InEpsilon(t, want, got, 1e-6, "t=%g", tf)
	}
}

func TestFilonRejectsZeroFrequency(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 1, 0.25)
	g := evalOn(x, func(float64) float64 { return 1 })

	_, err := Filon(g, x, 0)
	assert.ErrorIs(t, err, ErrZeroFrequency)
	_, err = Filon(g, x, math.Inf(1))
	assert.ErrorIs(t, err, ErrZeroFrequency)
	_, err = Filon(g[:4], x[:4], 1)
	assert.ErrorIs(t, err, core.ErrEvenMesh)
}

func TestFilonCoefficientsContinuous(t *testing.T) {
	t.Parallel()
	below := math.Nextafter(filonSeriesTheta, 0)
	a1, b1, g1 := filonCoefficients(below)

	theta := math.Nextafter(filonSeriesTheta, 1)
	t2, t3 := theta*theta, theta*theta*theta
	s, c := math.Sin(theta), math.Cos(theta)
	a2 := 1/theta + s*c/t2 - 2*s*s/t3
	b2 := 2 * ((1+c*c)/t2 - 2*s*c/t3)
	g2 := 4 * (s/t3 - c/t2)

	assert.InDelta(t, a2, a1, 1e-10)
	assert.InDelta(t, b2, b1, 1e-10)
	assert.InDelta(t, g2, g1, 1e-10)
}

// ∫ e^{-x²} x² j0(qx) dx over [0, ∞) = √π/4 · e^{-q²/4}
func gaussianTransform(q float64) float64 {
	return math.Sqrt(math.Pi) / 4 * math.Exp(-q*q/4)
}

func TestIntegratorsOnGaussian(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 10, 0.05)
	f := evalOn(x, func(r float64) float64 { return math.Exp(-r * r) })

	tests := []struct {
		method Method
		tol    float64
	}{
		{method: MethodSimpson, tol: 1e-9},
		{method: MethodFilon, tol: 1e-5},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			in, err := NewIntegrator(tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.method, in.Method())
			for _, q := range []float64{0.5, 1, 2, 4} {
				got, err := in.Integrate(f, x, q, 0)
				require.NoError(t, err)
				assert.InDelta(t, gaussianTransform(q), got, tt.tol, "q=%g", q)
			}
		})
	}
}

func TestSimpsonIntegratorOrderOne(t *testing.T) {
	t.Parallel()
	// ∫ e^{-x²} x³ j1(qx) dx = (√π/8)·q·e^{-q²/4}, i.e. f = x·e^{-x²}
	x := core.MustMesh(core.Zero, 10, 0.05)
	f := evalOn(x, func(r float64) float64 { return r * math.Exp(-r*r) })

	in := NewSimpson()
	for _, q := range []float64{0.3, 1.5, 3} {
		got, err := in.Integrate(f, x, q, 1)
		require.NoError(t, err)
		want := math.Sqrt(math.Pi) / 8 * q * math.Exp(-q*q/4)
		assert.InDelta(t, want, got, 1e-9, "q=%g", q)
	}

	_, err := in.Integrate(f, x, 1, -1)
	assert.Error(t, err)
}

func TestFilonIntegratorRejectsHigherOrder(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 1, 0.25)
	f := evalOn(x, func(float64) float64 { return 1 })

	_, err := NewFilon().Integrate(f, x, 1, 1)
	assert.ErrorIs(t, err, ErrUnsupportedOrder)
	_, err = NewFilon().Integrate(f, x, 0, 0)
	assert.ErrorIs(t, err, ErrZeroFrequency)
}

func TestParseMethod(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{in: "simpson", want: MethodSimpson},
		{in: " Filon ", want: MethodFilon},
		{in: "", want: MethodSimpson},
		{in: "gauss", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMethod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	assert.Len(t, Methods(), 2)
	_, err := NewIntegrator(Method(9))
	assert.Error(t, err)
	assert.Equal(t, "method(9)", Method(9).String())
}

func TestMoments(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 1, 0.01)
	f := evalOn(x, func(float64) float64 { return 1 })

	vol2, vol4, msr, err := Moments(x, f, 0)
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi/3, vol2, 1e-12)
	// Simpson error for x⁴ on [0, 1] is h⁴/180 · 24
	assert.InDelta(t, 4*math.Pi/5, vol4, 1e-7)
	assert.InDelta(t, 4*math.Pi*math.Pow(0.01, 4)/180*24, vol4-4*math.Pi/5, 1e-9)
	assert.InDelta(t, 0.6, msr, 1e-8)

	_, _, msr, err = Moments(x, make([]float64, len(x)), 0)
	require.NoError(t, err)
	assert.Zero(t, msr)
}

func BenchmarkSimpson(b *testing.B) {
	x := core.MustMesh(core.Zero, 20, 0.01)
	f := evalOn(x, math.Sin)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Simpson(f, x)
	}
}

func BenchmarkFilon(b *testing.B) {
	x := core.MustMesh(core.Zero, 20, 0.01)
	f := evalOn(x, func(r float64) float64 { return math.Exp(-r) })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Filon(f, x, 2.5)
	}
}

func BenchmarkSimpsonIntegrator(b *testing.B) {
	x := core.MustMesh(core.Zero, 20, 0.01)
	f := evalOn(x, func(r float64) float64 { return math.Exp(-r) })
	in := NewSimpson()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = in.Integrate(f, x, 2.5, 0)
	}
}
