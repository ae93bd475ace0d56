// Package shape builds the radial shape functions used as densities and
// nucleon-nucleon interactions.
//
// Every constructor samples its function on a validated mesh, replaces the
// value at the first point with its linear extrapolation from the next two
// (the first point sits at or next to r = 0 where some shapes diverge) and
// attaches a core.Record with the volume integrals
//
//	Vol2 = 4π ∫ f(r) r^(L+2) dr
//	Vol4 = 4π ∫ f(r) r^(2L+4) dr
//	MSR  = Vol4 / Vol2
//
// When a norm is requested the samples and both integrals are scaled by
// Renorm = Norm/Vol2 (divided by a further 4π for L > 0). MSR is the
// ratio before scaling.
package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/kernels"
)

// Errors
var (
	ErrZeroVolume    = errors.New("cannot normalise a function with zero volume integral")
	ErrBadParameters = errors.New("invalid shape parameters")
)

type options struct {
	norm    float64
	hasNorm bool
	l       int
}

// Option configures a shape constructor.
type Option func(*options)

// WithNorm rescales the function so that its volume integral equals norm.
func WithNorm(norm float64) Option {
	return func(o *options) {
		o.norm = norm
		o.hasNorm = true
	}
}

// WithL sets the multipolarity used for the volume integrals.
func WithL(l int) Option {
	return func(o *options) { o.l = l }
}

func loadOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Moments returns the unnormalised volume record of f on the mesh r.
func Moments(r, f []float64, l int) (core.Record, error) {
	vol2, vol4, msr, err := kernels.Moments(r, f, l)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{L: l, Renorm: 1, Vol2: vol2, Vol4: vol4, MSR: msr}, nil
}

// New wraps values sampled on r into a Func: the first sample is
// origin-corrected, volume integrals are attached and the optional norm is
// applied. values is modified in place.
func New(name string, r, values []float64, params map[string]float64, opts ...Option) (core.Func, error) {
	if err := core.ValidateMesh(r); err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	if len(values) != len(r) {
		return core.Func{}, fmt.Errorf("%s: %w: %d samples on %d points", name, core.ErrLengthMismatch, len(values), len(r))
	}
	kernels.OriginCorrect(r, values)
	return measure(name, r, values, params, loadOptions(opts))
}

func measure(name string, r, values []float64, params map[string]float64, o options) (core.Func, error) {
	rec, err := Moments(r, values, o.l)
	if err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	rec.Name = name
	rec.Params = params
	if o.hasNorm {
		if rec.Vol2 == 0 {
			return core.Func{}, fmt.Errorf("%s: %w", name, ErrZeroVolume)
		}
		rec.Norm = o.norm
		rec.HasNorm = true
		rec.Renorm = o.norm / rec.Vol2
		if o.l != 0 {
			rec.Renorm /= 4 * math.Pi
		}
		rec.Vol2 *= rec.Renorm
		rec.Vol4 *= rec.Renorm
		for i := range values {
			values[i] *= rec.Renorm
		}
	}
	f := core.Func{Values: values, Info: []core.Record{rec}}
	if err := f.Validate(r); err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func sample(r []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(r))
	for i, ri := range r {
		out[i] = fn(ri)
	}
	return out
}

// ExpDecay is v0·exp(-a·r).
func ExpDecay(r []float64, v0, a float64, opts ...Option) (core.Func, error) {
	vals := sample(r, func(x float64) float64 { return v0 * math.Exp(-a*x) })
	return New("exp_decay", r, vals, map[string]float64{"v0": v0, "a": a}, opts...)
}

// Yukawa is v0/b·exp(-a·r)/r.
func Yukawa(r []float64, v0, a, b float64, opts ...Option) (core.Func, error) {
	if b == 0 {
		return core.Func{}, fmt.Errorf("yukawa: %w: b must be non-zero", ErrBadParameters)
	}
	vals := sample(r, func(x float64) float64 { return v0 / b * math.Exp(-a*x) / x })
	return New("yukawa", r, vals, map[string]float64{"v0": v0, "a": a, "b": b}, opts...)
}

// Fermi2 is the two-parameter Fermi (Woods-Saxon) form v0/(1+exp((r-R)/a)).
func Fermi2(r []float64, v0, radius, a float64, opts ...Option) (core.Func, error) {
	if a == 0 {
		return core.Func{}, fmt.Errorf("fermi2: %w: diffuseness must be non-zero", ErrBadParameters)
	}
	vals := sample(r, func(x float64) float64 { return v0 / (1 + math.Exp((x-radius)/a)) })
	return New("fermi2", r, vals, map[string]float64{"v0": v0, "r": radius, "a": a}, opts...)
}

// Fermi3 is (1+w·r²)·v0/(1+exp((r-R)/a)).
func Fermi3(r []float64, v0, w, radius, a float64, opts ...Option) (core.Func, error) {
	if a == 0 {
		return core.Func{}, fmt.Errorf("fermi3: %w: diffuseness must be non-zero", ErrBadParameters)
	}
	vals := sample(r, func(x float64) float64 { return (1 + w*x*x) * v0 / (1 + math.Exp((x-radius)/a)) })
	return New("fermi3", r, vals, map[string]float64{"v0": v0, "w": w, "r": radius, "a": a}, opts...)
}

// Gaussian2 is v0·exp(-(r/a)²).
func Gaussian2(r []float64, v0, a float64, opts ...Option) (core.Func, error) {
	if a == 0 {
		return core.Func{}, fmt.Errorf("gaussian2: %w: width must be non-zero", ErrBadParameters)
	}
	vals := sample(r, func(x float64) float64 {
		ra := x / a
		return v0 * math.Exp(-ra*ra)
	})
	return New("gaussian2", r, vals, map[string]float64{"v0": v0, "a": a}, opts...)
}

// Gaussian3 is (1+w·r²)·v0·exp(-(r/a)²).
func Gaussian3(r []float64, v0, w, a float64, opts ...Option) (core.Func, error) {
	if a == 0 {
		return core.Func{}, fmt.Errorf("gaussian3: %w: width must be non-zero", ErrBadParameters)
	}
	vals := sample(r, func(x float64) float64 {
		ra := x / a
		return (1 + w*x*x) * v0 * math.Exp(-ra*ra)
	})
	return New("gaussian3", r, vals, map[string]float64{"v0": v0, "w": w, "a": a}, opts...)
}

// SumOfGaussians is the charge density parametrisation of de Vries et al.
// with centres ris, charge fractions qis and rms width rp, scaled by ze.
func SumOfGaussians(r, ris, qis []float64, rp, ze float64, opts ...Option) (core.Func, error) {
	if len(ris) != len(qis) || len(ris) == 0 {
		return core.Func{}, fmt.Errorf("sog: %w: %d centres, %d charges", ErrBadParameters, len(ris), len(qis))
	}
	if rp <= 0 {
		return core.Func{}, fmt.Errorf("sog: %w: rp must be positive", ErrBadParameters)
	}
	gamma := math.Sqrt(2.0/3.0) * rp
	gamma2 := gamma * gamma
	pi2pow32 := 2 * math.Pow(math.Pi, 1.5)

	amps := make([]float64, len(ris))
	for i, ri := range ris {
		amps[i] = qis[i] / (pi2pow32 * gamma2 * gamma * (1 + 2*ri*ri/gamma2))
	}
	vals := sample(r, func(x float64) float64 {
		var sum float64
		for i, ri := range ris {
			m := (x - ri) / gamma
			p := (x + ri) / gamma
			sum += amps[i] * (math.Exp(-m*m) + math.Exp(-p*p))
		}
		return ze * sum
	})
	return New("sog", r, vals, map[string]float64{"rp": rp, "ze": ze}, opts...)
}

// DiracDelta is the zero-range stand-in used for exchange: v0 at the first
// point and 0 elsewhere. Its record carries Vol2 = v0 and no other moments;
// it is not origin-corrected.
func DiracDelta(r []float64, v0 float64, opts ...Option) (core.Func, error) {
	if err := core.ValidateMesh(r); err != nil {
		return core.Func{}, fmt.Errorf("dirac_delta: %w", err)
	}
	o := loadOptions(opts)
	vals := make([]float64, len(r))
	vals[0] = v0
	rec := core.Record{
		Name:   "dirac_delta",
		L:      o.l,
		Renorm: 1,
		Vol2:   v0,
		Params: map[string]float64{"v0": v0},
	}
	if o.hasNorm {
		rec.Norm = o.norm
		rec.HasNorm = true
	}
	return core.Func{Values: vals, Info: []core.Record{rec}}, nil
}

// Sampled wraps values already on the mesh r (external data). The first
// sample is kept as given.
func Sampled(name string, r, values []float64, opts ...Option) (core.Func, error) {
	if err := core.ValidateMesh(r); err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	if len(values) != len(r) {
		return core.Func{}, fmt.Errorf("%s: %w: %d samples on %d points", name, core.ErrLengthMismatch, len(values), len(r))
	}
	vals := append([]float64(nil), values...)
	f, err := measure(name, r, vals, nil, loadOptions(opts))
	if err != nil {
		return core.Func{}, err
	}
	f.Info[0].Params = map[string]float64{"sampled": 1}
	return f, nil
}

// IsSampled reports whether f was built from external data.
func IsSampled(f core.Func) bool {
	if len(f.Info) == 0 {
		return false
	}
	_, ok := f.Info[0].Params["sampled"]
	return ok
}
