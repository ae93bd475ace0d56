package kernels

import (
	"fmt"
	"math"
	"strings"

	"github.com/mkarakoc/BiFold/special"
)

// Integrator evaluates the Fourier-Bessel weight ∫ f(x)·x²·j_order(t·x) dx
// over a uniform, odd-length mesh x. Implementations may assume x has
// already been validated by the caller and must be safe for concurrent use.
type Integrator interface {
	Integrate(f, x []float64, t float64, order int) (float64, error)
	Method() Method
}

// Method names a quadrature strategy.
type Method uint8

// Quadrature strategies
const (
	MethodSimpson Method = iota
	MethodFilon
)

func (m Method) String() string {
	switch m {
	case MethodSimpson:
		return "simpson"
	case MethodFilon:
		return "filon"
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// Methods lists the available strategies.
func Methods() []Method {
	return []Method{MethodSimpson, MethodFilon}
}

// ParseMethod maps "simpson" or "filon" (any case) to a Method.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "simpson":
		return MethodSimpson, nil
	case "filon":
		return MethodFilon, nil
	}
	return 0, fmt.Errorf("unknown quadrature method %q", name)
}

// NewIntegrator returns a fresh integrator for m.
func NewIntegrator(m Method) (Integrator, error) {
	switch m {
	case MethodSimpson:
		return NewSimpson(), nil
	case MethodFilon:
		return NewFilon(), nil
	}
	return nil, fmt.Errorf("unknown quadrature method %v", m)
}

// -------- Simpson strategy ----------

// SimpsonIntegrator builds f·x²·j_n(t·x) and applies the Simpson rule.
type SimpsonIntegrator struct {
	pool *ScratchPool
}

// NewSimpson returns a Simpson integrator with its own scratch pool.
func NewSimpson() *SimpsonIntegrator {
	return &SimpsonIntegrator{pool: NewScratchPool(1024, 0)}
}

// Method reports MethodSimpson.
func (*SimpsonIntegrator) Method() Method { return MethodSimpson }

// Integrate returns ∫ f(x)·x²·j_order(t·x) dx.
func (s *SimpsonIntegrator) Integrate(f, x []float64, t float64, order int) (float64, error) {
	if err := checkSamples(f, x); err != nil {
		return 0, err
	}
	if order < 0 {
		return 0, fmt.Errorf("%w: %d", special.ErrNegativeOrder, order)
	}
	w := s.pool.Get(len(x))
	defer s.pool.Put(w)
	for i, xi := range x {
		w[i] = f[i] * xi * xi * special.Jn(order, t*xi)
	}
	return simpson(w, x[1]-x[0]), nil
}

// -------- Filon strategy ----------

// FilonIntegrator handles order 0 only: ∫ f x² j_0(tx) dx is the Filon
// integral of g = f·x.
type FilonIntegrator struct {
	pool *ScratchPool
}

// NewFilon returns a Filon integrator with its own scratch pool.
func NewFilon() *FilonIntegrator {
	return &FilonIntegrator{pool: NewScratchPool(1024, 0)}
}

// Method reports MethodFilon.
func (*FilonIntegrator) Method() Method { return MethodFilon }

// Integrate returns ∫ f(x)·x²·j_0(t·x) dx. Orders other than 0 and a zero
// or non-finite t are rejected.
func (fi *FilonIntegrator) Integrate(f, x []float64, t float64, order int) (float64, error) {
	if order != 0 {
		return 0, fmt.Errorf("%w: filon supports order 0, got %d", ErrUnsupportedOrder, order)
	}
	if err := checkSamples(f, x); err != nil {
		return 0, err
	}
	if t == 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: t=%g", ErrZeroFrequency, t)
	}
	g := fi.pool.Get(len(x))
	w := fi.pool.Get(len(x))
	defer fi.pool.Put(g)
	defer fi.pool.Put(w)
	for i, xi := range x {
		g[i] = f[i] * xi
	}
	return filon(g, x, t, w), nil
}
