package folding

import (
	"math"

	"github.com/mkarakoc/BiFold/calculus"
	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/kernels"
	"github.com/mkarakoc/BiFold/shape"
)

// DefaultCs is the gradient coefficient of the extended Thomas-Fermi
// local Fermi momentum.
const DefaultCs = 1.0 / 36

// fermiSquare is the extended Thomas-Fermi k_F² at one point. Points
// without nucleons and negative sums give 0.
func fermiSquare(rho, d1, d2, cs float64) float64 {
	if rho <= 0 {
		return 0
	}
	k2 := math.Pow(1.5*math.Pi*math.Pi*rho, 2.0/3) +
		5*cs*d1*d1/(3*rho*rho) +
		5*d2/(36*rho)
	return math.Max(k2, 0)
}

// KFermi is the local Fermi momentum of rho on r:
//
//	k_F² = (3π²ρ/2)^{2/3} + 5·Cs·(ρ')²/(3ρ²) + 5ρ''/(36ρ)
//
// with finite-difference derivatives. The last sample is extrapolated from
// its neighbours and the first is origin-corrected.
func KFermi(r []float64, rho core.Func, cs float64) (core.Func, error) {
	if err := rho.Validate(r); err != nil {
		return core.Func{}, err
	}
	d1, err := calculus.Derivative1(r, rho.Values)
	if err != nil {
		return core.Func{}, err
	}
	d2, err := calculus.Derivative2(r, rho.Values)
	if err != nil {
		return core.Func{}, err
	}
	kf := make([]float64, len(r))
	for i, v := range rho.Values {
		kf[i] = math.Sqrt(fermiSquare(v, d1[i], d2[i], cs))
	}
	kernels.TailCorrect(r, kf)
	return shape.New("k_fermi", r, kf, map[string]float64{"cs": cs})
}

// KFermiSmooth is KFermi for tabulated densities: the density, its
// derivatives and every intermediate term are spline-smoothed.
func KFermiSmooth(r []float64, rho core.Func, cs float64) (core.Func, error) {
	if err := rho.Validate(r); err != nil {
		return core.Func{}, err
	}
	smooth := func(f []float64) ([]float64, error) {
		return calculus.SplineResample(r, f, 0, calculus.Even)
	}
	f, err := smooth(rho.Values)
	if err != nil {
		return core.Func{}, err
	}
	d1, err := calculus.SmoothDerivative1(r, f, 0)
	if err != nil {
		return core.Func{}, err
	}
	d2, err := calculus.SmoothDerivative2(r, f, 0)
	if err != nil {
		return core.Func{}, err
	}

	n := len(r)
	bulk, grad, den := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, v := range f {
		bulk[i] = math.Pow(1.5*math.Pi*math.Pi*math.Max(v, 0), 2.0/3)
		grad[i] = 5 * cs * d1[i] * d1[i]
		den[i] = 3 * v * v
	}
	for _, p := range []*[]float64{&bulk, &grad, &den} {
		if *p, err = smooth(*p); err != nil {
			return core.Func{}, err
		}
	}

	k2 := make([]float64, n)
	for i, v := range f {
		if v <= 0 || den[i] <= 0 {
			continue
		}
		k2[i] = bulk[i] + grad[i]/den[i] + 5*d2[i]/(36*v)
	}
	if k2, err = smooth(k2); err != nil {
		return core.Func{}, err
	}
	kf := make([]float64, n)
	for i, v := range k2 {
		kf[i] = math.Sqrt(math.Max(v, 0))
	}
	if kf, err = smooth(kf); err != nil {
		return core.Func{}, err
	}
	return shape.New("k_fermi_spline", r, kf, map[string]float64{"cs": cs})
}

// fermiMomentum picks the smoothed variant for tabulated densities.
func fermiMomentum(r []float64, rho core.Func, cs float64) (core.Func, error) {
	if shape.IsSampled(rho) {
		return KFermiSmooth(r, rho, cs)
	}
	return KFermi(r, rho, cs)
}
