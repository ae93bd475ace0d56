package interaction

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mkarakoc/BiFold/calculus"
	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/shape"
)

// Kind is the functional form of a density dependence.
type Kind int

// Density-dependence forms
const (
	// Independent is the bare M3Y interaction (DIM3Y).
	Independent Kind = iota
	// Exponential is C[1 + α·exp(-βρ)] (DDM3Y).
	Exponential
	// Power is C[1 - γ·ρ^n] (BDM3Y).
	Power
	// Combined is C[1 + α·exp(-βρ) - γ·ρ] (CDM3Y).
	Combined
)

// Errors
var (
	ErrUnknownFamily  = errors.New("unknown density-dependent family")
	ErrNotImplemented = errors.New("density-dependent family is not implemented")
	ErrEnergyRange    = errors.New("energy per nucleon outside the fitted range")
)

// Family is a density-dependent M3Y parametrisation.
type Family struct {
	Name  string
	NN    NN
	Kind  Kind
	C     float64
	Alpha float64
	Beta  float64
	Gamma float64
	N     float64
	// K is the nuclear matter incompressibility in MeV.
	K           float64
	Implemented bool
	// EnergyDependent families carry their energy dependence in C, α and
	// β; g(E) is not applied.
	EnergyDependent bool
}

var families = map[NN]map[string]Family{
	Reid: {
		"dim3y":  {Kind: Independent, Implemented: true},
		"ddm3y1": {Kind: Exponential, C: 0.2845, Alpha: 3.6391, Beta: 2.9605, K: 171, Implemented: true},
		"bdm3y0": {Kind: Power, C: 1.3827, Gamma: 1.1135, N: 2.0 / 3.0, K: 232},
		"bdm3y1": {Kind: Power, C: 1.2253, Gamma: 1.5124, N: 1, K: 232, Implemented: true},
		"bdm3y2": {Kind: Power, C: 1.0678, Gamma: 5.1069, N: 2, K: 354, Implemented: true},
		"bdm3y3": {Kind: Power, C: 1.0153, Gamma: 21.073, N: 3, K: 475, Implemented: true},
	},
	Paris: {
		"dim3y":  {Kind: Independent, Implemented: true},
		"ddm3y1": {Kind: Exponential, C: 0.2963, Alpha: 3.7231, Beta: 3.7384, K: 176, Implemented: true},
		"bdm3y1": {Kind: Power, C: 1.2521, Gamma: 1.7452, N: 1, K: 270, Implemented: true},
		"bdm3y2": {Kind: Power, C: 1.0664, Gamma: 6.0296, N: 2, K: 418, Implemented: true},
		"bdm3y3": {Kind: Power, C: 1.0045, Gamma: 25.1150, N: 3, K: 566, Implemented: true},
		"cdm3y1": {Kind: Combined, C: 0.3429, Alpha: 3.0232, Beta: 3.5512, Gamma: 0.5, N: 1, K: 188, Implemented: true},
		"cdm3y2": {Kind: Combined, C: 0.3346, Alpha: 3.0357, Beta: 3.0685, Gamma: 1.0, N: 1, K: 204, Implemented: true},
		"cdm3y3": {Kind: Combined, C: 0.2985, Alpha: 3.4528, Beta: 2.6388, Gamma: 1.5, N: 1, K: 217, Implemented: true},
		"cdm3y4": {Kind: Combined, C: 0.3052, Alpha: 3.2998, Beta: 2.3180, Gamma: 2.0, N: 1, K: 228, Implemented: true},
		"cdm3y5": {Kind: Combined, C: 0.2728, Alpha: 3.7367, Beta: 1.8294, Gamma: 3.0, N: 1, K: 241, Implemented: true},
		"cdm3y6": {Kind: Combined, C: 0.2658, Alpha: 3.8033, Beta: 1.4099, Gamma: 4.0, N: 1, K: 252, Implemented: true},
	},
}

// LookupFamily returns the named family (case-insensitive) for nn.
// Families listed without a usable parametrisation return
// ErrNotImplemented.
func LookupFamily(nn NN, name string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	fam, ok := families[nn][key]
	if !ok {
		return Family{}, fmt.Errorf("%w: %s for %v", ErrUnknownFamily, name, nn)
	}
	fam.Name = key
	fam.NN = nn
	if !fam.Implemented {
		return fam, fmt.Errorf("%w: %s_%v (C=%g, alpha=%g, beta=%g, gamma=%g, n=%g)",
			ErrNotImplemented, key, nn, fam.C, fam.Alpha, fam.Beta, fam.Gamma, fam.N)
	}
	return fam, nil
}

// FamilyNames lists the families defined for nn in sorted order.
func FamilyNames(nn NN) []string {
	names := make([]string, 0, len(families[nn]))
	for name := range families[nn] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DDM3Y-Reid energy dependence fitted for 2.5 < E/A < 90.5 MeV,
// highest power first.
var (
	ddm3yReidAlpha = []float64{1.36544e-14, -5.24526e-12, 8.09459e-10, -6.31517e-08, 2.53649e-06,
		-4.56887e-05, 0.000239806, -0.001084510, 0.075644400, 3.58688}
	ddm3yReidBeta = []float64{1.05558e-14, -4.74991e-12, 8.94520e-10, -9.10470e-08, 5.38698e-06,
		-0.000184957, 0.003462820, -0.029982300, -0.055198500, 11.6831}
	ddm3yReidC = []float64{1.14377e-17, -2.23584e-14, 7.57500e-12, -1.10286e-09, 8.11007e-08,
		-2.93878e-06, 3.81273e-05, 0.000327325, -0.015440300, 0.527615}
)

// DDM3YReid returns the energy-dependent DDM3Y-Reid family, with C, α and
// β evaluated at eLab/aProj.
func DDM3YReid(eLab, aProj float64) (Family, error) {
	ea := eLab / aProj
	if !(ea > 2.5 && ea < 90.5) {
		return Family{}, fmt.Errorf("%w: E/A = %.4f MeV, want 2.5 < E/A < 90.5", ErrEnergyRange, ea)
	}
	return Family{
		Name:            "ddm3y_reid",
		NN:              Reid,
		Kind:            Exponential,
		C:               calculus.Polyval(ddm3yReidC, ea),
		Alpha:           calculus.Polyval(ddm3yReidAlpha, ea),
		Beta:            calculus.Polyval(ddm3yReidBeta, ea),
		Implemented:     true,
		EnergyDependent: true,
	}, nil
}

// Strength is the overall factor multiplying the folded terms: 1 for the
// density-independent interaction, C for energy-dependent families and
// C·g(E) otherwise.
func (f Family) Strength(eLab, aProj float64) float64 {
	switch {
	case f.Kind == Independent:
		return 1
	case f.EnergyDependent:
		return f.C
	}
	return f.C * f.NN.EnergyFactor(eLab, aProj)
}

// Params returns the family parameters for result records.
func (f Family) Params(eLab, aProj float64) map[string]float64 {
	p := map[string]float64{"strength": f.Strength(eLab, aProj)}
	if f.Kind != Independent {
		p["c"] = f.C
		p["alpha"] = f.Alpha
		p["beta"] = f.Beta
		p["gamma"] = f.Gamma
		p["n"] = f.N
	}
	return p
}

// Term is one product Coef·(ρ_P-like ⊗ ρ_T-like) of the density-dependence
// expansion.
type Term struct {
	Coef float64
	P    core.Func
	T    core.Func
}

// Terms expands the density dependence into products of projectile- and
// target-like densities on r, so that every family folds through the same
// code path:
//
//	Independent: ρp⊗ρt
//	Exponential: ρp⊗ρt + α·(ρp e^{-βρp})⊗(ρt e^{-βρt})
//	Power:       ρp⊗ρt - γ·(ρp^{n+1}⊗ρt + ρp⊗ρt^{n+1})
//	Combined:    Exponential - γ·(ρp²⊗ρt + ρp⊗ρt²)
func (f Family) Terms(r []float64, rhoP, rhoT core.Func) ([]Term, error) {
	terms := []Term{{Coef: 1, P: rhoP, T: rhoT}}
	if f.Kind == Exponential || f.Kind == Combined {
		p, err := DensityExp(r, rhoP, f.Beta)
		if err != nil {
			return nil, err
		}
		t, err := DensityExp(r, rhoT, f.Beta)
		if err != nil {
			return nil, err
		}
		terms = append(terms, Term{Coef: f.Alpha, P: p, T: t})
	}
	if f.Kind == Power || f.Kind == Combined {
		n := f.N
		if f.Kind == Combined {
			n = 1
		}
		p, err := DensityPow(r, rhoP, n)
		if err != nil {
			return nil, err
		}
		t, err := DensityPow(r, rhoT, n)
		if err != nil {
			return nil, err
		}
		terms = append(terms,
			Term{Coef: -f.Gamma, P: p, T: rhoT},
			Term{Coef: -f.Gamma, P: rhoP, T: t})
	}
	return terms, nil
}

// DensityExp returns ρ·exp(-β·ρ).
func DensityExp(r []float64, rho core.Func, beta float64) (core.Func, error) {
	vals := make([]float64, len(rho.Values))
	for i, v := range rho.Values {
		vals[i] = v * math.Exp(-beta*v)
	}
	return shape.New("rho_dd", r, vals, map[string]float64{"beta": beta})
}

// DensityPow returns ρ·ρ^n.
func DensityPow(r []float64, rho core.Func, n float64) (core.Func, error) {
	vals := make([]float64, len(rho.Values))
	for i, v := range rho.Values {
		vals[i] = v * math.Pow(v, n)
	}
	return shape.New("rho_bd", r, vals, map[string]float64{"n": n})
}
