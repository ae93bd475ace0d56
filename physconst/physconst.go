// Package physconst holds the numerical and physical constants used by the
// folding calculations.
//
// Constants are grouped in an immutable value so that a calculation can be
// run with a different set (for example another value of ħc) without
// touching package state.
package physconst

import "math"

// Constants is a set of numerical and physical constants.
type Constants struct {
	// Zero replaces an exact zero on meshes and momenta.
	Zero float64
	// Pi4 is 4π.
	Pi4 float64
	// PiSqr is π².
	PiSqr float64
	// Pi2Inv is 1/(2π²), the inverse Fourier-Bessel normalisation.
	Pi2Inv float64
	// Pi2Pow32 is 2π^(3/2).
	Pi2Pow32 float64
	// SqrtPi is √π.
	SqrtPi float64
	// AlphaInv is the inverse fine-structure constant.
	AlphaInv float64
	// HbarC is ħc in MeV·fm.
	HbarC float64
	// E2 is e² = ħc/α⁻¹ in MeV·fm.
	E2 float64
	// MuC2 is the atomic mass unit in MeV.
	MuC2 float64
}

// Default returns the CODATA 2018 constants.
func Default() Constants {
	const (
		alphaInv = 137.035999084
		hbarc    = 197.3269804
	)
	return Constants{
		Zero:     1e-10,
		Pi4:      4 * math.Pi,
		PiSqr:    math.Pi * math.Pi,
		Pi2Inv:   1 / (2 * math.Pi * math.Pi),
		Pi2Pow32: 2 * math.Pow(math.Pi, 1.5),
		SqrtPi:   math.Sqrt(math.Pi),
		AlphaInv: alphaInv,
		HbarC:    hbarc,
		E2:       hbarc / alphaInv,
		MuC2:     931.49410242,
	}
}

// KineticFactor returns 2·μc²·A/(ħc)², the factor converting an energy in
// MeV to k² in fm⁻² for a system of reduced mass number a.
func (c Constants) KineticFactor(a float64) float64 {
	return 2 * c.MuC2 * a / (c.HbarC * c.HbarC)
}
