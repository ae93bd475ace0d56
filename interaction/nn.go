// Package interaction provides the effective nucleon-nucleon interactions
// and density dependences entering the folding integrals.
//
// The M3Y interactions are sums of Yukawa terms V0/b·exp(-a·r)/r fitted to
// the G-matrix elements of the Reid or Paris potentials. Each NN value
// exposes its direct part, its finite-range exchange part and the
// zero-range exchange strength J00(E). Density-dependent families
// (DDM3Y, BDM3Y, CDM3Y) multiply them by F(ρ) = C[1 + α·exp(-βρ) - γ·ρ^n];
// see Family.
package interaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/shape"
)

// NN names an M3Y parametrisation.
type NN int

// Supported parametrisations
const (
	Reid NN = iota
	Paris
)

// ErrUnknownInteraction is returned for unrecognised names.
var ErrUnknownInteraction = errors.New("unknown interaction")

func (nn NN) String() string {
	switch nn {
	case Reid:
		return "reid"
	case Paris:
		return "paris"
	}
	return fmt.Sprintf("nn(%d)", int(nn))
}

// ParseNN maps "reid" or "paris" (any case) to an NN.
func ParseNN(name string) (NN, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "reid":
		return Reid, nil
	case "paris":
		return Paris, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownInteraction, name)
}

type yukawa struct{ v0, a, b float64 }

var (
	reidDirect = []yukawa{{7999.00, 4.0, 4.0}, {-2134.25, 2.5, 2.5}}
	reidEx     = []yukawa{{4631.38, 4.0, 4.0}, {-1787.13, 2.5, 2.5}, {-7.8474, 0.7072, 0.7072}}
	parisDir   = []yukawa{{11061.625, 4.0, 4.0}, {-2537.5, 2.5, 2.5}}
	parisEx    = []yukawa{{-1524.25, 4.0, 4.0}, {-518.75, 2.5, 2.5}, {-7.8474, 0.7072, 0.7072}}
)

func (nn NN) terms(exchange bool) ([]yukawa, error) {
	switch {
	case nn == Reid && !exchange:
		return reidDirect, nil
	case nn == Reid:
		return reidEx, nil
	case nn == Paris && !exchange:
		return parisDir, nil
	case nn == Paris:
		return parisEx, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownInteraction, nn)
}

// Direct returns the direct part of the interaction on s.
func (nn NN) Direct(s []float64) (core.Func, error) {
	terms, err := nn.terms(false)
	if err != nil {
		return core.Func{}, err
	}
	return sumYukawa(fmt.Sprintf("m3y_%s_d", nn), s, terms)
}

// ExchangeFR returns the finite-range exchange part of the interaction on s.
func (nn NN) ExchangeFR(s []float64) (core.Func, error) {
	terms, err := nn.terms(true)
	if err != nil {
		return core.Func{}, err
	}
	return sumYukawa(fmt.Sprintf("m3y_%s_ex_fr", nn), s, terms)
}

func sumYukawa(name string, s []float64, terms []yukawa) (core.Func, error) {
	parts := make([]core.Func, 0, len(terms))
	sum := make([]float64, len(s))
	for _, y := range terms {
		f, err := shape.Yukawa(s, y.v0, y.a, y.b)
		if err != nil {
			return core.Func{}, fmt.Errorf("%s: %w", name, err)
		}
		for i, v := range f.Values {
			sum[i] += v
		}
		parts = append(parts, f)
	}
	total, err := shape.New(name, s, sum, nil)
	if err != nil {
		return core.Func{}, err
	}
	return core.Combine(total.Values, append([]core.Func{total}, parts...)...), nil
}

// J00 is the zero-range exchange strength in MeV·fm³ at laboratory energy
// eLab of a projectile with aProj nucleons.
func (nn NN) J00(eLab, aProj float64) float64 {
	ea := eLab / aProj
	if nn == Paris {
		return -590 * (1 - 0.002*ea)
	}
	return -276 * (1 - 0.005*ea)
}

// EnergyFactor is the linear energy dependence g(E) = 1 - c·E/A applied to
// density-dependent families.
func (nn NN) EnergyFactor(eLab, aProj float64) float64 {
	ea := eLab / aProj
	if nn == Paris {
		return 1 - 0.003*ea
	}
	return 1 - 0.002*ea
}

// ExchangeZR returns the zero-range exchange term on s: J00 at the first
// point and zero elsewhere.
func (nn NN) ExchangeZR(s []float64, eLab, aProj float64) (core.Func, error) {
	f, err := shape.DiracDelta(s, nn.J00(eLab, aProj))
	if err != nil {
		return core.Func{}, err
	}
	f.Info[0].Name = fmt.Sprintf("m3y_%s_ex_zr", nn)
	return f, nil
}
