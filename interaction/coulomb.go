package interaction

import (
	"fmt"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/shape"
)

// CoulombUCS is the Coulomb energy of two uniformly charged spheres with
// charge radius rc:
//
//	zp·zt·e²·(3 - R²/rc²)/(2rc)   R < rc
//	zp·zt·e²/R                    R >= rc
func CoulombUCS(radii []float64, rc, zp, zt, e2 float64) (core.Func, error) {
	if rc <= 0 {
		return core.Func{}, fmt.Errorf("coulomb_ucs: %w: rc must be positive", shape.ErrBadParameters)
	}
	q2 := zp * zt * e2
	vals := make([]float64, len(radii))
	for i, x := range radii {
		if x < rc {
			vals[i] = q2 * (3 - x*x/rc/rc) / rc / 2
		} else {
			vals[i] = q2 / x
		}
	}
	return shape.New("coulomb_ucs", radii, vals, map[string]float64{"rc": rc, "zp": zp, "zt": zt})
}

// CoulombNN is the point-charge proton-proton interaction e²/s folded with
// charge densities.
func CoulombNN(s []float64, e2 float64) (core.Func, error) {
	vals := make([]float64, len(s))
	for i, x := range s {
		vals[i] = e2 / x
	}
	return shape.New("coulomb", s, vals, nil)
}
