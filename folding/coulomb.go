package folding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/interp"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/interaction"
	"github.com/mkarakoc/BiFold/model"
)

// coulombExtension is how far the density and interaction meshes are
// stretched beyond their last point for the Coulomb fold.
const coulombExtension = 1.25

// CoulombFolded folds two charge densities with e²/s. The folding runs on
// meshes stretched to 1.25 times their extent; beyond three quarters of R
// the result is replaced by Zp·Zt·e²/R and the inner part rescaled to
// join it continuously. Zp and Zt are the charge density volume integrals.
func (f *Folder) CoulombFolded(ctx context.Context, chP, chT core.Func, m Meshes) (*model.Potential, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(chP.Info) == 0 || len(chT.Info) == 0 {
		return nil, fmt.Errorf("charge densities need volume records")
	}
	rc, err := extend(m.R)
	if err != nil {
		return nil, err
	}
	sc, err := extend(m.S)
	if err != nil {
		return nil, err
	}
	pc, err := resample(chP, m.R, rc)
	if err != nil {
		return nil, fmt.Errorf("projectile charge: %w", err)
	}
	tc, err := resample(chT, m.R, rc)
	if err != nil {
		return nil, fmt.Errorf("target charge: %w", err)
	}
	vc, err := interaction.CoulombNN(sc, f.consts.E2)
	if err != nil {
		return nil, err
	}

	wide := Meshes{R: rc, Q: m.Q, S: sc, Out: m.Out}
	u, err := f.Direct(ctx, pc, tc, vc, wide)
	if err != nil {
		return nil, err
	}

	zp, zt := chP.Info[0].Vol2, chT.Info[0].Vol2
	ur := u.UR
	cut := int(0.75 * float64(len(ur)))
	tail := zp * zt * f.consts.E2 / m.Out[cut]
	if ur[cut] != 0 {
		scale := tail / ur[cut]
		for i := 0; i < cut; i++ {
			ur[i] *= scale
		}
		f.logger.Debug("coulomb tail rescale", zap.Float64("scale", scale), zap.Int("from", cut))
	}
	for i := cut; i < len(ur); i++ {
		ur[i] = zp * zt * f.consts.E2 / m.Out[i]
	}

	uq, err := f.momentum(ur, m.Out, m.Q)
	if err != nil {
		return nil, err
	}
	params := map[string]float64{"zp": zp, "zt": zt}
	return potential("u_coul_bifold_d", m, ur, uq, params, chP, chT, vc)
}

func extend(x []float64) ([]float64, error) {
	return core.NewMesh(x[0], coulombExtension*x[len(x)-1], core.Step(x))
}

// resample carries rho from x onto y, holding the end values outside x.
func resample(rho core.Func, x, y []float64) (core.Func, error) {
	if err := rho.Validate(x); err != nil {
		return core.Func{}, err
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(x, rho.Values); err != nil {
		return core.Func{}, err
	}
	vals := make([]float64, len(y))
	for i, v := range y {
		vals[i] = pl.Predict(v)
	}
	out := rho.Clone()
	out.Values = vals
	return out, nil
}
