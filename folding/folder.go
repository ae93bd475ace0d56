// Package folding computes double-folding optical potentials.
//
// The direct and zero-range exchange potentials are products in momentum
// space:
//
//	Ũ(q) = ρ̃_P(q)·ρ̃_T(q)·ṽ(q),   f̃(q) = 4π ∫ f(r) r² j0(qr) dr
//	U(R) = 1/(2π²) ∫ Ũ(q) q² j0(qR) dq
//
// The finite-range exchange potential depends on the local relative
// momentum k(R), which itself depends on the potential; it is found by the
// fixed-point iteration in LocalMomentum.
//
// Density-dependent interactions are expanded by interaction.Family.Terms
// into sums of density products, so all families share the same folding
// code path.
package folding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/interaction"
	"github.com/mkarakoc/BiFold/kernels"
	"github.com/mkarakoc/BiFold/model"
	"github.com/mkarakoc/BiFold/physconst"
	"github.com/mkarakoc/BiFold/transform"
)

// ErrNoParts is returned by Total without potentials.
var ErrNoParts = errors.New("no potentials to combine")

// Meshes are the four grids of a folding calculation.
type Meshes struct {
	// R is the density mesh r.
	R []float64
	// Q is the momentum mesh q.
	Q []float64
	// S is the interaction mesh s.
	S []float64
	// Out is the mesh R the potentials are evaluated on.
	Out []float64
}

// NewMeshes uses r for the density, interaction and potential meshes.
func NewMeshes(r, q []float64) Meshes {
	return Meshes{R: r, Q: q, S: r, Out: r}
}

// Validate checks that every grid is an odd-length uniform mesh.
func (m Meshes) Validate() error {
	for _, g := range []struct {
		name string
		x    []float64
	}{{"r", m.R}, {"q", m.Q}, {"s", m.S}, {"R", m.Out}} {
		if err := core.ValidateMesh(g.x); err != nil {
			return fmt.Errorf("mesh %s: %w", g.name, err)
		}
	}
	return nil
}

// Folder evaluates folding integrals with a transform engine.
type Folder struct {
	engine *transform.Engine
	consts physconst.Constants
	logger *zap.Logger
}

// NewFolder creates a Folder. A nil logger discards output.
func NewFolder(engine *transform.Engine, consts physconst.Constants, logger *zap.Logger) *Folder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Folder{engine: engine, consts: consts, logger: logger.Named("folding")}
}

// Engine returns the underlying transform engine.
func (f *Folder) Engine() *transform.Engine {
	return f.engine
}

// Constants returns the constants in use.
func (f *Folder) Constants() physconst.Constants {
	return f.consts
}

// momentum returns 4π·Fourier(fn, x, q).
func (f *Folder) momentum(fn, x, q []float64) ([]float64, error) {
	out, err := f.engine.Fourier(fn, x, q, 0)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] *= f.consts.Pi4
	}
	return out, nil
}

// foldTerms sums coef·ρ̃_P·ρ̃_T over the terms, multiplies by vq and
// transforms back to the output mesh. Fourier transforms run concurrently.
func (f *Folder) foldTerms(ctx context.Context, terms []interaction.Term, vq []float64, m Meshes) (ur, uq []float64, err error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	pq := make([][]float64, len(terms))
	tq := make([][]float64, len(terms))

	g, _ := errgroup.WithContext(ctx)
	for i, term := range terms {
		i, term := i, term
		if err := term.P.Validate(m.R); err != nil {
			return nil, nil, fmt.Errorf("term %d projectile: %w", i, err)
		}
		if err := term.T.Validate(m.R); err != nil {
			return nil, nil, fmt.Errorf("term %d target: %w", i, err)
		}
		g.Go(func() (err error) {
			pq[i], err = f.momentum(term.P.Values, m.R, m.Q)
			return err
		})
		g.Go(func() (err error) {
			tq[i], err = f.momentum(term.T.Values, m.R, m.Q)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	uq = make([]float64, len(m.Q))
	for i, term := range terms {
		for j := range uq {
			uq[j] += term.Coef * pq[i][j] * tq[i][j]
		}
	}
	for j := range uq {
		uq[j] *= vq[j]
	}
	ur, err = f.engine.Fourier(uq, m.Q, m.Out, 0)
	if err != nil {
		return nil, nil, err
	}
	for i := range ur {
		ur[i] *= f.consts.Pi2Inv
	}
	return ur, uq, nil
}

// potential builds a model.Potential with the volume integrals of ur.
func potential(name string, m Meshes, ur, uq []float64, params map[string]float64, inputs ...core.Func) (*model.Potential, error) {
	vol2, vol4, msr, err := Volumes(m.Out, ur)
	if err != nil {
		return nil, err
	}
	p := &model.Potential{
		Name: name,
		Info: core.Record{Name: name, Renorm: 1, Vol2: vol2, Vol4: vol4, MSR: msr, Params: params},
		UR:   ur,
		UQ:   uq,
	}
	for _, in := range inputs {
		p.Inputs = append(p.Inputs, in.Info...)
	}
	return p, nil
}

// Direct folds two densities with a direct interaction sampled on m.S.
func (f *Folder) Direct(ctx context.Context, rhoP, rhoT, vnn core.Func, m Meshes) (*model.Potential, error) {
	if err := vnn.Validate(m.S); err != nil {
		return nil, fmt.Errorf("interaction: %w", err)
	}
	vq, err := f.momentum(vnn.Values, m.S, m.Q)
	if err != nil {
		return nil, err
	}
	ur, uq, err := f.foldTerms(ctx, []interaction.Term{{Coef: 1, P: rhoP, T: rhoT}}, vq, m)
	if err != nil {
		return nil, err
	}
	return potential("u_direct", m, ur, uq, nil, rhoP, rhoT, vnn)
}

// ExchangeZeroRange folds two densities with the zero-range exchange
// strength j00 (MeV·fm³), which is constant in momentum space.
func (f *Folder) ExchangeZeroRange(ctx context.Context, rhoP, rhoT core.Func, j00 float64, m Meshes) (*model.Potential, error) {
	ur, uq, err := f.foldTerms(ctx, []interaction.Term{{Coef: 1, P: rhoP, T: rhoT}}, constant(j00, len(m.Q)), m)
	if err != nil {
		return nil, err
	}
	return potential("u_exchange_zr", m, ur, uq, map[string]float64{"j00": j00}, rhoP, rhoT)
}

// DirectDD is the direct potential of a density-dependent family:
// Strength·Σ coef·(P⊗T folded with the direct interaction).
func (f *Folder) DirectDD(ctx context.Context, fam interaction.Family, rhoP, rhoT core.Func, r model.Reaction, m Meshes) (*model.Potential, error) {
	vnn, err := fam.NN.Direct(m.S)
	if err != nil {
		return nil, err
	}
	vq, err := f.momentum(vnn.Values, m.S, m.Q)
	if err != nil {
		return nil, err
	}
	return f.foldFamily(ctx, fam, "d", rhoP, rhoT, vnn, vq, r, m)
}

// ExchangeZeroRangeDD is the zero-range exchange potential of a
// density-dependent family.
func (f *Folder) ExchangeZeroRangeDD(ctx context.Context, fam interaction.Family, rhoP, rhoT core.Func, r model.Reaction, m Meshes) (*model.Potential, error) {
	vnn, err := fam.NN.ExchangeZR(m.S, r.ELab, r.AProj)
	if err != nil {
		return nil, err
	}
	return f.foldFamily(ctx, fam, "ex_zr", rhoP, rhoT, vnn, constant(vnn.Values[0], len(m.Q)), r, m)
}

func (f *Folder) foldFamily(ctx context.Context, fam interaction.Family, part string, rhoP, rhoT, vnn core.Func,
	vq []float64, r model.Reaction, m Meshes) (*model.Potential, error) {
	terms, err := fam.Terms(m.R, rhoP, rhoT)
	if err != nil {
		return nil, err
	}
	ur, uq, err := f.foldTerms(ctx, terms, vq, m)
	if err != nil {
		return nil, err
	}
	strength := fam.Strength(r.ELab, r.AProj)
	for i := range ur {
		ur[i] *= strength
	}
	for i := range uq {
		uq[i] *= strength
	}
	f.logger.Debug("folded family",
		zap.String("family", fam.Name),
		zap.String("part", part),
		zap.Int("terms", len(terms)),
		zap.Float64("strength", strength))
	name := fmt.Sprintf("u_%s_%s_%s", fam.Name, fam.NN, part)
	return potential(name, m, ur, uq, fam.Params(r.ELab, r.AProj), rhoP, rhoT, vnn)
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Volumes returns 4π∫u R² dR, 4π∫u R⁴ dR and their ratio.
func Volumes(radii, u []float64) (vol2, vol4, msr float64, err error) {
	return kernels.Moments(radii, u, 0)
}

// Total sums potentials sampled on the same meshes. Volume integrals are
// summed and the mean square radius recomputed from them.
func Total(name string, parts ...*model.Potential) (*model.Potential, error) {
	if len(parts) == 0 {
		return nil, ErrNoParts
	}
	n := len(parts[0].UR)
	total := &model.Potential{
		Name: name,
		Info: core.Record{Name: name, Renorm: 1},
		UR:   make([]float64, n),
	}
	withQ := true
	for _, p := range parts {
		if len(p.UR) != n {
			return nil, fmt.Errorf("%s: %w: %d vs %d samples", p.Name, core.ErrLengthMismatch, len(p.UR), n)
		}
		withQ = withQ && p.UQ != nil && len(p.UQ) == len(parts[0].UQ)
	}
	if withQ {
		total.UQ = make([]float64, len(parts[0].UQ))
	}
	for _, p := range parts {
		for i, v := range p.UR {
			total.UR[i] += v
		}
		if withQ {
			for i, v := range p.UQ {
				total.UQ[i] += v
			}
		}
		total.Info.Vol2 += p.Info.Vol2
		total.Info.Vol4 += p.Info.Vol4
		total.Inputs = append(total.Inputs, p.Info)
	}
	if total.Info.Vol2 != 0 {
		total.Info.MSR = total.Info.Vol4 / total.Info.Vol2
	}
	return total, nil
}
