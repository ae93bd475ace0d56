package folding

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/interaction"
	"github.com/mkarakoc/BiFold/model"
	"github.com/mkarakoc/BiFold/physconst"
	"github.com/mkarakoc/BiFold/transform"
)

// LocalMomentum controls the self-consistent exchange iteration.
type LocalMomentum struct {
	// Iterations is the number of passes, or the cap when Tolerance > 0.
	// Values below 1 run a single pass.
	Iterations int `json:"iterations" yaml:"iterations" mapstructure:"iterations"`
	// Tolerance stops the loop once max|ΔU_ex| falls below it. Zero runs
	// exactly Iterations passes.
	Tolerance float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
}

// MomentumProblem is the fixed input of the iteration.
type MomentumProblem struct {
	// DGRs is the R×s exchange density grid.
	DGRs mat.Matrix
	// VEx is the exchange interaction on S.
	VEx []float64
	R   []float64
	S   []float64
	// UNuc is the potential the exchange term adds to, U_d + U_C, on R.
	UNuc []float64
	// ECM is the centre-of-mass energy and AReduced the reduced mass number.
	ECM      float64
	AReduced float64
	// Scale multiplies every exchange integral.
	Scale float64
}

// MomentumResult is the state after the last pass.
type MomentumResult struct {
	UEx        []float64
	K          []float64
	Iterations int
	Converged  bool
	// Delta is max|ΔU_ex| of the last pass.
	Delta float64
}

// Run iterates
//
//	k²(R) = 2μc²·A/(ħc)²·(E_cm − U_nuc(R) − U_ex(R)),  k = √|k²|/A
//	U_ex(R) = Scale·∫ dGRs(R, s)·v_ex(s)·s²·j0(k(R)·s) ds
//
// starting from U_ex = 0.
func (lm LocalMomentum) Run(ctx context.Context, e *transform.Engine, p MomentumProblem,
	consts physconst.Constants, logger *zap.Logger) (MomentumResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(p.UNuc) != len(p.R) {
		return MomentumResult{}, fmt.Errorf("%w: %d potential samples on %d points", core.ErrLengthMismatch, len(p.UNuc), len(p.R))
	}
	if p.AReduced <= 0 {
		return MomentumResult{}, fmt.Errorf("reduced mass must be positive, got %g", p.AReduced)
	}
	iters := lm.Iterations
	if iters < 1 {
		logger.Warn("local momentum iterations raised to 1", zap.Int("requested", iters))
		iters = 1
	}

	factor := consts.KineticFactor(p.AReduced)
	res := MomentumResult{
		UEx: make([]float64, len(p.R)),
		K:   make([]float64, len(p.R)),
	}
	for it := 1; it <= iters; it++ {
		for i := range p.R {
			k2 := factor * (p.ECM - (p.UNuc[i] + res.UEx[i]))
			res.K[i] = math.Max(math.Sqrt(math.Abs(k2))/p.AReduced, consts.Zero)
		}
		next, err := e.ExchangeIntegral(ctx, p.DGRs, res.K, p.VEx, p.R, p.S, 0)
		if err != nil {
			return MomentumResult{}, fmt.Errorf("iteration %d: %w", it, err)
		}
		delta := 0.0
		for i := range next {
			next[i] *= p.Scale
			delta = math.Max(delta, math.Abs(next[i]-res.UEx[i]))
		}
		res.UEx = next
		res.Iterations = it
		res.Delta = delta
		logger.Debug("local momentum pass", zap.Int("iteration", it), zap.Float64("delta", delta))
		if lm.Tolerance > 0 && delta < lm.Tolerance {
			res.Converged = true
			break
		}
	}
	if lm.Tolerance > 0 && !res.Converged {
		logger.Warn("local momentum did not converge",
			zap.Int("iterations", res.Iterations),
			zap.Float64("delta", res.Delta),
			zap.Float64("tolerance", lm.Tolerance))
	}
	return res, nil
}

// FiniteRangeInput collects what the finite-range exchange term needs.
type FiniteRangeInput struct {
	Reaction model.Reaction
	Family   interaction.Family
	RhoP     core.Func
	RhoT     core.Func
	// UDirect and UCoulomb are sampled on Meshes.Out. UCoulomb may be nil.
	UDirect  []float64
	UCoulomb []float64
	// Cs is the k_F gradient coefficient; zero selects DefaultCs.
	Cs       float64
	Momentum LocalMomentum
	Meshes   Meshes
}

// ExchangeFiniteRange computes the finite-range exchange potential with the
// local momentum approximation. Tabulated densities use KFermiSmooth.
func (f *Folder) ExchangeFiniteRange(ctx context.Context, in FiniteRangeInput) (*model.Potential, MomentumResult, error) {
	m := in.Meshes
	if err := m.Validate(); err != nil {
		return nil, MomentumResult{}, err
	}
	if err := in.Reaction.Validate(); err != nil {
		return nil, MomentumResult{}, err
	}
	if (in.UDirect != nil && len(in.UDirect) != len(m.Out)) || (in.UCoulomb != nil && len(in.UCoulomb) != len(m.Out)) {
		return nil, MomentumResult{}, fmt.Errorf("%w: potentials must be sampled on R", core.ErrLengthMismatch)
	}
	cs := in.Cs
	if cs == 0 {
		cs = DefaultCs
	}

	kfP, err := fermiMomentum(m.R, in.RhoP, cs)
	if err != nil {
		return nil, MomentumResult{}, fmt.Errorf("projectile k_F: %w", err)
	}
	kfT, err := fermiMomentum(m.R, in.RhoT, cs)
	if err != nil {
		return nil, MomentumResult{}, fmt.Errorf("target k_F: %w", err)
	}

	terms, err := in.Family.Terms(m.R, in.RhoP, in.RhoT)
	if err != nil {
		return nil, MomentumResult{}, err
	}
	dF, err := f.exchangeDensity(ctx, terms, kfP.Values, kfT.Values, m)
	if err != nil {
		return nil, MomentumResult{}, err
	}
	dG, err := f.engine.GRS(ctx, dF, m.Out, m.S, m.Q, 0)
	if err != nil {
		return nil, MomentumResult{}, err
	}
	dG.Scale(f.consts.Pi2Inv, dG)

	vEx, err := in.Family.NN.ExchangeFR(m.S)
	if err != nil {
		return nil, MomentumResult{}, err
	}

	uNuc := make([]float64, len(m.Out))
	for i := range uNuc {
		if in.UDirect != nil {
			uNuc[i] += in.UDirect[i]
		}
		if in.UCoulomb != nil {
			uNuc[i] += in.UCoulomb[i]
		}
	}

	strength := in.Family.Strength(in.Reaction.ELab, in.Reaction.AProj)
	res, err := in.Momentum.Run(ctx, f.engine, MomentumProblem{
		DGRs:     dG,
		VEx:      vEx.Values,
		R:        m.Out,
		S:        m.S,
		UNuc:     uNuc,
		ECM:      in.Reaction.ECM(),
		AReduced: in.Reaction.ReducedMass(),
		Scale:    f.consts.Pi4 * strength,
	}, f.consts, f.logger)
	if err != nil {
		return nil, MomentumResult{}, err
	}

	uq, err := f.momentum(res.UEx, m.Out, m.Q)
	if err != nil {
		return nil, MomentumResult{}, err
	}
	params := in.Family.Params(in.Reaction.ELab, in.Reaction.AProj)
	params["iterations"] = float64(res.Iterations)
	params["cs"] = cs
	name := fmt.Sprintf("u_%s_%s_ex_fr", in.Family.Name, in.Family.NN)
	p, err := potential(name, m, res.UEx, uq, params, in.RhoP, in.RhoT, vEx, kfP, kfT)
	if err != nil {
		return nil, MomentumResult{}, err
	}
	f.logger.Info("finite-range exchange",
		zap.String("potential", name),
		zap.Int("iterations", res.Iterations),
		zap.Bool("converged", res.Converged),
		zap.Float64("vol2", p.Info.Vol2))
	return p, res, nil
}

// exchangeDensity returns Σ coef·F_P⊙F_T, where F = 4π·FQS(ρ, k_F). Each
// distinct density is transformed once.
func (f *Folder) exchangeDensity(ctx context.Context, terms []interaction.Term, kfP, kfT []float64, m Meshes) (*mat.Dense, error) {
	type key struct {
		target bool
		first  *float64
	}
	cache := make(map[key]*mat.Dense)
	fqs := func(rho core.Func, target bool) (*mat.Dense, error) {
		if err := rho.Validate(m.R); err != nil {
			return nil, err
		}
		k := key{target, &rho.Values[0]}
		if g, ok := cache[k]; ok {
			return g, nil
		}
		kf := kfP
		if target {
			kf = kfT
		}
		g, err := f.engine.FQS(ctx, rho.Values, m.R, kf, m.S, m.Q)
		if err != nil {
			return nil, err
		}
		g.Scale(f.consts.Pi4, g)
		cache[k] = g
		return g, nil
	}

	dF := mat.NewDense(len(m.Q), len(m.S), nil)
	var prod mat.Dense
	for i, term := range terms {
		fp, err := fqs(term.P, false)
		if err != nil {
			return nil, fmt.Errorf("term %d projectile: %w", i, err)
		}
		ft, err := fqs(term.T, true)
		if err != nil {
			return nil, fmt.Errorf("term %d target: %w", i, err)
		}
		prod.MulElem(fp, ft)
		prod.Scale(term.Coef, &prod)
		dF.Add(dF, &prod)
	}
	return dF, nil
}
