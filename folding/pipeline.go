package folding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/interaction"
	"github.com/mkarakoc/BiFold/model"
)

// ExchangeMode selects how the knock-on exchange term is treated.
type ExchangeMode uint8

const (
	ExchangeNone ExchangeMode = iota
	ExchangeZeroRange
	ExchangeFiniteRange
)

// ErrUnknownExchange is returned by ParseExchange.
var ErrUnknownExchange = errors.New("unknown exchange mode")

func (m ExchangeMode) String() string {
	switch m {
	case ExchangeNone:
		return "none"
	case ExchangeZeroRange:
		return "zr"
	case ExchangeFiniteRange:
		return "fr"
	}
	return fmt.Sprintf("ExchangeMode(%d)", uint8(m))
}

// ParseExchange accepts "none", "zr" and "fr".
func ParseExchange(name string) (ExchangeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return ExchangeNone, nil
	case "zr", "zero-range":
		return ExchangeZeroRange, nil
	case "fr", "finite-range":
		return ExchangeFiniteRange, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownExchange, name)
}

// Request describes one complete calculation.
type Request struct {
	Reaction model.Reaction
	Family   interaction.Family
	RhoP     core.Func
	RhoT     core.Func
	// ChargeP and ChargeT select the folded Coulomb potential when both
	// are set. Otherwise CoulombRC > 0 selects uniformly charged spheres
	// and anything else leaves the Coulomb potential out.
	ChargeP   *core.Func
	ChargeT   *core.Func
	CoulombRC float64
	Exchange  ExchangeMode
	Cs        float64
	Momentum  LocalMomentum
	Meshes    Meshes
}

// Calculate runs the Coulomb, direct and exchange folds of req and their
// sums. The nuclear sum is named "u_nuclear" and, with a Coulomb term,
// the grand total "u_total".
func (f *Folder) Calculate(ctx context.Context, req Request) (*model.Calculation, error) {
	start := time.Now()
	if err := req.Reaction.Validate(); err != nil {
		return nil, err
	}
	if err := req.Meshes.Validate(); err != nil {
		return nil, err
	}
	m := req.Meshes
	calc := model.NewCalculation(req.Reaction, f.engine.Method().String(), m.Out, m.Q)

	coul, err := f.coulomb(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("coulomb: %w", err)
	}
	direct, err := f.DirectDD(ctx, req.Family, req.RhoP, req.RhoT, req.Reaction, m)
	if err != nil {
		return nil, fmt.Errorf("direct: %w", err)
	}
	nuclear := []*model.Potential{direct}

	switch req.Exchange {
	case ExchangeZeroRange:
		ex, err := f.ExchangeZeroRangeDD(ctx, req.Family, req.RhoP, req.RhoT, req.Reaction, m)
		if err != nil {
			return nil, fmt.Errorf("zero-range exchange: %w", err)
		}
		nuclear = append(nuclear, ex)
	case ExchangeFiniteRange:
		in := FiniteRangeInput{
			Reaction: req.Reaction,
			Family:   req.Family,
			RhoP:     req.RhoP,
			RhoT:     req.RhoT,
			UDirect:  direct.UR,
			Cs:       req.Cs,
			Momentum: req.Momentum,
			Meshes:   m,
		}
		if coul != nil {
			in.UCoulomb = coul.UR
		}
		ex, _, err := f.ExchangeFiniteRange(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("finite-range exchange: %w", err)
		}
		nuclear = append(nuclear, ex)
	}

	calc.Add(coul)
	calc.Add(nuclear...)
	sum, err := Total("u_nuclear", nuclear...)
	if err != nil {
		return nil, err
	}
	calc.Add(sum)
	if coul != nil {
		total, err := Total("u_total", sum, coul)
		if err != nil {
			return nil, err
		}
		calc.Add(total)
	}

	f.logger.Info("calculation finished",
		zap.String("id", calc.ID.String()),
		zap.String("reaction", req.Reaction.Name),
		zap.String("family", req.Family.Name),
		zap.Stringer("exchange", req.Exchange),
		zap.Int("potentials", len(calc.Potentials)),
		zap.Duration("elapsed", time.Since(start)))
	return calc, nil
}

func (f *Folder) coulomb(ctx context.Context, req Request) (*model.Potential, error) {
	m := req.Meshes
	switch {
	case req.ChargeP != nil && req.ChargeT != nil:
		return f.CoulombFolded(ctx, *req.ChargeP, *req.ChargeT, m)
	case req.CoulombRC > 0:
		r := req.Reaction
		u, err := interaction.CoulombUCS(m.Out, req.CoulombRC, r.ZProj, r.ZTarg, f.consts.E2)
		if err != nil {
			return nil, err
		}
		uq, err := f.momentum(u.Values, m.Out, m.Q)
		if err != nil {
			return nil, err
		}
		return potential("u_coul_ucs", m, u.Values, uq, u.Info[0].Params, u)
	}
	return nil, nil
}
