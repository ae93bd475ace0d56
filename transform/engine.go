// Package transform implements the Fourier-Bessel transform drivers of the
// folding engine.
//
// The Engine owns one quadrature strategy chosen at construction time and
// applies it to whole arrays:
//
//   - Fourier: the 1D radial ↔ momentum transform
//     F(t) = ∫ f(x)·x²·j_n(t·x) dx for every t of a target axis
//   - FQS: the q×s grid of transforms of ρ(r)·ĵ1(k_F(r)·s) used by the
//     finite-range exchange term
//   - GRS: the R×s grid of inverse transforms of an FQS-shaped grid
//   - ExchangeIntegral: the per-R exchange integral over s with a
//     position-dependent momentum k(R)
//
// Grids are filled one column (or row) per task. Tasks only read the
// shared inputs and write to their own output slice; the dense result is
// assembled after all tasks finish, so the output does not depend on the
// number of workers.
package transform

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/kernels"
	"github.com/mkarakoc/BiFold/special"
)

// ErrEmptyAxis is returned when a target axis or grid dimension is empty.
var ErrEmptyAxis = errors.New("axis has no points")

// EngineOptions configures engine behavior
type EngineOptions struct {
	Workers     int
	Method      kernels.Method
	EnableStats bool
}

// DefaultEngineOptions provides sensible defaults
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Workers:     runtime.NumCPU(),
		Method:      kernels.MethodSimpson,
		EnableStats: false,
	}
}

// ExecutionStats tracks driver performance metrics
type ExecutionStats struct {
	TotalExecutions  int64
	Integrals        int64
	AverageLatency   time.Duration
	DriverExecutions map[string]int64
}

// Engine runs transform drivers with a fixed quadrature strategy.
type Engine struct {
	integrator kernels.Integrator
	workers    int
	opts       EngineOptions
	logger     *zap.Logger
	stats      ExecutionStats
	mu         sync.RWMutex
}

// NewEngine creates an engine. A nil opts selects DefaultEngineOptions and a
// nil logger discards output.
func NewEngine(opts *EngineOptions, logger *zap.Logger) (*Engine, error) {
	if opts == nil {
		defaults := DefaultEngineOptions()
		opts = &defaults
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	integrator, err := kernels.NewIntegrator(opts.Method)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		integrator: integrator,
		workers:    workers,
		opts:       *opts,
		logger:     logger.Named("transform"),
		stats:      ExecutionStats{DriverExecutions: make(map[string]int64)},
	}, nil
}

// Method reports the quadrature strategy.
func (e *Engine) Method() kernels.Method {
	return e.integrator.Method()
}

// Workers reports the maximum number of concurrent grid tasks.
func (e *Engine) Workers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.workers
}

// SetWorkers changes the number of concurrent grid tasks. Values below 1
// are ignored.
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		return
	}
	e.mu.Lock()
	e.workers = n
	e.mu.Unlock()
}

// Stats returns current execution statistics
func (e *Engine) Stats() ExecutionStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	drivers := make(map[string]int64, len(e.stats.DriverExecutions))
	for k, v := range e.stats.DriverExecutions {
		drivers[k] = v
	}
	out := e.stats
	out.DriverExecutions = drivers
	return out
}

// updateExecutionStats records one driver call of the given number of
// integrals.
func (e *Engine) updateExecutionStats(driver string, integrals int, start time.Time) {
	duration := time.Since(start)
	e.logger.Debug("driver finished",
		zap.String("driver", driver),
		zap.Int("integrals", integrals),
		zap.Duration("elapsed", duration))
	if !e.opts.EnableStats {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	oldTotal := e.stats.TotalExecutions
	e.stats.TotalExecutions++
	e.stats.Integrals += int64(integrals)
	e.stats.DriverExecutions[driver]++
	e.stats.AverageLatency = time.Duration((int64(e.stats.AverageLatency)*oldTotal + int64(duration)) / e.stats.TotalExecutions)
}

// Fourier returns ∫ f(x)·x²·j_order(t·x) dx over src for every t in dst,
// with the first output sample replaced by its linear extrapolation from
// the next two.
func (e *Engine) Fourier(f, src, dst []float64, order int) ([]float64, error) {
	start := time.Now()
	if err := validateTransform(f, src, dst); err != nil {
		return nil, err
	}
	out := make([]float64, len(dst))
	if err := e.fourierInto(out, f, src, dst, order); err != nil {
		return nil, err
	}
	e.updateExecutionStats("fourier", len(dst), start)
	return out, nil
}

// fourierInto assumes validated inputs.
func (e *Engine) fourierInto(out, f, src, dst []float64, order int) error {
	for i, t := range dst {
		// the first sample is extrapolated below; at t == 0 Filon has no
		// value to give
		if i == 0 && t == 0 && len(dst) >= 3 {
			continue
		}
		v, err := e.integrator.Integrate(f, src, t, order)
		if err != nil {
			return fmt.Errorf("transform at t=%g: %w", t, err)
		}
		out[i] = v
	}
	kernels.OriginCorrect(dst, out)
	return nil
}

func validateTransform(f, src, dst []float64) error {
	if err := core.ValidateMesh(src); err != nil {
		return fmt.Errorf("source mesh: %w", err)
	}
	if len(f) != len(src) {
		return fmt.Errorf("%w: %d samples on %d points", core.ErrLengthMismatch, len(f), len(src))
	}
	return validateTarget(dst)
}

func validateTarget(dst []float64) error {
	if len(dst) == 0 {
		return fmt.Errorf("target: %w", ErrEmptyAxis)
	}
	if err := core.ValidateAxis(dst); err != nil {
		return fmt.Errorf("target axis: %w", err)
	}
	return nil
}

// FQS returns the q×s grid whose column j is
// Fourier(f ⊙ ĵ1(g·s_j), r, q, 0), where g is sampled on r.
func (e *Engine) FQS(ctx context.Context, f, r, g, s, q []float64) (*mat.Dense, error) {
	start := time.Now()
	if err := validateTransform(f, r, q); err != nil {
		return nil, err
	}
	if len(g) != len(r) {
		return nil, fmt.Errorf("%w: momentum has %d samples on %d points", core.ErrLengthMismatch, len(g), len(r))
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("s: %w", ErrEmptyAxis)
	}

	cols := make([][]float64, len(s))
	err := e.parallel(ctx, len(s), func(j int) error {
		w := make([]float64, len(r))
		for i := range r {
			w[i] = g[i] * s[j]
		}
		special.JHat1Into(w, w)
		for i := range w {
			w[i] *= f[i]
		}
		col := make([]float64, len(q))
		if err := e.fourierInto(col, w, r, q, 0); err != nil {
			return fmt.Errorf("column %d: %w", j, err)
		}
		cols[j] = col
		return nil
	})
	if err != nil {
		return nil, err
	}

	grid := mat.NewDense(len(q), len(s), nil)
	for j, col := range cols {
		grid.SetCol(j, col)
	}
	e.updateExecutionStats("fqs", len(q)*len(s), start)
	return grid, nil
}

// GRS returns the R×s grid whose column j is Fourier(dFqs[:, j], q, R, order).
// A grid with a single column equals the 1D driver output.
func (e *Engine) GRS(ctx context.Context, dFqs mat.Matrix, radii, s, q []float64, order int) (*mat.Dense, error) {
	start := time.Now()
	rows, ncols := dFqs.Dims()
	if rows != len(q) || ncols != len(s) {
		return nil, fmt.Errorf("%w: grid is %dx%d, want %dx%d", core.ErrLengthMismatch, rows, ncols, len(q), len(s))
	}
	if err := core.ValidateMesh(q); err != nil {
		return nil, fmt.Errorf("source mesh: %w", err)
	}
	if err := validateTarget(radii); err != nil {
		return nil, err
	}

	cols := make([][]float64, ncols)
	err := e.parallel(ctx, ncols, func(j int) error {
		in := mat.Col(nil, j, dFqs)
		col := make([]float64, len(radii))
		if err := e.fourierInto(col, in, q, radii, order); err != nil {
			return fmt.Errorf("column %d: %w", j, err)
		}
		cols[j] = col
		return nil
	})
	if err != nil {
		return nil, err
	}

	grid := mat.NewDense(len(radii), ncols, nil)
	for j, col := range cols {
		grid.SetCol(j, col)
	}
	e.updateExecutionStats("grs", len(radii)*ncols, start)
	return grid, nil
}

// ExchangeIntegral returns, for every R_i,
// ∫ dGRs[i, :]·v(s)·s²·j_order(k_i·s) ds, origin-corrected along R.
func (e *Engine) ExchangeIntegral(ctx context.Context, dGRs mat.Matrix, k, v, radii, s []float64, order int) ([]float64, error) {
	start := time.Now()
	rows, ncols := dGRs.Dims()
	if rows != len(radii) || ncols != len(s) {
		return nil, fmt.Errorf("%w: grid is %dx%d, want %dx%d", core.ErrLengthMismatch, rows, ncols, len(radii), len(s))
	}
	if len(k) != len(radii) {
		return nil, fmt.Errorf("%w: %d momenta for %d points", core.ErrLengthMismatch, len(k), len(radii))
	}
	if err := validateTransform(v, s, radii); err != nil {
		return nil, err
	}

	out := make([]float64, len(radii))
	err := e.parallel(ctx, len(radii), func(i int) error {
		w := mat.Row(nil, i, dGRs)
		for j := range w {
			w[j] *= v[j]
		}
		val, err := e.integrator.Integrate(w, s, k[i], order)
		if err != nil {
			return fmt.Errorf("row %d (k=%g): %w", i, k[i], err)
		}
		out[i] = val
		return nil
	})
	if err != nil {
		return nil, err
	}
	kernels.OriginCorrect(radii, out)
	e.updateExecutionStats("exchange", len(radii), start)
	return out, nil
}

// parallel runs task(0..n-1) on at most Workers goroutines and returns the
// first error.
func (e *Engine) parallel(ctx context.Context, n int, task func(int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers())
	for idx := 0; idx < n; idx++ {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(idx)
		})
	}
	return g.Wait()
}
