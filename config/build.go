package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/mkarakoc/BiFold/calculus"
	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/folding"
	"github.com/mkarakoc/BiFold/kernels"
	"github.com/mkarakoc/BiFold/shape"
	"github.com/mkarakoc/BiFold/transform"
)

// Meshes builds r and q starting at core.Zero; s and R copy r.
func (c *Config) Meshes() (folding.Meshes, error) {
	r, err := core.NewMesh(core.Zero, c.Mesh.RMax, c.Mesh.RStep)
	if err != nil {
		return folding.Meshes{}, fmt.Errorf("r mesh: %w", err)
	}
	q, err := core.NewMesh(core.Zero, c.Mesh.QMax, c.Mesh.QStep)
	if err != nil {
		return folding.Meshes{}, fmt.Errorf("q mesh: %w", err)
	}
	return folding.NewMeshes(r, q), nil
}

// EngineOptions converts the engine section.
func (c *Config) EngineOptions() (transform.EngineOptions, error) {
	method, err := kernels.ParseMethod(c.Engine.Method)
	if err != nil {
		return transform.EngineOptions{}, err
	}
	workers := c.Engine.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return transform.EngineOptions{Workers: workers, Method: method, EnableStats: c.Engine.Stats}, nil
}

// Build samples the shape on r.
func (s ShapeConfig) Build(r []float64) (core.Func, error) {
	var opts []shape.Option
	if s.Norm != 0 {
		opts = append(opts, shape.WithNorm(s.Norm))
	}
	switch strings.ToLower(s.Kind) {
	case "gaussian2":
		return shape.Gaussian2(r, s.V0, s.A, opts...)
	case "gaussian3":
		return shape.Gaussian3(r, s.V0, s.W, s.A, opts...)
	case "fermi2":
		return shape.Fermi2(r, s.V0, s.Radius, s.A, opts...)
	case "fermi3":
		return shape.Fermi3(r, s.V0, s.W, s.Radius, s.A, opts...)
	case "sog":
		return shape.SumOfGaussians(r, s.Ris, s.Qis, s.RP, s.ZE, opts...)
	case "poly":
		vals, err := calculus.PolyExtrapolate(r, s.XMin, s.XMax, s.Coeffs)
		if err != nil {
			return core.Func{}, fmt.Errorf("poly: %w", err)
		}
		return shape.Sampled("poly", r, vals, opts...)
	case "external":
		format, err := shape.ParseFormat(s.Format)
		if err != nil {
			return core.Func{}, err
		}
		return shape.ReadExternalFile(s.File, r, format, opts...)
	}
	return core.Func{}, fmt.Errorf("%w: unknown shape %q", shape.ErrBadParameters, s.Kind)
}

// Request assembles a folding request on the meshes m.
func (c *Config) Request(m folding.Meshes) (folding.Request, error) {
	if err := c.Validate(); err != nil {
		return folding.Request{}, err
	}
	fam, err := c.Family()
	if err != nil {
		return folding.Request{}, err
	}
	mode, err := folding.ParseExchange(c.Exchange.Mode)
	if err != nil {
		return folding.Request{}, err
	}
	rhoP, err := c.Projectile.Shape.Build(m.R)
	if err != nil {
		return folding.Request{}, fmt.Errorf("projectile: %w", err)
	}
	rhoT, err := c.Target.Shape.Build(m.R)
	if err != nil {
		return folding.Request{}, fmt.Errorf("target: %w", err)
	}
	req := folding.Request{
		Reaction: c.Reaction,
		Family:   fam,
		RhoP:     rhoP,
		RhoT:     rhoT,
		Exchange: mode,
		Cs:       c.Exchange.Cs,
		Momentum: folding.LocalMomentum{Iterations: c.Exchange.Iterations, Tolerance: c.Exchange.Tolerance},
		Meshes:   m,
	}
	switch strings.ToLower(c.Coulomb.Mode) {
	case "ucs":
		req.CoulombRC = c.Coulomb.RC
	case "folded":
		chP, err := c.Projectile.Charge.Build(m.R)
		if err != nil {
			return folding.Request{}, fmt.Errorf("projectile charge: %w", err)
		}
		chT, err := c.Target.Charge.Build(m.R)
		if err != nil {
			return folding.Request{}, fmt.Errorf("target charge: %w", err)
		}
		req.ChargeP, req.ChargeT = &chP, &chT
	}
	return req, nil
}
