// Package config loads calculation inputs with viper and turns them into
// meshes, densities and folding requests.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mkarakoc/BiFold/folding"
	"github.com/mkarakoc/BiFold/interaction"
	"github.com/mkarakoc/BiFold/kernels"
	"github.com/mkarakoc/BiFold/model"
	"github.com/mkarakoc/BiFold/shape"
)

// Config is a complete calculation input.
type Config struct {
	Reaction    model.Reaction    `yaml:"reaction" mapstructure:"reaction"`
	Mesh        MeshConfig        `yaml:"mesh" mapstructure:"mesh"`
	Projectile  DensityConfig     `yaml:"projectile" mapstructure:"projectile"`
	Target      DensityConfig     `yaml:"target" mapstructure:"target"`
	Interaction InteractionConfig `yaml:"interaction" mapstructure:"interaction"`
	Exchange    ExchangeConfig    `yaml:"exchange" mapstructure:"exchange"`
	Coulomb     CoulombConfig     `yaml:"coulomb" mapstructure:"coulomb"`
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// MeshConfig gives the extent and spacing of the r and q meshes. The
// interaction mesh s and the potential mesh R copy r.
type MeshConfig struct {
	RMax  float64 `yaml:"r_max" mapstructure:"r_max"`
	RStep float64 `yaml:"r_step" mapstructure:"r_step"`
	QMax  float64 `yaml:"q_max" mapstructure:"q_max"`
	QStep float64 `yaml:"q_step" mapstructure:"q_step"`
}

// DensityConfig selects a nucleus' matter density and, optionally, its
// charge density.
type DensityConfig struct {
	Shape  ShapeConfig  `yaml:"shape" mapstructure:"shape"`
	Charge *ShapeConfig `yaml:"charge,omitempty" mapstructure:"charge"`
}

// ShapeConfig is a parametrised or tabulated radial shape. Kind is one
// of gaussian2, gaussian3, fermi2, fermi3, sog, poly or external.
type ShapeConfig struct {
	Kind   string  `yaml:"kind" mapstructure:"kind"`
	V0     float64 `yaml:"v0,omitempty" mapstructure:"v0"`
	W      float64 `yaml:"w,omitempty" mapstructure:"w"`
	Radius float64 `yaml:"radius,omitempty" mapstructure:"radius"`
	A      float64 `yaml:"a,omitempty" mapstructure:"a"`
	// Norm, when non-zero, renormalises the volume integral.
	Norm float64 `yaml:"norm,omitempty" mapstructure:"norm"`
	// Sum-of-Gaussians parameters.
	Ris []float64 `yaml:"ris,omitempty" mapstructure:"ris"`
	Qis []float64 `yaml:"qis,omitempty" mapstructure:"qis"`
	RP  float64   `yaml:"rp,omitempty" mapstructure:"rp"`
	ZE  float64   `yaml:"ze,omitempty" mapstructure:"ze"`
	// Polynomial fit (highest power first) trusted on [x_min, x_max] and
	// held constant outside.
	Coeffs []float64 `yaml:"coeffs,omitempty" mapstructure:"coeffs"`
	XMin   float64   `yaml:"x_min,omitempty" mapstructure:"x_min"`
	XMax   float64   `yaml:"x_max,omitempty" mapstructure:"x_max"`
	// External table.
	File   string `yaml:"file,omitempty" mapstructure:"file"`
	Format string `yaml:"format,omitempty" mapstructure:"format"`
}

// InteractionConfig names the M3Y interaction and its density dependence.
type InteractionConfig struct {
	NN     string `yaml:"nn" mapstructure:"nn"`
	Family string `yaml:"family" mapstructure:"family"`
}

// ExchangeConfig selects the exchange treatment.
type ExchangeConfig struct {
	Mode       string  `yaml:"mode" mapstructure:"mode"`
	Cs         float64 `yaml:"cs" mapstructure:"cs"`
	Iterations int     `yaml:"iterations" mapstructure:"iterations"`
	Tolerance  float64 `yaml:"tolerance" mapstructure:"tolerance"`
}

// CoulombConfig selects the Coulomb potential: none, ucs (uniformly
// charged spheres of radius RC) or folded (needs charge densities).
type CoulombConfig struct {
	Mode string  `yaml:"mode" mapstructure:"mode"`
	RC   float64 `yaml:"rc" mapstructure:"rc"`
}

// EngineConfig tunes the transform engine. Workers 0 uses every CPU.
type EngineConfig struct {
	Method  string `yaml:"method" mapstructure:"method"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
	Stats   bool   `yaml:"stats" mapstructure:"stats"`
}

// StoreConfig points at the run archive. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the 4He+4He benchmark at 40 MeV with the DIM3Y-Reid
// interaction and zero-range exchange.
func Default() *Config {
	alpha := ShapeConfig{Kind: "gaussian2", V0: 0.4229, A: math.Sqrt(1 / 0.7024)}
	return &Config{
		Reaction:    model.Reaction{Name: "4He+4He", ZProj: 2, AProj: 4, ZTarg: 2, ATarg: 4, ELab: 40},
		Mesh:        MeshConfig{RMax: 10, RStep: 0.05, QMax: 6, QStep: 0.05},
		Projectile:  DensityConfig{Shape: alpha},
		Target:      DensityConfig{Shape: alpha},
		Interaction: InteractionConfig{NN: "reid", Family: "dim3y"},
		Exchange:    ExchangeConfig{Mode: "zr", Cs: folding.DefaultCs, Iterations: 8},
		Coulomb:     CoulombConfig{Mode: "ucs", RC: 2.5},
		Engine:      EngineConfig{Method: "simpson"},
		Logging:     LoggingConfig{Level: "info", Format: "console"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("reaction.name", d.Reaction.Name)
	v.SetDefault("reaction.z_proj", d.Reaction.ZProj)
	v.SetDefault("reaction.a_proj", d.Reaction.AProj)
	v.SetDefault("reaction.z_targ", d.Reaction.ZTarg)
	v.SetDefault("reaction.a_targ", d.Reaction.ATarg)
	v.SetDefault("reaction.e_lab", d.Reaction.ELab)
	v.SetDefault("mesh.r_max", d.Mesh.RMax)
	v.SetDefault("mesh.r_step", d.Mesh.RStep)
	v.SetDefault("mesh.q_max", d.Mesh.QMax)
	v.SetDefault("mesh.q_step", d.Mesh.QStep)
	v.SetDefault("interaction.nn", d.Interaction.NN)
	v.SetDefault("interaction.family", d.Interaction.Family)
	v.SetDefault("exchange.mode", d.Exchange.Mode)
	v.SetDefault("exchange.cs", d.Exchange.Cs)
	v.SetDefault("exchange.iterations", d.Exchange.Iterations)
	v.SetDefault("exchange.tolerance", d.Exchange.Tolerance)
	v.SetDefault("coulomb.mode", d.Coulomb.Mode)
	v.SetDefault("coulomb.rc", d.Coulomb.RC)
	v.SetDefault("engine.method", d.Engine.Method)
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("engine.stats", d.Engine.Stats)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load reads a configuration file (YAML, TOML or JSON, by extension) over
// the defaults. An empty path looks for bifold.{yaml,toml,json} in the
// working directory and falls back to Default when there is none.
// BIFOLD_* environment variables override file values, e.g.
// BIFOLD_REACTION_E_LAB.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("bifold")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bifold")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// densities have no sensible per-field defaults; take them whole
	if !v.IsSet("projectile") {
		cfg.Projectile = Default().Projectile
	}
	if !v.IsSet("target") {
		cfg.Target = Default().Target
	}
	return &cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every section and reports the first bad field.
func (c *Config) Validate() error {
	if err := c.Reaction.Validate(); err != nil {
		return &ConfigError{Field: "reaction", Message: err.Error()}
	}
	m := c.Mesh
	switch {
	case m.RStep <= 0 || m.RMax <= 2*m.RStep:
		return &ConfigError{Field: "mesh.r", Message: "need r_step > 0 and r_max > 2·r_step"}
	case m.QStep <= 0 || m.QMax <= 2*m.QStep:
		return &ConfigError{Field: "mesh.q", Message: "need q_step > 0 and q_max > 2·q_step"}
	}
	for _, nd := range []struct {
		field string
		d     DensityConfig
	}{{"projectile", c.Projectile}, {"target", c.Target}} {
		field, d := nd.field, nd.d
		if err := d.Shape.validate(); err != nil {
			return &ConfigError{Field: field + ".shape", Message: err.Error()}
		}
		if d.Charge != nil {
			if err := d.Charge.validate(); err != nil {
				return &ConfigError{Field: field + ".charge", Message: err.Error()}
			}
		}
	}
	if _, err := c.Family(); err != nil {
		return &ConfigError{Field: "interaction", Message: err.Error()}
	}
	if _, err := folding.ParseExchange(c.Exchange.Mode); err != nil {
		return &ConfigError{Field: "exchange.mode", Message: err.Error()}
	}
	if c.Exchange.Cs < 0 || c.Exchange.Tolerance < 0 {
		return &ConfigError{Field: "exchange", Message: "cs and tolerance must not be negative"}
	}
	switch strings.ToLower(c.Coulomb.Mode) {
	case "", "none":
	case "ucs":
		if c.Coulomb.RC <= 0 {
			return &ConfigError{Field: "coulomb.rc", Message: "must be positive for ucs"}
		}
	case "folded":
		if c.Projectile.Charge == nil || c.Target.Charge == nil {
			return &ConfigError{Field: "coulomb.mode", Message: "folded needs projectile and target charge densities"}
		}
	default:
		return &ConfigError{Field: "coulomb.mode", Message: fmt.Sprintf("unknown mode %q", c.Coulomb.Mode)}
	}
	if _, err := kernels.ParseMethod(c.Engine.Method); err != nil {
		return &ConfigError{Field: "engine.method", Message: err.Error()}
	}
	if c.Engine.Workers < 0 {
		return &ConfigError{Field: "engine.workers", Message: "must not be negative"}
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error()}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be console or json"}
	}
	return nil
}

func (s ShapeConfig) validate() error {
	switch strings.ToLower(s.Kind) {
	case "gaussian2", "gaussian3", "fermi2", "fermi3":
		if s.A == 0 {
			return fmt.Errorf("%s needs a non-zero a", s.Kind)
		}
	case "sog":
		if len(s.Ris) == 0 || len(s.Ris) != len(s.Qis) || s.RP <= 0 {
			return fmt.Errorf("sog needs matching ris/qis and rp > 0")
		}
	case "poly":
		if len(s.Coeffs) == 0 || s.XMax <= s.XMin {
			return fmt.Errorf("poly needs coeffs and x_max > x_min")
		}
	case "external":
		if s.File == "" {
			return fmt.Errorf("external needs a file")
		}
		if _, err := shape.ParseFormat(s.Format); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown shape %q", s.Kind)
	}
	return nil
}

// Family resolves the interaction section. "ddm3y_reid" selects the
// energy-dependent DDM3Y-Reid parametrisation.
func (c *Config) Family() (interaction.Family, error) {
	nn, err := interaction.ParseNN(c.Interaction.NN)
	if err != nil {
		return interaction.Family{}, err
	}
	name := strings.ToLower(strings.TrimSpace(c.Interaction.Family))
	if name == "ddm3y_reid" {
		if nn != interaction.Reid {
			return interaction.Family{}, fmt.Errorf("%w: ddm3y_reid needs the reid interaction", interaction.ErrUnknownFamily)
		}
		return interaction.DDM3YReid(c.Reaction.ELab, c.Reaction.AProj)
	}
	return interaction.LookupFamily(nn, name)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
