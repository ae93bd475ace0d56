// Package model defines the results of a folding calculation.
//
// A Calculation records the reaction, the meshes and every potential that
// was computed for it. Calculations are immutable once built and can be
// written to disk with gob encoding or archived in a store.
package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkarakoc/BiFold/core"
)

// ErrInvalidReaction is returned by Reaction.Validate.
var ErrInvalidReaction = errors.New("invalid reaction")

// Reaction is a projectile-target system at a laboratory energy.
type Reaction struct {
	Name  string  `json:"name" yaml:"name" mapstructure:"name"`
	ZProj float64 `json:"z_proj" yaml:"z_proj" mapstructure:"z_proj"`
	AProj float64 `json:"a_proj" yaml:"a_proj" mapstructure:"a_proj"`
	ZTarg float64 `json:"z_targ" yaml:"z_targ" mapstructure:"z_targ"`
	ATarg float64 `json:"a_targ" yaml:"a_targ" mapstructure:"a_targ"`
	// ELab is the laboratory energy in MeV.
	ELab float64 `json:"e_lab" yaml:"e_lab" mapstructure:"e_lab"`
}

// Validate checks the mass and charge numbers and the energy.
func (r Reaction) Validate() error {
	switch {
	case r.AProj <= 0 || r.ATarg <= 0:
		return fmt.Errorf("%w: mass numbers must be positive", ErrInvalidReaction)
	case r.ZProj < 0 || r.ZTarg < 0:
		return fmt.Errorf("%w: charge numbers must not be negative", ErrInvalidReaction)
	case r.ZProj > r.AProj || r.ZTarg > r.ATarg:
		return fmt.Errorf("%w: charge exceeds mass number", ErrInvalidReaction)
	case r.ELab <= 0:
		return fmt.Errorf("%w: laboratory energy must be positive", ErrInvalidReaction)
	}
	return nil
}

// ECM is the centre-of-mass energy in MeV.
func (r Reaction) ECM() float64 {
	return r.ELab * r.ATarg / (r.AProj + r.ATarg)
}

// ReducedMass is the reduced mass number Ap·At/(Ap+At).
func (r Reaction) ReducedMass() float64 {
	return r.AProj * r.ATarg / (r.AProj + r.ATarg)
}

// EnergyPerNucleon is ELab/AProj.
func (r Reaction) EnergyPerNucleon() float64 {
	return r.ELab / r.AProj
}

// Potential is a folded potential in coordinate and momentum space.
type Potential struct {
	Name string      `json:"name" yaml:"name"`
	Info core.Record `json:"info" yaml:"info"`
	// UR is sampled on the calculation's R mesh, UQ on its q mesh.
	UR []float64 `json:"-" yaml:"-"`
	UQ []float64 `json:"-" yaml:"-"`
	// Inputs are the records of the densities and interactions folded.
	Inputs []core.Record `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Calculation is the archived result of one run.
type Calculation struct {
	ID         uuid.UUID   `json:"id" yaml:"id"`
	CreatedAt  time.Time   `json:"created_at" yaml:"created_at"`
	Reaction   Reaction    `json:"reaction" yaml:"reaction"`
	Method     string      `json:"method" yaml:"method"`
	R          []float64   `json:"-" yaml:"-"`
	Q          []float64   `json:"-" yaml:"-"`
	Potentials []Potential `json:"potentials" yaml:"potentials"`
}

// NewCalculation starts a calculation with a fresh ID.
func NewCalculation(reaction Reaction, method string, radii, q []float64) *Calculation {
	return &Calculation{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Reaction:  reaction,
		Method:    method,
		R:         radii,
		Q:         q,
	}
}

// Add appends potentials in order.
func (c *Calculation) Add(p ...*Potential) {
	for _, pot := range p {
		if pot != nil {
			c.Potentials = append(c.Potentials, *pot)
		}
	}
}

// Potential returns the potential with the given name.
func (c *Calculation) Potential(name string) (*Potential, bool) {
	for i := range c.Potentials {
		if c.Potentials[i].Name == name {
			return &c.Potentials[i], true
		}
	}
	return nil, false
}

// Validate checks that every potential is sampled on the calculation's
// meshes.
func (c *Calculation) Validate() error {
	if err := c.Reaction.Validate(); err != nil {
		return err
	}
	if len(c.R) == 0 {
		return fmt.Errorf("calculation has no R mesh")
	}
	seen := make(map[string]bool, len(c.Potentials))
	for _, p := range c.Potentials {
		if seen[p.Name] {
			return fmt.Errorf("duplicate potential: %s", p.Name)
		}
		seen[p.Name] = true
		if len(p.UR) != len(c.R) {
			return fmt.Errorf("potential %s: %w: %d samples on %d R points", p.Name, core.ErrLengthMismatch, len(p.UR), len(c.R))
		}
		if p.UQ != nil && len(p.UQ) != len(c.Q) {
			return fmt.Errorf("potential %s: %w: %d samples on %d q points", p.Name, core.ErrLengthMismatch, len(p.UQ), len(c.Q))
		}
	}
	return nil
}

// SerializeGob writes the Calculation using gob encoding
func (c *Calculation) SerializeGob() ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeGob reads a Calculation from gob-encoded data
func DeserializeGob(data []byte) (*Calculation, error) {
	decoder := gob.NewDecoder(bytes.NewReader(data))
	var c Calculation
	if err := decoder.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
