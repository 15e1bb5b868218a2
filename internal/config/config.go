package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScenario   = "harmonic"
	DefaultIntegrator = "verlet"
	DefaultDt         = 0.01
	DefaultT1         = 10.0
	DefaultSeed       = 1
	DefaultK          = 1.0
	DefaultG          = 1.0
	DefaultSoftening  = 0.01
	DefaultTheta      = 0.5
	DefaultEpsilon    = 1.0
	DefaultSigma      = 1.0
	DefaultCutoff     = 2.5
)

// Config describes one simulation run. Zero-valued particle fields let the
// scenario pick its own layout; explicit positions, velocities and masses
// override it.
type Config struct {
	Scenario      string          `yaml:"scenario"`
	Integrator    string          `yaml:"integrator"`
	T0            float64         `yaml:"t0"`
	T1            float64         `yaml:"t1"`
	Dt            float64         `yaml:"dt"`
	Seed          int64           `yaml:"seed"`
	ValidateState bool            `yaml:"validate_state"`
	Particles     ParticlesConfig `yaml:"particles"`
	Force         ForceConfig     `yaml:"force"`
}

type ParticlesConfig struct {
	Count         int         `yaml:"count"`
	Dim           int         `yaml:"dim"`
	VelocityScale float64     `yaml:"velocity_scale"`
	Mass          []float64   `yaml:"mass,omitempty"`
	Positions     [][]float64 `yaml:"positions,omitempty"`
	Velocities    [][]float64 `yaml:"velocities,omitempty"`
}

type ForceConfig struct {
	K         float64   `yaml:"k"`
	G         float64   `yaml:"g"`
	Softening float64   `yaml:"softening"`
	Theta     float64   `yaml:"theta"`
	Epsilon   float64   `yaml:"epsilon"`
	Sigma     float64   `yaml:"sigma"`
	Cutoff    float64   `yaml:"cutoff"`
	Constant  []float64 `yaml:"constant,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   DefaultScenario,
		Integrator: DefaultIntegrator,
		T1:         DefaultT1,
		Dt:         DefaultDt,
		Seed:       DefaultSeed,
		Particles: ParticlesConfig{
			VelocityScale: 1,
		},
		Force: ForceConfig{
			K:         DefaultK,
			G:         DefaultG,
			Softening: DefaultSoftening,
			Theta:     DefaultTheta,
			Epsilon:   DefaultEpsilon,
			Sigma:     DefaultSigma,
			Cutoff:    DefaultCutoff,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base: keys present in the file win,
// everything else keeps base's value.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be handed out and edited freely.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles.Mass = cloneVec(c.Particles.Mass)
	out.Particles.Positions = cloneRows(c.Particles.Positions)
	out.Particles.Velocities = cloneRows(c.Particles.Velocities)
	out.Force.Constant = cloneVec(c.Force.Constant)
	return &out
}

func cloneVec(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = cloneVec(r)
	}
	return out
}
