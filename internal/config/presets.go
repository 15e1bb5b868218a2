package config

import (
	"math"
	"sort"
)

func preset(scenario string, edit func(c *Config)) *Config {
	c := DefaultConfig()
	c.Scenario = scenario
	edit(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"free": {
		"drift": preset("free", func(c *Config) {
			c.T1 = 10
			c.Particles.Dim = 3
			c.Particles.Velocities = [][]float64{{1, 0.5, -0.25}}
		}),
	},
	"constant": {
		"projectile": preset("constant", func(c *Config) {
			c.Dt, c.T1 = 0.001, 2
			c.Particles.Velocities = [][]float64{{5, 10}}
		}),
		"drop": preset("constant", func(c *Config) {
			c.Dt, c.T1 = 0.001, 1.4
			c.Particles.Dim = 1
			c.Particles.Positions = [][]float64{{10}}
		}),
	},
	"harmonic": {
		"unit": preset("harmonic", func(c *Config) {
			c.T1 = 20 * math.Pi
		}),
		"stiff": preset("harmonic", func(c *Config) {
			c.Dt, c.T1 = 0.001, 10
			c.Force.K = 100
		}),
		"coarse": preset("harmonic", func(c *Config) {
			c.Dt, c.T1 = 0.1, 100
		}),
	},
	"kepler": {
		"circular": preset("kepler", func(c *Config) {
			c.Dt, c.T1 = 0.001, 10 * math.Pi
		}),
		"eccentric": preset("kepler", func(c *Config) {
			c.Dt, c.T1 = 0.0005, 10 * math.Pi
			c.Particles.VelocityScale = 0.8
		}),
	},
	"nbody": {
		"ring": preset("nbody", func(c *Config) {
			c.Integrator = "leapfrog"
			c.Dt, c.T1 = 0.001, 20
			c.Particles.Count = 5
		}),
		"binary": preset("nbody", func(c *Config) {
			c.Dt, c.T1 = 0.001, 30
			c.Particles.Count = 2
		}),
	},
	"galaxy": {
		"disk": preset("galaxy", func(c *Config) {
			c.Dt, c.T1 = 0.005, 5
			c.Particles.Count = 256
			c.Force.Softening = 0.05
			c.ValidateState = true
		}),
		"exact": preset("galaxy", func(c *Config) {
			c.Dt, c.T1 = 0.005, 2
			c.Particles.Count = 64
			c.Force.Theta = 0
			c.Force.Softening = 0.05
		}),
	},
	"dimer": {
		"bound": preset("dimer", func(c *Config) {
			c.Dt, c.T1 = 0.001, 20
		}),
		"hot": preset("dimer", func(c *Config) {
			c.Dt, c.T1 = 0.0005, 20
			c.Particles.VelocityScale = 2
		}),
	},
	"chain": {
		"pluck": preset("chain", func(c *Config) {
			c.Dt, c.T1 = 0.005, 20
			c.Force.K = 10
		}),
	},
	"doublewell": {
		"trapped": preset("doublewell", func(c *Config) {
			c.T1 = 20
		}),
		"hop": preset("doublewell", func(c *Config) {
			c.Dt, c.T1 = 0.005, 20
			c.Particles.Positions = [][]float64{{-1.5}}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scenarios lists every scenario that has presets.
func Scenarios() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
