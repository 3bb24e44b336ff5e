package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExtent   = 1.0
	DefaultPoints   = 2
	DefaultInterval = 0.1
)

// Config describes a complete tracking scenario: the field grid, the
// particle population, the timestep specification, and the termination and
// save settings. All values are SI.
type Config struct {
	Scenario    string             `yaml:"scenario"`
	Grid        GridConfig         `yaml:"grid"`
	Fields      map[string]float64 `yaml:"fields"`
	Species     SpeciesConfig      `yaml:"species"`
	Particles   []ParticleConfig   `yaml:"particles"`
	Dt          float64            `yaml:"dt"`
	DtMin       float64            `yaml:"dt_min"`
	DtMax       float64            `yaml:"dt_max"`
	Termination TerminationConfig  `yaml:"termination"`
	Save        SaveConfig         `yaml:"save"`
	Weighting   string             `yaml:"weighting"`
}

// GridConfig describes a cubic uniform grid spanning [-extent, extent]^3.
type GridConfig struct {
	Extent float64 `yaml:"extent"`
	Points int     `yaml:"points"`
}

type SpeciesConfig struct {
	Charge float64 `yaml:"charge"`
	Mass   float64 `yaml:"mass"`
}

type ParticleConfig struct {
	Position [3]float64 `yaml:"position"`
	Velocity [3]float64 `yaml:"velocity"`
}

// TerminationConfig selects a termination condition: "time_elapsed" with a
// duration, or "no_particles".
type TerminationConfig struct {
	Kind     string  `yaml:"kind"`
	Duration float64 `yaml:"duration"`
}

type SaveConfig struct {
	Interval float64 `yaml:"interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: "acceleration",
		Grid:     GridConfig{Extent: DefaultExtent, Points: DefaultPoints},
		Fields:   map[string]float64{"E_x": 1},
		Species:  SpeciesConfig{Charge: 1, Mass: 1},
		Particles: []ParticleConfig{
			{Position: [3]float64{0, 0, 0}, Velocity: [3]float64{0, 0, 0}},
		},
		Dt:          1e-2,
		Termination: TerminationConfig{Kind: "no_particles"},
		Save:        SaveConfig{Interval: DefaultInterval},
		Weighting:   "volume averaged",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate performs the structural checks that do not need the tracker.
func (c *Config) Validate() error {
	if c.Grid.Points < 2 {
		return fmt.Errorf("grid needs at least 2 points per axis, got %d", c.Grid.Points)
	}
	if c.Grid.Extent <= 0 {
		return fmt.Errorf("grid extent must be positive, got %f", c.Grid.Extent)
	}
	if len(c.Particles) == 0 {
		return fmt.Errorf("scenario defines no particles")
	}
	if c.Species.Mass <= 0 {
		return fmt.Errorf("species mass must be positive, got %f", c.Species.Mass)
	}
	switch c.Termination.Kind {
	case "no_particles":
	case "time_elapsed":
		if c.Termination.Duration <= 0 {
			return fmt.Errorf("time_elapsed termination needs a positive duration")
		}
	default:
		return fmt.Errorf("unknown termination kind %q", c.Termination.Kind)
	}
	return nil
}
