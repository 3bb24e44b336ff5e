package config

// Presets are ready-made scenarios exercising the classic charged-particle
// motions. Values are SI with unit charge and mass, so the analytic results
// are easy to check by hand.
var Presets = map[string]*Config{
	// A particle launched at its Larmor radius orbits the origin in a
	// uniform B_z. The grid is made huge so the particle never leaves it.
	"gyration": {
		Scenario: "gyration",
		Grid:     GridConfig{Extent: 1e9, Points: 2},
		Fields:   map[string]float64{"B_z": 1},
		Species:  SpeciesConfig{Charge: 1, Mass: 1},
		Particles: []ParticleConfig{
			{Position: [3]float64{0, 1, 0}, Velocity: [3]float64{1, 0, 0}},
		},
		Dt:          1e-2,
		Termination: TerminationConfig{Kind: "time_elapsed", Duration: 6},
		Save:        SaveConfig{Interval: 0.1},
		Weighting:   "volume averaged",
	},
	// A particle starting at rest in a uniform E_x gains q*E*L of kinetic
	// energy crossing the grid, then the run stops once it leaves.
	"acceleration": {
		Scenario: "acceleration",
		Grid:     GridConfig{Extent: 1, Points: 2},
		Fields:   map[string]float64{"E_x": 1},
		Species:  SpeciesConfig{Charge: 1, Mass: 1},
		Particles: []ParticleConfig{
			{Position: [3]float64{0, 0, 0}, Velocity: [3]float64{0, 0, 0}},
		},
		Dt:          1e-2,
		Termination: TerminationConfig{Kind: "no_particles"},
		Save:        SaveConfig{Interval: 0.05},
		Weighting:   "volume averaged",
	},
	// Crossed fields: E_y with B_z produces the E x B drift at 1 m/s along
	// x, with cycloid gyration superimposed.
	"drift": {
		Scenario: "drift",
		Grid:     GridConfig{Extent: 100, Points: 2},
		Fields:   map[string]float64{"E_y": 1, "B_z": 1},
		Species:  SpeciesConfig{Charge: 1, Mass: 1},
		Particles: []ParticleConfig{
			{Position: [3]float64{0, 0, 0}, Velocity: [3]float64{0, 0, 0}},
		},
		Dt:          1e-2,
		Termination: TerminationConfig{Kind: "time_elapsed", Duration: 20},
		Save:        SaveConfig{Interval: 0.1},
		Weighting:   "volume averaged",
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
