package tracker

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fieldtrack/internal/grid"
)

// timestepTracker builds a tracker with loaded particles and refreshed grid
// membership, ready for the timestep policy.
func timestepTracker(t *testing.T, cfg Config, x, v []r3.Vec) *Tracker {
	t.Helper()
	g, err := grid.NewCube(1, 3) // resolution 1 m
	if err != nil {
		t.Fatalf("grid construction failed: %v", err)
	}
	trk, err := New([]grid.Source{g}, NoParticlesOnGrids{}, nil, cfg)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if err := trk.LoadParticles(x, v, Species{Charge: 1, Mass: 1}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	trk.refreshOnGrid()
	return trk
}

func TestTimestepForcedDtShortCircuits(t *testing.T) {
	trk := timestepTracker(t, Config{Dt: 0.5},
		[]r3.Vec{{}}, []r3.Vec{{X: 2}})

	dt, err := trk.timesteps(nil)
	if err != nil {
		t.Fatalf("timesteps failed: %v", err)
	}
	if len(dt) != 1 || dt[0] != 0.5 {
		t.Errorf("forced dt = %v, want [0.5]", dt)
	}
}

func TestTimestepCourantBound(t *testing.T) {
	// Half a cell (0.5 m) at speed 2 m/s is 0.25 s.
	trk := timestepTracker(t, Config{},
		[]r3.Vec{{}}, []r3.Vec{{X: 2}})

	dt, err := trk.timesteps([]r3.Vec{{}})
	if err != nil {
		t.Fatalf("timesteps failed: %v", err)
	}
	if math.Abs(dt[0]-0.25) > 1e-12 {
		t.Errorf("dt = %v, want 0.25", dt[0])
	}
}

func TestTimestepGyroperiodBound(t *testing.T) {
	// |B| = 2*pi T with q = m = 1 gives a 1 s gyroperiod, so the gyration
	// candidate of 1/12 s undercuts the 0.25 s Courant bound.
	trk := timestepTracker(t, Config{},
		[]r3.Vec{{}}, []r3.Vec{{X: 2}})

	dt, err := trk.timesteps([]r3.Vec{{Z: 2 * math.Pi}})
	if err != nil {
		t.Fatalf("timesteps failed: %v", err)
	}
	if math.Abs(dt[0]-1.0/12) > 1e-12 {
		t.Errorf("dt = %v, want 1/12", dt[0])
	}
}

func TestTimestepClamp(t *testing.T) {
	trk := timestepTracker(t, Config{DtMin: 0.5, DtMax: 2},
		[]r3.Vec{{}}, []r3.Vec{{X: 2}})

	dt, err := trk.timesteps([]r3.Vec{{}})
	if err != nil {
		t.Fatalf("timesteps failed: %v", err)
	}
	if dt[0] != 0.5 {
		t.Errorf("dt = %v, want clamp floor 0.5", dt[0])
	}
}

func TestTimestepFallbackForUnconstrainedParticle(t *testing.T) {
	// The second particle occupies no grid and feels no field; it inherits
	// the largest finite grid candidate from the population.
	trk := timestepTracker(t, Config{},
		[]r3.Vec{{}, {X: 10}},
		[]r3.Vec{{X: 2}, {X: 1}})

	dt, err := trk.timesteps([]r3.Vec{{}, {}})
	if err != nil {
		t.Fatalf("timesteps failed: %v", err)
	}
	if math.Abs(dt[0]-0.25) > 1e-12 {
		t.Errorf("on-grid particle dt = %v, want 0.25", dt[0])
	}
	if dt[1] != dt[0] {
		t.Errorf("unconstrained particle dt = %v, want fallback %v", dt[1], dt[0])
	}
}

func TestTimestepNoFiniteCandidate(t *testing.T) {
	trk := timestepTracker(t, Config{},
		[]r3.Vec{{X: 10}}, []r3.Vec{{X: 1}})

	if _, err := trk.timesteps([]r3.Vec{{}}); !errors.Is(err, ErrNoTimestep) {
		t.Errorf("got %v, want ErrNoTimestep", err)
	}
}

func TestTimestepSkipsStoppedParticles(t *testing.T) {
	nan := math.NaN()
	trk := timestepTracker(t, Config{},
		[]r3.Vec{{}, {}},
		[]r3.Vec{{X: 2}, {X: nan, Y: nan, Z: nan}})

	// The stopped particle carries an enormous B that must not shrink the
	// gyration candidate for the live one.
	dt, err := trk.timesteps([]r3.Vec{{}, {Z: 1e9}})
	if err != nil {
		t.Fatalf("timesteps failed: %v", err)
	}
	if math.Abs(dt[0]-0.25) > 1e-12 {
		t.Errorf("live particle dt = %v, want 0.25", dt[0])
	}
	if dt[1] != 0 {
		t.Errorf("stopped particle dt = %v, want 0", dt[1])
	}
}

func TestMaxStep(t *testing.T) {
	nan := math.NaN()
	v := []r3.Vec{{X: 1}, {X: nan, Y: nan, Z: nan}}

	if got := maxStep([]float64{0.7}, v); got != 0.7 {
		t.Errorf("scalar dt: clock step = %v, want 0.7", got)
	}
	if got := maxStep([]float64{0.1, 0.9}, v); got != 0.1 {
		t.Errorf("stopped particle constrained the clock: %v, want 0.1", got)
	}
}
