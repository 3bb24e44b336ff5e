package tracker

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Species carries the physical constants shared by every particle in a run,
// in SI units.
type Species struct {
	Charge float64 // C
	Mass   float64 // kg
}

// Config tunes a tracker. The zero value selects fully adaptive timesteps
// with no clamp and requires only the six electromagnetic field components.
type Config struct {
	// RequiredQuantities names grid quantities that must exist on every
	// grid, in addition to the six E/B components. Missing quantities are
	// zero-filled.
	RequiredQuantities []string

	// Dt, when positive, forces a fixed timestep for all particles and all
	// steps, disabling the adaptive policy.
	Dt float64

	// DtMin and DtMax clamp the adaptive timestep. DtMax of zero means
	// unbounded.
	DtMin, DtMax float64
}

// Frame is a read-only view of the tracker state after a step, handed to
// termination conditions, save routines and observers. Receivers must not
// mutate the slices.
type Frame struct {
	// Time is the cumulative simulation time in seconds.
	Time float64

	// Step is the number of completed steps.
	Step int

	// X and V are the particle positions and velocities. Stopped particles
	// carry NaN velocities; removed particles carry NaN positions too.
	X, V []r3.Vec

	// OnAnyGrid reports, per particle, whether the particle currently
	// overlaps at least one grid.
	OnAnyGrid []bool

	// Entered counts, per particle, grid memberships accumulated over the
	// run. A zero entry means the particle has never been on any grid.
	Entered []int
}

// KineticEnergy returns 0.5*m*|v|^2 for one particle, NaN if the particle is
// stopped.
func (f Frame) KineticEnergy(i int, mass float64) float64 {
	return 0.5 * mass * r3.Norm2(f.V[i])
}

// OnGridCount returns how many particles currently overlap at least one
// grid.
func (f Frame) OnGridCount() int {
	n := 0
	for _, on := range f.OnAnyGrid {
		if on {
			n++
		}
	}
	return n
}

// TerminationCondition decides when the step loop stops. Implementations
// must be pure predicates over the frame.
type TerminationCondition interface {
	Done(f Frame) bool
}

// SaveRoutine observes the state after every step and decides internally
// whether a snapshot is warranted.
type SaveRoutine interface {
	Save(f Frame) error
}

// Observer receives every frame. Observers serve side concerns such as
// progress reporting and are not part of the numerical contract.
type Observer interface {
	OnStep(f Frame)
}

var nanVec = r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}

func finiteVec(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}
