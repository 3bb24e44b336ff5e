package tracker

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// gyroFraction divides the cyclotron gyroperiod into the sub-steps needed to
// resolve gyration.
const gyroFraction = 12

// timesteps computes the per-particle timestep from the fields currently
// experienced by the particles. A forced dt short-circuits the policy and is
// broadcast as a single-element slice.
//
// For each particle the candidates are, per grid the particle currently
// occupies, half the grid resolution divided by the particle's speed (a
// Courant-like bound keeping a particle from skipping more than half a cell
// per step), plus one global candidate of 1/12 of the non-relativistic
// gyroperiod for the strongest field felt by any particle. Candidates are
// clamped into [DtMin, DtMax] and the per-particle minimum wins. A particle
// with no finite candidate (off every grid, no field) gets the largest
// finite grid-resolution candidate in the population, so the loop always
// makes progress.
func (t *Tracker) timesteps(b []r3.Vec) ([]float64, error) {
	if t.cfg.Dt > 0 {
		return []float64{t.cfg.Dt}, nil
	}

	// Gyroperiod candidate from the strongest field felt by any particle.
	bmax := 0.0
	for i := range b {
		if !finiteVec(t.v[i]) {
			continue
		}
		if mag := r3.Norm(b[i]); mag > bmax {
			bmax = mag
		}
	}
	gyro := math.Inf(1)
	if bmax > 0 && t.species.Charge != 0 {
		gyro = 2 * math.Pi * t.species.Mass / (math.Abs(t.species.Charge) * bmax)
	}
	gyroCandidate := t.clamp(gyro / gyroFraction)

	dt := make([]float64, len(t.x))
	largestGridstep := 0.0
	for i := range t.x {
		if !finiteVec(t.v[i]) {
			// Stopped particle: the push leaves it NaN whatever dt we pick,
			// and it must not constrain the clock.
			dt[i] = 0
			continue
		}
		speed := r3.Norm(t.v[i])
		best := gyroCandidate
		for gi, g := range t.grids {
			if !t.onGrid[gi][i] {
				continue
			}
			gridstep := math.Inf(1)
			if speed > 0 {
				gridstep = t.clamp(0.5 * g.Resolution() / speed)
			}
			if math.IsInf(gridstep, 1) {
				continue
			}
			if gridstep > largestGridstep {
				largestGridstep = gridstep
			}
			if gridstep < best {
				best = gridstep
			}
		}
		dt[i] = best
	}

	// Substitute the fallback for particles whose every candidate was
	// infinite. This is a progress heuristic, not a stability bound.
	for i := range dt {
		if !math.IsInf(dt[i], 1) {
			continue
		}
		switch {
		case largestGridstep > 0:
			dt[i] = largestGridstep
		case t.cfg.DtMax > 0:
			dt[i] = t.cfg.DtMax
		default:
			return nil, ErrNoTimestep
		}
	}
	return dt, nil
}

func (t *Tracker) clamp(dt float64) float64 {
	if dt < t.cfg.DtMin {
		return t.cfg.DtMin
	}
	if t.cfg.DtMax > 0 && dt > t.cfg.DtMax {
		return t.cfg.DtMax
	}
	return dt
}

// maxStep returns the timestep the simulation clock advances by: the largest
// per-particle dt among active particles, or the shared scalar.
func maxStep(dt []float64, v []r3.Vec) float64 {
	if len(dt) == 1 {
		return dt[0]
	}
	max := 0.0
	for i, d := range dt {
		if finiteVec(v[i]) && d > max {
			max = d
		}
	}
	return max
}
