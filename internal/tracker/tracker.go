// Package tracker implements the particle-in-field tracking engine: it
// advances a population of charged point particles through externally
// supplied electromagnetic field grids with the Boris integrator and a
// per-particle adaptive timestep, until a termination condition fires.
//
// A tracker is single use. Its lifecycle is Constructed -> ParticlesLoaded
// -> Run; once Run completes every mutating call fails with ErrAlreadyRun.
//
// Deactivated particles are marked with NaN rather than a separate flag:
// a stopped particle has NaN velocity (it keeps its last finite position for
// inspection), a removed particle has NaN position too. The push skips
// non-finite velocities outright, and the timestep and field reductions
// exclude them, so deactivated particles drop out of the dynamics without
// losing their recorded state.
package tracker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fieldtrack/internal/grid"
	"github.com/san-kum/fieldtrack/internal/integrators"
)

type phase int

const (
	phaseConstructed phase = iota
	phaseLoaded
	phaseRun
)

// Tracker owns the particle state and drives the step loop.
type Tracker struct {
	grids     []grid.Source
	cond      TerminationCondition
	save      SaveRoutine
	observers []Observer

	cfg       Config
	weighting grid.Weighting
	warnings  []string

	species Species
	x, v    []r3.Vec
	onGrid  [][]bool // per grid, per particle
	entered []int

	time  float64
	step  int
	state phase
}

// edgeRatio is the boundary-to-interior field ratio above which construction
// warns that a field does not decay to zero at the domain edge.
const edgeRatio = 1e-3

// New validates the grids and builds a tracker. Construction fails when the
// grid collection is empty or contains nils, when the timestep specification
// is inconsistent, or when a required quantity holds non-finite values.
// Fields that do not decay to zero at the grid boundary produce warnings,
// retrievable via Warnings.
func New(grids []grid.Source, cond TerminationCondition, save SaveRoutine, cfg Config) (*Tracker, error) {
	if len(grids) == 0 {
		return nil, ErrBadGrids
	}
	for _, g := range grids {
		if g == nil {
			return nil, fmt.Errorf("%w: nil grid", ErrBadGrids)
		}
	}
	if cond == nil {
		return nil, fmt.Errorf("%w: termination condition is required", ErrBadConfig)
	}
	if cfg.Dt < 0 || cfg.DtMin < 0 || cfg.DtMax < 0 {
		return nil, fmt.Errorf("%w: timesteps must be non-negative", ErrBadConfig)
	}
	if cfg.Dt > 0 && (cfg.DtMin > 0 || cfg.DtMax > 0) {
		return nil, fmt.Errorf("%w: cannot combine a forced dt with a dt range", ErrBadConfig)
	}
	if cfg.DtMax > 0 && cfg.DtMin > cfg.DtMax {
		return nil, fmt.Errorf("%w: dt range is inverted", ErrBadConfig)
	}

	required := append([]string{}, grid.EMQuantities...)
	required = append(required, cfg.RequiredQuantities...)

	t := &Tracker{
		grids: grids,
		cond:  cond,
		save:  save,
		cfg:   cfg,
	}

	for gi, g := range grids {
		if err := g.RequireQuantities(required, true); err != nil {
			return nil, err
		}
		val, ok := g.(grid.Validator)
		if !ok {
			continue
		}
		for _, name := range required {
			if err := val.CheckFinite(name); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNonFiniteField, err)
			}
			if edge, overall := val.EdgeMax(name); edge > edgeRatio*overall {
				t.warnings = append(t.warnings, fmt.Sprintf(
					"grid %d: %s reaches %.2e at the domain edge; fields should "+
						"decay to zero at the boundary to avoid non-physical "+
						"discontinuities", gi, name, edge))
			}
		}
	}
	return t, nil
}

// AddObserver registers a per-step observer, e.g. a progress meter.
func (t *Tracker) AddObserver(o Observer) { t.observers = append(t.observers, o) }

// Warnings returns non-fatal issues surfaced during construction.
func (t *Tracker) Warnings() []string { return t.warnings }

// NumGrids returns the number of field grids.
func (t *Tracker) NumGrids() int { return len(t.grids) }

// NumParticles returns the particle count, zero before LoadParticles.
func (t *Tracker) NumParticles() int { return len(t.x) }

// Time returns the cumulative simulation time in seconds.
func (t *Tracker) Time() float64 { return t.time }

// Steps returns the number of completed steps.
func (t *Tracker) Steps() int { return t.step }

// LoadParticles stores the initial particle state. x and v must have the
// same length; values are copied. Particle index is the stable identity for
// the rest of the run. Loading again before Run replaces the population;
// loading after Run fails.
func (t *Tracker) LoadParticles(x, v []r3.Vec, species Species) error {
	if t.state == phaseRun {
		return ErrAlreadyRun
	}
	if len(x) != len(v) {
		return fmt.Errorf("%w: %d positions and %d velocities",
			ErrShapeMismatch, len(x), len(v))
	}
	t.x = append([]r3.Vec(nil), x...)
	t.v = append([]r3.Vec(nil), v...)
	t.species = species
	t.entered = make([]int, len(x))
	t.state = phaseLoaded
	return nil
}

// Run executes the step loop until the termination condition fires, then
// latches the tracker as run. The weighting scheme selects how fields are
// interpolated at particle positions. A population with no active particles
// cannot advance the clock, so the run ends as soon as every particle is
// stopped.
func (t *Tracker) Run(weighting grid.Weighting) error {
	switch t.state {
	case phaseConstructed:
		return ErrNoParticles
	case phaseRun:
		return ErrAlreadyRun
	}
	if _, err := grid.ParseWeighting(string(weighting)); err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	t.weighting = weighting

	// Membership for the loaded positions; particles placed on a grid count
	// as having entered it.
	t.refreshOnGrid()

	for {
		e, b, err := t.sumFields()
		if err != nil {
			return err
		}

		dt, err := t.timesteps(b)
		if err != nil {
			return err
		}

		integrators.Boris(t.x, t.v, e, b, t.species.Charge, t.species.Mass, dt)

		t.refreshOnGrid()
		advance := maxStep(dt, t.v)
		if advance == 0 {
			// Every particle is stopped; the clock can never move again.
			break
		}
		t.time += advance
		t.step++

		f := t.frame()
		for _, o := range t.observers {
			o.OnStep(f)
		}
		if t.save != nil {
			if err := t.save.Save(f); err != nil {
				return fmt.Errorf("save routine failed at step %d (t=%.4g s): %w",
					t.step, t.time, err)
			}
		}
		if t.cond.Done(f) {
			break
		}
	}

	t.state = phaseRun
	return nil
}

// OnAnyGrid reports, per particle, whether the particle currently overlaps
// at least one grid.
func (t *Tracker) OnAnyGrid() []bool {
	any := make([]bool, len(t.x))
	for _, on := range t.onGrid {
		for i, b := range on {
			any[i] = any[i] || b
		}
	}
	return any
}

// StopParticles halts the masked particles by setting their velocity to NaN.
// Their last position stays finite for inspection, but they take no further
// part in the dynamics. The mask must have one entry per particle.
func (t *Tracker) StopParticles(mask []bool) error {
	if len(mask) != len(t.x) {
		return fmt.Errorf("%w: %d mask entries for %d particles",
			ErrBadMask, len(mask), len(t.x))
	}
	for i, stop := range mask {
		if stop {
			t.v[i] = nanVec
		}
	}
	return nil
}

// RemoveParticles fully excludes the masked particles by setting both
// velocity and position to NaN, e.g. for absorption at a boundary. The mask
// must have one entry per particle.
func (t *Tracker) RemoveParticles(mask []bool) error {
	if err := t.StopParticles(mask); err != nil {
		return err
	}
	for i, remove := range mask {
		if remove {
			t.x[i] = nanVec
		}
	}
	return nil
}

// Positions returns the current particle positions. The slice is shared
// with the tracker and must not be mutated.
func (t *Tracker) Positions() []r3.Vec { return t.x }

// Velocities returns the current particle velocities. The slice is shared
// with the tracker and must not be mutated.
func (t *Tracker) Velocities() []r3.Vec { return t.v }

// refreshOnGrid recomputes per-grid membership from the current positions
// and accumulates the entered-grid counters.
func (t *Tracker) refreshOnGrid() {
	t.onGrid = make([][]bool, len(t.grids))
	for gi, g := range t.grids {
		t.onGrid[gi] = g.OnGrid(t.x)
		for i, on := range t.onGrid[gi] {
			if on {
				t.entered[i]++
			}
		}
	}
}

// sumFields interpolates the six field components on every grid and folds
// them into a single summed field per particle. Off-grid contributions are
// zeroed before accumulation so overlapping and disjoint grids combine
// additively without NaN propagation.
func (t *Tracker) sumFields() (e, b []r3.Vec, err error) {
	n := len(t.x)
	e = make([]r3.Vec, n)
	b = make([]r3.Vec, n)
	for _, g := range t.grids {
		vals, err := g.Interpolate(t.x, t.weighting, grid.EMQuantities...)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < n; i++ {
			e[i].X += zeroNonFinite(vals[0][i])
			e[i].Y += zeroNonFinite(vals[1][i])
			e[i].Z += zeroNonFinite(vals[2][i])
			b[i].X += zeroNonFinite(vals[3][i])
			b[i].Y += zeroNonFinite(vals[4][i])
			b[i].Z += zeroNonFinite(vals[5][i])
		}
	}
	return e, b, nil
}

func (t *Tracker) frame() Frame {
	return Frame{
		Time:      t.time,
		Step:      t.step,
		X:         t.x,
		V:         t.v,
		OnAnyGrid: t.OnAnyGrid(),
		Entered:   t.entered,
	}
}

func zeroNonFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
