package tracker

import "errors"

// Domain errors for tracker operations. Every failure is a configuration or
// sequencing mistake the caller must fix; nothing is retried internally.
var (
	// ErrBadGrids indicates a missing, empty, or nil grid collection.
	ErrBadGrids = errors.New("tracker: grids must be a non-empty collection of field sources")

	// ErrBadConfig indicates an invalid timestep specification or a missing
	// termination condition.
	ErrBadConfig = errors.New("tracker: invalid configuration")

	// ErrNonFiniteField indicates a required field quantity containing NaN
	// or infinite values.
	ErrNonFiniteField = errors.New("tracker: input field arrays must be finite")

	// ErrShapeMismatch indicates position and velocity arrays with
	// inconsistent particle counts.
	ErrShapeMismatch = errors.New("tracker: position and velocity arrays disagree in particle count")

	// ErrBadMask indicates a particle mask whose length does not equal the
	// number of particles.
	ErrBadMask = errors.New("tracker: mask length must equal the particle count")

	// ErrNoParticles indicates Run was called before any particles were
	// loaded.
	ErrNoParticles = errors.New("tracker: particles must be loaded before running")

	// ErrAlreadyRun indicates an attempt to reuse a tracker after its run
	// completed. Trackers are single use; construct a new one to rerun.
	ErrAlreadyRun = errors.New("tracker: tracker has already run; create a new tracker for a new simulation")

	// ErrNoTimestep indicates the adaptive policy could not produce a
	// finite timestep for any particle.
	ErrNoTimestep = errors.New("tracker: no finite timestep candidate; set an explicit dt")
)
