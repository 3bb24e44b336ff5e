// Package integrators provides the numerical pushers that advance particle
// state through electromagnetic fields.
package integrators

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Boris advances positions and velocities in place through one timestep of
// the time-centered Boris algorithm: a half-step electric acceleration, an
// exact magnetic rotation, a second half-step electric acceleration, and a
// full position update with the post-rotation velocity. The rotation
// preserves speed exactly, so kinetic energy is conserved to machine
// precision under pure magnetic fields regardless of step size.
//
// x, v, e and b must all have the same length. dt holds either a single
// timestep applied to every particle or one timestep per particle. Particles
// with non-finite velocity are skipped outright, leaving both velocity and
// position untouched: a stopped particle keeps its last finite position.
func Boris(x, v, e, b []r3.Vec, q, m float64, dt []float64) {
	qm := q / m
	for i := range x {
		if !isFinite(v[i]) {
			continue
		}
		h := 0.5 * qm * stepFor(dt, i)

		// Half electric acceleration.
		vm := r3.Add(v[i], r3.Scale(h, e[i]))

		// Magnetic rotation, exact for uniform B over the sub-step.
		t := r3.Scale(h, b[i])
		s := r3.Scale(2/(1+r3.Norm2(t)), t)
		vp := r3.Add(vm, r3.Cross(r3.Add(vm, r3.Cross(vm, t)), s))

		// Second half electric acceleration.
		vNew := r3.Add(vp, r3.Scale(h, e[i]))

		x[i] = r3.Add(x[i], r3.Scale(stepFor(dt, i), vNew))
		v[i] = vNew
	}
}

// BorisCopy is the copy-returning form of Boris: inputs are left untouched
// and fresh position and velocity slices are returned.
func BorisCopy(x, v, e, b []r3.Vec, q, m float64, dt []float64) (xOut, vOut []r3.Vec) {
	xOut = make([]r3.Vec, len(x))
	vOut = make([]r3.Vec, len(v))
	copy(xOut, x)
	copy(vOut, v)
	Boris(xOut, vOut, e, b, q, m, dt)
	return xOut, vOut
}

func isFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

// stepFor broadcasts dt against the particle index: a single-element dt is
// shared by all particles, otherwise each particle carries its own step.
func stepFor(dt []float64, i int) float64 {
	if len(dt) == 1 {
		return dt[0]
	}
	return dt[i]
}
