package integrators

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestBorisPureMagneticConservesSpeed(t *testing.T) {
	// One particle gyrating in a uniform B_z. The rotation is exact, so the
	// speed must hold to machine precision over many steps and any dt.
	x := []r3.Vec{{X: 0, Y: 1, Z: 0}}
	v := []r3.Vec{{X: 1, Y: 0, Z: 0}}
	e := []r3.Vec{{}}
	b := []r3.Vec{{Z: 1}}
	dt := []float64{0.05}

	for i := 0; i < 10000; i++ {
		Boris(x, v, e, b, 1, 1, dt)
	}

	if speed := r3.Norm(v[0]); math.Abs(speed-1) > 1e-9 {
		t.Errorf("speed after gyration = %.15f, want 1", speed)
	}
	if vz := v[0].Z; vz != 0 {
		t.Errorf("B_z rotation leaked into v_z: %g", vz)
	}
}

func TestBorisElectricAcceleration(t *testing.T) {
	// From rest in a uniform E_x with q = m = 1, each step adds exactly
	// q*E*dt to the velocity.
	x := []r3.Vec{{}}
	v := []r3.Vec{{}}
	e := []r3.Vec{{X: 2}}
	b := []r3.Vec{{}}
	dt := []float64{0.01}

	steps := 500
	for i := 0; i < steps; i++ {
		Boris(x, v, e, b, 1, 1, dt)
	}

	want := 2 * 0.01 * float64(steps)
	if math.Abs(v[0].X-want) > 1e-12 {
		t.Errorf("v_x = %.15f, want %.15f", v[0].X, want)
	}
	if v[0].Y != 0 || v[0].Z != 0 {
		t.Errorf("acceleration leaked off axis: %+v", v[0])
	}
}

func TestBorisPerParticleDt(t *testing.T) {
	// Two identical particles with different per-particle timesteps gain
	// velocity in proportion to their dt.
	x := []r3.Vec{{}, {}}
	v := []r3.Vec{{}, {}}
	e := []r3.Vec{{X: 1}, {X: 1}}
	b := []r3.Vec{{}, {}}
	dt := []float64{0.01, 0.02}

	Boris(x, v, e, b, 1, 1, dt)

	if math.Abs(v[1].X-2*v[0].X) > 1e-15 {
		t.Errorf("dt broadcast wrong: v0 %.6g, v1 %.6g", v[0].X, v[1].X)
	}
}

func TestBorisSkipsStoppedParticles(t *testing.T) {
	// A stopped particle carries NaN velocity but a finite position; the push
	// must leave both alone while advancing its live neighbor.
	nan := math.NaN()
	x := []r3.Vec{{X: 1, Y: 2, Z: 3}, {}}
	v := []r3.Vec{{X: nan, Y: nan, Z: nan}, {X: 1}}
	e := []r3.Vec{{X: 1}, {X: 1}}
	b := []r3.Vec{{Z: 1}, {Z: 1}}

	Boris(x, v, e, b, 1, 1, []float64{0.1})

	if want := (r3.Vec{X: 1, Y: 2, Z: 3}); x[0] != want {
		t.Errorf("stopped particle position moved: %+v, want %+v", x[0], want)
	}
	if !math.IsNaN(v[0].X) {
		t.Errorf("stopped particle was revived: v %+v", v[0])
	}
	if x[1].X == 0 || math.IsNaN(x[1].X) {
		t.Errorf("live particle did not advance: %+v", x[1])
	}
}

func TestBorisCopyLeavesInputsUntouched(t *testing.T) {
	x := []r3.Vec{{X: 1}}
	v := []r3.Vec{{X: 2}}
	e := []r3.Vec{{X: 1}}
	b := []r3.Vec{{Z: 1}}

	xOut, vOut := BorisCopy(x, v, e, b, 1, 1, []float64{0.1})

	if x[0].X != 1 || v[0].X != 2 {
		t.Errorf("inputs mutated: x %+v v %+v", x[0], v[0])
	}
	if xOut[0] == x[0] && vOut[0] == v[0] {
		t.Error("copy-returning push did not advance the state")
	}
}

func BenchmarkBoris(b *testing.B) {
	n := 1000
	x := make([]r3.Vec, n)
	v := make([]r3.Vec, n)
	e := make([]r3.Vec, n)
	bf := make([]r3.Vec, n)
	for i := range x {
		v[i] = r3.Vec{X: 1}
		e[i] = r3.Vec{X: 1}
		bf[i] = r3.Vec{Z: 1}
	}
	dt := []float64{0.01}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Boris(x, v, e, bf, 1, 1, dt)
	}
}
