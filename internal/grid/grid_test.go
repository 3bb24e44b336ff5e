package grid

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func mustCube(t *testing.T, l float64, num int) *Cartesian {
	t.Helper()
	g, err := NewCube(l, num)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	return g
}

// linearX fills a quantity with f(x,y,z) = x, which trilinear interpolation
// must reproduce exactly.
func linearX(g *Cartesian, name string) {
	values := make([]float64, g.size())
	for ix := 0; ix < g.nx; ix++ {
		x := g.min.X + float64(ix)*g.dx
		for iy := 0; iy < g.ny; iy++ {
			for iz := 0; iz < g.nz; iz++ {
				values[g.idx(ix, iy, iz)] = x
			}
		}
	}
	g.data[name] = values
}

func TestNewCartesianErrors(t *testing.T) {
	tests := []struct {
		name     string
		min, max r3.Vec
		num      int
	}{
		{"one vertex", r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1}, 1},
		{"empty extent", r3.Vec{X: 1, Y: -1, Z: -1}, r3.Vec{X: -1, Y: 1, Z: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCartesian(tt.min, tt.max, tt.num); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestOnGrid(t *testing.T) {
	g := mustCube(t, 1, 2)

	points := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 1},
		{X: 1.01, Y: 0, Z: 0},
		{X: math.NaN(), Y: 0, Z: 0},
	}
	want := []bool{true, true, false, false}

	on := g.OnGrid(points)
	for i := range want {
		if on[i] != want[i] {
			t.Errorf("point %d: on-grid = %v, want %v", i, on[i], want[i])
		}
	}
}

func TestResolution(t *testing.T) {
	g := mustCube(t, 1, 3)
	if got := g.Resolution(); got != 1.0 {
		t.Errorf("resolution = %f, want 1.0", got)
	}
}

func TestTrilinearReproducesLinearField(t *testing.T) {
	g := mustCube(t, 1, 5)
	linearX(g, "E_x")

	points := []r3.Vec{
		{X: 0.37, Y: -0.21, Z: 0.93},
		{X: -1, Y: -1, Z: -1},
		{X: 1, Y: 1, Z: 1},
		{X: 0.25, Y: 0, Z: 0},
	}
	vals, err := g.Interpolate(points, VolumeAveraged, "E_x")
	if err != nil {
		t.Fatalf("interpolate failed: %v", err)
	}
	for i, p := range points {
		if math.Abs(vals[0][i]-p.X) > 1e-12 {
			t.Errorf("point %d: interpolated %f, want %f", i, vals[0][i], p.X)
		}
	}
}

func TestNearestNeighbor(t *testing.T) {
	g := mustCube(t, 1, 2)
	linearX(g, "E_x")

	// Vertices sit at x = -1 and x = 1; anything right of center snaps to 1.
	points := []r3.Vec{
		{X: 0.2, Y: 0.2, Z: 0.2},
		{X: -0.2, Y: -0.2, Z: -0.2},
	}
	vals, err := g.Interpolate(points, NearestNeighbor, "E_x")
	if err != nil {
		t.Fatalf("interpolate failed: %v", err)
	}
	if vals[0][0] != 1 {
		t.Errorf("expected snap to +1 vertex, got %f", vals[0][0])
	}
	if vals[0][1] != -1 {
		t.Errorf("expected snap to -1 vertex, got %f", vals[0][1])
	}
}

func TestInterpolateOffGridIsNaN(t *testing.T) {
	g := mustCube(t, 1, 2)
	g.SetUniform("E_x", 3)

	for _, w := range []Weighting{VolumeAveraged, NearestNeighbor} {
		vals, err := g.Interpolate([]r3.Vec{{X: 5, Y: 0, Z: 0}}, w, "E_x")
		if err != nil {
			t.Fatalf("%s: interpolate failed: %v", w, err)
		}
		if !math.IsNaN(vals[0][0]) {
			t.Errorf("%s: off-grid value = %f, want NaN", w, vals[0][0])
		}
	}
}

func TestInterpolateUnknownQuantity(t *testing.T) {
	g := mustCube(t, 1, 2)
	if _, err := g.Interpolate([]r3.Vec{{}}, VolumeAveraged, "E_x"); err == nil {
		t.Error("expected error for undefined quantity")
	}
}

func TestRequireQuantities(t *testing.T) {
	g := mustCube(t, 1, 2)
	g.SetUniform("E_x", 1)

	if err := g.RequireQuantities([]string{"E_x", "B_z"}, true); err != nil {
		t.Fatalf("zero-filling require failed: %v", err)
	}
	values, ok := g.Quantity("B_z")
	if !ok {
		t.Fatal("B_z was not zero-filled")
	}
	for _, v := range values {
		if v != 0 {
			t.Errorf("zero-filled quantity has value %f", v)
		}
	}

	if err := g.RequireQuantities([]string{"rho"}, false); err == nil {
		t.Error("expected error for missing quantity without zero fill")
	}
}

func TestCheckFinite(t *testing.T) {
	g := mustCube(t, 1, 2)
	g.SetUniform("E_x", 1)
	if err := g.CheckFinite("E_x"); err != nil {
		t.Errorf("finite quantity flagged: %v", err)
	}

	values, _ := g.Quantity("E_x")
	values[3] = math.Inf(1)
	if err := g.CheckFinite("E_x"); err == nil {
		t.Error("expected error for infinite entry")
	}
}

func TestEdgeMax(t *testing.T) {
	g := mustCube(t, 1, 3)

	// Peak in the interior, zero at the boundary.
	values := make([]float64, g.size())
	values[g.idx(1, 1, 1)] = 10
	g.data["E_x"] = values

	edge, overall := g.EdgeMax("E_x")
	if edge != 0 {
		t.Errorf("edge max = %f, want 0", edge)
	}
	if overall != 10 {
		t.Errorf("overall max = %f, want 10", overall)
	}

	// A uniform field fails to decay at the boundary.
	g.SetUniform("E_y", 2)
	edge, overall = g.EdgeMax("E_y")
	if edge != 2 || overall != 2 {
		t.Errorf("uniform field: edge %f overall %f, want 2 and 2", edge, overall)
	}
}
