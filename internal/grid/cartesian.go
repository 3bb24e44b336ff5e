package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cartesian is a uniformly spaced rectangular grid. Quantities are stored as
// flat slices indexed (ix*ny + iy)*nz + iz.
type Cartesian struct {
	min, max   r3.Vec
	nx, ny, nz int
	dx, dy, dz float64
	data       map[string][]float64
}

// NewCartesian builds a uniform grid spanning [min, max] with num vertices
// along each axis. num must be at least 2 and max must exceed min on every
// axis.
func NewCartesian(min, max r3.Vec, num int) (*Cartesian, error) {
	if num < 2 {
		return nil, fmt.Errorf("grid needs at least 2 vertices per axis, got %d", num)
	}
	if max.X <= min.X || max.Y <= min.Y || max.Z <= min.Z {
		return nil, fmt.Errorf("grid extent is empty: min %v, max %v", min, max)
	}
	n := float64(num - 1)
	return &Cartesian{
		min: min, max: max,
		nx: num, ny: num, nz: num,
		dx: (max.X - min.X) / n,
		dy: (max.Y - min.Y) / n,
		dz: (max.Z - min.Z) / n,
		data: make(map[string][]float64),
	}, nil
}

// NewCube is shorthand for a grid spanning [-l, l]^3.
func NewCube(l float64, num int) (*Cartesian, error) {
	return NewCartesian(r3.Vec{X: -l, Y: -l, Z: -l}, r3.Vec{X: l, Y: l, Z: l}, num)
}

func (g *Cartesian) size() int { return g.nx * g.ny * g.nz }

func (g *Cartesian) idx(ix, iy, iz int) int { return (ix*g.ny+iy)*g.nz + iz }

// AddQuantity attaches a quantity sampled on the grid vertices. values must
// have one entry per vertex.
func (g *Cartesian) AddQuantity(name string, values []float64) error {
	if len(values) != g.size() {
		return fmt.Errorf("quantity %s has %d values, grid has %d vertices",
			name, len(values), g.size())
	}
	g.data[name] = values
	return nil
}

// SetUniform attaches a quantity with the same value at every vertex.
func (g *Cartesian) SetUniform(name string, value float64) {
	values := make([]float64, g.size())
	if value != 0 {
		for i := range values {
			values[i] = value
		}
	}
	g.data[name] = values
}

// Quantity returns the raw vertex values for a quantity, if present.
func (g *Cartesian) Quantity(name string) ([]float64, bool) {
	v, ok := g.data[name]
	return v, ok
}

// Resolution returns the smallest vertex spacing.
func (g *Cartesian) Resolution() float64 {
	return math.Min(g.dx, math.Min(g.dy, g.dz))
}

func (g *Cartesian) contains(p r3.Vec) bool {
	// NaN coordinates fail every comparison, so NaN points are off grid.
	return p.X >= g.min.X && p.X <= g.max.X &&
		p.Y >= g.min.Y && p.Y <= g.max.Y &&
		p.Z >= g.min.Z && p.Z <= g.max.Z
}

// OnGrid reports which points fall inside the grid domain.
func (g *Cartesian) OnGrid(points []r3.Vec) []bool {
	on := make([]bool, len(points))
	for i, p := range points {
		on[i] = g.contains(p)
	}
	return on
}

// RequireQuantities ensures the named quantities exist, zero-filling missing
// ones when replaceWithZeros is set.
func (g *Cartesian) RequireQuantities(names []string, replaceWithZeros bool) error {
	for _, name := range names {
		if _, ok := g.data[name]; ok {
			continue
		}
		if !replaceWithZeros {
			return fmt.Errorf("required quantity %s is not defined on the grid", name)
		}
		g.SetUniform(name, 0)
	}
	return nil
}

// CheckFinite returns an error if the named quantity contains NaN or
// infinite values.
func (g *Cartesian) CheckFinite(name string) error {
	values, ok := g.data[name]
	if !ok {
		return fmt.Errorf("quantity %s is not defined on the grid", name)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("quantity %s contains NaN or infinite values", name)
		}
	}
	return nil
}

// EdgeMax returns the maximum absolute value on the six boundary faces and
// over the whole grid.
func (g *Cartesian) EdgeMax(name string) (edge, overall float64) {
	values, ok := g.data[name]
	if !ok {
		return 0, 0
	}
	for ix := 0; ix < g.nx; ix++ {
		for iy := 0; iy < g.ny; iy++ {
			for iz := 0; iz < g.nz; iz++ {
				v := math.Abs(values[g.idx(ix, iy, iz)])
				if v > overall {
					overall = v
				}
				boundary := ix == 0 || ix == g.nx-1 ||
					iy == 0 || iy == g.ny-1 ||
					iz == 0 || iz == g.nz-1
				if boundary && v > edge {
					edge = v
				}
			}
		}
	}
	return edge, overall
}

// Interpolate estimates the named quantities at each point. Off-grid points
// yield NaN for every requested quantity.
func (g *Cartesian) Interpolate(points []r3.Vec, w Weighting, names ...string) ([][]float64, error) {
	fields := make([][]float64, len(names))
	for qi, name := range names {
		if _, ok := g.data[name]; !ok {
			return nil, fmt.Errorf("quantity %s is not defined on the grid", name)
		}
		fields[qi] = make([]float64, len(points))
	}

	switch w {
	case NearestNeighbor:
		g.nearest(points, names, fields)
	case VolumeAveraged:
		g.trilinear(points, names, fields)
	default:
		return nil, fmt.Errorf("%q is not a valid field weighting", string(w))
	}
	return fields, nil
}

func (g *Cartesian) fractional(p r3.Vec) (fx, fy, fz float64) {
	return (p.X - g.min.X) / g.dx, (p.Y - g.min.Y) / g.dy, (p.Z - g.min.Z) / g.dz
}

func (g *Cartesian) nearest(points []r3.Vec, names []string, out [][]float64) {
	for i, p := range points {
		if !g.contains(p) {
			for qi := range names {
				out[qi][i] = math.NaN()
			}
			continue
		}
		fx, fy, fz := g.fractional(p)
		ix := clampIndex(int(math.Round(fx)), g.nx)
		iy := clampIndex(int(math.Round(fy)), g.ny)
		iz := clampIndex(int(math.Round(fz)), g.nz)
		k := g.idx(ix, iy, iz)
		for qi, name := range names {
			out[qi][i] = g.data[name][k]
		}
	}
}

func (g *Cartesian) trilinear(points []r3.Vec, names []string, out [][]float64) {
	for i, p := range points {
		if !g.contains(p) {
			for qi := range names {
				out[qi][i] = math.NaN()
			}
			continue
		}
		fx, fy, fz := g.fractional(p)
		ix := clampIndex(int(math.Floor(fx)), g.nx-1)
		iy := clampIndex(int(math.Floor(fy)), g.ny-1)
		iz := clampIndex(int(math.Floor(fz)), g.nz-1)
		wx, wy, wz := fx-float64(ix), fy-float64(iy), fz-float64(iz)

		for qi, name := range names {
			v := g.data[name]
			c000 := v[g.idx(ix, iy, iz)]
			c100 := v[g.idx(ix+1, iy, iz)]
			c010 := v[g.idx(ix, iy+1, iz)]
			c110 := v[g.idx(ix+1, iy+1, iz)]
			c001 := v[g.idx(ix, iy, iz+1)]
			c101 := v[g.idx(ix+1, iy, iz+1)]
			c011 := v[g.idx(ix, iy+1, iz+1)]
			c111 := v[g.idx(ix+1, iy+1, iz+1)]

			c00 := c000 + (c100-c000)*wx
			c10 := c010 + (c110-c010)*wx
			c01 := c001 + (c101-c001)*wx
			c11 := c011 + (c111-c011)*wx

			c0 := c00 + (c10-c00)*wy
			c1 := c01 + (c11-c01)*wy

			out[qi][i] = c0 + (c1-c0)*wz
		}
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
