// Package grid provides the field-grid abstraction consumed by the particle
// tracker: a spatial domain carrying named scalar quantities (field
// components) that can be interpolated at arbitrary points.
package grid

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Canonical electromagnetic field component names.
const (
	Ex = "E_x"
	Ey = "E_y"
	Ez = "E_z"
	Bx = "B_x"
	By = "B_y"
	Bz = "B_z"
)

// EMQuantities lists the six field components the tracker interpolates
// every step, in the order the tracker expects them.
var EMQuantities = []string{Ex, Ey, Ez, Bx, By, Bz}

// Weighting selects the interpolation scheme used to estimate field values
// at an off-lattice position.
type Weighting string

const (
	// VolumeAveraged weights the eight grid vertices surrounding a point
	// by the opposing sub-cell volumes (trilinear interpolation).
	VolumeAveraged Weighting = "volume averaged"

	// NearestNeighbor assigns the value at the closest grid vertex.
	NearestNeighbor Weighting = "nearest neighbor"
)

// ParseWeighting validates a weighting scheme name.
func ParseWeighting(name string) (Weighting, error) {
	switch Weighting(name) {
	case VolumeAveraged, NearestNeighbor:
		return Weighting(name), nil
	}
	return "", fmt.Errorf("%q is not a valid field weighting (valid choices: %q, %q)",
		name, VolumeAveraged, NearestNeighbor)
}

// Source is a field grid as seen by the tracker. Interpolated values for
// points outside the grid domain are NaN; callers decide how to treat them.
type Source interface {
	// OnGrid reports, for each point, whether it falls inside the grid
	// domain. NaN coordinates are never on grid.
	OnGrid(points []r3.Vec) []bool

	// Interpolate estimates the named quantities at each point using the
	// given weighting scheme. The result has one slice per requested name,
	// each of length len(points), with NaN entries for off-grid points.
	Interpolate(points []r3.Vec, w Weighting, names ...string) ([][]float64, error)

	// Resolution is the characteristic grid spacing in meters, used for
	// Courant-like timestep bounds.
	Resolution() float64

	// RequireQuantities ensures the named quantities exist on the grid.
	// When replaceWithZeros is true, missing quantities are filled with
	// zeros; otherwise a missing quantity is an error.
	RequireQuantities(names []string, replaceWithZeros bool) error
}

// Validator is implemented by sources that expose field-quality checks.
// The tracker uses it at construction time to reject non-finite data and to
// warn about fields that do not decay to zero at the domain boundary.
type Validator interface {
	// CheckFinite returns an error if the named quantity contains NaN or
	// infinite values.
	CheckFinite(name string) error

	// EdgeMax returns the maximum absolute value of the named quantity on
	// the boundary of the domain and over the whole domain.
	EdgeMax(name string) (edge, overall float64)
}
