// Package transform solves for the transform that aligns a projector's output
// space to measured world-space positions. It contains the three-point
// similarity solver, the four-or-more-point DLT projection solver with its
// intrinsics/rotation/translation decomposition, and the shared alignment
// error metrics.
package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrDegenerateConfiguration is returned when input points are collinear
	// and cannot anchor a coordinate frame.
	ErrDegenerateConfiguration = errors.New("degenerate configuration: points are collinear")

	// ErrInsufficientPoints is returned when the number of correspondence
	// pairs does not satisfy the solver's point-count contract.
	ErrInsufficientPoints = errors.New("wrong number of correspondence points")

	// ErrNumericallyUnstable is returned when the input spread is too small
	// for a solve to produce a meaningful result.
	ErrNumericallyUnstable = errors.New("points are too close together")
)

// UVToPoint lifts a projector UV coordinate onto the z=0 plane. This is the
// single conversion between 2D projector space and the 3D frames the solvers
// work in.
func UVToPoint(uv r2.Point) r3.Vector {
	return r3.Vector{X: uv.X, Y: uv.Y, Z: 0}
}

// UVsToPoints lifts a slice of projector UV coordinates onto the z=0 plane.
func UVsToPoints(uvs []r2.Point) []r3.Vector {
	pts := make([]r3.Vector, len(uvs))
	for i, uv := range uvs {
		pts[i] = UVToPoint(uv)
	}
	return pts
}
