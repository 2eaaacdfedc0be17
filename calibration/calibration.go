// Package calibration manages named projector calibrations: it validates
// correspondence points, dispatches to the similarity or DLT solver based on
// the calibration's declared type, and keeps the solved transform and its
// quality metric on the registry entry.
package calibration

import (
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/projmap/projcal/spatialmath"
	"github.com/projmap/projcal/transform"
)

// ErrCalibrationNotFound is returned when a name is not in the session's
// registry.
var ErrCalibrationNotFound = errors.New("no calibration with that name")

// Type selects which solver a calibration dispatches to.
type Type string

const (
	// SimilarityThreePoint is the three-point orthonormal-basis similarity
	// solve. Calibrations of this type need exactly three points.
	SimilarityThreePoint = Type("similarity_3pt")

	// DLTFourPoint is the direct-linear-transform projection solve.
	// Calibrations of this type need at least four points.
	DLTFourPoint = Type("dlt_4pt")
)

// CorrespondencePair ties a measured world-space position to the projector UV
// coordinate that should land on it. Pairs are plain values; the label is for
// the operator's benefit only.
type CorrespondencePair struct {
	World       r3.Vector
	ProjectorUV r2.Point
	Label       string
}

// Calibration is one named alignment between a projector and a surface. A
// solve sets Transform, Error and Calibrated; any structural edit to Points
// clears them again.
type Calibration struct {
	ID         uuid.UUID
	Name       string
	Type       Type
	Points     []CorrespondencePair
	Transform  *spatialmath.Mat4
	Error      float64
	Calibrated bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Validate checks a point set against a calibration type's contract without
// solving anything. It reports whether a solve could proceed and, if not, the
// human-readable reasons. This is advisory; the solvers enforce the same
// contracts as hard failures.
func Validate(ctype Type, points []CorrespondencePair) (bool, []string) {
	var reasons []string
	switch ctype {
	case SimilarityThreePoint:
		if len(points) != 3 {
			reasons = append(reasons, fmt.Sprintf("similarity alignment needs exactly 3 points, have %d", len(points)))
		} else {
			proj := make([]r3.Vector, 3)
			world := make([]r3.Vector, 3)
			for i, pt := range points {
				proj[i] = transform.UVToPoint(pt.ProjectorUV)
				world[i] = pt.World
			}
			if spatialmath.AreCollinear(proj[0], proj[1], proj[2]) {
				reasons = append(reasons, "projector points are collinear")
			}
			if spatialmath.AreCollinear(world[0], world[1], world[2]) {
				reasons = append(reasons, "world points are collinear")
			}
		}
	case DLTFourPoint:
		if len(points) < transform.MinDLTPoints {
			reasons = append(reasons, fmt.Sprintf("DLT needs at least %d points, have %d", transform.MinDLTPoints, len(points)))
		}
	default:
		reasons = append(reasons, fmt.Sprintf("unknown calibration type %q", ctype))
	}
	reasons = append(reasons, pointSetReasons(points)...)
	return len(reasons) == 0, reasons
}

// pointSetReasons checks the per-point invariants that hold regardless of
// calibration type: UVs inside the unit square, and no two points sharing a
// world position or a UV.
func pointSetReasons(points []CorrespondencePair) []string {
	var reasons []string
	for i, pt := range points {
		uv := pt.ProjectorUV
		if uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
			reasons = append(reasons, fmt.Sprintf("point %d (%q): UV (%v, %v) is outside [0,1]x[0,1]", i, pt.Label, uv.X, uv.Y))
		}
		for j := i + 1; j < len(points); j++ {
			other := points[j]
			if pt.World == other.World {
				reasons = append(reasons, fmt.Sprintf("points %d and %d share world position %v", i, j, pt.World))
			}
			if pt.ProjectorUV == other.ProjectorUV {
				reasons = append(reasons, fmt.Sprintf("points %d and %d share UV %v", i, j, pt.ProjectorUV))
			}
		}
	}
	return reasons
}

// reasonsToError folds validation reasons into a single error.
func reasonsToError(reasons []string) error {
	var err error
	for _, reason := range reasons {
		err = multierr.Append(err, errors.New(reason))
	}
	return err
}

// splitPoints separates pairs into the order-matched slices the solvers take.
func splitPoints(points []CorrespondencePair) ([]r2.Point, []r3.Vector) {
	uvs := make([]r2.Point, len(points))
	world := make([]r3.Vector, len(points))
	for i, pt := range points {
		uvs[i] = pt.ProjectorUV
		world[i] = pt.World
	}
	return uvs, world
}
