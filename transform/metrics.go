package transform

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/projmap/projcal/spatialmath"
)

// AlignmentError measures how well a solved transform maps the projector
// points onto the observed world points. It returns the RMS Euclidean
// distance in world units, and the same value divided by the transform's
// scale so that callers can compare alignment quality independent of scene
// scale. A scale at or below the zero tolerance leaves the error
// unnormalized.
func AlignmentError(projectorPts, worldPts []r3.Vector, m spatialmath.Mat4, scale float64) (absolute, normalized float64) {
	if len(projectorPts) == 0 {
		return 0, 0
	}
	sumSq := 0.
	for i, pp := range projectorPts {
		mapped := m.TransformPoint(pp)
		d := mapped.Distance(worldPts[i])
		sumSq += d * d
	}
	absolute = math.Sqrt(sumSq / float64(len(projectorPts)))
	normalized = absolute
	if scale > spatialmath.ZeroVectorTolerance {
		normalized = absolute / scale
	}
	return absolute, normalized
}
