package calibration

import (
	"runtime"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/projmap/projcal/spatialmath"
	"github.com/projmap/projcal/transform"
)

// Session owns a registry of named calibrations. All access to the registry
// goes through the session's lock; the solvers themselves are pure functions,
// so distinct calibrations may be solved in parallel (see AlignAll).
type Session struct {
	logger golog.Logger
	clock  clock.Clock

	mu           sync.Mutex
	calibrations map[string]*Calibration
}

// NewSession returns an empty session logging through the given logger.
func NewSession(logger golog.Logger) *Session {
	return &Session{
		logger:       logger,
		clock:        clock.New(),
		calibrations: map[string]*Calibration{},
	}
}

// AlignmentResult reports a solve outcome. Matrix and Error are always set;
// Similarity carries the full similarity output for three-point solves and
// DLT the projection output for DLT solves.
type AlignmentResult struct {
	Name       string
	Type       Type
	Matrix     spatialmath.Mat4
	Error      float64
	Similarity *transform.SimilarityResult
	DLT        *transform.DLTResult
}

// CreateCalibration constructs a calibration and registers it under its name,
// replacing any previous calibration with the same name. It does not solve.
// The per-point invariants (UVs inside the unit square, pairwise-distinct
// positions and UVs) are enforced here; the point count is only checked at
// solve time, so a calibration may be created sparse and filled in with
// AddPoint.
func (s *Session) CreateCalibration(name string, ctype Type, points []CorrespondencePair) (*Calibration, error) {
	if name == "" {
		return nil, errors.New("calibration name must not be empty")
	}
	if ctype != SimilarityThreePoint && ctype != DLTFourPoint {
		return nil, errors.Errorf("unknown calibration type %q", ctype)
	}
	if reasons := pointSetReasons(points); len(reasons) > 0 {
		return nil, reasonsToError(reasons)
	}

	now := s.clock.Now().UTC()
	c := &Calibration{
		ID:         uuid.New(),
		Name:       name,
		Type:       ctype,
		Points:     append([]CorrespondencePair{}, points...),
		CreatedAt:  now,
		ModifiedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.calibrations[name]; exists {
		s.logger.Debugw("replacing calibration", "name", name)
	}
	s.calibrations[name] = c
	return c.snapshot(), nil
}

// Calibration returns a snapshot of the named calibration.
func (s *Session) Calibration(name string) (*Calibration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calibrations[name]
	if !ok {
		return nil, errors.Wrap(ErrCalibrationNotFound, name)
	}
	return c.snapshot(), nil
}

// Names returns the registered calibration names in sorted order.
func (s *Session) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.calibrations))
	for name := range s.calibrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a point set against a calibration type's contract. See the
// package-level Validate.
func (s *Session) Validate(ctype Type, points []CorrespondencePair) (bool, []string) {
	return Validate(ctype, points)
}

// AlignSurface solves the named calibration with the solver its type selects.
// When autoApply is true a successful solve stores the 4x4 matrix and error
// on the calibration and marks it calibrated; with autoApply false the solve
// is a dry run that returns the result and leaves the registry entry
// untouched. A failed solve never writes anything: the calibration keeps its
// previous transform and stays uncalibrated if it was.
func (s *Session) AlignSurface(name string, autoApply bool) (*AlignmentResult, error) {
	s.mu.Lock()
	c, ok := s.calibrations[name]
	if !ok {
		s.mu.Unlock()
		return nil, errors.Wrap(ErrCalibrationNotFound, name)
	}
	ctype := c.Type
	points := append([]CorrespondencePair{}, c.Points...)
	s.mu.Unlock()

	result, err := solve(name, ctype, points)
	if err != nil {
		s.logger.Warnw("alignment solve failed", "name", name, "type", ctype, "error", err)
		return nil, err
	}
	s.logger.Debugw("alignment solved", "name", name, "type", ctype, "error", result.Error)

	if !autoApply {
		return result, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The entry may have been replaced while solving; only write to the one
	// the caller named if it is still registered.
	if c, ok = s.calibrations[name]; ok {
		matrix := result.Matrix
		c.Transform = &matrix
		c.Error = result.Error
		c.Calibrated = true
		c.ModifiedAt = s.clock.Now().UTC()
	}
	return result, nil
}

// AlignAll solves every registered calibration in parallel, one goroutine per
// name with a single writer per registry entry. It returns the results for
// the names that solved and the first failure, if any.
func (s *Session) AlignAll(autoApply bool) (map[string]*AlignmentResult, error) {
	var (
		resMu   sync.Mutex
		results = map[string]*AlignmentResult{}
		group   errgroup.Group
	)
	group.SetLimit(runtime.NumCPU())
	for _, name := range s.Names() {
		name := name
		group.Go(func() error {
			result, err := s.AlignSurface(name, autoApply)
			if err != nil {
				return errors.Wrapf(err, "calibration %q", name)
			}
			resMu.Lock()
			results[name] = result
			resMu.Unlock()
			return nil
		})
	}
	err := group.Wait()
	return results, err
}

// AddPoint appends a correspondence pair to the named calibration. The
// calibration goes back to uncalibrated: its transform is cleared until the
// next solve.
func (s *Session) AddPoint(name string, point CorrespondencePair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calibrations[name]
	if !ok {
		return errors.Wrap(ErrCalibrationNotFound, name)
	}
	if reasons := pointSetReasons(append(append([]CorrespondencePair{}, c.Points...), point)); len(reasons) > 0 {
		return reasonsToError(reasons)
	}
	c.Points = append(c.Points, point)
	c.invalidate()
	c.ModifiedAt = s.clock.Now().UTC()
	return nil
}

// RemovePoint removes the first point with the given label from the named
// calibration and clears its solved state.
func (s *Session) RemovePoint(name, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calibrations[name]
	if !ok {
		return errors.Wrap(ErrCalibrationNotFound, name)
	}
	for i, pt := range c.Points {
		if pt.Label == label {
			c.Points = append(c.Points[:i], c.Points[i+1:]...)
			c.invalidate()
			c.ModifiedAt = s.clock.Now().UTC()
			return nil
		}
	}
	return errors.Errorf("calibration %q has no point labeled %q", name, label)
}

// ClearTransform drops the named calibration's solved state without touching
// its points.
func (s *Session) ClearTransform(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calibrations[name]
	if !ok {
		return errors.Wrap(ErrCalibrationNotFound, name)
	}
	c.invalidate()
	c.ModifiedAt = s.clock.Now().UTC()
	return nil
}

// solve re-checks the point-count contract for the declared type and
// dispatches to the matching solver. It touches no shared state.
func solve(name string, ctype Type, points []CorrespondencePair) (*AlignmentResult, error) {
	uvs, world := splitPoints(points)
	switch ctype {
	case SimilarityThreePoint:
		if len(points) != 3 {
			return nil, errors.Wrapf(transform.ErrInsufficientPoints,
				"calibration %q needs exactly 3 points, has %d", name, len(points))
		}
		res, err := transform.EstimateSimilarityTransform(uvs, world)
		if err != nil {
			return nil, err
		}
		return &AlignmentResult{
			Name:       name,
			Type:       ctype,
			Matrix:     res.Transform.Matrix,
			Error:      res.Error,
			Similarity: res,
		}, nil
	case DLTFourPoint:
		if len(points) < transform.MinDLTPoints {
			return nil, errors.Wrapf(transform.ErrInsufficientPoints,
				"calibration %q needs at least %d points, has %d", name, transform.MinDLTPoints, len(points))
		}
		res, err := transform.EstimateProjectionDLT(uvs, world)
		if err != nil {
			return nil, err
		}
		pose := res.Rotation.Homogenize()
		pose[0][3] = res.Translation.X
		pose[1][3] = res.Translation.Y
		pose[2][3] = res.Translation.Z
		return &AlignmentResult{
			Name:   name,
			Type:   ctype,
			Matrix: pose,
			Error:  res.Error,
			DLT:    res,
		}, nil
	default:
		return nil, errors.Errorf("unknown calibration type %q", ctype)
	}
}

// invalidate clears the solved state. Callers hold the session lock.
func (c *Calibration) invalidate() {
	c.Calibrated = false
	c.Transform = nil
}

// snapshot deep-copies the calibration so callers never share memory with the
// registry entry.
func (c *Calibration) snapshot() *Calibration {
	out := *c
	out.Points = append([]CorrespondencePair{}, c.Points...)
	if c.Transform != nil {
		m := *c.Transform
		out.Transform = &m
	}
	return &out
}
