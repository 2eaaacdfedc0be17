package calibration

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/projmap/projcal/spatialmath"
)

// PointRecord is the serializable form of a correspondence pair.
type PointRecord struct {
	World       [3]float64 `json:"world_position"`
	ProjectorUV [2]float64 `json:"projector_uv"`
	Label       string     `json:"label"`
}

// Record is the serializable form of a calibration. Matrix is the 4x4
// transform as nested row-major arrays, present only when the calibration has
// been solved. Timestamps marshal as RFC 3339. Round-tripping a calibration
// through its record is lossless.
type Record struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Type       Type          `json:"type"`
	Points     []PointRecord `json:"points"`
	Matrix     [][]float64   `json:"matrix,omitempty"`
	Error      float64       `json:"error"`
	Calibrated bool          `json:"calibrated"`
	CreatedAt  time.Time     `json:"created_at"`
	ModifiedAt time.Time     `json:"modified_at"`
}

// Record converts the calibration to its serializable form.
func (c *Calibration) Record() *Record {
	rec := &Record{
		ID:         c.ID.String(),
		Name:       c.Name,
		Type:       c.Type,
		Points:     make([]PointRecord, len(c.Points)),
		Error:      c.Error,
		Calibrated: c.Calibrated,
		CreatedAt:  c.CreatedAt,
		ModifiedAt: c.ModifiedAt,
	}
	for i, pt := range c.Points {
		rec.Points[i] = PointRecord{
			World:       [3]float64{pt.World.X, pt.World.Y, pt.World.Z},
			ProjectorUV: [2]float64{pt.ProjectorUV.X, pt.ProjectorUV.Y},
			Label:       pt.Label,
		}
	}
	if c.Transform != nil {
		rec.Matrix = make([][]float64, 4)
		for i := 0; i < 4; i++ {
			rec.Matrix[i] = make([]float64, 4)
			for j := 0; j < 4; j++ {
				rec.Matrix[i][j] = c.Transform[i][j]
			}
		}
	}
	return rec
}

// Calibration converts the record back to a calibration value.
func (rec *Record) Calibration() (*Calibration, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "record %q has a malformed id", rec.Name)
	}
	if rec.Type != SimilarityThreePoint && rec.Type != DLTFourPoint {
		return nil, errors.Errorf("record %q has unknown calibration type %q", rec.Name, rec.Type)
	}
	c := &Calibration{
		ID:         id,
		Name:       rec.Name,
		Type:       rec.Type,
		Points:     make([]CorrespondencePair, len(rec.Points)),
		Error:      rec.Error,
		Calibrated: rec.Calibrated,
		CreatedAt:  rec.CreatedAt,
		ModifiedAt: rec.ModifiedAt,
	}
	for i, pt := range rec.Points {
		c.Points[i] = CorrespondencePair{
			World:       r3.Vector{X: pt.World[0], Y: pt.World[1], Z: pt.World[2]},
			ProjectorUV: r2.Point{X: pt.ProjectorUV[0], Y: pt.ProjectorUV[1]},
			Label:       pt.Label,
		}
	}
	if rec.Matrix != nil {
		if len(rec.Matrix) != 4 {
			return nil, errors.Errorf("record %q matrix must have 4 rows, has %d", rec.Name, len(rec.Matrix))
		}
		var m spatialmath.Mat4
		for i, row := range rec.Matrix {
			if len(row) != 4 {
				return nil, errors.Errorf("record %q matrix row %d must have 4 columns, has %d", rec.Name, i, len(row))
			}
			copy(m[i][:], row)
		}
		c.Transform = &m
	}
	if c.Calibrated && c.Transform == nil {
		return nil, errors.Errorf("record %q is marked calibrated but carries no matrix", rec.Name)
	}
	return c, nil
}

// Records returns the serializable form of every registered calibration,
// ordered by name.
func (s *Session) Records() []*Record {
	names := s.Names()
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]*Record, 0, len(names))
	for _, name := range names {
		recs = append(recs, s.calibrations[name].Record())
	}
	return recs
}

// Restore registers calibrations from their serializable form, replacing any
// existing entries with the same names.
func (s *Session) Restore(recs []*Record) error {
	restored := make([]*Calibration, 0, len(recs))
	for _, rec := range recs {
		c, err := rec.Calibration()
		if err != nil {
			return err
		}
		restored = append(restored, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range restored {
		s.calibrations[c.Name] = c
	}
	return nil
}

// SaveFile writes every registered calibration to a JSON file.
func (s *Session) SaveFile(path string) error {
	data, err := json.MarshalIndent(s.Records(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "error encoding calibrations")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "error writing calibration file")
	}
	return nil
}

// LoadFile reads calibrations from a JSON file written by SaveFile and
// registers them on the session.
func (s *Session) LoadFile(path string) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "error opening calibration file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "error reading calibration file")
	}
	var recs []*Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return errors.Wrap(err, "error parsing calibration file")
	}
	return s.Restore(recs)
}
