package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/verlet/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Columns   []string    `json:"columns"`
	Times     []float64   `json:"times"`
	Positions [][]float64 `json:"positions"`
}

// ExportJSON writes an in-memory run as indented JSON. Positions holds one
// flattened P×D row per sample, in the order of Columns()[1:].
func ExportJSON(w io.Writer, meta RunMetadata, tr *dynamo.Trajectory) error {
	meta.Particles = tr.Particles()
	meta.Dim = tr.Dim()
	meta.Samples = tr.Len()
	meta.ForceEvals = tr.ForceEvals

	data := ExportData{
		RunMetadata: meta,
		Columns:     Columns(meta.Particles, meta.Dim),
		Times:       tr.Times,
		Positions:   make([][]float64, tr.Len()),
	}
	for i, x := range tr.Positions {
		data.Positions[i] = x.RawMatrix().Data
	}
	return encode(w, data)
}

// Export writes a stored run in the same format as ExportJSON.
func (s *Store) Export(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadPositions(runID)
	if err != nil {
		return err
	}

	return encode(w, ExportData{
		RunMetadata: *meta,
		Columns:     series.Columns,
		Times:       series.Times,
		Positions:   series.Rows,
	})
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
