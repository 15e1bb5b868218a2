package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/verlet/internal/dynamo"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	T0         float64            `json:"t0"`
	T1         float64            `json:"t1"`
	Dt         float64            `json:"dt"`
	Particles  int                `json:"particles"`
	Dim        int                `json:"dim"`
	Samples    int                `json:"samples"`
	ForceEvals int                `json:"force_evals"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Save writes meta and the position history of tr under a fresh run ID and
// returns it. Shape fields of meta are filled in from tr.
func (s *Store) Save(meta RunMetadata, tr *dynamo.Trajectory) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Particles = tr.Particles()
	meta.Dim = tr.Dim()
	meta.Samples = tr.Len()
	meta.ForceEvals = tr.ForceEvals

	runDir, err := s.claim(&meta)
	if err != nil {
		return "", err
	}

	if err := writeRun(runDir, meta, tr); err != nil {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			return "", errors.Join(err, rmErr)
		}
		return "", err
	}

	return meta.ID, nil
}

// writeRun writes the positions before the metadata, so a directory that
// List can read always holds a complete run.
func writeRun(runDir string, meta RunMetadata, tr *dynamo.Trajectory) error {
	if err := writePositions(filepath.Join(runDir, positionsFile), tr); err != nil {
		return fmt.Errorf("run %s: %w", meta.ID, err)
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return fmt.Errorf("run %s: %w", meta.ID, err)
	}
	return nil
}

// create opens run files for writing.
var create = os.Create

func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// claim creates the directory of a new run. Runs saved within the same
// nanosecond get their timestamp bumped until the ID is free.
func (s *Store) claim(meta *RunMetadata) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	for {
		meta.ID = fmt.Sprintf("%s_%d", meta.Scenario, meta.Timestamp.UnixNano())
		dir := filepath.Join(s.baseDir, meta.ID)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		meta.Timestamp = meta.Timestamp.Add(time.Nanosecond)
	}
}

func writeJSON(path string, v any) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Columns returns the CSV header of a P×D run: time, then p<i>_x<d> in row
// major order.
func Columns(particles, dim int) []string {
	header := make([]string, 0, 1+particles*dim)
	header = append(header, "time")
	for p := 0; p < particles; p++ {
		for d := 0; d < dim; d++ {
			header = append(header, fmt.Sprintf("p%d_x%d", p, d))
		}
	}
	return header
}

func writePositions(path string, tr *dynamo.Trajectory) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	if err := w.Write(Columns(tr.Particles(), tr.Dim())); err != nil {
		return err
	}

	for i, t := range tr.Times {
		data := tr.Positions[i].RawMatrix().Data
		row := make([]string, 0, 1+len(data))
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, v := range data {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Series is a stored position history: one row of P×D coordinates per time.
type Series struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Column returns coordinate j (0-based, time excluded) across all samples.
func (s *Series) Column(j int) []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r[j]
	}
	return out
}

func (s *Store) LoadPositions(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty positions file", runID)
	}

	series := &Series{
		Columns: records[0],
		Times:   make([]float64, 0, len(records)-1),
		Rows:    make([][]float64, 0, len(records)-1),
	}
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: line %d: %w", runID, i+2, err)
			}
			vals[j] = v
		}
		series.Times = append(series.Times, vals[0])
		series.Rows = append(series.Rows, vals[1:])
	}

	return series, nil
}
