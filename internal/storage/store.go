// Package storage persists runs: metadata.json, the scene config, a
// frames.csv of per-frame diagnostics and optional binary state dumps.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/metrics"
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

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Scene        string             `json:"scene"`
	Solver       string             `json:"solver"`
	Pressure     string             `json:"pressure"`
	LinearSolver string             `json:"linear_solver"`
	Timestamp    time.Time          `json:"timestamp"`
	Resolution   [3]int             `json:"resolution"`
	Spacing      float64            `json:"spacing"`
	FPS          float64            `json:"fps"`
	Frames       int                `json:"frames"`
	Elapsed      float64            `json:"elapsed_seconds"`
	Metrics      map[string]float64 `json:"metrics"`
}

// FrameRecord is one row of frames.csv.
type FrameRecord struct {
	Frame              int     `csv:"frame" json:"frame"`
	Time               float64 `csv:"time" json:"time"`
	Particles          int     `csv:"particles" json:"particles"`
	KineticEnergy      float64 `csv:"kinetic_energy" json:"kinetic_energy"`
	EnergyDrift        float64 `csv:"energy_drift" json:"energy_drift"`
	MaxDivergence      float64 `csv:"max_divergence" json:"max_divergence"`
	PressureResidual   float64 `csv:"pressure_residual" json:"pressure_residual"`
	PressureIterations int     `csv:"pressure_iterations" json:"pressure_iterations"`
}

// RecordFrom copies the known metrics out of snap. Missing metrics stay zero.
func RecordFrom(snap metrics.Snapshot) FrameRecord {
	get := func(name string) float64 {
		v, _ := snap.Get(name)
		return v
	}
	return FrameRecord{
		Frame:              snap.Frame,
		Time:               snap.Time,
		Particles:          int(get("particles")),
		KineticEnergy:      get("kinetic_energy"),
		EnergyDrift:        get("energy_drift"),
		MaxDivergence:      get("max_divergence"),
		PressureResidual:   get("pressure_residual"),
		PressureIterations: int(get("pressure_iterations")),
	}
}

// Run is an open run directory.
type Run struct {
	ID     string
	dir    string
	frames *os.File
	header bool
}

// Create makes a new run directory for cfg and writes config.yaml into it.
func (s *Store) Create(cfg *config.Config) (*Run, error) {
	id := fmt.Sprintf("%s_%d", cfg.Scene.Name, time.Now().UnixNano())
	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	if err := config.Save(filepath.Join(dir, "config.yaml"), cfg); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	return &Run{ID: id, dir: dir, frames: f}, nil
}

func (r *Run) Dir() string { return r.dir }

// WriteFrame appends one row to frames.csv.
func (r *Run) WriteFrame(rec FrameRecord) error {
	records := []FrameRecord{rec}
	if !r.header {
		if err := gocsv.Marshal(records, r.frames); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		r.header = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.frames); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Finish writes metadata.json and closes the run.
func (r *Run) Finish(meta RunMetadata) error {
	defer r.frames.Close()
	meta.ID = r.ID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	f, err := os.Create(filepath.Join(r.dir, "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns every readable run, newest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), "config.yaml"))
}

func (s *Store) LoadFrames(runID string) ([]FrameRecord, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), "frames.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []FrameRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading frames: %w", err)
	}
	return records, nil
}
