// Package storage keeps finished runs on disk, one directory per run holding
// metadata.json and states.csv.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/rmsim/internal/export"
	"github.com/san-kum/rmsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
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
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Settings   sim.Settings       `json:"settings"`
	Inputs     map[string]float64 `json:"inputs,omitempty"`
	Final      map[string]float64 `json:"final"`
}

// Save writes a run and returns its generated ID. ID, Timestamp and Final
// are filled in from the trajectory.
func (s *Store) Save(meta RunMetadata, traj *sim.Trajectory) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Model, now.UnixNano())
	meta.Timestamp = now
	meta.Final = traj.Final()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := export.WriteCSV(f, traj); err != nil {
		return "", err
	}
	return meta.ID, f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*sim.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.ReadCSV(f)
}
