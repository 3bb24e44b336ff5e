package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/fieldtrack/internal/save"
)

// Store keeps one directory per run under a base directory: metadata.json
// plus a snapshots/ directory written by the disk save routine.
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
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Timestamp time.Time `json:"timestamp"`
	Particles int       `json:"particles"`
	Charge    float64   `json:"charge"`
	Mass      float64   `json:"mass"`
	Dt        float64   `json:"dt"`
	Weighting string    `json:"weighting"`
	Steps     int       `json:"steps"`
	FinalTime float64   `json:"final_time"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// NewRun allocates a run directory and returns its ID and the snapshot
// directory the save routine should write into.
func (s *Store) NewRun(scenario string) (runID, snapshotDir string, err error) {
	runID = fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	snapshotDir = filepath.Join(s.baseDir, runID, "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return "", "", err
	}
	return runID, snapshotDir, nil
}

// WriteMetadata records the run summary after a completed run.
func (s *Store) WriteMetadata(meta RunMetadata) error {
	metaPath := filepath.Join(s.baseDir, meta.ID, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSnapshots reads the full snapshot history of a run.
func (s *Store) LoadSnapshots(runID string) ([]save.Snapshot, error) {
	return save.ReadAll(filepath.Join(s.baseDir, runID, "snapshots"))
}

// ExportCSV writes the trajectory history of a run as CSV, one row per
// particle per snapshot.
func (s *Store) ExportCSV(runID, path string) error {
	snaps, err := s.LoadSnapshots(runID)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"time", "particle", "x", "y", "z", "vx", "vy", "vz"}
	if err := w.Write(header); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, snap := range snaps {
		for i := range snap.Positions {
			row := []string{
				f(snap.Time),
				strconv.Itoa(i),
				f(snap.Positions[i].X), f(snap.Positions[i].Y), f(snap.Positions[i].Z),
				f(snap.Velocities[i].X), f(snap.Velocities[i].Y), f(snap.Velocities[i].Z),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}
