// Package save provides interval-triggered snapshot routines for the
// particle tracker: one accumulating in memory for post-run analysis, one
// streaming to disk for long runs.
package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fieldtrack/internal/tracker"
)

// Snapshot is one recorded state: the full particle arrays plus the
// simulation time. On the wire vector components are encoded as strings, so
// the NaN markers of stopped and removed particles survive encoding and
// finite values round-trip exactly.
type Snapshot struct {
	Time       float64
	Step       int
	Positions  []r3.Vec
	Velocities []r3.Vec
}

type snapshotJSON struct {
	Time       float64     `json:"time"`
	Step       int         `json:"step"`
	Positions  [][3]string `json:"positions"`
	Velocities [][3]string `json:"velocities"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Time:       s.Time,
		Step:       s.Step,
		Positions:  encodeVecs(s.Positions),
		Velocities: encodeVecs(s.Velocities),
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	positions, err := decodeVecs(w.Positions)
	if err != nil {
		return err
	}
	velocities, err := decodeVecs(w.Velocities)
	if err != nil {
		return err
	}
	s.Time = w.Time
	s.Step = w.Step
	s.Positions = positions
	s.Velocities = velocities
	return nil
}

func encodeVecs(vs []r3.Vec) [][3]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	out := make([][3]string, len(vs))
	for i, v := range vs {
		out[i] = [3]string{f(v.X), f(v.Y), f(v.Z)}
	}
	return out
}

func decodeVecs(ws [][3]string) ([]r3.Vec, error) {
	out := make([]r3.Vec, len(ws))
	for i, w := range ws {
		for c, comp := range w {
			v, err := strconv.ParseFloat(comp, 64)
			if err != nil {
				return nil, fmt.Errorf("vector %d component %d: %w", i, c, err)
			}
			switch c {
			case 0:
				out[i].X = v
			case 1:
				out[i].Y = v
			case 2:
				out[i].Z = v
			}
		}
	}
	return out, nil
}

// interval tracks whether enough simulation time elapsed since the last
// snapshot. The first frame always records.
type interval struct {
	every float64
	last  float64
	armed bool
}

func (iv *interval) due(t float64) bool {
	if iv.armed && t-iv.last < iv.every {
		return false
	}
	iv.armed = true
	iv.last = t
	return true
}

// Memory records snapshots to an in-memory ordered sequence, exposed for
// post-run analysis.
type Memory struct {
	iv        interval
	Snapshots []Snapshot
}

// NewMemory builds a memory-backed save routine recording every `every`
// seconds of simulation time.
func NewMemory(every float64) *Memory {
	return &Memory{iv: interval{every: every}}
}

func (m *Memory) Save(f tracker.Frame) error {
	if !m.iv.due(f.Time) {
		return nil
	}
	m.Snapshots = append(m.Snapshots, snapshotOf(f))
	return nil
}

// Times returns the recorded snapshot times.
func (m *Memory) Times() []float64 {
	ts := make([]float64, len(m.Snapshots))
	for i, s := range m.Snapshots {
		ts[i] = s.Time
	}
	return ts
}

// Disk writes one file per snapshot under a directory and holds no history
// in memory.
type Disk struct {
	iv  interval
	dir string
	seq int
}

// NewDisk builds a disk-backed save routine writing into dir every `every`
// seconds of simulation time. The directory is created if needed.
func NewDisk(every float64, dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Disk{iv: interval{every: every}, dir: dir}, nil
}

func (d *Disk) Save(f tracker.Frame) error {
	if !d.iv.due(f.Time) {
		return nil
	}
	path := filepath.Join(d.dir, fmt.Sprintf("snapshot_%06d.json", d.seq))
	d.seq++
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(snapshotOf(f))
}

// Dir returns the snapshot directory.
func (d *Disk) Dir() string { return d.dir }

// ReadSnapshot loads a snapshot file written by Disk.
func ReadSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var s Snapshot
	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &s, nil
}

// ReadAll loads every snapshot in dir in sequence order.
func ReadAll(dir string) ([]Snapshot, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "snapshot_*.json"))
	if err != nil {
		return nil, err
	}
	snaps := make([]Snapshot, 0, len(paths))
	for _, p := range paths {
		s, err := ReadSnapshot(p)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *s)
	}
	return snaps, nil
}

// snapshotOf copies the frame arrays; the tracker reuses its slices between
// steps.
func snapshotOf(f tracker.Frame) Snapshot {
	return Snapshot{
		Time:       f.Time,
		Step:       f.Step,
		Positions:  append([]r3.Vec(nil), f.X...),
		Velocities: append([]r3.Vec(nil), f.V...),
	}
}
