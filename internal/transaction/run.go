package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the state of one tool within a run.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

const runFilePrefix = "run-"

// Run records the outcome of one multi-tool fetch.
type Run struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Tools     []ToolRun `json:"tools"`
}

// ToolRun is the state of a single tool in a Run.
type ToolRun struct {
	Name      string `json:"name"`
	State     State  `json:"state"`
	Path      string `json:"path,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// NewRun creates a run with every tool pending.
func NewRun(names []string) *Run {
	tools := make([]ToolRun, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolRun{Name: name, State: StatePending})
	}
	return &Run{
		Version:   1,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Tools:     tools,
	}
}

// Update sets the state of the named tool. A nil err clears LastError.
func (r *Run) Update(name string, state State, path string, bytes int64, err error) {
	for i := range r.Tools {
		if r.Tools[i].Name != name {
			continue
		}
		r.Tools[i].State = state
		if path != "" {
			r.Tools[i].Path = path
		}
		r.Tools[i].Bytes = bytes
		if err != nil {
			r.Tools[i].LastError = err.Error()
		} else {
			r.Tools[i].LastError = ""
		}
		return
	}
}

// Unfinished returns the names of tools that are pending, in progress or
// failed, in run order.
func (r *Run) Unfinished() []string {
	var names []string
	for _, t := range r.Tools {
		switch t.State {
		case StatePending, StateInProgress, StateFailed:
			names = append(names, t.Name)
		}
	}
	return names
}

// Succeeded reports whether every tool completed or was skipped.
func (r *Run) Succeeded() bool {
	for _, t := range r.Tools {
		if t.State != StateCompleted && t.State != StateSkipped {
			return false
		}
	}
	return len(r.Tools) > 0
}

// Save writes the run to dir atomically using write-then-rename.
func (r *Run) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	// Timestamp first so lexical order is chronological.
	filename := fmt.Sprintf("%s%s-%s.json", runFilePrefix, r.Timestamp.Format("20060102T150405.000000000Z"), r.ID)
	finalPath := filepath.Join(dir, filename)
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temporary run file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename run file: %w", err)
	}

	return nil
}

// Load reads a run from disk.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// ErrNoRuns is returned by LoadLatest when dir holds no run records.
var ErrNoRuns = errors.New("no recorded runs")

// LoadLatest reads the most recent run saved in dir.
func LoadLatest(dir string) (*Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("read run directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, runFilePrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoRuns
	}

	sort.Strings(names)
	return Load(filepath.Join(dir, names[len(names)-1]))
}
