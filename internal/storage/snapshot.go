package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	resultSnapshotName = "initial-tracking.json"
	errorSnapshotName  = "initial-error.json"
)

// Store holds the hydration snapshots: the payload and error message the
// next launch should first-paint from, without a network round trip.
type Store struct {
	stateDir string
}

// InitialState is what a launch finds on disk. Both parts are optional and
// independent; malformed files surface as warnings only.
type InitialState struct {
	Result       map[string]any
	ErrorMessage string
	Warnings     []string
}

func NewStore(stateDir string) (*Store, error) {
	dir := strings.TrimSpace(stateDir)
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{stateDir: dir}, nil
}

func (s *Store) StateDir() string {
	return s.stateDir
}

// LoadInitial reads both snapshot files. A missing file means that part is
// simply absent. A file that does not parse is reported as a warning and
// otherwise ignored, so a corrupt snapshot can never block startup.
func (s *Store) LoadInitial() InitialState {
	state := InitialState{}

	if blob, err := os.ReadFile(filepath.Join(s.stateDir, resultSnapshotName)); err == nil {
		var payload map[string]any
		if jsonErr := json.Unmarshal(blob, &payload); jsonErr != nil {
			state.Warnings = append(state.Warnings, "ignored malformed "+resultSnapshotName)
		} else {
			state.Result = payload
		}
	}

	if blob, err := os.ReadFile(filepath.Join(s.stateDir, errorSnapshotName)); err == nil {
		var message string
		if jsonErr := json.Unmarshal(blob, &message); jsonErr != nil {
			state.Warnings = append(state.Warnings, "ignored malformed "+errorSnapshotName)
		} else {
			state.ErrorMessage = strings.TrimSpace(message)
		}
	}

	return state
}

// SaveResult stores the latest successful payload as the next launch's
// initial state and clears any stale error snapshot.
func (s *Store) SaveResult(payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	blob, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	path := filepath.Join(s.stateDir, resultSnapshotName)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Remove(filepath.Join(s.stateDir, errorSnapshotName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale error snapshot: %w", err)
	}
	return nil
}

// SaveError records an error message for the next launch to display.
func (s *Store) SaveError(message string) error {
	blob, err := json.Marshal(strings.TrimSpace(message))
	if err != nil {
		return fmt.Errorf("marshal error snapshot: %w", err)
	}
	path := filepath.Join(s.stateDir, errorSnapshotName)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
