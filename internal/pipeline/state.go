package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/mirlab/softsim/internal/config"
)

// StageState records the last successful run of one stage.
type StageState struct {
	Fingerprint string            `json:"fingerprint"`
	Outs        map[string]string `json:"outs"` // path -> sha256
	CompletedAt time.Time         `json:"completed_at"`
}

// State is the persisted pipeline state, kept at .softsim/state.json.
type State struct {
	Stages map[string]StageState `json:"stages"`
}

// NewState returns an empty state.
func NewState() *State { return &State{Stages: make(map[string]StageState)} }

// StatePath returns the state file location under root.
func StatePath(root string) string {
	return filepath.Join(root, config.StateDir, "state.json")
}

// LockPath returns the workspace lock file location under root.
func LockPath(root string) string {
	return filepath.Join(root, config.StateDir, "repro.lock")
}

// AcquireLock takes the workspace lock, retrying until timeout. The returned
// release func is safe to call even when the lock was not obtained.
func AcquireLock(root string, timeout time.Duration) (func(), error) {
	lockPath := LockPath(root)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return func() {}, err
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire workspace lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another softsim run is in progress (lock: %s)", lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// LoadState reads the pipeline state; a missing file yields an empty state.
func LoadState(root string) (*State, error) {
	data, err := os.ReadFile(StatePath(root))
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read state %s: %w", StatePath(root), err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid state %s: %w", StatePath(root), err)
	}
	if s.Stages == nil {
		s.Stages = make(map[string]StageState)
	}
	return &s, nil
}

// SaveState writes the pipeline state atomically.
func SaveState(root string, s *State) error {
	path := StatePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write state %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
