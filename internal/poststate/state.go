package poststate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"substweet/internal/logging"
)

// ErrLocked reports that another run holds the state lock.
var ErrLocked = errors.New("state file is locked by another run")

// State is the persisted resume record. Nil fields serialize as null.
type State struct {
	Skip   *int    `json:"skip"`
	Parent *string `json:"parent"`
}

// IsZero reports whether the state carries no progress.
func (s State) IsZero() bool {
	return s.Skip == nil && s.Parent == nil
}

// UnmarshalJSON accepts parent ids written as JSON numbers as well as strings.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw struct {
		Skip   *int            `json:"skip"`
		Parent json.RawMessage `json:"parent"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Skip = raw.Skip
	s.Parent = nil

	parent := bytes.TrimSpace(raw.Parent)
	switch {
	case len(parent) == 0 || bytes.Equal(parent, []byte("null")):
	case parent[0] == '"':
		var v string
		if err := json.Unmarshal(parent, &v); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		if v = strings.TrimSpace(v); v != "" {
			s.Parent = &v
		}
	default:
		var n json.Number
		if err := json.Unmarshal(parent, &n); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		v := n.String()
		s.Parent = &v
	}
	return nil
}

// Store reads and writes the state file. A Store with an empty path is
// disabled: Load returns the zero State and Save does nothing.
type Store struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock
}

// NewStore returns a Store for path.
func NewStore(path string, logger *slog.Logger) *Store {
	path = strings.TrimSpace(path)
	s := &Store{path: path, logger: logging.NewComponentLogger(logger, "poststate")}
	if path != "" {
		s.lock = flock.New(path + ".lock")
	}
	return s
}

// Path returns the state file path, empty when disabled.
func (s *Store) Path() string { return s.path }

// Enabled reports whether a state destination is configured.
func (s *Store) Enabled() bool { return s != nil && s.path != "" }

// Lock takes the run lock without blocking. The returned func releases it.
func (s *Store) Lock() (func(), error) {
	if !s.Enabled() {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, s.lock.Path())
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Debug("state lock release failed", logging.Error(err))
		}
	}, nil
}

// Load reads the state file. Any problem yields the zero State; unreadable or
// corrupt files are logged as warnings.
func (s *Store) Load() State {
	if !s.Enabled() {
		return State{}
	}
	state, err := s.read()
	if err != nil {
		logging.WarnWithContext(s.logger, "ignoring unreadable state file", "state_load_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or delete the state file"),
			logging.String(logging.FieldImpact, "posting starts from the first caption"),
		)
		return State{}
	}
	return state
}

func (s *Store) read() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}
	s.logger.Debug("loaded posting state",
		logging.String("path", s.path),
		logging.Any("skip", state.Skip),
		logging.Any("parent", state.Parent),
	)
	return state, nil
}

// Save overwrites the state file atomically.
func (s *Store) Save(state State) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	s.logger.Debug("saved posting state", logging.String("path", s.path), logging.String("state", string(data)))
	return nil
}

// Clear deletes the state file.
func (s *Store) Clear() error {
	if !s.Enabled() {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// IntPtr and StringPtr build State fields.
func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
