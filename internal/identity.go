package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	stateDirPerm  = 0o700
	stateFilePerm = 0o600
)

// DeviceIdentity is the stable, random identifier presented to the remote
// service across runs. It is generated once and never rotated.
type DeviceIdentity struct {
	ID        string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityStore persists a DeviceIdentity to a single JSON file with
// owner-only permissions. Loads after the first return the persisted value
// unchanged.
type IdentityStore struct {
	path   string
	logger *slog.Logger

	cached *DeviceIdentity
}

// NewIdentityStore creates a store backed by the given file path.
// A nil logger disables diagnostics.
func NewIdentityStore(path string, logger *slog.Logger) *IdentityStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IdentityStore{path: path, logger: logger}
}

// Load returns the persisted identity, generating and persisting a new one on
// first use. A corrupt state file is replaced with a fresh identity rather
// than failing the run.
func (s *IdentityStore) Load() (DeviceIdentity, error) {
	if s.cached != nil {
		return *s.cached, nil
	}

	if id, ok := s.readFile(); ok {
		s.cached = &id
		return id, nil
	}

	fresh := DeviceIdentity{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.writeFile(fresh); err != nil {
		return DeviceIdentity{}, fmt.Errorf("persist device identity: %w", err)
	}

	s.cached = &fresh
	return fresh, nil
}

func (s *IdentityStore) readFile() (DeviceIdentity, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unreadable identity file, regenerating", "path", s.path, "error", err)
		}
		return DeviceIdentity{}, false
	}

	var id DeviceIdentity
	if err := json.Unmarshal(data, &id); err != nil || id.ID == "" {
		s.logger.Warn("corrupt identity file, regenerating", "path", s.path)
		return DeviceIdentity{}, false
	}
	return id, true
}

func (s *IdentityStore) writeFile(id DeviceIdentity) error {
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(s.path, append(data, '\n'))
}

// atomicWrite persists data via a temp file and rename so that a concurrent
// reader observes either the old or the new content, never a torn write.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, stateFilePerm); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to save state file: %w", err)
	}

	return nil
}
