package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mhui/eventbuddy/internal/core/model"
)

// IdentityStore caches the viewer identity in a JSON file on the local device.
// It only seeds the session before the first network round-trip completes; the
// user store stays authoritative.
type IdentityStore struct {
	path string
	mu   sync.Mutex
}

// IdentityStoreArgs are the mandatory arguments for the creation of an
// IdentityStore.
type IdentityStoreArgs struct {
	// Path is the file holding the cached identity.
	Path string
}

// NewIdentityStore creates a new IdentityStore.
func NewIdentityStore(args IdentityStoreArgs) (*IdentityStore, error) {
	if args.Path == "" {
		return nil, errors.New("identity store path is empty")
	}
	return &IdentityStore{path: args.Path}, nil
}

// Load returns the cached identity, or nil when none was stored.
func (s *IdentityStore) Load() (*model.StoredIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}

	identity := new(model.StoredIdentity)
	if err := json.Unmarshal(data, identity); err != nil {
		// a corrupt cache reads as absent; the session falls back to sign-in
		return nil, nil
	}
	if identity.ID == "" {
		return nil, nil
	}
	return identity, nil
}

// Save caches the identity and marks onboarding as complete. The write goes
// through a temp file and a rename so a crash never leaves a torn cache.
func (s *IdentityStore) Save(identity model.StoredIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".identity-*")
	if err != nil {
		return fmt.Errorf("create temp identity file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write identity file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close identity file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace identity file: %w", err)
	}
	return nil
}

// Clear removes the cached identity and the onboarding marker.
func (s *IdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove identity file: %w", err)
	}
	return nil
}

// OnboardingComplete reports whether an identity is currently cached.
func (s *IdentityStore) OnboardingComplete() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat identity file: %w", err)
	}
	return true, nil
}
