package trust

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"github.com/pelletier/go-toml/v2"
)

// FileTrustStore persists the host → fingerprint table as a TOML file:
//
//	[hosts]
//	"clip.example.com" = "AA:BB:...:FF"
//
// Entries are plain strings so operators can audit and edit the file
// by hand. The whole file is rewritten on every mutation.
type FileTrustStore struct {
	mu    sync.Mutex
	path  string
	hosts map[string]interfaces.Fingerprint
}

type trustFile struct {
	Hosts map[string]string `toml:"hosts"`
}

// OpenFileTrustStore loads the trust table at path, creating an empty
// table if the file does not exist yet.
func OpenFileTrustStore(path string) (*FileTrustStore, error) {
	store := &FileTrustStore{
		path:  path,
		hosts: make(map[string]interfaces.Fingerprint),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading trust table %s: %w", path, err)
	}

	var parsed trustFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing trust table %s: %w", path, err)
	}

	for host, rendered := range parsed.Hosts {
		fp, err := interfaces.ParseFingerprint(rendered)
		if err != nil {
			return nil, fmt.Errorf("trust table %s, host %s: %w", path, host, err)
		}
		store.hosts[host] = fp
	}

	return store, nil
}

// TrustedFingerprint returns the pinned fingerprint for host, if any.
func (s *FileTrustStore) TrustedFingerprint(host string) (interfaces.Fingerprint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.hosts[host]
	return fp, ok
}

// Pin records host's fingerprint and rewrites the file.
func (s *FileTrustStore) Pin(host string, fp interfaces.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hosts[host] = fp
	return s.flush()
}

// Unpin removes host's entry and rewrites the file. Removing an absent
// entry is not an error.
func (s *FileTrustStore) Unpin(host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hosts[host]; !ok {
		return nil
	}
	delete(s.hosts, host)
	return s.flush()
}

// Snapshot returns a copy of all entries.
func (s *FileTrustStore) Snapshot() map[string]interfaces.Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]interfaces.Fingerprint, len(s.hosts))
	for host, fp := range s.hosts {
		out[host] = fp
	}
	return out
}

// flush rewrites the TOML file. Caller holds the lock.
func (s *FileTrustStore) flush() error {
	out := trustFile{Hosts: make(map[string]string, len(s.hosts))}
	for host, fp := range s.hosts {
		out.Hosts[host] = fp.String()
	}

	encoded, err := toml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding trust table: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating trust table directory: %w", err)
	}

	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return fmt.Errorf("writing trust table %s: %w", s.path, err)
	}

	return nil
}
