package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

const (
	accountKeyFile = "account.key"

	certMode = os.FileMode(0o644)
	keyMode  = os.FileMode(0o600)
)

// FileStore implements interfaces.CertificateStore on the local file
// system. Layout under the base directory:
//
//	account.key     ACME account private key (0600)
//	<domain>.crt    certificate chain PEM (0644)
//	<domain>.key    domain private key PEM (0600)
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file-backed certificate store rooted at
// baseDir, creating the directory if needed. The directory itself is
// owner-only since it holds private keys.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

func (s *FileStore) StoreAccountKey(ctx context.Context, keyPEM []byte) error {
	return s.write(filepath.Join(s.baseDir, accountKeyFile), keyPEM, keyMode)
}

func (s *FileStore) LoadAccountKey(ctx context.Context) ([]byte, error) {
	return s.read(filepath.Join(s.baseDir, accountKeyFile))
}

func (s *FileStore) DeleteAccountKey(ctx context.Context) error {
	return s.remove(filepath.Join(s.baseDir, accountKeyFile))
}

func (s *FileStore) StoreCertificate(ctx context.Context, domain string, chainPEM []byte) error {
	path, err := s.domainPath(domain, ".crt")
	if err != nil {
		return err
	}
	return s.write(path, chainPEM, certMode)
}

func (s *FileStore) LoadCertificate(ctx context.Context, domain string) ([]byte, error) {
	path, err := s.domainPath(domain, ".crt")
	if err != nil {
		return nil, err
	}
	return s.read(path)
}

func (s *FileStore) DeleteCertificate(ctx context.Context, domain string) error {
	path, err := s.domainPath(domain, ".crt")
	if err != nil {
		return err
	}
	return s.remove(path)
}

func (s *FileStore) StoreKey(ctx context.Context, domain string, keyPEM []byte) error {
	path, err := s.domainPath(domain, ".key")
	if err != nil {
		return err
	}
	return s.write(path, keyPEM, keyMode)
}

func (s *FileStore) LoadKey(ctx context.Context, domain string) ([]byte, error) {
	path, err := s.domainPath(domain, ".key")
	if err != nil {
		return nil, err
	}
	return s.read(path)
}

func (s *FileStore) DeleteKey(ctx context.Context, domain string) error {
	path, err := s.domainPath(domain, ".key")
	if err != nil {
		return err
	}
	return s.remove(path)
}

func (s *FileStore) HasCertificate(ctx context.Context, domain string) bool {
	if _, err := s.LoadCertificate(ctx, domain); err != nil {
		return false
	}
	if _, err := s.LoadKey(ctx, domain); err != nil {
		return false
	}
	return true
}

// Available checks that the base directory still exists.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

func (s *FileStore) LocationURI() string {
	return s.locationURI
}

func (s *FileStore) write(path string, data []byte, mode os.FileMode) error {
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile applies the mode only on creation; re-assert it so an
	// overwrite of a pre-existing key file cannot widen access.
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	s.log.Debug("Stored file", slog.String("path", path), slog.Int("size", len(data)))
	return nil
}

func (s *FileStore) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (s *FileStore) remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// domainPath maps a domain to a file path, refusing names that could
// escape the base directory.
func (s *FileStore) domainPath(domain string, suffix string) (string, error) {
	if domain == "" || strings.ContainsAny(domain, "/\\") || strings.Contains(domain, "..") {
		return "", fmt.Errorf("invalid domain name %q", domain)
	}
	return filepath.Join(s.baseDir, domain+suffix), nil
}
