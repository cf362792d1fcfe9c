package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"github.com/hashicorp/vault/api"
)

// accountKeySecret is the fixed name of the account key credential
// inside the Vault data path.
const accountKeySecret = "acme-account-key"

// VaultStore implements interfaces.CertificateStore with the ACME
// account key delegated to HashiCorp Vault's KV v2 secret engine.
// Certificates and domain keys remain on disk through an embedded
// FileStore.
//
// On the first account-key load after switching to Vault, a key left
// behind by a previous file-backed deployment is migrated: read from
// disk, written to Vault, then deleted from disk. The migration is
// idempotent; once the secret exists in Vault no further file
// operations happen.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	files       *FileStore
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault-backed certificate store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "clipsync")
//   - token: Vault token; falls back to the VAULT_TOKEN environment
//     variable when empty
//   - files: file store holding certificates and domain keys, and the
//     legacy account-key location for migration
func NewVaultStore(address, mountPath, dataPath, token string, files *FileStore, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		files:       files,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// StoreAccountKey writes the account key to Vault.
func (s *VaultStore) StoreAccountKey(ctx context.Context, keyPEM []byte) error {
	path := s.secretPath(accountKeySecret)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": string(keyPEM),
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		s.log.Error("Failed to write account key to Vault",
			slog.String("path", path), "err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Info("Stored account key in Vault", slog.String("path", path))
	return nil
}

// LoadAccountKey reads the account key from Vault, migrating a legacy
// on-disk key the first time.
func (s *VaultStore) LoadAccountKey(ctx context.Context) ([]byte, error) {
	keyPEM, err := s.readSecret(ctx, accountKeySecret)
	if err == nil {
		return keyPEM, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	// Not in Vault: try the legacy file location once.
	legacy, fileErr := s.files.LoadAccountKey(ctx)
	if errors.Is(fileErr, interfaces.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if fileErr != nil {
		return nil, fileErr
	}

	if err := s.StoreAccountKey(ctx, legacy); err != nil {
		return nil, fmt.Errorf("migrating account key to Vault: %w", err)
	}
	if err := s.files.DeleteAccountKey(ctx); err != nil {
		return nil, fmt.Errorf("removing migrated account key file: %w", err)
	}

	s.log.Info("Migrated account key from file to Vault")
	return legacy, nil
}

// DeleteAccountKey removes the account key secret from Vault.
func (s *VaultStore) DeleteAccountKey(ctx context.Context) error {
	// KV v2 metadata delete removes all versions.
	path := fmt.Sprintf("%s/metadata/%s/%s", s.mountPath, s.dataPath, accountKeySecret)
	if _, err := s.client.Logical().DeleteWithContext(ctx, path); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *VaultStore) StoreCertificate(ctx context.Context, domain string, chainPEM []byte) error {
	return s.files.StoreCertificate(ctx, domain, chainPEM)
}

func (s *VaultStore) LoadCertificate(ctx context.Context, domain string) ([]byte, error) {
	return s.files.LoadCertificate(ctx, domain)
}

func (s *VaultStore) DeleteCertificate(ctx context.Context, domain string) error {
	return s.files.DeleteCertificate(ctx, domain)
}

func (s *VaultStore) StoreKey(ctx context.Context, domain string, keyPEM []byte) error {
	return s.files.StoreKey(ctx, domain, keyPEM)
}

func (s *VaultStore) LoadKey(ctx context.Context, domain string) ([]byte, error) {
	return s.files.LoadKey(ctx, domain)
}

func (s *VaultStore) DeleteKey(ctx context.Context, domain string) error {
	return s.files.DeleteKey(ctx, domain)
}

func (s *VaultStore) HasCertificate(ctx context.Context, domain string) bool {
	return s.files.HasCertificate(ctx, domain)
}

// Available checks that Vault is initialized and unsealed, and that
// the embedded file store is reachable.
func (s *VaultStore) Available(ctx context.Context) bool {
	if !s.files.Available(ctx) {
		return false
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := s.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		s.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		s.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

func (s *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s-%s", s.mountPath, s.dataPath)
}

func (s *VaultStore) LocationURI() string {
	return s.locationURI
}

func (s *VaultStore) secretPath(name string) string {
	// Vault KV v2 path structure.
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, name)
}

func (s *VaultStore) readSecret(ctx context.Context, name string) ([]byte, error) {
	path := s.secretPath(name)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read from Vault", slog.String("path", path), "err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response for %s", path)
	}

	content, ok := data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content key not found in Vault data for %s", path)
	}

	return []byte(content), nil
}
