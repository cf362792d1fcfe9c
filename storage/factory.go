package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// Factory creates certificate stores from URI strings and manages
// multi-backend configurations for redundant storage.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a factory instance.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// StoreFor creates a certificate store from a location URI.
//
// Supported schemes:
//   - file:// - local filesystem storage
//   - vault:// - account key in HashiCorp Vault, files on disk
//   - s3:// - Amazon S3 or compatible object storage
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *Factory) StoreFor(uri string) (interfaces.CertificateStore, error) {
	loc, err := interfaces.NewStoreLocation(uri)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "file":
		return f.createFileStore(loc.URL)
	case "vault":
		return f.createVaultStore(loc.URL)
	case "s3":
		return f.createS3Store(loc.URL)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, loc.Scheme)
	}
}

// CreateMultiStore creates a redundant store from a list of location
// URIs. Returns an error if no valid backend could be created.
func (f *Factory) CreateMultiStore(uris []string) (interfaces.CertificateStore, error) {
	backends := make([]interfaces.CertificateStore, 0, len(uris))

	for _, uri := range uris {
		backend, err := f.StoreFor(uri)
		if err != nil {
			f.log.Warn("Failed to create certificate store backend",
				"err", err, slog.String("locationURI", uri))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid certificate store backends created")
	}

	if len(backends) == 1 {
		return backends[0], nil
	}

	return NewMultiStore(backends, f.log), nil
}

// createFileStore handles file:///absolute/path URIs.
func (f *Factory) createFileStore(u *url.URL) (interfaces.CertificateStore, error) {
	f.log.Debug("Creating file store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %q", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, f.log)
}

// createVaultStore handles vault://host:port/mount/dataPath?token=...&scheme=https
// URIs. The token falls back to the VAULT_TOKEN environment variable,
// and the companion file store for certificates and domain keys is
// taken from the dir query parameter (default /var/lib/clipsync/certs).
func (f *Factory) createVaultStore(u *url.URL) (interfaces.CertificateStore, error) {
	f.log.Debug("Creating Vault store", slog.String("uri", u.Redacted()))

	scheme := u.Query().Get("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: vault URI path must be /mount/dataPath, got %q",
			interfaces.ErrInvalidLocationURI, u.Path)
	}

	token := u.Query().Get("token")
	if token == "" {
		token = os.Getenv("VAULT_TOKEN")
	}

	dir := u.Query().Get("dir")
	if dir == "" {
		dir = "/var/lib/clipsync/certs"
	}

	files, err := NewFileStore(dir, f.log)
	if err != nil {
		return nil, err
	}

	return NewVaultStore(address, parts[0], parts[1], token, files, f.log)
}

// createS3Store handles
// s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=eu-west-1&endpoint=minio.local
// URIs. Without embedded credentials the default AWS credential chain
// applies.
func (f *Factory) createS3Store(u *url.URL) (interfaces.CertificateStore, error) {
	f.log.Debug("Creating S3 store", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("%w: missing bucket name in %q", interfaces.ErrInvalidLocationURI, u.String())
	}

	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey, f.log)
}
