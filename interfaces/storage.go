package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrNotFound is returned when a requested key or certificate does
	// not exist in the store.
	ErrNotFound = errors.New("not found in certificate store")

	// ErrBackendUnavailable is returned when a storage backend is not
	// accessible. This could be due to network issues, authentication
	// failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is
	// malformed or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// CertificateStore persists the ACME account key and per-domain
// certificate chains and private keys. All payloads are PEM.
//
// Implementations must write the account key and domain private keys
// with owner-only access restrictions; certificates are public and
// carry no such restriction.
type CertificateStore interface {
	// StoreAccountKey persists the ACME account private key.
	StoreAccountKey(ctx context.Context, keyPEM []byte) error

	// LoadAccountKey retrieves the ACME account private key.
	// Returns ErrNotFound if no key has been stored.
	LoadAccountKey(ctx context.Context) ([]byte, error)

	// DeleteAccountKey removes the ACME account private key.
	DeleteAccountKey(ctx context.Context) error

	// StoreCertificate persists a certificate chain for domain.
	StoreCertificate(ctx context.Context, domain string, chainPEM []byte) error

	// LoadCertificate retrieves the certificate chain for domain.
	// Returns ErrNotFound if absent.
	LoadCertificate(ctx context.Context, domain string) ([]byte, error)

	// DeleteCertificate removes the certificate chain for domain.
	DeleteCertificate(ctx context.Context, domain string) error

	// StoreKey persists the private key for domain.
	StoreKey(ctx context.Context, domain string, keyPEM []byte) error

	// LoadKey retrieves the private key for domain.
	// Returns ErrNotFound if absent.
	LoadKey(ctx context.Context, domain string) ([]byte, error)

	// DeleteKey removes the private key for domain.
	DeleteKey(ctx context.Context, domain string) error

	// HasCertificate reports whether both a certificate chain and a
	// private key are present for domain.
	HasCertificate(ctx context.Context, domain string) bool

	// Available checks if the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this backend.
	Name() string

	// LocationURI returns the URI that identifies this backend.
	LocationURI() string
}

// StoreLocation is a parsed storage backend URI.
type StoreLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
	URL    *url.URL   // Underlying parsed URL
}

// NewStoreLocation parses and validates a storage backend URI.
func NewStoreLocation(uri string) (StoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StoreLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "vault", "s3":
		// Valid scheme
	default:
		return StoreLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StoreLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
		URL:    parsed,
	}, nil
}

// String returns the original URI string.
func (loc StoreLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StoreLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}
