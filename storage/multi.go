package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// MultiStore implements interfaces.CertificateStore over several
// backends for redundancy. Writes go to every available backend and
// succeed if at least one backend accepted the data; reads return the
// first hit in configuration order.
type MultiStore struct {
	backends []interfaces.CertificateStore
	log      *slog.Logger
}

// NewMultiStore creates a redundant certificate store.
func NewMultiStore(backends []interfaces.CertificateStore, log *slog.Logger) *MultiStore {
	if log == nil {
		log = slog.Default()
	}

	return &MultiStore{
		backends: backends,
		log:      log,
	}
}

func (m *MultiStore) StoreAccountKey(ctx context.Context, keyPEM []byte) error {
	return m.storeAll(ctx, "account key", func(b interfaces.CertificateStore) error {
		return b.StoreAccountKey(ctx, keyPEM)
	})
}

func (m *MultiStore) LoadAccountKey(ctx context.Context) ([]byte, error) {
	return m.loadFirst(ctx, "account key", func(b interfaces.CertificateStore) ([]byte, error) {
		return b.LoadAccountKey(ctx)
	})
}

func (m *MultiStore) DeleteAccountKey(ctx context.Context) error {
	return m.deleteAll(ctx, func(b interfaces.CertificateStore) error {
		return b.DeleteAccountKey(ctx)
	})
}

func (m *MultiStore) StoreCertificate(ctx context.Context, domain string, chainPEM []byte) error {
	return m.storeAll(ctx, "certificate "+domain, func(b interfaces.CertificateStore) error {
		return b.StoreCertificate(ctx, domain, chainPEM)
	})
}

func (m *MultiStore) LoadCertificate(ctx context.Context, domain string) ([]byte, error) {
	return m.loadFirst(ctx, "certificate "+domain, func(b interfaces.CertificateStore) ([]byte, error) {
		return b.LoadCertificate(ctx, domain)
	})
}

func (m *MultiStore) DeleteCertificate(ctx context.Context, domain string) error {
	return m.deleteAll(ctx, func(b interfaces.CertificateStore) error {
		return b.DeleteCertificate(ctx, domain)
	})
}

func (m *MultiStore) StoreKey(ctx context.Context, domain string, keyPEM []byte) error {
	return m.storeAll(ctx, "key "+domain, func(b interfaces.CertificateStore) error {
		return b.StoreKey(ctx, domain, keyPEM)
	})
}

func (m *MultiStore) LoadKey(ctx context.Context, domain string) ([]byte, error) {
	return m.loadFirst(ctx, "key "+domain, func(b interfaces.CertificateStore) ([]byte, error) {
		return b.LoadKey(ctx, domain)
	})
}

func (m *MultiStore) DeleteKey(ctx context.Context, domain string) error {
	return m.deleteAll(ctx, func(b interfaces.CertificateStore) error {
		return b.DeleteKey(ctx, domain)
	})
}

func (m *MultiStore) HasCertificate(ctx context.Context, domain string) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) && backend.HasCertificate(ctx, domain) {
			return true
		}
	}
	return false
}

// Available reports whether at least one backend is reachable.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStore) Name() string {
	names := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		names = append(names, backend.Name())
	}
	return fmt.Sprintf("multi[%s]", strings.Join(names, ","))
}

func (m *MultiStore) LocationURI() string {
	uris := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		uris = append(uris, backend.LocationURI())
	}
	return strings.Join(uris, ",")
}

func (m *MultiStore) storeAll(ctx context.Context, what string, store func(interfaces.CertificateStore) error) error {
	stored := 0
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable for store",
				slog.String("backend_name", backend.Name()))
			continue
		}

		if err := store(backend); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store in backend",
				slog.String("backend_name", backend.Name()), "err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		return fmt.Errorf("%w: storing %s failed in all backends: %v",
			interfaces.ErrBackendUnavailable, what, errors.Join(errs...))
	}

	if len(errs) > 0 {
		m.log.Warn("Stored with partial backend failures",
			slog.Int("stored", stored), slog.Int("failed", len(errs)))
	}

	return nil
}

func (m *MultiStore) loadFirst(ctx context.Context, what string, load func(interfaces.CertificateStore) ([]byte, error)) ([]byte, error) {
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}

		data, err := load(backend)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("loading %s: %v", what, errors.Join(errs...))
	}
	return nil, interfaces.ErrNotFound
}

func (m *MultiStore) deleteAll(ctx context.Context, del func(interfaces.CertificateStore) error) error {
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}
		if err := del(backend); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}

	return errors.Join(errs...)
}
