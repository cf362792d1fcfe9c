package acmemgr

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clipsync/clipsync-trust-backend/common"
	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"golang.org/x/crypto/acme"
)

// LetsEncryptStagingURL is the staging directory endpoint, selected
// via configuration for rehearsals so production rate limits stay
// untouched.
const LetsEncryptStagingURL = "https://acme-staging-v02.api.letsencrypt.org/directory"

// AccountManager loads or creates the ACME account: key pair plus
// provider registration. The account is cached for the process
// lifetime behind a read-mostly lock; only the first miss runs the
// create-or-load path, and that path is fully serialized so concurrent
// callers never register a second account.
type AccountManager struct {
	mu           sync.RWMutex
	store        interfaces.CertificateStore
	directoryURL string
	email        string
	log          *slog.Logger

	client *acme.Client
}

// NewAccountManager creates an account manager. directoryURL selects
// staging vs production; email is the required registration contact.
func NewAccountManager(store interfaces.CertificateStore, directoryURL, email string, log *slog.Logger) *AccountManager {
	if directoryURL == "" {
		directoryURL = acme.LetsEncryptURL
	}

	return &AccountManager{
		store:        store,
		directoryURL: directoryURL,
		email:        email,
		log:          log,
	}
}

// Client returns an ACME client bound to the account, creating or
// rehydrating the account on first use.
func (m *AccountManager) Client(ctx context.Context) (*acme.Client, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A concurrent caller may have won the race.
	if m.client != nil {
		return m.client, nil
	}

	client, err := m.buildClient(ctx)
	if err != nil {
		return nil, err
	}

	m.client = client
	return client, nil
}

// buildClient performs the create-or-load sequence. Caller holds the
// write lock.
func (m *AccountManager) buildClient(ctx context.Context) (*acme.Client, error) {
	key, created, err := m.accountKey(ctx)
	if err != nil {
		return nil, err
	}

	client := &acme.Client{
		Key:          key,
		DirectoryURL: m.directoryURL,
		UserAgent:    common.PackageName + "/" + common.Version,
	}

	if !created {
		// Rehydrate the registration for a persisted key.
		_, err := client.GetReg(ctx, "")
		if err == nil {
			m.log.Debug("Rehydrated existing ACME account",
				slog.String("directory", m.directoryURL))
			return client, nil
		}
		if !errors.Is(err, acme.ErrNoAccount) {
			return nil, fmt.Errorf("%w: fetching account registration: %v", ErrProtocol, err)
		}
		// Key on disk but no account at the provider (e.g. directory
		// switched from production to staging): register it.
	}

	if m.email == "" {
		return nil, ErrNoContactEmail
	}

	account := &acme.Account{Contact: []string{"mailto:" + m.email}}
	_, err = client.Register(ctx, account, acme.AcceptTOS)
	if err != nil && !errors.Is(err, acme.ErrAccountAlreadyExists) {
		return nil, fmt.Errorf("%w: registering account: %v", ErrProtocol, err)
	}

	if created {
		// Persist only after the provider accepted the key.
		keyPEM, err := encodeKeyPEM(key)
		if err != nil {
			return nil, err
		}
		if err := m.store.StoreAccountKey(ctx, keyPEM); err != nil {
			return nil, fmt.Errorf("persisting account key: %w", err)
		}
	}

	m.log.Info("Registered ACME account",
		slog.String("directory", m.directoryURL),
		slog.String("contact", m.email))

	return client, nil
}

// accountKey loads the persisted account key or generates a fresh one.
// The second return value reports whether the key is new and still
// unpersisted.
func (m *AccountManager) accountKey(ctx context.Context) (crypto.Signer, bool, error) {
	keyPEM, loadErr := m.store.LoadAccountKey(ctx)
	if loadErr == nil {
		parsed, err := parseKeyPEM(keyPEM)
		if err != nil {
			return nil, false, fmt.Errorf("stored account key is unusable: %w", err)
		}
		return parsed, false, nil
	}
	if !errors.Is(loadErr, interfaces.ErrNotFound) {
		return nil, false, fmt.Errorf("loading account key: %w", loadErr)
	}

	fresh, err := newPrivateKey()
	if err != nil {
		return nil, false, fmt.Errorf("generating account key: %w", err)
	}
	return fresh, true, nil
}
