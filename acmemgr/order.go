package acmemgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"golang.org/x/crypto/acme"
)

// DefaultRenewBefore is the remaining-lifetime threshold below which a
// stored certificate is considered due for renewal.
const DefaultRenewBefore = 30 * 24 * time.Hour

// defaultPollTimeout bounds how long a single order is allowed to sit
// in pending or processing before it is abandoned.
const defaultPollTimeout = 2 * time.Minute

// Material is the outcome of a successful issuance: the full PEM chain
// plus the matching private key, ready to be served.
type Material struct {
	Domain         string
	CertificatePEM []byte
	PrivateKeyPEM  []byte
	NotAfter       time.Time
}

// OrderCoordinator drives the ACME order state machine for a domain:
// authorizations, HTTP-01 challenges, finalization and persistence.
type OrderCoordinator struct {
	accounts   *AccountManager
	store      interfaces.CertificateStore
	challenges *ChallengeSet
	log        *slog.Logger

	renewBefore time.Duration
	pollTimeout time.Duration
}

// NewOrderCoordinator wires the coordinator. renewBefore <= 0 selects
// the default 30-day threshold.
func NewOrderCoordinator(accounts *AccountManager, store interfaces.CertificateStore, challenges *ChallengeSet, renewBefore time.Duration, log *slog.Logger) *OrderCoordinator {
	if renewBefore <= 0 {
		renewBefore = DefaultRenewBefore
	}

	return &OrderCoordinator{
		accounts:    accounts,
		store:       store,
		challenges:  challenges,
		log:         log,
		renewBefore: renewBefore,
		pollTimeout: defaultPollTimeout,
	}
}

// Cached returns the stored material for domain if it exists and has
// at least renewBefore of lifetime left. It never talks to the ACME
// provider. A nil Material with nil error means no usable cached
// certificate.
func (c *OrderCoordinator) Cached(ctx context.Context, domain string) (*Material, error) {
	certPEM, err := c.store.LoadCertificate(ctx, domain)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading stored certificate: %w", err)
	}

	keyPEM, err := c.store.LoadKey(ctx, domain)
	if errors.Is(err, interfaces.ErrNotFound) {
		// Orphaned certificate without its key cannot be served.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading stored key: %w", err)
	}

	notAfter, err := leafNotAfter(certPEM)
	if err != nil {
		c.log.Warn("Stored certificate is unparsable, treating as absent",
			slog.String("domain", domain), slog.Any("error", err))
		return nil, nil
	}

	if time.Until(notAfter) < c.renewBefore {
		return nil, nil
	}

	return &Material{
		Domain:         domain,
		CertificatePEM: certPEM,
		PrivateKeyPEM:  keyPEM,
		NotAfter:       notAfter,
	}, nil
}

// Obtain returns valid material for domain, running a full ACME order
// when the stored certificate is absent or inside the renewal window.
//
// On a storage failure after successful issuance the fresh Material is
// returned alongside the error so the caller can still serve it from
// memory.
func (c *OrderCoordinator) Obtain(ctx context.Context, domain string) (*Material, error) {
	if cached, err := c.Cached(ctx, domain); err != nil {
		return nil, err
	} else if cached != nil {
		return cached, nil
	}

	// Advisory only: a missing record is logged, not fatal, since
	// split-horizon DNS can hide a perfectly routable name.
	if !dnsResolvable(ctx, domain) {
		c.log.Warn("Domain does not resolve from this host, the ACME provider may still reach it",
			slog.String("domain", domain))
	}

	client, err := c.accounts.Client(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Info("Starting certificate order", slog.String("domain", domain))

	order, err := client.AuthorizeOrder(ctx, acme.DomainIDs(domain))
	if err != nil {
		return nil, fmt.Errorf("%w: creating order: %v", ErrProtocol, err)
	}

	// Tokens must not outlive the order they belong to.
	defer c.challenges.Clear()

	if order.Status == acme.StatusPending {
		if err := c.satisfyAuthorizations(ctx, client, order); err != nil {
			return nil, err
		}

		waitCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
		order, err = client.WaitOrder(waitCtx, order.URI)
		cancel()
		if err != nil {
			var orderErr *acme.OrderError
			if errors.As(err, &orderErr) {
				return nil, fmt.Errorf("%w: order for %s ended %s", ErrOrderFailed, domain, orderErr.Status)
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: order for %s did not complete within %s", ErrOrderFailed, domain, c.pollTimeout)
			}
			return nil, fmt.Errorf("%w: waiting for order: %v", ErrProtocol, err)
		}
	}

	if order.Status != acme.StatusReady && order.Status != acme.StatusValid {
		return nil, fmt.Errorf("%w: order for %s is %s, expected ready", ErrOrderFailed, domain, order.Status)
	}

	return c.finalize(ctx, client, order, domain)
}

// satisfyAuthorizations answers the HTTP-01 challenge of every pending
// authorization on the order.
func (c *OrderCoordinator) satisfyAuthorizations(ctx context.Context, client *acme.Client, order *acme.Order) error {
	for _, authzURL := range order.AuthzURLs {
		authz, err := client.GetAuthorization(ctx, authzURL)
		if err != nil {
			return fmt.Errorf("%w: fetching authorization: %v", ErrProtocol, err)
		}

		if authz.Status == acme.StatusValid {
			// Already satisfied, typically by a recent order for the
			// same account.
			continue
		}
		if authz.Status != acme.StatusPending {
			return fmt.Errorf("%w: authorization for %s is %s", ErrChallengeFailed, authz.Identifier.Value, authz.Status)
		}

		var challenge *acme.Challenge
		for _, ch := range authz.Challenges {
			if ch.Type == "http-01" {
				challenge = ch
				break
			}
		}
		if challenge == nil {
			return fmt.Errorf("%w: no http-01 challenge offered for %s", ErrChallengeFailed, authz.Identifier.Value)
		}

		keyAuth, err := client.HTTP01ChallengeResponse(challenge.Token)
		if err != nil {
			return fmt.Errorf("%w: computing key authorization: %v", ErrProtocol, err)
		}
		c.challenges.Put(challenge.Token, keyAuth)

		c.log.Debug("Answering http-01 challenge",
			slog.String("domain", authz.Identifier.Value),
			slog.String("token", challenge.Token))

		if _, err := client.Accept(ctx, challenge); err != nil {
			return fmt.Errorf("%w: accepting challenge: %v", ErrProtocol, err)
		}
	}

	return nil
}

// finalize submits the CSR, downloads the chain, and swaps the stored
// material for the domain.
func (c *OrderCoordinator) finalize(ctx context.Context, client *acme.Client, order *acme.Order, domain string) (*Material, error) {
	key, err := newPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating certificate key: %w", err)
	}

	csr, err := csrFor(domain, key)
	if err != nil {
		return nil, fmt.Errorf("building CSR: %w", err)
	}

	chain, _, err := client.CreateOrderCert(ctx, order.FinalizeURL, csr, true)
	if err != nil {
		return nil, fmt.Errorf("%w: finalizing order: %v", ErrProtocol, err)
	}

	certPEM := encodeChainPEM(chain)
	keyPEM, err := encodeKeyPEM(key)
	if err != nil {
		return nil, err
	}

	notAfter, err := leafNotAfter(certPEM)
	if err != nil {
		return nil, fmt.Errorf("issued certificate is unparsable: %w", err)
	}

	material := &Material{
		Domain:         domain,
		CertificatePEM: certPEM,
		PrivateKeyPEM:  keyPEM,
		NotAfter:       notAfter,
	}

	c.log.Info("Certificate issued",
		slog.String("domain", domain),
		slog.Time("notAfter", notAfter))

	// Replace the stored pair. The new material is already in memory,
	// so a storage failure degrades persistence, not service.
	if err := c.store.DeleteCertificate(ctx, domain); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return material, fmt.Errorf("removing previous certificate: %w", err)
	}
	if err := c.store.DeleteKey(ctx, domain); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return material, fmt.Errorf("removing previous key: %w", err)
	}
	if err := c.store.StoreCertificate(ctx, domain, certPEM); err != nil {
		return material, fmt.Errorf("persisting certificate: %w", err)
	}
	if err := c.store.StoreKey(ctx, domain, keyPEM); err != nil {
		return material, fmt.Errorf("persisting key: %w", err)
	}

	return material, nil
}
