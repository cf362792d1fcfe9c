package acmemgr

import (
	"context"
	"log/slog"
	"time"
)

// obtainer is the slice of OrderCoordinator the scheduler needs.
type obtainer interface {
	Cached(ctx context.Context, domain string) (*Material, error)
	Obtain(ctx context.Context, domain string) (*Material, error)
}

// RenewFunc is invoked with freshly issued material so the serving
// side can hot-swap its TLS certificate without a restart.
type RenewFunc func(certPEM, keyPEM []byte)

// RenewalScheduler checks the managed domain once a day and reissues
// its certificate when it enters the renewal window. Failures are
// logged and retried on the next tick.
type RenewalScheduler struct {
	orders   obtainer
	domain   string
	onRenew  RenewFunc
	interval time.Duration
	log      *slog.Logger
}

// NewRenewalScheduler creates a scheduler for domain. onRenew may be
// nil when nothing serves the certificate directly.
func NewRenewalScheduler(orders obtainer, domain string, onRenew RenewFunc, log *slog.Logger) *RenewalScheduler {
	return &RenewalScheduler{
		orders:   orders,
		domain:   domain,
		onRenew:  onRenew,
		interval: 24 * time.Hour,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, performing an immediate check and
// then one per interval.
func (s *RenewalScheduler) Run(ctx context.Context) {
	if s.domain == "" {
		return
	}

	s.check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *RenewalScheduler) check(ctx context.Context) {
	if _, err := s.RenewIfNeeded(ctx); err != nil {
		s.log.Error("Certificate renewal failed, will retry on next cycle",
			slog.String("domain", s.domain), slog.Any("error", err))
	}
}

// RenewIfNeeded reissues the certificate when the stored one is absent
// or inside the renewal window, invoking the renew callback with the
// new material. It reports whether a renewal happened.
func (s *RenewalScheduler) RenewIfNeeded(ctx context.Context) (bool, error) {
	if s.domain == "" {
		return false, nil
	}

	cached, err := s.orders.Cached(ctx, s.domain)
	if err != nil {
		return false, err
	}
	if cached != nil {
		s.log.Debug("Certificate still fresh",
			slog.String("domain", s.domain),
			slog.Time("notAfter", cached.NotAfter))
		return false, nil
	}

	material, err := s.orders.Obtain(ctx, s.domain)
	if material != nil && s.onRenew != nil {
		// Even when persistence failed the in-memory material is
		// valid, so the server still gets the fresh certificate.
		s.onRenew(material.CertificatePEM, material.PrivateKeyPEM)
	}
	if err != nil {
		return material != nil, err
	}

	s.log.Info("Certificate renewed",
		slog.String("domain", s.domain),
		slog.Time("notAfter", material.NotAfter))

	return true, nil
}
