package trust

import (
	"fmt"
	"log/slog"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// Engine implements the interactive TOFU policy. It is invoked once
// per new outbound server connection setup, not per request.
type Engine struct {
	store    interfaces.TrustStore
	prompter interfaces.TrustPrompter
	log      *slog.Logger
}

// NewEngine creates a trust decision engine over the given table and
// first-contact policy.
func NewEngine(store interfaces.TrustStore, prompter interfaces.TrustPrompter, log *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		prompter: prompter,
		log:      log,
	}
}

// Evaluate applies the decision table to an inspected certificate.
//
//  1. System-trusted chains are accepted; the table is not touched.
//  2. A pinned fingerprint equal to the observed one is accepted
//     silently.
//  3. A pinned fingerprint that differs is a hard failure
//     (interfaces.ErrTrustMismatch). The prompter is told so it can
//     surface the warning, but it is never asked for a decision.
//  4. First contact: the prompter decides. On acceptance the pair is
//     pinned; anything else fails the connection attempt entirely.
func (e *Engine) Evaluate(info *interfaces.CertificateInfo) error {
	if info.SystemTrusted {
		e.log.Debug("Certificate passes public-root verification",
			slog.String("host", info.Host))
		return nil
	}

	if pinned, ok := e.store.TrustedFingerprint(info.Host); ok {
		if pinned.Equal(info.Fingerprint) {
			e.log.Debug("Certificate matches pinned fingerprint",
				slog.String("host", info.Host),
				slog.String("fingerprint", info.Fingerprint.Short()))
			return nil
		}

		e.log.Warn("Pinned fingerprint mismatch",
			slog.String("host", info.Host),
			slog.String("pinned", pinned.String()),
			slog.String("observed", info.Fingerprint.String()))
		e.prompter.WarnMismatch(info, pinned)

		return fmt.Errorf("%w: host %s pinned %s, observed %s",
			interfaces.ErrTrustMismatch, info.Host, pinned, info.Fingerprint)
	}

	accepted, err := e.prompter.ConfirmTrust(info)
	if err != nil {
		return fmt.Errorf("trust confirmation for %s: %w", info.Host, err)
	}
	if !accepted {
		return fmt.Errorf("%w: host %s", interfaces.ErrTrustDeclined, info.Host)
	}

	if err := e.store.Pin(info.Host, info.Fingerprint); err != nil {
		return fmt.Errorf("pinning fingerprint for %s: %w", info.Host, err)
	}

	e.log.Info("Pinned new host fingerprint",
		slog.String("host", info.Host),
		slog.String("fingerprint", info.Fingerprint.Short()))

	return nil
}
