package trust

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"sync"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// Verifier is the TLS peer-certificate callback installed on real
// (non-inspection) outbound connections. Accepts a leaf iff it matches
// the pinned fingerprint for its host, falling back to public-root
// verification; rejects otherwise.
//
// The pinned table can be mutated between connections with Trust and
// Untrust without reconstructing the verifier.
type Verifier struct {
	mu     sync.RWMutex
	pinned map[string]interfaces.Fingerprint
	roots  *x509.CertPool
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithRoots overrides the root pool used for the public-CA fallback.
// The default is the system root store.
func WithRoots(roots *x509.CertPool) VerifierOption {
	return func(v *Verifier) {
		v.roots = roots
	}
}

// NewVerifier creates a verifier seeded with the given pinned table.
// The seed is copied; later TrustStore changes are applied through
// Trust and Untrust.
func NewVerifier(seed map[string]interfaces.Fingerprint, opts ...VerifierOption) *Verifier {
	pinned := make(map[string]interfaces.Fingerprint, len(seed))
	for host, fp := range seed {
		pinned[host] = fp
	}

	v := &Verifier{pinned: pinned}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Trust pins a fingerprint for host, replacing any previous entry.
func (v *Verifier) Trust(host string, fp interfaces.Fingerprint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pinned[host] = fp
}

// Untrust removes the pinned fingerprint for host.
func (v *Verifier) Untrust(host string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.pinned, host)
}

// ClientTLSConfig returns a TLS client configuration for connecting to
// host that routes all chain validation through the verifier.
func (v *Verifier) ClientTLSConfig(host string) *tls.Config {
	return &tls.Config{
		ServerName: serverName(host),
		// Standard verification is disabled so the callback below is
		// the sole enforcement point. It re-implements public-root
		// verification for the non-pinned case.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: v.verifyFor(host),
	}
}

// Verify checks a presented raw chain for host. Exposed for callers
// that drive the handshake themselves.
func (v *Verifier) Verify(rawChain [][]byte, host string) error {
	return v.verifyFor(host)(rawChain, nil)
}

func (v *Verifier) verifyFor(host string) func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("%w: empty certificate chain from %s", interfaces.ErrCertificate, host)
		}

		observed := interfaces.FingerprintDER(rawCerts[0])

		v.mu.RLock()
		pinned, hasPin := v.pinned[host]
		roots := v.roots
		v.mu.RUnlock()

		if hasPin && pinned.Equal(observed) {
			return nil
		}

		chain := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("%w: parsing certificate from %s: %v", interfaces.ErrCertificate, host, err)
			}
			chain = append(chain, cert)
		}

		intermediates := x509.NewCertPool()
		for _, cert := range chain[1:] {
			intermediates.AddCert(cert)
		}

		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
		}
		if net.ParseIP(host) == nil {
			opts.DNSName = host
		}

		if _, err := chain[0].Verify(opts); err == nil {
			return nil
		}

		if hasPin {
			return fmt.Errorf("%w: host %s pinned %s, observed %s",
				interfaces.ErrTrustMismatch, host, pinned, observed)
		}

		return fmt.Errorf("%w: no pinned fingerprint for %s and chain fails public-root verification",
			interfaces.ErrCertificate, host)
	}
}

func serverName(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	return host
}
