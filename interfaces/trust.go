package interfaces

import "errors"

var (
	// ErrTrustMismatch is returned when a host's stored fingerprint
	// differs from the one just observed. It is never auto-recovered;
	// the operator must remove the stale entry manually before
	// retrying.
	ErrTrustMismatch = errors.New("certificate fingerprint does not match pinned fingerprint")

	// ErrTrustDeclined is returned when the operator (or a headless
	// policy) refuses to trust a first-contact certificate.
	ErrTrustDeclined = errors.New("certificate not trusted")
)

// TrustStore is the host → fingerprint table owned by the calling
// application. One fingerprint per host, last-trusted-wins on update.
type TrustStore interface {
	// TrustedFingerprint returns the pinned fingerprint for host, if any.
	TrustedFingerprint(host string) (Fingerprint, bool)

	// Pin records host's fingerprint, replacing any previous entry.
	Pin(host string, fp Fingerprint) error

	// Unpin removes host's entry. Removing an absent entry is not an
	// error.
	Unpin(host string) error

	// Snapshot returns a copy of all entries.
	Snapshot() map[string]Fingerprint
}

// TrustPrompter is the policy hook consulted on first contact with an
// unverifiable certificate. The interactive CLI implementation blocks
// on operator input; headless embeddings substitute their own policy.
// It is never consulted for a fingerprint mismatch.
type TrustPrompter interface {
	// ConfirmTrust reports whether the certificate should be pinned.
	ConfirmTrust(info *CertificateInfo) (bool, error)

	// WarnMismatch surfaces the changed-fingerprint warning before the
	// connection attempt is aborted.
	WarnMismatch(info *CertificateInfo, pinned Fingerprint)
}
