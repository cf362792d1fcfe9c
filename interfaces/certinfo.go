package interfaces

import (
	"errors"
	"time"
)

var (
	// ErrConnection is returned when a host cannot be reached for
	// inspection. The caller may retry; this subsystem does not.
	ErrConnection = errors.New("connection failed")

	// ErrCertificate is returned when a presented chain is empty or
	// malformed, or the inspection handshake itself fails.
	ErrCertificate = errors.New("certificate error")
)

// CertificateInfo describes a certificate observed during inspection.
// It is produced fresh per inspection and never persisted as a whole;
// only the (host, fingerprint) pair outlives it, in the caller's trust
// store.
type CertificateInfo struct {
	// Host is the hostname the inspection was performed against,
	// without port.
	Host string

	// Fingerprint is the SHA-256 digest of the leaf's DER encoding.
	Fingerprint Fingerprint

	// SubjectCN and IssuerCN are best-effort extractions; empty when
	// the certificate does not carry them.
	SubjectCN string
	IssuerCN  string

	// NotBefore and NotAfter bound the validity window. Zero values
	// when extraction failed.
	NotBefore time.Time
	NotAfter  time.Time

	// SelfSigned reports whether the leaf is issued by itself.
	SelfSigned bool

	// SystemTrusted reports whether the presented chain passes
	// verification against the public root store for Host.
	SystemTrusted bool

	// RawDER holds the leaf certificate's DER bytes.
	RawDER []byte
}
