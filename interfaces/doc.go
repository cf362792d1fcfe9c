// Package interfaces defines the core types and contracts of the
// certificate trust subsystem. It provides the boundary between the
// clipboard-sync application (CLI, desktop clients, server) and the
// trust, provisioning, and storage components without pulling in any
// implementation details.
//
// # Fingerprints
//
// A Fingerprint is the SHA-256 digest of a certificate's DER encoding.
// Its canonical rendering is 32 uppercase hex octets joined by colons
// (95 characters), e.g.:
//
//	AA:BB:00:11:...:FF
//
// The rendering is a stable display and wire contract: independent
// implementations must produce byte-identical strings for identical
// input.
//
// # Trust stores
//
// TrustStore is the per-host pinned-fingerprint table owned by the
// calling application. The trust engine reads it when a connection is
// being set up and writes one new entry on first-contact acceptance.
//
// # Certificate stores
//
// CertificateStore persists the ACME account key and per-domain
// certificate chains and private keys. Backends are selected at
// construction time through the storage package's URI factory; call
// sites only ever see this interface.
package interfaces
