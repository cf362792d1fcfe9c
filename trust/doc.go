// Package trust implements trust-on-first-use for server certificates,
// modeled on interactive host-key trust.
//
// Two components cooperate:
//
//   - Engine decides, once per new outbound connection setup, whether an
//     inspected certificate is acceptable: public-CA trust wins, a
//     matching pinned fingerprint is accepted silently, a differing
//     pinned fingerprint is a hard failure, and first contact asks the
//     configured TrustPrompter.
//
//   - Verifier re-validates that decision on every subsequent
//     connection. It is installed as the TLS peer-certificate callback
//     and accepts a leaf iff it matches the pinned fingerprint for its
//     host, falling back to public-root verification otherwise.
//
// FileTrustStore persists the host → fingerprint table as a TOML file
// owned by the CLI.
package trust
