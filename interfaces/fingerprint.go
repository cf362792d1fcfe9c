package interfaces

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Fingerprint is the SHA-256 digest of a certificate's DER encoding.
type Fingerprint [32]byte

// FingerprintDER computes the fingerprint of raw DER bytes.
func FingerprintDER(der []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(der))
}

// NewFingerprintFromBytes creates a fingerprint from a 32-byte digest.
func NewFingerprintFromBytes(source []byte) (Fingerprint, error) {
	if len(source) != 32 {
		return Fingerprint{}, errors.New("invalid fingerprint length: must be 32 bytes")
	}

	var fp Fingerprint
	copy(fp[:], source)
	return fp, nil
}

// ParseFingerprint parses the canonical colon-grouped rendering. Bare
// 64-character hex without separators is accepted as well; letter case
// is ignored.
func ParseFingerprint(s string) (Fingerprint, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if len(clean) != 64 {
		return Fingerprint{}, fmt.Errorf("invalid fingerprint length: got %d hex characters, want 64", len(clean))
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("invalid fingerprint hex: %w", err)
	}

	return NewFingerprintFromBytes(raw)
}

// String renders the canonical form: 32 uppercase hex octets joined by
// colons, 95 characters total.
func (fp Fingerprint) String() string {
	var b strings.Builder
	b.Grow(len(fp)*3 - 1)

	for i, octet := range fp {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02X", octet)
	}

	return b.String()
}

// Short returns the first eight octets of the canonical rendering,
// enough for a human to eyeball against a known value.
func (fp Fingerprint) Short() string {
	return fp.String()[:23]
}

// Bytes returns the raw 32-byte digest.
func (fp Fingerprint) Bytes() []byte {
	return fp[:]
}

// Equal compares two fingerprints.
func (fp Fingerprint) Equal(other Fingerprint) bool {
	return bytes.Equal(fp[:], other[:])
}
