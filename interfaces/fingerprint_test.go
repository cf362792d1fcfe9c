package interfaces

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDER_Canonical(t *testing.T) {
	der := []byte("not really DER but any byte sequence works")

	fp := FingerprintDER(der)
	rendered := fp.String()

	assert.Len(t, rendered, 95)
	assert.Equal(t, 31, strings.Count(rendered, ":"))
	assert.Equal(t, strings.ToUpper(rendered), rendered)

	// Deterministic: same input, same output.
	assert.Equal(t, rendered, FingerprintDER(der).String())
}

func TestFingerprintDER_DistinctInputs(t *testing.T) {
	a := FingerprintDER([]byte("a"))
	b := FingerprintDER([]byte("b"))
	assert.False(t, a.Equal(b))
}

func TestParseFingerprint_RoundTrip(t *testing.T) {
	raw := make([]byte, 64)
	_, err := rand.Read(raw)
	require.NoError(t, err)

	fp := FingerprintDER(raw)

	parsed, err := ParseFingerprint(fp.String())
	require.NoError(t, err)
	assert.True(t, fp.Equal(parsed))

	// Bare hex and lowercase are accepted too.
	bare := strings.ToLower(strings.ReplaceAll(fp.String(), ":", ""))
	parsed, err = ParseFingerprint(bare)
	require.NoError(t, err)
	assert.True(t, fp.Equal(parsed))
}

func TestParseFingerprint_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "too short", input: "AA:BB"},
		{name: "not hex", input: strings.Repeat("ZZ", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFingerprint(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestFingerprintShort(t *testing.T) {
	fp := FingerprintDER([]byte("payload"))
	short := fp.Short()

	assert.Len(t, short, 23)
	assert.True(t, strings.HasPrefix(fp.String(), short))
}
