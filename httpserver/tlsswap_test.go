package httpserver

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePairPEM(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

func leafCN(t *testing.T, swapper *CertSwapper) string {
	t.Helper()

	cert, err := swapper.GetCertificate(nil)
	require.NoError(t, err)
	require.NotNil(t, cert)

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestSwapperStartsWithPlaceholder(t *testing.T) {
	swapper, err := NewCertSwapper(nil, nil)
	require.NoError(t, err)

	cert, err := swapper.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotNil(t, cert)
}

func TestSwapperSeededWithPair(t *testing.T) {
	certPEM, keyPEM := makePairPEM(t, "seed.test")

	swapper, err := NewCertSwapper(certPEM, keyPEM)
	require.NoError(t, err)
	assert.Equal(t, "seed.test", leafCN(t, swapper))
}

func TestSwapReplacesServedCertificate(t *testing.T) {
	firstCert, firstKey := makePairPEM(t, "first.test")
	swapper, err := NewCertSwapper(firstCert, firstKey)
	require.NoError(t, err)
	require.Equal(t, "first.test", leafCN(t, swapper))

	secondCert, secondKey := makePairPEM(t, "second.test")
	require.NoError(t, swapper.Swap(secondCert, secondKey))
	assert.Equal(t, "second.test", leafCN(t, swapper))
}

func TestSwapRejectsMismatchedPair(t *testing.T) {
	certPEM, _ := makePairPEM(t, "cert.test")
	_, otherKey := makePairPEM(t, "other.test")

	swapper, err := NewCertSwapper(nil, nil)
	require.NoError(t, err)

	assert.Error(t, swapper.Swap(certPEM, otherKey))

	// The placeholder must survive a failed swap.
	cert, err := swapper.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotNil(t, cert)
}

func TestTLSConfigUsesSwapper(t *testing.T) {
	swapper, err := NewCertSwapper(nil, nil)
	require.NoError(t, err)

	cfg := swapper.TLSConfig()
	require.NotNil(t, cfg.GetCertificate)

	cert, err := cfg.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotNil(t, cert)
}
