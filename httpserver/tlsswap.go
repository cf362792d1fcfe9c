package httpserver

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"

	"go.uber.org/atomic"
)

// CertSwapper holds the certificate a TLS listener serves and lets the
// renewal path replace it without restarting the listener.
type CertSwapper struct {
	current atomic.Pointer[tls.Certificate]
}

// NewCertSwapper seeds the swapper. With empty PEM inputs it starts
// with a throwaway self-signed certificate, good enough until the
// first real one arrives.
func NewCertSwapper(certPEM, keyPEM []byte) (*CertSwapper, error) {
	s := &CertSwapper{}

	if len(certPEM) == 0 || len(keyPEM) == 0 {
		cert, err := placeholderCert()
		if err != nil {
			return nil, fmt.Errorf("generating placeholder certificate: %w", err)
		}
		s.current.Store(&cert)
		return s, nil
	}

	if err := s.Swap(certPEM, keyPEM); err != nil {
		return nil, err
	}
	return s, nil
}

// Swap atomically replaces the served certificate. In-flight
// handshakes keep the pair they started with.
func (s *CertSwapper) Swap(certPEM, keyPEM []byte) error {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return fmt.Errorf("parsing certificate pair: %w", err)
	}
	s.current.Store(&cert)
	return nil
}

// GetCertificate is a tls.Config callback returning the current pair.
func (s *CertSwapper) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return s.current.Load(), nil
}

// TLSConfig returns a server config that always serves the latest
// swapped certificate.
func (s *CertSwapper) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: s.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// placeholderCert generates a self-signed certificate for servers that
// have nothing real to present yet.
func placeholderCert() (tls.Certificate, error) {
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{},
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	certASN1, err := x509.CreateCertificate(rand.Reader, template, template,
		privateKey.Public(), privateKey)
	if err != nil {
		return tls.Certificate{}, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certASN1})

	privkeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.X509KeyPair(certPEM, pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privkeyBytes,
	}))
}
