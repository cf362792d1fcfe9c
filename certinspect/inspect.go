package certinspect

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// Fetch opens an inspection-only TLS connection to host:port and
// returns what the server presented. Any chain is accepted during the
// handshake; the caller decides trust separately.
//
// Returns interfaces.ErrConnection if the host cannot be reached and
// interfaces.ErrCertificate if the handshake fails or the chain is
// empty.
func Fetch(ctx context.Context, host string, port int) (*interfaces.CertificateInfo, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", interfaces.ErrConnection, addr, err)
	}

	// The empty verification policy is the point: we want to see the
	// certificate even when no chain of trust exists.
	tlsConn := tls.Client(rawConn, &tls.Config{
		ServerName:         serverName(host),
		InsecureSkipVerify: true,
	})
	defer tlsConn.Close()

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: handshake with %s: %v", interfaces.ErrCertificate, addr, err)
	}

	peers := tlsConn.ConnectionState().PeerCertificates
	if len(peers) == 0 {
		return nil, fmt.Errorf("%w: %s presented an empty certificate chain", interfaces.ErrCertificate, addr)
	}

	return describe(host, peers), nil
}

// describe builds a CertificateInfo from the presented chain. The
// first element is the leaf; the rest are treated as intermediates for
// the system-trust evaluation.
func describe(host string, peers []*x509.Certificate) *interfaces.CertificateInfo {
	leaf := peers[0]

	info := &interfaces.CertificateInfo{
		Host:        host,
		Fingerprint: interfaces.FingerprintDER(leaf.Raw),
		SubjectCN:   leaf.Subject.CommonName,
		IssuerCN:    leaf.Issuer.CommonName,
		NotBefore:   leaf.NotBefore,
		NotAfter:    leaf.NotAfter,
		RawDER:      leaf.Raw,
	}

	if leaf.Subject.String() == leaf.Issuer.String() {
		info.SelfSigned = leaf.CheckSignatureFrom(leaf) == nil
	}

	info.SystemTrusted = systemTrusted(host, peers)

	return info
}

// systemTrusted reports whether the chain passes standard public-root
// verification for host. Failure here is an expected outcome, not an
// error: self-signed and private-CA certificates land in the TOFU
// flow instead.
func systemTrusted(host string, peers []*x509.Certificate) bool {
	intermediates := x509.NewCertPool()
	for _, cert := range peers[1:] {
		intermediates.AddCert(cert)
	}

	opts := x509.VerifyOptions{
		Intermediates: intermediates,
	}
	if net.ParseIP(host) == nil {
		opts.DNSName = host
	}

	_, err := peers[0].Verify(opts)
	return err == nil
}

// serverName returns the SNI value for host. IP addresses are not
// valid SNI names, so they yield the empty string.
func serverName(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	return host
}
