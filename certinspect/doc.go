// Package certinspect retrieves a server's TLS certificate for
// inspection. The handshake deliberately accepts any presented chain,
// so the resulting connection is closed immediately and must never be
// used to exchange data; its only output is a CertificateInfo the
// trust engine can evaluate.
package certinspect
