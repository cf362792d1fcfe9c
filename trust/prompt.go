package trust

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
)

// TerminalPrompter implements the interactive first-contact policy:
// structured warning text on Out (normally stderr), a blocking read
// from In (normally stdin), and only "yes" or "y" counts as trust
// confirmation. There is deliberately no timeout; it waits for the
// operator.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// ConfirmTrust displays the certificate summary and fingerprint and
// blocks until the operator answers.
func (p *TerminalPrompter) ConfirmTrust(info *interfaces.CertificateInfo) (bool, error) {
	fmt.Fprintf(p.Out, "The authenticity of host %q can't be established.\n", info.Host)
	if info.SubjectCN != "" {
		fmt.Fprintf(p.Out, "Certificate subject: %s\n", info.SubjectCN)
	}
	if info.SelfSigned {
		fmt.Fprintln(p.Out, "The certificate is self-signed.")
	} else if info.IssuerCN != "" {
		fmt.Fprintf(p.Out, "Issued by: %s (not in the public root store)\n", info.IssuerCN)
	}
	if !info.NotAfter.IsZero() {
		fmt.Fprintf(p.Out, "Valid until: %s\n", info.NotAfter.Format("2006-01-02"))
	}
	fmt.Fprintf(p.Out, "SHA-256 fingerprint: %s\n", info.Fingerprint.Short())
	fmt.Fprintf(p.Out, "Full fingerprint:\n%s\n", chunkFingerprint(info.Fingerprint))
	fmt.Fprintf(p.Out, "Are you sure you want to continue connecting (yes/no)? ")

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading trust confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

// WarnMismatch prints the loud changed-fingerprint warning. The text
// is deliberately hard to miss, mirroring SSH's changed-host-key
// banner, to deter rushed operator overrides.
func (p *TerminalPrompter) WarnMismatch(info *interfaces.CertificateInfo, pinned interfaces.Fingerprint) {
	fmt.Fprintln(p.Out, "@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@")
	fmt.Fprintln(p.Out, "@  WARNING: REMOTE SERVER CERTIFICATE HAS CHANGED!               @")
	fmt.Fprintln(p.Out, "@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@")
	fmt.Fprintln(p.Out, "IT IS POSSIBLE THAT SOMEONE IS DOING SOMETHING NASTY!")
	fmt.Fprintln(p.Out, "Someone could be eavesdropping on you right now (man-in-the-middle attack)!")
	fmt.Fprintln(p.Out, "It is also possible that the server certificate was legitimately replaced.")
	fmt.Fprintf(p.Out, "Host:                %s\n", info.Host)
	fmt.Fprintf(p.Out, "Pinned fingerprint:  %s\n", pinned)
	fmt.Fprintf(p.Out, "Observed fingerprint: %s\n", info.Fingerprint)
	fmt.Fprintf(p.Out, "If the replacement is expected, remove the stale entry with:\n")
	fmt.Fprintf(p.Out, "    trustctl untrust %s\n", info.Host)
	fmt.Fprintln(p.Out, "and retry the connection.")
}

// chunkFingerprint reformats the 95-character rendering into four
// lines of eight octets for readability.
func chunkFingerprint(fp interfaces.Fingerprint) string {
	octets := strings.Split(fp.String(), ":")

	var b strings.Builder
	for i := 0; i < len(octets); i += 8 {
		end := i + 8
		if end > len(octets) {
			end = len(octets)
		}
		b.WriteString("    ")
		b.WriteString(strings.Join(octets[i:end], ":"))
		if end < len(octets) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
