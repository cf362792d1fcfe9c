package acmemgr

import (
	"context"
	"net"

	"github.com/miekg/dns"
)

// dnsResolvable reports whether domain has at least one A or AAAA
// record according to the host's configured resolvers. The check is
// advisory: callers log a warning on false and proceed, because the
// ACME provider resolves from the public internet, not from here.
func dnsResolvable(ctx context.Context, domain string) bool {
	if net.ParseIP(domain) != nil {
		// Raw IPs are never ordered, but they trivially "resolve".
		return true
	}

	config, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(config.Servers) == 0 {
		// No usable resolver config; do not block the order on it.
		return true
	}

	client := &dns.Client{}
	fqdn := dns.Fqdn(domain)

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := &dns.Msg{}
		msg.SetQuestion(fqdn, qtype)

		for _, server := range config.Servers {
			resp, _, err := client.ExchangeContext(ctx, msg, net.JoinHostPort(server, config.Port))
			if err != nil || resp == nil {
				continue
			}
			if len(resp.Answer) > 0 {
				return true
			}
		}
	}

	return false
}
