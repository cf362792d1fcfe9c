package acmemgr

import "errors"

var (
	// ErrProtocol is returned for ACME directory, account, or order
	// RPC failures. The current provisioning attempt is aborted;
	// account state is preserved so a retry reuses it.
	ErrProtocol = errors.New("acme protocol error")

	// ErrChallengeFailed is returned when no usable HTTP-01 challenge
	// is offered or the provider-side validation fails. Safe to retry
	// after investigating DNS and firewall reachability.
	ErrChallengeFailed = errors.New("acme challenge failed")

	// ErrOrderFailed is returned when an order is left in a non-ready
	// terminal state after polling.
	ErrOrderFailed = errors.New("acme order failed")

	// ErrNoContactEmail is returned when account registration is
	// attempted without a configured contact email. This is a
	// configuration error: fatal to certificate provisioning, not to
	// process startup.
	ErrNoContactEmail = errors.New("acme contact email is required")
)
