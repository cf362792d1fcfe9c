// Command trustctl manages the pinned-fingerprint trust table:
// inspect a remote endpoint's certificate, run the interactive
// trust-on-first-use flow, or drop a stale pin.
package main
