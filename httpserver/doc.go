// Package httpserver provides the HTTP endpoint serving ACME HTTP-01
// challenge responses plus the usual health and diagnostic routes, and
// a hot-swappable TLS certificate holder for zero-restart renewals.
package httpserver
