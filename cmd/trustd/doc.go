// Command trustd runs the certificate lifecycle daemon: it answers
// ACME HTTP-01 challenges, keeps the endpoint certificate renewed,
// and hot-swaps the served TLS certificate when a renewal lands.
package main
