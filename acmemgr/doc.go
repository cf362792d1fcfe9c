// Package acmemgr provisions and renews TLS certificates through the
// ACME protocol (HTTP-01 challenges only).
//
// The pieces map onto the protocol's moving parts:
//
//   - AccountManager lazily creates or rehydrates the ACME account,
//     persisting its key through the certificate store. The
//     create-or-load path is serialized; concurrent callers observe
//     the cached account instead of registering twice.
//
//   - OrderCoordinator drives one domain through the order state
//     machine: cached-certificate reuse, authorization retrieval,
//     HTTP-01 challenge computation, readiness polling, finalization,
//     and persistence of the issued chain and key.
//
//   - ChallengeSet is the shared pending-challenge table. The
//     coordinator writes key authorizations into it while the HTTP
//     server serves them to the provider on a separate path; it is
//     cleared unconditionally when polling completes.
//
//   - RenewalScheduler re-checks expiry on a daily cadence and hands
//     fresh PEM material to a caller-supplied callback so a live
//     listener can hot-swap without a restart.
//
// Whether provisioning is active at all is decided once at startup via
// the Provisioning tagged variant; there are no runtime type checks on
// the enabled/disabled split.
package acmemgr
