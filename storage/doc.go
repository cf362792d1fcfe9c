// Package storage provides certificate and key persistence with
// pluggable backends behind the interfaces.CertificateStore contract.
//
//   - File system storage for single-node deployments; private keys
//     are written with owner-only permissions.
//   - HashiCorp Vault storage delegating the ACME account key to a KV
//     v2 secret store, with certificates and domain keys remaining on
//     disk and a one-time migration of a previously filed account key.
//   - S3-compatible object storage for multi-node deployments.
//   - A multi-store aggregating several backends for redundancy.
//
// # Storage URI format
//
// Backends are selected through URIs:
//
//	file:///var/lib/clipsync/certs/
//	vault://vault.example.com:8200/secret/clipsync?token=...
//	s3://ACCESS:SECRET@bucket-name/clipsync/?region=eu-west-1
//
// The Factory parses the URI and constructs the matching backend; call
// sites never switch on the backend type.
package storage
