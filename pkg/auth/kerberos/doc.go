// Package kerberos provides the gokrb5-backed Kerberos collaborators for
// the selection engine.
//
// The Engine type implements netauth.KerberosEngine and manages:
//   - AS exchanges (password-based initial credentials) with KDC
//     canonicalization and referral follow-up
//   - Per-request KDC pinning for discovery realms that have no DNS
//     presence
//   - IAKERB credential identity minting for the in-band path
//
// The RealmSource type implements netauth.RealmSource over krb5.conf
// data (domain_realm mappings and the default realm).
//
// This package does NOT contain PKINIT: certificate-backed acquisitions
// are rejected with a *netauth.MechError, and deployments with smart
// cards plug in their own engine behind the same interface.
//
// References:
//   - RFC 4120: The Kerberos Network Authentication Service (V5)
//   - RFC 6113: A Generalized Framework for Kerberos Pre-Authentication
package kerberos
