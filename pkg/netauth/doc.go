// Package netauth selects, orders, and resolves candidate identities a
// client can use to authenticate against a network service.
//
// Given a target hostname, a service identifier, and whatever credential
// material the caller has (username, password, client certificates, cached
// tickets), the candidate generator produces an ordered Registry of
// Selections. Each Selection is one (client identity, mechanism, target
// server) proposal. Some Selections are fully known at generation time;
// others depend on a background realm-discovery lookup and resolve
// asynchronously.
//
// Callers enumerate the Registry in order and call Acquire on each
// Selection until one yields a usable credential. Acquisition is safe to
// call concurrently, idempotent once a Selection carries a credential, and
// cancelable registry-wide via Registry.Cancel.
//
// The actual protocol engines (Kerberos AS exchanges, NTLM key derivation)
// are collaborators behind interfaces; see pkg/auth/kerberos and
// internal/auth/ntlm for the bundled implementations.
package netauth
