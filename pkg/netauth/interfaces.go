package netauth

import (
	"context"
	"crypto/x509"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Realm lookup collaborators
// =============================================================================

// RealmDiscoverer resolves a hostname to the discovery (local KDC) realm
// the host announces. Implementations typically ride on a local discovery
// protocol such as mDNS, so lookups can be slow or never complete.
type RealmDiscoverer interface {
	// DiscoverRealm returns the discovery realm announced by hostname,
	// or an error when the host announces none.
	DiscoverRealm(ctx context.Context, hostname string) (string, error)
}

// RealmSource answers classic Kerberos realm questions, usually from
// krb5.conf data. See pkg/auth/kerberos for the gokrb5-backed source.
type RealmSource interface {
	// HostRealms returns the realms mapped to hostname, best match first.
	HostRealms(hostname string) ([]string, error)

	// DefaultRealms returns the client's configured default realms.
	DefaultRealms() ([]string, error)
}

// =============================================================================
// Credential store
// =============================================================================

// Label names with meaning to the engine. Labels are small string
// annotations attached to stored credentials.
const (
	// LabelFriendlyName is the human-readable label shown in credential
	// pickers.
	LabelFriendlyName = "FriendlyName"

	// LabelLKDCHostname records which host a discovery-realm credential
	// was acquired against.
	LabelLKDCHostname = "lkdc-hostname"

	// labelCreated marks credentials this engine created. Reference
	// counting refuses to touch credentials without it.
	labelCreated = "netauth-created"
)

// Credential is a handle to one stored credential (a ticket cache entry or
// an NTLM session). Implementations must be safe for concurrent use.
type Credential interface {
	// Principal returns the client principal the credential belongs to.
	Principal() string

	// Label returns the value of a label, if set.
	Label(name string) (string, bool)

	// SetLabel sets a label, replacing any previous value.
	SetLabel(name, value string)

	// RemoveLabel deletes a label. Removing an absent label is a no-op.
	RemoveLabel(name string)

	// Hold pins the credential against expiry/garbage collection.
	Hold()

	// Unhold releases one pin.
	Unhold()
}

// CredentialStore enumerates and creates stored credentials. The bundled
// MemoryCredentialStore implements it in-process; production callers wrap
// their platform credential cache.
type CredentialStore interface {
	// Iterate calls fn for every stored Kerberos-family credential until
	// fn returns false. Enumeration is lazy; fn must not call back into
	// the store.
	Iterate(fn func(Credential) bool)

	// IterateNTLM calls fn for every stored NTLM credential with its
	// display name until fn returns false.
	IterateNTLM(fn func(displayName string, cred Credential) bool)

	// Find returns the live credential for (mech, principal), if any.
	// Kerberos mechanism variants share a namespace.
	Find(mech Mech, principal string) (Credential, bool)

	// Create locates or creates the credential for (mech, principal).
	Create(mech Mech, principal string) (Credential, error)
}

// =============================================================================
// Certificate identity
// =============================================================================

// CertificateResolver infers identity strings from client certificates.
type CertificateResolver interface {
	// Identity returns the authentication identity embedded in the
	// certificate (e.g. a Kerberos principal SAN), if any.
	Identity(cert *x509.Certificate) (string, bool)

	// InferLabel returns a human-readable label for the certificate.
	InferLabel(cert *x509.Certificate) (string, bool)
}

// =============================================================================
// Mechanism engines
// =============================================================================

// KerberosCredentialRequest describes one initial-credential acquisition.
type KerberosCredentialRequest struct {
	// ClientPrincipal is the requested client principal string.
	ClientPrincipal string

	// Enterprise marks an enterprise-name principal (user@domain@REALM).
	Enterprise bool

	// Password is the client secret; empty when Certificate is used.
	Password string

	// Certificate backs a PKINIT acquisition when non-nil.
	Certificate *x509.Certificate

	// KDCAddress overrides KDC location ("tcp/host" form) for discovery
	// realms that are reached by direct connection instead of DNS.
	KDCAddress string

	// Canonicalize asks the KDC to canonicalize the client name.
	Canonicalize bool
}

// KerberosCredentialMaterial is the outcome of a successful acquisition.
// ClientPrincipal reflects any referral the KDC performed.
type KerberosCredentialMaterial struct {
	ClientPrincipal string
	Realm           string
	Expiry          time.Time
}

// IAKerbCredentialMaterial identifies a credential acquired through the
// IAKERB path. ID is the stable identifier callers use from then on.
type IAKerbCredentialMaterial struct {
	ID uuid.UUID
}

// KerberosEngine performs Kerberos credential acquisition. Errors should
// be *MechError so callers see the KDC error code.
type KerberosEngine interface {
	AcquireInitialCredential(ctx context.Context, req KerberosCredentialRequest) (*KerberosCredentialMaterial, error)

	// AcquireIAKerbCredential acquires through the in-band IAKERB path
	// with a password only.
	AcquireIAKerbCredential(ctx context.Context, principal, password string) (*IAKerbCredentialMaterial, error)
}

// NTLMCredentialMaterial carries the derived NTLM key material.
type NTLMCredentialMaterial struct {
	SessionKey []byte
}

// NTLMEngine derives NTLM session credentials from a username, domain,
// and password.
type NTLMEngine interface {
	AcquireCredential(ctx context.Context, username, domain, password string) (*NTLMCredentialMaterial, error)
}
