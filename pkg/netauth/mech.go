package netauth

import "strings"

// Mech identifies an authentication mechanism a Selection proposes to use.
type Mech int

const (
	// MechNone means no mechanism has been assigned.
	MechNone Mech = iota

	// MechKerberos is plain Kerberos 5.
	MechKerberos

	// MechKerberosU2U is Kerberos user-to-user.
	MechKerberosU2U

	// MechIAKerb is Kerberos tunneled through the application protocol
	// (initial authentication via the server, RFC draft IAKERB).
	MechIAKerb

	// MechPKU2U is certificate-based peer-to-peer Kerberos.
	MechPKU2U

	// MechNTLM is the NTLM challenge-response protocol.
	MechNTLM
)

// mechNames maps mechanisms to their wire-facing names. The names double
// as the keys servers use when advertising supported mechanisms.
var mechNames = []struct {
	name string
	mech Mech
}{
	{"Kerberos", MechKerberos},
	{"KerberosUser2User", MechKerberosU2U},
	{"PKU2U", MechPKU2U},
	{"IAKerb", MechIAKerb},
	{"NTLM", MechNTLM},
}

// MechNameSPNEGO is the mechanism name reported for selections that wrap
// their inner mechanism in a SPNEGO negotiation envelope.
const MechNameSPNEGO = "SPNEGO"

// ParseMech maps a mechanism name to a Mech, case-insensitively.
// Unknown names map to MechNone.
func ParseMech(name string) Mech {
	for _, m := range mechNames {
		if strings.EqualFold(m.name, name) {
			return m.mech
		}
	}
	return MechNone
}

// String returns the canonical mechanism name, or "" for MechNone.
func (m Mech) String() string {
	for _, n := range mechNames {
		if n.mech == m {
			return n.name
		}
	}
	return ""
}

// family groups mechanisms by the credential store that backs them.
// Kerberos variants share one family since they share ticket caches.
func (m Mech) family() string {
	switch m {
	case MechKerberos, MechKerberosU2U, MechIAKerb, MechPKU2U:
		return "krb5"
	case MechNTLM:
		return "ntlm"
	default:
		return ""
	}
}

// NameType describes the semantic kind of a client or server name string.
type NameType string

const (
	// NameTypeUsername is a plain user name (possibly domain-qualified).
	NameTypeUsername NameType = "username"

	// NameTypeServiceBased is a host-based service name (service@host).
	NameTypeServiceBased NameType = "service-based"

	// NameTypeKRB5Principal is a Kerberos principal string.
	NameTypeKRB5Principal NameType = "krb5-principal"

	// NameTypeKRB5PrincipalReferral is a Kerberos principal the KDC may
	// rewrite via referrals.
	NameTypeKRB5PrincipalReferral NameType = "krb5-principal-referral"

	// NameTypeUUID is a stable credential identifier assigned after an
	// IAKERB acquisition.
	NameTypeUUID NameType = "uuid"
)

// GSSD name-type codes, for callers that hand selections to a gssd-style
// daemon. They mirror the kernel gssd mach types.
const (
	GSSDUser          = 0
	GSSDHostBased     = 1
	GSSDKRB5Principal = 4
	GSSDKRB5Referral  = 5
	GSSDNTLMPrincipal = 6
)

// Service identifiers understood by the generator heuristics.
const (
	ServiceAFP  = "afpserver"
	ServiceCIFS = "cifs"
	ServiceHost = "host"
	ServiceVNC  = "vnc"
)

// Keys for the server-advertised mechanism map (AuthContext.ServerMechs).
// HintLKDC marks a server that announces local-KDC (discovery realm)
// support without naming a concrete realm.
const (
	HintKerberos          = "Kerberos"
	HintKerberosMicrosoft = "KerberosMicrosoft"
	HintIAKerb            = "IAKerb"
	HintPKU2U             = "PKU2U"
	HintNTLM              = "NTLM"
	HintLKDC              = "LKDC"
)

// WellKnownLKDCRealm is the reserved realm name used when nothing is known
// about the server's real discovery realm.
const WellKnownLKDCRealm = "WELLKNOWN:COM.APPLE.LKDC"

// lkdcRealmPrefix prefixes discovery realms minted by a local KDC.
const lkdcRealmPrefix = "LKDC:"

// IsLKDCRealm reports whether realm is a discovery (local KDC) realm.
func IsLKDCRealm(realm string) bool {
	return strings.HasPrefix(realm, lkdcRealmPrefix) || realm == WellKnownLKDCRealm
}

// IsLKDCPrincipal reports whether the principal's realm is a discovery realm.
func IsLKDCPrincipal(principal string) bool {
	return IsLKDCRealm(principalRealm(principal))
}

// principalRealm returns the realm component of a principal string, the
// part after the last unescaped "@", or "" when there is none.
func principalRealm(principal string) string {
	if i := strings.LastIndex(principal, "@"); i >= 0 {
		return principal[i+1:]
	}
	return ""
}
