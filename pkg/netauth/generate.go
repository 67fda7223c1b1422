package netauth

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/marmos91/netauth/internal/logger"
)

// generate populates the registry. Sub-strategies run in fixed priority
// order; later duplicates merge into the earlier winner. Failures in any
// single candidate are skipped, never aborting the enumeration.
func (na *AuthContext) generate() {
	na.addUserSelections()
	na.guessKerberos()

	// NTLM is only worth proposing for file-sharing services, and never
	// when the user brought certificates.
	if len(na.certs) == 0 && na.isSMB() {
		na.guessNTLM()
	}
}

// addUserSelections applies the user-configured override rules: exact
// hostname match (case-insensitive), optional username match, fixed
// mechanism and client principal, server = service@hostname.
func (na *AuthContext) addUserSelections() {
	for _, rule := range na.cfg.UserSelections {
		if rule.Client == "" || rule.Mech == "" || rule.Domain == "" {
			continue
		}
		if !strings.EqualFold(rule.Domain, na.hostname) {
			continue
		}
		if rule.User != "" && rule.User != na.username {
			continue
		}
		mech := ParseMech(rule.Mech)
		if mech == MechNone {
			continue
		}
		server := na.service + "@" + na.hostname
		na.addSelection(rule.Client, "", server, "", mech, useSPNEGO)
	}
}

// guessKerberos adds the Kerberos-family candidates.
//
// Mode selection and the classic-realm suppression rules are heuristics
// tuned against real server behavior; the order of the blocks below is
// load-bearing and matches the candidate priority in the package docs.
func (na *AuthContext) guessKerberos() {
	flags := useSPNEGO

	// IAKERB with a discovery realm needs the negotiation feature flag,
	// a password, both server hints, and a non-SMB service (SMB clients
	// cannot drive the in-band exchange).
	tryIAKerbLKDC := na.cfg.GSSEnable &&
		na.password != "" &&
		na.haveMech(HintIAKerb) &&
		na.haveMech(HintLKDC) &&
		!na.isSMB()

	tryWLKDC := false
	if !tryIAKerbLKDC {
		switch {
		case na.haveMech(HintPKU2U) || na.haveMech(HintLKDC):
			tryWLKDC = true
		case na.service == ServiceVNC:
			tryWLKDC = true
		case na.serverMechs == nil:
			// Server advertised nothing at all: the well-known realm is
			// the only candidate that can work against an unknown local
			// server, so propose it optimistically.
			tryWLKDC = true
		}
	}

	// Two signals tell us the server cannot do classic LKDC: it
	// announces the well-known name instead, or its negotiation hint
	// name carries no LKDC marker (true for Windows and most non-LKDC
	// SMB servers).
	tryLKDCClassic := true
	if na.haveMech(HintPKU2U) || na.haveMech(HintLKDC) {
		tryLKDCClassic = false
		logger.Debug("disabling classic LKDC, server announces well-known support")
	} else if na.serverHintName != "" && !strings.Contains(na.serverHintName, "@LKDC") {
		tryLKDCClassic = false
		logger.Debug("disabling classic LKDC, hint name has no LKDC marker",
			"hint_name", na.serverHintName)
	}

	// Old AFP servers choke on enveloped tokens.
	if na.service == ServiceAFP && !na.haveMech(HintLKDC) {
		flags &^= useSPNEGO
	}

	haveKerberos := na.serverMechs == nil ||
		na.haveMech(HintIAKerb) ||
		na.haveMech(HintKerberos) ||
		na.haveMech(HintKerberosMicrosoft) ||
		na.haveMech(HintPKU2U)

	logger.Debug("kerberos candidate plan",
		"have_kerberos", haveKerberos,
		"iakerb_lkdc", tryIAKerbLKDC,
		"wellknown_lkdc", tryWLKDC,
		"classic_lkdc", tryLKDCClassic,
		"spnego", flags&useSPNEGO != 0)

	if !haveKerberos {
		return
	}

	// Matching discovery-realm credentials first: reusing them beats
	// any public-key or password exchange.
	na.useExistingCredentials(true, flags)

	if tryIAKerbLKDC {
		na.wellknownLKDC(MechIAKerb, flags)
	}
	if tryWLKDC {
		na.wellknownLKDC(MechKerberos, flags)
	}
	if na.password != "" {
		na.useClassicKerberos(flags)
	}
	if tryLKDCClassic {
		na.classicLKDC(flags)
	}

	na.useExistingCredentials(false, flags)
}

// wellknownLKDC adds resolved candidates targeting the fixed well-known
// discovery realm: one for the username, one per certificate identity.
func (na *AuthContext) wellknownLKDC(mech Mech, flags addFlag) {
	server := na.service + "/localhost@" + WellKnownLKDCRealm

	// The username candidate needs a password to be acquirable, but when
	// the caller brought nothing at all it is still the best proposal to
	// surface; acquisition will then report the missing material.
	if na.password != "" || len(na.certs) == 0 {
		client := na.username + "@" + WellKnownLKDCRealm
		na.addSelection(client, NameTypeKRB5Principal, server, NameTypeKRB5Principal, mech, flags)
	}

	for _, cert := range na.certs {
		if na.certRes == nil {
			break
		}
		id, ok := na.certRes.Identity(cert)
		if !ok {
			continue
		}
		sel, dup := na.addSelection(id+"@"+WellKnownLKDCRealm, NameTypeKRB5Principal,
			server, NameTypeKRB5PrincipalReferral, mech, flags)
		if sel != nil && !dup {
			sel.mu.Lock()
			sel.certificate = cert
			sel.mu.Unlock()
		}
	}
}

// classicLKDC adds pending candidates whose server target is completed by
// a background discovery lookup: one per certificate (fingerprint-derived
// client name) plus one for password login. Discovery lookups hit the
// local network, so this only runs for locally-discovered hostnames.
func (na *AuthContext) classicLKDC(flags addFlag) {
	if !isLocalHostname(na.hostname) {
		return
	}
	if na.discovery == nil {
		logger.Debug("no realm discoverer, skipping classic LKDC candidates")
		return
	}

	for _, cert := range na.certs {
		sum := sha1.Sum(cert.Raw)
		client := strings.ToUpper(hex.EncodeToString(sum[:]))

		if na.certRes != nil {
			if label, ok := na.certRes.InferLabel(cert); ok {
				logger.Debug("adding classic LKDC candidate for certificate", "label", label)
			}
		}

		sel, dup := na.addSelection(client, NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, flags)
		if sel == nil || dup {
			continue
		}
		sel.mu.Lock()
		sel.certificate = cert
		sel.mu.Unlock()
		na.dispatchResolve(sel)
	}

	if na.password != "" {
		sel, dup := na.addSelection(na.username, NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, flags)
		if sel != nil && !dup {
			na.dispatchResolve(sel)
		}
	}
}

// useClassicKerberos adds classic-realm candidates, deriving realms from
// the username's qualifier and from the realm source. Never applies to
// locally-discovered hostnames.
func (na *AuthContext) useClassicKerberos(flags addFlag) {
	if isLocalHostname(na.hostname) {
		return
	}

	// user@REALM as typed, realm upper-cased on the server side.
	if i := strings.Index(na.username, "@"); i >= 0 {
		domain := strings.ToUpper(na.username[i+1:])
		server := na.service + "/" + na.hostname + "@" + domain
		na.addSelection(na.username, NameTypeKRB5Principal, server, NameTypeKRB5PrincipalReferral, MechKerberos, flags)
	}

	// DOMAIN\user rewritten to user@DOMAIN. Force-added: the rewritten
	// client no longer starts with the specific name's raw form.
	if i := strings.Index(na.username, "\\"); i >= 0 {
		domain := na.username[:i]
		user := na.username[i+1:]
		if domain != "" && user != "" {
			client := user + "@" + domain
			server := na.service + "/" + na.hostname + "@" + strings.ToUpper(domain)
			na.addSelection(client, NameTypeKRB5Principal, server, NameTypeKRB5PrincipalReferral, MechKerberos, flags|forceAdd)
		}
	}

	// The realm sources always run, even for qualified names: appending a
	// realm to "user@domain" yields the enterprise form the acquisition
	// path detects by its two '@'s, and the prefix filter drops the
	// nonsensical "DOMAIN\user@REALM" forms.
	if na.realms == nil {
		return
	}
	if realms, err := na.realms.HostRealms(na.hostname); err == nil {
		na.addRealms(realms, flags)
	}
	if realms, err := na.realms.DefaultRealms(); err == nil {
		na.addRealms(realms, flags)
	}
}

// addRealms adds one classic candidate per realm.
func (na *AuthContext) addRealms(realms []string, flags addFlag) {
	for _, realm := range realms {
		if realm == "" {
			continue
		}
		client := na.username + "@" + realm
		server := na.service + "/" + na.hostname + "@" + realm
		na.addSelection(client, NameTypeKRB5Principal, server, NameTypeKRB5PrincipalReferral, MechKerberos, flags)
	}
}

// useExistingCredentials adds candidates reusing stored credentials.
// Discovery-realm credentials must match the target hostname via their
// origin-hostname label; classic ones derive the server target from the
// stored principal's realm.
func (na *AuthContext) useExistingCredentials(onlyLKDC bool, flags addFlag) {
	if na.store == nil {
		return
	}

	na.store.Iterate(func(cred Credential) bool {
		principal := cred.Principal()
		realm := principalRealm(principal)
		if realm == "" {
			return true
		}

		isLKDC := IsLKDCRealm(realm)
		if onlyLKDC != isLKDC {
			return true
		}

		var server string
		if isLKDC {
			origin, ok := cred.Label(LabelLKDCHostname)
			if !ok || origin != na.hostname {
				return true
			}
			server = na.service + "/" + realm + "@" + realm
			logger.Debug("adding existing LKDC credential", logger.KeyClient, principal, logger.KeyServer, server)
		} else {
			server = na.service + "/" + na.hostname + "@" + realm
			logger.Debug("adding existing credential", logger.KeyClient, principal, logger.KeyServer, server)
		}

		sel, _ := na.addSelection(principal, NameTypeKRB5Principal, server, NameTypeKRB5PrincipalReferral, MechKerberos, flags)
		if sel != nil {
			sel.mu.Lock()
			if sel.cred == nil {
				sel.cred = cred
				sel.haveCred = true
				if sel.inferredLabel == "" {
					if label, ok := cred.Label(LabelFriendlyName); ok {
						sel.inferredLabel = label
					}
				}
			}
			sel.mu.Unlock()
		}
		return true
	})
}

// guessNTLM adds NTLM candidates: the literal or domain-qualified
// username, the specific-name fallback, and every stored NTLM credential.
func (na *AuthContext) guessNTLM() {
	if !na.haveMech(HintNTLM) {
		return
	}

	flags := useSPNEGO
	// A 3-byte "raw" hint means the server wants bare NTLM tokens.
	if hint, ok := na.serverMechs[HintNTLM]; ok && string(hint) == "raw" {
		flags &^= useSPNEGO
	}

	server := na.service + "@" + na.hostname

	if na.password != "" {
		var client string
		var extra addFlag
		switch {
		case strings.Contains(na.username, "@"):
			client = na.username
			extra = forceAdd
		case strings.Contains(na.username, "\\"):
			i := strings.Index(na.username, "\\")
			client = na.username[i+1:] + "@" + na.username[:i]
			extra = forceAdd
		default:
			client = na.username + "@\\" + na.hostname
		}
		na.addSelection(client, NameTypeUsername, server, "", MechNTLM, flags|extra)

		if na.specificName != "" {
			na.addSelection(na.specificName+"@\\"+na.hostname, NameTypeUsername, server, "", MechNTLM, flags)
		}
	}

	if na.store != nil {
		na.store.IterateNTLM(func(display string, cred Credential) bool {
			sel, _ := na.addSelection(display, NameTypeUsername, server, "", MechNTLM, flags)
			if sel != nil {
				sel.mu.Lock()
				if sel.cred == nil {
					sel.cred = cred
				}
				sel.haveCred = true
				sel.mu.Unlock()
			}
			return true
		})
	}
}
