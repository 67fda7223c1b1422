package netauth

import (
	"context"
	"crypto/x509"
	"fmt"
	"sync"
)

// State is the resolution state of a Selection.
type State int

const (
	// StatePending means the selection's server target is still being
	// completed by a background discovery lookup.
	StatePending State = iota

	// StateResolved means all identity fields are final and usable.
	StateResolved

	// StateCanceled means the selection was canceled; accessors return
	// zero values and waits report failure.
	StateCanceled
)

// Selection is one candidate (client identity, mechanism, target server)
// tuple. Selections are created by the candidate generator and owned by
// their Registry.
//
// A Selection created with a known server target starts Resolved; one
// whose target needs background discovery starts Pending. All accessors
// that expose derived information first wait for resolution and return
// zero values if the selection was canceled instead.
//
// Thread safety: all methods are safe for concurrent use. State
// transitions, waiter release, and the identity-field rewrite done by a
// successful acquisition are serialized on the selection's own mutex.
type Selection struct {
	mu    sync.Mutex
	done  chan struct{} // closed on leaving StatePending or on cancel
	state State

	mech       Mech
	client     string
	clientType NameType
	server     string
	serverType NameType
	spnego     bool

	certificate   *x509.Certificate
	cred          Credential
	haveCred      bool
	inferredLabel string

	na *AuthContext
}

// newSelection builds a selection. An empty server leaves it Pending.
func newSelection(na *AuthContext, client string, clientType NameType, server string, serverType NameType, mech Mech, spnego bool) *Selection {
	s := &Selection{
		done:       make(chan struct{}),
		mech:       mech,
		client:     client,
		clientType: clientType,
		server:     server,
		serverType: serverType,
		spnego:     spnego,
		na:         na,
	}
	if server == "" {
		s.state = StatePending
	} else {
		s.state = StateResolved
		close(s.done)
	}
	return s
}

// Wait blocks until the selection leaves StatePending and reports whether
// it resolved. It returns false when the selection was canceled. Multiple
// concurrent waiters are all released by the same transition; waits issued
// after cancellation return false immediately.
func (s *Selection) Wait() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateResolved
}

// WaitContext is Wait with a caller-controlled escape hatch. It returns
// ErrCanceled when the selection was canceled and ctx.Err() when the
// context expires first. A selection stuck in a failed discovery lookup
// stays Pending until Registry.Cancel; ctx bounds the caller's wait
// without changing the selection's state.
func (s *Selection) WaitContext(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolved {
		return ErrCanceled
	}
	return nil
}

// resolve completes a Pending selection with its final server and client
// names and releases all waiters. Calling it twice, or after cancellation,
// is a no-op.
func (s *Selection) resolve(server, client string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePending {
		return
	}
	s.server = server
	if client != "" {
		s.client = client
	}
	s.state = StateResolved
	close(s.done)
}

// cancel moves the selection to StateCanceled regardless of its current
// state and releases all waiters. Irreversible.
func (s *Selection) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePending {
		close(s.done)
	}
	s.state = StateCanceled
}

// State returns the current resolution state without waiting.
func (s *Selection) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// =============================================================================
// Accessors
//
// Every accessor below waits for resolution first; on a canceled selection
// they return zero values.
// =============================================================================

// HaveCredential reports whether the selection already carries a usable
// stored credential (found at generation time or acquired since).
func (s *Selection) HaveCredential() bool {
	if !s.Wait() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.haveCred
}

// ClientPrincipal returns the (possibly canonicalized) client name.
func (s *Selection) ClientPrincipal() string {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// ServerPrincipal returns the target server name.
func (s *Selection) ServerPrincipal() string {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// UserPrintable returns the identity string suitable for display.
func (s *Selection) UserPrintable() string {
	return s.ClientPrincipal()
}

// Mechanism returns the effective mechanism name. Selections wrapped in a
// negotiation envelope report SPNEGO; use InnerMechanism for the inner one.
func (s *Selection) Mechanism() string {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spnego {
		return MechNameSPNEGO
	}
	return s.mech.String()
}

// InnerMechanism returns the mechanism name without envelope wrapping.
func (s *Selection) InnerMechanism() string {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mech.String()
}

// Mech returns the inner mechanism identifier.
func (s *Selection) Mech() Mech {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mech
}

// UseSPNEGO reports whether the mechanism should be wrapped in a
// negotiation envelope. False on canceled selections.
func (s *Selection) UseSPNEGO() bool {
	if !s.Wait() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spnego
}

// ClientNameType returns the semantic kind of the client name.
func (s *Selection) ClientNameType() NameType {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientType
}

// ServerNameType returns the semantic kind of the server name.
func (s *Selection) ServerNameType() NameType {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverType
}

// InferredLabel returns the human-readable label computed for the
// selection's credential, when one has been set.
func (s *Selection) InferredLabel() string {
	if !s.Wait() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inferredLabel
}

// Certificate returns the client certificate backing this candidate, if
// any. The certificate is shared with the owning context.
func (s *Selection) Certificate() *x509.Certificate {
	if !s.Wait() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.certificate
}

// Credential returns the stored credential handle once acquisition (or
// generation-time reuse) has set one.
func (s *Selection) Credential() Credential {
	if !s.Wait() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// String formats the selection for debugging.
func (s *Selection) String() string {
	if !s.Wait() {
		return "<Selection: canceled>"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	outer := s.mech.String()
	if s.spnego {
		outer = MechNameSPNEGO
	}
	spnego := "no"
	if s.spnego {
		spnego = "yes"
	}
	return fmt.Sprintf("<Selection: %s<%s>, %s %s spnego: %s>",
		outer, s.mech.String(), s.client, s.server, spnego)
}

// =============================================================================
// AuthInfo
// =============================================================================

// AuthInfo is the bundle a filesystem client hands to its authentication
// layer: final names, their types (including numeric gssd codes), and the
// envelope flag.
type AuthInfo struct {
	Mechanism        string
	InnerMechanism   string
	CredentialType   string
	ClientPrincipal  string
	ServerPrincipal  string
	ClientNameType   NameType
	ServerNameType   NameType
	ClientNameGSSD   int
	ServerNameGSSD   int
	InferredLabel    string
	UseSPNEGO        bool
	HaveCredential   bool
}

// AuthInfo returns the selection's authentication info, or false when the
// selection was canceled or never resolved a server target.
func (s *Selection) AuthInfo() (*AuthInfo, bool) {
	if !s.Wait() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == "" {
		return nil, false
	}

	info := &AuthInfo{
		InnerMechanism:  s.mech.String(),
		CredentialType:  s.mech.String(),
		ClientPrincipal: s.client,
		ServerPrincipal: s.server,
		ClientNameType:  s.clientType,
		ServerNameType:  s.serverType,
		InferredLabel:   s.inferredLabel,
		UseSPNEGO:       s.spnego,
		HaveCredential:  s.haveCred,
	}
	if s.spnego {
		info.Mechanism = MechNameSPNEGO
	} else {
		info.Mechanism = s.mech.String()
	}

	switch s.clientType {
	case NameTypeUUID:
		info.ClientNameGSSD = GSSDUser
	case NameTypeKRB5Principal:
		info.ClientNameGSSD = GSSDKRB5Principal
	case NameTypeUsername:
		info.ClientNameGSSD = GSSDNTLMPrincipal
	default:
		info.ClientNameGSSD = GSSDUser
	}

	switch s.serverType {
	case NameTypeServiceBased:
		info.ServerNameGSSD = GSSDHostBased
	case NameTypeKRB5PrincipalReferral:
		info.ServerNameGSSD = GSSDKRB5Referral
	case NameTypeKRB5Principal:
		info.ServerNameGSSD = GSSDKRB5Principal
	default:
		info.ServerNameGSSD = GSSDHostBased
	}

	return info, true
}
