package netauth

import (
	"context"
	"crypto/x509"
	"strings"

	"github.com/marmos91/netauth/internal/logger"
)

// Acquire obtains the credential material backing the selection, storing
// the result in the credential store and rewriting the selection's names
// with any canonicalization the exchange performed.
//
// Acquire first waits for resolution (bounded by ctx), then dispatches on
// the selection's mechanism. It is idempotent: a selection that already
// carries a credential pins it again and returns nil. Cancellation during
// an in-flight acquisition discards the result and returns ErrCanceled.
func (s *Selection) Acquire(ctx context.Context) error {
	if err := s.WaitContext(ctx); err != nil {
		return err
	}

	var err error
	switch s.Mech() {
	case MechKerberos, MechPKU2U:
		err = s.acquireKerberos(ctx)
	case MechIAKerb:
		err = s.acquireIAKerb(ctx)
	case MechNTLM:
		err = s.acquireNTLM(ctx)
	default:
		err = ErrUnsupportedMechanism
	}

	s.na.metrics.observeAcquire(s.Mech(), err)
	return err
}

// AcquireAsync runs Acquire on a context-tracked goroutine and delivers
// the outcome to done (which may be nil). The owning context's Wait
// drains the goroutine.
func (s *Selection) AcquireAsync(ctx context.Context, done func(error)) {
	s.na.tasks.Add(1)
	go func() {
		defer s.na.tasks.Done()
		err := s.Acquire(ctx)
		if done != nil {
			done(err)
		}
	}()
}

// acquireKerberos performs the initial-credential exchange for the
// Kerberos and PKU2U candidates.
func (s *Selection) acquireKerberos(ctx context.Context) error {
	na := s.na

	s.mu.Lock()
	if s.haveCred && s.cred != nil {
		// Already backed by a stored credential: pin it once more.
		s.cred.Hold()
		s.mu.Unlock()
		return nil
	}
	client := s.client
	cert := s.certificate
	s.mu.Unlock()

	if na.password == "" && cert == nil {
		return ErrNoCredentialMaterial
	}
	if na.kerberos == nil {
		return ErrNoEngine
	}

	req := KerberosCredentialRequest{
		ClientPrincipal: client,
		// Two '@'s mean user@domain@REALM, an enterprise name.
		Enterprise:   strings.Count(client, "@") >= 2,
		Password:     na.password,
		Certificate:  cert,
		Canonicalize: true,
	}
	if IsLKDCPrincipal(client) {
		// Discovery realms have no DNS presence; reach the KDC on the
		// target host directly.
		req.KDCAddress = "tcp/" + na.hostname
	}

	mat, err := na.kerberos.AcquireInitialCredential(ctx, req)
	if err != nil {
		logger.Debug("kerberos acquisition failed",
			logger.KeyClient, client,
			"error", err)
		return err
	}

	realm := principalRealm(mat.ClientPrincipal)

	// The KDC may have referred us to another realm; follow the referral
	// in both names.
	server := ""
	if mat.ClientPrincipal != client {
		logger.Debug("kerberos referral",
			"from", client, "to", mat.ClientPrincipal)
		if IsLKDCRealm(realm) {
			server = na.service + "/" + realm + "@" + realm
		} else {
			server = na.service + "/" + na.hostname + "@" + realm
		}
	}

	label := na.friendlyName(cert, realm, mat.ClientPrincipal)

	var cred Credential
	if na.store != nil {
		cred, err = na.store.Create(MechKerberos, mat.ClientPrincipal)
		if err != nil {
			return err
		}
		cred.SetLabel(LabelFriendlyName, label)
		cred.SetLabel(labelCreated, "1")
		if IsLKDCRealm(realm) {
			cred.SetLabel(LabelLKDCHostname, na.hostname)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCanceled {
		if cred != nil {
			cred.RemoveLabel(labelCreated)
		}
		return ErrCanceled
	}
	s.client = mat.ClientPrincipal
	if server != "" {
		s.server = server
	}
	s.cred = cred
	s.haveCred = true
	s.inferredLabel = label
	return nil
}

// friendlyName picks the human-readable label for a freshly acquired
// credential: the certificate's label when one backed the exchange, the
// plain username for specific-name or discovery-realm logins, and the
// full principal otherwise.
func (na *AuthContext) friendlyName(cert *x509.Certificate, realm, principal string) string {
	if cert != nil && na.certRes != nil {
		if label, ok := na.certRes.InferLabel(cert); ok {
			return label
		}
	}
	if na.specificName != "" || IsLKDCRealm(realm) {
		return na.username
	}
	return principal
}

// acquireIAKerb acquires through the in-band IAKERB path. The selection's
// client name is replaced by the stable credential identifier the path
// produces.
func (s *Selection) acquireIAKerb(ctx context.Context) error {
	na := s.na

	s.mu.Lock()
	if s.haveCred {
		s.mu.Unlock()
		return ErrUnsupportedMechanism
	}
	client := s.client
	s.mu.Unlock()

	if na.password == "" {
		return ErrNoCredentialMaterial
	}
	if na.kerberos == nil {
		return ErrNoEngine
	}

	mat, err := na.kerberos.AcquireIAKerbCredential(ctx, client, na.password)
	if err != nil {
		logger.Debug("iakerb acquisition failed",
			logger.KeyClient, client,
			"error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCanceled {
		return ErrCanceled
	}
	// The typed name survives as the label; the name on the wire becomes
	// the credential identifier.
	s.inferredLabel = client
	s.client = mat.ID.String()
	s.clientType = NameTypeUUID
	s.haveCred = true
	return nil
}

// acquireNTLM derives NTLM session material for the selection.
func (s *Selection) acquireNTLM(ctx context.Context) error {
	na := s.na

	s.mu.Lock()
	if s.haveCred {
		if s.cred != nil {
			s.cred.Hold()
		}
		s.mu.Unlock()
		return nil
	}
	client := s.client
	s.mu.Unlock()

	if na.password == "" {
		return ErrNoCredentialMaterial
	}
	if na.ntlm == nil {
		return ErrNoEngine
	}

	user, domain := client, ""
	if i := strings.Index(client, "@"); i >= 0 {
		user = client[:i]
		domain = client[i+1:]
	}

	if _, err := na.ntlm.AcquireCredential(ctx, user, domain, na.password); err != nil {
		logger.Debug("ntlm acquisition failed",
			logger.KeyClient, client,
			"error", err)
		return err
	}

	var cred Credential
	if na.store != nil {
		var err error
		cred, err = na.store.Create(MechNTLM, client)
		if err != nil {
			return err
		}
		cred.SetLabel(LabelFriendlyName, client)
		cred.SetLabel(labelCreated, "1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCanceled {
		if cred != nil {
			cred.RemoveLabel(labelCreated)
		}
		return ErrCanceled
	}
	s.cred = cred
	s.haveCred = true
	s.inferredLabel = client
	return nil
}
