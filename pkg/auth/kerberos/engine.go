package kerberos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/marmos91/netauth/internal/logger"
	"github.com/marmos91/netauth/pkg/netauth"
)

// Engine performs initial-credential acquisition against real KDCs using
// gokrb5. It implements netauth.KerberosEngine.
//
// Thread Safety: All methods are safe for concurrent use. The krb5
// configuration is read-only after construction; per-request KDC
// overrides work on a copy.
type Engine struct {
	conf *krb5config.Config
}

// NewEngine creates an engine from a krb5.conf file.
//
// Parameters:
//   - confPath: path to krb5.conf; empty means /etc/krb5.conf
//
// Returns:
//   - *Engine: engine backed by the parsed configuration
//   - error: if the configuration cannot be loaded or parsed
func NewEngine(confPath string) (*Engine, error) {
	if confPath == "" {
		confPath = "/etc/krb5.conf"
	}
	conf, err := krb5config.Load(confPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5.conf %s: %w", confPath, err)
	}
	return NewEngineFromConfig(conf), nil
}

// NewEngineFromConfig creates an engine from an already-parsed krb5
// configuration. Useful for tests.
//
// KDC addresses always come from the configuration (or the per-request
// override), never from DNS SRV lookups.
func NewEngineFromConfig(conf *krb5config.Config) *Engine {
	conf.LibDefaults.DNSLookupKDC = false
	return &Engine{conf: conf}
}

// AcquireInitialCredential runs the AS exchange for the requested client
// principal and returns the canonicalized outcome.
//
// The client name in the result reflects any referral the KDC performed,
// so callers must not assume it equals the requested one. Certificate
// (PKINIT) requests are rejected; plug in a PKINIT-capable engine for
// those.
func (e *Engine) AcquireInitialCredential(ctx context.Context, req netauth.KerberosCredentialRequest) (*netauth.KerberosCredentialMaterial, error) {
	if req.Certificate != nil {
		return nil, &netauth.MechError{
			Mech:    netauth.MechKerberos,
			Message: "certificate-based (PKINIT) acquisition is not supported by this engine",
		}
	}
	if req.ClientPrincipal == "" {
		return nil, netauth.ErrNameParse
	}

	user, realm := splitPrincipal(req.ClientPrincipal)
	if realm == "" {
		realm = e.conf.LibDefaults.DefaultRealm
	}
	if req.Enterprise {
		// user@domain@REALM: the full left part is the enterprise name
		// the KDC resolves.
		logger.Debug("acquiring with enterprise name", logger.KeyClient, req.ClientPrincipal)
	}

	conf := e.conf
	if req.KDCAddress != "" {
		conf = e.confWithKDC(realm, req.KDCAddress)
	}

	cl := client.NewWithPassword(user, realm, req.Password, conf)

	// gokrb5's Login has no context plumbing; run it on the side so the
	// caller's deadline still cuts the wait.
	errCh := make(chan error, 1)
	go func() {
		errCh <- cl.Login()
	}()

	select {
	case <-ctx.Done():
		go func() {
			<-errCh
			cl.Destroy()
		}()
		return nil, ctx.Err()
	case err := <-errCh:
		if err != nil {
			return nil, wrapKRBError(req.ClientPrincipal, err)
		}
	}
	defer cl.Destroy()

	canonical := cl.Credentials.CName().PrincipalNameString() + "@" + cl.Credentials.Domain()
	if canonical != req.ClientPrincipal {
		logger.Debug("KDC canonicalized client name",
			"from", req.ClientPrincipal, "to", canonical)
	}

	return &netauth.KerberosCredentialMaterial{
		ClientPrincipal: canonical,
		Realm:           cl.Credentials.Domain(),
		Expiry:          cl.Credentials.ValidUntil(),
	}, nil
}

// AcquireIAKerbCredential mints the credential identity for the in-band
// IAKERB path. The real AS exchange runs inside the application protocol
// later; all this engine contributes is the stable credential identifier.
func (e *Engine) AcquireIAKerbCredential(_ context.Context, principal, password string) (*netauth.IAKerbCredentialMaterial, error) {
	if principal == "" {
		return nil, netauth.ErrNameParse
	}
	if password == "" {
		return nil, netauth.ErrNoCredentialMaterial
	}
	return &netauth.IAKerbCredentialMaterial{ID: uuid.New()}, nil
}

// confWithKDC returns a copy of the engine's configuration with the
// realm's KDC pinned to the given "tcp/host" address. Discovery realms
// are never present in krb5.conf, so the copy usually introduces the
// realm as well.
func (e *Engine) confWithKDC(realm, kdcAddress string) *krb5config.Config {
	host := kdcAddress
	if i := strings.Index(kdcAddress, "/"); i >= 0 {
		host = kdcAddress[i+1:]
	}
	kdc := host + ":88"

	conf := *e.conf
	conf.Realms = make([]krb5config.Realm, 0, len(e.conf.Realms)+1)
	replaced := false
	for _, r := range e.conf.Realms {
		if r.Realm == realm {
			r.KDC = []string{kdc}
			replaced = true
		}
		conf.Realms = append(conf.Realms, r)
	}
	if !replaced {
		conf.Realms = append(conf.Realms, krb5config.Realm{
			Realm: realm,
			KDC:   []string{kdc},
		})
	}
	return &conf
}

// splitPrincipal splits a principal at its last '@'. Enterprise names
// keep their embedded '@' in the user part.
func splitPrincipal(principal string) (user, realm string) {
	if i := strings.LastIndex(principal, "@"); i >= 0 {
		return principal[:i], principal[i+1:]
	}
	return principal, ""
}

// wrapKRBError converts a gokrb5 failure into a *netauth.MechError,
// surfacing the KDC error code when one is present.
func wrapKRBError(principal string, err error) error {
	var krbErr messages.KRBError
	if errors.As(err, &krbErr) {
		return &netauth.MechError{
			Mech:    netauth.MechKerberos,
			Code:    int(krbErr.ErrorCode),
			Message: fmt.Sprintf("initial credential for %s refused by KDC", principal),
			Err:     err,
		}
	}
	return &netauth.MechError{
		Mech:    netauth.MechKerberos,
		Message: fmt.Sprintf("initial credential for %s failed", principal),
		Err:     err,
	}
}
