package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/marmos91/netauth/internal/cli/prompt"
	"github.com/marmos91/netauth/internal/logger"
	"github.com/marmos91/netauth/pkg/auth/kerberos"
	"github.com/marmos91/netauth/pkg/config"
	"github.com/marmos91/netauth/pkg/netauth"

	ntlmengine "github.com/marmos91/netauth/internal/auth/ntlm"
)

// contextFlags are the target/identity flags shared by candidates and
// acquire.
type contextFlags struct {
	username       string
	password       string
	askPassword    bool
	serverMechs    []string
	serverHintName string
	lkdcRealm      string
}

// staticDiscoverer answers every discovery lookup with one fixed realm.
// It stands in for an mDNS-backed discoverer when exercising the
// pipeline from the command line.
type staticDiscoverer struct {
	realm string
}

func (d staticDiscoverer) DiscoverRealm(_ context.Context, hostname string) (string, error) {
	if d.realm == "" {
		return "", fmt.Errorf("no realm configured for %s", hostname)
	}
	return d.realm, nil
}

// parseServerMechs converts --server-mech values ("NTLM", "NTLM=raw")
// into the hint map. An empty list means nil: nothing advertised.
func parseServerMechs(values []string) map[string][]byte {
	if len(values) == 0 {
		return nil
	}
	mechs := make(map[string][]byte, len(values))
	for _, v := range values {
		name, hint, found := strings.Cut(v, "=")
		if found {
			mechs[name] = []byte(hint)
		} else {
			mechs[name] = []byte{}
		}
	}
	return mechs
}

// buildContext assembles an AuthContext for hostname/service from the
// loaded configuration and the command-line flags.
func buildContext(cfg *config.Config, hostname, service string, cf *contextFlags, store netauth.CredentialStore) (*netauth.AuthContext, error) {
	if cf.password == "" && cf.askPassword {
		pw, err := prompt.Password(fmt.Sprintf("Password for %s", cf.username))
		if err != nil {
			return nil, err
		}
		cf.password = pw
	}

	opts := netauth.Options{
		Username:       cf.username,
		Password:       cf.password,
		ServerMechs:    parseServerMechs(cf.serverMechs),
		ServerHintName: cf.serverHintName,
		Config:         cfg.ToNetauth(),
		Store:          store,
		NTLM:           ntlmengine.NewEngine(),
	}

	if cf.lkdcRealm != "" {
		opts.Discovery = staticDiscoverer{realm: cf.lkdcRealm}
	}

	// The Kerberos engine and realm source need a readable krb5.conf;
	// candidate enumeration still works without one.
	if engine, err := kerberos.NewEngine(cfg.Krb5Conf); err == nil {
		opts.Kerberos = engine
	} else {
		logger.Debug("kerberos engine unavailable", "error", err)
	}
	if realms, err := kerberos.NewRealmSourceFromFile(cfg.Krb5Conf); err == nil {
		opts.Realms = realms
	}

	return netauth.New(hostname, service, opts)
}

// stateString formats a selection state for display.
func stateString(s netauth.State) string {
	switch s {
	case netauth.StatePending:
		return "pending"
	case netauth.StateResolved:
		return "resolved"
	case netauth.StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
