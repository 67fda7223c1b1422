package netauth

import (
	"crypto/x509"
	"fmt"
	"os/user"
	"strings"
	"sync"

	"github.com/marmos91/netauth/internal/logger"
)

// UserSelectionRule is a user-configured override: when the target
// hostname matches Domain (case-insensitive exact match) and the context
// username matches User (when set), a resolved selection for Client with
// mechanism Mech is added ahead of all heuristics.
type UserSelectionRule struct {
	Domain string `mapstructure:"domain" yaml:"domain"`
	User   string `mapstructure:"user" yaml:"user"`
	Mech   string `mapstructure:"mech" yaml:"mech"`
	Client string `mapstructure:"client" yaml:"client"`
}

// Config carries the policy knobs for candidate generation. There is no
// process-wide state; every context gets its configuration explicitly.
type Config struct {
	// GSSEnable allows the IAKERB-with-discovery negotiation path.
	GSSEnable bool

	// UserSelections are the user-configured override rules.
	UserSelections []UserSelectionRule
}

// DefaultConfig returns the default generation policy.
func DefaultConfig() *Config {
	return &Config{GSSEnable: true}
}

// Options carries the optional inputs and collaborators for one
// authentication context.
type Options struct {
	// Username is the account name the user typed, possibly qualified
	// ("user@DOMAIN" or "DOMAIN\user"). Defaults to the current OS user.
	Username string

	// Password, when present, enables password-based candidates.
	Password string

	// Certificates are client certificates usable for PKINIT-style
	// candidates. Shared with the context for its lifetime.
	Certificates []*x509.Certificate

	// ServerMechs maps server-advertised mechanism names (Hint*
	// constants) to their opaque negotiation hint bytes. Nil means the
	// server advertised nothing.
	ServerMechs map[string][]byte

	// ServerHintName is the acceptor name from the server's negotiation
	// hints, when one was announced.
	ServerHintName string

	// Config is the generation policy; nil means DefaultConfig.
	Config *Config

	// Collaborators. Any of these may be nil; candidates depending on a
	// missing collaborator are skipped.
	Discovery   RealmDiscoverer
	Realms      RealmSource
	Store       CredentialStore
	Certs       CertificateResolver
	Kerberos    KerberosEngine
	NTLM        NTLMEngine

	// Metrics receives generation/acquisition counters when non-nil.
	Metrics *Metrics
}

// AuthContext aggregates the inputs of one authentication attempt and
// owns the Registry produced from them. Immutable after Generate except
// for the registry and the selections it owns.
type AuthContext struct {
	hostname       string
	service        string
	username       string
	specificName   string
	password       string
	certs          []*x509.Certificate
	serverMechs    map[string][]byte
	serverHintName string

	cfg       *Config
	discovery RealmDiscoverer
	realms    RealmSource
	store     CredentialStore
	certRes   CertificateResolver
	kerberos  KerberosEngine
	ntlm      NTLMEngine
	metrics   *Metrics

	registry *Registry
	genOnce  sync.Once

	// tasks tracks dispatched background work; the context must stay
	// alive until it drains (see Wait).
	tasks sync.WaitGroup
}

// New creates an AuthContext for one authentication attempt against
// service on hostname. The hostname is canonicalized by trimming
// trailing dots;
// when opts.Username is empty the current OS user is used and prefix
// filtering is disabled.
func New(hostname, service string, opts Options) (*AuthContext, error) {
	if hostname == "" {
		return nil, fmt.Errorf("netauth: hostname is required")
	}
	if service == "" {
		return nil, fmt.Errorf("netauth: service is required")
	}

	na := &AuthContext{
		hostname:       strings.TrimRight(hostname, "."),
		service:        service,
		password:       opts.Password,
		certs:          opts.Certificates,
		serverMechs:    opts.ServerMechs,
		serverHintName: opts.ServerHintName,
		cfg:            opts.Config,
		discovery:      opts.Discovery,
		realms:         opts.Realms,
		store:          opts.Store,
		certRes:        opts.Certs,
		kerberos:       opts.Kerberos,
		ntlm:           opts.NTLM,
		metrics:        opts.Metrics,
		registry:       &Registry{},
	}
	if na.cfg == nil {
		na.cfg = DefaultConfig()
	}

	if err := na.findUsername(opts.Username); err != nil {
		return nil, err
	}

	logger.Debug("netauth context",
		logger.KeyHost, na.hostname,
		logger.KeyService, na.service,
		"username", na.username,
		"specific_name", na.specificName,
		"have_password", na.password != "",
		"certs", len(na.certs))

	return na, nil
}

// findUsername records the username and derives the specific name used
// for prefix matching: the local part of "user@domain", the user part of
// "DOMAIN\user", or the whole name when unqualified. A username taken
// from the OS leaves the specific name unset.
func (na *AuthContext) findUsername(username string) error {
	if username != "" {
		na.username = username
		switch {
		case strings.Contains(username, "@"):
			na.specificName = username[:strings.Index(username, "@")]
		case strings.Contains(username, "\\"):
			na.specificName = username[strings.Index(username, "\\")+1:]
		default:
			na.specificName = username
		}
		return nil
	}

	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("netauth: no username given and lookup of current user failed: %w", err)
	}
	na.username = u.Username
	return nil
}

// Generate runs the candidate generator once and returns the registry.
// Subsequent calls return the same registry.
func (na *AuthContext) Generate() *Registry {
	na.genOnce.Do(na.generate)
	return na.registry
}

// Registry returns the context's registry. Empty until Generate runs.
func (na *AuthContext) Registry() *Registry { return na.registry }

// Hostname returns the canonicalized target hostname.
func (na *AuthContext) Hostname() string { return na.hostname }

// Service returns the service identifier.
func (na *AuthContext) Service() string { return na.service }

// Username returns the resolved username.
func (na *AuthContext) Username() string { return na.username }

// Cancel cancels every selection in the registry. See Registry.Cancel.
func (na *AuthContext) Cancel() { na.registry.Cancel() }

// Wait blocks until all dispatched background work (discovery lookups,
// async acquisitions) has completed. Callers that cancel early should
// still Wait before discarding the context.
func (na *AuthContext) Wait() { na.tasks.Wait() }

// haveMech reports whether the server advertised the given mechanism.
func (na *AuthContext) haveMech(name string) bool {
	if na.serverMechs == nil {
		return false
	}
	_, ok := na.serverMechs[name]
	return ok
}

// isSMB reports whether the service is an SMB/host file-sharing service.
func (na *AuthContext) isSMB() bool {
	return na.service == ServiceHost || na.service == ServiceCIFS
}

// isLocalHostname reports whether the hostname looks locally discovered
// (the only hosts that can be expected to run a discovery realm).
func isLocalHostname(hostname string) bool {
	return strings.HasSuffix(hostname, ".local") ||
		strings.HasSuffix(hostname, ".members.mac.com") ||
		strings.HasSuffix(hostname, ".members.me.com")
}

// addFlag adjusts addSelection behavior.
type addFlag uint

const (
	// useSPNEGO wraps the candidate's mechanism in a negotiation envelope.
	useSPNEGO addFlag = 1 << iota

	// forceAdd bypasses specific-name prefix filtering.
	forceAdd
)

// addSelection filters, deduplicates, and inserts one candidate.
//
// Candidates whose client name does not start with the context's specific
// name are dropped silently unless force-added. When an equivalent
// selection already exists it is returned with duplicate=true so callers
// can skip re-dispatching background work. An empty server creates a
// Pending selection carrying a wait primitive.
func (na *AuthContext) addSelection(client string, clientType NameType, server string, serverType NameType, mech Mech, flags addFlag) (sel *Selection, duplicate bool) {
	if clientType == "" {
		clientType = NameTypeUsername
	}
	if serverType == "" {
		serverType = NameTypeServiceBased
	}

	matching := flags&forceAdd != 0 || na.specificName == "" || strings.HasPrefix(client, na.specificName)

	logger.Debug("addSelection",
		logger.KeyMech, mech.String(),
		logger.KeyClient, client,
		logger.KeyServer, server,
		"spnego", flags&useSPNEGO != 0,
		"matching", matching)

	if !matching {
		return nil, false
	}

	r := na.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findDuplicate(client, server, serverType, mech); existing != nil {
		return existing, true
	}

	sel = newSelection(na, client, clientType, server, serverType, mech, flags&useSPNEGO != 0)
	r.append(sel)
	na.metrics.selectionGenerated(mech)
	return sel, false
}
