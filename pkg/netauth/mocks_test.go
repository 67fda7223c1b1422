package netauth

import (
	"context"
	"crypto/x509"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Test doubles
// =============================================================================

// fakeDiscoverer answers discovery lookups with a fixed realm or error,
// optionally after a delay.
type fakeDiscoverer struct {
	realm string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (d *fakeDiscoverer) DiscoverRealm(ctx context.Context, hostname string) (string, error) {
	d.calls.Add(1)
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if d.err != nil {
		return "", d.err
	}
	return d.realm, nil
}

// fakeRealmSource serves canned realm mappings.
type fakeRealmSource struct {
	hosts    map[string][]string
	defaults []string
}

func (s *fakeRealmSource) HostRealms(hostname string) ([]string, error) {
	return s.hosts[hostname], nil
}

func (s *fakeRealmSource) DefaultRealms() ([]string, error) {
	return s.defaults, nil
}

// fakeCertResolver maps certificates (by raw bytes) to identities.
type fakeCertResolver struct {
	identities map[string]string
	labels     map[string]string
}

func (r *fakeCertResolver) Identity(cert *x509.Certificate) (string, bool) {
	id, ok := r.identities[string(cert.Raw)]
	return id, ok
}

func (r *fakeCertResolver) InferLabel(cert *x509.Certificate) (string, bool) {
	label, ok := r.labels[string(cert.Raw)]
	return label, ok
}

// fakeKerberosEngine records requests and replies with canned material.
type fakeKerberosEngine struct {
	mat     *KerberosCredentialMaterial
	err     error
	calls   atomic.Int32
	lastReq KerberosCredentialRequest

	iakerbID  uuid.UUID
	iakerbErr error
}

func (e *fakeKerberosEngine) AcquireInitialCredential(_ context.Context, req KerberosCredentialRequest) (*KerberosCredentialMaterial, error) {
	e.calls.Add(1)
	e.lastReq = req
	if e.err != nil {
		return nil, e.err
	}
	if e.mat != nil {
		return e.mat, nil
	}
	// Echo the request back untouched.
	return &KerberosCredentialMaterial{
		ClientPrincipal: req.ClientPrincipal,
		Realm:           principalRealm(req.ClientPrincipal),
	}, nil
}

func (e *fakeKerberosEngine) AcquireIAKerbCredential(_ context.Context, principal, password string) (*IAKerbCredentialMaterial, error) {
	e.calls.Add(1)
	if e.iakerbErr != nil {
		return nil, e.iakerbErr
	}
	if password == "" {
		return nil, errors.New("password required")
	}
	id := e.iakerbID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &IAKerbCredentialMaterial{ID: id}, nil
}

// fakeNTLMEngine counts derivations.
type fakeNTLMEngine struct {
	err        error
	calls      atomic.Int32
	lastUser   string
	lastDomain string
}

func (e *fakeNTLMEngine) AcquireCredential(_ context.Context, username, domain, password string) (*NTLMCredentialMaterial, error) {
	e.calls.Add(1)
	e.lastUser = username
	e.lastDomain = domain
	if e.err != nil {
		return nil, e.err
	}
	return &NTLMCredentialMaterial{SessionKey: []byte("sessionkey")}, nil
}

// testCert fabricates a certificate carrying recognizable raw bytes.
func testCert(raw string) *x509.Certificate {
	return &x509.Certificate{Raw: []byte(raw)}
}
