package netauth

import (
	"context"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDiscoveryResolvesPendingSelection(t *testing.T) {
	disc := &fakeDiscoverer{realm: "LKDC:SHA1.REALM"}
	na, err := New("myserver.local", "afpserver", Options{
		Username:  "alice",
		Password:  "secret",
		Discovery: disc,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer shutdown(na)

	selections := na.Generate().Selections()
	// Well-known candidate first, then the pending discovery one.
	if len(selections) != 2 {
		t.Fatalf("got %d selections, want 2", len(selections))
	}
	sel := selections[1]

	na.Wait()

	if sel.State() != StateResolved {
		t.Fatalf("state = %v after lookup, want StateResolved", sel.State())
	}
	if got := sel.ClientPrincipal(); got != "alice@LKDC:SHA1.REALM" {
		t.Errorf("client = %q", got)
	}
	if got := sel.ServerPrincipal(); got != "afpserver/LKDC:SHA1.REALM@LKDC:SHA1.REALM" {
		t.Errorf("server = %q", got)
	}
	if calls := disc.calls.Load(); calls != 1 {
		t.Errorf("discoverer called %d times, want 1", calls)
	}
}

func TestFailedDiscoveryLeavesSelectionPending(t *testing.T) {
	na, err := New("myserver.local", "afpserver", Options{
		Username:  "alice",
		Password:  "secret",
		Discovery: &fakeDiscoverer{err: errors.New("no such host")},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sel := na.Generate().Selections()[1]
	na.Wait()

	// The failure is invisible to the selection; only the caller's
	// deadline and the registry cancel can end the wait.
	if sel.State() != StatePending {
		t.Fatalf("state = %v after failed lookup, want StatePending", sel.State())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := sel.WaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitContext = %v, want DeadlineExceeded", err)
	}

	na.Cancel()
	if sel.Wait() {
		t.Error("Wait() after cancel should report failure")
	}
}

func TestDiscoveryCertificateCandidate(t *testing.T) {
	cert := testCert("raw-cert-bytes")
	sum := sha1.Sum(cert.Raw)
	fingerprint := strings.ToUpper(hex.EncodeToString(sum[:]))

	na, err := New("myserver.local", "afpserver", Options{
		Certificates: []*x509.Certificate{cert},
		Discovery:    &fakeDiscoverer{realm: "LKDC:SHA1.REALM"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer shutdown(na)

	selections := na.Generate().Selections()
	na.Wait()

	var sel *Selection
	for _, s := range selections {
		if s.Certificate() == cert && s.Mech() == MechKerberos && s.State() == StateResolved &&
			strings.HasPrefix(s.ClientPrincipal(), fingerprint) {
			sel = s
		}
	}
	if sel == nil {
		t.Fatalf("no resolved fingerprint candidate among %v", selections)
	}
	if got := sel.ClientPrincipal(); got != fingerprint+"@LKDC:SHA1.REALM" {
		t.Errorf("client = %q", got)
	}
}

func TestDiscoveryCanceledMidLookup(t *testing.T) {
	na, err := New("myserver.local", "afpserver", Options{
		Username:  "alice",
		Password:  "secret",
		Discovery: &fakeDiscoverer{realm: "LKDC:SHA1.REALM", delay: 50 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sel := na.Generate().Selections()[1]
	na.Cancel()
	na.Wait()

	// The late result lands on a canceled selection and is discarded.
	if sel.State() != StateCanceled {
		t.Fatalf("state = %v, want StateCanceled", sel.State())
	}
	if sel.Wait() {
		t.Error("Wait() reported resolved on a canceled selection")
	}
}
