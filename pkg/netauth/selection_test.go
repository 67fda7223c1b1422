package netauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// State machine
// =============================================================================

func TestSelectionStartsResolvedWithServer(t *testing.T) {
	s := newSelection(nil, "alice@CORP", NameTypeKRB5Principal, "cifs/host@CORP", NameTypeKRB5PrincipalReferral, MechKerberos, true)

	if s.State() != StateResolved {
		t.Fatalf("state = %v, want StateResolved", s.State())
	}
	if !s.Wait() {
		t.Error("Wait() on a resolved selection should report success")
	}
	if got := s.ClientPrincipal(); got != "alice@CORP" {
		t.Errorf("ClientPrincipal = %q", got)
	}
}

func TestSelectionPendingResolve(t *testing.T) {
	s := newSelection(nil, "alice", NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, false)

	if s.State() != StatePending {
		t.Fatalf("state = %v, want StatePending", s.State())
	}

	s.resolve("afpserver/LKDC:X@LKDC:X", "alice@LKDC:X")

	if s.State() != StateResolved {
		t.Fatalf("state = %v after resolve, want StateResolved", s.State())
	}
	if got := s.ServerPrincipal(); got != "afpserver/LKDC:X@LKDC:X" {
		t.Errorf("ServerPrincipal = %q", got)
	}
	if got := s.ClientPrincipal(); got != "alice@LKDC:X" {
		t.Errorf("ClientPrincipal = %q", got)
	}

	// Second resolve is a no-op.
	s.resolve("other/server@R", "other@R")
	if got := s.ClientPrincipal(); got != "alice@LKDC:X" {
		t.Errorf("ClientPrincipal after duplicate resolve = %q", got)
	}
}

func TestSelectionCancelReleasesAllWaiters(t *testing.T) {
	s := newSelection(nil, "alice", NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, false)

	const waiters = 3
	results := make(chan bool, waiters)
	var ready sync.WaitGroup
	ready.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			ready.Done()
			results <- s.Wait()
		}()
	}
	ready.Wait()

	s.cancel()

	for i := 0; i < waiters; i++ {
		select {
		case ok := <-results:
			if ok {
				t.Error("waiter reported resolved after cancel")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiter not released by cancel")
		}
	}

	// Waits after cancellation return immediately.
	if s.Wait() {
		t.Error("Wait() after cancel should report failure")
	}
}

func TestSelectionCancelOverridesResolved(t *testing.T) {
	s := newSelection(nil, "alice@CORP", NameTypeKRB5Principal, "cifs/host@CORP", NameTypeKRB5PrincipalReferral, MechKerberos, false)

	s.cancel()

	if s.State() != StateCanceled {
		t.Fatalf("state = %v, want StateCanceled", s.State())
	}
	if s.Wait() {
		t.Error("Wait() on canceled selection should report failure")
	}
	if got := s.ClientPrincipal(); got != "" {
		t.Errorf("ClientPrincipal on canceled selection = %q, want empty", got)
	}
	if got := s.Mechanism(); got != "" {
		t.Errorf("Mechanism on canceled selection = %q, want empty", got)
	}
	if s.String() != "<Selection: canceled>" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestSelectionWaitContext(t *testing.T) {
	t.Run("DeadlineOnStuckPending", func(t *testing.T) {
		s := newSelection(nil, "alice", NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, false)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err := s.WaitContext(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("WaitContext = %v, want DeadlineExceeded", err)
		}
		// The deadline bounds the wait without touching the state.
		if s.State() != StatePending {
			t.Errorf("state = %v after deadline, want StatePending", s.State())
		}
	})

	t.Run("CanceledSelection", func(t *testing.T) {
		s := newSelection(nil, "alice", NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, false)
		s.cancel()

		err := s.WaitContext(context.Background())
		if !errors.Is(err, ErrCanceled) {
			t.Fatalf("WaitContext = %v, want ErrCanceled", err)
		}
	})

	t.Run("ResolvedSelection", func(t *testing.T) {
		s := newSelection(nil, "a@R", NameTypeKRB5Principal, "s/h@R", NameTypeKRB5PrincipalReferral, MechKerberos, false)
		if err := s.WaitContext(context.Background()); err != nil {
			t.Fatalf("WaitContext = %v, want nil", err)
		}
	})
}

// =============================================================================
// Accessors
// =============================================================================

func TestSelectionMechanismNames(t *testing.T) {
	wrapped := newSelection(nil, "a@R", NameTypeKRB5Principal, "s/h@R", NameTypeKRB5PrincipalReferral, MechKerberos, true)
	if got := wrapped.Mechanism(); got != MechNameSPNEGO {
		t.Errorf("Mechanism = %q, want %q", got, MechNameSPNEGO)
	}
	if got := wrapped.InnerMechanism(); got != "Kerberos" {
		t.Errorf("InnerMechanism = %q, want Kerberos", got)
	}

	bare := newSelection(nil, "a@R", NameTypeKRB5Principal, "s/h@R", NameTypeKRB5PrincipalReferral, MechNTLM, false)
	if got := bare.Mechanism(); got != "NTLM" {
		t.Errorf("Mechanism = %q, want NTLM", got)
	}
}

func TestSelectionAuthInfo(t *testing.T) {
	t.Run("ResolvedSelection", func(t *testing.T) {
		s := newSelection(nil, "alice@CORP", NameTypeKRB5Principal, "cifs/host@CORP", NameTypeKRB5PrincipalReferral, MechKerberos, true)

		info, ok := s.AuthInfo()
		if !ok {
			t.Fatal("AuthInfo should succeed on a resolved selection")
		}
		if info.Mechanism != MechNameSPNEGO || info.InnerMechanism != "Kerberos" {
			t.Errorf("mechanisms = %q/%q", info.Mechanism, info.InnerMechanism)
		}
		if info.ClientNameGSSD != GSSDKRB5Principal {
			t.Errorf("ClientNameGSSD = %d, want %d", info.ClientNameGSSD, GSSDKRB5Principal)
		}
		if info.ServerNameGSSD != GSSDKRB5Referral {
			t.Errorf("ServerNameGSSD = %d, want %d", info.ServerNameGSSD, GSSDKRB5Referral)
		}
	})

	t.Run("CanceledSelection", func(t *testing.T) {
		s := newSelection(nil, "alice", NameTypeKRB5Principal, "", NameTypeKRB5PrincipalReferral, MechKerberos, false)
		s.cancel()
		if _, ok := s.AuthInfo(); ok {
			t.Error("AuthInfo should fail on a canceled selection")
		}
	})

	t.Run("NTLMNameTypes", func(t *testing.T) {
		s := newSelection(nil, "bob", NameTypeUsername, "cifs@host", NameTypeServiceBased, MechNTLM, false)
		info, ok := s.AuthInfo()
		if !ok {
			t.Fatal("AuthInfo failed")
		}
		if info.ClientNameGSSD != GSSDNTLMPrincipal {
			t.Errorf("ClientNameGSSD = %d, want %d", info.ClientNameGSSD, GSSDNTLMPrincipal)
		}
		if info.ServerNameGSSD != GSSDHostBased {
			t.Errorf("ServerNameGSSD = %d, want %d", info.ServerNameGSSD, GSSDHostBased)
		}
	})
}
