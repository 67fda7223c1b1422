package ntlm

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/marmos91/netauth/pkg/netauth"
)

// Test vectors from [MS-NLMP] Section 4.2: User "User", Domain "Domain",
// Password "Password".

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex constant %q: %v", s, err)
	}
	return b
}

func TestNTOWFv1(t *testing.T) {
	got := NTOWFv1("Password")
	want := mustHex(t, "a4f49c406510bdcab6824ee7c30fd852")
	if !bytes.Equal(got, want) {
		t.Errorf("NTOWFv1 = %x, want %x", got, want)
	}
}

func TestNTOWFv2(t *testing.T) {
	t.Run("ReferenceVector", func(t *testing.T) {
		got := NTOWFv2("Password", "User", "Domain")
		want := mustHex(t, "0c868a403bfd7a93a3001ef22ef02e3f")
		if !bytes.Equal(got, want) {
			t.Errorf("NTOWFv2 = %x, want %x", got, want)
		}
	})

	t.Run("UsernameCaseInsensitive", func(t *testing.T) {
		a := NTOWFv2("Password", "user", "Domain")
		b := NTOWFv2("Password", "USER", "Domain")
		if !bytes.Equal(a, b) {
			t.Error("NTOWFv2 should uppercase the username before hashing")
		}
	})

	t.Run("DomainCaseSensitive", func(t *testing.T) {
		a := NTOWFv2("Password", "User", "Domain")
		b := NTOWFv2("Password", "User", "DOMAIN")
		if bytes.Equal(a, b) {
			t.Error("NTOWFv2 must preserve domain case")
		}
	})
}

func TestEncodeUTF16LE(t *testing.T) {
	got := EncodeUTF16LE("AB")
	want := []byte{0x41, 0x00, 0x42, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeUTF16LE(\"AB\") = %x, want %x", got, want)
	}
}

func TestEngineAcquireCredential(t *testing.T) {
	e := NewEngine()

	t.Run("DerivesSessionKey", func(t *testing.T) {
		mat, err := e.AcquireCredential(context.Background(), "User", "Domain", "Password")
		if err != nil {
			t.Fatalf("AcquireCredential failed: %v", err)
		}
		want := mustHex(t, "0c868a403bfd7a93a3001ef22ef02e3f")
		if !bytes.Equal(mat.SessionKey, want) {
			t.Errorf("session key = %x, want %x", mat.SessionKey, want)
		}
	})

	t.Run("RejectsEmptyUsername", func(t *testing.T) {
		_, err := e.AcquireCredential(context.Background(), "", "Domain", "Password")
		var mechErr *netauth.MechError
		if !errors.As(err, &mechErr) {
			t.Fatalf("expected *netauth.MechError, got %v", err)
		}
		if mechErr.Mech != netauth.MechNTLM {
			t.Errorf("error mechanism = %v, want NTLM", mechErr.Mech)
		}
	})

	t.Run("RejectsEmptyPassword", func(t *testing.T) {
		_, err := e.AcquireCredential(context.Background(), "User", "Domain", "")
		if !errors.Is(err, netauth.ErrNoCredentialMaterial) {
			t.Fatalf("expected ErrNoCredentialMaterial, got %v", err)
		}
	})

	t.Run("EmptyDomainIsAllowed", func(t *testing.T) {
		mat, err := e.AcquireCredential(context.Background(), "User", "", "Password")
		if err != nil {
			t.Fatalf("AcquireCredential failed: %v", err)
		}
		if len(mat.SessionKey) != 16 {
			t.Errorf("session key length = %d, want 16", len(mat.SessionKey))
		}
	})
}
