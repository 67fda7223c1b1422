package netauth

import "testing"

func TestMemoryStoreCreateLocates(t *testing.T) {
	store := NewMemoryCredentialStore()

	first, err := store.Create(MechKerberos, "alice@CORP")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := store.Create(MechKerberos, "alice@CORP")
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if first != second {
		t.Error("Create minted a second credential for the same principal")
	}

	// Kerberos variants share one cache.
	iakerb, _ := store.Create(MechIAKerb, "alice@CORP")
	if iakerb != first {
		t.Error("kerberos-family mechanisms do not share credentials")
	}

	// NTLM does not.
	ntlm, _ := store.Create(MechNTLM, "alice@CORP")
	if ntlm == first {
		t.Error("ntlm credential collided with the kerberos one")
	}
}

func TestMemoryStoreFind(t *testing.T) {
	store := NewMemoryCredentialStore()
	store.AddKerberosCredential("alice@CORP", nil)

	cred, ok := store.Find(MechKerberos, "alice@CORP")
	if !ok {
		t.Fatal("Find missed a stored credential")
	}
	if got := cred.Principal(); got != "alice@CORP" {
		t.Errorf("Principal = %q", got)
	}
	if _, ok := store.Find(MechKerberos, "ghost@CORP"); ok {
		t.Error("Find matched a missing principal")
	}
	if _, ok := store.Find(MechNTLM, "alice@CORP"); ok {
		t.Error("Find crossed credential families")
	}
}

func TestMemoryStoreIterationOrder(t *testing.T) {
	store := NewMemoryCredentialStore()
	store.AddKerberosCredential("a@CORP", nil)
	store.AddNTLMCredential("n@CORP", nil)
	store.AddKerberosCredential("b@CORP", nil)

	var krb []string
	store.Iterate(func(cred Credential) bool {
		krb = append(krb, cred.Principal())
		return true
	})
	if len(krb) != 2 || krb[0] != "a@CORP" || krb[1] != "b@CORP" {
		t.Errorf("kerberos iteration = %v", krb)
	}

	var ntlm []string
	store.IterateNTLM(func(display string, _ Credential) bool {
		ntlm = append(ntlm, display)
		return true
	})
	if len(ntlm) != 1 || ntlm[0] != "n@CORP" {
		t.Errorf("ntlm iteration = %v", ntlm)
	}
}

func TestMemoryStoreIterationStops(t *testing.T) {
	store := NewMemoryCredentialStore()
	store.AddKerberosCredential("a@CORP", nil)
	store.AddKerberosCredential("b@CORP", nil)

	seen := 0
	store.Iterate(func(Credential) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("iteration visited %d credentials after stop, want 1", seen)
	}
}

func TestMemoryCredentialLabels(t *testing.T) {
	store := NewMemoryCredentialStore()
	cred := store.AddKerberosCredential("alice@CORP", map[string]string{LabelFriendlyName: "Alice"})

	if v, ok := cred.Label(LabelFriendlyName); !ok || v != "Alice" {
		t.Errorf("label = %q, %v", v, ok)
	}

	cred.SetLabel(LabelLKDCHostname, "myserver.local")
	if v, _ := cred.Label(LabelLKDCHostname); v != "myserver.local" {
		t.Errorf("label after set = %q", v)
	}

	cred.RemoveLabel(LabelLKDCHostname)
	if _, ok := cred.Label(LabelLKDCHostname); ok {
		t.Error("label survived removal")
	}
}

func TestMemoryCredentialHolds(t *testing.T) {
	store := NewMemoryCredentialStore()
	cred := store.AddKerberosCredential("alice@CORP", nil)

	cred.Hold()
	cred.Hold()
	if holds := store.HoldCount(MechKerberos, "alice@CORP"); holds != 2 {
		t.Fatalf("holds = %d, want 2", holds)
	}

	cred.Unhold()
	cred.Unhold()
	cred.Unhold() // floors at zero
	if holds := store.HoldCount(MechKerberos, "alice@CORP"); holds != 0 {
		t.Fatalf("holds = %d, want 0", holds)
	}

	if holds := store.HoldCount(MechKerberos, "ghost@CORP"); holds != -1 {
		t.Errorf("HoldCount for missing credential = %d, want -1", holds)
	}
}
