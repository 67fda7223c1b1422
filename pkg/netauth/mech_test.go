package netauth

import "testing"

func TestParseMech(t *testing.T) {
	tests := []struct {
		name string
		want Mech
	}{
		{"Kerberos", MechKerberos},
		{"kerberos", MechKerberos},
		{"IAKERB", MechIAKerb},
		{"pku2u", MechPKU2U},
		{"NTLM", MechNTLM},
		{"KerberosUser2User", MechKerberosU2U},
		{"SPNEGO", MechNone},
		{"", MechNone},
	}
	for _, tt := range tests {
		if got := ParseMech(tt.name); got != tt.want {
			t.Errorf("ParseMech(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMechString(t *testing.T) {
	if got := MechIAKerb.String(); got != "IAKerb" {
		t.Errorf("MechIAKerb.String() = %q", got)
	}
	if got := MechNone.String(); got != "" {
		t.Errorf("MechNone.String() = %q, want empty", got)
	}
}

func TestMechFamily(t *testing.T) {
	for mech, want := range map[Mech]string{
		MechKerberos:    "krb5",
		MechKerberosU2U: "krb5",
		MechIAKerb:      "krb5",
		MechPKU2U:       "krb5",
		MechNTLM:        "ntlm",
		MechNone:        "",
	} {
		if got := mech.family(); got != want {
			t.Errorf("%v.family() = %q, want %q", mech, got, want)
		}
	}
}

func TestIsLKDCRealm(t *testing.T) {
	tests := []struct {
		realm string
		want  bool
	}{
		{"LKDC:SHA1.ABCDEF", true},
		{WellKnownLKDCRealm, true},
		{"CORP.EXAMPLE.COM", false},
		{"", false},
		{"lkdc:sha1.abc", false},
	}
	for _, tt := range tests {
		if got := IsLKDCRealm(tt.realm); got != tt.want {
			t.Errorf("IsLKDCRealm(%q) = %v, want %v", tt.realm, got, tt.want)
		}
	}
}

func TestIsLKDCPrincipal(t *testing.T) {
	if !IsLKDCPrincipal("alice@LKDC:SHA1.ABCDEF") {
		t.Error("LKDC principal not recognized")
	}
	if IsLKDCPrincipal("alice@CORP.EXAMPLE.COM") {
		t.Error("classic principal flagged as LKDC")
	}
	if IsLKDCPrincipal("alice") {
		t.Error("realm-less name flagged as LKDC")
	}
}

func TestPrincipalRealm(t *testing.T) {
	tests := []struct {
		principal string
		want      string
	}{
		{"alice@CORP.EXAMPLE.COM", "CORP.EXAMPLE.COM"},
		{"user@domain@REALM", "REALM"},
		{"alice", ""},
		{"afpserver/host@LKDC:SHA1.X", "LKDC:SHA1.X"},
	}
	for _, tt := range tests {
		if got := principalRealm(tt.principal); got != tt.want {
			t.Errorf("principalRealm(%q) = %q, want %q", tt.principal, got, tt.want)
		}
	}
}
