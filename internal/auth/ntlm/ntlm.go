// Package ntlm implements client-side NTLM credential derivation.
//
// NTLM (NT LAN Manager) is a challenge-response authentication protocol
// defined in [MS-NLMP]. This package derives the one-way functions a
// client needs before the handshake starts:
//   - NTOWFv1: MD4 over the UTF-16LE password
//   - NTOWFv2: HMAC-MD5 keyed by NTOWFv1 over the uppercased username
//     and the domain
//
// The challenge/response exchange itself runs inside the application
// protocol (SMB session setup); the Engine here only turns a typed
// password into the session key material that exchange consumes.
package ntlm

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // HMAC-MD5 is required by [MS-NLMP] NTLMv2
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/md4" //nolint:staticcheck // MD4 is required for NTLM protocol compatibility

	"github.com/marmos91/netauth/pkg/netauth"
)

// =============================================================================
// One-way functions
// =============================================================================

// EncodeUTF16LE converts a string to UTF-16LE bytes as [MS-NLMP]
// requires for all hashed strings.
func EncodeUTF16LE(s string) []byte {
	encoded := utf16.Encode([]rune(s))
	out := make([]byte, len(encoded)*2)
	for i, r := range encoded {
		binary.LittleEndian.PutUint16(out[i*2:], r)
	}
	return out
}

// NTOWFv1 computes the NTLMv1 one-way function of a password.
// [MS-NLMP] Section 3.3.1: MD4(UNICODE(Passwd))
func NTOWFv1(password string) []byte {
	h := md4.New() //nolint:staticcheck // MD4 is required for NTLM protocol compatibility
	h.Write(EncodeUTF16LE(password))
	return h.Sum(nil)
}

// NTOWFv2 computes the NTLMv2 one-way function.
// [MS-NLMP] Section 3.3.2:
// HMAC_MD5(NTOWFv1(Passwd), UNICODE(Uppercase(User) + UserDom))
//
// The username is uppercased; the domain is used as given, case
// preserved.
func NTOWFv2(password, user, domain string) []byte {
	mac := hmac.New(md5.New, NTOWFv1(password))
	mac.Write(EncodeUTF16LE(strings.ToUpper(user) + domain))
	return mac.Sum(nil)
}

// =============================================================================
// Engine
// =============================================================================

// Engine derives NTLM session credentials from typed passwords. It
// implements netauth.NTLMEngine and is stateless.
type Engine struct{}

// NewEngine returns an NTLM derivation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// AcquireCredential derives the NTLMv2 key for (username, domain,
// password). The returned session key is the NTOWFv2 output the
// handshake later uses as its response key.
func (e *Engine) AcquireCredential(_ context.Context, username, domain, password string) (*netauth.NTLMCredentialMaterial, error) {
	if username == "" {
		return nil, &netauth.MechError{
			Mech:    netauth.MechNTLM,
			Message: "username is required",
		}
	}
	if password == "" {
		return nil, netauth.ErrNoCredentialMaterial
	}

	return &netauth.NTLMCredentialMaterial{
		SessionKey: NTOWFv2(password, username, domain),
	}, nil
}
