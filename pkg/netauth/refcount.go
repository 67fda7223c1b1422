package netauth

import (
	"fmt"
	"strings"

	"github.com/marmos91/netauth/internal/logger"
)

// Credential reference counting.
//
// A reference key is a persistent, process-independent handle to a stored
// credential ("krb5:<principal>" or "ntlm:<name>"). Mounters hand the key
// to whoever outlives them (automounter, kernel client) so the credential
// stays pinned for the lifetime of the mount. Only credentials carrying
// the created-by marker are ever touched; everything else in the cache
// belongs to someone else.

// ReferenceKey returns the selection's persistent credential reference,
// or false when the selection carries no credential yet.
func (s *Selection) ReferenceKey() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveCred {
		return "", false
	}
	return s.mech.family() + ":" + s.client, true
}

// AddCredentialReference pins the credential named by key.
func AddCredentialReference(store CredentialStore, key string) error {
	return credChange(store, key, +1, "")
}

// RemoveCredentialReference releases one pin on the credential named by
// key.
func RemoveCredentialReference(store CredentialStore, key string) error {
	return credChange(store, key, -1, "")
}

// AddReferenceAndLabel pins the selection's credential and tags it with
// identifier so a later FindByLabelAndRelease can find it without the
// selection.
func (s *Selection) AddReferenceAndLabel(identifier string) error {
	if !s.Wait() {
		return ErrCanceled
	}
	key, ok := s.ReferenceKey()
	if !ok {
		return ErrNoCredentialMaterial
	}
	return credChange(s.na.store, key, +1, identifier)
}

// FindByLabelAndRelease releases every credential tagged with identifier,
// removing the tag. It reports whether any credential matched.
func FindByLabelAndRelease(store CredentialStore, identifier string) bool {
	if store == nil || identifier == "" {
		return false
	}

	found := false
	release := func(cred Credential) {
		if _, ok := cred.Label(identifier); !ok {
			return
		}
		if _, ok := cred.Label(labelCreated); !ok {
			return
		}
		cred.RemoveLabel(identifier)
		cred.Unhold()
		found = true
	}

	store.Iterate(func(cred Credential) bool {
		release(cred)
		return true
	})
	store.IterateNTLM(func(_ string, cred Credential) bool {
		release(cred)
		return true
	})
	return found
}

// credChange applies one pin change to the credential named by key,
// optionally tagging it with label. Credentials without the created-by
// marker are left untouched.
func credChange(store CredentialStore, key string, delta int, label string) error {
	if store == nil {
		return fmt.Errorf("netauth: no credential store")
	}

	var mech Mech
	var principal string
	switch {
	case strings.HasPrefix(key, "krb5:"):
		mech = MechKerberos
		principal = strings.TrimPrefix(key, "krb5:")
	case strings.HasPrefix(key, "ntlm:"):
		mech = MechNTLM
		principal = strings.TrimPrefix(key, "ntlm:")
	default:
		return fmt.Errorf("netauth: malformed credential reference %q", key)
	}

	cred, ok := store.Find(mech, principal)
	if !ok {
		return fmt.Errorf("netauth: no credential for reference %q", key)
	}
	if _, ok := cred.Label(labelCreated); !ok {
		logger.Debug("skipping reference change on foreign credential",
			logger.KeyClient, principal)
		return nil
	}

	if delta > 0 {
		cred.Hold()
		if label != "" {
			cred.SetLabel(label, "1")
		}
	} else if delta < 0 {
		cred.Unhold()
	}
	return nil
}
