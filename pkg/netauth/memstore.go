package netauth

import (
	"sync"
)

// MemoryCredentialStore is an in-process CredentialStore. It backs the
// CLI and the tests; production callers wrap their platform cache
// instead.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds map[string]*memoryCredential // keyed by family + "\x00" + principal
	order []*memoryCredential
}

// NewMemoryCredentialStore returns an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]*memoryCredential)}
}

func storeKey(mech Mech, principal string) string {
	return mech.family() + "\x00" + principal
}

// Iterate calls fn for every Kerberos-family credential in insertion
// order until fn returns false.
func (st *MemoryCredentialStore) Iterate(fn func(Credential) bool) {
	for _, c := range st.snapshot() {
		if c.family != "krb5" {
			continue
		}
		if !fn(c) {
			return
		}
	}
}

// IterateNTLM calls fn for every NTLM credential with its display name
// until fn returns false.
func (st *MemoryCredentialStore) IterateNTLM(fn func(string, Credential) bool) {
	for _, c := range st.snapshot() {
		if c.family != "ntlm" {
			continue
		}
		if !fn(c.principal, c) {
			return
		}
	}
}

// Find returns the credential for (mech, principal), if present.
func (st *MemoryCredentialStore) Find(mech Mech, principal string) (Credential, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.creds[storeKey(mech, principal)]
	return c, ok
}

// Create locates or creates the credential for (mech, principal).
func (st *MemoryCredentialStore) Create(mech Mech, principal string) (Credential, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := storeKey(mech, principal)
	if c, ok := st.creds[key]; ok {
		return c, nil
	}
	c := &memoryCredential{
		family:    mech.family(),
		principal: principal,
		labels:    make(map[string]string),
	}
	st.creds[key] = c
	st.order = append(st.order, c)
	return c, nil
}

// AddKerberosCredential seeds a Kerberos credential with labels. Intended
// for tests and the CLI.
func (st *MemoryCredentialStore) AddKerberosCredential(principal string, labels map[string]string) Credential {
	c, _ := st.Create(MechKerberos, principal)
	for k, v := range labels {
		c.SetLabel(k, v)
	}
	return c
}

// AddNTLMCredential seeds an NTLM credential with labels.
func (st *MemoryCredentialStore) AddNTLMCredential(displayName string, labels map[string]string) Credential {
	c, _ := st.Create(MechNTLM, displayName)
	for k, v := range labels {
		c.SetLabel(k, v)
	}
	return c
}

// HoldCount returns the pin count of (mech, principal), or -1 when
// absent. Test helper.
func (st *MemoryCredentialStore) HoldCount(mech Mech, principal string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.creds[storeKey(mech, principal)]
	if !ok {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holds
}

func (st *MemoryCredentialStore) snapshot() []*memoryCredential {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*memoryCredential, len(st.order))
	copy(out, st.order)
	return out
}

type memoryCredential struct {
	mu        sync.Mutex
	family    string
	principal string
	labels    map[string]string
	holds     int
}

func (c *memoryCredential) Principal() string {
	return c.principal
}

func (c *memoryCredential) Label(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.labels[name]
	return v, ok
}

func (c *memoryCredential) SetLabel(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels[name] = value
}

func (c *memoryCredential) RemoveLabel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.labels, name)
}

func (c *memoryCredential) Hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holds++
}

func (c *memoryCredential) Unhold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holds > 0 {
		c.holds--
	}
}
