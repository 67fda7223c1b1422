package netauth

import "sync"

// Registry is the ordered collection of Selections generated for one
// authentication context. Enumeration order is insertion order, which
// follows the generator's priority rules; the registry never reorders.
//
// The registry exclusively owns its selections. It is append-only until
// Cancel, which is registry-wide and irreversible.
type Registry struct {
	mu         sync.Mutex
	selections []*Selection
}

// Selections returns the selections in insertion order. The returned
// slice is a copy; the selections themselves are shared handles.
func (r *Registry) Selections() []*Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Selection, len(r.selections))
	copy(out, r.selections)
	return out
}

// Len returns the number of selections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.selections)
}

// Cancel moves every selection to StateCanceled, releasing all current
// and future waiters with a canceled indication. Safe to call
// concurrently with resolution; in-flight acquisitions finish on their
// own terms and their results are discarded.
func (r *Registry) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.selections {
		s.cancel()
	}
}

// findDuplicate returns an existing selection matching the dedup key:
// equal mechanism, equal client name, equal server name when both sides
// have one, and equal server name type. Caller holds r.mu.
func (r *Registry) findDuplicate(client, server string, serverType NameType, mech Mech) *Selection {
	for _, s := range r.selections {
		s.mu.Lock()
		match := s.mech == mech &&
			s.client == client &&
			(s.server == "" || server == "" || s.server == server) &&
			s.serverType == serverType
		s.mu.Unlock()
		if match {
			return s
		}
	}
	return nil
}

// append adds a selection. Caller holds r.mu.
func (r *Registry) append(s *Selection) {
	r.selections = append(r.selections, s)
}
