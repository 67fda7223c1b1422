package netauth

import (
	"context"

	"github.com/marmos91/netauth/internal/logger"
)

// dispatchResolve starts the background discovery lookup that completes a
// Pending selection. The lookup is tracked on the context's task group so
// AuthContext.Wait can drain it.
func (na *AuthContext) dispatchResolve(sel *Selection) {
	na.tasks.Add(1)
	go func() {
		defer na.tasks.Done()
		na.resolveLKDC(sel)
	}()
}

// resolveLKDC asks the discoverer for the host's discovery realm and, on
// success, completes the selection with realm-qualified client and server
// names. A failed lookup leaves the selection Pending on purpose: only
// cancellation releases its waiters, and per-call deadlines belong to
// WaitContext.
func (na *AuthContext) resolveLKDC(sel *Selection) {
	realm, err := na.discovery.DiscoverRealm(context.Background(), na.hostname)
	if err != nil {
		na.metrics.discoveryLookup(false)
		logger.Debug("discovery realm lookup failed, selection stays pending",
			logger.KeyHost, na.hostname,
			"error", err)
		return
	}
	na.metrics.discoveryLookup(true)

	sel.mu.Lock()
	client := sel.client + "@" + realm
	sel.mu.Unlock()
	server := na.service + "/" + realm + "@" + realm

	logger.Debug("discovery realm lookup completed",
		logger.KeyHost, na.hostname,
		"realm", realm,
		logger.KeyClient, client,
		logger.KeyServer, server)

	sel.resolve(server, client)
}
