package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently so
// log lines stay queryable across the generator, the discovery workers,
// and the mechanism engines.
const (
	// ========================================================================
	// Target identification
	// ========================================================================
	KeyHost    = "host"    // Target hostname
	KeyService = "service" // Service identifier: afpserver, cifs, host, vnc
	KeyRealm   = "realm"   // Kerberos realm

	// ========================================================================
	// Identity
	// ========================================================================
	KeyClient   = "client"   // Client principal or account name
	KeyServer   = "server"   // Server principal
	KeyUsername = "username" // Raw username as typed
	KeyMech     = "mechanism"
	KeyLabel    = "label" // Credential friendly-name label

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code (KDC codes, etc.)
	KeyOperation  = "operation"   // Sub-operation type
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// Host returns a slog.Attr for the target hostname
func Host(name string) slog.Attr {
	return slog.String(KeyHost, name)
}

// Service returns a slog.Attr for the service identifier
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// Realm returns a slog.Attr for a Kerberos realm
func Realm(name string) slog.Attr {
	return slog.String(KeyRealm, name)
}

// Client returns a slog.Attr for a client principal
func Client(name string) slog.Attr {
	return slog.String(KeyClient, name)
}

// Server returns a slog.Attr for a server principal
func Server(name string) slog.Attr {
	return slog.String(KeyServer, name)
}

// Username returns a slog.Attr for the raw username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Mech returns a slog.Attr for a mechanism name
func Mech(name string) slog.Attr {
	return slog.String(KeyMech, name)
}

// Label returns a slog.Attr for a credential label
func Label(name string) slog.Attr {
	return slog.String(KeyLabel, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Operation returns a slog.Attr for a sub-operation type
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
