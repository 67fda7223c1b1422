package netauth

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the acquisition engine. Mechanism-specific
// failures are wrapped in *MechError instead.
var (
	// ErrNoCredentialMaterial means the selection has neither a password
	// nor a certificate to acquire a credential with.
	ErrNoCredentialMaterial = errors.New("netauth: no password or certificate available")

	// ErrCanceled means the selection was canceled before or during
	// resolution or acquisition.
	ErrCanceled = errors.New("netauth: selection canceled")

	// ErrUnsupportedMechanism means the selection's mechanism has no
	// acquisition path.
	ErrUnsupportedMechanism = errors.New("netauth: unsupported mechanism")

	// ErrNoEngine means no engine was configured for the selection's
	// mechanism.
	ErrNoEngine = errors.New("netauth: no engine configured for mechanism")

	// ErrNameParse means a principal string could not be parsed.
	ErrNameParse = errors.New("netauth: malformed principal name")
)

// MechError wraps a failure reported by an underlying mechanism engine,
// carrying the mechanism-specific error code and message.
type MechError struct {
	Mech    Mech
	Code    int
	Message string
	Err     error
}

func (e *MechError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("netauth: %s failed: %d - %s", e.Mech, e.Code, e.Message)
	}
	return fmt.Sprintf("netauth: %s failed: %s", e.Mech, e.Message)
}

func (e *MechError) Unwrap() error { return e.Err }
