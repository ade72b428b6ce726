package lease

import "fmt"

// Mode selects how a registered secret is kept alive.
type Mode int

const (
	// ModeOnce fetches the secret a single time and never schedules it.
	ModeOnce Mode = iota
	// ModeRenew keeps the server-issued lease alive by renewing it
	// before expiry.
	ModeRenew
	// ModeRotate periodically re-fetches the secret to obtain a fresh
	// value, for secrets whose lease cannot be renewed.
	ModeRotate
	// ModeRotateUnauthenticated re-fetches like ModeRotate but outside
	// the privileged session.
	ModeRotateUnauthenticated
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOnce:
		return "once"
	case ModeRenew:
		return "renew"
	case ModeRotate:
		return "rotate"
	case ModeRotateUnauthenticated:
		return "rotate-unauthenticated"
	default:
		return "unknown"
	}
}

// Rotating reports whether the mode re-fetches the secret instead of
// renewing a server-side lease.
func (m Mode) Rotating() bool {
	return m == ModeRotate || m == ModeRotateUnauthenticated
}

// RequestedSecret declares a secret the container should manage: a path
// at the secrets server and the mode used to keep it alive. Equality is
// by (path, mode), which makes the type usable as a map key identifying
// one scheduler. Immutable once registered.
type RequestedSecret struct {
	Path string
	Mode Mode
}

// Once requests a one-shot fetch of the secret at path.
func Once(path string) RequestedSecret {
	return RequestedSecret{Path: path, Mode: ModeOnce}
}

// Renewable requests a secret whose lease is renewed before expiry.
func Renewable(path string) RequestedSecret {
	return RequestedSecret{Path: path, Mode: ModeRenew}
}

// Rotating requests a secret that is periodically re-fetched.
func Rotating(path string) RequestedSecret {
	return RequestedSecret{Path: path, Mode: ModeRotate}
}

// RotatingUnauthenticated requests a secret that is periodically
// re-fetched outside the privileged session.
func RotatingUnauthenticated(path string) RequestedSecret {
	return RequestedSecret{Path: path, Mode: ModeRotateUnauthenticated}
}

// String returns "path (mode)" for logs and error messages.
func (s RequestedSecret) String() string {
	return fmt.Sprintf("%s (%s)", s.Path, s.Mode)
}
