// Package secrets defines the boundary to the secrets server: the read
// primitive used to fetch secrets and the session-scoped renew/revoke
// primitives used to manage their leases. The container depends only on
// these interfaces; VaultClient is the bundled implementation.
package secrets

import (
	"context"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

// Response is the result of reading a secret: the payload and the lease
// the server attached to it, which may be the zero lease.
type Response struct {
	Data  map[string]any
	Lease lease.Lease
}

// Client reads secrets from the server.
type Client interface {
	// Read fetches the secret at path. It fails with ErrNotFound when
	// the path does not exist and ErrTransport on network or server
	// failure.
	Read(ctx context.Context, path string) (*Response, error)
}

// Session exposes the privileged lease primitives. Sessions are only
// valid inside the WithSession callback that produced them.
type Session interface {
	// Renew extends the lease and returns the refreshed grant.
	Renew(ctx context.Context, l lease.Lease) (lease.Lease, error)

	// Revoke terminates the lease at the server.
	Revoke(ctx context.Context, l lease.Lease) error
}

// SessionClient is a Client that can execute work within a privileged
// session. WithSession fails with ErrUnauthorized when the session
// cannot be established and ErrTransport on network failure.
type SessionClient interface {
	Client

	WithSession(ctx context.Context, fn func(Session) error) error
}

// UnauthenticatedReader is implemented by clients that can re-fetch a
// secret outside the privileged session, for rotating secrets that must
// stay readable across re-authentication.
type UnauthenticatedReader interface {
	ReadUnauthenticated(ctx context.Context, path string) (*Response, error)
}

// Pinger is implemented by clients that can verify server reachability
// for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
