// Package lease defines the value types of the secret lease lifecycle:
// the server-issued lease grant, the declarative secret registration, the
// renewal timing policy and the post-failure strategy.
package lease

import (
	"fmt"
	"time"
)

// Lease is the grant metadata a secrets server attaches to a secret:
// an identifier, a validity duration and whether the server allows the
// grant to be extended. The zero value denotes "no lease", issued for
// secrets the server does not lease at all. Leases are immutable; a
// renewal or rotation installs a fresh value in place of the old one.
type Lease struct {
	ID        string
	Duration  time.Duration
	Renewable bool
}

// None returns the distinguished empty lease.
func None() Lease {
	return Lease{}
}

// IsZero reports whether the lease denotes "no lease". Zero leases are
// never scheduled for renewal and never revoked.
func (l Lease) IsZero() bool {
	return l.ID == "" && l.Duration == 0
}

// Revocable reports whether the lease can be revoked at the server.
// Some servers issue a zero-TTL, non-renewable, but revocable lease, so
// this is driven by the identifier alone.
func (l Lease) Revocable() bool {
	return l.ID != ""
}

// KeepAlive reports whether the lease qualifies for renewal scheduling:
// the server must allow renewal and the duration must be non-zero.
func (l Lease) KeepAlive() bool {
	return l.Renewable && l.Duration > 0
}

// String renders the lease for logs without exposing secret material.
func (l Lease) String() string {
	if l.IsZero() {
		return "lease(none)"
	}
	return fmt.Sprintf("lease(id=%s, duration=%s, renewable=%t)", l.ID, l.Duration, l.Renewable)
}
