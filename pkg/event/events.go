// Package event defines the lifecycle events emitted for managed secret
// leases and the listener fan-out used to deliver them. Events are
// immutable values; each carries the originating registration, the lease
// involved (possibly the zero lease) and, for created/rotated events,
// the secret payload.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

// Meta carries the fields common to every lifecycle event.
type Meta struct {
	// ID uniquely identifies the event instance.
	ID string
	// Secret is the registration the event originates from.
	Secret lease.RequestedSecret
	// Lease is the lease involved, possibly the zero lease.
	Lease lease.Lease
	// OccurredAt is when the event was created.
	OccurredAt time.Time
}

// EventMeta returns the common event fields.
func (m Meta) EventMeta() Meta {
	return m
}

func newMeta(secret lease.RequestedSecret, l lease.Lease) Meta {
	return Meta{
		ID:         uuid.NewString(),
		Secret:     secret,
		Lease:      l,
		OccurredAt: time.Now().UTC(),
	}
}

// Event is implemented by every lifecycle event.
type Event interface {
	EventMeta() Meta
}

// SecretLeaseCreated signals that a secret was obtained together with
// its initial lease.
type SecretLeaseCreated struct {
	Meta
	// Data is the secret payload.
	Data map[string]any
}

// SecretLeaseRotated signals that a rotating secret was re-fetched and
// its value changed.
type SecretLeaseRotated struct {
	Meta
	// Data is the new secret payload.
	Data map[string]any
}

// SecretLeaseExpired signals that a lease ran out or could not be kept
// alive; the secret is no longer scheduled.
type SecretLeaseExpired struct {
	Meta
}

// SecretLeaseError signals a failed renewal, rotation or fetch.
type SecretLeaseError struct {
	Meta
	// Err is the triggering failure.
	Err error
}

// SecretNotFound signals that the requested path does not exist at the
// server; the secret is not scheduled.
type SecretNotFound struct {
	Meta
}

// BeforeSecretLeaseRevocation signals that the container is about to
// revoke the lease during shutdown.
type BeforeSecretLeaseRevocation struct {
	Meta
}

// AfterSecretLeaseRevocation signals that the revocation attempt
// finished. It is emitted regardless of revocation success.
type AfterSecretLeaseRevocation struct {
	Meta
}

// NewCreated builds a SecretLeaseCreated event.
func NewCreated(secret lease.RequestedSecret, l lease.Lease, data map[string]any) SecretLeaseCreated {
	return SecretLeaseCreated{Meta: newMeta(secret, l), Data: data}
}

// NewRotated builds a SecretLeaseRotated event.
func NewRotated(secret lease.RequestedSecret, l lease.Lease, data map[string]any) SecretLeaseRotated {
	return SecretLeaseRotated{Meta: newMeta(secret, l), Data: data}
}

// NewExpired builds a SecretLeaseExpired event.
func NewExpired(secret lease.RequestedSecret, l lease.Lease) SecretLeaseExpired {
	return SecretLeaseExpired{Meta: newMeta(secret, l)}
}

// NewError builds a SecretLeaseError event.
func NewError(secret lease.RequestedSecret, l lease.Lease, err error) SecretLeaseError {
	return SecretLeaseError{Meta: newMeta(secret, l), Err: err}
}

// NewNotFound builds a SecretNotFound event.
func NewNotFound(secret lease.RequestedSecret) SecretNotFound {
	return SecretNotFound{Meta: newMeta(secret, lease.None())}
}

// NewBeforeRevocation builds a BeforeSecretLeaseRevocation event.
func NewBeforeRevocation(secret lease.RequestedSecret, l lease.Lease) BeforeSecretLeaseRevocation {
	return BeforeSecretLeaseRevocation{Meta: newMeta(secret, l)}
}

// NewAfterRevocation builds an AfterSecretLeaseRevocation event.
func NewAfterRevocation(secret lease.RequestedSecret, l lease.Lease) AfterSecretLeaseRevocation {
	return AfterSecretLeaseRevocation{Meta: newMeta(secret, l)}
}
