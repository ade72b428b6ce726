package managed

import (
	"context"
	"errors"

	"github.com/leasekeeper/leasekeeper/pkg/event"
	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

// SecretsRegistry accepts secret registrations and event listeners. It
// is satisfied by container.Container.
type SecretsRegistry interface {
	AddRequestedSecret(ctx context.Context, secret lease.RequestedSecret) error
	AddListener(l event.Listener)
}

// Callback receives the secret payload on every created and rotated
// event for the bound secret.
type Callback func(accessor *Accessor)

// ManagedSecret binds one requested secret to a typed callback.
type ManagedSecret struct {
	secret lease.RequestedSecret
}

// Secret returns the bound registration.
func (m *ManagedSecret) Secret() lease.RequestedSecret {
	return m.secret
}

// Renewing registers a renewable secret at path and invokes callback
// with a fresh accessor whenever the secret is created or rotated.
func Renewing(ctx context.Context, registry SecretsRegistry, path string, callback Callback) (*ManagedSecret, error) {
	return bind(ctx, registry, lease.Renewable(path), callback)
}

// Rotating registers a rotating secret at path and invokes callback
// with a fresh accessor whenever the secret is created or rotated.
func Rotating(ctx context.Context, registry SecretsRegistry, path string, callback Callback) (*ManagedSecret, error) {
	return bind(ctx, registry, lease.Rotating(path), callback)
}

func bind(ctx context.Context, registry SecretsRegistry, secret lease.RequestedSecret, callback Callback) (*ManagedSecret, error) {
	if registry == nil {
		return nil, errors.New("secrets registry is required")
	}
	if callback == nil {
		return nil, errors.New("callback is required")
	}

	registry.AddListener(event.ListenerFunc(func(e event.Event) {
		if e.EventMeta().Secret != secret {
			return
		}
		switch evt := e.(type) {
		case event.SecretLeaseCreated:
			callback(NewAccessor(secret, evt.Data))
		case event.SecretLeaseRotated:
			callback(NewAccessor(secret, evt.Data))
		}
	}))

	if err := registry.AddRequestedSecret(ctx, secret); err != nil {
		return nil, err
	}
	return &ManagedSecret{secret: secret}, nil
}
