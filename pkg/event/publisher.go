package event

import (
	"sync"

	"github.com/leasekeeper/leasekeeper/pkg/observability/logger"
)

// Listener receives every lifecycle event.
type Listener interface {
	OnLeaseEvent(e Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(e Event)

// OnLeaseEvent implements the Listener interface.
func (f ListenerFunc) OnLeaseEvent(e Event) {
	f(e)
}

// ErrorListener receives failures in addition to the SecretLeaseError
// events delivered to regular listeners.
type ErrorListener interface {
	OnLeaseError(e Event, err error)
}

// ErrorListenerFunc adapts a function to the ErrorListener interface.
type ErrorListenerFunc func(e Event, err error)

// OnLeaseError implements the ErrorListener interface.
func (f ErrorListenerFunc) OnLeaseError(e Event, err error) {
	f(e, err)
}

// Publisher fans lifecycle events out to registered listeners. The
// listener set is append-only and iterated over a snapshot, so listeners
// may register during dispatch without blocking or missing their own
// registration guarantees. Dispatch is synchronous: events for one
// secret are delivered in the order their causing operations complete.
type Publisher struct {
	log logger.Logger

	mu             sync.RWMutex
	listeners      []Listener
	errorListeners []ErrorListener
}

// NewPublisher creates an empty publisher.
func NewPublisher(log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log.With("component", "lease-events")}
}

// AddListener registers a listener for all lifecycle events.
func (p *Publisher) AddListener(l Listener) {
	if l == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// AddErrorListener registers a listener for failures.
func (p *Publisher) AddErrorListener(l ErrorListener) {
	if l == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorListeners = append(p.errorListeners, l)
}

// Publish delivers the event to all registered listeners.
func (p *Publisher) Publish(e Event) {
	for _, l := range p.snapshotListeners() {
		l.OnLeaseEvent(e)
	}
}

// PublishError wraps the failure as a SecretLeaseError event for regular
// listeners and additionally delivers it to error listeners.
func (p *Publisher) PublishError(e SecretLeaseError) {
	meta := e.EventMeta()
	p.log.Debug("publishing lease error",
		"secret", meta.Secret.String(),
		"lease", meta.Lease.String(),
		"error", e.Err,
	)

	p.Publish(e)
	for _, l := range p.snapshotErrorListeners() {
		l.OnLeaseError(e, e.Err)
	}
}

func (p *Publisher) snapshotListeners() []Listener {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snapshot := make([]Listener, len(p.listeners))
	copy(snapshot, p.listeners)
	return snapshot
}

func (p *Publisher) snapshotErrorListeners() []ErrorListener {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snapshot := make([]ErrorListener, len(p.errorListeners))
	copy(snapshot, p.errorListeners)
	return snapshot
}
