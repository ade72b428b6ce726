// Package container implements the lease lifecycle orchestrator: it
// tracks registered secrets, fetches them, keeps renewable leases alive,
// re-fetches rotating secrets before their TTL runs out and revokes held
// leases on shutdown. Every lifecycle transition is published to the
// registered event listeners; per-secret failures never escape the
// container's lifecycle methods.
package container

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leasekeeper/leasekeeper/pkg/event"
	"github.com/leasekeeper/leasekeeper/pkg/lease"
	"github.com/leasekeeper/leasekeeper/pkg/observability/logger"
	"github.com/leasekeeper/leasekeeper/pkg/secrets"
)

const (
	statusSuccess  = "success"
	statusFailure  = "failure"
	statusNotFound = "not_found"
)

// Config controls container behavior.
type Config struct {
	// Timing computes renewal and rotation trigger delays.
	Timing lease.TimingPolicy
	// Strategy decides how failed renewals are handled. Defaults to
	// lease.DropOnError.
	Strategy lease.Strategy
	// Trigger schedules one-shot callbacks. Defaults to the
	// timer-backed scheduler; tests substitute a manual one.
	Trigger TriggerScheduler
}

func (c *Config) normalize() {
	if c.Strategy == nil {
		c.Strategy = lease.DropOnError
	}
	if c.Trigger == nil {
		c.Trigger = NewTimerScheduler()
	}
}

// Container orchestrates the lease lifecycle of registered secrets.
type Container struct {
	client   secrets.SessionClient
	policy   lease.TimingPolicy
	strategy lease.Strategy
	trigger  TriggerScheduler
	events   *event.Publisher
	log      logger.Logger

	running   atomic.Bool
	destroyed atomic.Bool

	mu         sync.Mutex
	runCtx     context.Context
	schedulers map[lease.RequestedSecret]*renewalScheduler
}

// New creates a container for the given secrets client.
func New(client secrets.SessionClient, log logger.Logger, cfg Config) (*Container, error) {
	if client == nil {
		return nil, errors.New("secrets client is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	cfg.normalize()

	return &Container{
		client:     client,
		policy:     cfg.Timing,
		strategy:   cfg.Strategy,
		trigger:    cfg.Trigger,
		events:     event.NewPublisher(log),
		log:        log.With("component", "lease-container"),
		runCtx:     context.Background(),
		schedulers: map[lease.RequestedSecret]*renewalScheduler{},
	}, nil
}

// AddListener registers a listener for all lifecycle events.
func (c *Container) AddListener(l event.Listener) {
	c.events.AddListener(l)
}

// AddErrorListener registers a listener for failures.
func (c *Container) AddErrorListener(l event.ErrorListener) {
	c.events.AddErrorListener(l)
}

// AddRequestedSecret registers a secret with the container. Before
// Start, registration is deferred until the start pass; afterwards the
// initial fetch runs immediately. Registering the same (path, mode)
// twice is a no-op.
func (c *Container) AddRequestedSecret(ctx context.Context, secret lease.RequestedSecret) error {
	if c.destroyed.Load() {
		return containerError(ErrDestroyed, secret.String())
	}

	c.mu.Lock()
	if _, exists := c.schedulers[secret]; exists {
		c.mu.Unlock()
		return nil
	}
	sched := newRenewalScheduler(secret)
	c.schedulers[secret] = sched
	c.mu.Unlock()

	c.log.Debug("registered secret", "secret", secret.String())

	if c.running.Load() {
		c.initialFetch(ctx, sched, false)
	}
	return nil
}

// Start fetches every registered secret and schedules renewal or
// rotation where the response allows it. A second call while running is
// a no-op; a call after Stop resumes scheduling from the current lease
// state without re-fetching.
func (c *Container) Start(ctx context.Context) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	c.log.Info("starting lease container", "secrets", len(c.snapshotSchedulers()))

	for _, sched := range c.snapshotSchedulers() {
		sched.mu.Lock()
		fetched := sched.fetched
		sched.mu.Unlock()

		if !fetched {
			c.initialFetch(ctx, sched, false)
			continue
		}
		c.resume(sched)
	}
	return nil
}

// Stop cancels all scheduled triggers without interrupting in-flight
// callbacks. Leases are neither revoked nor forgotten; Start resumes
// from the current state.
func (c *Container) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	c.log.Info("stopping lease container")
	for _, sched := range c.snapshotSchedulers() {
		sched.mu.Lock()
		sched.cancelTaskLocked()
		sched.mu.Unlock()
	}
}

// Destroy stops all scheduling and revokes every held revocable lease,
// best-effort: a revocation failure is logged and the after-revocation
// event is still emitted. The container cannot be used afterwards;
// calling Destroy again is a no-op.
func (c *Container) Destroy(ctx context.Context) error {
	if !c.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.running.Store(false)

	c.log.Info("destroying lease container")

	for _, sched := range c.snapshotSchedulers() {
		sched.mu.Lock()
		sched.stopped = true
		sched.cancelTaskLocked()
		held := sched.lease
		sched.mu.Unlock()

		if !held.Revocable() {
			continue
		}
		c.revoke(ctx, sched.secret, held)
	}
	return nil
}

func (c *Container) revoke(ctx context.Context, secret lease.RequestedSecret, held lease.Lease) {
	c.events.Publish(event.NewBeforeRevocation(secret, held))

	err := c.client.WithSession(ctx, func(session secrets.Session) error {
		return session.Revoke(ctx, held)
	})
	if err != nil {
		recordRevocation(statusFailure)
		c.log.Warn("lease revocation failed",
			"secret", secret.String(),
			"lease", held.String(),
			"error", err,
		)
	} else {
		recordRevocation(statusSuccess)
		c.log.Debug("lease revoked", "secret", secret.String(), "lease", held.String())
	}

	c.events.Publish(event.NewAfterRevocation(secret, held))
}

// Renew forces an immediate renewal for a renewable secret outside its
// schedule. The pending trigger is cancelled before the attempt and the
// attempt's result installs the single new trigger. It returns false
// when the container is not running, the secret is unknown or it holds
// no renewable lease; renewal failures are reported through events, not
// the error return.
func (c *Container) Renew(ctx context.Context, secret lease.RequestedSecret) (bool, error) {
	sched, err := c.lookup(secret, lease.ModeRenew)
	if err != nil || sched == nil {
		return false, err
	}
	if !c.running.Load() {
		return false, nil
	}

	sched.mu.Lock()
	if sched.stopped || !sched.lease.KeepAlive() {
		sched.mu.Unlock()
		return false, nil
	}
	sched.cancelTaskLocked()
	cur := sched.lease
	epoch := sched.epoch
	sched.mu.Unlock()

	c.renewAttempt(ctx, sched, cur, epoch)
	return true, nil
}

// Rotate forces an immediate re-fetch for a rotating secret. Same
// cancel-then-run-then-reschedule discipline as Renew, including the
// refusal while the container is not running.
func (c *Container) Rotate(ctx context.Context, secret lease.RequestedSecret) (bool, error) {
	sched, err := c.lookupRotating(secret)
	if err != nil || sched == nil {
		return false, err
	}
	if !c.running.Load() {
		return false, nil
	}

	sched.mu.Lock()
	if sched.stopped {
		sched.mu.Unlock()
		return false, nil
	}
	sched.cancelTaskLocked()
	cur := sched.lease
	snapshot := sched.data
	epoch := sched.epoch
	sched.mu.Unlock()

	c.rotateAttempt(ctx, sched, cur, snapshot, epoch)
	return true, nil
}

// RestartSecrets re-runs the initial fetch for every registered secret
// while leaving already-scheduled triggers live. Secrets that were
// dropped after a failed renewal or rotation are revived by the fresh
// fetch. When a restart fetch races an in-flight scheduled attempt for
// the same secret, whichever completes first installs its lease; the
// loser's result is discarded without disturbing the winner's state.
// On a container that is not running this is a no-op.
func (c *Container) RestartSecrets(ctx context.Context) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	if !c.running.Load() {
		return nil
	}
	for _, sched := range c.snapshotSchedulers() {
		c.initialFetch(ctx, sched, true)
	}
	return nil
}

// HealthCheck verifies the container is usable and, when the client
// supports it, that the secrets server is reachable.
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	if pinger, ok := c.client.(secrets.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (c *Container) lookup(secret lease.RequestedSecret, want lease.Mode) (*renewalScheduler, error) {
	if c.destroyed.Load() {
		return nil, containerError(ErrDestroyed, secret.String())
	}
	c.mu.Lock()
	sched := c.schedulers[secret]
	c.mu.Unlock()
	if sched == nil {
		return nil, nil
	}
	if secret.Mode != want {
		return nil, containerError(ErrWrongMode, secret.String())
	}
	return sched, nil
}

func (c *Container) lookupRotating(secret lease.RequestedSecret) (*renewalScheduler, error) {
	if c.destroyed.Load() {
		return nil, containerError(ErrDestroyed, secret.String())
	}
	c.mu.Lock()
	sched := c.schedulers[secret]
	c.mu.Unlock()
	if sched == nil {
		return nil, nil
	}
	if !secret.Mode.Rotating() {
		return nil, containerError(ErrWrongMode, secret.String())
	}
	return sched, nil
}

func (c *Container) snapshotSchedulers() []*renewalScheduler {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]*renewalScheduler, 0, len(c.schedulers))
	for _, sched := range c.schedulers {
		snapshot = append(snapshot, sched)
	}
	return snapshot
}

func (c *Container) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runCtx
}

// initialFetch performs the fetch step for start, dynamic registration
// and restart. The fetched flag guarantees a secret registered while
// Start is in flight is fetched exactly once; restart bypasses the flag
// because it deliberately re-fetches.
func (c *Container) initialFetch(ctx context.Context, sched *renewalScheduler, restart bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	sched.mu.Lock()
	if !restart && sched.fetched {
		sched.mu.Unlock()
		return
	}
	sched.fetched = true
	if restart {
		// A restart revives secrets dropped after a failed renewal or
		// rotation; otherwise the fetched lease would be discarded and
		// leak at the server.
		sched.stopped = false
	}
	epoch := sched.epoch
	sched.mu.Unlock()

	resp, err := c.readSecret(ctx, sched.secret)
	if err != nil {
		if secrets.IsNotFound(err) {
			recordFetch(sched.secret.Path, statusNotFound)
			c.log.Warn("secret not found", "secret", sched.secret.String())
			c.events.Publish(event.NewNotFound(sched.secret))
			return
		}
		recordFetch(sched.secret.Path, statusFailure)
		c.log.Error("initial fetch failed", "secret", sched.secret.String(), "error", err)
		c.events.PublishError(event.NewError(sched.secret, lease.None(), err))
		return
	}
	recordFetch(sched.secret.Path, statusSuccess)

	sched.mu.Lock()
	won := sched.associateLocked(epoch, resp.Lease, resp.Data)
	var followUps []event.Event
	if won {
		followUps = c.scheduleCurrentLocked(sched)
	}
	sched.mu.Unlock()

	if !won {
		c.log.Debug("discarding stale fetch result", "secret", sched.secret.String())
		return
	}

	c.events.Publish(event.NewCreated(sched.secret, resp.Lease, resp.Data))
	for _, e := range followUps {
		c.events.Publish(e)
	}
}

// resume reinstates scheduling from the current lease state after a
// Stop/Start cycle.
func (c *Container) resume(sched *renewalScheduler) {
	sched.mu.Lock()
	followUps := c.scheduleCurrentLocked(sched)
	sched.mu.Unlock()

	for _, e := range followUps {
		c.events.Publish(e)
	}
}

// scheduleCurrentLocked installs the trigger appropriate for the current
// lease, replacing any previous handle. For a renewable lease already
// inside the expiry threshold it terminates scheduling and returns the
// expired event for the caller to publish outside the lock. Caller
// holds sched.mu.
func (c *Container) scheduleCurrentLocked(sched *renewalScheduler) []event.Event {
	if sched.stopped {
		return nil
	}

	switch {
	case sched.secret.Mode == lease.ModeRenew && sched.lease.KeepAlive():
		delay, ok := c.policy.NextFire(sched.lease)
		if !ok {
			sched.stopped = true
			sched.cancelTaskLocked()
			return []event.Event{event.NewExpired(sched.secret, sched.lease)}
		}
		c.scheduleTaskLocked(sched, delay)
	case sched.secret.Mode.Rotating():
		if delay, ok := c.policy.RotationFire(sched.lease.Duration); ok {
			c.scheduleTaskLocked(sched, delay)
		}
	}
	return nil
}

// scheduleTaskLocked atomically replaces the live task handle with a
// fresh one. The generation captured by the callback invalidates
// handles that fired before being replaced. Caller holds sched.mu.
func (c *Container) scheduleTaskLocked(sched *renewalScheduler, delay time.Duration) {
	sched.taskGen++
	gen := sched.taskGen
	if sched.task != nil {
		sched.task.Cancel()
	} else {
		scheduledSecrets.Inc()
	}
	sched.task = c.trigger.ScheduleAfter(delay, func() {
		c.onTrigger(sched, gen)
	})

	c.log.Debug("scheduled trigger",
		"secret", sched.secret.String(),
		"delay", delay,
	)
}

func (c *Container) onTrigger(sched *renewalScheduler, gen uint64) {
	if !c.running.Load() {
		return
	}

	sched.mu.Lock()
	if sched.stopped || gen != sched.taskGen {
		sched.mu.Unlock()
		return
	}
	sched.task = nil
	scheduledSecrets.Dec()
	cur := sched.lease
	snapshot := sched.data
	epoch := sched.epoch
	sched.mu.Unlock()

	ctx := c.baseContext()
	if sched.secret.Mode == lease.ModeRenew {
		c.renewAttempt(ctx, sched, cur, epoch)
		return
	}
	c.rotateAttempt(ctx, sched, cur, snapshot, epoch)
}

// renewAttempt performs one renewal against the server and applies the
// result. Success installs the renewed lease and reschedules without
// emitting an event; failure consults the strategy. A result whose
// epoch has moved on lost a race against a restart fetch and is
// discarded, though its failure events are still emitted against the
// lease it renewed.
func (c *Container) renewAttempt(ctx context.Context, sched *renewalScheduler, cur lease.Lease, epoch uint64) {
	var renewed lease.Lease
	err := c.client.WithSession(ctx, func(session secrets.Session) error {
		l, sessionErr := session.Renew(ctx, cur)
		renewed = l
		return sessionErr
	})

	if err != nil {
		recordRenewal(sched.secret.Path, statusFailure)
		c.onRenewalFailure(sched, cur, epoch, err)
		return
	}
	recordRenewal(sched.secret.Path, statusSuccess)

	sched.mu.Lock()
	won := sched.associateLocked(epoch, renewed, nil)
	var followUps []event.Event
	if won {
		followUps = c.scheduleCurrentLocked(sched)
	}
	sched.mu.Unlock()

	if !won {
		c.log.Debug("discarding stale renewal result",
			"secret", sched.secret.String(),
			"lease", renewed.String(),
		)
		return
	}
	for _, e := range followUps {
		c.events.Publish(e)
	}
}

func (c *Container) onRenewalFailure(sched *renewalScheduler, cur lease.Lease, epoch uint64, err error) {
	decision := c.strategy.OnRenewalError(cur, err)
	c.log.Warn("lease renewal failed",
		"secret", sched.secret.String(),
		"lease", cur.String(),
		"decision", decision.String(),
		"error", err,
	)

	var expired bool
	sched.mu.Lock()
	current := epoch == sched.epoch && !sched.stopped
	switch decision {
	case lease.DecisionRetain:
		if current {
			// Retry using the last-known-good duration.
			if delay, ok := c.policy.NextFire(cur); ok {
				c.scheduleTaskLocked(sched, delay)
			} else {
				sched.stopped = true
				sched.cancelTaskLocked()
				expired = true
			}
		}
	default:
		if current {
			sched.stopped = true
			sched.cancelTaskLocked()
		}
		expired = true
	}
	sched.mu.Unlock()

	if expired {
		c.events.Publish(event.NewExpired(sched.secret, cur))
	}
	c.events.PublishError(event.NewError(sched.secret, cur, err))
}

// rotateAttempt re-fetches a rotating secret and applies the result.
// The rotated event is emitted whenever the fetched data differs from
// the snapshot the attempt started from, even when a racing operation
// installed a newer lease first; the event describes what this attempt
// observed, and listeners order by completion, not initiation.
func (c *Container) rotateAttempt(ctx context.Context, sched *renewalScheduler, cur lease.Lease, snapshot map[string]any, epoch uint64) {
	resp, err := c.readSecret(ctx, sched.secret)
	if err != nil {
		recordRotation(sched.secret.Path, statusFailure)
		c.onRotationFailure(sched, cur, epoch, err)
		return
	}
	recordRotation(sched.secret.Path, statusSuccess)

	changed := !reflect.DeepEqual(snapshot, resp.Data)

	sched.mu.Lock()
	won := sched.associateLocked(epoch, resp.Lease, resp.Data)
	var followUps []event.Event
	if won {
		followUps = c.scheduleCurrentLocked(sched)
	}
	sched.mu.Unlock()

	if changed {
		c.events.Publish(event.NewRotated(sched.secret, resp.Lease, resp.Data))
	}
	if !won {
		c.log.Debug("discarding stale rotation result", "secret", sched.secret.String())
		return
	}
	for _, e := range followUps {
		c.events.Publish(e)
	}
}

func (c *Container) onRotationFailure(sched *renewalScheduler, cur lease.Lease, epoch uint64, err error) {
	// Rotation has no server-side lease to fall back on, so any failure
	// terminates scheduling for the secret.
	sched.mu.Lock()
	if epoch == sched.epoch && !sched.stopped {
		sched.stopped = true
		sched.cancelTaskLocked()
	}
	sched.mu.Unlock()

	if secrets.IsNotFound(err) {
		c.log.Warn("rotating secret disappeared", "secret", sched.secret.String())
		c.events.Publish(event.NewNotFound(sched.secret))
		return
	}

	c.log.Error("secret rotation failed", "secret", sched.secret.String(), "error", err)
	c.events.Publish(event.NewExpired(sched.secret, cur))
	c.events.PublishError(event.NewError(sched.secret, cur, err))
}

func (c *Container) readSecret(ctx context.Context, secret lease.RequestedSecret) (*secrets.Response, error) {
	if secret.Mode == lease.ModeRotateUnauthenticated {
		if reader, ok := c.client.(secrets.UnauthenticatedReader); ok {
			return reader.ReadUnauthenticated(ctx, secret.Path)
		}
	}
	return c.client.Read(ctx, secret.Path)
}
