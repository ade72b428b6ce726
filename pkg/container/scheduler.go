package container

import (
	"sync"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

// renewalScheduler is the per-secret state machine. It owns the current
// lease, the last secret data snapshot used for rotation change
// detection and the currently live task handle. All mutation happens
// under mu; two different secrets are mutated fully in parallel.
//
// epoch counts lease associations. Operations snapshot the epoch before
// their network attempt and install their result only if the epoch is
// unchanged, so whichever of two racing attempts completes first wins
// and the loser's result is discarded without cancelling the winner's
// freshly scheduled trigger.
type renewalScheduler struct {
	secret lease.RequestedSecret

	mu      sync.Mutex
	lease   lease.Lease
	data    map[string]any
	epoch   uint64
	task    TaskHandle
	taskGen uint64
	fetched bool
	stopped bool
}

func newRenewalScheduler(secret lease.RequestedSecret) *renewalScheduler {
	return &renewalScheduler{secret: secret}
}

// associateLocked installs a new lease/data pair if no newer lease has
// been installed since the caller observed epoch. Caller holds mu.
func (s *renewalScheduler) associateLocked(epoch uint64, l lease.Lease, data map[string]any) bool {
	if s.stopped || epoch != s.epoch {
		return false
	}
	s.lease = l
	if data != nil {
		s.data = data
	}
	s.epoch++
	return true
}

// cancelTaskLocked discards the live task handle, if any, and
// invalidates callbacks of handles that already fired but have not run
// their state check yet. Caller holds mu.
func (s *renewalScheduler) cancelTaskLocked() {
	s.taskGen++
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
		scheduledSecrets.Dec()
	}
}

// currentLease returns the lease the scheduler holds right now.
func (s *renewalScheduler) currentLease() lease.Lease {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lease
}
