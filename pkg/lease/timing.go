package lease

import "time"

const (
	// DefaultMinRenewal is the floor applied to computed renewal delays.
	DefaultMinRenewal = 10 * time.Second
	// DefaultExpiryThreshold is how far before lease expiry a renewal or
	// rotation attempt is triggered.
	DefaultExpiryThreshold = 60 * time.Second
)

// TimingPolicy computes when the next renewal or rotation attempt for a
// lease should fire. The computation is pure so it can be tested without
// a real timer.
type TimingPolicy struct {
	// MinRenewal is the minimum delay between attempts. It protects the
	// server from renewal storms caused by very short lease durations.
	MinRenewal time.Duration

	// ExpiryThreshold is the safety margin before expiry at which an
	// attempt is triggered.
	ExpiryThreshold time.Duration
}

// DefaultTimingPolicy returns the policy used when none is configured.
func DefaultTimingPolicy() TimingPolicy {
	return TimingPolicy{
		MinRenewal:      DefaultMinRenewal,
		ExpiryThreshold: DefaultExpiryThreshold,
	}
}

func (p TimingPolicy) normalized() TimingPolicy {
	if p.MinRenewal <= 0 {
		p.MinRenewal = DefaultMinRenewal
	}
	if p.ExpiryThreshold <= 0 {
		p.ExpiryThreshold = DefaultExpiryThreshold
	}
	return p
}

// NextFire computes the delay before the next renewal attempt for a
// renewable lease. ok is false when the lease cannot be renewed in time:
// either it carries no duration at all or the remaining validity is
// already inside the expiry threshold. A duration exactly at the
// threshold fires immediately.
func (p TimingPolicy) NextFire(l Lease) (delay time.Duration, ok bool) {
	p = p.normalized()

	switch {
	case l.Duration <= 0:
		return 0, false
	case l.Duration < p.ExpiryThreshold:
		// Firing would occur in the past.
		return 0, false
	case l.Duration == p.ExpiryThreshold:
		return 0, true
	}

	delay = l.Duration - p.ExpiryThreshold
	if delay < p.MinRenewal {
		delay = p.MinRenewal
	}
	return delay, true
}

// RotationFire computes the delay before the next rotation re-fetch for
// a secret with the given TTL. Rotation does not depend on renewability,
// so a TTL inside the expiry threshold still triggers an immediate
// re-fetch instead of being treated as expired.
func (p TimingPolicy) RotationFire(ttl time.Duration) (delay time.Duration, ok bool) {
	p = p.normalized()

	if ttl <= 0 {
		return 0, false
	}

	delay = ttl - p.ExpiryThreshold
	if delay <= 0 {
		return 0, true
	}
	if delay < p.MinRenewal {
		delay = p.MinRenewal
	}
	return delay, true
}
