package lease

// Decision is the outcome of a Strategy after a failed renewal attempt.
type Decision int

const (
	// DecisionRetain keeps the last-known-good lease scheduled for
	// another attempt, continuing to serve the old secret value.
	DecisionRetain Decision = iota
	// DecisionDrop terminates scheduling for the secret.
	DecisionDrop
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionRetain:
		return "retain"
	case DecisionDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Strategy decides how the container reacts to a failed renewal attempt.
// Implementations must be stateless and deterministic for the same
// inputs so behavior can be asserted without timing dependence.
type Strategy interface {
	OnRenewalError(l Lease, err error) Decision
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(l Lease, err error) Decision

// OnRenewalError implements the Strategy interface.
func (f StrategyFunc) OnRenewalError(l Lease, err error) Decision {
	return f(l, err)
}

// DropOnError terminates scheduling on the first failed renewal. This is
// the default strategy.
var DropOnError Strategy = StrategyFunc(func(Lease, error) Decision {
	return DecisionDrop
})

// RetainOnError keeps retrying with the last-known-good lease duration
// as the retry interval. It does not implement backoff; callers needing
// a backoff curve supply their own Strategy.
var RetainOnError Strategy = StrategyFunc(func(Lease, error) Decision {
	return DecisionRetain
})
