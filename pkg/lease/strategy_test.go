package lease

import (
	"errors"
	"testing"
	"time"
)

func TestDropOnError(t *testing.T) {
	l := Lease{ID: "l", Duration: time.Minute, Renewable: true}
	if got := DropOnError.OnRenewalError(l, errors.New("boom")); got != DecisionDrop {
		t.Fatalf("expected drop, got %s", got)
	}
}

func TestRetainOnError(t *testing.T) {
	l := Lease{ID: "l", Duration: time.Minute, Renewable: true}
	if got := RetainOnError.OnRenewalError(l, errors.New("boom")); got != DecisionRetain {
		t.Fatalf("expected retain, got %s", got)
	}
}

func TestStrategyFunc(t *testing.T) {
	var seen error
	s := StrategyFunc(func(l Lease, err error) Decision {
		seen = err
		return DecisionRetain
	})

	cause := errors.New("transport down")
	if got := s.OnRenewalError(None(), cause); got != DecisionRetain {
		t.Fatalf("expected retain, got %s", got)
	}
	if seen != cause {
		t.Fatalf("expected strategy to observe the cause, got %v", seen)
	}
}

func TestDecisionString(t *testing.T) {
	if DecisionRetain.String() != "retain" || DecisionDrop.String() != "drop" {
		t.Fatal("unexpected decision names")
	}
}
