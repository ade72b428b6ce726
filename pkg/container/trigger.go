package container

import "time"

// TaskHandle cancels a pending one-shot trigger. Cancelling does not
// interrupt a callback that already started running.
type TaskHandle interface {
	Cancel()
}

// TriggerScheduler runs a callback once after a delay. The production
// implementation is timer-backed; tests substitute a manual one so
// trigger firing is deterministic.
type TriggerScheduler interface {
	ScheduleAfter(delay time.Duration, fn func()) TaskHandle
}

type timerScheduler struct{}

// NewTimerScheduler returns the timer-backed trigger scheduler.
func NewTimerScheduler() TriggerScheduler {
	return timerScheduler{}
}

func (timerScheduler) ScheduleAfter(delay time.Duration, fn func()) TaskHandle {
	return &timerHandle{timer: time.AfterFunc(delay, fn)}
}

type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Cancel() {
	h.timer.Stop()
}
