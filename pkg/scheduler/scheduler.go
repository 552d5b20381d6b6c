package scheduler

import (
	"time"

	"ai-companion-chat/backend/pkg/logger"
)

// Scheduler runs zero-argument tasks after a delay. Tasks are
// fire-and-forget: there is no cancellation, no ordering guarantee between
// tasks and no retry. A panicking task is recovered and logged at the task
// boundary so it can never reach the caller that scheduled it.
type Scheduler struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Scheduler{log: log}
}

// After schedules task to run once after delay.
func (s *Scheduler) After(delay time.Duration, task func()) {
	time.AfterFunc(delay, func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("scheduled task panicked", "panic", r)
			}
		}()
		task()
	})
}
