package scheduler

import (
	"context"
	"time"

	"polywatch/internal/logger"
)

// Loop runs a task on a fixed wall-clock interval until the context is
// cancelled. It drives the dashboard refresh cadence.
type Loop struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	nowFn func() time.Time
}

func NewLoop(name string, interval time.Duration) *Loop {
	return &Loop{
		Name:           name,
		Interval:       interval,
		RunImmediately: true,
		nowFn:          time.Now,
	}
}

// Start blocks running the task each tick. Task panics are not recovered;
// tasks are expected to swallow their own errors (a failed poll cycle just
// waits for the next tick).
func (l *Loop) Start(ctx context.Context, task func(context.Context)) {
	if l == nil || task == nil {
		return
	}
	if l.Interval <= 0 {
		logger.Warnf("loop %s: invalid interval=%s, exit", l.Name, l.Interval)
		return
	}
	if l.nowFn == nil {
		l.nowFn = time.Now
	}
	logger.Infof("loop %s: started interval=%s run_immediately=%v", l.Name, l.Interval, l.RunImmediately)

	if l.RunImmediately {
		task(ctx)
	}
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("loop %s: stopped", l.Name)
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}
