// Package clock delivers periodic wall-clock ticks, used to move the
// current-time indicator.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "calassist/internal/log"
)

// Clock runs subscribers on a cron schedule.
type Clock struct {
	spec string
	now  func() time.Time

	mu      sync.Mutex
	subs    []func(time.Time)
	cron    *cron.Cron
	running bool
	// stop ends the context watcher of the current run.
	stop    chan struct{}
	watcher sync.WaitGroup
}

// New validates spec (standard 5-field cron) and returns a stopped Clock.
func New(spec string) (*Clock, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("clock: invalid schedule %q: %w", spec, err)
	}
	return &Clock{spec: spec, now: time.Now}, nil
}

// Subscribe registers fn to run on every tick.
func (c *Clock) Subscribe(fn func(time.Time)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Start fires one tick immediately, then one per schedule hit. The clock
// stops when ctx is done or Stop is called.
func (c *Clock) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	cr := cron.New()
	if _, err := cr.AddFunc(c.spec, c.tick); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("clock: schedule: %w", err)
	}
	c.cron = cr
	c.running = true
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	c.tick()
	cr.Start()
	appLog.Info("clock started", "schedule", c.spec)

	c.watcher.Add(1)
	go func() {
		defer c.watcher.Done()
		select {
		case <-ctx.Done():
			c.Stop()
		case <-stop:
		}
	}()
	return nil
}

// Stop cancels the schedule and waits for a running tick to finish.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cr := c.cron
	c.running = false
	c.cron = nil
	close(c.stop)
	c.stop = nil
	c.mu.Unlock()

	<-cr.Stop().Done()
	appLog.Info("clock stopped")
}

func (c *Clock) tick() {
	c.mu.Lock()
	subs := make([]func(time.Time), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	now := c.now()
	for _, fn := range subs {
		fn(now)
	}
}
