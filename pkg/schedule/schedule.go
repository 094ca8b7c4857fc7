// Package schedule runs named background tasks on fixed intervals.
//
// Usage:
//
//	s := schedule.New()
//	s.Every("otp.sweep", time.Minute, func(ctx context.Context) { pending.SweepExpired(ctx, time.Now()) })
//	s.Start(ctx) // returns immediately; stops when ctx is done
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context)

type entry struct {
	id       string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler dispatches due entries once per tick. A task never overlaps
// with its own previous run.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

// New returns a Scheduler ticking every second.
func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Every registers task under id to run every interval. Non-positive
// intervals are ignored.
func (s *Scheduler) Every(id string, interval time.Duration, task Task) {
	if interval <= 0 || task == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = fmt.Sprintf("task-%d", len(s.entries)+1)
	}
	s.entries = append(s.entries, &entry{id: id, interval: interval, task: task})
}

// Start begins the scheduler loop in the background.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
	logger.Info("schedule: scheduler started", "tasks", len(s.List()))
}

// Wait blocks until every dispatched task has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick dispatches every entry due at now. The first tick after
// registration always runs the entry.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		s.dispatch(ctx, e, now)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if e.running || (!e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval) {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		logger.Debug("schedule: running task", "id", e.id)
		e.task(ctx)
	}()
}

// List returns all registered entries (for CLI display).
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, e.interval))
	}
	return out
}
