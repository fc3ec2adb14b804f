// Package ticker provides a cancellable fixed-interval task.
//
// Ticks are time-driven: every tick runs in its own goroutine, so a slow or
// failing tick never delays the next one. Each run of a Task is identified by
// a monotonically increasing generation; a Token captured by a tick stays
// valid only while that run is current.
package ticker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Func is the work performed on each tick. It must not call Stop on its own Task.
type Func func(ctx context.Context, tok Token)

// Task runs a Func at a fixed interval until stopped.
type Task struct {
	mu  sync.Mutex
	cur *run
	gen atomic.Uint64
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	ticks  sync.WaitGroup
}

// Token identifies the run a tick belongs to.
type Token struct {
	task *Task
	gen  uint64
}

// Valid reports whether the run that issued the token is still current.
func (t Token) Valid() bool {
	return t.task != nil && t.task.gen.Load() == t.gen
}

// Generation returns the run generation the token was issued for.
func (t Token) Generation() uint64 {
	return t.gen
}

// Start begins ticking every interval. It returns false without side effects
// when the task is already running.
func (t *Task) Start(parent context.Context, interval time.Duration, fn Func) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur != nil {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	r := &run{cancel: cancel, done: make(chan struct{})}
	tok := Token{task: t, gen: t.gen.Add(1)}
	t.cur = r

	go func() {
		defer close(r.done)
		tk := time.NewTicker(interval)
		defer tk.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				r.ticks.Add(1)
				go func() {
					defer r.ticks.Done()
					fn(ctx, tok)
				}()
			}
		}
	}()

	return true
}

// Stop cancels the current run and waits until its loop and every in-flight
// tick have returned. Stopping a stopped task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	r := t.cur
	t.cur = nil
	if r != nil {
		t.gen.Add(1)
	}
	t.mu.Unlock()

	if r == nil {
		return
	}

	r.cancel()
	<-r.done
	r.ticks.Wait()
}

// Running reports whether the task is ticking.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur != nil
}
