// Package debounce collapses bursts of writes into a single delayed task per
// key. Pending tasks can be flushed on demand or cancelled.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is the deferred work. The context carries the flush caller's deadline
// or, for timer-driven runs, the debouncer's task timeout.
type Task func(ctx context.Context) error

// ErrStopped is returned when scheduling on a stopped debouncer
var ErrStopped = errors.New("debounce: debouncer stopped")

// Config holds debouncer settings
type Config struct {
	Delay       time.Duration
	TaskTimeout time.Duration
}

// DefaultConfig returns the autosave defaults
func DefaultConfig() Config {
	return Config{
		Delay:       800 * time.Millisecond,
		TaskTimeout: 10 * time.Second,
	}
}

type entry struct {
	task  Task
	timer *time.Timer
	gen   uint64
}

// Debouncer runs the latest scheduled task per key once the key has been
// quiet for the configured delay.
type Debouncer struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*entry
	running map[string]chan struct{}
	gen     uint64
	stopped bool
}

// New creates a Debouncer
func New(cfg Config, logger *zap.Logger) *Debouncer {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultConfig().Delay
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultConfig().TaskTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]*entry),
		running: make(map[string]chan struct{}),
	}
}

// Schedule replaces any pending task for key and restarts its delay
func (d *Debouncer) Schedule(key string, task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrStopped
	}
	d.gen++
	gen := d.gen
	if e, ok := d.pending[key]; ok {
		e.timer.Stop()
	}
	d.pending[key] = &entry{
		task:  task,
		gen:   gen,
		timer: time.AfterFunc(d.cfg.Delay, func() { d.fire(key, gen) }),
	}
	return nil
}

// Flush runs the pending task for key immediately and returns its error. If
// the task is already running because its timer fired, Flush waits for it.
// It is a no-op when nothing is pending.
func (d *Debouncer) Flush(ctx context.Context, key string) error {
	d.mu.Lock()
	e, ok := d.pending[key]
	if ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
	inflight := d.running[key]
	d.mu.Unlock()

	if inflight != nil {
		select {
		case <-inflight:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if !ok {
		return nil
	}
	return d.run(ctx, key, e.task)
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending reports whether a task is waiting for key
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Keys returns the keys with pending tasks
func (d *Debouncer) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	return keys
}

// FlushAll runs every pending task and joins their errors
func (d *Debouncer) FlushAll(ctx context.Context) error {
	var errs []error
	for _, key := range d.Keys() {
		if err := d.Flush(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop refuses new tasks and flushes the pending ones
func (d *Debouncer) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return d.FlushAll(ctx)
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if !ok || e.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.TaskTimeout)
	defer cancel()
	if err := d.run(ctx, key, e.task); err != nil {
		d.logger.Warn("Debounced task failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (d *Debouncer) run(ctx context.Context, key string, task Task) error {
	done := make(chan struct{})
	d.mu.Lock()
	prev := d.running[key]
	d.running[key] = done
	d.mu.Unlock()

	if prev != nil {
		<-prev
	}
	defer func() {
		d.mu.Lock()
		if d.running[key] == done {
			delete(d.running, key)
		}
		d.mu.Unlock()
		close(done)
	}()

	return task(ctx)
}
