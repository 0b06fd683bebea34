// Package sender executes outbound Telegram calls asynchronously with retry
// on transient network failures. Send failures never propagate back into the
// conversation that queued them; they are logged and counted.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/habtamu-tamere/Bot/internal/logging"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was dropped.
	ErrQueueFull = errors.New("sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Dispatcher is the asynchronous outbound queue.
type Dispatcher struct {
	opts Options
	jobs chan job
	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
	log  *slog.Logger

	// mu serializes enqueues against Close so a send can never hit the jobs
	// channel after it is closed.
	mu     sync.RWMutex
	closed bool
}

// New starts a dispatcher, applying defaults to zeroed options.
func New(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		log:  logging.Component("tg.sender"),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run for asynchronous execution. The closure must be
// idempotent when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func() error) error {
	if run == nil {
		return errors.New("sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that exhausted their retries.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.jobs)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	attempts := d.opts.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := j.run(); err != nil {
			lastErr = err
			if !shouldRetry(err) || attempt == attempts {
				break
			}
			time.Sleep(d.opts.RetryBackoff * time.Duration(attempt))
			continue
		}
		d.log.LogAttrs(ctx, slog.LevelDebug, "send.success",
			slog.String("action", j.action),
			slog.Int("attempts", attempt),
			slog.Int64("duration_ms", logging.RoundMS(time.Since(start)).Milliseconds()),
		)
		return
	}

	d.errs.Add(1)
	d.log.LogAttrs(ctx, slog.LevelError, "send.fail",
		slog.String("action", j.action),
		slog.Int("attempts", attempts),
		slog.String("err", sanitizeError(lastErr)),
		slog.Int64("duration_ms", logging.RoundMS(time.Since(start)).Milliseconds()),
	)
}

// shouldRetry reports whether a network error is a transient dial or timeout
// failure worth another attempt.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return shouldRetry(urlErr.Err)
		}
	}
	return false
}

// sanitizeError keeps bot tokens out of log output.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
