package sender

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnqueueExecutes(t *testing.T) {
	d := New(Options{QueueSize: 4, Workers: 1})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test", func() error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := New(Options{QueueSize: 1, Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "test", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestConcurrentEnqueueDuringClose(t *testing.T) {
	d := New(Options{QueueSize: 2, Workers: 1})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for {
				err := d.Enqueue(context.Background(), "test", func() error { return nil })
				if errors.Is(err, ErrQueueClosed) {
					return
				}
			}
		}()
	}

	close(start)
	time.Sleep(time.Millisecond)
	d.Close()
	wg.Wait()

	if err := d.Enqueue(context.Background(), "test", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestRetriesTransientErrors(t *testing.T) {
	d := New(Options{QueueSize: 1, Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	if got := d.ErrorCount(); got != 0 {
		t.Fatalf("error count = %d", got)
	}
}

func TestPermanentFailureCounts(t *testing.T) {
	d := New(Options{QueueSize: 1, Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	if err := d.Enqueue(context.Background(), "test", func() error {
		calls.Add(1)
		return errors.New("bad request")
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()

	if got := calls.Load(); got != 1 {
		t.Fatalf("non-retryable error retried %d times", got)
	}
	if got := d.ErrorCount(); got != 1 {
		t.Fatalf("error count = %d", got)
	}
}

func TestShouldRetry(t *testing.T) {
	if shouldRetry(nil) {
		t.Fatal("nil error is not retryable")
	}
	if shouldRetry(errors.New("bad request")) {
		t.Fatal("generic error is not retryable")
	}
	if !shouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}) {
		t.Fatal("dial error should retry")
	}
	if !shouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}) {
		t.Fatal("wrapped dial error should retry")
	}
}

func TestSanitizeErrorRedactsToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAErealtoken/sendMessage": timeout`)
	got := sanitizeError(err)
	if !strings.Contains(got, "bot<redacted>") {
		t.Fatalf("token not redacted: %s", got)
	}
	if strings.Contains(got, "AAErealtoken") {
		t.Fatalf("token leaked: %s", got)
	}
}
