//go:build !integration

package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool("test", 3, newTestLogger())
	p.Start(ctx)
	defer p.Stop()

	var (
		wg    sync.WaitGroup
		count int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := p.Submit(func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()
	if got := atomic.LoadInt32(&count); got != 10 {
		t.Errorf("expected 10 tasks to run, got %d", got)
	}
}

func TestPool_SurvivesFailingAndPanickingTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool("test", 1, newTestLogger())
	p.Start(ctx)
	defer p.Stop()

	done := make(chan struct{})
	_ = p.Submit(func(ctx context.Context) error { return errors.New("boom") })
	_ = p.Submit(func(ctx context.Context) error { panic("worse") })
	_ = p.Submit(func(ctx context.Context) error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive failing tasks")
	}
}

func TestPool_SubmitWhenFull(t *testing.T) {
	// Not started: nothing drains the queue.
	p := NewPool("test", 1, newTestLogger())
	for i := 0; i < 4; i++ {
		if err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("submit %d should fit in the queue: %v", i, err)
		}
	}
	if err := p.Submit(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if err := p.Submit(nil); err == nil {
		t.Fatal("nil task must be rejected")
	}
	p.Stop()
	p.Stop() // idempotent
}
