// Package local runs the processing pipeline in-process on a bounded
// worker pool, for single-binary deployments without a broker.
package local

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

var ErrClosed = errors.New("local queue closed")

type Options struct {
	Workers        int
	Buffer         int
	HandlerTimeout time.Duration
}

// Queue hands item ids from Publish to the workers started by Subscribe.
type Queue struct {
	tasks          chan string
	workers        int
	handlerTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func New(opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	return &Queue{
		tasks:          make(chan string, opts.Buffer),
		workers:        opts.Workers,
		handlerTimeout: opts.HandlerTimeout,
	}
}

// PublishItemCreated enqueues without waiting for the task to run. A full
// buffer is reported as a temporary failure instead of blocking the request.
func (q *Queue) PublishItemCreated(ctx context.Context, itemID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return domain.WrapError(domain.ErrTemporary, "local publish", ErrClosed)
	}
	select {
	case q.tasks <- itemID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return domain.WrapError(domain.ErrTemporary, "local publish", errors.New("processing queue is full"))
	}
}

// SubscribeItemCreated runs the workers until ctx is done. Tasks already
// buffered at that point are finished with a fresh context before returning.
func (q *Queue) SubscribeItemCreated(ctx context.Context, handler func(context.Context, string) error) error {
	g, gctx := errgroup.WithContext(context.Background())
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for itemID := range q.tasks {
				q.handle(gctx, itemID, handler)
			}
			return nil
		})
	}
	slog.Info("local_workers_started", "workers", q.workers)

	<-ctx.Done()
	q.mu.Lock()
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	err := g.Wait()
	slog.Info("local_workers_stopped")
	return err
}

func (q *Queue) handle(ctx context.Context, itemID string, handler func(context.Context, string) error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker_handler_panic", "item_id", itemID, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	handlerCtx, cancel := ctx, context.CancelFunc(func() {})
	if q.handlerTimeout > 0 {
		handlerCtx, cancel = context.WithTimeout(ctx, q.handlerTimeout)
	}
	defer cancel()
	if err := handler(handlerCtx, itemID); err != nil {
		slog.Error("worker_handler_error", "item_id", itemID, "error", err)
	}
}
