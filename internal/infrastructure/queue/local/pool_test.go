package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

func TestQueueRunsEveryTask(t *testing.T) {
	q := New(Options{Workers: 3, Buffer: 10})

	var mu sync.Mutex
	var handled []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- q.SubscribeItemCreated(ctx, func(_ context.Context, id string) error {
			mu.Lock()
			handled = append(handled, id)
			mu.Unlock()
			if id == "b" {
				return errors.New("stage store failed")
			}
			if id == "c" {
				panic("boom")
			}
			return nil
		})
	}()

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := q.PublishItemCreated(context.Background(), id); err != nil {
			t.Fatalf("PublishItemCreated(%s) error = %v", id, err)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("SubscribeItemCreated() error = %v", err)
	}

	sort.Strings(handled)
	if len(handled) != 4 || handled[0] != "a" || handled[3] != "d" {
		t.Fatalf("expected all tasks handled despite failures, got %v", handled)
	}

	err := q.PublishItemCreated(context.Background(), "late")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error after close, got %v", err)
	}
}

func TestQueueFullIsTemporary(t *testing.T) {
	q := New(Options{Workers: 1, Buffer: 1})
	if err := q.PublishItemCreated(context.Background(), "a"); err != nil {
		t.Fatalf("first publish error = %v", err)
	}
	if err := q.PublishItemCreated(context.Background(), "b"); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error for full buffer, got %v", err)
	}
}

func TestHandlerTimeout(t *testing.T) {
	q := New(Options{Workers: 1, HandlerTimeout: 5 * time.Millisecond})
	var deadlineSeen bool
	q.handle(context.Background(), "a", func(ctx context.Context, _ string) error {
		_, deadlineSeen = ctx.Deadline()
		return nil
	})
	if !deadlineSeen {
		t.Fatalf("expected handler context with deadline")
	}
}
