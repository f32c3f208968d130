package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/ai-closet/internal/config"
	"github.com/kirillkom/ai-closet/internal/observability/metrics"
)

func TestNewRejectsInvalidConfigBeforeConnecting(t *testing.T) {
	cfg := config.Load()
	cfg.StoreDriver = "sqlite"

	_, err := New(context.Background(), cfg, RoleAPI)
	if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

type processorFunc func(ctx context.Context, itemID string) error

func (f processorFunc) ProcessByID(ctx context.Context, itemID string) error { return f(ctx, itemID) }

func TestProcessItemReturnsPipelineError(t *testing.T) {
	storeDown := errors.New("store down")
	var seen string
	app := &App{
		WorkerMetrics: metrics.NewWorkerMetrics("test"),
		ProcessUC: processorFunc(func(_ context.Context, itemID string) error {
			seen = itemID
			return storeDown
		}),
	}

	if err := app.ProcessItem(context.Background(), "item-1"); !errors.Is(err, storeDown) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if seen != "item-1" {
		t.Fatalf("expected item-1 to be processed, got %q", seen)
	}
}

func TestCloseRunsInReverseOrder(t *testing.T) {
	var order []int
	app := &App{}
	app.onClose(func() { order = append(order, 1) })
	app.onClose(func() { order = append(order, 2) })

	app.Close()
	app.Close()
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("unexpected close order %v", order)
	}
}
