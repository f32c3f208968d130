package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultPollMaxAttempts = 60
)

// ErrPollingExhausted is returned when the attempt budget ran out before both
// stages reached a terminal state.
var ErrPollingExhausted = errors.New("processing status polling exhausted")

// ItemFetcher re-reads one item with field presence kept.
type ItemFetcher interface {
	FetchItem(ctx context.Context, id string) (RemoteItem, error)
}

// Callbacks are invoked from the polling goroutine. Any of them may be nil.
type Callbacks struct {
	// OnUpdate receives the merged item after every fetch.
	OnUpdate func(domain.ClothingItem)
	// OnBackgroundRemoved fires once, when background removal completes.
	OnBackgroundRemoved func(domain.ClothingItem)
	// OnCategorized fires once, when categorization completes.
	OnCategorized func(domain.ClothingItem)
	// OnError fires on every fetch that sees a stage in error.
	OnError func(item domain.ClothingItem, message string)
}

type Poller struct {
	fetcher     ItemFetcher
	interval    time.Duration
	maxAttempts int
}

func NewPoller(fetcher ItemFetcher, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	return &Poller{fetcher: fetcher, interval: interval, maxAttempts: maxAttempts}
}

// Poll fetches item right away, then re-fetches it every interval up to
// maxAttempts more times until both stages are terminal, ctx is cancelled or a
// fetch fails. It returns the last merged item.
// Fetches for one item never overlap: each waits for the previous one.
func (p *Poller) Poll(ctx context.Context, item domain.ClothingItem, cb Callbacks) (domain.ClothingItem, error) {
	current := item
	if current.ProcessingStatus.Done() {
		return current, nil
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		remote, err := p.fetcher.FetchItem(ctx, current.ID)
		if err != nil {
			return current, fmt.Errorf("poll item %s: %w", current.ID, err)
		}

		previous := current.ProcessingStatus
		current = MergeItem(current, remote)
		p.notify(previous, current, cb)

		if current.ProcessingStatus.Done() {
			return current, nil
		}
		if attempt >= p.maxAttempts {
			return current, ErrPollingExhausted
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Poller) notify(previous domain.ProcessingStatus, item domain.ClothingItem, cb Callbacks) {
	status := item.ProcessingStatus
	if cb.OnUpdate != nil {
		cb.OnUpdate(item)
	}
	if becameStatus(previous.BackgroundRemoval, status.BackgroundRemoval, domain.StageCompleted) && cb.OnBackgroundRemoved != nil {
		cb.OnBackgroundRemoved(item)
	}
	if becameStatus(previous.Categorization, status.Categorization, domain.StageCompleted) && cb.OnCategorized != nil {
		cb.OnCategorized(item)
	}

	failed := status.BackgroundRemoval == domain.StageError || status.Categorization == domain.StageError
	if failed && cb.OnError != nil {
		cb.OnError(item, errorMessage(item))
	}
}

// errorMessage prefers the background-removal error over categorization.
func errorMessage(item domain.ClothingItem) string {
	if item.ProcessingStatus.BackgroundRemoval == domain.StageError && item.ProcessingError.BackgroundRemoval != "" {
		return item.ProcessingError.BackgroundRemoval
	}
	if item.ProcessingStatus.Categorization == domain.StageError && item.ProcessingError.Categorization != "" {
		return item.ProcessingError.Categorization
	}
	return "Processing error"
}

func becameStatus(before, after, target domain.StageStatus) bool {
	return before != target && after == target
}
