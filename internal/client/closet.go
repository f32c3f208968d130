package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/view"
)

// API is the subset of Client the closet needs.
type API interface {
	ItemFetcher
	CreateItem(ctx context.Context, filename string, image io.Reader) (*domain.ClothingItem, error)
	ListItems(ctx context.Context) ([]domain.ClothingItem, error)
	UpdateItem(ctx context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error)
	DeleteItem(ctx context.Context, id string) error
	RecordUsage(ctx context.Context, id string, action domain.UsageAction) (*domain.ClothingItem, error)
	ListOutfits(ctx context.Context) ([]domain.Outfit, error)
	DeleteOutfit(ctx context.Context, id string) error
}

type memo struct {
	counts        []view.CategoryCount
	itemTags      []view.TagCount
	outfitTags    []view.TagCount
	filtered      map[string][]domain.ClothingItem
	filteredOutfs map[string][]domain.Outfit
}

// Closet is the local mirror of one user's wardrobe. Derived views are
// memoized and recomputed only after the collections change.
type Closet struct {
	api    API
	poller *Poller

	mu      sync.Mutex
	items   []domain.ClothingItem
	outfits []domain.Outfit
	version uint64
	memo    memo
	polling map[string]struct{}

	wg sync.WaitGroup
}

func NewCloset(api API, poller *Poller) *Closet {
	if poller == nil {
		poller = NewPoller(api, DefaultPollInterval, DefaultPollMaxAttempts)
	}
	c := &Closet{
		api:     api,
		poller:  poller,
		polling: map[string]struct{}{},
	}
	c.changed()
	return c
}

// Version increases on every change to the local collections.
func (c *Closet) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Load replaces local state with the server's collections.
func (c *Closet) Load(ctx context.Context) error {
	items, err := c.api.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	outfits, err := c.api.ListOutfits(ctx)
	if err != nil {
		return fmt.Errorf("load outfits: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.outfits = outfits
	c.changed()
	return nil
}

// AddFromImage uploads an image, adds the pending item locally and starts
// its polling loop. The loop stops on terminal state, exhaustion or when
// ctx is done.
func (c *Closet) AddFromImage(ctx context.Context, filename string, image io.Reader, cb Callbacks) (domain.ClothingItem, error) {
	created, err := c.api.CreateItem(ctx, filename, image)
	if err != nil {
		return domain.ClothingItem{}, err
	}

	c.mu.Lock()
	c.items = append([]domain.ClothingItem{*created}, c.items...)
	c.changed()
	c.mu.Unlock()

	c.Track(ctx, *created, cb)
	return *created, nil
}

// Track starts polling item unless a loop for it is already running.
func (c *Closet) Track(ctx context.Context, item domain.ClothingItem, cb Callbacks) {
	c.mu.Lock()
	if _, running := c.polling[item.ID]; running || item.ProcessingStatus.Done() {
		c.mu.Unlock()
		return
	}
	c.polling[item.ID] = struct{}{}
	c.mu.Unlock()

	userUpdate := cb.OnUpdate
	cb.OnUpdate = func(updated domain.ClothingItem) {
		c.replaceItem(updated)
		if userUpdate != nil {
			userUpdate(updated)
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.polling, item.ID)
			c.mu.Unlock()
		}()

		final, err := c.poller.Poll(ctx, item, cb)
		switch {
		case err == nil:
			slog.Debug("item_processing_settled",
				"item_id", final.ID,
				"background_removal", string(final.ProcessingStatus.BackgroundRemoval),
				"categorization", string(final.ProcessingStatus.Categorization),
			)
		case errors.Is(err, ErrPollingExhausted), errors.Is(err, context.Canceled):
			slog.Debug("item_polling_stopped", "item_id", item.ID, "reason", err)
		default:
			slog.Warn("item_polling_failed", "item_id", item.ID, "error", err)
		}
	}()
}

// Wait blocks until every running polling loop has stopped.
func (c *Closet) Wait() {
	c.wg.Wait()
}

func (c *Closet) Items() []domain.ClothingItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ClothingItem(nil), c.items...)
}

func (c *Closet) Outfits() []domain.Outfit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Outfit(nil), c.outfits...)
}

func (c *Closet) Item(id string) (domain.ClothingItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.ClothingItem{}, false
}

// FilteredItems returns a copy of the memoized view for f, so callers may
// reorder or overwrite it freely.
func (c *Closet) FilteredItems(f view.Filter) []domain.ClothingItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := filterKey(f)
	got, ok := c.memo.filtered[key]
	if !ok {
		got = view.FilterItems(c.items, f)
		c.memo.filtered[key] = got
	}
	return append([]domain.ClothingItem(nil), got...)
}

func (c *Closet) FilteredOutfits(f view.Filter) []domain.Outfit {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := filterKey(f)
	got, ok := c.memo.filteredOutfs[key]
	if !ok {
		got = view.FilterOutfits(c.outfits, f)
		c.memo.filteredOutfs[key] = got
	}
	return append([]domain.Outfit(nil), got...)
}

func (c *Closet) CategoryCounts() []view.CategoryCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memo.counts == nil {
		c.memo.counts = view.CategoryCounts(c.items)
	}
	return append([]view.CategoryCount(nil), c.memo.counts...)
}

func (c *Closet) TagFrequency() []view.TagCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memo.itemTags == nil {
		c.memo.itemTags = view.TagFrequency(c.items, view.ItemTags)
	}
	return append([]view.TagCount(nil), c.memo.itemTags...)
}

func (c *Closet) OutfitTagFrequency() []view.TagCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memo.outfitTags == nil {
		c.memo.outfitTags = view.TagFrequency(c.outfits, view.OutfitTags)
	}
	return append([]view.TagCount(nil), c.memo.outfitTags...)
}

// MaxZIndex returns the highest stacking index of a loaded outfit, 0 when the
// outfit is unknown.
func (c *Closet) MaxZIndex(outfitID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.outfits {
		if c.outfits[i].ID == outfitID {
			return c.outfits[i].MaxZIndex()
		}
	}
	return 0
}

func (c *Closet) Update(ctx context.Context, id string, upd domain.ClothingItemUpdate) (domain.ClothingItem, error) {
	updated, err := c.api.UpdateItem(ctx, id, upd)
	if err != nil {
		return domain.ClothingItem{}, err
	}
	c.replaceItem(*updated)
	return *updated, nil
}

func (c *Closet) RecordUsage(ctx context.Context, id string, action domain.UsageAction) (domain.ClothingItem, error) {
	updated, err := c.api.RecordUsage(ctx, id, action)
	if err != nil {
		return domain.ClothingItem{}, err
	}
	c.replaceItem(*updated)
	return *updated, nil
}

func (c *Closet) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteItem(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			c.changed()
			break
		}
	}
	return nil
}

func (c *Closet) DeleteOutfit(ctx context.Context, id string) error {
	if err := c.api.DeleteOutfit(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.outfits {
		if c.outfits[i].ID == id {
			c.outfits = append(c.outfits[:i:i], c.outfits[i+1:]...)
			c.changed()
			break
		}
	}
	return nil
}

func (c *Closet) replaceItem(item domain.ClothingItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			// Copy on write: memoized views may still share the old slice.
			next := append([]domain.ClothingItem(nil), c.items...)
			next[i] = item
			c.items = next
			c.changed()
			return
		}
	}
}

// changed must be called with mu held.
func (c *Closet) changed() {
	c.version++
	c.memo = memo{
		filtered:      map[string][]domain.ClothingItem{},
		filteredOutfs: map[string][]domain.Outfit{},
	}
}

func filterKey(f view.Filter) string {
	category := f.Category
	if category == "" {
		category = domain.CategoryAll
	}
	return category + "\x00" + strings.Join(f.Tags, "\x00")
}
