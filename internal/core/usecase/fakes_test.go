package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

type clothingRepoFake struct {
	mu    sync.Mutex
	items map[string]*domain.ClothingItem
	calls []string

	createErr error
	getErr    error
	deleteErr error
	statusErr error
	saveBgErr error
	saveCatEr error
}

func newClothingRepoFake(items ...*domain.ClothingItem) *clothingRepoFake {
	f := &clothingRepoFake{items: map[string]*domain.ClothingItem{}}
	for _, it := range items {
		copyItem := *it
		f.items[it.ID] = &copyItem
	}
	return f
}

func (f *clothingRepoFake) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *clothingRepoFake) Create(_ context.Context, item *domain.ClothingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create")
	if f.createErr != nil {
		return f.createErr
	}
	copyItem := *item
	f.items[item.ID] = &copyItem
	return nil
}

func (f *clothingRepoFake) GetByID(_ context.Context, id string) (*domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	item, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get clothing item", errors.New(id))
	}
	copyItem := *item
	return &copyItem, nil
}

func (f *clothingRepoFake) ListByUser(_ context.Context, userID string) ([]domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ClothingItem{}
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *clothingRepoFake) ListByIDs(_ context.Context, userID string, ids []string) ([]domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ClothingItem{}
	for _, id := range ids {
		if it, ok := f.items[id]; ok && it.UserID == userID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *clothingRepoFake) Update(_ context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update")
	item, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "update clothing item", errors.New(id))
	}
	upd.Apply(item)
	copyItem := *item
	return &copyItem, nil
}

func (f *clothingRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return domain.WrapError(domain.ErrNotFound, "delete clothing item", errors.New(id))
	}
	delete(f.items, id)
	return nil
}

func (f *clothingRepoFake) UpdateStageStatus(_ context.Context, id string, stage domain.Stage, status domain.StageStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status:%s:%s", stage, status)
	if f.statusErr != nil {
		return f.statusErr
	}
	item := f.items[id]
	if item == nil {
		return domain.WrapError(domain.ErrNotFound, "update stage status", errors.New(id))
	}
	if stage == domain.StageBackgroundRemoval {
		item.ProcessingStatus.BackgroundRemoval = status
		item.ProcessingError.BackgroundRemoval = errMessage
	} else {
		item.ProcessingStatus.Categorization = status
		item.ProcessingError.Categorization = errMessage
	}
	return nil
}

func (f *clothingRepoFake) SaveBackgroundRemoval(_ context.Context, id, imageURI, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("save:%s", domain.StageBackgroundRemoval)
	if f.saveBgErr != nil {
		return f.saveBgErr
	}
	item := f.items[id]
	item.BackgroundRemovedImageURI = imageURI
	item.BackgroundRemovedKey = key
	item.ProcessingStatus.BackgroundRemoval = domain.StageCompleted
	item.ProcessingError.BackgroundRemoval = ""
	return nil
}

func (f *clothingRepoFake) SaveCategorization(_ context.Context, id string, cat domain.Categorization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("save:%s", domain.StageCategorization)
	if f.saveCatEr != nil {
		return f.saveCatEr
	}
	item := f.items[id]
	item.Category = cat.Category
	item.Subcategory = cat.Subcategory
	item.Color = cat.Color
	item.Season = cat.Season
	item.Occasion = cat.Occasion
	item.ProcessingStatus.Categorization = domain.StageCompleted
	item.ProcessingError.Categorization = ""
	return nil
}

func (f *clothingRepoFake) RecordUsage(_ context.Context, id string, action domain.UsageAction, at time.Time) (*domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("usage:%s", action)
	item, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "record usage", errors.New(id))
	}
	item.ApplyUsage(action, at)
	copyItem := *item
	return &copyItem, nil
}

func (f *clothingRepoFake) Ping(context.Context) error { return nil }

func (f *clothingRepoFake) item(id string) *domain.ClothingItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

type storageFake struct {
	mu      sync.Mutex
	blobs   map[string]string
	deleted []string
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{blobs: map[string]string{}}
}

func (f *storageFake) Save(_ context.Context, key, _ string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = string(raw)
	return nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.blobs, key)
	return nil
}

func (f *storageFake) URL(key string) string { return "http://blobs/" + key }

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishItemCreated(_ context.Context, itemID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, itemID)
	return nil
}

func (f *queueFake) SubscribeItemCreated(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}
