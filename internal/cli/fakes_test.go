package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/ai-closet/internal/client"
	"github.com/kirillkom/ai-closet/internal/core/domain"
)

type fakeBackend struct {
	mu      sync.Mutex
	items   []domain.ClothingItem
	outfits []domain.Outfit

	// fetched is returned by FetchItem; fetches counts the calls.
	fetched client.RemoteItem
	fetches int

	uploaded []string
	deleted  []string
	usage    []string
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) CreateItem(_ context.Context, filename string, image io.Reader) (*domain.ClothingItem, error) {
	raw, err := io.ReadAll(image)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, fmt.Sprintf("%s:%d", filename, len(raw)))
	return domain.NewClothingItem("item-9", "user-1", "http://localhost/uploads/"+filename, filename, time.Time{}), nil
}

func (f *fakeBackend) GetItem(_ context.Context, id string) (*domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			it := f.items[i]
			return &it, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get item", fmt.Errorf("clothing item %s", id))
}

func (f *fakeBackend) FetchItem(_ context.Context, _ string) (client.RemoteItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.fetched, nil
}

func (f *fakeBackend) ListItems(context.Context) ([]domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ClothingItem(nil), f.items...), nil
}

func (f *fakeBackend) UpdateItem(_ context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	it, err := f.GetItem(context.Background(), id)
	if err != nil {
		return nil, err
	}
	upd.Apply(it)
	return it, nil
}

func (f *fakeBackend) DeleteItem(_ context.Context, id string) error {
	if _, err := f.GetItem(context.Background(), id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) RecordUsage(_ context.Context, id string, action domain.UsageAction) (*domain.ClothingItem, error) {
	it, err := f.GetItem(context.Background(), id)
	if err != nil {
		return nil, err
	}
	it.ApplyUsage(action, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = append(f.usage, string(action)+":"+id)
	return it, nil
}

func (f *fakeBackend) ListOutfits(context.Context) ([]domain.Outfit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Outfit(nil), f.outfits...), nil
}

func (f *fakeBackend) DeleteOutfit(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.outfits {
		if o.ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return domain.WrapError(domain.ErrNotFound, "delete outfit", fmt.Errorf("outfit %s", id))
}

func sampleBackend() *fakeBackend {
	return &fakeBackend{
		items: []domain.ClothingItem{
			{
				ID:       "item-1",
				Category: "Tops",
				Tags:     []string{"casual", "summer"},
				ProcessingStatus: domain.ProcessingStatus{
					BackgroundRemoval: domain.StageCompleted,
					Categorization:    domain.StageCompleted,
				},
				WearCount: 2,
				WashCount: 1,
			},
			{
				ID:   "item-2",
				Tags: []string{},
				ProcessingStatus: domain.ProcessingStatus{
					BackgroundRemoval: domain.StagePending,
					Categorization:    domain.StagePending,
				},
			},
			{
				ID:       "item-3",
				Category: "Shoes",
				Tags:     []string{"casual"},
				ProcessingStatus: domain.ProcessingStatus{
					BackgroundRemoval: domain.StageCompleted,
					Categorization:    domain.StageError,
				},
				ProcessingError: domain.ProcessingError{Categorization: "model timeout"},
			},
		},
		outfits: []domain.Outfit{
			{
				ID:   "outfit-1",
				Tags: []string{"weekend"},
				ClothingItems: []domain.OutfitItem{
					{ClothingItemID: "item-1", ZIndex: 0},
					{ClothingItemID: "item-3", ZIndex: 3},
				},
			},
			{
				ID:            "outfit-2",
				Tags:          []string{"weekend", "work"},
				ClothingItems: []domain.OutfitItem{{ClothingItemID: "item-1", ZIndex: 1}},
			},
		},
	}
}

// execute runs the root command against backend and returns stdout, stderr
// and the command error.
func execute(t *testing.T, backend Backend, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("CLOSET_USER_ID", "")
	t.Setenv("CLOSET_TOKEN", "")

	cmd := newRootCommand(func(*RootOptions) Backend { return backend })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
