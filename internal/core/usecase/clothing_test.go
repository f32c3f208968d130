package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

func ownedItem() *domain.ClothingItem {
	item := pendingItem()
	item.BackgroundRemovedKey = "user-1/background-removed/b.png"
	return item
}

func TestClothingGetHidesOtherUsersItems(t *testing.T) {
	uc := NewClothingUseCase(newClothingRepoFake(ownedItem()), newStorageFake())

	if _, err := uc.Get(context.Background(), "user-1", "item-1"); err != nil {
		t.Fatalf("Get() owner error = %v", err)
	}
	if _, err := uc.Get(context.Background(), "", "item-1"); err != nil {
		t.Fatalf("Get() without identity error = %v", err)
	}
	_, err := uc.Get(context.Background(), "user-2", "item-1")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign item, got %v", err)
	}
}

func TestClothingDeleteRemovesBothBlobs(t *testing.T) {
	repo := newClothingRepoFake(ownedItem())
	storage := newStorageFake()
	uc := NewClothingUseCase(repo, storage)

	if err := uc.Delete(context.Background(), "user-1", "item-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if strings.Join(storage.deleted, ",") != "user-1/original/a.jpg,user-1/background-removed/b.png" {
		t.Fatalf("unexpected deleted blobs %v", storage.deleted)
	}
	if repo.item("item-1") != nil {
		t.Fatalf("expected record deleted")
	}
}

func TestClothingUpdateRejectsEmptyEdit(t *testing.T) {
	uc := NewClothingUseCase(newClothingRepoFake(ownedItem()), newStorageFake())
	_, err := uc.Update(context.Background(), "user-1", "item-1", domain.ClothingItemUpdate{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClothingUpdateKeepsZeroPrice(t *testing.T) {
	item := ownedItem()
	item.Price = 40
	uc := NewClothingUseCase(newClothingRepoFake(item), newStorageFake())

	zero := 0.0
	brand := "Acme"
	got, err := uc.Update(context.Background(), "user-1", "item-1", domain.ClothingItemUpdate{Price: &zero, Brand: &brand})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Price != 0 || got.Brand != "Acme" {
		t.Fatalf("unexpected update result %+v", got)
	}
}

func TestClothingRecordUsage(t *testing.T) {
	repo := newClothingRepoFake(ownedItem())
	uc := NewClothingUseCase(repo, newStorageFake())

	got, err := uc.RecordUsage(context.Background(), "user-1", "item-1", domain.UsageWorn)
	if err != nil {
		t.Fatalf("RecordUsage() error = %v", err)
	}
	if got.WearCount != 1 || got.LastWorn == nil || got.WashCount != 0 {
		t.Fatalf("unexpected usage result %+v", got)
	}

	_, err = uc.RecordUsage(context.Background(), "user-1", "item-1", domain.UsageAction("ironed"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
