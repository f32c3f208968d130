package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/ports"
)

type ClothingUseCase struct {
	repo    ports.ClothingRepository
	storage ports.ObjectStorage
	now     func() time.Time
}

func NewClothingUseCase(repo ports.ClothingRepository, storage ports.ObjectStorage) *ClothingUseCase {
	return &ClothingUseCase{
		repo:    repo,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ClothingUseCase) Get(ctx context.Context, userID, id string) (*domain.ClothingItem, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner("get clothing item", userID, item.UserID); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *ClothingUseCase) List(ctx context.Context, userID string) ([]domain.ClothingItem, error) {
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list clothing", errors.New("userId is required"))
	}
	return uc.repo.ListByUser(ctx, userID)
}

func (uc *ClothingUseCase) Update(ctx context.Context, userID, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update clothing item", errors.New("no fields to update"))
	}
	return uc.repo.Update(ctx, id, upd)
}

// Delete removes both image blobs and then the record. Blob failures are
// logged so a missing object never blocks the delete.
func (uc *ClothingUseCase) Delete(ctx context.Context, userID, id string) error {
	item, err := uc.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	for _, key := range []string{item.ImageKey, item.BackgroundRemovedKey} {
		if key == "" {
			continue
		}
		if err := uc.storage.Delete(ctx, key); err != nil {
			slog.Warn("delete_blob_failed", "item_id", item.ID, "key", key, "error", err)
		}
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete clothing item: %w", err)
	}
	slog.Info("clothing_item_deleted", "item_id", id)
	return nil
}

func (uc *ClothingUseCase) RecordUsage(ctx context.Context, userID, id string, action domain.UsageAction) (*domain.ClothingItem, error) {
	if !action.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "record usage", fmt.Errorf("unknown action %q", action))
	}
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return uc.repo.RecordUsage(ctx, id, action, uc.now())
}

// ensureOwner hides records of other users behind ErrNotFound.
func ensureOwner(operation, userID, ownerID string) error {
	if userID == "" || userID == ownerID {
		return nil
	}
	return domain.WrapError(domain.ErrNotFound, operation, errors.New("no such record"))
}
