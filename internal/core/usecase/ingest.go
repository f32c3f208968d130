package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/ports"
)

type IngestClothingUseCase struct {
	repo    ports.ClothingRepository
	storage ports.ObjectStorage
	queue   ports.ProcessingQueue
	now     func() time.Time
}

func NewIngestClothingUseCase(
	repo ports.ClothingRepository,
	storage ports.ObjectStorage,
	queue ports.ProcessingQueue,
) *IngestClothingUseCase {
	return &IngestClothingUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores the image, creates the item in pending/pending state and
// enqueues it for processing. It never waits for the pipeline.
func (uc *IngestClothingUseCase) Upload(ctx context.Context, userID string, image domain.ImageUpload) (*domain.ClothingItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload clothing", errors.New("userId is required"))
	}
	if image.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload clothing", errors.New("image file is required"))
	}
	ext, err := image.ImageExt()
	if err != nil {
		return nil, err
	}

	key := originalImageKey(userID, ext)
	if err := uc.storage.Save(ctx, key, image.MimeType(), image.Body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	item := domain.NewClothingItem(uuid.NewString(), userID, uc.storage.URL(key), key, uc.now())
	if err := uc.repo.Create(ctx, item); err != nil {
		uc.releaseBlob(ctx, key)
		return nil, fmt.Errorf("create clothing item: %w", err)
	}

	if err := uc.queue.PublishItemCreated(ctx, item.ID); err != nil {
		// Roll back so no item is left pending without a pipeline run.
		if delErr := uc.repo.Delete(ctx, item.ID); delErr != nil {
			slog.Error("rollback_item_failed", "item_id", item.ID, "error", delErr)
		}
		uc.releaseBlob(ctx, key)
		return nil, fmt.Errorf("publish processing event: %w", err)
	}

	slog.Info("clothing_item_created", "item_id", item.ID, "user_id", userID, "image_key", key)
	return item, nil
}

func (uc *IngestClothingUseCase) releaseBlob(ctx context.Context, key string) {
	if err := uc.storage.Delete(ctx, key); err != nil {
		slog.Warn("release_blob_failed", "key", key, "error", err)
	}
}
