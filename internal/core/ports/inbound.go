package ports

import (
	"context"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

// ClothingIngestor is the inbound contract for item upload orchestration.
type ClothingIngestor interface {
	Upload(ctx context.Context, userID string, image domain.ImageUpload) (*domain.ClothingItem, error)
}

// ClothingService is the inbound read/edit model for clothing items. An
// empty userID skips the ownership check.
type ClothingService interface {
	Get(ctx context.Context, userID, id string) (*domain.ClothingItem, error)
	List(ctx context.Context, userID string) ([]domain.ClothingItem, error)
	Update(ctx context.Context, userID, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error)
	Delete(ctx context.Context, userID, id string) error
	RecordUsage(ctx context.Context, userID, id string, action domain.UsageAction) (*domain.ClothingItem, error)
}

// ClothingProcessor is the inbound contract for asynchronous item processing.
type ClothingProcessor interface {
	ProcessByID(ctx context.Context, itemID string) error
}

type OutfitService interface {
	Create(ctx context.Context, userID string, draft domain.Outfit, image *domain.ImageUpload) (*domain.Outfit, error)
	Get(ctx context.Context, userID, id string) (*domain.Outfit, error)
	List(ctx context.Context, userID string) ([]domain.Outfit, error)
	Update(ctx context.Context, userID, id string, upd domain.OutfitUpdate, image *domain.ImageUpload) (*domain.Outfit, error)
	Delete(ctx context.Context, userID, id string) error
}

// ImageUploader stores loose images that are not yet attached to a record.
type ImageUploader interface {
	UploadImage(ctx context.Context, userID string, image domain.ImageUpload) (*domain.StoredImage, error)
}
