package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

// ClothingRepository persists clothing items. Every mutation is a
// single-record update so concurrent writers never overwrite each other's
// fields.
type ClothingRepository interface {
	Create(ctx context.Context, item *domain.ClothingItem) error
	GetByID(ctx context.Context, id string) (*domain.ClothingItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ClothingItem, error)
	ListByIDs(ctx context.Context, userID string, ids []string) ([]domain.ClothingItem, error)
	Update(ctx context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error)
	Delete(ctx context.Context, id string) error

	UpdateStageStatus(ctx context.Context, id string, stage domain.Stage, status domain.StageStatus, errMessage string) error
	SaveBackgroundRemoval(ctx context.Context, id, imageURI, key string) error
	SaveCategorization(ctx context.Context, id string, cat domain.Categorization) error
	RecordUsage(ctx context.Context, id string, action domain.UsageAction, at time.Time) (*domain.ClothingItem, error)

	Ping(ctx context.Context) error
}

// OutfitRepository persists outfits.
type OutfitRepository interface {
	Create(ctx context.Context, outfit *domain.Outfit) error
	GetByID(ctx context.Context, id string) (*domain.Outfit, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Outfit, error)
	Replace(ctx context.Context, outfit *domain.Outfit) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores image blobs and resolves their public location.
type ObjectStorage interface {
	Save(ctx context.Context, key, contentType string, data io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ProcessingQueue hands freshly created items to the pipeline.
type ProcessingQueue interface {
	PublishItemCreated(ctx context.Context, itemID string) error
	SubscribeItemCreated(ctx context.Context, handler func(context.Context, string) error) error
}

// BackgroundRemover submits a removal job and polls it to a tagged outcome.
// An error is returned only when the job could not be driven at all.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, imageURL string) (domain.RemovalResult, error)
}

// ImageFetcher downloads image bytes by location.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// ClothingCategorizer returns structured attributes for an image.
type ClothingCategorizer interface {
	Categorize(ctx context.Context, imageURL string) (domain.Categorization, error)
}

// StageObserver receives stage outcomes for metrics.
type StageObserver interface {
	ObserveStage(stage domain.Stage, status domain.StageStatus, duration time.Duration)
}
