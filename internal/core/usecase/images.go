package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/ports"
)

type ImageUploadUseCase struct {
	storage ports.ObjectStorage
}

func NewImageUploadUseCase(storage ports.ObjectStorage) *ImageUploadUseCase {
	return &ImageUploadUseCase{storage: storage}
}

func (uc *ImageUploadUseCase) UploadImage(ctx context.Context, userID string, image domain.ImageUpload) (*domain.StoredImage, error) {
	if image.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload image", errors.New("image file is required"))
	}
	ext, err := image.ImageExt()
	if err != nil {
		return nil, err
	}
	key := originalImageKey(userID, ext)
	if err := uc.storage.Save(ctx, key, image.MimeType(), image.Body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	return &domain.StoredImage{
		URL:      uc.storage.URL(key),
		Key:      key,
		Size:     image.Size,
		MimeType: image.MimeType(),
	}, nil
}
