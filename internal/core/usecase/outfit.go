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

type OutfitUseCase struct {
	outfits ports.OutfitRepository
	items   ports.ClothingRepository
	storage ports.ObjectStorage
	now     func() time.Time
}

func NewOutfitUseCase(outfits ports.OutfitRepository, items ports.ClothingRepository, storage ports.ObjectStorage) *OutfitUseCase {
	return &OutfitUseCase{
		outfits: outfits,
		items:   items,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *OutfitUseCase) Create(ctx context.Context, userID string, draft domain.Outfit, image *domain.ImageUpload) (*domain.Outfit, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create outfit", errors.New("userId is required"))
	}

	now := uc.now()
	outfit := draft
	outfit.ID = uuid.NewString()
	outfit.UserID = userID
	outfit.ImageURI, outfit.ImageKey = "", ""
	outfit.CreatedAt, outfit.UpdatedAt = now, now
	outfit.NormalizeItems()
	if err := uc.checkPlacements(ctx, "create outfit", userID, outfit.ClothingItems); err != nil {
		return nil, err
	}

	if image != nil {
		stored, err := uc.saveImage(ctx, userID, *image)
		if err != nil {
			return nil, err
		}
		outfit.ImageURI, outfit.ImageKey = stored.URL, stored.Key
	}

	if err := uc.outfits.Create(ctx, &outfit); err != nil {
		if outfit.ImageKey != "" {
			uc.releaseBlob(ctx, outfit.ImageKey)
		}
		return nil, fmt.Errorf("create outfit: %w", err)
	}
	slog.Info("outfit_created", "outfit_id", outfit.ID, "user_id", userID, "items", len(outfit.ClothingItems))

	if err := uc.populate(ctx, []*domain.Outfit{&outfit}); err != nil {
		return nil, err
	}
	return &outfit, nil
}

func (uc *OutfitUseCase) Get(ctx context.Context, userID, id string) (*domain.Outfit, error) {
	outfit, err := uc.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := uc.populate(ctx, []*domain.Outfit{outfit}); err != nil {
		return nil, err
	}
	return outfit, nil
}

func (uc *OutfitUseCase) List(ctx context.Context, userID string) ([]domain.Outfit, error) {
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list outfits", errors.New("userId is required"))
	}
	outfits, err := uc.outfits.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]*domain.Outfit, len(outfits))
	for i := range outfits {
		refs[i] = &outfits[i]
	}
	if err := uc.populate(ctx, refs); err != nil {
		return nil, err
	}
	return outfits, nil
}

// Update applies a partial edit. A new image replaces the stored one and the
// previous blob is removed only after the record points at the new image.
func (uc *OutfitUseCase) Update(ctx context.Context, userID, id string, upd domain.OutfitUpdate, image *domain.ImageUpload) (*domain.Outfit, error) {
	outfit, err := uc.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	upd.Apply(outfit)
	outfit.UpdatedAt = uc.now()
	if upd.ClothingItems != nil {
		if err := uc.checkPlacements(ctx, "update outfit", outfit.UserID, outfit.ClothingItems); err != nil {
			return nil, err
		}
	}

	previousKey := ""
	if image != nil {
		stored, err := uc.saveImage(ctx, outfit.UserID, *image)
		if err != nil {
			return nil, err
		}
		previousKey = outfit.ImageKey
		outfit.ImageURI, outfit.ImageKey = stored.URL, stored.Key
	}

	if err := uc.outfits.Replace(ctx, outfit); err != nil {
		if image != nil {
			uc.releaseBlob(ctx, outfit.ImageKey)
		}
		return nil, fmt.Errorf("update outfit: %w", err)
	}
	if previousKey != "" {
		uc.releaseBlob(ctx, previousKey)
	}

	if err := uc.populate(ctx, []*domain.Outfit{outfit}); err != nil {
		return nil, err
	}
	return outfit, nil
}

// Delete removes the outfit and its own image; referenced clothing items and
// their blobs are left alone.
func (uc *OutfitUseCase) Delete(ctx context.Context, userID, id string) error {
	outfit, err := uc.load(ctx, userID, id)
	if err != nil {
		return err
	}
	if outfit.ImageKey != "" {
		uc.releaseBlob(ctx, outfit.ImageKey)
	}
	if err := uc.outfits.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete outfit: %w", err)
	}
	slog.Info("outfit_deleted", "outfit_id", id)
	return nil
}

func (uc *OutfitUseCase) load(ctx context.Context, userID, id string) (*domain.Outfit, error) {
	outfit, err := uc.outfits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner("get outfit", userID, outfit.UserID); err != nil {
		return nil, err
	}
	return outfit, nil
}

// checkPlacements rejects placements that point at another user's item.
// Ids that resolve to nothing are allowed and stay unpopulated on read.
func (uc *OutfitUseCase) checkPlacements(ctx context.Context, op, ownerID string, placements []domain.OutfitItem) error {
	ids := placementIDs(placements)
	if len(ids) == 0 {
		return nil
	}
	owned, err := uc.items.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	found := make(map[string]struct{}, len(owned))
	for _, item := range owned {
		found[item.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		_, err := uc.items.GetByID(ctx, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", op, err)
		}
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("clothing item %s", id))
	}
	return nil
}

// populate resolves referenced clothing items with one lookup per owner.
// Items owned by someone else or missing leave the placement unpopulated.
func (uc *OutfitUseCase) populate(ctx context.Context, outfits []*domain.Outfit) error {
	byOwner := map[string][]*domain.Outfit{}
	for _, o := range outfits {
		byOwner[o.UserID] = append(byOwner[o.UserID], o)
	}

	for ownerID, group := range byOwner {
		var placements []domain.OutfitItem
		for _, o := range group {
			placements = append(placements, o.ClothingItems...)
		}
		ids := placementIDs(placements)
		if len(ids) == 0 {
			continue
		}

		items, err := uc.items.ListByIDs(ctx, ownerID, ids)
		if err != nil {
			return fmt.Errorf("populate outfit items: %w", err)
		}
		byID := make(map[string]*domain.ClothingItem, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
		}
		for _, o := range group {
			for i := range o.ClothingItems {
				o.ClothingItems[i].ClothingItem = byID[o.ClothingItems[i].ClothingItemID]
			}
		}
	}
	return nil
}

func placementIDs(placements []domain.OutfitItem) []string {
	seen := map[string]struct{}{}
	ids := []string{}
	for _, placement := range placements {
		if _, ok := seen[placement.ClothingItemID]; ok {
			continue
		}
		seen[placement.ClothingItemID] = struct{}{}
		ids = append(ids, placement.ClothingItemID)
	}
	return ids
}

func (uc *OutfitUseCase) saveImage(ctx context.Context, userID string, image domain.ImageUpload) (*domain.StoredImage, error) {
	ext, err := image.ImageExt()
	if err != nil {
		return nil, err
	}
	key := outfitImageKey(userID, ext)
	if err := uc.storage.Save(ctx, key, image.MimeType(), image.Body); err != nil {
		return nil, fmt.Errorf("save outfit image: %w", err)
	}
	return &domain.StoredImage{URL: uc.storage.URL(key), Key: key, Size: image.Size, MimeType: image.MimeType()}, nil
}

func (uc *OutfitUseCase) releaseBlob(ctx context.Context, key string) {
	if err := uc.storage.Delete(ctx, key); err != nil {
		slog.Warn("release_blob_failed", "key", key, "error", err)
	}
}
