package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const outfitColumns = `id, user_id, image_uri, image_key, clothing_items, tags, season, occasion, created_at, updated_at`

type OutfitRepository struct {
	db *sql.DB
}

func NewOutfitRepository(db *sql.DB) *OutfitRepository {
	return &OutfitRepository{db: db}
}

func (r *OutfitRepository) Create(ctx context.Context, outfit *domain.Outfit) error {
	items, lists, err := marshalOutfit(outfit)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO outfits (`+outfitColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, outfit.ID, outfit.UserID, outfit.ImageURI, outfit.ImageKey, items, lists[0], lists[1], lists[2], outfit.CreatedAt, outfit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert outfit: %w", err)
	}
	return nil
}

func (r *OutfitRepository) GetByID(ctx context.Context, id string) (*domain.Outfit, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+outfitColumns+` FROM outfits WHERE id = $1`, id)
	outfit, err := scanOutfit(row)
	if err != nil {
		return nil, notFoundOr(err, "get outfit", id)
	}
	return outfit, nil
}

func (r *OutfitRepository) ListByUser(ctx context.Context, userID string) ([]domain.Outfit, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+outfitColumns+`
FROM outfits
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list outfits: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Outfit, 0)
	for rows.Next() {
		outfit, err := scanOutfit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *outfit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outfits: %w", err)
	}
	return out, nil
}

// Replace overwrites every mutable column of an existing outfit.
func (r *OutfitRepository) Replace(ctx context.Context, outfit *domain.Outfit) error {
	items, lists, err := marshalOutfit(outfit)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE outfits
SET image_uri = $2, image_key = $3, clothing_items = $4, tags = $5, season = $6, occasion = $7, updated_at = $8
WHERE id = $1
`, outfit.ID, outfit.ImageURI, outfit.ImageKey, items, lists[0], lists[1], lists[2], outfit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("replace outfit: %w", err)
	}
	return requireAffected(res, "replace outfit", outfit.ID)
}

func (r *OutfitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outfits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete outfit: %w", err)
	}
	return requireAffected(res, "delete outfit", id)
}

func marshalOutfit(outfit *domain.Outfit) ([]byte, [][]byte, error) {
	placements := make([]domain.OutfitItem, len(outfit.ClothingItems))
	for i, it := range outfit.ClothingItems {
		it.ClothingItem = nil
		placements[i] = it
	}
	items, err := marshalList(placements)
	if err != nil {
		return nil, nil, err
	}
	lists, err := marshalItemLists(outfit.Tags, outfit.Season, outfit.Occasion)
	if err != nil {
		return nil, nil, err
	}
	return items, lists, nil
}

func scanOutfit(row rowScanner) (*domain.Outfit, error) {
	var (
		outfit                        domain.Outfit
		items, tags, season, occasion []byte
	)
	err := row.Scan(
		&outfit.ID, &outfit.UserID, &outfit.ImageURI, &outfit.ImageKey,
		&items, &tags, &season, &occasion, &outfit.CreatedAt, &outfit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalList(items, &outfit.ClothingItems); err != nil {
		return nil, fmt.Errorf("scan outfit %s: %w", outfit.ID, err)
	}
	for _, l := range []struct {
		raw []byte
		dst *[]string
	}{{tags, &outfit.Tags}, {season, &outfit.Season}, {occasion, &outfit.Occasion}} {
		if err := unmarshalList(l.raw, l.dst); err != nil {
			return nil, fmt.Errorf("scan outfit %s: %w", outfit.ID, err)
		}
	}
	return &outfit, nil
}
