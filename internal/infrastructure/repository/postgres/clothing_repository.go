package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const clothingColumns = `id, user_id, image_uri, image_key, bg_image_uri, bg_image_key, category, subcategory,
tags, color, season, occasion, brand, purchase_date, price, bg_status, bg_error, cat_status, cat_error,
last_worn, wear_count, last_washed, wash_count, created_at, updated_at`

// stageColumns maps a pipeline stage onto its status and error columns.
var stageColumns = map[domain.Stage][2]string{
	domain.StageBackgroundRemoval: {"bg_status", "bg_error"},
	domain.StageCategorization:    {"cat_status", "cat_error"},
}

type ClothingRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewClothingRepository(db *sql.DB) *ClothingRepository {
	return &ClothingRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ClothingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ClothingRepository) Create(ctx context.Context, item *domain.ClothingItem) error {
	lists, err := marshalItemLists(item.Tags, item.Color, item.Season, item.Occasion)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO clothing_items (`+clothingColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
`,
		item.ID, item.UserID, item.ImageURI, item.ImageKey, item.BackgroundRemovedImageURI, item.BackgroundRemovedKey,
		item.Category, item.Subcategory, lists[0], lists[1], lists[2], lists[3], item.Brand, item.PurchaseDate, item.Price,
		string(item.ProcessingStatus.BackgroundRemoval), item.ProcessingError.BackgroundRemoval,
		string(item.ProcessingStatus.Categorization), item.ProcessingError.Categorization,
		item.LastWorn, item.WearCount, item.LastWashed, item.WashCount, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert clothing item: %w", err)
	}
	return nil
}

func (r *ClothingRepository) GetByID(ctx context.Context, id string) (*domain.ClothingItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clothingColumns+` FROM clothing_items WHERE id = $1`, id)
	item, err := scanClothingItem(row)
	if err != nil {
		return nil, notFoundOr(err, "get clothing item", id)
	}
	return item, nil
}

func (r *ClothingRepository) ListByUser(ctx context.Context, userID string) ([]domain.ClothingItem, error) {
	return r.list(ctx, "list clothing items", `
SELECT `+clothingColumns+`
FROM clothing_items
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
}

// ListByIDs returns the user's items among ids; foreign and unknown ids are
// skipped.
func (r *ClothingRepository) ListByIDs(ctx context.Context, userID string, ids []string) ([]domain.ClothingItem, error) {
	if len(ids) == 0 {
		return []domain.ClothingItem{}, nil
	}
	return r.list(ctx, "list clothing items by id", `
SELECT `+clothingColumns+`
FROM clothing_items
WHERE user_id = $1 AND id = ANY($2)
`, userID, ids)
}

func (r *ClothingRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.ClothingItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]domain.ClothingItem, 0)
	for rows.Next() {
		item, err := scanClothingItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clothing items: %w", err)
	}
	return out, nil
}

// Update writes only the fields set in upd and returns the stored record.
func (r *ClothingRepository) Update(ctx context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	var (
		sets []string
		args = []any{id}
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	setList := func(column string, values *[]string) error {
		if values == nil {
			return nil
		}
		raw, err := marshalList(*values)
		if err != nil {
			return err
		}
		set(column, raw)
		return nil
	}

	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.Subcategory != nil {
		set("subcategory", *upd.Subcategory)
	}
	for _, l := range []struct {
		column string
		values *[]string
	}{{"tags", upd.Tags}, {"color", upd.Color}, {"season", upd.Season}, {"occasion", upd.Occasion}} {
		if err := setList(l.column, l.values); err != nil {
			return nil, err
		}
	}
	if upd.Brand != nil {
		set("brand", *upd.Brand)
	}
	if upd.PurchaseDate != nil {
		set("purchase_date", *upd.PurchaseDate)
	}
	if upd.Price != nil {
		set("price", *upd.Price)
	}
	if len(sets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update clothing item", errors.New("no fields to update"))
	}
	set("updated_at", r.now())

	row := r.db.QueryRowContext(ctx, `
UPDATE clothing_items
SET `+strings.Join(sets, ", ")+`
WHERE id = $1
RETURNING `+clothingColumns, args...)
	item, err := scanClothingItem(row)
	if err != nil {
		return nil, notFoundOr(err, "update clothing item", id)
	}
	return item, nil
}

func (r *ClothingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clothing_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete clothing item: %w", err)
	}
	return requireAffected(res, "delete clothing item", id)
}

// UpdateStageStatus touches only the columns of one stage. The error column
// is cleared unless status is error.
func (r *ClothingRepository) UpdateStageStatus(ctx context.Context, id string, stage domain.Stage, status domain.StageStatus, errMessage string) error {
	cols, ok := stageColumns[stage]
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "update stage status", fmt.Errorf("unknown stage %q", stage))
	}
	if status != domain.StageError {
		errMessage = ""
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
UPDATE clothing_items
SET %s = $2, %s = $3, updated_at = $4
WHERE id = $1
`, cols[0], cols[1]), id, string(status), errMessage, r.now())
	if err != nil {
		return fmt.Errorf("update %s status: %w", stage, err)
	}
	return requireAffected(res, "update stage status", id)
}

func (r *ClothingRepository) SaveBackgroundRemoval(ctx context.Context, id, imageURI, key string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE clothing_items
SET bg_image_uri = $2, bg_image_key = $3, bg_status = $4, bg_error = '', updated_at = $5
WHERE id = $1
`, id, imageURI, key, string(domain.StageCompleted), r.now())
	if err != nil {
		return fmt.Errorf("save background removal: %w", err)
	}
	return requireAffected(res, "save background removal", id)
}

func (r *ClothingRepository) SaveCategorization(ctx context.Context, id string, cat domain.Categorization) error {
	lists, err := marshalItemLists(cat.Color, cat.Season, cat.Occasion)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE clothing_items
SET category = $2, subcategory = $3, color = $4, season = $5, occasion = $6, cat_status = $7, cat_error = '', updated_at = $8
WHERE id = $1
`, id, cat.Category, cat.Subcategory, lists[0], lists[1], lists[2], string(domain.StageCompleted), r.now())
	if err != nil {
		return fmt.Errorf("save categorization: %w", err)
	}
	return requireAffected(res, "save categorization", id)
}

// RecordUsage increments the action's counter in place so concurrent usage
// calls never lose an increment.
func (r *ClothingRepository) RecordUsage(ctx context.Context, id string, action domain.UsageAction, at time.Time) (*domain.ClothingItem, error) {
	var set string
	switch action {
	case domain.UsageWorn:
		set = "wear_count = wear_count + 1, last_worn = $2"
	case domain.UsageWashed:
		set = "wash_count = wash_count + 1, last_washed = $2"
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "record usage", fmt.Errorf("unknown action %q", action))
	}

	row := r.db.QueryRowContext(ctx, `
UPDATE clothing_items
SET `+set+`, updated_at = $3
WHERE id = $1
RETURNING `+clothingColumns, id, at, r.now())
	item, err := scanClothingItem(row)
	if err != nil {
		return nil, notFoundOr(err, "record usage", id)
	}
	return item, nil
}

func scanClothingItem(row rowScanner) (*domain.ClothingItem, error) {
	var (
		item                          domain.ClothingItem
		tags, color, season, occasion []byte
		bgStatus, catStatus           string
		lastWorn, lastWashed          sql.NullTime
	)
	err := row.Scan(
		&item.ID, &item.UserID, &item.ImageURI, &item.ImageKey, &item.BackgroundRemovedImageURI, &item.BackgroundRemovedKey,
		&item.Category, &item.Subcategory, &tags, &color, &season, &occasion, &item.Brand, &item.PurchaseDate, &item.Price,
		&bgStatus, &item.ProcessingError.BackgroundRemoval, &catStatus, &item.ProcessingError.Categorization,
		&lastWorn, &item.WearCount, &lastWashed, &item.WashCount, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, l := range []struct {
		raw []byte
		dst *[]string
	}{{tags, &item.Tags}, {color, &item.Color}, {season, &item.Season}, {occasion, &item.Occasion}} {
		if err := unmarshalList(l.raw, l.dst); err != nil {
			return nil, fmt.Errorf("scan clothing item %s: %w", item.ID, err)
		}
	}
	item.ProcessingStatus = domain.ProcessingStatus{
		BackgroundRemoval: domain.StageStatus(bgStatus),
		Categorization:    domain.StageStatus(catStatus),
	}
	if lastWorn.Valid {
		item.LastWorn = &lastWorn.Time
	}
	if lastWashed.Valid {
		item.LastWashed = &lastWashed.Time
	}
	return &item, nil
}

func marshalItemLists(lists ...[]string) ([][]byte, error) {
	out := make([][]byte, 0, len(lists))
	for _, l := range lists {
		raw, err := marshalList(l)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func notFoundOr(err error, op, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("record %s", id))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("record %s", id))
	}
	return nil
}
