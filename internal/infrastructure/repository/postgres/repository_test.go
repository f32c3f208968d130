package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

// passthrough lets list arguments reach the mock the way pgx accepts them.
type passthrough struct{}

func (passthrough) ConvertValue(v any) (driver.Value, error) { return v, nil }

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newClothingRepoWithMock(t *testing.T) (*ClothingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := NewClothingRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func clothingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "image_uri", "image_key", "bg_image_uri", "bg_image_key", "category", "subcategory",
		"tags", "color", "season", "occasion", "brand", "purchase_date", "price", "bg_status", "bg_error",
		"cat_status", "cat_error", "last_worn", "wear_count", "last_washed", "wash_count", "created_at", "updated_at",
	})
}

func addItemRow(rows *sqlmock.Rows, id string, wearCount int, lastWorn any) *sqlmock.Rows {
	return rows.AddRow(
		id, "u-1", "http://img/"+id+".jpg", "u-1/original/"+id+".jpg", "", "", "Tops", "T-Shirt",
		[]byte(`["fav"]`), []byte(`["Black"]`), []byte(`[]`), []byte(`null`), "", "", 0.0,
		"completed", "", "error", "model refused",
		lastWorn, wearCount, nil, 0, fixedNow, fixedNow,
	)
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDMapsRowAndLists(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	mock.ExpectQuery("FROM clothing_items WHERE id").
		WithArgs("i-1").
		WillReturnRows(addItemRow(clothingRows(), "i-1", 0, nil))

	item, err := repo.GetByID(context.Background(), "i-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if item.ProcessingStatus.BackgroundRemoval != domain.StageCompleted || item.ProcessingStatus.Categorization != domain.StageError {
		t.Fatalf("unexpected status %+v", item.ProcessingStatus)
	}
	if item.ProcessingError.Categorization != "model refused" {
		t.Fatalf("unexpected processing error %+v", item.ProcessingError)
	}
	if len(item.Tags) != 1 || item.Color[0] != "Black" || item.Season == nil || item.Occasion == nil {
		t.Fatalf("unexpected lists %+v", item)
	}
	if item.LastWorn != nil {
		t.Fatalf("expected nil lastWorn")
	}
	expectMet(t, mock)
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	mock.ExpectQuery("FROM clothing_items WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestListByUserOrdersNewestFirst(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	rows := addItemRow(addItemRow(clothingRows(), "i-2", 0, nil), "i-1", 0, nil)
	mock.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("u-1").
		WillReturnRows(rows)

	items, err := repo.ListByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "i-2" {
		t.Fatalf("unexpected items %+v", items)
	}
	expectMet(t, mock)
}

func TestListByIDsScopesToOwner(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)

	items, err := repo.ListByIDs(context.Background(), "user-1", nil)
	if err != nil || len(items) != 0 {
		t.Fatalf("ListByIDs(nil) = %v, %v", items, err)
	}

	mock.ExpectQuery(`WHERE user_id = \$1 AND id = ANY\(\$2\)`).
		WithArgs("user-1", []string{"i-1"}).
		WillReturnRows(addItemRow(clothingRows(), "i-1", 0, nil))
	items, err = repo.ListByIDs(context.Background(), "user-1", []string{"i-1"})
	if err != nil || len(items) != 1 {
		t.Fatalf("ListByIDs() = %v, %v", items, err)
	}
	expectMet(t, mock)
}

func TestUpdateStageStatusTouchesOnlyItsStage(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	mock.ExpectExec(`SET cat_status = \$2, cat_error = \$3, updated_at = \$4`).
		WithArgs("i-1", "processing", "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// A message passed with a non-error status is dropped.
	err := repo.UpdateStageStatus(context.Background(), "i-1", domain.StageCategorization, domain.StageProcessing, "stale")
	if err != nil {
		t.Fatalf("UpdateStageStatus() error = %v", err)
	}
	expectMet(t, mock)
}

func TestUpdateStageStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	mock.ExpectExec(`SET bg_status = \$2, bg_error = \$3`).
		WithArgs("missing", "error", "boom", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStageStatus(context.Background(), "missing", domain.StageBackgroundRemoval, domain.StageError, "boom")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestSaveCategorizationWritesEnumerationsAndCompletes(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	mock.ExpectExec("UPDATE clothing_items").
		WithArgs("i-1", "Shoes", "Boots", []byte(`["Brown"]`), []byte(`["Fall","Winter"]`), []byte(`[]`), "completed", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveCategorization(context.Background(), "i-1", domain.Categorization{
		Category:    "Shoes",
		Subcategory: "Boots",
		Color:       []string{"Brown"},
		Season:      []string{"Fall", "Winter"},
	})
	if err != nil {
		t.Fatalf("SaveCategorization() error = %v", err)
	}
	expectMet(t, mock)
}

func TestUpdateBuildsPartialSet(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	brand := "Acme"
	price := 0.0
	mock.ExpectQuery(`SET brand = \$2, price = \$3, updated_at = \$4\s+WHERE id = \$1\s+RETURNING`).
		WithArgs("i-1", "Acme", 0.0, fixedNow).
		WillReturnRows(addItemRow(clothingRows(), "i-1", 0, nil))

	if _, err := repo.Update(context.Background(), "i-1", domain.ClothingItemUpdate{Brand: &brand, Price: &price}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := repo.Update(context.Background(), "i-1", domain.ClothingItemUpdate{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty update, got %v", err)
	}
	expectMet(t, mock)
}

func TestRecordUsageIncrementsInPlace(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	at := fixedNow.Add(-time.Hour)
	mock.ExpectQuery(`SET wear_count = wear_count \+ 1, last_worn = \$2, updated_at = \$3`).
		WithArgs("i-1", at, fixedNow).
		WillReturnRows(addItemRow(clothingRows(), "i-1", 3, at))

	item, err := repo.RecordUsage(context.Background(), "i-1", domain.UsageWorn, at)
	if err != nil {
		t.Fatalf("RecordUsage() error = %v", err)
	}
	if item.WearCount != 3 || item.LastWorn == nil || !item.LastWorn.Equal(at) {
		t.Fatalf("unexpected usage %+v", item)
	}
	if _, err := repo.RecordUsage(context.Background(), "i-1", "ironed", at); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	expectMet(t, mock)
}

func TestDeleteReturnsDomainNotFound(t *testing.T) {
	repo, mock := newClothingRepoWithMock(t)
	mock.ExpectExec("DELETE FROM clothing_items").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestOutfitReplaceStripsPopulatedItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewOutfitRepository(db)

	outfit := &domain.Outfit{
		ID: "o-1",
		ClothingItems: []domain.OutfitItem{{
			ClothingItemID: "i-1",
			Transform:      domain.Transform{Scale: 1},
			ZIndex:         2,
			ClothingItem:   &domain.ClothingItem{ID: "i-1"},
		}},
		UpdatedAt: fixedNow,
	}
	wantItems := `[{"clothingItemId":"i-1","transform":{"x":0,"y":0,"scale":1,"rotation":0},"zIndex":2}]`
	mock.ExpectExec("UPDATE outfits").
		WithArgs("o-1", "", "", []byte(wantItems), []byte(`[]`), []byte(`[]`), []byte(`[]`), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Replace(context.Background(), outfit); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if outfit.ClothingItems[0].ClothingItem == nil {
		t.Fatalf("Replace must not mutate the caller's outfit")
	}
	expectMet(t, mock)
}

func TestOutfitGetByIDDecodesPlacements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewOutfitRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "image_uri", "image_key", "clothing_items", "tags", "season", "occasion", "created_at", "updated_at"}).
		AddRow("o-1", "u-1", "", "", []byte(`[{"clothingItemId":"i-1","transform":{"x":1,"y":2,"scale":1.5,"rotation":90},"zIndex":4}]`),
			[]byte(`["date"]`), []byte(`[]`), []byte(`[]`), fixedNow, fixedNow)
	mock.ExpectQuery("FROM outfits WHERE id").WithArgs("o-1").WillReturnRows(rows)

	outfit, err := repo.GetByID(context.Background(), "o-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(outfit.ClothingItems) != 1 || outfit.ClothingItems[0].Transform.Scale != 1.5 || outfit.MaxZIndex() != 4 {
		t.Fatalf("unexpected outfit %+v", outfit)
	}
	expectMet(t, mock)
}
