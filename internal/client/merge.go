package client

import (
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

// RemoteItem is a fetched item that remembers which fields the server sent.
type RemoteItem struct {
	ID     *string `json:"id"`
	UserID *string `json:"userId"`

	ImageURI                  *string `json:"imageUri"`
	ImageKey                  *string `json:"s3ImageKey"`
	BackgroundRemovedImageURI *string `json:"backgroundRemovedImageUri"`
	BackgroundRemovedKey      *string `json:"s3BackgroundRemovedKey"`

	Category     *string   `json:"category"`
	Subcategory  *string   `json:"subcategory"`
	Tags         *[]string `json:"tags"`
	Color        *[]string `json:"color"`
	Season       *[]string `json:"season"`
	Occasion     *[]string `json:"occasion"`
	Brand        *string   `json:"brand"`
	PurchaseDate *string   `json:"purchaseDate"`
	Price        *float64  `json:"price"`

	ProcessingStatus domain.ProcessingStatus `json:"processingStatus"`
	ProcessingError  domain.ProcessingError  `json:"processingError"`

	LastWorn   *time.Time `json:"lastWorn"`
	WearCount  *int       `json:"wearCount"`
	LastWashed *time.Time `json:"lastWashed"`
	WashCount  *int       `json:"washCount"`

	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// MergeItem folds a fetched record into the local copy.
//
// Precedence:
//   - processingStatus and processingError always take the fetched value.
//   - Fields the pipeline writes once (background-removed image, category,
//     subcategory, color, season, occasion) are taken only when non-empty,
//     so a partial response never erases an enrichment already seen.
//   - Every other field is taken whenever the server sent it, zero values
//     included. A price of 0 or an empty tag list is a real value.
func MergeItem(local domain.ClothingItem, remote RemoteItem) domain.ClothingItem {
	out := local

	out.ProcessingStatus = remote.ProcessingStatus
	out.ProcessingError = remote.ProcessingError

	setIfNonEmpty(&out.BackgroundRemovedImageURI, remote.BackgroundRemovedImageURI)
	setIfNonEmpty(&out.BackgroundRemovedKey, remote.BackgroundRemovedKey)
	setIfNonEmpty(&out.Category, remote.Category)
	setIfNonEmpty(&out.Subcategory, remote.Subcategory)
	setSliceIfNonEmpty(&out.Color, remote.Color)
	setSliceIfNonEmpty(&out.Season, remote.Season)
	setSliceIfNonEmpty(&out.Occasion, remote.Occasion)

	setIfPresent(&out.ID, remote.ID)
	setIfPresent(&out.UserID, remote.UserID)
	setIfPresent(&out.ImageURI, remote.ImageURI)
	setIfPresent(&out.ImageKey, remote.ImageKey)
	setIfPresent(&out.Brand, remote.Brand)
	setIfPresent(&out.PurchaseDate, remote.PurchaseDate)
	setIfPresent(&out.Price, remote.Price)
	setIfPresent(&out.WearCount, remote.WearCount)
	setIfPresent(&out.WashCount, remote.WashCount)
	if remote.Tags != nil {
		out.Tags = append([]string{}, (*remote.Tags)...)
	}
	if remote.LastWorn != nil {
		out.LastWorn = remote.LastWorn
	}
	if remote.LastWashed != nil {
		out.LastWashed = remote.LastWashed
	}
	setIfPresent(&out.CreatedAt, remote.CreatedAt)
	setIfPresent(&out.UpdatedAt, remote.UpdatedAt)
	return out
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setIfNonEmpty(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func setSliceIfNonEmpty(dst *[]string, src *[]string) {
	if src != nil && len(*src) > 0 {
		*dst = append([]string{}, (*src)...)
	}
}
