package domain

import "time"

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
	StageError      StageStatus = "error"
)

// Terminal reports whether no further automatic transition can happen.
func (s StageStatus) Terminal() bool {
	return s == StageCompleted || s == StageError
}

type Stage string

const (
	StageBackgroundRemoval Stage = "backgroundRemoval"
	StageCategorization    Stage = "categorization"
)

type ProcessingStatus struct {
	BackgroundRemoval StageStatus `json:"backgroundRemoval" bson:"backgroundRemoval"`
	Categorization    StageStatus `json:"categorization" bson:"categorization"`
}

func (p ProcessingStatus) Of(stage Stage) StageStatus {
	if stage == StageBackgroundRemoval {
		return p.BackgroundRemoval
	}
	return p.Categorization
}

// Done is true once both stages reached a terminal state.
func (p ProcessingStatus) Done() bool {
	return p.BackgroundRemoval.Terminal() && p.Categorization.Terminal()
}

type ProcessingError struct {
	BackgroundRemoval string `json:"backgroundRemoval,omitempty" bson:"backgroundRemoval,omitempty"`
	Categorization    string `json:"categorization,omitempty" bson:"categorization,omitempty"`
}

func (p ProcessingError) Of(stage Stage) string {
	if stage == StageBackgroundRemoval {
		return p.BackgroundRemoval
	}
	return p.Categorization
}

type ClothingItem struct {
	ID     string `json:"id" bson:"_id"`
	UserID string `json:"userId" bson:"userId"`

	ImageURI                  string `json:"imageUri" bson:"imageUri"`
	ImageKey                  string `json:"s3ImageKey" bson:"s3ImageKey"`
	BackgroundRemovedImageURI string `json:"backgroundRemovedImageUri" bson:"backgroundRemovedImageUri"`
	BackgroundRemovedKey      string `json:"s3BackgroundRemovedKey" bson:"s3BackgroundRemovedKey"`

	Category     string   `json:"category" bson:"category"`
	Subcategory  string   `json:"subcategory" bson:"subcategory"`
	Tags         []string `json:"tags" bson:"tags"`
	Color        []string `json:"color" bson:"color"`
	Season       []string `json:"season" bson:"season"`
	Occasion     []string `json:"occasion" bson:"occasion"`
	Brand        string   `json:"brand" bson:"brand"`
	PurchaseDate string   `json:"purchaseDate" bson:"purchaseDate"`
	Price        float64  `json:"price" bson:"price"`

	ProcessingStatus ProcessingStatus `json:"processingStatus" bson:"processingStatus"`
	ProcessingError  ProcessingError  `json:"processingError" bson:"processingError"`

	LastWorn   *time.Time `json:"lastWorn,omitempty" bson:"lastWorn,omitempty"`
	WearCount  int        `json:"wearCount" bson:"wearCount"`
	LastWashed *time.Time `json:"lastWashed,omitempty" bson:"lastWashed,omitempty"`
	WashCount  int        `json:"washCount" bson:"washCount"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewClothingItem returns a freshly uploaded item with both stages pending
// and every enrichment field empty.
func NewClothingItem(id, userID, imageURI, imageKey string, now time.Time) *ClothingItem {
	return &ClothingItem{
		ID:       id,
		UserID:   userID,
		ImageURI: imageURI,
		ImageKey: imageKey,
		Tags:     []string{},
		Color:    []string{},
		Season:   []string{},
		Occasion: []string{},
		ProcessingStatus: ProcessingStatus{
			BackgroundRemoval: StagePending,
			Categorization:    StagePending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClothingItemUpdate carries a user edit; nil fields are left untouched.
type ClothingItemUpdate struct {
	Category     *string   `json:"category,omitempty" validate:"omitempty,max=64"`
	Subcategory  *string   `json:"subcategory,omitempty" validate:"omitempty,max=64"`
	Tags         *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=64"`
	Color        *[]string `json:"color,omitempty" validate:"omitempty,max=24,dive,max=32"`
	Season       *[]string `json:"season,omitempty" validate:"omitempty,max=4,dive,max=32"`
	Occasion     *[]string `json:"occasion,omitempty" validate:"omitempty,max=7,dive,max=32"`
	Brand        *string   `json:"brand,omitempty" validate:"omitempty,max=128"`
	PurchaseDate *string   `json:"purchaseDate,omitempty" validate:"omitempty,max=32"`
	Price        *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
}

func (u ClothingItemUpdate) Empty() bool {
	return u.Category == nil && u.Subcategory == nil && u.Tags == nil && u.Color == nil &&
		u.Season == nil && u.Occasion == nil && u.Brand == nil && u.PurchaseDate == nil && u.Price == nil
}

// Apply copies the set fields onto item.
func (u ClothingItemUpdate) Apply(item *ClothingItem) {
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Subcategory != nil {
		item.Subcategory = *u.Subcategory
	}
	if u.Tags != nil {
		item.Tags = nonNil(*u.Tags)
	}
	if u.Color != nil {
		item.Color = nonNil(*u.Color)
	}
	if u.Season != nil {
		item.Season = nonNil(*u.Season)
	}
	if u.Occasion != nil {
		item.Occasion = nonNil(*u.Occasion)
	}
	if u.Brand != nil {
		item.Brand = *u.Brand
	}
	if u.PurchaseDate != nil {
		item.PurchaseDate = *u.PurchaseDate
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
}

type UsageAction string

const (
	UsageWorn   UsageAction = "worn"
	UsageWashed UsageAction = "washed"
)

func (a UsageAction) Valid() bool {
	return a == UsageWorn || a == UsageWashed
}

// ApplyUsage increments the counter that belongs to action and stamps it
// with at. The other counter is never touched.
func (item *ClothingItem) ApplyUsage(action UsageAction, at time.Time) {
	switch action {
	case UsageWorn:
		item.WearCount++
		item.LastWorn = &at
	case UsageWashed:
		item.WashCount++
		item.LastWashed = &at
	}
}

// Categorization is the structured answer of the categorizer.
type Categorization struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Color       []string `json:"color"`
	Season      []string `json:"season"`
	Occasion    []string `json:"occasion"`
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
