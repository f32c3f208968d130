package domain

import "time"

type Transform struct {
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Scale    float64 `json:"scale" bson:"scale"`
	Rotation float64 `json:"rotation" bson:"rotation"`
}

type OutfitItem struct {
	ClothingItemID string    `json:"clothingItemId" bson:"clothingItemId" validate:"required"`
	Transform      Transform `json:"transform" bson:"transform"`
	ZIndex         int       `json:"zIndex" bson:"zIndex"`

	// ClothingItem is populated on reads and never persisted.
	ClothingItem *ClothingItem `json:"clothingItem,omitempty" bson:"-"`
}

type Outfit struct {
	ID            string       `json:"id" bson:"_id"`
	UserID        string       `json:"userId" bson:"userId"`
	ImageURI      string       `json:"imageUri" bson:"imageUri"`
	ImageKey      string       `json:"s3ImageKey" bson:"s3ImageKey"`
	ClothingItems []OutfitItem `json:"clothingItems" bson:"clothingItems"`
	Tags          []string     `json:"tags" bson:"tags"`
	Season        []string     `json:"season" bson:"season"`
	Occasion      []string     `json:"occasion" bson:"occasion"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// MaxZIndex returns the highest stacking index in the outfit, never below 0.
func (o *Outfit) MaxZIndex() int {
	maxZ := 0
	if o == nil {
		return maxZ
	}
	for _, it := range o.ClothingItems {
		if it.ZIndex > maxZ {
			maxZ = it.ZIndex
		}
	}
	return maxZ
}

// NormalizeItems fills defaults for placements missing a scale.
func (o *Outfit) NormalizeItems() {
	if o.ClothingItems == nil {
		o.ClothingItems = []OutfitItem{}
	}
	for i := range o.ClothingItems {
		if o.ClothingItems[i].Transform.Scale == 0 {
			o.ClothingItems[i].Transform.Scale = 1
		}
		o.ClothingItems[i].ClothingItem = nil
	}
	o.Tags = nonNil(o.Tags)
	o.Season = nonNil(o.Season)
	o.Occasion = nonNil(o.Occasion)
}

// OutfitUpdate is a partial outfit edit; nil fields are left untouched.
type OutfitUpdate struct {
	ClothingItems *[]OutfitItem `json:"clothingItems,omitempty" validate:"omitempty,dive"`
	Tags          *[]string     `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=64"`
	Season        *[]string     `json:"season,omitempty" validate:"omitempty,max=4,dive,max=32"`
	Occasion      *[]string     `json:"occasion,omitempty" validate:"omitempty,max=7,dive,max=32"`
}

func (u OutfitUpdate) Apply(o *Outfit) {
	if u.ClothingItems != nil {
		o.ClothingItems = *u.ClothingItems
	}
	if u.Tags != nil {
		o.Tags = *u.Tags
	}
	if u.Season != nil {
		o.Season = *u.Season
	}
	if u.Occasion != nil {
		o.Occasion = *u.Occasion
	}
	o.NormalizeItems()
}
