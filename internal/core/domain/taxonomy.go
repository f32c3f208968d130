package domain

import (
	"fmt"
	"strings"
)

const MaxColors = 5

// CategoryAll is the filter sentinel matching every category.
const CategoryAll = "All"

var categoryOrder = []string{"Tops", "Bottoms", "Dresses", "Outerwear", "Shoes", "Accessories"}

var subcategories = map[string][]string{
	"Tops":        {"T-Shirt", "Shirt", "Blouse", "Sweater", "Hoodie", "Jacket", "Coat", "Tank Top", "Crop Top"},
	"Bottoms":     {"Jeans", "Pants", "Shorts", "Skirt", "Leggings", "Sweatpants"},
	"Dresses":     {"Casual Dress", "Formal Dress", "Sundress", "Maxi Dress", "Midi Dress"},
	"Outerwear":   {"Jacket", "Coat", "Blazer", "Cardigan", "Vest"},
	"Shoes":       {"Sneakers", "Boots", "Heels", "Flats", "Sandals", "Loafers"},
	"Accessories": {"Hat", "Bag", "Belt", "Scarf", "Jewelry", "Watch"},
}

var colors = []string{
	"Black", "White", "Gray", "Navy", "Blue", "Red", "Green", "Yellow", "Orange", "Pink", "Purple", "Brown",
	"Beige", "Tan", "Olive", "Maroon", "Burgundy", "Teal", "Turquoise", "Coral", "Lavender", "Gold", "Silver", "Bronze",
}

var seasons = []string{"Spring", "Summer", "Fall", "Winter"}

var occasions = []string{"Casual", "Work", "Formal", "Party", "Sport", "Beach", "Travel"}

func Categories() []string { return append([]string(nil), categoryOrder...) }

func Subcategories(category string) []string {
	return append([]string(nil), subcategories[category]...)
}

func Colors() []string    { return append([]string(nil), colors...) }
func Seasons() []string   { return append([]string(nil), seasons...) }
func Occasions() []string { return append([]string(nil), occasions...) }

// NormalizeCategorization maps a raw categorizer answer onto the fixed
// enumerations. Category and subcategory must be known and consistent;
// unknown colors, seasons and occasions are dropped and colors are capped at
// MaxColors keeping their rank order.
func NormalizeCategorization(in Categorization) (Categorization, error) {
	category, ok := canonical(categoryOrder, in.Category)
	if !ok {
		return Categorization{}, WrapError(ErrInvalidInput, "normalize categorization", fmt.Errorf("unknown category %q", in.Category))
	}
	subcategory, ok := canonical(subcategories[category], in.Subcategory)
	if !ok {
		return Categorization{}, WrapError(
			ErrInvalidInput,
			"normalize categorization",
			fmt.Errorf("subcategory %q does not belong to %s", in.Subcategory, category),
		)
	}

	out := Categorization{
		Category:    category,
		Subcategory: subcategory,
		Color:       filterKnown(colors, in.Color),
		Season:      filterKnown(seasons, in.Season),
		Occasion:    filterKnown(occasions, in.Occasion),
	}
	if len(out.Color) > MaxColors {
		out.Color = out.Color[:MaxColors]
	}
	return out, nil
}

func canonical(known []string, value string) (string, bool) {
	v := strings.TrimSpace(value)
	for _, k := range known {
		if strings.EqualFold(k, v) {
			return k, true
		}
	}
	return "", false
}

func filterKnown(known []string, values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		c, ok := canonical(known, v)
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
