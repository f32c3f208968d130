// Package view derives read-only projections from loaded wardrobe
// collections. Nothing here mutates its input.
package view

import (
	"sort"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

// Filter selects items by category and required tags. An empty Category
// behaves like domain.CategoryAll.
type Filter struct {
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return (f.Category == "" || f.Category == domain.CategoryAll) && len(f.Tags) == 0
}

type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// CategoryCounts returns "All" followed by every known category in taxonomy
// order. Items with an unknown or empty category only count towards "All".
func CategoryCounts(items []domain.ClothingItem) []CategoryCount {
	byCategory := make(map[string]int, len(items))
	for _, it := range items {
		byCategory[it.Category]++
	}
	out := make([]CategoryCount, 0, len(domain.Categories())+1)
	out = append(out, CategoryCount{Category: domain.CategoryAll, Count: len(items)})
	for _, c := range domain.Categories() {
		out = append(out, CategoryCount{Category: c, Count: byCategory[c]})
	}
	return out
}

// TagFrequency counts tags across values and orders them by descending
// count. Ties keep the order in which tags were first seen.
func TagFrequency[T any](values []T, tags func(T) []string) []TagCount {
	index := map[string]int{}
	out := []TagCount{}
	for _, v := range values {
		for _, tag := range tags(v) {
			if i, ok := index[tag]; ok {
				out[i].Count++
				continue
			}
			index[tag] = len(out)
			out = append(out, TagCount{Tag: tag, Count: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func ItemTags(it domain.ClothingItem) []string { return it.Tags }
func OutfitTags(o domain.Outfit) []string     { return o.Tags }

// FilterItems keeps items whose category matches and which carry every
// selected tag. A zero filter returns items unchanged.
func FilterItems(items []domain.ClothingItem, f Filter) []domain.ClothingItem {
	if f.IsZero() {
		return items
	}
	out := []domain.ClothingItem{}
	for _, it := range items {
		if f.Category != "" && f.Category != domain.CategoryAll && it.Category != f.Category {
			continue
		}
		if !hasAll(it.Tags, f.Tags) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FilterOutfits applies the tag part of f. Outfits carry no category of
// their own, so the category selection is ignored.
func FilterOutfits(outfits []domain.Outfit, f Filter) []domain.Outfit {
	if len(f.Tags) == 0 {
		return outfits
	}
	out := []domain.Outfit{}
	for _, o := range outfits {
		if hasAll(o.Tags, f.Tags) {
			out = append(out, o)
		}
	}
	return out
}

func hasAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
