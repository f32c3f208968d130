// Package vision holds what the categorizer providers share.
package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const UserPrompt = "Please categorize this clothing item based on the image."

// SystemPrompt lists every allowed value so the model answers inside the
// wardrobe taxonomy.
func SystemPrompt() string {
	pairs := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		pairs = append(pairs, fmt.Sprintf("%s: %s", c, strings.Join(domain.Subcategories(c), ", ")))
	}

	return fmt.Sprintf(`You are an assistant that categorizes clothing items based on images.
The possible categories and their subcategories are: %s.
The possible colors are: %s.
The possible seasons are: %s.
The possible occasions are: %s.
Provide the most appropriate category, subcategory, colors, seasons, and occasions for the given clothing item.
The category and subcategory must be selected from the lists above, and the subcategory must belong to the category.
If more than one color applies, provide at most %d colors in order of decreasing prominence.
More than one season or occasion may apply, so provide all that are relevant.`,
		strings.Join(pairs, "; "),
		strings.Join(domain.Colors(), ", "),
		strings.Join(domain.Seasons(), ", "),
		strings.Join(domain.Occasions(), ", "),
		domain.MaxColors,
	)
}

// ParseCategorization decodes the model's JSON answer, tolerating prose or
// code fences around the object.
func ParseCategorization(raw string) (domain.Categorization, error) {
	var out domain.Categorization
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &out); err != nil {
		return domain.Categorization{}, fmt.Errorf("parse categorization json: %w", err)
	}
	return out, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return strings.TrimSpace(raw)
	}
	return raw[start : end+1]
}
