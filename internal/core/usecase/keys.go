package usecase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func originalImageKey(userID, ext string) string {
	return fmt.Sprintf("%s/original/%s%s", userScope(userID), uuid.NewString(), ext)
}

func backgroundRemovedKey(userID string) string {
	return fmt.Sprintf("%s/background-removed/%s.png", userScope(userID), uuid.NewString())
}

func outfitImageKey(userID, ext string) string {
	return fmt.Sprintf("%s/outfits/%s%s", userScope(userID), uuid.NewString(), ext)
}

// userScope turns a user id into a single safe key segment.
func userScope(userID string) string {
	scope := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '@':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(userID))
	if scope == "" {
		return "anonymous"
	}
	return scope
}
