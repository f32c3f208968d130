package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type userIDContextKey struct{}

// identityMiddleware resolves the caller from a signed bearer token when a
// secret is configured. Without one, handlers fall back to the userId
// parameter.
func (rt *Router) identityMiddleware(next http.Handler) http.Handler {
	if len(rt.jwtSecret) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeMessageError(w, http.StatusUnauthorized, "Authorization bearer token is required")
			return
		}
		userID, err := parseUserID(token, rt.jwtSecret)
		if err != nil {
			writeMessageError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(headerValue string) (string, bool) {
	headerValue = strings.TrimSpace(headerValue)
	const bearerPrefix = "Bearer "
	if len(headerValue) <= len(bearerPrefix) || !strings.EqualFold(headerValue[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(headerValue[len(bearerPrefix):])
	return token, token != ""
}

func parseUserID(raw string, secret []byte) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	userID, _ := claims["user_id"].(string)
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("token has no user_id claim")
	}
	return userID, nil
}

// userIDFrom returns the authenticated user, or the userId query or
// multipart field when authentication is off. Multipart forms must already
// be parsed.
func userIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(userIDContextKey{}).(string); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("userId")); id != "" {
		return id
	}
	if r.MultipartForm != nil {
		if vals := r.MultipartForm.Value["userId"]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
	}
	return ""
}
