package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

var statusByKind = map[error]int{
	domain.ErrInvalidInput: http.StatusBadRequest,
	domain.ErrUnauthorized: http.StatusUnauthorized,
	domain.ErrNotFound:     http.StatusNotFound,
	domain.ErrTemporary:    http.StatusServiceUnavailable,
}

func mapErrorToHTTPStatus(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// publicMessage is the client-facing text for err. Only input and auth
// failures echo the cause; everything else is generic so internals never
// leak in production.
func publicMessage(status int, resource string, err error) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return causeMessage(err)
	case http.StatusNotFound:
		return resource + " not found"
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "Request timed out"
	default:
		return "Internal server error"
	}
}
