package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessageError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Message: message}})
}

// writeError maps err to a status and a client-facing message. resource names
// the record for 404 responses. Outside production the full error chain is
// attached as detail.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, resource string, err error) {
	status := mapErrorToHTTPStatus(err)

	message := publicMessage(status, resource, err)

	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if status >= 500 {
		slog.Error("http_request_failed", attrs...)
	} else {
		slog.Debug("http_request_rejected", attrs...)
	}

	body := errorBody{Error: errorDetail{Message: message}}
	if !rt.production {
		body.Error.Detail = err.Error()
	}
	writeJSON(w, status, body)
}

// causeMessage returns the innermost error text of a domain.WrapError chain.
func causeMessage(err error) string {
	for {
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			if len(errs) == 0 {
				return err.Error()
			}
			err = errs[len(errs)-1]
		case interface{ Unwrap() error }:
			next := u.Unwrap()
			if next == nil {
				return err.Error()
			}
			err = next
		default:
			return err.Error()
		}
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs struct tags and reports the first failure as invalid
// input naming the JSON field.
func validateStruct(op string, v any) error {
	err := requestValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("%s failed %s validation", fe.Namespace(), fe.Tag()))
	}
	return domain.WrapError(domain.ErrInvalidInput, op, err)
}

// decodeJSON reads a single JSON object and validates it. Unknown fields are
// ignored so clients may send back whole records.
func decodeJSON(r *http.Request, op string, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.WrapError(domain.ErrInvalidInput, op, errors.New("request body is required"))
		}
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("invalid JSON body: %w", err))
	}
	return validateStruct(op, dst)
}
