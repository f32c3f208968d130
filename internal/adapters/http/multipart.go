package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const noImageMessage = "No image file provided"

// parseMultipart caps the body at limit bytes and parses the form. An
// oversized body is reported as invalid input.
func parseMultipart(w http.ResponseWriter, r *http.Request, op string, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.WrapError(domain.ErrInvalidInput, op, errors.New("request body too large"))
		}
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("invalid multipart form: %w", err))
	}
	return nil
}

// formImage opens the first file under field. ok is false when the field is
// absent. The returned closer must be called once the upload was consumed.
func (rt *Router) formImage(r *http.Request, op, field string) (domain.ImageUpload, func(), bool, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return domain.ImageUpload{}, func() {}, false, nil
	}
	upload, closeFn, err := rt.openImage(op, r.MultipartForm.File[field][0])
	return upload, closeFn, err == nil, err
}

func (rt *Router) openImage(op string, fh *multipart.FileHeader) (domain.ImageUpload, func(), error) {
	if fh.Size > rt.maxUploadBytes {
		return domain.ImageUpload{}, func() {}, domain.WrapError(domain.ErrInvalidInput, op, errors.New("image exceeds upload limit"))
	}
	f, err := fh.Open()
	if err != nil {
		return domain.ImageUpload{}, func() {}, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("open upload: %w", err))
	}
	return domain.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// formJSON decodes a multipart field holding a JSON document. present is
// false when the field was not sent.
func formJSON(r *http.Request, op, field string, dst any) (present bool, err error) {
	if r.MultipartForm == nil {
		return false, nil
	}
	vals, ok := r.MultipartForm.Value[field]
	if !ok || len(vals) == 0 {
		return false, nil
	}
	raw := strings.TrimSpace(vals[0])
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("field %s must be valid JSON: %w", field, err))
	}
	return true, nil
}
