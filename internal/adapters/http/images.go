package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const imageResource = "Image"

type uploadedImages struct {
	Files []domain.StoredImage `json:"files"`
}

func (rt *Router) uploadImage(w http.ResponseWriter, r *http.Request) {
	const op = "upload image"
	if err := parseMultipart(w, r, op, rt.maxUploadBytes+multipartSlack); err != nil {
		rt.writeError(w, r, imageResource, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, release, ok, err := rt.formImage(r, op, "image")
	if err != nil {
		rt.writeError(w, r, imageResource, err)
		return
	}
	defer release()
	if !ok {
		writeMessageError(w, http.StatusBadRequest, noImageMessage)
		return
	}

	stored, err := rt.svc.Images.UploadImage(r.Context(), userIDFrom(r), image)
	if err != nil {
		rt.writeError(w, r, imageResource, err)
		return
	}
	rt.recordUpload("image", stored.Size)
	writeJSON(w, http.StatusOK, stored)
}

// uploadImages stores up to maxBatchImages files sent under "images". The
// batch stops at the first rejected file.
func (rt *Router) uploadImages(w http.ResponseWriter, r *http.Request) {
	const op = "upload images"
	if err := parseMultipart(w, r, op, maxBatchImages*rt.maxUploadBytes+multipartSlack); err != nil {
		rt.writeError(w, r, imageResource, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		writeMessageError(w, http.StatusBadRequest, "No image files provided")
		return
	}
	if len(headers) > maxBatchImages {
		writeMessageError(w, http.StatusBadRequest, fmt.Sprintf("At most %d images can be uploaded at once", maxBatchImages))
		return
	}

	userID := userIDFrom(r)
	out := uploadedImages{Files: make([]domain.StoredImage, 0, len(headers))}
	for _, fh := range headers {
		image, release, err := rt.openImage(op, fh)
		if err != nil {
			rt.writeError(w, r, imageResource, err)
			return
		}
		stored, err := rt.svc.Images.UploadImage(r.Context(), userID, image)
		release()
		if err != nil {
			rt.writeError(w, r, imageResource, err)
			return
		}
		rt.recordUpload("image", stored.Size)
		out.Files = append(out.Files, *stored)
	}
	writeJSON(w, http.StatusOK, out)
}
