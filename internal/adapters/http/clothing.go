package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const clothingResource = "Clothing item"

type usageRequest struct {
	Action domain.UsageAction `json:"action" validate:"required,oneof=worn washed"`
}

func (rt *Router) listClothing(w http.ResponseWriter, r *http.Request) {
	items, err := rt.svc.Clothing.List(r.Context(), userIDFrom(r))
	if err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (rt *Router) getClothing(w http.ResponseWriter, r *http.Request) {
	item, err := rt.svc.Clothing.Get(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// createClothing stores the image and answers with the pending item at once;
// enrichment happens in the background.
func (rt *Router) createClothing(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, "create clothing", rt.maxUploadBytes+multipartSlack); err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, release, ok, err := rt.formImage(r, "create clothing", "image")
	if err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	defer release()
	if !ok {
		writeMessageError(w, http.StatusBadRequest, noImageMessage)
		return
	}

	item, err := rt.svc.Ingest.Upload(r.Context(), userIDFrom(r), image)
	if err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	rt.recordUpload("clothing", image.Size)
	writeJSON(w, http.StatusCreated, item)
}

func (rt *Router) updateClothing(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, defaultBodyLimit)
	var upd domain.ClothingItemUpdate
	if err := decodeJSON(r, "update clothing item", &upd); err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	item, err := rt.svc.Clothing.Update(r.Context(), userIDFrom(r), chi.URLParam(r, "id"), upd)
	if err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (rt *Router) deleteClothing(w http.ResponseWriter, r *http.Request) {
	if err := rt.svc.Clothing.Delete(r.Context(), userIDFrom(r), chi.URLParam(r, "id")); err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Clothing item deleted successfully"})
}

func (rt *Router) recordUsage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, defaultBodyLimit)
	var req usageRequest
	if err := decodeJSON(r, "record usage", &req); err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	item, err := rt.svc.Clothing.RecordUsage(r.Context(), userIDFrom(r), chi.URLParam(r, "id"), req.Action)
	if err != nil {
		rt.writeError(w, r, clothingResource, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
