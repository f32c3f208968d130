package httpadapter

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const outfitResource = "Outfit"

func (rt *Router) listOutfits(w http.ResponseWriter, r *http.Request) {
	outfits, err := rt.svc.Outfits.List(r.Context(), userIDFrom(r))
	if err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	writeJSON(w, http.StatusOK, outfits)
}

func (rt *Router) getOutfit(w http.ResponseWriter, r *http.Request) {
	outfit, err := rt.svc.Outfits.Get(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	writeJSON(w, http.StatusOK, outfit)
}

// createOutfit reads clothingItems, tags, season and occasion as JSON-encoded
// multipart fields next to an optional image.
func (rt *Router) createOutfit(w http.ResponseWriter, r *http.Request) {
	const op = "create outfit"
	if err := parseMultipart(w, r, op, rt.maxUploadBytes+multipartSlack); err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	upd, err := outfitFields(r, op)
	if err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	var draft domain.Outfit
	upd.Apply(&draft)

	image, release, ok, err := rt.formImage(r, op, "image")
	if err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	defer release()

	var imagePtr *domain.ImageUpload
	if ok {
		imagePtr = &image
	}
	outfit, err := rt.svc.Outfits.Create(r.Context(), userIDFrom(r), draft, imagePtr)
	if err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	if ok {
		rt.recordUpload("outfit", image.Size)
	}
	writeJSON(w, http.StatusCreated, outfit)
}

// updateOutfit accepts the same multipart fields as create, or a plain JSON
// body when no image is replaced. Omitted fields keep their value.
func (rt *Router) updateOutfit(w http.ResponseWriter, r *http.Request) {
	const op = "update outfit"
	var (
		upd      domain.OutfitUpdate
		imagePtr *domain.ImageUpload
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		r.Body = http.MaxBytesReader(w, r.Body, defaultBodyLimit)
		if err := decodeJSON(r, op, &upd); err != nil {
			rt.writeError(w, r, outfitResource, err)
			return
		}
	} else {
		if err := parseMultipart(w, r, op, rt.maxUploadBytes+multipartSlack); err != nil {
			rt.writeError(w, r, outfitResource, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		var err error
		if upd, err = outfitFields(r, op); err != nil {
			rt.writeError(w, r, outfitResource, err)
			return
		}
		image, release, ok, err := rt.formImage(r, op, "image")
		if err != nil {
			rt.writeError(w, r, outfitResource, err)
			return
		}
		defer release()
		if ok {
			imagePtr = &image
		}
	}

	outfit, err := rt.svc.Outfits.Update(r.Context(), userIDFrom(r), chi.URLParam(r, "id"), upd, imagePtr)
	if err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	if imagePtr != nil {
		rt.recordUpload("outfit", imagePtr.Size)
	}
	writeJSON(w, http.StatusOK, outfit)
}

func (rt *Router) deleteOutfit(w http.ResponseWriter, r *http.Request) {
	if err := rt.svc.Outfits.Delete(r.Context(), userIDFrom(r), chi.URLParam(r, "id")); err != nil {
		rt.writeError(w, r, outfitResource, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Outfit deleted successfully"})
}

func outfitFields(r *http.Request, op string) (domain.OutfitUpdate, error) {
	var (
		upd                    domain.OutfitUpdate
		items                  []domain.OutfitItem
		tags, season, occasion []string
	)
	fields := []struct {
		name string
		dst  any
		set  func()
	}{
		{"clothingItems", &items, func() { upd.ClothingItems = &items }},
		{"tags", &tags, func() { upd.Tags = &tags }},
		{"season", &season, func() { upd.Season = &season }},
		{"occasion", &occasion, func() { upd.Occasion = &occasion }},
	}
	for _, f := range fields {
		present, err := formJSON(r, op, f.name, f.dst)
		if err != nil {
			return domain.OutfitUpdate{}, err
		}
		if present {
			f.set()
		}
	}
	if err := validateStruct(op, upd); err != nil {
		return domain.OutfitUpdate{}, err
	}
	return upd, nil
}
