package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/kirillkom/ai-closet/internal/config"
	"github.com/kirillkom/ai-closet/internal/core/domain"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type ingestFake struct {
	mu       sync.Mutex
	userID   string
	filename string
	body     []byte
	err      error
}

func (f *ingestFake) Upload(_ context.Context, userID string, image domain.ImageUpload) (*domain.ClothingItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload clothing", errors.New("userId is required"))
	}
	raw, err := io.ReadAll(image.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.userID, f.filename, f.body = userID, image.Filename, raw
	f.mu.Unlock()
	return domain.NewClothingItem("item-1", userID, "http://blobs/"+image.Filename, userID+"/original/x.png", testNow), nil
}

type clothingFake struct {
	mu      sync.Mutex
	items   map[string]domain.ClothingItem
	lastUpd domain.ClothingItemUpdate
	lastAct domain.UsageAction
	calls   []string
}

func newClothingFake(items ...domain.ClothingItem) *clothingFake {
	f := &clothingFake{items: map[string]domain.ClothingItem{}}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *clothingFake) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *clothingFake) find(userID, id string) (domain.ClothingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || (userID != "" && item.UserID != userID) {
		return domain.ClothingItem{}, domain.WrapError(domain.ErrNotFound, "get clothing item", fmt.Errorf("record %s", id))
	}
	return item, nil
}

func (f *clothingFake) Get(_ context.Context, userID, id string) (*domain.ClothingItem, error) {
	f.record("get:" + userID)
	item, err := f.find(userID, id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (f *clothingFake) List(_ context.Context, userID string) ([]domain.ClothingItem, error) {
	f.record("list:" + userID)
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list clothing", errors.New("userId is required"))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.ClothingItem{}
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *clothingFake) Update(_ context.Context, userID, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	item, err := f.find(userID, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(&item)
	f.mu.Lock()
	f.lastUpd = upd
	f.items[id] = item
	f.mu.Unlock()
	return &item, nil
}

func (f *clothingFake) Delete(_ context.Context, userID, id string) error {
	if _, err := f.find(userID, id); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.items, id)
	f.mu.Unlock()
	return nil
}

func (f *clothingFake) RecordUsage(_ context.Context, userID, id string, action domain.UsageAction) (*domain.ClothingItem, error) {
	item, err := f.find(userID, id)
	if err != nil {
		return nil, err
	}
	item.ApplyUsage(action, testNow)
	f.mu.Lock()
	f.lastAct = action
	f.items[id] = item
	f.mu.Unlock()
	return &item, nil
}

type outfitFake struct {
	mu        sync.Mutex
	draft     domain.Outfit
	upd       domain.OutfitUpdate
	imageName string
	userID    string
}

func (f *outfitFake) Create(_ context.Context, userID string, draft domain.Outfit, image *domain.ImageUpload) (*domain.Outfit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft, f.userID = draft, userID
	out := draft
	out.ID, out.UserID = "outfit-1", userID
	if image != nil {
		f.imageName = image.Filename
		out.ImageURI = "http://blobs/" + image.Filename
	}
	return &out, nil
}

func (f *outfitFake) Get(_ context.Context, userID, id string) (*domain.Outfit, error) {
	if id != "outfit-1" {
		return nil, domain.WrapError(domain.ErrNotFound, "get outfit", errors.New("no such record"))
	}
	return &domain.Outfit{ID: id, UserID: userID}, nil
}

func (f *outfitFake) List(_ context.Context, userID string) ([]domain.Outfit, error) {
	return []domain.Outfit{{ID: "outfit-1", UserID: userID}}, nil
}

func (f *outfitFake) Update(_ context.Context, userID, id string, upd domain.OutfitUpdate, image *domain.ImageUpload) (*domain.Outfit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upd, f.userID = upd, userID
	out := &domain.Outfit{ID: id, UserID: userID}
	upd.Apply(out)
	if image != nil {
		f.imageName = image.Filename
	}
	return out, nil
}

func (f *outfitFake) Delete(_ context.Context, _, id string) error {
	if id != "outfit-1" {
		return domain.WrapError(domain.ErrNotFound, "delete outfit", errors.New("no such record"))
	}
	return nil
}

type imagesFake struct {
	mu    sync.Mutex
	names []string
}

func (f *imagesFake) UploadImage(_ context.Context, userID string, image domain.ImageUpload) (*domain.StoredImage, error) {
	if _, err := image.ImageExt(); err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(image.Body)
	f.mu.Lock()
	f.names = append(f.names, image.Filename)
	f.mu.Unlock()
	key := userID + "/original/" + image.Filename
	return &domain.StoredImage{URL: "http://blobs/" + key, Key: key, Size: int64(len(raw)), MimeType: image.MimeType()}, nil
}

type healthFake struct{ err error }

func (f healthFake) Ping(context.Context) error { return f.err }

type testServices struct {
	ingest   *ingestFake
	clothing *clothingFake
	outfits  *outfitFake
	images   *imagesFake
}

func newTestServices(items ...domain.ClothingItem) testServices {
	return testServices{
		ingest:   &ingestFake{},
		clothing: newClothingFake(items...),
		outfits:  &outfitFake{},
		images:   &imagesFake{},
	}
}

func (s testServices) Services() Services {
	return Services{
		Ingest:   s.ingest,
		Clothing: s.clothing,
		Outfits:  s.outfits,
		Images:   s.images,
		Health:   healthFake{},
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(newTestServices().Services(), cfg, "", nil).Handler()
}

type formFile struct {
	field, name, contentType string
	body                     []byte
}

func multipartRequest(t interface{ Fatalf(string, ...any) }, method, target string, fields map[string]string, files ...formFile) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name)}
		h["Content-Type"] = []string{f.contentType}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.body); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
