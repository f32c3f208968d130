package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

func TestClientCreateItemSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/clothing", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "user-1", r.FormValue("userId"))
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		assert.Equal(t, "shirt.png", header.Filename)
		assert.Equal(t, "png", string(raw))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.NewClothingItem("item-1", "user-1", "u", "k", time.Now().UTC()))
	}))
	defer server.Close()

	c := New(server.URL, "user-1", WithToken("tok"))
	item, err := c.CreateItem(context.Background(), "shirt.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.Equal(t, "item-1", item.ID)
	require.Equal(t, domain.StagePending, item.ProcessingStatus.Categorization)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user-1", r.URL.Query().Get("userId"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"Clothing item not found"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "user-1").FetchItem(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Contains(t, err.Error(), "Clothing item not found")
}

func TestClientRecordUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/clothing/item-1/usage", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "worn", body["action"])
		_, _ = w.Write([]byte(`{"id":"item-1","wearCount":3}`))
	}))
	defer server.Close()

	item, err := New(server.URL, "user-1").RecordUsage(context.Background(), "item-1", domain.UsageWorn)
	require.NoError(t, err)
	require.Equal(t, 3, item.WearCount)
}
