// Package client talks to the wardrobe API and mirrors server-side
// processing into local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Unwrap maps well-known status codes onto domain error kinds.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return domain.ErrInvalidInput
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return domain.ErrTemporary
	default:
		return nil
	}
}

type Client struct {
	baseURL    string
	userID     string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New returns a client acting on behalf of userID.
func New(baseURL, userID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) UserID() string { return c.userID }

// CreateItem uploads an image and returns the pending item.
func (c *Client) CreateItem(ctx context.Context, filename string, image io.Reader) (*domain.ClothingItem, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	if err := form.WriteField("userId", c.userID); err != nil {
		return nil, fmt.Errorf("write userId field: %w", err)
	}
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close multipart form: %w", err)
	}

	var item domain.ClothingItem
	if err := c.do(ctx, http.MethodPost, "/api/clothing", form.FormDataContentType(), body, &item, "create item"); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*domain.ClothingItem, error) {
	var item domain.ClothingItem
	if err := c.do(ctx, http.MethodGet, "/api/clothing/"+url.PathEscape(id), "", nil, &item, "get item"); err != nil {
		return nil, err
	}
	return &item, nil
}

// FetchItem is GetItem with field presence kept, for merging into a local
// copy.
func (c *Client) FetchItem(ctx context.Context, id string) (RemoteItem, error) {
	var item RemoteItem
	if err := c.do(ctx, http.MethodGet, "/api/clothing/"+url.PathEscape(id), "", nil, &item, "fetch item"); err != nil {
		return RemoteItem{}, err
	}
	return item, nil
}

func (c *Client) ListItems(ctx context.Context) ([]domain.ClothingItem, error) {
	items := []domain.ClothingItem{}
	if err := c.do(ctx, http.MethodGet, "/api/clothing?userId="+url.QueryEscape(c.userID), "", nil, &items, "list items"); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	var item domain.ClothingItem
	if err := c.doJSON(ctx, http.MethodPut, "/api/clothing/"+url.PathEscape(id), upd, &item, "update item"); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/clothing/"+url.PathEscape(id), "", nil, nil, "delete item")
}

func (c *Client) RecordUsage(ctx context.Context, id string, action domain.UsageAction) (*domain.ClothingItem, error) {
	var item domain.ClothingItem
	payload := map[string]string{"action": string(action)}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/clothing/"+url.PathEscape(id)+"/usage", payload, &item, "record usage"); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) ListOutfits(ctx context.Context) ([]domain.Outfit, error) {
	outfits := []domain.Outfit{}
	if err := c.do(ctx, http.MethodGet, "/api/outfits?userId="+url.QueryEscape(c.userID), "", nil, &outfits, "list outfits"); err != nil {
		return nil, err
	}
	return outfits, nil
}

func (c *Client) DeleteOutfit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/outfits/"+url.PathEscape(id), "", nil, nil, "delete outfit")
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(body), out, operation)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any, operation string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(operation, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// endpoint scopes every call to the client's user.
func (c *Client) endpoint(path string) string {
	if c.userID == "" || strings.Contains(path, "userId=") {
		return c.baseURL + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return c.baseURL + path + sep + "userId=" + url.QueryEscape(c.userID)
}

func decodeAPIError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	return &APIError{Operation: operation, StatusCode: resp.StatusCode, Message: msg}
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
