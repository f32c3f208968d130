// Package imagefetch downloads images referenced by URL.
package imagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/infrastructure/resilience"
)

type Fetcher struct {
	httpClient *http.Client
	executor   *resilience.Executor
	maxBytes   int64
}

func New(executor *resilience.Executor, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 4 * domain.MaxUploadBytes
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
		maxBytes:   maxBytes,
	}
}

// Fetch returns the body and content type of url. Bodies larger than the
// configured limit are rejected.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	type fetched struct {
		data        []byte
		contentType string
	}
	out, err := resilience.Call(ctx, f.executor, "image.fetch", func(ctx context.Context) (fetched, error) {
		data, ct, err := f.get(ctx, url)
		return fetched{data: data, contentType: ct}, err
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, "", resilience.WrapTemporary("fetch image", err, resilience.ClassifyHTTPError)
	}
	return out.data, out.contentType, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create image request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", resilience.NewStatusError("image", "fetch", resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", f.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, strings.TrimSpace(contentType), nil
}
