// Package fal removes image backgrounds through the fal.ai queue API.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/infrastructure/resilience"
)

const (
	DefaultEndpoint     = "https://queue.fal.run/fal-ai/birefnet/v2"
	DefaultPollInterval = 200 * time.Millisecond
	DefaultMaxAttempts  = 150
)

const (
	statusCompleted  = "COMPLETED"
	statusFailed     = "FAILED"
	statusCancelled  = "CANCELLED"
	statusInQueue    = "IN_QUEUE"
	statusInProgress = "IN_PROGRESS"
)

type Options struct {
	Endpoint           string
	PollInterval       time.Duration
	MaxAttempts        int
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

type Client struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	maxAttempts  int
	httpClient   *http.Client
	executor     *resilience.Executor
}

func New(apiKey string, opts Options) *Client {
	c := &Client{
		endpoint:     strings.TrimSpace(opts.Endpoint),
		apiKey:       apiKey,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
		httpClient:   opts.HTTPClient,
		executor:     opts.ResilienceExecutor,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

type submitRequest struct {
	ImageURL            string `json:"image_url"`
	Model               string `json:"model"`
	OperatingResolution string `json:"operating_resolution"`
	OutputFormat        string `json:"output_format"`
	RefineForeground    bool   `json:"refine_foreground"`
}

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type resultResponse struct {
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
}

// RemoveBackground submits imageURL and polls the job at a fixed interval.
// Terminal job states come back as a RemovalResult; an error means the job
// could not be submitted or its status could not be read.
func (c *Client) RemoveBackground(ctx context.Context, imageURL string) (domain.RemovalResult, error) {
	start := time.Now()
	var job submitResponse
	err := c.call(ctx, "submit", http.MethodPost, c.endpoint, submitRequest{
		ImageURL:            imageURL,
		Model:               "General Use (Light)",
		OperatingResolution: "1024x1024",
		OutputFormat:        "png",
		RefineForeground:    true,
	}, &job)
	if err != nil {
		return domain.RemovalResult{}, err
	}
	if job.StatusURL == "" || job.ResponseURL == "" {
		return domain.RemovalResult{}, errors.New("invalid response from background removal API")
	}
	slog.Debug("fal_job_submitted", "request_id", job.RequestID)

	status, attempts, err := c.poll(ctx, job.StatusURL)
	if err != nil {
		return domain.RemovalResult{}, err
	}
	switch status {
	case statusCompleted:
	case statusFailed, statusCancelled:
		return domain.RemovalResult{Outcome: domain.JobFailed, Status: status, Attempts: attempts}, nil
	default:
		return domain.RemovalResult{Outcome: domain.JobExhausted, Status: status, Attempts: attempts}, nil
	}

	var result resultResponse
	if err := c.call(ctx, "result", http.MethodGet, job.ResponseURL, nil, &result); err != nil {
		return domain.RemovalResult{}, err
	}
	slog.Info("fal_job_completed",
		"request_id", job.RequestID,
		"attempts", attempts,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return domain.RemovalResult{
		Outcome:  domain.JobCompleted,
		ImageURL: result.Image.URL,
		Status:   status,
		Attempts: attempts,
	}, nil
}

// poll returns the first terminal status, or the last seen status once the
// attempt budget is spent.
func (c *Client) poll(ctx context.Context, statusURL string) (string, int, error) {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	last := ""
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last, attempt - 1, ctx.Err()
		case <-timer.C:
		}

		var st statusResponse
		if err := c.call(ctx, "status", http.MethodGet, statusURL, nil, &st); err != nil {
			return last, attempt, err
		}
		last = st.Status
		switch last {
		case statusCompleted, statusFailed, statusCancelled:
			return last, attempt, nil
		case statusInQueue, statusInProgress:
		default:
			slog.Warn("fal_unknown_status", "status", last, "attempt", attempt)
		}
		timer.Reset(c.pollInterval)
	}
	return last, c.maxAttempts, nil
}

func (c *Client) call(ctx context.Context, operation, method, url string, payload, out any) error {
	err := c.executor.Execute(ctx, "fal."+operation, func(ctx context.Context) error {
		return c.doJSON(ctx, operation, method, url, payload, out)
	}, resilience.ClassifyHTTPError)
	return resilience.WrapTemporary("fal "+operation, err, resilience.ClassifyHTTPError)
}

func (c *Client) doJSON(ctx context.Context, operation, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal fal %s request: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create fal %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fal %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("fal", operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode fal %s response: %w", operation, err)
	}
	return nil
}
