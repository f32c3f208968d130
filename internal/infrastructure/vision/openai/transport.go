package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/ai-closet/internal/infrastructure/resilience"
)

const chatCompletionsPath = "/chat/completions"

// apiError is the envelope the API wraps every non-2xx answer in.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// createChatCompletion sends one chat completion. Failed answers come back
// as *resilience.StatusError with the API's own message in place of the raw
// JSON envelope so retry classification and logs stay readable.
func (c *Client) createChatCompletion(ctx context.Context, chat chatRequest) (chatResponse, error) {
	var completion chatResponse

	payload, err := json.Marshal(chat)
	if err != nil {
		return completion, fmt.Errorf("openai encode chat completion: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return completion, fmt.Errorf("openai build chat completion: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, fmt.Errorf("openai chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := resilience.NewStatusError("openai", "categorize", resp)
		statusErr.Body = apiErrorMessage(statusErr.Body)
		return completion, statusErr
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return completion, fmt.Errorf("openai decode chat completion: %w", err)
	}
	return completion, nil
}

// apiErrorMessage unwraps {"error":{...}} into "type: message"; any other
// body is returned trimmed.
func apiErrorMessage(body string) string {
	var envelope apiError
	if err := json.Unmarshal([]byte(body), &envelope); err != nil || envelope.Error.Message == "" {
		return strings.TrimSpace(body)
	}
	if envelope.Error.Type == "" {
		return envelope.Error.Message
	}
	return envelope.Error.Type + ": " + envelope.Error.Message
}
