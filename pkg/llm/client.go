package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	// ClaudeAPIEndpoint is the Anthropic API endpoint.
	ClaudeAPIEndpoint = "https://api.anthropic.com/v1/messages"
	// ClaudeModel is the model to use.
	ClaudeModel = "claude-sonnet-4-20250514"
	// ClaudeAPIVersion is the API version.
	ClaudeAPIVersion = "2023-06-01"
	// DefaultMaxTokens is used when a caller passes a non-positive token budget.
	DefaultMaxTokens = 4096
)

// Client represents a Claude API client. One client is constructed per process
// and shared across analysis invocations; it holds no per-request state beyond
// the rate limiter.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	endpoint   string
	limiter    *RateLimiter
}

// NewClient creates a new Claude API client.
func NewClient(apiKey, model string) (client *Client) {
	if model == "" {
		model = ClaudeModel // Default to Sonnet 4
	}
	client = &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: ClaudeAPIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		limiter: NewRateLimiter(DefaultRequestInterval),
	}
	return client
}

// SetRequestInterval replaces the rate limiter with one using the given
// minimum interval between requests.
func (c *Client) SetRequestInterval(interval time.Duration) {
	c.limiter = NewRateLimiter(interval)
}

// Complete sends a single prompt and returns the raw text of the first content
// block. Callers own all parsing of the returned text.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (responseText string, err error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	err = c.limiter.WaitForSlot(ctx)
	if err != nil {
		err = errors.Wrap(err, "rate limiter wait failed")
		return responseText, err
	}

	responseText, err = c.sendRequest(ctx, prompt, maxTokens)
	if err != nil {
		err = errors.Wrap(err, "completion request failed")
		return responseText, err
	}

	return responseText, err
}

// sendRequest sends a request to Claude API.
func (c *Client) sendRequest(ctx context.Context, prompt string, maxTokens int) (responseText string, err error) {
	// Build request
	claudeReq := ClaudeRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	var reqBody []byte
	reqBody, err = json.Marshal(claudeReq)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return responseText, err
	}

	// Create HTTP request
	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return responseText, err
	}

	// Set headers
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", ClaudeAPIVersion)

	// Send request
	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return responseText, err
	}
	defer resp.Body.Close()

	// Read response body
	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return responseText, err
	}

	// Check status code
	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		return responseText, err
	}

	// Parse Claude response
	var claudeResp ClaudeResponse
	err = json.Unmarshal(respBody, &claudeResp)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse Claude response: %s", string(respBody))
		return responseText, err
	}

	// Extract text content
	if len(claudeResp.Content) == 0 {
		err = errors.New("no content in Claude response")
		return responseText, err
	}

	responseText = claudeResp.Content[0].Text

	return responseText, err
}
