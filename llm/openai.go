package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"
)

// OpenAI is a Backend implementation using the OpenAI Chat Completions API.
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
}

// OpenAIOption configures the OpenAI client.
type OpenAIOption func(*OpenAI)

// WithAPIKey sets the API key.
func WithAPIKey(key string) OpenAIOption {
	return func(o *OpenAI) {
		o.apiKey = key
	}
}

// WithModel sets the default model.
func WithModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		o.model = model
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		o.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		o.httpClient = client
	}
}

// Default OpenAI configuration values
const (
	DefaultOpenAITimeout = 2 * time.Minute
	DefaultOpenAIModel   = "gpt-4"
	DefaultOpenAIBaseURL = "https://api.openai.com"
)

// NewOpenAI creates a new OpenAI client.
func NewOpenAI(opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: DefaultOpenAIBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultOpenAITimeout,
		},
		model: DefaultOpenAIModel,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// chatRequest is the API request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the API response format.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// apiError is the error envelope the API returns with non-200 statuses.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Generate sends a request and returns the complete response.
func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = o.model
	}
	temp := req.Temperature
	body := &chatRequest{
		Model:       model,
		Temperature: &temp,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})

	resp, err := o.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	return parseChatResponse(resp, time.Since(start))
}

func (o *OpenAI) createHTTPRequest(ctx context.Context, req *chatRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	return httpReq, nil
}

func (o *OpenAI) doRequest(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	const maxRetries = 3

	for attempt := 0; attempt <= maxRetries; attempt++ {
		httpReq, err := o.createHTTPRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		httpResp, err := o.httpClient.Do(httpReq)
		if err != nil {
			// Timeouts and network faults are transient by contract.
			return nil, &UnavailableError{Err: fmt.Errorf("http request: %w", err)}
		}

		body, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			return nil, &UnavailableError{Err: fmt.Errorf("read response: %w", err)}
		}

		if httpResp.StatusCode == http.StatusOK {
			var resp chatResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, fmt.Errorf("unmarshal response: %w", err)
			}
			return &resp, nil
		}

		// Retry on 429 (rate limit) and 5xx (overloaded).
		if (httpResp.StatusCode == 429 || httpResp.StatusCode >= 500) && attempt < maxRetries {
			wait := retryAfterDelay(httpResp, attempt)
			slog.Warn("API rate limited, retrying", "status", httpResp.StatusCode, "attempt", attempt+1, "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return nil, &UnavailableError{Err: ctx.Err()}
			}
		}

		return nil, classifyAPIError(httpResp.StatusCode, body)
	}

	return nil, &UnavailableError{Err: errors.New("max retries exceeded")}
}

// classifyAPIError maps a non-200 status to the error taxonomy. Policy
// rejections become refusals, rate limits and server faults stay transient,
// everything else surfaces with its status code.
func classifyAPIError(status int, body []byte) error {
	var ae apiError
	json.Unmarshal(body, &ae)

	if ae.Error.Code == "content_policy_violation" || ae.Error.Type == "content_filter" {
		return &RefusalError{Reason: ae.Error.Message}
	}
	if status == 408 || status == 429 || status >= 500 {
		return &UnavailableError{Err: fmt.Errorf("API error %d: %s", status, ae.Error.Message)}
	}
	return fmt.Errorf("API error %d: %s", status, string(body))
}

// retryAfterDelay returns how long to wait before retrying a rate-limited
// request. It respects the retry-after header if present, otherwise uses
// exponential backoff.
func retryAfterDelay(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("retry-after"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	// Exponential backoff: 2s, 4s, 8s, capped at 30s
	wait := time.Duration(2<<uint(attempt)) * time.Second
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	return wait
}

func parseChatResponse(resp *chatResponse, latency time.Duration) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contains no choices")
	}
	choice := resp.Choices[0]

	if choice.FinishReason == "content_filter" || choice.Message.Refusal != "" {
		reason := choice.Message.Refusal
		if reason == "" {
			reason = "content filtered"
		}
		return nil, &RefusalError{Reason: reason}
	}

	return &Response{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		LatencyMs:    latency.Milliseconds(),
	}, nil
}
