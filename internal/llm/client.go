// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "market-mentor/internal/common/errors"
	commonhttp "market-mentor/internal/common/http"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/metrics"
)

const (
	PurposeClassification = "classification"
	PurposeGeneration     = "generation"
	PurposeRejection      = "rejection"
)

var (
	ErrLLMTimeout         = errors.New("LLM_TIMEOUT")
	ErrLLMRequestFailed   = errors.New("LLM_REQUEST_FAILED")
	ErrLLMResponseInvalid = errors.New("LLM_RESPONSE_INVALID")
)

// Completer sends one chat exchange and returns the first choice.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint
// (OpenRouter by default) with a fixed call profile.
type Client struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// Per-call deadline comes from the context in Complete.
		client: commonhttp.NewClient(0, commonhttp.WithRequestsPerMinute(config.RequestsPerMinute)),
		logger: log.With(map[string]interface{}{
			"component": "llm",
			"purpose":   config.Purpose,
			"model":     config.Model,
		}),
	}
}

func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := c.complete(ctx, messages)
	metrics.LLMRequestDuration.WithLabelValues(c.config.Purpose).Observe(time.Since(start).Seconds())

	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.LLMRequests.WithLabelValues(c.config.Purpose, strings.ToLower(string(apperrors.CodeOf(err)))).Inc()
		c.logger.Error("chat completion failed", stdErr.ToLogFields())
		return nil, err
	}

	metrics.LLMRequests.WithLabelValues(c.config.Purpose, "success").Inc()
	c.logger.Info("chat completion succeeded", map[string]interface{}{
		"durationMs":       time.Since(start).Milliseconds(),
		"promptTokens":     completion.Usage.PromptTokens,
		"completionTokens": completion.Usage.CompletionTokens,
	})
	return completion, nil
}

func (c *Client) complete(ctx context.Context, messages []Message) (*Completion, error) {
	body, err := json.Marshal(c.buildRequest(messages))
	if err != nil {
		return nil, c.requestFailed(err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, c.contextErr(ctx, lastErr)
			}
		}

		req, err := c.newRequest(ctx, body)
		if err != nil {
			return nil, c.requestFailed(err)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			lastErr = c.statusFailure(resp)
			resp = nil
			if !apperrors.IsRetryable(lastErr) {
				break
			}
		}

		if ctx.Err() != nil {
			return nil, c.contextErr(ctx, lastErr)
		}
		c.logger.Warn("chat completion attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}

	if lastErr != nil {
		if ctx.Err() != nil {
			return nil, c.contextErr(ctx, lastErr)
		}
		if apperrors.CodeOf(lastErr) == apperrors.ErrCodeLLMRequestFailed {
			return nil, lastErr
		}
		return nil, c.requestFailed(lastErr)
	}
	if resp == nil {
		return nil, c.requestFailed(errors.New("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		if ctx.Err() != nil {
			return nil, c.contextErr(ctx, err)
		}
		return nil, c.responseInvalid(fmt.Errorf("decode error: %v", err))
	}
	if len(apiResponse.Choices) == 0 {
		return nil, c.responseInvalid(errors.New("response has no choices"))
	}

	return &Completion{
		Content: apiResponse.Choices[0].Message.Content,
		Model:   apiResponse.Model,
		Usage:   apiResponse.Usage,
	}, nil
}

func (c *Client) buildRequest(messages []Message) ChatRequest {
	req := ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
		MaxTokens:   c.config.MaxTokens,
	}
	if c.config.RepetitionPenalty > 0 {
		penalty := c.config.RepetitionPenalty
		req.RepetitionPenalty = &penalty
	}
	return req
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.config.Referer != "" {
		req.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		req.Header.Set("X-Title", c.config.Title)
	}
	return req, nil
}

// statusFailure wraps a non-200 reply. Only 429 and 5xx are retried.
func (c *Client) statusFailure(resp *http.Response) error {
	stdErr := apperrors.NewLLMRequestFailedError(c.config.Purpose, fmt.Errorf("%w: %v", ErrLLMRequestFailed, statusError(resp)))
	stdErr.Retryable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	stdErr.Metadata["statusCode"] = resp.StatusCode
	return stdErr
}

func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}

func (c *Client) contextErr(ctx context.Context, cause error) error {
	if cause == nil {
		cause = ctx.Err()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewLLMTimeoutError(c.config.Purpose, fmt.Errorf("%w: %v", ErrLLMTimeout, cause))
	}
	return c.requestFailed(cause)
}

func (c *Client) requestFailed(cause error) error {
	return apperrors.NewLLMRequestFailedError(c.config.Purpose, fmt.Errorf("%w: %v", ErrLLMRequestFailed, cause))
}

func (c *Client) responseInvalid(cause error) error {
	return apperrors.NewLLMResponseInvalidError(c.config.Purpose, fmt.Errorf("%w: %v", ErrLLMResponseInvalid, cause))
}
