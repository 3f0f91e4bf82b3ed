package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/cognify-backend/internal/platform/ctxutil"
	"github.com/yungbote/cognify-backend/internal/platform/envutil"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
)

// StructuredRequest is one structured-output call to the Responses API.
// PreviousResponseID resumes the server-side conversation so prior turns need
// not be resent.
type StructuredRequest struct {
	System string
	User   string

	SchemaName string
	Schema     map[string]any

	// Optional per-call overrides.
	Model       string
	Temperature *float64

	PreviousResponseID string
}

// StructuredResponse carries the continuation token alongside the parsed
// payload.
type StructuredResponse struct {
	ResponseID string
	Data       map[string]any
}

// Client is the AI backend client used by the evaluation core.
type Client interface {
	// GenerateJSON performs one structured-output request and parses the
	// model's JSON.
	GenerateJSON(ctx context.Context, req StructuredRequest) (StructuredResponse, error)

	// StreamJSON is GenerateJSON with output_text deltas forwarded to
	// onDelta as they arrive. The returned Data is parsed from the full
	// accumulated text.
	StreamJSON(ctx context.Context, req StructuredRequest, onDelta func(delta string)) (StructuredResponse, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries  int
	temperature *float64
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := envutil.String("OPENAI_BASE_URL", "https://api.openai.com")
	baseURL = strings.TrimRight(baseURL, "/")

	model := envutil.String("OPENAI_MODEL", "gpt-4o")

	timeoutSec := envutil.Int("OPENAI_TIMEOUT_SECONDS", 180)
	maxRetries := envutil.Int("OPENAI_MAX_RETRIES", 4)

	var temp *float64
	if !envutil.Bool("OPENAI_DISABLE_TEMPERATURE", false) {
		t := envutil.Float("OPENAI_TEMPERATURE", 0.4)
		temp = &t
	}

	return &client{
		log:     log.With("service", "OpenAIClient"),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		maxRetries:  maxRetries,
		temperature: temp,
	}, nil
}

// -------------------- Responses API wire format --------------------

type responsesRequest struct {
	Model string `json:"model"`

	PreviousResponseID string `json:"previous_response_id,omitempty"`
	Instructions       string `json:"instructions,omitempty"`

	Input []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`

	Stream bool `json:"stream,omitempty"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) buildRequest(req StructuredRequest, stream bool) (responsesRequest, error) {
	if strings.TrimSpace(req.User) == "" {
		return responsesRequest{}, errors.New("prompt input required")
	}
	if req.SchemaName == "" || req.Schema == nil {
		return responsesRequest{}, errors.New("response schema required")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	out := responsesRequest{
		Model:              model,
		PreviousResponseID: strings.TrimSpace(req.PreviousResponseID),
		Instructions:       strings.TrimSpace(req.System),
		Stream:             stream,
	}
	out.Input = append(out.Input, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: "user", Content: req.User})

	out.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   req.SchemaName,
		"schema": req.Schema,
		"strict": true,
	}

	if req.Temperature != nil {
		out.Temperature = req.Temperature
	} else {
		out.Temperature = c.temperature
	}
	return out, nil
}

func (c *client) GenerateJSON(ctx context.Context, req StructuredRequest) (StructuredResponse, error) {
	body, err := c.buildRequest(req, false)
	if err != nil {
		return StructuredResponse{}, err
	}

	var resp responsesResponse
	if err := c.do(ctx, "POST", "/v1/responses", body, &resp); err != nil {
		return StructuredResponse{}, err
	}
	if resp.Refusal != "" {
		return StructuredResponse{}, fmt.Errorf("model refused: %s", resp.Refusal)
	}

	jsonText := strings.TrimSpace(extractOutputText(resp))
	if jsonText == "" {
		return StructuredResponse{}, fmt.Errorf("no output_text found in response")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return StructuredResponse{}, fmt.Errorf("failed to parse model JSON: %w; text=%s", err, jsonText)
	}
	return StructuredResponse{ResponseID: resp.ID, Data: obj}, nil
}

func (c *client) StreamJSON(ctx context.Context, req StructuredRequest, onDelta func(delta string)) (StructuredResponse, error) {
	body, err := c.buildRequest(req, true)
	if err != nil {
		return StructuredResponse{}, err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return StructuredResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctxutil.Default(ctx), "POST", c.baseURL+"/v1/responses", bytes.NewReader(raw))
	if err != nil {
		return StructuredResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", td.RequestID)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return StructuredResponse{}, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(httpResp.Body)
		return StructuredResponse{}, &openAIHTTPError{StatusCode: httpResp.StatusCode, Body: string(errBody)}
	}

	var (
		full       strings.Builder
		responseID string
	)
	err = streamSSE(httpResp.Body, func(event string, data string) error {
		switch event {
		case "response.output_text.delta":
			var payload struct {
				Delta string `json:"delta"`
			}
			if uErr := json.Unmarshal([]byte(data), &payload); uErr != nil {
				c.log.Warn("bad stream delta payload", "error", uErr)
				return nil
			}
			if payload.Delta != "" {
				full.WriteString(payload.Delta)
				if onDelta != nil {
					onDelta(payload.Delta)
				}
			}
		case "response.completed":
			var payload struct {
				Response responsesResponse `json:"response"`
			}
			if uErr := json.Unmarshal([]byte(data), &payload); uErr == nil {
				if payload.Response.ID != "" {
					responseID = payload.Response.ID
				}
				// Prefer the terminal envelope's full text when present; it
				// is authoritative over accumulated deltas.
				if txt := strings.TrimSpace(extractOutputText(payload.Response)); txt != "" {
					full.Reset()
					full.WriteString(txt)
				}
			}
		case "response.failed", "error":
			return fmt.Errorf("stream failed: %s", data)
		}
		return nil
	})
	if err != nil {
		return StructuredResponse{}, err
	}

	jsonText := strings.TrimSpace(full.String())
	if jsonText == "" {
		return StructuredResponse{}, fmt.Errorf("no output_text found in stream")
	}
	var obj map[string]any
	if uErr := json.Unmarshal([]byte(jsonText), &obj); uErr != nil {
		return StructuredResponse{}, fmt.Errorf("failed to parse streamed model JSON: %w; text=%s", uErr, jsonText)
	}
	return StructuredResponse{ResponseID: responseID, Data: obj}, nil
}

// -------------------- transport --------------------

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Request-ID", td.RequestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !isRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", backoff.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}
