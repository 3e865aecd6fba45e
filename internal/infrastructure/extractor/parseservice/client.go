package parseservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/resilience"
)

// Client extracts attachment text through the document parsing service. The
// service fetches the file itself and handles formats the local extractor
// does not (hwp, doc). A 422 means the file is genuinely unparseable and
// maps to ErrParse so indexing skips the attachment instead of retrying.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	fallback   FallbackExtractor
}

// FallbackExtractor handles formats locally when the parse service rejects
// them or is unreachable.
type FallbackExtractor interface {
	Extract(ctx context.Context, attachment domain.Attachment) (string, error)
}

type Option func(*Client)

func WithResilience(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithFallback(fallback FallbackExtractor) Option {
	return func(c *Client) { c.fallback = fallback }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type parseRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type parseResponse struct {
	Text string `json:"text"`
}

func (c *Client) Extract(ctx context.Context, attachment domain.Attachment) (string, error) {
	var response parseResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/parse", parseRequest{URL: attachment.URL, Name: attachment.Name}, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "parse.extract", call, classifyParseError)
	} else {
		err = call(ctx)
	}
	if err == nil {
		return strings.TrimSpace(response.Text), nil
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnprocessableEntity {
		if c.fallback != nil {
			return c.fallback.Extract(ctx, attachment)
		}
		return "", domain.WrapError(domain.ErrParse, "extract attachment", err)
	}

	if c.fallback != nil {
		if text, fbErr := c.fallback.Extract(ctx, attachment); fbErr == nil {
			return text, nil
		}
	}

	class := classifyParseError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return "", domain.WrapError(domain.ErrTemporary, "extract attachment", err)
	}
	return "", fmt.Errorf("extract attachment: %w", err)
}

type httpStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *httpStatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("parse status: %s", e.Status)
	}
	return fmt.Sprintf("parse status: %s: %s", e.Status, strings.TrimSpace(e.Body))
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode parse response: %w", err)
	}
	return nil
}

func classifyParseError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
