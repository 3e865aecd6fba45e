package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/resilience"
)

// Client is the answer generator over an OpenAI-compatible chat completion
// endpoint.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithResilience(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func New(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (c *Client) ComposeAnswer(ctx context.Context, question string, contexts []domain.DocumentContext) (string, error) {
	request := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(question, contexts)},
		},
	}

	var response completionResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/chat/completions", request, &response, "chat")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "llm.chat", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("compose answer", err)
	}

	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrUpstream, "compose answer",
			fmt.Errorf("completion returned no choices"))
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
