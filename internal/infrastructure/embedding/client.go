package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/resilience"
)

// Client talks to the embedding service: one dense and one sparse vector per
// input text, computed by the same model pair the index was built with.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	lexical    *LexicalEncoder
}

type Option func(*Client)

func WithResilience(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

// WithLexicalFallback fills missing sparse vectors with locally encoded
// lexical ones, for deployments whose embedding service is dense-only.
func WithLexicalFallback(encoder *LexicalEncoder) Option {
	return func(c *Client) { c.lexical = encoder }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedVector struct {
	Dense  []float32       `json:"dense"`
	Sparse map[int]float32 `json:"sparse"`
}

type embedResponse struct {
	Embeddings []embedVector `json:"embeddings"`
}

func (c *Client) Embed(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var response embedResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/embed", embedRequest{Texts: texts}, &response, "embed")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "embedding.embed", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed texts", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(domain.ErrUpstream, "embed texts",
			fmt.Errorf("embedding count %d does not match input %d", len(response.Embeddings), len(texts)))
	}

	out := make([]domain.Embedding, len(response.Embeddings))
	for i, v := range response.Embeddings {
		out[i] = domain.Embedding{Dense: v.Dense, Sparse: v.Sparse}
		if len(out[i].Sparse) == 0 && c.lexical != nil {
			out[i].Sparse = c.lexical.EncodeDocument(texts[i])
		}
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) (domain.Embedding, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return domain.Embedding{}, err
	}
	if len(embeddings) == 0 {
		return domain.Embedding{}, domain.WrapError(domain.ErrUpstream, "embed query",
			fmt.Errorf("empty embedding result"))
	}
	query := embeddings[0]
	if len(query.Sparse) == 0 && c.lexical != nil {
		query.Sparse = c.lexical.EncodeQuery(text)
	}
	return query, nil
}
