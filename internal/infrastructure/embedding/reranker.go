package embedding

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/resilience"
)

// Reranker calls the cross-encoder reranking service (TEI wire format).
type Reranker struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type RerankerOption func(*Reranker)

func RerankerWithResilience(executor *resilience.Executor) RerankerOption {
	return func(r *Reranker) { r.executor = executor }
}

func RerankerWithHTTPClient(httpClient *http.Client) RerankerOption {
	return func(r *Reranker) { r.httpClient = httpClient }
}

func NewReranker(baseURL string, opts ...RerankerOption) *Reranker {
	r := &Reranker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankEntry struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (r *Reranker) Rerank(ctx context.Context, query string, texts []string) ([]domain.RerankResult, error) {
	if len(texts) == 0 {
		return []domain.RerankResult{}, nil
	}

	var response []rerankEntry
	call := func(ctx context.Context) error {
		c := Client{baseURL: r.baseURL, httpClient: r.httpClient}
		return c.postJSON(ctx, "/rerank", rerankRequest{Query: query, Texts: texts}, &response, "rerank")
	}

	var err error
	if r.executor != nil {
		err = r.executor.Execute(ctx, "embedding.rerank", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("rerank texts", err)
	}

	out := make([]domain.RerankResult, len(response))
	for i, entry := range response {
		out[i] = domain.RerankResult{Index: entry.Index, Score: entry.Score}
	}
	return out, nil
}
