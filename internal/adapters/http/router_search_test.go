package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pnu-aid/campus-faq/internal/config"
	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
)

type fakeSearchService struct {
	notices    func(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error)
	pnuNotices func(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error)
	supports   func(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error)
}

func (f fakeSearchService) SearchNotices(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if f.notices != nil {
		return f.notices(ctx, query, opts)
	}
	return []domain.DocumentContext{}, nil
}

func (f fakeSearchService) SearchPNUNotices(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if f.pnuNotices != nil {
		return f.pnuNotices(ctx, query, opts)
	}
	return []domain.DocumentContext{}, nil
}

func (f fakeSearchService) SearchSupports(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if f.supports != nil {
		return f.supports(ctx, query, opts)
	}
	return []domain.DocumentContext{}, nil
}

type fakeAnswerService struct {
	ask func(ctx context.Context, question string, opts ports.SearchOptions) (*domain.Answer, error)
}

func (f fakeAnswerService) Ask(ctx context.Context, question string, opts ports.SearchOptions) (*domain.Answer, error) {
	if f.ask != nil {
		return f.ask(ctx, question, opts)
	}
	return &domain.Answer{Sources: []domain.DocumentContext{}}, nil
}

type fakeIngestService struct {
	ingest func(ctx context.Context, kind domain.DocumentKind, records []ports.IngestRecord) ([]domain.Document, error)
	delete func(ctx context.Context, department string) (int64, error)
}

func (f fakeIngestService) Ingest(ctx context.Context, kind domain.DocumentKind, records []ports.IngestRecord) ([]domain.Document, error) {
	if f.ingest != nil {
		return f.ingest(ctx, kind, records)
	}
	return []domain.Document{}, nil
}

func (f fakeIngestService) DeleteByDepartment(ctx context.Context, department string) (int64, error) {
	if f.delete != nil {
		return f.delete(ctx, department)
	}
	return 0, nil
}

func newTestHandler(
	t *testing.T,
	cfg config.Config,
	search ports.SearchService,
	answers ports.AnswerService,
	ingestor ports.DocumentIngestor,
) http.Handler {
	t.Helper()
	handler, err := NewRouter(cfg, search, answers, ingestor, nil).Handler()
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	return handler
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, fakeSearchService{}, fakeAnswerService{}, fakeIngestService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestSearchNoticesForwardsFilters(t *testing.T) {
	var gotQuery string
	var gotOpts ports.SearchOptions
	search := fakeSearchService{
		notices: func(_ context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
			gotQuery = query
			gotOpts = opts
			return []domain.DocumentContext{
				{Document: domain.Document{ID: 1, Title: "수강신청 안내"}},
				{Document: domain.Document{ID: 2, Title: "장학금 공지"}},
			}, nil
		},
	}
	handler := newTestHandler(t, config.Config{}, search, fakeAnswerService{}, fakeIngestService{})

	res := postJSON(t, handler, "/v1/search/notices", `{
		"query": "수강신청",
		"count": 3,
		"departments": ["정보컴퓨터공학부"],
		"categories": ["학사"],
		"semesters": [{"year": 2025, "term": "fall"}],
		"date_ranges": [{"st_date": "2025-09-01", "ed_date": "2025-09-30"}],
		"with_important": true
	}`)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if gotQuery != "수강신청" {
		t.Fatalf("expected query forwarded, got %q", gotQuery)
	}
	if gotOpts.Count != 3 {
		t.Fatalf("expected count 3, got %d", gotOpts.Count)
	}
	if len(gotOpts.Departments) != 1 || gotOpts.Departments[0] != "정보컴퓨터공학부" {
		t.Fatalf("expected department forwarded, got %v", gotOpts.Departments)
	}
	if len(gotOpts.Semesters) != 1 || gotOpts.Semesters[0].Term != domain.TermFall {
		t.Fatalf("expected semester key forwarded, got %v", gotOpts.Semesters)
	}
	if len(gotOpts.DateRanges) != 1 || gotOpts.DateRanges[0].StDate.Day() != 1 {
		t.Fatalf("expected date range parsed, got %v", gotOpts.DateRanges)
	}
	if gotOpts.WithImportant == nil || !*gotOpts.WithImportant {
		t.Fatalf("expected with_important forwarded")
	}

	var resp searchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", resp.Count)
	}
}

func TestSearchRejectsMissingQuery(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, fakeSearchService{}, fakeAnswerService{}, fakeIngestService{})

	res := postJSON(t, handler, "/v1/search/supports", `{"count": 5}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", res.Code)
	}
}

func TestSearchRejectsMalformedDateRange(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, fakeSearchService{}, fakeAnswerService{}, fakeIngestService{})

	res := postJSON(t, handler, "/v1/search/pnu-notices", `{
		"query": "등록금",
		"date_ranges": [{"st_date": "09/01/2025", "ed_date": "2025-09-30"}]
	}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", res.Code)
	}
}

func TestSearchMapsDomainErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("bad filter")), http.StatusBadRequest},
		{"not found", domain.WrapError(domain.ErrNotFound, "search", fmt.Errorf("no semester")), http.StatusNotFound},
		{"upstream", domain.WrapError(domain.ErrUpstream, "search", fmt.Errorf("embed service")), http.StatusBadGateway},
		{"temporary", domain.WrapError(domain.ErrTemporary, "search", fmt.Errorf("db down")), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			search := fakeSearchService{
				supports: func(context.Context, string, ports.SearchOptions) ([]domain.DocumentContext, error) {
					return nil, tc.err
				},
			}
			handler := newTestHandler(t, config.Config{}, search, fakeAnswerService{}, fakeIngestService{})

			res := postJSON(t, handler, "/v1/search/supports", `{"query": "기숙사"}`)
			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, res.Code)
			}
		})
	}
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	answers := fakeAnswerService{
		ask: func(_ context.Context, question string, _ ports.SearchOptions) (*domain.Answer, error) {
			if question != "수강신청 언제야?" {
				t.Fatalf("unexpected question %q", question)
			}
			return &domain.Answer{
				Text: "수강신청은 8월에 시작합니다. [1]",
				Sources: []domain.DocumentContext{
					{Document: domain.Document{ID: 7, Title: "수강신청 일정"}},
				},
			}, nil
		},
	}
	handler := newTestHandler(t, config.Config{}, fakeSearchService{}, answers, fakeIngestService{})

	res := postJSON(t, handler, "/v1/ask", `{"question": "수강신청 언제야?"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var answer domain.Answer
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Text == "" || len(answer.Sources) != 1 {
		t.Fatalf("expected answer with one source, got %+v", answer)
	}
}

func TestAskRejectsMissingQuestion(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, fakeSearchService{}, fakeAnswerService{}, fakeIngestService{})

	res := postJSON(t, handler, "/v1/ask", `{}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing question, got %d", res.Code)
	}
}
