package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/config"
	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/observability/metrics"
)

const serviceName = "campus-faq-api"

type Router struct {
	cfg     config.Config
	search  ports.SearchService
	answers ports.AnswerService
	ingest  ports.DocumentIngestor
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	search ports.SearchService,
	answers ports.AnswerService,
	ingestor ports.DocumentIngestor,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		search:  search,
		answers: answers,
		ingest:  ingestor,
		metrics: m,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	specRouter, err := loadOpenAPIRouter()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search/notices", rt.searchBoard("notices", rt.search.SearchNotices))
	mux.HandleFunc("/v1/search/pnu-notices", rt.searchBoard("pnu_notices", rt.search.SearchPNUNotices))
	mux.HandleFunc("/v1/search/supports", rt.searchBoard("supports", rt.search.SearchSupports))
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/ingest/", rt.ingestDocuments)
	mux.HandleFunc("/v1/documents/notices", rt.deleteNoticesByDepartment)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = openapiValidationMiddleware(handler, specRouter)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIQueueWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type semesterKeyRequest struct {
	Year int    `json:"year"`
	Term string `json:"term"`
}

type dateRangeRequest struct {
	StDate string `json:"st_date"`
	EdDate string `json:"ed_date"`
}

type searchFilters struct {
	Count        int     `json:"count"`
	TopK         int     `json:"top_k"`
	Threshold    float64 `json:"threshold"`
	LexicalRatio float64 `json:"lexical_ratio"`
	RRFK         int     `json:"rrf_k"`

	Departments []string             `json:"departments"`
	Categories  []string             `json:"categories"`
	Semesters   []semesterKeyRequest `json:"semesters"`
	DateRanges  []dateRangeRequest   `json:"date_ranges"`
	Year        int                  `json:"year"`
	URLs        []string             `json:"urls"`

	WithImportant *bool `json:"with_important"`
	OnlyImportant *bool `json:"only_important"`
}

func (f searchFilters) toOptions() (ports.SearchOptions, error) {
	opts := ports.SearchOptions{
		Count:         f.Count,
		TopK:          f.TopK,
		Threshold:     f.Threshold,
		LexicalRatio:  f.LexicalRatio,
		RRFK:          f.RRFK,
		Departments:   f.Departments,
		Categories:    f.Categories,
		Year:          f.Year,
		URLs:          f.URLs,
		WithImportant: f.WithImportant,
		OnlyImportant: f.OnlyImportant,
	}

	for _, key := range f.Semesters {
		opts.Semesters = append(opts.Semesters, domain.SemesterKey{
			Year: key.Year,
			Term: domain.SemesterTerm(key.Term),
		})
	}
	for _, window := range f.DateRanges {
		st, err := time.Parse("2006-01-02", window.StDate)
		if err != nil {
			return ports.SearchOptions{}, fmt.Errorf("invalid st_date %q", window.StDate)
		}
		ed, err := time.Parse("2006-01-02", window.EdDate)
		if err != nil {
			return ports.SearchOptions{}, fmt.Errorf("invalid ed_date %q", window.EdDate)
		}
		opts.DateRanges = append(opts.DateRanges, domain.DateRange{StDate: st, EdDate: ed})
	}
	return opts, nil
}

// applyDefaults fills unset tuning knobs from the deployment configuration.
// The engine has its own final fallbacks, so a zero config still works.
func (rt *Router) applyDefaults(opts ports.SearchOptions) ports.SearchOptions {
	if opts.Count == 0 {
		opts.Count = rt.cfg.SearchCount
	}
	if opts.TopK == 0 {
		opts.TopK = rt.cfg.SearchTopK
	}
	if opts.Threshold == 0 {
		opts.Threshold = rt.cfg.SearchThreshold
	}
	if opts.LexicalRatio == 0 {
		opts.LexicalRatio = rt.cfg.SearchLexicalRatio
	}
	if opts.RRFK == 0 {
		opts.RRFK = rt.cfg.SearchRRFK
	}
	return opts
}

type searchRequest struct {
	Query string `json:"query"`
	searchFilters
}

type searchResponse struct {
	Results []domain.DocumentContext `json:"results"`
	Count   int                      `json:"count"`
}

func (rt *Router) searchBoard(
	board string,
	search func(context.Context, string, ports.SearchOptions) ([]domain.DocumentContext, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		opts, err := req.toOptions()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		opts = rt.applyDefaults(opts)

		start := time.Now()
		results, err := search(r.Context(), req.Query, opts)
		if err != nil {
			rt.writeError(w, err)
			return
		}
		if rt.metrics != nil {
			rt.metrics.RecordSearch(serviceName, board, len(results), time.Since(start))
		}
		writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
	}
}

type askRequest struct {
	Question string `json:"question"`
	searchFilters
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	opts, err := req.toOptions()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	opts = rt.applyDefaults(opts)

	answer, err := rt.answers.Ask(r.Context(), req.Question, opts)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAsk(serviceName, len(answer.Sources))
	}
	writeJSON(w, http.StatusOK, answer)
}

type ingestRequest struct {
	Records []ports.IngestRecord `json:"records"`
}

type ingestResponse struct {
	Documents []domain.Document `json:"documents"`
	Count     int               `json:"count"`
}

func (rt *Router) ingestDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	kind := strings.TrimPrefix(r.URL.Path, "/v1/ingest/")
	if kind == "" || strings.Contains(kind, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown ingest path"})
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	docs, err := rt.ingest.Ingest(r.Context(), domain.DocumentKind(kind), req.Records)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordIngest(serviceName, kind, len(docs))
	}
	writeJSON(w, http.StatusAccepted, ingestResponse{Documents: docs, Count: len(docs)})
}

// deleteNoticesByDepartment clears one department's board ahead of a
// from-scratch re-crawl.
func (rt *Router) deleteNoticesByDepartment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	department := r.URL.Query().Get("department")
	deleted, err := rt.ingest.DeleteByDepartment(r.Context(), department)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
