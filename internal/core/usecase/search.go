package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/calendar"
	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// Search strategies. StrategyFusion returns the hybrid-fused ranking as is;
// StrategyRerank runs a cross-encoder over the fused pool and cuts by score
// threshold.
const (
	StrategyFusion = "fusion"
	StrategyRerank = "rerank"
)

const (
	defaultRerankPool      = 20
	defaultRerankThreshold = 0.5
)

type SearchUseCase struct {
	embedder    ports.Embedder
	reranker    ports.Reranker
	notices     ports.DocumentStore
	pnuNotices  ports.DocumentStore
	supports    ports.DocumentStore
	departments ports.DepartmentStore
	calendar    *calendar.Service

	strategy string
	now      func() time.Time
}

func NewSearchUseCase(
	embedder ports.Embedder,
	reranker ports.Reranker,
	notices ports.DocumentStore,
	pnuNotices ports.DocumentStore,
	supports ports.DocumentStore,
	departments ports.DepartmentStore,
	calendarSvc *calendar.Service,
	strategy string,
) *SearchUseCase {
	if strategy != StrategyRerank {
		strategy = StrategyFusion
	}
	return &SearchUseCase{
		embedder:    embedder,
		reranker:    reranker,
		notices:     notices,
		pnuNotices:  pnuNotices,
		supports:    supports,
		departments: departments,
		calendar:    calendarSvc,
		strategy:    strategy,
		now:         time.Now,
	}
}

// SearchNotices searches departmental notices. Departments are required:
// the boards are partitioned per department and an unscoped query would scan
// every board.
func (uc *SearchUseCase) SearchNotices(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if len(opts.Departments) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search notices",
			fmt.Errorf("departments are required"))
	}

	departmentIDs, err := uc.departments.IDsByNames(ctx, opts.Departments)
	if err != nil {
		return nil, fmt.Errorf("resolve departments: %w", err)
	}
	// Unknown names resolve to nothing. An empty ID set must stay scoped to
	// nothing, not fall through to an unscoped scan of every department.
	if len(departmentIDs) == 0 {
		return []domain.DocumentContext{}, nil
	}

	semesterIDs, err := uc.resolveSemesterIDs(ctx, opts.Semesters)
	if err != nil {
		return nil, err
	}

	filter := ranking.Filter{
		URLs:          opts.URLs,
		Year:          opts.Year,
		SemesterIDs:   semesterIDs,
		DateRanges:    opts.DateRanges,
		DepartmentIDs: departmentIDs,
		Categories:    opts.Categories,
		WithImportant: opts.WithImportant,
		OnlyImportant: opts.OnlyImportant,
	}
	return uc.searchChunks(ctx, uc.notices, query, filter, opts)
}

// SearchPNUNotices searches the university-wide board; it has no department
// axis.
func (uc *SearchUseCase) SearchPNUNotices(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	semesterIDs, err := uc.resolveSemesterIDs(ctx, opts.Semesters)
	if err != nil {
		return nil, err
	}

	filter := ranking.Filter{
		URLs:          opts.URLs,
		Year:          opts.Year,
		SemesterIDs:   semesterIDs,
		DateRanges:    opts.DateRanges,
		Categories:    opts.Categories,
		WithImportant: opts.WithImportant,
		OnlyImportant: opts.OnlyImportant,
	}
	return uc.searchChunks(ctx, uc.pnuNotices, query, filter, opts)
}

// SearchSupports searches the student-support articles. Supports are undated
// and department-agnostic, so only the category axis applies.
func (uc *SearchUseCase) SearchSupports(ctx context.Context, query string, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	filter := ranking.Filter{
		URLs:       opts.URLs,
		Categories: opts.Categories,
	}
	return uc.searchChunks(ctx, uc.supports, query, filter, opts)
}

func (uc *SearchUseCase) searchChunks(ctx context.Context, store ports.DocumentStore, query string, filter ranking.Filter, opts ports.SearchOptions) ([]domain.DocumentContext, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	embedding, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	count := opts.Count
	if count <= 0 {
		count = ranking.DefaultCount
	}

	params := ranking.Params{
		LexicalRatio: opts.LexicalRatio,
		RRFK:         opts.RRFK,
		Count:        count,
	}

	if uc.strategy == StrategyRerank && uc.reranker != nil {
		pool := opts.TopK
		if pool <= 0 {
			pool = defaultRerankPool
		}
		params.Count = pool
		result, err := store.SearchChunks(ctx, embedding, filter, params)
		if err != nil {
			return nil, fmt.Errorf("search chunks: %w", err)
		}
		return uc.rerankAndAggregate(ctx, query, result, count, opts.Threshold)
	}

	result, err := store.SearchChunks(ctx, embedding, filter, params)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return ranking.AggregateChunks(result.Hits, result.Documents, result.Attachments), nil
}

// rerankAndAggregate reorders the fused pool with the cross-encoder, keeps
// the top results above the score threshold and regroups them.
func (uc *SearchUseCase) rerankAndAggregate(ctx context.Context, query string, result *ports.ChunkSearchResult, count int, threshold float64) ([]domain.DocumentContext, error) {
	if len(result.Hits) == 0 {
		return []domain.DocumentContext{}, nil
	}
	if threshold <= 0 {
		threshold = defaultRerankThreshold
	}

	texts := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		texts[i] = hit.Candidate.Content
	}

	ranks, err := uc.reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Score > ranks[j].Score })
	if len(ranks) > count {
		ranks = ranks[:count]
	}

	kept := make([]ranking.ScoredChunk, 0, len(ranks))
	for _, r := range ranks {
		if r.Score < threshold {
			continue
		}
		if r.Index < 0 || r.Index >= len(result.Hits) {
			return nil, domain.WrapError(domain.ErrUpstream, "rerank candidates",
				fmt.Errorf("rerank index %d out of range", r.Index))
		}
		kept = append(kept, result.Hits[r.Index])
	}

	return ranking.AggregateChunks(kept, result.Documents, result.Attachments), nil
}

// resolveSemesterIDs widens the semester filter with each term's preparation
// period. With no explicit semesters the current date decides.
func (uc *SearchUseCase) resolveSemesterIDs(ctx context.Context, keys []domain.SemesterKey) ([]int64, error) {
	if len(keys) == 0 {
		now := uc.now()
		semesters, err := uc.calendar.Resolve(ctx, now.Year(), now.Month(), now.Day())
		if err != nil {
			return nil, fmt.Errorf("resolve current semester: %w", err)
		}
		ids := make([]int64, 0, len(semesters))
		for _, sem := range semesters {
			ids = append(ids, sem.ID)
		}
		return ids, nil
	}
	return uc.calendar.SemesterIDs(ctx, keys)
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is empty"))
	}
	return nil
}
