package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
)

// AskUseCase fans one question out over the three boards, gathers the
// contexts and composes an answer with citations. Prompting quality is the
// generator's concern, not this layer's.
type AskUseCase struct {
	search    ports.SearchService
	generator ports.AnswerGenerator
}

func NewAskUseCase(search ports.SearchService, generator ports.AnswerGenerator) *AskUseCase {
	return &AskUseCase{search: search, generator: generator}
}

// Ask runs the three searches concurrently; a failure of any one fails the
// call. No matching context at all short-circuits to an empty answer so the
// caller can render its fallback message without spending an LLM call.
func (uc *AskUseCase) Ask(ctx context.Context, question string, opts ports.SearchOptions) (*domain.Answer, error) {
	if err := validateQuery(question); err != nil {
		return nil, err
	}

	var notices, pnuNotices, supports []domain.DocumentContext

	g, gctx := errgroup.WithContext(ctx)
	if len(opts.Departments) > 0 {
		g.Go(func() error {
			var err error
			notices, err = uc.search.SearchNotices(gctx, question, opts)
			return err
		})
	}
	g.Go(func() error {
		var err error
		pnuNotices, err = uc.search.SearchPNUNotices(gctx, question, opts)
		return err
	})
	g.Go(func() error {
		var err error
		supports, err = uc.search.SearchSupports(gctx, question, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gather contexts: %w", err)
	}

	contexts := make([]domain.DocumentContext, 0, len(notices)+len(pnuNotices)+len(supports))
	contexts = append(contexts, notices...)
	contexts = append(contexts, pnuNotices...)
	contexts = append(contexts, supports...)

	if len(contexts) == 0 {
		return &domain.Answer{Sources: []domain.DocumentContext{}}, nil
	}

	text, err := uc.generator.ComposeAnswer(ctx, question, contexts)
	if err != nil {
		return nil, fmt.Errorf("compose answer: %w", err)
	}
	return &domain.Answer{Text: text, Sources: contexts}, nil
}
