package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
)

type fakeSearchService struct {
	notices    []domain.DocumentContext
	pnuNotices []domain.DocumentContext
	supports   []domain.DocumentContext
	err        error

	noticesCalled bool
}

func (f *fakeSearchService) SearchNotices(_ context.Context, _ string, _ ports.SearchOptions) ([]domain.DocumentContext, error) {
	f.noticesCalled = true
	return f.notices, f.err
}

func (f *fakeSearchService) SearchPNUNotices(_ context.Context, _ string, _ ports.SearchOptions) ([]domain.DocumentContext, error) {
	return f.pnuNotices, f.err
}

func (f *fakeSearchService) SearchSupports(_ context.Context, _ string, _ ports.SearchOptions) ([]domain.DocumentContext, error) {
	return f.supports, f.err
}

func docContext(id int64, title string) domain.DocumentContext {
	return domain.DocumentContext{Document: domain.Document{ID: id, Title: title}}
}

func TestAskConcatenatesContextsInBoardOrder(t *testing.T) {
	search := &fakeSearchService{
		notices:    []domain.DocumentContext{docContext(1, "notice")},
		pnuNotices: []domain.DocumentContext{docContext(2, "pnu")},
		supports:   []domain.DocumentContext{docContext(3, "support")},
	}
	generator := &fakeGenerator{text: "답변입니다"}
	uc := NewAskUseCase(search, generator)

	answer, err := uc.Ask(context.Background(), "질문", ports.SearchOptions{Departments: []string{"학부"}})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text != "답변입니다" {
		t.Fatalf("text = %q", answer.Text)
	}
	if len(answer.Sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(answer.Sources))
	}
	for i, want := range []int64{1, 2, 3} {
		if answer.Sources[i].Document.ID != want {
			t.Fatalf("source %d = %d, want %d", i, answer.Sources[i].Document.ID, want)
		}
	}
	if generator.got != 3 {
		t.Fatalf("generator received %d contexts, want 3", generator.got)
	}
}

func TestAskSkipsNoticesWithoutDepartments(t *testing.T) {
	search := &fakeSearchService{
		pnuNotices: []domain.DocumentContext{docContext(2, "pnu")},
	}
	uc := NewAskUseCase(search, &fakeGenerator{text: "ok"})

	answer, err := uc.Ask(context.Background(), "질문", ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if search.noticesCalled {
		t.Fatal("notices searched without a department scope")
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(answer.Sources))
	}
}

func TestAskEmptyContextsSkipsGenerator(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("must not be called")}
	uc := NewAskUseCase(&fakeSearchService{}, generator)

	answer, err := uc.Ask(context.Background(), "질문", ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text != "" {
		t.Fatalf("text = %q, want empty", answer.Text)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("sources = %#v, want empty slice", answer.Sources)
	}
}

func TestAskFailsWhenAnySearchFails(t *testing.T) {
	search := &fakeSearchService{err: errors.New("embedding service down")}
	uc := NewAskUseCase(search, &fakeGenerator{text: "ok"})

	if _, err := uc.Ask(context.Background(), "질문", ports.SearchOptions{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	uc := NewAskUseCase(&fakeSearchService{}, &fakeGenerator{})

	_, err := uc.Ask(context.Background(), "", ports.SearchOptions{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
