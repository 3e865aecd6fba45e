package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
)

func newIndexFixture() (*IndexUseCase, *fakeStore, *fakeExtractor, *fakeSemesterStore) {
	notices := newFakeStore()
	extractor := &fakeExtractor{texts: map[string]string{}, errs: map[string]error{}}
	semesters := &fakeSemesterStore{semesters: []domain.Semester{
		{ID: 1, Year: 2025, Term: domain.TermFall,
			StDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			EdDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}}
	uc := NewIndexUseCase(
		map[domain.DocumentKind]ports.DocumentStore{domain.KindNotice: notices},
		semesters,
		&fakeEmbedder{result: domain.Embedding{Dense: []float32{1}, Sparse: map[int]float32{1: 1}}},
		extractor,
		passthroughCleaner{},
		wordChunker{},
		slog.Default(),
	)
	return uc, notices, extractor, semesters
}

func TestIndexStoresChunksAndTitleEmbedding(t *testing.T) {
	uc, notices, _, _ := newIndexFixture()
	date := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	notices.byID[1] = domain.Document{
		ID: 1, Kind: domain.KindNotice,
		Title:   "수강신청 안내",
		Content: "one two three",
		URL:     "https://cse.pnu.ac.kr/notice/1",
		Date:    &date,
	}

	if err := uc.Index(context.Background(), domain.KindNotice, 1); err != nil {
		t.Fatalf("Index: %v", err)
	}

	chunks := notices.replaced[1]
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3 body chunks", len(chunks))
	}
	for _, c := range chunks {
		if c.AttachmentID != nil {
			t.Fatalf("body chunk carries attachment id %d", *c.AttachmentID)
		}
		if c.Vector == nil || c.SparseVector == nil {
			t.Fatal("chunk not embedded")
		}
	}
	if _, ok := notices.titleEmb[1]; !ok {
		t.Fatal("title embedding not stored")
	}
}

func TestIndexEmbedsAttachments(t *testing.T) {
	uc, notices, extractor, _ := newIndexFixture()
	notices.byID[1] = domain.Document{
		ID: 1, Kind: domain.KindNotice,
		Title: "공지", Content: "body",
		URL: "https://cse.pnu.ac.kr/notice/1",
	}
	notices.attachments[1] = []domain.Attachment{
		{ID: 9, DocumentID: 1, Name: "일정.pdf", URL: "https://cse.pnu.ac.kr/files/1.pdf"},
	}
	extractor.texts["https://cse.pnu.ac.kr/files/1.pdf"] = "alpha beta"

	if err := uc.Index(context.Background(), domain.KindNotice, 1); err != nil {
		t.Fatalf("Index: %v", err)
	}

	var attachmentChunks int
	for _, c := range notices.replaced[1] {
		if c.AttachmentID != nil && *c.AttachmentID == 9 {
			attachmentChunks++
		}
	}
	if attachmentChunks != 2 {
		t.Fatalf("attachment chunks = %d, want 2", attachmentChunks)
	}
}

func TestIndexSkipsUnparseableAttachment(t *testing.T) {
	uc, notices, extractor, _ := newIndexFixture()
	notices.byID[1] = domain.Document{
		ID: 1, Kind: domain.KindNotice,
		Title: "공지", Content: "body",
		URL: "https://cse.pnu.ac.kr/notice/1",
	}
	notices.attachments[1] = []domain.Attachment{
		{ID: 9, DocumentID: 1, Name: "broken.hwp", URL: "https://cse.pnu.ac.kr/files/broken.hwp"},
	}
	extractor.errs["https://cse.pnu.ac.kr/files/broken.hwp"] =
		domain.WrapError(domain.ErrParse, "extract", context.Canceled)

	if err := uc.Index(context.Background(), domain.KindNotice, 1); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(notices.replaced[1]) != 1 {
		t.Fatalf("chunks = %d, want just the body chunk", len(notices.replaced[1]))
	}
}

func TestIndexAssignsSemesterByDate(t *testing.T) {
	uc, notices, _, _ := newIndexFixture()
	date := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	notices.byID[1] = domain.Document{
		ID: 1, Kind: domain.KindNotice,
		Title: "공지", Content: "body",
		URL:  "https://cse.pnu.ac.kr/notice/1",
		Date: &date,
	}

	if err := uc.Index(context.Background(), domain.KindNotice, 1); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(notices.assigned) != 1 || notices.assigned[0].ID != 1 {
		t.Fatalf("assigned = %+v, want fall semester", notices.assigned)
	}
	f := notices.assignFilter[0]
	if len(f.URLs) != 1 || f.URLs[0] != "https://cse.pnu.ac.kr/notice/1" {
		t.Fatalf("assignment scoped to %v, want the document url", f.URLs)
	}
}

func TestIndexLeavesDateOutsideWindowsUnassigned(t *testing.T) {
	uc, notices, _, _ := newIndexFixture()
	date := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	notices.byID[1] = domain.Document{
		ID: 1, Kind: domain.KindNotice,
		Title: "공지", Content: "body",
		URL:  "https://cse.pnu.ac.kr/notice/1",
		Date: &date,
	}

	if err := uc.Index(context.Background(), domain.KindNotice, 1); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(notices.assigned) != 0 {
		t.Fatalf("assigned = %+v, want none", notices.assigned)
	}
}

func TestIndexSkipsAlreadyAssignedSemester(t *testing.T) {
	uc, notices, _, _ := newIndexFixture()
	date := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	existing := int64(3)
	notices.byID[1] = domain.Document{
		ID: 1, Kind: domain.KindNotice,
		Title: "공지", Content: "body",
		URL:        "https://cse.pnu.ac.kr/notice/1",
		Date:       &date,
		SemesterID: &existing,
	}

	if err := uc.Index(context.Background(), domain.KindNotice, 1); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(notices.assigned) != 0 {
		t.Fatal("already assigned document reassigned")
	}
}

func TestIndexUnknownDocument(t *testing.T) {
	uc, _, _, _ := newIndexFixture()

	err := uc.Index(context.Background(), domain.KindNotice, 42)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
