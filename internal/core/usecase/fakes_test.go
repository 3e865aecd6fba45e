package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

type fakeEmbedder struct {
	err    error
	result domain.Embedding
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([]domain.Embedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Embedding, len(texts))
	for i := range texts {
		out[i] = f.result
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) (domain.Embedding, error) {
	if f.err != nil {
		return domain.Embedding{}, f.err
	}
	return f.result, nil
}

type fakeReranker struct {
	err    error
	result []domain.RerankResult
	gotQ   string
	gotN   int
}

func (f *fakeReranker) Rerank(_ context.Context, query string, texts []string) ([]domain.RerankResult, error) {
	f.gotQ = query
	f.gotN = len(texts)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStore struct {
	searchErr    error
	chunkResult  *ports.ChunkSearchResult
	gotFilter    ranking.Filter
	gotParams    ranking.Params
	upserted     []domain.Document
	attachments  map[int64][]domain.Attachment
	replaced     map[int64][]domain.Chunk
	titleEmb     map[int64]domain.Embedding
	assigned     []domain.Semester
	assignFilter []ranking.Filter
	byID         map[int64]domain.Document
	deleteFilter *ranking.Filter
	deleteCount  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chunkResult: &ports.ChunkSearchResult{
			Hits:        []ranking.ScoredChunk{},
			Documents:   map[int64]domain.Document{},
			Attachments: map[int64]domain.Attachment{},
		},
		attachments: map[int64][]domain.Attachment{},
		replaced:    map[int64][]domain.Chunk{},
		titleEmb:    map[int64]domain.Embedding{},
		byID:        map[int64]domain.Document{},
	}
}

func (f *fakeStore) UpsertByURL(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, len(docs))
	for i, doc := range docs {
		doc.ID = int64(i + 1)
		out[i] = doc
	}
	f.upserted = append(f.upserted, out...)
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	doc, ok := f.byID[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %d", id))
	}
	return &doc, nil
}

func (f *fakeStore) ListAttachments(_ context.Context, documentID int64) ([]domain.Attachment, error) {
	return f.attachments[documentID], nil
}

func (f *fakeStore) InsertAttachments(_ context.Context, documentID int64, attachments []domain.Attachment) ([]domain.Attachment, error) {
	f.attachments[documentID] = append(f.attachments[documentID], attachments...)
	return attachments, nil
}

func (f *fakeStore) ReplaceChunks(_ context.Context, documentID int64, chunks []domain.Chunk) error {
	f.replaced[documentID] = chunks
	return nil
}

func (f *fakeStore) SetTitleEmbedding(_ context.Context, documentID int64, embedding domain.Embedding) error {
	f.titleEmb[documentID] = embedding
	return nil
}

func (f *fakeStore) SearchChunks(_ context.Context, _ domain.Embedding, filter ranking.Filter, params ranking.Params) (*ports.ChunkSearchResult, error) {
	f.gotFilter = filter
	f.gotParams = params
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.chunkResult, nil
}

func (f *fakeStore) SearchDocuments(_ context.Context, _ domain.Embedding, _ ranking.Filter, _ ranking.Params) (*ports.DocumentSearchResult, error) {
	return &ports.DocumentSearchResult{Documents: map[int64]domain.Document{}}, nil
}

func (f *fakeStore) CountDocuments(_ context.Context, _ ranking.Filter) (int64, error) { return 0, nil }

func (f *fakeStore) DeleteDocuments(_ context.Context, filter ranking.Filter) (int64, error) {
	f.deleteFilter = &filter
	return f.deleteCount, nil
}

func (f *fakeStore) AssignSemester(_ context.Context, semester domain.Semester, filter ranking.Filter) (int64, error) {
	f.assigned = append(f.assigned, semester)
	f.assignFilter = append(f.assignFilter, filter)
	return 1, nil
}

func (f *fakeStore) FindLastBySequence(_ context.Context) (*domain.Document, error) {
	return nil, nil
}

type fakeDepartments struct {
	ids    map[string]int64
	byName map[string]domain.Department
}

func (f *fakeDepartments) IDsByNames(_ context.Context, names []string) ([]int64, error) {
	out := make([]int64, 0, len(names))
	for _, name := range names {
		if id, ok := f.ids[name]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeDepartments) ByName(_ context.Context, name string) (*domain.Department, error) {
	dep, ok := f.byName[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "find department", fmt.Errorf("name %q", name))
	}
	return &dep, nil
}

func (f *fakeDepartments) Ensure(_ context.Context, name string) (*domain.Department, error) {
	return f.ByName(context.Background(), name)
}

type fakeSemesterStore struct {
	semesters []domain.Semester
}

func (f *fakeSemesterStore) UpsertSemesters(_ context.Context, semesters []domain.Semester) ([]domain.Semester, error) {
	f.semesters = append(f.semesters, semesters...)
	return semesters, nil
}

func (f *fakeSemesterStore) SemesterByDate(_ context.Context, date time.Time) (*domain.Semester, error) {
	for _, s := range f.semesters {
		if s.Contains(date) {
			sem := s
			return &sem, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "semester by date", fmt.Errorf("no window for %s", date))
}

func (f *fakeSemesterStore) SemesterByKey(_ context.Context, key domain.SemesterKey) (*domain.Semester, error) {
	for _, s := range f.semesters {
		if s.Year == key.Year && s.Term == key.Term {
			sem := s
			return &sem, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "semester by key", fmt.Errorf("%d/%s", key.Year, key.Term))
}

func (f *fakeSemesterStore) SemestersByKeys(_ context.Context, keys []domain.SemesterKey) ([]domain.Semester, error) {
	out := make([]domain.Semester, 0, len(keys))
	for _, key := range keys {
		if s, err := f.SemesterByKey(context.Background(), key); err == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSemesterStore) ListSemesters(_ context.Context) ([]domain.Semester, error) {
	return f.semesters, nil
}

type fakeQueue struct {
	published []int64
	err       error
}

func (f *fakeQueue) PublishDocumentStored(_ context.Context, _ domain.DocumentKind, documentID int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeDocumentStored(_ context.Context, _ func(context.Context, domain.DocumentKind, int64) error) error {
	return nil
}

func (f *fakeQueue) Close() {}

type fakeGenerator struct {
	err  error
	text string
	got  int
}

func (f *fakeGenerator) ComposeAnswer(_ context.Context, _ string, contexts []domain.DocumentContext) (string, error) {
	f.got = len(contexts)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, att domain.Attachment) (string, error) {
	if err, ok := f.errs[att.URL]; ok {
		return "", err
	}
	return f.texts[att.URL], nil
}

type passthroughCleaner struct{}

func (passthroughCleaner) Clean(text string) string { return text }

type wordChunker struct{}

func (wordChunker) Split(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
