package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// DocumentStore is the postgres ports.DocumentStore, one instance per board.
// Search runs the filter in SQL and the ranking pipeline in process, all
// inside a repeatable-read transaction so both axes see one snapshot.
type DocumentStore struct {
	db   *sql.DB
	spec entitySpec
}

func NewNoticeStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, spec: noticeSpec}
}

func NewPNUNoticeStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, spec: pnuNoticeSpec}
}

func NewSupportStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, spec: supportSpec}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore) scanDocument(row rowScanner) (domain.Document, error) {
	var (
		doc          domain.Document
		titleVec     []byte
		titleSparse  []byte
		date         sql.NullTime
		isImportant  sql.NullBool
		departmentID sql.NullInt64
		semesterID   sql.NullInt64
	)

	dest := []any{
		&doc.ID, &doc.Title, &doc.Content, &doc.URL, &doc.Author,
		&doc.Category, &doc.SubCategory, &titleVec, &titleSparse,
	}
	if s.spec.hasDate {
		dest = append(dest, &date)
	}
	if s.spec.hasImportant {
		dest = append(dest, &isImportant)
	}
	if s.spec.hasDepartment {
		dest = append(dest, &departmentID)
	}
	if s.spec.hasSemester {
		dest = append(dest, &semesterID)
	}

	if err := row.Scan(dest...); err != nil {
		return domain.Document{}, err
	}

	doc.Kind = s.spec.kind
	if date.Valid {
		d := date.Time
		doc.Date = &d
	}
	if isImportant.Valid {
		v := isImportant.Bool
		doc.IsImportant = &v
	}
	if departmentID.Valid {
		v := departmentID.Int64
		doc.DepartmentID = &v
	}
	if semesterID.Valid {
		v := semesterID.Int64
		doc.SemesterID = &v
	}

	var err error
	if doc.TitleVector, err = decodeDense(titleVec); err != nil {
		return domain.Document{}, err
	}
	if doc.TitleSparseVector, err = decodeSparse(titleSparse); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func (s *DocumentStore) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1",
		strings.Join(s.spec.docColumns(), ", "), s.spec.docTable)

	doc, err := s.scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document",
				fmt.Errorf("%s id %d", s.spec.kind, id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func (s *DocumentStore) UpsertByURL(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	cols := []string{"title", "content", "url", "author", "category", "sub_category"}
	if s.spec.hasDate {
		cols = append(cols, "date")
	}
	if s.spec.hasImportant {
		cols = append(cols, "is_important")
	}
	if s.spec.hasDepartment {
		cols = append(cols, "department_id")
	}

	ph := make([]string, len(cols))
	sets := make([]string, 0, len(cols))
	for i, col := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
		if col != "url" {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES (%s)
ON CONFLICT (url) DO UPDATE SET %s
RETURNING id
`, s.spec.docTable, strings.Join(cols, ", "), strings.Join(ph, ","), strings.Join(sets, ", "))

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		args := []any{doc.Title, doc.Content, doc.URL, doc.Author, doc.Category, doc.SubCategory}
		if s.spec.hasDate {
			args = append(args, nullTime(doc.Date))
		}
		if s.spec.hasImportant {
			args = append(args, nullBool(doc.IsImportant))
		}
		if s.spec.hasDepartment {
			args = append(args, nullInt64(doc.DepartmentID))
		}

		stored := doc
		stored.Kind = s.spec.kind
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&stored.ID); err != nil {
			return nil, fmt.Errorf("upsert document %q: %w", doc.URL, err)
		}
		out = append(out, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert tx: %w", err)
	}
	return out, nil
}

func (s *DocumentStore) ListAttachments(ctx context.Context, documentID int64) ([]domain.Attachment, error) {
	query := fmt.Sprintf("SELECT id, %s, name, url FROM %s WHERE %s = $1 ORDER BY id",
		s.spec.fkColumn, s.spec.attachmentTable, s.spec.fkColumn)

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Attachment, 0)
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.DocumentID, &att.Name, &att.URL); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}

func (s *DocumentStore) InsertAttachments(ctx context.Context, documentID int64, attachments []domain.Attachment) ([]domain.Attachment, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (%s, name, url)
VALUES ($1,$2,$3)
ON CONFLICT DO NOTHING
RETURNING id
`, s.spec.attachmentTable, s.spec.fkColumn)

	out := make([]domain.Attachment, 0, len(attachments))
	for _, att := range attachments {
		att.DocumentID = documentID
		err := s.db.QueryRowContext(ctx, query, documentID, att.Name, att.URL).Scan(&att.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("insert attachment %q: %w", att.Name, err)
		}
		out = append(out, att)
	}
	return out, nil
}

func (s *DocumentStore) ReplaceChunks(ctx context.Context, documentID int64, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.spec.chunkTable, s.spec.fkColumn)
	if _, err := tx.ExecContext(ctx, del, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	ins := fmt.Sprintf(`
INSERT INTO %s (%s, attachment_id, content, vector, sparse_vector)
VALUES ($1,$2,$3,$4,$5)
`, s.spec.chunkTable, s.spec.fkColumn)

	for _, chunk := range chunks {
		vec, err := encodeJSON(chunk.Vector)
		if err != nil {
			return err
		}
		sparse, err := encodeJSON(chunk.SparseVector)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, ins, documentID, nullInt64(chunk.AttachmentID), chunk.Content, vec, sparse); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

func (s *DocumentStore) SetTitleEmbedding(ctx context.Context, documentID int64, embedding domain.Embedding) error {
	vec, err := encodeJSON(embedding.Dense)
	if err != nil {
		return err
	}
	sparse, err := encodeJSON(embedding.Sparse)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET title_vector = $2, title_sparse_vector = $3 WHERE id = $1", s.spec.docTable)
	res, err := s.db.ExecContext(ctx, query, documentID, vec, sparse)
	if err != nil {
		return fmt.Errorf("set title embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.WrapError(domain.ErrNotFound, "set title embedding",
			fmt.Errorf("%s id %d", s.spec.kind, documentID))
	}
	return nil
}

func (s *DocumentStore) SearchChunks(ctx context.Context, query domain.Embedding, filter ranking.Filter, params ranking.Params) (*ports.ChunkSearchResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin search tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	docs, ids, err := s.filteredDocuments(ctx, tx, filter)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return emptyChunkResult(), nil
	}

	candidates, err := s.candidateChunks(ctx, tx, ids, docs)
	if err != nil {
		return nil, err
	}

	hits := ranking.RankChunks(query, candidates, params)
	if len(hits) == 0 {
		return emptyChunkResult(), nil
	}

	attachments, err := s.hitAttachments(ctx, tx, hits)
	if err != nil {
		return nil, err
	}

	hitDocs := make(map[int64]domain.Document, len(hits))
	for _, hit := range hits {
		if doc, ok := docs[hit.Candidate.DocumentID]; ok {
			hitDocs[doc.ID] = doc
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit search tx: %w", err)
	}
	return &ports.ChunkSearchResult{Hits: hits, Documents: hitDocs, Attachments: attachments}, nil
}

func (s *DocumentStore) SearchDocuments(ctx context.Context, query domain.Embedding, filter ranking.Filter, params ranking.Params) (*ports.DocumentSearchResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin search tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	docsByID, ids, err := s.filteredDocuments(ctx, tx, filter)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &ports.DocumentSearchResult{
			Hits:      []ranking.ScoredDocument{},
			Documents: map[int64]domain.Document{},
		}, nil
	}

	candidates, err := s.candidateChunks(ctx, tx, ids, docsByID)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, docsByID[id])
	}
	chunks := make([]domain.Chunk, 0, len(candidates))
	for _, c := range candidates {
		chunks = append(chunks, domain.Chunk{
			ID:           c.ChunkID,
			DocumentID:   c.DocumentID,
			AttachmentID: c.AttachmentID,
			Content:      c.Content,
			Vector:       c.ChunkVector,
			SparseVector: c.ChunkSparse,
		})
	}

	hits := ranking.RankDocuments(query, docs, chunks, params)
	hitDocs := make(map[int64]domain.Document, len(hits))
	for _, hit := range hits {
		hitDocs[hit.DocumentID] = docsByID[hit.DocumentID]
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit search tx: %w", err)
	}
	return &ports.DocumentSearchResult{Hits: hits, Documents: hitDocs}, nil
}

func (s *DocumentStore) CountDocuments(ctx context.Context, filter ranking.Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	args := &argList{}
	where := filterWhere(filter, s.spec, args)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", s.spec.docTable, where)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *DocumentStore) DeleteDocuments(ctx context.Context, filter ranking.Filter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	args := &argList{}
	where := filterWhere(filter, s.spec, args)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.spec.docTable, where)

	res, err := s.db.ExecContext(ctx, query, args.args...)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

func (s *DocumentStore) AssignSemester(ctx context.Context, semester domain.Semester, filter ranking.Filter) (int64, error) {
	if !s.spec.hasSemester {
		return 0, nil
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	args := &argList{}
	semID := args.add(semester.ID)
	st := args.add(semester.StDate)
	ed := args.add(semester.EdDate)
	where := filterWhere(filter, s.spec, args)

	query := fmt.Sprintf(`
UPDATE %s
SET semester_id = %s
WHERE date BETWEEN %s AND %s AND semester_id IS NULL AND %s
`, s.spec.docTable, semID, st, ed, where)

	res, err := s.db.ExecContext(ctx, query, args.args...)
	if err != nil {
		return 0, fmt.Errorf("assign semester: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("assign semester: %w", err)
	}
	return n, nil
}

// FindLastBySequence returns the row whose URL carries the highest numeric
// board sequence, the crawler's high-water mark. Nil on an empty table.
func (s *DocumentStore) FindLastBySequence(ctx context.Context) (*domain.Document, error) {
	query := fmt.Sprintf(`
SELECT %s FROM %s
ORDER BY NULLIF(regexp_replace(url, '\D', '', 'g'), '')::BIGINT DESC NULLS LAST
LIMIT 1
`, strings.Join(s.spec.docColumns(), ", "), s.spec.docTable)

	doc, err := s.scanDocument(s.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find last by sequence: %w", err)
	}
	return &doc, nil
}

func (s *DocumentStore) filteredDocuments(ctx context.Context, tx *sql.Tx, filter ranking.Filter) (map[int64]domain.Document, []int64, error) {
	args := &argList{}
	where := filterWhere(filter, s.spec, args)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id",
		strings.Join(s.spec.docColumns(), ", "), s.spec.docTable, where)

	rows, err := tx.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[int64]domain.Document)
	ids := make([]int64, 0)
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan document: %w", err)
		}
		docs[doc.ID] = doc
		ids = append(ids, doc.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, ids, nil
}

func (s *DocumentStore) candidateChunks(ctx context.Context, tx *sql.Tx, documentIDs []int64, docs map[int64]domain.Document) ([]ranking.Candidate, error) {
	args := &argList{}
	vs := make([]any, len(documentIDs))
	for i, id := range documentIDs {
		vs[i] = id
	}
	query := fmt.Sprintf(`
SELECT id, %s, attachment_id, content, vector, sparse_vector
FROM %s
WHERE %s IN (%s)
ORDER BY id
`, s.spec.fkColumn, s.spec.chunkTable, s.spec.fkColumn, args.addAll(vs...))

	rows, err := tx.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	out := make([]ranking.Candidate, 0)
	for rows.Next() {
		var (
			c            ranking.Candidate
			attachmentID sql.NullInt64
			vec, sparse  []byte
		)
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &attachmentID, &c.Content, &vec, &sparse); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if attachmentID.Valid {
			v := attachmentID.Int64
			c.AttachmentID = &v
		}
		if c.ChunkVector, err = decodeDense(vec); err != nil {
			return nil, err
		}
		if c.ChunkSparse, err = decodeSparse(sparse); err != nil {
			return nil, err
		}
		if doc, ok := docs[c.DocumentID]; ok {
			c.TitleVector = doc.TitleVector
			c.TitleSparse = doc.TitleSparseVector
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (s *DocumentStore) hitAttachments(ctx context.Context, tx *sql.Tx, hits []ranking.ScoredChunk) (map[int64]domain.Attachment, error) {
	ids := make([]any, 0, len(hits))
	seen := make(map[int64]bool, len(hits))
	for _, hit := range hits {
		if hit.Candidate.AttachmentID == nil || seen[*hit.Candidate.AttachmentID] {
			continue
		}
		seen[*hit.Candidate.AttachmentID] = true
		ids = append(ids, *hit.Candidate.AttachmentID)
	}
	if len(ids) == 0 {
		return map[int64]domain.Attachment{}, nil
	}

	args := &argList{}
	query := fmt.Sprintf("SELECT id, %s, name, url FROM %s WHERE id IN (%s)",
		s.spec.fkColumn, s.spec.attachmentTable, args.addAll(ids...))

	rows, err := tx.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Attachment, len(ids))
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.DocumentID, &att.Name, &att.URL); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out[att.ID] = att
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}

func emptyChunkResult() *ports.ChunkSearchResult {
	return &ports.ChunkSearchResult{
		Hits:        []ranking.ScoredChunk{},
		Documents:   map[int64]domain.Document{},
		Attachments: map[int64]domain.Attachment{},
	}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
