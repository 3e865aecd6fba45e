package localparse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/storage/localfs"
)

// Extractor downloads an attachment into the local cache and extracts text
// by file extension. Formats it cannot handle map to ErrParse so the indexer
// skips the attachment rather than failing the document.
type Extractor struct {
	storage    *localfs.Storage
	httpClient *http.Client
}

func New(storage *localfs.Storage) *Extractor {
	return &Extractor{
		storage:    storage,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Extractor) Extract(ctx context.Context, attachment domain.Attachment) (string, error) {
	ext := extension(attachment)
	switch ext {
	case ".pdf", ".xlsx", ".txt":
	default:
		return "", domain.WrapError(domain.ErrParse, "extract attachment",
			fmt.Errorf("unsupported format %q", ext))
	}

	cached, err := e.fetch(ctx, attachment, ext)
	if err != nil {
		return "", err
	}

	switch ext {
	case ".pdf":
		return extractPDF(cached)
	case ".xlsx":
		return extractXLSX(cached)
	default:
		return extractPlainText(ctx, e.storage, cached)
	}
}

// fetch downloads the attachment into the cache, keyed by URL hash so a
// re-indexed document does not re-download. Returns the cache key.
func (e *Extractor) fetch(ctx context.Context, attachment domain.Attachment, ext string) (string, error) {
	sum := sha256.Sum256([]byte(attachment.URL))
	key := hex.EncodeToString(sum[:16]) + ext

	if existing, err := e.storage.Open(ctx, key); err == nil {
		existing.Close()
		return e.storage.Path(key), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "download attachment", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", domain.WrapError(domain.ErrParse, "download attachment",
			fmt.Errorf("status %s for %s", resp.Status, attachment.URL))
	}

	if err := e.storage.Save(ctx, key, resp.Body); err != nil {
		return "", fmt.Errorf("cache attachment: %w", err)
	}
	return e.storage.Path(key), nil
}

func extractPlainText(ctx context.Context, storage *localfs.Storage, filePath string) (string, error) {
	f, err := storage.Open(ctx, path.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("open cached attachment: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read cached attachment: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrParse, "extract text",
			fmt.Errorf("file is not valid utf-8"))
	}
	return strings.TrimSpace(string(raw)), nil
}

// extension prefers the attachment name over the URL: board URLs often hide
// the format behind a download endpoint.
func extension(attachment domain.Attachment) string {
	if ext := strings.ToLower(path.Ext(attachment.Name)); ext != "" {
		return ext
	}
	if u, err := url.Parse(attachment.URL); err == nil {
		return strings.ToLower(path.Ext(u.Path))
	}
	return ""
}
