package pagecount

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docvault/internal/core/ports"
)

// Counter reads stored files back and counts PDF pages.
type Counter struct {
	storage ports.ObjectStorage
}

func NewCounter(storage ports.ObjectStorage) *Counter {
	return &Counter{storage: storage}
}

// CountPages reports ok=false for anything that is not a PDF.
func (c *Counter) CountPages(ctx context.Context, key, mimeType string) (int, bool, error) {
	if !isPDF(key, mimeType) {
		return 0, false, nil
	}
	rc, err := c.storage.Open(ctx, key)
	if err != nil {
		return 0, false, fmt.Errorf("open pdf: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return 0, false, fmt.Errorf("read pdf: %w", err)
	}
	pages, err := countPages(data)
	if err != nil {
		return 0, false, err
	}
	return pages, true, nil
}

func countPages(data []byte) (pages int, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func isPDF(key, mimeType string) bool {
	if strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(key), ".pdf")
}
