package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// Translator is the inbound contract of the translation gateway.
type Translator interface {
	Translate(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, error)
}

// DocumentCatalog is the inbound contract for document listing and creation.
type DocumentCatalog interface {
	List(ctx context.Context, sort string) ([]domain.Document, error)
	Get(ctx context.Context, id string) (*domain.Document, error)
	Create(ctx context.Context, fields domain.DocumentFields) (*domain.Document, error)
	Upload(ctx context.Context, filename, mimeType string, body io.Reader, fields domain.DocumentFields) (*domain.Document, error)
	OpenFile(ctx context.Context, id string) (io.ReadCloser, *domain.Document, error)
	Stats(ctx context.Context) (*domain.CatalogStats, error)
	Export(ctx context.Context, w io.Writer) error
}
