package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// CompletionClient sends one system+user exchange to the chat-completion provider.
// Non-success upstream statuses are reported as *domain.UpstreamStatusError.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// DocumentRepository persists and reads catalog documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, sort domain.SortSpec) ([]domain.Document, error)
	CountBy(ctx context.Context, column string) (map[string]int, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher announces catalog changes.
type EventPublisher interface {
	PublishDocumentCreated(ctx context.Context, event domain.DocumentCreatedEvent) error
}

// PageCounter counts pages of a stored file. ok is false for unsupported formats.
type PageCounter interface {
	CountPages(ctx context.Context, key, mimeType string) (pages int, ok bool, err error)
}

// SummaryTemplates resolves the canned analysis for a category.
type SummaryTemplates interface {
	ForCategory(category string) domain.SummaryTemplate
}

// CatalogExporter renders documents into a spreadsheet.
type CatalogExporter interface {
	Export(w io.Writer, docs []domain.Document) error
}
