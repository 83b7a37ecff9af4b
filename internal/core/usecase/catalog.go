package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
)

const defaultSort = "-created_date"

var sortableColumns = map[string]string{
	"created_date": "created_date",
	"title":        "title",
	"category":     "category",
	"status":       "status",
}

type CatalogDeps struct {
	Repo      ports.DocumentRepository
	Storage   ports.ObjectStorage
	Pages     ports.PageCounter
	Templates ports.SummaryTemplates
	Exporter  ports.CatalogExporter
	Events    ports.EventPublisher
}

type CatalogUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	pages     ports.PageCounter
	templates ports.SummaryTemplates
	exporter  ports.CatalogExporter
	events    ports.EventPublisher

	now func() time.Time
}

func NewCatalogUseCase(deps CatalogDeps) *CatalogUseCase {
	return &CatalogUseCase{
		repo:      deps.Repo,
		storage:   deps.Storage,
		pages:     deps.Pages,
		templates: deps.Templates,
		exporter:  deps.Exporter,
		events:    deps.Events,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CatalogUseCase) List(ctx context.Context, sort string) ([]domain.Document, error) {
	spec, err := ParseSortSpec(sort)
	if err != nil {
		return nil, err
	}
	docs, err := uc.repo.List(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (uc *CatalogUseCase) Get(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get document", errors.New("document id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *CatalogUseCase) Create(ctx context.Context, fields domain.DocumentFields) (*domain.Document, error) {
	doc, err := uc.newDocument(uuid.NewString(), fields)
	if err != nil {
		return nil, err
	}
	return uc.persist(ctx, doc)
}

// Upload stores the file, derives size and page count, then creates the document.
// The title defaults to the file name.
func (uc *CatalogUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
	fields domain.DocumentFields,
) (*domain.Document, error) {
	if uc.storage == nil {
		return nil, domain.WrapError(domain.ErrNotConfigured, "upload document", errors.New("object storage is not configured"))
	}
	if strings.TrimSpace(fields.Title) == "" {
		fields.Title = filename
	}

	id := uuid.NewString()
	doc, err := uc.newDocument(id, fields)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	size, err := uc.storage.Save(ctx, key, body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	doc.StorageKey = key
	doc.MimeType = mimeType
	doc.FileSize = &size
	doc.FileURL = "/v1/documents/" + id + "/file"

	if uc.pages != nil {
		pages, ok, err := uc.pages.CountPages(ctx, key, mimeType)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "page_count_failed", "document_id", id, "error", err)
		case ok:
			doc.PageCount = &pages
		}
	}

	saved, err := uc.persist(ctx, doc)
	if err != nil {
		if delErr := uc.storage.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "orphan_file_cleanup_failed", "document_id", id, "storage_key", key, "error", delErr)
		}
		return nil, err
	}
	return saved, nil
}

func (uc *CatalogUseCase) OpenFile(ctx context.Context, id string) (io.ReadCloser, *domain.Document, error) {
	doc, err := uc.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.StorageKey == "" || uc.storage == nil {
		return nil, nil, domain.WrapError(domain.ErrDocumentNotFound, "open document file", fmt.Errorf("no stored file for %s", id))
	}
	reader, err := uc.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored file: %w", err)
	}
	return reader, doc, nil
}

func (uc *CatalogUseCase) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	byStatus, err := uc.repo.CountBy(ctx, "status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	byCategory, err := uc.repo.CountBy(ctx, "category")
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	stats := &domain.CatalogStats{
		ByStatus:   make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, status := range domain.DocumentStatuses() {
		stats.ByStatus[string(status)] = 0
	}
	for _, category := range domain.DocumentCategories() {
		stats.ByCategory[category] = 0
	}
	for status, n := range byStatus {
		stats.ByStatus[status] += n
		stats.Total += n
	}
	for category, n := range byCategory {
		stats.ByCategory[category] += n
	}
	return stats, nil
}

func (uc *CatalogUseCase) Export(ctx context.Context, w io.Writer) error {
	if uc.exporter == nil {
		return domain.WrapError(domain.ErrNotConfigured, "export catalog", errors.New("exporter is not configured"))
	}
	docs, err := uc.List(ctx, defaultSort)
	if err != nil {
		return err
	}
	if err := uc.exporter.Export(w, docs); err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	return nil
}

func (uc *CatalogUseCase) newDocument(id string, fields domain.DocumentFields) (*domain.Document, error) {
	title := strings.TrimSpace(fields.Title)
	category := strings.ToLower(strings.TrimSpace(fields.Category))
	if title == "" || category == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create document", errors.New("title and category are required"))
	}
	if !domain.IsKnownCategory(category) {
		category = domain.CategoryOther
	}

	var template domain.SummaryTemplate
	if uc.templates != nil {
		template = uc.templates.ForCategory(category)
	}

	doc := &domain.Document{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(fields.Description),
		Category:    category,
		AISummary:   fields.AISummary,
		KeyInsights: fields.KeyInsights,
		Tags:        fields.Tags,
		Status:      domain.StatusReady,
		FileURL:     fields.FileURL,
		FileSize:    fields.FileSize,
		PageCount:   fields.PageCount,
		CreatedDate: uc.now(),
	}
	if doc.AISummary == "" {
		doc.AISummary = template.Summary
	}
	if len(doc.KeyInsights) == 0 {
		doc.KeyInsights = append([]string{}, template.Insights...)
	}
	if len(doc.Tags) == 0 {
		doc.Tags = append([]string{}, template.Tags...)
	}
	return doc, nil
}

func (uc *CatalogUseCase) persist(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if uc.events != nil {
		event := domain.DocumentCreatedEvent{
			DocumentID:  doc.ID,
			Category:    doc.Category,
			CreatedDate: doc.CreatedDate,
		}
		if err := uc.events.PublishDocumentCreated(ctx, event); err != nil {
			slog.WarnContext(ctx, "document_event_publish_failed", "document_id", doc.ID, "error", err)
		}
	}
	return doc, nil
}

// ParseSortSpec accepts "field" or "-field"; empty means newest first.
func ParseSortSpec(raw string) (domain.SortSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultSort
	}
	desc := strings.HasPrefix(raw, "-")
	field := strings.TrimPrefix(strings.TrimPrefix(raw, "-"), "+")

	column, ok := sortableColumns[field]
	if !ok {
		return domain.SortSpec{}, domain.WrapError(domain.ErrInvalidInput, "parse sort", fmt.Errorf("unsupported sort field %q", field))
	}
	return domain.SortSpec{Field: column, Desc: desc}, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "document.bin"
	}
	return base
}
