package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docvault/internal/core/domain"
)

type catalogRepoFake struct {
	created  *domain.Document
	listSort domain.SortSpec
	docs     []domain.Document
	counts   map[string]map[string]int
	err      error
}

func (f *catalogRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *catalogRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			doc := f.docs[i]
			return &doc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New(id))
}

func (f *catalogRepoFake) List(_ context.Context, sort domain.SortSpec) ([]domain.Document, error) {
	f.listSort = sort
	return f.docs, f.err
}

func (f *catalogRepoFake) CountBy(_ context.Context, column string) (map[string]int, error) {
	return f.counts[column], f.err
}

type catalogStorageFake struct {
	savedKey  string
	savedBody string
	opened    string
	deleted   []string
	err       error
}

func (f *catalogStorageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return int64(len(raw)), nil
}

func (f *catalogStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.opened = key
	return io.NopCloser(strings.NewReader("content")), nil
}

func (f *catalogStorageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type pageCounterFake struct {
	pages int
	ok    bool
	err   error
}

func (f pageCounterFake) CountPages(context.Context, string, string) (int, bool, error) {
	return f.pages, f.ok, f.err
}

type templatesFake map[string]domain.SummaryTemplate

func (f templatesFake) ForCategory(category string) domain.SummaryTemplate {
	if tpl, ok := f[category]; ok {
		return tpl
	}
	return f[domain.CategoryOther]
}

type eventsFake struct {
	events []domain.DocumentCreatedEvent
	err    error
}

func (f *eventsFake) PublishDocumentCreated(_ context.Context, event domain.DocumentCreatedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type exporterFake struct {
	docs []domain.Document
}

func (f *exporterFake) Export(w io.Writer, docs []domain.Document) error {
	f.docs = docs
	_, err := io.WriteString(w, "xlsx")
	return err
}

func testTemplates() templatesFake {
	return templatesFake{
		domain.CategoryContract: {Summary: "contract summary", Insights: []string{"c1", "c2"}, Tags: []string{"legal"}},
		domain.CategoryOther:    {Summary: "other summary", Insights: []string{"o1"}, Tags: []string{"general"}},
	}
}

func TestCatalogCreateFillsTemplate(t *testing.T) {
	repo := &catalogRepoFake{}
	events := &eventsFake{}
	uc := NewCatalogUseCase(CatalogDeps{Repo: repo, Templates: testTemplates(), Events: events})
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return fixed }

	doc, err := uc.Create(context.Background(), domain.DocumentFields{Title: " NDA ", Category: "Contract"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if doc.Title != "NDA" || doc.Category != domain.CategoryContract {
		t.Fatalf("unexpected title/category: %q/%q", doc.Title, doc.Category)
	}
	if doc.AISummary != "contract summary" || !reflect.DeepEqual(doc.KeyInsights, []string{"c1", "c2"}) {
		t.Fatalf("expected contract template, got %q %#v", doc.AISummary, doc.KeyInsights)
	}
	if doc.Status != domain.StatusReady {
		t.Fatalf("expected status ready, got %s", doc.Status)
	}
	if !doc.CreatedDate.Equal(fixed) {
		t.Fatalf("expected created date %v, got %v", fixed, doc.CreatedDate)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("expected repo.Create call")
	}
	if len(events.events) != 1 || events.events[0].DocumentID != doc.ID {
		t.Fatalf("expected created event, got %#v", events.events)
	}
}

func TestCatalogCreateUnknownCategoryFallsBackToOther(t *testing.T) {
	repo := &catalogRepoFake{}
	uc := NewCatalogUseCase(CatalogDeps{Repo: repo, Templates: testTemplates()})

	doc, err := uc.Create(context.Background(), domain.DocumentFields{Title: "Memo", Category: "poetry"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.Category != domain.CategoryOther || doc.AISummary != "other summary" {
		t.Fatalf("expected other template, got %q/%q", doc.Category, doc.AISummary)
	}
}

func TestCatalogCreateKeepsCallerAnalysis(t *testing.T) {
	uc := NewCatalogUseCase(CatalogDeps{Repo: &catalogRepoFake{}, Templates: testTemplates()})

	doc, err := uc.Create(context.Background(), domain.DocumentFields{
		Title:       "Q3",
		Category:    "report",
		AISummary:   "custom",
		KeyInsights: []string{"k"},
		Tags:        []string{"t"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.AISummary != "custom" || !reflect.DeepEqual(doc.KeyInsights, []string{"k"}) || !reflect.DeepEqual(doc.Tags, []string{"t"}) {
		t.Fatalf("caller analysis overwritten: %#v", doc)
	}
}

func TestCatalogCreateRequiresTitleAndCategory(t *testing.T) {
	uc := NewCatalogUseCase(CatalogDeps{Repo: &catalogRepoFake{}})
	_, err := uc.Create(context.Background(), domain.DocumentFields{Title: "x"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCatalogCreateIgnoresPublishFailure(t *testing.T) {
	uc := NewCatalogUseCase(CatalogDeps{Repo: &catalogRepoFake{}, Events: &eventsFake{err: errors.New("nats down")}})
	if _, err := uc.Create(context.Background(), domain.DocumentFields{Title: "x", Category: "other"}); err != nil {
		t.Fatalf("expected publish failure to be tolerated, got %v", err)
	}
}

func TestCatalogUploadStoresFileAndCountsPages(t *testing.T) {
	repo := &catalogRepoFake{}
	storage := &catalogStorageFake{}
	uc := NewCatalogUseCase(CatalogDeps{
		Repo:      repo,
		Storage:   storage,
		Pages:     pageCounterFake{pages: 7, ok: true},
		Templates: testTemplates(),
	})

	doc, err := uc.Upload(context.Background(), "q3 report.pdf", "application/pdf", bytes.NewBufferString("hello"), domain.DocumentFields{Category: "report"})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Title != "q3 report.pdf" {
		t.Fatalf("expected title from filename, got %q", doc.Title)
	}
	if !strings.HasSuffix(storage.savedKey, "_q3_report.pdf") || !strings.HasPrefix(storage.savedKey, doc.ID) {
		t.Fatalf("unexpected storage key %s", storage.savedKey)
	}
	if doc.FileSize == nil || *doc.FileSize != 5 {
		t.Fatalf("expected file size 5, got %v", doc.FileSize)
	}
	if doc.PageCount == nil || *doc.PageCount != 7 {
		t.Fatalf("expected page count 7, got %v", doc.PageCount)
	}
	if repo.created == nil || repo.created.StorageKey != storage.savedKey {
		t.Fatalf("expected storage key persisted")
	}
}

func TestCatalogUploadToleratesPageCountFailure(t *testing.T) {
	uc := NewCatalogUseCase(CatalogDeps{
		Repo:    &catalogRepoFake{},
		Storage: &catalogStorageFake{},
		Pages:   pageCounterFake{err: errors.New("corrupt pdf")},
	})
	doc, err := uc.Upload(context.Background(), "a.pdf", "application/pdf", bytes.NewBufferString("x"), domain.DocumentFields{Category: "other"})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.PageCount != nil {
		t.Fatalf("expected no page count, got %d", *doc.PageCount)
	}
}

func TestCatalogUploadStorageError(t *testing.T) {
	repo := &catalogRepoFake{}
	uc := NewCatalogUseCase(CatalogDeps{Repo: repo, Storage: &catalogStorageFake{err: errors.New("disk full")}})
	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", bytes.NewBufferString("x"), domain.DocumentFields{Category: "other"})
	if err == nil || !strings.Contains(err.Error(), "save to object storage") {
		t.Fatalf("expected storage error, got %v", err)
	}
	if repo.created != nil {
		t.Fatalf("document must not be created when storage fails")
	}
}

func TestCatalogUploadRemovesFileWhenMetadataFails(t *testing.T) {
	storage := &catalogStorageFake{}
	uc := NewCatalogUseCase(CatalogDeps{Repo: &catalogRepoFake{err: errors.New("db down")}, Storage: storage})
	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", bytes.NewBufferString("x"), domain.DocumentFields{Category: "other"})
	if err == nil || !strings.Contains(err.Error(), "create document metadata") {
		t.Fatalf("expected metadata error, got %v", err)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != storage.savedKey {
		t.Fatalf("expected stored file %q removed, got %v", storage.savedKey, storage.deleted)
	}
}

func TestCatalogListDefaultsToNewestFirst(t *testing.T) {
	repo := &catalogRepoFake{}
	uc := NewCatalogUseCase(CatalogDeps{Repo: repo})
	if _, err := uc.List(context.Background(), ""); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.listSort != (domain.SortSpec{Field: "created_date", Desc: true}) {
		t.Fatalf("unexpected sort %#v", repo.listSort)
	}
}

func TestParseSortSpec(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.SortSpec
		wantErr bool
	}{
		{raw: "-created_date", want: domain.SortSpec{Field: "created_date", Desc: true}},
		{raw: "title", want: domain.SortSpec{Field: "title"}},
		{raw: "+category", want: domain.SortSpec{Field: "category"}},
		{raw: "-id; DROP TABLE documents", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSortSpec(tt.raw)
		if tt.wantErr {
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("ParseSortSpec(%q) expected ErrInvalidInput, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSortSpec(%q) error = %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseSortSpec(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestCatalogStatsTotalsByStatus(t *testing.T) {
	repo := &catalogRepoFake{counts: map[string]map[string]int{
		"status":   {"ready": 3, "processing": 1},
		"category": {"report": 2, "other": 2},
	}}
	stats, err := NewCatalogUseCase(CatalogDeps{Repo: repo}).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 4 || stats.ByStatus["ready"] != 3 || stats.ByCategory["report"] != 2 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestCatalogStatsListsEveryStatusAndCategory(t *testing.T) {
	repo := &catalogRepoFake{counts: map[string]map[string]int{
		"status":   {"ready": 1},
		"category": {"invoice": 1},
	}}
	stats, err := NewCatalogUseCase(CatalogDeps{Repo: repo}).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	for _, status := range domain.DocumentStatuses() {
		if _, ok := stats.ByStatus[string(status)]; !ok {
			t.Fatalf("expected status %q in %#v", status, stats.ByStatus)
		}
	}
	if stats.ByStatus["failed"] != 0 || stats.ByStatus["ready"] != 1 {
		t.Fatalf("unexpected status counts %#v", stats.ByStatus)
	}
	if len(stats.ByCategory) != len(domain.DocumentCategories()) || stats.ByCategory["contract"] != 0 {
		t.Fatalf("expected every category, got %#v", stats.ByCategory)
	}
}

func TestCatalogExportUsesListing(t *testing.T) {
	repo := &catalogRepoFake{docs: []domain.Document{{ID: "a"}, {ID: "b"}}}
	exporter := &exporterFake{}
	var buf bytes.Buffer
	if err := NewCatalogUseCase(CatalogDeps{Repo: repo, Exporter: exporter}).Export(context.Background(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(exporter.docs) != 2 || buf.String() != "xlsx" {
		t.Fatalf("unexpected export: %d docs, %q", len(exporter.docs), buf.String())
	}
}

func TestCatalogOpenFile(t *testing.T) {
	storage := &catalogStorageFake{}
	repo := &catalogRepoFake{docs: []domain.Document{
		{ID: "with-file", StorageKey: "with-file_a.pdf"},
		{ID: "no-file"},
	}}
	uc := NewCatalogUseCase(CatalogDeps{Repo: repo, Storage: storage})

	reader, doc, err := uc.OpenFile(context.Background(), "with-file")
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	_ = reader.Close()
	if doc.ID != "with-file" || storage.opened != "with-file_a.pdf" {
		t.Fatalf("unexpected open: doc=%s key=%s", doc.ID, storage.opened)
	}

	_, _, err = uc.OpenFile(context.Background(), "no-file")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
