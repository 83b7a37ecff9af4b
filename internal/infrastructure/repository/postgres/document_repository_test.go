package postgres

import (
	"context"
	"database/sql"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docvault/internal/core/domain"
)

var rowColumns = []string{
	"id", "title", "description", "category", "ai_summary", "key_insights", "tags", "status",
	"file_url", "file_size", "page_count", "storage_key", "mime_type", "created_date",
}

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesJSONAndNullableColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow(
			"doc-1", "Lease", "", "contract", "Summary", []byte(`["a","b"]`), []byte(`["legal"]`), "ready",
			"/v1/documents/doc-1/file", int64(2048), nil, "doc-1_lease.pdf", "application/pdf", created,
		))

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !reflect.DeepEqual(doc.KeyInsights, []string{"a", "b"}) || !reflect.DeepEqual(doc.Tags, []string{"legal"}) {
		t.Fatalf("unexpected json columns %#v %#v", doc.KeyInsights, doc.Tags)
	}
	if doc.FileSize == nil || *doc.FileSize != 2048 {
		t.Fatalf("expected file size 2048, got %v", doc.FileSize)
	}
	if doc.PageCount != nil {
		t.Fatalf("expected nil page count, got %v", *doc.PageCount)
	}
	if doc.Status != domain.StatusReady || !doc.CreatedDate.Equal(created) {
		t.Fatalf("unexpected document %#v", doc)
	}
}

func TestCreateInsertsJSONArrays(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	pages := 3
	doc := &domain.Document{
		ID:          "doc-1",
		Title:       "Lease",
		Category:    "contract",
		AISummary:   "Summary",
		KeyInsights: []string{"a"},
		Status:      domain.StatusReady,
		PageCount:   &pages,
		CreatedDate: time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			"doc-1", "Lease", "", "contract", "Summary", []byte(`["a"]`), []byte(`[]`), "ready",
			"", nil, int64(3), "", "", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListOrdersByWhitelistedColumn(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_date DESC, id ASC")).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow("b", "B", "", "report", "", []byte(`[]`), []byte(`[]`), "ready", "", nil, nil, "", "", time.Now()).
			AddRow("a", "A", "", "other", "", nil, nil, "failed", "", nil, int64(1), "", "", time.Now()))

	docs, err := repo.List(context.Background(), domain.SortSpec{Field: "created_date", Desc: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "b" || docs[1].ID != "a" {
		t.Fatalf("unexpected docs %#v", docs)
	}
	if docs[1].KeyInsights == nil || docs[1].PageCount == nil || *docs[1].PageCount != 1 {
		t.Fatalf("expected empty insights and page count 1, got %#v", docs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRejectsUnknownColumn(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	_, err := repo.List(context.Background(), domain.SortSpec{Field: "title; DROP TABLE documents"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCountByGroupsRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM documents GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("ready", 4).
			AddRow("failed", 1))

	counts, err := repo.CountBy(context.Background(), "status")
	if err != nil {
		t.Fatalf("CountBy() error = %v", err)
	}
	if counts["ready"] != 4 || counts["failed"] != 1 {
		t.Fatalf("unexpected counts %#v", counts)
	}
	if _, err := repo.CountBy(context.Background(), "title"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unsupported column, got %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(int64(2026101701)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
