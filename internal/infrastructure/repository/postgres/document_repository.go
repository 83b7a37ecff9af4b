package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const documentColumns = `id, title, description, category, ai_summary, key_insights, tags, status,
	file_url, file_size, page_count, storage_key, mime_type, created_date`

var orderColumns = map[string]string{
	"created_date": "created_date",
	"title":        "title",
	"category":     "category",
	"status":       "status",
}

var countColumns = map[string]string{
	"status":   "status",
	"category": "category",
}

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api and lambda cold starts.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	ai_summary TEXT NOT NULL DEFAULT '',
	key_insights JSONB NOT NULL DEFAULT '[]'::jsonb,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	file_url TEXT NOT NULL DEFAULT '',
	file_size BIGINT,
	page_count INTEGER,
	storage_key TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL DEFAULT '',
	created_date TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE INDEX IF NOT EXISTS idx_documents_created_date ON documents(created_date DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	insightsJSON, err := marshalStrings(doc.KeyInsights)
	if err != nil {
		return fmt.Errorf("marshal key insights: %w", err)
	}
	tagsJSON, err := marshalStrings(doc.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, title, description, category, ai_summary, key_insights, tags, status,
	file_url, file_size, page_count, storage_key, mime_type, created_date
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		doc.ID, doc.Title, doc.Description, doc.Category, doc.AISummary, insightsJSON, tagsJSON, string(doc.Status),
		doc.FileURL, nullableInt64(doc.FileSize), nullableInt(doc.PageCount), doc.StorageKey, doc.MimeType, doc.CreatedDate,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document by id", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, sort domain.SortSpec) ([]domain.Document, error) {
	column, ok := orderColumns[sort.Field]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list documents", fmt.Errorf("unsupported sort field %q", sort.Field))
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+`
FROM documents
ORDER BY `+column+` `+direction+`, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) CountBy(ctx context.Context, column string) (map[string]int, error) {
	col, ok := countColumns[column]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "count documents", fmt.Errorf("unsupported group column %q", column))
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+col+`, COUNT(*) FROM documents GROUP BY `+col)
	if err != nil {
		return nil, fmt.Errorf("count documents by %s: %w", col, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc         domain.Document
		insightsRaw []byte
		tagsRaw     []byte
		status      string
		fileSize    sql.NullInt64
		pageCount   sql.NullInt32
	)
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.Category, &doc.AISummary, &insightsRaw, &tagsRaw, &status,
		&doc.FileURL, &fileSize, &pageCount, &doc.StorageKey, &doc.MimeType, &doc.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := unmarshalStrings(insightsRaw, &doc.KeyInsights); err != nil {
		return nil, fmt.Errorf("unmarshal key insights: %w", err)
	}
	if err := unmarshalStrings(tagsRaw, &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	if fileSize.Valid {
		size := fileSize.Int64
		doc.FileSize = &size
	}
	if pageCount.Valid {
		pages := int(pageCount.Int32)
		doc.PageCount = &pages
	}
	return &doc, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func unmarshalStrings(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
