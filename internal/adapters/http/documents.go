package httpadapter

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.catalog.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// createDocument accepts either a JSON document or a multipart upload with
// a "file" part plus title, description and category form fields.
func (rt *Router) createDocument(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		rt.uploadDocument(w, r)
		return
	}

	var fields domain.DocumentFields
	if err := decodeJSONBody(w, r, maxTranslateBodyBytes, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	doc, err := rt.catalog.Create(r.Context(), fields)
	if err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	rt.recordDocumentCreated(doc)
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	fields := domain.DocumentFields{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	doc, err := rt.catalog.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fields,
	)
	if err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	rt.recordDocumentCreated(doc)
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) documentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.catalog.Stats(r.Context())
	if err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	// Render fully before writing headers so a failure can still answer JSON.
	var buf bytes.Buffer
	if err := rt.catalog.Export(r.Context(), &buf); err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) downloadDocumentFile(w http.ResponseWriter, r *http.Request) {
	reader, doc, err := rt.catalog.OpenFile(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeCatalogError(w, r, err)
		return
	}
	defer reader.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if doc.FileSize != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*doc.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		slog.WarnContext(r.Context(), "document_file_stream_failed",
			"request_id", requestIDFromContext(r.Context()),
			"document_id", doc.ID,
			"error", err,
		)
	}
}

func (rt *Router) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "catalog_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func (rt *Router) recordDocumentCreated(doc *domain.Document) {
	if rt.metrics == nil || doc == nil {
		return
	}
	rt.metrics.RecordDocumentCreated(doc.Category)
}
