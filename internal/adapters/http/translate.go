package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const (
	maxTranslateBodyBytes = 4 << 20
	msgInvalidJSON        = "Invalid JSON body"
	msgTranslationFailed  = "Translation failed"
)

type translateResponse struct {
	TranslatedSummary  string   `json:"translatedSummary"`
	TranslatedInsights []string `json:"translatedInsights"`
}

func (rt *Router) translate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "translation_panic",
				"request_id", requestIDFromContext(ctx),
				"panic", rec,
			)
			rt.recordTranslation("panic", start, false)
			writeError(w, http.StatusInternalServerError, msgTranslationFailed)
		}
	}()

	var req domain.TranslationRequest
	if err := decodeJSONBody(w, r, maxTranslateBodyBytes, &req); err != nil {
		rt.writeTranslateError(w, r, start, domain.NewPublicError(domain.ErrInvalidInput, msgInvalidJSON, err))
		return
	}

	result, err := rt.translator.Translate(ctx, req)
	if err != nil {
		rt.writeTranslateError(w, r, start, err)
		return
	}

	insights := result.TranslatedInsights
	if insights == nil {
		insights = []string{}
	}
	rt.recordTranslation(errorOutcome(nil), start, result.InsightsFallback)
	writeJSON(w, http.StatusOK, translateResponse{
		TranslatedSummary:  result.TranslatedSummary,
		TranslatedInsights: insights,
	})
}

func (rt *Router) writeTranslateError(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	status := mapTranslateErrorToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "translation_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
	rt.recordTranslation(errorOutcome(err), start, false)
	writeError(w, status, domain.PublicMessage(err, msgTranslationFailed))
}

func (rt *Router) recordTranslation(outcome string, start time.Time, fallback bool) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordTranslation(outcome, time.Since(start), fallback)
}

func (rt *Router) languages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.SupportedLanguages())
}
