package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
)

const (
	msgNotConfigured   = "Translation service is not configured"
	msgRateLimited     = "Rate limit exceeded. Please try again later."
	msgPaymentRequired = "Translation service requires payment. Please add credits to continue."
	msgUpstreamPrefix  = "AI translation failed: "
)

type TranslateUseCase struct {
	completions ports.CompletionClient
}

// NewTranslateUseCase builds the gateway. A nil client means no upstream
// credential is configured and every valid request fails with ErrNotConfigured.
func NewTranslateUseCase(completions ports.CompletionClient) *TranslateUseCase {
	return &TranslateUseCase{completions: completions}
}

// Translate runs the summary call, then the insights call. The insights call
// is never attempted when the summary call fails.
func (uc *TranslateUseCase) Translate(ctx context.Context, req domain.TranslationRequest) (*domain.TranslationResult, error) {
	slog.InfoContext(ctx, "translation_request",
		"target_language", req.TargetLanguage,
		"text_length", len(req.Text),
		"insights_count", len(req.Insights),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if uc.completions == nil {
		slog.ErrorContext(ctx, "translation_not_configured")
		return nil, domain.NewPublicError(domain.ErrNotConfigured, msgNotConfigured, nil)
	}

	languageName := domain.LanguageName(req.TargetLanguage)

	summary, err := uc.completions.Complete(ctx, translatorSystemPrompt, buildSummaryPrompt(languageName, req.Text))
	if err != nil {
		return nil, summaryFailure(ctx, err)
	}

	result := &domain.TranslationResult{
		TranslatedSummary:  summary,
		TranslatedInsights: []string{},
	}
	if len(req.Insights) == 0 {
		return result, nil
	}

	content, err := uc.completions.Complete(ctx, translatorSystemPrompt, buildInsightsPrompt(languageName, req.Insights))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		status, _ := domain.UpstreamStatus(err)
		slog.WarnContext(ctx, "translation_insights_fallback", "status", status, "error", err)
		result.TranslatedInsights = append([]string(nil), req.Insights...)
		result.InsightsFallback = true
		return result, nil
	}
	result.TranslatedInsights = splitInsightLines(content)
	return result, nil
}

func summaryFailure(ctx context.Context, err error) error {
	status, hasStatus := domain.UpstreamStatus(err)
	slog.ErrorContext(ctx, "translation_upstream_error", "stage", "summary", "status", status, "error", err)

	switch {
	case hasStatus && status == http.StatusTooManyRequests:
		return domain.NewPublicError(domain.ErrRateLimited, msgRateLimited, err)
	case hasStatus && status == http.StatusPaymentRequired:
		return domain.NewPublicError(domain.ErrPaymentRequired, msgPaymentRequired, err)
	case ctx.Err() != nil:
		return ctx.Err()
	}

	var statusErr *domain.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return domain.NewPublicError(domain.ErrUpstream, msgUpstreamPrefix+statusErr.Body, err)
	}
	return domain.NewPublicError(domain.ErrUpstream, msgUpstreamPrefix+err.Error(), err)
}
