package domain

import "strings"

// TranslationRequest is the inbound payload of the translate endpoint.
type TranslationRequest struct {
	Text           string   `json:"text"`
	Insights       []string `json:"insights,omitempty"`
	TargetLanguage string   `json:"targetLanguage"`
}

// Validate reports ErrInvalidInput unless text and targetLanguage are both present.
func (r TranslationRequest) Validate() error {
	if r.Text == "" || strings.TrimSpace(r.TargetLanguage) == "" {
		return NewPublicError(ErrInvalidInput, "Missing required fields: text and targetLanguage", nil)
	}
	return nil
}

type TranslationResult struct {
	TranslatedSummary  string   `json:"translatedSummary"`
	TranslatedInsights []string `json:"translatedInsights"`

	// InsightsFallback is set when the insights call failed and the originals were returned.
	InsightsFallback bool `json:"-"`
}
