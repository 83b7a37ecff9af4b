package domain

import "strings"

var languageNames = map[string]string{
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
	"ru": "Russian",
}

// LanguageName maps a short language code to its English name.
// Unknown codes are returned verbatim.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// SupportedLanguages returns the known language codes.
func SupportedLanguages() map[string]string {
	out := make(map[string]string, len(languageNames))
	for code, name := range languageNames {
		out[code] = name
	}
	return out
}
