package usecase

import (
	"fmt"
	"strings"
)

const translatorSystemPrompt = "You are a professional translator. Translate text accurately while maintaining the original meaning and tone."

func buildSummaryPrompt(languageName, text string) string {
	return fmt.Sprintf(`Translate the following text to %s. Maintain the professional tone and technical accuracy. Only provide the translation, no additional text:

%s`, languageName, text)
}

func buildInsightsPrompt(languageName string, insights []string) string {
	return fmt.Sprintf(`Translate the following list items to %s. Maintain the professional tone. Return ONLY the translated items, one per line:

%s`, languageName, strings.Join(insights, "\n"))
}

// splitInsightLines splits model output into list items, dropping blank lines.
func splitInsightLines(content string) []string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
