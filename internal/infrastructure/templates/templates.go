package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docvault/internal/core/domain"
)

//go:embed templates.yaml
var embedded []byte

// Catalog resolves the canned summary of a document category.
type Catalog struct {
	byCategory map[string]domain.SummaryTemplate
}

// Default loads the templates compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(embedded))
}

func Parse(r io.Reader) (*Catalog, error) {
	byCategory := make(map[string]domain.SummaryTemplate)
	if err := yaml.NewDecoder(r).Decode(&byCategory); err != nil {
		return nil, fmt.Errorf("decode summary templates: %w", err)
	}
	if _, ok := byCategory[domain.CategoryOther]; !ok {
		return nil, fmt.Errorf("summary templates: missing %q fallback", domain.CategoryOther)
	}
	return &Catalog{byCategory: byCategory}, nil
}

// ForCategory returns copies so callers may mutate the slices.
func (c *Catalog) ForCategory(category string) domain.SummaryTemplate {
	tpl, ok := c.byCategory[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		tpl = c.byCategory[domain.CategoryOther]
	}
	return domain.SummaryTemplate{
		Summary:  tpl.Summary,
		Insights: append([]string(nil), tpl.Insights...),
		Tags:     append([]string(nil), tpl.Tags...),
	}
}
