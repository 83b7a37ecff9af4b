package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentStatuses lists every status a document can be in.
func DocumentStatuses() []DocumentStatus {
	return []DocumentStatus{StatusProcessing, StatusReady, StatusFailed}
}

const (
	CategoryContract  = "contract"
	CategoryReport    = "report"
	CategoryInvoice   = "invoice"
	CategoryProposal  = "proposal"
	CategoryResearch  = "research"
	CategoryLegal     = "legal"
	CategoryTechnical = "technical"
	CategoryOther     = "other"
)

var documentCategories = []string{
	CategoryContract,
	CategoryReport,
	CategoryInvoice,
	CategoryProposal,
	CategoryResearch,
	CategoryLegal,
	CategoryTechnical,
	CategoryOther,
}

func DocumentCategories() []string {
	return append([]string(nil), documentCategories...)
}

func IsKnownCategory(category string) bool {
	for _, c := range documentCategories {
		if c == category {
			return true
		}
	}
	return false
}

type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category"`
	AISummary   string         `json:"ai_summary"`
	KeyInsights []string       `json:"key_insights"`
	Tags        []string       `json:"tags"`
	Status      DocumentStatus `json:"status"`
	FileURL     string         `json:"file_url,omitempty"`
	FileSize    *int64         `json:"file_size,omitempty"`
	PageCount   *int           `json:"page_count,omitempty"`
	CreatedDate time.Time      `json:"created_date"`

	StorageKey string `json:"-"`
	MimeType   string `json:"-"`
}

// DocumentFields are the caller-supplied attributes of a new document.
type DocumentFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	AISummary   string   `json:"ai_summary,omitempty"`
	KeyInsights []string `json:"key_insights,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	FileURL     string   `json:"file_url,omitempty"`
	FileSize    *int64   `json:"file_size,omitempty"`
	PageCount   *int     `json:"page_count,omitempty"`
}

// SortSpec orders a document listing. Field is a column name, Desc flips the order.
type SortSpec struct {
	Field string
	Desc  bool
}

// SummaryTemplate is the canned analysis attached to new documents of a category.
type SummaryTemplate struct {
	Summary  string   `yaml:"summary" json:"summary"`
	Insights []string `yaml:"insights" json:"insights"`
	Tags     []string `yaml:"tags" json:"tags"`
}

type CatalogStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
}

// DocumentCreatedEvent is published after a document is persisted.
type DocumentCreatedEvent struct {
	DocumentID  string    `json:"document_id"`
	Category    string    `json:"category"`
	CreatedDate time.Time `json:"created_date"`
}
