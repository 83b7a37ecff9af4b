package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const sheetName = "Documents"

var header = []any{
	"ID", "Title", "Category", "Status", "Created", "Pages", "File size (bytes)", "Tags", "Summary", "Key insights",
}

// Exporter renders the document catalog as a single-sheet workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(w io.Writer, docs []domain.Document) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, doc := range docs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := []any{
			doc.ID,
			doc.Title,
			doc.Category,
			string(doc.Status),
			doc.CreatedDate.UTC().Format("2006-01-02 15:04:05"),
			optionalInt(doc.PageCount),
			optionalInt64(doc.FileSize),
			strings.Join(doc.Tags, ", "),
			doc.AISummary,
			strings.Join(doc.KeyInsights, "\n"),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func optionalInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt64(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
