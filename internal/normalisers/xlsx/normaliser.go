// Package xlsx extracts text from Excel workbooks.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks. Rows are rendered as comma-separated
// lines so the output reads like the CSV export of a spreadsheet.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
}

// Extract returns every non-empty row of every sheet. Each sheet is headed
// by its name when the workbook has more than one.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: open xlsx: %w", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var parts []string
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		var b strings.Builder
		if len(sheets) > 1 {
			b.WriteString(sheet)
			b.WriteString("\n")
		}
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, ","), ",")
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}

		if text := strings.TrimSpace(b.String()); text != "" && text != sheet {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
