// Package importer converts uploaded spreadsheets into loose lesson records.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/xuri/excelize/v2"
)

// Rows reads the first sheet of an xlsx workbook and returns one loose record
// per data row. The first row is treated as a header; each cell is keyed by
// its trimmed header name, so the normalizer can resolve aliases the same way
// it does for JSON imports. Rows with no non-empty cells are skipped.
func Rows(r io.Reader) ([]map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", lesson.ErrMalformedImport, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, lesson.ErrEmptyImport
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", lesson.ErrMalformedImport, sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, lesson.ErrEmptyImport
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	raws := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw := make(map[string]any)
		for i, cell := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			raw[headers[i]] = cell
		}
		if len(raw) == 0 {
			continue
		}
		raws = append(raws, raw)
	}

	if len(raws) == 0 {
		return nil, lesson.ErrEmptyImport
	}
	return raws, nil
}
