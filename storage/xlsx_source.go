package storage

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"airbnb-dashboard/models"
)

// XLSXSource reads listings from the first worksheet of an Excel workbook.
// The first row must be the header.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource returns a source for the workbook at path. An empty sheet
// selects the first worksheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

func (s *XLSXSource) Name() string { return "xlsx:" + s.path }

func (s *XLSXSource) Load(ctx context.Context) ([]*models.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx: %q has no worksheets", s.path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx: sheet %q is empty", sheet)
	}

	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]*models.RawListing, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		out = append(out, rawFromRow(row, idx))
	}
	return out, nil
}
