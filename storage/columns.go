package storage

import (
	"fmt"
	"strings"

	"airbnb-dashboard/models"
)

// columnIndex maps each required column to its position in header.
// Header names are matched after trimming whitespace and a UTF-8 BOM.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	out := make(map[string]int, len(models.RequiredColumns))
	for _, col := range models.RequiredColumns {
		i, ok := idx[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
		out[col] = i
	}
	return out, nil
}

// rawFromRow builds a RawListing from a positional row. Short rows yield
// empty strings for the missing trailing cells.
func rawFromRow(row []string, idx map[string]int) *models.RawListing {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	return &models.RawListing{
		Price:         cell(models.ColPrice),
		Rating:        cell(models.ColRating),
		Beds:          cell(models.ColBeds),
		Neighbourhood: cell(models.ColNeighbourhood),
	}
}
