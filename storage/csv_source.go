package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb-dashboard/models"
)

// gotaNaN is how gota renders a missing string cell.
const gotaNaN = "NaN"

// CSVSource reads listings from a delimited file through a gota DataFrame.
type CSVSource struct {
	path string
}

// NewCSVSource returns a source for the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return "csv:" + s.path }

// Load parses the whole file. Every column is kept as text so that the
// cleaner sees values such as "$1,234.00" untouched.
func (s *CSVSource) Load(ctx context.Context) ([]*models.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("csv: parse %q: %w", s.path, df.Err)
	}

	return rawFromDataFrame(df)
}

func rawFromDataFrame(df dataframe.DataFrame) ([]*models.RawListing, error) {
	idx, err := columnIndex(df.Names())
	if err != nil {
		return nil, err
	}

	// Header names may carry a BOM or padding that columnIndex trimmed, so
	// columns are looked up by position.
	names := df.Names()
	columns := make(map[string][]string, len(idx))
	for col, i := range idx {
		columns[col] = df.Col(names[i]).Records()
	}

	n := df.Nrow()
	out := make([]*models.RawListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.RawListing{
			Price:         cellAt(columns[models.ColPrice], i),
			Rating:        cellAt(columns[models.ColRating], i),
			Beds:          cellAt(columns[models.ColBeds], i),
			Neighbourhood: cellAt(columns[models.ColNeighbourhood], i),
		})
	}
	return out, nil
}

func cellAt(col []string, i int) string {
	if i >= len(col) || col[i] == gotaNaN {
		return ""
	}
	return col[i]
}
