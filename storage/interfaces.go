package storage

import (
	"context"
	"errors"

	"airbnb-dashboard/models"
)

var (
	// ErrMissingColumn is returned when a source lacks one of models.RequiredColumns.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedSource is returned by Open for an unknown source kind.
	ErrUnsupportedSource = errors.New("unsupported listings source")
)

// Source is any backend that can produce raw listing rows.
type Source interface {
	// Load reads every row. It fails as a whole; there is no partial result.
	Load(ctx context.Context) ([]*models.RawListing, error)
	// Name describes the source for logs and the summary panel.
	Name() string
}

// RawListingWriter persists unprocessed rows, e.g. when importing a CSV into Postgres.
type RawListingWriter interface {
	WriteRaw(ctx context.Context, listings []*models.RawListing) error
	Close() error
}
