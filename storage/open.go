package storage

import (
	"context"
	"fmt"
	"time"

	"airbnb-dashboard/config"
	"airbnb-dashboard/utils"
)

// Open builds the Source selected by cfg. The returned close function
// releases any connection the source holds and is always non-nil.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (Source, func() error, error) {
	noop := func() error { return nil }

	switch kind := cfg.SourceKind(); kind {
	case "csv":
		return NewCSVSource(cfg.Data.Path), noop, nil
	case "xlsx":
		return NewXLSXSource(cfg.Data.Path, ""), noop, nil
	case "postgres":
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.Postgres.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		}
		store, err := NewPostgresStore(ctx, cfg.DSN(), cfg.Postgres.Table, retry)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnsupportedSource, kind)
	}
}
