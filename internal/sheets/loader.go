package sheets

import (
	"context"
	"log/slog"
	"time"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
)

// Loader is the read-through row source shared by all sessions.
type Loader struct {
	fetcher RowFetcher
	cache   Cache
	ttl     time.Duration
	log     *slog.Logger
}

func NewLoader(fetcher RowFetcher, cache Cache, ttl time.Duration) *Loader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		log:     logger.For("sheets"),
	}
}

// Rows returns the sheet's rows, from cache when fresh. A failed fetch or an
// empty sheet yields a *DataFetchError.
func (l *Loader) Rows(ctx context.Context, sheet string) ([]Row, error) {
	if rows, ok := l.cache.Get(ctx, sheet); ok {
		l.log.DebugContext(ctx, "cache hit", "sheet", sheet, "rows", len(rows))
		return rows, nil
	}

	rows, err := l.FreshRows(ctx, sheet)
	if err != nil {
		return nil, err
	}
	l.cache.Set(ctx, sheet, rows, l.ttl)
	return rows, nil
}

// FreshRows always fetches, bypassing the cache. Used for the command master list.
func (l *Loader) FreshRows(ctx context.Context, sheet string) ([]Row, error) {
	start := time.Now()
	rows, err := l.fetcher.FetchRows(ctx, sheet)
	if err != nil {
		l.log.ErrorContext(ctx, "fetch failed", "sheet", sheet, "error", err)
		return nil, &DataFetchError{Sheet: sheet, Err: err}
	}
	if len(rows) == 0 {
		l.log.WarnContext(ctx, "sheet is empty", "sheet", sheet)
		return nil, &DataFetchError{Sheet: sheet, Err: ErrNoRows}
	}

	l.log.InfoContext(ctx, "fetched sheet", "sheet", sheet, "rows", len(rows), "took", time.Since(start))
	return rows, nil
}
