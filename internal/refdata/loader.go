package refdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/pkg/logger"
)

// Loader pulls both families from a source into the store
type Loader struct {
	source Source
	store  *procdb.Store
	mu     sync.Mutex
	logger *logger.Logger
}

// NewLoader creates a loader
func NewLoader(source Source, store *procdb.Store, logger *logger.Logger) *Loader {
	return &Loader{
		source: source,
		store:  store,
		logger: logger.Named("refdata"),
	}
}

// Source returns the underlying source
func (l *Loader) Source() Source {
	return l.source
}

// Reload fetches and publishes both families concurrently. A family that
// fails keeps its previous bundle and does not stop the other one; the
// returned error joins every family failure. Results hold the families
// that loaded, in DP, STAR order.
func (l *Loader) Reload(ctx context.Context) ([]procdb.LoadResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		results [2]procdb.LoadResult
		ok      [2]bool
		errs    [2]error
	)

	// Family errors go to their own slot and the group has no shared
	// context, so one failure never cancels the sibling fetch.
	var g errgroup.Group
	for _, f := range procdb.Families {
		g.Go(func() error {
			// Fetch outside the store, publish only a complete table
			table, err := l.source.Fetch(ctx, f)
			if err != nil {
				errs[f] = fmt.Errorf("%s source: %w", l.source.Name(), err)
				return nil
			}
			result, err := l.store.Load(f, table)
			if err != nil {
				errs[f] = err
				return nil
			}
			results[f] = result
			ok[f] = true
			return nil
		})
	}
	_ = g.Wait() // always nil, the errors are in errs

	var loaded []procdb.LoadResult
	for _, f := range procdb.Families {
		if ok[f] {
			loaded = append(loaded, results[f])
			continue
		}
		l.logger.Error("Failed to reload procedures",
			logger.String("family", f.String()),
			logger.String("source", l.source.Name()),
			logger.Error(errs[f]),
		)
	}

	return loaded, errors.Join(errs[:]...)
}
