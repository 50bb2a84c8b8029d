package procdb

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yegors/procroute/pkg/logger"
)

// Snapshot is a consistent pair of bundles taken at one instant. Evaluate
// a whole route against one Snapshot so a reload in the middle of it is not
// observed.
type Snapshot struct {
	DP   *Database
	STAR *Database
}

// Get returns the bundle of a family
func (s Snapshot) Get(f Family) *Database {
	if f == STAR {
		return s.STAR
	}
	return s.DP
}

// LoadResult describes one successful Load
type LoadResult struct {
	Family   Family             `json:"family"`
	Stats    BuildStats         `json:"stats"`
	Changes  []TransitionChange `json:"-"`
	Summary  DiffSummary        `json:"changes"`
	Duration time.Duration      `json:"duration"`
}

// Store publishes the live bundle of each family. Readers never block;
// Load builds a complete replacement and swaps it in with one atomic store.
type Store struct {
	dbs    [2]atomic.Pointer[Database]
	loaded [2]atomic.Bool
	logger *logger.Logger
}

// NewStore creates a store holding empty bundles
func NewStore(logger *logger.Logger) *Store {
	s := &Store{logger: logger.Named("procdb")}
	for _, f := range Families {
		s.dbs[f].Store(Empty(f))
	}
	return s
}

// Database returns the live bundle of a family
func (s *Store) Database(f Family) *Database {
	return s.dbs[f].Load()
}

// Snapshot returns the live bundles of both families
func (s *Store) Snapshot() Snapshot {
	return Snapshot{DP: s.dbs[DP].Load(), STAR: s.dbs[STAR].Load()}
}

// Loaded reports whether a family has been published at least once
func (s *Store) Loaded(f Family) bool {
	return s.loaded[f].Load()
}

// Load rebuilds a family from table and publishes it. On error the
// previous bundle stays live.
func (s *Store) Load(f Family, table Table) (LoadResult, error) {
	start := time.Now()

	rows, err := RowsFromTable(table, SchemaFor(f))
	if err != nil {
		s.logger.Warn("Reference table rejected, keeping previous procedures",
			logger.String("family", f.String()),
			logger.Error(err),
		)
		return LoadResult{}, fmt.Errorf("failed to load %s procedures: %w", f, err)
	}

	db, stats := Build(f, rows)
	previous := s.dbs[f].Swap(db)
	s.loaded[f].Store(true)

	changes := Diff(previous, db)
	result := LoadResult{
		Family:   f,
		Stats:    stats,
		Changes:  changes,
		Summary:  Summarize(changes),
		Duration: time.Since(start),
	}

	s.logger.Info("Loaded procedures",
		logger.String("family", f.String()),
		logger.Int("records", stats.Records),
		logger.Int("transitions", stats.Transitions),
		logger.Int("root_names", stats.RootNames),
		logger.Int("skipped", stats.Skipped),
		logger.Int("added", result.Summary.Added),
		logger.Int("removed", result.Summary.Removed),
		logger.Int("updated", result.Summary.Updated),
		logger.Duration("duration", result.Duration),
	)
	for _, c := range changes {
		s.logger.Debug("Transition changed",
			logger.String("family", f.String()),
			logger.String("type", string(c.Type)),
			logger.String("transition", c.Transition),
		)
	}

	return result, nil
}
