package route

import (
	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/resolver"
	"github.com/yegors/procroute/internal/routepoints"
	"github.com/yegors/procroute/pkg/logger"
)

// Service evaluates routes against the live procedure store. Each call
// takes one snapshot, so a concurrent reload is never seen halfway through
// a route.
type Service struct {
	store        *procdb.Store
	preprocessor *Preprocessor
	expander     *Expander
}

// NewService creates a route service
func NewService(store *procdb.Store, points routepoints.Checker, logger *logger.Logger) *Service {
	log := logger.Named("route")
	return &Service{
		store:        store,
		preprocessor: NewPreprocessor(points, log),
		expander:     NewExpander(log),
	}
}

// Preprocess canonicalizes tokens
func (s *Service) Preprocess(tokens []string) Result {
	return s.preprocessor.Preprocess(resolver.FromStore(s.store), tokens)
}

// Process canonicalizes tokens and expands the result. The solid mask in
// opts applies to the canonical tokens.
func (s *Service) Process(tokens []string, opts ExpandOptions) (Result, Expansion) {
	r := resolver.FromStore(s.store)
	result := s.preprocessor.Preprocess(r, tokens)
	return result, s.expander.Expand(r, result.Tokens, result.Inference, opts)
}

// Expand expands tokens that are already canonical
func (s *Service) Expand(tokens []string, meta Inference, opts ExpandOptions) Expansion {
	return s.expander.Expand(resolver.FromStore(s.store), tokens, meta, opts)
}
