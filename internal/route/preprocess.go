// Package route rewrites whole route strings: procedure tokens become
// canonical transition codes, then waypoint sequences.
package route

import (
	"strings"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/resolver"
	"github.com/yegors/procroute/internal/routepoints"
	"github.com/yegors/procroute/internal/token"
	"github.com/yegors/procroute/pkg/logger"
)

// Tokenize splits a route string on whitespace and uppercases it
func Tokenize(route string) []string {
	return strings.Fields(strings.ToUpper(route))
}

// Inference is what preprocessing learned about the route's endpoints.
// Origins and Destinations are only filled when the matching endpoint was
// not given explicitly.
type Inference struct {
	ExplicitOrigin      bool     `json:"explicit_origin"`
	ExplicitDestination bool     `json:"explicit_destination"`
	Origins             []string `json:"inferred_origins"`
	Destinations        []string `json:"inferred_destinations"`
}

// Step traces one resolution of the walk
type Step struct {
	Position         int           `json:"position"`
	Input            []string      `json:"input"`
	Output           []string      `json:"output"`
	Family           procdb.Family `json:"family"`
	Kind             resolver.Kind `json:"kind"`
	Reconstructed    bool          `json:"reconstructed"`
	Inferred         bool          `json:"inferred"`
	ConsumedNeighbor bool          `json:"consumed_neighbor"`
	Combined         bool          `json:"combined"`
}

// Result is the outcome of Preprocess
type Result struct {
	Inference

	Tokens []string `json:"tokens"`
	Steps  []Step   `json:"steps"`

	// LastDP and LastSTAR are the final resolution of each family in the
	// walk, nil when the family never matched
	LastDP   *resolver.Resolution `json:"-"`
	LastSTAR *resolver.Resolution `json:"-"`
}

// Preprocessor rewrites route tokens into canonical procedure tokens
type Preprocessor struct {
	points routepoints.Checker
	logger *logger.Logger
}

// NewPreprocessor creates a preprocessor. points decides whether the first
// and last tokens are known airports; nil means none are.
func NewPreprocessor(points routepoints.Checker, logger *logger.Logger) *Preprocessor {
	return &Preprocessor{
		points: points,
		logger: logger.Named("preprocess"),
	}
}

// knownAirport reports whether tok names an airport the points table knows
func (p *Preprocessor) knownAirport(tok string) bool {
	if p.points == nil {
		return false
	}
	apt := token.NormalizeAirport(tok)
	return token.IsAirportLike(apt) && p.points.Contains(apt)
}

// airportSet accumulates airports in order of first appearance
type airportSet struct {
	list []string
	seen map[string]struct{}
}

func (s *airportSet) add(airports []string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, apt := range airports {
		if _, ok := s.seen[apt]; ok {
			continue
		}
		s.seen[apt] = struct{}{}
		s.list = append(s.list, apt)
	}
}

// Preprocess walks tokens left to right, resolving each position as a
// combined DP.FIX.STAR token, then a DP (the next token may supply its
// fix), then a STAR (the last emitted token may supply its fix).
// Unresolved tokens are passed through uppercased.
func (p *Preprocessor) Preprocess(r *resolver.Resolver, tokens []string) Result {
	result := Result{Tokens: []string{}, Steps: []Step{}}
	if len(tokens) == 0 {
		return result
	}

	result.ExplicitOrigin = p.knownAirport(tokens[0])
	if len(tokens) > 1 {
		result.ExplicitDestination = p.knownAirport(tokens[len(tokens)-1])
	}

	var origins, destinations airportSet
	recordDP := func(res resolver.Resolution) {
		result.LastDP = &res
		if !result.ExplicitOrigin {
			origins.add(res.ServedAirports())
		}
	}
	recordSTAR := func(res resolver.Resolution) {
		result.LastSTAR = &res
		if !result.ExplicitDestination {
			destinations.add(res.ServedAirports())
		}
	}

	for i := 0; i < len(tokens); {
		tok := token.Normalize(tokens[i])

		if combined, ok := r.ResolveCombined(tok); ok {
			result.Tokens = append(result.Tokens, combined.DP.Code, combined.STAR.Code)
			result.Steps = append(result.Steps,
				newStep(i, []string{tok}, combined.DP, true),
				newStep(i, []string{tok}, combined.STAR, true),
			)
			recordDP(combined.DP)
			recordSTAR(combined.STAR)
			i++
			continue
		}

		next := ""
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}
		if dp := r.Resolve(tok, next, procdb.DP); dp.Matched() {
			input := []string{tok}
			if dp.ConsumedNeighbor {
				input = append(input, token.Normalize(next))
			}
			result.Tokens = append(result.Tokens, dp.Code)
			result.Steps = append(result.Steps, newStep(i, input, dp, false))
			recordDP(dp)
			i += len(input)
			continue
		}

		prev := ""
		if n := len(result.Tokens); n > 0 {
			prev = result.Tokens[n-1]
		}
		if star := r.Resolve(tok, prev, procdb.STAR); star.Matched() {
			if star.ConsumedNeighbor {
				result.Tokens[len(result.Tokens)-1] = star.Code
				result.Steps = append(result.Steps, newStep(i, []string{prev, tok}, star, false))
			} else {
				result.Tokens = append(result.Tokens, star.Code)
				result.Steps = append(result.Steps, newStep(i, []string{tok}, star, false))
			}
			recordSTAR(star)
			i++
			continue
		}

		result.Tokens = append(result.Tokens, tok)
		i++
	}

	result.Origins = origins.list
	result.Destinations = destinations.list

	p.logger.Debug("Preprocessed route",
		logger.Int("input_tokens", len(tokens)),
		logger.Int("output_tokens", len(result.Tokens)),
		logger.Int("resolutions", len(result.Steps)),
		logger.Strings("inferred_origins", result.Origins),
		logger.Strings("inferred_destinations", result.Destinations),
	)
	return result
}

func newStep(pos int, input []string, res resolver.Resolution, combined bool) Step {
	return Step{
		Position:         pos,
		Input:            input,
		Output:           []string{res.Code},
		Family:           res.Family,
		Kind:             res.Kind,
		Reconstructed:    res.Reconstructed,
		Inferred:         res.Inferred,
		ConsumedNeighbor: res.ConsumedNeighbor,
		Combined:         combined,
	}
}
