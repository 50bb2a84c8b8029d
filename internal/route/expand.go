package route

import (
	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/resolver"
	"github.com/yegors/procroute/internal/token"
	"github.com/yegors/procroute/pkg/logger"
)

// FanKind tells which end of the route a fan segment belongs to
type FanKind string

const (
	OriginFan      FanKind = "origin_fan"
	DestinationFan FanKind = "destination_fan"
)

// FanSegment is one candidate connection between an inferred airport and
// the route, drawn as an alternative rather than a single guess.
type FanSegment struct {
	Kind   FanKind `json:"kind"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Dashed bool    `json:"dashed"`
}

// ExpandOptions tunes Expand. Origin and Destination narrow the tie-break
// and default to the first and last tokens when those look like airports.
// Solid marks each input token solid (true) or dashed; a mask of the wrong
// length is treated as all solid.
type ExpandOptions struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Solid       []bool `json:"solid,omitempty"`
}

// Expansion is the waypoint-level route. Origin and Destination are the
// airports that narrowed the DP and STAR lookups.
type Expansion struct {
	Waypoints   []string     `json:"waypoints"`
	Solid       []bool       `json:"solid"`
	Fans        []FanSegment `json:"fans"`
	Origin      string       `json:"origin,omitempty"`
	Destination string       `json:"destination,omitempty"`
}

// Expander turns canonical route tokens into waypoints
type Expander struct {
	logger *logger.Logger
}

// NewExpander creates an expander
func NewExpander(logger *logger.Logger) *Expander {
	return &Expander{logger: logger.Named("expand")}
}

// Expand splices the route points of every DP or STAR transition among
// tokens into the route, and fans out any endpoint that was inferred with
// more than one candidate airport.
func (e *Expander) Expand(r *resolver.Resolver, tokens []string, meta Inference, opts ExpandOptions) Expansion {
	out := Expansion{Waypoints: []string{}, Solid: []bool{}, Fans: []FanSegment{}}
	if len(tokens) == 0 {
		return out
	}

	solid := opts.Solid
	if len(solid) != len(tokens) {
		solid = make([]bool, len(tokens))
		for i := range solid {
			solid[i] = true
		}
	}

	origin := token.NormalizeAirport(opts.Origin)
	if origin == "" {
		if first := token.NormalizeAirport(tokens[0]); token.IsAirportLike(first) {
			origin = first
		}
	}
	destination := token.NormalizeAirport(opts.Destination)
	if destination == "" && len(tokens) > 1 {
		if last := token.NormalizeAirport(tokens[len(tokens)-1]); token.IsAirportLike(last) {
			destination = last
		}
	}
	out.Origin = origin
	out.Destination = destination

	for i, tok := range tokens {
		tok = token.Normalize(tok)

		points, ok := r.RoutePoints(procdb.DP, tok, origin)
		if !ok || len(points) == 0 {
			points, ok = r.RoutePoints(procdb.STAR, tok, destination)
		}
		if !ok || len(points) == 0 {
			points = []string{tok}
		}
		for _, pt := range points {
			out.Waypoints = append(out.Waypoints, pt)
			out.Solid = append(out.Solid, solid[i])
		}
	}

	if !meta.ExplicitOrigin && len(meta.Origins) > 1 {
		if first, ok := firstNonAirport(out.Waypoints); ok {
			for _, apt := range meta.Origins {
				out.Fans = append(out.Fans, FanSegment{Kind: OriginFan, From: apt, To: first, Dashed: true})
			}
		}
	}
	if !meta.ExplicitDestination && len(meta.Destinations) > 1 {
		if last, ok := lastNonAirport(out.Waypoints); ok {
			for _, apt := range meta.Destinations {
				out.Fans = append(out.Fans, FanSegment{Kind: DestinationFan, From: last, To: apt, Dashed: true})
			}
		}
	}

	e.logger.Debug("Expanded route",
		logger.Int("tokens", len(tokens)),
		logger.Int("waypoints", len(out.Waypoints)),
		logger.Int("fans", len(out.Fans)),
	)
	return out
}

func firstNonAirport(points []string) (string, bool) {
	for _, pt := range points {
		if !token.IsAirportLike(pt) {
			return pt, true
		}
	}
	return "", false
}

func lastNonAirport(points []string) (string, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if !token.IsAirportLike(points[i]) {
			return points[i], true
		}
	}
	return "", false
}
