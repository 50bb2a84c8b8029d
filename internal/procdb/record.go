package procdb

import (
	"encoding/json"
	"slices"
)

// Record is one reference row of a procedure family. Records are shared by
// every Resolution that matches them, so all fields are read through
// accessors and never change once Build returns.
type Record struct {
	family         Family
	code           string
	name           string
	transitionCode string
	effectiveDate  int64
	servedGroup    string
	servedAirports []string
	routePoints    []string
	seq            int
}

// Family returns the procedure family of the row
func (r *Record) Family() Family {
	return r.family
}

// Code returns the full procedure code
func (r *Record) Code() string {
	return r.code
}

// Name returns the procedure name, uppercased
func (r *Record) Name() string {
	return r.name
}

// TransitionCode returns the transition code, empty for a procedure-only row
func (r *Record) TransitionCode() string {
	return r.transitionCode
}

// EffectiveDate returns the date as YYYYMMDD, or 0 when it did not parse
func (r *Record) EffectiveDate() int64 {
	return r.effectiveDate
}

// ServedGroup returns the raw served-airport group
func (r *Record) ServedGroup() string {
	return r.servedGroup
}

// ServedAirports returns a copy of the airports this row applies to
func (r *Record) ServedAirports() []string {
	return slices.Clone(r.servedAirports)
}

// RoutePoints returns a copy of the ordered waypoints
func (r *Record) RoutePoints() []string {
	return slices.Clone(r.routePoints)
}

// Serves reports whether the record applies to airport
func (r *Record) Serves(airport string) bool {
	return slices.Contains(r.servedAirports, airport)
}

// Seq is the row's position in the load that produced it
func (r *Record) Seq() int {
	return r.seq
}

type recordJSON struct {
	Family         Family   `json:"family"`
	Code           string   `json:"code"`
	Name           string   `json:"name,omitempty"`
	TransitionCode string   `json:"transition_code,omitempty"`
	EffectiveDate  int64    `json:"effective_date"`
	ServedGroup    string   `json:"served_group,omitempty"`
	ServedAirports []string `json:"served_airports"`
	RoutePoints    []string `json:"route_points"`
}

// MarshalJSON implements json.Marshaler
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Family:         r.family,
		Code:           r.code,
		Name:           r.name,
		TransitionCode: r.transitionCode,
		EffectiveDate:  r.effectiveDate,
		ServedGroup:    r.servedGroup,
		ServedAirports: nonNil(r.servedAirports),
		RoutePoints:    nonNil(r.routePoints),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Best applies the recency tie-break: restrict to records serving airport
// when one is given (falling back to all records if none do), then pick the
// greatest effective date, earliest row on ties. Returns nil for no records.
func Best(records []*Record, airport string) *Record {
	candidates := records
	if airport != "" {
		var filtered []*Record
		for _, rec := range records {
			if rec.Serves(airport) {
				filtered = append(filtered, rec)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	var best *Record
	for _, rec := range candidates {
		if best == nil || rec.effectiveDate > best.effectiveDate {
			best = rec
		}
	}
	return best
}
