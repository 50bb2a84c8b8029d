package resolver

import (
	"encoding/json"

	"github.com/yegors/procroute/internal/procdb"
)

// Kind tags a Resolution
type Kind int

const (
	// NoMatch is the zero Kind
	NoMatch Kind = iota
	// TransitionMatch resolved a specific procedure transition
	TransitionMatch
	// ProcedureOnlyMatch resolved a procedure but no transition; it carries
	// every record of the procedure
	ProcedureOnlyMatch
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case TransitionMatch:
		return "transition"
	case ProcedureOnlyMatch:
		return "procedure_only"
	default:
		return "no_match"
	}
}

// MarshalJSON encodes the kind as its name
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Resolution is the outcome of resolving one token. Code is the
// transition code of a TransitionMatch and the full procedure code of a
// ProcedureOnlyMatch. Reconstructed means a dropped separator was put back,
// Inferred that the version came from the pattern or root-name index, and
// ConsumedNeighbor that the neighbor token was absorbed.
type Resolution struct {
	Kind    Kind             `json:"kind"`
	Family  procdb.Family    `json:"family"`
	Code    string           `json:"code,omitempty"`
	Records []*procdb.Record `json:"records,omitempty"`

	Reconstructed    bool `json:"reconstructed"`
	Inferred         bool `json:"inferred"`
	ConsumedNeighbor bool `json:"consumed_neighbor"`
}

// Matched reports whether the resolution is anything but NoMatch
func (r Resolution) Matched() bool {
	return r.Kind != NoMatch
}

// ServedAirports returns the union of the records' served airports in
// order of first appearance
func (r Resolution) ServedAirports() []string {
	var airports []string
	seen := make(map[string]struct{})
	for _, rec := range r.Records {
		for _, apt := range rec.ServedAirports() {
			if _, ok := seen[apt]; ok {
				continue
			}
			seen[apt] = struct{}{}
			airports = append(airports, apt)
		}
	}
	return airports
}

// CombinedResolution is a DP.FIX.STAR token resolved in both families
type CombinedResolution struct {
	DP        Resolution `json:"dp"`
	STAR      Resolution `json:"star"`
	SharedFix string     `json:"shared_fix"`
}
