package procdb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yegors/procroute/internal/token"
)

// Family is a procedure family. DP and STAR codes are mirror images of each
// other: a DP carries its version on the left half and its transition fix on
// the right, a STAR the other way round.
type Family int

const (
	DP Family = iota
	STAR
)

// Families lists every family in load order.
var Families = []Family{DP, STAR}

// String returns the family name
func (f Family) String() string {
	switch f {
	case DP:
		return "DP"
	case STAR:
		return "STAR"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// MarshalJSON encodes the family as its name
func (f Family) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// ParseFamily parses "dp" or "star" in any case
func ParseFamily(s string) (Family, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DP", "SID":
		return DP, nil
	case "STAR":
		return STAR, nil
	default:
		return 0, fmt.Errorf("unknown procedure family: %q", s)
	}
}

// VersionHalf returns the version-bearing half of a full procedure code
// (KAYLN3 of KAYLN3.KAYLN, WYNDE3 of WYNDE.WYNDE3).
func (f Family) VersionHalf(fullCode string) (string, bool) {
	parts := strings.Split(fullCode, token.Separator)
	switch f {
	case DP:
		return parts[0], parts[0] != ""
	case STAR:
		if len(parts) < 2 {
			return "", false
		}
		return parts[1], parts[1] != ""
	}
	return "", false
}

// FixHalf returns the transition fix of a transition code (SMUUV of both
// KAYLN3.SMUUV and SMUUV.WYNDE3).
func (f Family) FixHalf(transition string) (string, bool) {
	_, fix, ok := f.Split(transition)
	return fix, ok
}

// Split breaks a transition code into its version and fix halves according
// to the family orientation.
func (f Family) Split(code string) (version, fix string, ok bool) {
	left, right, ok := token.SplitCode(code)
	if !ok {
		return "", "", false
	}
	if f == STAR {
		return right, left, true
	}
	return left, right, true
}

// Join is the inverse of Split.
func (f Family) Join(version, fix string) string {
	if f == STAR {
		return token.JoinCode(fix, version)
	}
	return token.JoinCode(version, fix)
}

// PatternKey returns the version-agnostic key for a transition
// (KAYLN#.SMUUV for DP, SMUUV.WYNDE# for STAR).
func PatternKey(f Family, root, fix string) string {
	return f.Join(root+string(token.Placeholder), fix)
}

// Schema names the reference-data columns for one family
type Schema struct {
	EffectiveDate string
	Name          string
	FullCode      string
	ServedGroup   string
	Transition    string
	RoutePoints   string
}

// SchemaFor returns the standard column names of a family
func SchemaFor(f Family) Schema {
	if f == STAR {
		return Schema{
			EffectiveDate: "EFF_DATE",
			Name:          "ARRIVAL_NAME",
			FullCode:      "STAR_COMPUTER_CODE",
			ServedGroup:   "DEST_GROUP",
			Transition:    "TRANSITION_COMPUTER_CODE",
			RoutePoints:   "ROUTE_POINTS",
		}
	}
	return Schema{
		EffectiveDate: "EFF_DATE",
		Name:          "DP_NAME",
		FullCode:      "DP_COMPUTER_CODE",
		ServedGroup:   "ORIG_GROUP",
		Transition:    "TRANSITION_COMPUTER_CODE",
		RoutePoints:   "ROUTE_POINTS",
	}
}
