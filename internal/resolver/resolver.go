// Package resolver turns loosely written route tokens into canonical
// procedure transition codes.
package resolver

import (
	"strings"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/token"
)

// minReconstructLen is the shortest token worth splitting at a dropped
// separator (a two letter root, one digit and a three letter fix)
const minReconstructLen = 6

// Resolver answers token queries against one consistent snapshot. It holds
// no mutable state and is safe for concurrent use.
type Resolver struct {
	snap procdb.Snapshot
}

// New creates a resolver reading snap
func New(snap procdb.Snapshot) *Resolver {
	return &Resolver{snap: snap}
}

// FromStore creates a resolver over the store's current bundles
func FromStore(store *procdb.Store) *Resolver {
	return New(store.Snapshot())
}

// Snapshot returns the bundles the resolver reads
func (r *Resolver) Snapshot() procdb.Snapshot {
	return r.snap
}

// Resolve resolves tok within family f. neighbor is the adjacent token
// that may carry the transition fix: the next token for a DP, the previous
// one for a STAR. It may be empty.
func (r *Resolver) Resolve(tok, neighbor string, f procdb.Family) Resolution {
	db := r.snap.Get(f)
	if db == nil {
		return Resolution{}
	}
	tok = token.Normalize(tok)
	neighbor = token.Normalize(neighbor)
	if tok == "" {
		return Resolution{}
	}

	// explicit separator
	if res, ok := explicit(db, f, tok); ok {
		return res
	}

	// dropped separator
	if !strings.Contains(tok, token.Separator) && len(tok) >= minReconstructLen && token.HasDigit(tok) {
		if res, ok := reconstruct(db, f, tok); ok {
			return res
		}
	}

	if !token.LooksLikeProcedureName(tok) {
		return Resolution{}
	}

	// procedure name plus neighbor fix
	if neighbor != "" && token.IsPlainFix(neighbor) {
		if res, ok := lookup(db, f, tok, neighbor); ok {
			res.ConsumedNeighbor = true
			return res
		}
	}

	// procedure name alone
	if rec, ok := db.ByVersionCode(tok); ok {
		if records := db.ProcedureRecords(rec.Code()); len(records) > 0 {
			return Resolution{Kind: ProcedureOnlyMatch, Family: f, Code: rec.Code(), Records: records}
		}
	}
	if rec, ok := db.ByRootName(token.RootName(tok)); ok {
		if records := db.ProcedureRecords(rec.Code()); len(records) > 0 {
			return Resolution{Kind: ProcedureOnlyMatch, Family: f, Code: rec.Code(), Records: records, Inferred: true}
		}
	}

	return Resolution{}
}

// explicit handles a token that already carries its separator
func explicit(db *procdb.Database, f procdb.Family, tok string) (Resolution, bool) {
	version, fix, ok := f.Split(tok)
	if !ok || !token.LooksLikeProcedureName(version) || !token.IsPlainFix(fix) {
		return Resolution{}, false
	}
	return lookup(db, f, version, fix)
}

// lookup tries the transition as written, then any version of it through
// the pattern index
func lookup(db *procdb.Database, f procdb.Family, version, fix string) (Resolution, bool) {
	code := f.Join(version, fix)
	if records := db.Transitions(code); len(records) > 0 {
		return Resolution{Kind: TransitionMatch, Family: f, Code: code, Records: records}, true
	}

	key := procdb.PatternKey(f, token.RootName(version), fix)
	if current, ok := db.PatternTransition(key); ok {
		if records := db.Transitions(current); len(records) > 0 {
			return Resolution{Kind: TransitionMatch, Family: f, Code: current, Records: records, Inferred: true}, true
		}
	}
	return Resolution{}, false
}

// reconstruct walks the known root names in load order and returns the
// first decomposition that resolves. A root whose decomposition does not
// resolve does not stop the walk.
func reconstruct(db *procdb.Database, f procdb.Family, tok string) (Resolution, bool) {
	var (
		res   Resolution
		found bool
	)
	db.RangeRootNames(func(root string) bool {
		version, fix, ok := decompose(f, tok, root)
		if !ok {
			return true
		}
		if res, found = lookup(db, f, version, fix); found {
			res.Reconstructed = true
			return false
		}
		return true
	})
	return res, found
}

// decompose splits a separator-less token around root. DP tokens read
// ROOT + digits + FIX, STAR tokens FIX + ROOT + digits.
func decompose(f procdb.Family, tok, root string) (version, fix string, ok bool) {
	if f == procdb.STAR {
		n := token.TrailingDigits(tok)
		if n == 0 {
			return "", "", false
		}
		body := tok[:len(tok)-n]
		if !strings.HasSuffix(body, root) {
			return "", "", false
		}
		fix = body[:len(body)-len(root)]
		if !token.IsPlainFix(fix) {
			return "", "", false
		}
		return root + tok[len(tok)-n:], fix, true
	}

	if !strings.HasPrefix(tok, root) {
		return "", "", false
	}
	rest := tok[len(root):]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 || !token.IsPlainFix(rest[n:]) {
		return "", "", false
	}
	return root + rest[:n], rest[n:], true
}

// ResolveCombined resolves a NAME#.FIX.NAME# token spanning a DP and a STAR
// that share FIX. Both halves must resolve to a transition.
func (r *Resolver) ResolveCombined(tok string) (CombinedResolution, bool) {
	parts := strings.Split(token.Normalize(tok), token.Separator)
	if len(parts) != 3 {
		return CombinedResolution{}, false
	}
	left, middle, right := parts[0], parts[1], parts[2]
	if !token.LooksLikeProcedureName(left) || !token.IsPlainFix(middle) || !token.LooksLikeProcedureName(right) {
		return CombinedResolution{}, false
	}

	dp := r.Resolve(procdb.DP.Join(left, middle), "", procdb.DP)
	if dp.Kind != TransitionMatch {
		return CombinedResolution{}, false
	}
	star := r.Resolve(procdb.STAR.Join(right, middle), "", procdb.STAR)
	if star.Kind != TransitionMatch {
		return CombinedResolution{}, false
	}
	return CombinedResolution{DP: dp, STAR: star, SharedFix: middle}, true
}

// RoutePoints returns the waypoints of a transition of family f, chosen by
// the recency tie-break among records serving airport (if any). A
// transition that is only known under another version is found through the
// pattern index.
func (r *Resolver) RoutePoints(f procdb.Family, transition, airport string) ([]string, bool) {
	db := r.snap.Get(f)
	if db == nil {
		return nil, false
	}
	transition = token.Normalize(transition)
	airport = token.NormalizeAirport(airport)

	records := db.Transitions(transition)
	if len(records) == 0 {
		version, fix, ok := f.Split(transition)
		if !ok {
			return nil, false
		}
		current, ok := db.PatternTransition(procdb.PatternKey(f, token.RootName(version), fix))
		if !ok {
			return nil, false
		}
		records = db.Transitions(current)
	}

	best := procdb.Best(records, airport)
	if best == nil {
		return nil, false
	}
	return best.RoutePoints(), true
}
