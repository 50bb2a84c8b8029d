package procdb

import "strings"

// DefaultSearchLimit caps the debug search helpers
const DefaultSearchLimit = 20

// PatternHit is one pattern index entry
type PatternHit struct {
	Pattern    string `json:"pattern"`
	Transition string `json:"transition"`
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}

// SearchTransitions returns transition codes containing q, in load order
func (db *Database) SearchTransitions(q string, limit int) []string {
	q = strings.ToUpper(strings.TrimSpace(q))
	limit = searchLimit(limit)

	results := []string{}
	for _, code := range db.transitionOrder {
		if strings.Contains(code, q) {
			results = append(results, code)
			if len(results) >= limit {
				break
			}
		}
	}
	return results
}

// SearchPatterns returns pattern keys containing q with the transition each
// one currently points at
func (db *Database) SearchPatterns(q string, limit int) []PatternHit {
	q = strings.ToUpper(strings.TrimSpace(q))
	limit = searchLimit(limit)

	results := []PatternHit{}
	for _, key := range db.patternOrder {
		if strings.Contains(key, q) {
			results = append(results, PatternHit{Pattern: key, Transition: db.byPattern[key].transitionCode})
			if len(results) >= limit {
				break
			}
		}
	}
	return results
}
