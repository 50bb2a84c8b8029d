package procdb

import (
	"strings"

	"github.com/yegors/procroute/internal/token"
)

// BuildStats summarizes one Build
type BuildStats struct {
	Rows        int `json:"rows"`
	Records     int `json:"records"`
	Skipped     int `json:"skipped"`
	Transitions int `json:"transitions"`
	Procedures  int `json:"procedures"`
	RootNames   int `json:"root_names"`
	Patterns    int `json:"patterns"`
}

// Database is the immutable index bundle of one family. A Database is
// built in full by Build and never changed afterwards, so it can be shared
// between goroutines freely.
type Database struct {
	family Family

	byTransition    map[string][]*Record
	byFullCode      map[string][]*Record
	byVersionCode   map[string]*Record
	byRootName      map[string]*Record
	byTransitionFix map[string][]*Record
	byPattern       map[string]*Record

	// insertion order, for deterministic iteration
	rootNames       []string
	transitionOrder []string
	patternOrder    []string
	records         []*Record

	stats BuildStats
}

// Empty returns a Database with no records
func Empty(family Family) *Database {
	return &Database{
		family:          family,
		byTransition:    make(map[string][]*Record),
		byFullCode:      make(map[string][]*Record),
		byVersionCode:   make(map[string]*Record),
		byRootName:      make(map[string]*Record),
		byTransitionFix: make(map[string][]*Record),
		byPattern:       make(map[string]*Record),
	}
}

// Build creates a fresh Database from rows. Rows without a full code are
// skipped and counted.
func Build(family Family, rows []Row) (*Database, BuildStats) {
	db := Empty(family)
	db.stats.Rows = len(rows)

	for _, row := range rows {
		code := strings.ToUpper(strings.TrimSpace(row.FullCode))
		if code == "" {
			db.stats.Skipped++
			continue
		}

		group := strings.ToUpper(strings.TrimSpace(row.ServedGroup))
		rec := &Record{
			family:         family,
			code:           code,
			name:           strings.ToUpper(strings.TrimSpace(row.Name)),
			transitionCode: strings.ToUpper(strings.TrimSpace(row.Transition)),
			effectiveDate:  token.ParseEffectiveDate(row.EffectiveDate),
			servedGroup:    group,
			servedAirports: token.ExtractAirports(group),
			routePoints:    strings.Fields(strings.ToUpper(row.RoutePoints)),
			seq:            len(db.records),
		}
		db.add(rec)
	}

	db.stats.Records = len(db.records)
	db.stats.Transitions = len(db.byTransition)
	db.stats.Procedures = len(db.byFullCode)
	db.stats.RootNames = len(db.rootNames)
	db.stats.Patterns = len(db.byPattern)
	return db, db.stats
}

// newer reports whether rec should replace the current most-recent entry
func newer(current, rec *Record) bool {
	return current == nil || rec.effectiveDate > current.effectiveDate
}

func (db *Database) add(rec *Record) {
	db.records = append(db.records, rec)
	db.byFullCode[rec.code] = append(db.byFullCode[rec.code], rec)

	fix, hasFix := "", false
	if rec.transitionCode != "" {
		if _, ok := db.byTransition[rec.transitionCode]; !ok {
			db.transitionOrder = append(db.transitionOrder, rec.transitionCode)
		}
		db.byTransition[rec.transitionCode] = append(db.byTransition[rec.transitionCode], rec)

		fix, hasFix = db.family.FixHalf(rec.transitionCode)
		if hasFix {
			db.byTransitionFix[fix] = append(db.byTransitionFix[fix], rec)
		}
	}

	version, ok := db.family.VersionHalf(rec.code)
	if !ok {
		return
	}
	if newer(db.byVersionCode[version], rec) {
		db.byVersionCode[version] = rec
	}

	root := token.RootName(version)
	if root == "" {
		return
	}
	current, seen := db.byRootName[root]
	if !seen {
		db.rootNames = append(db.rootNames, root)
	}
	if newer(current, rec) {
		db.byRootName[root] = rec
	}

	if hasFix {
		key := PatternKey(db.family, root, fix)
		current, seen := db.byPattern[key]
		if !seen {
			db.patternOrder = append(db.patternOrder, key)
		}
		if newer(current, rec) {
			db.byPattern[key] = rec
		}
	}
}

// Family returns the family this Database indexes
func (db *Database) Family() Family {
	return db.family
}

// Stats returns the counts recorded by Build
func (db *Database) Stats() BuildStats {
	return db.stats
}

// Len returns the number of records
func (db *Database) Len() int {
	return len(db.records)
}

// Transitions returns every record sharing a transition code
func (db *Database) Transitions(code string) []*Record {
	return clone(db.byTransition[code])
}

// HasTransition reports whether any record carries the transition code
func (db *Database) HasTransition(code string) bool {
	return len(db.byTransition[code]) > 0
}

// ProcedureRecords returns every record under a full procedure code
func (db *Database) ProcedureRecords(fullCode string) []*Record {
	return clone(db.byFullCode[fullCode])
}

// ByVersionCode returns the most recent record whose version-bearing half
// is code (KAYLN3 for DP, WYNDE3 for STAR)
func (db *Database) ByVersionCode(code string) (*Record, bool) {
	rec, ok := db.byVersionCode[code]
	return rec, ok
}

// ByRootName returns the most recent record of a version-stripped name
func (db *Database) ByRootName(root string) (*Record, bool) {
	rec, ok := db.byRootName[root]
	return rec, ok
}

// AtFix returns every record whose transition uses fix
func (db *Database) AtFix(fix string) []*Record {
	return clone(db.byTransitionFix[fix])
}

// PatternTransition returns the most recent transition code stored under a
// version-agnostic key
func (db *Database) PatternTransition(key string) (string, bool) {
	rec, ok := db.byPattern[key]
	if !ok {
		return "", false
	}
	return rec.transitionCode, true
}

// RootNames returns the root names in the order they were first seen
func (db *Database) RootNames() []string {
	return clone(db.rootNames)
}

// TransitionCodes returns every transition code in the order first seen
func (db *Database) TransitionCodes() []string {
	return clone(db.transitionOrder)
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// RangeRootNames calls fn for each root name in first-seen order until fn
// returns false
func (db *Database) RangeRootNames(fn func(root string) bool) {
	for _, root := range db.rootNames {
		if !fn(root) {
			return
		}
	}
}
