package procdb

import "slices"

// ChangeType classifies a transition between two loads
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeUpdated ChangeType = "updated"
)

// TransitionChange is one transition code that differs between loads
type TransitionChange struct {
	Type       ChangeType `json:"type"`
	Transition string     `json:"transition"`
}

// DiffSummary counts the changes of one reload
type DiffSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Updated int `json:"updated"`
}

// Diff compares the transitions of two bundles. A transition is updated
// when the most recent record behind it changed its effective date or
// route. Added and updated changes come in next's load order, removals in
// prev's. Both bundles must be non-nil.
func Diff(prev, next *Database) []TransitionChange {
	changes := []TransitionChange{}

	for _, code := range next.transitionOrder {
		previous, exists := prev.byTransition[code]
		if !exists {
			changes = append(changes, TransitionChange{Type: ChangeAdded, Transition: code})
			continue
		}
		if hasChanges(previous, next.byTransition[code]) {
			changes = append(changes, TransitionChange{Type: ChangeUpdated, Transition: code})
		}
	}

	for _, code := range prev.transitionOrder {
		if _, exists := next.byTransition[code]; !exists {
			changes = append(changes, TransitionChange{Type: ChangeRemoved, Transition: code})
		}
	}
	return changes
}

// Summarize counts changes by type
func Summarize(changes []TransitionChange) DiffSummary {
	var s DiffSummary
	for _, c := range changes {
		switch c.Type {
		case ChangeAdded:
			s.Added++
		case ChangeRemoved:
			s.Removed++
		case ChangeUpdated:
			s.Updated++
		}
	}
	return s
}

func hasChanges(previous, current []*Record) bool {
	if len(previous) != len(current) {
		return true
	}
	a, b := Best(previous, ""), Best(current, "")
	if a.effectiveDate != b.effectiveDate {
		return true
	}
	return !slices.Equal(a.routePoints, b.routePoints)
}
