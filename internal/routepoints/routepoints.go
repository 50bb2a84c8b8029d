// Package routepoints holds the set of known airport and fix identifiers
// used to decide whether a route's first or last token names a real
// airport.
package routepoints

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Checker answers membership queries for route point identifiers
type Checker interface {
	Contains(id string) bool
}

// Set is a set of normalized route point identifiers.
type Set struct {
	entries map[string]struct{}
}

// NewSet builds a set from ids
func NewSet(ids ...string) *Set {
	s := &Set{entries: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Load reads a route points file. Each line holds one identifier, or a
// comma separated record whose first field is the identifier. Blank lines
// and lines starting with # are skipped. A header line whose first field is
// ID or IDENT is skipped too.
func Load(path string) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route points file: %w", err)
	}
	defer file.Close()

	s, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read route points file: %w", err)
	}
	return s, nil
}

// Read parses route points from r. See Load for the format.
func Read(r io.Reader) (*Set, error) {
	s := NewSet()
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, _, _ := strings.Cut(line, ",")
		id = normalize(id)
		if first {
			first = false
			if id == "ID" || id == "IDENT" {
				continue
			}
		}
		s.Add(id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(strings.Trim(strings.TrimSpace(id), `"`)))
}

// Add inserts id
func (s *Set) Add(id string) {
	id = normalize(id)
	if id == "" {
		return
	}
	s.entries[id] = struct{}{}
}

// Contains reports whether id appears in the set.
func (s *Set) Contains(id string) bool {
	if s == nil {
		return false
	}
	id = normalize(id)
	if id == "" {
		return false
	}
	_, ok := s.entries[id]
	return ok
}

// Count returns the number of identifiers in the set.
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
