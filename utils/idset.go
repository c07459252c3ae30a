package utils

import "strings"

// IDSet is an insertion-ordered set of identifiers. It is not safe for
// concurrent use.
type IDSet struct {
	seen  map[string]struct{}
	order []string
}

// NewIDSet creates a set holding ids, ignoring blanks and duplicates.
func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add returns true if id was newly added, false if already present or blank.
func (s *IDSet) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s *IDSet) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, exists := s.seen[strings.TrimSpace(id)]
	return exists
}

// Size returns the number of unique ids tracked.
func (s *IDSet) Size() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Values returns the ids in insertion order.
func (s *IDSet) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
