// Package sets provides a minimal generic hash set for comparable keys.
package sets

// Set holds each key at most once. The zero value is a usable empty set
// for lookups; use New to build one with contents.
type Set[T comparable] map[T]struct{}

// New creates a set holding the given values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present. Safe on a nil set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of keys.
func (s Set[T]) Len() int { return len(s) }
