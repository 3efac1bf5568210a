package progress

import "sort"

// Set is a set of completed ids. The zero value is not usable; use NewSet.
type Set map[string]struct{}

// NewSet builds a set from ids, collapsing duplicates.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id string)    { s[id] = struct{}{} }
func (s Set) Remove(id string) { delete(s, id) }
func (s Set) Len() int         { return len(s) }

// Toggle flips membership of id and reports whether it is now present.
func (s Set) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Sorted returns the ids in ascending order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Set) Clone() Set {
	c := make(Set, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Union returns a new set holding the ids of both sets.
func (s Set) Union(other Set) Set {
	u := s.Clone()
	for id := range other {
		u[id] = struct{}{}
	}
	return u
}

// Equal reports whether both sets hold the same ids.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
