package event

import "slices"

// Edge bookkeeping shared by both sides of the relation. Collections are
// small, so linear scans over slices keep ordering stable and cheap.

// appendUnique appends v unless it is already present.
func appendUnique[E comparable](s []E, v E) ([]E, bool) {
	if slices.Contains(s, v) {
		return s, false
	}
	return append(s, v), true
}

// removeFirst removes the first occurrence of v.
func removeFirst[E comparable](s []E, v E) ([]E, bool) {
	i := slices.Index(s, v)
	if i < 0 {
		return s, false
	}
	return slices.Delete(s, i, i+1), true
}

// replaceFirst swaps the first occurrence of old for v in place.
func replaceFirst[E comparable](s []E, old, v E) bool {
	i := slices.Index(s, old)
	if i < 0 {
		return false
	}
	s[i] = v
	return true
}
