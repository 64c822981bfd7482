package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// RefSet is a collection of entity references with set semantics: adding an
// existing member is a no-op and ordering carries no meaning. Stored as a
// plain bson array; Mongo-side mutation goes through $addToSet / $pull.
type RefSet []primitive.ObjectID

func (s RefSet) Has(id primitive.ObjectID) bool {
	for _, ref := range s {
		if ref == id {
			return true
		}
	}
	return false
}

func (s RefSet) Add(id primitive.ObjectID) RefSet {
	if s.Has(id) {
		return s
	}
	return append(s, id)
}

func (s RefSet) Remove(id primitive.ObjectID) RefSet {
	out := s[:0]
	for _, ref := range s {
		if ref != id {
			out = append(out, ref)
		}
	}
	return out
}

// Clone returns an independent copy so callers can mutate without aliasing
// the stored document.
func (s RefSet) Clone() RefSet {
	if s == nil {
		return nil
	}
	out := make(RefSet, len(s))
	copy(out, s)
	return out
}
