package activity

// Store is the ordered, append-only activity collection. Insertion order is
// creation order. It is not safe for concurrent use: the controller loop is
// its only user.
type Store struct {
	items []Activity
}

func NewStore() *Store {
	return &Store{}
}

// Append adds a to the end. IDs are not checked for collisions.
func (s *Store) Append(a Activity) {
	s.items = append(s.items, a)
}

// FindByID scans the collection for the activity with the given id.
func (s *Store) FindByID(id string) (Activity, bool) {
	for _, a := range s.items {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// All returns the activities in insertion order. The slice is a copy.
func (s *Store) All() []Activity {
	out := make([]Activity, len(s.items))
	copy(out, s.items)
	return out
}

// ReplaceAll swaps the whole collection, as done on restore and reset.
func (s *Store) ReplaceAll(items []Activity) {
	s.items = make([]Activity, len(items))
	copy(s.items, items)
}

func (s *Store) Len() int {
	return len(s.items)
}

// Records returns the field-bag form of every activity, in order.
func (s *Store) Records() []Record {
	out := make([]Record, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a.Record())
	}
	return out
}
