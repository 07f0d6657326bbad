package results

// Set is the ordered result list for one query together with its hot topics.
// A Set is never mutated after construction.
type Set struct {
	items []Item
	hot   []Item
}

func newSet(items []Item, threshold int) *Set {
	s := &Set{
		items: make([]Item, 0, len(items)),
		hot:   []Item{},
	}
	for _, it := range items {
		it = it.clone()
		s.items = append(s.items, it)
		if it.IsHotTopic(threshold) {
			s.hot = append(s.hot, it)
		}
	}
	return s
}

// Items returns a copy of the primary sequence.
func (s *Set) Items() []Item {
	return append([]Item(nil), s.items...)
}

// HotTopics returns a copy of the hot topics subset, in primary order.
func (s *Set) HotTopics() []Item {
	return append([]Item(nil), s.hot...)
}

// Len is the number of items in the primary sequence.
func (s *Set) Len() int { return len(s.items) }

// At returns the item at index i.
func (s *Set) At(i int) Item { return s.items[i] }

// Store holds the result set of the active query. Replace is the only
// mutator; it builds the new set fully before swapping it in.
type Store struct {
	threshold int
	current   *Set
}

// NewStore creates an empty store. A threshold below zero falls back to
// DefaultHotTopicThreshold.
func NewStore(threshold int) *Store {
	if threshold < 0 {
		threshold = DefaultHotTopicThreshold
	}
	return &Store{
		threshold: threshold,
		current:   newSet(nil, threshold),
	}
}

// Replace swaps in a new result set built from items.
func (s *Store) Replace(items []Item) {
	s.current = newSet(items, s.threshold)
}

// Current returns the active result set.
func (s *Store) Current() *Set {
	return s.current
}

// HotTopics returns the hot topics of the active result set.
func (s *Store) HotTopics() []Item {
	return s.current.HotTopics()
}

// Threshold is the view count cut-off used for hot topics.
func (s *Store) Threshold() int {
	return s.threshold
}
