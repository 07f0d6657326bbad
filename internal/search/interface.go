package search

import "github.com/pders01/brief/internal/results"

// Searcher defines the minimal search API used by the local backend.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified about newly seen items.
type UpdateListener interface {
	OnItemsSaved(origin string, items []results.Item)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
