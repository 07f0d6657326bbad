// Package disclosure tracks how much of a result list is visible and pages it
// open and shut one page at a time.
package disclosure

// DefaultPageSize is the number of items shown before the user asks for more.
const DefaultPageSize = 3

// State is a snapshot of the controller.
type State struct {
	VisibleCount int
	PageSize     int
	Total        int
}

// Rendered is the number of items a view actually draws.
func (s State) Rendered() int {
	if s.VisibleCount < s.Total {
		return s.VisibleCount
	}
	return s.Total
}

// Remaining is the number of items hidden below the fold.
func (s State) Remaining() int {
	if r := s.Total - s.VisibleCount; r > 0 {
		return r
	}
	return 0
}

// Controller never lets the visible count drop below one page.
type Controller struct {
	pageSize int
	visible  int
	total    int
}

// New returns a controller with the given page size. Sizes below one fall
// back to DefaultPageSize.
func New(pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Controller{pageSize: pageSize, visible: pageSize}
}

// Reset starts a fresh list of total items with one page visible.
func (c *Controller) Reset(total int) {
	if total < 0 {
		total = 0
	}
	c.total = total
	c.visible = c.pageSize
}

// Expand reveals one more page and returns the new visible count. It keeps
// growing past the total; VisibleSlice clamps at render time.
func (c *Controller) Expand() int {
	c.visible += c.pageSize
	return c.visible
}

// Collapse hides one page, never going below a single page.
func (c *Controller) Collapse() int {
	c.visible -= c.pageSize
	if c.visible < c.pageSize {
		c.visible = c.pageSize
	}
	return c.visible
}

// ShowAll makes every item visible in one step.
func (c *Controller) ShowAll() int {
	if c.total > c.visible {
		c.visible = c.total
	}
	return c.visible
}

// CanExpand reports whether hidden items remain.
func (c *Controller) CanExpand() bool { return c.visible < c.total }

// CanCollapse reports whether more than one page is showing.
func (c *Controller) CanCollapse() bool { return c.visible > c.pageSize }

// VisibleCount returns the current visible count.
func (c *Controller) VisibleCount() int { return c.visible }

// PageSize returns the page size.
func (c *Controller) PageSize() int { return c.pageSize }

// Total returns the length recorded by the last Reset.
func (c *Controller) Total() int { return c.total }

// State returns a snapshot.
func (c *Controller) State() State {
	return State{VisibleCount: c.visible, PageSize: c.pageSize, Total: c.total}
}

// VisibleSlice returns the leading items that c currently discloses.
func VisibleSlice[T any](c *Controller, items []T) []T {
	n := c.visible
	if n > len(items) {
		n = len(items)
	}
	return items[:n:n]
}
