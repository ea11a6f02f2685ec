package domain

const (
	// DefaultPageSize is the page size used when a request does not set a limit
	DefaultPageSize = 20
	// MaxPageSize caps the limit a client may ask for
	MaxPageSize = 100
)

// PageRequest is a limit/offset window
type PageRequest struct {
	Limit  int
	Offset int
}

// Normalize applies defaults to an incomplete request
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Page is a window over a filtered collection
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// NewPage builds a page, never returning a nil result list
func NewPage[T any](items []T, count int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Count: count, Results: items}
}

// Window slices items according to p
func Window[T any](items []T, p PageRequest) []T {
	p = p.Normalize()
	if p.Offset >= len(items) {
		return nil
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
