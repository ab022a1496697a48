package views

// Pagination bounds. Out-of-range requests are clamped, never rejected.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is one bounded slice of a compiled view together with exact totals.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Paginate slices an already-sorted view into one page. TotalItems counts the
// whole view, not an estimate, so callers can render an exact page count.
// A page beyond the end yields an empty item list, not an error.
//
// Provided the input order is total, concatenating pages 1..TotalPages for a
// fixed limit reproduces the view exactly once per item.
func Paginate[T any](items []T, page, limit int) Page[T] {
	if page < DefaultPage {
		page = DefaultPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	total := len(items)
	totalPages := (total + limit - 1) / limit

	skip := (page - 1) * limit
	if skip > total {
		skip = total
	}
	take := skip + limit
	if take > total {
		take = total
	}

	return Page[T]{
		Items:       items[skip:take],
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}
}
