package entity

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100

	DefaultSortField = "created_at"
)

// SortOrder is the direction of a sorted list.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination selects a page of a list.
type Pagination struct {
	Page    int
	PerPage int
}

// DefaultPagination returns the first page with the default page size.
func DefaultPagination() Pagination {
	return Pagination{Page: DefaultPage, PerPage: DefaultPerPage}
}

// Offset returns the number of records to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the maximum number of records on the page.
func (p Pagination) Limit() int {
	return p.PerPage
}

// Sorting describes how a list is ordered.
type Sorting struct {
	Field string
	Order SortOrder
}

// DefaultSorting orders by creation time, oldest first.
func DefaultSorting() Sorting {
	return Sorting{Field: DefaultSortField, Order: SortAsc}
}

// Page is a single page of a list together with the total number of matching records.
type Page[T any] struct {
	Page    int
	PerPage int
	Total   int64
	Results []T
}
