package core

type (
	Pagination struct {
		TotalItems int `json:"totalItems"`
		TotalPages int `json:"totalPages"`
		Page       int `json:"page"`
		PageSize   int `json:"pageSize"`
	}

	Page[T any] struct {
		Items      []T        `json:"items"`
		Pagination Pagination `json:"pagination"`
	}
)

// Paginate slices items into the requested page of PageSize entries.
// A page below 1 is treated as 1; a page past the end yields no items but
// keeps the requested page number in the metadata.
func Paginate[T any](items []T, page int) Page[T] {
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + PageSize - 1) / PageSize

	start := (page - 1) * PageSize
	out := make([]T, 0, PageSize)
	if start < total {
		end := start + PageSize
		if end > total {
			end = total
		}
		out = append(out, items[start:end]...)
	}

	return Page[T]{
		Items: out,
		Pagination: Pagination{
			TotalItems: total,
			TotalPages: totalPages,
			Page:       page,
			PageSize:   PageSize,
		},
	}
}

func (p Pagination) HasPrevious() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool     { return p.Page < p.TotalPages }

// Ellipsis marks a gap in the slice returned by PageNumbers.
const Ellipsis = 0

// PageNumbers returns the page buttons to show for current out of total, at
// most four numbers plus Ellipsis markers:
//
//	PageNumbers(1, 10) -> [1 2 3 … 10]
//	PageNumbers(5, 10) -> [1 … 5 … 10]
//	PageNumbers(9, 10) -> [1 … 8 9 10]
func PageNumbers(current, total int) []int {
	const maxVisible = 4
	var pages []int
	if total <= maxVisible {
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	switch {
	case current <= 2:
		pages = append(pages, 1, 2, 3, Ellipsis, total)
	case current >= total-1:
		pages = append(pages, 1, Ellipsis)
		for i := max(2, total-2); i <= total; i++ {
			pages = append(pages, i)
		}
	default:
		pages = append(pages, 1, Ellipsis, current, Ellipsis, total)
	}
	return pages
}
