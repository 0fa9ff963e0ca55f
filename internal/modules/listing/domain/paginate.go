package domain

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one slice of a filtered result.
type Page struct {
	Items      []Entity `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
	// FirstIndex and LastIndex bound the requested window [FirstIndex, LastIndex) before
	// clamping to the result length.
	FirstIndex int `json:"firstIndex"`
	LastIndex  int `json:"lastIndex"`
}

// Paginate slices filtered for the 1-based page. TotalPages is at least 1 so an empty
// result still renders as page 1 of 1. A page past the end yields no items; resetting the
// page is the caller's job.
func Paginate(filtered []Entity, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	window := page
	if window < 1 {
		window = 1
	}
	first := (window - 1) * pageSize
	last := window * pageSize

	items := []Entity{}
	if first < total {
		end := last
		if end > total {
			end = total
		}
		items = filtered[first:end:end]
	}

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		FirstIndex: first,
		LastIndex:  last,
	}
}
