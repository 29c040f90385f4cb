package blog

// DefaultResultsPerPage is the listing page size when none is requested.
const DefaultResultsPerPage = 20

// Page is one page of a post listing.
type Page struct {
	Posts        []*Post `json:"posts"`
	MinResult    int     `json:"min_result"`
	MaxResult    int     `json:"max_result"`
	TotalResults int     `json:"total_results"`
	TotalPages   int     `json:"total_pages"`
	CurrentPage  int     `json:"current_page"`
	IsFirstPage  bool    `json:"is_first_page"`
	IsLastPage   bool    `json:"is_last_page"`
	IsOnlyPage   bool    `json:"is_only_page"`
}

// TotalPages returns ceil(total/perPage).
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// ClampPage keeps page inside [1, totalPages].
func ClampPage(page, totalPages int) int {
	page = min(page, totalPages)
	return max(page, 1)
}

// LimitOffset converts a 1-based page into query bounds.
func LimitOffset(perPage, page int) (int, int) {
	return perPage, (page - 1) * perPage
}

func newPage(posts []*Post, total, totalPages, page, offset int) *Page {
	return &Page{
		Posts:        posts,
		MinResult:    offset + 1,
		MaxResult:    offset + len(posts),
		TotalResults: total,
		TotalPages:   totalPages,
		CurrentPage:  page,
		IsFirstPage:  page == 1,
		IsLastPage:   page == totalPages,
		IsOnlyPage:   totalPages == 1,
	}
}
