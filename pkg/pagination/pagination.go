package pagination

import "gorm.io/gorm"

const (
	// DefaultTop is the page size when $top is not provided.
	DefaultTop = 10
	// MaxTop caps how many rows any list query can request.
	MaxTop = 100
	// MaxPages is the width of the page number window.
	MaxPages = 7
)

// Params holds offset pagination inputs ($skip / $top).
type Params struct {
	Skip int
	Top  int
}

// Normalize clamps skip to >= 0 and top to (0, MaxTop].
func Normalize(skip, top int) Params {
	if skip < 0 {
		skip = 0
	}
	if top <= 0 {
		top = DefaultTop
	}
	if top > MaxTop {
		top = MaxTop
	}
	return Params{Skip: skip, Top: top}
}

// Scope applies the offset and limit to a gorm query.
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	n := Normalize(p.Skip, p.Top)
	return db.Offset(n.Skip).Limit(n.Top)
}

// Page describes the position of a result slice within the full set.
type Page struct {
	Total            int64 `json:"total"`
	Skip             int   `json:"skip"`
	Top              int   `json:"top"`
	TotalPages       int   `json:"total_pages"`
	CurrentPage      int   `json:"current_page"`
	CanPageBackwards bool  `json:"can_page_backwards"`
	CanPageForwards  bool  `json:"can_page_forwards"`
	Pages            []int `json:"pages"`
}

// NewPage computes paging metadata for total rows at params.
func NewPage(total int64, params Params) Page {
	p := Normalize(params.Skip, params.Top)
	if total < 0 {
		total = 0
	}
	totalPages := int((total + int64(p.Top) - 1) / int64(p.Top))
	current := p.Skip/p.Top + 1

	return Page{
		Total:            total,
		Skip:             p.Skip,
		Top:              p.Top,
		TotalPages:       totalPages,
		CurrentPage:      current,
		CanPageBackwards: p.Skip > 0,
		CanPageForwards:  int64(p.Skip+p.Top) < total,
		Pages:            window(current, totalPages),
	}
}

func window(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	start, end := 1, totalPages
	if totalPages > MaxPages {
		half := MaxPages / 2
		start, end = current-half, current+half
		if start < 1 {
			end += 1 - start
			start = 1
		}
		if end > totalPages {
			start -= end - totalPages
			end = totalPages
		}
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
