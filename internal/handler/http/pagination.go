package http

import (
	"net/http"
	"strconv"

	"github.com/Seldir193/coderr-backend/internal/config"
)

// Page describes the slice of a result set requested by the client.
type Page struct {
	Number int
	Size   int
}

// PageEnvelope is the list response wrapper shared by every paginated
// endpoint.
type PageEnvelope struct {
	Count       int         `json:"count"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
	Results     interface{} `json:"results"`
}

func pageFromRequest(r *http.Request, cfg config.Pagination) Page {
	page := Page{Number: 1, Size: cfg.PageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Number = n
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = n
		}
	}
	if page.Size > cfg.MaxPageSize {
		page.Size = cfg.MaxPageSize
	}
	if page.Size < 1 {
		page.Size = 1
	}
	return page
}

// Bounds returns the half-open [start, end) window of the page within a
// result set of the given total size. A page past the end yields an empty
// window rather than an error.
func (p Page) Bounds(total int) (int, int) {
	start := (p.Number - 1) * p.Size
	if start >= total {
		return total, total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return start, end
}

// InRange reports whether the page exists for the given total. Page 1 always
// exists, even for an empty result set.
func (p Page) InRange(total int) bool {
	return p.Number == 1 || (p.Number-1)*p.Size < total
}

// TotalPages never reports fewer than one page so an empty result set still
// renders as page 1 of 1.
func (p Page) TotalPages(total int) int {
	if total == 0 {
		return 1
	}
	pages := total / p.Size
	if total%p.Size != 0 {
		pages++
	}
	return pages
}

func paginated(results interface{}, total int, page Page) PageEnvelope {
	return PageEnvelope{
		Count:       total,
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Number,
		Results:     results,
	}
}
