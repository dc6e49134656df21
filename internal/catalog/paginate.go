package catalog

// PageCount returns max(1, ceil(n/size)).
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// ClampPage keeps a 1-based page inside [1, pages].
func ClampPage(page, pages int) int {
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageSlice returns items [(page-1)*size, (page-1)*size+size), bounded by len(items).
func PageSlice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageLink is one entry of the pager: a page number or a gap marker.
type PageLink struct {
	Page int  `json:"page,omitempty"`
	Gap  bool `json:"gap,omitempty"`
}

const pagerDelta = 2

// PageNumbers builds the pager: first page, current±2, last page. A single
// skipped page is shown as a number, longer runs collapse into a gap. Returns
// nil when there is only one page.
func PageNumbers(current, total int) []PageLink {
	if total <= 1 {
		return nil
	}
	pages := []int{1}
	for i := max(2, current-pagerDelta); i <= min(total-1, current+pagerDelta); i++ {
		pages = append(pages, i)
	}
	pages = append(pages, total)

	links := make([]PageLink, 0, len(pages)+2)
	last := 0
	for _, p := range pages {
		if last != 0 {
			switch p - last {
			case 1:
			case 2:
				links = append(links, PageLink{Page: last + 1})
			default:
				links = append(links, PageLink{Gap: true})
			}
		}
		links = append(links, PageLink{Page: p})
		last = p
	}
	return links
}
