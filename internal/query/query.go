// Package query filters, sorts and paginates theory snapshots.
package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/prn-tf/theory-forum/internal/domain"
)

// DefaultSize is the page size used when none (or a non-positive one) is given.
const DefaultSize = 10

// Params holds the optional query parameters of a theory listing.
type Params struct {
	// Status keeps only theories with this status when set.
	Status *domain.Status

	// Keyword keeps theories whose title or content contains it, ignoring case.
	// Surrounding whitespace is trimmed; an empty keyword matches everything.
	Keyword string

	// Hot orders by comment count before posting time.
	Hot bool

	// Page is the zero-based page index. Nil or negative means 0.
	Page *int

	// Size is the page size. Nil or non-positive means DefaultSize.
	Size *int
}

// Normalize returns the effective page index and page size.
func (p Params) Normalize() (page, size int) {
	if p.Page != nil && *p.Page > 0 {
		page = *p.Page
	}
	size = DefaultSize
	if p.Size != nil && *p.Size > 0 {
		size = *p.Size
	}
	return page, size
}

// Run filters, sorts and paginates a snapshot of theories.
// The input slice is not modified. A page beyond the end yields empty Items.
func Run(theories []*domain.Theory, params Params) *domain.TheoryPage {
	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))

	matched := make([]*domain.Theory, 0, len(theories))
	for _, t := range theories {
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if !t.MatchesKeyword(keyword) {
			continue
		}
		matched = append(matched, t)
	}

	if params.Hot {
		slices.SortStableFunc(matched, compareHot)
	} else {
		slices.SortStableFunc(matched, compareRecent)
	}

	page, size := params.Normalize()
	total := len(matched)
	from := total
	if page <= total/size {
		from = page * size
	}
	to := from + min(size, total-from)

	items := make([]*domain.Theory, 0, to-from)
	items = append(items, matched[from:to]...)

	return &domain.TheoryPage{
		Items:      items,
		TotalCount: total,
		TotalPages: pageCount(total, size),
		Page:       page,
		Size:       size,
	}
}

// pageCount is ceil(total/size) without overflowing for sizes near MaxInt.
func pageCount(total, size int) int {
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return pages
}

// SortRecent returns the theories ordered newest first.
// The input slice is not modified.
func SortRecent(theories []*domain.Theory) []*domain.Theory {
	sorted := slices.Clone(theories)
	if sorted == nil {
		sorted = []*domain.Theory{}
	}
	slices.SortStableFunc(sorted, compareRecent)
	return sorted
}

// compareRecent orders by posting time descending, then identifier descending.
func compareRecent(a, b *domain.Theory) int {
	if c := b.PostedAt.Compare(a.PostedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// compareHot orders by comment count descending, then as compareRecent.
func compareHot(a, b *domain.Theory) int {
	if c := cmp.Compare(b.CommentCount(), a.CommentCount()); c != 0 {
		return c
	}
	return compareRecent(a, b)
}
