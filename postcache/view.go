package postcache

import (
	"fmt"
	"sort"
	"strings"

	"blogger/domain"
)

// FeaturedLimit is the number of posts shown on the featured tab.
const FeaturedLimit = 2

type Tab string

const (
	TabRecent   Tab = "recent"
	TabFeatured Tab = "featured"
)

func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(s)) {
	case "", TabRecent:
		return TabRecent, nil
	case TabFeatured:
		return TabFeatured, nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Filter keeps the posts whose title or content contains query, ignoring case.
// An empty query keeps everything.
func Filter(posts []domain.Post, query string) []domain.Post {
	q := strings.ToLower(query)
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, p)
		}
	}
	return out
}

// SortNewest returns a copy ordered by CreatedAt, newest first. Posts created
// at the same instant keep their relative order.
func SortNewest(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func Featured(sorted []domain.Post) []domain.Post {
	if len(sorted) > FeaturedLimit {
		return sorted[:FeaturedLimit]
	}
	return sorted
}

// View applies the search query, sorts newest first and selects the tab.
func View(posts []domain.Post, query string, tab Tab) []domain.Post {
	sorted := SortNewest(Filter(posts, query))
	if tab == TabFeatured {
		return Featured(sorted)
	}
	return sorted
}
