// Package view composes the filtered, sorted and paginated list of threads
// shown for one status. Nothing here is persisted.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scorer"
)

// PageSize is the number of threads shown per page.
const PageSize = 10

// Filter selects threads by participation class.
type Filter string

const (
	FilterAll             Filter = "all"
	FilterParticipating   Filter = "participating"
	FilterReviewRequested Filter = "review_requested"
	FilterSubscribed      Filter = "subscribed"
	FilterCommented       Filter = "commented"
)

// AllFilters lists the filters in cycling order.
var AllFilters = []Filter{FilterAll, FilterParticipating, FilterReviewRequested, FilterSubscribed, FilterCommented}

// ParseFilter validates a filter name. Empty selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range AllFilters {
		if Filter(s) == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid filter %q (must be all, participating, review_requested, subscribed, or commented)", s)
}

// Match reports whether a thread belongs to the filter's class.
func (f Filter) Match(t model.Thread) bool {
	switch f {
	case FilterParticipating:
		return t.HasReason(model.ReasonAssign, model.ReasonMention, model.ReasonReviewRequested, model.ReasonAuthor)
	case FilterReviewRequested:
		return t.HasReason(model.ReasonReviewRequested)
	case FilterSubscribed:
		if len(t.Reasons) == 0 {
			return false
		}
		for _, ev := range t.Reasons {
			if ev.Reason != model.ReasonSubscribed {
				return false
			}
		}
		return true
	case FilterCommented:
		return t.HasReason(model.ReasonComment)
	default:
		return true
	}
}

// Next returns the filter after f in AllFilters, wrapping around.
func (f Filter) Next() Filter {
	i := slices.Index(AllFilters, f)
	return AllFilters[(i+1)%len(AllFilters)]
}

// SortKey selects the ordering of a view.
type SortKey string

const (
	SortScore      SortKey = "score"
	SortTitle      SortKey = "title"
	SortRepository SortKey = "repository"
	SortType       SortKey = "type"
	SortUpdated    SortKey = "updated"
)

// AllSortKeys lists the sort keys in cycling order.
var AllSortKeys = []SortKey{SortScore, SortTitle, SortRepository, SortType, SortUpdated}

// ParseSortKey validates a sort key. Empty selects SortScore.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortScore, nil
	}
	for _, k := range AllSortKeys {
		if SortKey(s) == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q (must be score, title, repository, type, or updated)", s)
}

// Next returns the sort key after k in AllSortKeys, wrapping around.
func (k SortKey) Next() SortKey {
	i := slices.Index(AllSortKeys, k)
	return AllSortKeys[(i+1)%len(AllSortKeys)]
}

// Query is the presentation state a page is composed from.
type Query struct {
	Status     model.Status
	Filter     Filter
	Sort       SortKey
	Descending bool
	Search     string
	Page       int
}

// DefaultQuery shows the first page of queued threads, highest score first.
func DefaultQuery() Query {
	return Query{
		Status:     model.StatusQueued,
		Filter:     FilterAll,
		Sort:       SortScore,
		Descending: true,
		Page:       1,
	}
}

// Entry is a thread decorated with its score and badges.
type Entry struct {
	model.Thread
	scorer.Evaluation
}

// Page is one composed page of a view.
// First and Last are half-open bounds into the filtered list.
type Page struct {
	Items    []Entry `json:"items"`
	Page     int     `json:"page"`
	LastPage int     `json:"last_page"`
	First    int     `json:"first"`
	Last     int     `json:"last"`
	Total    int     `json:"total"`
}

// Compose selects the threads with the query's status, applies the filter
// and search, decorates them with the scorer, sorts and paginates.
// An out-of-range page yields an empty page rather than an error.
func Compose(threads []model.Thread, q Query, p scorer.Policy, now time.Time) Page {
	status := q.Status
	if status == "" {
		status = model.StatusQueued
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	entries := make([]Entry, 0, len(threads))
	for _, t := range threads {
		if t.Status != status || !q.Filter.Match(t) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		entries = append(entries, Entry{Thread: t, Evaluation: scorer.Evaluate(t, p, now)})
	}

	Sort(entries, q.Sort, q.Descending)
	return paginate(entries, q.Page)
}

// Sort orders entries in place by key. Ties fall back to score descending,
// then id, so the order is deterministic in either direction.
func Sort(entries []Entry, key SortKey, descending bool) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		c := compareBy(a, b, key)
		if descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func compareBy(a, b Entry, key SortKey) int {
	switch key {
	case SortTitle:
		return cmp.Compare(a.Name, b.Name)
	case SortRepository:
		return cmp.Compare(a.Repository, b.Repository)
	case SortType:
		return cmp.Compare(a.Type, b.Type)
	case SortUpdated:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return cmp.Compare(a.Score, b.Score)
	}
}

func paginate(entries []Entry, page int) Page {
	total := len(entries)
	if page < 1 || total == 0 {
		page = 1
	}
	lastPage := (total + PageSize - 1) / PageSize
	if lastPage < 1 {
		lastPage = 1
	}

	first := min((page-1)*PageSize, total)
	last := min(first+PageSize, total)

	return Page{
		Items:    entries[first:last],
		Page:     page,
		LastPage: lastPage,
		First:    first,
		Last:     last,
		Total:    total,
	}
}
