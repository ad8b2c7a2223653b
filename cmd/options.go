package cmd

import (
	"fmt"

	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/view"
)

// Options holds the shared command-line options for the ghinbox CLI.
type Options struct {
	Format    string
	LogFormat string
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// View options
	Status     string
	Filter     string
	Sort       string
	Descending bool
	Search     string
	Page       int

	// Sync before rendering the list
	Sync bool

	// Serve Prometheus metrics on this address while watching
	MetricsAddr string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Status:     string(model.StatusQueued),
		Filter:     string(view.FilterAll),
		Sort:       string(view.SortScore),
		Descending: true,
		Page:       1,
		Sync:       true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithStatus selects the queued, staged or closed tab.
func WithStatus(status string) Option {
	return func(o *Options) {
		o.Status = status
	}
}

// WithFilter sets the reason filter.
func WithFilter(filter string) Option {
	return func(o *Options) {
		o.Filter = filter
	}
}

// WithSort sets the sort key and direction.
func WithSort(key string, descending bool) Option {
	return func(o *Options) {
		o.Sort = key
		o.Descending = descending
	}
}

// WithSearch sets the title search term.
func WithSearch(search string) Option {
	return func(o *Options) {
		o.Search = search
	}
}

// WithPage sets the 1-based page number.
func WithPage(page int) Option {
	return func(o *Options) {
		o.Page = page
	}
}

// WithSync controls the one-shot sync before listing.
func WithSync(sync bool) Option {
	return func(o *Options) {
		o.Sync = sync
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// Query validates the view options and builds the store query.
func (o *Options) Query() (view.Query, error) {
	status, err := model.ParseStatus(o.Status)
	if err != nil {
		return view.Query{}, err
	}
	filter, err := view.ParseFilter(o.Filter)
	if err != nil {
		return view.Query{}, err
	}
	sortKey, err := view.ParseSortKey(o.Sort)
	if err != nil {
		return view.Query{}, err
	}
	if o.Page < 1 {
		return view.Query{}, fmt.Errorf("invalid page %d: pages start at 1", o.Page)
	}
	return view.Query{
		Status:     status,
		Filter:     filter,
		Search:     o.Search,
		Sort:       sortKey,
		Descending: o.Descending,
		Page:       o.Page,
	}, nil
}
