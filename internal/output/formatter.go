package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/ghinbox/internal/history"
	"github.com/spiffcs/ghinbox/internal/store"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name. An empty name selects the table.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("invalid format %q (must be table or json)", s)
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(snap store.Snapshot, w io.Writer) error
	FormatSync(res store.SyncResult, w io.Writer) error
	FormatHistory(records []history.Record, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	default:
		return NewTableFormatter()
	}
}
