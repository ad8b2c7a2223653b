package output

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/spiffcs/ghinbox/internal/history"
	"github.com/spiffcs/ghinbox/internal/store"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format outputs a snapshot as JSON
func (f *JSONFormatter) Format(snap store.Snapshot, w io.Writer) error {
	return f.encode(w, snap)
}

// FormatSync outputs a sync result as JSON
func (f *JSONFormatter) FormatSync(res store.SyncResult, w io.Writer) error {
	return f.encode(w, res)
}

// FormatHistory outputs sync history records as JSON
func (f *JSONFormatter) FormatHistory(records []history.Record, w io.Writer) error {
	if records == nil {
		records = []history.Record{}
	}
	return f.encode(w, records)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
