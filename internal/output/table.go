package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/ghinbox/internal/format"
	"github.com/spiffcs/ghinbox/internal/history"
	"github.com/spiffcs/ghinbox/internal/store"
	"github.com/spiffcs/ghinbox/internal/view"
)

// Column widths
const (
	colID     = 12
	colScore  = 5
	colType   = 5
	colRepo   = 26
	colTitle  = 48
	colBadges = 8
	colAge    = 4
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Hyperlinks wraps titles in OSC 8 links to the thread URL.
	Hyperlinks bool
	// Now is the reference time for the age column.
	Now func() time.Time
}

// NewTableFormatter returns a table formatter that emits hyperlinks only
// when stdout is a terminal.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		Hyperlinks: term.IsTerminal(int(os.Stdout.Fd())),
		Now:        time.Now,
	}
}

// Format outputs one page of a snapshot as a table
func (f *TableFormatter) Format(snap store.Snapshot, w io.Writer) error {
	fmt.Fprintf(w, "%s %d  %s %d  %s %d\n\n",
		color.CyanString("queued"), snap.QueuedCount,
		color.YellowString("staged"), snap.StagedCount,
		color.WhiteString("closed"), snap.ClosedCount)

	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "No notifications found.")
		return nil
	}

	// Header
	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colID, "ID",
		colScore, "Score",
		colType, "Type",
		colRepo, "Repository",
		colTitle, "Title",
		colBadges, "Badges",
		"Age")
	fmt.Fprintln(w, strings.Repeat("-", colID+colScore+colType+colRepo+colTitle+colBadges+colAge+12))

	now := f.now()
	for _, e := range snap.Items {
		title := format.Fit(e.Name, colTitle)
		if f.Hyperlinks {
			title = format.Hyperlink(e.URL, title)
		}

		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
			format.Fit(e.ID, colID),
			format.PadRight(colorScore(e.Score), colScore),
			format.Fit(format.TypeLabel(e.Type), colType),
			format.Fit(e.Repository, colRepo),
			title,
			format.PadRight(format.BadgeIcons(e.Badges), colBadges),
			format.Age(now, e.UpdatedAt),
		)
	}

	printFooter(snap.Page, w)
	return nil
}

// printFooter prints the visible range and page position
func printFooter(p view.Page, w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Showing %d-%d of %d  (page %d/%d)\n", p.First+1, p.Last, p.Total, p.Page, p.LastPage)
}

// FormatSync outputs the result of one sync pass
func (f *TableFormatter) FormatSync(res store.SyncResult, w io.Writer) error {
	if res.NotModified {
		fmt.Fprintf(w, "%s no changes since last sync (%s)\n", color.GreenString("✓"), res.Duration.Round(time.Millisecond))
		return nil
	}
	fmt.Fprintf(w, "%s synced %d page(s) in %s: %s new, %s updated, %d unchanged\n",
		color.GreenString("✓"),
		res.Pages,
		res.Duration.Round(time.Millisecond),
		color.CyanString("%d", res.Created),
		color.YellowString("%d", res.Updated),
		res.Stale)
	if res.PollInterval > 0 {
		fmt.Fprintf(w, "  server poll interval: %s\n", res.PollInterval)
	}
	return nil
}

// FormatHistory outputs recent sync passes, newest first
func (f *TableFormatter) FormatHistory(records []history.Record, w io.Writer) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No sync history.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %8s  %5s  %7s  %7s  %5s  %s\n",
		"Started", "Duration", "Pages", "Created", "Updated", "Stale", "Result")
	for _, r := range records {
		result := color.GreenString("ok")
		switch {
		case r.Error != "":
			result = color.RedString("error: %s", format.Truncate(r.Error, 60))
		case r.NotModified:
			result = "not modified"
		}
		fmt.Fprintf(w, "%-20s  %8s  %5d  %7d  %7d  %5d  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration.Round(time.Millisecond),
			r.Pages, r.Created, r.Updated, r.Stale,
			result)
	}
	return nil
}

func (f *TableFormatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// colorScore highlights scores at review-request weight and above.
func colorScore(score int) string {
	switch {
	case score >= 29:
		return color.RedString("%d", score)
	case score >= 17:
		return color.YellowString("%d", score)
	default:
		return fmt.Sprintf("%d", score)
	}
}
