package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"

	"github.com/spiffcs/ghinbox/internal/format"
	"github.com/spiffcs/ghinbox/internal/history"
	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scorer"
	"github.com/spiffcs/ghinbox/internal/store"
	"github.com/spiffcs/ghinbox/internal/view"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func init() {
	color.NoColor = true
}

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		Page: view.Page{
			Items: []view.Entry{
				{
					Thread: model.Thread{
						ID:         "1001",
						Status:     model.StatusQueued,
						Type:       model.SubjectPullRequest,
						Name:       "Add retry to the sync loop with a title long enough to be truncated by the table",
						URL:        "https://github.com/acme/api/pull/7",
						Repository: "acme/api",
						UpdatedAt:  testNow.Add(-2 * time.Hour),
					},
					Evaluation: scorer.Evaluation{Score: 29, Badges: []model.Badge{model.BadgeHot}},
				},
				{
					Thread: model.Thread{
						ID:         "1002",
						Status:     model.StatusQueued,
						Type:       model.SubjectIssue,
						Name:       "Crash on empty config",
						Repository: "acme/cli",
						UpdatedAt:  testNow.Add(-3 * 24 * time.Hour),
					},
					Evaluation: scorer.Evaluation{Score: 6},
				},
			},
			Page:     1,
			LastPage: 3,
			First:    0,
			Last:     2,
			Total:    22,
		},
		QueuedCount: 22,
		StagedCount: 4,
		ClosedCount: 9,
	}
}

func TestTableFormat(t *testing.T) {
	f := &TableFormatter{Now: func() time.Time { return testNow }}
	var buf bytes.Buffer
	if err := f.Format(testSnapshot(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"queued 22  staged 4  closed 9",
		"1001",
		"PR",
		"acme/api",
		format.Ellipsis,
		format.HotIcon,
		"2h",
		"Issue",
		"3d",
		"Showing 1-2 of 22  (page 1/3)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b]8;;") {
		t.Error("Format() emitted hyperlinks with Hyperlinks disabled")
	}
}

func TestTableFormatAlignsColumns(t *testing.T) {
	f := &TableFormatter{Now: func() time.Time { return testNow }}
	var buf bytes.Buffer
	if err := f.Format(testSnapshot(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var rows []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "100") {
			rows = append(rows, line)
		}
	}
	if len(rows) != 2 {
		t.Fatalf("found %d rows, want 2", len(rows))
	}
	// Everything before the age column has a fixed width.
	prefix := colID + colScore + colType + colRepo + colTitle + colBadges + 12
	for _, row := range rows {
		if got := format.Width(row); got < prefix {
			t.Errorf("row width = %d, want at least %d: %q", got, prefix, row)
		}
	}
	age0 := strings.TrimSpace(string([]rune(rows[0])[len([]rune(rows[0]))-3:]))
	if age0 != "2h" {
		t.Errorf("first row age = %q, want 2h", age0)
	}
}

func TestTableFormatHyperlinks(t *testing.T) {
	f := &TableFormatter{Hyperlinks: true, Now: func() time.Time { return testNow }}
	var buf bytes.Buffer
	if err := f.Format(testSnapshot(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b]8;;https://github.com/acme/api/pull/7\x1b\\") {
		t.Errorf("Format() missing hyperlink:\n%q", buf.String())
	}
}

func TestTableFormatEmpty(t *testing.T) {
	f := &TableFormatter{}
	var buf bytes.Buffer
	snap := store.Snapshot{Page: view.Page{Items: []view.Entry{}, Page: 1, LastPage: 1}}
	if err := f.Format(snap, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No notifications found.") {
		t.Errorf("Format() = %q, want empty message", buf.String())
	}
}

func TestTableFormatSync(t *testing.T) {
	tests := []struct {
		name string
		res  store.SyncResult
		want string
	}{
		{
			name: "changes",
			res:  store.SyncResult{Pages: 2, Created: 3, Updated: 1, Stale: 4, Duration: 1500 * time.Millisecond},
			want: "synced 2 page(s) in 1.5s: 3 new, 1 updated, 4 unchanged",
		},
		{
			name: "not modified",
			res:  store.SyncResult{Pages: 1, NotModified: true, Duration: 80 * time.Millisecond},
			want: "no changes since last sync (80ms)",
		},
		{
			name: "poll interval",
			res:  store.SyncResult{Pages: 1, PollInterval: time.Minute},
			want: "server poll interval: 1m0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TableFormatter{}).FormatSync(tt.res, &buf); err != nil {
				t.Fatalf("FormatSync() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("FormatSync() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestTableFormatHistory(t *testing.T) {
	records := []history.Record{
		{StartedAt: testNow, Duration: time.Second, Pages: 2, Created: 5},
		{StartedAt: testNow.Add(-time.Minute), NotModified: true, Pages: 1},
		history.FromResult(store.SyncResult{StartedAt: testNow.Add(-2 * time.Minute)}, errors.New("dial tcp: timeout")),
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).FormatHistory(records, &buf); err != nil {
		t.Fatalf("FormatHistory() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Started", "ok", "not modified", "error: dial tcp: timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatHistory() missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := (&TableFormatter{}).FormatHistory(nil, &buf); err != nil {
		t.Fatalf("FormatHistory(nil) error = %v", err)
	}
	if !strings.Contains(buf.String(), "No sync history.") {
		t.Errorf("FormatHistory(nil) = %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).Format(testSnapshot(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var got struct {
		Items []struct {
			ID     string        `json:"id"`
			Score  int           `json:"score"`
			Badges []model.Badge `json:"badges"`
		} `json:"items"`
		LastPage    int `json:"last_page"`
		QueuedCount int `json:"queued_count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got.Items) != 2 || got.Items[0].ID != "1001" || got.Items[0].Score != 29 {
		t.Fatalf("items = %+v", got.Items)
	}
	if len(got.Items[0].Badges) != 1 || got.Items[0].Badges[0] != model.BadgeHot {
		t.Errorf("badges = %v, want [hot]", got.Items[0].Badges)
	}
	if got.LastPage != 3 || got.QueuedCount != 22 {
		t.Errorf("last_page = %d, queued_count = %d", got.LastPage, got.QueuedCount)
	}
}

func TestJSONFormatHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).FormatHistory(nil, &buf); err != nil {
		t.Fatalf("FormatHistory() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("FormatHistory(nil) = %q, want []", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"markdown", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
