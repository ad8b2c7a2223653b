package tui

import (
	"fmt"
	"strings"

	"github.com/spiffcs/ghinbox/internal/format"
	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scheduler"
	"github.com/spiffcs/ghinbox/internal/view"
)

// Column widths
const (
	colScore  = 5
	colType   = 5
	colRepo   = 24
	colTitle  = 50
	colBadges = 8
	colAge    = 4
)

// tableWidth is the row width including the cursor gutter
const tableWidth = 2 + colScore + 2 + colType + 2 + colRepo + 2 + colTitle + 2 + colBadges + 2 + colAge

// renderInbox renders the complete inbox view
func renderInbox(m InboxModel) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(renderTabBar(m.query.Status, m.snap.QueuedCount, m.snap.StagedCount, m.snap.ClosedCount))
	b.WriteString("  ")
	b.WriteString(renderSyncState(m))
	b.WriteString("\n\n")

	if len(m.snap.Items) == 0 {
		b.WriteString(renderEmptyState(m.query))
	} else {
		b.WriteString(renderHeader())
		b.WriteString("\n")
		b.WriteString(separatorStyle.Render(strings.Repeat("─", tableWidth)))
		b.WriteString("\n")
		for i, e := range m.snap.Items {
			b.WriteString(m.renderRow(e, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderQueryLine(m.query, m.snap.Page))
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	b.WriteString(renderHelp())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	}
	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	return b.String()
}

// renderTabBar renders the status tabs with their counts
func renderTabBar(active model.Status, queued, staged, closed int) string {
	counts := map[model.Status]int{
		model.StatusQueued: queued,
		model.StatusStaged: staged,
		model.StatusClosed: closed,
	}

	tabs := make([]string, 0, len(statusTabs))
	for i, s := range statusTabs {
		label := fmt.Sprintf("[ %d: %s (%d) ]", i+1, tabTitle(s), counts[s])
		if s == active {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}
	return strings.Join(tabs, "    ")
}

func tabTitle(s model.Status) string {
	switch s {
	case model.StatusStaged:
		return "Staged"
	case model.StatusClosed:
		return "Closed"
	}
	return "Queued"
}

// renderSyncState shows the background sync state when a scheduler is attached
func renderSyncState(m InboxModel) string {
	if m.syncStatus == nil {
		return ""
	}
	st := m.syncStatus()
	switch {
	case st.State == scheduler.StateRunning:
		return m.spinner.View() + " syncing"
	case st.LastError != nil:
		return errorStyle.Render(fmt.Sprintf("sync failed (%d), retrying", st.Failures))
	case !st.LastSync.IsZero():
		return helpStyle.Render("synced " + format.Age(m.now(), st.LastSync) + " ago")
	}
	return ""
}

// renderHeader renders the table header
func renderHeader() string {
	return headerStyle.Render(fmt.Sprintf(
		"  %-*s  %-*s  %-*s  %-*s  %-*s  %s",
		colScore, "Score",
		colType, "Type",
		colRepo, "Repository",
		colTitle, "Title",
		colBadges, "Badges",
		"Age",
	))
}

// renderRow renders a single entry row
func (m InboxModel) renderRow(e view.Entry, selected bool) string {
	cursor := "  "
	if selected {
		cursor = applyStyle(cursorStyle, "> ", selected)
	}

	score := format.PadRight(renderScore(e.Score, selected), colScore)
	typ := format.PadRight(renderType(e.Type, selected), colType)
	repo := format.Fit(e.Repository, colRepo)
	title := format.Fit(e.Name, colTitle)
	badges := format.PadRight(format.BadgeIcons(e.Badges), colBadges)
	age := format.Age(m.now(), e.UpdatedAt)

	row := fmt.Sprintf("%s%s  %s  %s  %s  %s  %s", cursor, score, typ, repo, title, badges, age)
	if selected {
		return selectedStyle.Width(tableWidth).Render(row)
	}
	return row
}

// renderScore colors scores at review-request weight and above
func renderScore(score int, selected bool) string {
	text := fmt.Sprintf("%d", score)
	switch {
	case score >= 29:
		return applyStyle(scoreHighStyle, text, selected)
	case score >= 17:
		return applyStyle(scoreMediumStyle, text, selected)
	default:
		return applyStyle(scoreLowStyle, text, selected)
	}
}

func renderType(t model.SubjectType, selected bool) string {
	label := format.TypeLabel(t)
	switch t {
	case model.SubjectPullRequest:
		return applyStyle(typePRStyle, label, selected)
	case model.SubjectIssue:
		return applyStyle(typeIssueStyle, label, selected)
	}
	return applyStyle(typeOtherStyle, label, selected)
}

// renderQueryLine summarizes the page position and the active query
func renderQueryLine(q view.Query, p view.Page) string {
	dir := "▲"
	if q.Descending {
		dir = "▼"
	}
	parts := []string{
		fmt.Sprintf("page %d/%d", p.Page, p.LastPage),
		fmt.Sprintf("%d total", p.Total),
		"filter: " + string(q.Filter),
		"sort: " + dir + string(q.Sort),
	}
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q.Search))
	}
	return helpStyle.Render(strings.Join(parts, " · "))
}

// renderHelp renders the help text
func renderHelp() string {
	return helpStyle.Render("1-3/tab: view  j/k: nav  n/p: page  r: read  s: stage  u: restore  /: search  f: filter  o: sort  d: direction  R: sync  enter: open  q: quit")
}

// renderEmptyState renders the empty state message
func renderEmptyState(q view.Query) string {
	if q.Search != "" || q.Filter != view.FilterAll {
		return emptyStyle.Render("Nothing matches the current filter or search.")
	}
	switch q.Status {
	case model.StatusStaged:
		return emptyStyle.Render("Nothing staged.")
	case model.StatusClosed:
		return emptyStyle.Render("Nothing closed yet.")
	}
	return emptyStyle.Render("All caught up! No notifications in the queue.")
}
