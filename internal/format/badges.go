package format

import (
	"strings"

	"github.com/spiffcs/ghinbox/internal/model"
)

// Badge icons. Renderers apply their own styling.
const (
	HotIcon      = "\U0001F525" // 🔥
	CommentsIcon = "\U0001F4AC" // 💬
	OldIcon      = "\u23F3"     // ⏳
)

// BadgeIcon returns the icon for a badge, or "" for an unknown badge.
func BadgeIcon(b model.Badge) string {
	switch b {
	case model.BadgeHot:
		return HotIcon
	case model.BadgeComments:
		return CommentsIcon
	case model.BadgeOld:
		return OldIcon
	}
	return ""
}

// BadgeIcons renders badges as space separated icons in the order given.
func BadgeIcons(badges []model.Badge) string {
	icons := make([]string, 0, len(badges))
	for _, b := range badges {
		if icon := BadgeIcon(b); icon != "" {
			icons = append(icons, icon)
		}
	}
	return strings.Join(icons, " ")
}

// TypeLabel returns the short column label for a subject type.
func TypeLabel(t model.SubjectType) string {
	switch t {
	case model.SubjectPullRequest:
		return "PR"
	case model.SubjectIssue:
		return "Issue"
	}
	return "Other"
}
