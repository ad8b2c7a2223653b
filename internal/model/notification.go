// Package model contains domain types for the ghinbox application.
// These types are independent of any external GitHub library.
package model

import (
	"strings"
	"time"
)

// Reason represents why the user received a notification.
// See: https://docs.github.com/en/rest/activity/notifications
type Reason string

const (
	ReasonMention         Reason = "mention"
	ReasonAssign          Reason = "assign"
	ReasonReviewRequested Reason = "review_requested"
	ReasonSubscribed      Reason = "subscribed"
	ReasonAuthor          Reason = "author"
	ReasonComment         Reason = "comment"
	ReasonTeamMention     Reason = "team_mention"
	ReasonStateChange     Reason = "state_change"

	// ReasonOther collects every upstream reason without its own weight
	// (ci_activity, manual, security_alert, invitation, ...).
	ReasonOther Reason = "other"
)

// AllReasons contains all valid reasons.
// This is the single source of truth for valid reason values.
var AllReasons = []Reason{
	ReasonReviewRequested,
	ReasonAssign,
	ReasonMention,
	ReasonAuthor,
	ReasonTeamMention,
	ReasonComment,
	ReasonStateChange,
	ReasonOther,
	ReasonSubscribed,
}

// ParseReason maps an upstream reason string onto a known Reason.
// Unknown values become ReasonOther.
func ParseReason(s string) Reason {
	r := Reason(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllReasons {
		if r == known {
			return r
		}
	}
	return ReasonOther
}

// ReasonsString returns a comma-separated string of all valid reasons.
func ReasonsString() string {
	reasons := make([]string, len(AllReasons))
	for i, r := range AllReasons {
		reasons[i] = string(r)
	}
	return strings.Join(reasons, ", ")
}

// SubjectType represents the type of notification subject
type SubjectType string

const (
	SubjectIssue       SubjectType = "Issue"
	SubjectPullRequest SubjectType = "PullRequest"
	SubjectOther       SubjectType = "Other"
)

// ParseSubjectType maps an upstream subject type onto a SubjectType.
// Releases, discussions, commits and the rest collapse to SubjectOther.
func ParseSubjectType(s string) SubjectType {
	switch SubjectType(s) {
	case SubjectIssue:
		return SubjectIssue
	case SubjectPullRequest:
		return SubjectPullRequest
	default:
		return SubjectOther
	}
}

// FeedItem is one element of the upstream notification feed.
type FeedItem struct {
	ID         string     `json:"id"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Reason     Reason     `json:"reason"`
	Subject    Subject    `json:"subject"`
	Repository Repository `json:"repository"`
}

// Repository represents a GitHub repository
type Repository struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url,omitempty"`
}

// Subject represents the notification subject (issue, PR, etc.)
type Subject struct {
	Title string      `json:"title"`
	URL   string      `json:"url"`
	Type  SubjectType `json:"type"`
}
