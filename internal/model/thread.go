package model

import (
	"fmt"
	"time"
)

// Status is the local workflow state of a thread.
type Status string

const (
	// StatusQueued is an unread thread waiting for attention.
	StatusQueued Status = "queued"
	// StatusStaged is a thread the user has looked at but kept around.
	StatusStaged Status = "staged"
	// StatusClosed is a thread that was marked as read upstream.
	StatusClosed Status = "closed"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusQueued, StatusStaged, StatusClosed}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if Status(s) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (must be queued, staged, or closed)", s)
}

// Badge is a derived tag summarizing a thread's activity pattern.
type Badge string

const (
	BadgeHot      Badge = "hot"
	BadgeComments Badge = "comments"
	BadgeOld      Badge = "old"
)

// ReasonEvent is one occurrence of GitHub notifying the user about a thread.
type ReasonEvent struct {
	Reason Reason    `json:"reason"`
	Time   time.Time `json:"time"`
}

// Thread is the persisted record for one notification thread.
// Reasons are kept in arrival order and are never reordered or deduplicated.
type Thread struct {
	ID         string        `json:"id"`
	Status     Status        `json:"status"`
	Reasons    []ReasonEvent `json:"reasons"`
	Type       SubjectType   `json:"type"`
	Name       string        `json:"name"`
	URL        string        `json:"url"`
	Repository string        `json:"repository"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewThread seeds a queued thread from its first feed observation.
func NewThread(item FeedItem) Thread {
	return Thread{
		ID:         item.ID,
		Status:     StatusQueued,
		Reasons:    []ReasonEvent{{Reason: item.Reason, Time: item.UpdatedAt}},
		Type:       item.Subject.Type,
		Name:       item.Subject.Title,
		URL:        item.Subject.URL,
		Repository: item.Repository.Name,
		UpdatedAt:  item.UpdatedAt,
	}
}

// LastReason returns the most recently observed reason event.
func (t Thread) LastReason() (ReasonEvent, bool) {
	if len(t.Reasons) == 0 {
		return ReasonEvent{}, false
	}
	return t.Reasons[len(t.Reasons)-1], true
}

// HasReason reports whether any recorded event carries one of the given reasons.
func (t Thread) HasReason(reasons ...Reason) bool {
	for _, ev := range t.Reasons {
		for _, r := range reasons {
			if ev.Reason == r {
				return true
			}
		}
	}
	return false
}

// Clone returns a copy whose reason slice does not alias the receiver's.
func (t Thread) Clone() Thread {
	c := t
	c.Reasons = append([]ReasonEvent(nil), t.Reasons...)
	return c
}
