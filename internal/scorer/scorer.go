package scorer

import (
	"time"

	"github.com/spiffcs/ghinbox/internal/model"
)

// Evaluation is the derived, non-persisted annotation of a thread.
type Evaluation struct {
	Score  int           `json:"score"`
	Badges []model.Badge `json:"badges,omitempty"`
}

// Score sums the weight of every event in order. An event repeating the
// previous event's reason earns only the degraded repeat weight, so a burst
// of identical pings scores barely more than one. An empty history scores 0.
func Score(reasons []model.ReasonEvent, p Policy) int {
	total := 0
	var prev model.Reason
	for i, ev := range reasons {
		if i > 0 && ev.Reason == prev {
			total += p.RepeatWeight(ev.Reason)
		} else {
			total += p.Weight(ev.Reason)
		}
		prev = ev.Reason
	}
	return total
}

// Badges derives the badge set for a reason history as of now.
// Badges are independent of each other and of the score.
func Badges(reasons []model.ReasonEvent, p Policy, now time.Time) []model.Badge {
	if len(reasons) == 0 {
		return nil
	}

	var badges []model.Badge
	if isHot(reasons, p, now) {
		badges = append(badges, model.BadgeHot)
	}
	if len(reasons) > p.CommentsOver {
		badges = append(badges, model.BadgeComments)
	}
	if isOld(reasons, p, now) {
		badges = append(badges, model.BadgeOld)
	}
	return badges
}

// Evaluate scores a thread and derives its badges.
func Evaluate(t model.Thread, p Policy, now time.Time) Evaluation {
	return Evaluation{
		Score:  Score(t.Reasons, p),
		Badges: Badges(t.Reasons, p, now),
	}
}

func isHot(reasons []model.ReasonEvent, p Policy, now time.Time) bool {
	n := p.HotMinReasons
	if n < 1 || len(reasons) < n {
		return false
	}
	newest := reasons[len(reasons)-1].Time
	if now.Sub(newest) >= p.HotRecency {
		return false
	}
	nth := reasons[len(reasons)-n].Time
	return newest.Sub(nth) <= p.HotWindow
}

func isOld(reasons []model.ReasonEvent, p Policy, now time.Time) bool {
	hasReview := false
	for _, ev := range reasons {
		if ev.Reason == model.ReasonReviewRequested {
			hasReview = true
			break
		}
	}
	if !hasReview {
		return false
	}
	newest := reasons[len(reasons)-1].Time
	return now.Sub(newest) > p.OldAfter
}

// HasBadge reports whether b is present in badges.
func HasBadge(badges []model.Badge, b model.Badge) bool {
	for _, x := range badges {
		if x == b {
			return true
		}
	}
	return false
}
