package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/urlutil"
)

// DefaultPerPage is the page size requested from the notifications feed.
const DefaultPerPage = 50

// PageRequest identifies one page of the notifications feed.
type PageRequest struct {
	Page    int
	PerPage int
	// IfModifiedSince is the conditional fetch token from a previous
	// response's Last-Modified header. Empty sends an unconditional request.
	IfModifiedSince string
}

// Page is one response from the notifications feed.
type Page struct {
	// NotModified is set when the server answered 304; Items is nil.
	NotModified  bool
	Items        []model.FeedItem
	LastModified string
	// NextPage is the rel="next" page number, 0 on the last page.
	NextPage int
	// PollInterval is the server's requested minimum polling interval.
	PollInterval time.Duration
}

// FetchPage requests a single page of the authenticated user's notifications.
func (c *Client) FetchPage(ctx context.Context, pr PageRequest) (*Page, error) {
	page := pr.Page
	if page < 1 {
		page = 1
	}
	perPage := pr.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	req, err := c.client.NewRequest(http.MethodGet, fmt.Sprintf("notifications?page=%d&per_page=%d", page, perPage), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build notifications request: %w", err)
	}
	if pr.IfModifiedSince != "" {
		req.Header.Set("If-Modified-Since", pr.IfModifiedSince)
	}

	var notifications []*gh.Notification
	resp, err := c.client.Do(ctx, req, &notifications)
	if resp != nil && resp.StatusCode == http.StatusNotModified {
		log.Trace("notifications not modified", "page", page)
		return &Page{
			NotModified:  true,
			LastModified: resp.Header.Get("Last-Modified"),
			PollInterval: parsePollInterval(resp.Header),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications page %d: %w", page, err)
	}

	next, err := ParseNextPage(resp.Header.Get("Link"))
	if err != nil {
		return nil, err
	}

	items := make([]model.FeedItem, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, convertNotification(n))
	}

	log.Trace("fetched notifications page", "page", page, "items", len(items), "next", next)

	return &Page{
		Items:        items,
		LastModified: resp.Header.Get("Last-Modified"),
		NextPage:     next,
		PollInterval: parsePollInterval(resp.Header),
	}, nil
}

// MarkThreadRead marks a notification thread as read upstream.
func (c *Client) MarkThreadRead(ctx context.Context, id string) error {
	_, err := c.client.Activity.MarkThreadRead(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", id, err)
	}
	return nil
}

func parsePollInterval(h http.Header) time.Duration {
	v := h.Get("X-Poll-Interval")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// convertNotification converts a GitHub API notification to our model type
func convertNotification(n *gh.Notification) model.FeedItem {
	item := model.FeedItem{
		ID:        n.GetID(),
		Reason:    model.ParseReason(n.GetReason()),
		UpdatedAt: n.GetUpdatedAt().Time,
	}

	if repo := n.GetRepository(); repo != nil {
		item.Repository = model.Repository{
			Name:    repo.GetFullName(),
			HTMLURL: repo.GetHTMLURL(),
		}
		if item.Repository.Name == "" {
			item.Repository.Name = repo.GetName()
		}
	}

	if subject := n.GetSubject(); subject != nil {
		item.Subject = model.Subject{
			Title: subject.GetTitle(),
			URL:   urlutil.WebURL(subject.GetURL(), item.Repository.HTMLURL),
			Type:  model.ParseSubjectType(subject.GetType()),
		}
	}

	return item
}
