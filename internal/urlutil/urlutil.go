// Package urlutil converts GitHub API URLs into browser URLs.
package urlutil

import (
	"net/url"
	"strings"
)

// webKinds maps API path segments to their web counterparts.
var webKinds = map[string]string{
	"pulls":   "pull",
	"issues":  "issues",
	"commits": "commit",
}

// WebURL converts a notification subject's API URL into the page a browser
// should open. Subjects without a web page of their own (releases, check
// suites, discussions) fall back to repoURL. Anything unrecognised is
// returned unchanged.
func WebURL(apiURL, repoURL string) string {
	if apiURL == "" {
		return repoURL
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return apiURL
	}

	// Path format: /repos/owner/repo/pulls/123
	// GitHub Enterprise prefixes it with /api/v3.
	path := strings.TrimPrefix(u.Path, "/api/v3")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "repos" {
		return apiURL
	}

	host := u.Host
	if h, ok := strings.CutPrefix(host, "api."); ok {
		host = h
	}
	web := url.URL{Scheme: u.Scheme, Host: host, Path: "/" + parts[1] + "/" + parts[2]}

	if len(parts) == 5 {
		if kind, ok := webKinds[parts[3]]; ok {
			web.Path += "/" + kind + "/" + parts[4]
			return web.String()
		}
	}
	if repoURL != "" {
		return repoURL
	}
	return web.String()
}
