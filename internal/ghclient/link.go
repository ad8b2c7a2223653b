package ghclient

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// LinkParseError reports a Link header that could not be parsed. A bad
// header aborts the sync pass instead of silently paginating wrong.
type LinkParseError struct {
	Header string
	Reason string
}

func (e *LinkParseError) Error() string {
	return fmt.Sprintf("malformed link header %q: %s", e.Header, e.Reason)
}

// ParseLinks parses an RFC 8288 Link header into rel -> page number.
// An empty header yields an empty map. Every entry must carry a rel and a
// URL with a positive integer page query parameter.
func ParseLinks(header string) (map[string]int, error) {
	links := make(map[string]int)
	if strings.TrimSpace(header) == "" {
		return links, nil
	}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &LinkParseError{Header: header, Reason: "empty link entry"}
		}

		segments := strings.Split(part, ";")
		target := strings.TrimSpace(segments[0])
		if len(target) < 2 || target[0] != '<' || target[len(target)-1] != '>' {
			return nil, &LinkParseError{Header: header, Reason: fmt.Sprintf("link target %q is not enclosed in <>", target)}
		}

		u, err := url.Parse(target[1 : len(target)-1])
		if err != nil {
			return nil, &LinkParseError{Header: header, Reason: fmt.Sprintf("invalid link url: %v", err)}
		}

		rel := ""
		for _, param := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok {
				return nil, &LinkParseError{Header: header, Reason: fmt.Sprintf("link parameter %q has no value", param)}
			}
			if strings.TrimSpace(key) == "rel" {
				rel = strings.Trim(strings.TrimSpace(value), `"`)
			}
		}
		if rel == "" {
			return nil, &LinkParseError{Header: header, Reason: fmt.Sprintf("link %q has no rel", target)}
		}

		pageStr := u.Query().Get("page")
		if pageStr == "" {
			return nil, &LinkParseError{Header: header, Reason: fmt.Sprintf("rel=%q link has no page parameter", rel)}
		}
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return nil, &LinkParseError{Header: header, Reason: fmt.Sprintf("rel=%q link has invalid page %q", rel, pageStr)}
		}

		// A Link value may list several space-separated relation types.
		for _, r := range strings.Fields(rel) {
			links[r] = page
		}
	}

	return links, nil
}

// ParseNextPage returns the rel="next" page number, or 0 when there is none.
func ParseNextPage(header string) (int, error) {
	links, err := ParseLinks(header)
	if err != nil {
		return 0, err
	}
	return links["next"], nil
}
