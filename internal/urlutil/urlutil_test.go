package urlutil

import "testing"

func TestWebURL(t *testing.T) {
	const repo = "https://github.com/acme/api"

	tests := []struct {
		name   string
		apiURL string
		want   string
	}{
		{
			name:   "pull request",
			apiURL: "https://api.github.com/repos/acme/api/pulls/42",
			want:   "https://github.com/acme/api/pull/42",
		},
		{
			name:   "issue",
			apiURL: "https://api.github.com/repos/acme/api/issues/7",
			want:   "https://github.com/acme/api/issues/7",
		},
		{
			name:   "commit",
			apiURL: "https://api.github.com/repos/acme/api/commits/abc123",
			want:   "https://github.com/acme/api/commit/abc123",
		},
		{
			name:   "release falls back to repository",
			apiURL: "https://api.github.com/repos/acme/api/releases/99",
			want:   repo,
		},
		{
			name:   "enterprise",
			apiURL: "https://ghe.example.com/api/v3/repos/acme/api/pulls/5",
			want:   "https://ghe.example.com/acme/api/pull/5",
		},
		{
			name:   "empty uses repository",
			apiURL: "",
			want:   repo,
		},
		{
			name:   "not an api url",
			apiURL: "https://example.com/something",
			want:   "https://example.com/something",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WebURL(tt.apiURL, repo); got != tt.want {
				t.Errorf("WebURL(%q) = %q, want %q", tt.apiURL, got, tt.want)
			}
		})
	}
}
