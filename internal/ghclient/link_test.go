package ghclient

import (
	"errors"
	"testing"
)

func TestParseNextPage(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    int
		wantErr bool
	}{
		{
			name:   "empty header",
			header: "",
			want:   0,
		},
		{
			name:   "next and last",
			header: `<https://api.github.com/notifications?page=2&per_page=50>; rel="next", <https://api.github.com/notifications?page=5&per_page=50>; rel="last"`,
			want:   2,
		},
		{
			name:   "last page has only prev and first",
			header: `<https://api.github.com/notifications?page=4>; rel="prev", <https://api.github.com/notifications?page=1>; rel="first"`,
			want:   0,
		},
		{
			name:   "unquoted rel",
			header: `<https://api.github.com/notifications?page=3>; rel=next`,
			want:   3,
		},
		{
			name:   "extra whitespace",
			header: `  <https://api.github.com/notifications?page=7> ;  rel="next"  `,
			want:   7,
		},
		{
			name:    "missing angle brackets",
			header:  `https://api.github.com/notifications?page=2; rel="next"`,
			wantErr: true,
		},
		{
			name:    "missing rel",
			header:  `<https://api.github.com/notifications?page=2>`,
			wantErr: true,
		},
		{
			name:    "missing page parameter",
			header:  `<https://api.github.com/notifications?per_page=50>; rel="next"`,
			wantErr: true,
		},
		{
			name:    "non numeric page",
			header:  `<https://api.github.com/notifications?page=two>; rel="next"`,
			wantErr: true,
		},
		{
			name:    "zero page",
			header:  `<https://api.github.com/notifications?page=0>; rel="next"`,
			wantErr: true,
		},
		{
			name:    "trailing comma",
			header:  `<https://api.github.com/notifications?page=2>; rel="next",`,
			wantErr: true,
		},
		{
			name:    "parameter without value",
			header:  `<https://api.github.com/notifications?page=2>; rel`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNextPage(tt.header)
			if tt.wantErr {
				var linkErr *LinkParseError
				if !errors.As(err, &linkErr) {
					t.Fatalf("ParseNextPage() error = %v, want *LinkParseError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNextPage() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseNextPage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseLinksAllRels(t *testing.T) {
	links, err := ParseLinks(`<https://x.test/n?page=2>; rel="next", <https://x.test/n?page=9>; rel="last"`)
	if err != nil {
		t.Fatalf("ParseLinks() error: %v", err)
	}
	if links["next"] != 2 || links["last"] != 9 {
		t.Errorf("ParseLinks() = %v, want next=2 last=9", links)
	}
}
