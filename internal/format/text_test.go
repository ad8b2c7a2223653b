package format

import (
	"testing"
)

func TestStripAnsi(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no ansi", "hello", "hello"},
		{"single color", "\x1b[31mred\x1b[0m", "red"},
		{"multiple colors", "\x1b[31mred\x1b[0m \x1b[32mgreen\x1b[0m", "red green"},
		{"complex", "\x1b[1;31;40mbold red on black\x1b[0m", "bold red on black"},
		{"hyperlink", Hyperlink("https://github.com", "gh"), "gh"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripAnsi(tt.input)
			if got != tt.expected {
				t.Errorf("StripAnsi(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"with ansi", "\x1b[31mred\x1b[0m", 3},
		{"wide chars", "日本語", 6},
		{"hot icon", HotIcon, 2},
		{"hyperlink", Hyperlink("https://example.com/a", "abc"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Width(tt.input)
			if got != tt.expected {
				t.Errorf("Width(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"truncate ascii", "hello world", 8, "hello w" + Ellipsis},
		{"truncate wide", "日本語", 4, "日" + Ellipsis},
		{"zero width", "hello", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.width)
			if got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"pads", "hi", 5, "hi   "},
		{"truncates", "hello world", 6, "hello" + Ellipsis},
		{"exact", "hello", 5, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.input, tt.width)
			if got != tt.expected {
				t.Errorf("Fit(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"no padding needed", "hello", 5, "hello"},
		{"add padding", "hi", 5, "hi   "},
		{"already exceeds", "hello", 3, "hello"},
		{"with ansi", "\x1b[31mred\x1b[0m", 5, "\x1b[31mred\x1b[0m  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadRight(tt.input, tt.width)
			if got != tt.expected {
				t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestHyperlink(t *testing.T) {
	if got := Hyperlink("", "plain"); got != "plain" {
		t.Errorf("Hyperlink(\"\", plain) = %q, want plain", got)
	}
	want := "\x1b]8;;https://github.com/a/b\x1b\\a/b\x1b]8;;\x1b\\"
	if got := Hyperlink("https://github.com/a/b", "a/b"); got != want {
		t.Errorf("Hyperlink() = %q, want %q", got, want)
	}
}
