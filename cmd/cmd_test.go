package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scheduler"
	"github.com/spiffcs/ghinbox/internal/view"
)

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Use != "ghinbox" {
		t.Errorf("expected Use to be 'ghinbox', got %q", cmd.Use)
	}

	want := []string{"list", "sync", "read", "stage", "restore", "watch", "config", "cache", "auth", "ratelimit", "history", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == cmd {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"status", "filter", "sort", "desc", "search", "page", "format", "sync"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("root command missing --%s", flag)
		}
	}
	if cmd.PersistentFlags().Lookup("log-format") == nil {
		t.Error("root command missing --log-format")
	}
}

func TestNewCmdList(t *testing.T) {
	cmd := NewCmdList(NewOptions())
	if cmd.Use != "list" {
		t.Errorf("expected Use to be 'list', got %q", cmd.Use)
	}
	if got := cmd.Flags().Lookup("sync").DefValue; got != "true" {
		t.Errorf("--sync default = %q, want true", got)
	}
}

func TestNewCmdWatch(t *testing.T) {
	cmd := NewCmdWatch(NewOptions())
	for _, flag := range []string{"tui", "metrics-addr", "status", "filter"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("watch missing --%s", flag)
		}
	}
}

func TestActionCommandsRequireIDs(t *testing.T) {
	for _, cmd := range []interface {
		SetArgs([]string)
		Execute() error
	}{NewCmdRead(), NewCmdStage(), NewCmdRestore()} {
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err == nil {
			t.Error("Execute() without ids = nil, want error")
		}
	}
}

func TestOptionsQuery(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Options
		want    view.Query
		wantErr bool
	}{
		{
			name: "defaults",
			opts: NewOptions(),
			want: view.DefaultQuery(),
		},
		{
			name: "explicit",
			opts: NewOptions(
				WithStatus("staged"),
				WithFilter("review_requested"),
				WithSort("updated", false),
				WithSearch("retry"),
				WithPage(3),
			),
			want: view.Query{
				Status: model.StatusStaged,
				Filter: view.FilterReviewRequested,
				Sort:   view.SortUpdated,
				Search: "retry",
				Page:   3,
			},
		},
		{name: "bad status", opts: NewOptions(WithStatus("archived")), wantErr: true},
		{name: "bad filter", opts: NewOptions(WithFilter("mine")), wantErr: true},
		{name: "bad sort", opts: NewOptions(WithSort("priority", true)), wantErr: true},
		{name: "bad page", opts: NewOptions(WithPage(0)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Query()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Query() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Query() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTUIFlag(t *testing.T) {
	opts := NewOptions()
	f := newTUIFlag(opts)
	if f.String() != "auto" {
		t.Errorf("String() = %q, want auto", f.String())
	}

	if err := f.Set("false"); err != nil {
		t.Fatalf("Set(false) error = %v", err)
	}
	if opts.TUI == nil || *opts.TUI || shouldUseTUI(opts) {
		t.Errorf("Set(false) left TUI = %v", opts.TUI)
	}

	if err := f.Set("true"); err != nil {
		t.Fatalf("Set(true) error = %v", err)
	}
	if !shouldUseTUI(opts) {
		t.Error("shouldUseTUI() = false after Set(true)")
	}

	opts.Verbosity = 1
	if shouldUseTUI(opts) {
		t.Error("shouldUseTUI() = true with verbose logging")
	}

	if err := f.Set("maybe"); err == nil {
		t.Error("Set(maybe) = nil, want error")
	}
}

func TestMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	scheduler.NewMetrics(reg)
	registerBuildInfo(reg)

	var status scheduler.Status
	srv := newMetricsServer(":0", reg, func() scheduler.Status { return status })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ghinbox_sync_consecutive_failures") {
		t.Errorf("/metrics missing scheduler gauge:\n%s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ghinbox_build_info{") {
		t.Errorf("/metrics missing build info:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}

	status.LastError = errors.New("boom")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/healthz status = %d, want 503 after a failed pass", rec.Code)
	}
}

func TestConfigSetLocal(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cmd := NewCmdConfig()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"set", "--local", "sync.interval", "30s"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	data, err := os.ReadFile(".ghinbox.yaml")
	if err != nil {
		t.Fatalf("local config not written: %v", err)
	}
	if !strings.Contains(string(data), "interval: 30s") {
		t.Errorf("local config = %q, want sync interval", data)
	}

	cmd = NewCmdConfig()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"set", "--local", "sync.interval", "never"})
	if err := cmd.Execute(); err == nil {
		t.Error("config set with a bad duration = nil, want error")
	}
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2026-01-01")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "default", args: []string{}, want: []string{"ghinbox 1.0.0", "abc123", "2026-01-01", runtime.Version()}},
		{name: "short", args: []string{"--short"}, want: []string{"1.0.0\n"}},
		{name: "json", args: []string{"--json"}, want: []string{`"version": "1.0.0"`, `"commit": "abc123"`, `"platform": "` + runtime.GOOS}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCmdVersion()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("version output missing %q:\n%s", want, out.String())
				}
			}
		})
	}

	cmd := NewCmdVersion()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--short", "--json"})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute(--short --json) error = nil, want error")
	}
}

func TestReadToken(t *testing.T) {
	got, err := readToken(strings.NewReader("ghp_secret\nignored\n"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("readToken() error = %v", err)
	}
	if strings.TrimSpace(got) != "ghp_secret" {
		t.Errorf("readToken() = %q, want ghp_secret", got)
	}

	got, err = readToken(strings.NewReader("no-newline"), &bytes.Buffer{})
	if err != nil || got != "no-newline" {
		t.Errorf("readToken() = %q, %v; want no-newline", got, err)
	}
}

func TestPrintRate(t *testing.T) {
	var buf bytes.Buffer
	printRate(&buf, "Core API:", &gh.Rate{
		Limit:     5000,
		Remaining: 4200,
		Reset:     gh.Timestamp{Time: time.Now().Add(-time.Minute)},
	})
	if got := buf.String(); !strings.Contains(got, "4200/5000 remaining (resets in 0s)") {
		t.Errorf("printRate() = %q", got)
	}

	buf.Reset()
	printRate(&buf, "Search API:", nil)
	if buf.Len() != 0 {
		t.Errorf("printRate(nil) = %q, want nothing", buf.String())
	}
}
