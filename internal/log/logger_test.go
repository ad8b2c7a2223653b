package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestVerbosityLevels(t *testing.T) {
	tests := []struct {
		level   int
		isInfo  bool
		isDebug bool
		isTrace bool
	}{
		{LevelQuiet, false, false, false},
		{LevelInfo, true, false, false},
		{LevelDebug, true, true, false},
		{LevelTrace, true, true, true},
	}

	var buf bytes.Buffer
	for _, tt := range tests {
		Initialize(tt.level, &buf)

		if Verbosity() != tt.level {
			t.Errorf("Verbosity() = %d, want %d", Verbosity(), tt.level)
		}
		if IsInfo() != tt.isInfo {
			t.Errorf("at level %d: IsInfo() = %v, want %v", tt.level, IsInfo(), tt.isInfo)
		}
		if IsDebug() != tt.isDebug {
			t.Errorf("at level %d: IsDebug() = %v, want %v", tt.level, IsDebug(), tt.isDebug)
		}
		if IsTrace() != tt.isTrace {
			t.Errorf("at level %d: IsTrace() = %v, want %v", tt.level, IsTrace(), tt.isTrace)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  []string
		skip  []string
	}{
		{name: "quiet", level: LevelQuiet, want: []string{"warned", "failed"}, skip: []string{"synced", "fetching", "payload"}},
		{name: "info", level: LevelInfo, want: []string{"synced", "warned"}, skip: []string{"fetching", "payload"}},
		{name: "debug", level: LevelDebug, want: []string{"synced", "fetching"}, skip: []string{"payload"}},
		{name: "trace", level: LevelTrace, want: []string{"synced", "fetching", "payload"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Initialize(tt.level, &buf)
			defer Initialize(LevelQuiet, &bytes.Buffer{})

			Info("synced")
			Debug("fetching")
			Trace("payload")
			Warn("warned")
			Error("failed")

			got := buf.String()
			for _, msg := range tt.want {
				if !strings.Contains(got, msg) {
					t.Errorf("output missing %q:\n%s", msg, got)
				}
			}
			for _, msg := range tt.skip {
				if strings.Contains(got, msg) {
					t.Errorf("output contains %q:\n%s", msg, got)
				}
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)
	defer Initialize(LevelQuiet, &bytes.Buffer{})

	Progress("Syncing %d%%", 50)
	ProgressDone()
	if got := buf.String(); got != "\rSyncing 50% done\n" {
		t.Errorf("output = %q", got)
	}

	buf.Reset()
	Progress("Syncing")
	ProgressClear()
	ProgressDone()
	if got := buf.String(); got != "\rSyncing\r\033[K" {
		t.Errorf("output = %q", got)
	}
}

func TestProgressHiddenWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelQuiet, &buf)

	Progress("Syncing")
	ProgressDone()
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}

func TestRecordBreaksProgressLine(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)
	defer Initialize(LevelQuiet, &bytes.Buffer{})

	Progress("Syncing")
	Logger().Warn("sync pass failed")
	ProgressDone()

	got := buf.String()
	if !strings.HasPrefix(got, "\rSyncing\n") {
		t.Errorf("output = %q, want progress line terminated before the record", got)
	}
	if strings.Contains(got, "done") {
		t.Errorf("output = %q, want no done suffix after the line was broken", got)
	}
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	Initialize(LevelInfo, &first)
	defer Initialize(LevelQuiet, &bytes.Buffer{})

	Info("message 1")
	SetOutput(&second)
	Info("message 2")

	if !strings.Contains(first.String(), "message 1") || strings.Contains(first.String(), "message 2") {
		t.Errorf("first buffer = %q", first.String())
	}
	if !strings.Contains(second.String(), "message 2") {
		t.Errorf("second buffer = %q", second.String())
	}
}

func TestInitializeJSON(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf, FormatJSON)
	defer Initialize(LevelQuiet, &bytes.Buffer{})

	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-0123456789ab")
	Logger().Info("sync pass complete", Pass(id), Thread("42"), "pages", 2)

	out := buf.String()
	for _, want := range []string{`"pages":2`, `"pass":"6f1c2d3e-4a5b-4c6d-8e7f-0123456789ab"`, `"thread":"42"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON output = %q, missing %s", out, want)
		}
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)
	defer Initialize(LevelQuiet, &bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Progress("Syncing")
			Info("tick")
			ProgressClear()
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "msg=tick"); got != 8 {
		t.Errorf("logged %d records, want 8", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
