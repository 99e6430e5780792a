package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("hidden debug line")
	Info("visible info line", "id", "abc")
	Error("visible error line", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden debug line") {
		t.Fatalf("debug line should be filtered at INFO: %s", out)
	}
	if !strings.Contains(out, "visible info line") || !strings.Contains(out, "abc") {
		t.Fatalf("info line missing: %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("error value missing: %s", out)
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("debug line missing at DEBUG: %s", buf.String())
	}
}
