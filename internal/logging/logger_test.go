package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf})

	l.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "[info]") {
		t.Errorf("expected level tag in output, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf})

	l.WithComponent("session").Info("loaded")

	out := buf.String()
	if !strings.Contains(out, "session:") {
		t.Errorf("expected component header, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	l.SetLevel(LevelDebug)
	l.Info("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Error("expected message after lowering level")
	}
}

func TestSetDefaultSurvivesLazyInit(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(Config{Level: LevelDebug, Output: &buf, JSON: true}))

	// First package-level use after SetDefault must not re-create the
	// default from stock config.
	WithComponent("serve").Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("configured default logger was replaced, buffer=%q", buf.String())
	}
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, JSON: true})

	l.Info("structured", "n", 1)
	if !strings.Contains(buf.String(), `"msg":"structured"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
