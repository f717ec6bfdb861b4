package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/oggyb/matchmaker/internal/config"
)

func initBuffered(t *testing.T, c Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	c.Output = &buf
	Init(&c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })
	return &buf
}

func TestLogger_TextFormat(t *testing.T) {
	out := initBuffered(t, Config{Level: "debug", Format: FormatText, Component: "test"})

	Info("new match", "match_id", "abc")

	s := out.String()
	if !strings.Contains(s, "new match") {
		t.Errorf("expected message, got: %s", s)
	}
	if !strings.Contains(s, "component=test") {
		t.Errorf("expected component field, got: %s", s)
	}
	if !strings.Contains(s, "match_id=abc") {
		t.Errorf("expected structured field, got: %s", s)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := initBuffered(t, Config{Level: "info", Format: FormatJSON, Component: "json_test"})

	Info("json log", "foo", "bar")

	s := out.String()
	if !strings.Contains(s, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", s)
	}
	if !strings.Contains(s, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", s)
	}
	if !strings.Contains(s, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", s)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := initBuffered(t, Config{Level: "error", Format: FormatText})

	Info("should not appear")
	Error("should appear")

	s := out.String()
	if strings.Contains(s, "should not appear") {
		t.Errorf("info log should not appear, got: %s", s)
	}
	if !strings.Contains(s, "should appear") {
		t.Errorf("error log should appear, got: %s", s)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := initBuffered(t, Config{Level: "debug", Format: FormatText})

	With("user_id", "u-1").Info("processing like")

	if !strings.Contains(out.String(), "user_id=u-1") {
		t.Errorf("expected user_id field, got: %s", out.String())
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	// InitFromConfig writes to stdout; swap it for a pipe.
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	cfg := config.New()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	cfg.Log.Component = "cfg_test"
	InitFromConfig(cfg)
	Debug("cfg-based log")

	_ = w.Close()
	os.Stdout = old
	Init(&Config{Level: "info", Format: FormatText})

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	if !strings.Contains(buf.String(), `"msg":"cfg-based log"`) {
		t.Errorf("expected config-based JSON log, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"component":"cfg_test"`) {
		t.Errorf("expected component from config, got: %s", buf.String())
	}
}

func TestLogger_FromContext(t *testing.T) {
	out := initBuffered(t, Config{Level: "info", Format: FormatText})

	FromContext(context.Background()).Info("global fallback")
	if !strings.Contains(out.String(), "global fallback") {
		t.Errorf("expected global logger without request logger, got: %s", out.String())
	}

	ctx := IntoContext(context.Background(), With("method", "/matchmaker.v1.MatchService/Unmatch"))
	FromContext(ctx).Info("unmatched")
	if !strings.Contains(out.String(), "method=/matchmaker.v1.MatchService/Unmatch") {
		t.Errorf("expected request logger fields, got: %s", out.String())
	}
}

func TestLogger_DiscardIsSilent(t *testing.T) {
	Discard().Error("nothing")
}
