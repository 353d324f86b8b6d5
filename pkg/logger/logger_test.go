package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithQuoteID(ctx, "quote-9")

	log.Error(ctx, "save failed", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-123"`)) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"quote_id":"quote-9"`)) {
		t.Fatalf("expected quote_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "pricing at cost")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "pricing at cost")
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("stack should be omitted when warn stack disabled")
	}
}

func TestLoggerLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	log.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry should be filtered at info level: %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestLoggerStampsEnvironmentAndScope(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Environment: "dev", Format: FormatJSON, Output: buf})

	ctx := log.WithPricingScope(context.Background(), "community")
	log.Info(ctx, "price resolved")

	for _, want := range []string{`"service":"api"`, `"env":"dev"`, `"pricing_scope":"community"`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in entry=%s", want, buf.String())
		}
	}
}

func TestLoggerWithFieldsIsOrdered(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{"to": "sent", "from": "draft", "event": "send"})
	log.Info(ctx, "quote transitioned")

	entry := buf.String()
	event, from, to := strings.Index(entry, `"event"`), strings.Index(entry, `"from"`), strings.Index(entry, `"to"`)
	if event < 0 || !(event < from && from < to) {
		t.Fatalf("expected fields in key order; entry=%s", entry)
	}
}

func TestLoggerConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Format: FormatConsole, Output: buf})
	log.Info(context.Background(), "hello")
	if bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte("{")) {
		t.Fatalf("console format should not emit JSON: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected message in console output: %s", buf.String())
	}
}
