package logging

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*orderedHandler, *lineWriter) {
	w := newLineWriter([]io.Writer{buf}, 256)
	h := newOrderedHandler(handlerConfig{
		level:  slog.LevelInfo,
		out:    w,
		format: format,
	})
	return h, w
}

func TestOrderedHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	h, w := newTestHandler(buf, formatKV)

	ctx := WithRID(nil, "7:9:42")
	ctx = WithUpdateMeta(ctx, 7, 42, 9)

	log := slog.New(h).With("component", "engine")
	log.LogAttrs(ctx, slog.LevelInfo, "order.confirmed",
		slog.String("status", "ok"),
		slog.Int64("order_id", 3),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=engine", "event=order.confirmed", "status=ok", "rid="}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count %d: %s", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(line, "order_id=3") {
		t.Fatalf("order_id missing: %s", line)
	}
}

func TestOrderedHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	h, w := newTestHandler(buf, formatJSON)

	ctx := WithRID(nil, "1:2:3")
	log := slog.New(h).With("component", "repo.orders")
	log.LogAttrs(ctx, slog.LevelError, "order.create",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"repo.orders"`, `"event":"order.create"`, `"status":"fail"`, `"rid":"1:2:3"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestOrderedHandlerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	h, w := newTestHandler(buf, formatKV)
	log := slog.New(h)
	log.Debug("invisible")
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("debug line should have been filtered, got %q", buf.String())
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "hello\x00world\x1b[0m"
	got := Sanitize(in)
	if got != "helloworld[0m" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
	if SanitizeLimit("abcdef", 3) != "abc" {
		t.Fatalf("limit not applied")
	}
}
