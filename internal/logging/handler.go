package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// defaultKeyOrder fixes the position of well-known keys in every log line so
// lines from different components stay grep- and eyeball-friendly.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"update_id",
	"user_id",
	"chat_id",
	"username",
	"handler",
	"state",
	"action",
	"cb_key",
	"tier",
	"addon",
	"addons",
	"total",
	"order_id",
	"job_id",
	"cv_id",
	"outcome",
	"duration_ms",
	"payload",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"attempts",
}

type handlerConfig struct {
	level    slog.Leveler
	out      *lineWriter
	format   logFormat
	keyOrder []string
}

// orderedHandler is a slog.Handler that renders records as single KV or JSON
// lines with a stable key ordering and context-derived correlation fields.
type orderedHandler struct {
	cfg   handlerConfig
	attrs []slog.Attr
}

func newOrderedHandler(cfg handlerConfig) *orderedHandler {
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &orderedHandler{cfg: cfg}
}

func (h *orderedHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

func (h *orderedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup flattens groups; grouped output is not used in this codebase.
func (h *orderedHandler) WithGroup(string) slog.Handler { return h }

func (h *orderedHandler) Handle(ctx context.Context, rec slog.Record) error {
	fields := make(map[string]slog.Value, rec.NumAttrs()+len(h.attrs)+8)
	order := make([]string, 0, rec.NumAttrs()+len(h.attrs)+8)

	put := func(key string, val slog.Value) {
		if _, seen := fields[key]; !seen {
			order = append(order, key)
		}
		fields[key] = val
	}

	put("ts", slog.StringValue(rec.Time.Format(timeFormatMillis)))
	put("level", slog.StringValue(levelName(rec.Level)))

	for _, a := range h.attrs {
		put(a.Key, a.Value.Resolve())
	}
	if rec.Message != "" {
		if _, ok := fields["event"]; !ok {
			put("event", slog.StringValue(rec.Message))
		}
	}
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key != "" {
			put(a.Key, a.Value.Resolve())
		}
		return true
	})

	if rid := RIDFrom(ctx); rid != "" {
		put("rid", slog.StringValue(rid))
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		put("update_id", slog.IntValue(id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		put("user_id", slog.Int64Value(id))
	}
	if id := ChatIDFrom(ctx); id != 0 {
		put("chat_id", slog.Int64Value(id))
	}
	if hn := HandlerFrom(ctx); hn != "" {
		put("handler", slog.StringValue(hn))
	}

	keys := h.orderKeys(order, fields)
	var b strings.Builder
	if h.cfg.format == formatJSON {
		renderJSON(&b, keys, fields)
	} else {
		renderKV(&b, keys, fields)
	}
	b.WriteByte('\n')
	if h.cfg.out == nil {
		return nil
	}
	return h.cfg.out.Write([]byte(b.String()))
}

// orderKeys places well-known keys first in their fixed order, then the rest
// alphabetically.
func (h *orderedHandler) orderKeys(present []string, fields map[string]slog.Value) []string {
	ranked := make(map[string]int, len(h.cfg.keyOrder))
	for i, k := range h.cfg.keyOrder {
		ranked[k] = i
	}
	out := make([]string, 0, len(present))
	var tail []string
	for _, k := range h.cfg.keyOrder {
		if _, ok := fields[k]; ok {
			out = append(out, k)
		}
	}
	for _, k := range present {
		if _, known := ranked[k]; !known {
			tail = append(tail, k)
		}
	}
	sort.Strings(tail)
	return append(out, tail...)
}

func renderKV(b *strings.Builder, keys []string, fields map[string]slog.Value) {
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(fields[k]))
	}
}

func renderJSON(b *strings.Builder, keys []string, fields map[string]slog.Value) {
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		b.Write(name)
		b.WriteByte(':')
		b.Write(jsonValue(fields[k]))
	}
	b.WriteByte('}')
}

func kvValue(v slog.Value) string {
	s := valueString(v)
	if s == "" || strings.ContainsAny(s, " =\"") {
		quoted, _ := json.Marshal(s)
		return string(quoted)
	}
	return s
}

func jsonValue(v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindInt64:
		return []byte(fmt.Sprintf("%d", v.Int64()))
	case slog.KindUint64:
		return []byte(fmt.Sprintf("%d", v.Uint64()))
	case slog.KindFloat64:
		out, _ := json.Marshal(v.Float64())
		return out
	case slog.KindBool:
		if v.Bool() {
			return []byte("true")
		}
		return []byte("false")
	default:
		out, _ := json.Marshal(valueString(v))
		return out
	}
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(timeFormatMillis)
	default:
		return v.String()
	}
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// RoundMS rounds a duration to the nearest millisecond for compact logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}
