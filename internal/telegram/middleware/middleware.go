// Package middleware provides the shared handler wrappers applied to every
// inbound Telegram update: panic recovery, receipt logging with correlation
// ids, admin gating, and per-user rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/logging"
)

const ctxKey = "logging_ctx"

// Recover catches handler panics so one bad update cannot crash the bot.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logging.Component("tg").LogAttrs(context.Background(), slog.LevelError, "tg.panic",
					slog.Any("err", r),
					slog.String("payload", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// BuildContext constructs (and caches on the tele.Context) a context.Context
// carrying the correlation id and update metadata for downstream logging.
func BuildContext(c tele.Context) context.Context {
	if v := c.Get(ctxKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	upd := c.Update()
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	ctx := logging.WithRID(context.Background(), logging.BuildRID(upd.ID, chatID, userID))
	ctx = logging.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler stores the handler name in the cached logging context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logging.WithHandler(BuildContext(c), handler)
	c.Set(ctxKey, ctx)
	return ctx
}

// Logger logs one receipt line per update and seeds the logging context.
func Logger(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := BuildContext(c)
		attrs := []slog.Attr{slog.String("status", "ok")}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logging.SanitizeLimit(user.Username, 64)))
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logging.SanitizeLimit(t, 256)))
		}
		logging.Debug(ctx, "tg", "update.received", attrs...)
		return next(c)
	}
}

// AdminOptions configures admin-only gating.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnly rejects updates from anyone but the configured admin. The check
// is plain identifier equality; there is no role system.
func AdminOnly(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if opts.AdminID == 0 || sender == nil || sender.ID != opts.AdminID {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// RateLimitOptions configures the per-user message interval.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimit enforces a minimum interval between updates from the same user.
// Callback presses are typically excluded so menu navigation stays snappy.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			upd := c.Update()
			kind := "other"
			switch {
			case upd.Callback != nil:
				kind = "callback"
			case upd.Message != nil:
				kind = "message"
			}
			if _, skip := opts.Exclude[strings.ToLower(kind)]; skip {
				return next(c)
			}

			now := time.Now()
			mu.Lock()
			if last, ok := lastSeen[user.ID]; ok && now.Sub(last) < opts.Interval {
				mu.Unlock()
				logging.Warn(BuildContext(c), "tg", "tg.rate_limit",
					slog.Int64("user_id", user.ID),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen[user.ID] = now
			mu.Unlock()
			return next(c)
		}
	}
}
