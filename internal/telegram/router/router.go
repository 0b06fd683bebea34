// Package router binds registered commands, callbacks, and text input to
// telebot endpoints, logging one summary line per handled update.
package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/logging"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
	"github.com/habtamu-tamere/Bot/internal/telegram/middleware"
)

// FSM is the conversation hook the text router consults: when the sender has
// an active flow, text is fed to it instead of command lookup.
type FSM interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
}

// CommandOptions configures command wrapping.
type CommandOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes wraps every registered command with the shared middleware and
// returns the routes to install.
func CommandRoutes(reg *tg.Registry, opts CommandOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, cmd := range reg.Commands() {
		h := cmd.Handler
		h = middleware.Recover(middleware.Logger(h))
		if cmd.AdminOnly {
			h = middleware.AdminOnly(adminOpts)(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: summarized(trimSlash(name), h)})
	}

	logging.Component("tg.wire").Info("tg.wire",
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.CallbackKeys())),
	)
	return routes
}

// CallbackRoute returns the single OnCallback route dispatching through the
// registry by callback key.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := ParseCallback(c.Callback())
		_ = c.Respond()

		h, ok := reg.Callback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			if h == nil {
				return nil
			}
			return summarized("callback.not_found", h)(c)
		}
		return summarized("callback."+key, h)(c)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.Recover(middleware.Logger(handler)),
	}
}

// TextRoutes returns routes for plain text and shared contacts. Active
// conversations win over command lookup; leftover text goes to the fallback.
func TextRoutes(fsm FSM, reg *tg.Registry) []tg.Route {
	textHandler := func(c tele.Context) error {
		if fsm != nil && fsm.InProgress(c.Sender().ID) {
			return summarized("fsm", fsm.HandleText)(c)
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return summarized(trimSlash(key), cmd.Handler)(c)
			}
			if fb := reg.TextFallback(); fb != nil {
				return summarized("fallback", fb)(c)
			}
		}
		return nil
	}

	contactHandler := func(c tele.Context) error {
		if fsm != nil && fsm.InProgress(c.Sender().ID) {
			return summarized("fsm_contact", fsm.HandleText)(c)
		}
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: middleware.Recover(middleware.Logger(textHandler))},
		{Endpoint: tele.OnContact, Handler: middleware.Recover(middleware.Logger(contactHandler))},
	}
}

// ParseCallback splits telebot's "\f<key>|<payload>" callback encoding.
func ParseCallback(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	raw = strings.TrimPrefix(raw, "\\f")
	parts := strings.SplitN(raw, "|", 2)
	key := strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		return key, parts[1]
	}
	return key, ""
}

// summarized wraps a handler with a per-update outcome log line.
func summarized(name string, fn tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := middleware.WithHandler(c, name)
		err := fn(c)

		status := "ok"
		attrs := []slog.Attr{
			slog.Int64("duration_ms", logging.RoundMS(time.Since(start)).Milliseconds()),
		}
		if err != nil {
			status = "fail"
			attrs = append(attrs,
				slog.String("err", logging.SanitizeLimit(err.Error(), 256)),
				slog.String("err_code", errCode(err)),
			)
		}
		attrs = append([]slog.Attr{slog.String("status", status)}, attrs...)
		logging.Info(ctx, "tg", "handler.handled", attrs...)
		return err
	}
}

func trimSlash(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}

func errCode(err error) string {
	for unwrapped := err; unwrapped != nil; unwrapped = errors.Unwrap(unwrapped) {
		err = unwrapped
	}
	code := strings.TrimSpace(err.Error())
	if idx := strings.IndexByte(code, ':'); idx > 0 {
		code = code[:idx]
	}
	return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
}
