// Package telegram carries the bot transport: command/callback registry,
// routing, middleware chain, outbound dispatcher, and the run loop.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/logging"
)

// Command describes a bot command with its handler and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
}

// Registry holds bot commands and callback handlers.
type Registry struct {
	commands    map[string]Command
	callbacksMu sync.RWMutex
	callbacks   map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty registry with a default unknown-callback reply.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds a command. Names must carry the leading slash.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	log := logging.Component("tg.wire")
	if name == "" || !strings.HasPrefix(name, "/") || cmd.Handler == nil {
		log.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("payload", name),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		log.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("payload", name),
		)
		return
	}
	r.commands[name] = cmd
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// LookupCommand finds a command by its name with or without the slash.
// Trailing arguments are ignored.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	cmd, ok := r.commands[name]
	return name, cmd, ok
}

// RegisterCallback maps a callback key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return errors.New("telegram: invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return fmt.Errorf("telegram: callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// Callback returns the handler for a key.
func (r *Registry) Callback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// CallbackKeys returns sorted callback keys for diagnostics.
func (r *Registry) CallbackKeys() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the fallback for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the unknown-callback fallback.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches no command and no
// active conversation.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// SetBotCommands publishes visible commands to the Telegram command menu.
func SetBotCommands(bot *tele.Bot, r *Registry) {
	var list []tele.Command
	for name, cmd := range r.commands {
		if cmd.Hidden || cmd.AdminOnly || cmd.Description == "" {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	if err := bot.SetCommands(list); err != nil {
		logging.Component("tg.wire").LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
