// Package bot adapts Telegram updates to conversation actions and renders
// engine replies back into messages and inline keyboards. It owns the
// command and callback registrations for the ordering, job posting and CV
// flows plus the admin surface.
package bot

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/catalog"
	"github.com/habtamu-tamere/Bot/internal/conversation"
	"github.com/habtamu-tamere/Bot/internal/cvs"
	"github.com/habtamu-tamere/Bot/internal/jobs"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/notify"
	"github.com/habtamu-tamere/Bot/internal/order"
	"github.com/habtamu-tamere/Bot/internal/session"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
)

// Options carries the identity settings the handlers need.
type Options struct {
	AdminID int64
	// WebURL points at the job portal web page; empty disables /web.
	WebURL string
}

// Bot glues the conversation engine, repositories and notifier to Telegram.
type Bot struct {
	engine   *conversation.Engine
	sessions *session.Store
	cat      *catalog.Catalog
	orders   order.Repository
	jobs     jobs.Repository
	cvs      cvs.Repository
	notifier *notify.Telegram
	opts     Options
	log      *slog.Logger
}

// New wires the adapter. notifier may be nil in tests.
func New(
	engine *conversation.Engine,
	sessions *session.Store,
	cat *catalog.Catalog,
	orders order.Repository,
	jobRepo jobs.Repository,
	cvRepo cvs.Repository,
	notifier *notify.Telegram,
	opts Options,
) *Bot {
	return &Bot{
		engine:   engine,
		sessions: sessions,
		cat:      cat,
		orders:   orders,
		jobs:     jobRepo,
		cvs:      cvRepo,
		notifier: notifier,
		opts:     opts,
		log:      logging.Component("bot"),
	}
}

// Register installs every command, callback and the text fallback.
func (b *Bot) Register(reg *tg.Registry) {
	b.registerCommands(reg)
	b.registerCallbacks(reg)
	reg.SetTextFallback(func(c tele.Context) error {
		return c.Send("I didn't catch that. Use /start to order a website, /postajob to publish a job, or /help for the full list.")
	})
}

// InProgress reports whether the sender has an active flow. The text router
// consults it before command lookup.
func (b *Bot) InProgress(userID int64) bool {
	return b.sessions.InProgress(userID)
}

func username(c tele.Context) string {
	if s := c.Sender(); s != nil {
		return s.Username
	}
	return ""
}

func identity(c tele.Context) conversation.Identity {
	s := c.Sender()
	if s == nil {
		return conversation.Identity{}
	}
	return conversation.Identity{
		Username:  s.Username,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}
