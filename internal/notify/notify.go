// Package notify delivers order and job events to Telegram recipients: the
// admin chat for new orders, the customer for moderation outcomes and the
// public channel for published jobs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/jobs"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/order"
	"github.com/habtamu-tamere/Bot/internal/telegram"
	"github.com/habtamu-tamere/Bot/internal/telegram/sender"
)

// Callback uniques for the admin moderation buttons attached to order notices.
const (
	CallbackApprove = "ord_approve"
	CallbackReject  = "ord_reject"
)

// Options configures the notifier's recipients.
type Options struct {
	AdminID int64
	// Channel is the public channel for job posts, either "@username" or a
	// numeric chat id. Empty disables channel publishing.
	Channel string
}

// Telegram sends notifications through the bot API, queueing each send on the
// asynchronous dispatcher when one is attached. The bot instance is bound
// after startup because the runtime builds it.
type Telegram struct {
	bot  atomic.Pointer[tele.Bot]
	disp *sender.Dispatcher
	opts Options
	log  *slog.Logger
}

// New builds a notifier. disp may be nil, in which case sends are synchronous.
func New(disp *sender.Dispatcher, opts Options) *Telegram {
	return &Telegram{
		disp: disp,
		opts: opts,
		log:  logging.Component("notify"),
	}
}

// Bind attaches the running bot instance. Sends before Bind fail.
func (n *Telegram) Bind(bot *tele.Bot) {
	n.bot.Store(bot)
}

// OrderCreated tells the admin about a newly confirmed order and attaches
// approve and reject buttons.
func (n *Telegram) OrderCreated(ctx context.Context, o order.Order) error {
	if n.opts.AdminID == 0 {
		return errors.New("notify: no admin configured")
	}
	text := formatOrder(o)
	id := strconv.FormatInt(o.ID, 10)
	markup := telegram.InlineButtonsRows([]telegram.InlineBtn{
		{Text: "✅ Approve", Unique: CallbackApprove, Data: id},
		{Text: "❌ Reject", Unique: CallbackReject, Data: id},
	})
	return n.send(ctx, "notify.order_created", tele.ChatID(n.opts.AdminID), text, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: markup,
	})
}

// OrderStatusChanged tells the customer the moderation outcome.
func (n *Telegram) OrderStatusChanged(ctx context.Context, o order.Order) error {
	var text string
	switch o.Status {
	case order.StatusApproved:
		text = fmt.Sprintf("🎉 Your order #%d has been approved! We will contact you at %s to get started.", o.ID, o.Phone)
	case order.StatusRejected:
		text = fmt.Sprintf("Unfortunately your order #%d was not accepted. Feel free to reach out for details.", o.ID)
	default:
		return fmt.Errorf("notify: no customer message for status %q", o.Status)
	}
	return n.send(ctx, "notify.order_status", tele.ChatID(o.UserID), text, nil)
}

// JobPosted publishes a job announcement to the configured channel with a
// deep-link button back to the bot.
func (n *Telegram) JobPosted(ctx context.Context, j jobs.Job) error {
	rcpt, err := n.channelRecipient()
	if err != nil {
		return err
	}
	return n.send(ctx, "notify.job_posted", rcpt, formatJob(j), &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: n.botLinkMarkup("📄 Build your CV"),
	})
}

// ChannelPost publishes free-form admin text to the configured channel.
func (n *Telegram) ChannelPost(ctx context.Context, text string) error {
	rcpt, err := n.channelRecipient()
	if err != nil {
		return err
	}
	return n.send(ctx, "notify.channel_post", rcpt, text, &tele.SendOptions{
		ReplyMarkup: n.botLinkMarkup("🤖 Open bot"),
	})
}

// botLinkMarkup returns an inline keyboard with a single deep link to the
// bound bot, or nil when the bot username is not yet known.
func (n *Telegram) botLinkMarkup(label string) *tele.ReplyMarkup {
	bot := n.bot.Load()
	if bot == nil || bot.Me == nil || bot.Me.Username == "" {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL(label, "https://t.me/"+bot.Me.Username)))
	return markup
}

func (n *Telegram) channelRecipient() (tele.Recipient, error) {
	ch := strings.TrimSpace(n.opts.Channel)
	if ch == "" {
		return nil, errors.New("notify: no channel configured")
	}
	if id, err := strconv.ParseInt(ch, 10, 64); err == nil {
		return tele.ChatID(id), nil
	}
	return &tele.Chat{Username: strings.TrimPrefix(ch, "@"), Type: tele.ChatChannel}, nil
}

// send queues on the dispatcher and falls back to a direct call when the
// queue is unavailable.
func (n *Telegram) send(ctx context.Context, action string, to tele.Recipient, text string, opts *tele.SendOptions) error {
	bot := n.bot.Load()
	if bot == nil {
		return errors.New("notify: bot not bound")
	}
	run := func() error {
		var err error
		if opts != nil {
			_, err = bot.Send(to, text, opts)
		} else {
			_, err = bot.Send(to, text)
		}
		return err
	}
	if n.disp == nil {
		return run()
	}
	if err := n.disp.Enqueue(ctx, action, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			n.log.LogAttrs(ctx, slog.LevelWarn, "queue.fallback",
				slog.String("action", action),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func formatOrder(o order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>New Order #%d</b>\n\n", o.ID)
	fmt.Fprintf(&b, "👤 Customer: %s", htmlEscape(displayName(o)))
	if o.Username != "" {
		fmt.Fprintf(&b, " (@%s)", htmlEscape(o.Username))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "📞 Phone: %s\n", htmlEscape(o.Phone))
	if o.Business != "" {
		fmt.Fprintf(&b, "🏢 Business: %s\n", htmlEscape(o.Business))
	}
	fmt.Fprintf(&b, "📦 Package: %s\n", htmlEscape(o.TierID))
	if len(o.Addons) > 0 {
		fmt.Fprintf(&b, "➕ Add-ons: %s\n", htmlEscape(strings.Join(o.Addons, ", ")))
	}
	fmt.Fprintf(&b, "💰 Total: %d ETB\n", o.Total)
	if o.Requests != "" {
		fmt.Fprintf(&b, "📝 Requests: %s\n", htmlEscape(o.Requests))
	}
	return b.String()
}

func formatJob(j jobs.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 <b>%s</b>\n\n", htmlEscape(j.Title))
	fmt.Fprintf(&b, "%s\n\n", htmlEscape(j.Description))
	fmt.Fprintf(&b, "📩 Contact: %s", htmlEscape(j.Contact))
	return b.String()
}

func displayName(o order.Order) string {
	name := strings.TrimSpace(o.FirstName + " " + o.LastName)
	if name == "" {
		name = strconv.FormatInt(o.UserID, 10)
	}
	return name
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
