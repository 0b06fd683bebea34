package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/conversation"
	"github.com/habtamu-tamere/Bot/internal/order"
	"github.com/habtamu-tamere/Bot/internal/session"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
	"github.com/habtamu-tamere/Bot/internal/telegram/middleware"
)

func (b *Bot) registerCommands(reg *tg.Registry) {
	reg.RegisterCommand("/start", tg.Command{
		Handler:     b.startHandler,
		Description: "Order a website package",
	})
	reg.RegisterCommand("/cancel", tg.Command{
		Handler:     b.cancelHandler,
		Description: "Cancel the current flow",
	})
	reg.RegisterCommand("/pricing", tg.Command{
		Handler:     b.pricingHandler,
		Description: "Show packages and add-on prices",
	})
	reg.RegisterCommand("/postajob", tg.Command{
		Handler:     b.postJobHandler,
		Description: "Publish a job to the channel",
	})
	reg.RegisterCommand("/makecv", tg.Command{
		Handler:     b.makeCVHandler,
		Description: "Build a simple CV",
	})
	if b.opts.WebURL != "" {
		reg.RegisterCommand("/web", tg.Command{
			Handler:     b.webHandler,
			Description: "Browse jobs on the web",
		})
	}
	reg.RegisterCommand("/help", tg.Command{
		Handler:     b.helpHandler,
		Description: "How to use this bot",
	})
	reg.RegisterCommand("/orders", tg.Command{
		Handler:   b.ordersHandler,
		AdminOnly: true,
	})
	reg.RegisterCommand("/post", tg.Command{
		Handler:   b.channelPostHandler,
		AdminOnly: true,
	})
}

// startHandler always begins a fresh ordering flow, discarding whatever flow
// the user was in.
func (b *Bot) startHandler(c tele.Context) error {
	b.sessions.Clear(c.Sender().ID)
	return b.dispatch(c, conversation.Start())
}

func (b *Bot) cancelHandler(c tele.Context) error {
	return b.dispatch(c, conversation.Cancel())
}

func (b *Bot) pricingHandler(c tele.Context) error {
	var sb strings.Builder
	sb.WriteString("💰 Website packages (monthly, ETB):\n\n")
	for _, t := range b.cat.Tiers() {
		fmt.Fprintf(&sb, "%s — %d ETB\n", t.Name, t.Price)
	}
	sb.WriteString("\n➕ Add-ons:\n")
	for _, a := range b.cat.Addons() {
		fmt.Fprintf(&sb, "%s — %d ETB\n", a.Name, a.Price)
	}
	sb.WriteString("\nUse /start to place an order.")
	return c.Send(sb.String())
}

func (b *Bot) helpHandler(c tele.Context) error {
	return c.Send("Here is what I can do:\n\n" +
		"/start — order a website package\n" +
		"/pricing — packages and add-on prices\n" +
		"/postajob — publish a job opening to our channel\n" +
		"/makecv — build a simple CV\n" +
		"/cancel — abandon the current flow")
}

// webHandler points the user at the job portal web page.
func (b *Bot) webHandler(c tele.Context) error {
	return c.Send("🌐 Browse open jobs on the web: " + b.opts.WebURL)
}

func (b *Bot) postJobHandler(c tele.Context) error {
	userID := c.Sender().ID
	b.sessions.Clear(userID)
	b.sessions.SetState(userID, session.StatePostingJob)
	b.sessions.SetScratch(userID, scratchStep, jobStepTitle)
	return c.Send("💼 Let's post a job. What is the job title?")
}

func (b *Bot) makeCVHandler(c tele.Context) error {
	userID := c.Sender().ID
	b.sessions.Clear(userID)
	b.sessions.SetState(userID, session.StateDraftingCV)
	b.sessions.SetScratch(userID, scratchStep, cvStepName)
	return c.Send("📄 Let's build your CV. What is your full name?")
}

// ordersHandler lists orders for the admin, newest first. An optional
// argument filters by status, e.g. "/orders pending".
func (b *Bot) ordersHandler(c tele.Context) error {
	var status order.Status
	if arg := strings.TrimSpace(c.Message().Payload); arg != "" {
		status = order.Status(strings.ToLower(arg))
		if !status.Valid() {
			return c.Send("Unknown status. Use pending, approved or rejected.")
		}
	}

	ctx := middleware.BuildContext(c)
	list, err := b.orders.List(ctx, status)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return c.Send("No orders found.")
	}

	const limit = 20
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Orders (%d):\n\n", len(list))
	for i, o := range list {
		if i == limit {
			fmt.Fprintf(&sb, "… and %d more\n", len(list)-limit)
			break
		}
		fmt.Fprintf(&sb, "#%d [%s] %s — %d ETB", o.ID, o.Status, o.TierID, o.Total)
		if len(o.Addons) > 0 {
			fmt.Fprintf(&sb, " (+%s)", strings.Join(o.Addons, ", "))
		}
		fmt.Fprintf(&sb, "\n   📞 %s", o.Phone)
		if o.Business != "" {
			fmt.Fprintf(&sb, " · 🏢 %s", o.Business)
		}
		sb.WriteString("\n")
	}
	return c.Send(sb.String())
}

// channelPostHandler forwards admin text to the public channel.
func (b *Bot) channelPostHandler(c tele.Context) error {
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return c.Send("Usage: /post <text to publish>")
	}
	if b.notifier == nil {
		return c.Send("Channel publishing is not configured.")
	}
	if err := b.notifier.ChannelPost(middleware.BuildContext(c), text); err != nil {
		return err
	}
	return c.Send("📣 Queued for the channel.")
}
