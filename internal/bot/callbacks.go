package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/conversation"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/notify"
	"github.com/habtamu-tamere/Bot/internal/order"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
	"github.com/habtamu-tamere/Bot/internal/telegram/middleware"
	"github.com/habtamu-tamere/Bot/internal/telegram/router"
)

func (b *Bot) registerCallbacks(reg *tg.Registry) {
	actions := map[string]func(payload string) conversation.Action{
		cbStart:   func(string) conversation.Action { return conversation.Start() },
		cbTier:    conversation.SelectTier,
		cbAddon:   conversation.ToggleAddon,
		cbProceed: func(string) conversation.Action { return conversation.Proceed() },
		cbBack:    conversation.Back,
		cbConfirm: func(string) conversation.Action { return conversation.Confirm() },
		cbCancel:  func(string) conversation.Action { return conversation.Cancel() },
	}
	for key, build := range actions {
		build := build
		reg.RegisterCallback(key, func(c tele.Context) error {
			_, payload := router.ParseCallback(c.Callback())
			return b.dispatch(c, build(payload))
		})
	}

	reg.RegisterCallback(notify.CallbackApprove, b.moderationCallback(order.StatusApproved))
	reg.RegisterCallback(notify.CallbackReject, b.moderationCallback(order.StatusRejected))

	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Send("That button is no longer active. Use /start to begin again.")
	})
}

// dispatch feeds one decoded action to the engine. A rejected transition is
// not an error to the user; the current prompt is simply rendered again.
func (b *Bot) dispatch(c tele.Context, act conversation.Action) error {
	ctx := middleware.BuildContext(c)
	reply, err := b.engine.Handle(ctx, c.Sender().ID, identity(c), act)
	if err != nil {
		if errors.Is(err, conversation.ErrInvalidTransition) {
			return editReply(c, b.engine.Prompt(c.Sender().ID))
		}
		logging.Error(ctx, "bot", "action.failed",
			slog.String("action", string(act.Kind)),
			slog.String("err", err.Error()),
		)
		_ = c.Send("Something went wrong saving your order. Please try again in a moment.")
		return err
	}
	return editReply(c, reply)
}

// moderationCallback resolves an admin approve or reject press. The callback
// route carries no admin middleware, so the sender is checked here.
func (b *Bot) moderationCallback(status order.Status) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil || c.Sender().ID != b.opts.AdminID {
			return c.Respond(&tele.CallbackResponse{Text: "Not allowed."})
		}
		_, payload := router.ParseCallback(c.Callback())
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return fmt.Errorf("bad order id %q: %w", payload, err)
		}

		ctx := middleware.BuildContext(c)
		if err := b.orders.UpdateStatus(ctx, id, status); err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return c.Send(fmt.Sprintf("Order #%d no longer exists.", id))
			}
			return err
		}

		o, err := b.orders.Get(ctx, id)
		if err == nil && b.notifier != nil {
			if nerr := b.notifier.OrderStatusChanged(ctx, o); nerr != nil {
				logging.Warn(ctx, "bot", "moderation.notify_failed",
					slog.Int64("order_id", id),
					slog.String("err", nerr.Error()),
				)
			}
		}

		logging.Info(ctx, "bot", "moderation.applied",
			slog.Int64("order_id", id),
			slog.String("outcome", string(status)),
		)

		verdict := "✅ approved"
		if status == order.StatusRejected {
			verdict = "❌ rejected"
		}
		if c.Message() != nil {
			return c.Edit(c.Message().Text + "\n\n" + "Order " + verdict + ".")
		}
		return c.Send(fmt.Sprintf("Order #%d %s.", id, verdict))
	}
}
