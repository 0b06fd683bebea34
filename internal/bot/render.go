package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/conversation"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
)

// Callback uniques for the ordering flow buttons.
const (
	cbStart   = "ord_start"
	cbTier    = "ord_tier"
	cbAddon   = "ord_addon"
	cbProceed = "ord_proceed"
	cbBack    = "ord_back"
	cbConfirm = "ord_confirm"
	cbCancel  = "ord_cancel"
)

// buttonFor maps an engine action to its callback button encoding.
func buttonFor(label string, act conversation.Action) (tg.InlineBtn, bool) {
	switch act.Kind {
	case conversation.ActionStart:
		return tg.InlineBtn{Text: label, Unique: cbStart}, true
	case conversation.ActionSelectTier:
		return tg.InlineBtn{Text: label, Unique: cbTier, Data: act.Payload}, true
	case conversation.ActionToggleAddon:
		return tg.InlineBtn{Text: label, Unique: cbAddon, Data: act.Payload}, true
	case conversation.ActionProceed:
		return tg.InlineBtn{Text: label, Unique: cbProceed}, true
	case conversation.ActionBack:
		return tg.InlineBtn{Text: label, Unique: cbBack, Data: act.Payload}, true
	case conversation.ActionConfirm:
		return tg.InlineBtn{Text: label, Unique: cbConfirm}, true
	case conversation.ActionCancel:
		return tg.InlineBtn{Text: label, Unique: cbCancel}, true
	}
	return tg.InlineBtn{}, false
}

func markupFor(reply conversation.Reply) *tele.ReplyMarkup {
	if reply.WantsContact {
		return tg.ContactRequestKeyboard("📱 Share phone number")
	}
	if len(reply.Menu) == 0 {
		return nil
	}
	rows := make([][]tg.InlineBtn, 0, len(reply.Menu))
	for _, choice := range reply.Menu {
		btn, ok := buttonFor(choice.Label, choice.Action)
		if !ok {
			continue
		}
		rows = append(rows, []tg.InlineBtn{btn})
	}
	if len(rows) == 0 {
		return nil
	}
	return tg.InlineButtonsRows(rows...)
}

// sendReply delivers an engine reply as a fresh message.
func sendReply(c tele.Context, reply conversation.Reply) error {
	if markup := markupFor(reply); markup != nil {
		return c.Send(reply.Text, markup)
	}
	return c.Send(reply.Text, tg.RemoveKeyboard())
}

// editReply rewrites the message the pressed button belongs to, falling back
// to a fresh message when editing is not possible (old message, same text).
func editReply(c tele.Context, reply conversation.Reply) error {
	if c.Callback() == nil || reply.WantsContact {
		return sendReply(c, reply)
	}
	var err error
	if markup := markupFor(reply); markup != nil {
		err = c.Edit(reply.Text, markup)
	} else {
		err = c.Edit(reply.Text)
	}
	if err != nil {
		return sendReply(c, reply)
	}
	return nil
}
