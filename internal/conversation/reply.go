package conversation

import (
	"fmt"
	"strings"

	"github.com/habtamu-tamere/Bot/internal/session"
)

// Choice is one menu option offered alongside a reply. The adapter renders it
// as an inline button and maps presses back to the embedded action.
type Choice struct {
	Label  string
	Action Action
}

// Reply is the outbound payload of one engine transition: message text plus
// the menu to render. Rendering to Telegram markup is the adapter's job.
type Reply struct {
	Text string
	Menu []Choice
	// WantsContact marks prompts where sharing a phone number is the
	// expected input, so the adapter can offer a contact keyboard.
	WantsContact bool
}

const (
	msgStartOver = "Your session has expired. Please start over with /start."
	msgCancelled = "Order cancelled. Type /start whenever you want to begin again."

	msgAskContact = "📞 Almost done! Please share your phone number or type your preferred contact info."
	msgAskBiz     = "🏢 What is the name of your business?"
	msgAskReq     = "📝 Any special requests? Describe them, or type \"None\"."
)

func (e *Engine) tierPrompt() Reply {
	var b strings.Builder
	b.WriteString("💰 Our service packages (monthly, ETB):\n\n")
	menu := make([]Choice, 0, len(e.cat.Tiers())+1)
	for _, t := range e.cat.Tiers() {
		fmt.Fprintf(&b, "%s — %d ETB\n", t.Name, t.Price)
		for _, f := range t.Features {
			fmt.Fprintf(&b, "  • %s\n", f)
		}
		b.WriteString("\n")
		menu = append(menu, Choice{
			Label:  fmt.Sprintf("%s — %d ETB", t.Name, t.Price),
			Action: SelectTier(t.ID),
		})
	}
	b.WriteString("Choose a package to continue.")
	menu = append(menu, Choice{Label: "❌ Cancel", Action: Cancel()})
	return Reply{Text: b.String(), Menu: menu}
}

func (e *Engine) addonPrompt(sess session.Session) Reply {
	tier, _ := e.cat.Tier(sess.TierID)
	total := e.cat.Total(sess.TierID, sess.Addons)

	var b strings.Builder
	fmt.Fprintf(&b, "➕ Add-on services for %s:\n\n", tier.Name)
	menu := make([]Choice, 0, len(e.cat.Addons())+3)
	for _, a := range e.cat.Addons() {
		mark := "⬜"
		if containsID(sess.Addons, a.ID) {
			mark = "✅"
		}
		menu = append(menu, Choice{
			Label:  fmt.Sprintf("%s %s — %d ETB", mark, a.Name, a.Price),
			Action: ToggleAddon(a.ID),
		})
	}
	if len(sess.Addons) > 0 {
		fmt.Fprintf(&b, "Selected: %s\n", strings.Join(e.cat.AddonNames(sess.Addons), ", "))
	} else {
		b.WriteString("No add-ons selected yet.\n")
	}
	fmt.Fprintf(&b, "\nCurrent total: %d ETB", total)
	menu = append(menu,
		Choice{Label: "➡️ Continue", Action: Proceed()},
		Choice{Label: "🔙 Change package", Action: Back(BackToTier)},
		Choice{Label: "❌ Cancel", Action: Cancel()},
	)
	return Reply{Text: b.String(), Menu: menu}
}

func (e *Engine) contactPrompt() Reply {
	return Reply{Text: msgAskContact, Menu: []Choice{{Label: "❌ Cancel", Action: Cancel()}}, WantsContact: true}
}

func (e *Engine) businessPrompt() Reply {
	return Reply{Text: msgAskBiz, Menu: []Choice{{Label: "❌ Cancel", Action: Cancel()}}}
}

func (e *Engine) requestsPrompt() Reply {
	return Reply{Text: msgAskReq, Menu: []Choice{{Label: "❌ Cancel", Action: Cancel()}}}
}

func (e *Engine) summaryPrompt(sess session.Session, total int) Reply {
	tier, _ := e.cat.Tier(sess.TierID)

	var b strings.Builder
	b.WriteString("🧾 Order summary:\n\n")
	fmt.Fprintf(&b, "📦 Package: %s — %d ETB\n", tier.Name, tier.Price)
	if len(sess.Addons) > 0 {
		fmt.Fprintf(&b, "➕ Add-ons: %s\n", strings.Join(e.cat.AddonNames(sess.Addons), ", "))
	} else {
		b.WriteString("➕ Add-ons: none\n")
	}
	fmt.Fprintf(&b, "📞 Contact: %s\n", sess.Contact)
	fmt.Fprintf(&b, "🏢 Business: %s\n", sess.Business)
	fmt.Fprintf(&b, "📝 Requests: %s\n", sess.Requests)
	fmt.Fprintf(&b, "\n💰 Total: %d ETB/month\n\nConfirm to place the order.", total)

	return Reply{
		Text: b.String(),
		Menu: []Choice{
			{Label: "✅ Confirm Order", Action: Confirm()},
			{Label: "✏️ Edit Add-ons", Action: Back("")},
			{Label: "🔙 Change Package", Action: Back(BackToTier)},
			{Label: "❌ Cancel", Action: Cancel()},
		},
	}
}

func completedReply(orderID int64) Reply {
	return Reply{Text: fmt.Sprintf(
		"🎉 Thank you! Your order #%d has been received and is pending review.\n"+
			"Our team will contact you shortly.", orderID)}
}

func startOverReply() Reply {
	return Reply{Text: msgStartOver}
}

func cancelledReply() Reply {
	return Reply{Text: msgCancelled}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
