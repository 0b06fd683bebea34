package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/habtamu-tamere/Bot/internal/jobs"
	"github.com/habtamu-tamere/Bot/internal/order"
)

func TestFormatOrder(t *testing.T) {
	text := formatOrder(order.Order{
		ID:        7,
		UserID:    100,
		Username:  "abebe",
		FirstName: "Abebe",
		LastName:  "Kebede",
		Phone:     "+251911000000",
		Business:  "Sheger <Coffee>",
		TierID:    "basic",
		Addons:    []string{"video", "seo"},
		Total:     4250,
		Requests:  "None",
	})

	assert.Contains(t, text, "New Order #7")
	assert.Contains(t, text, "Abebe Kebede")
	assert.Contains(t, text, "@abebe")
	assert.Contains(t, text, "4250 ETB")
	assert.Contains(t, text, "video, seo")
	// HTML-sensitive characters in user input are escaped.
	assert.Contains(t, text, "Sheger &lt;Coffee&gt;")
	assert.NotContains(t, text, "<Coffee>")
}

func TestFormatOrderFallsBackToUserID(t *testing.T) {
	text := formatOrder(order.Order{ID: 1, UserID: 555, Phone: "0911"})
	assert.Contains(t, text, "555")
}

func TestFormatJob(t *testing.T) {
	text := formatJob(jobs.Job{
		Title:       "Barista",
		Description: "Morning shifts & weekends.",
		Contact:     "@hirer",
	})
	assert.Contains(t, text, "<b>Barista</b>")
	assert.Contains(t, text, "&amp; weekends")
	assert.Contains(t, text, "@hirer")
}

func TestChannelRecipient(t *testing.T) {
	n := New(nil, Options{Channel: "@jobs"})
	rcpt, err := n.channelRecipient()
	require.NoError(t, err)
	chat, ok := rcpt.(*tele.Chat)
	require.True(t, ok)
	assert.Equal(t, "jobs", chat.Username)

	n = New(nil, Options{Channel: "-1001234567890"})
	rcpt, err = n.channelRecipient()
	require.NoError(t, err)
	assert.Equal(t, tele.ChatID(-1001234567890), rcpt)

	n = New(nil, Options{})
	_, err = n.channelRecipient()
	assert.Error(t, err)
}

func TestSendRequiresBoundBot(t *testing.T) {
	n := New(nil, Options{AdminID: 1})
	err := n.OrderCreated(context.Background(), order.Order{ID: 1})
	assert.ErrorContains(t, err, "not bound")
}
