package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habtamu-tamere/Bot/internal/catalog"
	"github.com/habtamu-tamere/Bot/internal/session"
	tg "github.com/habtamu-tamere/Bot/internal/telegram"
)

func newTestBot(opts Options) *Bot {
	cat := catalog.Default()
	return New(nil, session.NewStore(cat), cat, nil, nil, nil, nil, opts)
}

func TestWebCommandRegistration(t *testing.T) {
	reg := tg.NewRegistry()
	newTestBot(Options{WebURL: "https://jobs.example.com"}).Register(reg)

	_, cmd, ok := reg.LookupCommand("/web")
	require.True(t, ok)
	assert.Equal(t, "Browse jobs on the web", cmd.Description)

	// Without a configured URL the command is not offered at all.
	reg = tg.NewRegistry()
	newTestBot(Options{}).Register(reg)
	_, _, ok = reg.LookupCommand("/web")
	assert.False(t, ok)
}
