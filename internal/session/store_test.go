package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habtamu-tamere/Bot/internal/catalog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(catalog.Default())
}

func TestGetOrCreateStartsIdle(t *testing.T) {
	s := newTestStore(t)

	sess := s.GetOrCreate(1)
	assert.Equal(t, StateIdle, sess.State)
	assert.Empty(t, sess.Addons)

	_, ok := s.Peek(2)
	assert.False(t, ok)
}

func TestSetTierResetsAddons(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetTier(1, "basic"))
	require.NoError(t, s.ToggleAddon(1, "video"))
	require.NoError(t, s.ToggleAddon(1, "seo"))

	total, err := s.ComputeTotal(1)
	require.NoError(t, err)
	assert.Equal(t, 4250, total)

	// Re-selecting a tier discards previous add-on choices.
	require.NoError(t, s.SetTier(1, "professional"))
	sess, ok := s.Peek(1)
	require.True(t, ok)
	assert.Empty(t, sess.Addons)

	total, err = s.ComputeTotal(1)
	require.NoError(t, err)
	assert.Equal(t, 5000, total)
}

func TestSetTierUnknown(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.SetTier(1, "platinum"), ErrUnknownTier)
}

func TestToggleAddonParity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetTier(1, "basic"))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.ToggleAddon(1, "video"))
	}
	sess, _ := s.Peek(1)
	assert.Equal(t, []string{"video"}, sess.Addons)

	require.NoError(t, s.ToggleAddon(1, "video"))
	sess, _ = s.Peek(1)
	assert.Empty(t, sess.Addons)
}

func TestToggleAddonErrors(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.ToggleAddon(9, "video"), ErrNoSession)

	s.SetState(1, StateSelectingAddons)
	assert.ErrorIs(t, s.ToggleAddon(1, "video"), ErrNoTierSelected)

	require.NoError(t, s.SetTier(1, "basic"))
	assert.ErrorIs(t, s.ToggleAddon(1, "hologram"), ErrUnknownAddon)
}

func TestClearDropsSession(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetTier(1, "basic"))
	s.SetState(1, StateSelectingAddons)
	require.True(t, s.InProgress(1))

	s.Clear(1)
	assert.False(t, s.InProgress(1))
	_, ok := s.Peek(1)
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetTier(1, "basic"))
	require.NoError(t, s.ToggleAddon(1, "video"))

	sess, _ := s.Peek(1)
	sess.Addons[0] = "mutated"
	sess.Scratch["x"] = "y"

	fresh, _ := s.Peek(1)
	assert.Equal(t, []string{"video"}, fresh.Addons)
	_, ok := fresh.Scratch["x"]
	assert.False(t, ok)
}

func TestConcurrentTogglesKeepParity(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetTier(1, "basic"))

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = s.ToggleAddon(1, "seo")
		}()
	}
	wg.Wait()

	// Even number of toggles lands back on "not selected".
	sess, _ := s.Peek(1)
	assert.Empty(t, sess.Addons)

	total, err := s.ComputeTotal(1)
	require.NoError(t, err)
	assert.Equal(t, 2500, total)
}

func TestScratchFlows(t *testing.T) {
	s := newTestStore(t)
	s.SetState(1, StatePostingJob)
	s.SetScratch(1, "step", "title")

	v, ok := s.Scratch(1, "step")
	require.True(t, ok)
	assert.Equal(t, "title", v)
	assert.True(t, s.InProgress(1))
}
