package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habtamu-tamere/Bot/internal/catalog"
	"github.com/habtamu-tamere/Bot/internal/order"
	"github.com/habtamu-tamere/Bot/internal/session"
)

// memRepo is an in-memory order repository for engine tests.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]order.Order
	failed bool
}

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[int64]order.Order)}
}

func (r *memRepo) Create(_ context.Context, o order.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return 0, &order.PersistenceError{Op: "create", Err: errors.New("disk on fire")}
	}
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = o
	return o.ID, nil
}

func (r *memRepo) Get(_ context.Context, id int64) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (r *memRepo) List(_ context.Context, _ order.Status) ([]order.Order, error) {
	return nil, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id int64, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	seen  []order.Order
	fails bool
}

func (n *recordingNotifier) OrderCreated(_ context.Context, o order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fails {
		return errors.New("telegram is down")
	}
	n.seen = append(n.seen, o)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *session.Store, *memRepo, *recordingNotifier) {
	t.Helper()
	cat := catalog.Default()
	store := session.NewStore(cat)
	repo := newMemRepo()
	notifier := &recordingNotifier{}
	return NewEngine(cat, store, repo, notifier), store, repo, notifier
}

func TestFullOrderFlow(t *testing.T) {
	e, store, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	const userID = int64(100)
	ident := Identity{Username: "abebe", FirstName: "Abebe", LastName: "Bekele"}

	reply, err := e.Handle(ctx, userID, ident, Start())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Choose a package")

	_, err = e.Handle(ctx, userID, ident, SelectTier("basic"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, ident, ToggleAddon("video"))
	require.NoError(t, err)
	reply, err = e.Handle(ctx, userID, ident, ToggleAddon("seo"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "4250")

	reply, err = e.Handle(ctx, userID, ident, Proceed())
	require.NoError(t, err)
	assert.True(t, reply.WantsContact)

	_, err = e.Handle(ctx, userID, ident, ContactShared("+251911000000"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, ident, Text("Sheger Coffee"))
	require.NoError(t, err)
	reply, err = e.Handle(ctx, userID, ident, Text("None"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Total: 4250 ETB")

	reply, err = e.Handle(ctx, userID, ident, Confirm())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "#1")

	o, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "basic", o.TierID)
	assert.ElementsMatch(t, []string{"video", "seo"}, o.Addons)
	assert.Equal(t, 4250, o.Total)
	assert.Equal(t, "abebe", o.Username)
	assert.Equal(t, "Abebe", o.FirstName)
	assert.Equal(t, "Bekele", o.LastName)
	assert.Equal(t, "+251911000000", o.Phone)
	assert.Equal(t, "Sheger Coffee", o.Business)

	require.Len(t, notifier.seen, 1)
	assert.Equal(t, int64(1), notifier.seen[0].ID)

	// The session is gone once the order is placed.
	assert.False(t, store.InProgress(userID))
}

func TestInvalidTransitions(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	const userID = int64(7)

	_, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)

	// Toggling before a package is chosen is rejected.
	_, err = e.Handle(ctx, userID, Identity{}, ToggleAddon("video"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Confirming from tier selection is rejected too.
	_, err = e.Handle(ctx, userID, Identity{}, Confirm())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The prompt for the current state is still renderable afterwards.
	reply := e.Prompt(userID)
	assert.Contains(t, reply.Text, "Choose a package")
}

func TestUnknownTierAndAddon(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	const userID = int64(8)

	_, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)

	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("platinum"))
	assert.ErrorIs(t, err, session.ErrUnknownTier)

	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("basic"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, ToggleAddon("hologram"))
	assert.ErrorIs(t, err, session.ErrUnknownAddon)
}

func TestCancelThenFreshSelect(t *testing.T) {
	e, store, _, _ := newTestEngine(t)
	ctx := context.Background()
	const userID = int64(9)

	_, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("professional"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, ToggleAddon("video"))
	require.NoError(t, err)

	reply, err := e.Handle(ctx, userID, Identity{}, Cancel())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "cancelled")
	assert.False(t, store.InProgress(userID))

	// Selecting a tier right after cancel behaves like a fresh session.
	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("basic"))
	require.NoError(t, err)
	sess, ok := store.Peek(userID)
	require.True(t, ok)
	assert.Equal(t, "basic", sess.TierID)
	assert.Empty(t, sess.Addons)
}

func TestCancelDuringAuxiliaryFlows(t *testing.T) {
	e, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	for i, st := range []session.State{session.StatePostingJob, session.StateDraftingCV} {
		userID := int64(20 + i)
		store.SetState(userID, st)

		reply, err := e.Handle(ctx, userID, Identity{}, Cancel())
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "cancelled")
		assert.False(t, store.InProgress(userID))
	}

	// /start from inside a job flow opens tier selection on a clean session.
	const userID = int64(30)
	store.SetState(userID, session.StatePostingJob)
	reply, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Choose a package")
	assert.Equal(t, session.StateSelectingTier, store.GetState(userID))
}

func TestMissingSessionRoutesToStartOver(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	reply, err := e.Handle(ctx, 55, Identity{}, Proceed())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "start over")
}

func TestPersistenceFailureKeepsSession(t *testing.T) {
	e, store, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	const userID = int64(11)

	_, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("basic"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Proceed())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("0911"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("Biz"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("None"))
	require.NoError(t, err)

	repo.failed = true
	_, err = e.Handle(ctx, userID, Identity{}, Confirm())
	var perr *order.PersistenceError
	require.ErrorAs(t, err, &perr)

	// No confirmation was produced, nothing was announced, and the user can
	// retry from the same summary.
	assert.Empty(t, notifier.seen)
	assert.Equal(t, session.StateConfirming, store.GetState(userID))

	repo.failed = false
	reply, err := e.Handle(ctx, userID, Identity{}, Confirm())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "#1")
}

func TestNotifierFailureIsNonFatal(t *testing.T) {
	e, store, repo, notifier := newTestEngine(t)
	notifier.fails = true
	ctx := context.Background()
	const userID = int64(12)

	_, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("enterprise"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Proceed())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("0911"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("Biz"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("Urgent"))
	require.NoError(t, err)

	reply, err := e.Handle(ctx, userID, Identity{}, Confirm())
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "pending review")

	o, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.False(t, store.InProgress(userID))
}

func TestEditFromSummary(t *testing.T) {
	e, store, _, _ := newTestEngine(t)
	ctx := context.Background()
	const userID = int64(13)

	_, err := e.Handle(ctx, userID, Identity{}, Start())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("basic"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, ToggleAddon("video"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Proceed())
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("0911"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("Biz"))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, Text("None"))
	require.NoError(t, err)
	require.Equal(t, session.StateConfirming, store.GetState(userID))

	// Back to add-ons keeps the chosen tier and add-ons.
	reply, err := e.Handle(ctx, userID, Identity{}, Back(""))
	require.NoError(t, err)
	assert.Equal(t, session.StateSelectingAddons, store.GetState(userID))
	assert.True(t, strings.Contains(reply.Text, "Current total: 3500 ETB"))

	// Back to packages re-opens tier selection; picking a new tier drops
	// the old add-ons.
	_, err = e.Handle(ctx, userID, Identity{}, Back(BackToTier))
	require.NoError(t, err)
	_, err = e.Handle(ctx, userID, Identity{}, SelectTier("professional"))
	require.NoError(t, err)
	sess, _ := store.Peek(userID)
	assert.Empty(t, sess.Addons)
}
